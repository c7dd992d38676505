package repository

import (
	"context"

	"gorm.io/gorm"
)

// TxRunner groups repository writes into one database transaction. Services
// depend on this instead of *gorm.DB directly so tests can run the engine
// against in-memory fakes.
type TxRunner interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gormTxRunner struct {
	db *gorm.DB
}

func NewTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db}
}

func (r *gormTxRunner) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}
