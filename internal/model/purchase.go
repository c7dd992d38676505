package model

import "time"

// PurchaseRelationship records which products were bought together in one
// completed transaction. Write-once; read only by downstream co-purchase
// analytics, never by the order engine.
type PurchaseRelationship struct {
	TransactionID string    `gorm:"primaryKey;size:36;not null" json:"transactionId"`
	ProductNames  []string  `gorm:"serializer:json;type:json" json:"productNames"`
	PurchaseDate  time.Time `gorm:"index;not null" json:"purchaseDate"`
}
