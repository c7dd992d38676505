package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"datamart-checkout/internal/client"
	"datamart-checkout/internal/config"
	"datamart-checkout/internal/handler"
	"datamart-checkout/internal/metrics"
	"datamart-checkout/internal/repository"
	"datamart-checkout/internal/server"
	"datamart-checkout/internal/service"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Printf("Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := client.InitMysqlClient(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database init failed", zap.Error(err))
	}

	authClient := client.NewAuthClient(&cfg.Services)
	catalogClient := client.NewCatalogClient(&cfg.Services)
	stripeClient := client.NewStripeClient(&cfg.Stripe)

	txRunner := repository.NewTxRunner(db)
	orderRepo := repository.NewOrderRepository(db)
	txRepo := repository.NewTransactionRepository(db)
	purchaseRepo := repository.NewPurchaseRelationshipRepository(db)

	m := metrics.Default()

	orderService := service.NewOrderService(txRunner, orderRepo, txRepo, stripeClient, logger)
	checkoutService := service.NewCheckoutService(
		txRunner,
		orderRepo,
		txRepo,
		purchaseRepo,
		catalogClient,
		stripeClient,
		orderService,
		m,
		logger,
	)

	checkoutHandler := handler.NewCheckoutHandler(checkoutService)
	orderHandler := handler.NewOrderHandler(orderService)
	analyticsHandler := handler.NewAnalyticsHandler(purchaseRepo)

	srv := server.NewServer(authClient, checkoutHandler, orderHandler, analyticsHandler, logger)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	logger.Info("starting HTTP server", zap.String("addr", serverAddr))
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	logger.Info("signal received, starting graceful shutdown")

	if err := srv.Shutdown(); err != nil {
		logger.Fatal("HTTP server shutdown error", zap.Error(err))
	}
}

func newLogger(cfg config.Log) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zapCfg.Encoding = "console"
	}
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.EncoderConfig.TimeKey = "ts"
	zapCfg.EncoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder

	return zapCfg.Build()
}
