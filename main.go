package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"spazapos/m/internal/api"
	"spazapos/m/internal/config"
	"spazapos/m/internal/credit"
	"spazapos/m/internal/database"
	"spazapos/m/internal/migrations"
	"spazapos/m/internal/payment"
	"spazapos/m/internal/pos"
	"spazapos/m/internal/scheduler"
	"spazapos/m/internal/seed"
	"spazapos/m/internal/store"
	"spazapos/m/pkg/logger"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	db, err := database.Connect(cfg.DatabaseDSN)
	if err != nil {
		baseLogger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		baseLogger.Fatal("migration failed", zap.Error(err))
	}
	seed.LoadInventory(db, cfg.SeedPath, logger.Named(baseLogger, "seed"))

	inventory := store.NewInventoryStore(db)
	ledger := store.NewSalesLedger(db)
	payments := store.NewPaymentStore(db)

	creditSvc := credit.NewService(ledger, db, logger.Named(baseLogger, "credit"))
	processor := pos.NewProcessor(db, inventory, ledger, creditSvc, logger.Named(baseLogger, "pos"))
	payfast := payment.NewClient(cfg.PayFast, logger.Named(baseLogger, "payment"))

	sched := scheduler.New(cfg.ScoreRefreshCron, creditSvc, logger.Named(baseLogger, "scheduler"))
	sched.Start()
	defer sched.Stop()

	handler := api.New(inventory, ledger, payments, processor, creditSvc, payfast, logger.Named(baseLogger, "api"))
	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		baseLogger.Info("POS server starting", zap.String("port", cfg.HTTPPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	baseLogger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
