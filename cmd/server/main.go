// stockdash server: portfolio valuation and performance over an append-only
// trade ledger and a daily close price store.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/temadison/stockdash/internal/clients/alphavantage"
	"github.com/temadison/stockdash/internal/config"
	"github.com/temadison/stockdash/internal/database"
	"github.com/temadison/stockdash/internal/modules/ledger"
	ledgerhandlers "github.com/temadison/stockdash/internal/modules/ledger/handlers"
	"github.com/temadison/stockdash/internal/modules/portfolio"
	portfoliohandlers "github.com/temadison/stockdash/internal/modules/portfolio/handlers"
	"github.com/temadison/stockdash/internal/modules/prices"
	priceshandlers "github.com/temadison/stockdash/internal/modules/prices/handlers"
	syncsvc "github.com/temadison/stockdash/internal/modules/sync"
	synchandlers "github.com/temadison/stockdash/internal/modules/sync/handlers"
	"github.com/temadison/stockdash/internal/scheduler"
	"github.com/temadison/stockdash/internal/seed"
	"github.com/temadison/stockdash/internal/server"
	"github.com/temadison/stockdash/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Str("data_dir", cfg.DataDir).Bool("dev_mode", cfg.DevMode).Msg("Starting stockdash")

	// Databases
	ledgerDB, err := database.New(database.Config{
		Path:    cfg.LedgerDBPath(),
		Profile: database.ProfileLedger,
		Name:    "ledger",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger database")
	}
	defer ledgerDB.Close()

	historyDB, err := database.New(database.Config{
		Path:    cfg.HistoryDBPath(),
		Profile: database.ProfileStandard,
		Name:    "history",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open history database")
	}
	defer historyDB.Close()

	for _, db := range []*database.DB{ledgerDB, historyDB} {
		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Str("database", db.Name()).Msg("Failed to apply schema")
		}
	}

	// Repositories
	transactionRepo := ledger.NewTransactionRepository(ledgerDB.Conn(), log)
	priceRepo := prices.NewPriceRepository(historyDB.Conn(), log)

	// Demo data for local development
	if cfg.SeedDemo {
		if err := seed.Run(transactionRepo, log); err != nil {
			log.Fatal().Err(err).Msg("Failed to seed demo ledger")
		}
	}

	// Market data client and services
	marketClient := alphavantage.NewClient(cfg.AlphaVantageAPIKey, log)
	if cfg.AlphaVantageURL != "" {
		marketClient.SetBaseURL(cfg.AlphaVantageURL)
	}

	portfolioService := portfolio.NewService(transactionRepo, priceRepo, log)
	syncService := syncsvc.NewService(transactionRepo, priceRepo, marketClient, log)
	jobRecorder := syncsvc.NewJobRunRecorder(historyDB.Conn(), log)

	// Scheduled price sync
	sched := scheduler.New(log)
	if cfg.SyncEnabled {
		job := scheduler.NewPriceSyncJob(syncService, jobRecorder, log)
		if err := sched.AddJob(cfg.SyncSchedule, job); err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.SyncSchedule).Msg("Failed to register price sync job")
		}
		sched.Start()
		defer sched.Stop()
	} else {
		log.Info().Msg("Scheduled price sync disabled")
	}

	// HTTP server
	srv := server.New(server.Config{
		Log:               log,
		Port:              cfg.Port,
		DevMode:           cfg.DevMode,
		DataDir:           cfg.DataDir,
		LedgerDB:          ledgerDB,
		HistoryDB:         historyDB,
		PortfolioHandlers: portfoliohandlers.NewHandler(portfolioService, log),
		LedgerHandlers:    ledgerhandlers.NewHandler(transactionRepo, log),
		PricesHandlers:    priceshandlers.NewHandler(priceRepo, log),
		SyncHandlers:      synchandlers.NewHandler(syncService, log),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal().Err(err).Msg("Server stopped unexpectedly")
		}
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Graceful shutdown failed")
		}
	}

	log.Info().Msg("stockdash stopped")
}
