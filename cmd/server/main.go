// Package main is the entry point for the advisor server. It wires
// configuration, storage, market data clients, the module services and
// the background scheduler, then serves the HTTP API until interrupted.
package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/advisor/internal/backup"
	"github.com/aristath/advisor/internal/clientdata"
	"github.com/aristath/advisor/internal/clients/finnhub"
	"github.com/aristath/advisor/internal/clients/newsapi"
	"github.com/aristath/advisor/internal/clients/yahoo"
	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/database"
	"github.com/aristath/advisor/internal/events"
	"github.com/aristath/advisor/internal/modules/assistant"
	"github.com/aristath/advisor/internal/modules/audit"
	"github.com/aristath/advisor/internal/modules/backtest"
	"github.com/aristath/advisor/internal/modules/forecast"
	"github.com/aristath/advisor/internal/modules/journal"
	"github.com/aristath/advisor/internal/modules/news"
	"github.com/aristath/advisor/internal/modules/optimization"
	"github.com/aristath/advisor/internal/modules/portfolio"
	"github.com/aristath/advisor/internal/modules/report"
	"github.com/aristath/advisor/internal/modules/risk"
	"github.com/aristath/advisor/internal/modules/screener"
	"github.com/aristath/advisor/internal/modules/settings"
	"github.com/aristath/advisor/internal/modules/signals"
	"github.com/aristath/advisor/internal/scheduler"
	"github.com/aristath/advisor/internal/server"
	"github.com/aristath/advisor/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting advisor")

	store, err := config.NewStore(cfg.SettingsPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.SettingsPath).Msg("Failed to load settings")
	}

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("Failed to open database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Market data clients share one persistent cache.
	cache := clientdata.NewRepository(db.Conn())
	prices := yahoo.NewClient(cache, log)

	// News clients report themselves unconfigured when their key is empty.
	newsAPI := newsapi.NewClient(cfg.NewsAPIKey, log)
	finnhubClient := finnhub.NewClient(cfg.FinnhubKey, log)

	bus := events.NewBus()

	// Module services.
	auditRepo := audit.NewRepository(db)
	newsSvc := news.NewService(newsAPI, finnhubClient, cache, log)
	signalsSvc := signals.NewService(prices, log)
	forecastSvc := forecast.NewService(prices, log)
	screenerSvc := screener.NewService(prices, log)
	backtestSvc := backtest.NewService(prices, log)
	optimizationSvc := optimization.NewService(prices, log)
	riskSvc := risk.NewService(prices, log)
	portfolioSvc := portfolio.NewService(portfolio.NewRepository(db), prices, log)
	journalSvc := journal.NewService(journal.NewRepository(db), log)
	assistantSvc := assistant.NewService(cfg, newsSvc, log)

	reportSvc := report.NewService(store, prices, signalsSvc, forecastSvc, screenerSvc, log)
	reportRepo := report.NewRepository(db)
	dispatcher := report.NewDispatcher(cfg, log)

	handlers := server.Handlers{
		News:         news.NewHandler(newsSvc, store, log),
		Signals:      signals.NewHandler(signalsSvc, store, log),
		Forecast:     forecast.NewHandler(forecastSvc, store, log),
		Screener:     screener.NewHandler(screenerSvc, store, bus, log),
		Backtest:     backtest.NewHandler(backtestSvc, store, log),
		Optimization: optimization.NewHandler(optimizationSvc, store, log),
		Risk:         risk.NewHandler(riskSvc, store, log),
		Portfolio:    portfolio.NewHandler(portfolioSvc, store, auditRepo, log),
		Journal:      journal.NewHandler(journalSvc, auditRepo, log),
		Report:       report.NewHandler(reportSvc, reportRepo, dispatcher, auditRepo, bus, log),
		Assistant:    assistant.NewHandler(assistantSvc, log),
		Audit:        audit.NewHandler(auditRepo, log),
		Settings:     settings.NewHandler(store, auditRepo, log),
	}

	// Background jobs.
	backupSvc := backup.NewService(cfg, log)
	sched := scheduler.New(bus, log)
	jobs := []struct {
		spec string
		job  scheduler.Job
	}{
		{scheduler.ScheduleDailyReport, &scheduler.DailyReportJob{
			Service:    reportSvc,
			Repo:       reportRepo,
			Dispatcher: dispatcher,
			Audit:      auditRepo,
			Bus:        bus,
			Log:        log,
		}},
		{scheduler.SchedulePriceWarm, &scheduler.PriceWarmJob{
			Settings: store,
			Prices:   prices,
			Bus:      bus,
			Log:      log,
		}},
		{scheduler.ScheduleCacheCleanup, &scheduler.CacheCleanupJob{
			Cache: cache,
			Log:   log,
		}},
		{scheduler.ScheduleS3Backup, &scheduler.S3BackupJob{
			Backup: backupSvc,
			DBPath: cfg.DatabasePath,
			Bus:    bus,
			Log:    log,
		}},
	}
	for _, j := range jobs {
		if err := sched.Register(j.spec, j.job); err != nil {
			log.Fatal().Err(err).Str("job", j.job.Name()).Msg("Failed to register job")
		}
	}
	sched.Start()

	srv := server.New(server.Config{
		Log:      log,
		DB:       db,
		Config:   cfg,
		Bus:      bus,
		Handlers: handlers,
	})

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Advisor started")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info().Msg("Shutting down")

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Stopped")
}
