package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hostdeck/hostdeck/internal/api/handlers"
	"github.com/hostdeck/hostdeck/internal/api/router"
	"github.com/hostdeck/hostdeck/internal/config"
	"github.com/hostdeck/hostdeck/internal/domain/shop"
	"github.com/hostdeck/hostdeck/internal/integrations"
	"github.com/hostdeck/hostdeck/internal/panel"
	"github.com/hostdeck/hostdeck/internal/pkg/logger"
	"github.com/hostdeck/hostdeck/internal/pkg/validator"
	"github.com/hostdeck/hostdeck/internal/repository/postgres"
	"github.com/hostdeck/hostdeck/internal/services"
	"github.com/hostdeck/hostdeck/internal/worker"
	"github.com/hostdeck/hostdeck/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.OutputPath,
	})

	db, err := postgres.New(cfg.Database)
	if err != nil {
		log.FatalWithErr(err, "Failed to connect to database")
	}
	defer db.Close()

	if err := postgres.RunMigrations(db, migrations.FS); err != nil {
		log.FatalWithErr(err, "Failed to run migrations")
	}

	priceTable, err := shop.LoadTable(cfg.Shop.ConfigPath)
	if err != nil {
		log.FatalWithErr(err, "Failed to load shop config")
	}

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	planRepo := postgres.NewPlanRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)
	demoRepo := postgres.NewDemoServerRepository(db)

	// External integrations
	panelClient := panel.NewClient(panel.Config{
		BaseURL: cfg.Panel.BaseURL,
		APIKey:  cfg.Panel.APIKey,
		Timeout: cfg.Panel.Timeout,
	})
	discordSink := integrations.NewDiscordWebhook(cfg.Notify.DiscordWebhookURL, cfg.Notify.Timeout)

	// Services
	accounts := services.NewUserService(userRepo, cfg.Shop.InitialLimits, cfg.Auth.BCryptCost, log)
	reconciler := services.NewReconcilerService(userRepo, panelClient, log)
	entitlements := services.NewEntitlementService(userRepo, planRepo, outboxRepo, log)
	shopService := services.NewShopService(userRepo, outboxRepo, priceTable, log)
	planService := services.NewPlanService(planRepo, log)

	// Background workers
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	sweeper := worker.NewReconcileSweeper(reconciler, userRepo, cfg.Worker.ReconcileSchedule, log)
	if err := sweeper.Start(workerCtx); err != nil {
		log.FatalWithErr(err, "Failed to start reconcile sweeper")
	}
	defer sweeper.Stop()

	janitor := worker.NewDemoJanitor(demoRepo, panelClient, cfg.Worker.DemoSweepSchedule, log)
	if err := janitor.Start(workerCtx); err != nil {
		log.FatalWithErr(err, "Failed to start demo janitor")
	}
	defer janitor.Stop()

	expirySweeper := worker.NewPlanExpirySweeper(entitlements, userRepo, cfg.Worker.PlanExpirySchedule, log)
	if err := expirySweeper.Start(workerCtx); err != nil {
		log.FatalWithErr(err, "Failed to start plan expiry sweeper")
	}
	defer expirySweeper.Stop()

	dispatcher := worker.NewOutboxDispatcher(outboxRepo, discordSink, cfg.Worker.OutboxInterval, cfg.Worker.OutboxBatchSize, cfg.Notify.MaxAttempts, log)
	go dispatcher.Start(workerCtx)

	// HTTP server
	val := validator.New()
	h := &router.Handlers{
		Health:    handlers.NewHealthHandler(db, log),
		Auth:      handlers.NewAuthHandler(accounts, cfg, log, val),
		Ledger:    handlers.NewLedgerHandler(accounts, reconciler, log, val),
		Shop:      handlers.NewShopHandler(shopService, log, val),
		Plan:      handlers.NewPlanHandler(planService, entitlements, log, val),
		UserAdmin: handlers.NewUserAdminHandler(accounts, reconciler, log, val),
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.New(cfg, log, h),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Infof("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.FatalWithErr(err, "Server failed")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	stopWorkers()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.ErrorWithErr(err, "Graceful shutdown failed")
	}

	log.Info("Server stopped")
}
