package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/anishchandragiri369/studio-sub001/internal/config"
	"github.com/anishchandragiri369/studio-sub001/internal/db"
	"github.com/anishchandragiri369/studio-sub001/internal/delivery"
	"github.com/anishchandragiri369/studio-sub001/internal/email"
	"github.com/anishchandragiri369/studio-sub001/internal/logger"
	"github.com/anishchandragiri369/studio-sub001/internal/report"
	"github.com/anishchandragiri369/studio-sub001/internal/server"
	"github.com/anishchandragiri369/studio-sub001/internal/subscription"
)

func main() {
	logger.Init()
	logger.Info("Starting subscription service")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)

	database, err := db.Connect(cfg.DatabaseURL, db.Pool{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	})
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	logger.Info("Database connected")

	if err := db.RunMigrations(database, cfg.MigrationsPath); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations completed")

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

	emailService := email.New(rdb, email.SMTPConfig{
		From:     cfg.EmailFrom,
		FromName: cfg.EmailFromName,
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Pass:     cfg.SMTPPass,
	})
	defer emailService.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go emailService.Start(ctx)

	cutoff := delivery.CutoffRule{
		Hour:         cfg.CutoffHour,
		DeliveryHour: cfg.DeliveryHour,
		Policy:       delivery.PolicySundayOnly,
	}
	if err := cutoff.Validate(); err != nil {
		logger.Fatalf("Invalid cutoff rule: %v", err)
	}

	repo := subscription.NewRepository(database)
	subscriptionService := subscription.NewService(repo, emailService,
		subscription.WithLocation(cfg.Location),
		subscription.WithCutoff(cutoff),
	)

	builder := report.NewBuilder(repo, cfg.Location)
	manifests := report.NewStore(rdb)
	jobs := report.NewJobs(builder, manifests, repo, emailService, cfg.Location)
	scheduler := report.NewScheduler(jobs, report.Schedules{
		Manifest:   cfg.ManifestSchedule,
		StatusSync: cfg.StatusSyncSchedule,
	})
	if err := scheduler.Start(); err != nil {
		logger.Fatalf("Failed to start scheduler: %v", err)
	}

	srv := server.New(cfg, server.Deps{
		Subscriptions: subscription.NewHandler(subscriptionService),
		Manifests:     report.NewHandler(builder, manifests),
		Email:         emailService,
		Queue:         emailService,
		Checks: map[string]server.Check{
			"postgres": db.Ping(database),
			"redis": func(ctx context.Context) error {
				return rdb.Ping(ctx).Err()
			},
		},
	})

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "port", cfg.Port, "timezone", cfg.Location.String())
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		logger.WithError(err).Error("Server error")
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Error during server shutdown")
	}

	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		logger.Warn("Scheduler jobs still running at shutdown")
	}
	cancel()

	logger.Info("Server stopped")
}
