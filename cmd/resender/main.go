package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eyelabsai/QuickReviews/internal/app"
	"github.com/eyelabsai/QuickReviews/internal/domain/ops"
	"github.com/eyelabsai/QuickReviews/internal/infra/config"
	idb "github.com/eyelabsai/QuickReviews/internal/infra/database"
	"github.com/eyelabsai/QuickReviews/internal/infra/httpapi"
	"github.com/eyelabsai/QuickReviews/internal/infra/logger"
	"github.com/eyelabsai/QuickReviews/internal/infra/queue"
	"github.com/eyelabsai/QuickReviews/internal/infra/scheduler"
	"github.com/eyelabsai/QuickReviews/internal/infra/telegram"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger needs the config, so this one failure goes to stderr raw.
		os.Stderr.WriteString("FATAL: could not load application configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(cfg)
	log.WithFields(logrus.Fields{
		"environment":    cfg.Environment,
		"resend_ceiling": cfg.ResendCeiling,
		"cron_resend":    cfg.CronSpecResend,
	}).Info("Review resender starting")

	// Database
	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("Could not connect to database")
	}
	defer db.Close()
	log.Info("Database connection established")

	trackingRepo := idb.NewPostgresTrackingRepository(db)

	// Dispatch sink
	sink, err := queue.NewAMQPSink(cfg.AMQPURL, log)
	if err != nil {
		log.WithError(err).Fatal("Could not connect to RabbitMQ")
	}
	defer sink.Close()
	log.Info("Dispatch queues declared")

	// Optional ops alerting
	var notifier ops.Notifier
	if cfg.TelegramToken != "" {
		tgNotifier, err := telegram.NewOpsNotifier(cfg.TelegramToken, cfg.OpsChatID)
		if err != nil {
			log.WithError(err).Fatal("Could not create Telegram ops notifier")
		}
		notifier = tgNotifier
		log.Info("Telegram ops notifier initialized")
	}

	// Services
	composer := app.NewComposer(cfg.TrackingHost, cfg.FromAddress)
	resendService := app.NewResendService(
		trackingRepo, sink, composer, log,
		cfg.ResendCeiling, cfg.ResendInterval, cfg.RecordTimeout,
	)
	trackingService := app.NewTrackingService(trackingRepo, log, cfg.InitialExpiry, cfg.ResendCeiling)

	// Scheduler
	resendScheduler := scheduler.NewResendScheduler(
		resendService, trackingService, notifier, log,
		cfg.CronSpecResend, cfg.CronSpecStats,
	)
	if err := resendScheduler.Start(); err != nil {
		log.WithError(err).Fatal("Could not start resend scheduler")
	}

	// HTTP tracking API
	apiServer := httpapi.NewServer(trackingService, log)
	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      apiServer.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP tracking API listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit // Block until a signal is received

	log.Info("Shutting down")
	resendScheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP server shutdown was not clean")
	}

	log.Info("Application shut down gracefully")
}
