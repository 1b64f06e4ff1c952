package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yuktifest/yukti-backend/internal/config"
	"github.com/yuktifest/yukti-backend/internal/db"
	"github.com/yuktifest/yukti-backend/internal/export"
	"github.com/yuktifest/yukti-backend/internal/notifications"
	"github.com/yuktifest/yukti-backend/internal/observability"
	"github.com/yuktifest/yukti-backend/internal/queue/worker"
	"github.com/yuktifest/yukti-backend/internal/repo/postgres"
)

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)

	if err := db.Migrate(cfg.DBURL); err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("database connection failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	promRegistry := prometheus.NewRegistry()
	prom := observability.NewProm(promRegistry)

	jobsRepo := postgres.NewJobsRepo(pool, prom)
	regsRepo := postgres.NewRegistrationsRepo(pool, prom)

	exporter := export.NewExporter(cfg.ExportDir)

	var notifier notifications.Notifier

	if cfg.SMTPHost != "" {
		notifier = notifications.NewSMTPNotifier(notifications.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			FromName: cfg.MailFrom,
		})
	} else {
		log.Warn("SMTP not configured, confirmation mails are logged only")
		notifier = notifications.NewLogNotifier(log)
	}

	notifier = notifications.NewProtectedNotifier(notifier, notifications.ProtectedNotifierConfig{})

	host, _ := os.Hostname()

	w := worker.New(worker.Config{
		PollInterval: time.Second,
		WorkerID:     fmt.Sprintf("%s-%d", host, os.Getpid()),
	}, worker.Deps{
		Jobs:          jobsRepo,
		Registrations: regsRepo,
		Exporter:      exporter,
		Notifier:      notifier,
		Prom:          prom,
		Log:           log,
	})

	health := worker.NewHealth()
	health.SetReady(true)

	healthSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WorkerHealthPort),
		Handler:           health.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		err := healthSrv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("health listener failed", "err", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = w.Run(ctx)

	if err != nil && err != context.Canceled {
		log.Error("worker stopped", "err", err)
	}

	health.SetReady(false)

	shutdownCtx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	_ = healthSrv.Shutdown(shutdownCtx)

	log.Info("worker shutdown complete")
}
