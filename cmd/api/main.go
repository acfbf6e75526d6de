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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/techcreator/storefront/api/controllers"
	"github.com/techcreator/storefront/api/routes"
	"github.com/techcreator/storefront/internal/auth"
	"github.com/techcreator/storefront/internal/checkout"
	"github.com/techcreator/storefront/internal/documents"
	"github.com/techcreator/storefront/internal/inquiries"
	"github.com/techcreator/storefront/internal/notifications"
	"github.com/techcreator/storefront/internal/notifications/brevo"
	"github.com/techcreator/storefront/internal/notifications/emailjs"
	"github.com/techcreator/storefront/internal/orders"
	"github.com/techcreator/storefront/internal/projects"
	"github.com/techcreator/storefront/pkg/config"
	"github.com/techcreator/storefront/pkg/db"
	"github.com/techcreator/storefront/pkg/instance"
	"github.com/techcreator/storefront/pkg/logger"
	"github.com/techcreator/storefront/pkg/metrics"
	"github.com/techcreator/storefront/pkg/migrate"
	"github.com/techcreator/storefront/pkg/redis"
	"github.com/techcreator/storefront/pkg/storage/gcs"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	upload := documents.UploadConfig{
		Bucket:   cfg.GCS.BucketName,
		TTL:      cfg.GCS.UploadURLExpiry,
		MaxBytes: int64(cfg.GCS.MaxUploadMB) * 1024 * 1024,
	}
	var gcsClient *gcs.Client
	if cfg.GCS.Enabled() {
		gcsClient, err = gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
		if err != nil {
			return err
		}
		upload.Signer = gcsClient
		upload.Remover = gcsClient
	} else {
		logg.Warn(ctx, "gcs bucket not configured, document uploads disabled")
	}

	notifier, err := notifications.NewService(notifications.ServiceParams{
		Config: cfg.Notifications,
		Template: emailjs.New(emailjs.Config{
			Endpoint:   cfg.Notifications.EmailJSURL,
			PrivateKey: cfg.Notifications.EmailJSPrivateKey,
			Timeout:    cfg.Notifications.Timeout,
		}, nil),
		Mail: brevo.New(brevo.Config{
			Endpoint: cfg.Notifications.BrevoURL,
			APIKey:   cfg.Notifications.BrevoAPIKey,
			Timeout:  cfg.Notifications.Timeout,
		}, nil),
		Logger:  logg,
		Metrics: metrics.NewNotificationMetrics(registry),
	})
	if err != nil {
		return err
	}
	if report := notifier.ConfigurationReport(); len(report.Issues) > 0 {
		logg.Warn(logg.WithField(ctx, "issues", report.Issues), "email providers partially configured")
	}

	projectService, err := projects.NewService(projects.NewRepository(dbClient.DB()), dbClient)
	if err != nil {
		return err
	}
	documentService, err := documents.NewService(documents.NewRepository(dbClient.DB()), projectService, upload)
	if err != nil {
		return err
	}
	orderService, err := orders.NewService(orders.NewRepository(dbClient.DB()), logg)
	if err != nil {
		return err
	}
	inquiryService, err := inquiries.NewService(inquiries.NewRepository(dbClient.DB()), notifier, logg)
	if err != nil {
		return err
	}
	authService, err := auth.NewService(auth.ServiceParams{Admin: cfg.Admin, JWTConfig: cfg.JWT})
	if err != nil {
		return err
	}
	if !cfg.Admin.Enabled() {
		logg.Warn(ctx, "admin account not configured, admin login disabled")
	}

	fulfillerParams := checkout.FulfillerParams{
		Orders:    orderService,
		Documents: documentService,
		Notifier:  notifier,
		Attempts:  cfg.Payments.PersistAttempts,
		Backoff:   cfg.Payments.PersistBackoff,
		Logger:    logg,
		Metrics:   checkoutMetrics,
	}
	if gcsClient != nil {
		fulfillerParams.Links = gcsClient
		fulfillerParams.LinkBucket = cfg.GCS.BucketName
		fulfillerParams.LinkTTL = cfg.GCS.DownloadURLExpiry
	}
	fulfiller, err := checkout.NewFulfiller(fulfillerParams)
	if err != nil {
		return err
	}

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Config:    cfg.Payments,
		Catalog:   projectService,
		Verifier:  checkout.NewSimulatedVerifier(cfg.Payments.SimulatedSuccess, time.Now().UnixNano()),
		Fulfiller: fulfiller,
		Logger:    logg,
		Metrics:   checkoutMetrics,
	})
	if err != nil {
		return err
	}
	defer checkoutService.Close()

	var storage controllers.Pinger
	if gcsClient != nil {
		storage = gcsClient
	}
	handler := routes.NewRouter(routes.Dependencies{
		Config:        cfg,
		Logger:        logg,
		DB:            dbClient,
		Redis:         redisClient,
		Storage:       storage,
		Gatherer:      registry,
		Metrics:       metrics.NewHTTPMetrics(registry),
		Auth:          authService,
		Projects:      projectService,
		Documents:     documentService,
		Checkout:      checkoutService,
		Orders:        orderService,
		Deliverer:     fulfiller,
		Inquiries:     inquiryService,
		Notifications: notifier,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     server.Addr,
		"instance": instance.GetID(),
	})
	logg.Info(logCtx, "starting api server")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		checkoutService.Run(gctx)
		return nil
	})
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logg.Info(logCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
