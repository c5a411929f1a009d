package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/wso2/psd2-consent-management/internal/audit"
	"github.com/wso2/psd2-consent-management/internal/config"
	"github.com/wso2/psd2-consent-management/internal/dao"
	"github.com/wso2/psd2-consent-management/internal/dao/memory"
	"github.com/wso2/psd2-consent-management/internal/database"
	extensionclient "github.com/wso2/psd2-consent-management/internal/extension-client"
	"github.com/wso2/psd2-consent-management/internal/metrics"
	"github.com/wso2/psd2-consent-management/internal/router"
	"github.com/wso2/psd2-consent-management/internal/service"
)

// Version information (set by build script)
var (
	version   = "dev"
	buildDate = "unknown"
)

const auditBufferSize = 256

func main() {
	// Optional .env for local runs
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithError(err).Warn("Failed to load .env file")
	}

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	logger.WithFields(logrus.Fields{
		"version":    version,
		"build_date": buildDate,
	}).Info("Starting PSD2 Consent Management Server...")

	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	configureLogger(logger, &cfg.Logging)

	logger.WithFields(logrus.Fields{
		"config_path":   configPath,
		"log_level":     logger.GetLevel().String(),
		"database_type": cfg.Database.Consent.Type,
	}).Info("Configuration loaded successfully")

	m := metrics.New()

	stores, actionStore, health, closeStore := initStores(cfg, logger)
	defer closeStore()

	publisherOpts := []audit.PublisherOption{audit.WithMetrics(m)}
	extensionClient := extensionclient.NewExtensionClient(&cfg.Audit, logger)
	if extensionClient.IsExtensionEnabled() {
		publisherOpts = append(publisherOpts, audit.WithForwarder(extensionClient), audit.WithAsyncBuffer(auditBufferSize))
	}
	defer extensionClient.Close()
	publisher := audit.NewPublisher(actionStore, logger, publisherOpts...)
	defer publisher.Close()
	logger.WithField("enabled", extensionClient.IsExtensionEnabled()).Info("Consent action webhook initialized")

	services, err := service.NewServices(stores, publisher, &cfg.AspspProfile, service.NewExpirationPolicy(), m, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize services")
	}
	logger.WithField("authorisationTypes", services.Resolver.Types()).Info("Services initialized successfully")

	ginRouter := router.SetupRouter(services.Consents, services.Payments, services.Authorisations, router.Options{
		Config:  cfg,
		Health:  health,
		Metrics: m,
		Logger:  logger,
	})

	server := &http.Server{
		Addr:           cfg.Server.GetServerAddress(),
		Handler:        ginRouter,
		ReadTimeout:    durationOr(cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout:   durationOr(cfg.Server.WriteTimeout, 15*time.Second),
		IdleTimeout:    durationOr(cfg.Server.IdleTimeout, 60*time.Second),
		MaxHeaderBytes: 1 << 20,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithField("address", server.Addr).Info("Starting HTTP server...")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.WithError(err).Error("Server stopped with error")
		return
	}
	logger.Info("Server exited gracefully")
}

// initStores selects the persistence backend. The returned health checker is
// nil for the in-memory backend.
func initStores(cfg *config.Config, logger *logrus.Logger) (service.Stores, audit.Store, router.HealthChecker, func()) {
	dbCfg := &cfg.Database.Consent
	if dbCfg.Type == config.DatabaseTypeMemory {
		logger.Warn("Using in-memory stores, data will not survive a restart")
		return service.Stores{
			Consents:       memory.NewConsentStore(),
			Payments:       memory.NewPaymentStore(),
			Authorisations: memory.NewAuthorisationStore(),
		}, memory.NewConsentActionStore(), nil, func() {}
	}

	db, err := database.Initialize(dbCfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.HealthCheck(ctx); err != nil {
		logger.WithError(err).Fatal("Database health check failed")
	}

	if dbCfg.MigrateOnStartup {
		if err := db.Migrate(); err != nil {
			logger.WithError(err).Fatal("Failed to apply database migrations")
		}
	}
	logger.Info("Database connection established successfully")

	closeDB := func() {
		if err := db.Close(); err != nil {
			logger.WithError(err).Error("Failed to close database")
		}
	}

	return service.Stores{
		Consents:       dao.NewConsentDAO(db),
		Payments:       dao.NewPaymentDAO(db),
		Authorisations: dao.NewAuthorisationDAO(db),
	}, dao.NewConsentActionDAO(db), db, closeDB
}

func configureLogger(logger *logrus.Logger, cfg *config.LoggingConfig) {
	if level, err := logrus.ParseLevel(cfg.Level); err == nil {
		logger.SetLevel(level)
	}
	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	if cfg.Output == "stderr" {
		logger.SetOutput(os.Stderr)
	} else {
		logger.SetOutput(os.Stdout)
	}
}

func durationOr(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}
