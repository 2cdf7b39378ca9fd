// cmd/api/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/your-org/template-store/internal/config"
	"github.com/your-org/template-store/internal/domain/cart"
	"github.com/your-org/template-store/internal/domain/catalog"
	"github.com/your-org/template-store/internal/domain/pricing"
	"github.com/your-org/template-store/internal/infrastructure/database/postgres"
	"github.com/your-org/template-store/internal/infrastructure/database/redis"
	"github.com/your-org/template-store/internal/interfaces/http"
	"github.com/your-org/template-store/internal/pkg/auth"
	"github.com/your-org/template-store/internal/pkg/logger"
	"github.com/your-org/template-store/internal/pkg/metrics"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := logger.New(cfg.Logging)
	log.WithFields(logrus.Fields{
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	}).Infof("Starting %s", cfg.App.Name)

	healthChecks := map[string]http.HealthCheck{}

	// Connect to database only when a backend needs it
	var db *postgres.DB
	if cfg.UsesPostgres() {
		db, err = postgres.NewConnection(cfg, log)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		healthChecks["database"] = db.Health

		migration := postgres.NewMigration(db.GetDB(), log)
		if err := migration.RunAutoMigrations(); err != nil {
			log.Fatalf("Database migration failed: %v", err)
		}
		if err := migration.CreateIndexes(); err != nil {
			log.Warnf("Index creation failed: %v", err)
		}

		// Seed the catalog in development
		if cfg.IsDevelopment() && cfg.Catalog.Source == config.CatalogPostgres {
			templates, err := catalog.LoadTemplates(cfg.Catalog.SeedFile)
			if err != nil {
				log.Fatalf("Failed to load catalog seed: %v", err)
			}
			if err := migration.SeedTemplates(context.Background(), templates); err != nil {
				log.Warnf("Template seeding failed: %v", err)
			}
		}
	}

	// Connect to Redis only when carts are stored there
	var redisClient *redis.Client
	if cfg.UsesRedis() {
		redisClient, err = redis.NewConnection(cfg, log)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		healthChecks["redis"] = redisClient.Health
	}

	// Catalog
	var reader catalog.Reader
	switch cfg.Catalog.Source {
	case config.CatalogPostgres:
		reader = catalog.NewRepository(db.GetDB())
	default:
		templates, err := catalog.LoadTemplates(cfg.Catalog.SeedFile)
		if err != nil {
			log.Fatalf("Failed to load catalog seed: %v", err)
		}
		reader = catalog.NewMemoryCatalog(templates...)
	}

	// Pricing
	surcharges, err := pricing.NewSurchargeTable(
		cfg.Pricing.BaseSurcharge,
		cfg.Pricing.CustomizedSurcharge,
		cfg.Pricing.FullServiceSurcharge,
	)
	if err != nil {
		log.Fatalf("Invalid pricing configuration: %v", err)
	}
	resolver := pricing.NewResolver(surcharges)

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var manager *cart.Manager
	cartMetrics := metrics.NewCartMetrics(registry, func() int {
		if manager == nil {
			return 0
		}
		return manager.Len()
	})

	// Session carts
	var sinks cart.SinkFactory
	var snapshots *postgres.CartSnapshotRepository
	switch cfg.Cart.Persistence {
	case config.PersistenceRedis:
		sinks = redis.CartSinkFactory(redisClient, cfg.Cart.SessionTTL)
	case config.PersistencePostgres:
		snapshots = postgres.NewCartSnapshotRepository(db.GetDB(), cfg.Cart.SessionTTL)
		sinks = snapshots.Sink
	default:
		log.Warn("Cart persistence is in-memory; carts are lost on restart")
		sinks = cart.NewMemorySinks().Factory()
	}

	manager, err = cart.NewManager(reader, resolver, sinks, cfg.Cart.MaxSessions,
		cart.WithLogger(log),
		cart.WithRecorder(cartMetrics),
		cart.WithSaveTimeout(cfg.Cart.SaveTimeout),
	)
	if err != nil {
		log.Fatalf("Failed to create cart manager: %v", err)
	}

	stopPrune := make(chan struct{})
	if snapshots != nil {
		go pruneSnapshots(snapshots, log, stopPrune)
	}

	deps := http.Dependencies{
		Catalog:        catalog.NewService(reader, resolver),
		Carts:          manager,
		Sessions:       auth.NewSessionManager(cfg),
		HTTPMetrics:    metrics.NewHTTPMetrics(registry),
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		HealthChecks:   healthChecks,
	}
	if redisClient != nil {
		deps.RateLimiter = redisClient
	}

	server := http.NewServer(cfg, log, deps)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	log.Info("All systems operational")

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.WithError(err).Error("Failed to shutdown HTTP server gracefully")
	}

	close(stopPrune)

	// Flush every cart still held in memory
	if err := manager.Close(ctx); err != nil {
		log.WithError(err).Error("Some carts could not be persisted")
	}

	log.Info("Server shutdown completed")
}

func pruneSnapshots(repo *postgres.CartSnapshotRepository, log *logrus.Logger, stop <-chan struct{}) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			removed, err := repo.PruneExpired(ctx)
			cancel()
			if err != nil {
				log.WithError(err).Warn("Failed to prune cart snapshots")
				continue
			}
			if removed > 0 {
				log.WithField("removed", removed).Info("Pruned expired cart snapshots")
			}
		}
	}
}
