// cmd/dispatchd/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"notification-engine/internal/common/config"
	"notification-engine/internal/common/database"
	"notification-engine/internal/common/httpclient"
	"notification-engine/internal/common/logger"
	"notification-engine/internal/common/observability"
	"notification-engine/internal/engine/audit"
	"notification-engine/internal/engine/dispatch"
	"notification-engine/internal/engine/ledger"
	"notification-engine/internal/engine/provider"
	"notification-engine/internal/engine/scheduler"
	"notification-engine/internal/engine/settings"
	"notification-engine/internal/engine/template"
	"notification-engine/internal/models"
	"notification-engine/pkg/modules"
	"notification-engine/pkg/modules/billing"
	"notification-engine/pkg/modules/hr"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")

	zapLog.Info("Starting dispatch daemon...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	// Rebuild the logger with the configured level and format.
	zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	if err := ledger.EnsureSchema(ctx, pg.DB); err != nil {
		zapLog.Fatal("schema bootstrap failed", zap.Error(err))
	}
	zapLog.Info("Schema verified")

	// --- Init Redis with retry (template cache only) ---
	var redisClient *database.RedisClient
	if cfg.TemplateCache.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			redisClient, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redisClient.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redisClient.Close()
		zapLog.Info("Redis connected successfully")
	}

	// --- Init Elasticsearch with retry (audit mirror only) ---
	var esClient *database.ElasticsearchClient
	if cfg.Audit.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Wire the dispatch engine ---
	settingsStore := settings.NewStore(pg.DB)
	templateStore := template.NewStore(pg.DB)
	ledgerStore := ledger.NewStore(pg.DB)

	var cache *template.Cache
	if redisClient != nil {
		cache = template.NewCache(redisClient.Client, cfg.TemplateCache.GetTTL(), log)
	}
	resolver := template.NewResolver(templateStore, cache, log)

	httpClient := httpclient.NewClient(cfg.Dispatch.GetProviderTimeout())
	adapters := provider.DefaultRegistry(httpClient, cfg.Providers)
	for _, channel := range []models.Channel{models.ChannelEmail, models.ChannelWhatsApp, models.ChannelSMS} {
		log.Info("delivery adapters registered", map[string]interface{}{
			"channel":   string(channel),
			"providers": adapters.Providers(channel),
		})
	}

	engine := dispatch.New(cfg.Dispatch, settingsStore, resolver, ledgerStore, adapters, log).
		WithObservability(obs)
	if esClient != nil {
		engine.WithAudit(audit.NewIndexer(esClient.Client, cfg.Audit.Index, log))
		zapLog.Info("Audit indexer attached", zap.String("index", cfg.Audit.Index))
	}

	// --- Register module adapters ---
	moduleRegistry := modules.NewRegistry()
	moduleRegistry.Register(billing.NewAdapter())
	moduleRegistry.Register(hr.NewAdapter())
	log.Info("module adapters registered", map[string]interface{}{
		"modules": moduleRegistry.Modules(),
	})

	// --- Retry scheduler ---
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(cfg.Scheduler, ledgerStore, settingsStore, engine, log)
		sched.Start()
		zapLog.Info("Retry scheduler started",
			zap.Duration("interval", cfg.Scheduler.GetInterval()),
			zap.Int("batchSize", cfg.Scheduler.BatchSize),
		)
	} else {
		zapLog.Info("Retry scheduler disabled")
	}

	// --- Health & Metrics Server ---
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := pg.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "ready",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	http.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: addr}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if sched != nil {
		sched.Stop()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down health server", zap.Error(err))
	}

	zapLog.Info("Dispatch daemon stopped gracefully")
}
