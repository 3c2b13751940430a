// cmd/evaldash-server/main.go
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

	"evaldash/internal/advisor"
	"evaldash/internal/common/config"
	"evaldash/internal/common/database"
	stderrors "evaldash/internal/common/errors"
	"evaldash/internal/common/logger"
	"evaldash/internal/common/observability"
	"evaldash/internal/models"
	"evaldash/internal/provider"
	"evaldash/internal/server"
	"evaldash/internal/store"
	"evaldash/pkg/registry"
)

const sessionPruneInterval = 15 * time.Minute
const sessionMaxIdle = 2 * time.Hour

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

// templateSource resolves prompt templates from the database first, falling
// back to the built-in registry shipped with the service.
type templateSource struct {
	store    *store.TemplateStore
	registry *registry.TemplateRegistry
}

func (t *templateSource) Get(ctx context.Context, templateID string) (*models.PromptTemplate, error) {
	if t.store != nil {
		tmpl, err := t.store.Get(ctx, templateID)
		if err == nil {
			return tmpl, nil
		}
		if !stderrors.IsCode(err, stderrors.ErrCodeTemplateNotFound) {
			return nil, err
		}
	}
	if t.registry != nil {
		if entry, ok := t.registry.Find(templateID); ok {
			return &models.PromptTemplate{
				ID:          entry.ID,
				Name:        entry.DisplayName,
				Description: entry.Description,
				Body:        entry.Body,
			}, nil
		}
	}
	return nil, stderrors.NewTemplateNotFoundError(templateID)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting evaluation dashboard server...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("evaldash-server")
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
		// Test the connection with context
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		// Test the connection with context
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Provider Client ---
	genai := provider.NewClient(cfg.APIs.GenAI, log)
	if !genai.Enabled() {
		zapLog.Warn("GenAI API key not configured; AI suggestion generation is disabled, the dashboard keeps working")
	}

	// --- Load Built-in Template Registry ---
	var templateRegistry *registry.TemplateRegistry
	if cfg.Template.RegistryPath != "" {
		templateRegistry, err = registry.LoadRegistry(cfg.Template.RegistryPath)
		if err != nil {
			zapLog.Warn("template registry load failed, continuing with database templates only",
				zap.String("path", cfg.Template.RegistryPath),
				zap.Error(err),
			)
		} else {
			zapLog.Info("template registry loaded",
				zap.Int("templates", len(templateRegistry.Templates)),
			)
		}
	}

	// --- Init Stores ---
	scoreStore := store.NewScoreStore(pg.DB, redis.Client,
		time.Duration(cfg.Advisor.ScoreCacheTTL)*time.Second, log)
	suggestionStore := store.NewSuggestionStore(pg.DB, log)
	templateStore := store.NewTemplateStore(pg.DB, log)
	metricStore := store.NewMetricStore(pg.DB, log)

	templates := &templateSource{store: templateStore, registry: templateRegistry}

	// --- Init Advisor Service ---
	advisorService := advisor.NewService(genai, templates, suggestionStore,
		cfg.Advisor.Debug, cfg.Advisor.CacheTTLHours, cfg.Advisor.MaxCallsPerSession, log)

	go func() {
		ticker := time.NewTicker(sessionPruneInterval)
		defer ticker.Stop()
		for range ticker.C {
			advisorService.PruneSessions(sessionMaxIdle)
		}
	}()

	// --- HTTP Server ---
	apiServer := server.New(advisorService, scoreStore, templateStore, metricStore, log)
	mux := apiServer.Routes()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("GET /ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		status := "ready"
		code := http.StatusOK
		if err := pg.Ping(r.Context()); err != nil {
			status = "not ready"
			code = http.StatusServiceUnavailable
		}
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{
			"status": status,
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	httpServer := &http.Server{
		Addr:    cfg.Server.ListenAddress,
		Handler: server.Instrument(obs, mux),
	}

	go func() {
		zapLog.Info("API server listening", zap.String("address", cfg.Server.ListenAddress))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("API server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down API server", zap.Error(err))
	}

	zapLog.Info("Evaluation dashboard server stopped gracefully")
}
