package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/hervens/productsearch/internal/config"
	dbRedis "github.com/hervens/productsearch/internal/db/redis"
	logpkg "github.com/hervens/productsearch/internal/logger"
	"github.com/hervens/productsearch/internal/metrics"
	"github.com/hervens/productsearch/internal/repository/embcache"
	productrepo "github.com/hervens/productsearch/internal/repository/product"
	geminiTransport "github.com/hervens/productsearch/internal/transport/gemini"
	"github.com/hervens/productsearch/internal/transport/httpapi"
	openaiTransport "github.com/hervens/productsearch/internal/transport/openai"
	extractuc "github.com/hervens/productsearch/internal/usecase/extract"
	searchuc "github.com/hervens/productsearch/internal/usecase/search"
	"github.com/hervens/productsearch/internal/usecase/searchapi"
	"github.com/hervens/productsearch/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting product search API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("database", cfg.Database.Database),
		zap.String("collection", cfg.Database.Collection),
	)

	ctx := context.Background()

	// Connect to MongoDB and verify readiness
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Database.URI))
	if err != nil {
		logger.Fatal("Failed to create MongoDB client", zap.Error(err))
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Error("Error disconnecting from MongoDB", zap.Error(err))
		}
	}()

	pingCtx, cancelPing := context.WithTimeout(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second)
	defer cancelPing()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		logger.Fatal("MongoDB not ready", zap.Error(err))
	}
	logger.Info("Connected to MongoDB")

	// Optional embedding cache
	var cache *dbRedis.Store
	if len(cfg.Cache.Addrs) > 0 {
		cache, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer cache.Close()

		if err := cache.WaitForReady(ctx, 5*time.Second); err != nil {
			logger.Warn("Embedding cache not ready, continuing without readiness", zap.Error(err))
		} else {
			logger.Info("Connected to embedding cache")
		}
	}

	// Register LLM metrics explicitly (no init())
	metrics.RegisterLLMMetrics()

	// Extraction providers: one completer per Gemini key, OpenAI fallback
	primaries := make([]extractuc.Provider, 0, len(cfg.LLM.GeminiAPIKeys))
	for i, key := range cfg.LLM.GeminiAPIKeys {
		primaries = append(primaries, extractuc.Provider{
			Name:      fmt.Sprintf("gemini-%d", i+1),
			Completer: geminiTransport.NewCompleter(key, cfg.LLM.GeminiModel),
		})
	}

	extractOpts := []extractuc.Option{
		extractuc.WithAttemptTimeout(time.Duration(cfg.LLM.AttemptTimeoutSec) * time.Second),
		extractuc.WithKeyBackoff(time.Duration(cfg.LLM.KeyBackoffSec) * time.Second),
	}
	if cfg.LLM.OpenAIAPIKey != "" {
		extractOpts = append(extractOpts, extractuc.WithFallback(extractuc.Provider{
			Name:      "openai",
			Completer: openaiTransport.NewCompleter(cfg.LLM.OpenAIAPIKey, cfg.LLM.OpenAIModel),
		}))
	}
	extractSvc := extractuc.NewService(primaries, logger, extractOpts...)
	logger.Info("Extraction providers configured",
		zap.Int("gemini_keys", len(primaries)),
		zap.Bool("openai_fallback", cfg.LLM.OpenAIAPIKey != ""),
	)

	// Query embedder, cached when a cache store is configured
	queryEmbedder := buildQueryEmbedder(cfg, cache, logger)

	// Catalogue repository and search service
	coll := client.Database(cfg.Database.Database).Collection(cfg.Database.Collection)
	repo := productrepo.NewRepo(coll, cfg.Database.VectorIndex, cfg.Database.EmbeddingField, logger)
	searchSvc := searchuc.NewService(repo, queryEmbedder, searchuc.Config{
		MinScore: cfg.Search.MinScore,
	}, logger)
	pipeline := searchapi.NewPipeline(extractSvc, searchSvc)

	// Health checks
	checks := map[string]httpapi.HealthCheck{
		"database": func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
	}
	if cache != nil {
		checks["cache"] = cache.Ping
	}

	server := httpapi.NewServer(pipeline, httpapi.Limits{
		Default: cfg.Search.DefaultLimit,
		Max:     cfg.Search.MaxLimit,
	}, checks, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildQueryEmbedder assembles the embedder chain: Gemini -> Cached.
// Returns nil when no Gemini key is configured; vector search then degrades
// to empty results instead of failing requests.
func buildQueryEmbedder(cfg config.Config, cache *dbRedis.Store, logger *zap.Logger) searchuc.Embedder {
	if len(cfg.LLM.GeminiAPIKeys) == 0 {
		logger.Warn("No Gemini API key configured, vector search disabled")
		return nil
	}

	var embedder searchuc.Embedder = geminiTransport.NewEmbedder(
		cfg.LLM.GeminiAPIKeys[0],
		cfg.Embedding.Model,
		geminiTransport.TaskRetrievalQuery,
	)

	if cache != nil {
		embedder = embcache.New(
			embedder,
			cache,
			time.Duration(cfg.Cache.TTLHours)*time.Hour,
			metrics.EmbeddingCacheTotal,
			logger,
		)
	}
	return embedder
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
