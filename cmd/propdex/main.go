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
	"go.uber.org/zap"

	"github.com/nivaas-cloud/propdex/internal/config"
	dbRedis "github.com/nivaas-cloud/propdex/internal/db/redis"
	logpkg "github.com/nivaas-cloud/propdex/internal/logger"
	"github.com/nivaas-cloud/propdex/internal/metrics"
	catalogrepo "github.com/nivaas-cloud/propdex/internal/repository/catalog"
	geocoderepo "github.com/nivaas-cloud/propdex/internal/repository/geocode"
	sessionrepo "github.com/nivaas-cloud/propdex/internal/repository/session"
	chiTransport "github.com/nivaas-cloud/propdex/internal/transport/chi"
	openaiExt "github.com/nivaas-cloud/propdex/internal/transport/openai"
	"github.com/nivaas-cloud/propdex/internal/usecase/extract"
	healthuc "github.com/nivaas-cloud/propdex/internal/usecase/health"
	"github.com/nivaas-cloud/propdex/internal/usecase/matcher"
	"github.com/nivaas-cloud/propdex/internal/usecase/relax"
	searchuc "github.com/nivaas-cloud/propdex/internal/usecase/search"
	"github.com/nivaas-cloud/propdex/internal/usecase/upsell"
	"github.com/nivaas-cloud/propdex/internal/version"
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

	logger.Info("Starting propdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register engine metrics explicitly (no init())
	metrics.RegisterMatchingMetrics()

	// Repositories and their caching decorators
	catalogProvider := catalogrepo.New(store, logger).WithKeyPrefix(cfg.Storage.KeyPrefix)
	snapshot := catalogrepo.NewSnapshotCache(
		catalogProvider,
		time.Duration(cfg.Catalog.SnapshotTTLSec)*time.Second,
		metrics.CatalogSnapshotRefreshTotal,
	)
	sessions := sessionrepo.New(store, time.Duration(cfg.Session.TTLMin)*time.Minute).
		WithKeyPrefix(cfg.Storage.KeyPrefix)
	geocoder := geocoderepo.NewCached(
		geocoderepo.New(store).WithKeyPrefix(cfg.Storage.KeyPrefix),
		metrics.GeocodeCacheTotal, logger,
	)

	// Matching pipeline
	matcherSvc := matcher.New(weightsFromConfig(cfg.Matching.Weights))
	relaxer := relax.New(matcherSvc, geocoder, cfg.Matching.BudgetLadder, logger).
		WithRadius(cfg.Matching.RadiusKm, cfg.Matching.WidenedRadiusKm)
	searchSvc := searchuc.New(
		snapshot, sessions, matcherSvc, relaxer,
		upsell.New(matcherSvc), cfg.Matching.TopK, logger,
	)

	// Extraction: the LLM extractor when configured, regex always as fallback.
	// Pass nil interface (not typed nil pointer!) when extraction is disabled.
	var extractor chiTransport.Extractor
	var extractionChecker healthuc.ExtractionChecker
	if cfg.Extraction.Enabled {
		llm := openaiExt.NewExtractor(&openaiExt.Config{
			APIKey:  cfg.Extraction.APIKey,
			BaseURL: cfg.Extraction.BaseURL,
			Model:   cfg.Extraction.Model,
			Timeout: time.Duration(cfg.Extraction.TimeoutSec) * time.Second,
			Logger:  logger,
		})
		extractor = llm
		extractionChecker = llm
		logger.Info("Criteria extractor created", zap.String("model", cfg.Extraction.Model))
	}
	fallback := extract.NewParser(knownLocalities(ctx, snapshot, logger))

	healthSvc := healthuc.New(store, extractionChecker, snapshot)

	server := chiTransport.NewServer(searchSvc, healthSvc, extractor, fallback, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
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

// weightsFromConfig maps configured weights onto the engine's, falling
// back to the built-in defaults when the section is absent.
func weightsFromConfig(w config.WeightsConfig) matcher.Weights {
	if w.IsZero() {
		return matcher.DefaultWeights()
	}
	return matcher.Weights{
		LocalityPrimary:   w.LocalityPrimary,
		LocalitySecondary: w.LocalitySecondary,
		LocalityMissing:   w.LocalityMissing,
		BudgetWithin:      w.BudgetWithin,
		BudgetTolerance:   w.BudgetTolerance,
		BedroomExact:      w.BedroomExact,
		ZoneMatch:         w.ZoneMatch,
	}
}

// knownLocalities primes the regex extractor's vocabulary from the
// catalog. Best effort: an empty catalog at boot just means free-text
// locality detection starts blind.
func knownLocalities(ctx context.Context, snapshot *catalogrepo.SnapshotCache, logger *zap.Logger) []string {
	items, err := snapshot.ListAll(ctx)
	if err != nil {
		logger.Warn("could not prime locality vocabulary", zap.Error(err))
		return nil
	}

	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for i := range items {
		loc := items[i].Location.PrimarySegment()
		if loc == "" {
			continue
		}
		if _, dup := seen[loc]; dup {
			continue
		}
		seen[loc] = struct{}{}
		out = append(out, loc)
	}
	return out
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
