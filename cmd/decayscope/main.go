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

	"github.com/kailas-cloud/decayscope/internal/config"
	dbRedis "github.com/kailas-cloud/decayscope/internal/db/redis"
	"github.com/kailas-cloud/decayscope/internal/domain"
	logpkg "github.com/kailas-cloud/decayscope/internal/logger"
	"github.com/kailas-cloud/decayscope/internal/metrics"
	analysisrepo "github.com/kailas-cloud/decayscope/internal/repository/analysis"
	budgetrepo "github.com/kailas-cloud/decayscope/internal/repository/budget"
	"github.com/kailas-cloud/decayscope/internal/repository/embcache"
	chiTransport "github.com/kailas-cloud/decayscope/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/decayscope/internal/transport/openai"
	analysisuc "github.com/kailas-cloud/decayscope/internal/usecase/analysis"
	audituc "github.com/kailas-cloud/decayscope/internal/usecase/audit"
	embeddinguc "github.com/kailas-cloud/decayscope/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/decayscope/internal/usecase/health"
	usageuc "github.com/kailas-cloud/decayscope/internal/usecase/usage"
	"github.com/kailas-cloud/decayscope/internal/version"
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

	logger.Info("Starting decayscope API server",
		zap.Stringer("build", version.Current()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.Bool("embedding_enabled", cfg.Embedding.Enabled),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:      cfg.Database.Addrs,
		Username:   cfg.Database.Username,
		Password:   cfg.Database.Password,
		DB:         cfg.Database.DB,
		ClientName: "decayscope",
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterHTTPMetrics()
	metrics.RegisterAnalysisMetrics()
	metrics.RegisterEmbeddingMetrics()

	pol, err := cfg.Analysis.Policy()
	if err != nil {
		logger.Fatal("Invalid analysis policy", zap.Error(err))
	}

	embedder, checker, budget := buildEmbedder(ctx, cfg.Embedding, store, logger)

	analysisSvc := analysisuc.New(pol, embedder).
		WithEmbedTimeout(time.Duration(cfg.Embedding.TimeoutMS) * time.Millisecond).
		WithMaxConcurrency(cfg.Analysis.MaxConcurrency)
	if n := cfg.Analysis.MaxPeerEmbeds; n != nil {
		analysisSvc = analysisSvc.WithMaxPeerEmbeds(*n)
	}

	analysisRepo := analysisrepo.New(store).WithHistoryLimit(cfg.Database.HistoryLimit)
	auditSvc := audituc.New(analysisRepo)
	healthSvc := healthuc.New(store, checker)
	usageSvc := usageuc.New(budget)

	server := chiTransport.NewServer(analysisSvc, auditSvc, healthSvc, usageSvc, logger).
		WithMaxBatchSize(cfg.Analysis.MaxBatchSize).
		WithMaxBodyBytes(cfg.HTTP.MaxBodyBytes)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

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

// buildEmbedder assembles the decorator chain: OpenAI -> Instrumented -> Cached -> Instruction.
// The cache sits outside the throttle so hits spend neither rate nor budget.
// Returns nil interfaces when the provider is disabled; the analysis then uses lexical vectors.
func buildEmbedder(
	ctx context.Context,
	cfg config.EmbeddingConfig,
	store *dbRedis.Store,
	logger *zap.Logger,
) (domain.Embedder, healthuc.EmbeddingChecker, usageuc.BudgetReader) {
	if !cfg.Enabled {
		logger.Info("Embedding provider disabled, using lexical vectors")
		return nil, nil, nil
	}
	if cfg.Provider == config.ProviderLexical {
		logger.Info("Using local lexical embedder")
		return domain.LexicalEmbedder{}, nil, nil
	}

	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   cfg.Provider,
		Logger:     logger,
	})

	// Usage is always tracked; a zero limit never rejects.
	action, err := embeddinguc.ParseBudgetAction(cfg.Budget.Action)
	if err != nil {
		logger.Fatal("Invalid budget action", zap.Error(err))
	}
	budget := embeddinguc.NewBudgetTracker(cfg.Provider, cfg.Budget.DailyTokenLimit, action, logger).
		WithStore(ctx, budgetrepo.New(store, 48*time.Hour))

	var embedder domain.Embedder = embeddinguc.NewInstrumentedEmbedder(
		base, cfg.Provider, cfg.Model,
		embeddinguc.NewLimiter(cfg.RequestsPerSecond, cfg.Burst),
		budget, logger,
	)
	embedder = embcache.New(
		embedder, store, cfg.Model,
		time.Duration(cfg.CacheTTLHours)*time.Hour,
		metrics.EmbeddingCacheTotal, logger,
	)

	// Instruction prefix (outermost, so the cache key includes it)
	if cfg.Instruction != "" {
		embedder = domain.NewInstructionEmbedder(embedder, cfg.Instruction)
	}

	logger.Info("Embedder created",
		zap.String("provider", cfg.Provider),
		zap.String("model", cfg.Model),
		zap.Int("dimensions", cfg.Dimensions),
	)
	return embedder, base, budget
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
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.CodeInternalError,
						Message: "internal error",
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

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", chi.RouteContext(r.Context()).RoutePattern()),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
