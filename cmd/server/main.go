package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/aryan0dhankhar/librarydesk/internal/featureflags"
	"github.com/aryan0dhankhar/librarydesk/internal/handler"
	"github.com/aryan0dhankhar/librarydesk/internal/infrastructure/logger"
	"github.com/aryan0dhankhar/librarydesk/internal/infrastructure/redis"
	"github.com/aryan0dhankhar/librarydesk/internal/observability/tracing"
	"github.com/aryan0dhankhar/librarydesk/internal/repository"
	"github.com/aryan0dhankhar/librarydesk/internal/security"
	"github.com/aryan0dhankhar/librarydesk/internal/security/audit"
	"github.com/aryan0dhankhar/librarydesk/internal/security/auth"
	"github.com/aryan0dhankhar/librarydesk/internal/security/ratelimit"
	"github.com/aryan0dhankhar/librarydesk/internal/service"
	"github.com/aryan0dhankhar/librarydesk/internal/worker"
	"github.com/aryan0dhankhar/librarydesk/pkg/config"
	"github.com/aryan0dhankhar/librarydesk/pkg/database"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting LibraryDesk server", slog.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Tracing
	shutdownTracing, err := tracing.Init(ctx, log, cfg.OTLPEndpoint, "librarydesk", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Database
	pool, err := database.NewConnectionPool(ctx, &database.Config{
		Driver:       cfg.DBDriver,
		DSN:          cfg.DatabaseURL,
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	}, log)
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	store := repository.NewStore(pool.GetDB(), pool.Driver(), log)
	if err := store.Migrate(ctx); err != nil {
		log.Error("failed to migrate database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 5. Repositories and services
	userRepo := repository.NewUserRepository(store)
	bookRepo := repository.NewBookRepository(store)
	recordRepo := repository.NewBorrowRecordRepository(store)
	loanStore := repository.NewLoanStore(store)

	clock := service.SystemClock{}
	policy := service.LoanPolicy{LoanPeriodDays: cfg.LoanPeriodDays, LateFeePerDay: cfg.LateFeePerDay}
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, "librarydesk", time.Duration(cfg.JWTExpiryMinutes)*time.Minute)
	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET not set, using the development secret")
	}

	authService := service.NewAuthService(userRepo, tokenManager, log)
	bookService := service.NewBookService(bookRepo, log)
	borrowService := service.NewBorrowService(loanStore, clock, policy, log)
	reportService := service.NewReportService(recordRepo, clock, log)

	if cfg.SeedDemoUsers {
		if err := authService.SeedDemoUsers(ctx); err != nil {
			log.Error("failed to seed demo users", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	// 6. Rate limiting, shared through Redis when configured
	memLimiter := ratelimit.NewLimiter()
	defer memLimiter.Stop()

	var limiter ratelimit.RateLimiter = memLimiter
	var redisPinger handler.Pinger
	if cfg.RedisURL != "" {
		redisClient, err := redis.NewClient(ctx, cfg.RedisURL, log)
		if err != nil {
			log.Error("failed to connect to Redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer redisClient.Close()
		limiter = ratelimit.NewRedisLimiter(redisClient, memLimiter, log)
		redisPinger = redisClient
	}

	// 7. Handlers
	auditLogger := audit.NewLogger(log)
	authz := security.NewAuthorizationService(log)
	activity := handler.NewActivityHub(featureflags.Enabled(featureflags.ActivityFeed), cfg.CORSAllowedOrigins, log)

	router := &handler.Router{
		Auth:               handler.NewAuthHandler(authService, log),
		Books:              handler.NewBookHandler(bookService, auditLogger, activity, log),
		Borrow:             handler.NewBorrowHandler(borrowService, reportService, authz, auditLogger, activity, log),
		Reports:            handler.NewReportHandler(reportService, log),
		Health:             handler.NewHealthHandler(store, redisPinger, log),
		Activity:           activity,
		Tokens:             tokenManager,
		Limiter:            limiter,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		AuthRatePerMinute:  cfg.AuthRateLimitPerMinute,
		Audit:              auditLogger,
		Logger:             log,
	}

	// CORS -> request ID -> tracing -> API chain
	rootHandler := withCORS(
		withRequestID(otelhttp.NewHandler(router.Handler(), "librarydesk"), log),
		cfg.CORSAllowedOrigins,
	)

	// 8. Report worker
	reportWorker := worker.NewReportWorker(reportService, log, time.Duration(cfg.ReportIntervalMinutes)*time.Minute)
	go reportWorker.Start(ctx)

	// 9. HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      rootHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("db_driver", cfg.DBDriver),
		slog.Bool("redis", cfg.RedisURL != ""),
		slog.Int("rate_limit", cfg.RateLimitPerMinute),
		slog.Int("loan_period_days", cfg.LoanPeriodDays),
		slog.String("late_fee_per_day", cfg.LateFeePerDay.String()),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", slog.String("error", err.Error()))
			sigChan <- syscall.SIGTERM
		}
	}()

	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}
	cancel()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}
	log.Info("server stopped")
}

// withRequestID tags each request with an ID for logs, audit entries and the response
func withRequestID(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)

		ctx := audit.WithRequestID(r.Context(), reqID)
		start := time.Now()

		next.ServeHTTP(w, r.WithContext(ctx))

		log.Debug("request completed",
			slog.String("request_id", reqID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

// withCORS answers preflight requests and sets CORS headers for allowed origins
func withCORS(next http.Handler, allowed []string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(allowed, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		w.Header().Add("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}
