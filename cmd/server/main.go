package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/GandharvMahajan/AutoExamChecker/internal/cache"
	"github.com/GandharvMahajan/AutoExamChecker/internal/config"
	"github.com/GandharvMahajan/AutoExamChecker/internal/database"
	"github.com/GandharvMahajan/AutoExamChecker/internal/handler"
	"github.com/GandharvMahajan/AutoExamChecker/internal/logger"
	"github.com/GandharvMahajan/AutoExamChecker/internal/notify"
	"github.com/GandharvMahajan/AutoExamChecker/internal/payment"
	"github.com/GandharvMahajan/AutoExamChecker/internal/repository"
	"github.com/GandharvMahajan/AutoExamChecker/internal/repository/memstore"
	"github.com/GandharvMahajan/AutoExamChecker/internal/router"
	"github.com/GandharvMahajan/AutoExamChecker/internal/service"
	"github.com/GandharvMahajan/AutoExamChecker/internal/validator"
	"github.com/GandharvMahajan/AutoExamChecker/internal/worker"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting AutoExamChecker")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Open Store ────────────────────────────────────────────────────
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("Store close error")
		}
	}()

	// ─── Connect to Redis (optional) ───────────────────────────────────
	var catalogCache service.CatalogCache = cache.Nop{}
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, catalog cache disabled and uploads removed inline")
		rdb = nil
	} else {
		defer rdb.Close()
		catalogCache = cache.NewRedisCatalog(rdb, cache.DefaultCatalogTTL, log)
	}

	// ─── External Providers ────────────────────────────────────────────
	mailer, err := notify.NewSESMailer(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.FrontendURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize mailer")
	}
	gateway := payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	if cfg.StripeSecretKey == "" {
		log.Warn().Msg("STRIPE_SECRET_KEY not configured, checkout disabled")
	}

	// ─── Initialize Services ──────────────────────────────────────────
	janitor := worker.NewFileJanitor(rdb, cfg.UploadDir, log)

	authService := service.NewAuthService(cfg)
	accountService := service.NewAccountService(store, authService, cfg, log)
	ledgerService := service.NewLedgerService(store, log)
	mediaService := service.NewMediaService(cfg, janitor)
	catalogService := service.NewCatalogService(store, mediaService, catalogCache, log)
	sessionService := service.NewSessionService(store, mediaService, log)
	dashboardService := service.NewDashboardService(store)
	paymentService := service.NewPaymentService(store, gateway, mailer, cfg, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:      handler.NewAuthHandler(accountService),
		Test:      handler.NewTestHandler(catalogService, sessionService),
		Timer:     handler.NewTimerHandler(sessionService, log, cfg.AllowedOrigins),
		AdminTest: handler.NewAdminTestHandler(catalogService),
		AdminUser: handler.NewAdminUserHandler(accountService, ledgerService),
		Dashboard: handler.NewDashboardHandler(dashboardService),
		Payment:   handler.NewPaymentHandler(paymentService, ledgerService),
		System:    handler.NewSystemHandler(store, rdb),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup
	workers.Add(1)
	go func() {
		defer workers.Done()
		janitor.Start(workerCtx)
	}()

	// ─── Seed Sample Exams ────────────────────────────────────────────
	if cfg.SeedSampleExams {
		n, err := catalogService.SeedSamples(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Sample exam seeding failed")
		} else if n > 0 {
			log.Info().Int("count", n).Msg("Seeded sample exams")
		}
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(ctx, authService, store, handlers, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Str("store", store.Mode()).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for the discard queue to drain.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// openStore connects to PostgreSQL, falling back to the in-memory store when
// the database is unreachable and STORE_FALLBACK=memory.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (repository.Store, error) {
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err == nil {
		return repository.NewPostgresStore(pool), nil
	}
	if cfg.StoreFallback != config.StoreFallbackMemory {
		return nil, err
	}

	log.Warn().Err(err).Msg("PostgreSQL unreachable, using in-memory store; data is lost on restart")
	mem, err := memstore.Open(log)
	if err != nil {
		return nil, err
	}
	return mem, nil
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
