// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mygads/genfity-order-main-sub015/internal/config"
	"github.com/mygads/genfity-order-main-sub015/internal/infra/adapters/notify"
	pg "github.com/mygads/genfity-order-main-sub015/internal/infra/db/postgres"
	"github.com/mygads/genfity-order-main-sub015/internal/infra/logging"
	"github.com/mygads/genfity-order-main-sub015/internal/infra/metrics"
	red "github.com/mygads/genfity-order-main-sub015/internal/infra/redis"
	"github.com/mygads/genfity-order-main-sub015/internal/infra/web"
	"github.com/mygads/genfity-order-main-sub015/internal/usecase"
)

// Populated via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logging, relaxed validation)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	locker := red.NewLocker(redisClient)
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Metrics ----
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Repositories ----
	tm := pg.NewTxManager(pool)
	merchantRepo := pg.NewMerchantRepo(pool)
	catalogRepo := pg.NewCatalogRepo(pool)
	subRepo := pg.NewSubscriptionRepo(pool)
	balanceRepo := pg.NewBalanceRepo(pool)
	requestRepo := pg.NewPaymentRequestRepo(pool)
	historyRepo := pg.NewHistoryRepo(pool)
	notifRepo := pg.NewNotificationRepo(pool)

	// ---- Use cases ----
	grace := usecase.GracePolicy{
		Trial:   cfg.Billing.GraceTrial,
		Monthly: cfg.Billing.GraceMonthly,
		Deposit: cfg.Billing.GraceDeposit,
	}
	autoswUC := usecase.NewAutoSwitchUseCase(subRepo, merchantRepo, balanceRepo, historyRepo, notifRepo, tm, grace, cfg.Billing.Currency, cfg.Billing.CheckTimeout, logger)
	balanceUC := usecase.NewBalanceUseCase(balanceRepo, tm, autoswUC, cfg.Billing.Currency, logger)
	pricing := usecase.PlanPricing{
		Currency:     cfg.Billing.Currency,
		MonthlyPrice: cfg.Billing.MonthlyPriceAmount(),
		MinimumTopup: cfg.Billing.MinimumTopupAmount(),
	}
	subUC := usecase.NewSubscriptionUseCase(subRepo, merchantRepo, balanceRepo, historyRepo, tm, autoswUC, pricing, cfg.Billing.TrialDays, logger)
	payUC := usecase.NewPaymentRequestUseCase(requestRepo, subRepo, balanceRepo, notifRepo, tm, autoswUC, cfg.Billing.Currency, cfg.Billing.PaymentRequestTTL, logger)
	sweepUC := usecase.NewSweepUseCase(merchantRepo, catalogRepo, subRepo, payUC, autoswUC, tm, locker, cfg.Cron.LockTTL, cfg.Billing.RetentionDays, logger)
	sender := notify.NewLogSender(logger)
	notifUC := usecase.NewNotificationUseCase(notifRepo, sender, 100, logger)
	storeUC := usecase.NewStorefrontUseCase(merchantRepo, autoswUC, logger)

	// ---- HTTP server ----
	auth := web.NewAuthManager(cfg.Auth.JWTSecret, !cfg.Runtime.Dev, "", cfg.Auth.SessionTTL)
	srv := web.NewServer(subUC, payUC, balanceUC, sweepUC, notifUC, storeUC, auth, rateLimiter, cfg.Cron.Secret, logger)

	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)
	metricsHandler := promhttp.Handler()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		// Pool stats are refreshed on scrape instead of a background loop.
		st := pool.Stat()
		metrics.SetDBPoolStats(st.TotalConns(), st.IdleConns(), st.AcquiredConns())
		metricsHandler.ServeHTTP(w, r)
	})

	server := &http.Server{Addr: fmt.Sprintf(":%d", cfg.HTTP.Port), Handler: mux}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	cancel()
}
