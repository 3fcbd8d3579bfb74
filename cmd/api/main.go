package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ngophungianghi/careai-server/internal/accounts"
	"github.com/ngophungianghi/careai-server/internal/api/router"
	"github.com/ngophungianghi/careai-server/internal/app/bootstrap"
	"github.com/ngophungianghi/careai-server/internal/booking"
	"github.com/ngophungianghi/careai-server/internal/clinic"
	appconfig "github.com/ngophungianghi/careai-server/internal/config"
	"github.com/ngophungianghi/careai-server/internal/http/handlers"
	"github.com/ngophungianghi/careai-server/internal/notify"
	"github.com/ngophungianghi/careai-server/internal/observability/metrics"
	"github.com/ngophungianghi/careai-server/internal/triage"
	"github.com/ngophungianghi/careai-server/internal/webchat"
	"github.com/ngophungianghi/careai-server/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting careai-server API",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	pool, err := bootstrap.BuildPgxPool(ctx, cfg)
	if err != nil {
		logger.Error("database setup failed", "error", err)
		os.Exit(1)
	}
	if pool == nil {
		logger.Warn("DATABASE_URL not set; using in-memory repositories")
	} else {
		defer pool.Close()
	}

	redisClient, err := bootstrap.BuildRedisClient(ctx, cfg)
	if err != nil {
		logger.Error("redis setup failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	llmClient, err := bootstrap.BuildLLMClient(ctx, cfg, logger)
	if err != nil {
		logger.Error("agent setup failed", "error", err)
		os.Exit(1)
	}

	portraits, err := bootstrap.BuildPortraitStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("portrait storage setup failed", "error", err)
		os.Exit(1)
	}

	doctorRepo := bootstrap.BuildDoctorRepository(pool)
	bookingRepo := bootstrap.BuildBookingRepository(pool)
	accountRepo := bootstrap.BuildAccountRepository(pool)
	sessionStore := bootstrap.BuildSessionStore(cfg, redisClient)
	emailSender := bootstrap.BuildEmailSender(cfg, logger)

	bookingMetrics := metrics.NewBookingMetrics(prometheus.DefaultRegisterer)
	triageMetrics := metrics.NewTriageMetrics(prometheus.DefaultRegisterer)

	notifier := notify.NewBookingEmailNotifier(emailSender, cfg.ClinicNotifyEmail, logger)

	accountsSvc := accounts.NewService(accountRepo, cfg.AuthJWTSecret, cfg.AuthTokenTTL, logger)
	engine := booking.NewEngine(bookingRepo, doctorRepo, notifier, bookingMetrics, cfg.BookingWindowDays, logger)
	triageSvc := triage.NewService(llmClient, doctorRepo, sessionStore, cfg.GeminiModelID, triageMetrics, logger)

	dashboardDB, err := bootstrap.BuildSQLDB(ctx, cfg)
	if err != nil {
		logger.Error("dashboard database setup failed", "error", err)
		os.Exit(1)
	}
	if dashboardDB != nil {
		defer dashboardDB.Close()
	}

	var dashboard *handlers.AdminDashboardHandler
	if dashboardDB != nil {
		dashboard = handlers.NewAdminDashboardHandler(dashboardDB, logger)
	}

	r := router.New(&router.Config{
		Logger:             logger,
		AccountsService:    accountsSvc,
		AccountsHandler:    accounts.NewHandler(accountsSvc, logger),
		ClinicHandler:      clinic.NewHandler(doctorRepo, portraits, logger),
		BookingHandler:     booking.NewHandler(engine, logger),
		TriageHandler:      triage.NewHandler(triageSvc, logger),
		WebchatHandler:     webchat.NewHandler(triageSvc, logger),
		AdminDashboard:     dashboard,
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: strings.Split(cfg.CORSAllowedOrigins, ","),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
