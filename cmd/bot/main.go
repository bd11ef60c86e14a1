package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/egornikitin1224-a11y/telegram-bot-for-hospital/internal/api/router"
	"github.com/egornikitin1224-a11y/telegram-bot-for-hospital/internal/chat"
	"github.com/egornikitin1224-a11y/telegram-bot-for-hospital/internal/config"
	"github.com/egornikitin1224-a11y/telegram-bot-for-hospital/internal/http/handlers"
	"github.com/egornikitin1224-a11y/telegram-bot-for-hospital/internal/observability/metrics"
	"github.com/egornikitin1224-a11y/telegram-bot-for-hospital/internal/store"
	"github.com/egornikitin1224-a11y/telegram-bot-for-hospital/internal/transport/webchat"
	"github.com/egornikitin1224-a11y/telegram-bot-for-hospital/internal/wizard"
	"github.com/egornikitin1224-a11y/telegram-bot-for-hospital/pkg/logging"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Default().Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic bot",
		"env", cfg.Env,
		"port", cfg.Port,
		"data_file", cfg.DataFile,
		"edit_mode", cfg.EditMode,
		"session_backend", cfg.SessionBackend,
	)

	st, err := store.Open(cfg.DataFile, logger)
	if err != nil {
		logger.Error("failed to open appointment store", "error", err)
		os.Exit(1)
	}

	sessions, cleanup, err := newSessionStore(cfg, logger)
	if err != nil {
		logger.Error("failed to init session store", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	botMetrics := metrics.NewBotMetrics(prometheus.DefaultRegisterer)

	chatHandler := webchat.NewHandler(nil, cfg.ChatAuthSecret, logger)
	booking := wizard.NewBooking(st, sessions, chatHandler, logger)
	edit := wizard.NewEdit(st, sessions, chatHandler, cfg.EditMode == config.EditModeStrict, logger)

	dispatcher := chat.NewDispatcher(st, sessions, booking, edit, chatHandler,
		cfg.IsAdmin, botMetrics, logger, cfg.EventQueueSize)
	chatHandler.SetDispatcher(dispatcher)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go dispatcher.Run(ctx)

	r := router.New(&router.Config{
		Logger:             logger,
		Chat:               chatHandler,
		Calendar:           handlers.NewCalendarHandler(st, logger),
		Dashboard:          handlers.NewDashboardHandler(st, prometheus.DefaultGatherer, cfg.ChatAuthSecret, cfg.IsAdmin, logger),
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSOrigins,
		ChatRateLimit:      5,
		ChatRateBurst:      10,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Admins learn the bot is up once they connect; delivery failures
	// for offline admins only produce a log line.
	dispatcher.NotifyStartup(ctx, cfg.AdminIDs)

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// newSessionStore picks the wizard session backend from config.
func newSessionStore(cfg *config.Config, logger *logging.Logger) (wizard.SessionStore, func(), error) {
	if cfg.SessionBackend != config.SessionBackendRedis {
		return wizard.NewMemorySessionStore(), func() {}, nil
	}

	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, err
	}

	logger.Info("using redis session backend", "addr", cfg.RedisAddr, "ttl", cfg.SessionTTL)
	return wizard.NewRedisSessionStore(client, cfg.SessionTTL, nil),
		func() { _ = client.Close() }, nil
}
