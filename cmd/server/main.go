package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/otp-session-auth/internal/auth"
	"github.com/iliyamo/otp-session-auth/internal/config"
	"github.com/iliyamo/otp-session-auth/internal/handler"
	"github.com/iliyamo/otp-session-auth/internal/logging"
	"github.com/iliyamo/otp-session-auth/internal/middleware"
	"github.com/iliyamo/otp-session-auth/internal/otp"
	"github.com/iliyamo/otp-session-auth/internal/password"
	"github.com/iliyamo/otp-session-auth/internal/queue"
	"github.com/iliyamo/otp-session-auth/internal/router"
	"github.com/iliyamo/otp-session-auth/internal/session"
	"github.com/iliyamo/otp-session-auth/internal/store"
	"github.com/iliyamo/otp-session-auth/internal/token"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New("otp-session-auth", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis is optional unless it is the store driver.
	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		logger.Warn("redis unavailable, rate limiting disabled", "addr", cfg.Redis.Address())
	} else {
		defer rdb.Close()
	}

	backend, closer, err := store.OpenBackend(ctx, cfg, rdb)
	if err != nil {
		return err
	}
	defer closer.Close()
	credentials := store.New(backend, cfg.StoreTimeout, logger)

	var notifier otp.Notifier = otp.LogNotifier{Logger: logger}
	if cfg.Notifier == config.NotifierAMQP {
		notifier = queue.Publisher{URL: cfg.RabbitMQURL, Queue: cfg.OTPQueue, Logger: logger}
	}

	svc := auth.NewService(
		credentials,
		password.NewBcrypt(cfg.BcryptCost, cfg.HashWorkers),
		otp.NewEngine(credentials, notifier, logger, otp.WithTTL(cfg.OTPTTL)),
		session.NewManager(credentials, token.NewCodec(time.Now), session.Config{
			AccessSecret:  []byte(cfg.AccessSecret),
			RefreshSecret: []byte(cfg.RefreshSecret),
			AccessTTL:     cfg.AccessTTL,
			RefreshTTL:    cfg.RefreshTTL,
		}, logger),
		logger,
	)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(logger))
	e.Use(echomw.Recover())

	router.RegisterRoutes(e)
	router.RegisterAuth(e, cfg.APIPrefix,
		handler.NewAuthHandler(svc, !cfg.IsLocal(), cfg.APIPrefix, logger),
		logger,
		middleware.RateLimit(cfg.RateLimit, rdb, logger),
	)

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", ":"+cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
