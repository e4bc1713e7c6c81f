package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/iliyamo/otp-session-auth/internal/config"
	"github.com/iliyamo/otp-session-auth/internal/logging"
	"github.com/iliyamo/otp-session-auth/internal/queue"
)

// otp-worker consumes OTP dispatch events published by the server when
// NOTIFIER=amqp and appends each delivery to OTP_LOG_PATH.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	logger := logging.New("otp-worker", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := queue.Consumer{
		URL:     cfg.RabbitMQURL,
		Queue:   cfg.OTPQueue,
		LogPath: cfg.OTPLogPath,
		Logger:  logger,
	}
	logger.Info("otp worker started", "queue", cfg.OTPQueue, "log_path", cfg.OTPLogPath)
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("otp worker stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("otp worker stopped")
}
