package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"item-manager/internal/config"
	"item-manager/internal/poller"
)

func main() {
	cfg, err := config.LoadPoller()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create logger")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := poller.New(
		poller.NewHostSensor(),
		poller.NewHTTPPoster(cfg.Endpoint, cfg.HeaderName, cfg.HeaderValue, cfg.HTTPTimeout),
		&poller.RetryConfig{MaxAttempts: cfg.MaxAttempts, Delay: cfg.RetryDelay},
		cfg.Interval,
		logger,
	)

	logger.WithField("endpoint", cfg.Endpoint).Info("Poller configured")

	if err := p.Run(ctx); err != nil {
		logger.WithError(err).Fatal("Poller stopped")
	}
}
