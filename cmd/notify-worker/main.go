package main

import (
	"context"
	"errors"
	"os"
	"time"

	"budgetbook/internal/amqp"
	"budgetbook/internal/cache"
	"budgetbook/internal/cli"
	applog "budgetbook/internal/log"
	"budgetbook/internal/notify"

	"golang.org/x/sync/errgroup"
)

// notify-worker consumes notification messages published by budgetbook and
// delivers them through the log notifier, honouring each message's delay.
func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg.LogLevel, applog.ComponentNotify)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for notify-worker")
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	sink := notify.NewLogNotifier(logger.Logger)
	defer sink.Stop()
	delivery := notify.NewDeduper(sink, cfg.NotifyDedupeTTL)
	caches := cache.NewManager()
	if d, ok := delivery.(*notify.Deduper); ok {
		caches.Register(d.Cache())
	}

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	logger.Info("Starting notify-worker", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.ConsumeNotifications(gctx, func(ctx context.Context, msg *amqp.NotificationMessage) error {
			return delivery.ScheduleNotification(ctx, msg.Title, msg.Body, msg.Trigger(time.Now()))
		})
	})
	g.Go(func() error { return caches.Run(gctx, 5*time.Minute) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Notification consumption failed", "error", err)
		os.Exit(1)
	}
	logger.Info("notify-worker stopped", "pending_notifications", sink.Pending())
}
