package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	notificationapp "github.com/dmehra2102/storefront/internal/notification/application"
	notificationkafka "github.com/dmehra2102/storefront/internal/notification/infrastructure/kafka"
	"github.com/dmehra2102/storefront/pkg/idempotency"
	"github.com/dmehra2102/storefront/pkg/logging"
	"github.com/dmehra2102/storefront/pkg/shutdown"
	"github.com/dmehra2102/storefront/pkg/tracing"
)

func notifierCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notifier",
		Short: "Consume order events and notify customers",
		RunE:  runNotifier,
	}
}

func runNotifier(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(cfg.KafkaBrokers) == 0 || cfg.RedisAddr == "" {
		return errors.New("KAFKA_ADDR and REDIS_ADDR are required")
	}
	log := logging.New(cfg.LogLevel)

	ctx, cancel := shutdown.WithSignals(cmd.Context())
	defer cancel()

	tp, err := tracing.Init(ctx, "storefront-notifier", cfg.OTLPEndpoint, log)
	if err != nil {
		return fmt.Errorf("otel init: %w", err)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}

	svc := notificationapp.NewService(log, notificationapp.NewLogMailer(log))
	reader := notificationkafka.NewReader(cfg.KafkaBrokers, cfg.OrderEventsTopic, cfg.NotifierGroup)
	consumer := notificationkafka.NewConsumer(log, reader, svc, idempotency.NewStore(rdb, cfg.IdempotencyTTL))

	log.Info("notifier consuming", "topic", cfg.OrderEventsTopic, "group", cfg.NotifierGroup)
	return consumer.Run(ctx)
}
