package kafka

import (
	"context"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/storefront/pkg/outbox"
	"github.com/dmehra2102/storefront/pkg/tracing"
)

type Handler interface {
	Handle(ctx context.Context, eventType string, payload []byte) error
}

type Deduper interface {
	Key(topic string, partition int, offset int64) string
	Seen(ctx context.Context, key string) (bool, error)
}

type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer feeds order events to a Handler, at most once per record.
type Consumer struct {
	log     *slog.Logger
	reader  Reader
	handler Handler
	idem    Deduper
	tracer  trace.Tracer
}

func NewReader(brokers []string, topic, group string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})
}

func NewConsumer(log *slog.Logger, reader Reader, handler Handler, idem Deduper) *Consumer {
	return &Consumer{
		log:     log.With("component", "notification-consumer"),
		reader:  reader,
		handler: handler,
		idem:    idem,
		tracer:  otel.Tracer("notification-consumer"),
	}
}

func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		c.process(ctx, msg)
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.log.Error("commit failed", "offset", msg.Offset, "err", err)
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg kafka.Message) {
	key := c.idem.Key(msg.Topic, msg.Partition, msg.Offset)
	seen, err := c.idem.Seen(ctx, key)
	if err != nil {
		c.log.Error("idempotency check failed", "key", key, "err", err)
		return
	}
	if seen {
		c.log.Info("duplicate message skipped", "key", key)
		return
	}

	eventType := tracing.HeaderValue(msg.Headers, outbox.EventTypeHeader)
	msgCtx := tracing.ExtractKafkaHeaders(ctx, msg.Headers)
	msgCtx, span := c.tracer.Start(msgCtx, "ConsumeOrderEvent", trace.WithAttributes(
		attribute.String("event.type", eventType),
		attribute.String("order.id", string(msg.Key)),
	))
	defer span.End()

	if err := c.handler.Handle(msgCtx, eventType, msg.Value); err != nil {
		span.SetStatus(codes.Error, err.Error())
		c.log.Error("notification failed", "type", eventType, "order_id", string(msg.Key), "err", err)
		return
	}
	c.log.Info("notification sent", "type", eventType, "order_id", string(msg.Key))
}
