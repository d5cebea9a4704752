package tracing

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/storefront/pkg/logging"
)

func TestTraceparentRoundTripsThroughKafkaHeaders(t *testing.T) {
	tp, err := Init(context.Background(), "test", "", logging.Discard())
	require.NoError(t, err)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "parent")
	defer span.End()

	tp1 := Traceparent(ctx)
	require.NotEmpty(t, tp1)

	headers := InjectKafkaHeaders(ctx, []kafka.Header{{Key: "source", Value: []byte("test")}})
	out := ExtractKafkaHeaders(context.Background(), headers)

	require.Equal(t, span.SpanContext().TraceID(), trace.SpanContextFromContext(out).TraceID())
}

func TestTraceparentWithoutSpan(t *testing.T) {
	require.Empty(t, Traceparent(context.Background()))
}
