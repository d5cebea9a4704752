package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/storefront/pkg/logging"
)

type fakeStore struct {
	mu      sync.Mutex
	batch   []Event
	sent    []int64
	failed  map[int64]string
	lockErr error
}

func (s *fakeStore) LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lockErr != nil {
		return nil, s.lockErr
	}
	out := s.batch
	s.batch = nil
	return out, nil
}

func (s *fakeStore) MarkSent(ctx context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, ids...)
	return nil
}

func (s *fakeStore) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failed == nil {
		s.failed = map[int64]string{}
	}
	s.failed[id] = errMsg
	return nil
}

func (s *fakeStore) ExtendLease(ctx context.Context, relayID string, ids []int64, lease time.Duration) error {
	return nil
}

type fakeProducer struct {
	msgs   []kafka.Message
	failOn string
}

func (p *fakeProducer) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		if string(m.Key) == p.failOn {
			return errors.New("broker unavailable")
		}
	}
	p.msgs = append(p.msgs, msgs...)
	return nil
}

func TestRelayTickMarksSentAndFailed(t *testing.T) {
	store := &fakeStore{batch: []Event{
		{ID: 1, AggregateID: "order-1", Type: "OrderCreated", Payload: []byte(`{}`), Traceparent: "00-abc-def-01"},
		{ID: 2, AggregateID: "order-2", Type: "OrderPaid", Payload: []byte(`{}`)},
	}}
	prod := &fakeProducer{failOn: "order-2"}
	relay := NewRelay(logging.Discard(), store, NewDispatcher(logging.Discard(), prod, "order.events"), "test")

	n, err := relay.Tick(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, []int64{1}, store.sent)
	require.Contains(t, store.failed, int64(2))

	require.Len(t, prod.msgs, 1)
	msg := prod.msgs[0]
	require.Equal(t, "order.events", msg.Topic)
	require.Equal(t, "order-1", string(msg.Key))

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	require.Equal(t, "OrderCreated", headers[EventTypeHeader])
	require.Equal(t, "00-abc-def-01", headers["traceparent"])
}

func TestRelayTickPropagatesLockError(t *testing.T) {
	store := &fakeStore{lockErr: errors.New("db down")}
	relay := NewRelay(logging.Discard(), store, NewDispatcher(logging.Discard(), &fakeProducer{}, "t"), "test")

	_, err := relay.Tick(context.Background())
	require.Error(t, err)
}

func TestRelayRunStopsOnCancel(t *testing.T) {
	store := &fakeStore{batch: []Event{{ID: 7, AggregateID: "order-7", Type: "OrderPaid"}}}
	relay := NewRelay(logging.Discard(), store, NewDispatcher(logging.Discard(), &fakeProducer{}, "t"), "test",
		WithInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.sent) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestNewEventMarshalsPayload(t *testing.T) {
	ev, err := NewEvent(context.Background(), "order", "order-1", "OrderCreated", map[string]string{"orderId": "order-1"})
	require.NoError(t, err)
	require.JSONEq(t, `{"orderId":"order-1"}`, string(ev.Payload))
	require.Equal(t, StatusPending, ev.Status)
	require.Equal(t, "storefront", ev.Headers["source"])
}
