package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store remembers processed message keys in Redis for ttl.
type Store struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewStore(rdb redis.Cmdable, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// Key identifies a Kafka record.
func (s *Store) Key(topic string, partition int, offset int64) string {
	return fmt.Sprintf("idem:%s:%d:%d", topic, partition, offset)
}

// EventKey identifies an externally delivered event, e.g. a webhook.
func (s *Store) EventKey(source, eventID string) string {
	return fmt.Sprintf("idem:%s:%s", source, eventID)
}

// Seen claims key and reports whether it was already claimed.
func (s *Store) Seen(ctx context.Context, key string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, key, "1", s.ttl).Result()
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// Claim is the state of an event key after Begin.
type Claim int

const (
	// Claimed means the caller owns the key and must Complete or Forget it.
	Claimed Claim = iota
	// InFlight means another delivery holds the key and has not finished.
	InFlight
	// Done means the event was fully handled.
	Done
)

const (
	pendingValue = "pending"
	doneValue    = "done"
)

// Begin claims key as in-flight for lease. Unlike Seen, a claim only turns
// into Done after Complete, so a crashed or failed handler never leaves the
// key looking handled.
func (s *Store) Begin(ctx context.Context, key string, lease time.Duration) (Claim, error) {
	ok, err := s.rdb.SetNX(ctx, key, pendingValue, lease).Result()
	if err != nil {
		return 0, err
	}
	if ok {
		return Claimed, nil
	}
	val, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return InFlight, nil
	}
	if err != nil {
		return 0, err
	}
	if val == doneValue {
		return Done, nil
	}
	return InFlight, nil
}

// Complete records key as handled for the store's ttl.
func (s *Store) Complete(ctx context.Context, key string) error {
	return s.rdb.Set(ctx, key, doneValue, s.ttl).Err()
}

// Forget releases a claim so that a redelivery is processed again.
func (s *Store) Forget(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}
