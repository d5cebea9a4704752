package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dmehra2102/storefront/pkg/tracing"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusSent       Status = "sent"
	StatusFailed     Status = "failed"
)

type Event struct {
	ID            int64
	AggregateType string
	AggregateID   string
	Type          string
	Payload       []byte
	Headers       map[string]string
	Traceparent   string
	CreatedAt     time.Time
	Status        Status
	RelayID       string
	RetryCount    int
	LastError     *string
}

// NewEvent builds a pending event with a JSON payload, capturing the trace
// context of ctx so the consumer can continue the trace.
func NewEvent(ctx context.Context, aggregateType, aggregateID, eventType string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Type:          eventType,
		Payload:       data,
		Headers:       map[string]string{"source": "storefront"},
		Traceparent:   tracing.Traceparent(ctx),
		CreatedAt:     time.Now().UTC(),
		Status:        StatusPending,
	}, nil
}
