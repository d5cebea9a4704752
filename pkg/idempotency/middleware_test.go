package idempotency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	s := NewStore(nil, time.Minute)
	require.Equal(t, "idem:order.events:3:42", s.Key("order.events", 3, 42))
	require.Equal(t, "idem:stripe:evt_123", s.EventKey("stripe", "evt_123"))
}
