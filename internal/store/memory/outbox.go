package memory

import (
	"context"
	"time"

	"github.com/dmehra2102/storefront/pkg/outbox"
)

const maxRetries = 10

// LockBatch claims pending events, failed events under the retry limit and
// in-progress events whose lease has expired.
func (s *Store) LockBatch(_ context.Context, relayID string, batchSize int, lease time.Duration) ([]outbox.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	out := []outbox.Event{}
	for i := range s.state.outbox {
		if len(out) == batchSize {
			break
		}
		e := &s.state.outbox[i]
		if !claimable(e, s.state.leases[e.ID], now) {
			continue
		}
		e.Status = outbox.StatusInProgress
		e.RelayID = relayID
		s.state.leases[e.ID] = now.Add(lease)
		out = append(out, *e)
	}
	return out, nil
}

func claimable(e *outbox.Event, leaseUntil, now time.Time) bool {
	switch e.Status {
	case outbox.StatusPending:
		return true
	case outbox.StatusFailed:
		return e.RetryCount < maxRetries
	case outbox.StatusInProgress:
		return now.After(leaseUntil)
	default:
		return false
	}
}

func (s *Store) MarkSent(_ context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	for i := range s.state.outbox {
		if _, ok := set[s.state.outbox[i].ID]; ok {
			s.state.outbox[i].Status = outbox.StatusSent
			delete(s.state.leases, s.state.outbox[i].ID)
		}
	}
	return nil
}

func (s *Store) MarkFailed(_ context.Context, id int64, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.state.outbox {
		if s.state.outbox[i].ID == id {
			e := &s.state.outbox[i]
			e.Status = outbox.StatusFailed
			e.RetryCount++
			msg := errMsg
			e.LastError = &msg
			delete(s.state.leases, id)
		}
	}
	return nil
}

func (s *Store) ExtendLease(_ context.Context, relayID string, ids []int64, lease time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	until := s.now().Add(lease)
	for _, id := range ids {
		for i := range s.state.outbox {
			e := s.state.outbox[i]
			if e.ID == id && e.RelayID == relayID && e.Status == outbox.StatusInProgress {
				s.state.leases[id] = until
			}
		}
	}
	return nil
}
