package application

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmehra2102/storefront/internal/store"
	"github.com/dmehra2102/storefront/pkg/apperr"
)

type Service struct {
	log     *slog.Logger
	store   store.Store
	stock   StockChecker
	metrics Recorder
	now     func() time.Time
	newID   func() uuid.UUID
}

type Option func(*Service)

func WithRecorder(r Recorder) Option { return func(s *Service) { s.metrics = r } }
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func NewService(log *slog.Logger, st store.Store, stock StockChecker, opts ...Option) *Service {
	s := &Service{
		log:     log.With("component", "order"),
		store:   st,
		stock:   stock,
		metrics: nopRecorder{},
		now:     time.Now,
		newID:   uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return string(apperr.KindOf(err))
}
