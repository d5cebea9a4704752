package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	order "github.com/dmehra2102/storefront/internal/order/domain"
	"github.com/dmehra2102/storefront/internal/payment/domain"
	"github.com/dmehra2102/storefront/internal/store"
	"github.com/dmehra2102/storefront/pkg/apperr"
)

type Service struct {
	log       *slog.Logger
	store     store.Store
	processor Processor
	ledger    StockLedger
	currency  string
	metrics   Recorder
	now       func() time.Time
}

type Option func(*Service)

func WithRecorder(r Recorder) Option { return func(s *Service) { s.metrics = r } }
func WithCurrency(c string) Option { return func(s *Service) { s.currency = c } }

func NewService(log *slog.Logger, st store.Store, processor Processor, ledger StockLedger, opts ...Option) *Service {
	s := &Service{
		log:       log.With("component", "payment"),
		store:     st,
		processor: processor,
		ledger:    ledger,
		currency:  "usd",
		metrics:   nopRecorder{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateIntent opens a processor intent for a pending order owned by userID
// and binds its reference to the order. The processor call is made outside
// the database transaction; its idempotency key makes a retry after a failed
// bind return the same intent.
func (s *Service) CreateIntent(ctx context.Context, orderID, userID uuid.UUID) (domain.Intent, error) {
	var o order.Order
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		o, err = s.payableOrder(ctx, tx, orderID, userID)
		return err
	})
	if err != nil {
		return domain.Intent{}, err
	}

	intent, err := s.processor.CreateIntent(ctx, domain.IntentRequest{
		Amount:         domain.MinorUnits(o.TotalAmount, s.currency),
		Currency:       s.currency,
		OrderID:        o.ID.String(),
		UserID:         userID.String(),
		IdempotencyKey: domain.IntentIdempotencyKey(o.ID.String()),
	})
	if err != nil {
		s.log.Error("create payment intent failed", "order_id", orderID, "err", err)
		return domain.Intent{}, &apperr.Error{Kind: apperr.KindPaymentGateway, Code: "payment_gateway", Message: "payment processor request failed", Err: err}
	}

	err = s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		o, err := s.payableOrder(ctx, tx, orderID, userID)
		if err != nil {
			return err
		}
		changed, err := o.AttachPaymentReference(intent.ExternalRef, s.now())
		if err != nil || !changed {
			return err
		}
		err = tx.Orders().SetPaymentRef(ctx, o.ID, intent.ExternalRef)
		if errors.Is(err, store.ErrDuplicate) {
			return fmt.Errorf("%w: %s", order.ErrReferenceConflict, intent.ExternalRef)
		}
		return err
	})
	if err != nil {
		return domain.Intent{}, err
	}
	s.log.Info("payment intent created", "order_id", orderID, "payment_ref", intent.ExternalRef)
	return intent, nil
}

func (s *Service) payableOrder(ctx context.Context, tx store.Tx, orderID, userID uuid.UUID) (order.Order, error) {
	o, err := tx.Orders().Get(ctx, orderID, userID)
	if errors.Is(err, store.ErrNotFound) {
		return order.Order{}, order.ErrOrderNotFound
	}
	if err != nil {
		return order.Order{}, err
	}
	if !o.IsPending() {
		return order.Order{}, order.ErrAlreadyProcessed
	}
	if !o.TotalAmount.IsPositive() {
		return order.Order{}, order.ErrInvalidAmount
	}
	return o, nil
}
