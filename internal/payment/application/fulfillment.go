package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	order "github.com/dmehra2102/storefront/internal/order/domain"
	"github.com/dmehra2102/storefront/internal/store"
	"github.com/dmehra2102/storefront/pkg/apperr"
	"github.com/dmehra2102/storefront/pkg/outbox"
)

type Fulfillment struct {
	OrderID uuid.UUID
	// Duplicate is set when the order was already completed by an earlier
	// delivery and nothing changed.
	Duplicate bool
}

// HandlePaymentSucceeded completes the order bound to ref: stock is taken,
// the order marked completed, the user's cart cleared and OrderPaid queued,
// all in one transaction. Redelivery for a completed order is a no-op.
func (s *Service) HandlePaymentSucceeded(ctx context.Context, ref string) (Fulfillment, error) {
	var res Fulfillment
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		o, err := tx.Orders().GetByPaymentRef(ctx, ref)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w for payment reference %s", order.ErrOrderNotFound, ref)
		}
		if err != nil {
			return err
		}
		res.OrderID = o.ID
		if !o.IsPending() {
			res.Duplicate = true
			return nil
		}

		if err := s.ledger.Decrement(ctx, tx.Products(), o.Lines()); err != nil {
			return err
		}

		if err := o.MarkCompleted(s.now()); err != nil {
			return err
		}
		if err := tx.Orders().SetPaymentStatus(ctx, o.ID, o.PaymentStatus); err != nil {
			return err
		}

		if err := clearCart(ctx, tx, o.UserID, s.now); err != nil {
			return err
		}

		event, err := outbox.NewEvent(ctx, order.AggregateOrder, o.ID.String(), order.EventOrderPaid, order.OrderPaid{
			OrderID:     o.ID,
			UserID:      o.UserID,
			PaymentRef:  ref,
			TotalAmount: o.TotalAmount,
		})
		if err != nil {
			return err
		}
		return tx.Outbox().Append(ctx, event)
	})

	switch {
	case err != nil:
		s.metrics.ObserveFulfillment(string(apperr.KindOf(err)))
		s.log.Error("fulfillment failed", "payment_ref", ref, "kind", apperr.KindOf(err), "err", err)
		return Fulfillment{}, err
	case res.Duplicate:
		s.metrics.ObserveFulfillment("duplicate")
		s.log.Info("fulfillment already applied", "order_id", res.OrderID, "payment_ref", ref)
	default:
		s.metrics.ObserveFulfillment("completed")
		s.log.Info("order paid and stock updated", "order_id", res.OrderID, "payment_ref", ref)
	}
	return res, nil
}

func clearCart(ctx context.Context, tx store.Tx, userID uuid.UUID, now func() time.Time) error {
	cart, err := tx.Carts().GetByUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if cart.IsEmpty() && cart.TotalPrice.IsZero() {
		return nil
	}
	cart.Clear()
	cart.UpdatedAt = now().UTC()
	return tx.Carts().Save(ctx, cart)
}
