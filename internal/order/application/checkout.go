package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmehra2102/storefront/internal/order/domain"
	"github.com/dmehra2102/storefront/internal/store"
	"github.com/dmehra2102/storefront/pkg/outbox"
)

// Checkout converts the user's cart into a pending order priced at current
// product prices. The order insert, cart clear and OrderCreated event commit
// together; stock is only checked here and is taken at fulfillment.
func (s *Service) Checkout(ctx context.Context, userID uuid.UUID, addr domain.DeliveryAddress) (domain.Order, error) {
	var placed domain.Order
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		cart, err := tx.Carts().GetByUser(ctx, userID)
		if errors.Is(err, store.ErrNotFound) {
			return domain.ErrEmptyCart
		}
		if err != nil {
			return err
		}
		if cart.IsEmpty() {
			return domain.ErrEmptyCart
		}

		products, err := tx.Products().GetMany(ctx, cart.ProductIDs())
		if err != nil {
			return err
		}
		items := make([]domain.OrderItem, 0, len(cart.Lines))
		for _, line := range cart.Lines {
			p, ok := products[line.ProductID]
			if !ok {
				return fmt.Errorf("%w: %s", domain.ErrProductGone, line.ProductID)
			}
			items = append(items, domain.OrderItem{ProductID: p.ID, Quantity: line.Quantity, Price: p.Price})
		}
		if err := s.stock.Check(cart.StockLines(), products); err != nil {
			return err
		}
		if err := addr.Validate(); err != nil {
			return err
		}

		o := domain.NewOrder(s.newID(), userID, items, addr, s.now())
		if err := tx.Orders().Create(ctx, o); err != nil {
			return err
		}

		cart.Clear()
		cart.UpdatedAt = s.now().UTC()
		if err := tx.Carts().Save(ctx, cart); err != nil {
			return err
		}

		event, err := outbox.NewEvent(ctx, domain.AggregateOrder, o.ID.String(), domain.EventOrderCreated, domain.OrderCreated{
			OrderID:     o.ID,
			UserID:      o.UserID,
			TotalAmount: o.TotalAmount,
			Items:       o.Items,
		})
		if err != nil {
			return err
		}
		if err := tx.Outbox().Append(ctx, event); err != nil {
			return err
		}
		placed = o
		return nil
	})
	s.metrics.ObserveCheckout(outcome(err))
	if err != nil {
		return domain.Order{}, err
	}
	s.log.Info("order placed", "order_id", placed.ID, "user_id", userID, "total", placed.TotalAmount.String())
	return placed, nil
}
