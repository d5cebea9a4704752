package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/dmehra2102/storefront/internal/order/domain"
	"github.com/dmehra2102/storefront/internal/store"
)

// History returns the user's orders, newest first.
func (s *Service) History(ctx context.Context, userID uuid.UUID) ([]domain.Order, error) {
	var orders []domain.Order
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		orders, err = tx.Orders().ListByUser(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}
