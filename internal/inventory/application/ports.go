package application

import (
	"context"

	"github.com/google/uuid"

	catalog "github.com/dmehra2102/storefront/internal/catalog/domain"
)

// StockRepository is the slice of product persistence the ledger needs. It
// must be bound to the caller's transaction.
type StockRepository interface {
	Get(ctx context.Context, id uuid.UUID) (catalog.Product, error)
	DecrementStock(ctx context.Context, id uuid.UUID, qty int) error
}
