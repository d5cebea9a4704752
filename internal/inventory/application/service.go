package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	catalog "github.com/dmehra2102/storefront/internal/catalog/domain"
	"github.com/dmehra2102/storefront/internal/inventory/domain"
	"github.com/dmehra2102/storefront/internal/store"
)

// Ledger is the single authority over product stock counts.
type Ledger struct {
	log *slog.Logger
}

func NewLedger(log *slog.Logger) *Ledger {
	return &Ledger{log: log}
}

// Check verifies every line against a snapshot of products without
// changing stock.
func (l *Ledger) Check(lines []domain.Line, products map[uuid.UUID]catalog.Product) error {
	for _, line := range domain.Merge(lines) {
		p, ok := products[line.ProductID]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrProductMissing, line.ProductID)
		}
		if err := domain.CheckAvailable(p.Name, p.Stock, line.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// Decrement takes every line out of stock. Any failure leaves the caller's
// transaction to roll back the lines already applied.
func (l *Ledger) Decrement(ctx context.Context, repo StockRepository, lines []domain.Line) error {
	for _, line := range domain.Merge(lines) {
		if line.Quantity <= 0 {
			continue
		}
		err := repo.DecrementStock(ctx, line.ProductID, line.Quantity)
		switch {
		case err == nil:
			continue
		case errors.Is(err, store.ErrNotFound):
			return fmt.Errorf("%w: %s", domain.ErrProductMissing, line.ProductID)
		case errors.Is(err, store.ErrConflict):
			return l.shortage(ctx, repo, line)
		default:
			return err
		}
	}
	return nil
}

func (l *Ledger) shortage(ctx context.Context, repo StockRepository, line domain.Line) error {
	p, err := repo.Get(ctx, line.ProductID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: %s", domain.ErrProductMissing, line.ProductID)
		}
		return err
	}
	l.log.Warn("stock decrement rejected", "product_id", line.ProductID, "stock", p.Stock, "requested", line.Quantity)
	if err := domain.CheckAvailable(p.Name, p.Stock, line.Quantity); err != nil {
		return err
	}
	return fmt.Errorf("%w for product %s", domain.ErrInsufficientStock, p.Name)
}
