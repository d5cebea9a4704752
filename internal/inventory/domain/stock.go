package domain

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/dmehra2102/storefront/pkg/apperr"
)

var (
	ErrInsufficientStock = apperr.New(apperr.KindInsufficientStock, "insufficient_stock", "insufficient stock")
	ErrProductMissing    = apperr.New(apperr.KindNotFound, "product_missing", "product not found")
)

// Line is a quantity of one product moving out of stock.
type Line struct {
	ProductID uuid.UUID
	Quantity  int
}

// CheckAvailable verifies that requested units of a product can be taken
// from stock without driving it negative.
func CheckAvailable(product string, stock, requested int) error {
	if requested > stock {
		return fmt.Errorf("%w for product %s: available %d, requested %d", ErrInsufficientStock, product, stock, requested)
	}
	return nil
}

// Decrement returns the stock left after taking qty units.
func Decrement(product string, stock, qty int) (int, error) {
	if err := CheckAvailable(product, stock, qty); err != nil {
		return stock, err
	}
	return stock - qty, nil
}

// Merge folds lines for the same product together so each product is
// decremented once per fulfillment.
func Merge(lines []Line) []Line {
	idx := make(map[uuid.UUID]int, len(lines))
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		if i, ok := idx[l.ProductID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		idx[l.ProductID] = len(out)
		out = append(out, l)
	}
	return out
}
