package application

import (
	"github.com/google/uuid"

	catalog "github.com/dmehra2102/storefront/internal/catalog/domain"
	"github.com/dmehra2102/storefront/internal/order/domain"
)

// StockChecker validates quantities against a product snapshot without
// reserving anything.
type StockChecker interface {
	Check(lines []domain.Line, products map[uuid.UUID]catalog.Product) error
}

type Recorder interface {
	ObserveCheckout(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveCheckout(string) {}
