package application

import (
	"context"

	inventory "github.com/dmehra2102/storefront/internal/inventory/application"
	order "github.com/dmehra2102/storefront/internal/order/domain"
	"github.com/dmehra2102/storefront/internal/payment/domain"
)

// Processor opens payment intents with the external payment provider.
// Repeating a request with the same IdempotencyKey returns the same intent.
type Processor interface {
	CreateIntent(ctx context.Context, req domain.IntentRequest) (domain.Intent, error)
}

// StockLedger takes fulfilled quantities out of stock within the caller's
// transaction.
type StockLedger interface {
	Decrement(ctx context.Context, repo inventory.StockRepository, lines []order.Line) error
}

type Recorder interface {
	ObserveFulfillment(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveFulfillment(string) {}
