// Package stripe adapts Stripe PaymentIntents and signed webhooks to the
// payment service.
package stripe

import (
	"context"
	"log/slog"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"

	"github.com/dmehra2102/storefront/internal/payment/domain"
)

type Processor struct {
	log    *slog.Logger
	client *paymentintent.Client
}

func NewProcessor(log *slog.Logger, secretKey string) *Processor {
	return NewProcessorWithBackend(log, secretKey, stripe.GetBackend(stripe.APIBackend))
}

func NewProcessorWithBackend(log *slog.Logger, secretKey string, backend stripe.Backend) *Processor {
	return &Processor{
		log:    log.With("component", "stripe"),
		client: &paymentintent.Client{B: backend, Key: secretKey},
	}
}

// CreateIntent opens a card-style intent without redirect-based methods so
// the client can confirm in place.
func (p *Processor) CreateIntent(ctx context.Context, req domain.IntentRequest) (domain.Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(req.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	params.Context = ctx
	params.AddMetadata("orderId", req.OrderID)
	params.AddMetadata("userId", req.UserID)
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	pi, err := p.client.New(params)
	if err != nil {
		return domain.Intent{}, err
	}
	p.log.Debug("payment intent opened", "order_id", req.OrderID, "payment_ref", pi.ID)
	return domain.Intent{ExternalRef: pi.ID, ClientSecret: pi.ClientSecret}, nil
}
