package stripe

import (
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/dmehra2102/storefront/internal/payment/domain"
	"github.com/dmehra2102/storefront/pkg/apperr"
)

var ErrInvalidSignature = apperr.New(apperr.KindValidation, "invalid_signature", "Invalid Stripe signature!")

type WebhookVerifier struct {
	secret string
}

func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: secret}
}

// Verify checks the Stripe-Signature header against the raw body and
// extracts the event. The reference is the id of the event's data object.
func (v *WebhookVerifier) Verify(payload []byte, signature string) (domain.Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, v.secret, webhook.ConstructEventOptions{
		Tolerance:                webhook.DefaultTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return domain.Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := domain.Event{ID: event.ID, Type: string(event.Type)}
	if event.Data != nil && len(event.Data.Raw) > 0 {
		var obj struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(event.Data.Raw, &obj); err != nil {
			return domain.Event{}, apperr.Wrap(apperr.KindValidation, "invalid_event", err)
		}
		out.Reference = obj.ID
	}
	return out, nil
}
