package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Intent is the processor-side handle for collecting an order's payment.
// ClientSecret is handed to the client to confirm payment.
type Intent struct {
	ExternalRef  string
	ClientSecret string
}

// IntentRequest is what the processor needs to open an intent.
type IntentRequest struct {
	Amount         int64
	Currency       string
	OrderID        string
	UserID         string
	IdempotencyKey string
}

// Currencies the processor expects in whole units.
var zeroDecimal = map[string]struct{}{
	"idr": {},
	"jpy": {},
	"krw": {},
}

// MinorUnits converts an amount to the processor's smallest currency unit,
// rounding half away from zero.
func MinorUnits(amount decimal.Decimal, currency string) int64 {
	if _, ok := zeroDecimal[strings.ToLower(currency)]; ok {
		return amount.Round(0).IntPart()
	}
	return amount.Shift(2).Round(0).IntPart()
}

func IntentIdempotencyKey(orderID string) string {
	return "order-" + orderID + "-intent"
}
