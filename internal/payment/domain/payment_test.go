package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestMinorUnits(t *testing.T) {
	cases := []struct {
		amount   string
		currency string
		want     int64
	}{
		{"19.99", "usd", 1999},
		{"0.015", "usd", 2},
		{"100", "USD", 10000},
		{"15000", "idr", 15000},
		{"15000.5", "idr", 15001},
		{"1200", "jpy", 1200},
	}
	for _, tc := range cases {
		got := MinorUnits(decimal.RequireFromString(tc.amount), tc.currency)
		require.Equal(t, tc.want, got, "%s %s", tc.amount, tc.currency)
	}
}

func TestIntentIdempotencyKey(t *testing.T) {
	require.Equal(t, "order-abc-intent", IntentIdempotencyKey("abc"))
}
