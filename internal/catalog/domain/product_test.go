package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestNewProductValidates(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name string
		in   NewProductInput
		want error
	}{
		{"missing name", NewProductInput{Name: " ", Price: decimal.NewFromInt(1)}, ErrProductNameRequired},
		{"zero price", NewProductInput{Name: "Mug", Price: decimal.Zero}, ErrProductPrice},
		{"sub-cent price", NewProductInput{Name: "Mug", Price: decimal.RequireFromString("9.999")}, ErrProductPriceScale},
		{"negative stock", NewProductInput{Name: "Mug", Price: decimal.NewFromInt(1), Stock: -1}, ErrProductStock},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewProduct(uuid.New(), tc.in, nil, now)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestNewProductAcceptsTrailingZeroScale(t *testing.T) {
	p, err := NewProduct(uuid.New(), NewProductInput{Name: "Mug", Price: decimal.RequireFromString("9.990")}, nil, time.Now())
	require.NoError(t, err)
	require.True(t, decimal.RequireFromString("9.99").Equal(p.Price))
}

func TestNewProductTrimsName(t *testing.T) {
	p, err := NewProduct(uuid.New(), NewProductInput{Name: "  Mug ", Price: decimal.RequireFromString("9.99"), Stock: 4}, []string{"u"}, time.Now())
	require.NoError(t, err)
	require.Equal(t, "Mug", p.Name)
	require.Equal(t, 4, p.Stock)
	require.Equal(t, []string{"u"}, p.Images)
}
