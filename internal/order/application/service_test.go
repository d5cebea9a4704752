package application

import (
	"context"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	catalog "github.com/dmehra2102/storefront/internal/catalog/domain"
	inventory "github.com/dmehra2102/storefront/internal/inventory/application"
	"github.com/dmehra2102/storefront/internal/order/domain"
	"github.com/dmehra2102/storefront/internal/store/memory"
	"github.com/dmehra2102/storefront/pkg/apperr"
	"github.com/dmehra2102/storefront/pkg/logging"
)

type countingRecorder struct{ outcomes []string }

func (c *countingRecorder) ObserveCheckout(o string) { c.outcomes = append(c.outcomes, o) }

func newTestService(t *testing.T) (*Service, *memory.Store, *countingRecorder) {
	t.Helper()
	st := memory.New()
	rec := &countingRecorder{}
	log := logging.Discard()
	return NewService(log, st, inventory.NewLedger(log), WithRecorder(rec)), st, rec
}

func seedProduct(st *memory.Store, name, price string, stock int) catalog.Product {
	p := catalog.Product{
		ID:        uuid.New(),
		Name:      name,
		Price:     decimal.RequireFromString(price),
		Stock:     stock,
		CreatedAt: time.Now(),
	}
	st.SeedProduct(p)
	return p
}

func address() domain.DeliveryAddress {
	return domain.DeliveryAddress{Street: "1 Main St", City: "Springfield", State: "IL", ZipCode: "62701"}
}

func TestAddItemCreatesAndMergesCart(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	user := uuid.New()
	mug := seedProduct(st, "Mug", "4.50", 10)
	pen := seedProduct(st, "Pen", "1.25", 10)

	_, err := svc.AddItem(ctx, user, mug.ID, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, user, pen.ID, 1)
	require.NoError(t, err)
	cart, err := svc.AddItem(ctx, user, mug.ID, 1)
	require.NoError(t, err)

	require.Len(t, cart.Lines, 2)
	require.Equal(t, 3, cart.QuantityOf(mug.ID))
	require.True(t, decimal.RequireFromString("14.75").Equal(cart.TotalPrice))

	stored, ok := st.Cart(user)
	require.True(t, ok)
	require.Equal(t, cart.ID, stored.ID)
}

func TestAddItemFailuresLeaveCartUnchanged(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	user := uuid.New()
	mug := seedProduct(st, "Mug", "4.50", 3)

	_, err := svc.AddItem(ctx, user, mug.ID, 2)
	require.NoError(t, err)
	before, _ := st.Cart(user)

	_, err = svc.AddItem(ctx, user, mug.ID, 2)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = svc.AddItem(ctx, user, mug.ID, 0)
	require.ErrorIs(t, err, domain.ErrQuantityNotPositive)

	_, err = svc.AddItem(ctx, user, uuid.New(), 1)
	require.ErrorIs(t, err, domain.ErrProductNotFound)
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	after, _ := st.Cart(user)
	require.Equal(t, before, after)
}

func TestAddItemHugeQuantityCannotReachCheckout(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	user := uuid.New()
	mug := seedProduct(st, "Mug", "10", 5)

	_, err := svc.AddItem(ctx, user, mug.ID, 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, user, mug.ID, math.MaxInt)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	cart, _ := st.Cart(user)
	require.Equal(t, 1, cart.QuantityOf(mug.ID))

	o, err := svc.Checkout(ctx, user, address())
	require.NoError(t, err)
	require.True(t, decimal.NewFromInt(10).Equal(o.TotalAmount))
}

func TestAddItemRejectsStaleCartLine(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	user := uuid.New()
	mug := seedProduct(st, "Mug", "4.50", 3)
	pen := seedProduct(st, "Pen", "1.00", 3)

	_, err := svc.AddItem(ctx, user, mug.ID, 1)
	require.NoError(t, err)
	st.DeleteProduct(mug.ID)

	_, err = svc.AddItem(ctx, user, pen.ID, 1)
	require.ErrorIs(t, err, domain.ErrStaleProduct)
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestCheckoutCreatesPendingOrder(t *testing.T) {
	svc, st, rec := newTestService(t)
	ctx := context.Background()
	user := uuid.New()
	mug := seedProduct(st, "Mug", "4.50", 5)
	pen := seedProduct(st, "Pen", "1.25", 5)

	_, err := svc.AddItem(ctx, user, mug.ID, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, user, pen.ID, 4)
	require.NoError(t, err)

	o, err := svc.Checkout(ctx, user, address())
	require.NoError(t, err)
	require.Equal(t, domain.PaymentPending, o.PaymentStatus)
	require.Nil(t, o.ExternalPaymentRef)
	require.True(t, decimal.RequireFromString("14").Equal(o.TotalAmount))
	require.Len(t, o.Items, 2)

	cart, _ := st.Cart(user)
	require.True(t, cart.IsEmpty())
	require.True(t, cart.TotalPrice.IsZero())

	// Checkout validates stock but does not take it.
	p, _ := st.Product(mug.ID)
	require.Equal(t, 5, p.Stock)

	events := st.OutboxEvents()
	require.Len(t, events, 1)
	require.Equal(t, domain.EventOrderCreated, events[0].Type)
	require.Equal(t, o.ID.String(), events[0].AggregateID)
	var payload domain.OrderCreated
	require.NoError(t, json.Unmarshal(events[0].Payload, &payload))
	require.Equal(t, o.ID, payload.OrderID)

	require.Equal(t, []string{"ok"}, rec.outcomes)
}

func TestCheckoutSnapshotsPrices(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	user := uuid.New()
	mug := seedProduct(st, "Mug", "4.50", 5)

	_, err := svc.AddItem(ctx, user, mug.ID, 1)
	require.NoError(t, err)
	o, err := svc.Checkout(ctx, user, address())
	require.NoError(t, err)

	mug.Price = decimal.NewFromInt(99)
	st.SeedProduct(mug)

	history, err := svc.History(ctx, user)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.True(t, decimal.RequireFromString("4.50").Equal(history[0].Items[0].Price))
	require.True(t, o.TotalAmount.Equal(history[0].TotalAmount))
}

func TestCheckoutFailuresAreAtomic(t *testing.T) {
	ctx := context.Background()

	t.Run("empty cart", func(t *testing.T) {
		svc, _, rec := newTestService(t)
		_, err := svc.Checkout(ctx, uuid.New(), address())
		require.ErrorIs(t, err, domain.ErrEmptyCart)
		require.Equal(t, []string{string(apperr.KindValidation)}, rec.outcomes)
	})

	t.Run("invalid address", func(t *testing.T) {
		svc, st, _ := newTestService(t)
		user := uuid.New()
		mug := seedProduct(st, "Mug", "4.50", 5)
		_, err := svc.AddItem(ctx, user, mug.ID, 1)
		require.NoError(t, err)

		_, err = svc.Checkout(ctx, user, domain.DeliveryAddress{Street: "1 Main St"})
		require.ErrorIs(t, err, domain.ErrInvalidAddress)

		cart, _ := st.Cart(user)
		require.Equal(t, 1, cart.QuantityOf(mug.ID))
		require.Empty(t, st.OutboxEvents())
	})

	t.Run("product gone", func(t *testing.T) {
		svc, st, _ := newTestService(t)
		user := uuid.New()
		mug := seedProduct(st, "Mug", "4.50", 5)
		_, err := svc.AddItem(ctx, user, mug.ID, 1)
		require.NoError(t, err)
		st.DeleteProduct(mug.ID)

		_, err = svc.Checkout(ctx, user, address())
		require.ErrorIs(t, err, domain.ErrProductGone)
		history, err := svc.History(ctx, user)
		require.NoError(t, err)
		require.Empty(t, history)
	})

	t.Run("stock dropped after add", func(t *testing.T) {
		svc, st, _ := newTestService(t)
		user := uuid.New()
		mug := seedProduct(st, "Mug", "4.50", 5)
		_, err := svc.AddItem(ctx, user, mug.ID, 4)
		require.NoError(t, err)
		mug.Stock = 2
		st.SeedProduct(mug)

		_, err = svc.Checkout(ctx, user, address())
		require.ErrorIs(t, err, domain.ErrInsufficientStock)
		cart, _ := st.Cart(user)
		require.Equal(t, 4, cart.QuantityOf(mug.ID))
	})
}

func TestHistoryNewestFirst(t *testing.T) {
	st := memory.New()
	log := logging.Discard()
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := NewService(log, st, inventory.NewLedger(log), WithClock(func() time.Time { return clock }))
	ctx := context.Background()
	user := uuid.New()
	mug := seedProduct(st, "Mug", "1", 10)

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		_, err := svc.AddItem(ctx, user, mug.ID, 1)
		require.NoError(t, err)
		o, err := svc.Checkout(ctx, user, address())
		require.NoError(t, err)
		ids = append(ids, o.ID)
		clock = clock.Add(time.Minute)
	}

	history, err := svc.History(ctx, user)
	require.NoError(t, err)
	require.Len(t, history, 3)
	require.Equal(t, ids[2], history[0].ID)
	require.Equal(t, ids[0], history[2].ID)

	other, err := svc.History(ctx, uuid.New())
	require.NoError(t, err)
	require.Empty(t, other)
}
