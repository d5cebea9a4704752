package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	catalog "github.com/dmehra2102/storefront/internal/catalog/domain"
	order "github.com/dmehra2102/storefront/internal/order/domain"
	"github.com/dmehra2102/storefront/internal/store"
	"github.com/dmehra2102/storefront/pkg/apperr"
	"github.com/dmehra2102/storefront/pkg/outbox"
)

func seed(s *Store, stock int) catalog.Product {
	p := catalog.Product{ID: uuid.New(), Name: "Mug", Price: decimal.NewFromInt(5), Stock: stock, CreatedAt: time.Now()}
	s.SeedProduct(p)
	return p
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s := New()
	p := seed(s, 3)
	boom := errors.New("boom")

	err := s.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		require.NoError(t, tx.Products().DecrementStock(ctx, p.ID, 2))
		e, err := outbox.NewEvent(ctx, "order", "1", "order.paid", map[string]string{})
		require.NoError(t, err)
		require.NoError(t, tx.Outbox().Append(ctx, e))
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, apperr.KindPersistence, apperr.KindOf(err))

	got, _ := s.Product(p.ID)
	require.Equal(t, 3, got.Stock)
	require.Empty(t, s.OutboxEvents())
}

func TestDecrementStockGuards(t *testing.T) {
	s := New()
	p := seed(s, 1)

	err := s.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		require.ErrorIs(t, tx.Products().DecrementStock(ctx, p.ID, 2), store.ErrConflict)
		require.ErrorIs(t, tx.Products().DecrementStock(ctx, uuid.New(), 1), store.ErrNotFound)
		return tx.Products().DecrementStock(ctx, p.ID, 1)
	})
	require.NoError(t, err)
	got, _ := s.Product(p.ID)
	require.Equal(t, 0, got.Stock)
}

func TestPaymentRefIsUnique(t *testing.T) {
	s := New()
	user := uuid.New()
	a := order.NewOrder(uuid.New(), user, nil, order.DeliveryAddress{}, time.Now())
	b := order.NewOrder(uuid.New(), user, nil, order.DeliveryAddress{}, time.Now())

	err := s.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		require.NoError(t, tx.Orders().Create(ctx, a))
		require.NoError(t, tx.Orders().Create(ctx, b))
		require.NoError(t, tx.Orders().SetPaymentRef(ctx, a.ID, "pi_1"))
		require.ErrorIs(t, tx.Orders().SetPaymentRef(ctx, b.ID, "pi_1"), store.ErrDuplicate)

		got, err := tx.Orders().GetByPaymentRef(ctx, "pi_1")
		require.NoError(t, err)
		require.Equal(t, a.ID, got.ID)

		_, err = tx.Orders().Get(ctx, a.ID, uuid.New())
		require.ErrorIs(t, err, store.ErrNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestListByUserNewestFirst(t *testing.T) {
	s := New()
	user := uuid.New()
	base := time.Now()
	older := order.NewOrder(uuid.New(), user, nil, order.DeliveryAddress{}, base)
	newer := order.NewOrder(uuid.New(), user, nil, order.DeliveryAddress{}, base.Add(time.Minute))
	other := order.NewOrder(uuid.New(), uuid.New(), nil, order.DeliveryAddress{}, base)

	err := s.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		for _, o := range []order.Order{older, newer, other} {
			if err := tx.Orders().Create(ctx, o); err != nil {
				return err
			}
		}
		got, err := tx.Orders().ListByUser(ctx, user)
		require.NoError(t, err)
		require.Len(t, got, 2)
		require.Equal(t, newer.ID, got[0].ID)
		require.Equal(t, older.ID, got[1].ID)
		return nil
	})
	require.NoError(t, err)
}

func TestOutboxLeaseLifecycle(t *testing.T) {
	s := New()
	now := time.Now()
	s.now = func() time.Time { return now }
	ctx := context.Background()

	err := s.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		for i := 0; i < 3; i++ {
			e, err := outbox.NewEvent(ctx, "order", "1", "order.created", map[string]int{"n": i})
			require.NoError(t, err)
			require.NoError(t, tx.Outbox().Append(ctx, e))
		}
		return nil
	})
	require.NoError(t, err)

	batch, err := s.LockBatch(ctx, "r1", 2, time.Second)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	require.Equal(t, []int64{1, 2}, []int64{batch[0].ID, batch[1].ID})

	// Locked events are invisible to another relay until the lease expires.
	batch, err = s.LockBatch(ctx, "r2", 10, time.Second)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	require.Equal(t, int64(3), batch[0].ID)

	require.NoError(t, s.MarkSent(ctx, []int64{1}))
	require.NoError(t, s.MarkFailed(ctx, 2, "broker down"))

	now = now.Add(2 * time.Second)
	batch, err = s.LockBatch(ctx, "r3", 10, time.Second)
	require.NoError(t, err)
	ids := []int64{}
	for _, e := range batch {
		ids = append(ids, e.ID)
	}
	require.ElementsMatch(t, []int64{2, 3}, ids)

	events := s.OutboxEvents()
	require.Equal(t, outbox.StatusSent, events[0].Status)
	require.Equal(t, 1, events[1].RetryCount)
	require.Equal(t, "broker down", *events[1].LastError)
}
