// Package store defines the transactional persistence boundary shared by the
// order, payment and catalog services. Every mutating operation runs inside
// Store.WithTx so its reads, writes and outbox appends commit or roll back
// together.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	catalog "github.com/dmehra2102/storefront/internal/catalog/domain"
	order "github.com/dmehra2102/storefront/internal/order/domain"
	"github.com/dmehra2102/storefront/pkg/apperr"
	"github.com/dmehra2102/storefront/pkg/outbox"
)

var (
	ErrNotFound = errors.New("store: not found")
	// ErrConflict is returned by a conditional write whose guard failed,
	// such as a stock decrement that would go negative.
	ErrConflict = errors.New("store: conflict")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("store: duplicate")
)

type ProductRepository interface {
	Get(ctx context.Context, id uuid.UUID) (catalog.Product, error)
	// GetMany returns the products that exist; missing ids are simply absent.
	GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]catalog.Product, error)
	List(ctx context.Context, offset, limit int) ([]catalog.Product, error)
	Insert(ctx context.Context, p catalog.Product) error
	// DecrementStock removes qty units atomically, failing with ErrConflict
	// instead of going negative.
	DecrementStock(ctx context.Context, id uuid.UUID, qty int) error
}

type CartRepository interface {
	// GetByUser locks and returns the user's cart, or ErrNotFound.
	GetByUser(ctx context.Context, userID uuid.UUID) (order.Cart, error)
	Save(ctx context.Context, cart order.Cart) error
}

type OrderRepository interface {
	Create(ctx context.Context, o order.Order) error
	// Get locks and returns the order only when it belongs to userID.
	Get(ctx context.Context, id, userID uuid.UUID) (order.Order, error)
	// GetByPaymentRef locks and returns the order bound to ref.
	GetByPaymentRef(ctx context.Context, ref string) (order.Order, error)
	// ListByUser returns the user's orders newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]order.Order, error)
	// SetPaymentRef fails with ErrDuplicate when another order holds ref.
	SetPaymentRef(ctx context.Context, id uuid.UUID, ref string) error
	SetPaymentStatus(ctx context.Context, id uuid.UUID, status order.PaymentStatus) error
}

type MediaRepository interface {
	Insert(ctx context.Context, m catalog.Media) error
}

type OutboxRepository interface {
	Append(ctx context.Context, e outbox.Event) error
}

type Tx interface {
	Products() ProductRepository
	Carts() CartRepository
	Orders() OrderRepository
	Media() MediaRepository
	Outbox() OutboxRepository
}

type Store interface {
	// WithTx runs fn in a transaction. Any error rolls the transaction back
	// and is returned through Classify: *apperr.Error values pass unchanged,
	// everything else comes back as a persistence error wrapping the cause.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Classify keeps errors that carry a business meaning and marks the rest as
// persistence failures.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.Wrap(apperr.KindPersistence, "persistence", err)
}
