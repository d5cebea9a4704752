// Package memory is a single-process store.Store. Transactions are
// serialized and applied copy-on-write, so a failed fn leaves no trace.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	catalog "github.com/dmehra2102/storefront/internal/catalog/domain"
	inventory "github.com/dmehra2102/storefront/internal/inventory/domain"
	order "github.com/dmehra2102/storefront/internal/order/domain"
	"github.com/dmehra2102/storefront/internal/store"
	"github.com/dmehra2102/storefront/pkg/outbox"
)

type state struct {
	products map[uuid.UUID]catalog.Product
	carts    map[uuid.UUID]order.Cart
	orders   map[uuid.UUID]order.Order
	media    map[uuid.UUID]catalog.Media
	outbox   []outbox.Event
	nextID   int64
	leases   map[int64]time.Time
}

func newState() *state {
	return &state{
		products: map[uuid.UUID]catalog.Product{},
		carts:    map[uuid.UUID]order.Cart{},
		orders:   map[uuid.UUID]order.Order{},
		media:    map[uuid.UUID]catalog.Media{},
		leases:   map[int64]time.Time{},
	}
}

func (s *state) clone() *state {
	c := &state{
		products: make(map[uuid.UUID]catalog.Product, len(s.products)),
		carts:    make(map[uuid.UUID]order.Cart, len(s.carts)),
		orders:   make(map[uuid.UUID]order.Order, len(s.orders)),
		media:    make(map[uuid.UUID]catalog.Media, len(s.media)),
		outbox:   make([]outbox.Event, len(s.outbox)),
		nextID:   s.nextID,
		leases:   make(map[int64]time.Time, len(s.leases)),
	}
	for k, v := range s.products {
		c.products[k] = copyProduct(v)
	}
	for k, v := range s.carts {
		c.carts[k] = copyCart(v)
	}
	for k, v := range s.orders {
		c.orders[k] = copyOrder(v)
	}
	for k, v := range s.media {
		c.media[k] = v
	}
	copy(c.outbox, s.outbox)
	for k, v := range s.leases {
		c.leases[k] = v
	}
	return c
}

type Store struct {
	mu    sync.Mutex
	state *state
	now   func() time.Time
}

func New() *Store {
	return &Store{state: newState(), now: time.Now}
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return store.Classify(err)
	}
	work := s.state.clone()
	if err := fn(ctx, &tx{st: work}); err != nil {
		return store.Classify(err)
	}
	s.state = work
	return nil
}

// SeedProduct inserts or replaces a product outside of any transaction.
func (s *Store) SeedProduct(p catalog.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.products[p.ID] = copyProduct(p)
}

func (s *Store) DeleteProduct(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.state.products, id)
}

func (s *Store) Product(id uuid.UUID) (catalog.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.state.products[id]
	return copyProduct(p), ok
}

func (s *Store) Order(id uuid.UUID) (order.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.state.orders[id]
	return copyOrder(o), ok
}

func (s *Store) Cart(userID uuid.UUID) (order.Cart, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.state.carts[userID]
	return copyCart(c), ok
}

func (s *Store) OutboxEvents() []outbox.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.state.outbox)
}

type tx struct{ st *state }

func (t *tx) Products() store.ProductRepository { return productRepo{t.st} }
func (t *tx) Carts() store.CartRepository       { return cartRepo{t.st} }
func (t *tx) Orders() store.OrderRepository     { return orderRepo{t.st} }
func (t *tx) Media() store.MediaRepository      { return mediaRepo{t.st} }
func (t *tx) Outbox() store.OutboxRepository    { return outboxRepo{t.st} }

type productRepo struct{ st *state }

func (r productRepo) Get(_ context.Context, id uuid.UUID) (catalog.Product, error) {
	p, ok := r.st.products[id]
	if !ok {
		return catalog.Product{}, store.ErrNotFound
	}
	return copyProduct(p), nil
}

func (r productRepo) GetMany(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]catalog.Product, error) {
	out := make(map[uuid.UUID]catalog.Product, len(ids))
	for _, id := range ids {
		if p, ok := r.st.products[id]; ok {
			out[id] = copyProduct(p)
		}
	}
	return out, nil
}

func (r productRepo) List(_ context.Context, offset, limit int) ([]catalog.Product, error) {
	all := make([]catalog.Product, 0, len(r.st.products))
	for _, p := range r.st.products {
		all = append(all, copyProduct(p))
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID.String() < all[j].ID.String()
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	if offset >= len(all) {
		return []catalog.Product{}, nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], nil
}

func (r productRepo) Insert(_ context.Context, p catalog.Product) error {
	if _, ok := r.st.products[p.ID]; ok {
		return store.ErrDuplicate
	}
	r.st.products[p.ID] = copyProduct(p)
	return nil
}

func (r productRepo) DecrementStock(_ context.Context, id uuid.UUID, qty int) error {
	p, ok := r.st.products[id]
	if !ok {
		return store.ErrNotFound
	}
	left, err := inventory.Decrement(p.Name, p.Stock, qty)
	if err != nil {
		return store.ErrConflict
	}
	p.Stock = left
	r.st.products[id] = p
	return nil
}

type cartRepo struct{ st *state }

func (r cartRepo) GetByUser(_ context.Context, userID uuid.UUID) (order.Cart, error) {
	c, ok := r.st.carts[userID]
	if !ok {
		return order.Cart{}, store.ErrNotFound
	}
	return copyCart(c), nil
}

func (r cartRepo) Save(_ context.Context, c order.Cart) error {
	r.st.carts[c.UserID] = copyCart(c)
	return nil
}

type orderRepo struct{ st *state }

func (r orderRepo) Create(_ context.Context, o order.Order) error {
	if _, ok := r.st.orders[o.ID]; ok {
		return store.ErrDuplicate
	}
	if o.ExternalPaymentRef != nil && r.refTaken(*o.ExternalPaymentRef, o.ID) {
		return store.ErrDuplicate
	}
	r.st.orders[o.ID] = copyOrder(o)
	return nil
}

func (r orderRepo) Get(_ context.Context, id, userID uuid.UUID) (order.Order, error) {
	o, ok := r.st.orders[id]
	if !ok || o.UserID != userID {
		return order.Order{}, store.ErrNotFound
	}
	return copyOrder(o), nil
}

func (r orderRepo) GetByPaymentRef(_ context.Context, ref string) (order.Order, error) {
	for _, o := range r.st.orders {
		if o.ExternalPaymentRef != nil && *o.ExternalPaymentRef == ref {
			return copyOrder(o), nil
		}
	}
	return order.Order{}, store.ErrNotFound
}

func (r orderRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]order.Order, error) {
	out := []order.Order{}
	for _, o := range r.st.orders {
		if o.UserID == userID {
			out = append(out, copyOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r orderRepo) SetPaymentRef(_ context.Context, id uuid.UUID, ref string) error {
	o, ok := r.st.orders[id]
	if !ok {
		return store.ErrNotFound
	}
	if r.refTaken(ref, id) {
		return store.ErrDuplicate
	}
	o.ExternalPaymentRef = &ref
	o.UpdatedAt = time.Now().UTC()
	r.st.orders[id] = o
	return nil
}

func (r orderRepo) SetPaymentStatus(_ context.Context, id uuid.UUID, status order.PaymentStatus) error {
	o, ok := r.st.orders[id]
	if !ok {
		return store.ErrNotFound
	}
	o.PaymentStatus = status
	o.UpdatedAt = time.Now().UTC()
	r.st.orders[id] = o
	return nil
}

func (r orderRepo) refTaken(ref string, except uuid.UUID) bool {
	for id, o := range r.st.orders {
		if id != except && o.ExternalPaymentRef != nil && *o.ExternalPaymentRef == ref {
			return true
		}
	}
	return false
}

type mediaRepo struct{ st *state }

func (r mediaRepo) Insert(_ context.Context, m catalog.Media) error {
	if _, ok := r.st.media[m.ID]; ok {
		return store.ErrDuplicate
	}
	r.st.media[m.ID] = m
	return nil
}

type outboxRepo struct{ st *state }

func (r outboxRepo) Append(_ context.Context, e outbox.Event) error {
	r.st.nextID++
	e.ID = r.st.nextID
	e.Status = outbox.StatusPending
	r.st.outbox = append(r.st.outbox, e)
	return nil
}

func copyProduct(p catalog.Product) catalog.Product {
	p.Images = slices.Clone(p.Images)
	return p
}

func copyCart(c order.Cart) order.Cart {
	c.Lines = slices.Clone(c.Lines)
	return c
}

func copyOrder(o order.Order) order.Order {
	o.Items = slices.Clone(o.Items)
	if o.ExternalPaymentRef != nil {
		ref := *o.ExternalPaymentRef
		o.ExternalPaymentRef = &ref
	}
	return o
}
