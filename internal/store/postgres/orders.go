package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	order "github.com/dmehra2102/storefront/internal/order/domain"
	"github.com/dmehra2102/storefront/internal/store"
)

const orderColumns = `id, user_id, total_amount::text, payment_status, street, city, state, zip_code, external_payment_ref, created_at, updated_at`

type orderRepo struct{ q pgx.Tx }

func scanOrder(row pgx.Row) (order.Order, error) {
	var o order.Order
	var total string
	err := row.Scan(&o.ID, &o.UserID, &total, &o.PaymentStatus,
		&o.DeliveryAddress.Street, &o.DeliveryAddress.City, &o.DeliveryAddress.State, &o.DeliveryAddress.ZipCode,
		&o.ExternalPaymentRef, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return order.Order{}, err
	}
	if o.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return order.Order{}, err
	}
	return o, nil
}

func (r *orderRepo) Create(ctx context.Context, o order.Order) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO orders (id, user_id, total_amount, payment_status, street, city, state, zip_code, external_payment_ref, created_at, updated_at)
		VALUES ($1, $2, $3::numeric, $4, $5, $6, $7, $8, $9, $10, $11)`,
		o.ID, o.UserID, o.TotalAmount.String(), string(o.PaymentStatus),
		o.DeliveryAddress.Street, o.DeliveryAddress.City, o.DeliveryAddress.State, o.DeliveryAddress.ZipCode,
		o.ExternalPaymentRef, o.CreatedAt, o.UpdatedAt)
	if isUniqueViolation(err) {
		return store.ErrDuplicate
	}
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for i, it := range o.Items {
		batch.Queue(`INSERT INTO order_items (order_id, position, product_id, quantity, price) VALUES ($1, $2, $3, $4, $5::numeric)`,
			o.ID, i, it.ProductID, it.Quantity, it.Price.String())
	}
	if batch.Len() == 0 {
		return nil
	}
	return r.q.SendBatch(ctx, batch).Close()
}

func (r *orderRepo) Get(ctx context.Context, id, userID uuid.UUID) (order.Order, error) {
	o, err := scanOrder(r.q.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userID))
	if err != nil {
		return order.Order{}, notFound(err)
	}
	return r.withItems(ctx, o)
}

func (r *orderRepo) GetByPaymentRef(ctx context.Context, ref string) (order.Order, error) {
	o, err := scanOrder(r.q.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE external_payment_ref = $1 FOR UPDATE`, ref))
	if err != nil {
		return order.Order{}, notFound(err)
	}
	return r.withItems(ctx, o)
}

func (r *orderRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]order.Order, error) {
	rows, err := r.q.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, err
	}
	orders := []order.Order{}
	index := map[uuid.UUID]int{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		index[o.ID] = len(orders)
		orders = append(orders, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]uuid.UUID, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	items, err := r.q.Query(ctx, `
		SELECT order_id, product_id, quantity, price::text
		FROM order_items WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, position`, uuidStrings(ids))
	if err != nil {
		return nil, err
	}
	defer items.Close()
	for items.Next() {
		var orderID uuid.UUID
		it, err := scanItem(items, &orderID)
		if err != nil {
			return nil, err
		}
		i := index[orderID]
		orders[i].Items = append(orders[i].Items, it)
	}
	return orders, items.Err()
}

func (r *orderRepo) SetPaymentRef(ctx context.Context, id uuid.UUID, ref string) error {
	ct, err := r.q.Exec(ctx, `UPDATE orders SET external_payment_ref = $2, updated_at = now() WHERE id = $1`, id, ref)
	if isUniqueViolation(err) {
		return store.ErrDuplicate
	}
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *orderRepo) SetPaymentStatus(ctx context.Context, id uuid.UUID, status order.PaymentStatus) error {
	ct, err := r.q.Exec(ctx, `UPDATE orders SET payment_status = $2, updated_at = now() WHERE id = $1`, id, string(status))
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *orderRepo) withItems(ctx context.Context, o order.Order) (order.Order, error) {
	rows, err := r.q.Query(ctx, `
		SELECT order_id, product_id, quantity, price::text
		FROM order_items WHERE order_id = $1
		ORDER BY position`, o.ID)
	if err != nil {
		return order.Order{}, err
	}
	defer rows.Close()
	o.Items = []order.OrderItem{}
	for rows.Next() {
		var orderID uuid.UUID
		it, err := scanItem(rows, &orderID)
		if err != nil {
			return order.Order{}, err
		}
		o.Items = append(o.Items, it)
	}
	return o, rows.Err()
}

func scanItem(row pgx.Row, orderID *uuid.UUID) (order.OrderItem, error) {
	var it order.OrderItem
	var price string
	if err := row.Scan(orderID, &it.ProductID, &it.Quantity, &price); err != nil {
		return order.OrderItem{}, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return order.OrderItem{}, err
	}
	it.Price = d
	return it, nil
}
