package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	order "github.com/dmehra2102/storefront/internal/order/domain"
	"github.com/dmehra2102/storefront/internal/store"
)

type cartRepo struct{ q pgx.Tx }

// GetByUser locks the cart row until the transaction ends, serializing
// concurrent adds and checkouts for one user.
func (r *cartRepo) GetByUser(ctx context.Context, userID uuid.UUID) (order.Cart, error) {
	var c order.Cart
	var total string
	err := r.q.QueryRow(ctx, `
		SELECT id, user_id, total_price::text, created_at, updated_at
		FROM carts WHERE user_id = $1
		FOR UPDATE`, userID).
		Scan(&c.ID, &c.UserID, &total, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return order.Cart{}, notFound(err)
	}
	if c.TotalPrice, err = decimal.NewFromString(total); err != nil {
		return order.Cart{}, err
	}

	rows, err := r.q.Query(ctx, `SELECT product_id, quantity FROM cart_items WHERE cart_id = $1 ORDER BY position`, c.ID)
	if err != nil {
		return order.Cart{}, err
	}
	defer rows.Close()
	c.Lines = []order.CartLine{}
	for rows.Next() {
		var l order.CartLine
		if err := rows.Scan(&l.ProductID, &l.Quantity); err != nil {
			return order.Cart{}, err
		}
		c.Lines = append(c.Lines, l)
	}
	return c, rows.Err()
}

// Save replaces the stored cart with c.
func (r *cartRepo) Save(ctx context.Context, c order.Cart) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO carts (id, user_id, total_price, created_at, updated_at)
		VALUES ($1, $2, $3::numeric, $4, $5)
		ON CONFLICT (id) DO UPDATE SET total_price = EXCLUDED.total_price, updated_at = EXCLUDED.updated_at`,
		c.ID, c.UserID, c.TotalPrice.String(), c.CreatedAt, c.UpdatedAt)
	if isUniqueViolation(err) {
		return store.ErrDuplicate
	}
	if err != nil {
		return err
	}

	if _, err := r.q.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, c.ID); err != nil {
		return err
	}
	if len(c.Lines) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i, l := range c.Lines {
		batch.Queue(`INSERT INTO cart_items (cart_id, position, product_id, quantity) VALUES ($1, $2, $3, $4)`,
			c.ID, i, l.ProductID, l.Quantity)
	}
	return r.q.SendBatch(ctx, batch).Close()
}
