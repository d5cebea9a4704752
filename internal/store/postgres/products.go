package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	catalog "github.com/dmehra2102/storefront/internal/catalog/domain"
	"github.com/dmehra2102/storefront/internal/store"
)

const productColumns = `id, name, description, category, price::text, stock, images, created_at`

type productRepo struct{ q pgx.Tx }

func scanProduct(row pgx.Row) (catalog.Product, error) {
	var p catalog.Product
	var price string
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &price, &p.Stock, &p.Images, &p.CreatedAt); err != nil {
		return catalog.Product{}, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return catalog.Product{}, err
	}
	p.Price = d
	return p, nil
}

func (r *productRepo) Get(ctx context.Context, id uuid.UUID) (catalog.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		return catalog.Product{}, notFound(err)
	}
	return p, nil
}

func (r *productRepo) GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]catalog.Product, error) {
	out := make(map[uuid.UUID]catalog.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.q.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1::uuid[])`, uuidStrings(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (r *productRepo) List(ctx context.Context, offset, limit int) ([]catalog.Product, error) {
	rows, err := r.q.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at, id OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	products := []catalog.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *productRepo) Insert(ctx context.Context, p catalog.Product) error {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO products (id, name, description, category, price, stock, images, created_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8)`,
		p.ID, p.Name, p.Description, p.Category, p.Price.String(), p.Stock, images, p.CreatedAt)
	if isUniqueViolation(err) {
		return store.ErrDuplicate
	}
	return err
}

func (r *productRepo) DecrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	ct, err := r.q.Exec(ctx, `UPDATE products SET stock = stock - $2 WHERE id = $1 AND stock >= $2`, id, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 1 {
		return nil
	}
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return store.ErrNotFound
	}
	return store.ErrConflict
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
