package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	catalog "github.com/dmehra2102/storefront/internal/catalog/domain"
	"github.com/dmehra2102/storefront/internal/store"
)

type mediaRepo struct{ q pgx.Tx }

func (r *mediaRepo) Insert(ctx context.Context, m catalog.Media) error {
	_, err := r.q.Exec(ctx, `INSERT INTO media (id, url, public_id, uploaded_by, created_at) VALUES ($1, $2, $3, $4, $5)`,
		m.ID, m.URL, m.PublicID, m.UploadedBy, m.CreatedAt)
	if isUniqueViolation(err) {
		return store.ErrDuplicate
	}
	return err
}
