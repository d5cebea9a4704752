// Package postgres implements store.Store on PostgreSQL through pgx.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/storefront/internal/store"
)

//go:embed schema.sql
var schema string

const uniqueViolation = "23505"

type Store struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func New(log *slog.Logger, pool *pgxpool.Pool) *Store {
	return &Store{log: log.With("component", "postgres"), pool: pool}
}

// Connect opens a pool and verifies it with a ping.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// Migrate creates missing tables and indexes. It is safe to run repeatedly.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	pgTx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return store.Classify(err)
	}
	defer func() {
		_ = pgTx.Rollback(ctx)
	}()

	if err := fn(ctx, &tx{tx: pgTx}); err != nil {
		return store.Classify(err)
	}
	if err := pgTx.Commit(ctx); err != nil {
		return store.Classify(err)
	}
	return nil
}

type tx struct{ tx pgx.Tx }

func (t *tx) Products() store.ProductRepository { return &productRepo{q: t.tx} }
func (t *tx) Carts() store.CartRepository       { return &cartRepo{q: t.tx} }
func (t *tx) Orders() store.OrderRepository     { return &orderRepo{q: t.tx} }
func (t *tx) Media() store.MediaRepository      { return &mediaRepo{q: t.tx} }
func (t *tx) Outbox() store.OutboxRepository    { return &outboxRepo{q: t.tx} }

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}
