//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/storefront/internal/store/postgres"
)

var (
	env  *Env
	pool *pgxpool.Pool
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	var err error
	env, err = Setup(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "containers:", err)
		os.Exit(1)
	}
	pool, err = postgres.Connect(ctx, env.PGURL)
	if err == nil {
		err = postgres.Migrate(ctx, pool)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "postgres:", err)
		env.Teardown(ctx)
		os.Exit(1)
	}

	code := m.Run()
	pool.Close()
	env.Teardown(ctx)
	os.Exit(code)
}
