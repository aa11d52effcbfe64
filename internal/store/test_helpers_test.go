package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"fair-casino/internal/config"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// openStore gives each test its own schema so tests never share rows.
func openStore(t *testing.T) (*Store, context.Context) {
	t.Helper()
	cfg, err := config.LoadTest()
	if err != nil {
		t.Skipf("skip test db: %v", err)
	}
	ctx := context.Background()
	schema := fmt.Sprintf("test_%d", time.Now().UnixNano())
	ident := pgx.Identifier{schema}.Sanitize()

	base, err := pgxpool.New(ctx, cfg.TestPostgresDSN)
	if err != nil {
		t.Fatalf("open base db: %v", err)
	}
	if _, err := base.Exec(ctx, "CREATE SCHEMA "+ident); err != nil {
		base.Close()
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() {
		_, _ = base.Exec(context.Background(), "DROP SCHEMA "+ident+" CASCADE")
		base.Close()
	})

	st, err := New(WithSearchPath(cfg.TestPostgresDSN, schema))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(st.Close)
	if err := st.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return st, ctx
}

func mustCreatePlayer(t *testing.T, st *Store, ctx context.Context, name string, initial int64) string {
	t.Helper()
	id, err := st.EnsurePlayer(ctx, name, "key-"+name, initial)
	if err != nil {
		t.Fatalf("ensure player: %v", err)
	}
	return id
}
