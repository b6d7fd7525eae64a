package migrations

import (
	"context"
	"fmt"

	"pairs-trading-lab/internal/storage/postgres"
)

// RunPostgres applies every embedded Postgres migration in one Exec per file.
// Migrations are idempotent (IF NOT EXISTS), so re-running is safe.
func RunPostgres(ctx context.Context, pool *postgres.Pool) error {
	files, err := load(PostgresFS, "postgres")
	if err != nil {
		return err
	}
	for _, m := range files {
		if _, err := pool.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.name, err)
		}
	}
	return nil
}
