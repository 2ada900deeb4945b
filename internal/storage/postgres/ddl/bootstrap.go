package ddl

import (
	"context"

	"olympics/internal/ddl"
)

// Execer is the subset of storage.Repository needed to apply DDL.
type Execer interface {
	Exec(ctx context.Context, sql string) error
}

// EnsureTable creates the target Postgres table if it does not exist. It is
// idempotent and simply issues CREATE TABLE IF NOT EXISTS via Exec.
func EnsureTable(ctx context.Context, repo Execer, def ddl.TableDef) error {
	sql, err := BuildCreateTableSQL(def)
	if err != nil {
		return err
	}
	return repo.Exec(ctx, sql)
}
