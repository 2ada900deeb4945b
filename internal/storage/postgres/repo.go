// Package postgres implements a Postgres repository using pgx v5. Upsert
// COPYs the batch into a temporary staging table and merges it into the
// target with INSERT ... ON CONFLICT inside one transaction.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"olympics/internal/logger"
	"olympics/internal/storage"
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN string // connection string for pgxpool
	Log *logger.Logger
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}
	return &Repository{pool: pool, log: log}, pool.Close, nil
}

// Upsert implements storage.Repository.
func (r *Repository) Upsert(ctx context.Context, b storage.Batch) (int64, error) {
	if err := b.Validate(); err != nil {
		return 0, err
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	if ok, err := tableExists(ctx, conn.Conn(), b.Table); err != nil {
		return 0, err
	} else if !ok {
		return 0, &storage.TableNotFoundError{Table: b.Table}
	}
	if len(b.Rows) == 0 {
		return 0, nil
	}

	tmp := storage.StagingName(b.Table)
	fqTable := pgFQN(b.Table)

	tx, err := conn.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	// Cleanup must run even when ctx is already canceled.
	cleanup := context.WithoutCancel(ctx)
	defer func() {
		_ = tx.Rollback(cleanup)
		_, _ = conn.Exec(cleanup, "DROP TABLE IF EXISTS "+pgIdent(tmp))
	}()

	create := fmt.Sprintf(
		"CREATE TEMP TABLE %s ON COMMIT DROP AS SELECT %s FROM %s WHERE false",
		pgIdent(tmp), strings.Join(mapIdent(b.Columns), ", "), fqTable,
	)
	if _, err := tx.Exec(ctx, create); err != nil {
		return 0, mapError(b.Table, fmt.Errorf("create temp: %w", err))
	}

	copied, err := tx.CopyFrom(ctx, pgx.Identifier{tmp}, b.Columns, pgx.CopyFromRows(b.Rows))
	if err != nil {
		return 0, mapError(b.Table, fmt.Errorf("copy into temp: %w", err))
	}

	tag, err := tx.Exec(ctx, b.MergeSQL(fqTable, pgIdent(tmp), pgIdent, false))
	if err != nil {
		return 0, mapError(b.Table, fmt.Errorf("merge: %w", err))
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, mapError(b.Table, fmt.Errorf("commit: %w", err))
	}

	r.log.Debug("upserted batch", "table", b.Table, "staged", copied, "applied", tag.RowsAffected())
	return tag.RowsAffected(), nil
}

// TableExists implements storage.Repository.
func (r *Repository) TableExists(ctx context.Context, table string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Release()
	return tableExists(ctx, conn.Conn(), table)
}

func tableExists(ctx context.Context, conn *pgx.Conn, table string) (bool, error) {
	var ok bool
	if err := conn.QueryRow(ctx, "SELECT to_regclass($1) IS NOT NULL", pgFQN(table)).Scan(&ok); err != nil {
		return false, fmt.Errorf("lookup table %s: %w", table, err)
	}
	return ok, nil
}

// Exec implements storage.Repository.Exec for Postgres.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	_, err := r.pool.Exec(ctx, sql)
	return err
}

// Query implements storage.Repository.
func (r *Repository) Query(ctx context.Context, sql string, args ...any) (*storage.Result, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := &storage.Result{}
	for _, fd := range rows.FieldDescriptions() {
		res.Columns = append(res.Columns, fd.Name)
	}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, err
		}
		res.Rows = append(res.Rows, vals)
	}
	return res, rows.Err()
}

// SQLSTATE codes mapped to storage errors.
const (
	codeUndefinedTable = "42P01"
	classIntegrity     = "23"
)

// mapError converts integrity violations and undefined-table errors into
// storage errors; everything else is returned unchanged.
func mapError(table string, err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch {
	case strings.HasPrefix(pgErr.Code, classIntegrity):
		detail := pgErr.Message
		if pgErr.Detail != "" {
			detail += ": " + pgErr.Detail
		}
		return &storage.ConstraintViolationError{
			Table:      table,
			Constraint: pgErr.ConstraintName,
			Detail:     detail,
			Err:        err,
		}
	case pgErr.Code == codeUndefinedTable:
		return &storage.TableNotFoundError{Table: table}
	}
	return err
}

// pgIdent safely quotes a single identifier segment for Postgres.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// pgFQN quotes a possibly schema-qualified name like "public.regions" to
// "public"."regions". If no dot is present, returns a single quoted ident.
func pgFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pgIdent(p)
	}
	return strings.Join(parts, ".")
}

// mapIdent maps a list of column names to their quoted forms.
func mapIdent(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = pgIdent(c)
	}
	return out
}
