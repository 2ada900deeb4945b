// Package sqlite implements a SQLite-backed storage.Repository using
// database/sql and the pure-Go modernc driver. Upsert stages the batch in a
// temporary table with a prepared INSERT and merges it with
// INSERT ... ON CONFLICT, all inside one transaction.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"olympics/internal/logger"
	"olympics/internal/storage"
)

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// DSN is a SQLite connection string or file path, e.g.:
	//   "file:olympics.db"
	//   ":memory:"
	// Foreign key enforcement is added when the DSN does not mention it.
	DSN string
	Log *logger.Logger
}

// Repository is a SQLite-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	log *logger.Logger
}

// NewRepository opens a SQLite connection using the provided DSN and returns
// a Repository plus a Close function for cleanup.
//
// The pool is limited to one connection: SQLite has a single writer, temp
// tables are per connection, and every connection to ":memory:" would
// otherwise see its own empty database.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("sqlite: DSN must not be empty")
	}

	db, err := sql.Open("sqlite", withForeignKeys(cfg.DSN))
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Apply a basic ping with context to fail fast on invalid DSNs.
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}
	closeFn := func() { db.Close() }
	return &Repository{db: db, log: log}, closeFn, nil
}

func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}

// Upsert implements storage.Repository.
func (r *Repository) Upsert(ctx context.Context, b storage.Batch) (int64, error) {
	if err := b.Validate(); err != nil {
		return 0, err
	}
	if ok, err := r.TableExists(ctx, b.Table); err != nil {
		return 0, err
	} else if !ok {
		return 0, &storage.TableNotFoundError{Table: b.Table}
	}
	if len(b.Rows) == 0 {
		return 0, nil
	}

	tmp := quoteIdent(storage.StagingName(b.Table))
	target := quoteIdent(b.Table)
	cols := make([]string, len(b.Columns))
	for i, c := range b.Columns {
		cols[i] = quoteIdent(c)
	}
	colList := strings.Join(cols, ", ")

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	// Cleanup must run even when ctx is already canceled.
	cleanup := context.WithoutCancel(ctx)
	defer func() {
		_ = tx.Rollback()
		_, _ = r.db.ExecContext(cleanup, "DROP TABLE IF EXISTS temp."+tmp)
	}()

	create := fmt.Sprintf("CREATE TEMP TABLE %s AS SELECT %s FROM %s WHERE 0", tmp, colList, target)
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return 0, mapError(b.Table, fmt.Errorf("sqlite: create temp: %w", err))
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO temp.%s (%s) VALUES (%s)", tmp, colList, placeholders))
	if err != nil {
		return 0, fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	for _, row := range b.Rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			stmt.Close()
			return 0, mapError(b.Table, fmt.Errorf("sqlite: stage: %w", err))
		}
	}
	stmt.Close()

	res, err := tx.ExecContext(ctx, b.MergeSQL(target, "temp."+tmp, quoteIdent, true))
	if err != nil {
		return 0, mapError(b.Table, fmt.Errorf("sqlite: merge: %w", err))
	}
	applied, _ := res.RowsAffected()

	if _, err := tx.ExecContext(ctx, "DROP TABLE temp."+tmp); err != nil {
		return 0, fmt.Errorf("sqlite: drop staging: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, mapError(b.Table, fmt.Errorf("sqlite: commit: %w", err))
	}

	r.log.Debug("upserted batch", "table", b.Table, "staged", len(b.Rows), "applied", applied)
	return applied, nil
}

// TableExists implements storage.Repository.
func (r *Repository) TableExists(ctx context.Context, table string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("sqlite: lookup table %s: %w", table, err)
	}
	return n > 0, nil
}

// Exec executes an arbitrary SQL statement (typically DDL) using the underlying
// database/sql connection.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, sql); err != nil {
		return fmt.Errorf("sqlite: exec: %w", err)
	}
	return nil
}

// Query implements storage.Repository. TEXT values are returned as string.
func (r *Repository) Query(ctx context.Context, query string, args ...any) (*storage.Result, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	res := &storage.Result{Columns: cols}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		res.Rows = append(res.Rows, vals)
	}
	return res, rows.Err()
}

// mapError converts SQLite constraint failures into
// *storage.ConstraintViolationError.
func mapError(table string, err error) error {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return err
	}
	if se.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return err
	}
	return &storage.ConstraintViolationError{
		Table:      table,
		Constraint: constraintName(se.Code()),
		Detail:     se.Error(),
		Err:        err,
	}
}

func constraintName(code int) string {
	switch code {
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return "foreign key"
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return "primary key"
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return "unique"
	case sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		return "not null"
	case sqlite3.SQLITE_CONSTRAINT_CHECK:
		return "check"
	}
	return ""
}

func quoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
