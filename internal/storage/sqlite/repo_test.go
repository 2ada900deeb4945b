package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"olympics/internal/storage"
)

func newRepo(tb testing.TB) *Repository {
	tb.Helper()
	r, closeFn, err := NewRepository(context.Background(), Config{DSN: ":memory:"})
	if err != nil {
		tb.Fatalf("open sqlite :memory:: %v", err)
	}
	tb.Cleanup(closeFn)
	return r
}

func mustExec(tb testing.TB, r *Repository, sqlStmt string) {
	tb.Helper()
	if err := r.Exec(context.Background(), sqlStmt); err != nil {
		tb.Fatalf("exec %q: %v", sqlStmt, err)
	}
}

func rowsOf(t *testing.T, r *Repository, q string) [][]any {
	t.Helper()
	res, err := r.Query(context.Background(), q)
	require.NoError(t, err)
	return res.Rows
}

func stagingTables(t *testing.T, r *Repository) int64 {
	t.Helper()
	rows := rowsOf(t, r, `SELECT count(*) FROM sqlite_temp_master WHERE type = 'table'`)
	return rows[0][0].(int64)
}

func setupKV(t *testing.T) *Repository {
	t.Helper()
	r := newRepo(t)
	mustExec(t, r, `CREATE TABLE kv (pk INTEGER NOT NULL PRIMARY KEY, a TEXT, b TEXT)`)
	return r
}

var kvBatch = storage.Batch{Table: "kv", KeyColumns: []string{"pk"}, Columns: []string{"pk", "a"}}

func withRows(b storage.Batch, rows ...[]any) storage.Batch {
	b.Rows = rows
	return b
}

func TestUpsert_UpdateAndInsert(t *testing.T) {
	t.Parallel()

	r := setupKV(t)
	ctx := context.Background()

	_, err := r.Upsert(ctx, withRows(kvBatch, []any{int64(1), "x"}))
	require.NoError(t, err)

	n, err := r.Upsert(ctx, withRows(kvBatch, []any{int64(1), "y"}, []any{int64(2), "z"}))
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	require.Equal(t, [][]any{{int64(1), "y"}, {int64(2), "z"}}, rowsOf(t, r, `SELECT pk, a FROM kv ORDER BY pk`))
	require.Zero(t, stagingTables(t, r))
}

func TestUpsert_LeavesUnrelatedRowsAndColumns(t *testing.T) {
	t.Parallel()

	r := setupKV(t)
	mustExec(t, r, `INSERT INTO kv (pk, a, b) VALUES (1, 'x', 'keep'), (3, 'w', 'other')`)

	_, err := r.Upsert(context.Background(), withRows(kvBatch, []any{int64(1), "y"}))
	require.NoError(t, err)

	require.Equal(t, [][]any{{int64(1), "y", "keep"}, {int64(3), "w", "other"}},
		rowsOf(t, r, `SELECT pk, a, b FROM kv ORDER BY pk`))
}

func TestUpsert_Idempotent(t *testing.T) {
	t.Parallel()

	r := setupKV(t)
	ctx := context.Background()
	b := withRows(kvBatch, []any{int64(1), "x"}, []any{int64(2), nil})

	_, err := r.Upsert(ctx, b)
	require.NoError(t, err)
	once := rowsOf(t, r, `SELECT pk, a, b FROM kv ORDER BY pk`)

	_, err = r.Upsert(ctx, b)
	require.NoError(t, err)
	require.Equal(t, once, rowsOf(t, r, `SELECT pk, a, b FROM kv ORDER BY pk`))
}

func TestUpsert_AllKeyColumnsDoNothing(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	mustExec(t, r, `CREATE TABLE pairs (a TEXT NOT NULL, b TEXT NOT NULL, PRIMARY KEY (a, b))`)
	b := storage.Batch{Table: "pairs", KeyColumns: []string{"a", "b"}, Columns: []string{"a", "b"},
		Rows: [][]any{{"x", "1"}, {"x", "2"}}}

	for i := 0; i < 2; i++ {
		_, err := r.Upsert(context.Background(), b)
		require.NoError(t, err)
	}
	require.Len(t, rowsOf(t, r, `SELECT a, b FROM pairs`), 2)
}

func TestUpsert_ForeignKeyViolationAppliesNothing(t *testing.T) {
	t.Parallel()

	r := setupKV(t)
	mustExec(t, r, `CREATE TABLE child (id TEXT NOT NULL PRIMARY KEY, pk INTEGER, FOREIGN KEY (pk) REFERENCES kv (pk))`)
	mustExec(t, r, `INSERT INTO kv (pk, a) VALUES (1, 'x')`)

	b := storage.Batch{Table: "child", KeyColumns: []string{"id"}, Columns: []string{"id", "pk"},
		Rows: [][]any{{"ok", int64(1)}, {"bad", int64(99)}}}
	_, err := r.Upsert(context.Background(), b)

	var cv *storage.ConstraintViolationError
	require.ErrorAs(t, err, &cv)
	require.Equal(t, "child", cv.Table)
	require.Equal(t, [][]any{{int64(0)}}, rowsOf(t, r, `SELECT count(*) FROM child`))
	require.Zero(t, stagingTables(t, r))
}

func TestUpsert_NotNullViolation(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	mustExec(t, r, `CREATE TABLE nn (pk TEXT NOT NULL PRIMARY KEY, a TEXT NOT NULL)`)
	_, err := r.Upsert(context.Background(), storage.Batch{
		Table: "nn", KeyColumns: []string{"pk"}, Columns: []string{"pk", "a"}, Rows: [][]any{{"k", nil}},
	})
	var cv *storage.ConstraintViolationError
	require.ErrorAs(t, err, &cv)
}

func TestUpsert_DuplicateKeyInBatch(t *testing.T) {
	t.Parallel()

	r := setupKV(t)
	_, err := r.Upsert(context.Background(), withRows(kvBatch, []any{int64(1), "x"}, []any{int64(1), "y"}))
	var cv *storage.ConstraintViolationError
	require.ErrorAs(t, err, &cv)
	require.Empty(t, rowsOf(t, r, `SELECT * FROM kv`))
}

func TestUpsert_TableNotFound(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	_, err := r.Upsert(context.Background(), withRows(kvBatch, []any{int64(1), "x"}))
	var nf *storage.TableNotFoundError
	require.ErrorAs(t, err, &nf)
	require.Equal(t, "kv", nf.Table)

	ok, err := r.TableExists(context.Background(), "kv")
	require.NoError(t, err)
	require.False(t, ok, "upsert must never create the table")
}

func TestUpsert_EmptyBatch(t *testing.T) {
	t.Parallel()

	r := setupKV(t)
	n, err := r.Upsert(context.Background(), kvBatch)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestUpsert_CanceledContextCleansUp(t *testing.T) {
	t.Parallel()

	r := setupKV(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Upsert(ctx, withRows(kvBatch, []any{int64(1), "x"}))
	require.Error(t, err)
	require.True(t, errors.Is(err, context.Canceled) || strings.Contains(err.Error(), "interrupt"), "err = %v", err)
	require.Zero(t, stagingTables(t, r))
	require.Empty(t, rowsOf(t, r, `SELECT * FROM kv`))
}

func TestWithForeignKeys(t *testing.T) {
	t.Parallel()

	tests := []struct{ in, want string }{
		{":memory:", ":memory:?_pragma=foreign_keys(1)"},
		{"file:x.db?mode=rwc", "file:x.db?mode=rwc&_pragma=foreign_keys(1)"},
		{"file:x.db?_pragma=foreign_keys(0)", "file:x.db?_pragma=foreign_keys(0)"},
	}
	for _, tt := range tests {
		if got := withForeignKeys(tt.in); got != tt.want {
			t.Errorf("withForeignKeys(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewRepository_EmptyDSN(t *testing.T) {
	t.Parallel()

	_, _, err := NewRepository(context.Background(), Config{})
	require.ErrorContains(t, err, "DSN must not be empty")
}

func BenchmarkSqlite_Upsert(b *testing.B) {
	r := newRepo(b)
	mustExec(b, r, `CREATE TABLE kv (pk INTEGER NOT NULL PRIMARY KEY, a TEXT, b TEXT)`)
	rows := make([][]any, 5_000)
	for i := range rows {
		rows[i] = []any{int64(i), fmt.Sprintf("v%d", i)}
	}
	batch := withRows(kvBatch, rows...)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := r.Upsert(context.Background(), batch); err != nil {
			b.Fatal(err)
		}
	}
}
