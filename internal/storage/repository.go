// Package storage contains the storage-agnostic upsert contract, the backend
// registry and the errors shared by every backend.
//
// Backends register a Factory for their kind in init(); importing
// olympics/internal/storage/all enables every built-in backend.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"olympics/internal/logger"
)

// Batch is one upsert call: rows aligned to Columns, merged into Table on
// KeyColumns.
type Batch struct {
	Table      string
	KeyColumns []string
	Columns    []string
	Rows       [][]any
}

// Result is a small, fully materialized query result.
type Result struct {
	Columns []string
	Rows    [][]any
}

// Repository is implemented by every backend.
type Repository interface {
	// Upsert inserts rows whose key is new and overwrites every non-key
	// column of rows whose key exists, in a single transaction. It returns
	// the number of rows inserted or updated. The target table must exist.
	Upsert(ctx context.Context, b Batch) (int64, error)

	// TableExists reports whether table is present.
	TableExists(ctx context.Context, table string) (bool, error)

	// Exec runs a statement that returns no rows, typically DDL.
	Exec(ctx context.Context, sql string) error

	// Query runs a read-only statement and materializes the result.
	Query(ctx context.Context, sql string, args ...any) (*Result, error)

	Close()
}

// Config selects and configures a backend.
type Config struct {
	Kind string // "postgres" or "sqlite"
	DSN  string
	Log  *logger.Logger // nil logs nothing
}

// Factory opens a Repository for a backend kind.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the factory for kind.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens a repository of cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered kinds in sorted order.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
