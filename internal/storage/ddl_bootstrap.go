package storage

import (
	"context"
	"fmt"
	"sync"

	"olympics/internal/schema"
)

// DDLBootstrapper creates table t through repo if it does not exist. Backends
// register their implementation for a given storage kind at init time.
type DDLBootstrapper func(ctx context.Context, repo Repository, t schema.Table) error

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]DDLBootstrapper{}
)

// RegisterDDL registers (or replaces) a DDLBootstrapper for the given storage
// kind.
func RegisterDDL(kind string, fn DDLBootstrapper) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = fn
}

// Provision creates every table in tables, in order, with the bootstrapper
// registered for kind. It is an operator action; the load path never calls it.
func Provision(ctx context.Context, kind string, repo Repository, tables []schema.Table) error {
	ddlMu.RLock()
	fn, ok := ddlFns[kind]
	ddlMu.RUnlock()
	if !ok {
		return fmt.Errorf("no DDL bootstrapper registered for storage.kind=%q", kind)
	}
	for _, t := range tables {
		if err := fn(ctx, repo, t); err != nil {
			return fmt.Errorf("provision %s: %w", t.Name, err)
		}
	}
	return nil
}
