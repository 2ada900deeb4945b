// Package all wires the built-in storage backends into the storage factory.
//
// Importing it for side effects runs the init functions of each backend,
// which register their factories and DDL bootstrappers:
//
//   - "postgres" (olympics/internal/storage/postgres)
//   - "sqlite"   (olympics/internal/storage/sqlite)
//
// Typical usage:
//
//	import _ "olympics/internal/storage/all"
//
//	repo, err := storage.New(ctx, storage.Config{Kind: cfg.Storage.Kind, DSN: dsn, Log: log})
package all

import (
	_ "olympics/internal/storage/postgres"
	_ "olympics/internal/storage/sqlite"
)
