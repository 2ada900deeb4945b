// Package ddl contains Postgres-specific helpers for generating DDL.
package ddl

import "olympics/internal/schema"

// MapKind maps a schema column kind to a Postgres type. Integers are BIGINT
// to match the int64 values produced by coercion; anything unknown is TEXT.
func MapKind(k schema.Kind) string {
	switch k {
	case schema.KindInt:
		return "BIGINT"
	default:
		return "TEXT"
	}
}
