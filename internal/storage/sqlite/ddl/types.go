package ddl

import "olympics/internal/schema"

// MapKind maps a schema column kind to a SQLite type affinity.
func MapKind(k schema.Kind) string {
	switch k {
	case schema.KindInt:
		return "INTEGER"
	default:
		return "TEXT"
	}
}
