package ddl

import (
	"testing"

	"olympics/internal/schema"
)

func TestMapKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind schema.Kind
		want string
	}{
		{schema.KindInt, "BIGINT"},
		{schema.KindText, "TEXT"},
		{schema.Kind("uuid"), "TEXT"},
		{schema.Kind(""), "TEXT"},
	}
	for _, tt := range tests {
		if got := MapKind(tt.kind); got != tt.want {
			t.Errorf("MapKind(%q) = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

// Every declared column must map to a concrete type.
func TestMapKind_CoversSchema(t *testing.T) {
	t.Parallel()

	for _, tbl := range schema.All() {
		for _, c := range tbl.Columns {
			if MapKind(c.Kind) == "" {
				t.Errorf("%s.%s: no type for kind %q", tbl.Name, c.Name, c.Kind)
			}
		}
	}
}
