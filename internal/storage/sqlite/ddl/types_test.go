package ddl

import (
	"testing"

	"olympics/internal/schema"
)

func TestMapKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		kind schema.Kind
		want string
	}{
		{name: "int", kind: schema.KindInt, want: "INTEGER"},
		{name: "text", kind: schema.KindText, want: "TEXT"},
		{name: "unknown", kind: schema.Kind("blob"), want: "TEXT"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := MapKind(tt.kind); got != tt.want {
				t.Fatalf("MapKind(%q) = %q, want %q", tt.kind, got, tt.want)
			}
		})
	}
}
