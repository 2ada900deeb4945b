package builtin

import (
	"testing"

	"olympics/internal/records"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   any
		want any
	}{
		{"trim", "  Jane Doe \t", "Jane Doe"},
		{"nbsp", "Jane\u00a0Doe\u00a0", "Jane Doe"},
		{"decomposed to composed", "Jose\u0301", "Jos\u00e9"},
		{"already composed", "Jos\u00e9", "Jos\u00e9"},
		{"non-string", int64(7), int64(7)},
		{"nil", nil, nil},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			out := Normalize{}.Apply([]records.Record{{"v": tc.in}})
			if got := out[0]["v"]; got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}
