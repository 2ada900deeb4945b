package builtin

import (
	"fmt"
	"strconv"
	"strings"

	"olympics/internal/records"
)

// Coerce converts string values to the declared type of their column.
type Coerce struct {
	Types map[string]string // field -> "int" or "text"; other types are left as strings
}

// CoerceError reports a value that could not be converted.
type CoerceError struct {
	Field string
	Type  string
	Value string
	Err   error
}

func (e *CoerceError) Error() string {
	return fmt.Sprintf("coerce %s=%q to %s: %v", e.Field, e.Value, e.Type, e.Err)
}

func (e *CoerceError) Unwrap() error { return e.Err }

// Convert coerces r in place and returns the first *CoerceError. Fields not
// present in r, nil values and values that are already non-strings are
// skipped.
func (c Coerce) Convert(r records.Record) error {
	for field, typ := range c.Types {
		if !strings.EqualFold(typ, "int") {
			continue
		}
		v, ok := r[field]
		if !ok || v == nil {
			continue
		}
		s, isStr := v.(string)
		if !isStr {
			continue
		}
		out, err := parseInt(s)
		if err != nil {
			return &CoerceError{Field: field, Type: typ, Value: s, Err: err}
		}
		r[field] = out
	}
	return nil
}

// parseInt accepts plain integers and integral floats such as "24.0", which
// appear when an integer column passed through a float-typed exporter.
func parseInt(s string) (int64, error) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int64(f)) {
		return 0, fmt.Errorf("not an integer")
	}
	return int64(f), nil
}
