package builtin

import "olympics/internal/records"

// Require removes any record missing a value for one of the specified fields.
type Require struct {
	Fields []string
}

// Apply returns a filtered slice containing only records that have all
// required fields present and non-empty. Filtering reuses in's backing array.
func (r Require) Apply(in []records.Record) []records.Record {
	out := in[:0]
	for _, rec := range in {
		if r.Missing(rec) == "" {
			out = append(out, rec)
		}
	}
	return out
}

// Missing returns the first required field that rec lacks, or "" when every
// field is present. Nil and "" count as missing.
func (r Require) Missing(rec records.Record) string {
	for _, f := range r.Fields {
		v, exists := rec[f]
		if !exists || v == nil || v == "" {
			return f
		}
	}
	return ""
}
