// Package records defines the in-memory row and frame types shared by the
// parser, the reconciler and the loader.
//
// A Record maps a column name to a value. Values are nil (SQL NULL) or one of
// the scalar kinds understood by Canonical. A Frame pairs rows with an ordered
// column list so that downstream stages never depend on map iteration order.
package records

import "strings"

// Record is a single row keyed by column name.
type Record map[string]any

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Frame is an ordered set of columns plus the rows that carry them.
type Frame struct {
	Columns []string
	Rows    []Record
}

// NewFrame returns an empty frame with the given column order.
func NewFrame(columns ...string) Frame {
	return Frame{Columns: append([]string(nil), columns...)}
}

// Len reports the number of rows.
func (f Frame) Len() int { return len(f.Rows) }

// HasColumn reports whether col is one of the frame's columns.
func (f Frame) HasColumn(col string) bool {
	for _, c := range f.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// MissingColumns returns the entries of want that the frame lacks, in the
// order given.
func (f Frame) MissingColumns(want ...string) []string {
	var missing []string
	for _, w := range want {
		if !f.HasColumn(w) {
			missing = append(missing, w)
		}
	}
	return missing
}

// Append adds r to the frame.
func (f *Frame) Append(r Record) { f.Rows = append(f.Rows, r) }

// Project returns a new frame containing only cols, in that order. Columns
// absent from a row project as nil.
func (f Frame) Project(cols ...string) Frame {
	out := Frame{
		Columns: append([]string(nil), cols...),
		Rows:    make([]Record, 0, len(f.Rows)),
	}
	for _, r := range f.Rows {
		p := make(Record, len(cols))
		for _, c := range cols {
			p[c] = r[c]
		}
		out.Rows = append(out.Rows, p)
	}
	return out
}

// RenameColumns returns a copy of the frame with every column name passed
// through fn. Rows are rebuilt so the input frame is left untouched.
func (f Frame) RenameColumns(fn func(string) string) Frame {
	names := make(map[string]string, len(f.Columns))
	out := Frame{
		Columns: make([]string, len(f.Columns)),
		Rows:    make([]Record, 0, len(f.Rows)),
	}
	for i, c := range f.Columns {
		names[c] = fn(c)
		out.Columns[i] = names[c]
	}
	for _, r := range f.Rows {
		nr := make(Record, len(r))
		for k, v := range r {
			if n, ok := names[k]; ok {
				nr[n] = v
				continue
			}
			nr[fn(k)] = v
		}
		out.Rows = append(out.Rows, nr)
	}
	return out
}

// Upper is the column-name convention used by the destination schema.
func Upper(col string) string { return strings.ToUpper(col) }

// Values returns the row's values in column order.
func (f Frame) Values(r Record) []any {
	out := make([]any, len(f.Columns))
	for i, c := range f.Columns {
		out[i] = r[c]
	}
	return out
}
