// Package load turns reconciled entity frames into storage batches: it checks
// each frame against its destination table, coerces values to the column
// types and hands one batch per table to the repository.
package load

import (
	"context"
	"fmt"
	"sort"
	"time"

	"olympics/internal/logger"
	"olympics/internal/metrics"
	"olympics/internal/records"
	"olympics/internal/schema"
	"olympics/internal/storage"
	"olympics/internal/transformer/builtin"
)

// RowSchemaError reports a frame whose shape does not fit its table.
// Row is -1 when the problem is with the frame's column list.
type RowSchemaError struct {
	Table  string
	Row    int
	Column string
	Reason string
}

func (e *RowSchemaError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("load %s: column %s: %s", e.Table, e.Column, e.Reason)
	}
	return fmt.Sprintf("load %s: row %d: column %s: %s", e.Table, e.Row, e.Column, e.Reason)
}

// Result summarizes one Apply call.
type Result struct {
	Table   string
	Rows    int
	Applied int64
}

// Loader applies entity frames to a repository.
type Loader struct {
	repo storage.Repository
	log  *logger.Logger
	job  string
}

// New returns a Loader writing to repo. job labels metrics.
func New(repo storage.Repository, log *logger.Logger, job string) *Loader {
	if log == nil {
		log = logger.Nop()
	}
	if job == "" {
		job = "olympics"
	}
	return &Loader{repo: repo, log: log, job: job}
}

// Apply upserts f into t in a single transaction. Frame columns must be a
// subset of the table's columns that includes the primary key, and every row
// must carry exactly the frame's columns. Input rows are not modified.
func (l *Loader) Apply(ctx context.Context, t schema.Table, f records.Frame) (Result, error) {
	start := time.Now()
	res := Result{Table: t.Name, Rows: f.Len()}

	b, err := BuildBatch(t, f)
	if err != nil {
		return res, err
	}
	metrics.RecordRows(l.job, t.Name, "input", int64(len(b.Rows)))

	applied, err := l.repo.Upsert(ctx, b)
	if err != nil {
		return res, err
	}
	res.Applied = applied
	metrics.RecordBatches(l.job, 1)
	metrics.RecordRows(l.job, t.Name, "applied", applied)

	l.log.Info("table loaded",
		"table", t.Name,
		"rows", res.Rows,
		"applied", applied,
		"elapsed", time.Since(start).Round(time.Millisecond).String(),
	)
	return res, nil
}

// BuildBatch converts f into a storage.Batch for t, with columns in table
// declaration order.
func BuildBatch(t schema.Table, f records.Frame) (storage.Batch, error) {
	inFrame := make(map[string]struct{}, len(f.Columns))
	for _, c := range f.Columns {
		if _, dup := inFrame[c]; dup {
			return storage.Batch{}, &RowSchemaError{Table: t.Name, Row: -1, Column: c, Reason: "repeated in frame"}
		}
		if _, ok := t.Column(c); !ok {
			return storage.Batch{}, &RowSchemaError{Table: t.Name, Row: -1, Column: c, Reason: "not a column of the table"}
		}
		inFrame[c] = struct{}{}
	}
	for _, k := range t.PrimaryKey {
		if _, ok := inFrame[k]; !ok {
			return storage.Batch{}, &RowSchemaError{Table: t.Name, Row: -1, Column: k, Reason: "primary key column missing"}
		}
	}

	var cols []string
	types := make(map[string]string, len(f.Columns))
	for _, c := range t.Columns {
		if _, ok := inFrame[c.Name]; ok {
			cols = append(cols, c.Name)
			types[c.Name] = string(c.Kind)
		}
	}
	coerce := builtin.Coerce{Types: types}

	b := storage.Batch{
		Table:      t.Name,
		KeyColumns: append([]string(nil), t.PrimaryKey...),
		Columns:    cols,
		Rows:       make([][]any, 0, f.Len()),
	}
	for i, r := range f.Rows {
		if col := sameShape(r, inFrame); col != "" {
			return storage.Batch{}, &RowSchemaError{Table: t.Name, Row: i, Column: col, Reason: "row schema differs from frame"}
		}
		rec := r.Clone()
		if err := coerce.Convert(rec); err != nil {
			return storage.Batch{}, fmt.Errorf("load %s: row %d: %w", t.Name, i, err)
		}
		row := make([]any, len(cols))
		for j, c := range cols {
			row[j] = rec[c]
		}
		b.Rows = append(b.Rows, row)
	}
	if err := b.Validate(); err != nil {
		return storage.Batch{}, err
	}
	return b, nil
}

// sameShape returns the first column (sorted) on which r and cols disagree,
// or "" when they hold the same set.
func sameShape(r records.Record, cols map[string]struct{}) string {
	var diff []string
	for c := range cols {
		if _, ok := r[c]; !ok {
			diff = append(diff, c)
		}
	}
	for c := range r {
		if _, ok := cols[c]; !ok {
			diff = append(diff, c)
		}
	}
	if len(diff) == 0 {
		return ""
	}
	sort.Strings(diff)
	return diff[0]
}
