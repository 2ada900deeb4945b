package storage

import (
	"fmt"
	"strings"

	"olympics/internal/records"
)

// Validate checks the shape of b and rejects rows that repeat a key, which a
// single INSERT ... ON CONFLICT cannot apply deterministically.
func (b Batch) Validate() error {
	if strings.TrimSpace(b.Table) == "" {
		return fmt.Errorf("storage: batch table must not be empty")
	}
	if len(b.Columns) == 0 {
		return fmt.Errorf("storage: batch for %s has no columns", b.Table)
	}
	if len(b.KeyColumns) == 0 {
		return fmt.Errorf("storage: batch for %s has no key columns", b.Table)
	}

	pos := make(map[string]int, len(b.Columns))
	for i, c := range b.Columns {
		if _, dup := pos[c]; dup {
			return fmt.Errorf("storage: batch for %s repeats column %s", b.Table, c)
		}
		pos[c] = i
	}
	keyPos := make([]int, len(b.KeyColumns))
	for i, k := range b.KeyColumns {
		p, ok := pos[k]
		if !ok {
			return fmt.Errorf("storage: batch for %s: key column %s not in columns", b.Table, k)
		}
		keyPos[i] = p
	}

	seen := make(map[string]int, len(b.Rows))
	var buf []byte
	for i, row := range b.Rows {
		if len(row) != len(b.Columns) {
			return fmt.Errorf("storage: batch for %s: row %d has %d values, want %d", b.Table, i, len(row), len(b.Columns))
		}
		buf = buf[:0]
		for j, p := range keyPos {
			buf = records.AppendEncoded(buf, b.KeyColumns[j], row[p])
		}
		if prev, dup := seen[string(buf)]; dup {
			return &ConstraintViolationError{
				Table:      b.Table,
				Constraint: "duplicate key in batch",
				Detail:     fmt.Sprintf("rows %d and %d share key %s", prev, i, b.describeKey(row, keyPos)),
			}
		}
		seen[string(buf)] = i
	}
	return nil
}

func (b Batch) describeKey(row []any, keyPos []int) string {
	parts := make([]string, len(keyPos))
	for i, p := range keyPos {
		s, ok := records.Canonical(row[p])
		if !ok {
			s = "NULL"
		}
		parts[i] = b.KeyColumns[i] + "=" + s
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// NonKeyColumns returns Columns minus KeyColumns, in column order.
func (b Batch) NonKeyColumns() []string {
	keys := make(map[string]struct{}, len(b.KeyColumns))
	for _, k := range b.KeyColumns {
		keys[k] = struct{}{}
	}
	var out []string
	for _, c := range b.Columns {
		if _, ok := keys[c]; !ok {
			out = append(out, c)
		}
	}
	return out
}

// MergeSQL renders the statement that moves staged rows into the target:
//
//	INSERT INTO target (cols) SELECT cols FROM staging [WHERE true]
//	ON CONFLICT (keys) DO UPDATE SET c = EXCLUDED.c, ...
//
// DO NOTHING is used when every column is a key. whereTrue adds the WHERE
// clause SQLite needs to parse ON CONFLICT after a SELECT.
func (b Batch) MergeSQL(target, staging string, quote func(string) string, whereTrue bool) string {
	cols := make([]string, len(b.Columns))
	for i, c := range b.Columns {
		cols[i] = quote(c)
	}
	keys := make([]string, len(b.KeyColumns))
	for i, k := range b.KeyColumns {
		keys[i] = quote(k)
	}
	colList := strings.Join(cols, ", ")

	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) SELECT %s FROM %s", target, colList, colList, staging)
	if whereTrue {
		sb.WriteString(" WHERE true")
	}
	fmt.Fprintf(&sb, " ON CONFLICT (%s) DO ", strings.Join(keys, ", "))

	rest := b.NonKeyColumns()
	if len(rest) == 0 {
		sb.WriteString("NOTHING")
		return sb.String()
	}
	sets := make([]string, len(rest))
	for i, c := range rest {
		sets[i] = fmt.Sprintf("%s = EXCLUDED.%s", quote(c), quote(c))
	}
	sb.WriteString("UPDATE SET ")
	sb.WriteString(strings.Join(sets, ", "))
	return sb.String()
}

// StagingName returns the temporary table name used while upserting table.
func StagingName(table string) string {
	return "stg_" + strings.NewReplacer(".", "_", `"`, "").Replace(table)
}
