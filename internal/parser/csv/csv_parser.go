// Package csv parses flat tabular CSV extracts into records.Frame values.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/unicode/norm"

	"olympics/internal/records"
)

// Options configures the CSV parser behavior. The first row is always the
// header.
type Options struct {
	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims leading/trailing spaces from each field value.
	TrimSpace bool

	// DropIndexColumn drops the first column of every row. Extracts are
	// written with their row index as the leading column.
	DropIndexColumn bool

	// NullValues are field values that parse to nil. Nil slice means
	// DefaultNullValues.
	NullValues []string
}

// DefaultNullValues mirrors the markers the upstream exporter writes for
// missing values.
var DefaultNullValues = []string{"", "NA"}

// ExtractOptions returns the options for the pipeline's raw extracts: a
// leading row-index column and the default null markers.
func ExtractOptions() Options {
	return Options{Comma: ',', DropIndexColumn: true}
}

// Parser parses CSV input according to Options. It is safe to reuse across
// inputs, but Parser itself is not concurrency-safe.
type Parser struct {
	opt   Options
	nulls map[string]struct{}
}

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser {
	nv := opt.NullValues
	if nv == nil {
		nv = DefaultNullValues
	}
	nulls := make(map[string]struct{}, len(nv))
	for _, v := range nv {
		nulls[v] = struct{}{}
	}
	return &Parser{opt: opt, nulls: nulls}
}

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\uFEFF"

// ErrEmptyInput is returned when the input has no header row.
var ErrEmptyInput = errors.New("csv: empty input")

// RowError reports a data row that could not be read: malformed quoting, or
// a field count that differs from the header. Line is the 1-based line of the
// input where the row starts.
type RowError struct {
	Line   int
	Fields int // fields found; zero for syntax errors
	Want   int // header width
	Err    error
}

func (e *RowError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("csv line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("csv line %d: got %d fields, header has %d", e.Line, e.Fields, e.Want)
}

func (e *RowError) Unwrap() error { return e.Err }

// Parse consumes CSV records from r and returns the parsed frame. The first
// row that cannot be read aborts the parse with a *RowError; no partial frame
// is returned.
func (p *Parser) Parse(r io.Reader) (records.Frame, error) {
	cr := csv.NewReader(r)
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	// Width is checked below so the error can carry both counts.
	cr.FieldsPerRecord = -1

	h, err := cr.Read()
	if err == io.EOF {
		return records.Frame{}, ErrEmptyInput
	}
	if err != nil {
		return records.Frame{}, fmt.Errorf("read csv header: %w", err)
	}
	headers := normalizeHeaders(h)
	if err := checkUnique(headers); err != nil {
		return records.Frame{}, err
	}

	first := 0
	if p.opt.DropIndexColumn {
		first = 1
	}
	out := records.Frame{}
	for i := first; i < len(headers); i++ {
		out.Columns = append(out.Columns, headers[i])
	}

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return records.Frame{}, &RowError{Line: pe.StartLine, Want: len(headers), Err: pe.Err}
			}
			return records.Frame{}, fmt.Errorf("read csv: %w", err)
		}
		if len(row) != len(headers) {
			line, _ := cr.FieldPos(0)
			return records.Frame{}, &RowError{Line: line, Fields: len(row), Want: len(headers)}
		}

		rec := make(records.Record, len(row)-first)
		for i := first; i < len(row); i++ {
			val := row[i]
			if p.opt.TrimSpace {
				val = strings.TrimSpace(val)
			}
			rec[headers[i]] = p.nullOr(val)
		}
		out.Append(rec)
	}

	return out, nil
}

func (p *Parser) nullOr(s string) any {
	if _, ok := p.nulls[s]; ok {
		return nil
	}
	return s
}

// normalizeHeaders trims header cells, strips a UTF-8 BOM from the first one
// and folds them to NFC. Case is preserved.
func normalizeHeaders(h []string) []string {
	res := make([]string, len(h))
	for i, col := range h {
		c := col
		if i == 0 {
			c = strings.TrimPrefix(c, utf8BOM)
		}
		res[i] = norm.NFC.String(strings.TrimSpace(c))
	}
	return res
}

func checkUnique(headers []string) error {
	seen := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		if h == "" {
			continue
		}
		if _, dup := seen[h]; dup {
			return fmt.Errorf("csv: duplicate header %q", h)
		}
		seen[h] = struct{}{}
	}
	return nil
}
