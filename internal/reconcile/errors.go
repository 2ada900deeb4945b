package reconcile

import (
	"fmt"
	"strings"
)

// MissingInputError reports required extracts that were not supplied.
type MissingInputError struct {
	Keys []string
}

func (e *MissingInputError) Error() string {
	return "reconcile: missing required input: " + strings.Join(e.Keys, ", ")
}

// SchemaViolationError reports an extract that lacks a required column
// (Row is -1) or a row that lacks a value for one.
type SchemaViolationError struct {
	Extract string
	Row     int
	Column  string
}

func (e *SchemaViolationError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("reconcile: extract %s: missing column %s", e.Extract, e.Column)
	}
	return fmt.Sprintf("reconcile: extract %s: row %d: missing value for %s", e.Extract, e.Row, e.Column)
}
