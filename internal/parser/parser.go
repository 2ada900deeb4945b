// Package parser defines the contract between local extract files and the
// in-memory frames consumed by the reconciler.
package parser

import (
	"io"

	"olympics/internal/records"
)

// Parser turns one extract stream into a frame. A row that cannot be parsed
// fails the whole stream.
type Parser interface {
	Parse(r io.Reader) (records.Frame, error)
}
