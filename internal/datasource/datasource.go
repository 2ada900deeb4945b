// Package datasource defines where raw extracts come from: an object store
// that is landed onto local disk, and the local directory that is read back.
package datasource

import (
	"context"
	"fmt"
)

// Lander copies every extract below a prefix of an object store into a flat
// local directory and returns the landed file paths.
type Lander interface {
	Land(ctx context.Context, bucket, subfolder, dir string) ([]string, error)
}

// NoFilesFoundError reports that a listing or directory scan produced zero
// extracts.
type NoFilesFoundError struct {
	Location string
}

func (e *NoFilesFoundError) Error() string {
	return fmt.Sprintf("no csv files found at %s", e.Location)
}
