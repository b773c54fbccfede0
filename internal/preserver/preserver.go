package preserver

import (
	"context"

	"github.com/turbolytics/cleaner/internal"
)

// Preserver writes reshaped records to one output partition.
// A Preserver is used by a single worker; Close flushes buffered rows.
type Preserver interface {
	Preserve(ctx context.Context, r internal.FlatRecord) error
	Close() error
}
