package batch

import (
	"errors"
	"fmt"
)

// ErrSinkWrite matches every *SinkWriteError.
var ErrSinkWrite = errors.New("sink write failure")

// SinkWriteError is returned when an output partition rejects a write,
// fails to open, or fails to flush on close.
type SinkWriteError struct {
	Partition int
	Err       error
}

func (e *SinkWriteError) Error() string {
	return fmt.Sprintf("sink write failure: partition %d: %v", e.Partition, e.Err)
}

func (e *SinkWriteError) Unwrap() error {
	return e.Err
}

func (e *SinkWriteError) Is(target error) bool {
	return target == ErrSinkWrite
}
