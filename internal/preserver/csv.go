package preserver

import (
	"bufio"
	"context"
	"io"

	"github.com/turbolytics/cleaner/internal"
)

// CSV writes one comma joined row per line. Fields are written verbatim:
// they cannot contain commas, so no quoting is applied.
type CSV struct {
	w   io.WriteCloser
	buf *bufio.Writer
}

func NewCSV(w io.WriteCloser) *CSV {
	return &CSV{
		w:   w,
		buf: bufio.NewWriter(w),
	}
}

func (c *CSV) Preserve(ctx context.Context, r internal.FlatRecord) error {
	if _, err := c.buf.WriteString(r.String()); err != nil {
		return err
	}
	return c.buf.WriteByte('\n')
}

func (c *CSV) Close() error {
	flushErr := c.buf.Flush()
	closeErr := c.w.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}
