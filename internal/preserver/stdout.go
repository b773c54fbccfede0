package preserver

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/turbolytics/cleaner/internal"
)

// Stdout prints rows instead of persisting them. It is shared by all
// workers during a dry run.
type Stdout struct {
	mu sync.Mutex
	w  io.Writer
}

func NewStdout(w io.Writer) *Stdout {
	if w == nil {
		w = os.Stdout
	}
	return &Stdout{w: w}
}

func (s *Stdout) Preserve(ctx context.Context, r internal.FlatRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := fmt.Fprintln(s.w, r.String())
	return err
}

func (s *Stdout) Close() error {
	return nil
}
