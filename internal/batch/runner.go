package batch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/turbolytics/cleaner/internal"
	"github.com/turbolytics/cleaner/internal/preserver"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultBufferSize  = 1024
	defaultMaxSamples  = 10
	defaultMaxLineSize = 1024 * 1024
)

// TransformFunc reshapes one record. It must be safe to call from
// several goroutines at once.
type TransformFunc func(internal.RawRecord) (internal.FlatRecord, error)

// PartitionFunc opens the output partition owned by one worker. It is
// called lazily, on the worker's first row.
type PartitionFunc func(ctx context.Context, partition int) (preserver.Preserver, error)

type Option func(*Runner)

func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

func WithFilesystem(fs internal.Filesystem) Option {
	return func(r *Runner) {
		r.fs = fs
	}
}

func WithPartitions(fn PartitionFunc) Option {
	return func(r *Runner) {
		r.partitions = fn
	}
}

func WithWorkers(n int) Option {
	return func(r *Runner) {
		r.workers = n
	}
}

// WithStrict aborts the run on the first malformed record instead of
// counting it and moving on.
func WithStrict(strict bool) Option {
	return func(r *Runner) {
		r.strict = strict
	}
}

func WithMaxMalformedSamples(n int) Option {
	return func(r *Runner) {
		r.maxSamples = n
	}
}

// WithBufferSize sets how many lines may wait between the reader and
// the workers.
func WithBufferSize(n int) Option {
	return func(r *Runner) {
		r.bufferSize = n
	}
}

// Runner streams input lines to a pool of workers. Each worker applies
// the transform and writes to its own partition, so partitions need no
// locking and output order is not preserved.
type Runner struct {
	fs         internal.Filesystem
	partitions PartitionFunc
	workers    int
	strict     bool
	maxSamples int
	bufferSize int
	logger     *zap.Logger

	statsMu sync.RWMutex
	stats   Stats
}

type line struct {
	source string
	number int
	text   string
}

func New(opts ...Option) (*Runner, error) {
	r := &Runner{
		workers:    runtime.NumCPU(),
		maxSamples: defaultMaxSamples,
		bufferSize: defaultBufferSize,
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.fs == nil {
		return nil, errors.New("runner requires a filesystem")
	}
	if r.partitions == nil {
		return nil, errors.New("runner requires a partition func")
	}
	if r.workers < 1 {
		return nil, fmt.Errorf("invalid worker count: %d", r.workers)
	}
	if r.bufferSize < 0 {
		r.bufferSize = 0
	}
	return r, nil
}

// Stats returns a snapshot of the counters. Safe to call during Run.
func (r *Runner) Stats() Stats {
	r.statsMu.RLock()
	defer r.statsMu.RUnlock()
	return r.stats.copy()
}

// Run reads every input in order and blocks until all records are
// written, the context is cancelled, or a fatal error occurs. Opened
// partitions are always closed before Run returns.
func (r *Runner) Run(ctx context.Context, inputs []string, transform TransformFunc) (Stats, error) {
	r.logger.Info("starting batch",
		zap.Strings("inputs", inputs),
		zap.Int("workers", r.workers),
		zap.Bool("strict", r.strict),
	)

	g, gctx := errgroup.WithContext(ctx)
	lines := make(chan line, r.bufferSize)

	g.Go(func() error {
		defer close(lines)
		for _, in := range inputs {
			if err := r.read(gctx, in, lines); err != nil {
				return err
			}
		}
		return nil
	})

	for i := 0; i < r.workers; i++ {
		partition := i
		g.Go(func() error {
			return r.work(gctx, partition, lines, transform)
		})
	}

	err := g.Wait()
	stats := r.Stats()

	if err != nil {
		r.logger.Error("batch failed", zap.Error(err))
		return stats, err
	}

	r.logger.Info("batch complete",
		zap.Int64("num_source_records", stats.NumSourceRecords),
		zap.Int64("num_records_written", stats.NumRecordsWritten),
		zap.Int64("num_malformed_records", stats.NumMalformedRecords),
		zap.Int("num_partitions", stats.NumPartitions),
	)
	return stats, nil
}

func (r *Runner) read(ctx context.Context, path string, out chan<- line) error {
	f, err := r.fs.Open(ctx, path)
	if err != nil {
		return fmt.Errorf("opening input %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), defaultMaxLineSize)

	n := 0
	for scanner.Scan() {
		n++
		text := scanner.Text()
		if text == "" || text == "\r" {
			continue
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("batch cancelled reading %s: %w", path, ctx.Err())
		case out <- line{source: path, number: n, text: text}:
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input %s: %w", path, err)
	}
	return nil
}

func (r *Runner) work(ctx context.Context, partition int, lines <-chan line, transform TransformFunc) (err error) {
	var p preserver.Preserver

	defer func() {
		if p == nil {
			return
		}
		if cerr := p.Close(); cerr != nil && err == nil {
			err = &SinkWriteError{Partition: partition, Err: cerr}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("batch cancelled in partition %d: %w", partition, ctx.Err())
		case l, ok := <-lines:
			if !ok {
				return nil
			}

			// source = written + malformed, cancelled or not
			r.statsMu.Lock()
			r.stats.NumSourceRecords++
			r.statsMu.Unlock()

			rec, terr := apply(l, transform)
			if terr != nil {
				var merr *internal.MalformedRecordError
				if !errors.As(terr, &merr) {
					return fmt.Errorf("%s:%d: %w", l.source, l.number, terr)
				}
				if r.strict {
					return merr
				}
				r.malformed(merr)
				continue
			}

			if p == nil {
				opened, perr := r.partitions(ctx, partition)
				if perr != nil {
					return &SinkWriteError{Partition: partition, Err: perr}
				}
				p = opened

				r.statsMu.Lock()
				r.stats.NumPartitions++
				r.statsMu.Unlock()
			}

			if werr := p.Preserve(ctx, rec); werr != nil {
				return &SinkWriteError{Partition: partition, Err: werr}
			}

			r.statsMu.Lock()
			r.stats.NumRecordsWritten++
			r.statsMu.Unlock()
		}
	}
}

// apply parses and transforms a line. Malformed record errors come back
// located at the line's source and number.
func apply(l line, transform TransformFunc) (internal.FlatRecord, error) {
	raw, err := internal.ParseRawRecord(l.text)
	if err == nil {
		var rec internal.FlatRecord
		rec, err = transform(raw)
		if err == nil {
			return rec, nil
		}
	}

	var merr *internal.MalformedRecordError
	if errors.As(err, &merr) {
		located := *merr
		located.Source = l.source
		located.Line = l.number
		return internal.FlatRecord{}, &located
	}
	return internal.FlatRecord{}, err
}

func (r *Runner) malformed(merr *internal.MalformedRecordError) {
	r.statsMu.Lock()
	r.stats.NumMalformedRecords++
	sample := len(r.stats.MalformedSamples) < r.maxSamples
	if sample {
		r.stats.MalformedSamples = append(r.stats.MalformedSamples, merr.Error())
	}
	r.statsMu.Unlock()

	if sample {
		r.logger.Warn("skipping malformed record",
			zap.String("location", merr.Location()),
			zap.String("field", merr.Field),
			zap.Int("want", merr.Want),
			zap.Int("got", merr.Got),
		)
		return
	}
	r.logger.Debug("skipping malformed record", zap.String("location", merr.Location()))
}
