package cleaner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/turbolytics/cleaner/internal"
	"github.com/turbolytics/cleaner/internal/batch"
	"github.com/turbolytics/cleaner/internal/catalog"
	"github.com/turbolytics/cleaner/internal/parquet"
	"github.com/turbolytics/cleaner/internal/preserver"
	"github.com/turbolytics/cleaner/internal/reshaper"
	pq "github.com/xitongsys/parquet-go/parquet"
	"go.uber.org/zap"
)

const SuccessFileName = "_SUCCESS"

type Format string

const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatCSV, FormatParquet:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format: %q", s)
	}
}

type Option func(*Cleaner)

func WithLogger(logger *zap.Logger) Option {
	return func(c *Cleaner) {
		c.logger = logger
	}
}

func WithID(id uuid.UUID) Option {
	return func(c *Cleaner) {
		c.id = id
	}
}

func WithInputFilesystem(fs internal.Filesystem) Option {
	return func(c *Cleaner) {
		c.inputFS = fs
	}
}

func WithOutputFilesystem(fs internal.Filesystem) Option {
	return func(c *Cleaner) {
		c.outputFS = fs
	}
}

func WithFormat(f Format) Option {
	return func(c *Cleaner) {
		c.format = f
	}
}

func WithWorkers(n int) Option {
	return func(c *Cleaner) {
		c.workers = n
	}
}

func WithStrict(strict bool) Option {
	return func(c *Cleaner) {
		c.strict = strict
	}
}

func WithMaxMalformedSamples(n int) Option {
	return func(c *Cleaner) {
		c.maxSamples = n
	}
}

func WithParquetCompression(codec pq.CompressionCodec) Option {
	return func(c *Cleaner) {
		c.compression = codec
	}
}

func WithParquetRowGroupSize(n int64) Option {
	return func(c *Cleaner) {
		c.rowGroupSize = n
	}
}

func WithBufferSize(n int) Option {
	return func(c *Cleaner) {
		c.bufferSize = n
	}
}

// WithDryRun prints reshaped rows to w. Nothing is written to the output.
func WithDryRun(w io.Writer) Option {
	return func(c *Cleaner) {
		c.dryRun = preserver.NewStdout(w)
	}
}

// Cleaner validates locations, reshapes every input record and records
// the run in a catalog next to the output partitions. A Cleaner runs once.
type Cleaner struct {
	id           uuid.UUID
	inputFS      internal.Filesystem
	outputFS     internal.Filesystem
	format       Format
	workers      int
	strict       bool
	maxSamples   int
	compression  pq.CompressionCodec
	rowGroupSize int64
	bufferSize   int
	dryRun       *preserver.Stdout

	logger *zap.Logger
	state  *FSM

	mu     sync.RWMutex
	input  string
	output string
	runner *batch.Runner
}

func New(opts ...Option) (*Cleaner, error) {
	c := &Cleaner{
		id:          uuid.Must(uuid.NewUUID()),
		format:      FormatCSV,
		compression: pq.CompressionCodec_SNAPPY,
		logger:      zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.inputFS == nil || c.outputFS == nil {
		return nil, errors.New("cleaner requires input and output filesystems")
	}

	c.state = NewFSM(FSMWithLogger(c.logger.Named("fsm")))
	return c, nil
}

func (c *Cleaner) ID() uuid.UUID {
	return c.id
}

// Run validates, then reshapes input into partitions under output.
// The returned catalog is non-nil whenever validation passed, including
// when the batch failed.
func (c *Cleaner) Run(ctx context.Context, input, output string) (*catalog.Catalog, error) {
	c.mu.Lock()
	c.input, c.output = input, output
	c.mu.Unlock()

	l := c.logger.With(
		zap.String("id", c.id.String()),
		zap.String("input", input),
		zap.String("output", output),
	)

	if err := c.state.Transition(StateValidating); err != nil {
		return nil, err
	}

	if err := Validate(ctx, c.inputFS, input, c.outputFS, output); err != nil {
		c.state.Transition(StateFailed)
		return nil, err
	}

	files, err := c.inputFS.List(ctx, input)
	if err != nil {
		c.state.Transition(StateFailed)
		return nil, fmt.Errorf("listing input %s: %w", input, err)
	}

	batchOpts := []batch.Option{
		batch.WithLogger(l.Named("batch")),
		batch.WithFilesystem(c.inputFS),
		batch.WithPartitions(c.partitionFunc(output)),
		batch.WithWorkers(c.workerCount()),
		batch.WithStrict(c.strict),
		batch.WithMaxMalformedSamples(c.sampleCount()),
	}
	if c.bufferSize > 0 {
		batchOpts = append(batchOpts, batch.WithBufferSize(c.bufferSize))
	}

	runner, err := batch.New(batchOpts...)
	if err != nil {
		c.state.Transition(StateFailed)
		return nil, err
	}

	c.mu.Lock()
	c.runner = runner
	c.mu.Unlock()

	if err := c.state.Transition(StateRunning); err != nil {
		return nil, err
	}

	cat := &catalog.Catalog{
		ID:            c.id.String(),
		StartTime:     time.Now().UTC(),
		Input:         input,
		Output:        output,
		Format:        string(c.format),
		Strict:        c.strict,
		NumInputFiles: len(files),
	}

	l.Info("running", zap.Int("num_input_files", len(files)))
	stats, runErr := runner.Run(ctx, files, reshaper.Reshape)

	cat.EndTime = time.Now().UTC()
	cat.NumSourceRecords = stats.NumSourceRecords
	cat.NumRecordsProcessed = stats.NumRecordsWritten
	cat.NumMalformedRecords = stats.NumMalformedRecords
	cat.MalformedSamples = stats.MalformedSamples
	cat.NumPartitions = stats.NumPartitions
	cat.Completed = runErr == nil
	if runErr != nil {
		cat.Error = runErr.Error()
	}

	if c.dryRun == nil {
		// The catalog is written with a fresh context so a cancelled run
		// still leaves a record of what was processed.
		if err := c.finish(context.WithoutCancel(ctx), output, cat); err != nil {
			l.Error("failed to finalize output", zap.Error(err))
			if runErr == nil {
				runErr = err
			}
		}
	}

	if runErr != nil {
		c.state.Transition(StateFailed)
		return cat, runErr
	}

	if err := c.state.Transition(StateCompleted); err != nil {
		return cat, err
	}

	l.Info("completed",
		zap.Int64("num_source_records", cat.NumSourceRecords),
		zap.Int64("num_records_processed", cat.NumRecordsProcessed),
		zap.Int64("num_malformed_records", cat.NumMalformedRecords),
	)
	return cat, nil
}

func (c *Cleaner) finish(ctx context.Context, output string, cat *catalog.Catalog) error {
	bs, err := cat.Marshal()
	if err != nil {
		return err
	}

	if err := c.writeFile(ctx, joinPath(output, catalog.FileName), bs); err != nil {
		return err
	}

	if !cat.Completed {
		return nil
	}
	return c.writeFile(ctx, joinPath(output, SuccessFileName), nil)
}

func (c *Cleaner) writeFile(ctx context.Context, path string, bs []byte) error {
	w, err := c.outputFS.Create(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", batch.ErrSinkWrite, path, err)
	}
	if _, err := w.Write(bs); err != nil {
		w.Close()
		return fmt.Errorf("%w: %s: %w", batch.ErrSinkWrite, path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%w: %s: %w", batch.ErrSinkWrite, path, err)
	}
	return nil
}

func (c *Cleaner) partitionFunc(output string) batch.PartitionFunc {
	if c.dryRun != nil {
		return func(ctx context.Context, partition int) (preserver.Preserver, error) {
			return c.dryRun, nil
		}
	}

	return func(ctx context.Context, partition int) (preserver.Preserver, error) {
		path := joinPath(output, PartitionName(partition, c.format))
		w, err := c.outputFS.Create(ctx, path)
		if err != nil {
			return nil, err
		}

		switch c.format {
		case FormatParquet:
			p, err := parquet.New(w,
				parquet.WithLogger(c.logger.Named("parquet")),
				parquet.WithCompression(c.compression),
				parquet.WithRowGroupSize(c.rowGroupSize),
			)
			if err != nil {
				w.Close()
				return nil, err
			}
			return p, nil
		default:
			return preserver.NewCSV(w), nil
		}
	}
}

func (c *Cleaner) workerCount() int {
	if c.workers > 0 {
		return c.workers
	}
	return runtime.NumCPU()
}

func (c *Cleaner) sampleCount() int {
	if c.maxSamples > 0 {
		return c.maxSamples
	}
	return 10
}

// PartitionName is the file name of one worker's output partition.
func PartitionName(partition int, format Format) string {
	return fmt.Sprintf("part-%05d.%s", partition, format)
}

// joinPath appends name to a local path or a URL style path.
func joinPath(base, name string) string {
	if strings.Contains(base, "://") {
		return strings.TrimSuffix(base, "/") + "/" + name
	}
	return filepath.Join(base, name)
}

// Status is a point in time view of a run.
type Status struct {
	ID     string      `json:"id"`
	State  State       `json:"state"`
	Input  string      `json:"input,omitempty"`
	Output string      `json:"output,omitempty"`
	Stats  batch.Stats `json:"stats"`
}

func (c *Cleaner) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Status{
		ID:     c.id.String(),
		State:  c.state.Current(),
		Input:  c.input,
		Output: c.output,
	}
	if c.runner != nil {
		s.Stats = c.runner.Stats()
	}
	return s
}
