package parquet

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/turbolytics/cleaner/internal"
	"github.com/xitongsys/parquet-go-source/writerfile"
	pq "github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
	"go.uber.org/zap"
)

type Option func(*Preserver)

func WithLogger(l *zap.Logger) Option {
	return func(p *Preserver) {
		p.logger = l
	}
}

func WithCompression(c pq.CompressionCodec) Option {
	return func(p *Preserver) {
		p.compression = c
	}
}

func WithRowGroupSize(n int64) Option {
	return func(p *Preserver) {
		p.rowGroupSize = n
	}
}

// Preserver encodes one partition as a parquet file.
type Preserver struct {
	schema       Schema
	compression  pq.CompressionCodec
	rowGroupSize int64
	logger       *zap.Logger

	w       io.WriteCloser
	pw      *writer.CSVWriter
	numRows int
}

// ParseCompression maps a codec name such as "snappy" to its parquet codec.
func ParseCompression(name string) (pq.CompressionCodec, error) {
	c, err := pq.CompressionCodecFromString(strings.ToUpper(name))
	if err != nil {
		return 0, fmt.Errorf("unknown parquet compression %q: %w", name, err)
	}
	return c, nil
}

func New(w io.WriteCloser, opts ...Option) (*Preserver, error) {
	p := &Preserver{
		schema:      FlatRecordSchema(),
		compression: pq.CompressionCodec_SNAPPY,
		logger:      zap.NewNop(),
		w:           w,
	}

	for _, opt := range opts {
		opt(p)
	}

	pw, err := writer.NewCSVWriter(
		p.schema.ToGoParquetSchema(),
		writerfile.NewWriterFile(w),
		1,
	)
	if err != nil {
		return nil, err
	}

	pw.CompressionType = p.compression
	if p.rowGroupSize > 0 {
		pw.RowGroupSize = p.rowGroupSize
	}
	p.pw = pw

	return p, nil
}

func (p *Preserver) Preserve(ctx context.Context, r internal.FlatRecord) error {
	row, err := p.schema.RecordToParquetRow(r)
	if err != nil {
		return err
	}
	if err := p.pw.Write(row); err != nil {
		return err
	}
	p.numRows++
	return nil
}

// Close writes the parquet footer and closes the underlying writer.
func (p *Preserver) Close() error {
	stopErr := p.pw.WriteStop()
	closeErr := p.w.Close()

	p.logger.Debug("parquet partition closed", zap.Int("num_rows", p.numRows))

	if stopErr != nil {
		return stopErr
	}
	return closeErr
}
