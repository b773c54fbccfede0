package cleaner

import (
	"context"
	"errors"
	"fmt"

	"github.com/turbolytics/cleaner/internal"
)

var (
	ErrInputMissing        = errors.New("input path does not exist")
	ErrInputUnreadable     = errors.New("input path is not readable")
	ErrOutputAlreadyExists = errors.New("output path already exists")
)

// Validate checks that every input file can be opened and that output
// does not exist. No records are read. An empty output path names the
// working directory, which always exists.
func Validate(ctx context.Context, inputFS internal.Filesystem, input string, outputFS internal.Filesystem, output string) error {
	if input == "" {
		return fmt.Errorf("%w: empty path", ErrInputMissing)
	}

	ok, err := inputFS.Exists(ctx, input)
	if err != nil {
		return fmt.Errorf("checking input %s: %w", input, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrInputMissing, input)
	}

	if err := readable(ctx, inputFS, input); err != nil {
		return err
	}

	if output == "" {
		return fmt.Errorf("%w: empty path", ErrOutputAlreadyExists)
	}

	ok, err = outputFS.Exists(ctx, output)
	if err != nil {
		return fmt.Errorf("checking output %s: %w", output, err)
	}
	if ok {
		return fmt.Errorf("%w: %s", ErrOutputAlreadyExists, output)
	}
	return nil
}

func readable(ctx context.Context, fs internal.Filesystem, input string) error {
	files, err := fs.List(ctx, input)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInputUnreadable, input, err)
	}

	for _, f := range files {
		r, err := fs.Open(ctx, f)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInputUnreadable, f, err)
		}
		r.Close()
	}
	return nil
}
