package schema

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/turbolytics/cleaner/internal/parquet"
	"gopkg.in/yaml.v3"
)

func NewCommand() *cobra.Command {
	var format string

	var cmd = &cobra.Command{
		Use:   "schema",
		Short: "Prints the parquet schema of reshaped records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return write(cmd.OutOrStdout(), parquet.FlatRecordSchema(), format)
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", "yaml", "Output format: yaml or tags")
	return cmd
}

func write(w io.Writer, s parquet.Schema, format string) error {
	switch format {
	case "yaml":
		bs, err := yaml.Marshal(map[string]parquet.Schema{"schema": s})
		if err != nil {
			return err
		}
		_, err = w.Write(bs)
		return err
	case "tags":
		_, err := fmt.Fprintln(w, strings.Join(s.ToGoParquetSchema(), "\n"))
		return err
	default:
		return fmt.Errorf("unsupported output format: %q", format)
	}
}
