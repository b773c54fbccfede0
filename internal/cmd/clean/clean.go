package clean

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/turbolytics/cleaner/internal"
	"github.com/turbolytics/cleaner/internal/catalog"
	"github.com/turbolytics/cleaner/internal/cleaner"
	"github.com/turbolytics/cleaner/internal/config"
	"go.uber.org/zap"
)

func NewCommand() *cobra.Command {
	var configPath string
	var statusAddr string
	var dryRun bool
	v := newViper()

	cmd := &cobra.Command{
		Use:   "clean <input> <output>",
		Short: "Reshapes raw transaction records into flat partitions under output",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			c, err := loadConfig(configPath, v)
			if err != nil {
				return err
			}

			logger, err := c.Logger.New()
			if err != nil {
				return err
			}
			defer logger.Sync()
			l := logger.Named("cleaner.clean")

			input, err := c.Resolve(args[0], l)
			if err != nil {
				return err
			}
			output, err := c.Resolve(args[1], l)
			if err != nil {
				return err
			}

			var opts []cleaner.Option
			if dryRun {
				opts = append(opts, cleaner.WithDryRun(cmd.OutOrStdout()))
			}

			cl, err := config.InitializeCleaner(c, input, output, l, opts...)
			if err != nil {
				return err
			}

			if statusAddr != "" {
				srv := newStatusServer(statusAddr, cl, l)
				go func() {
					l.Info("starting status server", zap.String("address", statusAddr))
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						l.Error("status server failed", zap.Error(err))
					}
				}()
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
					defer cancel()
					srv.Shutdown(shutdownCtx)
				}()
			}

			cat, err := cl.Run(ctx, input.Path, output.Path)
			if err != nil {
				return err
			}

			if cat.NumMalformedRecords > 0 {
				return fmt.Errorf(
					"%w: %d of %d records skipped, see %s",
					internal.ErrMalformedRecord,
					cat.NumMalformedRecords,
					cat.NumSourceRecords,
					catalog.FileName,
				)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	cmd.Flags().StringVarP(&statusAddr, "status-addr", "", "", "Serve run status on this address, e.g. :8080")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "", false, "Validate and reshape to stdout without writing output")
	cmd.Flags().IntP("workers", "w", 0, "Number of reshaping workers (default: number of CPUs)")
	cmd.Flags().BoolP("strict", "", false, "Abort on the first malformed record")
	cmd.Flags().StringP("format", "f", "csv", "Output format: csv or parquet")
	cmd.Flags().IntP("max-malformed-samples", "", 10, "Number of malformed record locations kept in the catalog")
	cmd.Flags().StringP("log-level", "", "info", "Log level")
	bindFlags(v, cmd, "workers", "strict", "format", "max-malformed-samples", "log-level")

	return cmd
}

func NewValidateCommand() *cobra.Command {
	var configPath string
	v := newViper()

	cmd := &cobra.Command{
		Use:   "validate <input> <output>",
		Short: "Checks that input exists and output does not",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig(configPath, v)
			if err != nil {
				return err
			}

			logger, err := c.Logger.New()
			if err != nil {
				return err
			}
			defer logger.Sync()
			l := logger.Named("cleaner.validate")

			input, err := c.Resolve(args[0], l)
			if err != nil {
				return err
			}
			output, err := c.Resolve(args[1], l)
			if err != nil {
				return err
			}

			if err := cleaner.Validate(cmd.Context(), input.FS, input.Path, output.FS, output.Path); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	cmd.Flags().StringP("log-level", "", "info", "Log level")
	bindFlags(v, cmd, "log-level")

	return cmd
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("CLEANER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

func bindFlags(v *viper.Viper, cmd *cobra.Command, names ...string) {
	for _, name := range names {
		v.BindPFlag(name, cmd.Flags().Lookup(name))
	}
}

func loadConfig(fpath string, v *viper.Viper) (*config.Config, error) {
	c := config.Default()
	if fpath != "" {
		var err error
		if c, err = config.NewFromFile(fpath); err != nil {
			return nil, err
		}
	}
	c.Override(v)
	return c, nil
}
