package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/turbolytics/cleaner/internal/cmd/clean"
	"github.com/turbolytics/cleaner/internal/cmd/fixtures"
	"github.com/turbolytics/cleaner/internal/cmd/schema"
)

func NewRootCommand() *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "cleaner",
		Short: "Reshapes raw BigPetStore transaction records into flat tables",
		// Errors are reported once by Execute.
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(clean.NewCommand())
	cmd.AddCommand(clean.NewValidateCommand())
	cmd.AddCommand(schema.NewCommand())
	cmd.AddCommand(fixtures.NewCommand())

	return cmd
}

// Execute runs the root command until it returns or the process is
// interrupted. This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
