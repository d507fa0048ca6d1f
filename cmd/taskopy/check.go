package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/amonks/taskopy/runner"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the settings and the taskfile",
	Long: `check loads the settings file and the taskfile, parses every trigger, and
reports every problem it finds without binding anything. It exits nonzero if
any task or trigger would be skipped.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		r := runner.New(runner.Options{
			Load:    loader(s.Taskfile),
			Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
			Passive: true,
		})
		defer r.Shutdown(context.Background())
		if err := r.Reload(); err != nil {
			return err
		}

		warnings := r.Warnings()
		printWarnings(cmd.ErrOrStderr(), warnings)
		if len(warnings) > 0 {
			return fmt.Errorf("%s: warnings: %d", s.Taskfile, len(warnings))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d tasks ok\n", s.Taskfile, r.Library().Size())
		return nil
	},
}
