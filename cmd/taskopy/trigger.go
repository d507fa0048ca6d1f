package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/amonks/taskopy/history"
	"github.com/amonks/taskopy/printer"
	"github.com/amonks/taskopy/runner"
	"github.com/amonks/taskopy/tasks"
	"github.com/spf13/cobra"
)

var flagParams []string

var triggerCmd = &cobra.Command{
	Use:   "trigger <id>",
	Short: "Run one task now and print its result",
	Long: `trigger runs the task with the given ID once, with caller "cli", waits for it
to finish and prints its result. No other trigger is bound. The run is
recorded in the history, if there is one.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		logger, closeLog, err := newLogger(s, os.Stderr)
		if err != nil {
			return err
		}
		defer closeLog()

		params := map[string]string{}
		for _, p := range flagParams {
			k, v, _ := strings.Cut(p, "=")
			params[k] = v
		}

		out := printer.New(printer.GutterWidth(args), cmd.ErrOrStderr())
		opts := runner.Options{
			Load:         loader(s.Taskfile),
			Output:       out,
			Notifier:     out,
			Logger:       logger,
			ErrThreshold: s.ErrThreshold,
			Passive:      true,
		}
		if s.History.Path != "" {
			store, err := history.Open(s.History.Path)
			if err != nil {
				return err
			}
			defer store.Close()
			opts.Recorder = store
		}

		r := runner.New(opts)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			r.Shutdown(ctx)
		}()
		if err := r.Reload(); err != nil {
			return err
		}

		e, err := r.Run(args[0], tasks.Call{Caller: tasks.CallerCLI, Params: params})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		result, err := e.Wait(ctx)
		if ctx.Err() != nil {
			e.Cancel()
			_, err = e.Wait(context.Background())
		}
		if err != nil {
			return err
		}
		if result != "" {
			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(result, "\n"))
		}
		return nil
	},
}

func init() {
	triggerCmd.Flags().StringArrayVarP(&flagParams, "param", "p", nil, "pass key=value to the task as an HTTP-style parameter")
}
