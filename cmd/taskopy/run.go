package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amonks/taskopy/config"
	"github.com/amonks/taskopy/history"
	"github.com/amonks/taskopy/httpapi"
	"github.com/amonks/taskopy/internal/metrics"
	"github.com/amonks/taskopy/printer"
	"github.com/amonks/taskopy/runner"
	"github.com/amonks/taskopy/subscribe"
	"github.com/amonks/taskopy/taskfile"
	"github.com/amonks/taskopy/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var flagUI string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the dispatcher",
	Long: `run loads the taskfile, binds every task to its triggers and runs them until
interrupted. On a terminal it shows a menu of tasks; otherwise, or with
--ui=printer, it prints every task's output.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		useTUI, err := chooseUI(flagUI)
		if err != nil {
			return err
		}
		return run(cmd.Context(), s, useTUI)
	},
}

func init() {
	runCmd.Flags().StringVar(&flagUI, "ui", "", "force a particular ui: 'tui' or 'printer'")
}

func chooseUI(ui string) (bool, error) {
	switch ui {
	case "tui":
		return true, nil
	case "printer":
		return false, nil
	case "":
		return term.IsTerminal(int(os.Stdout.Fd())) && term.IsTerminal(int(os.Stdin.Fd())), nil
	default:
		return false, fmt.Errorf("invalid --ui %q: legal values are 'tui' and 'printer'", ui)
	}
}

type console interface {
	runner.MultiWriter
	runner.Notifier
}

func run(ctx context.Context, s config.Settings, useTUI bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	var (
		ui      *tui.TUI
		out     console
		logSink io.Writer = os.Stderr
	)
	if useTUI {
		ui = tui.New()
		out, logSink = ui, ui.Writer(runner.LogID)
	} else {
		out = printer.New(printer.GutterWidth(nil), os.Stdout)
	}

	logger, closeLog, err := newLogger(s, logSink)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	opts := runner.Options{
		Load:             loader(s.Taskfile),
		Output:           out,
		Notifier:         out,
		Metrics:          metrics.New(),
		Logger:           logger,
		ErrThreshold:     s.ErrThreshold,
		SysStartupWindow: s.SysStartup.Window,
	}
	if s.AutoReload {
		if path, err := taskfile.Find(s.Taskfile); err == nil {
			opts.Taskfile = path
		}
	}

	if s.History.Path != "" {
		store, err := history.Open(s.History.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		if s.History.Retention > 0 {
			if n, err := store.Prune(ctx, time.Now().Add(-s.History.Retention)); err != nil {
				logger.Warn("pruning history", "error", err)
			} else if n > 0 {
				logger.Info("pruned history", "runs", n)
			}
		}
		opts.Recorder = store
	}

	if s.NATS.URL != "" {
		nc, err := subscribe.Connect(s.NATS.URL, logger)
		if err != nil {
			// Subscribe triggers become warnings; everything else runs.
			logger.Error("connecting to NATS", "error", err)
		} else {
			defer nc.Close()
			opts.Subscriber = nc
		}
	}

	r := runner.New(opts)
	if err := r.Start(ctx); err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := r.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutting down", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	httpErr := make(chan error, 1)
	if s.HTTP.Addr != "" {
		srv := httpapi.New(r, httpapi.Options{
			WhiteList:     s.WhiteList(),
			ResultTimeout: s.HTTP.ResultTimeout,
			Metrics:       opts.Metrics,
			Logger:        logger,
		})
		go func() { httpErr <- srv.ListenAndServe(ctx, s.HTTP.Addr) }()
	}

	if ui != nil {
		uiErr := make(chan error, 1)
		go func() { uiErr <- ui.Run(ctx, os.Stdin, os.Stdout, r) }()
		select {
		case err := <-uiErr:
			return err
		case err := <-httpErr:
			cancel()
			<-uiErr
			return serveErr(err)
		}
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-httpErr:
		return serveErr(err)
	}
}

func serveErr(err error) error {
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("http: %w", err)
}
