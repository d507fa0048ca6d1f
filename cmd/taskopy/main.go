// Command taskopy runs the tasks declared in a taskfile on schedules,
// hotkeys, HTTP requests, file changes and other triggers.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/amonks/taskopy/config"
	"github.com/amonks/taskopy/runner"
	"github.com/amonks/taskopy/taskfile"
	"github.com/amonks/taskopy/tasks"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "taskopy",
	Short: "Run tasks on schedules, hotkeys, HTTP requests and other triggers",
	Long: `taskopy reads task declarations from a taskfile (tasks.toml or tasks.yaml)
and runs each task whenever one of its triggers fires: a schedule, a date, a
hotkey, an HTTP request, a file change, user idleness, an event log entry or a
message on a NATS subject.

Its own settings live in taskopy.toml.`,
	SilenceUsage: true,
}

var (
	flagConfig   string
	flagTaskfile string
	flagAddr     string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", config.Name, "settings file")
	rootCmd.PersistentFlags().StringVarP(&flagTaskfile, "taskfile", "f", "", "taskfile, or a directory containing one (overrides the settings file)")
	rootCmd.PersistentFlags().StringVar(&flagAddr, "addr", "", "HTTP listen address (overrides the settings file)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(triggerCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadSettings reads the settings file and applies the flag overrides.
func loadSettings(cmd *cobra.Command) (config.Settings, error) {
	s, err := config.Load(flagConfig)
	if err != nil {
		return config.Settings{}, err
	}
	if cmd.Flags().Changed("taskfile") {
		s.Taskfile = flagTaskfile
	}
	if cmd.Flags().Changed("addr") {
		s.HTTP.Addr = flagAddr
	}
	return s, nil
}

// loader reads the taskfile afresh on every call, so that it can serve as
// the runner's reload source.
func loader(path string) runner.Loader {
	return func() (tasks.Library, []error, error) {
		tf, err := taskfile.Load(path)
		if err != nil {
			return tasks.NewLibrary(), nil, err
		}
		lib, warnings := tf.ToLibrary()
		return lib, warnings, nil
	}
}

// newLogger builds the diagnostics logger. Without a log file, logs go to
// fallback.
func newLogger(s config.Settings, fallback io.Writer) (*slog.Logger, func() error, error) {
	level, err := s.SlogLevel()
	if err != nil {
		return nil, nil, err
	}
	var (
		w     = fallback
		close = func() error { return nil }
	)
	if s.Log.File != "" {
		f, err := os.OpenFile(s.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		w, close = f, f.Close
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), close, nil
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	italicStyle = lipgloss.NewStyle().Italic(true)
)
