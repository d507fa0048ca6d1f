package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/amonks/taskopy/internal/color"
	"github.com/amonks/taskopy/internal/styles"
	"github.com/amonks/taskopy/taskfile"
	"github.com/amonks/taskopy/tasks"
	"github.com/muesli/reflow/dedent"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the tasks and their triggers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		tf, err := taskfile.Load(s.Taskfile)
		if err != nil {
			return err
		}
		lib, warnings := tf.ToLibrary()
		fmt.Fprint(cmd.OutOrStdout(), tasklistText(lib))
		printWarnings(cmd.ErrOrStderr(), warnings)
		return nil
	},
}

func tasklistText(lib tasks.Library) string {
	b := &strings.Builder{}
	fmt.Fprintln(b, headerStyle.Render("TASKS"))
	for i, id := range lib.IDs() {
		if i != 0 {
			b.WriteString("\n")
		}
		cfg := lib.Task(id).Config()

		fmt.Fprintf(b, "  %s %s\n", color.RenderHash(id), styles.Muted.Render(cfg.DisplayName()))
		if cfg.Description != "" {
			desc := strings.TrimRight(dedent.String(cfg.Description), "\n")
			b.WriteString(indent.String(italicStyle.Render(wordwrap.String(desc, 70)), 6) + "\n")
		}
		if triggers := triggerList(cfg); len(triggers) != 0 {
			fmt.Fprintf(b, "    Triggers:\n")
			for _, t := range triggers {
				fmt.Fprintf(b, "      - %s\n", t)
			}
		}
	}
	return b.String()
}

// triggerList describes every trigger cfg declares.
func triggerList(cfg tasks.Config) []string {
	var out []string
	for _, expr := range cfg.Schedule {
		out = append(out, "schedule: "+expr)
	}
	for _, d := range cfg.Date {
		out = append(out, "date: "+d)
	}
	if cfg.Hotkey != "" {
		out = append(out, "hotkey: "+cfg.Hotkey)
	}
	if cfg.HTTP {
		out = append(out, "http: /"+cfg.Route())
	}
	if cfg.FileChange != "" {
		out = append(out, "file change: "+cfg.FileChange)
	}
	if cfg.Idle > 0 {
		out = append(out, "idle: "+cfg.Idle.String())
	}
	if cfg.EventLog != "" {
		out = append(out, "event log: "+cfg.EventLog)
	}
	if cfg.Subscribe != "" {
		out = append(out, "subscribe: "+cfg.Subscribe)
	}
	for _, f := range []struct {
		on   bool
		name string
	}{
		{cfg.Startup, "startup"},
		{cfg.SysStartup, "sys_startup"},
		{cfg.OnLoad, "on_load"},
		{cfg.OnExit, "on_exit"},
		{cfg.LeftClick, "left_click"},
	} {
		if f.on {
			out = append(out, f.name)
		}
	}
	return out
}

func printWarnings(w io.Writer, warnings []error) {
	for _, warning := range warnings {
		fmt.Fprintln(w, styles.Warn.Render("warning: ")+warning.Error())
	}
}
