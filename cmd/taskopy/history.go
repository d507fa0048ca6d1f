package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amonks/taskopy/history"
	"github.com/amonks/taskopy/internal/color"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var flagLimit int

var historyCmd = &cobra.Command{
	Use:   "history [id]",
	Short: "Show recent runs, optionally of one task",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		if s.History.Path == "" {
			return errors.New("history is disabled: history.path is empty")
		}
		store, err := history.Open(s.History.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		q := history.Query{Limit: flagLimit}
		if len(args) == 1 {
			q.TaskID = args[0]
		}
		runs, err := store.List(cmd.Context(), q)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no runs")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), historyTable(runs))
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&flagLimit, "limit", "n", 50, "show at most this many runs")
}

func historyTable(runs []history.Run) string {
	rows := make([][]string, len(runs))
	for i, run := range runs {
		took := "-"
		if d := run.Duration(); d > 0 {
			took = d.Round(time.Millisecond).String()
		}
		rows[i] = []string{
			run.StartedAt.Local().Format(time.DateTime),
			run.TaskID,
			run.Caller,
			run.Outcome,
			took,
			firstLine(run.Error),
		}
	}
	return table.New().
		Border(lipgloss.HiddenBorder()).
		Headers("STARTED", "TASK", "CALLER", "OUTCOME", "TOOK", "ERROR").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().PaddingRight(1)
			if row == table.HeaderRow {
				return headerStyle.Copy().PaddingRight(1)
			}
			i := row - table.HeaderRow - 1
			if i < 0 || i >= len(rows) {
				return style
			}
			switch {
			case col == 1:
				return style.Foreground(color.Hash(rows[i][1]))
			case col == 3:
				return style.Foreground(color.Outcome(rows[i][3]))
			}
			return style
		}).
		String()
}

func firstLine(s string) string {
	l, _, _ := strings.Cut(s, "\n")
	return l
}
