package main

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), versionText())
	},
}

func versionText() string {
	b := &strings.Builder{}
	fmt.Fprintln(b, headerStyle.Render("VERSION"))

	info, ok := debug.ReadBuildInfo()
	if !ok {
		fmt.Fprintln(b, "  Version: unknown")
		return b.String()
	}
	fmt.Fprintln(b, "  Version:", info.Main.Version)

	settings := map[string]string{}
	for _, s := range info.Settings {
		settings[s.Key] = s.Value
	}
	if rev := settings["vcs.revision"]; rev != "" {
		if settings["vcs.modified"] == "true" {
			fmt.Fprintln(b, "  Dirty Build")
			fmt.Fprintln(b, "  Last commit:", settings["vcs.time"])
		} else {
			fmt.Fprintln(b, "  Revision:", rev)
			fmt.Fprintln(b, "  Committed:", settings["vcs.time"])
		}
	}
	fmt.Fprintln(b, "  Go:", info.GoVersion)
	return b.String()
}
