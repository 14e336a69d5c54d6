package cmd

import (
	"fmt"
	"sort"

	"github.com/josephlewis42/minsh/core"
	"github.com/spf13/cobra"
)

var builtinsCmd = &cobra.Command{
	Use:   "builtins",
	Short: "Show the commands built into the shell.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		var builtins []string

		for name, b := range core.AllBuiltins {
			line := "shell:" + name
			if b.Description != "" {
				line += " - " + b.Description
			}
			if b.ForegroundOnly {
				line += " (foreground only)"
			}
			builtins = append(builtins, line)
		}

		sort.Strings(builtins)

		for _, v := range builtins {
			fmt.Fprintln(cmd.OutOrStdout(), v)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(builtinsCmd)
}
