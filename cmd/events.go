package cmd

import (
	"fmt"

	"github.com/josephlewis42/minsh/core/logger"
	"github.com/spf13/cobra"
	"go.trai.ch/zerr"
	"sigs.k8s.io/yaml"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Explore the job event log.",
}

// readEvents feeds every entry of the configured event log to handler.
func readEvents(handler func(logger.Entry)) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}

	if config.EventLogPath() == "" {
		return zerr.With(zerr.New("the event log is disabled"), "config", config.Dir())
	}

	fd, err := config.ReadEventLog()
	if err != nil {
		return err
	}
	defer fd.Close()

	return logger.ReadJSONLinesLog(fd, handler)
}

func printYAML(cmd *cobra.Command, v any) error {
	out, err := yaml.Marshal(v)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

var reportCommand = &cobra.Command{
	Use:   "report",
	Short: "Show a report of events.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		report := logger.NewReport()
		if err := readEvents(report.Update); err != nil {
			return err
		}

		return printYAML(cmd, report)
	},
}

var sessionsCommand = &cobra.Command{
	Use:   "sessions",
	Short: "Show the commands run in each session.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		var history logger.SessionHistory
		if err := readEvents(history.Update); err != nil {
			return err
		}

		return printYAML(cmd, &history)
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(reportCommand)
	eventsCmd.AddCommand(sessionsCommand)
}
