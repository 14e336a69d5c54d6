package cmd

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/josephlewis42/minsh/core"
	"github.com/josephlewis42/minsh/core/config"
	"github.com/spf13/cobra"
)

var (
	cfgPath  string
	exitCode int
)

func loadConfig() (*config.Configuration, error) {
	configuration, err := config.Load(cfgPath)

	if errors.Is(err, fs.ErrNotExist) {
		log.Println("Couldn't load config: did you run init?")
	}

	return configuration, err
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "minsh")
}

// rootCmd starts the interactive shell when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "minsh",
	Short: "A minimal shell with background jobs",
	Long: `minsh reads one command per line and runs it in the foreground, or in the
background when the line ends with &. Standard input and output can be
redirected with <, > and >>. Every child is reported when it terminates.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		configuration, err := config.LoadOrDefault(cfgPath)
		if err != nil {
			return err
		}

		shell, err := core.NewShell(core.Options{Config: configuration})
		if err != nil {
			return err
		}
		defer shell.Close()

		exitCode = shell.Run(cmd.Context())
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
// The result is the process exit status.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return exitCode
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", defaultConfigPath(), "config path")
}
