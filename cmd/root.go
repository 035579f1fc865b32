package cmd

import (
	"github.com/spf13/cobra"
	"github.com/stratastor/lifeline/cmd/check"
	"github.com/stratastor/lifeline/cmd/config"
	"github.com/stratastor/lifeline/cmd/status"
	"github.com/stratastor/lifeline/cmd/version"
	"github.com/stratastor/lifeline/cmd/watch"
	lconfig "github.com/stratastor/lifeline/config"
)

func NewRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "lifeline",
		Short: "Lifeline: connection monitor for chat applications",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Subcommands read the process-wide config through GetConfig
			if configPath != "" {
				lconfig.LoadConfig(configPath)
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file")

	rootCmd.AddCommand(watch.NewWatchCmd())
	rootCmd.AddCommand(version.NewVersionCmd())
	rootCmd.AddCommand(check.NewCheckCmd())
	rootCmd.AddCommand(status.NewStatusCmd())
	rootCmd.AddCommand(config.NewConfigCmd())

	return rootCmd
}
