package config

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stratastor/lifeline/config"
	"gopkg.in/yaml.v2"
)

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage Lifeline configuration",
	}

	cmd.AddCommand(NewLoadConfigCmd())
	cmd.AddCommand(NewPrintConfigCmd())
	cmd.AddCommand(NewSaveConfigCmd())
	return cmd
}

func NewLoadConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load [path]",
		Short: "Load and validate the configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.GetLoadedConfigPath()
			if len(args) == 1 {
				path = args[0]
			}

			cfg, err := config.Load(config.ResolvePath(path))
			if cfg == nil {
				return err
			}
			if err != nil {
				fmt.Printf("Configuration loaded, but defaults could not be saved: %v\n", err)
			}
			fmt.Printf("Configuration loaded from: %s\n", config.ResolvePath(path))
			return nil
		},
	}

	return cmd
}

func NewPrintConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "print",
		Short: "Print the currently loaded configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetConfig()
			if cfg == nil {
				return fmt.Errorf("no configuration loaded")
			}

			// Convert the config to YAML format
			ymlData, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config to YAML: %v", err)
			}

			fmt.Printf("Current Configuration:\n%s\n", string(ymlData))
			return nil
		},
	}

	return cmd
}

func NewSaveConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save [path]",
		Short: "Write the loaded configuration, with defaults filled in, to a file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config.GetConfig()
			path := config.GetLoadedConfigPath()
			if len(args) == 1 {
				path = config.ResolvePath(args[0])
			}

			if err := config.SaveConfig(path); err != nil {
				return err
			}
			fmt.Printf("Configuration saved to: %s\n", config.GetLoadedConfigPath())
			return nil
		},
	}

	return cmd
}
