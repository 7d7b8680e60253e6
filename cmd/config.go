package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opswatch/piwatch/config"
)

// NewCmdConfig creates the config command with subcommands.
func NewCmdConfig() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage piwatch configuration",
	}

	cmd.AddCommand(newCmdConfigShow())
	cmd.AddCommand(newCmdConfigInit())
	cmd.AddCommand(newCmdConfigPath())

	return cmd
}

func newCmdConfigShow() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			yml, err := cfg.ToYAML()
			if err != nil {
				return err
			}
			fmt.Print(yml)
			return nil
		},
	}
}

func newCmdConfigInit() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := config.ConfigPath()
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("config file already exists at %s", path)
			}
			if err := config.SaveTo(path, config.MinimalConfig()); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}
}

func newCmdConfigPath() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print config file locations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			global := config.ConfigPath()
			local := config.LocalConfigPath()
			fmt.Printf("global: %s", global)
			if _, err := os.Stat(global); err != nil {
				fmt.Print(" (not found)")
			}
			fmt.Println()
			fmt.Printf("local:  %s", local)
			if _, err := os.Stat(local); err != nil {
				fmt.Print(" (not found)")
			}
			fmt.Println()
			return nil
		},
	}
}
