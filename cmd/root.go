package cmd

import (
	"github.com/spf13/cobra"
)

// New creates the root command with all subcommands registered.
func New() *cobra.Command {
	opts := &Options{}

	rootCmd := &cobra.Command{
		Use:   "piwatch",
		Short: "Production-issue ticket watcher",
		Long: `Polls a JIRA project for priority and impact changes on open tickets
and announces qualifying changes to a Teams channel. Last-seen state is
kept in a local ledger so each real change is announced at most once.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts)
		},
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	// Watch flags on the root so `piwatch` and `piwatch watch` work
	// identically.
	addWatchFlags(rootCmd, opts)

	rootCmd.AddCommand(NewCmdWatch(opts))
	rootCmd.AddCommand(NewCmdLedger(opts))
	rootCmd.AddCommand(NewCmdConfig())
	rootCmd.AddCommand(NewCmdVersion())

	return rootCmd
}
