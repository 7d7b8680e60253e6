package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opswatch/piwatch/config"
	"github.com/opswatch/piwatch/internal/ledger"
	"github.com/opswatch/piwatch/internal/output"
	"github.com/opswatch/piwatch/internal/tui"
)

// NewCmdLedger creates the ledger command with subcommands.
func NewCmdLedger(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect and repair the ticket ledger",
	}

	cmd.AddCommand(newCmdLedgerList(opts))
	cmd.AddCommand(newCmdLedgerBrowse())
	cmd.AddCommand(newCmdLedgerPath())
	cmd.AddCommand(newCmdLedgerRm())

	return cmd
}

// openLedger resolves the configured ledger path and opens the store.
// It fails if a watcher currently holds the single-writer lock.
func openLedger() (*ledger.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return ledger.Open(cfg.LedgerPath)
}

func newCmdLedgerList(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the recorded state of every ticket",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openLedger()
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.All()
			if err != nil {
				return err
			}

			switch opts.Format {
			case "", "table":
				return output.TableFormatter{}.Format(os.Stdout, entries)
			case "json":
				return output.JSONFormatter{}.Format(os.Stdout, entries)
			default:
				return fmt.Errorf("unknown output format %q (use table or json)", opts.Format)
			}
		},
	}
	cmd.Flags().StringVarP(&opts.Format, "output", "o", "table", "Output format (table, json)")
	return cmd
}

func newCmdLedgerBrowse() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse the ledger interactively",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !tui.ShouldUseTUI() {
				return fmt.Errorf("browse requires an interactive terminal; use 'piwatch ledger list' instead")
			}
			store, err := openLedger()
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.All()
			if err != nil {
				return err
			}
			return tui.Run(entries)
		},
	}
}

func newCmdLedgerPath() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the ledger database path",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			fmt.Println(cfg.LedgerPath)
			return nil
		},
	}
}

func newCmdLedgerRm() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <ticket-id>",
		Short: "Remove a ticket's entry (operator repair)",
		Long: `Removes one ticket from the ledger. The watcher itself never deletes
entries; after removal the ticket is treated as newly discovered on the
next poll cycle.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openLedger()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Delete(args[0]); err != nil {
				return err
			}
			fmt.Printf("Removed %s from the ledger.\n", args[0])
			return nil
		},
	}
}
