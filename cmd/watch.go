package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/opswatch/piwatch/config"
	"github.com/opswatch/piwatch/internal/jira"
	"github.com/opswatch/piwatch/internal/ledger"
	"github.com/opswatch/piwatch/internal/log"
	"github.com/opswatch/piwatch/internal/teams"
	"github.com/opswatch/piwatch/internal/watch"
)

// NewCmdWatch creates the watch command.
func NewCmdWatch(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll for ticket changes and post notifications (same as root piwatch)",
		Long: `Runs the poll loop: fetches open tickets, diffs priority and impact
against the ledger, posts qualifying changes to the channel, and records
the new state. Repeats until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, opts)
		},
	}
	addWatchFlags(cmd, opts)
	return cmd
}

// addWatchFlags adds the watch-specific flags to a command.
func addWatchFlags(cmd *cobra.Command, opts *Options) {
	cmd.Flags().BoolVar(&opts.Once, "once", false, "Run a single poll cycle and exit")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Print notifications to stdout instead of posting")
	cmd.Flags().CountVarP(&opts.Verbosity, "verbose", "v", "Increase verbosity (-v info, -vv debug, -vvv trace)")
}

func runWatch(cmd *cobra.Command, opts *Options) error {
	// Tokens may live in a local .env during development; missing file is
	// not an error.
	_ = godotenv.Load()

	log.Initialize(opts.Verbosity, os.Stderr)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store, err := ledger.Open(cfg.LedgerPath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, err := jira.NewClient(ctx, cfg.Jira, cfg.GetJiraToken())
	if err != nil {
		return err
	}

	var notifier watch.Notifier
	if opts.DryRun {
		notifier = consoleNotifier{}
	} else {
		notifier, err = teams.NewNotifier(ctx, cfg.Teams, cfg.GetTeamsToken())
		if err != nil {
			return err
		}
	}

	w := watch.New(source, notifier, store, cfg.Interval())

	if opts.Once {
		stats, err := w.RunCycle(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Checked %d tickets: %d new, %d priority changes, %d impact changes, %d notified\n",
			stats.Tickets, stats.Discovered, stats.PriorityChanges, stats.ImpactChanges, stats.Notifications)
		return nil
	}

	log.Info("watching", "project", cfg.Jira.Project, "interval", cfg.Interval())
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// consoleNotifier stands in for the channel during --dry-run.
type consoleNotifier struct{}

func (consoleNotifier) Notify(_ context.Context, text string) error {
	fmt.Println(text)
	return nil
}
