package tui

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/opswatch/piwatch/internal/ledger"
)

// Run starts the ledger browser and blocks until the user quits.
func Run(entries []ledger.Entry) error {
	p := tea.NewProgram(NewLedgerModel(entries), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// ShouldUseTUI returns true if the interactive browser should be used
// based on the environment.
func ShouldUseTUI() bool {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return false
	}
	for _, v := range []string{"CI", "GITHUB_ACTIONS", "JENKINS_URL", "TRAVIS", "CIRCLECI", "GITLAB_CI", "BUILDKITE"} {
		if os.Getenv(v) != "" {
			return false
		}
	}
	return true
}
