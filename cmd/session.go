package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/marcus/quotes/internal/models"
	"github.com/marcus/quotes/internal/output"
	"github.com/marcus/quotes/internal/session"
	qsync "github.com/marcus/quotes/internal/sync"
)

// openSession opens a session over the resolved settings. Sync
// notifications at or above minSeverity are written to stderr.
func openSession(cmd *cobra.Command, minSeverity models.Severity) (*session.Session, error) {
	return openSessionWith(cmd, &output.StatusNotifier{W: os.Stderr, MinSeverity: minSeverity})
}

func openSessionWith(cmd *cobra.Command, notifier qsync.Notifier) (*session.Session, error) {
	sess, err := session.OpenConfig(cmd.Context(), settings, notifier)
	if err != nil {
		return nil, reportError(cmd, err)
	}
	return sess, nil
}
