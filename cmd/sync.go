package cmd

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/marcus/quotes/internal/mirror"
	"github.com/marcus/quotes/internal/models"
	"github.com/marcus/quotes/internal/output"
	"github.com/marcus/quotes/internal/session"
	qsync "github.com/marcus/quotes/internal/sync"
	"github.com/marcus/quotes/internal/watch"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Compare local quotes with the mirror",
	Long: `Runs one sync check.

Under the "server" policy a difference is resolved by adopting the mirror's
copy. Under "manual" the difference is reported; on a terminal you are asked
which side to keep, otherwise use 'quotes resolve local|remote'.`,
	GroupID: "sync",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd, models.SeverityWarning)
		if err != nil {
			return err
		}
		defer sess.Close()

		outcome, err := sess.Check(cmd.Context())
		if err != nil {
			return reportError(cmd, err)
		}

		switch outcome {
		case qsync.OutcomeInSync:
			output.Success("In sync (%d quotes)", len(sess.Collection()))
		case qsync.OutcomeAdopted:
			output.Success("Adopted the server copy (%d quotes)", len(sess.Collection()))
		case qsync.OutcomeSkipped:
			output.Info("A sync check is already running")
		case qsync.OutcomeConflict:
			div, _ := sess.Pending()
			fmt.Println(output.FormatDivergence(div.LocalCollection, div.RemoteCollection))

			noPrompt, _ := cmd.Flags().GetBool("no-prompt")
			if noPrompt || !output.IsTerminal() {
				output.Info("Run 'quotes resolve local' or 'quotes resolve remote' to choose.")
				return nil
			}
			d, err := promptDecision()
			if err != nil {
				output.Error("%v", err)
				return err
			}
			if d == "" {
				output.Info("Left unresolved.")
				return nil
			}
			return applyDecision(cmd, sess, d)
		}
		return nil
	},
}

// promptDecision asks which side of a conflict to keep. An empty decision
// means the user chose to decide later.
func promptDecision() (models.Decision, error) {
	var choice string
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Keep which copy?").
			Options(
				huh.NewOption("Keep local (push to server)", string(models.KeepLocal)),
				huh.NewOption("Keep server (discard local changes)", string(models.KeepRemote)),
				huh.NewOption("Decide later", ""),
			).
			Value(&choice),
	))
	form.WithTheme(huh.ThemeDracula())
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", nil
		}
		return "", err
	}
	return models.Decision(choice), nil
}

// applyDecision resolves the pending conflict and reports the result
func applyDecision(cmd *cobra.Command, sess *session.Session, d models.Decision) error {
	if err := sess.Resolve(cmd.Context(), d); err != nil {
		return reportError(cmd, err)
	}
	n := len(sess.Collection())
	if d == models.KeepLocal {
		output.Success("Kept local copy and pushed %d quotes", n)
	} else {
		output.Success("Kept server copy (%d quotes)", n)
	}
	return nil
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <local|remote>",
	Short: "Resolve a sync conflict",
	Long: `Compares with the mirror and, if the copies differ, keeps the chosen side.

  local   push the local collection to the mirror
  remote  replace the local collection with the mirror's copy`,
	GroupID:   "sync",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"local", "remote", "keep-local", "keep-remote"},
	RunE: func(cmd *cobra.Command, args []string) error {
		d, ok := models.ParseDecision(args[0])
		if !ok {
			err := fmt.Errorf("%w: unknown decision %q (want local or remote)", qsync.ErrInvalidResolution, args[0])
			return reportError(cmd, err)
		}

		// A conflict only exists while the engine holds it, so re-detect it
		// under the manual policy before applying the decision.
		settings.Policy = models.PolicyManual
		sess, err := openSession(cmd, models.SeverityWarning)
		if err != nil {
			return err
		}
		defer sess.Close()

		outcome, err := sess.Check(cmd.Context())
		if err != nil {
			return reportError(cmd, err)
		}
		if outcome != qsync.OutcomeConflict {
			output.Info("Nothing to resolve: local and server copies match.")
			return nil
		}
		return applyDecision(cmd, sess, d)
	},
}

var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show sync settings and mirror reachability",
	GroupID: "sync",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd, models.SeverityError)
		if err != nil {
			return err
		}
		defer sess.Close()

		remoteDesc := "local slot"
		var remoteErr error
		if h, ok := sess.Remote().(*mirror.HTTP); ok {
			remoteDesc = h.BaseURL
			_, remoteErr = h.HealthCheck(cmd.Context())
		}
		var remoteCount int
		if remoteErr == nil {
			var remoteCol models.Collection
			remoteCol, remoteErr = sess.Remote().Fetch(cmd.Context())
			remoteCount = len(remoteCol)
		}
		reachable := remoteErr == nil

		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			return output.JSON(map[string]interface{}{
				"session":       sess.ID,
				"policy":        sess.Policy(),
				"compare":       settings.Compare,
				"interval":      sess.Interval().String(),
				"remote":        remoteDesc,
				"reachable":     reachable,
				"local_quotes":  len(sess.Collection()),
				"remote_quotes": remoteCount,
				"filter":        sess.Filter(),
			})
		}

		fmt.Println(output.SectionHeader("Sync"))
		fmt.Printf("  Policy:    %s\n", sess.Policy())
		fmt.Printf("  Compare:   %s\n", settings.Compare)
		fmt.Printf("  Interval:  %s\n", sess.Interval())
		fmt.Printf("  Remote:    %s\n", remoteDesc)
		fmt.Println()
		fmt.Println(output.SectionHeader("Quotes"))
		fmt.Printf("  Local:     %d\n", len(sess.Collection()))
		if reachable {
			fmt.Printf("  Server:    %d\n", remoteCount)
		} else {
			output.Warning("server unavailable: %v", remoteErr)
		}
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Interactive view with periodic sync",
	Long: `Opens a full-screen view that shows a quote and checks the mirror every
sync.interval. Conflicts raised under the manual policy are answered in place.`,
	GroupID: "sync",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if interval, _ := cmd.Flags().GetDuration("interval"); interval > 0 {
			settings.Interval = interval
		}

		bridge := watch.NewBridge(64)
		sess, err := openSessionWith(cmd, bridge)
		if err != nil {
			return err
		}
		defer sess.Close()

		sess.OnChange(bridge.Changed)
		sess.Start()
		defer sess.Stop()

		if err := watch.Run(sess, bridge.Events()); err != nil {
			output.Error("%v", err)
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(watchCmd)

	syncCmd.Flags().Bool("no-prompt", false, "Report conflicts without asking")
	syncCmd.Flags().Bool("json", false, "Output errors as JSON")
	resolveCmd.Flags().Bool("json", false, "Output errors as JSON")
	statusCmd.Flags().Bool("json", false, "Output as JSON")
	watchCmd.Flags().Duration("interval", 0, "Sync check interval (overrides sync.interval)")
}
