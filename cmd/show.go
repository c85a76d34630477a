package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marcus/quotes/internal/models"
	"github.com/marcus/quotes/internal/output"
)

var showCmd = &cobra.Command{
	Use:     "show",
	Aliases: []string{"random", "quote"},
	Short:   "Show a random quote",
	Long: `Shows a random quote from the selected category (see 'quotes filter').

With --last, shows the quote displayed most recently instead.`,
	GroupID: "core",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd, models.SeverityWarning)
		if err != nil {
			return err
		}
		defer sess.Close()

		last, _ := cmd.Flags().GetBool("last")
		jsonOut, _ := cmd.Flags().GetBool("json")
		plain, _ := cmd.Flags().GetBool("plain")

		var (
			r  models.Record
			ok bool
		)
		if last {
			r, ok = sess.LastViewed()
		} else {
			r, ok = sess.Random()
		}

		if !ok {
			if jsonOut {
				output.JSONError(output.ErrCodeNotFound, output.NoQuotesMessage)
				return nil
			}
			if last {
				output.Info("No quote has been shown yet.")
				return nil
			}
			output.Info(output.NoQuotesMessage)
			return nil
		}

		if jsonOut {
			return output.JSON(r)
		}
		if plain || !output.IsTerminal() {
			fmt.Println(output.FormatQuote(r))
			return nil
		}
		fmt.Print(output.RenderQuote(r))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().Bool("last", false, "Show the last viewed quote")
	showCmd.Flags().Bool("json", false, "Output as JSON")
	showCmd.Flags().Bool("plain", false, "Disable markdown rendering")
}
