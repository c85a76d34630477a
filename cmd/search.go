package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/marcus/quotes/internal/models"
	"github.com/marcus/quotes/internal/output"
)

var searchCmd = &cobra.Command{
	Use:     "search <query>",
	Aliases: []string{"find"},
	Short:   "Fuzzy-search quotes",
	Long:    `Searches quote text and category with fuzzy matching, best matches first.`,
	Example: `  quotes search simplicity
  quotes search "prog reliab"`,
	GroupID: "core",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd, models.SeverityWarning)
		if err != nil {
			return err
		}
		defer sess.Close()

		query := strings.Join(args, " ")
		results := sess.Search(query)

		limit, _ := cmd.Flags().GetInt("limit")
		if limit > 0 && len(results) > limit {
			results = results[:limit]
		}

		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			return output.JSON(results)
		}
		if len(results) == 0 {
			output.Info("No quotes match %q", query)
			return nil
		}
		printRecords(results)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntP("limit", "n", 10, "Max results (0 for all)")
	searchCmd.Flags().Bool("json", false, "Output as JSON")
}
