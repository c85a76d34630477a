package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marcus/quotes/internal/models"
	"github.com/marcus/quotes/internal/output"
	"github.com/marcus/quotes/internal/quotes"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List quotes",
	Long:    `Lists every quote in insertion order, or only one category with --category.`,
	GroupID: "core",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd, models.SeverityWarning)
		if err != nil {
			return err
		}
		defer sess.Close()

		category, _ := cmd.Flags().GetString("category")
		records := quotes.ByCategory(sess.Collection(), category)

		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			return output.JSON(records)
		}
		printRecords(records)
		return nil
	},
}

// printRecords writes one truncated line per record
func printRecords(records models.Collection) {
	if len(records) == 0 {
		output.Info(output.NoQuotesMessage)
		return
	}
	width := output.TerminalWidth(80)
	for i, r := range records {
		fmt.Println(output.FormatRecordLine(i+1, r, width))
	}
}

var categoriesCmd = &cobra.Command{
	Use:     "categories",
	Aliases: []string{"cats"},
	Short:   "List categories",
	Long:    `Lists the distinct categories in the collection. The selected filter is marked with *.`,
	GroupID: "core",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd, models.SeverityWarning)
		if err != nil {
			return err
		}
		defer sess.Close()

		cats := sess.Categories()
		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			return output.JSON(map[string]interface{}{
				"categories": cats,
				"selected":   sess.Filter(),
			})
		}
		fmt.Println(output.FormatCategories(cats, sess.Filter()))
		return nil
	},
}

var filterCmd = &cobra.Command{
	Use:   "filter [category]",
	Short: "Show or set the category filter",
	Long: `Without arguments, prints the selected category. With a category, restricts
'quotes show' to it. Use --clear or "all" to show every category again.`,
	GroupID: "core",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd, models.SeverityWarning)
		if err != nil {
			return err
		}
		defer sess.Close()

		clearFlag, _ := cmd.Flags().GetBool("clear")
		switch {
		case clearFlag:
			if err := sess.SetFilter(""); err != nil {
				return reportError(cmd, err)
			}
			output.Success("Showing all categories")
		case len(args) == 1:
			if err := sess.SetFilter(args[0]); err != nil {
				return reportError(cmd, err)
			}
			if f := sess.Filter(); f != "" && f != quotes.AllCategories {
				output.Success("Filter set to %s", f)
			} else {
				output.Success("Showing all categories")
			}
		default:
			f := sess.Filter()
			if f == "" {
				f = quotes.AllCategories
			}
			fmt.Println(f)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(categoriesCmd)
	rootCmd.AddCommand(filterCmd)

	listCmd.Flags().StringP("category", "c", "", "Only list this category")
	listCmd.Flags().Bool("json", false, "Output as JSON")
	categoriesCmd.Flags().Bool("json", false, "Output as JSON")
	filterCmd.Flags().Bool("clear", false, "Clear the filter")
	filterCmd.Flags().Bool("json", false, "Output errors as JSON")
}
