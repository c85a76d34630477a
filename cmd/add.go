package cmd

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/marcus/quotes/internal/models"
	"github.com/marcus/quotes/internal/output"
	"github.com/marcus/quotes/internal/persist"
	"github.com/marcus/quotes/internal/session"
)

var (
	errTextRequired     = errors.New("quote text is required")
	errCategoryRequired = errors.New("category is required")
)

var addCmd = &cobra.Command{
	Use:     "add [text]",
	Aliases: []string{"new"},
	Short:   "Add a quote",
	Long: `Adds a quote to the collection and pushes the collection to the mirror.

Without arguments on a terminal, an interactive form asks for the text and
category.`,
	Example: `  quotes add "Simplicity is prerequisite for reliability." -c Programming
  quotes add`,
	GroupID: "core",
	Args:    cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.TrimSpace(strings.Join(args, " "))
		category, _ := cmd.Flags().GetString("category")
		category = strings.TrimSpace(category)

		sess, err := openSession(cmd, models.SeverityWarning)
		if err != nil {
			return err
		}
		defer sess.Close()

		if (text == "" || category == "") && output.IsTerminal() {
			if err := runAddForm(&text, &category, sess.Categories()); err != nil {
				output.Error("%v", err)
				return err
			}
		}

		r, err := sess.Add(text, category)
		if err != nil {
			if errors.Is(err, session.ErrInvalidRecord) {
				return reportError(cmd, err)
			}
			if errors.Is(err, persist.ErrStorageWrite) {
				output.Warning("added %q but could not save it", r.Text)
			}
			return reportError(cmd, err)
		}

		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			return output.JSON(r)
		}
		output.Success("Added quote [%s]", r.Category)
		return nil
	},
}

// runAddForm asks for the fields that were not given on the command line
func runAddForm(text, category *string, known []string) error {
	var fields []huh.Field
	if *text == "" {
		fields = append(fields, huh.NewText().
			Title("Quote").
			Value(text).
			Placeholder("Quote text...").
			Lines(3).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errTextRequired
				}
				return nil
			}))
	}
	if *category == "" {
		if len(known) > 0 {
			*category = known[0]
		}
		fields = append(fields, huh.NewInput().
			Title("Category").
			Value(category).
			Placeholder("Inspiration").
			Suggestions(known).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errCategoryRequired
				}
				return nil
			}))
	}

	form := huh.NewForm(huh.NewGroup(fields...).Title("New Quote"))
	form.WithTheme(huh.ThemeDracula())
	return form.Run()
}

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().StringP("category", "c", "", "Quote category")
	addCmd.Flags().Bool("json", false, "Output the added quote as JSON")
}
