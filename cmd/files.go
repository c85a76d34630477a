package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/marcus/quotes/internal/models"
	"github.com/marcus/quotes/internal/output"
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export quotes as JSON",
	Long: `Writes the collection as an indented JSON array to file, or to stdout when
no file (or "-") is given.`,
	GroupID: "files",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd, models.SeverityWarning)
		if err != nil {
			return err
		}
		defer sess.Close()

		data, err := sess.Export()
		if err != nil {
			return reportError(cmd, err)
		}

		if len(args) == 0 || args[0] == "-" {
			fmt.Println(string(data))
			return nil
		}
		if err := os.WriteFile(args[0], append(data, '\n'), 0644); err != nil {
			output.Error("failed to write %s: %v", args[0], err)
			return err
		}
		output.Success("Exported %d quotes to %s", len(sess.Collection()), args[0])
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the collection from a JSON file",
	Long: `Reads a JSON array of {"text", "category"} objects from file (or stdin with
"-") and replaces the whole collection with it. The new collection is pushed
to the mirror.

Malformed input leaves the collection unchanged.`,
	GroupID: "files",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd, args[0])
		if err != nil {
			return reportError(cmd, err)
		}

		sess, err := openSession(cmd, models.SeverityWarning)
		if err != nil {
			return err
		}
		defer sess.Close()

		n, err := sess.Import(data)
		if err != nil {
			return reportError(cmd, err)
		}

		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			return output.JSON(map[string]int{"imported": n})
		}
		output.Success("Imported %d quotes", n)
		return nil
	},
}

// readInput reads path, or stdin when path is "-"
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

func init() {
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().Bool("json", false, "Output as JSON")
}
