package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marcus/quotes/internal/config"
	"github.com/marcus/quotes/internal/output"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Reads and writes ~/.config/quotes/config.json.

Environment variables (QUOTES_*) take precedence over the file, and the file
over built-in defaults. 'config list' shows the effective values.`,
	GroupID: "system",
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			values := make(map[string]string)
			for _, k := range config.Keys() {
				values[k], _ = settings.Value(k)
			}
			return output.JSON(values)
		}
		for _, k := range config.Keys() {
			v, _ := settings.Value(k)
			fmt.Printf("%-16s %s\n", k, v)
		}
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the effective value of a key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, ok := settings.Value(args[0])
		if !ok {
			err := fmt.Errorf("unknown config key %q", args[0])
			output.Error("%v", err)
			return err
		}
		fmt.Println(v)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> [value]",
	Short: "Store a key in the config file (no value resets it)",
	Example: `  quotes config set sync.policy manual
  quotes config set sync.remote_url http://localhost:8080
  quotes config set sync.interval`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		value := ""
		if len(args) == 2 {
			value = args[1]
		}
		if err := config.Set(args[0], value); err != nil {
			output.Error("%v", err)
			return err
		}
		if value == "" {
			output.Success("Reset %s", args[0])
		} else {
			output.Success("Set %s = %s", args[0], value)
		}
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := config.Path()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		fmt.Println(p)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)

	configListCmd.Flags().Bool("json", false, "Output as JSON")
}
