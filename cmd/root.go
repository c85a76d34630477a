package cmd

import (
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marcus/quotes/internal/config"
	"github.com/marcus/quotes/internal/logging"
	"github.com/marcus/quotes/internal/models"
)

var (
	version string

	// settings is resolved once per invocation in PersistentPreRunE
	settings  config.Settings
	logCloser io.Closer

	dataDirFlag   string
	remoteURLFlag string
	policyFlag    = enumFlag[models.Policy]{parse: models.ParsePolicy, typ: "policy"}
	compareFlag   = enumFlag[models.CompareMode]{parse: models.ParseCompareMode, typ: "mode"}
)

// SetVersion sets the version string
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

var rootCmd = &cobra.Command{
	Use:   "quotes",
	Short: "Quote collection with mirror sync",
	Long: `quotes - A small quote collection kept in sync with a remote mirror.

Quotes live in a local store. Every change is pushed to the mirror, and a
periodic check compares the two copies: under the "server" policy the mirror
wins, under "manual" you choose which side to keep.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadSettings,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// closeLog releases the log file. It runs as a cobra finalizer so failing
// commands close it too.
func closeLog() {
	if logCloser != nil {
		logCloser.Close()
		logCloser = nil
	}
}

// loadSettings resolves config (env > file > default), applies global flag
// overrides and installs the logger.
func loadSettings(cmd *cobra.Command, args []string) error {
	settings = config.Resolve()
	if dataDirFlag != "" {
		settings.DataDir = dataDirFlag
	}
	if remoteURLFlag != "" {
		settings.RemoteURL = remoteURLFlag
	}
	if policyFlag.set {
		settings.Policy = policyFlag.value
	}
	if compareFlag.set {
		settings.Compare = compareFlag.value
	}

	logCloser = logging.Setup(logging.Options{
		Level:  settings.LogLevel,
		Format: settings.LogFormat,
		File:   settings.LogFile,
	})
	return nil
}

// nameWithAliases returns "name, alias1, alias2" if aliases exist, else just "name"
func nameWithAliases(cmd *cobra.Command) string {
	if len(cmd.Aliases) > 0 {
		return cmd.Name() + ", " + strings.Join(cmd.Aliases, ", ")
	}
	return cmd.Name()
}

func init() {
	// Add custom template function for showing aliases
	cobra.AddTemplateFunc("nameWithAliases", nameWithAliases)

	// Custom usage template that shows aliases inline
	usageTemplate := `Usage:{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}{{if gt (len .Aliases) 0}}

Aliases:
  {{.NameAndAliases}}{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}{{if .HasAvailableSubCommands}}{{$cmds := .Commands}}{{if eq (len .Groups) 0}}

Available Commands:{{range $cmds}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad (nameWithAliases .) (add .NamePadding 8)}} {{.Short}}{{end}}{{end}}{{else}}{{range $group := .Groups}}

{{.Title}}{{range $cmds}}{{if (and (eq .GroupID $group.ID) (or .IsAvailableCommand (eq .Name "help")))}}
  {{rpad (nameWithAliases .) (add .NamePadding 8)}} {{.Short}}{{end}}{{end}}{{end}}{{if not .AllChildCommandsHaveGroup}}

Additional Commands:{{range $cmds}}{{if (and (eq .GroupID "") (or .IsAvailableCommand (eq .Name "help")))}}
  {{rpad (nameWithAliases .) (add .NamePadding 8)}} {{.Short}}{{end}}{{end}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasHelpSubCommands}}

Additional help topics:{{range .Commands}}{{if .IsAdditionalHelpTopicCommand}}
  {{rpad .CommandPath .CommandPathPadding}} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableSubCommands}}

Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`

	// Need to add the 'add' function for padding calculation
	cobra.AddTemplateFunc("add", func(a, b int) int { return a + b })

	rootCmd.SetUsageTemplate(usageTemplate)
	cobra.OnFinalize(closeLog)

	rootCmd.AddGroup(
		&cobra.Group{ID: "core", Title: "Quote Commands:"},
		&cobra.Group{ID: "files", Title: "File Commands:"},
		&cobra.Group{ID: "sync", Title: "Sync Commands:"},
		&cobra.Group{ID: "system", Title: "System Commands:"},
	)

	rootCmd.SetHelpCommandGroupID("system")
	rootCmd.SetCompletionCommandGroupID("system")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDirFlag, "data-dir", "", "Directory holding store.db (overrides data_dir)")
	pf.StringVar(&remoteURLFlag, "remote", "", "Mirror server URL (overrides sync.remote_url)")
	pf.Var(&policyFlag, "policy", "Conflict policy: server or manual (overrides sync.policy)")
	pf.Var(&compareFlag, "compare", "Snapshot comparison: bytes or structural (overrides sync.compare)")
}
