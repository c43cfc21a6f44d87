package cli

import (
	"github.com/spf13/cobra"

	"github.com/comicbridge/comicbridge/internal/config"
)

const (
	flagConfig     = "config"
	flagEnvFile    = "env-file"
	flagOutput     = "output"
	flagResumeFrom = "resume-from"
)

// addGlobalFlags registers flags every command understands.
func addGlobalFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String(flagConfig, "", "Config file, JSON or YAML (default ./"+config.DefaultConfigFile+" if present)")
	flags.String(flagEnvFile, config.DefaultEnvFile, "Env file loaded before reading the environment")
	flags.StringP(flagOutput, "o", string(formatText), "Output format: text, json, yaml")
}

// addConfigFlags registers one flag per configuration key. Flag names must
// match the keys config.Load binds.
func addConfigFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()

	flags.String("mylar-url", "", "Mylar base URL")
	flags.String("mylar-api-key", "", "Mylar API key")
	flags.Duration("mylar-timeout", 0, "Mylar request timeout")

	flags.String("kapowarr-url", "", "Kapowarr base URL")
	flags.String("kapowarr-api-key", "", "Kapowarr API key")
	flags.Int("root-folder-id", 0, "Kapowarr root folder ID new volumes are created under")
	flags.String("kapowarr-root", "", "Host directory holding Kapowarr's library")
	flags.String("container-root", "", "Library path as Kapowarr reports it (e.g. /comics-1)")
	flags.Duration("kapowarr-timeout", 0, "Kapowarr request timeout")

	flags.Bool("copy-files", false, "Copy downloaded issue files into Kapowarr")
	flags.Bool("refresh-scan", false, "Ask Kapowarr to rescan each volume after migration")
	flags.Bool("mass-rename", false, "Ask Kapowarr to rename files in each volume after migration")
	flags.Bool("dry-run", false, "Report what would change without changing Kapowarr")
	flags.Int("limit", 0, "Migrate at most this many series (0 = all)")
	flags.Int("delay", 0, "Seconds between Mylar requests (default 20)")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.String("log-format", "", "Log format: pretty, json")
	flags.String("history-db", "", "SQLite file recording runs and outcomes")

	flags.String(flagResumeFrom, "", "Start at the series with this title or external ID")
}
