// Package cli implements the comicbridge command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/comicbridge/comicbridge/internal/config"
	"github.com/comicbridge/comicbridge/internal/errors"
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=v1.2.3".
var Version = "dev"

// Exit codes.
const (
	exitOK          = 0
	exitFailure     = 1
	exitInterrupted = 130
)

// NewRootCommand builds the command tree. Running the root command without
// a subcommand performs a migration.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "comicbridge",
		Short: "Migrate comic series and files from Mylar3 into Kapowarr",
		Long: `comicbridge copies the series a Mylar3 instance tracks into Kapowarr,
optionally with their downloaded issue files. Runs are idempotent: series
and issues already present in Kapowarr are skipped, so an interrupted run
can simply be repeated or resumed with --resume-from.

Configuration is read from config.json (or --config), a .env file,
COMICBRIDGE_* environment variables, and flags, in increasing precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          withApp(config.ScopeMigrate, runMigrate),
	}

	addGlobalFlags(root)
	addConfigFlags(root)

	root.AddCommand(
		newMigrateCommand(),
		newCheckCommand(),
		newFindCommand(),
		newInspectCommand(),
		newSearchCommand(),
		newHistoryCommand(),
		newVersionCommand(),
	)

	return root
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return run(ctx, NewRootCommand(), os.Args[1:], os.Stderr)
}

func run(ctx context.Context, root *cobra.Command, args []string, stderr io.Writer) int {
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)
	return exitCode(err)
}

// exitCode maps a command error to a process exit code. Entity-level
// failures never reach here; they are reported in the run summary.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	default:
		return exitFailure
	}
}
