package cli

import (
	"context"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/comicbridge/comicbridge/internal/config"
	"github.com/comicbridge/comicbridge/internal/di"
	"github.com/comicbridge/comicbridge/internal/di/providers"
	"github.com/comicbridge/comicbridge/internal/logger"
)

// app holds what a command needs once configuration is loaded.
type app struct {
	injector *do.RootScope
	cfg      *config.Config
	log      *logger.Logger
	out      *renderer
}

// close shuts down every constructed service, e.g. the history database.
func (a *app) close() {
	if err := a.injector.Shutdown(); err != nil {
		a.log.Debug("container shutdown", "result", err)
	}
}

type runFunc func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error

// withApp wraps a command with configuration loading and validation for
// scope. Services are shut down when fn returns.
func withApp(scope config.Scope, fn runFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd, scope)
		if err != nil {
			return err
		}
		defer a.close()

		return fn(cmd.Context(), a, cmd, args)
	}
}

func bootstrap(cmd *cobra.Command, scope config.Scope) (*app, error) {
	flags := cmd.Flags()
	configFile, _ := flags.GetString(flagConfig)
	envFile, _ := flags.GetString(flagEnvFile)
	resumeFrom, _ := flags.GetString(flagResumeFrom)
	output, _ := flags.GetString(flagOutput)

	out, err := newRenderer(cmd.OutOrStdout(), output)
	if err != nil {
		return nil, err
	}

	injector := di.NewContainer(di.Params{
		Load: config.LoadOptions{
			ConfigFile: configFile,
			EnvFile:    envFile,
			Flags:      flags,
		},
		Run: providers.RunFlags{ResumeFrom: resumeFrom},
	})

	cfg, err := do.Invoke[*config.Config](injector)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(scope); err != nil {
		return nil, err
	}

	log, err := do.Invoke[*logger.Logger](injector)
	if err != nil {
		return nil, err
	}

	return &app{injector: injector, cfg: cfg, log: log, out: out}, nil
}

// invoke resolves a service from the container.
func invoke[T any](a *app) (T, error) {
	return do.Invoke[T](a.injector)
}
