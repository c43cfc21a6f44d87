// Package providers contains dependency injection providers for comicbridge.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/comicbridge/comicbridge/internal/config"
	"github.com/comicbridge/comicbridge/internal/logger"
)

// ProvideConfig loads the configuration from the sources in the injected
// config.LoadOptions. It does not validate; commands validate for their scope.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	opts := do.MustInvoke[config.LoadOptions](i)
	return config.Load(opts)
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:     logger.ParseLevel(cfg.Options.LogLevel),
		Format:    cfg.Options.LogFormat,
		AddSource: cfg.Options.LogLevel == "debug",
	})

	if cfg.File != "" {
		log.Debug("configuration loaded", "file", cfg.File)
	}

	return log, nil
}
