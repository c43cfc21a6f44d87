package providers

import (
	"github.com/samber/do/v2"

	"github.com/comicbridge/comicbridge/internal/config"
	"github.com/comicbridge/comicbridge/internal/kapowarr"
	"github.com/comicbridge/comicbridge/internal/logger"
	"github.com/comicbridge/comicbridge/internal/mylar"
	"github.com/comicbridge/comicbridge/internal/ratelimit"
)

// ProvideClock provides the clock the limiter reads and sleeps on.
func ProvideClock(i do.Injector) (ratelimit.Clock, error) {
	return ratelimit.SystemClock{}, nil
}

// ProvideLimiter provides the limiter that spaces out source calls.
func ProvideLimiter(i do.Injector) (*ratelimit.Limiter, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	clock := do.MustInvoke[ratelimit.Clock](i)

	limiter := ratelimit.New(cfg.Options.DelayDuration(), clock)
	if !limiter.Enabled() {
		log.Warn("source rate limiting disabled; Mylar may throttle or ban this client",
			"delay", limiter.Delay(),
		)
	}
	return limiter, nil
}

// ProvideMylarClient provides the source catalog client.
func ProvideMylarClient(i do.Injector) (*mylar.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return mylar.New(mylar.Config{
		URL:     cfg.Mylar.URL,
		APIKey:  cfg.Mylar.APIKey,
		Timeout: cfg.Mylar.Timeout,
	}, log.With("component", "mylar")), nil
}

// ProvideKapowarrClient provides the destination catalog client. Dry-run
// is a property of the client, not of the pipeline.
func ProvideKapowarrClient(i do.Injector) (*kapowarr.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return kapowarr.New(kapowarr.Config{
		URL:           cfg.Kapowarr.URL,
		APIKey:        cfg.Kapowarr.APIKey,
		RootFolderID:  cfg.Kapowarr.RootFolderID,
		Root:          cfg.Kapowarr.Root,
		ContainerRoot: cfg.Kapowarr.ContainerRoot,
		Timeout:       cfg.Kapowarr.Timeout,
	}, log.With("component", "kapowarr"), kapowarr.WithDryRun(cfg.Options.DryRun)), nil
}
