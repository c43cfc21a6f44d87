package providers

import (
	"github.com/samber/do/v2"

	"github.com/comicbridge/comicbridge/internal/config"
	"github.com/comicbridge/comicbridge/internal/kapowarr"
	"github.com/comicbridge/comicbridge/internal/logger"
	"github.com/comicbridge/comicbridge/internal/migrate"
	"github.com/comicbridge/comicbridge/internal/mylar"
	"github.com/comicbridge/comicbridge/internal/ratelimit"
	"github.com/comicbridge/comicbridge/internal/search"
)

// RunFlags carries migrate settings that only exist on the command line.
type RunFlags struct {
	ResumeFrom string
}

// ProvideMigrateOptions merges configured options with the run flags.
func ProvideMigrateOptions(i do.Injector) (migrate.Options, error) {
	cfg := do.MustInvoke[*config.Config](i)
	flags := do.MustInvoke[RunFlags](i)

	return migrate.Options{
		CopyFiles:   cfg.Options.CopyFiles,
		RefreshScan: cfg.Options.RefreshScan,
		MassRename:  cfg.Options.MassRename,
		DryRun:      cfg.Options.DryRun,
		Limit:       cfg.Options.Limit,
		ResumeFrom:  flags.ResumeFrom,
	}, nil
}

// ProvidePipeline provides the transfer pipeline with the search index as
// resume-marker suggester and, when enabled, the history store as recorder.
func ProvidePipeline(i do.Injector) (*migrate.Pipeline, error) {
	log := do.MustInvoke[*logger.Logger](i)
	source := do.MustInvoke[*mylar.Client](i)
	destination := do.MustInvoke[*kapowarr.Client](i)
	limiter := do.MustInvoke[*ratelimit.Limiter](i)
	opts := do.MustInvoke[migrate.Options](i)
	index := do.MustInvoke[*search.Index](i)
	hist := do.MustInvoke[*HistoryHandle](i)

	pipeline := migrate.New(source, destination, limiter, opts, log.With("component", "migrate"))
	pipeline.SetSuggester(index)
	if hist.Enabled() {
		pipeline.SetRecorder(hist.Store)
	}

	return pipeline, nil
}
