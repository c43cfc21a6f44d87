package providers

import (
	"github.com/samber/do/v2"

	"github.com/comicbridge/comicbridge/internal/config"
	"github.com/comicbridge/comicbridge/internal/history"
	"github.com/comicbridge/comicbridge/internal/logger"
	"github.com/comicbridge/comicbridge/internal/search"
)

// HistoryHandle wraps the optional history store with shutdown capability.
// Store is nil when no history database is configured.
type HistoryHandle struct {
	*history.Store
}

// Enabled reports whether a history database is open.
func (h *HistoryHandle) Enabled() bool {
	return h.Store != nil
}

// Shutdown implements do.Shutdownable.
func (h *HistoryHandle) Shutdown() error {
	if h.Store == nil {
		return nil
	}
	return h.Close()
}

// ProvideHistory opens the history database when options.history_db is set.
func ProvideHistory(i do.Injector) (*HistoryHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Options.HistoryDB == "" {
		return &HistoryHandle{}, nil
	}

	store, err := history.Open(cfg.Options.HistoryDB, log.With("component", "history"))
	if err != nil {
		return nil, err
	}

	log.Debug("history database opened", "path", cfg.Options.HistoryDB)
	return &HistoryHandle{Store: store}, nil
}

// ProvideSearchIndex provides the in-memory series index.
func ProvideSearchIndex(i do.Injector) (*search.Index, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return search.NewIndex(log.With("component", "search"))
}
