package search

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/comicbridge/comicbridge/internal/domain"
)

// Index wraps an in-memory Bleve index of source series.
//
// All public methods are safe for concurrent use.
type Index struct {
	index  bleve.Index
	logger *slog.Logger
	mu     sync.RWMutex // Protects index replacement during Reset
}

// NewIndex creates an empty in-memory index.
func NewIndex(logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &Index{
		index:  index,
		logger: logger,
	}, nil
}

// Close releases the index.
func (s *Index) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// Shutdown implements the container's shutdown hook.
func (s *Index) Shutdown() error {
	return s.Close()
}

// IndexSeries adds or replaces series in the index, in batches.
func (s *Index) IndexSeries(series []domain.SeriesRecord) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const batchSize = 500

	for i := 0; i < len(series); i += batchSize {
		end := min(i+batchSize, len(series))

		batch := s.index.NewBatch()
		for _, record := range series[i:end] {
			doc := NewSeriesDocument(record)
			if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}

		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}

	s.logger.Debug("indexed series", "count", len(series))
	return nil
}

// Reset drops every document and indexes series from scratch.
func (s *Index) Reset(series []domain.SeriesRecord) error {
	s.mu.Lock()
	fresh, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("create index: %w", err)
	}
	old := s.index
	s.index = fresh
	s.mu.Unlock()

	if err := old.Close(); err != nil {
		s.logger.Warn("failed to close previous search index", "error", err)
	}
	return s.IndexSeries(series)
}

// DocumentCount returns the number of indexed series.
func (s *Index) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}
