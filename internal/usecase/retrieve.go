package usecase

import (
	"fmt"
	"log/slog"

	"semindex/internal/domain"
)

// Query ranks the stored chunks against text by cosine similarity and
// returns at most topK results, best first. Ties keep insertion order.
func (x *Index) Query(text string, topK int) ([]domain.Result, error) {
	if topK < 1 {
		return nil, fmt.Errorf("%w: top_k must be positive, got %d", domain.ErrInvalidArgument, topK)
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if !x.ready || x.table.Len() == 0 {
		return nil, domain.ErrEmptyIndex
	}

	if x.cache != nil {
		if results, ok := x.cache.Get(text, topK); ok {
			return results, nil
		}
	}

	q, err := x.vec.embed(text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results := x.table.Search(q, topK)
	if x.cache != nil {
		x.cache.Put(text, topK, results)
	}

	x.log.Debug("query_complete",
		slog.Int("top_k", topK),
		slog.Int("results", len(results)))
	return results, nil
}
