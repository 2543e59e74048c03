package memory

import (
	"context"
	"fmt"
)

// SemanticSearch queries a collection and drops every hit whose cosine
// distance exceeds threshold. Results come back most similar first, with
// distance already converted to similarity.
//
// Retrieval from the episodic collection reinforces each surfaced record
// (recency + frequency bias): its importance grows and its decay factor
// resets. The returned metadata reflects the values at retrieval time,
// before reinforcement.
func (s *System) SemanticSearch(ctx context.Context, collection, query string, k int, threshold float64, filters ...Filter) ([]SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("result count must be positive, got %d", k)
	}
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("threshold must be within [0, 1], got %g", threshold)
	}

	hits, err := s.store.Query(ctx, collection, query, k, filters...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}

	results := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		if float64(hit.Distance) > threshold {
			continue
		}
		results = append(results, SearchResult{
			ID:         hit.ID,
			Content:    hit.Content,
			Metadata:   hit.Metadata,
			Similarity: 1 - float64(hit.Distance),
		})
	}
	s.log.Debug().Str("collection", collection).Int("hits", len(results)).Msg("semantic search")

	if collection == CollectionEpisodic {
		for _, r := range results {
			if err := s.Reinforce(ctx, r.ID); err != nil {
				s.log.Warn().Err(err).Str("id", r.ID).Msg("reinforcement failed")
			}
		}
	}
	return results, nil
}
