package memory

import (
	"context"
	"fmt"
)

// AddRelationshipEvent records a relationship milestone. The impact is first
// applied to the relationship level as a direct additive delta, then the
// event is appended with a snapshot of the resulting level.
func (s *System) AddRelationshipEvent(ctx context.Context, description string, importance, impact float64) error {
	if err := s.tracker.AdjustRelationship(ctx, impact); err != nil {
		return fmt.Errorf("apply relationship impact: %w", err)
	}

	now := s.now()
	doc := Document{
		ID:      newID("relationship"),
		Content: description,
		Metadata: map[string]string{
			"timestamp":          formatTime(now),
			"type":               "relationship_event",
			"importance":         formatFloat(importance),
			"impact":             formatFloat(impact),
			"relationship_level": formatFloat(s.tracker.State().RelationshipLevel),
		},
	}
	if err := s.store.Add(ctx, CollectionRelationship, doc); err != nil {
		return fmt.Errorf("add relationship event: %w", err)
	}
	s.log.Debug().Str("id", doc.ID).Float64("impact", impact).Msg("relationship event stored")
	return nil
}
