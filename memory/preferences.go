package memory

import (
	"context"
	"fmt"
)

// AddUserPreference records a liked or disliked item under a free-form
// category. A write whose certainty clears the trust threshold updates the
// closest existing record in that category in place, keeping a single
// canonical entry per (category, item); lower-certainty writes append.
//
// The canonical lookup is a semantic query filtered to the category, so
// near-duplicate items ("coffee" vs "latte") can merge. Known precision gap,
// inherited from the tuning this shipped with.
func (s *System) AddUserPreference(ctx context.Context, category, item string, sentiment, certainty float64) error {
	now := s.now()

	verb := "likes"
	if sentiment <= 0 {
		verb = "dislikes"
	}
	text := fmt.Sprintf("User %s %s: %s", verb, category, item)

	metadata := map[string]string{
		"category":       category,
		"item":           item,
		"sentiment":      formatFloat(sentiment),
		"certainty":      formatFloat(certainty),
		"timestamp":      formatTime(now),
		"last_confirmed": formatTime(now),
	}

	existing, err := s.store.Query(ctx, CollectionPreferences, category+" "+item, 1, Eq("category", category))
	if err != nil {
		return fmt.Errorf("look up existing preference: %w", err)
	}

	trusted := preferenceTrusted(certainty, s.cfg.PreferenceTrustThreshold)
	if decideWrite(len(existing) > 0, trusted) == writeUpdate {
		ok, err := s.store.Update(ctx, CollectionPreferences, Document{
			ID:       existing[0].ID,
			Content:  text,
			Metadata: metadata,
		})
		if err != nil {
			return fmt.Errorf("update preference: %w", err)
		}
		if ok {
			s.log.Debug().Str("id", existing[0].ID).Str("category", category).Msg("preference updated in place")
			return nil
		}
		// Matched record vanished between query and update; fall through
		// to insert.
	}

	id := newID("preference")
	if err := s.store.Add(ctx, CollectionPreferences, Document{ID: id, Content: text, Metadata: metadata}); err != nil {
		return fmt.Errorf("add preference: %w", err)
	}
	s.log.Debug().Str("id", id).Str("category", category).Msg("preference stored")
	return nil
}

// DeleteUserPreference removes every preference in a category. Returns true
// when at least one record was removed.
func (s *System) DeleteUserPreference(ctx context.Context, category string) (bool, error) {
	n, err := s.store.Delete(ctx, CollectionPreferences, Eq("category", category))
	if err != nil {
		return false, fmt.Errorf("delete preferences for %q: %w", category, err)
	}
	s.log.Debug().Str("category", category).Int("deleted", n).Msg("preferences deleted")
	return n > 0, nil
}
