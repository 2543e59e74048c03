package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// AddUserProfileInfo records an objective fact about the user (birthday,
// allergy, family member). Facts follow the same canonical-update rule as
// preferences, with a stricter bar: only a confident write from a trusted
// source replaces the existing record for the category.
func (s *System) AddUserProfileInfo(ctx context.Context, category, value string, confidence float64, source string) error {
	now := s.now()
	text := fmt.Sprintf("User %s: %s", category, value)

	metadata := map[string]string{
		"category":       category,
		"value":          value,
		"confidence":     formatFloat(confidence),
		"source":         source,
		"timestamp":      formatTime(now),
		"last_confirmed": formatTime(now),
	}

	existing, err := s.store.Query(ctx, CollectionProfile, category+" "+value, 1, Eq("category", category))
	if err != nil {
		return fmt.Errorf("look up existing profile fact: %w", err)
	}

	trusted := profileTrusted(confidence, s.cfg.ProfileTrustThreshold, source)
	if decideWrite(len(existing) > 0, trusted) == writeUpdate {
		ok, err := s.store.Update(ctx, CollectionProfile, Document{
			ID:       existing[0].ID,
			Content:  text,
			Metadata: metadata,
		})
		if err != nil {
			return fmt.Errorf("update profile fact: %w", err)
		}
		if ok {
			s.log.Debug().Str("id", existing[0].ID).Str("category", category).Msg("profile fact updated in place")
			return nil
		}
	}

	id := newID("profile")
	if err := s.store.Add(ctx, CollectionProfile, Document{ID: id, Content: text, Metadata: metadata}); err != nil {
		return fmt.Errorf("add profile fact: %w", err)
	}
	s.log.Debug().Str("id", id).Str("category", category).Str("source", source).Msg("profile fact stored")
	return nil
}

// UpdateUserProfileFromConversation ingests a batch of facts extracted from a
// chat turn, as a JSON object mapping category to value. A malformed payload
// is rejected without touching the store.
func (s *System) UpdateUserProfileFromConversation(ctx context.Context, payload string) error {
	var extracted map[string]any
	if err := json.Unmarshal([]byte(payload), &extracted); err != nil {
		return fmt.Errorf("invalid profile payload: %w", err)
	}

	for category, value := range extracted {
		if err := s.AddUserProfileInfo(ctx, category, fmt.Sprint(value), 0.9, SourceConversation); err != nil {
			return fmt.Errorf("save extracted fact %q: %w", category, err)
		}
	}
	return nil
}

// SearchUserProfileInfo looks up profile facts semantically. Uses the
// permissive distance cutoff: for personal facts, missing one is worse than
// surfacing a loose match.
func (s *System) SearchUserProfileInfo(ctx context.Context, query string, k int) ([]SearchResult, error) {
	return s.SemanticSearch(ctx, CollectionProfile, query, k, s.cfg.ProfileSearchThreshold)
}

// GetUserProfileSummary renders everything known about the user, one line per
// category with the most recently confirmed value winning. Degrades to an
// empty-profile message on any fault; it never fails.
func (s *System) GetUserProfileSummary(ctx context.Context) string {
	docs, err := s.store.List(ctx, CollectionProfile)
	if err != nil {
		s.log.Warn().Err(err).Msg("profile summary listing failed")
		return "No profile information recorded yet."
	}
	if len(docs) == 0 {
		return "No profile information recorded yet."
	}

	type fact struct {
		value      string
		confidence float64
		confirmed  time.Time
	}
	byCategory := make(map[string]fact)
	for _, doc := range docs {
		category := doc.Metadata["category"]
		if category == "" {
			continue
		}
		f := fact{
			value:      doc.Metadata["value"],
			confidence: metaFloat(doc.Metadata, "confidence", 0.5),
			confirmed:  metaTime(doc.Metadata, "last_confirmed", time.Time{}),
		}
		if cur, ok := byCategory[category]; !ok || f.confirmed.After(cur.confirmed) {
			byCategory[category] = f
		}
	}

	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	var b strings.Builder
	b.WriteString("User profile:\n")
	for _, c := range categories {
		f := byCategory[c]
		fmt.Fprintf(&b, "- %s: %s (confidence %.1f)\n", c, f.value, f.confidence)
	}
	return b.String()
}

// DeleteUserProfileInfo removes every fact in a category. Returns true when
// at least one record was removed.
func (s *System) DeleteUserProfileInfo(ctx context.Context, category string) (bool, error) {
	n, err := s.store.Delete(ctx, CollectionProfile, Eq("category", category))
	if err != nil {
		return false, fmt.Errorf("delete profile facts for %q: %w", category, err)
	}
	s.log.Debug().Str("category", category).Int("deleted", n).Msg("profile facts deleted")
	return n > 0, nil
}
