package memory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/glimmerlab/mira-go-sdk/core"
)

// DefaultImportance is assigned to exchanges the caller did not score.
const DefaultImportance = 0.5

// AddEpisodicMemory records a conversational exchange. The stored text is the
// user utterance plus the agent reply, with the user's emotion label appended
// when known. Returns the new record's id.
//
// A visibly positive exchange (user-emotion valence above the configured
// threshold) nudges the relationship level up as a side effect.
func (s *System) AddEpisodicMemory(ctx context.Context, exchange core.Exchange) (string, error) {
	importance := exchange.Importance
	if importance == 0 {
		importance = DefaultImportance
	}

	now := s.now()
	text := fmt.Sprintf("User: %s\nAgent: %s", exchange.UserMessage, exchange.AgentResponse)
	if exchange.UserEmotion != nil {
		text += fmt.Sprintf("\nUser emotion: %s", exchange.UserEmotion.Label)
	}

	metadata := map[string]string{
		"timestamp":     formatTime(now),
		"type":          "conversation",
		"importance":    formatFloat(importance),
		"decay_factor":  "1",
		"last_accessed": formatTime(now),
	}
	if exchange.UserEmotion != nil {
		payload, err := json.Marshal(exchange.UserEmotion)
		if err != nil {
			return "", fmt.Errorf("marshal user emotion: %w", err)
		}
		metadata["user_emotion"] = string(payload)
	}
	if exchange.Context != "" {
		metadata["context"] = exchange.Context
	}

	id := newID("episodic")
	if err := s.store.Add(ctx, CollectionEpisodic, Document{ID: id, Content: text, Metadata: metadata}); err != nil {
		return "", fmt.Errorf("add episodic memory: %w", err)
	}
	s.log.Debug().Str("id", id).Float64("importance", importance).Msg("episodic memory stored")

	if exchange.UserEmotion != nil && exchange.UserEmotion.Valence > s.cfg.PositiveValenceThreshold {
		if err := s.tracker.AdjustRelationship(ctx, s.cfg.PositiveAffectBonus); err != nil {
			return id, fmt.Errorf("positive-affect relationship update: %w", err)
		}
	}
	return id, nil
}
