package memory

import (
	"context"
	"fmt"
)

// Reinforce marks an episodic record as accessed: last_accessed moves to now,
// importance grows by the reinforcement bonus (capped at 1.0) and the decay
// factor resets to 1.0. Repeated recall compounds retrieval priority. An
// absent id is a no-op.
func (s *System) Reinforce(ctx context.Context, memoryID string) error {
	doc, ok, err := s.store.Get(ctx, CollectionEpisodic, memoryID)
	if err != nil {
		return fmt.Errorf("load memory %s: %w", memoryID, err)
	}
	if !ok {
		return nil
	}

	importance := metaFloat(doc.Metadata, "importance", DefaultImportance) + s.cfg.ReinforcementBonus
	if importance > 1.0 {
		importance = 1.0
	}
	doc.Metadata["last_accessed"] = formatTime(s.now())
	doc.Metadata["importance"] = formatFloat(importance)
	doc.Metadata["decay_factor"] = "1"

	if _, err := s.store.Update(ctx, CollectionEpisodic, Document{ID: doc.ID, Metadata: doc.Metadata}); err != nil {
		return fmt.Errorf("reinforce memory %s: %w", memoryID, err)
	}
	return nil
}

// ApplyMemoryDecay recomputes the decay factor of every episodic record from
// its idle time: decay = rate * idle_days * (1 - importance), subtracted from
// the current factor and floored so no memory ever becomes unreachable.
// High-importance memories decay proportionally slower. The pass is batch and
// safe to interleave with reads; each record update is atomic.
func (s *System) ApplyMemoryDecay(ctx context.Context) error {
	docs, err := s.store.List(ctx, CollectionEpisodic)
	if err != nil {
		return fmt.Errorf("list episodic memories: %w", err)
	}

	now := s.now()
	decayed := 0
	for _, doc := range docs {
		lastAccessed := metaTime(doc.Metadata, "last_accessed",
			metaTime(doc.Metadata, "timestamp", now))
		idleDays := int(now.Sub(lastAccessed).Hours() / 24)
		if idleDays < 0 {
			// Clock skew or a restored backup; never let decay run backwards.
			idleDays = 0
		}

		importance := metaFloat(doc.Metadata, "importance", DefaultImportance)
		decay := s.cfg.DecayRate * float64(idleDays) * (1 - importance)

		factor := metaFloat(doc.Metadata, "decay_factor", 1.0) - decay
		if factor < s.cfg.DecayFloor {
			factor = s.cfg.DecayFloor
		}

		doc.Metadata["decay_factor"] = formatFloat(factor)
		if _, err := s.store.Update(ctx, CollectionEpisodic, Document{ID: doc.ID, Metadata: doc.Metadata}); err != nil {
			return fmt.Errorf("decay memory %s: %w", doc.ID, err)
		}
		decayed++
	}
	s.log.Debug().Int("records", decayed).Msg("memory decay applied")
	return nil
}

// Association is a memory recalled without a prompt.
type Association struct {
	Content     string
	TriggeredBy string
}

// AssociateSpontaneously recalls a memory unprompted, simulating drifting
// attention. It first searches episodic memory keyed on the current emotion;
// failing that, it draws uniformly at random from the high-importance pool.
// Returns nil when both paths come up empty.
func (s *System) AssociateSpontaneously(ctx context.Context) (*Association, error) {
	emotion := s.tracker.State().CurrentEmotion

	memories, err := s.SemanticSearch(ctx, CollectionEpisodic,
		fmt.Sprintf("memories related to feeling %s", emotion), 1, s.cfg.SearchThreshold)
	if err != nil {
		return nil, err
	}
	if len(memories) > 0 {
		return &Association{
			Content:     memories[0].Content,
			TriggeredBy: "current emotion: " + emotion,
		}, nil
	}

	pool, err := s.store.Query(ctx, CollectionEpisodic, "important memory", 10, Gt("importance", 0.7))
	if err != nil {
		return nil, fmt.Errorf("query important memories: %w", err)
	}
	if len(pool) == 0 {
		return nil, nil
	}
	pick := pool[s.intn(len(pool))]
	return &Association{
		Content:     pick.Content,
		TriggeredBy: "random important memory",
	}, nil
}
