package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EmotionalState is the companion's live affective state. There is exactly
// one per System; every mutation appends a snapshot to the emotional
// collection, so the collection doubles as an audit log of affective drift.
type EmotionalState struct {
	CurrentEmotion    string    `json:"current_emotion"`
	EmotionIntensity  float64   `json:"emotion_intensity"`
	Valence           float64   `json:"valence"`
	RelationshipLevel float64   `json:"relationship_level"`
	LastUpdated       time.Time `json:"last_updated"`
}

func defaultEmotionalState() EmotionalState {
	return EmotionalState{
		CurrentEmotion:    "neutral",
		EmotionIntensity:  0.5,
		Valence:           0.0,
		RelationshipLevel: 1.0,
		LastUpdated:       time.Now(),
	}
}

// EmotionalSummary is the caller-facing view of the current state.
type EmotionalSummary struct {
	Emotion           string
	Intensity         float64
	RelationshipLevel float64
	RelationshipStage string
	LastUpdated       time.Time
}

// Tracker owns the live emotional state. Concurrent chat turns perform
// read-modify-write updates on it, so all mutation funnels through the
// tracker's lock.
type Tracker struct {
	mu    sync.Mutex
	state EmotionalState

	store Store
	cfg   *Config
	log   zerolog.Logger

	// onMilestone records a descriptive relationship event when the level
	// shifts noticeably. Wired by the owning System.
	onMilestone func(ctx context.Context, description string, importance, impact float64)
}

func newTracker(store Store, cfg *Config, log zerolog.Logger) *Tracker {
	return &Tracker{
		state: defaultEmotionalState(),
		store: store,
		cfg:   cfg,
		log:   log,
	}
}

// Load restores the most recently written snapshot from the emotional
// collection. Any failure (empty collection, corrupt payload) leaves the
// default state in place; Load never fails.
func (t *Tracker) Load(ctx context.Context) {
	docs, err := t.store.List(ctx, CollectionEmotional)
	if err != nil {
		t.log.Warn().Err(err).Msg("emotional state load failed, keeping defaults")
		return
	}

	var latest *Document
	var latestAt time.Time
	for i := range docs {
		at := metaTime(docs[i].Metadata, "last_updated", time.Time{})
		if latest == nil || at.After(latestAt) {
			latest = &docs[i]
			latestAt = at
		}
	}
	if latest == nil {
		return
	}

	var state EmotionalState
	if err := json.Unmarshal([]byte(latest.Metadata["state_data"]), &state); err != nil {
		t.log.Warn().Err(err).Str("id", latest.ID).Msg("corrupt emotional snapshot, keeping defaults")
		return
	}
	if state.CurrentEmotion == "" {
		t.log.Warn().Str("id", latest.ID).Msg("empty emotional snapshot, keeping defaults")
		return
	}

	t.mu.Lock()
	t.state = state
	t.mu.Unlock()
	t.log.Debug().Str("emotion", state.CurrentEmotion).Float64("relationship_level", state.RelationshipLevel).Msg("emotional state restored")
}

// snapshotLocked persists the current state. Callers hold t.mu.
func (t *Tracker) snapshotLocked(ctx context.Context) error {
	t.state.LastUpdated = time.Now()

	payload, err := json.Marshal(t.state)
	if err != nil {
		return fmt.Errorf("marshal emotional state: %w", err)
	}

	doc := Document{
		ID: newID("emotional_state"),
		Content: fmt.Sprintf("emotion: %s, intensity: %.2f, relationship level: %.2f",
			t.state.CurrentEmotion, t.state.EmotionIntensity, t.state.RelationshipLevel),
		Metadata: map[string]string{
			"type":         "emotional_state",
			"state_data":   string(payload),
			"last_updated": formatTime(t.state.LastUpdated),
		},
	}
	if err := t.store.Add(ctx, CollectionEmotional, doc); err != nil {
		return fmt.Errorf("persist emotional snapshot: %w", err)
	}
	return nil
}

// Update overwrites the current emotion and refreshes LastUpdated. Intensity
// and valence are only overwritten when non-nil (partial update). A snapshot
// is always appended.
func (t *Tracker) Update(ctx context.Context, emotion string, intensity, valence *float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state.CurrentEmotion = emotion
	if intensity != nil {
		t.state.EmotionIntensity = *intensity
	}
	if valence != nil {
		t.state.Valence = *valence
	}
	return t.snapshotLocked(ctx)
}

// AdjustRelationship applies a delta to the relationship level with
// asymmetric dampening: positive deltas shrink as intimacy approaches the
// ceiling (trust is slow to build), negative deltas land unmodified (and fast
// to break). The result is clamped to [1.0, 10.0] and snapshotted. A shift of
// at least MilestoneThreshold records a descriptive relationship event.
func (t *Tracker) AdjustRelationship(ctx context.Context, delta float64) error {
	t.mu.Lock()
	current := t.state.RelationshipLevel

	adjusted := delta
	if delta > 0 {
		adjusted = delta * (1 - current/12)
	}

	level := current + adjusted
	if level < 1.0 {
		level = 1.0
	}
	if level > 10.0 {
		level = 10.0
	}
	t.state.RelationshipLevel = level
	err := t.snapshotLocked(ctx)
	t.mu.Unlock()

	if shift := level - current; shift >= t.cfg.MilestoneThreshold || shift <= -t.cfg.MilestoneThreshold {
		if t.onMilestone != nil {
			// Impact 0: the event describes the transition, it is not
			// an independent cause of further change.
			t.onMilestone(ctx,
				fmt.Sprintf("relationship intimacy moved from %.1f to %.1f", current, level),
				0.8, 0)
		}
	}
	return err
}

// State returns a copy of the live state.
func (t *Tracker) State() EmotionalState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Summary returns the current state with a level-banded stage description.
func (t *Tracker) Summary() EmotionalSummary {
	s := t.State()
	return EmotionalSummary{
		Emotion:           s.CurrentEmotion,
		Intensity:         s.EmotionIntensity,
		RelationshipLevel: s.RelationshipLevel,
		RelationshipStage: relationshipStage(s.RelationshipLevel),
		LastUpdated:       s.LastUpdated,
	}
}

// relationshipStage maps a relationship level to its stage description.
func relationshipStage(level float64) string {
	switch {
	case level < 3:
		return "initial contact"
	case level < 5:
		return "early familiarity"
	case level < 7:
		return "established rapport"
	case level < 9:
		return "intimate"
	default:
		return "deeply intimate"
	}
}
