package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// System is the memory subsystem's entry point. It owns all collection
// records and the emotional state tracker, and exposes the write, retrieval
// and maintenance operations consumed by the conversational agents.
//
// All methods are safe for concurrent use. Read fan-out runs in parallel;
// emotional-state mutation is serialized by the tracker.
type System struct {
	store   Store
	tracker *Tracker
	cfg     *Config
	log     zerolog.Logger

	// rng drives spontaneous association. Injected so tests can
	// substitute a deterministic source.
	rng    Rand
	rngMu  sync.Mutex
	nowsrc func() time.Time
}

// Rand is the randomness source for spontaneous recall.
type Rand interface {
	Intn(n int) int
}

// Option configures the System.
type Option func(*System)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(s *System) {
		s.log = log
	}
}

// WithConfig overrides the default tuning.
func WithConfig(cfg *Config) Option {
	return func(s *System) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithRand sets the randomness source for spontaneous association.
func WithRand(r Rand) Option {
	return func(s *System) {
		s.rng = r
	}
}

// New creates a memory system on top of a store and restores the emotional
// state from its most recent snapshot. A fresh or unreadable emotional
// collection falls back to the default state; New does not fail for that.
func New(ctx context.Context, store Store, opts ...Option) *System {
	s := &System{
		store:  store,
		cfg:    DefaultConfig(),
		log:    zerolog.Nop(),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		nowsrc: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.tracker = newTracker(store, s.cfg, s.log)
	s.tracker.onMilestone = func(ctx context.Context, description string, importance, impact float64) {
		if err := s.AddRelationshipEvent(ctx, description, importance, impact); err != nil {
			s.log.Warn().Err(err).Msg("failed to record relationship milestone")
		}
	}
	s.tracker.Load(ctx)
	return s
}

// Tracker exposes the emotional state tracker.
func (s *System) Tracker() *Tracker {
	return s.tracker
}

// UpdateEmotionalState overwrites the current emotion; intensity and valence
// are applied only when non-nil. A snapshot is always persisted.
func (s *System) UpdateEmotionalState(ctx context.Context, emotion string, intensity, valence *float64) error {
	return s.tracker.Update(ctx, emotion, intensity, valence)
}

// EmotionalSummary returns the current state with its stage description.
func (s *System) EmotionalSummary() EmotionalSummary {
	return s.tracker.Summary()
}

// Close releases the backing store.
func (s *System) Close() error {
	return s.store.Close()
}

func (s *System) intn(n int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Intn(n)
}

func (s *System) now() time.Time {
	return s.nowsrc()
}

// newID builds a collection-scoped record id.
func newID(kind string) string {
	return kind + "_" + uuid.New().String()
}
