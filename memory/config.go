package memory

// Config holds the memory system tunables. Zero values are not meaningful;
// start from DefaultConfig and override fields as needed.
type Config struct {
	// DecayRate scales how fast idle episodic memories lose retrieval
	// priority (per idle day, per unit of unimportance).
	DecayRate float64

	// DecayFloor is the minimum decay factor. No memory ever becomes
	// fully unreachable.
	DecayFloor float64

	// ImportanceThreshold gates episodic display in assembled context:
	// a record is shown only if decay_factor * importance exceeds it.
	ImportanceThreshold float64

	// ReinforcementBonus is added to importance each time a record is
	// retrieved (capped at 1.0).
	ReinforcementBonus float64

	// SearchThreshold is the default maximum cosine distance for semantic
	// search hits.
	SearchThreshold float64

	// ProfileSearchThreshold is the permissive distance cutoff used for
	// profile-fact lookups, where recall matters more than precision.
	ProfileSearchThreshold float64

	// PreferenceTrustThreshold: a preference write with certainty strictly
	// above this updates the canonical record instead of appending.
	PreferenceTrustThreshold float64

	// ProfileTrustThreshold: a profile write with confidence at or above
	// this, from a trusted source, updates the canonical record.
	ProfileTrustThreshold float64

	// RelationshipGate is the minimum relationship level at which context
	// assembly surfaces relationship milestones.
	RelationshipGate float64

	// PositiveValenceThreshold: an exchange whose user-emotion valence
	// exceeds this counts as a visibly positive interaction.
	PositiveValenceThreshold float64

	// PositiveAffectBonus is the relationship delta applied for a visibly
	// positive interaction.
	PositiveAffectBonus float64

	// MilestoneThreshold is the minimum absolute relationship-level change
	// that gets recorded as a milestone event.
	MilestoneThreshold float64

	// Retrieval fan-out sizes for context assembly.
	EpisodicResults     int
	PreferenceResults   int
	RelationshipResults int
}

// DefaultConfig returns the tuning the companion ships with.
func DefaultConfig() *Config {
	return &Config{
		DecayRate:                0.05,
		DecayFloor:               0.1,
		ImportanceThreshold:      0.3,
		ReinforcementBonus:       0.05,
		SearchThreshold:          0.6,
		ProfileSearchThreshold:   0.9,
		PreferenceTrustThreshold: 0.7,
		ProfileTrustThreshold:    0.8,
		RelationshipGate:         5.0,
		PositiveValenceThreshold: 0.6,
		PositiveAffectBonus:      0.05,
		MilestoneThreshold:       0.5,
		EpisodicResults:          5,
		PreferenceResults:        3,
		RelationshipResults:      2,
	}
}
