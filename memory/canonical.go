package memory

// Trusted origins for user profile facts.
const (
	SourceUserDirect   = "user_direct"
	SourceConversation = "conversation"
	SourceInference    = "inference"
)

type writeAction int

const (
	writeInsert writeAction = iota
	writeUpdate
)

// decideWrite resolves the canonical-update rule: an incoming write replaces
// the existing matching record only when a match exists and the write clears
// the trust bar; everything else appends a new record, so low-confidence
// signals are captured separately and reconciled later.
func decideWrite(hasExisting, trusted bool) writeAction {
	if hasExisting && trusted {
		return writeUpdate
	}
	return writeInsert
}

// preferenceTrusted reports whether a preference write may replace the
// canonical record. The threshold is exclusive.
func preferenceTrusted(certainty, threshold float64) bool {
	return certainty > threshold
}

// profileTrusted reports whether a profile-fact write may replace the
// canonical record: the confidence bar is inclusive and inferred facts never
// overwrite.
func profileTrusted(confidence, threshold float64, source string) bool {
	if source != SourceUserDirect && source != SourceConversation {
		return false
	}
	return confidence >= threshold
}
