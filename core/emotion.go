package core

// Emotion describes an emotion detected in (or reported by) the user.
// Valence follows the usual convention: negative values are unpleasant,
// positive values pleasant.
type Emotion struct {
	// Label is a free-form emotion name, e.g. "happy", "anxious".
	Label string `json:"emotion"`

	// Intensity is the strength of the emotion in [0.0, 1.0].
	Intensity float64 `json:"intensity"`

	// Valence is the signed polarity of the emotion in [-1.0, 1.0].
	Valence float64 `json:"valence"`
}

// Exchange is a single user/agent conversational turn, the unit recorded
// as episodic memory.
type Exchange struct {
	// UserMessage is the user's utterance.
	UserMessage string

	// AgentResponse is the companion's reply.
	AgentResponse string

	// UserEmotion is the emotion detected for the user during this
	// exchange. Optional.
	UserEmotion *Emotion

	// Context is an optional free-form situational tag ("late night chat",
	// "planning a trip").
	Context string

	// Importance is the caller-assessed long-term significance in
	// [0.0, 1.0]. Zero means "use the default".
	Importance float64
}
