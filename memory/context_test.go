package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/glimmerlab/mira-go-sdk/core"
)

func TestRelevantContextRoundTrip(t *testing.T) {
	ctx := context.Background()
	sys, _ := newSystem(t, topicEmbedder{topics: []string{"violin"}})

	_, err := sys.AddEpisodicMemory(ctx, core.Exchange{
		UserMessage:   "my violin recital went really well",
		AgentResponse: "I am so proud of you",
	})
	require.NoError(t, err)
	require.NoError(t, sys.AddUserPreference(ctx, "music", "violin sonatas", 0.9, 0.9))

	out := sys.GetRelevantContext(ctx, "how was the violin recital")
	require.Contains(t, out, "## Relevant Memories")
	require.Contains(t, out, "### Past Conversations")
	require.Contains(t, out, "1. [")
	require.Contains(t, out, "my violin recital went really well")
	require.Contains(t, out, "### User Preferences")
	require.Contains(t, out, "User likes music: violin sonatas (certain)")
}

func TestRelevantContextAlwaysCarriesCurrentState(t *testing.T) {
	ctx := context.Background()
	sys, _ := newSystem(t, topicEmbedder{topics: []string{"violin"}})

	out := sys.GetRelevantContext(ctx, "anything at all")
	require.NotContains(t, out, "### Past Conversations")
	require.Contains(t, out, "### Current State")
	require.Contains(t, out, "- Emotion: neutral")
	require.Contains(t, out, "- Relationship level: 1.0/10")
	require.Contains(t, out, "- Stage: initial contact")
}

func TestRelationshipSectionGatedByIntimacy(t *testing.T) {
	ctx := context.Background()
	sys, _ := newSystem(t, topicEmbedder{topics: []string{"violin"}})

	require.NoError(t, sys.AddRelationshipEvent(ctx, "first violin duet together", 0.8, 0))

	out := sys.GetRelevantContext(ctx, "violin")
	require.NotContains(t, out, "### Relationship Milestones")

	require.NoError(t, sys.Tracker().AdjustRelationship(ctx, 100))
	out = sys.GetRelevantContext(ctx, "violin")
	require.Contains(t, out, "### Relationship Milestones")
	require.Contains(t, out, "- first violin duet together")
}

func TestFadedMemoriesHiddenUntilFullContext(t *testing.T) {
	ctx := context.Background()
	sys, _ := newSystem(t, topicEmbedder{topics: []string{"violin"}})

	_, err := sys.AddEpisodicMemory(ctx, core.Exchange{
		UserMessage:   "I skipped violin practice",
		AgentResponse: "one day off will not undo your progress",
		UserEmotion:   &core.Emotion{Label: "guilty", Intensity: 0.4, Valence: -0.3},
		Importance:    0.2,
	})
	require.NoError(t, err)

	// Weight 1.0 * 0.2 sits below the display threshold.
	out := sys.GetRelevantContext(ctx, "violin")
	require.NotContains(t, out, "skipped violin practice")

	full := sys.GetFullContext(ctx, "violin")
	require.Contains(t, full, "skipped violin practice")
	require.Contains(t, full, "User emotion: guilty")
}

func TestPreferenceCertaintyTags(t *testing.T) {
	ctx := context.Background()
	sys, _ := newSystem(t, topicEmbedder{topics: []string{"violin"}})

	require.NoError(t, sys.AddUserPreference(ctx, "music", "violin concertos", 0.9, 0.9))
	require.NoError(t, sys.AddUserPreference(ctx, "music", "violin etudes", 0.3, 0.5))

	out := sys.GetRelevantContext(ctx, "violin")
	require.Contains(t, out, "User likes music: violin concertos (certain)")
	require.Contains(t, out, "User likes music: violin etudes (likely)")
}
