package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/glimmerlab/mira-go-sdk/memory"
)

func TestPreferenceCanonicalUpdate(t *testing.T) {
	ctx := context.Background()
	sys, store := newSystem(t, parallelEmbedder{})

	require.NoError(t, sys.AddUserPreference(ctx, "饮料", "咖啡", 1.0, 0.9))
	require.NoError(t, sys.AddUserPreference(ctx, "饮料", "咖啡", -0.5, 0.9))

	prefs, err := store.List(ctx, memory.CollectionPreferences, memory.Eq("category", "饮料"))
	require.NoError(t, err)
	require.Len(t, prefs, 1, "confident rewrites must not duplicate the canonical record")
	require.Equal(t, "-0.5", prefs[0].Metadata["sentiment"])
	require.Equal(t, "咖啡", prefs[0].Metadata["item"])
	require.Contains(t, prefs[0].Content, "dislikes")
}

func TestLowCertaintyPreferenceAppends(t *testing.T) {
	ctx := context.Background()
	sys, store := newSystem(t, parallelEmbedder{})

	require.NoError(t, sys.AddUserPreference(ctx, "music", "jazz", 0.8, 0.5))
	require.NoError(t, sys.AddUserPreference(ctx, "music", "jazz", 0.9, 0.5))

	prefs, err := store.List(ctx, memory.CollectionPreferences, memory.Eq("category", "music"))
	require.NoError(t, err)
	require.Len(t, prefs, 2, "uncertain signals are captured separately")
}

func TestCertaintyAtThresholdAppends(t *testing.T) {
	ctx := context.Background()
	sys, store := newSystem(t, parallelEmbedder{})

	// The trust bar is exclusive: exactly 0.7 still appends.
	require.NoError(t, sys.AddUserPreference(ctx, "food", "noodles", 1.0, 0.7))
	require.NoError(t, sys.AddUserPreference(ctx, "food", "noodles", 1.0, 0.7))

	prefs, err := store.List(ctx, memory.CollectionPreferences, memory.Eq("category", "food"))
	require.NoError(t, err)
	require.Len(t, prefs, 2)
}

func TestDeleteUserPreference(t *testing.T) {
	ctx := context.Background()
	sys, store := newSystem(t, parallelEmbedder{})

	require.NoError(t, sys.AddUserPreference(ctx, "饮料", "咖啡", 1.0, 0.5))
	require.NoError(t, sys.AddUserPreference(ctx, "饮料", "奶茶", 1.0, 0.5))
	require.NoError(t, sys.AddUserPreference(ctx, "food", "noodles", 1.0, 0.5))

	deleted, err := sys.DeleteUserPreference(ctx, "饮料")
	require.NoError(t, err)
	require.True(t, deleted)

	// Both category records are gone, other categories untouched.
	remaining, err := store.List(ctx, memory.CollectionPreferences)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	require.Equal(t, "food", remaining[0].Metadata["category"])

	deleted, err = sys.DeleteUserPreference(ctx, "饮料")
	require.NoError(t, err)
	require.False(t, deleted)
}
