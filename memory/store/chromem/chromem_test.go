package chromem_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/glimmerlab/mira-go-sdk/memory"
	chromemstore "github.com/glimmerlab/mira-go-sdk/memory/store/chromem"
)

// axisEmbedder puts each registered keyword on its own axis, so texts either
// match a keyword exactly (similarity 1) or sit on a reserved far axis.
type axisEmbedder struct {
	keywords []string
}

func (e axisEmbedder) Dimensions() int { return len(e.keywords) + 1 }

func (e axisEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.Dimensions())
	for i, kw := range e.keywords {
		if strings.Contains(text, kw) {
			vec[i] = 1
			return vec, nil
		}
	}
	vec[len(vec)-1] = 1
	return vec, nil
}

func newTestStore(t *testing.T, keywords ...string) *chromemstore.Store {
	t.Helper()
	store, err := chromemstore.New(axisEmbedder{keywords: keywords})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func addDoc(t *testing.T, store *chromemstore.Store, id, content string, metadata map[string]string) {
	t.Helper()
	require.NoError(t, store.Add(context.Background(), "scratch", memory.Document{
		ID:       id,
		Content:  content,
		Metadata: metadata,
	}))
}

func TestQueryRanksByDistance(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, "tea", "rain")

	addDoc(t, store, "a", "a pot of tea", map[string]string{"kind": "drink"})
	addDoc(t, store, "b", "rain on the window", map[string]string{"kind": "weather"})

	results, err := store.Query(ctx, "scratch", "green tea", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "a", results[0].ID)
	require.InDelta(t, 0.0, float64(results[0].Distance), 0.001)
	require.InDelta(t, 1.0, float64(results[1].Distance), 0.001)
}

func TestQueryEqualityFilter(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, "tea")

	addDoc(t, store, "a", "morning tea", map[string]string{"kind": "drink"})
	addDoc(t, store, "b", "afternoon tea", map[string]string{"kind": "ritual"})

	results, err := store.Query(ctx, "scratch", "tea", 5, memory.Eq("kind", "ritual"))
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "b", results[0].ID)
}

func TestQueryComparisonFilter(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, "tea")

	addDoc(t, store, "a", "weak tea", map[string]string{"importance": "0.2"})
	addDoc(t, store, "b", "strong tea", map[string]string{"importance": "0.9"})
	addDoc(t, store, "c", "strongest tea", map[string]string{"importance": "0.95"})

	results, err := store.Query(ctx, "scratch", "tea", 10, memory.Gt("importance", 0.7))
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		require.NotEqual(t, "a", r.ID)
	}
}

func TestQueryTruncatesToK(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, "tea")

	for _, id := range []string{"a", "b", "c"} {
		addDoc(t, store, id, "tea "+id, map[string]string{})
	}

	results, err := store.Query(ctx, "scratch", "tea", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Asking for more than the collection holds is not an error.
	results, err = store.Query(ctx, "scratch", "tea", 50)
	require.NoError(t, err)
	require.Len(t, results, 3)
}

func TestGetAbsent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, "tea")

	_, ok, err := store.Get(ctx, "scratch", "nope")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestUpdateMetadataKeepsContent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, "tea")

	addDoc(t, store, "a", "a pot of tea", map[string]string{"importance": "0.5"})

	ok, err := store.Update(ctx, "scratch", memory.Document{
		ID:       "a",
		Metadata: map[string]string{"importance": "0.8"},
	})
	require.NoError(t, err)
	require.True(t, ok)

	doc, found, err := store.Get(ctx, "scratch", "a")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "a pot of tea", doc.Content)
	require.Equal(t, "0.8", doc.Metadata["importance"])
}

// faultyEmbedder fails on texts containing a marker, simulating a transient
// embedding-backend outage.
type faultyEmbedder struct {
	failOn string
}

func (e faultyEmbedder) Dimensions() int { return 3 }

func (e faultyEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if strings.Contains(text, e.failOn) {
		return nil, errors.New("embedding backend unavailable")
	}
	return []float32{1, 0, 0}, nil
}

func TestUpdateRewritesContentInPlace(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, "tea")

	addDoc(t, store, "a", "a pot of tea", map[string]string{"kind": "drink"})

	ok, err := store.Update(ctx, "scratch", memory.Document{
		ID:       "a",
		Content:  "a pot of jasmine tea",
		Metadata: map[string]string{"kind": "drink"},
	})
	require.NoError(t, err)
	require.True(t, ok)

	doc, found, err := store.Get(ctx, "scratch", "a")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "a pot of jasmine tea", doc.Content)

	docs, err := store.List(ctx, "scratch")
	require.NoError(t, err)
	require.Len(t, docs, 1)
}

func TestFailedUpdateLeavesRecordIntact(t *testing.T) {
	ctx := context.Background()
	failing, err := chromemstore.New(faultyEmbedder{failOn: "jasmine"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = failing.Close() })

	require.NoError(t, failing.Add(ctx, "scratch", memory.Document{
		ID:       "a",
		Content:  "a pot of tea",
		Metadata: map[string]string{"kind": "drink"},
	}))

	// The replacement content cannot be embedded; the update must fail
	// without touching the stored record.
	_, err = failing.Update(ctx, "scratch", memory.Document{
		ID:       "a",
		Content:  "a pot of jasmine tea",
		Metadata: map[string]string{"kind": "ritual"},
	})
	require.Error(t, err)

	doc, found, err := failing.Get(ctx, "scratch", "a")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "a pot of tea", doc.Content)
	require.Equal(t, "drink", doc.Metadata["kind"])
}

func TestUpdateAbsentReturnsFalse(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, "tea")

	ok, err := store.Update(ctx, "scratch", memory.Document{ID: "nope", Metadata: map[string]string{}})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDeleteByFilterReportsCount(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, "tea")

	addDoc(t, store, "a", "morning tea", map[string]string{"kind": "drink"})
	addDoc(t, store, "b", "afternoon tea", map[string]string{"kind": "drink"})
	addDoc(t, store, "c", "tea ceremony", map[string]string{"kind": "ritual"})

	n, err := store.Delete(ctx, "scratch", memory.Eq("kind", "drink"))
	require.NoError(t, err)
	require.Equal(t, 2, n)

	remaining, err := store.List(ctx, "scratch")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	require.Equal(t, "c", remaining[0].ID)

	n, err = store.Delete(ctx, "scratch", memory.Eq("kind", "drink"))
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestListEmptyCollection(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, "tea")

	docs, err := store.List(ctx, "scratch")
	require.NoError(t, err)
	require.Empty(t, docs)

	results, err := store.Query(ctx, "scratch", "tea", 3)
	require.NoError(t, err)
	require.Empty(t, results)
}
