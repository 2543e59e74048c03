package memory

import (
	"context"
	"strconv"
	"time"
)

// Collection names. Each memory kind lives in its own similarity-searchable
// collection; record ids are unique within a collection.
const (
	CollectionEpisodic     = "episodic_memory"
	CollectionPreferences  = "preferences_memory"
	CollectionRelationship = "relationship_memory"
	CollectionEmotional    = "emotional_memory"
	CollectionProfile      = "profile_memory"
)

// Collections lists every collection the memory system owns.
func Collections() []string {
	return []string{
		CollectionEpisodic,
		CollectionPreferences,
		CollectionRelationship,
		CollectionEmotional,
		CollectionProfile,
	}
}

// Document is the generic unit stored in any collection. Metadata values are
// scalars serialized to strings (floats, timestamps, category tags); the
// embedding is derived from Content and owned by the store.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]string
}

// QueryResult is a Document plus its cosine distance from the query.
// Distance is in [0, 2]: 0 means identical, 2 means opposite. Callers convert
// to similarity via 1 - distance.
type QueryResult struct {
	Document
	Distance float32
}

// FilterOp is a predicate operator over a metadata field.
type FilterOp string

const (
	FilterEq  FilterOp = "=="
	FilterGt  FilterOp = ">"
	FilterGte FilterOp = ">="
	FilterLt  FilterOp = "<"
	FilterLte FilterOp = "<="
)

// Filter is a single metadata predicate. Multiple filters are ANDed.
// Comparison operators treat both sides as floats.
type Filter struct {
	Field string
	Op    FilterOp
	Value string
}

// Eq matches documents whose metadata field equals value exactly.
func Eq(field, value string) Filter {
	return Filter{Field: field, Op: FilterEq, Value: value}
}

// Gt matches documents whose numeric metadata field is greater than value.
func Gt(field string, value float64) Filter {
	return Filter{Field: field, Op: FilterGt, Value: formatFloat(value)}
}

// Gte matches documents whose numeric metadata field is at least value.
func Gte(field string, value float64) Filter {
	return Filter{Field: field, Op: FilterGte, Value: formatFloat(value)}
}

// Lt matches documents whose numeric metadata field is less than value.
func Lt(field string, value float64) Filter {
	return Filter{Field: field, Op: FilterLt, Value: formatFloat(value)}
}

// Matches reports whether the given metadata satisfies the filter.
func (f Filter) Matches(metadata map[string]string) bool {
	raw, ok := metadata[f.Field]
	if !ok {
		return false
	}
	if f.Op == FilterEq {
		return raw == f.Value
	}

	have, err1 := strconv.ParseFloat(raw, 64)
	want, err2 := strconv.ParseFloat(f.Value, 64)
	if err1 != nil || err2 != nil {
		return false
	}
	switch f.Op {
	case FilterGt:
		return have > want
	case FilterGte:
		return have >= want
	case FilterLt:
		return have < want
	case FilterLte:
		return have <= want
	}
	return false
}

// Store is the vector storage backend. Implementations must embed document
// content with the same embedding function used for queries; a mismatch would
// silently degrade retrieval and is not allowed.
//
// Absent records are not errors: Get reports ok=false, Update reports
// updated=false, Delete reports zero deletions. Only backend faults surface
// as errors.
type Store interface {
	// Add inserts a document into a collection. The store embeds
	// doc.Content itself.
	Add(ctx context.Context, collection string, doc Document) error

	// Update replaces an existing document's metadata in place. If
	// doc.Content is non-empty the content is replaced and re-embedded,
	// otherwise the stored content and embedding are kept. Returns false
	// when the id does not exist.
	Update(ctx context.Context, collection string, doc Document) (bool, error)

	// Delete removes every document matching the filters and returns how
	// many were removed.
	Delete(ctx context.Context, collection string, filters ...Filter) (int, error)

	// Get retrieves a single document by id.
	Get(ctx context.Context, collection string, id string) (Document, bool, error)

	// List returns every document matching the filters, in no particular
	// order.
	List(ctx context.Context, collection string, filters ...Filter) ([]Document, error)

	// Query returns up to k documents ranked by ascending distance from
	// queryText (most similar first).
	Query(ctx context.Context, collection string, queryText string, k int, filters ...Filter) ([]QueryResult, error)

	// Close releases backend resources.
	Close() error
}

// Embedder converts text to vector embeddings.
// Implementations: mock (testing), openai (API), onnx (local, build-tagged),
// cached (read-through decorator).
type Embedder interface {
	// Embed converts a single text to an embedding vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int
}

// SearchResult is a retrieval hit surfaced to callers, with distance already
// converted to similarity.
type SearchResult struct {
	ID         string
	Content    string
	Metadata   map[string]string
	Similarity float64
}

// Metadata helpers. Store metadata is stringly typed; these parse with a
// fallback instead of failing, since a corrupt field must never take down a
// read path.

func metaFloat(m map[string]string, key string, def float64) float64 {
	raw, ok := m[key]
	if !ok {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return v
}

func metaTime(m map[string]string, key string, def time.Time) time.Time {
	raw, ok := m[key]
	if !ok {
		return def
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return def
	}
	return t
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatTime(t time.Time) string {
	// Nanosecond precision: snapshot recency comparisons must survive
	// multiple writes within the same second.
	return t.Format(time.RFC3339Nano)
}
