// Package chromem adapts chromem-go, a pure-Go embedded vector database, to
// the memory.Store contract.
package chromem

import (
	"context"
	"fmt"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"
	"github.com/rs/zerolog"

	"github.com/glimmerlab/mira-go-sdk/memory"
)

// Store implements memory.Store on top of chromem-go. One chromem collection
// per memory collection; cosine distance; writes serialized, reads
// concurrent.
//
// chromem's native metadata filters are exact-match only, so comparison
// predicates are applied client-side after over-fetching.
type Store struct {
	db    *chromem.DB
	embed chromem.EmbeddingFunc
	log   zerolog.Logger

	colMu       sync.RWMutex
	collections map[string]*chromem.Collection

	// writeMu serializes mutations so a committed write is observable by
	// every subsequent read.
	writeMu sync.Mutex
}

// Option configures the store.
type Option func(*Store)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) {
		s.log = log
	}
}

// New creates an in-memory store. The embedder is used for both indexing and
// querying; never mix embedders across the lifetime of a collection.
func New(embedder memory.Embedder, opts ...Option) (*Store, error) {
	return newStore(chromem.NewDB(), embedder, opts...)
}

// NewPersistent creates a store backed by an on-disk chromem database.
func NewPersistent(path string, compress bool, embedder memory.Embedder, opts ...Option) (*Store, error) {
	db, err := chromem.NewPersistentDB(path, compress)
	if err != nil {
		return nil, fmt.Errorf("open persistent db: %w", err)
	}
	return newStore(db, embedder, opts...)
}

func newStore(db *chromem.DB, embedder memory.Embedder, opts ...Option) (*Store, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	s := &Store{
		db:          db,
		embed:       chromem.EmbeddingFunc(embedder.Embed),
		log:         zerolog.Nop(),
		collections: make(map[string]*chromem.Collection),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) collection(name string) (*chromem.Collection, error) {
	s.colMu.RLock()
	col, ok := s.collections[name]
	s.colMu.RUnlock()
	if ok {
		return col, nil
	}

	s.colMu.Lock()
	defer s.colMu.Unlock()
	if col, ok := s.collections[name]; ok {
		return col, nil
	}

	col, err := s.db.GetOrCreateCollection(name, nil, s.embed)
	if err != nil {
		return nil, fmt.Errorf("get or create collection %s: %w", name, err)
	}
	s.collections[name] = col
	return col, nil
}

// Add inserts a document; the collection's embedding function embeds the
// content.
func (s *Store) Add(ctx context.Context, collection string, doc memory.Document) error {
	col, err := s.collection(collection)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := col.AddDocument(ctx, chromem.Document{
		ID:       doc.ID,
		Content:  doc.Content,
		Metadata: doc.Metadata,
	}); err != nil {
		return fmt.Errorf("add document %s: %w", doc.ID, err)
	}
	s.log.Debug().Str("collection", collection).Str("id", doc.ID).Msg("document added")
	return nil
}

// Update replaces a document's metadata, and its content when non-empty. The
// stored embedding is reused unless the content changed. Returns false when
// the id is absent.
func (s *Store) Update(ctx context.Context, collection string, doc memory.Document) (bool, error) {
	col, err := s.collection(collection)
	if err != nil {
		return false, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	existing, err := col.GetByID(ctx, doc.ID)
	if err != nil || existing.ID == "" {
		return false, nil
	}

	replacement := chromem.Document{
		ID:        doc.ID,
		Content:   existing.Content,
		Embedding: existing.Embedding,
		Metadata:  doc.Metadata,
	}
	if doc.Content != "" && doc.Content != existing.Content {
		replacement.Content = doc.Content
		replacement.Embedding = nil // re-embed
	}

	// AddDocument overwrites the id in place under the collection lock, and
	// embeds before mutating, so a failed re-embed leaves the old record
	// intact and readers never observe the record absent mid-update.
	if err := col.AddDocument(ctx, replacement); err != nil {
		return false, fmt.Errorf("replace document %s: %w", doc.ID, err)
	}
	return true, nil
}

// Delete removes every document matching the filters and reports the count.
func (s *Store) Delete(ctx context.Context, collection string, filters ...memory.Filter) (int, error) {
	matches, err := s.List(ctx, collection, filters...)
	if err != nil {
		return 0, err
	}
	if len(matches) == 0 {
		return 0, nil
	}

	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}

	col, err := s.collection(collection)
	if err != nil {
		return 0, err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := col.Delete(ctx, nil, nil, ids...); err != nil {
		return 0, fmt.Errorf("delete %d documents: %w", len(ids), err)
	}
	s.log.Debug().Str("collection", collection).Int("deleted", len(ids)).Msg("documents deleted")
	return len(ids), nil
}

// Get retrieves a document by id; ok=false when absent.
func (s *Store) Get(ctx context.Context, collection string, id string) (memory.Document, bool, error) {
	col, err := s.collection(collection)
	if err != nil {
		return memory.Document{}, false, err
	}

	doc, err := col.GetByID(ctx, id)
	if err != nil || doc.ID == "" {
		return memory.Document{}, false, nil
	}
	return memory.Document{ID: doc.ID, Content: doc.Content, Metadata: doc.Metadata}, true, nil
}

// List returns every document matching the filters. chromem has no scan API,
// so this ranks the whole collection against a neutral query and ignores the
// ordering.
func (s *Store) List(ctx context.Context, collection string, filters ...memory.Filter) ([]memory.Document, error) {
	col, err := s.collection(collection)
	if err != nil {
		return nil, err
	}

	results, err := s.queryAtMost(ctx, col, "memory", col.Count(), eqWhere(filters))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}

	docs := make([]memory.Document, 0, len(results))
	for _, r := range results {
		if !matchesAll(r.Metadata, filters) {
			continue
		}
		docs = append(docs, memory.Document{ID: r.ID, Content: r.Content, Metadata: r.Metadata})
	}
	return docs, nil
}

// Query returns up to k documents ranked by ascending cosine distance.
func (s *Store) Query(ctx context.Context, collection string, queryText string, k int, filters ...memory.Filter) ([]memory.QueryResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	col, err := s.collection(collection)
	if err != nil {
		return nil, err
	}

	// Over-fetch when comparison predicates must be applied client-side.
	fetch := k
	if len(filters) != len(eqWhere(filters)) {
		fetch = col.Count()
	}

	results, err := s.queryAtMost(ctx, col, queryText, fetch, eqWhere(filters))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}

	out := make([]memory.QueryResult, 0, k)
	for _, r := range results {
		if !matchesAll(r.Metadata, filters) {
			continue
		}
		out = append(out, memory.QueryResult{
			Document: memory.Document{ID: r.ID, Content: r.Content, Metadata: r.Metadata},
			Distance: 1 - r.Similarity,
		})
		if len(out) == k {
			break
		}
	}
	return out, nil
}

// Close releases resources. chromem persists on write, nothing to flush.
func (s *Store) Close() error {
	return nil
}

// queryAtMost queries with the largest result count the collection can
// satisfy. chromem rejects nResults above the (filtered) document count and
// does not expose that count up front, so shrink until it accepts.
func (s *Store) queryAtMost(ctx context.Context, col *chromem.Collection, queryText string, k int, where map[string]string) ([]chromem.Result, error) {
	if total := col.Count(); k > total {
		k = total
	}
	for ; k >= 1; k-- {
		results, err := col.Query(ctx, queryText, k, where, nil)
		if err == nil {
			return results, nil
		}
		if !isTooManyResultsError(err) {
			return nil, err
		}
	}
	return nil, nil
}

func isTooManyResultsError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "nResults must be") || strings.Contains(msg, "number of documents")
}

// eqWhere extracts the exact-match predicates chromem can filter natively.
func eqWhere(filters []memory.Filter) map[string]string {
	var where map[string]string
	for _, f := range filters {
		if f.Op != memory.FilterEq {
			continue
		}
		if where == nil {
			where = make(map[string]string)
		}
		where[f.Field] = f.Value
	}
	return where
}

func matchesAll(metadata map[string]string, filters []memory.Filter) bool {
	for _, f := range filters {
		if !f.Matches(metadata) {
			return false
		}
	}
	return true
}
