// Package vectorstores defines the storage contract for chunked documents.
// A ChunkStore persists the chunks produced by the chunker together with
// their embeddings and serves vector similarity queries over them.
package vectorstores

import (
	"context"
	"errors"
	"maps"

	"github.com/sevigo/ragchunk/schema"
)

var (
	ErrCollectionNotFound = errors.New("collection not found")
)

// ChunkStore persists chunks and answers similarity queries. Implementations
// must be safe for concurrent use.
type ChunkStore interface {
	// AddChunks upserts the chunks of one document and returns the point IDs
	// in chunk order. IDs are deterministic per (documentID, chunk index), so
	// re-ingesting a document replaces its previous chunks.
	AddChunks(ctx context.Context, documentID string, chunks []schema.Chunk, options ...Option) ([]string, error)
	// SimilaritySearch embeds the query and returns the closest chunks with
	// their similarity scores, best first.
	SimilaritySearch(ctx context.Context, query string, limit int, options ...Option) ([]ScoredChunk, error)
	// DeleteDocument removes every chunk stored under documentID.
	DeleteDocument(ctx context.Context, documentID string, options ...Option) error
}

// CollectionManager is implemented by stores that expose collection
// lifecycle operations.
type CollectionManager interface {
	EnsureCollection(ctx context.Context, dimension int) error
	DeleteCollection(ctx context.Context, name string) error
	ListCollections(ctx context.Context) ([]string, error)
}

// ScoredChunk pairs a retrieved chunk with its similarity score.
type ScoredChunk struct {
	Chunk schema.Chunk
	Score float32
}

type Option func(*Options)

type Options struct {
	NameSpace      string
	ScoreThreshold float32
	Filters        map[string]any
}

// WithNameSpace overrides the store's default collection for one call.
func WithNameSpace(namespace string) Option {
	return func(opts *Options) {
		opts.NameSpace = namespace
	}
}

// WithScoreThreshold drops search results scoring below threshold.
func WithScoreThreshold(threshold float32) Option {
	return func(opts *Options) {
		opts.ScoreThreshold = threshold
	}
}

// WithFilters restricts a search to chunks whose payload matches all of the
// given key/value pairs.
func WithFilters(filters map[string]any) Option {
	return func(opts *Options) {
		if opts.Filters == nil {
			opts.Filters = make(map[string]any)
		}
		maps.Copy(opts.Filters, filters)
	}
}

// WithFilter adds a single payload filter.
func WithFilter(key string, value any) Option {
	return func(opts *Options) {
		if opts.Filters == nil {
			opts.Filters = make(map[string]any)
		}
		opts.Filters[key] = value
	}
}

func ParseOptions(options ...Option) Options {
	opts := Options{
		Filters: make(map[string]any),
	}
	for _, option := range options {
		option(&opts)
	}
	return opts
}
