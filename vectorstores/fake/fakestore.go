// Package fake provides an in-memory ChunkStore for tests.
package fake

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sevigo/ragchunk/embeddings"
	"github.com/sevigo/ragchunk/schema"
	"github.com/sevigo/ragchunk/vectorstores"
)

type storedChunk struct {
	documentID string
	chunk      schema.Chunk
	vector     []float32
}

// Store keeps chunks in memory and ranks searches by cosine similarity when
// an embedder is configured. Without one, searches return chunks in
// insertion order.
type Store struct {
	mu       sync.RWMutex
	embedder embeddings.Embedder
	chunks   []storedChunk
}

var _ vectorstores.ChunkStore = (*Store)(nil)

// New returns an empty fake store. The embedder may be nil.
func New(embedder embeddings.Embedder) *Store {
	return &Store{embedder: embedder}
}

// AddChunks stores a document's chunks, replacing any previous chunks held
// under the same document ID.
func (s *Store) AddChunks(_ context.Context, documentID string, chunks []schema.Chunk, _ ...vectorstores.Option) ([]string, error) {
	if strings.TrimSpace(documentID) == "" {
		return nil, fmt.Errorf("document ID cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(documentID)

	ids := make([]string, len(chunks))
	for i, chunk := range chunks {
		vector := chunk.ContextualEmbedding
		if vector == nil {
			vector = chunk.Embedding
		}
		s.chunks = append(s.chunks, storedChunk{
			documentID: documentID,
			chunk:      chunk,
			vector:     vector,
		})
		ids[i] = fmt.Sprintf("%s#%d", documentID, chunk.Index)
	}
	return ids, nil
}

// SimilaritySearch ranks stored chunks against the query embedding.
func (s *Store) SimilaritySearch(ctx context.Context, query string, limit int, _ ...vectorstores.Option) ([]vectorstores.ScoredChunk, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("search limit must be positive")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var queryVector []float32
	if s.embedder != nil {
		var err error
		queryVector, err = s.embedder.EmbedQuery(ctx, query)
		if err != nil {
			return nil, err
		}
	}

	results := make([]vectorstores.ScoredChunk, 0, len(s.chunks))
	for _, stored := range s.chunks {
		score := float32(1.0)
		if queryVector != nil && stored.vector != nil {
			score = float32(embeddings.CosineSimilarity(queryVector, stored.vector))
		}
		results = append(results, vectorstores.ScoredChunk{Chunk: stored.chunk, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// DeleteDocument drops every chunk stored under documentID.
func (s *Store) DeleteDocument(_ context.Context, documentID string, _ ...vectorstores.Option) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(documentID)
	return nil
}

func (s *Store) removeLocked(documentID string) {
	kept := s.chunks[:0]
	for _, stored := range s.chunks {
		if stored.documentID != documentID {
			kept = append(kept, stored)
		}
	}
	s.chunks = kept
}

// Chunks returns all chunks held for documentID in insertion order.
func (s *Store) Chunks(documentID string) []schema.Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var chunks []schema.Chunk
	for _, stored := range s.chunks {
		if stored.documentID == documentID {
			chunks = append(chunks, stored.chunk)
		}
	}
	return chunks
}

// Len reports the total number of stored chunks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}
