// Package fake provides a deterministic in-process embedder for tests.
package fake

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"sync"

	"github.com/sevigo/ragchunk/embeddings"
)

// Embedder produces deterministic pseudo-embeddings derived from token hashes.
// The same text always yields the same unit vector, and texts sharing tokens
// yield similar vectors, which is enough to exercise similarity-driven logic
// without a model. Exact vectors can be pinned per text for boundary tests.
type Embedder struct {
	dimension int

	mu     sync.RWMutex
	pinned map[string][]float32
	calls  []string
}

var _ embeddings.Embedder = (*Embedder)(nil)

func New(dimension int) *Embedder {
	if dimension <= 0 {
		dimension = 8
	}
	return &Embedder{
		dimension: dimension,
		pinned:    make(map[string][]float32),
	}
}

// Pin fixes the vector returned for an exact text, bypassing hashing.
func (e *Embedder) Pin(text string, vector []float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pinned[text] = vector
}

// Calls returns every text embedded so far, in call order.
func (e *Embedder) Calls() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, len(e.calls))
	copy(out, e.calls)
	return out
}

func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = e.embedOne(text)
	}
	return vectors, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.embedOne(text), nil
}

func (e *Embedder) GetDimension(_ context.Context) (int, error) {
	return e.dimension, nil
}

func (e *Embedder) embedOne(text string) []float32 {
	e.mu.Lock()
	e.calls = append(e.calls, text)
	pinned, ok := e.pinned[text]
	e.mu.Unlock()

	if ok {
		out := make([]float32, len(pinned))
		copy(out, pinned)
		return out
	}

	vec := make([]float64, e.dimension)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New64a()
		h.Write([]byte(token))
		sum := h.Sum64()
		for i := range vec {
			// Spread the token hash across dimensions deterministically.
			bit := (sum >> (uint(i) % 64)) & 1
			if bit == 1 {
				vec[i]++
			} else {
				vec[i]--
			}
			sum = sum*1099511628211 + 0x9e3779b97f4a7c15
		}
	}

	var norm float64
	for _, x := range vec {
		norm += x * x
	}
	out := make([]float32, e.dimension)
	if norm == 0 {
		out[0] = 1
		return out
	}
	scale := 1 / math.Sqrt(norm)
	for i, x := range vec {
		out[i] = float32(x * scale)
	}
	return out
}
