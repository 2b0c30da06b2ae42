package embeddings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Embedder maps text to fixed-length float vectors. Implementations must be
// deterministic for a fixed model version and produce vectors of a single
// dimensionality agreed at construction time.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	GetDimension(ctx context.Context) (int, error)
}

var (
	ErrEmptyText         = errors.New("text cannot be empty")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// batchingEmbedder wraps a provider client with text preprocessing, batched
// concurrent dispatch, and dimension checking. Batches run under an errgroup
// with a bounded limit and land in order-indexed slots, so the output equals
// a sequential call. Returned vectors are checked against the dimensionality
// the client reports; a client that cannot report one skips the check.
type batchingEmbedder struct {
	client         Embedder
	batchSize      int
	maxConcurrency int
	stripNewLines  bool

	dimOnce sync.Once
	dim     int
	dimErr  error
}

// NewEmbedder wraps a provider client. Wrapping an already-wrapped embedder
// is rejected so preprocessing and batching cannot apply twice.
func NewEmbedder(client Embedder, opts ...Option) (Embedder, error) {
	if client == nil {
		return nil, errors.New("embeddings client is nil")
	}
	if _, wrapped := client.(*batchingEmbedder); wrapped {
		return nil, errors.New("embeddings client is already wrapped")
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.batchSize <= 0 {
		o.batchSize = defaultBatchSize
	}
	if o.maxConcurrency <= 0 {
		o.maxConcurrency = defaultMaxConcurrency
	}

	return &batchingEmbedder{
		client:         client,
		batchSize:      o.batchSize,
		maxConcurrency: o.maxConcurrency,
		stripNewLines:  o.stripNewLines,
	}, nil
}

func (e *batchingEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	vector, err := e.client.EmbedQuery(ctx, e.prepare(text))
	if err != nil {
		return nil, err
	}
	if err := e.checkDimension(ctx, vector); err != nil {
		return nil, err
	}
	return vector, nil
}

func (e *batchingEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prepared := make([]string, len(texts))
	for i, text := range texts {
		prepared[i] = e.prepare(text)
	}

	numBatches := (len(prepared) + e.batchSize - 1) / e.batchSize
	results := make([][][]float32, numBatches)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxConcurrency)
	for b := 0; b < numBatches; b++ {
		lo := b * e.batchSize
		hi := min(lo+e.batchSize, len(prepared))
		g.Go(func() error {
			vectors, err := e.client.EmbedDocuments(gctx, prepared[lo:hi])
			if err != nil {
				return fmt.Errorf("embedding batch %d/%d: %w", b+1, numBatches, err)
			}
			if len(vectors) != hi-lo {
				return fmt.Errorf("embedding batch %d/%d: got %d vectors for %d texts", b+1, numBatches, len(vectors), hi-lo)
			}
			results[b] = vectors
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([][]float32, 0, len(texts))
	for _, batch := range results {
		out = append(out, batch...)
	}
	for i, vector := range out {
		if err := e.checkDimension(ctx, vector); err != nil {
			return nil, fmt.Errorf("vector %d: %w", i, err)
		}
	}
	return out, nil
}

func (e *batchingEmbedder) GetDimension(ctx context.Context) (int, error) {
	e.resolveDimension(ctx)
	return e.dim, e.dimErr
}

func (e *batchingEmbedder) resolveDimension(ctx context.Context) {
	e.dimOnce.Do(func() {
		e.dim, e.dimErr = e.client.GetDimension(ctx)
	})
}

func (e *batchingEmbedder) checkDimension(ctx context.Context, vector []float32) error {
	e.resolveDimension(ctx)
	if e.dimErr != nil || e.dim <= 0 {
		return nil
	}
	if len(vector) != e.dim {
		return fmt.Errorf("%w: got %d dimensions, provider reports %d", ErrDimensionMismatch, len(vector), e.dim)
	}
	return nil
}

func (e *batchingEmbedder) prepare(text string) string {
	if e.stripNewLines {
		return strings.ReplaceAll(text, "\n", " ")
	}
	return text
}
