// Package ollama provides an embeddings.Embedder backed by a local or remote
// Ollama server.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ollama/ollama/api"

	"github.com/sevigo/ragchunk/embeddings"
)

var (
	ErrInvalidModel        = errors.New("ollama: model name is required")
	ErrEmptyResponse       = errors.New("ollama: empty embedding response")
	ErrIncompleteEmbedding = errors.New("ollama: not all input texts were embedded")
)

// Embedder calls the Ollama /api/embed endpoint for a fixed model.
type Embedder struct {
	client *api.Client
	model  string
	logger *slog.Logger

	dimOnce sync.Once
	dim     int
	dimErr  error
}

var _ embeddings.Embedder = (*Embedder)(nil)

func New(opts ...Option) (*Embedder, error) {
	o := applyOptions(opts...)
	if o.model == "" {
		return nil, ErrInvalidModel
	}

	client := o.client
	if client == nil {
		var err error
		client, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
	}

	return &Embedder{
		client: client,
		model:  o.model,
		logger: o.logger.With("component", "ollama_embedder", "model", o.model),
	}, nil
}

func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	resp, err := e.client.Embed(ctx, &api.EmbedRequest{
		Model: e.model,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama embed request failed: %w", err)
	}

	if len(resp.Embeddings) != len(texts) {
		e.logger.ErrorContext(ctx, "Embedding count mismatch",
			"expected", len(texts), "got", len(resp.Embeddings))
		return nil, ErrIncompleteEmbedding
	}

	return resp.Embeddings, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, ErrEmptyResponse
	}
	return vectors[0], nil
}

// GetDimension probes the model once with a short text and caches the result.
func (e *Embedder) GetDimension(ctx context.Context) (int, error) {
	e.dimOnce.Do(func() {
		vector, err := e.EmbedQuery(ctx, "dimension probe")
		if err != nil {
			e.dimErr = fmt.Errorf("failed to probe embedding dimension: %w", err)
			return
		}
		e.dim = len(vector)
	})
	return e.dim, e.dimErr
}
