// Package gemini provides an embeddings.Embedder backed by the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/sevigo/ragchunk/embeddings"
)

var (
	ErrMissingAPIKey = errors.New("gemini: API key is required")
	ErrEmbeddings    = errors.New("gemini: failed to generate embeddings")
)

const defaultEmbeddingModel = "text-embedding-004"

// Embedder generates embeddings through the Gemini embedContent endpoint.
type Embedder struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

var _ embeddings.Embedder = (*Embedder)(nil)

func New(ctx context.Context, opts ...Option) (*Embedder, error) {
	o := applyOptions(opts...)
	if o.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: o.apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Embedder{
		client: client,
		model:  o.model,
		logger: o.logger.With("component", "gemini_embedder", "model", o.model),
	}, nil
}

func (g *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	res, err := g.client.Models.EmbedContent(ctx, g.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrEmbeddings.Error(), err)
	}

	if len(res.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, but got %d",
			ErrEmbeddings, len(texts), len(res.Embeddings))
	}

	vectors := make([][]float32, len(res.Embeddings))
	for i, e := range res.Embeddings {
		vectors[i] = e.Values
	}
	return vectors, nil
}

func (g *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	content := genai.NewContentFromText(text, genai.RoleUser)
	res, err := g.client.Models.EmbedContent(ctx, g.model, []*genai.Content{content}, nil)
	if err != nil {
		return nil, fmt.Errorf("%s for query: %w", ErrEmbeddings.Error(), err)
	}

	if len(res.Embeddings) == 0 || res.Embeddings[0] == nil {
		return nil, fmt.Errorf("%w: empty response", ErrEmbeddings)
	}
	return res.Embeddings[0].Values, nil
}

// GetDimension probes the model with a short text.
func (g *Embedder) GetDimension(ctx context.Context) (int, error) {
	vector, err := g.EmbedQuery(ctx, "dimension probe")
	if err != nil {
		return 0, fmt.Errorf("failed to probe embedding dimension: %w", err)
	}
	return len(vector), nil
}
