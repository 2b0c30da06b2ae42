package chunker

import (
	"context"
	"fmt"
	"strings"

	"github.com/sevigo/ragchunk/embeddings"
	"github.com/sevigo/ragchunk/schema"
)

// embedChunks populates each chunk's own embedding from its text alone.
// Returns new chunk values; provider failures propagate unchanged.
func (c *Chunker) embedChunks(ctx context.Context, chunks []schema.Chunk) ([]schema.Chunk, error) {
	if c.embedder == nil {
		return nil, ErrMissingEmbedder
	}
	if len(chunks) == 0 {
		return chunks, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := c.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedding provider returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	out := make([]schema.Chunk, len(chunks))
	for i, chunk := range chunks {
		embedded := chunk
		embedded.Embedding = vectors[i]
		embedded.Metadata = cloneMetadata(chunk.Metadata)
		embedded.Metadata[schema.MetaEmbeddingDim] = len(vectors[i])
		out[i] = embedded
	}
	return out, nil
}

// globalContextEmbed derives a contextual embedding for every chunk by
// blending the chunk's own embedding with a broader-context vector: the whole
// document in full-document mode, or the surrounding chunk window in
// sliding-window mode. Chunk embeddings must already be populated; this pass
// never computes them itself.
func (c *Chunker) globalContextEmbed(ctx context.Context, docText string, chunks []schema.Chunk) ([]schema.Chunk, error) {
	if c.embedder == nil {
		return nil, ErrMissingEmbedder
	}
	if len(chunks) == 0 {
		return chunks, nil
	}

	for i := range chunks {
		if chunks[i].Embedding == nil {
			return nil, fmt.Errorf("%w: chunk %d", ErrMissingEmbedding, i)
		}
	}

	switch c.opts.globalContextMode {
	case GlobalContextSlidingWindow:
		return c.blendSlidingWindow(ctx, chunks)
	default:
		return c.blendFullDocument(ctx, docText, chunks)
	}
}

func (c *Chunker) blendFullDocument(ctx context.Context, docText string, chunks []schema.Chunk) ([]schema.Chunk, error) {
	if len(docText) > c.opts.maxContextLength {
		c.logger.InfoContext(ctx, "Document exceeds max context length, truncating for document embedding",
			"document_length", len(docText), "max_context_length", c.opts.maxContextLength)
		docText = docText[:alignRuneStart(docText, c.opts.maxContextLength)]
	}

	docVector, err := c.embedder.EmbedQuery(ctx, docText)
	if err != nil {
		return nil, fmt.Errorf("failed to embed document: %w", err)
	}

	out := make([]schema.Chunk, len(chunks))
	for i, chunk := range chunks {
		blended := chunk
		blended.ContextualEmbedding = embeddings.Blend(chunk.Embedding, docVector, c.opts.blendWeight)
		blended.Metadata = cloneMetadata(chunk.Metadata)
		out[i] = blended
	}
	return out, nil
}

func (c *Chunker) blendSlidingWindow(ctx context.Context, chunks []schema.Chunk) ([]schema.Chunk, error) {
	window := c.opts.windowSize

	contexts := make([]string, len(chunks))
	for i := range chunks {
		lo := i - window
		if lo < 0 {
			lo = 0
		}
		hi := i + window
		if hi > len(chunks)-1 {
			hi = len(chunks) - 1
		}

		parts := make([]string, 0, hi-lo+1)
		for j := lo; j <= hi; j++ {
			parts = append(parts, chunks[j].Text)
		}
		contextText := strings.Join(parts, " ")
		if len(contextText) > c.opts.maxContextLength {
			contextText = contextText[:alignRuneStart(contextText, c.opts.maxContextLength)]
		}
		contexts[i] = contextText
	}

	contextVectors, err := c.embedder.EmbedDocuments(ctx, contexts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed context windows: %w", err)
	}
	if len(contextVectors) != len(chunks) {
		return nil, fmt.Errorf("embedding provider returned %d vectors for %d windows", len(contextVectors), len(chunks))
	}

	out := make([]schema.Chunk, len(chunks))
	for i, chunk := range chunks {
		blended := chunk
		blended.ContextualEmbedding = embeddings.Blend(chunk.Embedding, contextVectors[i], c.opts.blendWeight)
		blended.Metadata = cloneMetadata(chunk.Metadata)
		blended.Metadata[schema.MetaContextWindow] = window
		out[i] = blended
	}
	return out, nil
}
