// Package chunker splits cleaned documents into retrieval units. A Chunker
// dispatches to one of several composable pipelines: structure-aware
// sectioning, semantic boundary detection, context augmentation, and
// globally-contextualized ("late") embeddings, plus hybrids of the three.
//
// Every pipeline is a pure function over its inputs: stages never mutate a
// chunk after emitting it, no state is shared across documents, and
// concurrent Chunk calls are always safe. The only slow operation is the
// injected embedding provider; its failures propagate unchanged, never
// replaced by default vectors.
package chunker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sevigo/ragchunk/embeddings"
	"github.com/sevigo/ragchunk/schema"
	"github.com/sevigo/ragchunk/structural"
)

// Chunker is the unified facade over all chunking strategies.
type Chunker struct {
	embedder embeddings.Embedder
	parser   *structural.Parser
	logger   *slog.Logger
	opts     options
}

// New validates the configuration and returns a ready Chunker. The embedder
// may be nil when only structural strategies are used; embedding-driven
// pipelines fail with ErrMissingEmbedder otherwise.
func New(embedder embeddings.Embedder, logger *slog.Logger, opts ...Option) (*Chunker, error) {
	if logger == nil {
		logger = slog.Default()
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if err := validateOptions(o); err != nil {
		return nil, err
	}

	return &Chunker{
		embedder: embedder,
		parser:   structural.NewParser(logger),
		logger:   logger.With("component", "chunker"),
		opts:     o,
	}, nil
}

// Chunk runs the named strategy over text and returns the ordered chunk
// sequence. Empty (or all-whitespace) input yields an empty sequence, not an
// error. Callers see either a complete, valid sequence or an error; there
// are no partial results.
func (c *Chunker) Chunk(ctx context.Context, text string, strategy Strategy) ([]schema.Chunk, error) {
	builder, ok := pipelineFor(strategy)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}

	if strings.TrimSpace(text) == "" {
		return []schema.Chunk{}, nil
	}

	chunks, err := builder(c)(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("strategy %q failed: %w", strategy, err)
	}

	c.logger.DebugContext(ctx, "Chunking completed",
		"strategy", string(strategy), "chunks", len(chunks), "document_length", len(text))

	return finalize(chunks, strategy), nil
}

// finalize stamps the shared metadata and reasserts dense 0..n-1 indexes on
// the emitted sequence.
func finalize(chunks []schema.Chunk, strategy Strategy) []schema.Chunk {
	out := make([]schema.Chunk, len(chunks))
	for i, chunk := range chunks {
		final := chunk
		final.Index = i
		final.Metadata = cloneMetadata(chunk.Metadata)
		final.Metadata[schema.MetaStrategy] = string(strategy)
		final.Metadata[schema.MetaTotalChunks] = len(chunks)
		out[i] = final
	}
	return out
}
