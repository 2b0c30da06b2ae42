package chunker_test

import (
	"context"
	"log/slog"
	"math"
	"os"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/ragchunk/chunker"
	"github.com/sevigo/ragchunk/embeddings"
	"github.com/sevigo/ragchunk/embeddings/fake"
	"github.com/sevigo/ragchunk/schema"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func newChunker(t *testing.T, embedder embeddings.Embedder, opts ...chunker.Option) *chunker.Chunker {
	t.Helper()
	c, err := chunker.New(embedder, testLogger(), opts...)
	require.NoError(t, err)
	return c
}

// requireChunkCoverage checks the partition invariant: ordered, contiguous
// spans covering the whole document, with each chunk's span content present
// as a suffix of its text (the prefix may carry overlap).
func requireChunkCoverage(t *testing.T, text string, chunks []schema.Chunk) {
	t.Helper()
	require.NotEmpty(t, chunks)

	pos := 0
	for i, chunk := range chunks {
		require.Equal(t, i, chunk.Index, "indexes must be dense and ordered")
		require.Equal(t, pos, chunk.CharStart, "spans must be contiguous")
		require.True(t, strings.HasSuffix(chunk.Text, text[chunk.CharStart:chunk.CharEnd]),
			"chunk text must end with its own span content")
		pos = chunk.CharEnd
	}
	require.Equal(t, len(text), pos, "spans must cover the full document")
}

func TestNew_InvalidOptions(t *testing.T) {
	tests := []struct {
		name    string
		opts    []chunker.Option
		wantErr error
	}{
		{"zero chunk size", []chunker.Option{chunker.WithChunkSize(0)}, chunker.ErrInvalidChunkSize},
		{"negative chunk size", []chunker.Option{chunker.WithChunkSize(-5)}, chunker.ErrInvalidChunkSize},
		{"overlap equals chunk size", []chunker.Option{chunker.WithChunkSize(100), chunker.WithOverlapSize(100)}, chunker.ErrInvalidOverlap},
		{"negative overlap", []chunker.Option{chunker.WithOverlapSize(-1)}, chunker.ErrInvalidOverlap},
		{"negative context window", []chunker.Option{chunker.WithContextWindow(-1)}, chunker.ErrInvalidContextWindow},
		{"threshold above one", []chunker.Option{chunker.WithSimilarityThreshold(1.5)}, chunker.ErrInvalidThreshold},
		{"negative threshold", []chunker.Option{chunker.WithSimilarityThreshold(-0.1)}, chunker.ErrInvalidThreshold},
		{"blend weight above one", []chunker.Option{chunker.WithBlendWeight(1.1)}, chunker.ErrInvalidBlendWeight},
		{"zero window size", []chunker.Option{chunker.WithWindowSize(0)}, chunker.ErrInvalidWindowSize},
		{"bad document type", []chunker.Option{chunker.WithDocumentType("spreadsheet")}, chunker.ErrInvalidDocumentType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := chunker.New(fake.New(8), testLogger(), tt.opts...)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestChunk_EmptyInput(t *testing.T) {
	c := newChunker(t, fake.New(8))

	for _, text := range []string{"", "   ", "\n\t\n"} {
		chunks, err := c.Chunk(context.Background(), text, chunker.StrategyStructure)
		require.NoError(t, err)
		assert.Empty(t, chunks)
		assert.NotNil(t, chunks)
	}
}

func TestChunk_UnknownStrategy(t *testing.T) {
	c := newChunker(t, fake.New(8))

	_, err := c.Chunk(context.Background(), "some text", chunker.Strategy("clever"))
	require.Error(t, err)
	assert.ErrorIs(t, err, chunker.ErrUnknownStrategy)
}

func TestChunk_MissingEmbedder(t *testing.T) {
	c := newChunker(t, nil, chunker.WithDocumentType(schema.DocumentTypeMarkup))

	// Structural chunking works without a provider.
	chunks, err := c.Chunk(context.Background(), "# H\n\nbody\n", chunker.StrategyStructure)
	require.NoError(t, err)
	assert.Len(t, chunks, 1)

	// Embedding-driven strategies fail fast.
	_, err = c.Chunk(context.Background(), "Some text here.", chunker.StrategySemantic)
	assert.ErrorIs(t, err, chunker.ErrMissingEmbedder)

	_, err = c.Chunk(context.Background(), "Some text here.", chunker.StrategyGlobalContext)
	assert.ErrorIs(t, err, chunker.ErrMissingEmbedder)
}

func TestChunk_StructureHeadingHierarchy(t *testing.T) {
	c := newChunker(t, nil, chunker.WithDocumentType(schema.DocumentTypeMarkup))

	text := "# A\n\nintro paragraph\n\n## B\n\nsection content\n"
	chunks, err := c.Chunk(context.Background(), text, chunker.StrategyStructure)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, []string{"A"}, chunks[0].SectionHierarchy)
	assert.Equal(t, []string{"A", "B"}, chunks[1].SectionHierarchy)
	assert.Equal(t, "A", chunks[0].Heading)
	assert.Equal(t, "B", chunks[1].Heading)
	assert.Equal(t, "A > B", chunks[1].Metadata[schema.MetaSectionPath])
	assert.Equal(t, 2, chunks[1].Metadata[schema.MetaHierarchyDepth])
	requireChunkCoverage(t, text, chunks)
}

func TestChunk_StructureOversizedSection(t *testing.T) {
	c := newChunker(t, nil,
		chunker.WithDocumentType(schema.DocumentTypeMarkup),
		chunker.WithChunkSize(60),
		chunker.WithOverlapSize(0),
	)

	text := "# Big\n\n" + strings.Repeat("словоword ", 5) + "\n\n" +
		strings.Repeat("more text here and then some ", 3) + "\n\nshort tail\n"
	chunks, err := c.Chunk(context.Background(), text, chunker.StrategyStructure)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1, "oversized section must be re-packed at paragraph boundaries")

	for _, chunk := range chunks {
		assert.Equal(t, "Big", chunk.Heading)
		assert.Equal(t, []string{"Big"}, chunk.SectionHierarchy)
	}
	requireChunkCoverage(t, text, chunks)
}

func TestChunk_MetadataStamp(t *testing.T) {
	c := newChunker(t, fake.New(8), chunker.WithChunkSize(40), chunker.WithOverlapSize(0))

	text := "One short sentence. Another short sentence. A third short sentence. And a fourth one."
	chunks, err := c.Chunk(context.Background(), text, chunker.StrategySemantic)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	for _, chunk := range chunks {
		assert.Equal(t, string(chunker.StrategySemantic), chunk.Metadata[schema.MetaStrategy])
		assert.Equal(t, len(chunks), chunk.Metadata[schema.MetaTotalChunks])
	}
}

func TestChunk_SemanticCoverageAndDeterminism(t *testing.T) {
	c := newChunker(t, fake.New(16), chunker.WithChunkSize(50), chunker.WithOverlapSize(10))

	text := "Databases store rows. Indexes speed up lookups. Caches keep hot data near. " +
		"Meanwhile gardens need water. Flowers bloom in spring. Bees visit the blossoms. " +
		"Compilers parse source code. Linkers resolve symbols. Loaders map segments."

	first, err := c.Chunk(context.Background(), text, chunker.StrategySemantic)
	require.NoError(t, err)
	requireChunkCoverage(t, text, first)

	second, err := c.Chunk(context.Background(), text, chunker.StrategySemantic)
	require.NoError(t, err)
	assert.Equal(t, first, second, "same input and configuration must yield identical chunks")
}

func TestChunk_SemanticOverlapPrefix(t *testing.T) {
	overlap := 10
	c := newChunker(t, fake.New(16),
		chunker.WithChunkSize(25),
		chunker.WithOverlapSize(overlap),
		// Threshold 1 cuts at every size-eligible boundary, making the
		// chunk count independent of the fake embedder's hash geometry.
		chunker.WithSimilarityThreshold(1),
	)

	text := "Alpha sentence one here. Totally different beta topic. Gamma subject changes again. Delta closes the text."
	chunks, err := c.Chunk(context.Background(), text, chunker.StrategySemantic)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i, chunk := range chunks {
		body := text[chunk.CharStart:chunk.CharEnd]
		if i == 0 {
			assert.Equal(t, body, chunk.Text, "first chunk carries no overlap")
			continue
		}
		prefix := strings.TrimSuffix(chunk.Text, body)
		assert.LessOrEqual(t, len(prefix), overlap)
		assert.True(t, strings.HasSuffix(text[:chunk.CharStart], prefix),
			"overlap prefix must be the tail of the preceding text")
	}
}

func TestChunk_ContextStrategyBoundaries(t *testing.T) {
	c := newChunker(t, fake.New(16),
		chunker.WithChunkSize(25),
		chunker.WithOverlapSize(10),
		chunker.WithContextWindow(1),
		chunker.WithSimilarityThreshold(1),
	)

	text := "Alpha sentence one here. Totally different beta topic. Gamma subject changes again. Delta closes the text."
	chunks, err := c.Chunk(context.Background(), text, chunker.StrategyContext)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(chunks), 3)

	first := chunks[0]
	last := chunks[len(chunks)-1]
	assert.Nil(t, first.ContextBefore)
	assert.NotNil(t, first.ContextAfter)
	assert.NotNil(t, last.ContextBefore)
	assert.Nil(t, last.ContextAfter)

	for _, middle := range chunks[1 : len(chunks)-1] {
		assert.NotNil(t, middle.ContextBefore)
		assert.NotNil(t, middle.ContextAfter)
	}
}

func TestChunk_GlobalContextEmbeddings(t *testing.T) {
	dim := 8
	c := newChunker(t, fake.New(dim), chunker.WithChunkSize(40), chunker.WithOverlapSize(0))

	text := "First topic sentence here. Second topic sentence there. Third topic sentence elsewhere."
	chunks, err := c.Chunk(context.Background(), text, chunker.StrategyGlobalContext)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	for _, chunk := range chunks {
		require.Len(t, chunk.Embedding, dim)
		require.Len(t, chunk.ContextualEmbedding, dim)
		assert.Equal(t, dim, chunk.Metadata[schema.MetaEmbeddingDim])

		var norm float64
		for _, x := range chunk.ContextualEmbedding {
			norm += float64(x) * float64(x)
		}
		assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5, "contextual embeddings are unit-normalized")

		// The blend keeps the chunk's own signal dominant: the contextual
		// vector reads closer to the chunk embedding than a pure document
		// vector would, never opposite to it.
		sim := embeddings.CosineSimilarity(chunk.Embedding, chunk.ContextualEmbedding)
		assert.Greater(t, sim, 0.0)
	}
	requireChunkCoverage(t, text, chunks)
}

func TestChunk_GlobalContextSlidingWindow(t *testing.T) {
	c := newChunker(t, fake.New(8),
		chunker.WithChunkSize(40),
		chunker.WithOverlapSize(0),
		chunker.WithGlobalContextMode(chunker.GlobalContextSlidingWindow),
		chunker.WithWindowSize(1),
	)

	text := "First topic sentence here. Second topic sentence there. Third topic sentence elsewhere."
	chunks, err := c.Chunk(context.Background(), text, chunker.StrategyGlobalContext)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	for _, chunk := range chunks {
		assert.NotNil(t, chunk.ContextualEmbedding)
		assert.Equal(t, 1, chunk.Metadata[schema.MetaContextWindow])
	}
}

func TestChunk_UnpunctuatedTextFallback(t *testing.T) {
	c := newChunker(t, fake.New(8), chunker.WithChunkSize(100), chunker.WithOverlapSize(0))

	// 500 characters with no sentence boundaries: the splitter falls back
	// to fixed-width units, and those come out as chunks verbatim. The
	// slices are character-identical, so their embeddings are identical
	// too; similarity must not merge them back into one giant chunk.
	text := strings.Repeat("x", 500)
	chunks, err := c.Chunk(context.Background(), text, chunker.StrategySemantic)
	require.NoError(t, err)
	require.Len(t, chunks, 5)
	for _, chunk := range chunks {
		assert.Len(t, chunk.Text, 100)
	}
	requireChunkCoverage(t, text, chunks)
}

func TestChunk_MultibyteTextStaysValidUTF8(t *testing.T) {
	c := newChunker(t, fake.New(8),
		chunker.WithChunkSize(99),
		chunker.WithOverlapSize(10),
		chunker.WithContextWindow(1),
	)

	// Two-byte runes with an odd chunk size force every fixed-width cut,
	// overlap tail, and context truncation onto a rune boundary.
	text := strings.Repeat("é", 300)
	chunks, err := c.Chunk(context.Background(), text, chunker.StrategyContext)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i, chunk := range chunks {
		assert.True(t, utf8.ValidString(chunk.Text), "chunk %d text", i)
		if chunk.ContextBefore != nil {
			assert.True(t, utf8.ValidString(*chunk.ContextBefore), "chunk %d context_before", i)
		}
		if chunk.ContextAfter != nil {
			assert.True(t, utf8.ValidString(*chunk.ContextAfter), "chunk %d context_after", i)
		}
	}
}

func TestChunk_StructureContextKeepsHierarchy(t *testing.T) {
	c := newChunker(t, nil,
		chunker.WithDocumentType(schema.DocumentTypeMarkup),
		chunker.WithContextWindow(1),
	)

	text := "# A\n\nintro paragraph\n\n## B\n\nsection content\n"
	chunks, err := c.Chunk(context.Background(), text, chunker.StrategyStructureContext)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, []string{"A"}, chunks[0].SectionHierarchy)
	assert.NotNil(t, chunks[0].ContextAfter)
	assert.NotNil(t, chunks[1].ContextBefore)
	assert.Equal(t, string(chunker.StrategyStructureContext), chunks[0].Metadata[schema.MetaStrategy])
}

func TestChunk_TripleHybrid(t *testing.T) {
	c := newChunker(t, fake.New(16),
		chunker.WithDocumentType(schema.DocumentTypeMarkup),
		chunker.WithChunkSize(80),
		chunker.WithOverlapSize(0),
		chunker.WithContextWindow(1),
	)

	big := "The first sentence talks about storage engines. " +
		"The second sentence describes write-ahead logging. " +
		"The third sentence explains page compaction in detail. " +
		"The fourth sentence covers crash recovery semantics. " +
		"The fifth sentence closes the discussion of durability."
	text := "# Guide\n\n" + big + "\n\n# Summary\n\nA short closing section.\n"

	chunks, err := c.Chunk(context.Background(), text, chunker.StrategyTripleHybrid)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 2, "the large section must be re-split semantically")

	var guideChunks []schema.Chunk
	for _, chunk := range chunks {
		if chunk.Heading == "Guide" {
			guideChunks = append(guideChunks, chunk)
		}
	}
	require.GreaterOrEqual(t, len(guideChunks), 2)

	// Sub-chunks inherit the section identity and stay globally ordered.
	for i := 1; i < len(guideChunks); i++ {
		assert.GreaterOrEqual(t, guideChunks[i].CharStart, guideChunks[i-1].CharEnd)
	}
	for _, chunk := range guideChunks {
		assert.Equal(t, []string{"Guide"}, chunk.SectionHierarchy)
	}

	// Context augmentation ran over the flattened sequence.
	assert.Nil(t, chunks[0].ContextBefore)
	assert.Nil(t, chunks[len(chunks)-1].ContextAfter)
	assert.NotNil(t, chunks[1].ContextBefore)

	pos := 0
	for i, chunk := range chunks {
		require.Equal(t, i, chunk.Index)
		require.Equal(t, pos, chunk.CharStart)
		pos = chunk.CharEnd
	}
	require.Equal(t, len(text), pos)
}

func TestChunk_ImmutabilityAcrossStrategies(t *testing.T) {
	c := newChunker(t, fake.New(8), chunker.WithChunkSize(40), chunker.WithOverlapSize(0))

	text := "First topic sentence here. Second topic sentence there. Third topic sentence elsewhere."
	chunks, err := c.Chunk(context.Background(), text, chunker.StrategyContext)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	chunks[0].Metadata["injected"] = true
	again, err := c.Chunk(context.Background(), text, chunker.StrategyContext)
	require.NoError(t, err)
	assert.NotContains(t, again[0].Metadata, "injected")
}

func TestStrategies_ListsBuiltins(t *testing.T) {
	strategies := chunker.Strategies()
	assert.GreaterOrEqual(t, len(strategies), 7)

	for _, want := range []chunker.Strategy{
		chunker.StrategyStructure,
		chunker.StrategySemantic,
		chunker.StrategyContext,
		chunker.StrategyGlobalContext,
		chunker.StrategyStructureContext,
		chunker.StrategySemanticGlobalContext,
		chunker.StrategyTripleHybrid,
	} {
		assert.Contains(t, strategies, want)
	}
}

func TestParseStrategy(t *testing.T) {
	strategy, err := chunker.ParseStrategy("semantic+global_context")
	require.NoError(t, err)
	assert.Equal(t, chunker.StrategySemanticGlobalContext, strategy)

	_, err = chunker.ParseStrategy("nope")
	assert.ErrorIs(t, err, chunker.ErrUnknownStrategy)
}
