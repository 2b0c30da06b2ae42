package qdrant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/ragchunk/schema"
)

func TestPointID_Deterministic(t *testing.T) {
	a := PointID("doc-1", 0)
	b := PointID("doc-1", 0)
	assert.Equal(t, a, b, "same document and index must map to the same point")

	assert.NotEqual(t, a, PointID("doc-1", 1))
	assert.NotEqual(t, a, PointID("doc-2", 0))

	// Separator prevents ambiguous concatenations from colliding.
	assert.NotEqual(t, PointID("doc-1", 11), PointID("doc-11", 1))
}

func TestChunkPayloadRoundTrip(t *testing.T) {
	before := "preceding text"
	chunk := schema.Chunk{
		Text:             "the chunk body",
		Index:            3,
		CharStart:        120,
		CharEnd:          134,
		Heading:          "Install",
		SectionHierarchy: []string{"Guide", "Install"},
		ContextBefore:    &before,
		Metadata: map[string]any{
			"chunking_strategy": "structure",
			"total_chunks":      7,
		},
	}

	payload := chunkToPayload("doc-1", chunk)
	restored := payloadToChunk(payload)

	assert.Equal(t, chunk.Text, restored.Text)
	assert.Equal(t, chunk.Index, restored.Index)
	assert.Equal(t, chunk.CharStart, restored.CharStart)
	assert.Equal(t, chunk.CharEnd, restored.CharEnd)
	assert.Equal(t, chunk.Heading, restored.Heading)
	assert.Equal(t, chunk.SectionHierarchy, restored.SectionHierarchy)
	require.NotNil(t, restored.ContextBefore)
	assert.Equal(t, before, *restored.ContextBefore)
	assert.Nil(t, restored.ContextAfter, "absent context stays absent")

	assert.Equal(t, "doc-1", restored.Metadata["document_id"])
	assert.Equal(t, "structure", restored.Metadata["chunking_strategy"])
	// Qdrant integers come back as int64.
	assert.EqualValues(t, 7, restored.Metadata["total_chunks"])
}

func TestChunkPayload_OmitsEmptyStructuralFields(t *testing.T) {
	chunk := schema.Chunk{Text: "plain", Index: 0, Metadata: map[string]any{}}

	payload := chunkToPayload("doc-1", chunk)
	assert.NotContains(t, payload, payloadHeading)
	assert.NotContains(t, payload, payloadHierarchy)
	assert.NotContains(t, payload, payloadContextBefore)
	assert.NotContains(t, payload, payloadContextAfter)
}

func TestBuildQdrantFilter(t *testing.T) {
	assert.Nil(t, buildQdrantFilter(nil))
	assert.Nil(t, buildQdrantFilter(map[string]any{}))

	filter := buildQdrantFilter(map[string]any{
		"document_id": "doc-1",
		"total":       int64(4),
	})
	require.NotNil(t, filter)
	assert.Len(t, filter.Must, 2)

	// Unsupported value types are skipped, not errored.
	assert.Nil(t, buildQdrantFilter(map[string]any{"weird": struct{}{}}))
}

func TestParseOptions_Validation(t *testing.T) {
	_, err := parseOptions()
	assert.ErrorIs(t, err, ErrInvalidOptions, "collection name is required")

	opts, err := parseOptions(WithCollectionName("chunks"))
	require.NoError(t, err)
	assert.Equal(t, "localhost:6334", opts.qdrantURL.Host)
	assert.Equal(t, 100, opts.batchSize)
	assert.Equal(t, 3, opts.retryAttempts)
}
