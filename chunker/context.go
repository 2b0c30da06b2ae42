package chunker

import (
	"maps"
	"strings"

	"github.com/sevigo/ragchunk/schema"
)

const contextJoiner = " ... "

// augmentContext attaches neighbor text to every chunk: up to window
// preceding chunks contribute their tails as context_before, up to window
// following chunks their heads as context_after, each neighbor truncated to
// overlapSize characters at the boundary nearest the main chunk. First and
// last chunks get nil on the side with no neighbors; that absence is distinct
// from a computed-but-empty context. The pass is pure post-processing: it
// returns new chunk values and leaves text, spans, and embeddings untouched.
func augmentContext(chunks []schema.Chunk, window, overlapSize int) []schema.Chunk {
	out := make([]schema.Chunk, len(chunks))

	for i, chunk := range chunks {
		augmented := chunk
		augmented.Metadata = cloneMetadata(chunk.Metadata)

		if i > 0 && window > 0 {
			lo := i - window
			if lo < 0 {
				lo = 0
			}
			parts := make([]string, 0, i-lo)
			for j := lo; j < i; j++ {
				parts = append(parts, tailOf(chunks[j].Text, overlapSize))
			}
			before := strings.Join(parts, contextJoiner)
			augmented.ContextBefore = &before
		}

		if i < len(chunks)-1 && window > 0 {
			hi := i + window
			if hi > len(chunks)-1 {
				hi = len(chunks) - 1
			}
			parts := make([]string, 0, hi-i)
			for j := i + 1; j <= hi; j++ {
				parts = append(parts, headOf(chunks[j].Text, overlapSize))
			}
			after := strings.Join(parts, contextJoiner)
			augmented.ContextAfter = &after
		}

		augmented.Metadata[schema.MetaContextWindow] = window
		augmented.Metadata[schema.MetaHasContextBefore] = augmented.ContextBefore != nil
		augmented.Metadata[schema.MetaHasContextAfter] = augmented.ContextAfter != nil

		out[i] = augmented
	}

	return out
}

func tailOf(s string, n int) string {
	if n >= len(s) {
		return s
	}
	return s[nextRuneStart(s, len(s)-n):]
}

func headOf(s string, n int) string {
	if n >= len(s) {
		return s
	}
	return s[:alignRuneStart(s, n)]
}

func cloneMetadata(metadata map[string]any) map[string]any {
	out := make(map[string]any, len(metadata)+3)
	maps.Copy(out, metadata)
	return out
}
