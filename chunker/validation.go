package chunker

import (
	"errors"
	"fmt"

	"github.com/sevigo/ragchunk/schema"
)

var (
	ErrInvalidChunkSize     = errors.New("chunker: chunk size must be positive")
	ErrInvalidOverlap       = errors.New("chunker: overlap size must be non-negative and smaller than chunk size")
	ErrInvalidContextWindow = errors.New("chunker: context window cannot be negative")
	ErrInvalidThreshold     = errors.New("chunker: similarity threshold must be in [0, 1]")
	ErrInvalidBlendWeight   = errors.New("chunker: blend weight must be in [0, 1]")
	ErrInvalidDocumentType  = errors.New("chunker: unknown document type")
	ErrInvalidWindowSize    = errors.New("chunker: window size must be positive")
	ErrUnknownStrategy      = errors.New("chunker: unknown strategy")
	ErrMissingEmbedder      = errors.New("chunker: strategy requires an embedding provider")
	ErrMissingEmbedding     = errors.New("chunker: chunk embedding must be populated before contextual blending")
)

// validateOptions rejects invalid configuration before any processing starts.
// Values are never silently clamped.
func validateOptions(o options) error {
	if o.chunkSize <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidChunkSize, o.chunkSize)
	}
	if o.overlapSize < 0 || o.overlapSize >= o.chunkSize {
		return fmt.Errorf("%w: overlap %d, chunk size %d", ErrInvalidOverlap, o.overlapSize, o.chunkSize)
	}
	if o.minChunkSize < 0 {
		return fmt.Errorf("%w: min chunk size %d", ErrInvalidChunkSize, o.minChunkSize)
	}
	if o.contextWindow < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidContextWindow, o.contextWindow)
	}
	if o.similarityThreshold < 0 || o.similarityThreshold > 1 {
		return fmt.Errorf("%w: got %g", ErrInvalidThreshold, o.similarityThreshold)
	}
	if o.blendWeight < 0 || o.blendWeight > 1 {
		return fmt.Errorf("%w: got %g", ErrInvalidBlendWeight, o.blendWeight)
	}
	if o.windowSize <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidWindowSize, o.windowSize)
	}
	if o.maxContextLength <= 0 {
		return fmt.Errorf("%w: max context length %d", ErrInvalidChunkSize, o.maxContextLength)
	}

	switch o.documentType {
	case schema.DocumentTypeMarkup, schema.DocumentTypeHypertext, schema.DocumentTypeGeneric:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidDocumentType, o.documentType)
	}

	switch o.globalContextMode {
	case GlobalContextFullDocument, GlobalContextSlidingWindow:
	default:
		return fmt.Errorf("chunker: unknown global context mode %q", o.globalContextMode)
	}

	return nil
}
