package chunker

import "github.com/sevigo/ragchunk/schema"

// GlobalContextMode selects how the global-context embedder derives the
// document-level vector it blends into each chunk.
type GlobalContextMode string

const (
	// GlobalContextFullDocument embeds the whole document once (truncated at
	// the configured max context length).
	GlobalContextFullDocument GlobalContextMode = "full_document"
	// GlobalContextSlidingWindow embeds a window of neighboring chunks per
	// chunk instead; cheaper for very long documents.
	GlobalContextSlidingWindow GlobalContextMode = "sliding_window"
)

type options struct {
	chunkSize           int
	overlapSize         int
	minChunkSize        int
	contextWindow       int
	similarityThreshold float64
	documentType        schema.DocumentType
	globalContextMode   GlobalContextMode
	windowSize          int
	maxContextLength    int
	blendWeight         float64
}

type Option func(*options)

func defaultOptions() options {
	return options{
		chunkSize:           512,
		overlapSize:         50,
		minChunkSize:        0,
		contextWindow:       2,
		similarityThreshold: 0.5,
		documentType:        schema.DocumentTypeGeneric,
		globalContextMode:   GlobalContextFullDocument,
		windowSize:          3,
		maxContextLength:    8192,
		blendWeight:         0.7,
	}
}

// WithChunkSize sets the target chunk length in characters.
func WithChunkSize(size int) Option {
	return func(o *options) {
		o.chunkSize = size
	}
}

// WithOverlapSize sets how many characters of neighbor text are retained
// across chunk boundaries and in context windows.
func WithOverlapSize(size int) Option {
	return func(o *options) {
		o.overlapSize = size
	}
}

// WithMinChunkSize sets the threshold below which a structural section is
// merged forward into its sibling. Zero disables merging.
func WithMinChunkSize(size int) Option {
	return func(o *options) {
		o.minChunkSize = size
	}
}

// WithContextWindow sets the number of neighboring chunks attached as
// context_before/context_after.
func WithContextWindow(window int) Option {
	return func(o *options) {
		o.contextWindow = window
	}
}

// WithSimilarityThreshold sets the cosine similarity below which the boundary
// detector may cut a chunk, in [0, 1].
func WithSimilarityThreshold(threshold float64) Option {
	return func(o *options) {
		o.similarityThreshold = threshold
	}
}

// WithDocumentType declares how structural strategies should parse the input.
func WithDocumentType(docType schema.DocumentType) Option {
	return func(o *options) {
		o.documentType = docType
	}
}

// WithGlobalContextMode selects full-document or sliding-window context for
// the contextual-embedding strategies.
func WithGlobalContextMode(mode GlobalContextMode) Option {
	return func(o *options) {
		o.globalContextMode = mode
	}
}

// WithWindowSize sets the chunk radius used by the sliding-window mode.
func WithWindowSize(size int) Option {
	return func(o *options) {
		o.windowSize = size
	}
}

// WithMaxContextLength caps the text length submitted for a document-level
// embedding. Longer documents are truncated, which is logged as a known
// approximation; sliding-window mode is the documented alternative.
func WithMaxContextLength(length int) Option {
	return func(o *options) {
		o.maxContextLength = length
	}
}

// WithBlendWeight sets the chunk-embedding share of the contextual blend.
// The document share is the complement.
func WithBlendWeight(weight float64) Option {
	return func(o *options) {
		o.blendWeight = weight
	}
}
