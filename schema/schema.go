package schema

import (
	"fmt"
	"strings"
)

// DocumentType hints how the structural parser should read a document.
// Callers must supply it accurately; no format auto-detection is performed.
type DocumentType string

const (
	// DocumentTypeMarkup is heading-annotated text (ATX-style `#` headings).
	DocumentTypeMarkup DocumentType = "markup"
	// DocumentTypeHypertext is HTML-like text with <h1>..<h6> heading tags.
	DocumentTypeHypertext DocumentType = "hypertext"
	// DocumentTypeGeneric is plain text without a heading concept.
	DocumentTypeGeneric DocumentType = "generic"
)

// Document is a cleaned input document ready for chunking.
type Document struct {
	Text     string
	Type     DocumentType
	Metadata map[string]any
}

func NewDocument(text string, docType DocumentType, metadata map[string]any) Document {
	if metadata == nil {
		metadata = make(map[string]any)
	}
	return Document{
		Text:     text,
		Type:     docType,
		Metadata: metadata,
	}
}

// Chunk is a single retrieval unit produced by a chunking pipeline.
//
// A chunk is immutable once emitted: enrichment passes (context augmentation,
// contextual embedding) construct new Chunk values and never mutate previously
// returned ones. CharStart/CharEnd are byte offsets into the cleaned document
// text and always denote the chunk's own content, excluding any overlap prefix
// carried in Text.
type Chunk struct {
	Text      string
	Index     int
	CharStart int
	CharEnd   int

	// Structural fields, present only for structure-derived chunks.
	// SectionHierarchy lists ancestor heading titles, root first; a nil
	// hierarchy means the chunk carries no structural information, while an
	// empty heading title with a non-nil hierarchy is an untitled heading.
	Heading          string
	SectionHierarchy []string

	// Context fields, present only after context augmentation. nil means no
	// neighbor exists on that side, which is distinct from computed-but-empty.
	ContextBefore *string
	ContextAfter  *string

	// Embedding is computed from Text alone. ContextualEmbedding, when
	// present, is a blend of Embedding with a document- or window-level
	// embedding in the same vector space.
	Embedding           []float32
	ContextualEmbedding []float32

	Metadata map[string]any
}

func (c Chunk) String() string {
	return fmt.Sprintf("chunk[%d] %d..%d (%d chars)", c.Index, c.CharStart, c.CharEnd, len(c.Text))
}

// SectionPath renders the hierarchy as a single breadcrumb string.
func (c Chunk) SectionPath() string {
	return strings.Join(c.SectionHierarchy, " > ")
}

// Section is one structurally delimited span of a document. Section spans of a
// parse partition the document text exactly: each byte belongs to one section.
type Section struct {
	Heading   string
	Hierarchy []string
	Body      string
	CharStart int
	CharEnd   int
}

// Metadata keys shared between the chunker and the storage layer.
const (
	MetaStrategy         = "chunking_strategy"
	MetaTotalChunks      = "total_chunks"
	MetaHierarchyDepth   = "hierarchy_depth"
	MetaSectionPath      = "section_path"
	MetaParentSection    = "parent_section"
	MetaContextWindow    = "context_window"
	MetaHasContextBefore = "has_context_before"
	MetaHasContextAfter  = "has_context_after"
	MetaEmbeddingDim     = "embedding_dim"
)
