package chunker

import (
	"context"

	"github.com/sevigo/ragchunk/schema"
)

// structureSizeFactor oversizes the structural pass of the triple hybrid so
// the semantic re-split works on whole sections rather than pre-cut packs.
const structureSizeFactor = 3

// tripleHybridChunk composes all three techniques: structural sectioning,
// semantic re-splitting of oversized sections, and context augmentation.
// Sub-chunks inherit their parent section's heading and hierarchy and their
// spans are shifted into document coordinates, so the flattened sequence
// stays globally ordered: every sub-chunk of section k sorts between the
// chunks of sections k-1 and k+1.
func (c *Chunker) tripleHybridChunk(ctx context.Context, text string) ([]schema.Chunk, error) {
	sections := c.structureChunk(text, c.opts.chunkSize*structureSizeFactor)

	var flat []schema.Chunk
	for _, section := range sections {
		if len(section.Text) <= c.opts.chunkSize {
			kept := section
			kept.Index = len(flat)
			flat = append(flat, kept)
			continue
		}

		subChunks, err := c.semanticChunk(ctx, section.Text, true)
		if err != nil {
			return nil, err
		}

		for _, sub := range subChunks {
			sub.CharStart += section.CharStart
			sub.CharEnd += section.CharStart
			sub.Heading = section.Heading
			sub.SectionHierarchy = section.SectionHierarchy
			sub.Metadata = cloneMetadata(sub.Metadata)
			if section.SectionHierarchy != nil {
				sub.Metadata[schema.MetaParentSection] = section.Heading
				sub.Metadata[schema.MetaHierarchyDepth] = len(section.SectionHierarchy)
				sub.Metadata[schema.MetaSectionPath] = section.SectionPath()
			}
			sub.Index = len(flat)
			flat = append(flat, sub)
		}
	}

	if flat == nil {
		return []schema.Chunk{}, nil
	}
	return augmentContext(flat, c.opts.contextWindow, c.opts.overlapSize), nil
}
