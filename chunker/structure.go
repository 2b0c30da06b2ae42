package chunker

import (
	"strings"

	"github.com/sevigo/ragchunk/schema"
	"github.com/sevigo/ragchunk/structural"
)

// structureChunk runs the structural parser and turns its sections into
// chunks. Sections larger than maxSize are re-packed at paragraph boundaries;
// a single paragraph that cannot be split is emitted oversized rather than
// truncated, since dropping content is never acceptable. Sections smaller
// than the configured minimum are merged forward into the next section when
// both sit under the same parent heading.
func (c *Chunker) structureChunk(text string, maxSize int) []schema.Chunk {
	sections := c.parser.Parse(text, c.opts.documentType)
	sections = mergeSmallSections(sections, c.opts.minChunkSize)

	var chunks []schema.Chunk
	for _, section := range sections {
		if len(section.Body) <= maxSize {
			chunks = append(chunks, sectionChunk(section, len(chunks)))
			continue
		}

		for _, span := range packParagraphs(section.Body, maxSize) {
			sub := schema.Section{
				Heading:   section.Heading,
				Hierarchy: section.Hierarchy,
				Body:      section.Body[span[0]:span[1]],
				CharStart: section.CharStart + span[0],
				CharEnd:   section.CharStart + span[1],
			}
			chunks = append(chunks, sectionChunk(sub, len(chunks)))
		}
	}

	if chunks == nil {
		return []schema.Chunk{}
	}
	return chunks
}

func sectionChunk(section schema.Section, index int) schema.Chunk {
	metadata := map[string]any{}
	if section.Hierarchy != nil {
		metadata[schema.MetaHierarchyDepth] = len(section.Hierarchy)
		metadata[schema.MetaSectionPath] = strings.Join(section.Hierarchy, " > ")
	}

	return schema.Chunk{
		Text:             section.Body,
		Index:            index,
		CharStart:        section.CharStart,
		CharEnd:          section.CharEnd,
		Heading:          section.Heading,
		SectionHierarchy: section.Hierarchy,
		Metadata:         metadata,
	}
}

// packParagraphs greedily packs consecutive paragraph spans of body into
// groups no larger than maxSize. A lone paragraph over maxSize stays whole.
func packParagraphs(body string, maxSize int) [][2]int {
	paragraphs := structural.ParagraphSpans(body)
	if len(paragraphs) == 0 {
		return nil
	}

	var packs [][2]int
	current := paragraphs[0]
	for _, p := range paragraphs[1:] {
		if p[1]-current[0] <= maxSize {
			current[1] = p[1]
			continue
		}
		packs = append(packs, current)
		current = p
	}
	return append(packs, current)
}

// mergeSmallSections folds sections whose trimmed body is under minSize into
// the following section, provided the two share a parent heading. The merged
// section keeps the later section's heading and hierarchy; the earlier text
// is preserved in full. minSize zero disables merging.
func mergeSmallSections(sections []schema.Section, minSize int) []schema.Section {
	if minSize <= 0 || len(sections) < 2 {
		return sections
	}

	merged := make([]schema.Section, 0, len(sections))
	var carry *schema.Section

	for i := range sections {
		section := sections[i]
		if carry != nil {
			section.Body = carry.Body + section.Body
			section.CharStart = carry.CharStart
			carry = nil
		}

		small := len(strings.TrimSpace(section.Body)) < minSize
		if small && i+1 < len(sections) && sameParentHeading(section, sections[i+1]) {
			carry = &section
			continue
		}

		merged = append(merged, section)
	}

	if carry != nil {
		merged = append(merged, *carry)
	}
	return merged
}

// sameParentHeading reports whether b is a's sibling (equal parent paths) or
// a descendant of a, the two cases where merging forward keeps the hierarchy
// well-formed.
func sameParentHeading(a, b schema.Section) bool {
	if isHierarchyPrefix(a.Hierarchy, b.Hierarchy) {
		return true
	}

	pa := parentPath(a.Hierarchy)
	pb := parentPath(b.Hierarchy)
	if len(pa) != len(pb) {
		return false
	}
	for i := range pa {
		if pa[i] != pb[i] {
			return false
		}
	}
	return true
}

func parentPath(hierarchy []string) []string {
	if len(hierarchy) == 0 {
		return nil
	}
	return hierarchy[:len(hierarchy)-1]
}

func isHierarchyPrefix(prefix, full []string) bool {
	if len(prefix) > len(full) {
		return false
	}
	for i := range prefix {
		if prefix[i] != full[i] {
			return false
		}
	}
	return true
}
