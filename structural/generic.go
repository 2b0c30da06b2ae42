package structural

import (
	"regexp"

	"github.com/sevigo/ragchunk/schema"
)

// paragraphBoundary matches one blank-line run between paragraphs.
var paragraphBoundary = regexp.MustCompile(`\n[ \t]*\n+`)

// parseGeneric splits plain text into one section per paragraph. The blank
// lines separating paragraphs attach to the preceding section so the spans
// still partition the whole document.
func (p *Parser) parseGeneric(text string) []schema.Section {
	spans := ParagraphSpans(text)

	sections := make([]schema.Section, 0, len(spans))
	for _, span := range spans {
		sections = append(sections, schema.Section{
			Body:      text[span[0]:span[1]],
			CharStart: span[0],
			CharEnd:   span[1],
		})
	}
	return sections
}

// ParagraphSpans returns [start,end) byte spans cut at blank-line boundaries.
// The spans are contiguous and cover all of text; the delimiting blank lines
// belong to the span they terminate. An empty input yields no spans.
func ParagraphSpans(text string) [][2]int {
	if text == "" {
		return nil
	}

	boundaries := paragraphBoundary.FindAllStringIndex(text, -1)

	spans := make([][2]int, 0, len(boundaries)+1)
	start := 0
	for _, b := range boundaries {
		spans = append(spans, [2]int{start, b[1]})
		start = b[1]
	}
	if start < len(text) {
		spans = append(spans, [2]int{start, len(text)})
	}
	return spans
}
