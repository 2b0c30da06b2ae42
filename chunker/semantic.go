package chunker

import (
	"context"
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/sevigo/ragchunk/schema"
)

// textUnit is a sentence-like slice of the document, located by byte span.
// forced marks a fixed-width fallback slice rather than a real sentence.
type textUnit struct {
	text   string
	start  int
	end    int
	forced bool
}

// sentenceBoundary matches a sentence end: terminal punctuation (optionally
// followed by closing quotes or brackets), whitespace, then a capital letter
// opening the next sentence. Known failure modes (abbreviations, decimal
// numbers) are tolerated; the fixed-width guard below bounds the damage.
var sentenceBoundary = regexp.MustCompile(`[.!?]["')\]]*[ \t\r\n]+[A-Z]`)

// splitUnits cuts text into sentence-like units with exhaustive spans: the
// trailing whitespace of a sentence stays attached to it, so unit spans
// partition the input. When no sentence boundary appears within 2*targetSize
// characters the text is sliced at fixed width instead, which guards against
// pathological unpunctuated input.
func splitUnits(text string, targetSize int) []textUnit {
	var units []textUnit

	pos := 0
	for pos < len(text) {
		next := -1
		if loc := sentenceBoundary.FindStringIndex(text[pos:]); loc != nil {
			// The capital letter is the last byte of the match and
			// belongs to the next sentence.
			next = pos + loc[1] - 1
		}

		end := next
		forced := next < 0 || next-pos > 2*targetSize
		if forced {
			end = pos + targetSize
			if end >= len(text) {
				// The remainder fits in one unit: a natural tail,
				// not a fixed-width slice.
				end = len(text)
				forced = false
			} else {
				end = alignRuneStart(text, end)
				if end <= pos {
					_, size := utf8.DecodeRuneInString(text[pos:])
					end = pos + size
				}
			}
		}

		units = append(units, textUnit{
			text:   text[pos:end],
			start:  pos,
			end:    end,
			forced: forced,
		})
		pos = end
	}

	return units
}

// alignRuneStart moves pos left to the start of the rune it falls inside, so
// slicing at the returned offset never cuts a multi-byte character.
func alignRuneStart(s string, pos int) int {
	for pos > 0 && pos < len(s) && !utf8.RuneStart(s[pos]) {
		pos--
	}
	return pos
}

// nextRuneStart moves pos right to the nearest rune start.
func nextRuneStart(s string, pos int) int {
	for pos < len(s) && !utf8.RuneStart(s[pos]) {
		pos++
	}
	return pos
}

// semanticChunk is the token/semantic base chunker. With embed set it embeds
// every unit and groups them through the boundary detector; without it the
// grouping is size-only and makes no provider calls. Adjacent chunks carry an
// overlapSize-character tail of the previous chunk prepended to their text;
// spans always denote a chunk's own content.
func (c *Chunker) semanticChunk(ctx context.Context, text string, embed bool) ([]schema.Chunk, error) {
	units := splitUnits(text, c.opts.chunkSize)
	if len(units) == 0 {
		return []schema.Chunk{}, nil
	}

	var runs []unitRun
	if embed {
		if c.embedder == nil {
			return nil, ErrMissingEmbedder
		}
		unitTexts := make([]string, len(units))
		for i, u := range units {
			unitTexts[i] = u.text
		}
		vectors, err := c.embedder.EmbedDocuments(ctx, unitTexts)
		if err != nil {
			return nil, fmt.Errorf("failed to embed units: %w", err)
		}
		if len(vectors) != len(units) {
			return nil, fmt.Errorf("embedding provider returned %d vectors for %d units", len(vectors), len(units))
		}
		runs = detectBoundaries(units, vectors, c.opts.chunkSize, c.opts.similarityThreshold)
	} else {
		runs = packBySize(units, c.opts.chunkSize)
	}

	chunks := make([]schema.Chunk, 0, len(runs))
	prevEnd := -1
	for i, run := range runs {
		start := units[run.start].start
		end := units[run.end-1].end
		body := text[start:end]

		chunkText := body
		if i > 0 && c.opts.overlapSize > 0 && prevEnd > 0 {
			overlapStart := prevEnd - c.opts.overlapSize
			if overlapStart < 0 {
				overlapStart = 0
			}
			overlapStart = nextRuneStart(text, overlapStart)
			chunkText = text[overlapStart:prevEnd] + body
		}
		prevEnd = end

		chunks = append(chunks, schema.Chunk{
			Text:      chunkText,
			Index:     i,
			CharStart: start,
			CharEnd:   end,
			Metadata:  map[string]any{},
		})
	}

	return chunks, nil
}
