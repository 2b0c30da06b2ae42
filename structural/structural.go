// Package structural recovers (heading-path, text-span) sections from cleaned
// document text. Parsing is pure and stateless: for any input the returned
// section spans partition the document text exactly, so concatenating bodies
// in order reconstructs the input byte for byte.
package structural

import (
	"log/slog"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/sevigo/ragchunk/schema"
)

// headingMark is a heading found by one of the format-specific scanners,
// located by the byte offset of its first line.
type headingMark struct {
	offset int
	level  int
	title  string
}

// Parser turns a document into an ordered section sequence.
type Parser struct {
	logger   *slog.Logger
	markdown goldmark.Markdown
}

func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{
		logger: logger.With("component", "structural_parser"),
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		),
	}
}

// Parse splits text into sections according to the declared document type.
// Markup and hypertext documents without a single heading degrade to the
// generic paragraph behavior; that is a defined fallback, not an error.
func (p *Parser) Parse(text string, docType schema.DocumentType) []schema.Section {
	if text == "" {
		return []schema.Section{}
	}

	var marks []headingMark
	switch docType {
	case schema.DocumentTypeMarkup:
		marks = p.scanMarkupHeadings(text)
	case schema.DocumentTypeHypertext:
		marks = p.scanHypertextHeadings(text)
	default:
		return p.parseGeneric(text)
	}

	if len(marks) == 0 {
		p.logger.Debug("No headings found, falling back to paragraph sections",
			"document_type", string(docType))
		return p.parseGeneric(text)
	}

	return buildSections(text, marks)
}

// buildSections converts heading marks into contiguous sections. Content
// before the first heading becomes a hierarchy-less preamble section. The
// hierarchy is a stack keyed by heading level: a heading of level d pops
// every entry of level >= d, then pushes itself.
func buildSections(text string, marks []headingMark) []schema.Section {
	sections := make([]schema.Section, 0, len(marks)+1)

	if marks[0].offset > 0 {
		sections = append(sections, schema.Section{
			Body:      text[:marks[0].offset],
			CharStart: 0,
			CharEnd:   marks[0].offset,
		})
	}

	type stackEntry struct {
		level int
		title string
	}
	var stack []stackEntry

	for i, mark := range marks {
		for len(stack) > 0 && stack[len(stack)-1].level >= mark.level {
			stack = stack[:len(stack)-1]
		}
		stack = append(stack, stackEntry{level: mark.level, title: mark.title})

		hierarchy := make([]string, len(stack))
		for j, entry := range stack {
			hierarchy[j] = entry.title
		}

		end := len(text)
		if i+1 < len(marks) {
			end = marks[i+1].offset
		}

		sections = append(sections, schema.Section{
			Heading:   mark.title,
			Hierarchy: hierarchy,
			Body:      text[mark.offset:end],
			CharStart: mark.offset,
			CharEnd:   end,
		})
	}

	return sections
}
