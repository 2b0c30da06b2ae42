package structural

import (
	"regexp"
	"sort"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// emptyHeadingPattern matches ATX headings with no title ("##" alone). Those
// carry no line segments in the goldmark AST, so they are located by a direct
// line scan instead. They still participate in the hierarchy stack.
var emptyHeadingPattern = regexp.MustCompile(`^(#{1,6})[ \t]*$`)

// scanMarkupHeadings locates ATX-style headings through the goldmark AST and
// maps each back to the byte offset of the line it starts on.
func (p *Parser) scanMarkupHeadings(source string) []headingMark {
	src := []byte(source)
	root := p.markdown.Parser().Parse(text.NewReader(src))

	var marks []headingMark
	seen := make(map[int]bool)

	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		if heading.Lines().Len() == 0 {
			return ast.WalkSkipChildren, nil
		}

		segStart := heading.Lines().At(0).Start
		offset := strings.LastIndexByte(source[:segStart], '\n') + 1
		if !seen[offset] {
			seen[offset] = true
			marks = append(marks, headingMark{
				offset: offset,
				level:  heading.Level,
				title:  strings.TrimSpace(nodeText(heading, src)),
			})
		}
		return ast.WalkSkipChildren, nil
	})

	offset := 0
	for _, line := range strings.SplitAfter(source, "\n") {
		if m := emptyHeadingPattern.FindStringSubmatch(strings.TrimRight(line, "\n")); m != nil && !seen[offset] {
			seen[offset] = true
			marks = append(marks, headingMark{offset: offset, level: len(m[1])})
		}
		offset += len(line)
	}

	// The AST walk visits document order, but headings nested in container
	// blocks and the empty-heading scan can interleave; keep offsets
	// strictly ascending regardless.
	sort.SliceStable(marks, func(i, j int) bool { return marks[i].offset < marks[j].offset })

	return marks
}

// nodeText concatenates the raw text segments beneath a node.
func nodeText(node ast.Node, src []byte) string {
	var sb strings.Builder
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := n.(*ast.Text); ok {
			sb.Write(t.Segment.Value(src))
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}
