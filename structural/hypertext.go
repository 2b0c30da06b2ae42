package structural

import (
	"strings"

	"golang.org/x/net/html"
)

// scanHypertextHeadings tokenizes HTML-like text and records <h1>..<h6>
// elements. Byte offsets are tracked through the tokenizer's raw output so
// each heading is located at the start of its opening tag.
func (p *Parser) scanHypertextHeadings(source string) []headingMark {
	tokenizer := html.NewTokenizer(strings.NewReader(source))

	var marks []headingMark
	offset := 0
	open := -1 // index into marks of the heading currently being titled
	var title strings.Builder

	for {
		tokenType := tokenizer.Next()
		if tokenType == html.ErrorToken {
			break
		}

		tokenStart := offset
		offset += len(tokenizer.Raw())

		switch tokenType {
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := tokenizer.TagName()
			level := headingLevel(string(name))
			if level == 0 {
				continue
			}

			if open >= 0 {
				marks[open].title = strings.TrimSpace(title.String())
			}
			marks = append(marks, headingMark{offset: tokenStart, level: level})
			title.Reset()
			open = len(marks) - 1
			if tokenType == html.SelfClosingTagToken {
				open = -1
			}

		case html.TextToken:
			if open >= 0 {
				title.Write(tokenizer.Text())
			}

		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if open >= 0 && headingLevel(string(name)) == marks[open].level {
				marks[open].title = strings.TrimSpace(title.String())
				title.Reset()
				open = -1
			}
		}
	}

	if open >= 0 {
		marks[open].title = strings.TrimSpace(title.String())
	}

	return marks
}

func headingLevel(tag string) int {
	if len(tag) != 2 || tag[0] != 'h' {
		return 0
	}
	if tag[1] < '1' || tag[1] > '6' {
		return 0
	}
	return int(tag[1] - '0')
}
