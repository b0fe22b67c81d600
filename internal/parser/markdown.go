package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dgallion1/outlinesync/internal/outline"
)

// MarkdownParser handles Markdown files using goldmark. Headings become
// outline items; a thematic break (---) starts a new page.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*outline.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	doc := &outline.Document{Title: docTitle(filename)}
	if len(bytes.TrimSpace(src)) == 0 {
		return doc, nil
	}

	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(src))

	page := 1
	var stack outline.Stack
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			title := strings.TrimSpace(string(node.Text(src)))
			if title == "" {
				continue
			}
			stack.Push(&outline.Item{
				Title:    title,
				Position: at(page, lineOf(node, src)),
			}, node.Level)
		case *ast.ThematicBreak:
			page++
		}
	}

	doc.Items = stack.Items()
	doc.PageCount = page
	return doc, nil
}

// lineOf returns the 1-based source line where a block starts, or 0.
func lineOf(n ast.Node, src []byte) int {
	lines := n.Lines()
	if lines.Len() == 0 {
		return 0
	}
	start := lines.At(0).Start
	return bytes.Count(src[:start], []byte("\n")) + 1
}
