package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/dgallion1/outlinesync/internal/outline"
)

// HTMLParser handles HTML files. h1-h6 become outline items; <hr> or an
// element styled with a page break before it starts a new page.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*outline.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	out := &outline.Document{Title: docTitle(filename)}
	if len(bytes.TrimSpace(src)) == 0 {
		return out, nil
	}

	doc, err := html.Parse(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	// Extract title from <title> tag if present.
	if title := findTitle(doc); title != "" {
		out.Title = title
	}

	page := 1
	ordinal := 0
	var stack outline.Stack

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if breaksBefore(n) {
				page++
			}
			if n.Data == "hr" {
				page++
				return
			}
			if level := headingLevel(n.Data); level > 0 {
				if title := textContent(n); title != "" {
					ordinal++
					stack.Push(&outline.Item{Title: title, Position: at(page, ordinal)}, level)
				}
				return // Don't recurse into heading children (already extracted text).
			}
			// Skip non-content elements.
			switch n.Data {
			case "script", "style", "nav", "head":
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findBody(doc); body != nil {
		walk(body)
	} else {
		walk(doc)
	}

	out.Items = stack.Items()
	out.PageCount = page
	return out, nil
}

// breaksBefore reports a CSS page break before the element.
func breaksBefore(n *html.Node) bool {
	for _, a := range n.Attr {
		if a.Key != "style" {
			continue
		}
		style := strings.ReplaceAll(strings.ToLower(a.Val), " ", "")
		if strings.Contains(style, "page-break-before:always") || strings.Contains(style, "break-before:page") {
			return true
		}
	}
	return false
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
