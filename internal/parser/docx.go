package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/outlinesync/internal/outline"
)

// DOCXParser handles .docx files. Heading styles become outline items and a
// page break run starts the next page.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*outline.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	out := &outline.Document{Title: docTitle(filename)}
	page := 1
	ordinal := 0
	hasContent := false
	var stack outline.Stack

	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		ordinal++

		text, breaks := docxParagraphText(para)
		if text != "" {
			hasContent = true
		}
		if level := docxHeadingLevel(para); level > 0 && text != "" {
			stack.Push(&outline.Item{Title: text, Position: at(page, ordinal)}, level)
		}
		page += breaks
	}

	if hasContent || page > 1 {
		out.Items = stack.Items()
		out.PageCount = page
	}
	return out, nil
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	if !strings.HasPrefix(style, "heading") {
		return 0
	}
	switch strings.TrimPrefix(style, "heading") {
	case "1":
		return 1
	case "2":
		return 2
	case "3":
		return 3
	case "4":
		return 4
	case "5":
		return 5
	case "6":
		return 6
	}
	return 0
}

// docxParagraphText returns the paragraph text and how many page breaks its
// runs carry.
func docxParagraphText(para *docx.Paragraph) (string, int) {
	var buf strings.Builder
	breaks := 0
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			switch v := rc.(type) {
			case *docx.Text:
				buf.WriteString(v.Text)
			case *docx.BarterRabbet:
				if v.Type == "page" {
					breaks++
				}
			}
		}
	}
	return strings.TrimSpace(buf.String()), breaks
}
