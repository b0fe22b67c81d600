package parser

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"github.com/dgallion1/outlinesync/internal/outline"
)

// numberedHeading matches lines like "2 Scope" or "3.1. Inputs".
var numberedHeading = regexp.MustCompile(`^(\d{1,3}(?:\.\d{1,3})*)\.?\s+(\S.{0,79})$`)

// TextParser handles plain text files. A form feed starts a new page and
// numbered lines are headings nested by how many numbers they carry.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*outline.Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	doc := &outline.Document{Title: docTitle(filename)}
	page := 1
	lineNo := 0
	hasContent := false
	var stack outline.Stack

	for scanner.Scan() {
		lineNo++
		segments := strings.Split(scanner.Text(), "\f")
		for i, seg := range segments {
			if i > 0 {
				page++
			}
			line := strings.TrimSpace(seg)
			if line == "" {
				continue
			}
			hasContent = true
			m := numberedHeading.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			level := strings.Count(m[1], ".") + 1
			stack.Push(&outline.Item{Title: strings.TrimSpace(m[2]), Position: at(page, lineNo)}, level)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if hasContent {
		doc.Items = stack.Items()
		doc.PageCount = page
	}
	return doc, nil
}
