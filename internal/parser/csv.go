package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dgallion1/outlinesync/internal/outline"
)

// CSVParser handles flat outline exports: a header row naming at least the
// level, title and page columns (x and y optional), then one row per entry
// in document order. A page of 0 means the entry has no position.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*outline.Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	doc := &outline.Document{Title: docTitle(filename)}
	if len(records) == 0 {
		return doc, nil
	}

	// First row is headers.
	cols := make(map[string]int)
	for i, h := range records[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"level", "title", "page"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("parse csv: missing %q column", required)
		}
	}

	var stack outline.Stack
	for i, row := range records[1:] {
		line := i + 2 // 1-indexed, skip header
		level, err := intField(row, cols["level"])
		if err != nil || level < 1 {
			return nil, fmt.Errorf("parse csv: line %d: invalid level", line)
		}
		page, err := intField(row, cols["page"])
		if err != nil || page < 0 {
			return nil, fmt.Errorf("parse csv: line %d: invalid page", line)
		}
		item := &outline.Item{Title: field(row, cols["title"])}
		if page > 0 {
			item.Position = &outline.Position{Page: page}
			if c, ok := cols["x"]; ok {
				item.Position.X, _ = strconv.ParseFloat(field(row, c), 64)
			}
			if c, ok := cols["y"]; ok {
				item.Position.Y, _ = strconv.ParseFloat(field(row, c), 64)
			}
			doc.PageCount = max(doc.PageCount, page)
		}
		stack.Push(item, level)
	}

	doc.Items = stack.Items()
	return doc, nil
}

func field(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func intField(row []string, i int) (int, error) {
	v := field(row, i)
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
