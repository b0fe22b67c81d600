package outline

import (
	"encoding/json"
	"fmt"
	"io"
)

// Document is one generation of a parsed outline together with the number
// of pages it spans.
type Document struct {
	Title     string  `json:"title"`
	Items     []*Item `json:"items"`
	PageCount int     `json:"page_count"`
}

// Item is a titled outline entry with an optional target position.
type Item struct {
	Title    string    `json:"title"`
	Position *Position `json:"position,omitempty"`
	Children []*Item   `json:"children,omitempty"`
}

// Position is a cursor location inside the rendered document. Page is 1-based.
type Position struct {
	Page int     `json:"page_no"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// PageIndex returns the item's page, or 0 when it has no position.
func (it *Item) PageIndex() int {
	if it == nil || it.Position == nil {
		return 0
	}
	return it.Position.Page
}

// Decode reads a JSON document.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode outline: %w", err)
	}
	if doc.PageCount < 0 {
		return nil, fmt.Errorf("decode outline: negative page_count %d", doc.PageCount)
	}
	return &doc, nil
}

// Walk visits items in document order (an item before its children, children
// before the item's next sibling). Returning false from fn stops the walk.
func Walk(items []*Item, fn func(item *Item, level int) bool) {
	walk(items, 1, fn)
}

func walk(items []*Item, level int, fn func(*Item, int) bool) bool {
	for _, it := range items {
		if it == nil {
			continue
		}
		if !fn(it, level) {
			return false
		}
		if !walk(it.Children, level+1, fn) {
			return false
		}
	}
	return true
}

// Regression is an item whose page index is smaller than one visited before it.
type Regression struct {
	Title    string
	Page     int
	Previous int
}

// Regressions reports every item that breaks the non-decreasing page order.
// Such items still build, but pages skipped over earlier never move back to
// the item's position.
func Regressions(items []*Item) []Regression {
	var out []Regression
	highest := 0
	Walk(items, func(it *Item, _ int) bool {
		p := it.PageIndex()
		if p == 0 {
			return true
		}
		if p < highest {
			out = append(out, Regression{Title: it.Title, Page: p, Previous: highest})
			return true
		}
		highest = p
		return true
	})
	return out
}

// Count returns the number of items in the forest.
func Count(items []*Item) int {
	n := 0
	Walk(items, func(*Item, int) bool {
		n++
		return true
	})
	return n
}
