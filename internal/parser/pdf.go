package parser

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/dgallion1/outlinesync/internal/outline"
)

// PDFParser handles PDF files. Pages come from the document, the outline
// from its bookmarks. Each bookmark is placed on the first page, at or after
// the previous bookmark's page, whose text contains its title. It tries the
// Go library first, then falls back to pdftotext if enabled.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*outline.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	pages, bookmarks, err := readPDF(data)
	if err != nil && p.FallbackPdftotext {
		bookmarks = nil
		pages, err = extractPdftotext(data)
	}
	if err != nil {
		return nil, fmt.Errorf("parse pdf: %w", err)
	}

	doc := &outline.Document{
		Title:     docTitle(filename),
		PageCount: len(pages),
	}
	cursor := 1
	doc.Items = placeBookmarks(bookmarks, pages, &cursor)
	return doc, nil
}

// readPDF returns the plain text of every page and the top-level bookmarks.
func readPDF(data []byte) ([]string, []pdflib.Outline, error) {
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, err
	}

	numPages := reader.NumPage()
	pages := make([]string, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pages[i-1] = text
	}
	return pages, reader.Outline().Child, nil
}

// placeBookmarks converts bookmarks in document order. cursor is the page of
// the last placed bookmark, so positions never go backwards.
func placeBookmarks(bookmarks []pdflib.Outline, pages []string, cursor *int) []*outline.Item {
	var items []*outline.Item
	for i, b := range bookmarks {
		title := strings.Join(strings.Fields(b.Title), " ")
		if title == "" {
			continue
		}
		item := &outline.Item{Title: title}
		if page := findPage(title, pages, *cursor); page > 0 {
			*cursor = page
			item.Position = at(page, i+1)
		}
		item.Children = placeBookmarks(b.Child, pages, cursor)
		items = append(items, item)
	}
	return items
}

// findPage returns the first 1-based page at or after from containing title,
// or 0.
func findPage(title string, pages []string, from int) int {
	needle := normalizeText(title)
	for p := max(from, 1); p <= len(pages); p++ {
		if strings.Contains(normalizeText(pages[p-1]), needle) {
			return p
		}
	}
	return 0
}

func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// extractPdftotext needs a real file, so the data is written to a temp file.
func extractPdftotext(data []byte) ([]string, error) {
	tmp, err := os.CreateTemp("", "outlinesync-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	cmd := exec.Command("pdftotext", "-layout", tmpPath, "-")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	pages := strings.Split(string(out), "\f")
	// pdftotext ends the last page with a form feed too.
	if n := len(pages); n > 0 && strings.TrimSpace(pages[n-1]) == "" {
		pages = pages[:n-1]
	}
	return pages, nil
}
