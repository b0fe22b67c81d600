package parser

import (
	"io"

	"github.com/dgallion1/outlinesync/internal/outline"
)

// JSONParser reads an outline document already in JSON form.
type JSONParser struct{}

func (p *JSONParser) Parse(r io.Reader, filename string) (*outline.Document, error) {
	doc, err := outline.Decode(r)
	if err != nil {
		return nil, err
	}
	if doc.Title == "" {
		doc.Title = docTitle(filename)
	}
	return doc, nil
}
