// Package target builds the tree a generation should look like: outline
// entries interleaved with one placeholder per page, in ascending page order.
package target

import (
	"strconv"

	"github.com/dgallion1/outlinesync/internal/outline"
	"github.com/dgallion1/outlinesync/internal/pages"
	"github.com/dgallion1/outlinesync/internal/tree"
)

// Tags and attribute keys of generated nodes.
const (
	TagRoot  = "outline"
	TagItem  = "outline-item"
	TagTitle = "outline-title"

	AttrLevel       = "level"
	AttrPage        = "data-page"
	AttrX           = "data-x"
	AttrY           = "data-y"
	AttrCollapsible = "collapsible"
	AttrPageNumber  = "data-page-number"
	AttrPagePos     = "data-page-position"
)

// ItemIdentity is the identity tag of the container built for a title.
func ItemIdentity(title string) string { return "item:" + title }

// TitleIdentity is the identity tag of a title node.
func TitleIdentity(title string) string { return "title:" + title }

// builder carries the populate watermark, the only state shared across the
// recursive build.
type builder struct {
	reg       *pages.Registry
	watermark int
}

// Build returns a fresh root whose descendants are the outline entries of
// items with every page of reg placed exactly once. Each record's Stub is
// set to the placeholder built for it.
func Build(items []*outline.Item, reg *pages.Registry) *tree.Element {
	b := &builder{reg: reg, watermark: 1}
	root := tree.NewElement(TagRoot, "")
	for _, it := range items {
		if it == nil {
			continue
		}
		root.Append(b.build(root, it, 1))
	}
	// Pages after the last entry have no titled entry before them.
	b.emitUpTo(root, reg.Len()+1)
	return root
}

// emitUpTo appends one placeholder per page in [watermark, min(bound,
// pageCount+1)) to into and advances the watermark. The watermark never
// decreases, so a bound below it emits nothing.
func (b *builder) emitUpTo(into *tree.Element, bound int) {
	limit := min(bound, b.reg.Len()+1)
	for ; b.watermark < limit; b.watermark++ {
		into.Append(b.placeholder(b.watermark))
	}
}

func (b *builder) placeholder(index int) *tree.Page {
	stub := tree.NewPage(index)
	stub.Attrs[AttrPageNumber] = strconv.Itoa(index)
	stub.Attrs[AttrPagePos] = strconv.Itoa(index) + "/" + strconv.Itoa(b.reg.Len())
	if r := b.reg.Get(index); r != nil {
		r.SetStub(stub)
	}
	return stub
}

// build returns the container for item. Pages before the item's page are
// placed into insertion, the container that will receive the returned node,
// so they precede the entry in document order. Children are built with the
// new container as their insertion point.
func (b *builder) build(insertion *tree.Element, item *outline.Item, level int) *tree.Element {
	b.emitUpTo(insertion, item.PageIndex())

	container := tree.NewElement(TagItem, ItemIdentity(item.Title))
	container.AlwaysRepatch = true
	container.SetAttr(AttrLevel, strconv.Itoa(level))

	title := tree.NewElement(TagTitle, TitleIdentity(item.Title))
	title.AlwaysRepatch = true
	title.Text = item.Title
	title.SetAttr(AttrLevel, strconv.Itoa(level))
	if pos := item.Position; pos != nil {
		title.SetAttr(AttrPage, strconv.Itoa(pos.Page))
		title.SetAttr(AttrX, strconv.FormatFloat(pos.X, 'f', -1, 64))
		title.SetAttr(AttrY, strconv.FormatFloat(pos.Y, 'f', -1, 64))
	}
	container.Append(title)

	for _, child := range item.Children {
		if child == nil {
			continue
		}
		container.Append(b.build(container, child, level+1))
	}

	hasChildren := container.Len() > 1
	title.SetAttr(AttrCollapsible, strconv.FormatBool(hasChildren))
	return container
}
