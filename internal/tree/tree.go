// Package tree is the live host tree that outline generations are patched
// into. A node is either an *Element (outline container, title, or the root)
// or a *Page (a page placeholder stub, or the caller's rendered region once
// attached).
package tree

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrOffset is returned when a child offset is outside the child sequence.
var ErrOffset = errors.New("child offset out of range")

// Kind distinguishes the two node variants.
type Kind int

const (
	KindElement Kind = iota
	KindPage
)

func (k Kind) String() string {
	switch k {
	case KindElement:
		return "element"
	case KindPage:
		return "page"
	default:
		return "unknown"
	}
}

// Node is implemented only by *Element and *Page.
type Node interface {
	Kind() Kind
	// Identity is the stable patch-identity tag used to align generations.
	Identity() string
	Parent() *Element
	setParent(*Element)
}

// Element is a container node. Only elements carry children.
type Element struct {
	Tag string
	ID  string
	// AlwaysRepatch marks nodes whose content is refreshed on every
	// generation even when their identity matches.
	AlwaysRepatch bool
	Text          string
	Attrs         map[string]string

	parent   *Element
	children []Node
}

// NewElement returns an empty element.
func NewElement(tag, id string) *Element {
	return &Element{Tag: tag, ID: id, Attrs: map[string]string{}}
}

func (e *Element) Kind() Kind { return KindElement }
func (e *Element) Identity() string { return e.ID }
func (e *Element) Parent() *Element { return e.parent }
func (e *Element) setParent(p *Element) { e.parent = p }

// SetAttr sets a single attribute.
func (e *Element) SetAttr(key, value string) {
	if e.Attrs == nil {
		e.Attrs = map[string]string{}
	}
	e.Attrs[key] = value
}

// Children returns the child sequence. The slice must not be modified.
func (e *Element) Children() []Node { return e.children }

// Len returns the number of children.
func (e *Element) Len() int { return len(e.children) }

// Child returns the child at offset i, or nil when out of range.
func (e *Element) Child(i int) Node {
	if i < 0 || i >= len(e.children) {
		return nil
	}
	return e.children[i]
}

// IndexOf returns the offset of n among the children, or -1.
func (e *Element) IndexOf(n Node) int {
	for i, c := range e.children {
		if c == n {
			return i
		}
	}
	return -1
}

// Append adds nodes at the end, detaching each from its current parent.
func (e *Element) Append(nodes ...Node) {
	for _, n := range nodes {
		detach(n)
		n.setParent(e)
		e.children = append(e.children, n)
	}
}

// InsertAt places n before the child currently at offset i. i == Len()
// appends.
func (e *Element) InsertAt(i int, n Node) error {
	if i < 0 || i > len(e.children) {
		return fmt.Errorf("insert at %d of %d: %w", i, len(e.children), ErrOffset)
	}
	detach(n)
	// detach may have shortened our own children.
	if i > len(e.children) {
		i = len(e.children)
	}
	e.children = append(e.children, nil)
	copy(e.children[i+1:], e.children[i:])
	e.children[i] = n
	n.setParent(e)
	return nil
}

// RemoveAt detaches and returns the child at offset i.
func (e *Element) RemoveAt(i int) (Node, error) {
	if i < 0 || i >= len(e.children) {
		return nil, fmt.Errorf("remove at %d of %d: %w", i, len(e.children), ErrOffset)
	}
	n := e.children[i]
	e.children = append(e.children[:i], e.children[i+1:]...)
	n.setParent(nil)
	return n, nil
}

// Move relocates the child at offset from to just before the child
// currently at offset to. to == Len() moves it to the end. No node is
// created or destroyed.
func (e *Element) Move(from, to int) error {
	if from < 0 || from >= len(e.children) {
		return fmt.Errorf("move from %d of %d: %w", from, len(e.children), ErrOffset)
	}
	if to < 0 || to > len(e.children) {
		return fmt.Errorf("move to %d of %d: %w", to, len(e.children), ErrOffset)
	}
	if from == to || from+1 == to {
		return nil
	}
	n := e.children[from]
	e.children = append(e.children[:from], e.children[from+1:]...)
	if from < to {
		to--
	}
	e.children = append(e.children, nil)
	copy(e.children[to+1:], e.children[to:])
	e.children[to] = n
	return nil
}

// Remove detaches n if it is a child of e.
func (e *Element) Remove(n Node) bool {
	i := e.IndexOf(n)
	if i < 0 {
		return false
	}
	_, _ = e.RemoveAt(i)
	return true
}

// Replace puts repl in old's slot. It reports false when old is not a child.
func (e *Element) Replace(old, repl Node) bool {
	if old == repl {
		return e.IndexOf(old) >= 0
	}
	detach(repl)
	i := e.IndexOf(old)
	if i < 0 {
		return false
	}
	e.children[i] = repl
	old.setParent(nil)
	repl.setParent(e)
	return true
}

// SetChildren adopts nodes as the full child sequence.
func (e *Element) SetChildren(nodes []Node) {
	for _, c := range e.children {
		c.setParent(nil)
	}
	e.children = nil
	e.Append(nodes...)
}

// TakeChildren detaches and returns every child.
func (e *Element) TakeChildren() []Node {
	out := e.children
	e.children = nil
	for _, c := range out {
		c.setParent(nil)
	}
	return out
}

func detach(n Node) {
	if p := n.Parent(); p != nil {
		p.Remove(n)
	}
}

// Page stands for one page of the document. Without a Region it is a
// lightweight stub; with one it is the caller's rendered region, whose
// contents this package never inspects.
type Page struct {
	Index  int
	Attrs  map[string]string
	Region any

	parent *Element
}

// NewPage returns a stub for the given 1-based page index.
func NewPage(index int) *Page {
	return &Page{Index: index, Attrs: map[string]string{}}
}

// NewRegion returns a realized page node holding region.
func NewRegion(index int, region any) *Page {
	return &Page{Index: index, Attrs: map[string]string{}, Region: region}
}

func (p *Page) Kind() Kind { return KindPage }
func (p *Page) Identity() string { return PageIdentity(p.Index) }
func (p *Page) Parent() *Element { return p.parent }
func (p *Page) setParent(e *Element) { p.parent = e }

// Realized reports whether the node holds a rendered region.
func (p *Page) Realized() bool { return p.Region != nil }

// PageIdentity is the identity tag of page index i.
func PageIdentity(i int) string {
	return "page:" + strconv.Itoa(i)
}

// Walk visits n and its descendants in document order.
func Walk(n Node, fn func(Node) bool) bool {
	if !fn(n) {
		return false
	}
	if e, ok := n.(*Element); ok {
		for _, c := range e.children {
			if !Walk(c, fn) {
				return false
			}
		}
	}
	return true
}

// Pages returns every page node below n in document order, n included.
func Pages(n Node) []*Page {
	var out []*Page
	Walk(n, func(c Node) bool {
		if p, ok := c.(*Page); ok {
			out = append(out, p)
		}
		return true
	})
	return out
}
