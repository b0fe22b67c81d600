package tree

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
)

// NodeView is a JSON-safe copy of a subtree.
type NodeView struct {
	Kind     string            `json:"kind"`
	Tag      string            `json:"tag,omitempty"`
	ID       string            `json:"id"`
	Text     string            `json:"text,omitempty"`
	Page     int               `json:"page,omitempty"`
	Realized bool              `json:"realized,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Children []NodeView        `json:"children,omitempty"`
}

// View returns a JSON-safe copy of n and its descendants.
func View(n Node) NodeView {
	switch n := n.(type) {
	case *Element:
		v := NodeView{
			Kind:  KindElement.String(),
			Tag:   n.Tag,
			ID:    n.ID,
			Text:  n.Text,
			Attrs: maps.Clone(n.Attrs),
		}
		for _, c := range n.children {
			v.Children = append(v.Children, View(c))
		}
		return v
	case *Page:
		return NodeView{
			Kind:     KindPage.String(),
			ID:       n.Identity(),
			Page:     n.Index,
			Realized: n.Realized(),
			Attrs:    maps.Clone(n.Attrs),
		}
	}
	return NodeView{Kind: "unknown"}
}

// Identities returns the identity tags of nodes, in order.
func Identities(nodes []Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Identity())
	}
	return out
}

// Sequence flattens the identities of every descendant of e in document
// order. e itself is not included.
func Sequence(e *Element) []string {
	var out []string
	for _, c := range e.children {
		Walk(c, func(n Node) bool {
			out = append(out, n.Identity())
			return true
		})
	}
	return out
}

// PageOrder returns the page indices below e in document order.
func PageOrder(e *Element) []int {
	var out []int
	for _, p := range Pages(e) {
		out = append(out, p.Index)
	}
	return out
}

// Dump writes an indented listing of n.
func Dump(w io.Writer, n Node) error {
	return dump(w, n, 0)
}

func dump(w io.Writer, n Node, depth int) error {
	indent := strings.Repeat("  ", depth)
	switch n := n.(type) {
	case *Element:
		line := indent + n.ID
		if n.ID == "" {
			line = indent + "<" + n.Tag + ">"
		}
		if n.Text != "" {
			line += fmt.Sprintf(" %q", n.Text)
		}
		if len(n.Attrs) > 0 {
			line += " " + formatAttrs(n.Attrs)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
		for _, c := range n.children {
			if err := dump(w, c, depth+1); err != nil {
				return err
			}
		}
		return nil
	case *Page:
		state := "stub"
		if n.Realized() {
			state = "region"
		}
		_, err := fmt.Fprintf(w, "%s%s (%s)\n", indent, n.Identity(), state)
		return err
	}
	return nil
}

func formatAttrs(attrs map[string]string) string {
	keys := slices.Sorted(maps.Keys(attrs))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+attrs[k])
	}
	return "[" + strings.Join(parts, " ") + "]"
}
