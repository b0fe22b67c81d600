// Package align provides the default collaborators of the reconciler:
// sequence alignment over identity tags, reprojection of a target view into
// offset-indexed instructions, the reuse oracle and the attribute patcher.
package align

import (
	"maps"
	"slices"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/dgallion1/outlinesync/internal/editscript"
	"github.com/dgallion1/outlinesync/internal/tree"
)

// runeBase keeps symbol runes clear of the surrogate range.
const runeBase = 0x10000

// Aligner matches two child sequences by identity tag. Children in a common
// subsequence are paired in place; children whose identity only appears
// outside it are paired as moves.
type Aligner struct {
	dmp *diffmatchpatch.DiffMatchPatch
}

// New returns an aligner with diff timeouts disabled.
func New() *Aligner {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	return &Aligner{dmp: dmp}
}

// Align returns the matched pairs in target order and the target view.
func (a *Aligner) Align(prev, next []tree.Node) ([]editscript.Pair, editscript.TargetView) {
	symbols := make(map[string]rune)
	prevRunes := encode(prev, symbols)
	nextRunes := encode(next, symbols)

	// matched[j] is the previous offset paired with next[j], or -1.
	matched := make([]int, len(next))
	for j := range matched {
		matched[j] = -1
	}
	used := make([]bool, len(prev))

	i, j := 0, 0
	for _, d := range a.dmp.DiffMainRunes(prevRunes, nextRunes, false) {
		n := utf8.RuneCountInString(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			for k := range n {
				matched[j+k] = i + k
				used[i+k] = true
			}
			i += n
			j += n
		case diffmatchpatch.DiffDelete:
			i += n
		case diffmatchpatch.DiffInsert:
			j += n
		}
	}

	// Identities deleted on one side and inserted on the other moved.
	spare := make(map[string][]int)
	for pi, n := range prev {
		if !used[pi] {
			id := n.Identity()
			spare[id] = append(spare[id], pi)
		}
	}
	for nj, n := range next {
		if matched[nj] >= 0 {
			continue
		}
		id := n.Identity()
		if q := spare[id]; len(q) > 0 {
			matched[nj] = q[0]
			spare[id] = q[1:]
		}
	}

	pairs := make([]editscript.Pair, 0, len(next))
	view := make(editscript.TargetView, 0, len(next))
	for nj, n := range next {
		pi := matched[nj]
		view = append(view, editscript.Slot{Prev: pi, Next: n})
		if pi >= 0 {
			pairs = append(pairs, editscript.Pair{Prev: prev[pi], Next: n})
		}
	}
	return pairs, view
}

func encode(nodes []tree.Node, symbols map[string]rune) []rune {
	out := make([]rune, len(nodes))
	for i, n := range nodes {
		id := n.Identity()
		r, ok := symbols[id]
		if !ok {
			r = runeBase + rune(len(symbols))
			symbols[id] = r
		}
		out[i] = r
	}
	return out
}

// Reproject turns view into instructions against prev: removals of
// children the view drops, then inserts and moves in ascending target
// offset. Each offset is valid against the sequence left by the
// instructions before it.
func (a *Aligner) Reproject(prev []tree.Node, view editscript.TargetView) []editscript.Instruction {
	kept := make([]bool, len(prev))
	for _, s := range view {
		if s.Kept() && s.Prev < len(prev) {
			kept[s.Prev] = true
		}
	}

	// live mirrors the child sequence as original offsets; -1 is an insert.
	live := make([]int, len(prev))
	for i := range live {
		live[i] = i
	}

	var out []editscript.Instruction
	for k := 0; k < len(live); {
		if kept[live[k]] {
			k++
			continue
		}
		out = append(out, editscript.Instruction{Op: editscript.OpRemove, At: k, Node: prev[live[k]]})
		live = slices.Delete(live, k, k+1)
	}

	for at, s := range view {
		if !s.Kept() {
			out = append(out, editscript.Instruction{Op: editscript.OpInsert, At: at, Node: s.Next})
			live = slices.Insert(live, at, -1)
			continue
		}
		from := slices.Index(live, s.Prev)
		if from < 0 || from == at {
			continue
		}
		out = append(out, editscript.Instruction{Op: editscript.OpSwapIn, From: from, At: at, Node: prev[s.Prev]})
		live = slices.Delete(live, from, from+1)
		live = slices.Insert(live, at, s.Prev)
	}
	return out
}

// Equal is the reuse oracle. Pages are equal when they stand for the same
// index. Elements are equal when their tag, identity, text and attributes
// match and neither carries AlwaysRepatch.
func Equal(prev, next tree.Node) bool {
	switch p := prev.(type) {
	case *tree.Page:
		n, ok := next.(*tree.Page)
		return ok && p.Index == n.Index
	case *tree.Element:
		n, ok := next.(*tree.Element)
		if !ok || p.AlwaysRepatch || n.AlwaysRepatch {
			return false
		}
		return p.Tag == n.Tag && p.ID == n.ID && p.Text == n.Text && maps.Equal(p.Attrs, n.Attrs)
	}
	return false
}

// PatchAttributes copies next's attributes onto prev. Children are left to
// the reconciler. Kind mismatches are ignored.
func PatchAttributes(prev, next tree.Node) {
	switch p := prev.(type) {
	case *tree.Element:
		n, ok := next.(*tree.Element)
		if !ok {
			return
		}
		p.Tag = n.Tag
		p.ID = n.ID
		p.AlwaysRepatch = n.AlwaysRepatch
		p.Text = n.Text
		p.Attrs = maps.Clone(n.Attrs)
	case *tree.Page:
		n, ok := next.(*tree.Page)
		if !ok {
			return
		}
		p.Attrs = maps.Clone(n.Attrs)
	}
}
