// Package pages holds the caller-owned page registry: one record per physical
// page, indexed from 1, tracking the region that displays the page and the
// stub standing in for it until it is attached.
package pages

import (
	"errors"
	"fmt"
	"maps"

	"github.com/dgallion1/outlinesync/internal/tree"
)

var (
	// ErrReusedPageMoved means a record rebound in place during the pass was
	// asked to attach. Reuse implies the region never moved, so this is a bug
	// in the alignment step.
	ErrReusedPageMoved = errors.New("reused page must not be attached")
	// ErrNothingPending means the record has no stub waiting for its region.
	ErrNothingPending = errors.New("no pending stub")
	// ErrStubDetached means the pending stub is no longer in the tree.
	ErrStubDetached = errors.New("pending stub is not in the tree")
	// ErrNoRegion means the record has no rendered region to attach.
	ErrNoRegion = errors.New("record has no rendered region")
)

// Action is what a record needs after a reconcile pass.
type Action int

const (
	// ActionNone: nothing to do (not yet reconciled, or already attached).
	ActionNone Action = iota
	// ActionPendingSwap: a stub is in the tree; Attach installs the region.
	ActionPendingSwap
	// ActionReused: the region stayed in place; Attach must not be called.
	ActionReused
	// ActionRecovered: like PendingSwap, but the region was taken from a
	// removed subtree and will be reinstalled as is.
	ActionRecovered
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionPendingSwap:
		return "pending_swap"
	case ActionReused:
		return "reused"
	case ActionRecovered:
		return "recovered"
	default:
		return "unknown"
	}
}

func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// Record is one page. Its region is always owned by the caller; the
// reconciler only rebinds, relocates or recovers it.
type Record struct {
	Index int
	// Container is the node currently holding the page's rendered region.
	Container *tree.Page
	// Element is the rendered region inside Container.
	Element any
	// Stub is the placeholder standing in for Container, if any.
	Stub *tree.Page

	action    Action
	recovered bool
}

// Action returns the record's result from the last pass.
func (r *Record) Action() Action { return r.action }

// SetStub records the placeholder built for this page in the current pass.
func (r *Record) SetStub(stub *tree.Page) {
	r.Stub = stub
}

// Rebind adopts live, the node already occupying this page's slot in the
// tree. A realized node becomes the record's container and the record is
// marked reused. An unrealized node is a stub left over from a generation
// whose attach never ran; it stays pending.
func (r *Record) Rebind(live *tree.Page) {
	if !live.Realized() {
		r.Stub = live
		return
	}
	r.Container = live
	r.Element = live.Region
	r.Stub = nil
	r.action = ActionReused
}

// Recover binds a removed region to the record so the next attach
// reinstalls it instead of rendering a new one. It reports false when the
// record was already reused in place during this pass.
func (r *Record) Recover(removed *tree.Page) bool {
	if r.action == ActionReused || !removed.Realized() {
		return false
	}
	r.Container = removed
	r.Element = removed.Region
	r.recovered = true
	return true
}

// Attach swaps the pending stub for the record's region. It must be called
// at most once per pass, and never for a reused record.
func (r *Record) Attach() error {
	switch r.action {
	case ActionReused:
		return fmt.Errorf("page %d: %w", r.Index, ErrReusedPageMoved)
	case ActionPendingSwap, ActionRecovered:
	default:
		return fmt.Errorf("page %d: %w", r.Index, ErrNothingPending)
	}
	if r.Container == nil || !r.Container.Realized() {
		return fmt.Errorf("page %d: %w", r.Index, ErrNoRegion)
	}
	parent := r.Stub.Parent()
	if parent == nil {
		return fmt.Errorf("page %d: %w", r.Index, ErrStubDetached)
	}
	r.Container.Attrs = maps.Clone(r.Stub.Attrs)
	parent.Replace(r.Stub, r.Container)
	r.Stub = nil
	r.action = ActionNone
	r.recovered = false
	return nil
}

// Registry is the ordered list of page records. Index i lives at position
// i-1; its length is the valid page range.
type Registry struct {
	records []*Record
}

// NewRegistry creates one record per region, indexed from 1.
func NewRegistry(regions ...any) *Registry {
	g := &Registry{}
	for i, region := range regions {
		g.records = append(g.records, newRecord(i+1, region))
	}
	return g
}

func newRecord(index int, region any) *Record {
	r := &Record{Index: index, Element: region}
	if region != nil {
		r.Container = tree.NewRegion(index, region)
	}
	return r
}

// Len returns the page count.
func (g *Registry) Len() int { return len(g.records) }

// Get returns the record for 1-based page index i, or nil.
func (g *Registry) Get(i int) *Record {
	if i < 1 || i > len(g.records) {
		return nil
	}
	return g.records[i-1]
}

// Records returns every record in page order.
func (g *Registry) Records() []*Record { return g.records }

// Resize grows the registry to n pages, rendering a region for each new one,
// or drops trailing records when n is smaller.
func (g *Registry) Resize(n int, render func(index int) any) {
	if n < len(g.records) {
		for _, r := range g.records[n:] {
			r.Stub = nil
		}
		g.records = g.records[:n]
		return
	}
	for i := len(g.records) + 1; i <= n; i++ {
		var region any
		if render != nil {
			region = render(i)
		}
		g.records = append(g.records, newRecord(i, region))
	}
}

// Begin clears per-pass state before a new generation is built.
func (g *Registry) Begin() {
	for _, r := range g.records {
		r.action = ActionNone
		r.recovered = false
		r.Stub = nil
	}
}

// Settle assigns each record its action once the pass has finished: reused
// records keep ActionReused, records whose stub ended up under root become
// pending, everything else needs nothing.
func (g *Registry) Settle(root *tree.Element) {
	for _, r := range g.records {
		if r.action == ActionReused {
			continue
		}
		switch {
		case r.Stub == nil || !under(r.Stub, root):
			r.action = ActionNone
		case r.recovered:
			r.action = ActionRecovered
		default:
			r.action = ActionPendingSwap
		}
	}
}

func under(n tree.Node, root *tree.Element) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p == root {
			return true
		}
	}
	return false
}

// Pending returns the records waiting for Attach.
func (g *Registry) Pending() []*Record {
	var out []*Record
	for _, r := range g.records {
		if r.action == ActionPendingSwap || r.action == ActionRecovered {
			out = append(out, r)
		}
	}
	return out
}

// AttachPending attaches every pending record. It stops at the first error
// and returns how many were attached.
func (g *Registry) AttachPending() (int, error) {
	n := 0
	for _, r := range g.Pending() {
		if err := r.Attach(); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Summary counts records per action.
func (g *Registry) Summary() map[Action]int {
	out := make(map[Action]int)
	for _, r := range g.records {
		out[r.action]++
	}
	return out
}
