// Package reconcile patches a live outline tree into the shape of a freshly
// built generation while keeping every rendered page region alive.
//
// A pass builds the target tree, walks it against the live tree pairing
// children through an Aligner, patches reused nodes in place, applies the
// remaining inserts, moves and removals, and finally settles the page
// registry so each record reports exactly one pending action.
package reconcile

import (
	"errors"
	"log/slog"
	"slices"

	"github.com/dgallion1/outlinesync/internal/align"
	"github.com/dgallion1/outlinesync/internal/editscript"
	"github.com/dgallion1/outlinesync/internal/outline"
	"github.com/dgallion1/outlinesync/internal/pages"
	"github.com/dgallion1/outlinesync/internal/target"
	"github.com/dgallion1/outlinesync/internal/tree"
)

// ErrUnknownInstruction means the aligner produced an instruction kind the
// ownership manager does not know. The pass is aborted.
var ErrUnknownInstruction = errors.New("unknown edit instruction")

// Aligner pairs two child sequences and reprojects the resulting target
// view into instructions valid against the live sequence.
type Aligner interface {
	Align(prev, next []tree.Node) ([]editscript.Pair, editscript.TargetView)
	Reproject(prev []tree.Node, view editscript.TargetView) []editscript.Instruction
}

// Oracle decides whether a previous node can be kept as is for a target
// node.
type Oracle interface {
	Equal(prev, next tree.Node) bool
}

// OracleFunc adapts a function to Oracle.
type OracleFunc func(prev, next tree.Node) bool

func (f OracleFunc) Equal(prev, next tree.Node) bool { return f(prev, next) }

// Patcher copies a target node's attributes onto a previous node.
type Patcher interface {
	PatchAttributes(prev, next tree.Node)
}

// PatcherFunc adapts a function to Patcher.
type PatcherFunc func(prev, next tree.Node)

func (f PatcherFunc) PatchAttributes(prev, next tree.Node) { f(prev, next) }

// Reconciler runs passes. It holds no per-pass state, but passes over the
// same live tree and registry must not run concurrently.
type Reconciler struct {
	aligner Aligner
	oracle  Oracle
	patcher Patcher
	log     *slog.Logger
}

// Option configures a Reconciler.
type Option func(*Reconciler)

func WithAligner(a Aligner) Option { return func(r *Reconciler) { r.aligner = a } }
func WithOracle(o Oracle) Option { return func(r *Reconciler) { r.oracle = o } }
func WithPatcher(p Patcher) Option { return func(r *Reconciler) { r.patcher = p } }
func WithLogger(l *slog.Logger) Option { return func(r *Reconciler) { r.log = l } }

// New returns a reconciler using the align package collaborators unless
// overridden.
func New(opts ...Option) *Reconciler {
	r := &Reconciler{
		aligner: align.New(),
		oracle:  OracleFunc(align.Equal),
		patcher: PatcherFunc(align.PatchAttributes),
		log:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Edit is one applied instruction, for reporting.
type Edit struct {
	Parent string        `json:"parent"`
	Op     editscript.Op `json:"op"`
	At     int           `json:"at"`
	From   int           `json:"from,omitempty"`
	Node   string        `json:"node"`
}

// Result summarizes a pass.
type Result struct {
	FirstRender bool   `json:"first_render"`
	Edits       []Edit `json:"edits"`
	Inserted    int    `json:"inserted"`
	Moved       int    `json:"moved"`
	Removed     int    `json:"removed"`
	Reused      int    `json:"reused"`
	Recovered   int    `json:"recovered"`
	Pending     int    `json:"pending"`
	// Discarded counts removed regions whose page no longer exists.
	Discarded int `json:"discarded"`
}

// Reconcile runs one pass with the default collaborators.
func Reconcile(root *tree.Element, reg *pages.Registry, items []*outline.Item) (*Result, error) {
	return New().Reconcile(root, reg, items)
}

// Reconcile patches root's children into the generation described by items
// and reg. On success every record's Action tells the caller what is left
// to do: attach pending records, leave reused ones alone. On error the tree
// may be partially patched.
func (r *Reconciler) Reconcile(root *tree.Element, reg *pages.Registry, items []*outline.Item) (*Result, error) {
	reg.Begin()
	next := target.Build(items, reg)
	res := &Result{}

	if root.Len() == 0 {
		root.SetChildren(next.TakeChildren())
		res.FirstRender = true
	} else {
		p := &pass{r: r, reg: reg, res: res}
		if err := p.patchChildren(root, next); err != nil {
			return res, err
		}
	}

	reg.Settle(root)
	summary := reg.Summary()
	res.Reused = summary[pages.ActionReused]
	res.Recovered = summary[pages.ActionRecovered]
	res.Pending = summary[pages.ActionPendingSwap]

	r.log.Debug("reconciled",
		"first_render", res.FirstRender,
		"inserted", res.Inserted,
		"moved", res.Moved,
		"removed", res.Removed,
		"reused", res.Reused,
		"recovered", res.Recovered,
		"pending", res.Pending,
	)
	return res, nil
}

// pass is the state of one Reconcile invocation.
type pass struct {
	r   *Reconciler
	reg *pages.Registry
	res *Result
}

// patchChildren aligns prev's children with next's, reconciles every matched
// pair, then applies the edit script to prev.
func (p *pass) patchChildren(prev, next *tree.Element) error {
	before := slices.Clone(prev.Children())
	pairs, view := p.r.aligner.Align(before, next.Children())
	for _, pair := range pairs {
		if err := p.reconcileNode(pair.Prev, pair.Next); err != nil {
			return err
		}
	}
	return p.apply(prev, p.r.aligner.Reproject(before, view))
}

// reconcileNode makes the reuse decision for one matched pair.
func (p *pass) reconcileNode(prev, next tree.Node) error {
	reuse := p.r.oracle.Equal(prev, next)
	switch pv := prev.(type) {
	case *tree.Page:
		// A rendered region is opaque: no attribute copy, no descent.
		if !pv.Realized() {
			p.r.patcher.PatchAttributes(prev, next)
		}
		if !reuse {
			// The owning record is updated when the node is inserted or
			// removed by the edit script.
			return nil
		}
		if rec := p.reg.Get(pv.Index); rec != nil {
			rec.Rebind(pv)
		}
		return nil
	case *tree.Element:
		p.r.patcher.PatchAttributes(prev, next)
		ne, ok := next.(*tree.Element)
		if !ok {
			return nil
		}
		if reuse && !ne.AlwaysRepatch {
			return nil
		}
		return p.patchChildren(pv, ne)
	}
	return nil
}
