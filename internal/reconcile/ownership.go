package reconcile

import (
	"fmt"

	"github.com/dgallion1/outlinesync/internal/editscript"
	"github.com/dgallion1/outlinesync/internal/tree"
)

// apply executes instructions against parent's live children in order and
// keeps the page registry in step with the nodes they touch.
func (p *pass) apply(parent *tree.Element, instrs []editscript.Instruction) error {
	for _, in := range instrs {
		var id string
		switch in.Op {
		case editscript.OpInsert:
			if in.Node == nil {
				return fmt.Errorf("apply insert at %d: nil node", in.At)
			}
			id = in.Node.Identity()
			// An inserted placeholder keeps its record pending; Settle
			// marks it once the pass is done.
			if err := parent.InsertAt(in.At, in.Node); err != nil {
				return fmt.Errorf("apply insert: %w", err)
			}
			p.res.Inserted++
		case editscript.OpSwapIn:
			if c := parent.Child(in.From); c != nil {
				id = c.Identity()
			}
			// The moved node keeps whatever rendered state it carries.
			if err := parent.Move(in.From, in.At); err != nil {
				return fmt.Errorf("apply swap_in: %w", err)
			}
			p.res.Moved++
		case editscript.OpRemove:
			n, err := parent.RemoveAt(in.At)
			if err != nil {
				return fmt.Errorf("apply remove: %w", err)
			}
			id = n.Identity()
			p.recoverRemoved(n)
			p.res.Removed++
		default:
			return fmt.Errorf("%w: op %d under %q", ErrUnknownInstruction, int(in.Op), parent.Identity())
		}
		p.res.Edits = append(p.res.Edits, Edit{
			Parent: parent.Identity(),
			Op:     in.Op,
			At:     in.At,
			From:   in.From,
			Node:   id,
		})
	}
	return nil
}

// recoverRemoved binds every rendered region inside a removed subtree back
// to its record, so a later attach reinstalls it rather than rendering the
// page again. Regions of pages past the current page count are dropped.
func (p *pass) recoverRemoved(n tree.Node) {
	for _, pg := range tree.Pages(n) {
		if !pg.Realized() {
			continue
		}
		rec := p.reg.Get(pg.Index)
		if rec == nil {
			p.res.Discarded++
			p.r.log.Debug("discarding region of removed page", "page", pg.Index, "page_count", p.reg.Len())
			continue
		}
		rec.Recover(pg)
	}
}
