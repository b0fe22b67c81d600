package align

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dgallion1/outlinesync/internal/editscript"
	"github.com/dgallion1/outlinesync/internal/tree"
)

func nodes(ids ...string) []tree.Node {
	out := make([]tree.Node, len(ids))
	for i, id := range ids {
		out[i] = tree.NewElement("x", id)
	}
	return out
}

// replay applies instrs to a live parent the way the reconciler does.
func replay(t *testing.T, parent *tree.Element, instrs []editscript.Instruction) {
	t.Helper()
	for _, in := range instrs {
		var err error
		switch in.Op {
		case editscript.OpInsert:
			err = parent.InsertAt(in.At, in.Node)
		case editscript.OpSwapIn:
			err = parent.Move(in.From, in.At)
		case editscript.OpRemove:
			_, err = parent.RemoveAt(in.At)
		default:
			t.Fatalf("unexpected op %v", in.Op)
		}
		if err != nil {
			t.Fatalf("%v at %d from %d: %v", in.Op, in.At, in.From, err)
		}
	}
}

func TestAlignReprojectReachesTarget(t *testing.T) {
	tests := []struct {
		name       string
		prev, next []string
		wantMoves  bool
	}{
		{"identical", []string{"a", "b", "c"}, []string{"a", "b", "c"}, false},
		{"empty prev", nil, []string{"a", "b"}, false},
		{"empty next", []string{"a", "b"}, nil, false},
		{"insert middle", []string{"a", "c"}, []string{"a", "b", "c"}, false},
		{"remove middle", []string{"a", "b", "c"}, []string{"a", "c"}, false},
		{"swap", []string{"a", "b"}, []string{"b", "a"}, true},
		{"reverse", []string{"a", "b", "c", "d"}, []string{"d", "c", "b", "a"}, true},
		{"mixed", []string{"a", "b", "c", "d", "e"}, []string{"e", "x", "b", "d", "y"}, true},
		{"duplicates", []string{"a", "a", "b"}, []string{"b", "a", "a", "a"}, true},
		{"scenario", []string{"item:A", "page:1", "page:2", "item:B", "page:3"}, []string{"item:A", "page:1", "page:2", "page:3"}, false},
	}
	a := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parent := tree.NewElement("root", "")
			parent.Append(nodes(tt.prev...)...)
			prev := parent.Children()
			prevCopy := append([]tree.Node(nil), prev...)
			next := nodes(tt.next...)

			pairs, view := a.Align(prevCopy, next)
			if len(view) != len(next) {
				t.Fatalf("view has %d slots, want %d", len(view), len(next))
			}
			for _, p := range pairs {
				if p.Prev.Identity() != p.Next.Identity() {
					t.Errorf("paired %q with %q", p.Prev.Identity(), p.Next.Identity())
				}
			}

			instrs := a.Reproject(prevCopy, view)
			replay(t, parent, instrs)

			want := tt.next
			if want == nil {
				want = []string{}
			}
			if diff := cmp.Diff(want, tree.Identities(parent.Children())); diff != "" {
				t.Errorf("result mismatch (-want +got):\n%s", diff)
			}

			moved := false
			for _, in := range instrs {
				if in.Op == editscript.OpSwapIn {
					moved = true
				}
			}
			if moved != tt.wantMoves {
				t.Errorf("moves = %v, want %v (%v)", moved, tt.wantMoves, instrs)
			}

			// Every kept previous node is still the same object.
			for _, p := range pairs {
				if parent.IndexOf(p.Prev) < 0 {
					t.Errorf("paired node %q was not kept", p.Prev.Identity())
				}
			}
		})
	}
}

func TestReproject_RemovalsFirst(t *testing.T) {
	a := New()
	prev := nodes("a", "b", "c")
	_, view := a.Align(prev, nodes("c", "d"))
	instrs := a.Reproject(prev, view)

	var ops []string
	for _, in := range instrs {
		ops = append(ops, fmt.Sprintf("%v@%d", in.Op, in.At))
	}
	want := []string{"remove@0", "remove@0", "insert@1"}
	if diff := cmp.Diff(want, ops); diff != "" {
		t.Errorf("instructions mismatch (-want +got):\n%s", diff)
	}
}

func TestEqual(t *testing.T) {
	el := func(id string, repatch bool, attrs map[string]string) *tree.Element {
		e := tree.NewElement("outline-item", id)
		e.AlwaysRepatch = repatch
		for k, v := range attrs {
			e.SetAttr(k, v)
		}
		return e
	}
	tests := []struct {
		name       string
		prev, next tree.Node
		want       bool
	}{
		{"same page", tree.NewRegion(2, "r"), tree.NewPage(2), true},
		{"other page", tree.NewPage(2), tree.NewPage(3), false},
		{"page vs element", tree.NewPage(1), el("page:1", false, nil), false},
		{"same element", el("a", false, map[string]string{"k": "v"}), el("a", false, map[string]string{"k": "v"}), true},
		{"attr differs", el("a", false, map[string]string{"k": "v"}), el("a", false, map[string]string{"k": "w"}), false},
		{"always repatch", el("a", true, nil), el("a", true, nil), false},
	}
	for _, tt := range tests {
		if got := Equal(tt.prev, tt.next); got != tt.want {
			t.Errorf("%s: Equal = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestPatchAttributes(t *testing.T) {
	prev := tree.NewElement("outline-title", "title:A")
	prev.Text = "old"
	prev.SetAttr("stale", "1")
	next := tree.NewElement("outline-title", "title:A")
	next.Text = "new"
	next.AlwaysRepatch = true
	next.SetAttr("level", "2")

	PatchAttributes(prev, next)
	if prev.Text != "new" || !prev.AlwaysRepatch {
		t.Errorf("text/flag not copied: %+v", prev)
	}
	if diff := cmp.Diff(map[string]string{"level": "2"}, prev.Attrs); diff != "" {
		t.Errorf("attrs mismatch (-want +got):\n%s", diff)
	}
	next.Attrs["level"] = "3"
	if prev.Attrs["level"] != "2" {
		t.Error("attributes should be copied, not shared")
	}

	page := tree.NewPage(1)
	stub := tree.NewPage(1)
	stub.Attrs["data-page-number"] = "1"
	PatchAttributes(page, stub)
	if page.Attrs["data-page-number"] != "1" {
		t.Error("page attributes not copied")
	}
	// Kind mismatch is ignored.
	PatchAttributes(page, prev)
}
