package pages

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dgallion1/outlinesync/internal/tree"
)

func TestRegistry_GetBounds(t *testing.T) {
	g := NewRegistry("a", "b")
	if g.Len() != 2 {
		t.Fatalf("Len = %d", g.Len())
	}
	for _, i := range []int{-1, 0, 3} {
		if g.Get(i) != nil {
			t.Errorf("Get(%d) should be nil", i)
		}
	}
	r := g.Get(2)
	if r.Index != 2 || r.Element != "b" || r.Container == nil || r.Container.Region != "b" {
		t.Errorf("unexpected record %+v", r)
	}
}

func TestRegistry_Resize(t *testing.T) {
	g := NewRegistry("a")
	var rendered []int
	g.Resize(3, func(i int) any {
		rendered = append(rendered, i)
		return i * 10
	})
	if diff := cmp.Diff([]int{2, 3}, rendered); diff != "" {
		t.Errorf("rendered mismatch (-want +got):\n%s", diff)
	}
	if g.Get(3).Element != 30 {
		t.Errorf("unexpected region %v", g.Get(3).Element)
	}

	stub := tree.NewPage(3)
	g.Get(3).SetStub(stub)
	dropped := g.Get(3)
	g.Resize(1, nil)
	if g.Len() != 1 || dropped.Stub != nil {
		t.Errorf("shrink left len=%d stub=%v", g.Len(), dropped.Stub)
	}

	g.Resize(2, nil)
	if r := g.Get(2); r.Container != nil || r.Element != nil {
		t.Errorf("nil render should leave no region: %+v", r)
	}
}

// pending places a stub for every record under a fresh root and settles.
func pending(g *Registry) *tree.Element {
	root := tree.NewElement("outline", "")
	g.Begin()
	for _, r := range g.Records() {
		stub := tree.NewPage(r.Index)
		stub.Attrs["data-page-number"] = "n"
		root.Append(stub)
		r.SetStub(stub)
	}
	g.Settle(root)
	return root
}

func TestRecord_Attach(t *testing.T) {
	g := NewRegistry("a", "b")
	root := pending(g)
	if len(g.Pending()) != 2 {
		t.Fatalf("expected 2 pending, got %d", len(g.Pending()))
	}

	r := g.Get(1)
	if err := r.Attach(); err != nil {
		t.Fatal(err)
	}
	if root.Child(0) != r.Container || r.Stub != nil || r.Action() != ActionNone {
		t.Errorf("attach did not install the region: %+v", r)
	}
	if r.Container.Attrs["data-page-number"] != "n" {
		t.Error("stub attributes not carried over")
	}
	if err := r.Attach(); !errors.Is(err, ErrNothingPending) {
		t.Errorf("second attach: expected ErrNothingPending, got %v", err)
	}
}

func TestRecord_AttachErrors(t *testing.T) {
	t.Run("reused", func(t *testing.T) {
		g := NewRegistry("a")
		r := g.Get(1)
		r.Rebind(r.Container)
		if err := r.Attach(); !errors.Is(err, ErrReusedPageMoved) {
			t.Errorf("expected ErrReusedPageMoved, got %v", err)
		}
	})
	t.Run("detached stub", func(t *testing.T) {
		g := NewRegistry("a")
		root := pending(g)
		root.RemoveAt(0)
		if err := g.Get(1).Attach(); !errors.Is(err, ErrStubDetached) {
			t.Errorf("expected ErrStubDetached, got %v", err)
		}
	})
	t.Run("no region", func(t *testing.T) {
		g := NewRegistry()
		g.Resize(1, nil)
		pending(g)
		if err := g.Get(1).Attach(); !errors.Is(err, ErrNoRegion) {
			t.Errorf("expected ErrNoRegion, got %v", err)
		}
	})
}

func TestRecord_RebindUnrealizedStaysPending(t *testing.T) {
	g := NewRegistry("a")
	root := tree.NewElement("outline", "")
	live := tree.NewPage(1)
	root.Append(live)

	g.Begin()
	r := g.Get(1)
	r.SetStub(tree.NewPage(1))
	r.Rebind(live)
	g.Settle(root)

	if r.Action() != ActionPendingSwap || r.Stub != live {
		t.Errorf("unexpected record state action=%v stub=%v", r.Action(), r.Stub)
	}
}

func TestRecord_Recover(t *testing.T) {
	g := NewRegistry("a")
	r := g.Get(1)
	removed := r.Container

	g.Begin()
	root := tree.NewElement("outline", "")
	stub := tree.NewPage(1)
	root.Append(stub)
	r.SetStub(stub)
	if !r.Recover(removed) {
		t.Fatal("recover refused a realized region")
	}
	if r.Recover(tree.NewPage(1)) {
		t.Error("recover accepted a stub")
	}
	g.Settle(root)
	if r.Action() != ActionRecovered {
		t.Fatalf("action = %v", r.Action())
	}
	if n, err := g.AttachPending(); err != nil || n != 1 {
		t.Fatalf("attached %d: %v", n, err)
	}
	if root.Child(0) != removed {
		t.Error("recovered region not reinstalled")
	}

	r.Rebind(removed)
	if r.Recover(removed) {
		t.Error("recover should not override a reused record")
	}
}

func TestRegistry_SettleOutsideRoot(t *testing.T) {
	g := NewRegistry("a")
	g.Begin()
	g.Get(1).SetStub(tree.NewPage(1))
	g.Settle(tree.NewElement("outline", ""))
	if g.Get(1).Action() != ActionNone {
		t.Errorf("stub outside the tree should not be pending")
	}
}

func TestAction_Text(t *testing.T) {
	tests := map[Action]string{
		ActionNone:        "none",
		ActionPendingSwap: "pending_swap",
		ActionReused:      "reused",
		ActionRecovered:   "recovered",
		Action(42):        "unknown",
	}
	for a, want := range tests {
		b, err := a.MarshalText()
		if err != nil || string(b) != want {
			t.Errorf("%d: got %q, %v; want %q", int(a), b, err, want)
		}
	}
}

func TestRegistry_Summary(t *testing.T) {
	g := NewRegistry("a", "b", "c")
	pending(g)
	g.Get(3).Rebind(g.Get(3).Container)
	got := g.Summary()
	want := map[Action]int{ActionPendingSwap: 2, ActionReused: 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
}
