package session

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/dgallion1/outlinesync/internal/config"
	"github.com/dgallion1/outlinesync/internal/outline"
	"github.com/dgallion1/outlinesync/internal/pages"
	"github.com/dgallion1/outlinesync/internal/tree"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.WorkerCount = 2
	cfg.MaxQueueSize = 4
	return cfg
}

func startManager(t *testing.T, cfg config.Config) *Manager {
	t.Helper()
	m := NewManager(cfg, slog.New(slog.DiscardHandler))
	m.Start(context.Background())
	t.Cleanup(m.Stop)
	return m
}

func item(title string, page int, children ...*outline.Item) *outline.Item {
	it := &outline.Item{Title: title, Children: children}
	if page > 0 {
		it.Position = &outline.Position{Page: page}
	}
	return it
}

func TestManager_GenerationsReuseRegions(t *testing.T) {
	m := startManager(t, testConfig())
	sess := m.Create()
	ctx := context.Background()

	gen1 := &outline.Document{Title: "v1", Items: []*outline.Item{item("A", 1), item("B", 3)}, PageCount: 3}
	u, err := m.Apply(ctx, sess.ID, gen1)
	if err != nil {
		t.Fatalf("apply gen1: %v", err)
	}
	if u.Status != StatusCompleted || u.Generation != 1 {
		t.Fatalf("unexpected update %+v", u)
	}
	if !u.Result.FirstRender || u.Attached != 3 {
		t.Errorf("expected first render with 3 attaches, got first=%v attached=%d", u.Result.FirstRender, u.Attached)
	}

	updates, cancel, err := m.Subscribe(sess.ID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	gen2 := &outline.Document{Title: "v2", Items: []*outline.Item{item("A", 1)}, PageCount: 3}
	u, err = m.Apply(ctx, sess.ID, gen2)
	if err != nil {
		t.Fatalf("apply gen2: %v", err)
	}
	if u.Result.Reused != 3 || u.Result.Removed != 1 || u.Attached != 0 {
		t.Errorf("expected 3 reused, 1 removed, 0 attached; got %+v attached=%d", u.Result, u.Attached)
	}

	select {
	case got := <-updates:
		if got.Generation != 2 {
			t.Errorf("expected published generation 2, got %d", got.Generation)
		}
	case <-time.After(time.Second):
		t.Fatal("no update published")
	}

	snap := sess.Snapshot()
	if snap.Rendered != 3 {
		t.Errorf("expected 3 rendered regions in total, got %d", snap.Rendered)
	}
	for _, r := range snap.Records {
		if s, ok := r.Region.(Surface); !ok || s.Generation != 1 {
			t.Errorf("page %d: expected region from generation 1, got %#v", r.Page, r.Region)
		}
		if r.Action != pages.ActionReused || !r.Attached {
			t.Errorf("page %d: expected reused and attached, got %v attached=%v", r.Page, r.Action, r.Attached)
		}
	}
	want := []string{"item:A", "title:A", "page:1", "page:2", "page:3"}
	if diff := cmp.Diff(want, tree.Sequence(sess.root)); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestManager_UnchangedDocument(t *testing.T) {
	m := startManager(t, testConfig())
	sess := m.Create()
	doc := &outline.Document{Items: []*outline.Item{item("A", 1)}, PageCount: 1}

	if _, err := m.Apply(context.Background(), sess.ID, doc); err != nil {
		t.Fatal(err)
	}
	u, err := m.Apply(context.Background(), sess.ID, doc)
	if err != nil {
		t.Fatal(err)
	}
	if u.Status != StatusUnchanged || u.Generation != 1 {
		t.Errorf("expected unchanged at generation 1, got %+v", u)
	}
}

func TestManager_GrowAndShrinkPages(t *testing.T) {
	m := startManager(t, testConfig())
	sess := m.Create()
	ctx := context.Background()

	docs := []*outline.Document{
		{Items: []*outline.Item{item("A", 1)}, PageCount: 2},
		{Items: []*outline.Item{item("A", 1)}, PageCount: 4},
		{Items: []*outline.Item{item("A", 1)}, PageCount: 1},
	}
	var last Update
	for i, doc := range docs {
		u, err := m.Apply(ctx, sess.ID, doc)
		if err != nil {
			t.Fatalf("apply %d: %v", i, err)
		}
		if u.Status != StatusCompleted {
			t.Fatalf("apply %d: %+v", i, u)
		}
		last = u
	}
	if last.Result.Discarded != 3 {
		t.Errorf("expected 3 discarded regions after shrinking, got %d", last.Result.Discarded)
	}
	if got := tree.PageOrder(sess.root); !cmp.Equal(got, []int{1}) {
		t.Errorf("expected only page 1 left, got %v", got)
	}
	if snap := sess.Snapshot(); snap.Rendered != 4 {
		t.Errorf("expected 4 regions rendered over the session, got %d", snap.Rendered)
	}
}

func TestManager_AutoAttachDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.AutoAttach = false
	m := startManager(t, cfg)
	sess := m.Create()

	u, err := m.Apply(context.Background(), sess.ID, &outline.Document{PageCount: 2})
	if err != nil {
		t.Fatal(err)
	}
	if u.Attached != 0 || u.Result.Pending != 2 {
		t.Errorf("expected 2 pending and none attached, got %+v attached=%d", u.Result, u.Attached)
	}
	for _, r := range sess.Snapshot().Records {
		if r.Action != pages.ActionPendingSwap {
			t.Errorf("page %d: expected pending swap, got %v", r.Page, r.Action)
		}
	}
}

func TestManager_Errors(t *testing.T) {
	m := startManager(t, testConfig())
	if _, err := m.Apply(context.Background(), "missing", &outline.Document{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := m.Delete("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on delete, got %v", err)
	}

	sess := m.Create()
	updates, _, err := m.Subscribe(sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Delete(sess.ID); err != nil {
		t.Fatal(err)
	}
	if _, ok := <-updates; ok {
		t.Error("expected subscription closed on delete")
	}
}

func TestManager_QueueFull(t *testing.T) {
	cfg := testConfig()
	cfg.MaxQueueSize = 1
	m := NewManager(cfg, slog.New(slog.DiscardHandler)) // not started
	sess := m.Create()
	m.queue <- &job{sess: sess, doc: &outline.Document{}, done: make(chan Update, 1)}

	if _, err := m.Apply(context.Background(), sess.ID, &outline.Document{}); !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
}

func TestManager_ApplyAfterStop(t *testing.T) {
	m := NewManager(testConfig(), slog.New(slog.DiscardHandler))
	m.Start(context.Background())
	sess := m.Create()
	m.Stop()
	if _, err := m.Apply(context.Background(), sess.ID, &outline.Document{}); !errors.Is(err, ErrStopped) {
		t.Errorf("expected ErrStopped, got %v", err)
	}
}

func TestStore_Cleanup(t *testing.T) {
	s := NewStore(time.Minute)
	fresh := newSession()
	stale := newSession()
	stale.updatedAt = time.Now().Add(-time.Hour)
	s.Put(fresh)
	s.Put(stale)

	if n := s.Cleanup(); n != 1 {
		t.Fatalf("expected 1 eviction, got %d", n)
	}
	if s.Get(stale.ID) != nil || s.Get(fresh.ID) == nil {
		t.Error("wrong session evicted")
	}
}
