package outline

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecode(t *testing.T) {
	doc, err := Decode(strings.NewReader(`{
		"title": "Guide",
		"page_count": 4,
		"items": [
			{"title": "Intro", "position": {"page_no": 1, "x": 0, "y": 12.5}},
			{"title": "Body", "position": {"page_no": 2}, "children": [
				{"title": "Detail"}
			]}
		]
	}`))
	if err != nil {
		t.Fatal(err)
	}
	if doc.Title != "Guide" || doc.PageCount != 4 || len(doc.Items) != 2 {
		t.Fatalf("unexpected document %+v", doc)
	}
	if p := doc.Items[0].Position; p == nil || p.Page != 1 || p.Y != 12.5 {
		t.Errorf("unexpected position %+v", p)
	}
	if got := doc.Items[1].Children[0].PageIndex(); got != 0 {
		t.Errorf("PageIndex without position = %d", got)
	}
}

func TestDecode_Errors(t *testing.T) {
	for _, in := range []string{`{`, `{"page_count": -1}`, `{"items": 3}`} {
		if _, err := Decode(strings.NewReader(in)); err == nil {
			t.Errorf("Decode(%s): expected error", in)
		}
	}
}

func forest() []*Item {
	return []*Item{
		{Title: "A", Position: &Position{Page: 2}, Children: []*Item{
			{Title: "A1", Position: &Position{Page: 3}},
			{Title: "A2", Position: &Position{Page: 1}},
		}},
		nil,
		{Title: "B"},
		{Title: "C", Position: &Position{Page: 3}},
	}
}

func TestWalk(t *testing.T) {
	var got []string
	Walk(forest(), func(it *Item, level int) bool {
		got = append(got, strings.Repeat(">", level)+it.Title)
		return true
	})
	want := []string{">A", ">>A1", ">>A2", ">B", ">C"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("walk mismatch (-want +got):\n%s", diff)
	}

	got = nil
	Walk(forest(), func(it *Item, _ int) bool {
		got = append(got, it.Title)
		return it.Title != "A1"
	})
	if diff := cmp.Diff([]string{"A", "A1"}, got); diff != "" {
		t.Errorf("early stop mismatch (-want +got):\n%s", diff)
	}
}

func TestRegressions(t *testing.T) {
	want := []Regression{{Title: "A2", Page: 1, Previous: 3}}
	if diff := cmp.Diff(want, Regressions(forest())); diff != "" {
		t.Errorf("regressions mismatch (-want +got):\n%s", diff)
	}
	if got := Regressions(nil); got != nil {
		t.Errorf("expected no regressions, got %v", got)
	}
}

func TestCount(t *testing.T) {
	if got := Count(forest()); got != 5 {
		t.Errorf("Count = %d, want 5", got)
	}
}

func TestStack(t *testing.T) {
	var s Stack
	for _, h := range []struct {
		title string
		level int
	}{
		{"One", 1}, {"One.A", 2}, {"One.A.i", 3}, {"One.B", 2}, {"Two", 1}, {"Deep", 3}, {"Three", 1},
	} {
		s.Push(&Item{Title: h.title}, h.level)
	}

	var got []string
	Walk(s.Items(), func(it *Item, level int) bool {
		got = append(got, strings.Repeat(">", level)+it.Title)
		return true
	})
	want := []string{">One", ">>One.A", ">>>One.A.i", ">>One.B", ">Two", ">>Deep", ">Three"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("stack mismatch (-want +got):\n%s", diff)
	}
}
