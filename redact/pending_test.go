package redact

import (
	"testing"

	"github.com/devtamer/pdf-redactor-for-mac/geom"
)

func rect(x0, y0, x1, y1 float64) geom.Rect {
	return geom.Rect{X0: x0, Y0: y0, X1: x1, Y1: y1}
}

func TestAddRemoveCounts(t *testing.T) {
	ps := NewPendingSet()
	if ps.HasPending() {
		t.Fatal("new set should be empty")
	}

	a := NewManualMark(0, rect(10, 10, 50, 30))
	b := NewManualMark(0, rect(60, 60, 90, 80))
	c := NewSearchMark(2, rect(5, 5, 40, 15), "secret")
	ps.Add(a)
	ps.Add(b)
	ps.Add(c)

	if got := ps.Count(); got != 3 {
		t.Errorf("Count() = %d, want 3", got)
	}
	if got := len(ps.PageMarks(0)); got != 2 {
		t.Errorf("PageMarks(0) = %d marks, want 2", got)
	}
	if got := ps.Pages(); len(got) != 2 || got[0] != 0 || got[1] != 2 {
		t.Errorf("Pages() = %v, want [0 2]", got)
	}

	removed, ok := ps.Remove(a.ID)
	if !ok || removed.ID != a.ID {
		t.Fatalf("Remove(%s) = %v, %v", a.ID, removed, ok)
	}
	if got := ps.Count(); got != 2 {
		t.Errorf("Count() after remove = %d, want 2", got)
	}

	if _, ok := ps.Remove("nope"); ok {
		t.Error("Remove of unknown id should report false")
	}
}

func TestRemoveLastMarkRemovesPageEntry(t *testing.T) {
	ps := NewPendingSet()
	m := NewManualMark(4, rect(0, 0, 10, 10))
	ps.Add(m)

	ps.Remove(m.ID)
	if pages := ps.Pages(); len(pages) != 0 {
		t.Errorf("Pages() = %v, want empty after removing last mark", pages)
	}
}

func TestAllOrderedByPage(t *testing.T) {
	ps := NewPendingSet()
	ps.Add(NewManualMark(3, rect(0, 0, 1, 1)))
	ps.Add(NewManualMark(0, rect(0, 0, 1, 1)))
	ps.Add(NewManualMark(3, rect(2, 2, 3, 3)))
	ps.Add(NewManualMark(1, rect(0, 0, 1, 1)))

	all := ps.All()
	if len(all) != 4 {
		t.Fatalf("All() = %d marks, want 4", len(all))
	}
	wantPages := []int{0, 1, 3, 3}
	for i, m := range all {
		if m.Page != wantPages[i] {
			t.Errorf("All()[%d].Page = %d, want %d", i, m.Page, wantPages[i])
		}
	}
}

func TestClear(t *testing.T) {
	ps := NewPendingSet()
	ps.Add(NewManualMark(0, rect(0, 0, 1, 1)))
	ps.Add(NewManualMark(0, rect(2, 2, 3, 3)))
	ps.Add(NewManualMark(1, rect(0, 0, 1, 1)))

	if got := ps.ClearPage(0); got != 2 {
		t.Errorf("ClearPage(0) = %d, want 2", got)
	}
	if got := ps.ClearPage(7); got != 0 {
		t.Errorf("ClearPage(7) = %d, want 0", got)
	}
	if got := ps.ClearAll(); got != 1 {
		t.Errorf("ClearAll() = %d, want 1", got)
	}
	if ps.HasPending() {
		t.Error("set should be empty after ClearAll")
	}
}

func TestSessionApplyEmptiesPending(t *testing.T) {
	s := NewSession("doc.pdf", 10)
	s.Pending.Add(NewManualMark(0, rect(0, 0, 10, 10)))
	s.Pending.Add(NewSearchMark(5, rect(0, 0, 10, 10), "name"))

	n := s.MarkApplied()
	if n != 2 {
		t.Errorf("MarkApplied() = %d, want 2", n)
	}
	if s.Pending.HasPending() {
		t.Error("pending set should be empty after apply")
	}
	if !s.Applied {
		t.Error("session should be flagged applied")
	}
}

func TestSessionSetPage(t *testing.T) {
	s := NewSession("doc.pdf", 3)
	if err := s.SetPage(2); err != nil {
		t.Errorf("SetPage(2) = %v", err)
	}
	if err := s.SetPage(3); err == nil {
		t.Error("SetPage(3) should fail for a 3 page document")
	}
	if err := s.SetPage(-1); err == nil {
		t.Error("SetPage(-1) should fail")
	}
}

func TestMarkDescribe(t *testing.T) {
	m := NewSearchMark(0, rect(0, 0, 10, 10), "john doe")
	if got := m.Describe(); got != `"john doe"` {
		t.Errorf("Describe() = %q", got)
	}

	m = NewManualMark(0, rect(10, 20, 110, 40))
	if got := m.Describe(); got != "(10,20)-(110,40)" {
		t.Errorf("Describe() = %q", got)
	}

	if len(m.ID) != 8 {
		t.Errorf("mark id %q should be 8 chars", m.ID)
	}
}
