package redact

import (
	"slices"
	"sort"
)

// PendingSet maps page indexes to the ordered list of marks waiting to
// be applied. A page has an entry only while at least one mark is
// pending on it; the whole set is cleared wholesale on apply.
type PendingSet struct {
	pages map[int][]Mark
}

// NewPendingSet returns an empty pending set.
func NewPendingSet() *PendingSet {
	return &PendingSet{pages: make(map[int][]Mark)}
}

// Add appends a mark to its page's list, creating the page entry if needed.
func (ps *PendingSet) Add(m Mark) {
	ps.pages[m.Page] = append(ps.pages[m.Page], m)
}

// Remove deletes the mark with the given id. It returns the removed mark
// and true, or a zero mark and false if no mark has that id. Removing the
// last mark on a page removes the page entry as well.
func (ps *PendingSet) Remove(id string) (Mark, bool) {
	for page, marks := range ps.pages {
		for i, m := range marks {
			if m.ID != id {
				continue
			}
			marks = slices.Delete(marks, i, i+1)
			if len(marks) == 0 {
				delete(ps.pages, page)
			} else {
				ps.pages[page] = marks
			}
			return m, true
		}
	}
	return Mark{}, false
}

// Get returns the mark with the given id, if present.
func (ps *PendingSet) Get(id string) (Mark, bool) {
	for _, marks := range ps.pages {
		for _, m := range marks {
			if m.ID == id {
				return m, true
			}
		}
	}
	return Mark{}, false
}

// PageMarks returns the marks pending on a page, in insertion order.
// The returned slice must not be mutated.
func (ps *PendingSet) PageMarks(page int) []Mark {
	return ps.pages[page]
}

// All returns every pending mark ordered by page, insertion order within
// a page.
func (ps *PendingSet) All() []Mark {
	var all []Mark
	for _, page := range ps.Pages() {
		all = append(all, ps.pages[page]...)
	}
	return all
}

// Pages returns the sorted list of pages that have pending marks.
func (ps *PendingSet) Pages() []int {
	pages := make([]int, 0, len(ps.pages))
	for page := range ps.pages {
		pages = append(pages, page)
	}
	sort.Ints(pages)
	return pages
}

// Count returns the total number of pending marks.
func (ps *PendingSet) Count() int {
	n := 0
	for _, marks := range ps.pages {
		n += len(marks)
	}
	return n
}

// HasPending reports whether any mark is pending.
func (ps *PendingSet) HasPending() bool { return ps.Count() > 0 }

// ClearPage removes every mark on a page and returns how many were removed.
func (ps *PendingSet) ClearPage(page int) int {
	removed := len(ps.pages[page])
	delete(ps.pages, page)
	return removed
}

// ClearAll empties the set and returns how many marks were removed.
func (ps *PendingSet) ClearAll() int {
	removed := ps.Count()
	ps.pages = make(map[int][]Mark)
	return removed
}
