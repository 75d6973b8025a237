package redact

import "fmt"

// Session is the redaction state for one open document: an opaque
// reference to the file on disk, the page the viewer is looking at, the
// pending marks, and whether redactions have been applied in-process.
type Session struct {
	Path        string
	PageCount   int
	CurrentPage int
	Pending     *PendingSet
	Applied     bool
}

// NewSession starts a fresh session for the document at path.
func NewSession(path string, pageCount int) *Session {
	return &Session{
		Path:      path,
		PageCount: pageCount,
		Pending:   NewPendingSet(),
	}
}

// SetPage moves the current page, clamping is the caller's job.
func (s *Session) SetPage(page int) error {
	if page < 0 || page >= s.PageCount {
		return fmt.Errorf("page %d out of range 0-%d", page, s.PageCount-1)
	}
	s.CurrentPage = page
	return nil
}

// MarkApplied transitions all pending marks to the permanent state:
// the pending set is emptied and the session flagged as applied.
// There is no way back.
func (s *Session) MarkApplied() int {
	n := s.Pending.ClearAll()
	s.Applied = true
	return n
}

// Close resets the session to the no-document state.
func (s *Session) Close() {
	s.Path = ""
	s.PageCount = 0
	s.CurrentPage = 0
	s.Pending = NewPendingSet()
	s.Applied = false
}
