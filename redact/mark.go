// Package redact tracks pending redaction marks for an open PDF document.
// A mark is a rectangle in document point space designated for permanent
// content removal; marks stay pending until they are applied, which is
// irreversible.
package redact

import (
	"strings"

	"github.com/google/uuid"

	"github.com/devtamer/pdf-redactor-for-mac/geom"
)

// Origin records how a mark was created.
type Origin string

const (
	// OriginManual marks come from a drag selection or an explicit rect.
	OriginManual Origin = "manual"
	// OriginSearch marks come from a text search hit.
	OriginSearch Origin = "search"
)

// Mark is a single pending redaction area on a specific page.
// Immutable once created; it can only be removed from the pending set.
type Mark struct {
	ID   string    `json:"id"`
	Page int       `json:"page"` // zero-indexed
	Rect geom.Rect `json:"rect"` // document points, independent of zoom

	Origin Origin `json:"origin"`
	Term   string `json:"term,omitempty"` // search term for OriginSearch marks
}

// NewManualMark creates a mark for a hand-drawn rectangle.
func NewManualMark(page int, r geom.Rect) Mark {
	return Mark{
		ID:     newMarkID(),
		Page:   page,
		Rect:   r.Normalize(),
		Origin: OriginManual,
	}
}

// NewSearchMark creates a mark for a search hit on the given term.
func NewSearchMark(page int, r geom.Rect, term string) Mark {
	return Mark{
		ID:     newMarkID(),
		Page:   page,
		Rect:   r.Normalize(),
		Origin: OriginSearch,
		Term:   term,
	}
}

// Describe returns the short label shown in mark listings: the quoted
// search term for search marks, the corner coordinates otherwise.
func (m Mark) Describe() string {
	if m.Origin == OriginSearch && m.Term != "" {
		return `"` + m.Term + `"`
	}
	return m.Rect.String()
}

// newMarkID returns a short random identifier, 8 hex characters.
func newMarkID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
