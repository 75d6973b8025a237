package pdf

import (
	"fmt"
	"sort"
	"strings"

	"github.com/devtamer/pdf-redactor-for-mac/geom"
)

// lineYTolerance is how far apart two glyph baselines may be (in points)
// while still counting as the same text line.
const lineYTolerance = 2.0

// glyphSpan ties a byte range of a line's text to the rectangle the
// glyph run covers on the page.
type glyphSpan struct {
	start, end int // byte offsets into Line.Text
	rect       geom.Rect
}

// Line is one reconstructed text line with per-run geometry.
type Line struct {
	Text  string
	spans []glyphSpan
}

// pageLines reconstructs the text lines of a zero-indexed page from the
// positioned glyph runs the text reader delivers. Runs are grouped by
// baseline, ordered left to right, and joined with synthetic spaces
// where the horizontal gap indicates a word break.
func (d *Document) pageLines(page int) ([]Line, error) {
	p := d.reader.Page(page + 1)
	if p.V.IsNull() {
		return nil, nil
	}

	runs := p.Content().Text
	if len(runs) == 0 {
		return nil, nil
	}

	glyphs := make([]glyphRun, 0, len(runs))
	for _, t := range runs {
		if t.S == "" {
			continue
		}
		glyphs = append(glyphs, glyphRun{
			text: t.S,
			rect: glyphRect(t.X, t.Y, t.W, t.FontSize),
			x:    t.X,
			y:    t.Y,
		})
	}
	return buildLines(glyphs), nil
}

// buildLines groups glyph runs into text lines: top of page first,
// reading order within a line.
func buildLines(glyphs []glyphRun) []Line {
	sort.Slice(glyphs, func(i, j int) bool {
		if glyphs[i].y != glyphs[j].y {
			return glyphs[i].y > glyphs[j].y
		}
		return glyphs[i].x < glyphs[j].x
	})

	var lines []Line
	var cur *lineBuilder
	for _, run := range glyphs {
		if cur == nil || cur.y-run.y > lineYTolerance {
			if cur != nil {
				lines = append(lines, cur.finish())
			}
			cur = newLineBuilder(run.y)
		}
		cur.add(run)
	}
	if cur != nil {
		lines = append(lines, cur.finish())
	}
	return lines
}

type glyphRun struct {
	text string
	rect geom.Rect
	x, y float64
}

// glyphRect approximates the box a glyph run covers: the run's advance
// width, with ascent and descent derived from the font size.
func glyphRect(x, y, w, fontSize float64) geom.Rect {
	if fontSize <= 0 {
		fontSize = 10
	}
	return geom.Rect{
		X0: x,
		Y0: y - 0.22*fontSize,
		X1: x + w,
		Y1: y + 0.78*fontSize,
	}
}

type lineBuilder struct {
	y     float64
	text  strings.Builder
	spans []glyphSpan
	endX  float64
}

func newLineBuilder(y float64) *lineBuilder {
	return &lineBuilder{y: y, endX: -1}
}

func (b *lineBuilder) add(run glyphRun) {
	// Word break: noticeable horizontal gap between runs.
	if b.endX >= 0 && run.x-b.endX > 1.0 &&
		!strings.HasSuffix(b.text.String(), " ") && !strings.HasPrefix(run.text, " ") {
		b.text.WriteByte(' ')
	}
	start := b.text.Len()
	b.text.WriteString(run.text)
	b.spans = append(b.spans, glyphSpan{start: start, end: b.text.Len(), rect: run.rect})
	b.endX = run.rect.X1
}

func (b *lineBuilder) finish() Line {
	return Line{Text: b.text.String(), spans: b.spans}
}

// matchRects returns one rectangle per occurrence of term in the line,
// case-insensitive, each covering the glyph runs the match touches.
func (l Line) matchRects(term string) []geom.Rect {
	if term == "" {
		return nil
	}
	haystack := strings.ToLower(l.Text)
	needle := strings.ToLower(term)

	var rects []geom.Rect
	for from := 0; ; {
		i := strings.Index(haystack[from:], needle)
		if i < 0 {
			break
		}
		a := from + i
		b := a + len(needle)
		if r, ok := l.coverage(a, b); ok {
			rects = append(rects, r)
		}
		from = b
	}
	return rects
}

// coverage unions the rectangles of all spans overlapping [a,b).
func (l Line) coverage(a, b int) (geom.Rect, bool) {
	var r geom.Rect
	found := false
	for _, s := range l.spans {
		if s.end <= a || s.start >= b {
			continue
		}
		if !found {
			r = s.rect
			found = true
		} else {
			r = r.Union(s.rect)
		}
	}
	return r, found
}

// PageText returns the plain text of a zero-indexed page, one
// reconstructed line per row. Used by the info command.
func (d *Document) PageText(page int) (string, error) {
	lines, err := d.pageLines(page)
	if err != nil {
		return "", fmt.Errorf("page %d: %w", page+1, err)
	}
	var sb strings.Builder
	for i, l := range lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(l.Text)
	}
	return sb.String(), nil
}
