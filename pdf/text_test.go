package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run builds a glyph run the way pageLines does from reader output.
func run(s string, x, y, w, fontSize float64) glyphRun {
	return glyphRun{text: s, rect: glyphRect(x, y, w, fontSize), x: x, y: y}
}

func TestBuildLinesGroupsByBaseline(t *testing.T) {
	lines := buildLines([]glyphRun{
		run("world", 60, 700, 30, 12),
		run("Hello", 20, 700.5, 30, 12), // same line, baseline jitter
		run("second", 20, 680, 40, 12),
	})

	require.Len(t, lines, 2)
	assert.Equal(t, "Hello world", lines[0].Text)
	assert.Equal(t, "second", lines[1].Text)
}

func TestBuildLinesInsertsWordBreaks(t *testing.T) {
	// two runs with a visible gap between them
	lines := buildLines([]glyphRun{
		run("John", 20, 500, 25, 10),
		run("Doe", 55, 500, 20, 10), // gap of 10pt after "John"
	})

	require.Len(t, lines, 1)
	assert.Equal(t, "John Doe", lines[0].Text)
}

func TestBuildLinesKeepsExistingSpaces(t *testing.T) {
	lines := buildLines([]glyphRun{
		run("John ", 20, 500, 28, 10),
		run("Doe", 55, 500, 20, 10),
	})

	require.Len(t, lines, 1)
	assert.Equal(t, "John Doe", lines[0].Text)
}

func TestMatchRectsCoversHit(t *testing.T) {
	lines := buildLines([]glyphRun{
		run("Account: ", 20, 500, 50, 10),
		run("12345", 72, 500, 30, 10),
	})
	require.Len(t, lines, 1)

	rects := lines[0].matchRects("account: 12345")
	require.Len(t, rects, 1)

	r := rects[0]
	// the match spans both runs
	assert.InDelta(t, 20, r.X0, 0.01)
	assert.InDelta(t, 102, r.X1, 0.01)
	assert.Less(t, r.Y0, 500.0)
	assert.Greater(t, r.Y1, 500.0)
}

func TestMatchRectsMultipleHits(t *testing.T) {
	lines := buildLines([]glyphRun{
		run("foo bar foo", 0, 100, 66, 10),
	})
	require.Len(t, lines, 1)

	rects := lines[0].matchRects("foo")
	assert.Len(t, rects, 2)
}

func TestMatchRectsNoHit(t *testing.T) {
	lines := buildLines([]glyphRun{run("nothing here", 0, 100, 60, 10)})

	assert.Empty(t, lines[0].matchRects("absent"))
	assert.Empty(t, lines[0].matchRects(""))
}
