package pdf

import (
	"context"
	"errors"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/devtamer/pdf-redactor-for-mac/geom"
)

// Matches maps a zero-indexed page to the rectangles covering each hit
// on that page, in reading order.
type Matches map[int][]geom.Rect

// Total returns the number of hit rectangles across all pages.
func (m Matches) Total() int {
	n := 0
	for _, rects := range m {
		n += len(rects)
	}
	return n
}

// Search scans every page for the term, case-insensitive, and returns
// the hit rectangles in document points. Pages are processed
// concurrently, bounded by maxConcurrency. No matches is not an error.
func (d *Document) Search(ctx context.Context, term string, maxConcurrency int) (Matches, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, errors.New("search term is empty")
	}
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}

	var mu sync.Mutex
	matches := make(Matches)

	semaphore := make(chan struct{}, maxConcurrency)
	g, ctx := errgroup.WithContext(ctx)

	for page := 0; page < d.PageCount(); page++ {
		page := page

		// Acquire a slot from the semaphore
		semaphore <- struct{}{}

		g.Go(func() error {
			defer func() { <-semaphore }()

			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			lines, err := d.pageLines(page)
			if err != nil {
				return err
			}

			var rects []geom.Rect
			for _, line := range lines {
				rects = append(rects, line.matchRects(term)...)
			}
			if len(rects) > 0 {
				mu.Lock()
				matches[page] = rects
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return matches, nil
}
