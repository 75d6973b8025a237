// Package render turns PDF pages into display images. Rasterization is
// delegated to go-fitz (MuPDF); rendered pages are kept in a small LRU
// cache because the viewer re-requests the current page on every
// interaction.
package render

import (
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/gen2brain/go-fitz"
)

// DefaultDPI is the render resolution. 150 DPI is sharp enough for
// on-screen mark placement without ballooning image sizes.
const DefaultDPI = 150.0

// cacheLimit is how many rendered pages are kept in memory.
const cacheLimit = 5

// Renderer renders pages of one document.
type Renderer struct {
	doc   *fitz.Document
	dpi   float64
	cache *pageCache
}

// New opens the document at path for rendering at the given DPI
// (DefaultDPI if dpi is zero or negative).
func New(path string, dpi float64) (*Renderer, error) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open %s for rendering: %w", path, err)
	}
	return &Renderer{
		doc:   doc,
		dpi:   dpi,
		cache: newPageCache(cacheLimit),
	}, nil
}

// Page renders the zero-indexed page, serving repeated requests from
// the cache.
func (r *Renderer) Page(page int) (image.Image, error) {
	if img, ok := r.cache.get(page); ok {
		return img, nil
	}

	img, err := r.doc.ImageDPI(page, r.dpi)
	if err != nil {
		return nil, fmt.Errorf("unable to render page %d: %w", page+1, err)
	}

	r.cache.put(page, img)
	return img, nil
}

// Scale returns pixels per document point at the render DPI.
func (r *Renderer) Scale() float64 {
	return r.dpi / 72.0
}

// Invalidate drops one page from the cache.
func (r *Renderer) Invalidate(page int) {
	r.cache.remove(page)
}

// InvalidateAll drops every cached page. Called after apply, when all
// cached images may show content that no longer exists.
func (r *Renderer) InvalidateAll() {
	r.cache.clear()
}

// Close releases the underlying document.
func (r *Renderer) Close() error {
	return r.doc.Close()
}

// WritePNG encodes a rendered page as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}
