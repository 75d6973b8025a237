// Package pdf wraps the external PDF engine capabilities the redactor
// needs: opening and validating documents, positioned text for search,
// and the irreversible apply/save pipeline. Parsing, object model and
// file writing are delegated to pdfcpu; positioned text extraction to
// ledongthuc/pdf.
package pdf

import (
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Document is an open PDF file. It holds the pdfcpu context used for
// page access and mutation, and a text reader for positioned glyphs.
type Document struct {
	Path string

	ctx    *model.Context
	conf   *model.Configuration
	dims   []types.Dim
	file   *os.File
	reader *pdf.Reader
}

// Open validates and opens the PDF at path.
func Open(path string) (*Document, error) {
	conf := model.NewDefaultConfiguration()

	if err := api.ValidateFile(path, conf); err != nil {
		return nil, fmt.Errorf("invalid PDF file %s: %w", path, err)
	}

	ctx, err := api.ReadContextFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", path, err)
	}

	dims, err := ctx.PageDims()
	if err != nil {
		return nil, fmt.Errorf("unable to read page dimensions: %w", err)
	}

	file, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open %s for text extraction: %w", path, err)
	}

	return &Document{
		Path:   path,
		ctx:    ctx,
		conf:   conf,
		dims:   dims,
		file:   file,
		reader: reader,
	}, nil
}

// PageCount returns the number of pages in the document.
func (d *Document) PageCount() int {
	return d.ctx.PageCount
}

// PageSize returns the media box width and height in points for the
// zero-indexed page.
func (d *Document) PageSize(page int) (w, h float64, err error) {
	if page < 0 || page >= len(d.dims) {
		return 0, 0, fmt.Errorf("page %d out of range 0-%d", page, len(d.dims)-1)
	}
	dim := d.dims[page]
	return dim.Width, dim.Height, nil
}

// Close releases the underlying file handle.
func (d *Document) Close() error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}
