package pdf

import (
	"errors"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/devtamer/pdf-redactor-for-mac/geom"
	"github.com/devtamer/pdf-redactor-for-mac/redact"
)

// Apply permanently removes the content beneath every given mark and
// paints an opaque black box over each marked area. The operation is
// irreversible on this Document; the file on disk is untouched until
// Save. Returns the number of marks applied.
func (d *Document) Apply(marks []redact.Mark) (int, error) {
	if len(marks) == 0 {
		return 0, errors.New("no marks to apply")
	}

	byPage := make(map[int][]geom.Rect)
	for _, m := range marks {
		byPage[m.Page] = append(byPage[m.Page], m.Rect)
	}

	applied := 0
	for page, rects := range byPage {
		if page < 0 || page >= d.PageCount() {
			return applied, fmt.Errorf("mark on page %d out of range", page+1)
		}
		if err := d.redactPage(page, rects); err != nil {
			return applied, fmt.Errorf("page %d: %w", page+1, err)
		}
		applied += len(rects)
	}
	return applied, nil
}

// redactPage scrubs one page's content streams and appends the cover
// boxes. All content streams of the page are merged into a single
// replacement stream.
func (d *Document) redactPage(page int, rects []geom.Rect) error {
	pageDict, _, _, err := d.ctx.PageDict(page+1, false)
	if err != nil {
		return fmt.Errorf("unable to get page dictionary: %w", err)
	}

	content, sd, err := d.pageContent(pageDict)
	if err != nil {
		return err
	}

	scrubbed, _ := scrubContent(content, rects)

	var out []byte
	// Balance any state the original content leaves open before
	// painting the cover boxes.
	out = append(out, 'q', '\n')
	out = append(out, scrubbed...)
	out = append(out, '\n', 'Q', '\n')
	out = append(out, coverBoxOps(rects)...)

	sd.Content = out
	if err := sd.Encode(); err != nil {
		return fmt.Errorf("unable to encode content stream: %w", err)
	}

	ref, err := d.ctx.IndRefForNewObject(*sd)
	if err != nil {
		return fmt.Errorf("unable to allocate content stream object: %w", err)
	}
	pageDict.Update("Contents", *ref)
	return nil
}

// pageContent returns the decoded, concatenated content of the page and
// a stream dict to reuse for the replacement stream.
func (d *Document) pageContent(pageDict types.Dict) ([]byte, *types.StreamDict, error) {
	obj, found := pageDict.Find("Contents")
	if !found {
		return nil, nil, errors.New("page has no content stream")
	}

	deref, err := d.ctx.Dereference(obj)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to dereference contents: %w", err)
	}

	var refs []types.Object
	if arr, ok := deref.(types.Array); ok {
		refs = arr
	} else {
		refs = types.Array{obj}
	}

	var content []byte
	var first *types.StreamDict
	for _, r := range refs {
		sd, _, err := d.ctx.DereferenceStreamDict(r)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to dereference content stream: %w", err)
		}
		if err := sd.Decode(); err != nil {
			return nil, nil, fmt.Errorf("unable to decode content stream: %w", err)
		}
		content = append(content, sd.Content...)
		content = append(content, '\n')
		if first == nil {
			first = sd
		}
	}
	if first == nil {
		return nil, nil, errors.New("page content is empty")
	}
	return content, first, nil
}

// coverBoxOps paints an opaque black rectangle over every mark.
func coverBoxOps(rects []geom.Rect) []byte {
	var b []byte
	b = append(b, []byte("q\n0 0 0 rg\n")...)
	for _, r := range rects {
		r = r.Normalize()
		b = append(b, []byte(fmt.Sprintf("%.2f %.2f %.2f %.2f re\nf\n",
			r.X0, r.Y0, r.Width(), r.Height()))...)
	}
	b = append(b, []byte("Q\n")...)
	return b
}

// Save scrubs document metadata and writes a compacted copy of the
// document to path. Combined with Apply this is the point of no return:
// the output file contains no trace of the redacted content.
func (d *Document) Save(path string) error {
	// Drop the Info dictionary and XML metadata; redacted documents
	// should not leak titles, authors or editing history.
	d.ctx.Info = nil
	if rootDict, err := d.ctx.Catalog(); err == nil {
		delete(rootDict, "Metadata")
	}

	if err := api.WriteContextFile(d.ctx, path); err != nil {
		return fmt.Errorf("unable to write %s: %w", path, err)
	}

	// Rewrite once more with the optimizer so unreferenced objects
	// (the original content streams among them) are garbage collected.
	if err := api.OptimizeFile(path, path, d.conf); err != nil {
		return fmt.Errorf("unable to compact %s: %w", path, err)
	}
	return nil
}
