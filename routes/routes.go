// Package routes holds the HTTP handlers for the browser-based
// redaction viewer. All document state lives in a single App guarded by
// one mutex: the viewer is a single-user local tool and every mutation
// goes through the same session.
package routes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/devtamer/pdf-redactor-for-mac/geom"
	"github.com/devtamer/pdf-redactor-for-mac/pdf"
	"github.com/devtamer/pdf-redactor-for-mac/redact"
	"github.com/devtamer/pdf-redactor-for-mac/render"
	"github.com/devtamer/pdf-redactor-for-mac/store"
)

// minRectPx is the smallest drag selection accepted, in device pixels.
// Anything smaller is treated as an accidental click.
const minRectPx = 5.0

// App is the viewer's shared state: one open document, its renderer,
// and the persistent session.
type App struct {
	mu sync.Mutex

	doc      *pdf.Document
	renderer *render.Renderer
	store    *store.Store
	session  *redact.Session
	tmpl     *template.Template

	dpi            float64
	maxConcurrency int
}

// NewApp wires the viewer around an already opened document and session.
func NewApp(doc *pdf.Document, renderer *render.Renderer, st *store.Store,
	sess *redact.Session, tmpl *template.Template, dpi float64, maxConcurrency int) *App {
	return &App{
		doc:            doc,
		renderer:       renderer,
		store:          st,
		session:        sess,
		tmpl:           tmpl,
		dpi:            dpi,
		maxConcurrency: maxConcurrency,
	}
}

// Close releases the document, renderer and session store.
func (a *App) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.doc != nil {
		a.doc.Close()
	}
	if a.renderer != nil {
		a.renderer.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"message": err.Error()})
}

// Home renders the viewer page.
func (a *App) Home(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	err := a.tmpl.ExecuteTemplate(w, "index.html", map[string]any{
		"Title":     filepath.Base(a.session.Path),
		"PageCount": a.doc.PageCount(),
		"Applied":   a.session.Applied,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// PageImage serves one rendered page as PNG.
func (a *App) PageImage(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.PathValue("page"))
	if err != nil || page < 0 {
		http.Error(w, "Invalid page number", http.StatusBadRequest)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if page >= a.doc.PageCount() {
		http.Error(w, "Page out of range", http.StatusNotFound)
		return
	}

	img, err := a.renderer.Page(page)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if err := render.WritePNG(w, img); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// markView is the wire shape of one mark: the stored point rect plus
// the pixel rect at the current render scale so the overlay can draw
// it without doing its own coordinate math.
type markView struct {
	redact.Mark
	Pixels [4]float64 `json:"pixels"` // x0, y0, x1, y1, top-left origin
}

type documentView struct {
	Name      string     `json:"name"`
	PageCount int        `json:"pageCount"`
	Page      int        `json:"page"`
	Scale     float64    `json:"scale"`
	Applied   bool       `json:"applied"`
	Marks     []markView `json:"marks"`
}

// DocumentState reports the session: file, pages and every pending mark.
func (a *App) DocumentState(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	view, err := a.buildView()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// buildView assembles the document state. Caller holds the lock.
func (a *App) buildView() (documentView, error) {
	view := documentView{
		Name:      filepath.Base(a.session.Path),
		PageCount: a.doc.PageCount(),
		Page:      a.session.CurrentPage,
		Scale:     a.renderer.Scale(),
		Applied:   a.session.Applied,
		Marks:     []markView{},
	}

	for _, m := range a.session.Pending.All() {
		_, h, err := a.doc.PageSize(m.Page)
		if err != nil {
			return documentView{}, err
		}
		mapper := geom.NewMapper(h, a.dpi, 1)
		px0, py0, px1, py1 := mapper.RectToPixels(m.Rect)
		view.Marks = append(view.Marks, markView{
			Mark:   m,
			Pixels: [4]float64{px0, py0, px1, py1},
		})
	}
	return view, nil
}

type addMarkRequest struct {
	Page int     `json:"page"`
	X0   float64 `json:"x0"` // device pixels, top-left origin
	Y0   float64 `json:"y0"`
	X1   float64 `json:"x1"`
	Y1   float64 `json:"y1"`
}

// AddMark turns a drag selection (pixels on the rendered page) into a
// pending mark stored in document points.
func (a *App) AddMark(w http.ResponseWriter, r *http.Request) {
	var req addMarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.session.Applied {
		writeError(w, http.StatusBadRequest, fmt.Errorf("redactions already applied"))
		return
	}
	if req.Page < 0 || req.Page >= a.doc.PageCount() {
		writeError(w, http.StatusBadRequest, fmt.Errorf("page %d out of range", req.Page))
		return
	}

	w0, w1 := req.X1-req.X0, req.Y1-req.Y0
	if w0 < 0 {
		w0 = -w0
	}
	if w1 < 0 {
		w1 = -w1
	}
	if w0 < minRectPx || w1 < minRectPx {
		writeError(w, http.StatusBadRequest, fmt.Errorf("selection too small to redact"))
		return
	}

	_, h, err := a.doc.PageSize(req.Page)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	mapper := geom.NewMapper(h, a.dpi, 1)
	rect := mapper.RectToPoints(req.X0, req.Y0, req.X1, req.Y1)

	m := redact.NewManualMark(req.Page, rect)
	a.session.Pending.Add(m)
	a.session.CurrentPage = req.Page

	if err := a.persist(); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// RemoveMark deletes one pending mark by id.
func (a *App) RemoveMark(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	a.mu.Lock()
	defer a.mu.Unlock()

	m, ok := a.session.Pending.Remove(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("no mark with id %s", id))
		return
	}

	if err := a.persist(); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

type clearRequest struct {
	// Page to clear, zero-indexed; -1 clears every page.
	Page int `json:"page"`
}

// Clear removes pending marks on one page or everywhere.
func (a *App) Clear(w http.ResponseWriter, r *http.Request) {
	// An empty body means clear everything; a malformed one is
	// rejected rather than treated as clear-all.
	req := clearRequest{Page: -1}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	var removed int
	if req.Page >= 0 {
		removed = a.session.Pending.ClearPage(req.Page)
	} else {
		removed = a.session.Pending.ClearAll()
	}

	if err := a.persist(); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

type searchRequest struct {
	Term string `json:"term"`
	Add  bool   `json:"add"`
}

// Search finds a term in the document and, when requested, adds a
// pending mark for every hit.
func (a *App) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	req.Term = strings.TrimSpace(req.Term)

	a.mu.Lock()
	defer a.mu.Unlock()

	if req.Add && a.session.Applied {
		writeError(w, http.StatusBadRequest, fmt.Errorf("redactions already applied"))
		return
	}

	matches, err := a.doc.Search(r.Context(), req.Term, a.maxConcurrency)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	added := 0
	if req.Add {
		for page, rects := range matches {
			for _, rect := range rects {
				a.session.Pending.Add(redact.NewSearchMark(page, rect, req.Term))
				added++
			}
		}
		if err := a.persist(); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"term":    req.Term,
		"matches": matches.Total(),
		"added":   added,
	})
}

// Apply permanently redacts every pending mark and writes the result
// next to the original as <name>_redacted.pdf. The viewer switches to
// the redacted copy; the original file is never modified.
func (a *App) Apply(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// One-shot: the session store is discarded on success, so a second
	// apply has nothing to work with.
	if a.session.Applied {
		writeError(w, http.StatusBadRequest, fmt.Errorf("redactions already applied"))
		return
	}
	if !a.session.Pending.HasPending() {
		writeError(w, http.StatusBadRequest, fmt.Errorf("no pending marks to apply"))
		return
	}

	applied, err := a.doc.Apply(a.session.Pending.All())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	out := strings.TrimSuffix(a.session.Path, ".pdf") + "_redacted.pdf"
	if err := a.doc.Save(out); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	a.session.MarkApplied()
	if err := a.store.Discard(); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	a.store = nil

	// Show the redacted copy from here on. Every cached image may
	// still contain removed content, so both document and renderer are
	// reopened on the output file.
	if err := a.reopen(out); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"applied": applied,
		"output":  out,
	})
}

// reopen swaps the viewer onto a new file. Caller holds the lock.
func (a *App) reopen(path string) error {
	a.doc.Close()
	a.renderer.InvalidateAll()
	a.renderer.Close()

	doc, err := pdf.Open(path)
	if err != nil {
		return err
	}
	renderer, err := render.New(path, a.dpi)
	if err != nil {
		doc.Close()
		return err
	}

	a.doc = doc
	a.renderer = renderer
	a.session.Path = path
	a.session.PageCount = doc.PageCount()
	return nil
}

// persist saves the session, skipping the write once the session store
// has been discarded after apply. Caller holds the lock.
func (a *App) persist() error {
	if a.store == nil {
		return nil
	}
	return a.store.SaveSession(context.Background(), a.session)
}
