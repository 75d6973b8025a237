// Package cli wires the command line subcommands to the redaction
// engine. Every command is a separate invocation; pending marks are
// carried between runs in the document's session database.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/devtamer/pdf-redactor-for-mac/geom"
	"github.com/devtamer/pdf-redactor-for-mac/pdf"
	"github.com/devtamer/pdf-redactor-for-mac/redact"
	"github.com/devtamer/pdf-redactor-for-mac/render"
	"github.com/devtamer/pdf-redactor-for-mac/store"
)

// minRectPt rejects accidental degenerate rectangles: 5 pixels at the
// default render resolution, expressed in points.
const minRectPt = 5 * 72.0 / render.DefaultDPI

// loadSession opens the document's session database and restores the
// session, creating a fresh one when none is stored yet.
func loadSession(doc *pdf.Document) (*store.Store, *redact.Session, error) {
	st, err := store.Open(store.SessionPath(doc.Path))
	if err != nil {
		return nil, nil, err
	}

	sess, err := st.LoadSession(context.Background())
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	if sess == nil {
		sess = redact.NewSession(doc.Path, doc.PageCount())
	}
	return st, sess, nil
}

// pageIndex converts the 1-based page flag into a validated zero-based
// index.
func pageIndex(config *Config, pageCount int) (int, error) {
	if config.Page < 1 || config.Page > pageCount {
		return 0, fmt.Errorf("page %d out of range 1-%d", config.Page, pageCount)
	}
	return config.Page - 1, nil
}

func runInfo(config *Config) error {
	doc, err := pdf.Open(config.File)
	if err != nil {
		return err
	}
	defer doc.Close()

	fmt.Printf("%s: %d pages\n", config.File, doc.PageCount())
	for page := 0; page < doc.PageCount(); page++ {
		w, h, err := doc.PageSize(page)
		if err != nil {
			return err
		}
		fmt.Printf("  page %d: %.0f x %.0f pt\n", page+1, w, h)
	}

	// Only report pending marks if a session already exists; info must
	// not create one.
	if _, err := os.Stat(store.SessionPath(config.File)); err != nil {
		fmt.Println("no pending marks")
		return nil
	}

	st, sess, err := loadSession(doc)
	if err != nil {
		return err
	}
	defer st.Close()

	fmt.Printf("%d pending mark(s) on %d page(s)\n",
		sess.Pending.Count(), len(sess.Pending.Pages()))
	return nil
}

func runMark(config *Config) error {
	rect, err := parseRect(config.RectSpec)
	if err != nil {
		return err
	}
	if rect.Width() < minRectPt || rect.Height() < minRectPt {
		return fmt.Errorf("rectangle %s is too small to redact", rect)
	}

	doc, err := pdf.Open(config.File)
	if err != nil {
		return err
	}
	defer doc.Close()

	page, err := pageIndex(config, doc.PageCount())
	if err != nil {
		return err
	}

	st, sess, err := loadSession(doc)
	if err != nil {
		return err
	}
	defer st.Close()

	m := redact.NewManualMark(page, rect)
	sess.Pending.Add(m)
	if err := st.SaveSession(context.Background(), sess); err != nil {
		return err
	}

	fmt.Printf("marked %s on page %d (id %s)\n", m.Rect, page+1, m.ID)
	return nil
}

func runSearch(config *Config) error {
	doc, err := pdf.Open(config.File)
	if err != nil {
		return err
	}
	defer doc.Close()

	matches, err := doc.Search(context.Background(), config.Term, config.MaxConcurrency)
	if err != nil {
		return err
	}
	if matches.Total() == 0 {
		fmt.Printf("no matches for %q\n", config.Term)
		return nil
	}

	var st *store.Store
	var sess *redact.Session
	if config.AddMarks {
		st, sess, err = loadSession(doc)
		if err != nil {
			return err
		}
		defer st.Close()
	}

	for page := 0; page < doc.PageCount(); page++ {
		for _, rect := range matches[page] {
			if config.AddMarks {
				m := redact.NewSearchMark(page, rect, config.Term)
				sess.Pending.Add(m)
				fmt.Printf("page %d: %s marked (id %s)\n", page+1, rect, m.ID)
			} else {
				fmt.Printf("page %d: %s\n", page+1, rect)
			}
		}
	}
	fmt.Printf("%d match(es) for %q\n", matches.Total(), config.Term)

	if config.AddMarks {
		return st.SaveSession(context.Background(), sess)
	}
	return nil
}

func runList(config *Config) error {
	if _, err := os.Stat(store.SessionPath(config.File)); err != nil {
		fmt.Println("no pending marks")
		return nil
	}

	st, err := store.Open(store.SessionPath(config.File))
	if err != nil {
		return err
	}
	defer st.Close()

	sess, err := st.LoadSession(context.Background())
	if err != nil {
		return err
	}
	if sess == nil || !sess.Pending.HasPending() {
		fmt.Println("no pending marks")
		return nil
	}

	for _, m := range sess.Pending.All() {
		fmt.Printf("%s  page %d  %s  %s\n", m.ID, m.Page+1, m.Origin, m.Describe())
	}
	fmt.Printf("%d pending mark(s)\n", sess.Pending.Count())
	return nil
}

func runRemove(config *Config) error {
	st, err := store.Open(store.SessionPath(config.File))
	if err != nil {
		return err
	}
	defer st.Close()

	sess, err := st.LoadSession(context.Background())
	if err != nil {
		return err
	}
	if sess == nil {
		return errors.New("no pending marks")
	}

	m, ok := sess.Pending.Remove(config.MarkID)
	if !ok {
		return fmt.Errorf("no mark with id %s", config.MarkID)
	}
	if err := st.SaveSession(context.Background(), sess); err != nil {
		return err
	}

	fmt.Printf("removed mark %s from page %d\n", m.ID, m.Page+1)
	return nil
}

func runClear(config *Config) error {
	st, err := store.Open(store.SessionPath(config.File))
	if err != nil {
		return err
	}
	defer st.Close()

	sess, err := st.LoadSession(context.Background())
	if err != nil {
		return err
	}
	if sess == nil {
		fmt.Println("no pending marks")
		return nil
	}

	var removed int
	if config.ClearPage > 0 {
		removed = sess.Pending.ClearPage(config.ClearPage - 1)
	} else {
		removed = sess.Pending.ClearAll()
	}
	if err := st.SaveSession(context.Background(), sess); err != nil {
		return err
	}

	fmt.Printf("cleared %d mark(s)\n", removed)
	return nil
}

func runRender(config *Config) error {
	r, err := render.New(config.File, config.DPI)
	if err != nil {
		return err
	}
	defer r.Close()

	doc, err := pdf.Open(config.File)
	if err != nil {
		return err
	}
	defer doc.Close()

	page, err := pageIndex(config, doc.PageCount())
	if err != nil {
		return err
	}

	img, err := r.Page(page)
	if err != nil {
		return err
	}

	out := config.Output
	if out == "" {
		out = fmt.Sprintf("%s_page_%d.png",
			strings.TrimSuffix(config.File, ".pdf"), page+1)
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := render.WritePNG(f, img); err != nil {
		return err
	}
	fmt.Printf("rendered page %d to %s\n", page+1, out)
	return nil
}

func runApply(config *Config) error {
	doc, err := pdf.Open(config.File)
	if err != nil {
		return err
	}
	defer doc.Close()

	st, sess, err := loadSession(doc)
	if err != nil {
		return err
	}
	if !sess.Pending.HasPending() {
		st.Close()
		return errors.New("no pending marks to apply")
	}

	applied, err := doc.Apply(sess.Pending.All())
	if err != nil {
		st.Close()
		return err
	}

	out := config.Output
	if out == "" {
		out = strings.TrimSuffix(config.File, ".pdf") + "_redacted.pdf"
	}
	if err := doc.Save(out); err != nil {
		st.Close()
		return err
	}

	// The session has served its purpose: marks are burned into the
	// output and can never be re-applied.
	sess.MarkApplied()
	if err := st.Discard(); err != nil {
		return err
	}

	fmt.Printf("applied %d redaction(s), wrote %s\n", applied, out)
	return nil
}

// parseRect parses the "x0,y0,x1,y1" rect flag (document points).
func parseRect(spec string) (geom.Rect, error) {
	parts := strings.Split(spec, ",")
	if len(parts) != 4 {
		return geom.Rect{}, fmt.Errorf("invalid rectangle %q, want x0,y0,x1,y1", spec)
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geom.Rect{}, fmt.Errorf("invalid rectangle %q: %w", spec, err)
		}
		vals[i] = v
	}
	return geom.Rect{X0: vals[0], Y0: vals[1], X1: vals[2], Y1: vals[3]}.Normalize(), nil
}
