package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/devtamer/pdf-redactor-for-mac/geom"
	"github.com/devtamer/pdf-redactor-for-mac/redact"
)

func TestApplyRejectedAfterApplied(t *testing.T) {
	sess := redact.NewSession("doc.pdf", 1)
	sess.Pending.Add(redact.NewManualMark(0, geom.Rect{X0: 10, Y0: 10, X1: 60, Y1: 60}))
	sess.MarkApplied()
	app := &App{session: sess}

	rec := httptest.NewRecorder()
	app.Apply(rec, httptest.NewRequest(http.MethodPost, "/api/apply", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "already applied")
}

func TestApplyRejectedWithoutMarks(t *testing.T) {
	app := &App{session: redact.NewSession("doc.pdf", 1)}

	rec := httptest.NewRecorder()
	app.Apply(rec, httptest.NewRequest(http.MethodPost, "/api/apply", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "no pending marks")
}

func TestAddMarkRejectedAfterApplied(t *testing.T) {
	sess := redact.NewSession("doc.pdf", 1)
	sess.MarkApplied()
	app := &App{session: sess}

	body := strings.NewReader(`{"page":0,"x0":10,"y0":10,"x1":60,"y1":60}`)
	rec := httptest.NewRecorder()
	app.AddMark(rec, httptest.NewRequest(http.MethodPost, "/api/marks", body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "already applied")
}

func TestClearRejectsMalformedBody(t *testing.T) {
	sess := redact.NewSession("doc.pdf", 2)
	sess.Pending.Add(redact.NewManualMark(0, geom.Rect{X0: 10, Y0: 10, X1: 60, Y1: 60}))
	app := &App{session: sess}

	body := strings.NewReader(`{"page":`)
	rec := httptest.NewRecorder()
	app.Clear(rec, httptest.NewRequest(http.MethodPost, "/api/clear", body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	// nothing was cleared
	assert.Equal(t, 1, sess.Pending.Count())
}

func TestClearEmptyBodyClearsAll(t *testing.T) {
	sess := redact.NewSession("doc.pdf", 2)
	sess.Pending.Add(redact.NewManualMark(0, geom.Rect{X0: 10, Y0: 10, X1: 60, Y1: 60}))
	sess.Pending.Add(redact.NewManualMark(1, geom.Rect{X0: 10, Y0: 10, X1: 60, Y1: 60}))
	app := &App{session: sess}

	rec := httptest.NewRecorder()
	app.Clear(rec, httptest.NewRequest(http.MethodPost, "/api/clear", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, sess.Pending.Count())
}

func TestClearSinglePage(t *testing.T) {
	sess := redact.NewSession("doc.pdf", 2)
	sess.Pending.Add(redact.NewManualMark(0, geom.Rect{X0: 10, Y0: 10, X1: 60, Y1: 60}))
	sess.Pending.Add(redact.NewManualMark(1, geom.Rect{X0: 10, Y0: 10, X1: 60, Y1: 60}))
	app := &App{session: sess}

	body := strings.NewReader(`{"page":0}`)
	rec := httptest.NewRecorder()
	app.Clear(rec, httptest.NewRequest(http.MethodPost, "/api/clear", body))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, sess.Pending.Count())
	assert.Empty(t, sess.Pending.PageMarks(0))
}
