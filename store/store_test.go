package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devtamer/pdf-redactor-for-mac/geom"
	"github.com/devtamer/pdf-redactor-for-mac/redact"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.redact.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionPath(t *testing.T) {
	assert.Equal(t, "/tmp/report.redact.db", SessionPath("/tmp/report.pdf"))
	assert.Equal(t, "notes.redact.db", SessionPath("notes"))
}

func TestSaveAndLoadSession(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sess := redact.NewSession("/tmp/report.pdf", 12)
	sess.CurrentPage = 3
	m1 := redact.NewManualMark(0, geom.Rect{X0: 10, Y0: 20, X1: 110, Y1: 40})
	m2 := redact.NewSearchMark(3, geom.Rect{X0: 50, Y0: 600, X1: 90, Y1: 612}, "John Doe")
	sess.Pending.Add(m1)
	sess.Pending.Add(m2)

	require.NoError(t, s.SaveSession(ctx, sess))

	loaded, err := s.LoadSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, "/tmp/report.pdf", loaded.Path)
	assert.Equal(t, 12, loaded.PageCount)
	assert.Equal(t, 3, loaded.CurrentPage)
	assert.Equal(t, 2, loaded.Pending.Count())

	got, ok := loaded.Pending.Get(m2.ID)
	require.True(t, ok)
	assert.Equal(t, m2, got)
}

func TestLoadEmptySession(t *testing.T) {
	s := openTestStore(t)

	sess, err := s.LoadSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestSaveReplacesMarks(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sess := redact.NewSession("/tmp/report.pdf", 2)
	m := redact.NewManualMark(0, geom.Rect{X0: 0, Y0: 0, X1: 50, Y1: 50})
	sess.Pending.Add(m)
	require.NoError(t, s.SaveSession(ctx, sess))

	// remove the mark and save again; the stored copy must be gone
	sess.Pending.Remove(m.ID)
	require.NoError(t, s.SaveSession(ctx, sess))

	loaded, err := s.LoadSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, 0, loaded.Pending.Count())
}

func TestDiscardRemovesSessionFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.redact.db")
	s, err := Open(path)
	require.NoError(t, err)

	sess := redact.NewSession("/tmp/report.pdf", 1)
	require.NoError(t, s.SaveSession(context.Background(), sess))

	require.NoError(t, s.Discard())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
