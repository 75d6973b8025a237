// Package store persists pending redaction marks between CLI
// invocations. Each document gets a sibling session database
// (<name>.redact.db) so marking and applying can happen in separate
// runs; the session file is removed once redactions are applied.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/devtamer/pdf-redactor-for-mac/geom"
	"github.com/devtamer/pdf-redactor-for-mac/redact"
)

// Store is one open session database.
type Store struct {
	db   *sql.DB
	path string
}

// SessionPath returns the session database path for a document:
// a .redact.db file next to the PDF.
func SessionPath(pdfPath string) string {
	return strings.TrimSuffix(pdfPath, ".pdf") + ".redact.db"
}

// Open connects to the session database at path, creating it and its
// schema on first use.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("unable to open session database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping session database: %w", err)
	}

	// Enable foreign key constraints and WAL mode.
	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to set pragma: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) createTables() error {
	// One document row per session file; the CHECK pins it to id 1 so
	// a session can never silently mix two documents.
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS document(
		id INTEGER NOT NULL PRIMARY KEY CHECK (id = 1),
		path TEXT NOT NULL,
		page_count INTEGER NOT NULL,
		current_page INTEGER NOT NULL DEFAULT 0
	)
	`)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
	CREATE TABLE IF NOT EXISTS marks(
		id TEXT NOT NULL PRIMARY KEY,
		page INTEGER NOT NULL,
		x0 REAL NOT NULL,
		y0 REAL NOT NULL,
		x1 REAL NOT NULL,
		y1 REAL NOT NULL,
		origin TEXT NOT NULL,
		term TEXT NOT NULL DEFAULT '',
		position INTEGER NOT NULL
	)
	`)
	return err
}

// SaveSession replaces the stored state with the session's current
// state in one transaction.
func (s *Store) SaveSession(ctx context.Context, sess *redact.Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO document (id, path, page_count, current_page) VALUES (1, $1, $2, $3)
		ON CONFLICT(id) DO UPDATE SET path=excluded.path,
			page_count=excluded.page_count, current_page=excluded.current_page`,
		sess.Path, sess.PageCount, sess.CurrentPage)
	if err != nil {
		return fmt.Errorf("error saving document row: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM marks`); err != nil {
		return err
	}

	query := `INSERT INTO marks (id, page, x0, y0, x1, y1, origin, term, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	for i, m := range sess.Pending.All() {
		_, err := tx.ExecContext(ctx, query,
			m.ID, m.Page, m.Rect.X0, m.Rect.Y0, m.Rect.X1, m.Rect.Y1,
			string(m.Origin), m.Term, i)
		if err != nil {
			return fmt.Errorf("error saving mark %s: %w", m.ID, err)
		}
	}

	return tx.Commit()
}

// LoadSession restores a session from the database. It returns nil
// with no error when the database holds no document row yet.
func (s *Store) LoadSession(ctx context.Context) (*redact.Session, error) {
	sess := &redact.Session{Pending: redact.NewPendingSet()}

	row := s.db.QueryRowContext(ctx,
		`SELECT path, page_count, current_page FROM document WHERE id = 1`)
	err := row.Scan(&sess.Path, &sess.PageCount, &sess.CurrentPage)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error loading document row: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, page, x0, y0, x1, y1, origin, term
		FROM marks ORDER BY page, position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var m redact.Mark
		var r geom.Rect
		var origin string
		err := rows.Scan(&m.ID, &m.Page, &r.X0, &r.Y0, &r.X1, &r.Y1, &origin, &m.Term)
		if err != nil {
			return nil, err
		}
		m.Rect = r
		m.Origin = redact.Origin(origin)
		sess.Pending.Add(m)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return sess, nil
}

// Discard closes the store and deletes the session file and its WAL
// sidecars. Called after a successful apply.
func (s *Store) Discard() error {
	if err := s.db.Close(); err != nil {
		return err
	}
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(s.path + suffix); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// Close closes the database, keeping the session file for later runs.
func (s *Store) Close() error {
	return s.db.Close()
}
