package history

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/campus/internal/errors"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Build is one recorded generation pass.
type Build struct {
	ID           string
	Start        time.Time
	End          time.Time
	Outcome      string
	Pages        int
	CopiedFiles  int
	BrokenLinks  int
	Warnings     int
	ChangedPages int
	Error        string
}

// Duration is the wall time of the build.
func (b Build) Duration() time.Duration { return b.End.Sub(b.Start) }

// Page is the fingerprint of one written page.
type Page struct {
	Dir         string
	Title       string
	Fingerprint string
}

// Store implements build history on SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (creating when needed) the database at path and applies pending
// migrations. Use MemoryPath for an in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, errors.WrapError(err, errors.CategoryHistory, "create history directory").
				WithContext("path", path).
				Build()
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryHistory, "open history database").WithContext("path", path).Build()
	}
	// One connection keeps in-memory databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	sub, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "load history migrations").Build()
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, sub)
	if err != nil {
		return errors.WrapError(err, errors.CategoryHistory, "prepare history migrations").Build()
	}
	if _, err := provider.Up(ctx); err != nil {
		return errors.WrapError(err, errors.CategoryHistory, "apply history migrations").Build()
	}
	return nil
}

// Record stores b with its pages. ChangedPages is computed against the most
// recent previously recorded build and returned in the stored copy.
func (s *Store) Record(ctx context.Context, b Build, pages []Page) (Build, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return b, errors.WrapError(err, errors.CategoryHistory, "begin history transaction").Build()
	}
	defer func() { _ = tx.Rollback() }()

	prev, err := latestPages(ctx, tx)
	if err != nil {
		return b, err
	}
	b.ChangedPages = Changed(prev, pages)

	_, err = tx.ExecContext(ctx,
		`INSERT INTO builds (id, started_at, finished_at, outcome, pages, copied_files, broken_links, warnings, changed_pages, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Start.UnixMilli(), b.End.UnixMilli(), b.Outcome, b.Pages, b.CopiedFiles, b.BrokenLinks, b.Warnings, b.ChangedPages, b.Error,
	)
	if err != nil {
		return b, errors.WrapError(err, errors.CategoryHistory, "insert build").WithContext("build_id", b.ID).Build()
	}
	for _, p := range pages {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO pages (build_id, dir, title, fingerprint) VALUES (?, ?, ?, ?)",
			b.ID, p.Dir, p.Title, p.Fingerprint,
		); err != nil {
			return b, errors.WrapError(err, errors.CategoryHistory, "insert page").WithContext("dir", p.Dir).Build()
		}
	}
	if err := tx.Commit(); err != nil {
		return b, errors.WrapError(err, errors.CategoryHistory, "commit history").Build()
	}
	return b, nil
}

func latestPages(ctx context.Context, tx *sql.Tx) (map[string]string, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT dir, fingerprint FROM pages WHERE build_id =
		   (SELECT id FROM builds ORDER BY started_at DESC, rowid DESC LIMIT 1)`)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryHistory, "query previous pages").Build()
	}
	defer func() { _ = rows.Close() }()

	prev := make(map[string]string)
	for rows.Next() {
		var dir, fp string
		if err := rows.Scan(&dir, &fp); err != nil {
			return nil, errors.WrapError(err, errors.CategoryHistory, "scan previous page").Build()
		}
		prev[dir] = fp
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapError(err, errors.CategoryHistory, "iterate previous pages").Build()
	}
	return prev, nil
}

// Changed counts pages that are new, were removed, or whose fingerprint differs.
func Changed(prev map[string]string, cur []Page) int {
	n := 0
	seen := make(map[string]struct{}, len(cur))
	for _, p := range cur {
		seen[p.Dir] = struct{}{}
		if fp, ok := prev[p.Dir]; !ok || fp != p.Fingerprint {
			n++
		}
	}
	for dir := range prev {
		if _, ok := seen[dir]; !ok {
			n++
		}
	}
	return n
}

// Recent returns up to n builds, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Build, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 {
		n = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, outcome, pages, copied_files, broken_links, warnings, changed_pages, error
		 FROM builds ORDER BY started_at DESC, rowid DESC LIMIT ?`, n)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryHistory, "query builds").Build()
	}
	defer func() { _ = rows.Close() }()

	var builds []Build
	for rows.Next() {
		var b Build
		var start, end int64
		if err := rows.Scan(&b.ID, &start, &end, &b.Outcome, &b.Pages, &b.CopiedFiles, &b.BrokenLinks, &b.Warnings, &b.ChangedPages, &b.Error); err != nil {
			return nil, errors.WrapError(err, errors.CategoryHistory, "scan build").Build()
		}
		b.Start = time.UnixMilli(start)
		b.End = time.UnixMilli(end)
		builds = append(builds, b)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapError(err, errors.CategoryHistory, "iterate builds").Build()
	}
	return builds, nil
}

// Pages returns the recorded pages of a build ordered by directory.
func (s *Store) Pages(ctx context.Context, buildID string) ([]Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT dir, title, fingerprint FROM pages WHERE build_id = ? ORDER BY dir", buildID)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryHistory, "query pages").Build()
	}
	defer func() { _ = rows.Close() }()

	var pages []Page
	for rows.Next() {
		var p Page
		if err := rows.Scan(&p.Dir, &p.Title, &p.Fingerprint); err != nil {
			return nil, errors.WrapError(err, errors.CategoryHistory, "scan page").Build()
		}
		pages = append(pages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapError(err, errors.CategoryHistory, "iterate pages").Build()
	}
	return pages, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
