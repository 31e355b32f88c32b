// Package blockindex keeps a SQLite table of the block-id lines found in a
// directory of markdown files and resolves block references against it.
package blockindex

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/zjrosen/tasktpl/internal/domain/template"
	"github.com/zjrosen/tasktpl/internal/log"
	"github.com/zjrosen/tasktpl/internal/workflow"
)

// Schema is the single table the index keeps.
const Schema = `
CREATE TABLE IF NOT EXISTS blocks (
	path TEXT NOT NULL,
	block_id TEXT NOT NULL,
	line INTEGER NOT NULL,
	text TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT '',
	kind TEXT NOT NULL DEFAULT 'none',
	PRIMARY KEY (path, block_id)
);
CREATE INDEX IF NOT EXISTS blocks_block_id ON blocks (block_id);
`

var ErrNotIndexed = errors.New("file is not under the index root")

// Stats summarises one indexing run.
type Stats struct {
	Files  int
	Blocks int
}

// Index is a block table rooted at a directory. Paths are stored relative to
// the root with forward slashes.
type Index struct {
	db   *sql.DB
	root string
}

var (
	_ workflow.Lookup   = (*Index)(nil)
	_ workflow.IDLookup = (*Index)(nil)
)

// Open opens or creates the index database at dbPath for files under root.
func Open(dbPath, root string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}
	log.Debug(log.CatIndex, "Opening index", "path", dbPath)
	return open("file:"+dbPath, root)
}

// OpenMemory opens an index that lives only as long as the returned value.
func OpenMemory(root string) (*Index, error) {
	return open(":memory:", root)
}

func open(dsn, root string) (*Index, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		log.ErrorErr(log.CatIndex, "Failed to open index", err, "dsn", dsn)
		return nil, err
	}
	// one connection: an in-memory database is private to its connection
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Index{db: db, root: root}, nil
}

// Close closes the database.
func (x *Index) Close() error {
	return x.db.Close()
}

// Root returns the directory the index covers.
func (x *Index) Root() string {
	return x.root
}

// Rel converts a file path to the form stored in the index.
func (x *Index) Rel(file string) (string, error) {
	if !filepath.IsAbs(file) {
		return filepath.ToSlash(filepath.Clean(file)), nil
	}
	rel, err := filepath.Rel(x.root, file)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%w: %s", ErrNotIndexed, file)
	}
	return filepath.ToSlash(rel), nil
}

// Rebuild replaces the whole table with the blocks of every .md file under
// the root. Hidden directories are skipped.
func (x *Index) Rebuild(ctx context.Context) (Stats, error) {
	var files []string
	err := filepath.WalkDir(x.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != x.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(p), ".md") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return Stats{}, fmt.Errorf("walking %s: %w", x.root, err)
	}

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM blocks`); err != nil {
		return Stats{}, err
	}
	var stats Stats
	for _, f := range files {
		n, err := x.indexFile(ctx, tx, f)
		if err != nil {
			return Stats{}, err
		}
		stats.Files++
		stats.Blocks += n
	}
	if err := tx.Commit(); err != nil {
		return Stats{}, err
	}
	log.Info(log.CatIndex, "Rebuilt index", "root", x.root, "files", stats.Files, "blocks", stats.Blocks)
	return stats, nil
}

// IndexFile refreshes the rows of a single file. A file that no longer
// exists has its rows removed.
func (x *Index) IndexFile(ctx context.Context, file string) (int, error) {
	abs := file
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(x.root, file)
	}
	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	n, err := x.indexFile(ctx, tx, abs)
	if err != nil {
		return 0, err
	}
	return n, tx.Commit()
}

func (x *Index) indexFile(ctx context.Context, tx *sql.Tx, abs string) (int, error) {
	rel, err := x.Rel(abs)
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM blocks WHERE path = ?`, rel); err != nil {
		return 0, err
	}
	data, err := os.ReadFile(abs) //nolint:gosec // G304: files come from walking the index root
	if errors.Is(err, fs.ErrNotExist) {
		log.Debug(log.CatIndex, "Dropped removed file", "path", rel)
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO blocks (path, block_id, line, text, status, kind) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer func() { _ = stmt.Close() }()

	blocks := ParseBlocks(rel, string(data))
	for _, b := range blocks {
		if _, err := stmt.ExecContext(ctx, b.Path, b.BlockID, b.Line, b.Text, b.Status, string(b.Kind)); err != nil {
			return 0, fmt.Errorf("indexing %s#^%s: %w", rel, b.BlockID, err)
		}
	}
	log.Debug(log.CatIndex, "Indexed file", "path", rel, "blocks", len(blocks))
	return len(blocks), nil
}

const selectRecord = `SELECT path, block_id, line, text, status, kind FROM blocks`

// Resolve looks up a "file#^id" reference. The file part must name the stored
// path exactly, extension included. Unknown references return nil, nil.
func (x *Index) Resolve(ctx context.Context, ref string) (*workflow.Record, error) {
	file, id := workflow.SplitReference(ref)
	if file == "" || id == "" {
		return nil, nil
	}
	file = path.Clean(strings.TrimPrefix(filepath.ToSlash(file), "./"))
	rec, err := x.queryOne(ctx, selectRecord+` WHERE path = ? AND block_id = ?`, file, id)
	if rec != nil {
		rec.Ref = ref
	}
	return rec, err
}

// ResolveID looks a block id up in any file, preferring the first path in
// lexical order.
func (x *Index) ResolveID(ctx context.Context, id string) (*workflow.Record, error) {
	rec, err := x.queryOne(ctx, selectRecord+` WHERE block_id = ? ORDER BY path LIMIT 1`, id)
	if rec != nil {
		rec.Ref = rec.Path + "#^" + rec.BlockID
	}
	return rec, err
}

func (x *Index) queryOne(ctx context.Context, query string, args ...any) (*workflow.Record, error) {
	rec, err := scanRecord(x.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.ErrorErr(log.CatIndex, "Block lookup failed", err, "args", args)
		return nil, err
	}
	return rec, nil
}

// List returns every indexed block ordered by path and line.
func (x *Index) List(ctx context.Context) ([]workflow.Record, error) {
	rows, err := x.db.QueryContext(ctx, selectRecord+` ORDER BY path, line`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []workflow.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		rec.Ref = rec.Path + "#^" + rec.BlockID
		out = append(out, *rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*workflow.Record, error) {
	var rec workflow.Record
	var kind string
	if err := row.Scan(&rec.Path, &rec.BlockID, &rec.Line, &rec.Text, &rec.Status, &kind); err != nil {
		return nil, err
	}
	rec.Kind = template.LineKind(kind)
	return &rec, nil
}
