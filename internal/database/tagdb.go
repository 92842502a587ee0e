package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/docsearch/internal/model"
)

// FileName is the database file created inside the database directory.
const FileName = "docsearch.db"

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = errors.New("run not found")

// TagDB stores crawl runs and the tag URLs they produced in SQLite.
type TagDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures TagDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a TagDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*TagDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file; mode=rwc creates it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	tdb := &TagDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := tdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return tdb, nil
}

// Path returns the database file path.
func (tdb *TagDB) Path() string {
	return tdb.dbPath
}

// Close closes the database connection.
func (tdb *TagDB) Close() error {
	return tdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (tdb *TagDB) createTables() error {
	schema := `
	-- One row per crawl run
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		seed TEXT NOT NULL,
		allowed_domains TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		pages_scraped INTEGER DEFAULT 0,
		pages_failed INTEGER DEFAULT 0,
		urls_visited INTEGER DEFAULT 0,
		tags_emitted INTEGER DEFAULT 0,
		cancelled INTEGER DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- Pages scraped during a run
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		url TEXT NOT NULL,
		tag_count INTEGER NOT NULL,
		UNIQUE(run_id, url)
	);

	-- Tag URLs emitted during a run
	CREATE TABLE IF NOT EXISTS tags (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		page_url TEXT NOT NULL,
		url TEXT NOT NULL,
		tag TEXT NOT NULL,
		UNIQUE(run_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_tags_run ON tags(run_id);
	CREATE INDEX IF NOT EXISTS idx_tags_tag ON tags(tag);
	`

	_, err := tdb.db.ExecContext(context.Background(), schema)
	return err
}

// Run is a stored crawl run.
type Run struct {
	ID             int64
	Seed           string
	AllowedDomains []string
	StartedAt      time.Time
	FinishedAt     time.Time
	PagesScraped   int
	PagesFailed    int
	URLsVisited    int
	TagsEmitted    int
	Cancelled      bool
}

// Finished reports whether FinishRun was called for the run.
func (r *Run) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// BeginRun inserts a new run and returns its ID.
func (tdb *TagDB) BeginRun(ctx context.Context, seed string, allowedDomains []string, startedAt time.Time) (int64, error) {
	domainsJSON, err := json.Marshal(allowedDomains)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize domains: %w", err)
	}

	res, err := tdb.db.ExecContext(ctx,
		`INSERT INTO runs (seed, allowed_domains, started_at) VALUES (?, ?, ?)`,
		seed, string(domainsJSON), startedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return res.LastInsertId()
}

// SaveResult stores a scraped page and its tags under runID.
// Pages and tags already stored for the run are ignored.
func (tdb *TagDB) SaveResult(ctx context.Context, runID int64, result *model.Result) error {
	tx, err := tdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	pageURL := result.PageURL.String()
	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO pages (run_id, url, tag_count) VALUES (?, ?, ?)`,
		runID, pageURL, len(result.Tags),
	); err != nil {
		return fmt.Errorf("failed to insert page: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO tags (run_id, page_url, url, tag) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare tag insert: %w", err)
	}
	defer stmt.Close()

	for _, tag := range result.Tags {
		if _, err := stmt.ExecContext(ctx, runID, pageURL, model.TagString(tag), tag.Fragment); err != nil {
			return fmt.Errorf("failed to insert tag: %w", err)
		}
	}

	return tx.Commit()
}

// FinishRun records the final counters of a run.
func (tdb *TagDB) FinishRun(ctx context.Context, runID int64, summary *model.Summary) error {
	res, err := tdb.db.ExecContext(ctx, `
	UPDATE runs
	SET finished_at = ?, pages_scraped = ?, pages_failed = ?, urls_visited = ?, tags_emitted = ?, cancelled = ?
	WHERE id = ?`,
		summary.FinishedAt.UTC(),
		summary.PagesScraped,
		summary.PagesFailed,
		summary.URLsVisited,
		summary.TagsEmitted,
		summary.Cancelled,
		runID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %d", ErrRunNotFound, runID)
	}
	return nil
}

const runColumns = `id, seed, allowed_domains, started_at, finished_at,
	pages_scraped, pages_failed, urls_visited, tags_emitted, cancelled`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run         Run
		domainsJSON string
		finishedAt  sql.NullTime
	)
	if err := row.Scan(
		&run.ID,
		&run.Seed,
		&domainsJSON,
		&run.StartedAt,
		&finishedAt,
		&run.PagesScraped,
		&run.PagesFailed,
		&run.URLsVisited,
		&run.TagsEmitted,
		&run.Cancelled,
	); err != nil {
		return nil, err
	}
	if finishedAt.Valid {
		run.FinishedAt = finishedAt.Time
	}
	if err := json.Unmarshal([]byte(domainsJSON), &run.AllowedDomains); err != nil {
		return nil, fmt.Errorf("failed to parse domains: %w", err)
	}
	return &run, nil
}

// GetRun returns the run with the given ID.
func (tdb *TagDB) GetRun(ctx context.Context, runID int64) (*Run, error) {
	row := tdb.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first.
// A non-positive limit returns every run.
func (tdb *TagDB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := tdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Tags returns the tag URLs of a run in insertion order.
func (tdb *TagDB) Tags(ctx context.Context, runID int64) ([]string, error) {
	return tdb.queryStrings(ctx, `SELECT url FROM tags WHERE run_id = ? ORDER BY id`, runID)
}

// SearchTags returns tag URLs of a run whose tag text contains term,
// case-insensitively. Exact matches sort first.
func (tdb *TagDB) SearchTags(ctx context.Context, runID int64, term string) ([]string, error) {
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	return tdb.queryStrings(ctx, `
	SELECT url FROM tags
	WHERE run_id = ? AND lower(tag) LIKE ? ESCAPE '\'
	ORDER BY (lower(tag) = ?) DESC, length(tag), tag`,
		runID, pattern, strings.ToLower(term))
}

// RunDiff lists tag URLs that differ between two runs.
type RunDiff struct {
	PreviousRunID int64    `json:"previous_run_id"`
	CurrentRunID  int64    `json:"current_run_id"`
	Added         []string `json:"added"`
	Removed       []string `json:"removed"`
	Unchanged     int      `json:"unchanged"`
}

// CompareRuns returns the tags added in current and removed since previous.
func (tdb *TagDB) CompareRuns(ctx context.Context, previous, current int64) (*RunDiff, error) {
	for _, id := range []int64{previous, current} {
		if _, err := tdb.GetRun(ctx, id); err != nil {
			return nil, err
		}
	}

	diffQuery := `
	SELECT url FROM tags WHERE run_id = ?
	EXCEPT
	SELECT url FROM tags WHERE run_id = ?
	ORDER BY url`

	added, err := tdb.queryStrings(ctx, diffQuery, current, previous)
	if err != nil {
		return nil, err
	}
	removed, err := tdb.queryStrings(ctx, diffQuery, previous, current)
	if err != nil {
		return nil, err
	}

	var unchanged int
	if err := tdb.db.QueryRowContext(ctx, `
	SELECT COUNT(*) FROM tags a JOIN tags b ON a.url = b.url
	WHERE a.run_id = ? AND b.run_id = ?`, previous, current).Scan(&unchanged); err != nil {
		return nil, fmt.Errorf("failed to count unchanged tags: %w", err)
	}

	return &RunDiff{
		PreviousRunID: previous,
		CurrentRunID:  current,
		Added:         added,
		Removed:       removed,
		Unchanged:     unchanged,
	}, nil
}

func (tdb *TagDB) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := tdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// escapeLike escapes LIKE wildcards in s.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
