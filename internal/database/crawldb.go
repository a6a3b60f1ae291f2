package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/prodcrawl/internal/model"
)

// DBFileName is the database file created inside the data directory.
const DBFileName = "prodcrawl.db"

// storedTimeFormat is fixed-width so that started_at sorts as text.
const storedTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = errors.New("run not found")

// CrawlDB provides SQLite-based storage for finished crawl results.
// Only results are stored. The frontier and visited set of a crawl are
// never persisted, so a crawl cannot be resumed from the database.
//
// Design decision: We use one database file for all domains rather than
// one per domain. This keeps history queries simple and the file easy to
// back up.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file; mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	// Another process (or a second crawl) may hold the write lock briefly.
	if _, err := db.ExecContext(context.Background(), "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// Path returns the database file path.
func (cdb *CrawlDB) Path() string {
	return cdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- One row per successfully crawled domain per job
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		domain TEXT NOT NULL,
		started_at TEXT NOT NULL,
		strategy TEXT NOT NULL DEFAULT '',
		max_depth INTEGER NOT NULL DEFAULT 0,
		pages_fetched INTEGER NOT NULL DEFAULT 0,
		pages_failed INTEGER NOT NULL DEFAULT 0,
		urls_visited INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		depth_stats TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_domain ON runs(domain);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- Product URLs of a run, in accumulation order
	CREATE TABLE IF NOT EXISTS products (
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		url TEXT NOT NULL,
		PRIMARY KEY (run_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_products_url ON products(url);

	-- URLs that produced no content during a run
	CREATE TABLE IF NOT EXISTS fetch_failures (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		url TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_failures_run ON fetch_failures(run_id);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// RunRecord is one stored domain crawl.
type RunRecord struct {
	ID        int64
	Domain    string
	StartedAt time.Time
	Strategy  string
	MaxDepth  int
	Products  []string
	Stats     model.CrawlStats
}

// NewRunRecord builds a record from a domain result. The depth recorded in
// dr.Stats wins over maxDepth, which only fills in results that lack it.
func NewRunRecord(dr *model.DomainResult, startedAt time.Time, strategy string, maxDepth int) *RunRecord {
	if dr.Stats.MaxDepth > 0 {
		maxDepth = dr.Stats.MaxDepth
	}
	return &RunRecord{
		Domain:    dr.Domain,
		StartedAt: startedAt,
		Strategy:  strategy,
		MaxDepth:  maxDepth,
		Products:  dr.Products,
		Stats:     dr.Stats,
	}
}

// SaveRun stores a run with its products and failed URLs in one transaction.
// It returns the new run ID.
func (cdb *CrawlDB) SaveRun(ctx context.Context, run *RunRecord) (int64, error) {
	depthJSON, err := json.Marshal(run.Stats.Depths)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize depth stats: %w", err)
	}

	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
	INSERT INTO runs (domain, started_at, strategy, max_depth, pages_fetched, pages_failed, urls_visited, duration_ms, depth_stats)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.Domain,
		run.StartedAt.UTC().Format(storedTimeFormat),
		run.Strategy,
		run.MaxDepth,
		run.Stats.PagesFetched,
		run.Stats.PagesFailed,
		run.Stats.URLsVisited,
		run.Stats.Duration.Milliseconds(),
		string(depthJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}

	productStmt, err := tx.PrepareContext(ctx, `INSERT INTO products (run_id, position, url) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare product insert: %w", err)
	}
	defer productStmt.Close()

	for i, u := range run.Products {
		if _, err := productStmt.ExecContext(ctx, id, i, u); err != nil {
			return 0, fmt.Errorf("failed to insert product: %w", err)
		}
	}

	for _, u := range run.Stats.FailedURLs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO fetch_failures (run_id, url) VALUES (?, ?)`, id, u); err != nil {
			return 0, fmt.Errorf("failed to insert fetch failure: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}

	run.ID = id
	return id, nil
}

// SaveCrawlResult stores every domain of result as its own run.
// Failed domains are not stored. maxDepth is the job-wide bound used for
// domains whose stats do not carry their own.
func (cdb *CrawlDB) SaveCrawlResult(ctx context.Context, result *model.CrawlResult, strategy string, maxDepth int) ([]int64, error) {
	ids := make([]int64, 0, result.Len())
	for _, dr := range result.Domains() {
		id, err := cdb.SaveRun(ctx, NewRunRecord(dr, result.StartedAt, strategy, maxDepth))
		if err != nil {
			return ids, fmt.Errorf("%s: %w", dr.Domain, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ListDomains returns every domain with at least one stored run, sorted.
func (cdb *CrawlDB) ListDomains(ctx context.Context) ([]string, error) {
	rows, err := cdb.db.QueryContext(ctx, `SELECT DISTINCT domain FROM runs ORDER BY domain`)
	if err != nil {
		return nil, fmt.Errorf("failed to list domains: %w", err)
	}
	defer rows.Close()

	var domains []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan domain: %w", err)
		}
		domains = append(domains, d)
	}
	return domains, rows.Err()
}

// GetRunHistory returns all runs of domain, newest first.
func (cdb *CrawlDB) GetRunHistory(ctx context.Context, domain string) ([]model.RunSummary, error) {
	return cdb.queryRuns(ctx, -1, domain)
}

// LatestRuns returns at most n runs of domain, newest first.
func (cdb *CrawlDB) LatestRuns(ctx context.Context, domain string, n int) ([]model.RunSummary, error) {
	if n <= 0 {
		return []model.RunSummary{}, nil
	}
	return cdb.queryRuns(ctx, n, domain)
}

func (cdb *CrawlDB) queryRuns(ctx context.Context, limit int, domain string) ([]model.RunSummary, error) {
	query := `
	SELECT r.id, r.domain, r.started_at, r.pages_fetched, r.pages_failed,
		(SELECT COUNT(*) FROM products p WHERE p.run_id = r.id)
	FROM runs r
	WHERE r.domain = ?
	ORDER BY r.started_at DESC, r.id DESC
	LIMIT ?
	`

	rows, err := cdb.db.QueryContext(ctx, query, domain, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get run history: %w", err)
	}
	defer rows.Close()

	results := []model.RunSummary{}
	for rows.Next() {
		var rs model.RunSummary
		var startedAt string
		if err := rows.Scan(&rs.ID, &rs.Domain, &startedAt, &rs.PagesFetched, &rs.PagesFailed, &rs.Products); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		rs.StartedAt = parseTimestamp(startedAt)
		results = append(results, rs)
	}
	return results, rows.Err()
}

// GetRun loads a full run record by ID.
func (cdb *CrawlDB) GetRun(ctx context.Context, runID int64) (*RunRecord, error) {
	var (
		run       RunRecord
		startedAt string
		durMS     int64
		depthJSON sql.NullString
	)
	err := cdb.db.QueryRowContext(ctx, `
	SELECT id, domain, started_at, strategy, max_depth, pages_fetched, pages_failed, urls_visited, duration_ms, depth_stats
	FROM runs WHERE id = ?
	`, runID).Scan(
		&run.ID, &run.Domain, &startedAt, &run.Strategy, &run.MaxDepth,
		&run.Stats.PagesFetched, &run.Stats.PagesFailed, &run.Stats.URLsVisited, &durMS, &depthJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	run.StartedAt = parseTimestamp(startedAt)
	run.Stats.Duration = time.Duration(durMS) * time.Millisecond
	if depthJSON.Valid && depthJSON.String != "" {
		if err := json.Unmarshal([]byte(depthJSON.String), &run.Stats.Depths); err != nil {
			return nil, fmt.Errorf("failed to parse depth stats: %w", err)
		}
	}

	if run.Products, err = cdb.GetRunProducts(ctx, runID); err != nil {
		return nil, err
	}
	if run.Stats.FailedURLs, err = cdb.getRunFailures(ctx, runID); err != nil {
		return nil, err
	}
	return &run, nil
}

// GetRunProducts returns the product URLs of a run in their stored order.
func (cdb *CrawlDB) GetRunProducts(ctx context.Context, runID int64) ([]string, error) {
	return cdb.queryStrings(ctx, `SELECT url FROM products WHERE run_id = ? ORDER BY position`, runID)
}

func (cdb *CrawlDB) getRunFailures(ctx context.Context, runID int64) ([]string, error) {
	return cdb.queryStrings(ctx, `SELECT url FROM fetch_failures WHERE run_id = ? ORDER BY id`, runID)
}

func (cdb *CrawlDB) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DiffLatest compares the two newest runs of domain.
// It returns ErrRunNotFound when fewer than two runs are stored.
func (cdb *CrawlDB) DiffLatest(ctx context.Context, domain string) (*model.ProductDiff, error) {
	runs, err := cdb.LatestRuns(ctx, domain, 2)
	if err != nil {
		return nil, err
	}
	if len(runs) < 2 {
		return nil, fmt.Errorf("%w: %s needs at least two runs, has %d", ErrRunNotFound, domain, len(runs))
	}

	current, previous := runs[0], runs[1]
	curProducts, err := cdb.GetRunProducts(ctx, current.ID)
	if err != nil {
		return nil, err
	}
	prevProducts, err := cdb.GetRunProducts(ctx, previous.ID)
	if err != nil {
		return nil, err
	}

	added, removed, unchanged := model.DiffProducts(prevProducts, curProducts)
	return &model.ProductDiff{
		Domain:    domain,
		Previous:  previous,
		Current:   current,
		Added:     added,
		Removed:   removed,
		Unchanged: unchanged,
	}, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,          // Format written by SaveRun
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
