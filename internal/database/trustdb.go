package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/validity/internal/model"
	"github.com/nao1215/validity/internal/scorer"
)

// FileName is the database file inside the data directory.
const FileName = "validity.db"

var (
	// ErrDatabaseNotFound is returned by Open when the file is missing and
	// CreateIfNotExists is false.
	ErrDatabaseNotFound = errors.New("trust database not found")

	// ErrDomainNotFound is returned when a domain has no entry.
	ErrDomainNotFound = errors.New("domain not found in trust database")

	// ErrEmptyDomain is returned for blank domain names.
	ErrEmptyDomain = errors.New("domain must not be empty")

	// ErrScoreOutOfRange is returned for scores outside [0, 100].
	ErrScoreOutOfRange = errors.New("trust score must be between 0 and 100")
)

// TrustDB is the SQLite-backed domain trust table.
type TrustDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures TrustDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file if missing.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the options used by the trust commands.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// ReadOptions returns the options used during evaluation: the database is
// opened only if it already exists.
func ReadOptions() Options {
	return Options{
		CreateIfNotExists: false,
		EnableWAL:         true,
	}
}

// Open opens or creates the trust database in dbDir.
func Open(dbDir string, opts Options) (*TrustDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrDatabaseNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
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

	// SQLite has a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	tdb := &TrustDB{db: db, dbPath: dbPath}

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
func (t *TrustDB) Path() string {
	return t.dbPath
}

// Close closes the database connection.
func (t *TrustDB) Close() error {
	return t.db.Close()
}

func (t *TrustDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS domain_trust (
		domain TEXT PRIMARY KEY,
		score REAL NOT NULL CHECK (score >= 0 AND score <= 100),
		note TEXT NOT NULL DEFAULT '',
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := t.db.ExecContext(context.Background(), schema)
	return err
}

// DomainEntry is one row of the trust table.
type DomainEntry struct {
	Domain    string
	Score     float64
	Note      string
	UpdatedAt time.Time
}

// SetDomainTrust inserts or replaces the score of a domain.
// The domain is normalized (lowercase, no "www.", no port).
func (t *TrustDB) SetDomainTrust(ctx context.Context, domain string, score float64, note string) error {
	domain = scorer.NormalizeHost(domain)
	if domain == "" {
		return ErrEmptyDomain
	}
	if !(score >= model.MinScore && score <= model.MaxScore) {
		return fmt.Errorf("%w: %v", ErrScoreOutOfRange, score)
	}

	query := `
	INSERT INTO domain_trust (domain, score, note, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(domain) DO UPDATE SET
		score = excluded.score,
		note = excluded.note,
		updated_at = excluded.updated_at
	`
	if _, err := t.db.ExecContext(ctx, query, domain, score, note, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("failed to store trust for %s: %w", domain, err)
	}
	return nil
}

// GetDomainTrust returns the exact entry of a domain.
func (t *TrustDB) GetDomainTrust(ctx context.Context, domain string) (*DomainEntry, error) {
	domain = scorer.NormalizeHost(domain)
	if domain == "" {
		return nil, ErrEmptyDomain
	}

	query := `SELECT domain, score, note, updated_at FROM domain_trust WHERE domain = ?`
	e, err := scanEntry(t.db.QueryRowContext(ctx, query, domain))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrDomainNotFound, domain)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query trust for %s: %w", domain, err)
	}
	return e, nil
}

// DomainTrust returns the score for host, trying the host itself and then
// each parent domain. The matched domain is returned alongside the score.
func (t *TrustDB) DomainTrust(ctx context.Context, host string) (*DomainEntry, error) {
	for _, candidate := range scorer.DomainCandidates(host) {
		e, err := t.GetDomainTrust(ctx, candidate)
		if errors.Is(err, ErrDomainNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return e, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrDomainNotFound, host)
}

// LookupDomainTrust makes TrustDB usable in a scorer.Chain.
func (t *TrustDB) LookupDomainTrust(ctx context.Context, host string) (float64, bool, error) {
	e, err := t.DomainTrust(ctx, host)
	if errors.Is(err, ErrDomainNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return e.Score, true, nil
}

// DeleteDomainTrust removes a domain. Deleting a missing domain is an error.
func (t *TrustDB) DeleteDomainTrust(ctx context.Context, domain string) error {
	domain = scorer.NormalizeHost(domain)
	if domain == "" {
		return ErrEmptyDomain
	}

	res, err := t.db.ExecContext(ctx, `DELETE FROM domain_trust WHERE domain = ?`, domain)
	if err != nil {
		return fmt.Errorf("failed to delete trust for %s: %w", domain, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete trust for %s: %w", domain, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrDomainNotFound, domain)
	}
	return nil
}

// ListDomainTrust returns all entries ordered by domain.
func (t *TrustDB) ListDomainTrust(ctx context.Context) ([]DomainEntry, error) {
	rows, err := t.db.QueryContext(ctx, `SELECT domain, score, note, updated_at FROM domain_trust ORDER BY domain`)
	if err != nil {
		return nil, fmt.Errorf("failed to list trust entries: %w", err)
	}
	defer rows.Close() //nolint:errcheck // rows.Err is checked below

	var entries []DomainEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trust entry: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trust entries: %w", err)
	}
	return entries, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*DomainEntry, error) {
	var (
		e         DomainEntry
		updatedAt string
	)
	if err := row.Scan(&e.Domain, &e.Score, &e.Note, &updatedAt); err != nil {
		return nil, err
	}
	e.UpdatedAt = parseTimestamp(updatedAt)
	return &e, nil
}

// timestampFormats lists the layouts SQLite may hand back.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
}

// parseTimestamp returns the zero time when no layout matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
