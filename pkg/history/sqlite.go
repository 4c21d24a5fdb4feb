package history

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater/v2"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/umputun/newswatch/pkg/domain"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore keeps history in a SQLite table, ordered by insertion id
type SQLiteStore struct {
	db    *sqlx.DB
	limit int
}

// entrySQL represents a history row for SQL operations
type entrySQL struct {
	ID       int64  `db:"id"`
	Link     string `db:"link"`
	Title    string `db:"title"`
	Date     string `db:"date"`
	Category string `db:"category"`
}

// NewSQLiteStore opens the database and makes sure the schema exists
func NewSQLiteStore(ctx context.Context, dsn string, limit int) (*SQLiteStore, error) {
	if limit <= 0 {
		limit = DefaultCap
	}

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &SQLiteStore{db: db, limit: limit}, nil
}

// Load returns all entries, oldest first
func (s *SQLiteStore) Load(ctx context.Context) ([]domain.HistoryEntry, error) {
	var rows []entrySQL
	if err := s.db.SelectContext(ctx, &rows, "SELECT id, link, title, date, category FROM history ORDER BY id"); err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	res := make([]domain.HistoryEntry, 0, len(rows))
	for _, r := range rows {
		cat, err := domain.ParseCategory(r.Category)
		if err != nil {
			cat = domain.CategoryGeneral
		}
		res = append(res, domain.HistoryEntry{Title: r.Title, Link: r.Link, Date: r.Date, Category: cat})
	}
	return res, nil
}

// Save replaces the stored log with the most recent entries in one transaction.
// Lock errors are retried with backoff, other errors fail immediately.
func (s *SQLiteStore) Save(ctx context.Context, entries []domain.HistoryEntry) error {
	entries = Truncate(entries, s.limit)
	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))

	var critical *criticalError
	err := retrier.Do(ctx, func() error {
		err := s.replace(ctx, entries)
		if err == nil || isLockError(err) {
			return err
		}
		critical = &criticalError{err: err}
		return nil // stop retrying
	})
	if critical != nil {
		return critical.err
	}
	if err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	lgr.Printf("[DEBUG] saved %d history entries to sqlite", len(entries))
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// String returns store description for logs
func (s *SQLiteStore) String() string { return "sqlite" }

func (s *SQLiteStore) replace(ctx context.Context, entries []domain.HistoryEntry) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM history"); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}

	query := `INSERT INTO history (link, title, date, category) VALUES (:link, :title, :date, :category)
		ON CONFLICT(link) DO NOTHING`
	for _, e := range entries {
		row := entrySQL{Link: e.Link, Title: e.Title, Date: e.Date, Category: string(e.Category)}
		if _, err = tx.NamedExecContext(ctx, query, row); err != nil {
			return fmt.Errorf("insert history entry %s: %w", e.Link, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit history: %w", err)
	}
	return nil
}

// criticalError wraps an error that must not be retried
type criticalError struct {
	err error
}

func (e *criticalError) Error() string {
	return e.err.Error()
}

// isLockError checks if an error is a SQLite lock/busy error
func isLockError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "SQLITE_BUSY") ||
		strings.Contains(errStr, "database is locked") ||
		strings.Contains(errStr, "database table is locked")
}
