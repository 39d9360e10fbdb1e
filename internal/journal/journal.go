package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"orderdesk/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

const defaultKeep = 500

// Config configures the SQLite action journal.
type Config struct {
	DBPath string // path to SQLite database file, e.g. "data/journal.db"
	Keep   int    // rows retained after pruning, 0 means defaultKeep
}

// Journal records order actions (place, cancel, modify) in SQLite so an
// operator can reconstruct what the desk did and when.
type Journal struct {
	db   *sql.DB
	keep int
}

var _ model.ActionJournal = (*Journal)(nil)

// DB returns the underlying sql.DB for health checks.
func (j *Journal) DB() *sql.DB { return j.db }

// New opens the journal database with WAL mode and creates the schema.
func New(cfg Config) (*Journal, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	keep := cfg.Keep
	if keep <= 0 {
		keep = defaultKeep
	}

	log.Printf("[journal] opened database at %s", cfg.DBPath)
	return &Journal{db: db, keep: keep}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS actions (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			kind       TEXT    NOT NULL,
			detail     TEXT    NOT NULL,
			outcome    TEXT    NOT NULL,
			at         INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_actions_at ON actions (at DESC);
	`)
	return err
}

// Record appends one action row and prunes old rows past the retention
// limit. Pruning failures are logged, not returned.
func (j *Journal) Record(ctx context.Context, a model.AuditAction) error {
	at := a.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO actions (kind, detail, outcome, at) VALUES (?, ?, ?, ?)`,
		a.Kind, a.Detail, a.Outcome, at.Unix(),
	)
	if err != nil {
		return fmt.Errorf("sqlite insert action: %w", err)
	}

	_, err = j.db.ExecContext(ctx,
		`DELETE FROM actions WHERE id NOT IN (SELECT id FROM actions ORDER BY at DESC, id DESC LIMIT ?)`,
		j.keep,
	)
	if err != nil {
		log.Printf("[journal] prune warning: %v", err)
	}
	return nil
}

// Recent returns up to limit actions, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]model.AuditAction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, kind, detail, outcome, at FROM actions ORDER BY at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite query actions: %w", err)
	}
	defer rows.Close()

	var out []model.AuditAction
	for rows.Next() {
		var a model.AuditAction
		var at int64
		if err := rows.Scan(&a.ID, &a.Kind, &a.Detail, &a.Outcome, &at); err != nil {
			return nil, err
		}
		a.At = time.Unix(at, 0).UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}
