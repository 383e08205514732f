package revisionlog

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/coreseekdev/texere/internal/telemetry"
	"github.com/coreseekdev/texere/pkg/coreerr"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLite is a durable Log backed by a SQLite table keyed by
// (doc_id, revision_number), with an embed.FS-driven migration runner.
//
// Atomicity: each Submit opens a BEGIN IMMEDIATE transaction (via the
// "_txlock=immediate" DSN parameter), which takes SQLite's write lock
// before reading the document's current head, so two concurrent
// transactions racing to append cannot both observe the same head and
// both believe they may proceed — the loser blocks until the winner
// commits, then re-reads a head that has moved and returns ResultStale.
// That, plus the table's PRIMARY KEY(doc_id, revision_number), is the
// "atomic compare-and-append" the store-abstraction contract requires.
type SQLite struct {
	db  *sql.DB
	log *telemetry.Logger
}

// OpenSQLite opens (creating if necessary) a SQLite-backed revision log
// at path and applies pending migrations.
func OpenSQLite(path string) (*SQLite, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_txlock=immediate"
	} else if !strings.Contains(dsn, "_txlock") {
		dsn += "&_txlock=immediate"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite writers serialize; avoid pool contention with the file lock.

	s := &SQLite{db: db, log: telemetry.FromEnv("revisionlog")}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) migrate() error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			filename TEXT NOT NULL,
			applied_at INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	var currentVersion int
	s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion)

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	applied := 0
	for i, entry := range entries {
		version := i + 1
		if version <= currentVersion {
			continue
		}

		content, err := migrationsFS.ReadFile(filepath.Join("migrations", entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version, filename, applied_at) VALUES (?, ?, ?)",
			version, entry.Name(), time.Now().Unix(),
		); err != nil {
			return fmt.Errorf("record migration %s: %w", entry.Name(), err)
		}
		applied++
	}

	if applied > 0 {
		s.log.Info("applied %d migration(s)", applied)
	}
	return nil
}

// Submit implements Log.
func (s *SQLite) Submit(ctx context.Context, docID string, onRevisionNumber int64, changeSet []byte, maxCatchUp int) (AppendResult, int64, []Revision, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("%w: begin: %v", coreerr.StorageTransient, err)
	}
	defer tx.Rollback()

	var head int64
	if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(revision_number), 0) FROM revisions WHERE doc_id = ?", docID).Scan(&head); err != nil {
		return 0, 0, nil, fmt.Errorf("%w: read head: %v", coreerr.StorageTransient, err)
	}

	if onRevisionNumber > head {
		return ResultStale, 0, nil, fmt.Errorf("%w: on_revision_number %d is ahead of log head %d for doc %s", coreerr.InvalidInput, onRevisionNumber, head, docID)
	}

	if onRevisionNumber < head {
		catchUp, err := s.queryRevisions(ctx, tx, docID, onRevisionNumber, maxCatchUp)
		if err != nil {
			return 0, 0, nil, err
		}
		return ResultStale, head, catchUp, nil
	}

	newNumber := head + 1
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO revisions (doc_id, revision_number, change_set, committed_at) VALUES (?, ?, ?, ?)",
		docID, newNumber, changeSet, time.Now().Unix(),
	); err != nil {
		return 0, 0, nil, fmt.Errorf("%w: insert revision: %v", coreerr.StorageTransient, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, nil, fmt.Errorf("%w: commit: %v", coreerr.StorageTransient, err)
	}
	return ResultAck, newNumber, nil, nil
}

// GetRevisions implements Log.
func (s *SQLite) GetRevisions(ctx context.Context, docID string, afterRevisionNumber int64, limit int) ([]Revision, bool, int64, error) {
	var head int64
	if err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(revision_number), 0) FROM revisions WHERE doc_id = ?", docID).Scan(&head); err != nil {
		return nil, false, 0, fmt.Errorf("read head: %w", err)
	}

	revs, err := s.queryRevisions(ctx, s.db, docID, afterRevisionNumber, limit)
	if err != nil {
		return nil, false, 0, err
	}
	last := afterRevisionNumber
	if len(revs) > 0 {
		last = revs[len(revs)-1].Number
	}
	return revs, last == head, head, nil
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func (s *SQLite) queryRevisions(ctx context.Context, q queryer, docID string, afterRevisionNumber int64, limit int) ([]Revision, error) {
	query := "SELECT revision_number, change_set, committed_at FROM revisions WHERE doc_id = ? AND revision_number > ? ORDER BY revision_number ASC"
	args := []interface{}{docID, afterRevisionNumber}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query revisions: %w", err)
	}
	defer rows.Close()

	var out []Revision
	var unixSeconds int64
	for rows.Next() {
		var rev Revision
		rev.DocID = docID
		if err := rows.Scan(&rev.Number, &rev.ChangeSet, &unixSeconds); err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		rev.CommittedAt = time.Unix(unixSeconds, 0).UTC()
		out = append(out, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
