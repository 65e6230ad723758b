// Package store is the embedded relational persistence layer (spec §4.1).
// It is grounded on the teacher's internal/repository/postgres package —
// one typed repository per entity, constructed around a shared handle —
// but backed by database/sql + github.com/mattn/go-sqlite3 instead of
// pgx/pgxpool, since the spec requires a single embedded engine file
// rather than a client/server database.
//
// Concurrency discipline (spec §5): the embedded engine does not provide
// row-level locking across processes the way Postgres does, so all writes
// are serialized behind a single process-wide sync.Mutex — the same
// pattern the ternarybob-quaero example uses for its SQLite document
// store. Reads proceed without the mutex; SQLite's own file-level locking
// handles reader/writer isolation at the OS level.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

type Store struct {
	db       *sql.DB
	writeMu  sync.Mutex
	dbPath   string
}

// Open creates the cache directory if needed, opens the SQLite database at
// dbPath, applies the schema and additive migrations, and returns a ready
// Store.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// SQLite allows only one writer at a time regardless of Go-level pool
	// size; capping MaxOpenConns avoids SQLITE_BUSY storms under our own
	// write mutex and lets reads still share the pool.
	db.SetMaxOpenConns(8)

	s := &Store{db: db, dbPath: dbPath}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// migrate applies the base schema, then introspects every table in
// additiveColumns via PRAGMA table_info and adds any missing column
// (spec §4.1: "the Store introspects table columns and issues additive
// ALTER statements for any missing columns from a known set").
func (s *Store) migrate() error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w\n%s", err, stmt)
		}
	}

	for table, cols := range additiveColumns {
		existing, err := s.existingColumns(table)
		if err != nil {
			return fmt.Errorf("introspecting %s: %w", table, err)
		}
		for _, col := range cols {
			if existing[col.Name] {
				continue
			}
			stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, col.Name, col.Type)
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("adding column %s.%s: %w", table, col.Name, err)
			}
		}
	}
	return nil
}

func (s *Store) existingColumns(table string) (map[string]bool, error) {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid        int
			name       string
			ctype      string
			notnull    int
			dfltValue  sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return nil, err
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

// withWriteTx runs fn inside a transaction, serialized against every other
// writer via the process-wide mutex (spec §5). On fn's error the
// transaction is rolled back; otherwise it is committed.
func (s *Store) withWriteTx(fn func(*sql.Tx) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
