package kv

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

const (
	storeFile     = "store.db"
	defaultDriver = "sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS slots (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// SQLite is a Store backed by a single-table SQLite database
type SQLite struct {
	conn *sql.DB
	path string

	// lockDir is set for stores opened with Open; writes then also take
	// the cross-process slot lock.
	lockDir string
	writeMu sync.Mutex
}

// Open opens (creating if needed) the slot database inside dir
func Open(dir string) (*SQLite, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	s, err := OpenSQLite(defaultDriver, filepath.Join(dir, storeFile))
	if err != nil {
		return nil, err
	}
	s.lockDir = dir
	return s, nil
}

// OpenSQLite opens a slot database with an explicit driver name and DSN.
// Any registered SQLite driver works ("sqlite" for modernc, "sqlite3" for mattn).
func OpenSQLite(driver, dsn string) (*SQLite, error) {
	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	// One connection: writes are serialized and :memory: databases stay shared
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=500"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	conn.Exec("PRAGMA synchronous=NORMAL")

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLite{conn: conn, path: dsn}, nil
}

// Path returns the DSN the store was opened with
func (s *SQLite) Path() string {
	return s.path
}

// Close closes the database
func (s *SQLite) Close() error {
	return s.conn.Close()
}

// Ping checks the database connection
func (s *SQLite) Ping() error {
	return s.conn.Ping()
}

func (s *SQLite) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := s.conn.QueryRow(`SELECT value FROM slots WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLite) Set(key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	unlock, err := s.lockWrites()
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	defer unlock()

	_, err = s.conn.Exec(`
		INSERT INTO slots (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *SQLite) Remove(key string) error {
	unlock, err := s.lockWrites()
	if err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	defer unlock()

	if _, err := s.conn.Exec(`DELETE FROM slots WHERE key = ?`, key); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

// lockWrites serializes writers in this process and, for directory stores,
// across processes.
func (s *SQLite) lockWrites() (func(), error) {
	s.writeMu.Lock()
	if s.lockDir == "" {
		return s.writeMu.Unlock, nil
	}
	l := newSlotLock(s.lockDir)
	if err := l.acquire(defaultLockTimeout); err != nil {
		s.writeMu.Unlock()
		return nil, err
	}
	return func() {
		l.release()
		s.writeMu.Unlock()
	}, nil
}

// Keys returns the stored keys in sorted order
func (s *SQLite) Keys() ([]string, error) {
	rows, err := s.conn.Query(`SELECT key FROM slots ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
