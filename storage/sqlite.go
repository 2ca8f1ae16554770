package storage

import (
	"database/sql"
	"os"
	"path/filepath"

	"github.com/rohanthewiz/serr"
	_ "modernc.org/sqlite"
)

// NewSQLite opens a pure-Go SQLite store. Use ":memory:" for a throwaway
// database.
func NewSQLite(path string, quota int) (*SQL, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, serr.Wrap(err, "failed to create database directory")
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, serr.Wrap(err, "failed to open sqlite database")
	}
	// A single connection keeps ":memory:" databases shared across queries
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, serr.Wrap(err, "failed to set sqlite busy timeout")
	}
	return newSQL(db, "sqlite", quota)
}
