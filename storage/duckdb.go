package storage

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/rohanthewiz/serr"
)

// NewDuckDB opens a DuckDB-backed store. An empty path opens an
// in-memory database, which DuckDB's driver selects with "".
func NewDuckDB(path string, quota int) (*SQL, error) {
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, serr.Wrap(err, "failed to create database directory")
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, serr.Wrap(err, "failed to open duckdb database")
	}
	return newSQL(db, "duckdb", quota)
}
