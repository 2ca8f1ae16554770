package storage

import (
	"database/sql"
	"sync"
	"time"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
)

// SQL is a store kept in a single kv_store table. The DuckDB and SQLite
// constructors both return one; only the driver differs.
type SQL struct {
	notifier
	db     *sql.DB
	driver string
	quota  int
	mu     sync.RWMutex // serializes writes; DuckDB allows one writer at a time
	closed bool
}

func newSQL(db *sql.DB, driver string, quota int) (*SQL, error) {
	if err := migrateKV(db); err != nil {
		db.Close()
		return nil, serr.Wrap(err, "failed to migrate "+driver+" store")
	}
	return &SQL{db: db, driver: driver, quota: quota}, nil
}

func (s *SQL) Get(key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, false, ErrClosed
	}

	var value string
	err := s.db.QueryRow("SELECT value FROM kv_store WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, serr.Wrap(err, "failed to read key from "+s.driver)
	}
	return []byte(value), true, nil
}

func (s *SQL) Set(key string, value []byte) error {
	if err := checkQuota(s.quota, key, value); err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO kv_store (key, value, updated_at) VALUES (?, ?, ?)",
		key, string(value), time.Now().UnixMilli(),
	)
	s.mu.Unlock()
	if err != nil {
		return serr.Wrap(err, "failed to write key to "+s.driver)
	}

	s.publish(Change{Key: key, Kind: ChangeSet})
	return nil
}

func (s *SQL) Remove(key string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	res, err := s.db.Exec("DELETE FROM kv_store WHERE key = ?", key)
	s.mu.Unlock()
	if err != nil {
		return serr.Wrap(err, "failed to delete key from "+s.driver)
	}

	if n, err := res.RowsAffected(); err == nil && n > 0 {
		s.publish(Change{Key: key, Kind: ChangeRemove})
	}
	return nil
}

func (s *SQL) Subscribe(fn func(Change)) func() {
	return s.subscribe(fn)
}

func (s *SQL) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.reset()
	if err := s.db.Close(); err != nil {
		logger.LogErr(err, "failed to close store database", "driver", s.driver)
		return serr.Wrap(err, "failed to close "+s.driver+" store")
	}
	return nil
}

// migrateKV creates the key-value table and its index.
func migrateKV(db *sql.DB) error {
	tableSQL := `
	CREATE TABLE IF NOT EXISTS kv_store (
		key VARCHAR(255) PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at BIGINT NOT NULL
	)`

	if _, err := db.Exec(tableSQL); err != nil {
		return serr.Wrap(err, "failed to create kv_store table")
	}

	indexSQL := "CREATE INDEX IF NOT EXISTS idx_kv_store_updated ON kv_store(updated_at)"
	if _, err := db.Exec(indexSQL); err != nil {
		// Lookups are by primary key; the index only helps housekeeping
		logger.LogErr(err, "failed to create index", "sql", indexSQL)
	}

	logger.Debug("kv_store migration completed")
	return nil
}
