package models

import (
	"errors"

	"houseplants/storage"

	"github.com/goccy/go-json"
	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
)

// ============================================================================
// History Codec
//
// Reads and writes the versioned history envelope under a single store key.
// Nothing here returns an error to callers: unreadable history is treated
// as no history, and failed writes are reported as false.
// ============================================================================

const (
	// HistoryStorageKey is the single key the envelope lives under
	HistoryStorageKey = "houseplants_search_history"

	// SchemaVersion tags every envelope written by this build
	SchemaVersion = "1.0.0"

	// MaxSearches caps the number of retained records
	MaxSearches = 5

	// quotaFallbackSearches is how many records the one retry keeps after
	// the store reports it is full
	quotaFallbackSearches = 3
)

// HistoryCodec persists HistoryEnvelopes to a Store.
type HistoryCodec struct {
	store storage.Store
	key   string
}

// NewHistoryCodec binds a codec to store under HistoryStorageKey.
func NewHistoryCodec(store storage.Store) *HistoryCodec {
	return &HistoryCodec{store: store, key: HistoryStorageKey}
}

// Key returns the store key the codec reads and writes.
func (c *HistoryCodec) Key() string {
	return c.key
}

// Load returns the stored envelope, or an empty one when nothing usable is
// stored. An envelope from another schema version is discarded; there is no
// migration path, so bumping SchemaVersion drops every user's history.
func (c *HistoryCodec) Load() HistoryEnvelope {
	data, ok, err := c.store.Get(c.key)
	if err != nil {
		logger.LogErr(serr.Wrap(err, "failed to read search history"), "history load")
		return EmptyEnvelope()
	}
	if !ok || len(data) == 0 {
		return EmptyEnvelope()
	}

	var env HistoryEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		logger.LogErr(serr.Wrap(err, "failed to parse search history"), "history load")
		return EmptyEnvelope()
	}

	if env.Version != SchemaVersion {
		logger.Warn("Schema version mismatch, clearing history",
			"stored", env.Version, "expected", SchemaVersion)
		return EmptyEnvelope()
	}

	if env.Searches == nil {
		env.Searches = []SearchRecord{}
	}
	return env
}

// Save writes records (truncated to MaxSearches) as the current envelope.
// When the store is full it retries once with quotaFallbackSearches records.
func (c *HistoryCodec) Save(records []SearchRecord) bool {
	err := c.write(truncate(records, MaxSearches))
	if err == nil {
		return true
	}

	if !errors.Is(err, storage.ErrQuotaExceeded) {
		logger.LogErr(err, "failed to save search history")
		return false
	}

	logger.LogErr(err, "search history quota exceeded, retrying with fewer records",
		"keep", quotaFallbackSearches)
	if err := c.write(truncate(records, quotaFallbackSearches)); err != nil {
		logger.LogErr(err, "failed to save search history even with reduced data")
		return false
	}
	return true
}

// Remove deletes the stored envelope.
func (c *HistoryCodec) Remove() bool {
	if err := c.store.Remove(c.key); err != nil {
		logger.LogErr(serr.Wrap(err, "failed to clear search history"), "history clear")
		return false
	}
	return true
}

// write returns store errors unwrapped so quota failures stay detectable.
func (c *HistoryCodec) write(records []SearchRecord) error {
	data, err := json.Marshal(HistoryEnvelope{Version: SchemaVersion, Searches: records})
	if err != nil {
		return serr.Wrap(err, "failed to encode search history")
	}
	return c.store.Set(c.key, data)
}

func truncate(records []SearchRecord, n int) []SearchRecord {
	if records == nil {
		return []SearchRecord{}
	}
	if len(records) > n {
		return records[:n]
	}
	return records
}
