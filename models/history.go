package models

import (
	"strings"
	"time"

	"houseplants/storage"

	"github.com/google/uuid"
)

// SourceManual marks records created from typed or clicked searches
const SourceManual = "manual"

// SearchRecord is one remembered search term.
// Term keeps the casing it was first entered with; lookups ignore case.
type SearchRecord struct {
	ID           string `json:"id" msgpack:"id"`
	Term         string `json:"term" msgpack:"term"`
	Timestamp    int64  `json:"timestamp" msgpack:"timestamp"`     // creation, epoch ms
	ResultCount  *int   `json:"resultCount" msgpack:"resultCount"` // nil until a search API reports one
	Source       string `json:"source" msgpack:"source"`
	LastAccessed int64  `json:"lastAccessed" msgpack:"lastAccessed"` // epoch ms
}

// HistoryEnvelope is the versioned container persisted under one key.
// Searches are ordered most recent first.
type HistoryEnvelope struct {
	Version  string         `json:"version" msgpack:"version"`
	Searches []SearchRecord `json:"searches" msgpack:"searches"`
}

// EmptyEnvelope returns an envelope with no searches at the current version.
func EmptyEnvelope() HistoryEnvelope {
	return HistoryEnvelope{Version: SchemaVersion, Searches: []SearchRecord{}}
}

// Terms returns the search terms in envelope order.
func (e HistoryEnvelope) Terms() []string {
	terms := make([]string, len(e.Searches))
	for i, s := range e.Searches {
		terms[i] = s.Term
	}
	return terms
}

// ============================================================================
// History Service
//
// add / get / clear / updateResultCount over the codec. Each operation is a
// synchronous read-modify-write of the whole envelope; concurrent writers
// sharing a store resolve as last writer wins.
// ============================================================================

// HistoryService manages the recent-search list for one store.
type HistoryService struct {
	codec *HistoryCodec
	now   func() time.Time
	newID func() string
}

// HistoryOption customizes a HistoryService.
type HistoryOption func(*HistoryService)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) HistoryOption {
	return func(s *HistoryService) { s.now = now }
}

// WithIDGenerator replaces the uuid-based record id generator.
func WithIDGenerator(newID func() string) HistoryOption {
	return func(s *HistoryService) { s.newID = newID }
}

// NewHistoryService creates a service persisting to store.
func NewHistoryService(store storage.Store, opts ...HistoryOption) *HistoryService {
	s := &HistoryService{
		codec: NewHistoryCodec(store),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the store key holding this service's envelope.
func (s *HistoryService) Key() string {
	return s.codec.Key()
}

// GetAll returns the current envelope.
func (s *HistoryService) GetAll() HistoryEnvelope {
	return s.codec.Load()
}

// Add records a search for term. Blank terms are rejected without touching
// the store. A term already present (ignoring case) is moved to the front
// with a fresh LastAccessed instead of being duplicated.
func (s *HistoryService) Add(term string) bool {
	normalized := strings.TrimSpace(term)
	if normalized == "" {
		return false
	}

	history := s.codec.Load()
	now := s.now().UnixMilli()

	if i := findTerm(history.Searches, normalized); i >= 0 {
		existing := history.Searches[i]
		existing.LastAccessed = now
		history.Searches = moveToFront(history.Searches, i, existing)
	} else {
		record := SearchRecord{
			ID:           s.newID(),
			Term:         normalized,
			Timestamp:    now,
			Source:       SourceManual,
			LastAccessed: now,
		}
		history.Searches = append([]SearchRecord{record}, history.Searches...)
	}

	// Oldest entries fall off the end
	return s.codec.Save(truncate(history.Searches, MaxSearches))
}

// Clear deletes the stored history. It only fails when the store does.
func (s *HistoryService) Clear() bool {
	return s.codec.Remove()
}

// UpdateResultCount attaches a result count to an existing record.
// It returns false when no record matches term.
func (s *HistoryService) UpdateResultCount(term string, count int) bool {
	history := s.codec.Load()

	i := findTerm(history.Searches, strings.TrimSpace(term))
	if i < 0 {
		return false
	}

	c := count
	history.Searches[i].ResultCount = &c
	return s.codec.Save(history.Searches)
}

// findTerm returns the index of the record matching term ignoring case, or -1.
func findTerm(records []SearchRecord, term string) int {
	if term == "" {
		return -1
	}
	for i, r := range records {
		if strings.EqualFold(r.Term, term) {
			return i
		}
	}
	return -1
}

// moveToFront removes index i and reinserts rec at position 0.
func moveToFront(records []SearchRecord, i int, rec SearchRecord) []SearchRecord {
	out := make([]SearchRecord, 0, len(records))
	out = append(out, rec)
	out = append(out, records[:i]...)
	out = append(out, records[i+1:]...)
	return out
}
