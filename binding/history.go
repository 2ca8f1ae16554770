package binding

import (
	"sync"

	"houseplants/models"
	"houseplants/storage"

	"github.com/rohanthewiz/logger"
)

// ChangeSource is anything that reports store changes; every storage.Store
// qualifies.
type ChangeSource interface {
	Subscribe(fn func(storage.Change)) (cancel func())
}

// HistoryBinding keeps a view's copy of the search history current.
// Mount loads it and starts following store changes for the history key,
// so writes from other tabs or processes show up as a full reload.
// There is no merging: whatever the store holds last wins.
type HistoryBinding struct {
	service *models.HistoryService
	changes ChangeSource

	mu      sync.Mutex
	history []models.SearchRecord
	loading bool
	cancel  func()

	listeners listenerSet[[]models.SearchRecord]
}

// NewHistoryBinding creates an unmounted binding. The view starts in the
// loading state until Mount runs.
func NewHistoryBinding(service *models.HistoryService, changes ChangeSource) *HistoryBinding {
	return &HistoryBinding{
		service: service,
		changes: changes,
		history: []models.SearchRecord{},
		loading: true,
	}
}

// Mount subscribes to store changes, then performs the initial load, so
// no write can land unseen between the two. Mounting an already mounted
// binding only reloads.
func (h *HistoryBinding) Mount() {
	h.subscribe()
	h.reload()
}

func (h *HistoryBinding) subscribe() {
	h.mu.Lock()
	mounted := h.cancel != nil
	h.mu.Unlock()
	if mounted || h.changes == nil {
		return
	}

	key := h.service.Key()
	cancel := h.changes.Subscribe(func(c storage.Change) {
		if c.Key != key {
			return
		}
		logger.Debug("Search history changed in store, reloading", "kind", string(c.Kind))
		h.reload()
	})

	h.mu.Lock()
	if h.cancel != nil {
		// lost a race with a concurrent Mount
		h.mu.Unlock()
		cancel()
		return
	}
	h.cancel = cancel
	h.mu.Unlock()
}

// Unmount stops following store changes. State is kept as last seen.
func (h *HistoryBinding) Unmount() {
	h.mu.Lock()
	cancel := h.cancel
	h.cancel = nil
	h.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Add records term and refreshes the local copy when the write succeeded.
func (h *HistoryBinding) Add(term string) bool {
	if !h.service.Add(term) {
		return false
	}
	h.reload()
	return true
}

// Clear deletes the history and empties the local copy on success.
func (h *HistoryBinding) Clear() bool {
	if !h.service.Clear() {
		return false
	}
	h.set([]models.SearchRecord{})
	return true
}

// History returns a copy of the current records, most recent first.
func (h *HistoryBinding) History() []models.SearchRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]models.SearchRecord, len(h.history))
	copy(out, h.history)
	return out
}

// Loading reports whether the first load has not happened yet.
func (h *HistoryBinding) Loading() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loading
}

// OnChange registers fn to receive the records after every refresh.
func (h *HistoryBinding) OnChange(fn func([]models.SearchRecord)) (remove func()) {
	return h.listeners.add(fn)
}

func (h *HistoryBinding) reload() {
	h.set(h.service.GetAll().Searches)
}

func (h *HistoryBinding) set(records []models.SearchRecord) {
	h.mu.Lock()
	h.history = records
	h.loading = false
	h.mu.Unlock()

	h.listeners.emit(h.History())
}
