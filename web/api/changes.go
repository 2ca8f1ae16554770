package api

import (
	"strings"
	"sync"
	"time"

	"houseplants/models"
	"houseplants/storage"

	"github.com/rohanthewiz/logger"
)

// Clients with no change and no poll for this long are forgotten.
const feedIdleTimeout = time.Hour

// ChangeFeed turns store notifications into per-client revision numbers
// that browsers long-poll. It is the server-side stand-in for the storage
// event: a tab only learns that its history changed and reloads it.
//
// A forgotten client reads revision 0 again. Its next poll then reports a
// change, which costs one extra reload and nothing else.
type ChangeFeed struct {
	mu        sync.Mutex
	clients   map[string]*feedClient
	waiters   map[string]chan struct{}
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
	cancel    func()
}

type feedClient struct {
	revision   int64
	lastActive time.Time
}

// NewChangeFeed follows base, the unscoped store holding every client's
// namespace.
func NewChangeFeed(base storage.Store) *ChangeFeed {
	f := &ChangeFeed{
		clients: make(map[string]*feedClient),
		waiters: make(map[string]chan struct{}),
		idle:    feedIdleTimeout,
		now:     time.Now,
	}
	f.lastSweep = f.now()
	f.cancel = base.Subscribe(f.observe)
	return f
}

// observe expects keys of the form "<clientID>/<HistoryStorageKey>"
func (f *ChangeFeed) observe(c storage.Change) {
	clientID, key, ok := strings.Cut(c.Key, storage.ScopeSeparator)
	if !ok || key != models.HistoryStorageKey {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	f.touch(clientID, now).revision++
	if ch, exists := f.waiters[clientID]; exists {
		close(ch)
		delete(f.waiters, clientID)
	}

	if now.Sub(f.lastSweep) >= f.idle {
		f.evictIdle(now)
	}
}

// Revision returns the number of changes seen for clientID.
func (f *ChangeFeed) Revision(clientID string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.revisionLocked(clientID)
}

// Wait blocks until clientID's revision differs from since or wait
// elapses, and returns the revision at that point.
func (f *ChangeFeed) Wait(clientID string, since int64, wait time.Duration) int64 {
	f.mu.Lock()
	if rev := f.revisionLocked(clientID); rev != since {
		f.mu.Unlock()
		return rev
	}
	ch, exists := f.waiters[clientID]
	if !exists {
		ch = make(chan struct{})
		f.waiters[clientID] = ch
	}
	f.mu.Unlock()

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ch:
	case <-timer.C:
	}
	return f.Revision(clientID)
}

// Close stops following the store and releases every waiter.
func (f *ChangeFeed) Close() {
	f.cancel()

	f.mu.Lock()
	for id, ch := range f.waiters {
		close(ch)
		delete(f.waiters, id)
	}
	f.mu.Unlock()
}

func (f *ChangeFeed) revisionLocked(clientID string) int64 {
	if c, ok := f.clients[clientID]; ok {
		c.lastActive = f.now()
		return c.revision
	}
	return 0
}

func (f *ChangeFeed) touch(clientID string, now time.Time) *feedClient {
	c, ok := f.clients[clientID]
	if !ok {
		c = &feedClient{}
		f.clients[clientID] = c
	}
	c.lastActive = now
	return c
}

// evictIdle drops clients idle past f.idle. Clients with a poll in flight
// are kept.
func (f *ChangeFeed) evictIdle(now time.Time) {
	f.lastSweep = now

	evicted := 0
	for id, c := range f.clients {
		if _, waiting := f.waiters[id]; waiting {
			continue
		}
		if now.Sub(c.lastActive) >= f.idle {
			delete(f.clients, id)
			evicted++
		}
	}
	if evicted > 0 {
		logger.Debug("Change feed dropped idle clients", "evicted", evicted, "remaining", len(f.clients))
	}
}
