package api

import (
	"testing"
	"time"

	"houseplants/models"
	"houseplants/storage"
)

// feedClock is a settable clock for the change feed
type feedClock struct{ t time.Time }

func (c *feedClock) now() time.Time { return c.t }

func (c *feedClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func historyKey(clientID string) string {
	return clientID + storage.ScopeSeparator + models.HistoryStorageKey
}

func trackedClients(f *ChangeFeed) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

func TestChangeFeedRevisions(t *testing.T) {
	store := storage.NewMemory(0)
	defer store.Close()
	feed := NewChangeFeed(store)
	defer feed.Close()

	if err := store.Set(historyKey("alice"), []byte("{}")); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := store.Set("alice/other", []byte("{}")); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if rev := feed.Revision("alice"); rev != 1 {
		t.Errorf("expected revision 1, got %d", rev)
	}
	if rev := feed.Revision("bob"); rev != 0 {
		t.Errorf("expected revision 0 for a quiet client, got %d", rev)
	}

	done := make(chan int64, 1)
	go func() { done <- feed.Wait("alice", 1, 2*time.Second) }()
	time.Sleep(20 * time.Millisecond)
	if err := store.Remove(historyKey("alice")); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	select {
	case rev := <-done:
		if rev != 2 {
			t.Errorf("expected revision 2 after clear, got %d", rev)
		}
	case <-time.After(time.Second):
		t.Fatal("waiter was not released by the change")
	}
}

func TestChangeFeedForgetsIdleClients(t *testing.T) {
	store := storage.NewMemory(0)
	defer store.Close()
	feed := NewChangeFeed(store)
	defer feed.Close()

	clock := &feedClock{t: time.Now()}
	feed.now = clock.now
	feed.lastSweep = clock.t

	for _, id := range []string{"alice", "bob", "carol"} {
		if err := store.Set(historyKey(id), []byte("{}")); err != nil {
			t.Fatalf("set failed: %v", err)
		}
	}
	if n := trackedClients(feed); n != 3 {
		t.Fatalf("expected 3 tracked clients, got %d", n)
	}

	// bob keeps polling, carol has a poll in flight
	clock.advance(feedIdleTimeout / 2)
	feed.Revision("bob")
	feed.mu.Lock()
	feed.waiters["carol"] = make(chan struct{})
	feed.mu.Unlock()

	clock.advance(feedIdleTimeout/2 + time.Minute)
	if err := store.Set(historyKey("dave"), []byte("{}")); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	feed.mu.Lock()
	_, hasAlice := feed.clients["alice"]
	_, hasBob := feed.clients["bob"]
	_, hasCarol := feed.clients["carol"]
	_, hasDave := feed.clients["dave"]
	feed.mu.Unlock()

	if hasAlice {
		t.Error("idle client should be forgotten")
	}
	if !hasBob || !hasCarol || !hasDave {
		t.Errorf("active clients should be kept: bob=%v carol=%v dave=%v", hasBob, hasCarol, hasDave)
	}
	if rev := feed.Revision("alice"); rev != 0 {
		t.Errorf("forgotten client should read revision 0, got %d", rev)
	}
}
