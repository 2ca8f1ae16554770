package binding_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"houseplants/binding"
	"houseplants/models"
	"houseplants/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func records(terms ...string) []models.SearchRecord {
	out := make([]models.SearchRecord, len(terms))
	for i, term := range terms {
		out[i] = models.SearchRecord{ID: term, Term: term, Source: models.SourceManual}
	}
	return out
}

func termsOf(recs []models.SearchRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Term
	}
	return out
}

// ============================================================================
// Debounce
// ============================================================================

func TestDebouncerSettlesOnLastValue(t *testing.T) {
	var mu sync.Mutex
	var settled []string

	d := binding.NewDebouncer("", 40*time.Millisecond, func(v string) {
		mu.Lock()
		settled = append(settled, v)
		mu.Unlock()
	})
	defer d.Stop()

	d.Set("p")
	d.Set("po")
	d.Set("pot")
	assert.Equal(t, "", d.Value(), "value must not change before the delay")
	assert.True(t, d.Pending())

	require.Eventually(t, func() bool { return d.Value() == "pot" }, time.Second, 5*time.Millisecond)
	assert.False(t, d.Pending())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"pot"}, settled, "intermediate values must be dropped")
}

func TestDebouncerRestartsOnNewInput(t *testing.T) {
	d := binding.NewDebouncer(0, 60*time.Millisecond, nil)
	defer d.Stop()

	d.Set(1)
	time.Sleep(35 * time.Millisecond)
	d.Set(2)
	time.Sleep(35 * time.Millisecond)
	assert.Equal(t, 0, d.Value(), "second Set must restart the delay")

	require.Eventually(t, func() bool { return d.Value() == 2 }, time.Second, 5*time.Millisecond)
}

func TestDebouncerStopCancelsPending(t *testing.T) {
	var calls atomic.Int32
	d := binding.NewDebouncer("initial", 20*time.Millisecond, func(string) { calls.Add(1) })

	d.Set("typed")
	d.Stop()
	time.Sleep(60 * time.Millisecond)

	assert.Equal(t, "initial", d.Value())
	assert.Zero(t, calls.Load())

	d.Set("after stop")
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, "initial", d.Value(), "a stopped debouncer ignores input")
}

// ============================================================================
// Outside-interaction dismissal
// ============================================================================

func TestDismisserOutsideOnly(t *testing.T) {
	bus := &binding.PointerBus{}
	var closes atomic.Int32
	d := binding.NewDismisser(bus, binding.Rect{X: 10, Y: 10, Width: 20, Height: 5}, func() { closes.Add(1) })

	// not mounted yet
	bus.Dispatch(binding.PointerEvent{Kind: binding.PointerDown, At: binding.Point{X: 0, Y: 0}})
	assert.Zero(t, closes.Load())

	d.Mount()
	d.Mount()

	bus.Dispatch(binding.PointerEvent{Kind: binding.PointerDown, At: binding.Point{X: 15, Y: 12}})
	assert.Zero(t, closes.Load(), "inside press must not dismiss")

	bus.Dispatch(binding.PointerEvent{Kind: binding.PointerMove, At: binding.Point{X: 0, Y: 0}})
	assert.Zero(t, closes.Load(), "moves must not dismiss")

	bus.Dispatch(binding.PointerEvent{Kind: binding.PointerDown, At: binding.Point{X: 0, Y: 0}})
	bus.Dispatch(binding.PointerEvent{Kind: binding.TouchStart, At: binding.Point{X: 30, Y: 10}})
	assert.Equal(t, int32(2), closes.Load(), "mounting twice must not double the listener")

	d.Unmount()
	bus.Dispatch(binding.PointerEvent{Kind: binding.PointerDown, At: binding.Point{X: 0, Y: 0}})
	assert.Equal(t, int32(2), closes.Load(), "unmounted dismisser must be silent")
}

func TestDismisserRegions(t *testing.T) {
	bus := &binding.PointerBus{}
	var closes atomic.Int32
	region := binding.Regions{
		binding.Rect{X: 0, Y: 0, Width: 10, Height: 1},
		binding.Rect{X: 0, Y: 1, Width: 10, Height: 5},
	}
	d := binding.NewDismisser(bus, region, func() { closes.Add(1) })
	d.Mount()
	defer d.Unmount()

	bus.Dispatch(binding.PointerEvent{Kind: binding.PointerDown, At: binding.Point{X: 3, Y: 4}})
	assert.Zero(t, closes.Load())

	d.SetRegion(binding.Rect{X: 0, Y: 0, Width: 10, Height: 1})
	bus.Dispatch(binding.PointerEvent{Kind: binding.PointerDown, At: binding.Point{X: 3, Y: 4}})
	assert.Equal(t, int32(1), closes.Load())
}

func TestDismisserWithoutRegion(t *testing.T) {
	bus := &binding.PointerBus{}
	called := false
	d := binding.NewDismisser(bus, nil, func() { called = true })
	d.Mount()
	defer d.Unmount()

	bus.Dispatch(binding.PointerEvent{Kind: binding.PointerDown})
	assert.False(t, called)
}

// ============================================================================
// Dropdown filtering
// ============================================================================

func TestFilterDropdown(t *testing.T) {
	history := records("Pothos", "Ficus")

	view := binding.FilterDropdown(history, "po")
	assert.Equal(t, binding.Matches, view.State)
	assert.Equal(t, []string{"Pothos"}, termsOf(view.Items))
	assert.True(t, view.Matched)
	assert.True(t, view.ShowResults)

	view = binding.FilterDropdown(history, "PO")
	assert.Equal(t, []string{"Pothos"}, termsOf(view.Items), "matching ignores case")

	view = binding.FilterDropdown(history, "zz")
	assert.Equal(t, binding.NoMatch, view.State)
	assert.Empty(t, view.Items)

	view = binding.FilterDropdown(history, "")
	assert.Equal(t, binding.ShowAll, view.State)
	assert.Equal(t, []string{"Pothos", "Ficus"}, termsOf(view.Items))
	assert.False(t, view.Matched)
	assert.False(t, view.ShowResults)

	view = binding.FilterDropdown(nil, "zz")
	assert.Equal(t, binding.NoHistory, view.State, "no history is distinct from no match")
	assert.True(t, view.ShowResults)
}

func TestFilterDropdownPrefixOnly(t *testing.T) {
	view := binding.FilterDropdown(records("Golden Pothos", "Pothos"), "pothos")
	assert.Equal(t, []string{"Pothos"}, termsOf(view.Items))
}

// ============================================================================
// Search indicator
// ============================================================================

func TestSearchIndicator(t *testing.T) {
	var mu sync.Mutex
	var flips []bool
	ind := binding.NewSearchIndicator(40*time.Millisecond, func(v bool) {
		mu.Lock()
		flips = append(flips, v)
		mu.Unlock()
	})
	defer ind.Stop()

	ind.Update("fern")
	assert.True(t, ind.Searching())

	time.Sleep(25 * time.Millisecond)
	ind.Update("ferns")
	time.Sleep(25 * time.Millisecond)
	assert.True(t, ind.Searching(), "new term restarts the latency")

	require.Eventually(t, func() bool { return !ind.Searching() }, time.Second, 5*time.Millisecond)

	ind.Update("palm")
	ind.Update("")
	assert.False(t, ind.Searching(), "empty term clears immediately")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{true, false, true, false}, flips)
}

// ============================================================================
// History binding
// ============================================================================

func TestHistoryBindingLifecycle(t *testing.T) {
	store := storage.NewMemory(0)
	defer store.Close()

	b := binding.NewHistoryBinding(models.NewHistoryService(store), store)
	assert.True(t, b.Loading())

	b.Mount()
	defer b.Unmount()
	assert.False(t, b.Loading())
	assert.Empty(t, b.History())

	require.True(t, b.Add("Monstera"))
	require.True(t, b.Add("Pothos"))
	require.True(t, b.Add("monstera"))
	assert.Equal(t, []string{"Monstera", "Pothos"}, termsOf(b.History()))

	assert.False(t, b.Add("   "))

	require.True(t, b.Clear())
	assert.Empty(t, b.History())
}

func TestHistoryBindingFollowsOtherTabs(t *testing.T) {
	store := storage.NewMemory(0)
	defer store.Close()

	tabA := binding.NewHistoryBinding(models.NewHistoryService(store), store)
	tabB := binding.NewHistoryBinding(models.NewHistoryService(store), store)
	tabA.Mount()
	tabB.Mount()

	var seen atomic.Int32
	remove := tabB.OnChange(func([]models.SearchRecord) { seen.Add(1) })
	defer remove()

	tabA.Add("Calathea")
	assert.Equal(t, []string{"Calathea"}, termsOf(tabB.History()))
	assert.Positive(t, seen.Load())

	// unrelated keys do not trigger a reload
	before := seen.Load()
	require.NoError(t, store.Set("unrelated", []byte("x")))
	assert.Equal(t, before, seen.Load())

	tabA.Clear()
	assert.Empty(t, tabB.History())

	tabB.Unmount()
	tabA.Add("Aloe")
	assert.Empty(t, tabB.History(), "unmounted binding stops following the store")
	tabA.Unmount()
}

// unavailableStore fails every write once broken is set.
type unavailableStore struct {
	storage.Store
	broken atomic.Bool
}

var errStoreUnavailable = errors.New("store unavailable")

func (s *unavailableStore) Set(key string, value []byte) error {
	if s.broken.Load() {
		return errStoreUnavailable
	}
	return s.Store.Set(key, value)
}

func (s *unavailableStore) Remove(key string) error {
	if s.broken.Load() {
		return errStoreUnavailable
	}
	return s.Store.Remove(key)
}

func TestHistoryBindingKeepsStateWhenWritesFail(t *testing.T) {
	store := &unavailableStore{Store: storage.NewMemory(0)}
	defer store.Close()

	b := binding.NewHistoryBinding(models.NewHistoryService(store), store)
	b.Mount()
	defer b.Unmount()
	require.True(t, b.Add("Monstera"))

	var refreshes atomic.Int32
	remove := b.OnChange(func([]models.SearchRecord) { refreshes.Add(1) })
	defer remove()

	store.broken.Store(true)
	assert.False(t, b.Add("Pothos"))
	assert.False(t, b.Clear())
	assert.Equal(t, []string{"Monstera"}, termsOf(b.History()))
	assert.Zero(t, refreshes.Load(), "failed writes must not refresh listeners")

	store.broken.Store(false)
	require.True(t, b.Clear())
	assert.Empty(t, b.History())
	assert.Positive(t, refreshes.Load())
}

// writeOnSubscribe lets another writer land just before the subscription
// is registered.
type writeOnSubscribe struct {
	store  storage.Store
	before func()
}

func (w writeOnSubscribe) Subscribe(fn func(storage.Change)) func() {
	w.before()
	return w.store.Subscribe(fn)
}

func TestHistoryBindingMountSeesWriteDuringSubscribe(t *testing.T) {
	store := storage.NewMemory(0)
	defer store.Close()

	other := models.NewHistoryService(store)
	changes := writeOnSubscribe{store: store, before: func() {
		require.True(t, other.Add("Peace Lily"))
	}}

	b := binding.NewHistoryBinding(models.NewHistoryService(store), changes)
	b.Mount()
	defer b.Unmount()

	assert.Equal(t, []string{"Peace Lily"}, termsOf(b.History()))

	require.True(t, other.Add("Hoya"))
	assert.Equal(t, []string{"Hoya", "Peace Lily"}, termsOf(b.History()))
}

func TestHistoryBindingFileStoreAcrossProcesses(t *testing.T) {
	dir := t.TempDir()

	storeA, err := storage.NewFile(dir, 0)
	require.NoError(t, err)
	defer storeA.Close()
	storeB, err := storage.NewFile(dir, 0)
	require.NoError(t, err)
	defer storeB.Close()

	tabA := binding.NewHistoryBinding(models.NewHistoryService(storeA), storeA)
	tabB := binding.NewHistoryBinding(models.NewHistoryService(storeB), storeB)
	tabA.Mount()
	defer tabA.Unmount()
	tabB.Mount()
	defer tabB.Unmount()

	require.True(t, tabA.Add("Bird of Paradise"))
	require.Eventually(t, func() bool {
		h := tabB.History()
		return len(h) == 1 && h[0].Term == "Bird of Paradise"
	}, 2*time.Second, 20*time.Millisecond)
}
