package binding

import "sync"

// Point is a position in view coordinates (pixels or terminal cells).
type Point struct {
	X, Y int
}

// Region is the part of the view that counts as "inside".
type Region interface {
	Contains(p Point) bool
}

// Rect is an axis-aligned Region.
type Rect struct {
	X, Y, Width, Height int
}

func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.Width && p.Y >= r.Y && p.Y < r.Y+r.Height
}

// Regions is inside when any member is.
type Regions []Region

func (rs Regions) Contains(p Point) bool {
	for _, r := range rs {
		if r != nil && r.Contains(p) {
			return true
		}
	}
	return false
}

// PointerKind distinguishes the interactions a view reports.
type PointerKind int

const (
	PointerDown PointerKind = iota // mouse button pressed
	TouchStart                     // finger down
	PointerMove                    // never dismisses
)

// PointerEvent is one pointer interaction at a position.
type PointerEvent struct {
	Kind PointerKind
	At   Point
}

// PointerBus is the view-wide pointer event source listeners attach to,
// the equivalent of document-level mouse and touch listeners.
type PointerBus struct {
	notify listenerSet[PointerEvent]
}

// Listen registers fn for every dispatched event until the returned
// function is called.
func (b *PointerBus) Listen(fn func(PointerEvent)) (remove func()) {
	return b.notify.add(fn)
}

// Dispatch delivers ev to every listener.
func (b *PointerBus) Dispatch(ev PointerEvent) {
	b.notify.emit(ev)
}

// Dismisser calls onOutside when a press or touch lands outside its region.
// It only listens between Mount and Unmount.
type Dismisser struct {
	mu        sync.Mutex
	bus       *PointerBus
	region    Region
	onOutside func()
	remove    func()
}

// NewDismisser prepares a dismisser; call Mount to start listening.
func NewDismisser(bus *PointerBus, region Region, onOutside func()) *Dismisser {
	return &Dismisser{bus: bus, region: region, onOutside: onOutside}
}

// SetRegion replaces the inside region, e.g. after a layout change.
func (d *Dismisser) SetRegion(region Region) {
	d.mu.Lock()
	d.region = region
	d.mu.Unlock()
}

// Mount attaches to the pointer bus. Mounting twice is a no-op.
func (d *Dismisser) Mount() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.remove != nil {
		return
	}
	d.remove = d.bus.Listen(d.HandlePointer)
}

// Unmount detaches from the pointer bus.
func (d *Dismisser) Unmount() {
	d.mu.Lock()
	remove := d.remove
	d.remove = nil
	d.mu.Unlock()

	if remove != nil {
		remove()
	}
}

// HandlePointer applies ev directly, for views that deliver pointer events
// themselves instead of through a bus.
func (d *Dismisser) HandlePointer(ev PointerEvent) {
	if ev.Kind != PointerDown && ev.Kind != TouchStart {
		return
	}

	d.mu.Lock()
	region := d.region
	cb := d.onOutside
	d.mu.Unlock()

	// No region yet means nothing is rendered to be outside of
	if region == nil || cb == nil {
		return
	}
	if !region.Contains(ev.At) {
		cb()
	}
}
