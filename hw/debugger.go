package hw

import "castor/hw/hwio"

// A Debugger observes the buses. Hooks run before the access goes
// through and must not perturb machine state; use the Peek accessors
// for inspection.
type Debugger interface {
	// Reset is called when the machine (re)starts.
	Reset()

	// WatchRead/WatchWrite fire when an access lands on a watched
	// range. arm9 tells which core's bus tripped.
	WatchRead(arm9 bool, addr uint32, size int)
	WatchWrite(arm9 bool, addr uint32, size int, val uint32)

	// Break can be called by the core to force breaking into the
	// debugger.
	Break(msg string)

	// FrameEnd signals the end of the current frame.
	FrameEnd()
}

// NopDebugger is the hook set used when no debugger is attached.
type NopDebugger struct{}

func (NopDebugger) Reset()                               {}
func (NopDebugger) WatchRead(bool, uint32, int)          {}
func (NopDebugger) WatchWrite(bool, uint32, int, uint32) {}
func (NopDebugger) Break(string)                         {}
func (NopDebugger) FrameEnd()                            {}

type WatchKind uint8

const (
	WatchReads WatchKind = 1 << iota
	WatchWrites
)

type watchpoint struct {
	addr, end uint32 // [addr, end)
	kind      WatchKind
}

// Watchpoints tracks watched address ranges for one core. Watched
// pages lose their fast-path windows, so every access to them funnels
// through the slow path where the hit test runs.
type Watchpoints struct {
	ptrs *PageTable
	list []watchpoint

	readPages  *hwio.Bitset
	writePages *hwio.Bitset
}

func NewWatchpoints(ptrs *PageTable) *Watchpoints {
	return &Watchpoints{
		ptrs:       ptrs,
		readPages:  hwio.NewBitset(nPages),
		writePages: hwio.NewBitset(nPages),
	}
}

// Add watches [addr, addr+size).
func (w *Watchpoints) Add(addr, size uint32, kind WatchKind) {
	if size == 0 {
		return
	}
	w.list = append(w.list, watchpoint{addr: addr, end: addr + size, kind: kind})
	for page := addr >> PageShift; page <= (addr+size-1)>>PageShift; page++ {
		lower, upper := page<<PageShift, page<<PageShift|PageMask
		if kind&WatchReads != 0 && !w.readPages.Test(uint(page)) {
			w.readPages.Set(uint(page))
			w.ptrs.DisableRead(lower, upper, DisableWatch)
		}
		if kind&WatchWrites != 0 && !w.writePages.Test(uint(page)) {
			w.writePages.Set(uint(page))
			w.ptrs.DisableWrite(lower, upper, DisableWatch)
		}
	}
}

// Remove drops every watchpoint starting at addr and re-enables the
// fast path on pages no other watchpoint needs.
func (w *Watchpoints) Remove(addr uint32) {
	kept := w.list[:0]
	var dropped []watchpoint
	for _, e := range w.list {
		if e.addr == addr {
			dropped = append(dropped, e)
		} else {
			kept = append(kept, e)
		}
	}
	w.list = kept
	for _, e := range dropped {
		for page := e.addr >> PageShift; page <= (e.end-1)>>PageShift; page++ {
			lower, upper := page<<PageShift, page<<PageShift|PageMask
			if e.kind&WatchReads != 0 && !w.pageCovered(page, WatchReads) {
				w.readPages.Clear(uint(page))
				w.ptrs.EnableRead(lower, upper, DisableWatch)
			}
			if e.kind&WatchWrites != 0 && !w.pageCovered(page, WatchWrites) {
				w.writePages.Clear(uint(page))
				w.ptrs.EnableWrite(lower, upper, DisableWatch)
			}
		}
	}
}

func (w *Watchpoints) pageCovered(page uint32, kind WatchKind) bool {
	for _, e := range w.list {
		if e.kind&kind != 0 &&
			e.addr>>PageShift <= page && page <= (e.end-1)>>PageShift {
			return true
		}
	}
	return false
}

func (w *Watchpoints) Empty() bool { return len(w.list) == 0 }

func (w *Watchpoints) HitRead(addr uint32, size int) bool {
	return w.hit(addr, uint32(size), WatchReads)
}

func (w *Watchpoints) HitWrite(addr uint32, size int) bool {
	return w.hit(addr, uint32(size), WatchWrites)
}

func (w *Watchpoints) hit(addr, size uint32, kind WatchKind) bool {
	for _, e := range w.list {
		if e.kind&kind != 0 && addr < e.end && addr+size > e.addr {
			return true
		}
	}
	return false
}
