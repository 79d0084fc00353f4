package hw

// Bus pages are 16 KB: the coarsest granularity at which every mappable
// region (RAM mirrors, shared WRAM banks, VRAM banks, BIOS) stays
// page-aligned.
const (
	PageShift = 14
	PageSize  = 1 << PageShift
	PageMask  = PageSize - 1

	nPages = 1 << (32 - PageShift)
)

// AccessMask selects access kinds on a bus page. Writes come in two
// kinds because some windows (VRAM) ignore 8-bit stores but accept
// wider ones.
type AccessMask uint8

const (
	AccessR     AccessMask = 1 << 0
	AccessW8    AccessMask = 1 << 1
	AccessW1632 AccessMask = 1 << 2

	AccessW   = AccessW8 | AccessW1632
	AccessAll = AccessR | AccessW
)

// bakShift is where the backup copy of the access bits lives in a
// page's attr byte. Backup bits say what is mapped; live bits say what
// the fast path may serve right now.
const bakShift = 3

// DisableReason says why a page kind was forced to the slow path.
// Watchpoints disable both directions; tracing disables writes only.
type DisableReason uint8

const (
	DisableWatch DisableReason = 1 << 0
	DisableTrace DisableReason = 1 << 1
)

// Layout of a page's disable byte: read reasons at bit 0 (watch only),
// write reasons at bits 1-2.
const (
	readDisableMask  = 0x01
	writeDisableMask = 0x06
)

// PageTable is one core's fast-path view of the 4 GB address space.
// Entries are subslices of the owned backing buffers (RAM, WRAM, VRAM
// banks); a page whose live attr bit is clear falls to the slow path.
//
// Mapped and disabled are independent: a watched or traced page keeps
// its backup attrs and its windows, so lifting the last disable reason
// restores the fast path without remapping.
type PageTable struct {
	reads   [][]byte
	writes  [][]byte
	attrs   []uint8
	disable []uint8
}

func NewPageTable() *PageTable {
	return &PageTable{
		reads:   make([][]byte, nPages),
		writes:  make([][]byte, nPages),
		attrs:   make([]uint8, nPages),
		disable: make([]uint8, nPages),
	}
}

// Map fills [lower, upper] with windows into backing, wrapping over it
// so shorter buffers mirror across the range. lower must be page
// aligned, upper must end on a page boundary, and len(backing) must be
// a positive multiple of the page size.
//
// Backup attrs always record mask; live attrs get only the kinds not
// currently disabled on each page.
func (pt *PageTable) Map(mask AccessMask, backing []byte, lower, upper uint32) {
	if lower&PageMask != 0 {
		panic("page map: lower bound not page aligned")
	}
	if upper&PageMask != PageMask {
		panic("page map: upper bound not at a page boundary")
	}
	if len(backing) == 0 || len(backing)&PageMask != 0 {
		panic("page map: backing size not a multiple of the page size")
	}

	off := 0
	for page := lower >> PageShift; ; page++ {
		if mask&AccessR != 0 {
			pt.reads[page] = backing[off : off+PageSize]
		}
		if mask&AccessW != 0 {
			pt.writes[page] = backing[off : off+PageSize]
		}

		live := mask
		if pt.disable[page]&readDisableMask != 0 {
			live &^= AccessR
		}
		if pt.disable[page]&writeDisableMask != 0 {
			live &^= AccessW
		}
		pt.attrs[page] = uint8(mask)<<bakShift | uint8(live)

		if off += PageSize; off == len(backing) {
			off = 0
		}
		if page == upper>>PageShift {
			return
		}
	}
}

// Unmap clears [lower, upper]: attrs, backups and windows. Disable
// reasons stick to the pages; they describe watch/trace state, not the
// mapping.
func (pt *PageTable) Unmap(lower, upper uint32) {
	if lower&PageMask != 0 {
		panic("page unmap: lower bound not page aligned")
	}
	if upper&PageMask != PageMask {
		panic("page unmap: upper bound not at a page boundary")
	}
	for page := lower >> PageShift; ; page++ {
		pt.reads[page] = nil
		pt.writes[page] = nil
		pt.attrs[page] = 0
		if page == upper>>PageShift {
			return
		}
	}
}

// PageAttrs reports the live and mapped access kinds for the page
// containing addr.
func (pt *PageTable) PageAttrs(addr uint32) (live, mapped AccessMask) {
	a := pt.attrs[addr>>PageShift]
	return AccessMask(a) & AccessAll, AccessMask(a>>bakShift) & AccessAll
}

// ReadWindow returns the fast-path read window for addr, or nil when
// reads go through the slow path.
func (pt *PageTable) ReadWindow(addr uint32) []byte {
	page := addr >> PageShift
	if pt.attrs[page]&uint8(AccessR) == 0 {
		return nil
	}
	return pt.reads[page]
}

// WriteWindow returns the fast-path write window for addr given the
// access kind (AccessW8 or AccessW1632), or nil.
func (pt *PageTable) WriteWindow(addr uint32, kind AccessMask) []byte {
	page := addr >> PageShift
	if pt.attrs[page]&uint8(kind) == 0 {
		return nil
	}
	return pt.writes[page]
}

// ReadBacking returns the mapped read window for addr even when the
// page is disabled. The slow path uses it to serve watched or traced
// memory from the same backing the fast path would.
func (pt *PageTable) ReadBacking(addr uint32) []byte {
	page := addr >> PageShift
	if pt.attrs[page]>>bakShift&uint8(AccessR) == 0 {
		return nil
	}
	return pt.reads[page]
}

// WriteBacking is the write-side equivalent. A kind the backup attrs
// never had (8-bit stores to video memory) still returns nil.
func (pt *PageTable) WriteBacking(addr uint32, kind AccessMask) []byte {
	page := addr >> PageShift
	if pt.attrs[page]>>bakShift&uint8(kind) == 0 {
		return nil
	}
	return pt.writes[page]
}

func (pt *PageTable) disableRead(page uint32, reason DisableReason) {
	pt.attrs[page] &^= uint8(AccessR)
	pt.disable[page] |= uint8(reason & DisableWatch)
}

func (pt *PageTable) enableRead(page uint32, reason DisableReason) {
	d := pt.disable[page] &^ uint8(reason&DisableWatch)
	pt.disable[page] = d
	if d&readDisableMask == 0 {
		pt.attrs[page] |= (pt.attrs[page] >> bakShift) & uint8(AccessR)
	}
}

func (pt *PageTable) disableWrite(page uint32, reason DisableReason) {
	pt.attrs[page] &^= uint8(AccessW)
	pt.disable[page] |= uint8(reason) << 1
}

func (pt *PageTable) enableWrite(page uint32, reason DisableReason) {
	d := pt.disable[page] &^ (uint8(reason) << 1)
	pt.disable[page] = d
	if d&writeDisableMask == 0 {
		pt.attrs[page] |= (pt.attrs[page] >> bakShift) & uint8(AccessW)
	}
}

// DisableRead forces reads from [lower, upper] to the slow path for
// reason. EnableRead lifts it; the fast path comes back only once no
// reason remains and the page is still mapped.
func (pt *PageTable) DisableRead(lower, upper uint32, reason DisableReason) {
	for page := lower >> PageShift; ; page++ {
		pt.disableRead(page, reason)
		if page == upper>>PageShift {
			return
		}
	}
}

func (pt *PageTable) EnableRead(lower, upper uint32, reason DisableReason) {
	for page := lower >> PageShift; ; page++ {
		pt.enableRead(page, reason)
		if page == upper>>PageShift {
			return
		}
	}
}

// DisableWrite and EnableWrite are the write-side equivalents.
func (pt *PageTable) DisableWrite(lower, upper uint32, reason DisableReason) {
	for page := lower >> PageShift; ; page++ {
		pt.disableWrite(page, reason)
		if page == upper>>PageShift {
			return
		}
	}
}

func (pt *PageTable) EnableWrite(lower, upper uint32, reason DisableReason) {
	for page := lower >> PageShift; ; page++ {
		pt.enableWrite(page, reason)
		if page == upper>>PageShift {
			return
		}
	}
}

// Whole-table variants, used for trace-mode toggles.

func (pt *PageTable) DisableWriteAll(reason DisableReason) {
	pt.DisableWrite(0, 0xFFFFFFFF, reason)
}

func (pt *PageTable) EnableWriteAll(reason DisableReason) {
	pt.EnableWrite(0, 0xFFFFFFFF, reason)
}
