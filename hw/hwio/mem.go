package hwio

import (
	"unsafe"

	"castor/emu/log"
)

// mem is the main structure used for linear memory access.
//
// We use this structure by pointer rather than by value because it is stored
// as an interface within Table, and checking if a concrete pointer type is
// behind the interface is faster than checking a non-pointer type.
//
// Multi-byte accesses are little-endian unaligned loads/stores; callers are
// expected to align the address to the access size first, so an access never
// runs past the end of the (power of two sized) buffer.
type mem struct {
	ptr  unsafe.Pointer
	mask uint32
	wcb  func(uint32, uint8)
	ro   MemFlags
}

func newMem(buf []byte, wcb func(uint32, uint8), flags MemFlags) *mem {
	if len(buf)&(len(buf)-1) != 0 {
		panic("memory buffer size is not pow2")
	}
	return &mem{
		ptr:  unsafe.Pointer(&buf[0]),
		mask: uint32(len(buf) - 1),
		wcb:  wcb,
		ro:   flags,
	}
}

func (m *mem) FetchPointer(addr uint32) []uint8 {
	off := uintptr(addr & m.mask)
	buf := (*[1 << 30]uint8)(unsafe.Pointer(uintptr(m.ptr) + off))
	len := uintptr(m.mask) + 1 - off
	return buf[:len:len]
}

func (m *mem) Read8(addr uint32) uint8 {
	off := uintptr(addr & m.mask)
	return *(*uint8)(unsafe.Pointer(uintptr(m.ptr) + off))
}

func (m *mem) Peek8(addr uint32) uint8 {
	return m.Read8(addr)
}

func (m *mem) Read16(addr uint32) uint16 {
	off := uintptr(addr & m.mask)
	return *(*uint16)(unsafe.Pointer(uintptr(m.ptr) + off))
}

func (m *mem) Peek16(addr uint32) uint16 {
	return m.Read16(addr)
}

func (m *mem) Read32(addr uint32) uint32 {
	off := uintptr(addr & m.mask)
	return *(*uint32)(unsafe.Pointer(uintptr(m.ptr) + off))
}

func (m *mem) Peek32(addr uint32) uint32 {
	return m.Read32(addr)
}

// Write8CheckRO writes val and reports whether the write was legal. The
// read-write codepath is fully inlined and requires no function call; a false
// return means the caller should log the rejected write.
func (m *mem) Write8CheckRO(addr uint32, val uint8) bool {
	if m.ro == 0 {
		off := uintptr(addr & m.mask)
		*(*uint8)(unsafe.Pointer(uintptr(m.ptr) + off)) = val
		if m.wcb != nil {
			m.wcb(addr, val)
		}
		return true
	}
	return m.ro&(MemFlagNoROLog|MemFlagWriteIgnore8) != 0
}

func (m *mem) Write8(addr uint32, val uint8) {
	if !m.Write8CheckRO(addr, val) {
		log.ModHwIo.ErrorZ("Write8 to readonly memory").
			Hex8("val", val).
			Hex32("addr", addr).
			End()
	}
}

func (m *mem) Write16(addr uint32, val uint16) {
	switch {
	case m.ro&MemFlagReadOnly != 0:
		if m.ro&MemFlagNoROLog == 0 {
			log.ModHwIo.ErrorZ("Write16 to readonly memory").
				Hex16("val", val).
				Hex32("addr", addr).
				End()
		}
	default:
		off := uintptr(addr & m.mask)
		*(*uint16)(unsafe.Pointer(uintptr(m.ptr) + off)) = val
		if m.wcb != nil {
			m.wcb(addr, uint8(val))
			m.wcb(addr+1, uint8(val>>8))
		}
	}
}

func (m *mem) Write32(addr uint32, val uint32) {
	switch {
	case m.ro&MemFlagReadOnly != 0:
		if m.ro&MemFlagNoROLog == 0 {
			log.ModHwIo.ErrorZ("Write32 to readonly memory").
				Hex32("val", val).
				Hex32("addr", addr).
				End()
		}
	default:
		off := uintptr(addr & m.mask)
		*(*uint32)(unsafe.Pointer(uintptr(m.ptr) + off)) = val
		if m.wcb != nil {
			m.wcb(addr, uint8(val))
			m.wcb(addr+1, uint8(val>>8))
			m.wcb(addr+2, uint8(val>>16))
			m.wcb(addr+3, uint8(val>>24))
		}
	}
}

type MemFlags int

const (
	MemFlagReadWrite    MemFlags = 0
	MemFlagReadOnly     MemFlags = (1 << iota) // reject writes
	MemFlagNoROLog                             // skip logging attempts to write when configured to readonly
	MemFlagWriteIgnore8                        // drop 8-bit writes, allow wider ones (video memory behavior)
)

// Linear memory area that can be mapped into a Table.
//
// NOTE: this structure does not directly implement the bus interfaces for
// performance reasons. It would be inefficient to parse all the flags at
// runtime for each memory access; clients must call the BankIO8 method to
// create the adaptor that accesses memory according to the bank
// configuration.
type Mem struct {
	Name    string              // name of the memory area (for debugging)
	Data    []byte              // actual memory buffer
	VSize   int                 // virtual size of the memory (can be bigger than physical size)
	Flags   MemFlags            // flags determining how the memory can be accessed
	WriteCb func(uint32, uint8) // optional write observer, called after each written byte
}

func (m *Mem) BankIO8() BankIO8 {
	return newMem(m.Data, m.WriteCb, m.Flags)
}
