package hw

import (
	"encoding/binary"

	"castor/hw/hwio"
)

// MainRamSize is the 4 MB main RAM shared by both cores, mirrored
// through the whole 0x02 region.
const MainRamSize = 4 << 20

// busAccess tells the slow path who is asking. DMA engines skip
// watchpoints, write tracing and the ARM9 TCM compare; debug accesses
// are side-effect free and ignore bus protection.
type busAccess uint8

const (
	accessNormal busAccess = iota
	accessDma
	accessDebug
)

func readLE(w []byte, size int) uint32 {
	switch size {
	case 1:
		return uint32(w[0])
	case 2:
		return uint32(binary.LittleEndian.Uint16(w))
	default:
		return binary.LittleEndian.Uint32(w)
	}
}

func writeLE(w []byte, size int, val uint32) {
	switch size {
	case 1:
		w[0] = uint8(val)
	case 2:
		binary.LittleEndian.PutUint16(w, uint16(val))
	default:
		binary.LittleEndian.PutUint32(w, val)
	}
}

// laneExtract picks the size-wide lane of word that an access at addr
// would see on a 32-bit bus.
func laneExtract(word, addr uint32, size int) uint32 {
	switch size {
	case 1:
		return word >> (8 * (addr & 3)) & 0xFF
	case 2:
		return word >> (8 * (addr & 2)) & 0xFFFF
	default:
		return word
	}
}

func ioRead(t *hwio.Table, addr uint32, size int) uint32 {
	switch size {
	case 1:
		return uint32(t.Read8(addr))
	case 2:
		return uint32(t.Read16(addr))
	default:
		return t.Read32(addr)
	}
}

func ioPeek(t *hwio.Table, addr uint32, size int) uint32 {
	switch size {
	case 1:
		return uint32(t.Peek8(addr))
	case 2:
		return uint32(t.Peek16(addr))
	default:
		return t.Peek32(addr)
	}
}

func ioWrite(t *hwio.Table, addr uint32, size int, val uint32) {
	switch size {
	case 1:
		t.Write8(addr, uint8(val))
	case 2:
		t.Write16(addr, uint16(val))
	default:
		t.Write32(addr, val)
	}
}

// gbaOpenBus is what the cart bus floats to with no pak inserted: each
// halfword reads back the low half of its own halfword address.
func gbaOpenBus(addr uint32, size int) uint32 {
	lo := uint32(uint16(addr >> 1))
	switch size {
	case 1:
		return lo >> (8 * (addr & 1)) & 0xFF
	case 2:
		return lo
	default:
		return lo | uint32(uint16((addr+2)>>1))<<16
	}
}

// gbaSramOpenBus covers the pak SRAM region, which floats high.
func gbaSramOpenBus(size int) uint32 {
	switch size {
	case 1:
		return 0xFF
	case 2:
		return 0xFFFF
	default:
		return 0xFFFFFFFF
	}
}
