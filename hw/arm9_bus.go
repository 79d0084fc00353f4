package hw

import (
	"encoding/binary"

	"castor/emu/log"
)

// Read8 reads a byte from the ARM9 bus.
func (c *Arm9) Read8(addr uint32) uint8 {
	if w := c.Ptrs.ReadWindow(addr); w != nil {
		return w[addr&PageMask]
	}
	return uint8(c.readSlow(addr, 1, accessNormal))
}

func (c *Arm9) Read16(addr uint32) uint16 {
	addr &^= 1
	if w := c.Ptrs.ReadWindow(addr); w != nil {
		return binary.LittleEndian.Uint16(w[addr&PageMask:])
	}
	return uint16(c.readSlow(addr, 2, accessNormal))
}

func (c *Arm9) Read32(addr uint32) uint32 {
	addr &^= 3
	if w := c.Ptrs.ReadWindow(addr); w != nil {
		return binary.LittleEndian.Uint32(w[addr&PageMask:])
	}
	return c.readSlow(addr, 4, accessNormal)
}

func (c *Arm9) Write8(addr uint32, val uint8) {
	if w := c.Ptrs.WriteWindow(addr, AccessW8); w != nil {
		w[addr&PageMask] = val
		return
	}
	c.writeSlow(addr, 1, uint32(val), accessNormal)
}

func (c *Arm9) Write16(addr uint32, val uint16) {
	addr &^= 1
	if w := c.Ptrs.WriteWindow(addr, AccessW1632); w != nil {
		binary.LittleEndian.PutUint16(w[addr&PageMask:], val)
		return
	}
	c.writeSlow(addr, 2, uint32(val), accessNormal)
}

func (c *Arm9) Write32(addr uint32, val uint32) {
	addr &^= 3
	if w := c.Ptrs.WriteWindow(addr, AccessW1632); w != nil {
		binary.LittleEndian.PutUint32(w[addr&PageMask:], val)
		return
	}
	c.writeSlow(addr, 4, val, accessNormal)
}

// Peek8 reads a byte with no side effects, for debuggers.
func (c *Arm9) Peek8(addr uint32) uint8 {
	if w := c.Ptrs.ReadWindow(addr); w != nil {
		return w[addr&PageMask]
	}
	return uint8(c.readSlow(addr, 1, accessDebug))
}

func (c *Arm9) Peek16(addr uint32) uint16 {
	addr &^= 1
	if w := c.Ptrs.ReadWindow(addr); w != nil {
		return binary.LittleEndian.Uint16(w[addr&PageMask:])
	}
	return uint16(c.readSlow(addr, 2, accessDebug))
}

func (c *Arm9) Peek32(addr uint32) uint32 {
	addr &^= 3
	if w := c.Ptrs.ReadWindow(addr); w != nil {
		return binary.LittleEndian.Uint32(w[addr&PageMask:])
	}
	return c.readSlow(addr, 4, accessDebug)
}

// DMA accessors: watchpoint and trace free, and blind to the TCMs,
// which sit behind the cache controller where the DMA engines cannot
// see them.

func (c *Arm9) DmaRead16(addr uint32) uint16 {
	addr &^= 1
	if w := c.Ptrs.ReadWindow(addr); w != nil {
		return binary.LittleEndian.Uint16(w[addr&PageMask:])
	}
	return uint16(c.readSlow(addr, 2, accessDma))
}

func (c *Arm9) DmaRead32(addr uint32) uint32 {
	addr &^= 3
	if w := c.Ptrs.ReadWindow(addr); w != nil {
		return binary.LittleEndian.Uint32(w[addr&PageMask:])
	}
	return c.readSlow(addr, 4, accessDma)
}

func (c *Arm9) DmaWrite16(addr uint32, val uint16) {
	addr &^= 1
	if w := c.Ptrs.WriteWindow(addr, AccessW1632); w != nil {
		binary.LittleEndian.PutUint16(w[addr&PageMask:], val)
		return
	}
	c.writeSlow(addr, 2, uint32(val), accessDma)
}

func (c *Arm9) DmaWrite32(addr uint32, val uint32) {
	addr &^= 3
	if w := c.Ptrs.WriteWindow(addr, AccessW1632); w != nil {
		binary.LittleEndian.PutUint32(w[addr&PageMask:], val)
		return
	}
	c.writeSlow(addr, 4, val, accessDma)
}

func (c *Arm9) readSlow(addr uint32, size int, kind busAccess) uint32 {
	if kind == accessNormal && !c.Watch.Empty() && c.Watch.HitRead(addr, size) {
		c.dbg.WatchRead(true, addr, size)
	}
	if kind != accessDma {
		if addr&c.itcmMask == c.itcmValue {
			return readLE(c.itcm[addr&0x7FFF:], size)
		}
		if addr&c.dtcmMask == c.dtcmValue {
			return readLE(c.dtcm[addr&0x3FFF:], size)
		}
	}
	if w := c.Ptrs.ReadBacking(addr); w != nil {
		return readLE(w[addr&PageMask:], size)
	}

	switch addr >> 24 {
	case 0x04:
		if kind == accessDebug {
			return ioPeek(c.Bus, addr, size)
		}
		return ioRead(c.Bus, addr, size)
	case 0x08, 0x09:
		return gbaOpenBus(addr, size)
	case 0x0A:
		return gbaSramOpenBus(size)
	case 0xFF:
		// The 4 KB boot ROM mirrors through the whole region.
		return readLE(c.bios[addr&0xFFF:], size)
	}

	log.ModBus.DebugZ("unmapped read").
		String("cpu", "arm9").
		Hex32("addr", addr).
		Int("size", size).
		End()
	return 0
}

func (c *Arm9) writeSlow(addr uint32, size int, val uint32, kind busAccess) {
	if kind == accessNormal {
		if !c.Watch.Empty() && c.Watch.HitWrite(addr, size) {
			c.dbg.WatchWrite(true, addr, size, val)
		}
		if t := c.Tracer; t != nil && t.Enabled() {
			t.Write(true, addr, size, val)
		}
	}
	if kind != accessDma {
		if addr&c.itcmMask == c.itcmValue {
			writeLE(c.itcm[addr&0x7FFF:], size, val)
			return
		}
		if addr&c.dtcmMask == c.dtcmValue {
			writeLE(c.dtcm[addr&0x3FFF:], size, val)
			return
		}
	}

	kindMask := AccessW1632
	if size == 1 {
		kindMask = AccessW8
	}
	if w := c.Ptrs.WriteBacking(addr, kindMask); w != nil {
		writeLE(w[addr&PageMask:], size, val)
		return
	}
	if _, mapped := c.Ptrs.PageAttrs(addr); mapped != 0 {
		return
	}

	if addr>>24 == 0x04 {
		ioWrite(c.Bus, addr, size, val)
		return
	}

	log.ModBus.DebugZ("unmapped write").
		String("cpu", "arm9").
		Hex32("addr", addr).
		Hex32("val", val).
		Int("size", size).
		End()
}
