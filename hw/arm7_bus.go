package hw

import (
	"encoding/binary"

	"castor/emu/log"
)

// Read8 reads a byte from the ARM7 bus.
func (c *Arm7) Read8(addr uint32) uint8 {
	if w := c.Ptrs.ReadWindow(addr); w != nil {
		return w[addr&PageMask]
	}
	return uint8(c.readSlow(addr, 1, accessNormal))
}

// Read16 reads a halfword from the ARM7 bus. The address is force
// aligned the way the memory system does it; rotation of misaligned
// loads is the CPU's business.
func (c *Arm7) Read16(addr uint32) uint16 {
	addr &^= 1
	if w := c.Ptrs.ReadWindow(addr); w != nil {
		return binary.LittleEndian.Uint16(w[addr&PageMask:])
	}
	return uint16(c.readSlow(addr, 2, accessNormal))
}

// Read32 reads a word from the ARM7 bus.
func (c *Arm7) Read32(addr uint32) uint32 {
	addr &^= 3
	if w := c.Ptrs.ReadWindow(addr); w != nil {
		return binary.LittleEndian.Uint32(w[addr&PageMask:])
	}
	return c.readSlow(addr, 4, accessNormal)
}

func (c *Arm7) Write8(addr uint32, val uint8) {
	if w := c.Ptrs.WriteWindow(addr, AccessW8); w != nil {
		w[addr&PageMask] = val
		return
	}
	c.writeSlow(addr, 1, uint32(val), accessNormal)
}

func (c *Arm7) Write16(addr uint32, val uint16) {
	addr &^= 1
	if w := c.Ptrs.WriteWindow(addr, AccessW1632); w != nil {
		binary.LittleEndian.PutUint16(w[addr&PageMask:], val)
		return
	}
	c.writeSlow(addr, 2, uint32(val), accessNormal)
}

func (c *Arm7) Write32(addr uint32, val uint32) {
	addr &^= 3
	if w := c.Ptrs.WriteWindow(addr, AccessW1632); w != nil {
		binary.LittleEndian.PutUint32(w[addr&PageMask:], val)
		return
	}
	c.writeSlow(addr, 4, val, accessNormal)
}

// Peek8 reads a byte with no side effects: FIFOs do not pop, state
// machines do not advance, watchpoints stay silent. Debuggers only.
func (c *Arm7) Peek8(addr uint32) uint8 {
	if w := c.Ptrs.ReadWindow(addr); w != nil {
		return w[addr&PageMask]
	}
	return uint8(c.readSlow(addr, 1, accessDebug))
}

func (c *Arm7) Peek16(addr uint32) uint16 {
	addr &^= 1
	if w := c.Ptrs.ReadWindow(addr); w != nil {
		return binary.LittleEndian.Uint16(w[addr&PageMask:])
	}
	return uint16(c.readSlow(addr, 2, accessDebug))
}

func (c *Arm7) Peek32(addr uint32) uint32 {
	addr &^= 3
	if w := c.Ptrs.ReadWindow(addr); w != nil {
		return binary.LittleEndian.Uint32(w[addr&PageMask:])
	}
	return c.readSlow(addr, 4, accessDebug)
}

// DMA accessors skip watchpoints and tracing so a transfer never stops
// the running slice.

func (c *Arm7) DmaRead16(addr uint32) uint16 {
	addr &^= 1
	if w := c.Ptrs.ReadWindow(addr); w != nil {
		return binary.LittleEndian.Uint16(w[addr&PageMask:])
	}
	return uint16(c.readSlow(addr, 2, accessDma))
}

func (c *Arm7) DmaRead32(addr uint32) uint32 {
	addr &^= 3
	if w := c.Ptrs.ReadWindow(addr); w != nil {
		return binary.LittleEndian.Uint32(w[addr&PageMask:])
	}
	return c.readSlow(addr, 4, accessDma)
}

func (c *Arm7) DmaWrite16(addr uint32, val uint16) {
	addr &^= 1
	if w := c.Ptrs.WriteWindow(addr, AccessW1632); w != nil {
		binary.LittleEndian.PutUint16(w[addr&PageMask:], val)
		return
	}
	c.writeSlow(addr, 2, uint32(val), accessDma)
}

func (c *Arm7) DmaWrite32(addr uint32, val uint32) {
	addr &^= 3
	if w := c.Ptrs.WriteWindow(addr, AccessW1632); w != nil {
		binary.LittleEndian.PutUint32(w[addr&PageMask:], val)
		return
	}
	c.writeSlow(addr, 4, val, accessDma)
}

// ReadSample8 and ReadSample16 let the sound unit fetch PCM data the
// way DMA does: no watchpoints, no tracing.
func (c *Arm7) ReadSample8(addr uint32) int8 {
	if w := c.Ptrs.ReadWindow(addr); w != nil {
		return int8(w[addr&PageMask])
	}
	return int8(uint8(c.readSlow(addr, 1, accessDma)))
}

func (c *Arm7) ReadSample16(addr uint32) int16 {
	addr &^= 1
	if w := c.Ptrs.ReadWindow(addr); w != nil {
		return int16(binary.LittleEndian.Uint16(w[addr&PageMask:]))
	}
	return int16(uint16(c.readSlow(addr, 2, accessDma)))
}

func (c *Arm7) readSlow(addr uint32, size int, kind busAccess) uint32 {
	if kind == accessNormal && !c.Watch.Empty() && c.Watch.HitRead(addr, size) {
		c.dbg.WatchRead(false, addr, size)
	}
	if w := c.Ptrs.ReadBacking(addr); w != nil {
		return readLE(w[addr&PageMask:], size)
	}

	switch addr >> 24 {
	case 0x00:
		return c.readBios(addr, size, kind)
	case 0x04:
		if kind == accessDebug {
			return ioPeek(c.Bus, addr, size)
		}
		return ioRead(c.Bus, addr, size)
	case 0x08, 0x09:
		return gbaOpenBus(addr, size)
	case 0x0A:
		return gbaSramOpenBus(size)
	}

	log.ModBus.DebugZ("unmapped read").
		String("cpu", "arm7").
		Hex32("addr", addr).
		Int("size", size).
		End()
	return 0
}

// readBios serves the 16 KB ARM7 BIOS. Reads below the BIOSPROT
// threshold do not reach the ROM; they return the matching lane of the
// last word fetched from the open area, which is what the bus latches.
func (c *Arm7) readBios(addr uint32, size int, kind busAccess) uint32 {
	if addr >= uint32(len(c.bios)) {
		log.ModBus.DebugZ("unmapped read").
			String("cpu", "arm7").
			Hex32("addr", addr).
			Int("size", size).
			End()
		return 0
	}
	if kind == accessDebug {
		return readLE(c.bios[addr:], size)
	}
	if addr < uint32(c.Power.BiosProt()) {
		log.ModBus.WarnZ("protected bios read").Hex32("addr", addr).End()
		return laneExtract(c.biosLatch, addr, size)
	}
	word := binary.LittleEndian.Uint32(c.bios[addr&^3:])
	c.biosLatch = word
	return laneExtract(word, addr, size)
}

func (c *Arm7) writeSlow(addr uint32, size int, val uint32, kind busAccess) {
	if kind == accessNormal {
		if !c.Watch.Empty() && c.Watch.HitWrite(addr, size) {
			c.dbg.WatchWrite(false, addr, size, val)
		}
		if t := c.Tracer; t != nil && t.Enabled() {
			t.Write(false, addr, size, val)
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
		// Mapped page that rejects this width. Dropped, like the
		// hardware does.
		return
	}

	if addr>>24 == 0x04 {
		ioWrite(c.Bus, addr, size, val)
		return
	}

	log.ModBus.DebugZ("unmapped write").
		String("cpu", "arm7").
		Hex32("addr", addr).
		Hex32("val", val).
		Int("size", size).
		End()
}
