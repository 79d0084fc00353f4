package hwio

import (
	"fmt"

	"castor/emu/log"
)

// log accesses to unmapped addresses. Module-gated: plenty of software pokes
// at unimplemented IO, so this only shows up when the hwio module is enabled.
const logUnmapped = true

type BankIO8 interface {
	Read8(addr uint32) uint8
	// Peek8 returns the value at addr without triggering side effects
	// (debugger and tracer reads).
	Peek8(addr uint32) uint8
	Write8(addr uint32, val uint8)
}

type BankIO16 interface {
	Read16(addr uint32) uint16
	Peek16(addr uint32) uint16
	Write16(addr uint32, val uint16)
}

type BankIO32 interface {
	Read32(addr uint32) uint32
	Peek32(addr uint32) uint32
	Write32(addr uint32, val uint32)
}

// Read16 synthesizes a little-endian 16-bit read from two byte reads on the
// same io object.
func Read16(b BankIO8, addr uint32) uint16 {
	lo := b.Read8(addr)
	hi := b.Read8(addr + 1)
	return uint16(hi)<<8 | uint16(lo)
}

// Write16 synthesizes a little-endian 16-bit write as two byte writes on the
// same io object.
func Write16(b BankIO8, addr uint32, val uint16) {
	b.Write8(addr, uint8(val))
	b.Write8(addr+1, uint8(val>>8))
}

type Table struct {
	Name string

	// Unmapped catches accesses to unmapped addresses when set (open bus
	// behavior). When nil, reads of unmapped addresses return 0 and writes
	// are dropped.
	Unmapped BankIO8

	table8 radixTree
}

func NewTable(name string) *Table {
	t := new(Table)
	t.Name = name
	t.Reset()
	return t
}

func (t *Table) Reset() {
	t.table8 = radixTree{}
}

// Map a register bank (that is, a structure containing multiple hwio.Reg*,
// hwio.Mem or hwio.Device fields). For this function to work, registers must
// have a struct tag "hwio", containing the following fields:
//
//	offset=0x12     Byte-offset within the register bank at which this
//	                register is mapped. There is no default value: if this
//	                option is missing, the register is assumed not to be
//	                part of the bank, and is ignored by this call.
//
//	bank=NN         Ordinal bank number (if not specified, default to zero).
//	                This option allows for a structure to expose multiple
//	                banks, as regs can be grouped by bank by specifying the
//	                bank number.
func (t *Table) MapBank(addr uint32, bank any, bankNum int) {
	regs, err := bankGetRegs(bank, bankNum)
	if err != nil {
		panic(err)
	}

	for _, reg := range regs {
		switch r := reg.regPtr.(type) {
		case *Mem:
			t.MapMem(addr+reg.offset, r)
		case *Reg8:
			t.MapReg8(addr+reg.offset, r)
		case *Reg16:
			t.MapReg16(addr+reg.offset, r)
		case *Reg32:
			t.MapReg32(addr+reg.offset, r)
		case *Device:
			t.MapDevice(addr+reg.offset, r)
		default:
			panic(fmt.Errorf("invalid reg type: %T", r))
		}
	}
}

func (t *Table) UnmapBank(addr uint32, bank any, bankNum int) {
	regs, err := bankGetRegs(bank, bankNum)
	if err != nil {
		panic(err)
	}

	for _, reg := range regs {
		switch r := reg.regPtr.(type) {
		case *Mem:
			t.Unmap(addr+reg.offset, addr+reg.offset+uint32(r.VSize)-1)
		case *Reg8:
			t.Unmap(addr+reg.offset, addr+reg.offset)
		case *Reg16:
			t.Unmap(addr+reg.offset, addr+reg.offset+1)
		case *Reg32:
			t.Unmap(addr+reg.offset, addr+reg.offset+3)
		case *Device:
			t.Unmap(addr+reg.offset, addr+reg.offset+uint32(r.Size)-1)
		default:
			panic(fmt.Errorf("invalid reg type: %T", r))
		}
	}
}

func (t *Table) mapBus8(addr, size uint32, io any) {
	err := t.table8.InsertRange(addr, addr+size-1, io)
	if err != nil {
		panic(err)
	}
}

func (t *Table) MapReg8(addr uint32, io *Reg8) {
	t.mapBus8(addr, 1, io)
}

func (t *Table) MapReg16(addr uint32, io *Reg16) {
	t.mapBus8(addr, 2, io)
}

func (t *Table) MapReg32(addr uint32, io *Reg32) {
	t.mapBus8(addr, 4, io)
}

func (t *Table) MapDevice(addr uint32, io *Device) {
	t.mapBus8(addr, uint32(io.Size), io)
}

func (t *Table) MapMem(addr uint32, mem *Mem) {
	log.ModHwIo.DebugZ("mapping mem").
		Hex32("addr", addr).
		Hex32("size", uint32(mem.VSize)).
		String("area", mem.Name).
		String("bus", t.Name).
		End()

	if len(mem.Data)&(len(mem.Data)-1) != 0 {
		panic("memory buffer size is not pow2")
	}

	t.mapBus8(addr, uint32(mem.VSize), mem.BankIO8())
}

func (t *Table) MapMemorySlice(addr, end uint32, mem []uint8, readonly bool) {
	log.ModHwIo.DebugZ("mapping slice").
		Hex32("addr", addr).
		Hex32("end", end).
		String("bus", t.Name).
		Bool("ro", readonly).
		End()

	var flags MemFlags
	if readonly {
		flags |= MemFlagReadOnly
	}
	t.MapMem(addr, &Mem{
		Data:  mem,
		Flags: flags,
		VSize: int(end - addr + 1),
	})
}

func (t *Table) Unmap(begin, end uint32) {
	t.table8.RemoveRange(begin, end)
}

// Read8 searches in the table for the device mapped at the given address and
// forwards the read to it.
func (t *Table) Read8(addr uint32) uint8 {
	io := t.table8.Search(addr)
	if io == nil {
		if t.Unmapped != nil {
			return t.Unmapped.Read8(addr)
		}
		if logUnmapped {
			log.ModHwIo.DebugZ("unmapped Read8").
				String("name", t.Name).
				Hex32("addr", addr).
				End()
		}
		return 0
	}
	return io.(BankIO8).Read8(addr)
}

func (t *Table) Peek8(addr uint32) uint8 {
	io := t.table8.Search(addr)
	if io == nil {
		if t.Unmapped != nil {
			return t.Unmapped.Peek8(addr)
		}
		return 0
	}
	return io.(BankIO8).Peek8(addr)
}

func (t *Table) Write8(addr uint32, val uint8) {
	io := t.table8.Search(addr)
	if io == nil {
		if t.Unmapped != nil {
			t.Unmapped.Write8(addr, val)
			return
		}
		if logUnmapped {
			log.ModHwIo.DebugZ("unmapped Write8").
				String("name", t.Name).
				Hex32("addr", addr).
				Hex8("val", val).
				End()
		}
		return
	}
	if mem, ok := io.(*mem); ok {
		// NOTE: we use the CheckRO format so that the success codepath
		// (that is, when the memory is read-write) is fully inlined and
		// requires no function call.
		ok := mem.Write8CheckRO(addr, val)
		if !ok {
			log.ModHwIo.ErrorZ("Write8 to read-only address").
				String("name", t.Name).
				Hex32("addr", addr).
				Hex8("val", val).
				End()
		}
		return
	}
	io.(BankIO8).Write8(addr, val)
}

// Read16 performs an aligned 16-bit read. Objects with a native 16-bit port
// (memory, 16/32-bit registers) are accessed through it, anything else is
// synthesized from byte reads so that adjacent byte registers combine.
func (t *Table) Read16(addr uint32) uint16 {
	addr &^= 1
	switch io := t.table8.Search(addr).(type) {
	case *mem:
		return io.Read16(addr)
	case BankIO16:
		return io.Read16(addr)
	}
	lo := t.Read8(addr)
	hi := t.Read8(addr + 1)
	return uint16(hi)<<8 | uint16(lo)
}

func (t *Table) Peek16(addr uint32) uint16 {
	addr &^= 1
	switch io := t.table8.Search(addr).(type) {
	case *mem:
		return io.Peek16(addr)
	case BankIO16:
		return io.Peek16(addr)
	}
	lo := t.Peek8(addr)
	hi := t.Peek8(addr + 1)
	return uint16(hi)<<8 | uint16(lo)
}

func (t *Table) Write16(addr uint32, val uint16) {
	addr &^= 1
	switch io := t.table8.Search(addr).(type) {
	case *mem:
		io.Write16(addr, val)
	case BankIO16:
		io.Write16(addr, val)
	default:
		t.Write8(addr, uint8(val))
		t.Write8(addr+1, uint8(val>>8))
	}
}

// Read32 performs an aligned 32-bit read. 16-bit objects are read twice, so
// that a pair of adjacent 16-bit registers combines into the 32-bit value.
func (t *Table) Read32(addr uint32) uint32 {
	addr &^= 3
	switch io := t.table8.Search(addr).(type) {
	case *mem:
		return io.Read32(addr)
	case BankIO32:
		return io.Read32(addr)
	}
	lo := t.Read16(addr)
	hi := t.Read16(addr + 2)
	return uint32(hi)<<16 | uint32(lo)
}

func (t *Table) Peek32(addr uint32) uint32 {
	addr &^= 3
	switch io := t.table8.Search(addr).(type) {
	case *mem:
		return io.Peek32(addr)
	case BankIO32:
		return io.Peek32(addr)
	}
	lo := t.Peek16(addr)
	hi := t.Peek16(addr + 2)
	return uint32(hi)<<16 | uint32(lo)
}

func (t *Table) Write32(addr uint32, val uint32) {
	addr &^= 3
	switch io := t.table8.Search(addr).(type) {
	case *mem:
		io.Write32(addr, val)
	case BankIO32:
		io.Write32(addr, val)
	default:
		t.Write16(addr, uint16(val))
		t.Write16(addr+2, uint16(val>>16))
	}
}

func (t *Table) FetchPointer(addr uint32) []uint8 {
	io := t.table8.Search(addr)
	if mem, ok := io.(*mem); ok {
		return mem.FetchPointer(addr)
	}
	return nil
}
