package hw

import (
	"bytes"

	"castor/emu/log"
	"castor/hw/snapshot"
)

// The nine VRAM banks in order, A through I.
var vramBankSizes = [9]int{
	0x20000, 0x20000, 0x20000, 0x20000,
	0x10000,
	0x4000, 0x4000,
	0x8000,
	0x4000,
}

var vramLcdcBase = [9]uint32{
	0x06800000, 0x06820000, 0x06840000, 0x06860000,
	0x06880000, 0x06890000, 0x06894000, 0x06898000,
	0x068A0000,
}

var vramCntMasks = [9]uint8{
	0x9B, 0x9B, 0x9F, 0x9F, 0x87, 0x9F, 0x9F, 0x83, 0x83,
}

// Vram owns the bank storage and the VRAMCNT allocation registers.
// Only the placements the timing core cares about are wired: LCDC
// windows on the ARM9 bus, and banks C/D handed to the ARM7. Engine
// placements leave the bank unmapped.
type Vram struct {
	ptrs7, ptrs9 *PageTable
	banks        [9][]byte
	cnt          [9]uint8
}

func NewVram(ptrs7, ptrs9 *PageTable) *Vram {
	vr := &Vram{ptrs7: ptrs7, ptrs9: ptrs9}
	for i, size := range vramBankSizes {
		vr.banks[i] = make([]byte, size)
	}
	return vr
}

func (vr *Vram) Bank(i int) []byte       { return vr.banks[i] }
func (vr *Vram) BankControl(i int) uint8 { return vr.cnt[i] }

// Stat reports which of banks C and D currently sit on the ARM7 bus.
func (vr *Vram) Stat() uint8 {
	var v uint8
	if vr.arm7Mapped(2) {
		v |= 1
	}
	if vr.arm7Mapped(3) {
		v |= 2
	}
	return v
}

// MST 2 is the ARM7 placement on banks C and D only; the same value
// selects an engine placement everywhere else.
func (vr *Vram) arm7Mapped(bank int) bool {
	if bank != 2 && bank != 3 {
		return false
	}
	return vr.cnt[bank]&0x80 != 0 && vr.cnt[bank]&7 == 2
}

func (vr *Vram) WriteBankControl(bank int, v uint8) {
	v &= vramCntMasks[bank]
	if v == vr.cnt[bank] {
		return
	}
	vr.unmapBank(bank)
	vr.cnt[bank] = v
	vr.mapBank(bank)
}

func (vr *Vram) mapBank(bank int) {
	cnt := vr.cnt[bank]
	if cnt&0x80 == 0 {
		return
	}
	switch {
	case cnt&7 == 0:
		base := vramLcdcBase[bank]
		size := uint32(vramBankSizes[bank])
		// 8-bit stores to VRAM are dropped on the floor.
		vr.ptrs9.Map(AccessR|AccessW1632, vr.banks[bank], base, base+size-1)
	case vr.arm7Mapped(bank):
		base := vr.arm7Base(bank)
		vr.ptrs7.Map(AccessR|AccessW1632, vr.banks[bank], base, base+0x1FFFF)
		log.ModBus.DebugZ("vram bank to arm7").Int("bank", bank).Hex32("base", base).End()
	default:
		log.ModBus.DebugZ("vram bank placement not mapped").
			Int("bank", bank).Hex8("cnt", cnt).End()
	}
}

func (vr *Vram) unmapBank(bank int) {
	cnt := vr.cnt[bank]
	if cnt&0x80 == 0 {
		return
	}
	switch {
	case cnt&7 == 0:
		base := vramLcdcBase[bank]
		size := uint32(vramBankSizes[bank])
		vr.ptrs9.Unmap(base, base+size-1)
	case vr.arm7Mapped(bank):
		base := vr.arm7Base(bank)
		vr.ptrs7.Unmap(base, base+0x1FFFF)
	}
}

func (vr *Vram) arm7Base(bank int) uint32 {
	return 0x06000000 + uint32(vr.cnt[bank]>>3&3)*0x20000
}

func (vr *Vram) State() *snapshot.Vram {
	st := &snapshot.Vram{Cnt: vr.cnt}
	for i, b := range vr.banks {
		st.Banks[i] = bytes.Clone(b)
	}
	return st
}

// SetState restores every bank's contents and placement. Unmapping
// under the old control and remapping under the new one rebuilds both
// cores' page tables; contents copy into the existing backing.
func (vr *Vram) SetState(st *snapshot.Vram) {
	for i := range vr.banks {
		vr.unmapBank(i)
		copy(vr.banks[i], st.Banks[i])
		vr.cnt[i] = st.Cnt[i] & vramCntMasks[i]
		vr.mapBank(i)
	}
}
