package hw

import (
	"bytes"

	"castor/emu/log"
	"castor/hw/snapshot"
)

const (
	SharedWramSize = 0x8000
	Arm7WramSize   = 0x10000
)

// SWram is the 32 KB shared work RAM bank switch. WRAMCNT hands each
// 16 KB half to one core or the other; whatever the ARM7 does not get
// falls back to its private WRAM.
type SWram struct {
	ptrs7, ptrs9 *PageTable
	wram7        []byte
	shared       []byte
	control      uint8
}

func NewSWram(ptrs7, ptrs9 *PageTable, wram7 []byte) *SWram {
	sw := &SWram{
		ptrs7:  ptrs7,
		ptrs9:  ptrs9,
		wram7:  wram7,
		shared: make([]byte, SharedWramSize),
	}
	sw.remap()
	return sw
}

func (sw *SWram) Control() uint8 { return sw.control }
func (sw *SWram) Shared() []byte { return sw.shared }

func (sw *SWram) WriteControl(v uint8) {
	v &= 3
	if v == sw.control {
		return
	}
	log.ModBus.DebugZ("swram bank").Hex8("control", v).End()
	sw.control = v
	sw.remap()
}

func (sw *SWram) remap() {
	// ARM7: 0x03000000-0x037FFFFF follows the bank switch, the upper
	// half of the region is always private WRAM.
	switch sw.control {
	case 0:
		sw.ptrs7.Map(AccessAll, sw.wram7, 0x03000000, 0x037FFFFF)
	case 1:
		sw.ptrs7.Map(AccessAll, sw.shared[:0x4000], 0x03000000, 0x037FFFFF)
	case 2:
		sw.ptrs7.Map(AccessAll, sw.shared[0x4000:], 0x03000000, 0x037FFFFF)
	case 3:
		sw.ptrs7.Map(AccessAll, sw.shared, 0x03000000, 0x037FFFFF)
	}
	sw.ptrs7.Map(AccessAll, sw.wram7, 0x03800000, 0x03FFFFFF)

	// ARM9: the whole region mirrors its share, or dies with layout 3.
	switch sw.control {
	case 0:
		sw.ptrs9.Map(AccessAll, sw.shared, 0x03000000, 0x03FFFFFF)
	case 1:
		sw.ptrs9.Map(AccessAll, sw.shared[0x4000:], 0x03000000, 0x03FFFFFF)
	case 2:
		sw.ptrs9.Map(AccessAll, sw.shared[:0x4000], 0x03000000, 0x03FFFFFF)
	case 3:
		sw.ptrs9.Unmap(0x03000000, 0x03FFFFFF)
	}
}

func (sw *SWram) State() *snapshot.SWram {
	return &snapshot.SWram{
		Control: sw.control,
		Shared:  bytes.Clone(sw.shared),
	}
}

// SetState restores the bank contents and layout, remapping both
// cores' page tables. Contents copy into the existing backing so the
// installed windows stay valid.
func (sw *SWram) SetState(st *snapshot.SWram) {
	copy(sw.shared, st.Shared)
	sw.control = st.Control & 3
	sw.remap()
}
