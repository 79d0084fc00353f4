package hw

import (
	"castor/emu/log"
	"castor/hw/snapshot"
)

// Scanline timing: 256x192 visible dots at 6 machine cycles per dot,
// 263 lines per frame.
const (
	VisibleLines   = 192
	TotalLines     = 263
	HDrawCycles    = 1536
	HBlankCycles   = 594
	ScanlineCycles = HDrawCycles + HBlankCycles

	// FrameCycles is the machine-cycle length of one full frame.
	FrameCycles = ScanlineCycles * TotalLines
)

// DISPSTAT bits. 0-2 are live status, the rest latch as written.
const (
	dispstatVBlank    = 1 << 0
	dispstatHBlank    = 1 << 1
	dispstatMatch     = 1 << 2
	dispstatVBlankIRQ = 1 << 3
	dispstatHBlankIRQ = 1 << 4
	dispstatMatchIRQ  = 1 << 5
	dispstatWMask     = 0xFFB8
)

// compare value: low byte at 8-15, ninth bit at 7.
func dispstatCompare(ds uint16) uint16 {
	return ds>>8 | ds&0x80<<1
}

// Video walks the scanline state machine on the machine schedule and
// fans hblank/vblank/vcount-match out to both cores: DISPSTAT status
// bits, display IRQs, and the hblank/vblank DMA triggers. No pixels
// are produced.
type Video struct {
	sched *MachineSchedule
	irqs7 *Arm7Irqs
	irqs9 *Arm9Irqs
	dma7  *DmaController
	dma9  *DmaController

	vcount    uint16
	dispstat7 uint16
	dispstat9 uint16
}

func NewVideo(sched *MachineSchedule, irqs7 *Arm7Irqs, irqs9 *Arm9Irqs, dma7, dma9 *DmaController) *Video {
	return &Video{sched: sched, irqs7: irqs7, irqs9: irqs9, dma7: dma7, dma9: dma9}
}

// Reset rewinds to the top of the frame and arms the first scanline
// event.
func (v *Video) Reset() {
	v.vcount = 0
	v.dispstat7 &= dispstatWMask
	v.dispstat9 &= dispstatWMask
	v.sched.Schedule(MachineEvEndHDraw, v.sched.CurTime()+HDrawCycles)
}

func (v *Video) VCount() uint16 { return v.vcount }

func (v *Video) ReadDispStat7() uint16 { return v.dispstat7 }
func (v *Video) ReadDispStat9() uint16 { return v.dispstat9 }

func (v *Video) WriteDispStat7(val uint16) {
	v.dispstat7 = v.dispstat7&^dispstatWMask | val&dispstatWMask
}

func (v *Video) WriteDispStat9(val uint16) {
	v.dispstat9 = v.dispstat9&^dispstatWMask | val&dispstatWMask
}

// HandleEndHDraw enters hblank: status bits, hblank IRQs, and the
// ARM9 hblank DMA trigger on visible lines. The hblank period closes
// with EndHBlank, or FinishFrame on the last line.
func (v *Video) HandleEndHDraw(tm Timestamp) {
	v.dispstat7 |= dispstatHBlank
	v.dispstat9 |= dispstatHBlank
	if v.dispstat7&dispstatHBlankIRQ != 0 {
		v.irqs7.Request(IrqHBlank)
	}
	if v.dispstat9&dispstatHBlankIRQ != 0 {
		v.irqs9.Request(IrqHBlank)
	}
	if v.vcount < VisibleLines {
		v.dma9.Trigger(DmaHBlank)
	}

	ev := MachineEvEndHBlank
	if v.vcount == TotalLines-1 {
		ev = MachineEvFinishFrame
	}
	v.sched.Schedule(ev, tm+HBlankCycles)
}

// HandleEndHBlank starts the next scanline: vcount advance, match
// flags and IRQs, vblank entry at line 192 (flags, IRQs, vblank DMA on
// both cores) and exit on the last line.
func (v *Video) HandleEndHBlank(tm Timestamp) {
	v.dispstat7 &^= dispstatHBlank
	v.dispstat9 &^= dispstatHBlank

	v.vcount++
	if v.vcount == TotalLines {
		v.vcount = 0
	}

	v.updateMatch()

	switch v.vcount {
	case VisibleLines:
		log.ModVideo.DebugZ("vblank").End()
		v.dispstat7 |= dispstatVBlank
		v.dispstat9 |= dispstatVBlank
		if v.dispstat7&dispstatVBlankIRQ != 0 {
			v.irqs7.Request(IrqVBlank)
		}
		if v.dispstat9&dispstatVBlankIRQ != 0 {
			v.irqs9.Request(IrqVBlank)
		}
		v.dma7.Trigger(DmaVBlank)
		v.dma9.Trigger(DmaVBlank)
	case TotalLines - 1:
		// The vblank flag drops one line before the frame ends.
		v.dispstat7 &^= dispstatVBlank
		v.dispstat9 &^= dispstatVBlank
	}

	v.sched.Schedule(MachineEvEndHDraw, tm+HDrawCycles)
}

func (v *Video) updateMatch() {
	if v.vcount == dispstatCompare(v.dispstat7) {
		matched := v.dispstat7&dispstatMatch != 0
		v.dispstat7 |= dispstatMatch
		if !matched && v.dispstat7&dispstatMatchIRQ != 0 {
			v.irqs7.Request(IrqVCount)
		}
	} else {
		v.dispstat7 &^= dispstatMatch
	}
	if v.vcount == dispstatCompare(v.dispstat9) {
		matched := v.dispstat9&dispstatMatch != 0
		v.dispstat9 |= dispstatMatch
		if !matched && v.dispstat9&dispstatMatchIRQ != 0 {
			v.irqs9.Request(IrqVCount)
		}
	} else {
		v.dispstat9 &^= dispstatMatch
	}
}

// State and SetState cover the raster counters only; the scanline
// event itself lives on the machine schedule.
func (v *Video) State() *snapshot.Video {
	return &snapshot.Video{
		VCount:    v.vcount,
		DispStat7: v.dispstat7,
		DispStat9: v.dispstat9,
	}
}

func (v *Video) SetState(st *snapshot.Video) {
	v.vcount = st.VCount
	v.dispstat7 = st.DispStat7
	v.dispstat9 = st.DispStat9
}
