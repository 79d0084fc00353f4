package hw

import (
	"math/bits"

	"castor/emu/log"
	"castor/hw/snapshot"
)

//go:generate go tool stringer -type=DmaTiming,DmaState -output=dma_string.go

// DmaTiming is a channel's start trigger. Every value decodes; only
// Immediate, VBlank, HBlank and DsSlot ever fire in this machine
// (display, GBA-slot, geometry and wifi transfers have no source
// here).
type DmaTiming uint8

const (
	DmaImmediate DmaTiming = iota
	DmaVBlank
	DmaHBlank
	DmaDisplayStart
	DmaDisplayFifo
	DmaDsSlot
	DmaGbaSlot
	DmaGxFifo
	DmaWiFi
)

// DmaState classifies a channel: Disabled (enable bit clear), Pending
// (enabled, waiting for its trigger), Running (started; transferring
// whenever it holds the bus).
type DmaState uint8

const (
	DmaStateDisabled DmaState = iota
	DmaStatePending
	DmaStateRunning
)

// Control register layout, shared by both cores. The unit-count mask
// and the timing field decode are per core and per channel.
const (
	dmaDstCtrlShift = 21
	dmaSrcCtrlShift = 23
	dmaRepeat       = 1 << 25
	dma32Bit        = 1 << 26
	dmaFireIRQ      = 1 << 30
	dmaEnable       = 1 << 31
)

// StrictDma aborts on prohibited control decodes (source control 3)
// instead of falling back to fixed-address. Debug runs set it; the
// fallback is what the hardware does.
var StrictDma bool

// DmaChannel is one channel's architectural state. srcAddr and dstAddr
// latch what was written; curSrc and curDst are the live cursors the
// transfer advances. nextNseq records that the next access pays the
// nonsequential cost (after start, preemption or a timing-page cross),
// so a transfer split across slices resumes with the exact same cost
// sequence.
type DmaChannel struct {
	control   uint32
	srcAddr   uint32
	dstAddr   uint32
	curSrc    uint32
	curDst    uint32
	unitCount uint32
	remaining uint32
	srcIncr   int32
	dstIncr   int32
	timing    DmaTiming
	repeat    bool
	is32      bool
	fireIRQ   bool
	nextNseq  bool
}

func (ch *DmaChannel) Control() uint32   { return ch.control }
func (ch *DmaChannel) SrcAddr() uint32   { return ch.srcAddr }
func (ch *DmaChannel) DstAddr() uint32   { return ch.dstAddr }
func (ch *DmaChannel) CurSrc() uint32    { return ch.curSrc }
func (ch *DmaChannel) CurDst() uint32    { return ch.curDst }
func (ch *DmaChannel) UnitCount() uint32 { return ch.unitCount }
func (ch *DmaChannel) Remaining() uint32 { return ch.remaining }
func (ch *DmaChannel) Timing() DmaTiming { return ch.timing }

func (ch *DmaChannel) enabled() bool { return ch.control&dmaEnable != 0 }

func (ch *DmaChannel) alignMask() uint32 {
	if ch.is32 {
		return ^uint32(3)
	}
	return ^uint32(1)
}

// decode refreshes the derived fields from a masked control value. A
// raw unit count of zero means the maximum (countMask+1 units).
func (ch *DmaChannel) decode(control, countMask uint32, timing DmaTiming) {
	ch.control = control
	ch.is32 = control&dma32Bit != 0
	ch.fireIRQ = control&dmaFireIRQ != 0
	ch.timing = timing
	ch.repeat = control&dmaRepeat != 0 && timing != DmaImmediate

	ch.unitCount = control & countMask
	if ch.unitCount == 0 {
		ch.unitCount = countMask + 1
	}

	unit := int32(2)
	if ch.is32 {
		unit = 4
	}
	switch (control >> dmaSrcCtrlShift) & 3 {
	case 0:
		ch.srcIncr = unit
	case 1:
		ch.srcIncr = -unit
	case 2:
		ch.srcIncr = 0
	case 3:
		// Prohibited decode; the hardware treats it as fixed-address.
		if StrictDma {
			log.ModDMA.FatalZ("dma src control 3").Hex32("control", control).End()
		}
		log.ModDMA.WarnZ("dma src control 3, decoding as fixed").Hex32("control", control).End()
		ch.srcIncr = 0
	}
	switch (control >> dmaDstCtrlShift) & 3 {
	case 1:
		ch.dstIncr = -unit
	case 2:
		ch.dstIncr = 0
	default: // 0 increment, 3 increment+reload
		ch.dstIncr = unit
	}
}

// latchCursors (re)loads the live cursors and the unit budget from the
// written addresses, aligned to the unit size.
func (ch *DmaChannel) latchCursors() {
	ch.curSrc = ch.srcAddr & ch.alignMask()
	ch.curDst = ch.dstAddr & ch.alignMask()
	ch.remaining = ch.unitCount
}

// DmaController holds one core's four channels. cur is the channel
// that owns the bus (-1 when none); running is the started-channel
// bitmask. Priority is fixed: the lowest started index wins.
type DmaController struct {
	channels [4]DmaChannel
	cur      int
	running  uint8
}

func NewDmaController() *DmaController {
	return &DmaController{cur: -1}
}

func (dc *DmaController) Channel(i int) *DmaChannel { return &dc.channels[i] }

// CurChannel returns the index of the channel holding the bus, or -1.
func (dc *DmaController) CurChannel() int { return dc.cur }

func (dc *DmaController) ChannelState(i int) DmaState {
	switch {
	case !dc.channels[i].enabled():
		return DmaStateDisabled
	case dc.running&(1<<i) != 0:
		return DmaStateRunning
	default:
		return DmaStatePending
	}
}

// Trigger starts every enabled, not-yet-running channel whose timing
// matches.
func (dc *DmaController) Trigger(timing DmaTiming) {
	for i := range dc.channels {
		ch := &dc.channels[i]
		if ch.enabled() && dc.running&(1<<i) == 0 && ch.timing == timing {
			dc.start(i)
		}
	}
}

// start marks channel i running. If a higher-priority channel holds
// the bus, i waits its turn; a lower-priority holder is preempted and
// resumes with a nonsequential access.
func (dc *DmaController) start(i int) {
	dc.channels[i].nextNseq = true
	dc.running |= 1 << i
	if dc.cur >= 0 && dc.cur < i {
		return
	}
	if dc.cur > i {
		dc.channels[dc.cur].nextNseq = true
	}
	dc.cur = i
}

// end retires channel i after its last unit. Repeat channels reload
// their budget (and, in dst-reload mode, the destination cursor) and
// go back to waiting for their trigger; others clear their enable bit.
// The caller raises the channel IRQ when end reports it.
func (dc *DmaController) end(i int) (fireIRQ bool) {
	ch := &dc.channels[i]
	if ch.repeat {
		ch.remaining = ch.unitCount
		if (ch.control>>dmaDstCtrlShift)&3 == 3 {
			ch.curDst = ch.dstAddr & ch.alignMask()
		}
		ch.nextNseq = true
	} else {
		ch.control &^= dmaEnable
	}
	dc.running &^= 1 << i
	dc.selectNext()
	return ch.fireIRQ
}

// disable drops channel i (enable bit written 0 mid-flight). Cursors
// and the remaining budget stay put.
func (dc *DmaController) disable(i int) {
	dc.running &^= 1 << i
	if dc.cur == i {
		dc.selectNext()
	}
}

func (dc *DmaController) selectNext() {
	if dc.running == 0 {
		dc.cur = -1
		return
	}
	dc.cur = bits.TrailingZeros8(dc.running)
}

func (dc *DmaController) saveState(st *snapshot.Dma) {
	for i, ch := range dc.channels {
		st.Channels[i] = snapshot.DmaChannel{
			Control:   ch.control,
			SrcAddr:   ch.srcAddr,
			DstAddr:   ch.dstAddr,
			CurSrc:    ch.curSrc,
			CurDst:    ch.curDst,
			Remaining: ch.remaining,
			NextNseq:  ch.nextNseq,
		}
	}
	st.Running = dc.running
}

// setState restores the channels. redecode rebuilds the derived
// control fields with the owning core's masks; the cursors and budget
// then overwrite what the decode refreshed.
func (dc *DmaController) setState(st *snapshot.Dma, redecode func(i int, control uint32)) {
	for i := range dc.channels {
		ch := &dc.channels[i]
		sc := &st.Channels[i]
		ch.srcAddr = sc.SrcAddr
		ch.dstAddr = sc.DstAddr
		redecode(i, sc.Control)
		ch.curSrc = sc.CurSrc
		ch.curDst = sc.CurDst
		ch.remaining = sc.Remaining
		ch.nextNseq = sc.NextNseq
	}
	dc.running = st.Running
	dc.selectNext()
}
