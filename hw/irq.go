package hw

import (
	"strconv"
	"strings"

	"castor/emu/log"
	"castor/hw/snapshot"
)

// IrqSource is one interrupt request line, as its bit in IE/IRF.
type IrqSource uint32

const (
	IrqVBlank          IrqSource = 1 << 0
	IrqHBlank          IrqSource = 1 << 1
	IrqVCount          IrqSource = 1 << 2
	IrqTimer0          IrqSource = 1 << 3
	IrqDMA0            IrqSource = 1 << 8
	IrqIPCSync         IrqSource = 1 << 16
	IrqIPCSendEmpty    IrqSource = 1 << 17
	IrqIPCRecvNotEmpty IrqSource = 1 << 18
	IrqDsSlotTransfer  IrqSource = 1 << 19
	IrqSPI             IrqSource = 1 << 23
)

// IrqTimer returns the request line of timer i.
func IrqTimer(i int) IrqSource { return IrqTimer0 << i }

// Valid IE/IRF bits per core. Writes to other bits never stick.
const (
	arm9IrqMask = 0x003F3F7F
	arm7IrqMask = 0x01DF3FFF
)

var irqSourceNames = map[IrqSource]string{
	IrqVBlank:          "vblank",
	IrqHBlank:          "hblank",
	IrqVCount:          "vcount",
	IrqTimer0:          "timer0",
	IrqTimer0 << 1:     "timer1",
	IrqTimer0 << 2:     "timer2",
	IrqTimer0 << 3:     "timer3",
	IrqDMA0:            "dma0",
	IrqDMA0 << 1:       "dma1",
	IrqDMA0 << 2:       "dma2",
	IrqDMA0 << 3:       "dma3",
	IrqIPCSync:         "ipc-sync",
	IrqIPCSendEmpty:    "ipc-send-empty",
	IrqIPCRecvNotEmpty: "ipc-recv-not-empty",
	IrqDsSlotTransfer:  "ds-slot",
	IrqSPI:             "spi",
}

func (src IrqSource) String() string {
	var names []string
	for bit := 0; bit < 32; bit++ {
		b := IrqSource(1) << bit
		if src&b == 0 {
			continue
		}
		if name, ok := irqSourceNames[b]; ok {
			names = append(names, name)
		} else {
			names = append(names, "bit"+strconv.Itoa(bit))
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// Irqs is one core's interrupt controller.
//
// Invariants, recomputed on every input change within the same call:
// line = master && (ie & irf) != 0; triggered = line && cpsrIRQ. A
// rising line clears halted. triggered going true pulls the schedule
// target back to now so the slice stops and the interrupt is taken.
type Irqs[T ~int64, S ~uint8] struct {
	sched *Schedule[T, S]

	validMask uint32
	ie        uint32
	irf       uint32
	master    bool
	cpsrIRQ   bool
	halted    bool
	line      bool
	triggered bool
}

type Arm7Irqs = Irqs[Timestamp, Arm7Event]
type Arm9Irqs = Irqs[Timestamp9, Arm9Event]

func NewArm7Irqs(sched *Arm7Schedule) *Arm7Irqs {
	return &Arm7Irqs{sched: sched, validMask: arm7IrqMask}
}

func NewArm9Irqs(sched *Arm9Schedule) *Arm9Irqs {
	return &Arm9Irqs{sched: sched, validMask: arm9IrqMask}
}

func (irqs *Irqs[T, S]) IE() uint32         { return irqs.ie }
func (irqs *Irqs[T, S]) IRF() uint32        { return irqs.irf }
func (irqs *Irqs[T, S]) MasterEnable() bool { return irqs.master }
func (irqs *Irqs[T, S]) Halted() bool       { return irqs.halted }
func (irqs *Irqs[T, S]) Line() bool         { return irqs.line }
func (irqs *Irqs[T, S]) Triggered() bool    { return irqs.triggered }

func (irqs *Irqs[T, S]) WriteIE(v uint32) {
	irqs.ie = v & irqs.validMask
	irqs.update(true)
}

// WriteIRF acknowledges requests: write-1-to-clear.
func (irqs *Irqs[T, S]) WriteIRF(v uint32) {
	irqs.irf &^= v
	irqs.update(true)
}

func (irqs *Irqs[T, S]) SetMasterEnable(on bool) {
	irqs.master = on
	irqs.update(true)
}

// SetCpsrIRQEnabled mirrors the CPSR I-flag (true = IRQs allowed).
func (irqs *Irqs[T, S]) SetCpsrIRQEnabled(on bool) {
	irqs.cpsrIRQ = on
	irqs.update(true)
}

// Request raises src and stops the slice if it triggers an interrupt.
func (irqs *Irqs[T, S]) Request(src IrqSource) {
	log.ModIRQ.DebugZ("irq request").Stringer("src", src).End()
	irqs.irf = (irqs.irf | uint32(src)) & irqs.validMask
	irqs.update(true)
}

// RequestDMA raises the completion line of channel i without stopping
// the slice: it fires from inside the DMA run loop, which owns it.
func (irqs *Irqs[T, S]) RequestDMA(i int) {
	irqs.requestNoStop(IrqDMA0 << i)
}

// requestNoStop raises src without pulling the slice target back.
// Cross-core requests use it: the peer observes the line at its next
// slice boundary.
func (irqs *Irqs[T, S]) requestNoStop(src IrqSource) {
	irqs.irf = (irqs.irf | uint32(src)) & irqs.validMask
	irqs.update(false)
}

// Halt stops the core until the IRQ line rises. Halting with the line
// already up is a no-op.
func (irqs *Irqs[T, S]) Halt() {
	irqs.halted = !irqs.line
	if irqs.halted {
		irqs.sched.SetTargetTime(irqs.sched.CurTime())
	}
}

func (irqs *Irqs[T, S]) update(stop bool) {
	irqs.setLine(irqs.master && irqs.ie&irqs.irf != 0, stop)
}

func (irqs *Irqs[T, S]) setLine(line, stop bool) {
	irqs.line = line
	if line {
		irqs.halted = false
	}
	irqs.triggered = line && irqs.cpsrIRQ
	if irqs.triggered && stop {
		irqs.sched.SetTargetTime(irqs.sched.CurTime())
	}
}

func (irqs *Irqs[T, S]) saveState(st *snapshot.Irqs) {
	st.IE = irqs.ie
	st.IRF = irqs.irf
	st.Master = irqs.master
	st.CpsrIRQ = irqs.cpsrIRQ
	st.Halted = irqs.halted
}

// setState restores the request machinery and recomputes the line and
// trigger outputs without stopping any slice. The halt flag comes back
// last: a saved machine can only have been halted with the line down.
func (irqs *Irqs[T, S]) setState(st *snapshot.Irqs) {
	irqs.ie = st.IE & irqs.validMask
	irqs.irf = st.IRF & irqs.validMask
	irqs.master = st.Master
	irqs.cpsrIRQ = st.CpsrIRQ
	irqs.update(false)
	irqs.halted = st.Halted && !irqs.line
}
