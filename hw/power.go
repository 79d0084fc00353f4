package hw

import (
	"castor/emu/log"
	"castor/hw/snapshot"
)

// Power gathers the power-management and bus-arbitration latches:
// HALTCNT, the two POWCNT registers, EXMEMCNT, RCNT and BIOSPROT.
type Power struct {
	sched7  *Arm7Schedule
	machine *MachineSchedule
	irqs7   *Arm7Irqs

	// OnSlotOwnerChange fires when EXMEMCNT bit 11 moves the DS slot
	// between cores; true hands it to the ARM7.
	OnSlotOwnerChange func(arm7 bool)

	powcnt1  uint16
	powcnt2  uint16
	exmem    uint16
	rcnt     uint16
	biosProt uint16
	haltcnt  uint8
}

func NewPower(sched7 *Arm7Schedule, machine *MachineSchedule, irqs7 *Arm7Irqs) *Power {
	return &Power{sched7: sched7, machine: machine, irqs7: irqs7, exmem: 0x6000}
}

func (pw *Power) ReadHaltCnt() uint8 { return pw.haltcnt }

func (pw *Power) WriteHaltCnt(v uint8) {
	pw.haltcnt = v & 0xC0
	switch v >> 6 {
	case 1:
		log.ModEmu.WarnZ("GBA mode requested, not supported").End()
	case 2:
		pw.irqs7.Halt()
	case 3:
		pw.Shutdown()
	}
}

// Shutdown schedules the power-off events on both clock domains at
// the current time. HALTCNT and the power-management chip both land
// here.
func (pw *Power) Shutdown() {
	log.ModEmu.InfoZ("shutdown requested").End()
	pw.sched7.Schedule(Arm7EvShutdown, pw.sched7.CurTime())
	pw.machine.Schedule(MachineEvShutdown, pw.machine.CurTime())
}

func (pw *Power) ReadPowCnt1() uint16   { return pw.powcnt1 }
func (pw *Power) WritePowCnt1(v uint16) { pw.powcnt1 = v & 0x820F }
func (pw *Power) ReadPowCnt2() uint16   { return pw.powcnt2 }
func (pw *Power) WritePowCnt2(v uint16) { pw.powcnt2 = v & 0x3 }
func (pw *Power) ReadRcnt() uint16      { return pw.rcnt }
func (pw *Power) WriteRcnt(v uint16)    { pw.rcnt = v & 0xC1FF }

func (pw *Power) ReadExmem() uint16 { return pw.exmem }

// WriteExmem is the ARM9 side of EXMEMCNT; the ARM7 only gets to read
// the shared bits back.
func (pw *Power) WriteExmem(v uint16) {
	old := pw.exmem
	pw.exmem = v&0x8880 | 0x6000
	if (old^pw.exmem)&1<<11 != 0 && pw.OnSlotOwnerChange != nil {
		pw.OnSlotOwnerChange(pw.exmem&1<<11 != 0)
	}
}

// Arm7SlotOwner reports whether EXMEMCNT currently hands the DS slot
// to the ARM7.
func (pw *Power) Arm7SlotOwner() bool { return pw.exmem&1<<11 != 0 }

func (pw *Power) BiosProt() uint16 { return pw.biosProt }

// WriteBiosProt latches the BIOS read protection threshold. The
// register takes exactly one write; later ones bounce off.
func (pw *Power) WriteBiosProt(v uint16) {
	if pw.biosProt == 0 {
		pw.biosProt = v & 0x3FFE
	}
}

func (pw *Power) State() *snapshot.Power {
	return &snapshot.Power{
		PowCnt1:  pw.powcnt1,
		PowCnt2:  pw.powcnt2,
		Exmem:    pw.exmem,
		Rcnt:     pw.rcnt,
		BiosProt: pw.biosProt,
		HaltCnt:  pw.haltcnt,
	}
}

// SetState restores the registers without their write side effects:
// the slot owner, halt state and power flags were all saved by the
// units they live in.
func (pw *Power) SetState(st *snapshot.Power) {
	pw.powcnt1 = st.PowCnt1
	pw.powcnt2 = st.PowCnt2
	pw.exmem = st.Exmem
	pw.rcnt = st.Rcnt
	pw.biosProt = st.BiosProt
	pw.haltcnt = st.HaltCnt
}
