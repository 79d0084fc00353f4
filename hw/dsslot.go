package hw

import (
	"castor/emu/log"
	"castor/hw/snapshot"
)

// DsSlot models the cartridge slot protocol timing: AUXSPI transfers
// and block ROM reads, clocked on whichever core EXMEMCNT makes the
// owner. Commands are never interpreted, so every transfer streams
// 0xFFFFFFFF words; what matters is when the words become ready.
type DsSlot struct {
	sched7 *Arm7Schedule
	sched9 *Arm9Schedule
	irqs7  *Arm7Irqs
	irqs9  *Arm9Irqs
	dma7   *DmaController
	dma9   *DmaController

	arm7Owner bool

	auxSpiCnt uint16
	spiData   uint8
	spiHold   bool
	romCtrl   uint32
	cmd       [8]uint8

	blockSize uint32
	readBytes uint32
	word      uint32
}

func NewDsSlot(sched7 *Arm7Schedule, sched9 *Arm9Schedule,
	irqs7 *Arm7Irqs, irqs9 *Arm9Irqs, dma7, dma9 *DmaController) *DsSlot {
	return &DsSlot{
		sched7: sched7, sched9: sched9,
		irqs7: irqs7, irqs9: irqs9,
		dma7: dma7, dma9: dma9,
	}
}

func (slot *DsSlot) owns(arm7 bool) bool { return arm7 == slot.arm7Owner }

// Reset aborts whatever transfer was in flight: the busy and ready
// bits drop, the registers keep their contents.
func (slot *DsSlot) Reset() {
	slot.romCtrl &^= 1<<31 | 1<<23
	slot.auxSpiCnt &^= 1 << 7
	slot.spiHold = false
	slot.blockSize = 0
	slot.readBytes = 0
}

// SetOwner7 hands the slot to the other core. A transfer in flight
// moves with it: the pending event keeps its remaining delay, rebased
// onto the new owner's clock.
func (slot *DsSlot) SetOwner7(arm7 bool) {
	if arm7 == slot.arm7Owner {
		return
	}
	log.ModSlot.DebugZ("slot owner change").Bool("arm7", arm7).End()
	if slot.arm7Owner {
		if tm, ok := slot.sched7.Pending(Arm7EvDsSlotROM); ok {
			slot.sched7.Cancel(Arm7EvDsSlotROM)
			rem := max(tm-slot.sched7.CurTime(), 0)
			slot.sched9.Schedule(Arm9EvDsSlotROM, slot.sched9.CurTime()+rem.To9())
		}
		if tm, ok := slot.sched7.Pending(Arm7EvDsSlotSPI); ok {
			slot.sched7.Cancel(Arm7EvDsSlotSPI)
			rem := max(tm-slot.sched7.CurTime(), 0)
			slot.sched9.Schedule(Arm9EvDsSlotSPI, slot.sched9.CurTime()+rem.To9())
		}
	} else {
		if tm, ok := slot.sched9.Pending(Arm9EvDsSlotROM); ok {
			slot.sched9.Cancel(Arm9EvDsSlotROM)
			rem := max(tm-slot.sched9.CurTime(), 0)
			slot.sched7.Schedule(Arm7EvDsSlotROM, slot.sched7.CurTime()+rem.ToMachine())
		}
		if tm, ok := slot.sched9.Pending(Arm9EvDsSlotSPI); ok {
			slot.sched9.Cancel(Arm9EvDsSlotSPI)
			rem := max(tm-slot.sched9.CurTime(), 0)
			slot.sched7.Schedule(Arm7EvDsSlotSPI, slot.sched7.CurTime()+rem.ToMachine())
		}
	}
	slot.arm7Owner = arm7
}

func (slot *DsSlot) ReadAuxSpiCnt(arm7 bool) uint16 {
	if !slot.owns(arm7) {
		return 0
	}
	return slot.auxSpiCnt
}

func (slot *DsSlot) WriteAuxSpiCnt(arm7 bool, v uint16) {
	if !slot.owns(arm7) {
		return
	}
	slot.auxSpiCnt = slot.auxSpiCnt&0x0080 | v&0xE043
}

func (slot *DsSlot) ReadSpiData(arm7 bool) uint8 {
	if !slot.owns(arm7) {
		return 0
	}
	return slot.spiData
}

// WriteSpiData clocks one byte over the backup SPI link. The busy bit
// holds for 64<<baud cycles; nothing sits behind the bus here, so the
// reply is always zero.
func (slot *DsSlot) WriteSpiData(arm7 bool, v uint8) {
	if !slot.owns(arm7) || slot.auxSpiCnt&1<<15 == 0 {
		return
	}
	slot.spiHold = slot.auxSpiCnt&1<<6 != 0
	slot.auxSpiCnt |= 1 << 7
	delay := Timestamp(64) << (slot.auxSpiCnt & 3)
	log.ModSlot.DebugZ("aux spi byte").Hex8("val", v).Bool("hold", slot.spiHold).End()
	if slot.arm7Owner {
		slot.sched7.Schedule(Arm7EvDsSlotSPI, slot.sched7.CurTime()+delay)
	} else {
		slot.sched9.Schedule(Arm9EvDsSlotSPI, slot.sched9.CurTime()+delay.To9())
	}
}

func (slot *DsSlot) HandleSpiEvent() {
	slot.auxSpiCnt &^= 1 << 7
	slot.spiData = 0
}

func (slot *DsSlot) ReadRomCtrl(arm7 bool) uint32 {
	if !slot.owns(arm7) {
		return 0
	}
	return slot.romCtrl
}

// WriteRomCtrl latches the control word, keeping the busy and
// data-ready status bits. Writing the busy bit from clear to set with
// the slot enabled starts a block transfer.
func (slot *DsSlot) WriteRomCtrl(arm7 bool, v uint32) {
	if !slot.owns(arm7) {
		return
	}
	old := slot.romCtrl
	slot.romCtrl = old&0x80800000 | v&^0x00808000
	if v&1<<31 != 0 && old&1<<31 == 0 && slot.auxSpiCnt&1<<15 != 0 {
		slot.startRomTransfer()
	}
}

func (slot *DsSlot) WriteCmdWord(arm7 bool, i int, v uint32) {
	if !slot.owns(arm7) {
		return
	}
	for b := range 4 {
		slot.cmd[i*4+b] = uint8(v >> (8 * b))
	}
}

// clk is the machine-cycle length of one cartridge clock pulse.
func (slot *DsSlot) clk() Timestamp {
	if slot.romCtrl&1<<27 != 0 {
		return 8
	}
	return 5
}

func (slot *DsSlot) scheduleRom(delay Timestamp) {
	if slot.arm7Owner {
		slot.sched7.Schedule(Arm7EvDsSlotROM, slot.sched7.CurTime()+delay)
	} else {
		slot.sched9.Schedule(Arm9EvDsSlotROM, slot.sched9.CurTime()+delay.To9())
	}
}

func (slot *DsSlot) startRomTransfer() {
	shift := slot.romCtrl >> 24 & 7
	switch shift {
	case 0:
		slot.blockSize = 0
	case 7:
		slot.blockSize = 4
	default:
		slot.blockSize = 0x100 << shift
	}
	slot.readBytes = 0
	slot.romCtrl |= 1 << 31
	slot.romCtrl &^= 1 << 23

	// Eight command pulses, four more to clock the first word out, and
	// the leading gap the control word asks for.
	pulses := Timestamp(8 + slot.romCtrl&0x1FFF)
	if slot.blockSize != 0 {
		pulses += 4
	}
	log.ModSlot.DebugZ("rom transfer start").
		Blob("cmd", slot.cmd[:]).
		Int("size", int(slot.blockSize)).
		End()
	slot.scheduleRom(pulses * slot.clk())
}

// HandleRomEvent makes the next word available and kicks the owner's
// slot-timed DMA. A zero-length transfer completes on the spot: the
// ready bit comes up over a zero word and the completion IRQ fires
// with no data phase behind it.
func (slot *DsSlot) HandleRomEvent() {
	slot.romCtrl |= 1 << 23
	if slot.blockSize == 0 {
		slot.word = 0
		slot.finishRomTransfer()
		return
	}
	slot.word = 0xFFFFFFFF
	if slot.arm7Owner {
		slot.dma7.Trigger(DmaDsSlot)
	} else {
		slot.dma9.Trigger(DmaDsSlot)
	}
}

// ReadData pops the data port. Consuming a word schedules the next
// one four pulses out, stretched by the block gap every 0x200 bytes;
// consuming the last one completes the transfer. With nothing ready
// the port just repeats the latched word.
func (slot *DsSlot) ReadData(arm7 bool) uint32 {
	if !slot.owns(arm7) {
		return 0
	}
	if slot.romCtrl&1<<23 == 0 {
		return slot.word
	}
	slot.romCtrl &^= 1 << 23
	slot.readBytes += 4
	if slot.readBytes >= slot.blockSize {
		slot.finishRomTransfer()
	} else {
		pulses := Timestamp(4)
		// The gap only stretches reads; write transfers skip it.
		if slot.readBytes&0x1FF == 0 && slot.romCtrl&1<<30 == 0 {
			pulses += Timestamp(slot.romCtrl >> 16 & 0x3F)
		}
		slot.scheduleRom(pulses * slot.clk())
	}
	return slot.word
}

// PeekData reads what the data port would return without consuming
// the word.
func (slot *DsSlot) PeekData(arm7 bool) uint32 {
	if !slot.owns(arm7) {
		return 0
	}
	return slot.word
}

func (slot *DsSlot) finishRomTransfer() {
	slot.romCtrl &^= 1 << 31
	log.ModSlot.DebugZ("rom transfer done").Int("bytes", int(slot.readBytes)).End()
	if slot.auxSpiCnt&1<<14 != 0 {
		if slot.arm7Owner {
			slot.irqs7.Request(IrqDsSlotTransfer)
		} else {
			slot.irqs9.Request(IrqDsSlotTransfer)
		}
	}
}

func (slot *DsSlot) State() *snapshot.DsSlot {
	return &snapshot.DsSlot{
		Arm7Owner: slot.arm7Owner,
		AuxSpiCnt: slot.auxSpiCnt,
		SpiData:   slot.spiData,
		SpiHold:   slot.spiHold,
		RomCtrl:   slot.romCtrl,
		Cmd:       slot.cmd,
		BlockSize: slot.blockSize,
		ReadBytes: slot.readBytes,
		Word:      slot.word,
	}
}

// SetState restores the slot registers. The owner comes back as plain
// state: an in-flight transfer event was saved on the owning core's
// schedule and returns with it.
func (slot *DsSlot) SetState(st *snapshot.DsSlot) {
	slot.arm7Owner = st.Arm7Owner
	slot.auxSpiCnt = st.AuxSpiCnt
	slot.spiData = st.SpiData
	slot.spiHold = st.SpiHold
	slot.romCtrl = st.RomCtrl
	slot.cmd = st.Cmd
	slot.blockSize = st.BlockSize
	slot.readBytes = st.ReadBytes
	slot.word = st.Word
}
