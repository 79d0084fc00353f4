package hw

import "testing"

type slotRig struct {
	sched7 *Arm7Schedule
	sched9 *Arm9Schedule
	irqs7  *Arm7Irqs
	irqs9  *Arm9Irqs
	dma7   *DmaController
	dma9   *DmaController
	slot   *DsSlot
}

func newSlotRig() *slotRig {
	r := &slotRig{
		sched7: NewArm7Schedule(),
		sched9: NewArm9Schedule(),
		dma7:   NewDmaController(),
		dma9:   NewDmaController(),
	}
	r.irqs7 = NewArm7Irqs(r.sched7)
	r.irqs9 = NewArm9Irqs(r.sched9)
	r.slot = NewDsSlot(r.sched7, r.sched9, r.irqs7, r.irqs9, r.dma7, r.dma9)
	return r
}

func TestDsSlotRomTransfer(t *testing.T) {
	r := newSlotRig() // ARM9 owns the slot by default

	r.slot.WriteAuxSpiCnt(false, 0x8000|1<<14)
	r.slot.WriteRomCtrl(false, 1<<31|1<<24) // 0x200-byte block
	if r.slot.ReadRomCtrl(false)&1<<31 == 0 {
		t.Fatal("busy not set")
	}

	// 8 command pulses plus 4 for the first word, 5 cycles each, on
	// the ARM9 clock.
	if tm, ok := r.sched9.Pending(Arm9EvDsSlotROM); !ok || tm != 120 {
		t.Fatalf("first word at %d (ok=%v), want 120", tm, ok)
	}

	for i := 0; i < 0x200/4; i++ {
		r.slot.HandleRomEvent()
		if r.slot.ReadRomCtrl(false)&1<<23 == 0 {
			t.Fatalf("word %d: data-ready clear", i)
		}
		if got := r.slot.ReadData(false); got != 0xFFFFFFFF {
			t.Fatalf("word %d = %08x", i, got)
		}
	}

	if r.slot.ReadRomCtrl(false)&1<<31 != 0 {
		t.Fatal("busy after last word")
	}
	if r.irqs9.IRF()&uint32(IrqDsSlotTransfer) == 0 {
		t.Fatal("transfer irq not raised")
	}
}

func TestDsSlotWordPacing(t *testing.T) {
	r := newSlotRig()

	r.slot.WriteAuxSpiCnt(false, 0x8000)
	// 0x400-byte block with a 0x10-pulse gap between 0x200-byte halves.
	r.slot.WriteRomCtrl(false, 1<<31|2<<24|0x10<<16)

	r.slot.HandleRomEvent()
	r.slot.ReadData(false)
	if tm, _ := r.sched9.Pending(Arm9EvDsSlotROM); tm != 40 {
		t.Fatalf("next word at %d, want 4 pulses = 40", tm)
	}

	// Walk up to the block boundary.
	for read := uint32(4); read < 0x200; read += 4 {
		r.slot.HandleRomEvent()
		r.slot.ReadData(false)
	}
	if tm, _ := r.sched9.Pending(Arm9EvDsSlotROM); tm != (4+0x10)*5*2 {
		t.Fatalf("word after block gap at %d, want %d", tm, (4+0x10)*5*2)
	}
}

func TestDsSlotZeroLengthTransfer(t *testing.T) {
	r := newSlotRig()

	r.slot.WriteAuxSpiCnt(false, 0x8000|1<<14)
	r.slot.WriteRomCtrl(false, 1<<31) // block size shift 0
	if tm, ok := r.sched9.Pending(Arm9EvDsSlotROM); !ok || tm != 80 {
		t.Fatalf("completion at %d (ok=%v), want 8 pulses = 80", tm, ok)
	}

	r.slot.HandleRomEvent()
	if r.slot.ReadRomCtrl(false)&1<<23 == 0 {
		t.Fatal("data-ready clear after zero-length transfer")
	}
	if r.slot.ReadRomCtrl(false)&1<<31 != 0 {
		t.Fatal("busy after zero-length completion")
	}
	if r.irqs9.IRF()&uint32(IrqDsSlotTransfer) == 0 {
		t.Fatal("transfer irq not raised")
	}

	// The port serves a zero word and drops the ready bit.
	if got := r.slot.ReadData(false); got != 0 {
		t.Fatalf("zero-length data word = %08x", got)
	}
	if r.slot.ReadRomCtrl(false)&1<<23 != 0 {
		t.Fatal("data-ready after the dummy read")
	}
}

func TestDsSlotDmaTrigger(t *testing.T) {
	r := newSlotRig()
	r.dma9.Channel(2).decode(dmaEnable|4, 0x1FFFFF, DmaDsSlot)

	r.slot.WriteAuxSpiCnt(false, 0x8000)
	r.slot.WriteRomCtrl(false, 1<<31|1<<24)
	if got := r.dma9.ChannelState(2); got != DmaStatePending {
		t.Fatalf("channel state before data = %v", got)
	}

	r.slot.HandleRomEvent()
	if got := r.dma9.ChannelState(2); got != DmaStateRunning {
		t.Fatalf("channel state after data-ready = %v", got)
	}
	if r.dma7.CurChannel() != -1 {
		t.Fatal("wrong core's controller triggered")
	}
}

func TestDsSlotOwnership(t *testing.T) {
	r := newSlotRig()

	// Non-owner accesses bounce.
	r.slot.WriteAuxSpiCnt(true, 0x8000)
	if got := r.slot.ReadAuxSpiCnt(true); got != 0 {
		t.Fatalf("non-owner read = %04x", got)
	}
	if got := r.slot.ReadAuxSpiCnt(false); got != 0 {
		t.Fatalf("owner sees ghost write: %04x", got)
	}

	// A transfer in flight moves with the slot, keeping its remaining
	// delay on the new clock.
	r.slot.WriteAuxSpiCnt(false, 0x8000)
	r.slot.WriteRomCtrl(false, 1<<31|1<<24)
	if _, ok := r.sched9.Pending(Arm9EvDsSlotROM); !ok {
		t.Fatal("no pending transfer")
	}
	r.slot.SetOwner7(true)
	if _, ok := r.sched9.Pending(Arm9EvDsSlotROM); ok {
		t.Fatal("event left on the old owner")
	}
	if tm, ok := r.sched7.Pending(Arm7EvDsSlotROM); !ok || tm != 60 {
		t.Fatalf("moved event at %d (ok=%v), want 60", tm, ok)
	}
}

func TestDsSlotRomStartNeedsSlotEnable(t *testing.T) {
	r := newSlotRig()

	r.slot.WriteRomCtrl(false, 1<<31|1<<24)
	if _, ok := r.sched9.Pending(Arm9EvDsSlotROM); ok {
		t.Fatal("transfer started with the slot disabled")
	}
}

func TestDsSlotAuxSpi(t *testing.T) {
	r := newSlotRig()

	r.slot.WriteAuxSpiCnt(false, 0x8000|1) // baud 1
	r.slot.WriteSpiData(false, 0x55)
	if r.slot.ReadAuxSpiCnt(false)&1<<7 == 0 {
		t.Fatal("spi busy not set")
	}
	if tm, ok := r.sched9.Pending(Arm9EvDsSlotSPI); !ok || tm != 256 {
		t.Fatalf("spi done at %d (ok=%v), want 256", tm, ok)
	}

	r.slot.HandleSpiEvent()
	if r.slot.ReadAuxSpiCnt(false)&1<<7 != 0 {
		t.Fatal("spi busy after completion")
	}
	if got := r.slot.ReadSpiData(false); got != 0 {
		t.Fatalf("spi reply = %02x", got)
	}
}

func TestDsSlotReset(t *testing.T) {
	r := newSlotRig()

	r.slot.WriteAuxSpiCnt(false, 0x8043)
	r.slot.WriteSpiData(false, 0x55)
	r.slot.WriteCmdWord(false, 0, 0xB7)
	r.slot.WriteRomCtrl(false, 1<<31|7<<24)

	r.slot.Reset()
	if got := r.slot.ReadAuxSpiCnt(false); got&1<<7 != 0 {
		t.Fatalf("aux spi busy after reset: %04x", got)
	}
	if got := r.slot.ReadRomCtrl(false); got&(1<<31|1<<23) != 0 {
		t.Fatalf("rom transfer bits after reset: %08x", got)
	}
	if got := r.slot.ReadAuxSpiCnt(false); got != 0x8043 {
		t.Fatalf("auxspicnt contents lost: %04x", got)
	}
}
