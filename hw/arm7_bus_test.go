package hw

import "testing"

func testArm7(t *testing.T) *Arm7 {
	t.Helper()
	c := NewArm7(make([]byte, MainRamSize))
	c.Power = NewPower(c.Sched, NewMachineSchedule(), c.Irqs)
	c.Spi = NewSpi(c.Sched, c.Irqs, c.Power)
	c.InitBus()
	return c
}

type recordDebugger struct {
	NopDebugger
	reads  []uint32
	writes []uint32
}

func (d *recordDebugger) WatchRead(arm9 bool, addr uint32, size int) {
	d.reads = append(d.reads, addr)
}

func (d *recordDebugger) WatchWrite(arm9 bool, addr uint32, size int, val uint32) {
	d.writes = append(d.writes, addr)
}

func TestArm7BusMainRam(t *testing.T) {
	c := testArm7(t)

	c.Write32(0x02000100, 0xCAFEBABE)
	if got := c.Read32(0x02000100); got != 0xCAFEBABE {
		t.Fatalf("read32 = %08x", got)
	}
	if got := c.Read16(0x02000102); got != 0xCAFE {
		t.Fatalf("read16 = %04x", got)
	}
	if got := c.Read8(0x02000100); got != 0xBE {
		t.Fatalf("read8 = %02x", got)
	}

	// 4 MB mirrored through the whole region.
	if got := c.Read32(0x02400100); got != 0xCAFEBABE {
		t.Fatalf("mirror read = %08x", got)
	}
	c.Write8(0x02FFFFFF, 0x5A)
	if got := c.Read8(0x023FFFFF); got != 0x5A {
		t.Fatalf("mirror write = %02x", got)
	}
}

func TestArm7BusForcedAlignment(t *testing.T) {
	c := testArm7(t)

	c.Write32(0x02000000, 0x11223344)
	if got := c.Read32(0x02000003); got != 0x11223344 {
		t.Fatalf("misaligned read32 = %08x", got)
	}
	if got := c.Read16(0x02000001); got != 0x3344 {
		t.Fatalf("misaligned read16 = %04x", got)
	}
	c.Write16(0x02000007, 0xBEEF)
	if got := c.Read16(0x02000006); got != 0xBEEF {
		t.Fatalf("misaligned write16 = %04x", got)
	}
}

func TestArm7BusIoDispatch(t *testing.T) {
	c := testArm7(t)

	c.Write32(0x04000208, 1)
	if !c.Irqs.MasterEnable() {
		t.Fatal("IME write did not reach the controller")
	}
	c.Write32(0x04000210, 0x40)
	if got := c.Irqs.IE(); got != 0x40 {
		t.Fatalf("IE = %08x", got)
	}
	if got := c.Read32(0x04000210); got != 0x40 {
		t.Fatalf("IE readback = %08x", got)
	}
}

func TestArm7BusIfHalfWriteAcksOneHalfOnly(t *testing.T) {
	c := testArm7(t)

	c.Irqs.Request(IrqVBlank)
	c.Irqs.Request(IrqDsSlotTransfer)
	if got := c.Read32(0x04000214); got != uint32(IrqVBlank|IrqDsSlotTransfer) {
		t.Fatalf("IF = %08x", got)
	}

	// Acking the low half must leave the high half pending.
	c.Write16(0x04000214, uint16(IrqVBlank))
	if got := c.Read32(0x04000214); got != uint32(IrqDsSlotTransfer) {
		t.Fatalf("IF after low ack = %08x", got)
	}
	c.Write16(0x04000216, uint16(uint32(IrqDsSlotTransfer)>>16))
	if got := c.Read32(0x04000214); got != 0 {
		t.Fatalf("IF after high ack = %08x", got)
	}
}

func TestArm7BusBiosReads(t *testing.T) {
	c := testArm7(t)
	bios := c.Bios()
	for i := range bios {
		bios[i] = byte(i)
	}

	if got := c.Read32(0x00000100); got != 0x03020100 {
		t.Fatalf("bios read = %08x", got)
	}
	if got := c.Read8(0x00000102); got != 0x02 {
		t.Fatalf("bios read8 = %02x", got)
	}

	// Above the 16 KB ROM the region floats to zero.
	if got := c.Read32(0x00004000); got != 0 {
		t.Fatalf("past-bios read = %08x", got)
	}
}

func TestArm7BusBiosProtection(t *testing.T) {
	c := testArm7(t)
	bios := c.Bios()
	for i := range bios {
		bios[i] = byte(i + i>>8)
	}

	// Latch a word from the open area, then lock the first 0x200.
	open := c.Read32(0x00000400)
	c.Power.WriteBiosProt(0x200)

	if got := c.Read32(0x00000010); got != open {
		t.Fatalf("protected read = %08x, want latch %08x", got, open)
	}
	if got := c.Read16(0x00000012); got != uint16(open>>16) {
		t.Fatalf("protected read16 = %04x", got)
	}

	// Reads above the threshold still hit the ROM and move the latch.
	want := c.Read32(0x00000300)
	if got := c.Read32(0x00000014); got != want {
		t.Fatalf("latch did not follow = %08x, want %08x", got, want)
	}

	// Debug reads ignore the lock and do not disturb the latch.
	if got := c.Peek32(0x00000010); got != 0x13121110 {
		t.Fatalf("peek = %08x", got)
	}
	if got := c.Read32(0x00000010); got != want {
		t.Fatalf("latch moved on peek = %08x", got)
	}
}

func TestArm7BusGbaOpenBus(t *testing.T) {
	c := testArm7(t)

	if got := c.Read16(0x08000004); got != 2 {
		t.Fatalf("open bus read16 = %04x", got)
	}
	if got := c.Read32(0x08000004); got != 2|3<<16 {
		t.Fatalf("open bus read32 = %08x", got)
	}
	if got := c.Read8(0x08000004); got != 2 {
		t.Fatalf("open bus read8 lo = %02x", got)
	}
	if got := c.Read8(0x08000005); got != 0 {
		t.Fatalf("open bus read8 hi = %02x", got)
	}
	if got := c.Read32(0x09000000); got != 0x00010000 {
		t.Fatalf("open bus high region = %08x", got)
	}
	if got := c.Read8(0x0A000123); got != 0xFF {
		t.Fatalf("sram open bus = %02x", got)
	}
	if got := c.Read32(0x0A000120); got != 0xFFFFFFFF {
		t.Fatalf("sram open bus32 = %08x", got)
	}
}

func TestArm7BusUnmapped(t *testing.T) {
	c := testArm7(t)

	if got := c.Read32(0x06800000); got != 0 {
		t.Fatalf("unmapped read = %08x", got)
	}
	// Dropped, not fatal.
	c.Write32(0x06800000, 0xDEADBEEF)
	if got := c.Read32(0x06800000); got != 0 {
		t.Fatalf("unmapped write stuck = %08x", got)
	}
}

func TestArm7BusWatchpointRead(t *testing.T) {
	c := testArm7(t)
	dbg := &recordDebugger{}
	c.SetDebugger(dbg)

	c.Write32(0x02000100, 0x12345678)
	c.Watch.Add(0x02000100, 4, WatchReads)

	if c.Ptrs.ReadWindow(0x02000100) != nil {
		t.Fatal("watched page still on the fast path")
	}
	if got := c.Read32(0x02000100); got != 0x12345678 {
		t.Fatalf("watched read = %08x", got)
	}
	if len(dbg.reads) != 1 || dbg.reads[0] != 0x02000100 {
		t.Fatalf("read hook = %v", dbg.reads)
	}

	// Same page, outside the watched range: served, no hook.
	c.Read32(0x02000200)
	if len(dbg.reads) != 1 {
		t.Fatalf("hook fired off-range: %v", dbg.reads)
	}

	// Debug accesses never trip watchpoints.
	if got := c.Peek32(0x02000100); got != 0x12345678 {
		t.Fatalf("peek = %08x", got)
	}
	if len(dbg.reads) != 1 {
		t.Fatalf("peek tripped the hook: %v", dbg.reads)
	}

	c.Watch.Remove(0x02000100)
	if c.Ptrs.ReadWindow(0x02000100) == nil {
		t.Fatal("fast path not restored")
	}
}

func TestArm7BusWatchpointWrite(t *testing.T) {
	c := testArm7(t)
	dbg := &recordDebugger{}
	c.SetDebugger(dbg)

	c.Watch.Add(0x02000100, 4, WatchWrites)
	c.Write32(0x02000100, 0xABCD0123)
	if len(dbg.writes) != 1 || dbg.writes[0] != 0x02000100 {
		t.Fatalf("write hook = %v", dbg.writes)
	}
	if got := c.Read32(0x02000100); got != 0xABCD0123 {
		t.Fatalf("watched write lost = %08x", got)
	}

	// DMA-kind stores bypass the hook but still land.
	c.DmaWrite32(0x02000100, 0x55AA55AA)
	if len(dbg.writes) != 1 {
		t.Fatalf("dma store tripped the hook: %v", dbg.writes)
	}
	if got := c.Read32(0x02000100); got != 0x55AA55AA {
		t.Fatalf("dma store lost = %08x", got)
	}
}

type recordSink struct {
	events []uint32
}

func (s *recordSink) TraceWrite(arm9 bool, addr uint32, size int, val uint32) {
	s.events = append(s.events, addr)
}

func TestArm7BusTracer(t *testing.T) {
	c := testArm7(t)
	sink := &recordSink{}
	tr := NewTracer(c.Ptrs, NewPageTable())
	tr.SetSink(sink)
	c.Tracer = tr

	tr.Start()
	if c.Ptrs.WriteWindow(0x02000000, AccessW1632) != nil {
		t.Fatal("write fast path survived trace start")
	}
	c.Write32(0x02000040, 0x01020304)
	if len(sink.events) != 1 || sink.events[0] != 0x02000040 {
		t.Fatalf("trace events = %v", sink.events)
	}
	if got := c.Read32(0x02000040); got != 0x01020304 {
		t.Fatalf("traced write lost = %08x", got)
	}

	// Reads and DMA stores stay invisible.
	c.Read32(0x02000040)
	c.DmaWrite32(0x02000044, 1)
	if len(sink.events) != 1 {
		t.Fatalf("unexpected events = %v", sink.events)
	}

	tr.Stop()
	if c.Ptrs.WriteWindow(0x02000000, AccessW1632) == nil {
		t.Fatal("fast path not restored")
	}
	c.Write32(0x02000048, 2)
	if len(sink.events) != 1 {
		t.Fatalf("event after stop = %v", sink.events)
	}
}

func TestArm7BusNarrowWriteDrop(t *testing.T) {
	c := testArm7(t)
	buf := make([]byte, 2*PageSize)
	c.Ptrs.Map(AccessR|AccessW1632, buf, 0x06000000, 0x06007FFF)

	c.Write16(0x06000000, 0x1234)
	if got := c.Read16(0x06000000); got != 0x1234 {
		t.Fatalf("wide write = %04x", got)
	}

	// Byte stores to a halfword-only window disappear.
	c.Write8(0x06000000, 0xFF)
	if got := c.Read16(0x06000000); got != 0x1234 {
		t.Fatalf("byte store landed = %04x", got)
	}
}

func TestArm7BusPostflgSticky(t *testing.T) {
	c := testArm7(t)

	c.Write8(0x04000300, 1)
	c.Write8(0x04000300, 0)
	if got := c.Read8(0x04000300); got != 1 {
		t.Fatalf("postflg = %02x", got)
	}
}

func TestArm7BusTimerDispatch(t *testing.T) {
	c := testArm7(t)

	c.Write32(0x04000104, 0x00C0FFF0) // timer 1: reload 0xFFF0, start, irq
	if _, ok := c.Sched.Pending(Arm7EvTimer1); !ok {
		t.Fatal("timer 1 not scheduled")
	}
	if got := c.Read16(0x04000104); got != 0xFFF0 {
		t.Fatalf("counter = %04x", got)
	}
	if got := c.Read16(0x04000106); got != 0x00C0 {
		t.Fatalf("control = %04x", got)
	}
}
