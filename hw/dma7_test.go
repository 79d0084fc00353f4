package hw

import "testing"

// Main-RAM unit costs with the default ARM7 timings: 9/2 for 32-bit
// accesses, 8/1 for 16-bit ones, paid on both sides of the transfer.
const (
	ram7Nseq32 = 9 + 9
	ram7Seq32  = 2 + 2
)

func TestDma7ImmediateTransfer(t *testing.T) {
	c := testArm7(t)
	for i := uint32(0); i < 16; i++ {
		c.Write32(0x02000000+4*i, 0x11110000+i)
	}

	// Channel 0 registers sit at 0x040000B0: SAD, DAD, CNT.
	c.Write32(0x040000B0, 0x02000000)
	c.Write32(0x040000B4, 0x02100000)
	c.Write32(0x040000B8, 0x80000000|1<<26|16)
	if got := c.Dma.CurChannel(); got != 0 {
		t.Fatalf("cur channel = %d", got)
	}
	if got := c.Sched.TargetTime(); got != c.Sched.CurTime() {
		t.Fatalf("immediate start did not stop the slice (target %d)", got)
	}

	c.RunDma(1 << 20)
	for i := uint32(0); i < 16; i++ {
		if got := c.Read32(0x02100000 + 4*i); got != 0x11110000+i {
			t.Fatalf("dst[%d] = %08x", i, got)
		}
	}
	if got := c.Dma.CurChannel(); got != -1 {
		t.Fatalf("cur channel after end = %d", got)
	}
	if got := c.Read32(0x040000B8) >> 31; got != 0 {
		t.Fatalf("enable still set: cnt = %08x", c.Read32(0x040000B8))
	}
	if got := c.Sched.CurTime(); got != ram7Nseq32+15*ram7Seq32 {
		t.Fatalf("cycles = %d, want %d", got, ram7Nseq32+15*ram7Seq32)
	}
}

func TestDma7CompletionIrq(t *testing.T) {
	c := testArm7(t)

	// Channel 1 registers sit at 0x040000BC.
	c.Write32(0x040000BC, 0x02000000)
	c.Write32(0x040000C0, 0x02008000)
	c.Write32(0x040000C4, 0x80000000|1<<30|1<<26|4)
	c.RunDma(1 << 20)

	if got := c.Irqs.IRF(); got != uint32(IrqDMA0)<<1 {
		t.Fatalf("IRF = %08x", got)
	}
	// The completion request must not have pulled the slice target
	// back to the current time.
	if c.Sched.TargetTime() == c.Sched.CurTime() {
		t.Fatal("dma irq stopped the slice")
	}
}

func TestDma7BudgetSplitResumes(t *testing.T) {
	c := testArm7(t)
	for i := uint32(0); i < 8; i++ {
		c.Write32(0x02000000+4*i, 0xA0+i)
	}

	c.WriteDmaSrc(0, 0x02000000)
	c.WriteDmaDst(0, 0x02100000)
	c.WriteDmaControl(0, 0x80000000|1<<26|8)

	// Budget covers the first (nonsequential) unit and one more.
	c.RunDma(Timestamp(ram7Nseq32 + 1))
	ch := c.Dma.Channel(0)
	if got := ch.Remaining(); got != 6 {
		t.Fatalf("remaining after split = %d", got)
	}
	if got := c.Dma.ChannelState(0); got != DmaStateRunning {
		t.Fatalf("state after split = %v", got)
	}

	// Resuming pays sequential costs only: same burst, just sliced.
	c.RunDma(1 << 20)
	if got := ch.Remaining(); got != 0 {
		t.Fatalf("remaining after resume = %d", got)
	}
	if got := c.Sched.CurTime(); got != ram7Nseq32+7*ram7Seq32 {
		t.Fatalf("cycles = %d, want %d", got, ram7Nseq32+7*ram7Seq32)
	}
	for i := uint32(0); i < 8; i++ {
		if got := c.Read32(0x02100000 + 4*i); got != 0xA0+i {
			t.Fatalf("dst[%d] = %08x", i, got)
		}
	}
}

func TestDma7TimingPageCross(t *testing.T) {
	c := testArm7(t)

	// Source crosses a 32 KB timing page after the second unit; the
	// third one restarts the burst.
	c.WriteDmaSrc(0, 0x02007FF8)
	c.WriteDmaDst(0, 0x02100000)
	c.WriteDmaControl(0, 0x80000000|1<<26|4)
	c.RunDma(1 << 20)

	want := Timestamp(ram7Nseq32 + ram7Seq32 + ram7Nseq32 + ram7Seq32)
	if got := c.Sched.CurTime(); got != want {
		t.Fatalf("cycles = %d, want %d", got, want)
	}
}

func TestDma7Preemption(t *testing.T) {
	c := testArm7(t)
	for i := uint32(0); i < 8; i++ {
		c.Write32(0x02000000+4*i, 0xB0+i)
		c.Write32(0x02000100+4*i, 0xC0+i)
	}

	// Channel 1 starts and gets through part of its transfer.
	c.WriteDmaSrc(1, 0x02000100)
	c.WriteDmaDst(1, 0x02100100)
	c.WriteDmaControl(1, 0x80000000|1<<26|8)
	c.RunDma(c.Sched.CurTime() + ram7Nseq32)
	if got := c.Dma.Channel(1).Remaining(); got != 7 {
		t.Fatalf("ch1 remaining = %d", got)
	}

	// Channel 0 shows up: it owns the bus until it retires.
	c.WriteDmaSrc(0, 0x02000000)
	c.WriteDmaDst(0, 0x02100000)
	c.WriteDmaControl(0, 0x80000000|1<<26|8)
	if got := c.Dma.CurChannel(); got != 0 {
		t.Fatalf("cur after preempt = %d", got)
	}

	c.RunDma(1 << 20)
	if got := c.Dma.CurChannel(); got != -1 {
		t.Fatalf("cur after drain = %d", got)
	}
	for i := uint32(0); i < 8; i++ {
		if got := c.Read32(0x02100000 + 4*i); got != 0xB0+i {
			t.Fatalf("ch0 dst[%d] = %08x", i, got)
		}
		if got := c.Read32(0x02100100 + 4*i); got != 0xC0+i {
			t.Fatalf("ch1 dst[%d] = %08x", i, got)
		}
	}
}

func TestDma7RepeatVBlank(t *testing.T) {
	c := testArm7(t)
	for i := uint32(0); i < 8; i++ {
		c.Write32(0x02000000+4*i, 0xD0+i)
	}

	// Repeat, dst increment+reload, vblank timing.
	c.WriteDmaSrc(3, 0x02000000)
	c.WriteDmaDst(3, 0x02100000)
	c.WriteDmaControl(3, 0x80000000|1<<28|1<<25|3<<21|1<<26|4)
	if got := c.Dma.ChannelState(3); got != DmaStatePending {
		t.Fatalf("state = %v", got)
	}

	c.Dma.Trigger(DmaVBlank)
	c.RunDma(1 << 20)
	ch := c.Dma.Channel(3)
	if got := c.Dma.ChannelState(3); got != DmaStatePending {
		t.Fatalf("state after round = %v", got)
	}
	if got := ch.CurDst(); got != 0x02100000 {
		t.Fatalf("dst not reloaded: %08x", got)
	}
	if got := ch.CurSrc(); got != 0x02000010 {
		t.Fatalf("src reloaded: %08x", got)
	}

	// Second round picks up the source where it stopped.
	c.Dma.Trigger(DmaVBlank)
	c.RunDma(1 << 20)
	if got := c.Read32(0x02100000); got != 0xD4 {
		t.Fatalf("second round dst = %08x", got)
	}
}

func TestDma7BiosSourceQuirk(t *testing.T) {
	c := testArm7(t)

	// Latch a word by copying it, then point the source at the BIOS.
	c.Write32(0x02000000, 0xAABBCCDD)
	c.WriteDmaSrc(0, 0x02000000)
	c.WriteDmaDst(0, 0x02100000)
	c.WriteDmaControl(0, 0x80000000|1<<26|1)
	c.RunDma(1 << 20)

	c.WriteDmaSrc(0, 0x00000000)
	c.WriteDmaDst(0, 0x02100010)
	c.WriteDmaControl(0, 0x80000000|1<<26|2)
	c.RunDma(1 << 20)
	if got := c.Read32(0x02100010); got != 0xAABBCCDD {
		t.Fatalf("bios-src word = %08x", got)
	}
	if got := c.Read32(0x02100014); got != 0xAABBCCDD {
		t.Fatalf("bios-src word 2 = %08x", got)
	}

	// 16-bit units pick the lane their destination selects.
	c.WriteDmaSrc(0, 0x00000000)
	c.WriteDmaDst(0, 0x02100020)
	c.WriteDmaControl(0, 0x80000000|2)
	c.RunDma(1 << 20)
	if got := c.Read16(0x02100020); got != 0xCCDD {
		t.Fatalf("bios-src lane 0 = %04x", got)
	}
	if got := c.Read16(0x02100022); got != 0xAABB {
		t.Fatalf("bios-src lane 1 = %04x", got)
	}
}

func TestDma7WriteToIo(t *testing.T) {
	c := testArm7(t)

	c.Write32(0x02000000, 0x40) // a valid IE bit
	c.WriteDmaSrc(2, 0x02000000)
	c.WriteDmaDst(2, 0x04000210)
	c.WriteDmaControl(2, 0x80000000|1<<26|1)
	c.RunDma(1 << 20)
	if got := c.Irqs.IE(); got != 0x40 {
		t.Fatalf("IE after dma = %08x", got)
	}
}

func TestDma7RewriteWhileEnabledKeepsCursors(t *testing.T) {
	c := testArm7(t)

	c.WriteDmaSrc(0, 0x02000000)
	c.WriteDmaDst(0, 0x02100000)
	c.WriteDmaControl(0, 0x80000000|1<<26|8)
	c.RunDma(c.Sched.CurTime() + ram7Nseq32)
	ch := c.Dma.Channel(0)
	if got := ch.Remaining(); got != 7 {
		t.Fatalf("remaining = %d", got)
	}

	// Rewriting CNT with enable still set must not relatch.
	c.WriteDmaControl(0, 0x80000000|1<<26|8)
	if got := ch.Remaining(); got != 7 {
		t.Fatalf("remaining after rewrite = %d", got)
	}
	if got := ch.CurSrc(); got != 0x02000004 {
		t.Fatalf("src cursor = %08x", got)
	}

	// Clearing enable stops it where it stands.
	c.WriteDmaControl(0, 1<<26|8)
	if got := c.Dma.CurChannel(); got != -1 {
		t.Fatalf("cur after disable = %d", got)
	}
	if got := ch.CurSrc(); got != 0x02000004 {
		t.Fatalf("src cursor after disable = %08x", got)
	}
}

func TestDma7CntReadback(t *testing.T) {
	c := testArm7(t)

	// Channel 2 registers sit at 0x040000C8.
	c.Write32(0x040000C8, 0x02000000)
	c.Write32(0x040000CC, 0x02100000)
	c.Write32(0x040000D0, 0x80000000|1<<30|1<<26|0x21)
	want := uint32(0x80000000 | 1<<30 | 1<<26 | 0x21)
	if got := c.Read32(0x040000D0); got != want {
		t.Fatalf("cnt readback = %08x, want %08x", got, want)
	}
	// Halfword views hit the same decoded value.
	if got := c.Read16(0x040000D0); got != 0x21 {
		t.Fatalf("cnt low = %04x", got)
	}
	if got := c.Read16(0x040000D2); got != uint16(want>>16) {
		t.Fatalf("cnt high = %04x", got)
	}
}

func TestDma7CntHalfWrites(t *testing.T) {
	c := testArm7(t)

	c.Write32(0x040000B0, 0x02000000)
	c.Write32(0x040000B4, 0x02100000)
	// Program the count, then kick the enable half on its own.
	c.Write16(0x040000B8, 4)
	if got := c.Dma.ChannelState(0); got != DmaStateDisabled {
		t.Fatalf("state after low half = %v", got)
	}
	c.Write16(0x040000BA, 0x8000|1<<10) // enable, 32-bit
	if got := c.Dma.ChannelState(0); got != DmaStateRunning {
		t.Fatalf("state after high half = %v", got)
	}
	if got := c.Dma.Channel(0).Remaining(); got != 4 {
		t.Fatalf("units = %d", got)
	}
	c.RunDma(1 << 20)
	if got := c.Dma.Channel(0).Remaining(); got != 0 {
		t.Fatalf("remaining = %d", got)
	}
}
