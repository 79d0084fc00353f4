package emu

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"castor/emu/log"
	"castor/hw"
	"castor/nds"
)

// testRomImage assembles a tiny cartridge image: a valid header and
// one code blob per core, both loaded low in main RAM.
func testRomImage() []byte {
	img := make([]byte, 0x1000)
	copy(img, "ORCHESTRA")
	copy(img[0xC:], "ATSE")
	copy(img[0x10:], "01")
	img[0x14] = 7 // 16 MB chip

	put32 := func(off int, v uint32) { binary.LittleEndian.PutUint32(img[off:], v) }
	put32(0x20, 0x400)      // arm9 rom offset
	put32(0x24, 0x02000000) // arm9 entry
	put32(0x28, 0x02000000) // arm9 ram address
	put32(0x2C, 0x100)      // arm9 size
	put32(0x30, 0x800)      // arm7 rom offset
	put32(0x34, 0x02380000) // arm7 entry
	put32(0x38, 0x02380000) // arm7 ram address
	put32(0x3C, 0x80)       // arm7 size
	binary.LittleEndian.PutUint16(img[0x15E:], 0x1A2B)

	for i := range 0x100 {
		img[0x400+i] = byte(i)
	}
	for i := range 0x80 {
		img[0x800+i] = byte(0x80 + i)
	}
	return img
}

func testRom(t testing.TB) *nds.Rom {
	t.Helper()
	var rom nds.Rom
	if _, err := rom.ReadFrom(bytes.NewReader(testRomImage())); err != nil {
		t.Fatal(err)
	}
	return &rom
}

func testDS(t testing.TB) *DS {
	t.Helper()
	log.Disable()
	ds, err := powerUp(testRom(t))
	if err != nil {
		t.Fatal(err)
	}
	return ds
}

func TestFrameTiming(t *testing.T) {
	ds := testDS(t)

	for frame := hw.Timestamp(1); frame <= 3; frame++ {
		if out := ds.RunFrame(); out != RunFrameFinished {
			t.Fatalf("frame %d: run output = %d", frame, out)
		}
		if got, want := ds.Machine.CurTime(), frame*hw.FrameCycles; got != want {
			t.Fatalf("frame %d: machine time = %d, want %d", frame, got, want)
		}
		if got := ds.Video.VCount(); got != 0 {
			t.Fatalf("frame %d: vcount = %d", frame, got)
		}
	}

	// Idle cores land exactly on the frame boundary, in their own
	// clock domains.
	if got := ds.Arm7.Sched.CurTime(); got != 3*hw.FrameCycles {
		t.Fatalf("arm7 time = %d", got)
	}
	if got := ds.Arm9.Sched.CurTime(); got != hw.Timestamp(3*hw.FrameCycles).To9() {
		t.Fatalf("arm9 time = %d", got)
	}
}

func TestShutdownStopsTheClock(t *testing.T) {
	ds := testDS(t)
	ds.RunFrame()

	ds.Arm7.Write8(0x04000301, 0xC0)
	if out := ds.RunFrame(); out != RunShutdown {
		t.Fatalf("run output = %d", out)
	}
	if got := ds.Machine.CurTime(); got != hw.FrameCycles {
		t.Fatalf("machine ran past the shutdown: time = %d", got)
	}
	// Shutdown sticks.
	if out := ds.RunFrame(); out != RunShutdown {
		t.Fatalf("second run output = %d", out)
	}
	if got := ds.Machine.CurTime(); got != hw.FrameCycles {
		t.Fatalf("machine time moved after shutdown: %d", got)
	}
}

func TestDmaPreemptionAcrossBatches(t *testing.T) {
	ds := testDS(t)
	c7 := ds.Arm7
	for i := uint32(0); i < 64; i++ {
		c7.Write32(0x02200000+4*i, 0xBEEF0000+i)
	}

	// Channel 1: an immediate transfer too long for one batch.
	c7.Write32(0x040000BC, 0x02200000)
	c7.Write32(0x040000C0, 0x02300000)
	c7.Write32(0x040000C4, 0x80000000|1<<30|1<<26|64)

	ds.runBatch()
	if rem := c7.Dma.Channel(1).Remaining(); rem == 0 || rem == 64 {
		t.Fatalf("remaining after one batch = %d", rem)
	}

	// Channel 0 pauses it mid-transfer.
	c7.Write32(0x040000B0, 0x02200000)
	c7.Write32(0x040000B4, 0x02310000)
	c7.Write32(0x040000B8, 0x80000000|1<<30|1<<26|4)
	if got := c7.Dma.CurChannel(); got != 0 {
		t.Fatalf("cur channel = %d", got)
	}

	if out := ds.RunFrame(); out != RunFrameFinished {
		t.Fatalf("run output = %d", out)
	}
	wantIrf := uint32(hw.IrqDMA0 | hw.IrqDMA0<<1)
	if got := c7.Irqs.IRF(); got != wantIrf {
		t.Fatalf("IRF = %08x, want %08x", got, wantIrf)
	}
	for i := uint32(0); i < 64; i++ {
		if got := c7.Read32(0x02300000 + 4*i); got != 0xBEEF0000+i {
			t.Fatalf("ch1 dst[%d] = %08x", i, got)
		}
	}
	for i := uint32(0); i < 4; i++ {
		if got := c7.Read32(0x02310000 + 4*i); got != 0xBEEF0000+i {
			t.Fatalf("ch0 dst[%d] = %08x", i, got)
		}
	}
	// The transfers happened inside the frame without disturbing the
	// video timeline.
	if got := ds.Machine.CurTime(); got != hw.FrameCycles {
		t.Fatalf("machine time = %d", got)
	}
}

func TestSnapshotRestoresTimeline(t *testing.T) {
	ds := testDS(t)
	ds.RunFrame()

	snap := ds.SaveSnapshot()

	ds.Arm7.Write32(0x02000500, 0x12345678)
	ds.RunFrame()

	if err := ds.LoadSnapshot(snap); err != nil {
		t.Fatal(err)
	}
	if got := ds.Machine.CurTime(); got != hw.FrameCycles {
		t.Fatalf("machine time after restore = %d", got)
	}
	if got := ds.Arm7.Read32(0x02000500); got != 0 {
		t.Fatalf("ram write survived the restore: %08x", got)
	}
	if out := ds.RunFrame(); out != RunFrameFinished {
		t.Fatalf("run output = %d", out)
	}
	if got := ds.Machine.CurTime(); got != 2*hw.FrameCycles {
		t.Fatalf("machine time = %d", got)
	}
}

func BenchmarkFrame(b *testing.B) {
	ds := testDS(b)
	b.ReportAllocs()

	frames := 0
	start := time.Now()
	for b.Loop() {
		ds.RunFrame()
		frames++
	}
	b.ReportMetric(float64(frames)/time.Since(start).Seconds(), "frames/s")
}
