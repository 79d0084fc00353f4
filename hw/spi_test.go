package hw

import "testing"

func newTestSpi() (*Spi, *Arm7Schedule, *Arm7Irqs) {
	sched := NewArm7Schedule()
	irqs := NewArm7Irqs(sched)
	power := NewPower(sched, NewMachineSchedule(), irqs)
	return NewSpi(sched, irqs, power), sched, irqs
}

// clockByte runs one full transfer and returns the device's reply.
func clockByte(t *testing.T, s *Spi, v uint8) uint8 {
	t.Helper()
	s.WriteData(v)
	if s.ReadCnt()&1<<7 == 0 {
		t.Fatal("transfer did not start")
	}
	s.HandleEvent()
	return s.ReadData()
}

func TestSpiTransferTiming(t *testing.T) {
	for baud := uint16(0); baud < 4; baud++ {
		s, sched, _ := newTestSpi()
		sched.SetCurTime(1000)

		s.WriteCnt(0x8100 | baud)
		s.WriteData(0xFF)
		if s.ReadCnt()&1<<7 == 0 {
			t.Fatalf("baud %d: busy not set", baud)
		}
		want := Timestamp(1000) + Timestamp(64)<<baud
		if tm, ok := sched.Pending(Arm7EvSPI); !ok || tm != want {
			t.Fatalf("baud %d: event ok=%v tm=%d, want %d", baud, ok, tm, want)
		}
		s.HandleEvent()
		if s.ReadCnt()&1<<7 != 0 {
			t.Fatalf("baud %d: busy stuck after event", baud)
		}
	}
}

func TestSpiIrqOnComplete(t *testing.T) {
	s, _, irqs := newTestSpi()

	s.WriteCnt(0xC000)
	s.WriteData(0x80)
	if irqs.IRF() != 0 {
		t.Fatal("irq before the transfer completed")
	}
	s.HandleEvent()
	if irqs.IRF()&uint32(IrqSPI) == 0 {
		t.Fatal("no spi irq request")
	}
}

func TestSpiNoIrqWhenUnarmed(t *testing.T) {
	s, _, irqs := newTestSpi()

	s.WriteCnt(0x8000)
	s.WriteData(0x80)
	s.HandleEvent()
	if irqs.IRF() != 0 {
		t.Fatalf("irf = %08x", irqs.IRF())
	}
}

func TestSpiWriteGates(t *testing.T) {
	s, sched, _ := newTestSpi()

	s.WriteData(0xFF) // disabled
	if _, ok := sched.Pending(Arm7EvSPI); ok {
		t.Fatal("disabled write started a transfer")
	}

	s.WriteCnt(0x8000)
	s.WriteData(0xFF)
	tm1, _ := sched.Pending(Arm7EvSPI)
	sched.SetCurTime(32)
	s.WriteData(0xFF) // busy
	if tm2, _ := sched.Pending(Arm7EvSPI); tm2 != tm1 {
		t.Fatalf("busy write rescheduled the transfer: %d -> %d", tm1, tm2)
	}
}

func TestSpiCntWriteKeepsBusy(t *testing.T) {
	s, _, _ := newTestSpi()

	s.WriteCnt(0x8000)
	s.WriteData(0x00)
	s.WriteCnt(0xFFFF)
	if got := s.ReadCnt(); got != 0xCF83 {
		t.Fatalf("spicnt = %04x", got)
	}
	s.HandleEvent()
	if got := s.ReadCnt(); got != 0xCF03 {
		t.Fatalf("spicnt after event = %04x", got)
	}
}

func TestSpiPowerRegisterFile(t *testing.T) {
	s, _, _ := newTestSpi()

	// Write 0x0D into the control register: index byte under hold,
	// data byte with the hold released.
	s.WriteCnt(0x8800)
	clockByte(t, s, 0x00)
	s.WriteCnt(0x8000)
	clockByte(t, s, 0x0D)

	// Read it back the same way.
	s.WriteCnt(0x8800)
	clockByte(t, s, 0x80)
	s.WriteCnt(0x8000)
	if got := clockByte(t, s, 0x00); got != 0x0D {
		t.Fatalf("power control readback = %02x", got)
	}
}

func TestSpiPowerShutdown(t *testing.T) {
	s, sched, _ := newTestSpi()
	sched.SetCurTime(300)

	s.WriteCnt(0x8800)
	clockByte(t, s, 0x00)
	s.WriteCnt(0x8000)
	clockByte(t, s, 0x40)
	if tm, ok := sched.Pending(Arm7EvShutdown); !ok || tm != 300 {
		t.Fatalf("shutdown event: ok=%v tm=%d", ok, tm)
	}
}

func TestSpiTouchscreenConversion(t *testing.T) {
	s, _, _ := newTestSpi()
	s.SetTouch(0x5A3, 0x1F0)
	s.WriteCnt(0x8A00)

	// One conversion: control byte, then the 12-bit result left-
	// aligned to bit 14 over the next two bytes.
	read12 := func(ctl uint8) uint16 {
		clockByte(t, s, ctl)
		hi := clockByte(t, s, 0)
		lo := clockByte(t, s, 0)
		return (uint16(hi)<<8 | uint16(lo)) >> 3
	}

	if got := read12(0xD0); got != 0x5A3 { // channel 5: X
		t.Fatalf("x = %03x", got)
	}
	if got := read12(0x90); got != 0x1F0 { // channel 1: Y
		t.Fatalf("y = %03x", got)
	}
	if got := read12(0xD8); got != 0x5A0 { // 8-bit mode drops the nibble
		t.Fatalf("x in 8-bit mode = %03x", got)
	}
	if got := read12(0xE0); got != 0xFFF { // mic channel floats high
		t.Fatalf("mic = %03x", got)
	}

	s.ClearTouch()
	if got := read12(0xD0); got != 0 {
		t.Fatalf("pen-up x = %03x", got)
	}
	if got := read12(0x90); got != 0xFFF {
		t.Fatalf("pen-up y = %03x", got)
	}
}

func TestSpiDisableReleasesHold(t *testing.T) {
	s, _, _ := newTestSpi()
	s.SetTouch(0x800, 0x400)

	s.WriteCnt(0x8A00)
	clockByte(t, s, 0xD0)
	s.WriteCnt(0) // enable off mid-transfer
	s.WriteCnt(0x8A00)

	// The fresh chip select must restart the byte stream, not resume
	// the interrupted conversion.
	clockByte(t, s, 0x90)
	hi := clockByte(t, s, 0)
	lo := clockByte(t, s, 0)
	if got := (uint16(hi)<<8 | uint16(lo)) >> 3; got != 0x400 {
		t.Fatalf("y after re-enable = %03x", got)
	}
}

func TestSpiReset(t *testing.T) {
	s, _, _ := newTestSpi()

	s.WriteCnt(0x8800)
	clockByte(t, s, 0x00)
	s.WriteCnt(0x8000)
	clockByte(t, s, 0x0D)
	s.WriteData(0x80) // leave a byte in flight
	s.Reset()
	if s.ReadCnt()&1<<7 != 0 {
		t.Fatal("busy survived reset")
	}

	// The power-management latches keep their contents.
	s.WriteCnt(0x8800)
	clockByte(t, s, 0x80)
	s.WriteCnt(0x8000)
	if got := clockByte(t, s, 0x00); got != 0x0D {
		t.Fatalf("power control after reset = %02x", got)
	}
}

func TestSpiBusRegisters(t *testing.T) {
	c := testArm7(t)

	c.Write16(0x040001C0, 0xFFFF)
	if got := c.Read16(0x040001C0); got != 0xCF03 {
		t.Fatalf("spicnt = %04x", got)
	}
	c.Write16(0x040001C0, 0x8000)
	c.Write8(0x040001C2, 0x00)
	if got := c.Read16(0x040001C0); got&1<<7 == 0 {
		t.Fatalf("spicnt = %04x, busy not set", got)
	}
}
