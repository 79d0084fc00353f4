package hw

import "testing"

func newTestIrqs7() (*Arm7Irqs, *Arm7Schedule) {
	sched := NewArm7Schedule()
	irqs := NewArm7Irqs(sched)
	irqs.SetCpsrIRQEnabled(true)
	return irqs, sched
}

func TestIrqLineComputation(t *testing.T) {
	irqs, _ := newTestIrqs7()

	irqs.Request(IrqVBlank)
	if irqs.Line() {
		t.Fatal("line up with IE empty")
	}
	irqs.WriteIE(uint32(IrqVBlank))
	if irqs.Line() {
		t.Fatal("line up with master disabled")
	}
	irqs.SetMasterEnable(true)
	if !irqs.Line() || !irqs.Triggered() {
		t.Fatal("line/triggered down with master+IE+IRF all set")
	}

	irqs.WriteIRF(uint32(IrqVBlank)) // acknowledge
	if irqs.IRF() != 0 || irqs.Line() || irqs.Triggered() {
		t.Fatal("acknowledge did not drop the line")
	}
}

func TestIrqRequestWakesHaltedCore(t *testing.T) {
	irqs, sched := newTestIrqs7()
	irqs.WriteIE(uint32(IrqTimer(2)))
	irqs.SetMasterEnable(true)

	irqs.Halt()
	if !irqs.Halted() {
		t.Fatal("core not halted")
	}

	// The same Request call must raise the line and clear halted.
	irqs.Request(IrqTimer(2))
	if !irqs.Line() {
		t.Fatal("line not raised")
	}
	if irqs.Halted() {
		t.Fatal("halted survived a rising line")
	}
	_ = sched
}

func TestIrqHaltWithLineUpIsNoop(t *testing.T) {
	irqs, _ := newTestIrqs7()
	irqs.WriteIE(uint32(IrqSPI))
	irqs.SetMasterEnable(true)
	irqs.Request(IrqSPI)

	irqs.Halt()
	if irqs.Halted() {
		t.Fatal("halted with the IRQ line already up")
	}
}

func TestIrqTriggeredStopsSlice(t *testing.T) {
	irqs, sched := newTestIrqs7()
	sched.SetCurTime(100)
	sched.SetTargetTime(200)

	irqs.WriteIE(uint32(IrqHBlank))
	irqs.SetMasterEnable(true)
	irqs.Request(IrqHBlank)

	if got := sched.TargetTime(); got != 100 {
		t.Fatalf("target = %d after trigger, want pulled back to 100", got)
	}
}

func TestIrqDMARequestDoesNotStopSlice(t *testing.T) {
	irqs, sched := newTestIrqs7()
	sched.SetCurTime(100)
	sched.SetTargetTime(200)

	irqs.WriteIE(uint32(IrqDMA0) << 1)
	irqs.SetMasterEnable(true)
	irqs.RequestDMA(1)

	if !irqs.Triggered() {
		t.Fatal("dma request did not trigger")
	}
	if got := sched.TargetTime(); got != 200 {
		t.Fatalf("target = %d, dma request must not stop the slice", got)
	}
}

func TestIrqCpsrGate(t *testing.T) {
	irqs, _ := newTestIrqs7()
	irqs.SetCpsrIRQEnabled(false)
	irqs.WriteIE(uint32(IrqVCount))
	irqs.SetMasterEnable(true)
	irqs.Request(IrqVCount)

	if !irqs.Line() {
		t.Fatal("line must not depend on the CPSR flag")
	}
	if irqs.Triggered() {
		t.Fatal("triggered with CPSR IRQs off")
	}

	irqs.SetCpsrIRQEnabled(true)
	if !irqs.Triggered() {
		t.Fatal("not triggered after CPSR IRQs came back")
	}
}

func TestIrqValidMasks(t *testing.T) {
	irqs7, _ := newTestIrqs7()
	irqs7.WriteIE(0xFFFFFFFF)
	if got := irqs7.IE(); got != 0x01DF3FFF {
		t.Fatalf("arm7 IE = %08x, want 01DF3FFF", got)
	}

	irqs9 := NewArm9Irqs(NewArm9Schedule())
	irqs9.WriteIE(0xFFFFFFFF)
	if got := irqs9.IE(); got != 0x003F3F7F {
		t.Fatalf("arm9 IE = %08x, want 003F3F7F", got)
	}
}

func TestIrqSourceString(t *testing.T) {
	tests := []struct {
		src  IrqSource
		want string
	}{
		{IrqVBlank, "vblank"},
		{IrqTimer(3), "timer3"},
		{IrqVBlank | IrqDMA0, "vblank|dma0"},
		{1 << 30, "bit30"},
		{0, "none"},
	}
	for _, tt := range tests {
		if got := tt.src.String(); got != tt.want {
			t.Errorf("IrqSource(%08x).String() = %q, want %q", uint32(tt.src), got, tt.want)
		}
	}
}
