package hw

import (
	"testing"
)

func TestTimestampConversions(t *testing.T) {
	tests := []struct {
		machine Timestamp
		arm9    Timestamp9
	}{
		{0, 0},
		{1, 2},
		{3, 6},
		{1000, 2000},
	}
	for _, tt := range tests {
		if got := tt.machine.To9(); got != tt.arm9 {
			t.Errorf("Timestamp(%d).To9() = %d, want %d", tt.machine, got, tt.arm9)
		}
		if got := tt.arm9.ToMachine(); got != tt.machine {
			t.Errorf("Timestamp9(%d).ToMachine() = %d, want %d", tt.arm9, got, tt.machine)
		}
	}

	// Odd ARM9 timestamps round up.
	if got := Timestamp9(5).ToMachine(); got != 3 {
		t.Errorf("Timestamp9(5).ToMachine() = %d, want 3", got)
	}
	if got := Timestamp9(1).ToMachine(); got != 1 {
		t.Errorf("Timestamp9(1).ToMachine() = %d, want 1", got)
	}
}

func TestSchedulePopOrder(t *testing.T) {
	s := NewArm7Schedule()
	s.Schedule(Arm7EvTimer0, 200)
	s.Schedule(Arm7EvAudio, 100)
	s.Schedule(Arm7EvSPI, 150)

	slot, tm, ok := s.PopPending(1000)
	if !ok || slot != Arm7EvAudio || tm != 100 {
		t.Fatalf("pop 1 = (%v, %d, %v), want (Arm7EvAudio, 100, true)", slot, tm, ok)
	}
	slot, tm, ok = s.PopPending(1000)
	if !ok || slot != Arm7EvSPI || tm != 150 {
		t.Fatalf("pop 2 = (%v, %d, %v), want (Arm7EvSPI, 150, true)", slot, tm, ok)
	}
	slot, tm, ok = s.PopPending(1000)
	if !ok || slot != Arm7EvTimer0 || tm != 200 {
		t.Fatalf("pop 3 = (%v, %d, %v), want (Arm7EvTimer0, 200, true)", slot, tm, ok)
	}
	if _, _, ok := s.PopPending(1000); ok {
		t.Fatal("pop 4 returned an event from an empty schedule")
	}
}

func TestSchedulePopTieBreak(t *testing.T) {
	// Two events at the same deadline pop in ascending slot order,
	// whatever the scheduling order was.
	s := NewArm7Schedule()
	s.Schedule(Arm7EvTimer0, 100)    // slot 5
	s.Schedule(Arm7EvDsSlotSPI, 100) // slot 2

	slot, _, ok := s.PopPending(100)
	if !ok || slot != Arm7EvDsSlotSPI {
		t.Fatalf("first pop = %v, want Arm7EvDsSlotSPI", slot)
	}
	slot, _, ok = s.PopPending(100)
	if !ok || slot != Arm7EvTimer0 {
		t.Fatalf("second pop = %v, want Arm7EvTimer0", slot)
	}
}

func TestSchedulePopLimit(t *testing.T) {
	s := NewArm7Schedule()
	s.Schedule(Arm7EvAudio, 100)

	if _, _, ok := s.PopPending(99); ok {
		t.Fatal("pop with limit 99 returned an event due at 100")
	}
	if _, _, ok := s.PopPending(100); !ok {
		t.Fatal("pop with limit 100 missed an event due at 100")
	}
}

func TestScheduleReplace(t *testing.T) {
	s := NewArm7Schedule()
	s.Schedule(Arm7EvTimer1, 500)
	s.Schedule(Arm7EvTimer1, 300)

	slot, tm, ok := s.PopPending(1000)
	if !ok || slot != Arm7EvTimer1 || tm != 300 {
		t.Fatalf("pop = (%v, %d, %v), want (Arm7EvTimer1, 300, true)", slot, tm, ok)
	}
	if _, _, ok := s.PopPending(1000); ok {
		t.Fatal("replaced deadline still pending")
	}
}

func TestScheduleCancel(t *testing.T) {
	s := NewArm7Schedule()
	s.Schedule(Arm7EvSPI, 50)
	s.Cancel(Arm7EvSPI)
	if _, _, ok := s.PopPending(1000); ok {
		t.Fatal("cancelled event still pending")
	}
	s.Cancel(Arm7EvSPI) // idempotent
}

func TestScheduleTargetWatermark(t *testing.T) {
	s := NewArm7Schedule()
	s.SetTargetTime(200)

	s.Schedule(Arm7EvTimer2, 150)
	if got := s.TargetTime(); got != 150 {
		t.Fatalf("target after scheduling below it = %d, want 150", got)
	}
	s.Schedule(Arm7EvTimer3, 180)
	if got := s.TargetTime(); got != 150 {
		t.Fatalf("target after scheduling above it = %d, want 150", got)
	}
}

func TestScheduleNextEventTime(t *testing.T) {
	s := NewArm9Schedule()
	if got := s.NextEventTime(64); got != 64 {
		t.Fatalf("NextEventTime with no events = %d, want 64", got)
	}
	s.Schedule(Arm9EvDiv, 40)
	if got := s.NextEventTime(64); got != 40 {
		t.Fatalf("NextEventTime = %d, want 40", got)
	}
	if got := s.NextEventTime(30); got != 30 {
		t.Fatalf("NextEventTime capped = %d, want 30", got)
	}
}

func TestScheduleSetCurTimeAfter(t *testing.T) {
	s := NewMachineSchedule()
	s.SetCurTime(100)
	s.SetCurTimeAfter(50)
	if got := s.CurTime(); got != 100 {
		t.Fatalf("curTime moved backwards to %d", got)
	}
	s.SetCurTimeAfter(120)
	if got := s.CurTime(); got != 120 {
		t.Fatalf("curTime = %d, want 120", got)
	}
}

func TestScheduleBatchEndTime(t *testing.T) {
	s := NewMachineSchedule()
	s.SetCurTime(1000)
	if got := s.BatchEndTime(); got != 1064 {
		t.Fatalf("BatchEndTime with no events = %d, want 1064", got)
	}
	s.Schedule(MachineEvEndHDraw, 1010)
	if got := s.BatchEndTime(); got != 1010 {
		t.Fatalf("BatchEndTime = %d, want 1010", got)
	}
	s.Schedule(MachineEvShutdown, 2000) // beyond the batch, no effect
	if got := s.BatchEndTime(); got != 1010 {
		t.Fatalf("BatchEndTime = %d, want 1010", got)
	}
}
