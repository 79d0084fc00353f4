// Package hw implements the timing and memory core of the DS: per-core
// event schedulers, page-table buses, DMA controllers, IRQ controllers,
// and the peripherals that drive them.
package hw

import "castor/hw/snapshot"

// The machine clock is the ARM7 clock. The ARM9 clock runs at exactly
// twice this rate.
const ClockRate = 33513982 // Hz

// Length of one orchestrator batch, in machine cycles. Both cores run
// to the batch end before machine-level events are drained.
const batchCycles = 64

// Timestamp counts machine-clock cycles. ARM7 timestamps live directly
// on the machine axis; the ARM9 keeps its own axis (Timestamp9).
// Convert explicitly when crossing domains.
type Timestamp int64

// Timestamp9 counts ARM9-clock cycles (twice the machine rate).
type Timestamp9 int64

// To9 converts a machine timestamp to the ARM9 axis.
func (t Timestamp) To9() Timestamp9 { return Timestamp9(t) << 1 }

// ToMachine converts back to the machine axis, rounding up: a
// half-elapsed machine cycle counts as consumed.
func (t Timestamp9) ToMachine() Timestamp { return Timestamp((t + 1) >> 1) }

type schedSlot[T ~int64] struct {
	time    T
	pending bool
}

// Schedule tracks pending one-shot events for a single clock domain.
//
// Events are identified by their slot index: each slot holds at most
// one pending deadline, and scheduling into an occupied slot replaces
// the previous one. The slot count is fixed at construction and small,
// so every lookup is a linear scan.
//
// Invariant: curTime <= targetTime <= t for every pending deadline t.
// Components that need the current slice to stop (IRQ delivery, halt)
// pull targetTime back to curTime.
type Schedule[T ~int64, S ~uint8] struct {
	curTime    T
	targetTime T
	slots      []schedSlot[T]
}

func NewSchedule[T ~int64, S ~uint8](nslots int) *Schedule[T, S] {
	return &Schedule[T, S]{slots: make([]schedSlot[T], nslots)}
}

func (s *Schedule[T, S]) CurTime() T     { return s.curTime }
func (s *Schedule[T, S]) SetCurTime(t T) { s.curTime = t }

// SetCurTimeAfter advances curTime to t unless it is already past it.
func (s *Schedule[T, S]) SetCurTimeAfter(t T) {
	if t > s.curTime {
		s.curTime = t
	}
}

func (s *Schedule[T, S]) TargetTime() T     { return s.targetTime }
func (s *Schedule[T, S]) SetTargetTime(t T) { s.targetTime = t }

// Schedule arms slot with a deadline, replacing any pending one. A
// deadline below the current target pulls the target down so the
// running slice stops in time to handle it.
func (s *Schedule[T, S]) Schedule(slot S, t T) {
	s.slots[slot] = schedSlot[T]{time: t, pending: true}
	if t < s.targetTime {
		s.targetTime = t
	}
}

// Cancel disarms slot. Cancelling an idle slot is a no-op.
func (s *Schedule[T, S]) Cancel(slot S) {
	s.slots[slot].pending = false
}

// Pending reports slot's deadline, if armed.
func (s *Schedule[T, S]) Pending(slot S) (T, bool) {
	return s.slots[slot].time, s.slots[slot].pending
}

// NextEventTime returns the earliest pending deadline, capped at limit.
func (s *Schedule[T, S]) NextEventTime(limit T) T {
	t := limit
	for i := range s.slots {
		if s.slots[i].pending && s.slots[i].time < t {
			t = s.slots[i].time
		}
	}
	return t
}

// PopPending disarms and returns the earliest pending event not after
// limit. Deadline ties go to the lowest slot index.
func (s *Schedule[T, S]) PopPending(limit T) (S, T, bool) {
	best := -1
	var btime T
	for i := range s.slots {
		if s.slots[i].pending && (best < 0 || s.slots[i].time < btime) {
			best, btime = i, s.slots[i].time
		}
	}
	if best < 0 || btime > limit {
		return 0, 0, false
	}
	s.slots[best].pending = false
	return S(best), btime, true
}

// BatchEndTime returns the time the current batch stops at: the
// earliest pending event, capped at one batch length from now. Only
// meaningful on the machine-level schedule.
func (s *Schedule[T, S]) BatchEndTime() T {
	return s.NextEventTime(s.curTime + batchCycles)
}

// Reset clears every slot and rewinds both clocks to zero.
func (s *Schedule[T, S]) Reset() {
	s.curTime = 0
	s.targetTime = 0
	for i := range s.slots {
		s.slots[i] = schedSlot[T]{}
	}
}

func (s *Schedule[T, S]) State() *snapshot.Schedule {
	st := &snapshot.Schedule{
		CurTime:    int64(s.curTime),
		TargetTime: int64(s.targetTime),
		Slots:      make([]snapshot.SchedSlot, len(s.slots)),
	}
	for i, sl := range s.slots {
		st.Slots[i] = snapshot.SchedSlot{Time: int64(sl.time), Pending: sl.pending}
	}
	return st
}

func (s *Schedule[T, S]) SetState(st *snapshot.Schedule) {
	s.curTime = T(st.CurTime)
	s.targetTime = T(st.TargetTime)
	for i := range s.slots {
		s.slots[i] = schedSlot[T]{}
	}
	for i, sl := range st.Slots {
		if i == len(s.slots) {
			break
		}
		s.slots[i] = schedSlot[T]{time: T(sl.Time), pending: sl.Pending}
	}
}
