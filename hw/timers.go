package hw

import (
	"castor/emu/log"
	"castor/hw/snapshot"
)

// Timer control bits. Writes keep only these (mask 0xC7: prescaler,
// count-up, IRQ enable, running).
const (
	timerCountUp = 1 << 2
	timerIRQ     = 1 << 6
	timerRunning = 1 << 7
)

// Prescaler shifts: 1, 64, 256 or 1024 machine cycles per tick. The
// prescaler phase is global (a tick happens when the clock crosses a
// multiple of the period), not relative to the start of the timer.
var timerShifts = [4]uint8{0, 6, 8, 10}

type timerUnit[T ~int64] struct {
	reload   uint16
	counter  uint16 // accurate as of lastSync; always accurate for count-up
	control  uint8
	lastSync T
}

// Timers is one core's block of four lazy 16-bit up-counters. Running
// timers never tick cycle by cycle: each schedules its overflow event
// and counter reads reconstruct the live value from the clock.
// Count-up timers (1-3) instead advance when the previous timer
// overflows.
//
// Both cores' timers tick at the machine rate. On the ARM9, whose
// schedule runs at twice that, shiftBias widens every prescaler period
// by one bit to express machine-rate ticks in ARM9 cycles.
type Timers[T ~int64, S ~uint8] struct {
	sched *Schedule[T, S]
	irqs  *Irqs[T, S]

	slot0     S
	shiftBias uint8
	timers    [4]timerUnit[T]
}

type Arm7Timers = Timers[Timestamp, Arm7Event]
type Arm9Timers = Timers[Timestamp9, Arm9Event]

func NewArm7Timers(sched *Arm7Schedule, irqs *Arm7Irqs) *Arm7Timers {
	return &Arm7Timers{sched: sched, irqs: irqs, slot0: Arm7EvTimer0}
}

func NewArm9Timers(sched *Arm9Schedule, irqs *Arm9Irqs) *Arm9Timers {
	return &Arm9Timers{sched: sched, irqs: irqs, slot0: Arm9EvTimer0, shiftBias: 1}
}

func (ts *Timers[T, S]) shift(i int) uint8 {
	return timerShifts[ts.timers[i].control&3] + ts.shiftBias
}

// counts-per-tick mask for timer i.
func (ts *Timers[T, S]) phaseMask(i int) int64 {
	return int64(1)<<ts.shift(i) - 1
}

func (ts *Timers[T, S]) isCountUp(i int) bool {
	// The count-up bit has no meaning on timer 0.
	return i > 0 && ts.timers[i].control&timerCountUp != 0
}

// sync brings timer i's stored counter up to now under its current
// control value.
func (ts *Timers[T, S]) sync(i int, now T) {
	t := &ts.timers[i]
	if t.control&timerRunning != 0 && !ts.isCountUp(i) {
		shift := ts.shift(i)
		ticks := int64(now)>>shift - int64(t.lastSync)>>shift
		t.counter += uint16(ticks)
	}
	t.lastSync = now
}

// reschedule arms or disarms timer i's overflow event as of now. The
// counter must already be synced to now.
func (ts *Timers[T, S]) reschedule(i int, now T) {
	slot := ts.slot0 + S(i)
	t := &ts.timers[i]
	if t.control&timerRunning == 0 || ts.isCountUp(i) {
		ts.sched.Cancel(slot)
		return
	}
	delta := (int64(0x10000-uint32(t.counter)) << ts.shift(i)) - (int64(now) & ts.phaseMask(i))
	ts.sched.Schedule(slot, now+T(delta))
}

func (ts *Timers[T, S]) WriteReload(i int, v uint16) {
	// Takes effect at the next overflow or start.
	ts.timers[i].reload = v
}

func (ts *Timers[T, S]) Reload(i int) uint16 { return ts.timers[i].reload }

func (ts *Timers[T, S]) WriteControl(i int, v uint8) {
	v &= 0xC7
	t := &ts.timers[i]
	now := ts.sched.CurTime()
	ts.sync(i, now)

	started := t.control&timerRunning == 0 && v&timerRunning != 0
	stopped := t.control&timerRunning != 0 && v&timerRunning == 0
	t.control = v
	if started {
		t.counter = t.reload
		log.ModTimer.DebugZ("timer started").
			Int("timer", i).
			Hex16("reload", t.reload).
			Int("prescaler", int(v&3)).
			End()
	} else if stopped {
		log.ModTimer.DebugZ("timer stopped").Int("timer", i).Hex16("counter", t.counter).End()
	}
	ts.reschedule(i, now)
}

func (ts *Timers[T, S]) ReadControl(i int) uint8 { return ts.timers[i].control }

// ReadCounter reconstructs the live counter value.
func (ts *Timers[T, S]) ReadCounter(i int) uint16 {
	t := &ts.timers[i]
	if t.control&timerRunning != 0 && !ts.isCountUp(i) {
		shift := ts.shift(i)
		now := ts.sched.CurTime()
		ticks := int64(now)>>shift - int64(t.lastSync)>>shift
		return t.counter + uint16(ticks)
	}
	return t.counter
}

// HandleOverflow services timer i's overflow event. tm is the event's
// own deadline, which can be earlier than the clock when the slice
// skipped ahead; chaining from tm keeps the overflow cadence exact.
func (ts *Timers[T, S]) HandleOverflow(i int, tm T) {
	t := &ts.timers[i]
	t.counter = t.reload
	t.lastSync = tm
	if t.control&timerIRQ != 0 {
		ts.irqs.Request(IrqTimer(i))
	}
	ts.cascade(i, tm)
	ts.reschedule(i, tm)
}

// cascade feeds timer i's overflow into timer i+1 when that one counts
// up, recursing up the chain.
func (ts *Timers[T, S]) cascade(i int, tm T) {
	if i >= 3 {
		return
	}
	next := &ts.timers[i+1]
	if next.control&timerRunning == 0 || !ts.isCountUp(i+1) {
		return
	}
	next.counter++
	if next.counter == 0 {
		next.counter = next.reload
		if next.control&timerIRQ != 0 {
			ts.irqs.Request(IrqTimer(i + 1))
		}
		ts.cascade(i+1, tm)
	}
}

func (ts *Timers[T, S]) saveState(st *[4]snapshot.Timer) {
	for i, t := range ts.timers {
		st[i] = snapshot.Timer{
			Reload:   t.reload,
			Counter:  t.counter,
			Control:  t.control,
			LastSync: int64(t.lastSync),
		}
	}
}

// setState restores the latches directly. The overflow events come
// back with the schedule, so nothing is rearmed here.
func (ts *Timers[T, S]) setState(st *[4]snapshot.Timer) {
	for i, t := range st {
		ts.timers[i] = timerUnit[T]{
			reload:   t.Reload,
			counter:  t.Counter,
			control:  t.Control & 0xC7,
			lastSync: T(t.LastSync),
		}
	}
}
