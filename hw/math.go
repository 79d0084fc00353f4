package hw

import (
	"math"

	"castor/hw/snapshot"
)

// Completion latencies, in ARM9 cycles.
const (
	divCycles32 = 36
	divCycles64 = 68
	sqrtCycles  = 26
)

// Divider is the ARM9 hardware divider. Operands and control writes
// restart the engine; results latch when the completion event fires.
type Divider struct {
	sched *Arm9Schedule

	mode      uint16
	numer     uint64
	denom     uint64
	quotient  uint64
	remainder uint64
	busy      bool
	divZero   bool
}

func NewDivider(sched *Arm9Schedule) *Divider {
	return &Divider{sched: sched}
}

// ReadControl composes the status bits. The div-by-0 flag is the one
// the last completed operation latched: it tracks a zero 64-bit
// denominator whatever the mode selects, and only updates when a
// result lands.
func (dv *Divider) ReadControl() uint16 {
	v := dv.mode
	if dv.divZero {
		v |= 1 << 14
	}
	if dv.busy {
		v |= 1 << 15
	}
	return v
}

func (dv *Divider) WriteControl(v uint16) {
	dv.mode = v & 3
	dv.restart()
}

func (dv *Divider) SetNumerLo(v uint32) {
	dv.numer = dv.numer&^0xFFFFFFFF | uint64(v)
	dv.restart()
}

func (dv *Divider) SetNumerHi(v uint32) {
	dv.numer = dv.numer&0xFFFFFFFF | uint64(v)<<32
	dv.restart()
}

func (dv *Divider) SetDenomLo(v uint32) {
	dv.denom = dv.denom&^0xFFFFFFFF | uint64(v)
	dv.restart()
}

func (dv *Divider) SetDenomHi(v uint32) {
	dv.denom = dv.denom&0xFFFFFFFF | uint64(v)<<32
	dv.restart()
}

func (dv *Divider) Numer() uint64     { return dv.numer }
func (dv *Divider) Denom() uint64     { return dv.denom }
func (dv *Divider) Quotient() uint64  { return dv.quotient }
func (dv *Divider) Remainder() uint64 { return dv.remainder }

func (dv *Divider) restart() {
	delay := Timestamp9(divCycles64)
	if dv.mode == 0 {
		delay = divCycles32
	}
	dv.busy = true
	dv.sched.Schedule(Arm9EvDiv, dv.sched.CurTime()+delay)
}

// HandleComplete latches the result of the pending operation.
func (dv *Divider) HandleComplete() {
	dv.busy = false
	dv.divZero = dv.denom == 0
	switch dv.mode {
	case 0:
		num := int32(uint32(dv.numer))
		den := int32(uint32(dv.denom))
		switch {
		case den == 0:
			// Quotient is ±1 by the numerator's sign, with the upper
			// word of the sign extension flipped.
			q := int64(-1)
			if num < 0 {
				q = 1
			}
			dv.quotient = uint64(q) ^ 0xFFFFFFFF_00000000
			dv.remainder = uint64(int64(num))
		case num == math.MinInt32 && den == -1:
			dv.quotient = uint64(uint32(num))
			dv.remainder = 0
		default:
			dv.quotient = uint64(int64(num / den))
			dv.remainder = uint64(int64(num % den))
		}
	default:
		num := int64(dv.numer)
		den := int64(int32(uint32(dv.denom)))
		if dv.mode == 2 {
			den = int64(dv.denom)
		}
		if den == 0 {
			q := int64(-1)
			if num < 0 {
				q = 1
			}
			dv.quotient = uint64(q)
			dv.remainder = uint64(num)
		} else {
			// MinInt64 / -1 wraps back to MinInt64 with remainder 0,
			// which is also what the engine latches.
			dv.quotient = uint64(num / den)
			dv.remainder = uint64(num % den)
		}
	}
}

// SqrtEngine is the ARM9 hardware square root unit.
type SqrtEngine struct {
	sched *Arm9Schedule

	mode64 bool
	input  uint64
	result uint32
	busy   bool
}

func NewSqrtEngine(sched *Arm9Schedule) *SqrtEngine {
	return &SqrtEngine{sched: sched}
}

func (sq *SqrtEngine) ReadControl() uint16 {
	var v uint16
	if sq.mode64 {
		v |= 1
	}
	if sq.busy {
		v |= 1 << 15
	}
	return v
}

func (sq *SqrtEngine) WriteControl(v uint16) {
	sq.mode64 = v&1 != 0
	sq.restart()
}

func (sq *SqrtEngine) SetInputLo(v uint32) {
	sq.input = sq.input&^0xFFFFFFFF | uint64(v)
	sq.restart()
}

func (sq *SqrtEngine) SetInputHi(v uint32) {
	sq.input = sq.input&0xFFFFFFFF | uint64(v)<<32
	sq.restart()
}

func (sq *SqrtEngine) Input() uint64  { return sq.input }
func (sq *SqrtEngine) Result() uint32 { return sq.result }

func (sq *SqrtEngine) restart() {
	sq.busy = true
	sq.sched.Schedule(Arm9EvSqrt, sq.sched.CurTime()+sqrtCycles)
}

// HandleComplete runs the bit-by-bit root over the latched input. The
// 32-bit mode truncates the input to its low word.
func (sq *SqrtEngine) HandleComplete() {
	sq.busy = false
	v := sq.input
	bit := uint64(1) << 62
	if !sq.mode64 {
		v = uint64(uint32(v))
		bit = 1 << 30
	}
	var res uint64
	for bit != 0 {
		if v >= res+bit {
			v -= res + bit
			res = res>>1 + bit
		} else {
			res >>= 1
		}
		bit >>= 2
	}
	sq.result = uint32(res)
}

func (dv *Divider) saveState(st *snapshot.Divider) {
	st.Mode = dv.mode
	st.Numer = dv.numer
	st.Denom = dv.denom
	st.Quotient = dv.quotient
	st.Remainder = dv.remainder
	st.Busy = dv.busy
	st.DivZero = dv.divZero
}

// setState restores operands and latched results. A busy engine's
// completion event comes back with the schedule, so nothing restarts.
func (dv *Divider) setState(st *snapshot.Divider) {
	dv.mode = st.Mode & 3
	dv.numer = st.Numer
	dv.denom = st.Denom
	dv.quotient = st.Quotient
	dv.remainder = st.Remainder
	dv.busy = st.Busy
	dv.divZero = st.DivZero
}

func (sq *SqrtEngine) saveState(st *snapshot.Sqrt) {
	st.Mode64 = sq.mode64
	st.Input = sq.input
	st.Result = sq.result
	st.Busy = sq.busy
}

func (sq *SqrtEngine) setState(st *snapshot.Sqrt) {
	sq.mode64 = st.Mode64
	sq.input = st.Input
	sq.result = st.Result
	sq.busy = st.Busy
}
