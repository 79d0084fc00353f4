package hw

import (
	"castor/emu/log"
	"castor/hw/snapshot"
)

// Spi models the NDS7 serial bus behind SPICNT/SPIDATA: one byte in
// flight at a time, clocked over 64<<baud cycles, with chip-select
// hold tracking per device. The power-management chip is a live
// register file (its control register can power the machine off) and
// the touchscreen converts whatever pen position was latched; the
// firmware flash keeps its timing but only ever answers zeroes, its
// contents are not modeled.
type Spi struct {
	sched *Arm7Schedule
	irqs  *Arm7Irqs
	power *Power

	control uint16
	dataOut uint8
	holds   [3]bool

	pmIndex   uint8
	pmCtl     uint8
	pmMicAmp  uint8
	pmMicGain uint8

	tscCtl uint8
	tscOut uint16
	tscPos uint8
	penX   uint16
	penY   uint16
}

func NewSpi(sched *Arm7Schedule, irqs *Arm7Irqs, power *Power) *Spi {
	return &Spi{sched: sched, irqs: irqs, power: power, penY: 0xFFF}
}

func (s *Spi) ReadCnt() uint16 { return s.control }

// WriteCnt latches the control word, keeping the busy status bit.
// Dropping the enable bit releases every chip select.
func (s *Spi) WriteCnt(v uint16) {
	if s.control&1<<15 != 0 && v&1<<15 == 0 {
		s.holds = [3]bool{}
	}
	s.control = s.control&0x0080 | v&0xCF03
}

// ReadData returns the byte the selected device clocked back on the
// last transfer.
func (s *Spi) ReadData() uint8 { return s.dataOut }

// WriteData clocks one byte out to the selected device and starts the
// transfer timer. Writes while busy or disabled fall on the floor.
func (s *Spi) WriteData(v uint8) {
	if s.control&1<<15 == 0 || s.control&1<<7 != 0 {
		return
	}
	s.control |= 1 << 7

	device := int(s.control >> 8 & 3)
	hold := s.control&1<<11 != 0
	var first bool
	if device < 3 {
		first = !s.holds[device]
		s.holds[device] = hold
	}
	log.ModSpi.DebugZ("spi byte").Hex8("val", v).Int("dev", device).Bool("hold", hold).End()

	switch device {
	case 0:
		s.dataOut = s.powerByte(v, first)
	case 1:
		// Firmware flash: chip select and busy timing are real, the
		// data pins are not wired.
		s.dataOut = 0
	case 2:
		s.dataOut = s.tscByte(v, first)
	default:
		log.ModSpi.WarnZ("write to reserved spi device").Hex8("val", v).End()
		s.dataOut = 0
	}

	// 8 bits at 8<<baud cycles per bit.
	delay := Timestamp(64) << (s.control & 3)
	s.sched.Schedule(Arm7EvSPI, s.sched.CurTime()+delay)
}

// HandleEvent completes the transfer: the busy bit drops and, when
// armed, the SPI interrupt fires.
func (s *Spi) HandleEvent() {
	s.control &^= 1 << 7
	if s.control&1<<14 != 0 {
		s.irqs.Request(IrqSPI)
	}
}

// powerByte clocks one byte through the power-management chip. The
// first byte of a transfer selects a register and direction; the
// rest read it back or write it.
func (s *Spi) powerByte(v uint8, first bool) uint8 {
	if first {
		s.pmIndex = v
		return 0
	}
	reg := s.pmIndex & 3
	if s.pmIndex&1<<7 != 0 {
		switch reg {
		case 0:
			return s.pmCtl
		case 1:
			return 0 // battery is always fine
		case 2:
			return s.pmMicAmp
		default:
			return s.pmMicGain
		}
	}
	switch reg {
	case 0:
		s.pmCtl = v & 0x7F
		if v&1<<6 != 0 {
			s.power.Shutdown()
		}
	case 1:
		// battery status is read-only
	case 2:
		s.pmMicAmp = v & 1
	case 3:
		s.pmMicGain = v & 3
	}
	return 0
}

// tscByte clocks one byte through the touchscreen controller. A byte
// with the start bit begins a conversion; the result streams out over
// the following bytes, and a fresh start byte may pipeline the next
// conversion into the tail of the current one.
func (s *Spi) tscByte(v uint8, first bool) uint8 {
	if first {
		s.tscPos = 0
	}
	if s.tscPos == 0 {
		if v&1<<7 != 0 {
			s.tscPos = 1
			s.tscOut = s.tscConvert(v)
		}
		return 0
	}
	out := uint8(s.tscOut >> 8)
	s.tscOut <<= 8
	if s.tscPos == 2 {
		if v&1<<7 != 0 {
			s.tscPos = 1
			s.tscOut = s.tscConvert(v)
		}
	} else {
		s.tscPos = 2
	}
	return out
}

// tscConvert runs an ADC conversion for the channel the control byte
// names. Results are 12 bits, left-aligned to bit 14 on the wire;
// 8-bit mode drops the low nibble.
func (s *Spi) tscConvert(ctl uint8) uint16 {
	s.tscCtl = ctl
	var sample uint16
	switch ctl >> 4 & 7 {
	case 1:
		sample = s.penY
	case 5:
		sample = s.penX
	default:
		// Temperature, battery and mic channels float high.
		sample = 0xFFF
	}
	if ctl&1<<3 != 0 {
		sample &^= 0xF
	}
	return sample << 3
}

// SetTouch latches a pen contact at the given 12-bit ADC coordinates.
func (s *Spi) SetTouch(x, y uint16) {
	s.penX = x & 0xFFF
	s.penY = y & 0xFFF
}

// ClearTouch lifts the pen: X drifts to ground, Y to full scale.
func (s *Spi) ClearTouch() {
	s.penX = 0
	s.penY = 0xFFF
}

// Reset drops the byte in flight and releases the chip selects. The
// power-management latches survive: the chip sits on standby power.
func (s *Spi) Reset() {
	s.control &^= 1 << 7
	s.holds = [3]bool{}
	s.tscPos = 0
}

func (s *Spi) State() *snapshot.Spi {
	st := &snapshot.Spi{
		Control:    s.control,
		DataOut:    s.dataOut,
		PmIndex:    s.pmIndex,
		PmControl:  s.pmCtl,
		PmMicAmp:   s.pmMicAmp,
		PmMicGain:  s.pmMicGain,
		TscControl: s.tscCtl,
		TscOut:     s.tscOut,
		TscPos:     s.tscPos,
		PenX:       s.penX,
		PenY:       s.penY,
	}
	for i, h := range s.holds {
		if h {
			st.Holds |= 1 << i
		}
	}
	return st
}

// SetState restores the bus and device latches. A byte in flight
// comes back with the schedule slot that completes it.
func (s *Spi) SetState(st *snapshot.Spi) {
	s.control = st.Control
	s.dataOut = st.DataOut
	for i := range s.holds {
		s.holds[i] = st.Holds&1<<i != 0
	}
	s.pmIndex = st.PmIndex
	s.pmCtl = st.PmControl
	s.pmMicAmp = st.PmMicAmp
	s.pmMicGain = st.PmMicGain
	s.tscCtl = st.TscControl
	s.tscOut = st.TscOut
	s.tscPos = st.TscPos
	s.penX = st.PenX
	s.penY = st.PenY
}
