package hw

import (
	"castor/emu/log"
	"castor/hw/snapshot"
)

// One output sample every 1024 ARM7 cycles (32.768 kHz); the sample
// timers tick at half the ARM7 clock.
const (
	AudioSampleCycles = 1024
	audioTimerTicks   = AudioSampleCycles / 2
)

// AudioMemory is the slice of the ARM7 bus the sampler fetches PCM
// data through. Fetches behave like DMA accesses: page tables and
// fallback dispatch apply, instruction-side quirks don't.
type AudioMemory interface {
	ReadSample8(addr uint32) int8
	ReadSample16(addr uint32) int16
}

type audioFormat uint32

const (
	formatPCM8 audioFormat = iota
	formatPCM16
	formatADPCM
	formatPSG
)

var volDivShifts = [4]uint8{0, 1, 2, 4}

type AudioChannel struct {
	control uint32
	src     uint32
	timer   uint16
	loopPos uint16
	length  uint32

	active  bool
	cursor  uint32 // byte offset into the source
	acc     uint32
	cur     int32
	lfsr    uint16
	dutyPos uint8
	warned  bool
}

func (ch *AudioChannel) format() audioFormat {
	return audioFormat(ch.control >> 29 & 3)
}

func (ch *AudioChannel) totalBytes() uint32 {
	return (uint32(ch.loopPos) + ch.length) * 4
}

// Audio is the 16-channel sampler. It owns the channel registers and
// renders one stereo level per sample event into the mixer; it has no
// notion of an output device.
type Audio struct {
	sched *Arm7Schedule
	mem   AudioMemory
	mixer *Mixer

	channels [16]AudioChannel
	soundcnt uint16
	bias     uint16
}

func NewAudio(sched *Arm7Schedule, mem AudioMemory, mixer *Mixer) *Audio {
	return &Audio{sched: sched, mem: mem, mixer: mixer}
}

// Reset silences every channel and restarts the sample cadence.
func (au *Audio) Reset() {
	au.channels = [16]AudioChannel{}
	au.soundcnt = 0
	au.bias = 0
	au.sched.Schedule(Arm7EvAudio, au.sched.CurTime()+AudioSampleCycles)
}

func (au *Audio) ReadSoundCnt() uint16   { return au.soundcnt }
func (au *Audio) WriteSoundCnt(v uint16) { au.soundcnt = v & 0xBF7F }
func (au *Audio) ReadBias() uint16       { return au.bias }
func (au *Audio) WriteBias(v uint16)     { au.bias = v & 0x3FF }

func (au *Audio) Channel(i int) *AudioChannel { return &au.channels[i] }

func (au *Audio) ReadChannelControl(i int) uint32 {
	return au.channels[i].control
}

func (au *Audio) WriteChannelControl(i int, v uint32) {
	ch := &au.channels[i]
	old := ch.control
	ch.control = v & 0xFF7F837F
	if v&1<<31 != 0 && old&1<<31 == 0 {
		au.keyOn(i, ch)
	} else if v&1<<31 == 0 {
		ch.active = false
		ch.cur = 0
	}
}

func (au *Audio) WriteChannelSrc(i int, v uint32) {
	au.channels[i].src = v & 0x07FFFFFC
}

func (au *Audio) WriteChannelTimer(i int, v uint16) {
	au.channels[i].timer = v
}

func (au *Audio) WriteChannelLoopStart(i int, v uint16) {
	au.channels[i].loopPos = v
}

func (au *Audio) WriteChannelLength(i int, v uint32) {
	au.channels[i].length = v & 0x3FFFFF
}

func (au *Audio) keyOn(i int, ch *AudioChannel) {
	ch.active = true
	ch.cursor = 0
	ch.acc = 0
	ch.cur = 0
	ch.lfsr = 0x7FFF
	ch.dutyPos = 0
	switch {
	case ch.format() == formatADPCM && !ch.warned:
		ch.warned = true
		log.ModAudio.WarnZ("ADPCM channel keyed on, will stay silent").Int("ch", i).End()
	case ch.format() == formatPSG && i < 8 && !ch.warned:
		ch.warned = true
		log.ModAudio.WarnZ("PSG format on a PCM-only channel").Int("ch", i).End()
	}
}

// HandleSample advances every active channel to the current sample
// boundary, mixes the channel levels and pushes the stereo output.
func (au *Audio) HandleSample(tm Timestamp) {
	au.sched.Schedule(Arm7EvAudio, tm+AudioSampleCycles)

	if au.soundcnt&1<<15 == 0 {
		au.mixer.PushSample(tm, 0, 0)
		return
	}
	var left, right int64
	for i := range au.channels {
		ch := &au.channels[i]
		if !ch.active {
			continue
		}
		au.stepChannel(i, ch)

		s := int64(ch.cur) >> volDivShifts[ch.control>>8&3]
		s = s * int64(ch.control&0x7F) >> 7
		pan := int64(ch.control >> 16 & 0x7F)
		left += s * (128 - pan) >> 7
		right += s * pan >> 7
	}
	master := int64(au.soundcnt & 0x7F)
	au.mixer.PushSample(tm, clamp16(left*master>>7), clamp16(right*master>>7))
}

func clamp16(v int64) int32 {
	if v < -0x8000 {
		return -0x8000
	}
	if v > 0x7FFF {
		return 0x7FFF
	}
	return int32(v)
}

func (au *Audio) stepChannel(i int, ch *AudioChannel) {
	period := 0x10000 - uint32(ch.timer)
	for ch.acc += audioTimerTicks; ch.acc >= period; ch.acc -= period {
		au.advance(i, ch)
		if !ch.active {
			ch.acc = 0
			return
		}
	}
}

// advance produces the channel's next sample.
func (au *Audio) advance(i int, ch *AudioChannel) {
	switch ch.format() {
	case formatPCM8:
		if au.endOfData(ch) {
			return
		}
		ch.cur = int32(au.mem.ReadSample8(ch.src+ch.cursor)) << 8
		ch.cursor++
	case formatPCM16:
		if au.endOfData(ch) {
			return
		}
		ch.cur = int32(au.mem.ReadSample16(ch.src + ch.cursor))
		ch.cursor += 2
	case formatADPCM:
		ch.cur = 0
	case formatPSG:
		if i >= 14 {
			carry := ch.lfsr&1 != 0
			ch.lfsr >>= 1
			if carry {
				ch.lfsr ^= 0x6000
				ch.cur = -0x8000
			} else {
				ch.cur = 0x7FFF
			}
		} else if i >= 8 {
			ch.dutyPos = (ch.dutyPos + 1) & 7
			if uint32(ch.dutyPos) <= ch.control>>24&7 {
				ch.cur = 0x7FFF
			} else {
				ch.cur = -0x8000
			}
		} else {
			ch.cur = 0
		}
	}
}

// endOfData loops or retires a PCM channel whose cursor ran off the
// end. One-shot channels keep their last sample when the hold bit is
// set.
func (au *Audio) endOfData(ch *AudioChannel) bool {
	if ch.cursor < ch.totalBytes() {
		return false
	}
	if ch.control>>27&3 != 2 && ch.totalBytes() > uint32(ch.loopPos)*4 {
		ch.cursor = uint32(ch.loopPos) * 4
		return false
	}
	ch.active = false
	ch.control &^= 1 << 31
	if ch.control&1<<15 == 0 {
		ch.cur = 0
	}
	return true
}

func (au *Audio) State() *snapshot.Audio {
	st := &snapshot.Audio{SoundCnt: au.soundcnt, Bias: au.bias}
	for i, ch := range au.channels {
		st.Channels[i] = snapshot.AudioChannel{
			Control: ch.control,
			Src:     ch.src,
			Timer:   ch.timer,
			LoopPos: ch.loopPos,
			Length:  ch.length,
			Active:  ch.active,
			Cursor:  ch.cursor,
			Acc:     ch.acc,
			Cur:     ch.cur,
			Lfsr:    ch.lfsr,
			DutyPos: ch.dutyPos,
		}
	}
	return st
}

// SetState restores the sampler mid-note: cursors, interpolation
// accumulators and noise registers come back exactly, so the next
// sample event picks up where the saved machine left off.
func (au *Audio) SetState(st *snapshot.Audio) {
	au.soundcnt = st.SoundCnt
	au.bias = st.Bias
	for i, ch := range st.Channels {
		au.channels[i] = AudioChannel{
			control: ch.Control,
			src:     ch.Src,
			timer:   ch.Timer,
			loopPos: ch.LoopPos,
			length:  ch.Length,
			active:  ch.Active,
			cursor:  ch.Cursor,
			acc:     ch.Acc,
			cur:     ch.Cur,
			lfsr:    ch.Lfsr,
			dutyPos: ch.DutyPos,
		}
	}
}
