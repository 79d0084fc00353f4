package hw

import (
	"github.com/arl/blip"

	"castor/emu/log"
	"castor/hw/snapshot"
)

const DefaultSampleRate = 48000

// Room for a bit more than a frame of stereo samples at the highest
// supported rate.
const maxSamplesPerFrame = 96000 / 59 * 2

// Mixer turns the sampler's stepwise stereo output into band-limited
// PCM. Each side runs through its own resampling buffer; finished
// frames are handed to the frontend as interleaved chunks over a
// channel, and dropped when nobody drains it fast enough.
type Mixer struct {
	bufleft  *blip.Buffer
	bufright *blip.Buffer
	outbuf   [maxSamplesPerFrame]int16

	prevLeft  int32
	prevRight int32
	frameBase Timestamp

	sampleRate int
	out        chan []int16
}

func NewMixer(sampleRate int) *Mixer {
	mx := &Mixer{
		bufleft:    blip.NewBuffer(maxSamplesPerFrame),
		bufright:   blip.NewBuffer(maxSamplesPerFrame),
		sampleRate: sampleRate,
		out:        make(chan []int16, 3),
	}
	mx.bufleft.SetRates(ClockRate, float64(sampleRate))
	mx.bufright.SetRates(ClockRate, float64(sampleRate))
	return mx
}

func (mx *Mixer) Reset(tm Timestamp) {
	mx.bufleft.Clear()
	mx.bufright.Clear()
	mx.prevLeft = 0
	mx.prevRight = 0
	mx.frameBase = tm
}

// SampleRate reports the output rate the frontend should open its
// device at.
func (mx *Mixer) SampleRate() int { return mx.sampleRate }

// Samples is the frontend's end of the hand-off.
func (mx *Mixer) Samples() <-chan []int16 { return mx.out }

// PushSample records the stereo output level at tm. Levels repeat
// until the next push; only changes cost anything.
func (mx *Mixer) PushSample(tm Timestamp, left, right int32) {
	clock := uint64(tm - mx.frameBase)
	if d := left - mx.prevLeft; d != 0 {
		mx.bufleft.AddDelta(clock, d)
		mx.prevLeft = left
	}
	if d := right - mx.prevRight; d != 0 {
		mx.bufright.AddDelta(clock, d)
		mx.prevRight = right
	}
}

// EndFrame closes the clock span ending at tm and ships the resampled
// chunk.
func (mx *Mixer) EndFrame(tm Timestamp) {
	span := int(tm - mx.frameBase)
	if span <= 0 {
		return
	}
	mx.bufleft.EndFrame(span)
	mx.bufright.EndFrame(span)
	mx.frameBase = tm

	n := mx.bufleft.ReadSamples(mx.outbuf[:], mx.bufleft.SamplesAvailable(), blip.Stereo)
	mx.bufright.ReadSamples(mx.outbuf[1:], n, blip.Stereo)

	chunk := make([]int16, 2*n)
	copy(chunk, mx.outbuf[:2*n])
	select {
	case mx.out <- chunk:
	default:
		log.ModAudio.DebugZ("sample chunk dropped").Int("frames", n).End()
	}
}

func (mx *Mixer) State() *snapshot.Mixer {
	return &snapshot.Mixer{
		FrameBase: int64(mx.frameBase),
		PrevLeft:  mx.prevLeft,
		PrevRight: mx.prevRight,
	}
}

// SetState drops any buffered deltas and restarts the stream from the
// restored anchors. Samples rendered since the snapshot are gone; the
// next frame starts clean.
func (mx *Mixer) SetState(st *snapshot.Mixer) {
	mx.Reset(Timestamp(st.FrameBase))
	mx.prevLeft = st.PrevLeft
	mx.prevRight = st.PrevRight
}
