package emu

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"castor/emu/log"
	"castor/hw"
	"castor/nds"
)

// Emulator drives a DS machine: the single-threaded emulation loop,
// the control surface the frontend pokes concurrently (pause, reset,
// stop), and the audio drain worker.
type Emulator struct {
	DS  *DS
	cfg Config

	// These are accessed concurrently by the emulator loop and the
	// frontend.
	quit   atomic.Bool
	paused atomic.Bool
	reset  atomic.Bool

	frames atomic.Int64
}

// Launch powers up the machine and installs the configured outputs.
// It doesn't start the emulation loop, call Run() for that.
func Launch(rom *nds.Rom, cfg Config) (*Emulator, error) {
	cfg.Log.Apply()

	ds, err := powerUp(rom)
	if err != nil {
		return nil, fmt.Errorf("power up failed: %s", err)
	}

	if cfg.TraceOut != nil {
		ds.Tracer.SetSink(hw.NewWriteTrace(cfg.TraceOut))
		ds.Tracer.Start()
	}
	if cfg.Audio.DisableAudio {
		log.ModEmu.InfoZ("audio disabled").End()
	}
	return &Emulator{DS: ds, cfg: cfg}, nil
}

// Run drives the loop until the frame budget is exhausted (when
// budget > 0), Stop is called, or the console powers itself down. The
// audio worker runs for as long as the loop does; a worker write
// error stops the loop and comes back from Run.
func (e *Emulator) Run(budget int64) error {
	done := make(chan struct{})
	var g errgroup.Group
	g.Go(func() error {
		return e.drainAudio(done)
	})

	e.loop(budget)
	close(done)
	err := g.Wait()

	log.ModEmu.InfoZ("emulation loop exited").
		Int64("frames", e.frames.Load()).
		End()

	if e.cfg.TraceOut != nil {
		e.DS.Tracer.Stop()
	}
	return err
}

func (e *Emulator) loop(budget int64) {
	for !e.quit.Load() {
		if e.isPaused() {
			// Don't burn cpu while paused.
			time.Sleep(100 * time.Millisecond)
			continue
		}
		if e.RunOneFrame() == RunShutdown {
			log.ModEmu.InfoZ("console powered down").End()
			return
		}
		if budget > 0 && e.frames.Load() >= budget {
			return
		}
		e.handleReset()
	}
}

// RunOneFrame emulates a single video frame.
func (e *Emulator) RunOneFrame() RunOutput {
	out := e.DS.RunFrame()
	e.frames.Add(1)
	return out
}

// Frames reports how many frames ran since launch.
func (e *Emulator) Frames() int64 { return e.frames.Load() }

// drainAudio consumes the mixer ring so the emulation loop never
// blocks on it, forwarding samples to the configured output. A write
// error latches: the loop is told to quit, draining continues so the
// hand-off stays live, and the error is reported when the worker
// winds down.
func (e *Emulator) drainAudio(done <-chan struct{}) error {
	var werr error
	for {
		select {
		case <-done:
			return werr
		case buf := <-e.DS.Mixer.Samples():
			if werr != nil || e.cfg.AudioOut == nil || e.cfg.Audio.DisableAudio {
				continue
			}
			if err := binary.Write(e.cfg.AudioOut, binary.LittleEndian, buf); err != nil {
				werr = fmt.Errorf("audio output: %s", err)
				e.quit.Store(true)
			}
		}
	}
}

// SetPause, Stop and Reset control the emulator loop in a
// concurrent-safe way.

func (e *Emulator) SetPause(pause bool) { e.paused.CompareAndSwap(!pause, pause) }
func (e *Emulator) Reset()              { e.reset.Store(true) }
func (e *Emulator) Stop()               { e.quit.Store(true) }

func (e *Emulator) isPaused() bool {
	return e.paused.Load()
}

func (e *Emulator) handleReset() {
	if e.reset.CompareAndSwap(true, false) {
		log.ModEmu.InfoZ("reset").End()
		e.DS.Reset()
		if err := e.DS.directBoot(); err != nil {
			log.ModEmu.PanicZ("reset failed").Error(err).End()
		}
	}
}
