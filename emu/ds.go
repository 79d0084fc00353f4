package emu

import (
	"bytes"

	"castor/emu/log"
	"castor/hw"
	"castor/hw/snapshot"
	"castor/nds"
)

// RunOutput reports what ended a run.
type RunOutput uint8

const (
	// RunContinue is the quiet case: the batch ran out with nothing to
	// report.
	RunContinue RunOutput = iota
	// RunFrameFinished marks the video frame wrap.
	RunFrameFinished
	// RunShutdown means the console powered itself down.
	RunShutdown
)

// DS owns both cores and the cross-core units, wired the way the
// hardware wires them. All emulation is single-threaded: the
// orchestrator interleaves the cores at batch granularity, so nothing
// here needs locking.
type DS struct {
	Machine *hw.MachineSchedule
	Arm7    *hw.Arm7
	Arm9    *hw.Arm9
	Video   *hw.Video
	Ipc     *hw.IPC
	Slot    *hw.DsSlot
	Power   *hw.Power
	Spi     *hw.Spi
	SWram   *hw.SWram
	Vram    *hw.Vram
	Audio   *hw.Audio
	Mixer   *hw.Mixer
	Tracer  *hw.Tracer
	Rom     *nds.Rom

	mainRAM  []byte
	dbg      hw.Debugger
	shutdown bool
}

func powerUp(rom *nds.Rom) (*DS, error) {
	mainRAM := make([]byte, hw.MainRamSize)
	mach := hw.NewMachineSchedule()
	c7 := hw.NewArm7(mainRAM)
	c9 := hw.NewArm9(mainRAM)
	c9.Div = hw.NewDivider(c9.Sched)
	c9.Sqrt = hw.NewSqrtEngine(c9.Sched)

	video := hw.NewVideo(mach, c7.Irqs, c9.Irqs, c7.Dma, c9.Dma)
	ipc := hw.NewIPC(c7.Irqs, c9.Irqs)
	slot := hw.NewDsSlot(c7.Sched, c9.Sched, c7.Irqs, c9.Irqs, c7.Dma, c9.Dma)
	power := hw.NewPower(c7.Sched, mach, c7.Irqs)
	power.OnSlotOwnerChange = slot.SetOwner7
	spi := hw.NewSpi(c7.Sched, c7.Irqs, power)
	swram := hw.NewSWram(c7.Ptrs, c9.Ptrs, c7.Wram())
	vram := hw.NewVram(c7.Ptrs, c9.Ptrs)
	mixer := hw.NewMixer(hw.DefaultSampleRate)
	audio := hw.NewAudio(c7.Sched, c7, mixer)
	tracer := hw.NewTracer(c7.Ptrs, c9.Ptrs)

	c7.Video, c7.Ipc, c7.Slot, c7.Power, c7.Spi = video, ipc, slot, power, spi
	c7.SWram, c7.Vram, c7.Audio, c7.Tracer = swram, vram, audio, tracer
	c9.Video, c9.Ipc, c9.Slot, c9.Power = video, ipc, slot, power
	c9.SWram, c9.Vram, c9.Tracer = swram, vram, tracer
	c7.InitBus()
	c9.InitBus()

	ds := &DS{
		Machine: mach,
		Arm7:    c7,
		Arm9:    c9,
		Video:   video,
		Ipc:     ipc,
		Slot:    slot,
		Power:   power,
		Spi:     spi,
		SWram:   swram,
		Vram:    vram,
		Audio:   audio,
		Mixer:   mixer,
		Tracer:  tracer,
		Rom:     rom,
		mainRAM: mainRAM,
		dbg:     hw.NopDebugger{},
	}
	log.AddContext(ds)
	ds.Reset()
	if err := ds.directBoot(); err != nil {
		return nil, err
	}
	return ds, nil
}

// Reset rewinds the clocks, clears the resettable units and re-arms
// the periodic events. Memory contents survive.
func (ds *DS) Reset() {
	ds.Machine.Reset()
	ds.Arm7.Sched.Reset()
	ds.Arm9.Sched.Reset()
	ds.Video.Reset()
	ds.Ipc.Reset()
	ds.Slot.Reset()
	ds.Spi.Reset()
	ds.Audio.Reset()
	ds.Mixer.Reset(0)
	ds.shutdown = false
	ds.dbg.Reset()
}

// SetDebugger installs dbg on both cores. Passing nil detaches.
func (ds *DS) SetDebugger(dbg hw.Debugger) {
	if dbg == nil {
		dbg = hw.NopDebugger{}
	}
	ds.dbg = dbg
	ds.Arm7.SetDebugger(dbg)
	ds.Arm9.SetDebugger(dbg)
}

// AddLogContext stamps log entries with the machine position.
func (ds *DS) AddLogContext(e *log.EntryZ) {
	e.Int64("cycle", int64(ds.Machine.CurTime()))
	e.Int("line", int(ds.Video.VCount()))
}

// RunFrame advances the machine until the frame wraps or the console
// powers down.
func (ds *DS) RunFrame() RunOutput {
	for {
		if out := ds.runBatch(); out != RunContinue {
			return out
		}
	}
}

// runBatch advances both cores to the next shared boundary, commits
// machine time there, and retires the machine-level events that came
// due. The boundary starts out as BatchEndTime and only moves back:
// a core that stops early (shutdown) pulls it in, while a core that
// overshoots (DMA holding the bus) leaves it alone and idles at the
// top of the next batch.
func (ds *DS) runBatch() RunOutput {
	batchEnd := ds.Machine.BatchEndTime()
	ds.runArm9(batchEnd.To9())
	batchEnd = min(batchEnd, ds.Arm9.Sched.CurTime().ToMachine())
	ds.runArm7(batchEnd)
	batchEnd = min(batchEnd, ds.Arm7.Sched.CurTime())
	ds.Machine.SetCurTime(batchEnd)

	out := RunContinue
	for {
		ev, tm, ok := ds.Machine.PopPending(batchEnd)
		if !ok {
			break
		}
		switch ev {
		case hw.MachineEvEndHDraw:
			ds.Video.HandleEndHDraw(tm)
		case hw.MachineEvEndHBlank:
			ds.Video.HandleEndHBlank(tm)
		case hw.MachineEvFinishFrame:
			ds.Video.HandleEndHBlank(tm)
			ds.finishFrame(tm)
			out = RunFrameFinished
		case hw.MachineEvShutdown:
			ds.shutdown = true
		}
	}
	if ds.shutdown {
		return RunShutdown
	}
	return out
}

func (ds *DS) runArm7(target hw.Timestamp) {
	sched := ds.Arm7.Sched
	sched.SetCurTimeAfter(ds.Machine.CurTime())
	sched.SetTargetTime(target)
	for {
		for {
			ev, tm, ok := sched.PopPending(sched.CurTime())
			if !ok {
				break
			}
			ds.handleArm7Event(ev, tm)
		}
		if ds.shutdown || sched.CurTime() >= target {
			return
		}
		// Components pull the target back to stop a slice, so re-raise
		// it every pass; a running DMA would otherwise spin in place.
		sched.SetTargetTime(sched.NextEventTime(target))
		switch {
		case ds.Arm7.Dma.CurChannel() >= 0:
			ds.Arm7.RunDma(sched.TargetTime())
		case ds.Arm7.Irqs.Triggered():
			ds.takeIrq7()
		default:
			sched.SetCurTime(sched.TargetTime())
		}
	}
}

func (ds *DS) runArm9(target hw.Timestamp9) {
	sched := ds.Arm9.Sched
	sched.SetCurTimeAfter(ds.Machine.CurTime().To9())
	sched.SetTargetTime(target)
	for {
		for {
			ev, tm, ok := sched.PopPending(sched.CurTime())
			if !ok {
				break
			}
			ds.handleArm9Event(ev, tm)
		}
		if ds.shutdown || sched.CurTime() >= target {
			return
		}
		sched.SetTargetTime(sched.NextEventTime(target))
		switch {
		case ds.Arm9.Dma.CurChannel() >= 0:
			ds.Arm9.RunDma(sched.TargetTime())
		case ds.Arm9.Irqs.Triggered():
			ds.takeIrq9()
		default:
			sched.SetCurTime(sched.TargetTime())
		}
	}
}

func (ds *DS) handleArm7Event(ev hw.Arm7Event, tm hw.Timestamp) {
	switch ev {
	case hw.Arm7EvShutdown:
		ds.shutdown = true
	case hw.Arm7EvDsSlotROM:
		ds.Slot.HandleRomEvent()
	case hw.Arm7EvDsSlotSPI:
		ds.Slot.HandleSpiEvent()
	case hw.Arm7EvSPI:
		ds.Spi.HandleEvent()
	case hw.Arm7EvAudio:
		ds.Audio.HandleSample(tm)
	default:
		ds.Arm7.Timers.HandleOverflow(int(ev-hw.Arm7EvTimer0), tm)
	}
}

func (ds *DS) handleArm9Event(ev hw.Arm9Event, tm hw.Timestamp9) {
	switch ev {
	case hw.Arm9EvDsSlotROM:
		ds.Slot.HandleRomEvent()
	case hw.Arm9EvDsSlotSPI:
		ds.Slot.HandleSpiEvent()
	case hw.Arm9EvDiv:
		ds.Arm9.Div.HandleComplete()
	case hw.Arm9EvSqrt:
		ds.Arm9.Sqrt.HandleComplete()
	default:
		ds.Arm9.Timers.HandleOverflow(int(ev-hw.Arm9EvTimer0), tm)
	}
}

// takeIrq7 models the interrupt entry sequence: the core masks IRQs
// in CPSR on its way to the vector, which drops the trigger until IME
// or CPSR is rewritten.
func (ds *DS) takeIrq7() {
	irqs := ds.Arm7.Irqs
	log.ModIRQ.DebugZ("irq entry").
		Bool("arm9", false).
		Hex32("pending", irqs.IE()&irqs.IRF()).
		End()
	irqs.SetCpsrIRQEnabled(false)
}

func (ds *DS) takeIrq9() {
	irqs := ds.Arm9.Irqs
	log.ModIRQ.DebugZ("irq entry").
		Bool("arm9", true).
		Hex32("pending", irqs.IE()&irqs.IRF()).
		End()
	irqs.SetCpsrIRQEnabled(false)
}

func (ds *DS) finishFrame(tm hw.Timestamp) {
	ds.Mixer.EndFrame(tm)
	ds.dbg.FrameEnd()
}

// SaveSnapshot serializes the complete machine state. The cartridge
// and BIOS images are not part of the image; a snapshot only makes
// sense on the machine that owns the same ROM.
func (ds *DS) SaveSnapshot() []byte {
	return snapshot.Encode(&snapshot.DS{
		Version: snapshot.Version,
		MainRam: bytes.Clone(ds.mainRAM),
		Machine: ds.Machine.State(),
		Arm7:    ds.Arm7.State(),
		Arm9:    ds.Arm9.State(),
		Video:   ds.Video.State(),
		Ipc:     ds.Ipc.State(),
		Slot:    ds.Slot.State(),
		Power:   ds.Power.State(),
		Spi:     ds.Spi.State(),
		SWram:   ds.SWram.State(),
		Vram:    ds.Vram.State(),
		Audio:   ds.Audio.State(),
		Mixer:   ds.Mixer.State(),
	})
}

// LoadSnapshot restores state saved by SaveSnapshot. Units restore in
// dependency order: main RAM and the machine schedule first, shared
// units next, cores last so their register merge bases re-read final
// shared state.
func (ds *DS) LoadSnapshot(data []byte) error {
	st, err := snapshot.Decode(data)
	if err != nil {
		return err
	}
	copy(ds.mainRAM, st.MainRam)
	ds.Machine.SetState(st.Machine)
	ds.Video.SetState(st.Video)
	ds.Ipc.SetState(st.Ipc)
	ds.Slot.SetState(st.Slot)
	ds.Power.SetState(st.Power)
	ds.Spi.SetState(st.Spi)
	ds.SWram.SetState(st.SWram)
	ds.Vram.SetState(st.Vram)
	ds.Audio.SetState(st.Audio)
	ds.Mixer.SetState(st.Mixer)
	ds.Arm7.SetState(st.Arm7)
	ds.Arm9.SetState(st.Arm9)
	ds.shutdown = false
	return nil
}
