package main

import (
	"os"
	"runtime/pprof"

	"castor/emu"
	"castor/hw"
	"castor/nds"
)

// emuMain runs rom headless until the ROM powers the console down, the
// frame/time budget runs out, or the process gets killed.
func emuMain(args Run) {
	rom, err := nds.Open(args.RomPath)
	checkf(err, "failed to read ROM")

	cfg := emu.LoadConfigOrDefault()
	if args.Trace != nil {
		cfg.TraceOut = args.Trace
		defer args.Trace.Close()
	}

	emulator, err := emu.Launch(rom, cfg)
	checkf(err, "failed to start emulator")

	if args.CPUProfile != "" {
		f, err := os.Create(args.CPUProfile)
		checkf(err, "failed to create cpu profile file")
		checkf(pprof.StartCPUProfile(f), "failed to start cpu profile")
		defer func() {
			pprof.StopCPUProfile()
			f.Close()
		}()
	}

	if args.SnapshotIn != "" {
		buf, err := os.ReadFile(args.SnapshotIn)
		checkf(err, "failed to read snapshot")
		checkf(emulator.DS.LoadSnapshot(buf), "failed to restore snapshot")
	}

	budget := args.Frames
	if args.Seconds > 0 {
		budget = int64(args.Seconds * hw.ClockRate / hw.FrameCycles)
	}

	checkf(emulator.Run(budget), "emulation error")

	if args.SnapshotOut != "" {
		err := os.WriteFile(args.SnapshotOut, emulator.DS.SaveSnapshot(), 0644)
		checkf(err, "failed to write snapshot")
	}
}
