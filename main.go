package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"castor/nds"
)

func main() {
	cfg := parseArgs(os.Args[1:])

	switch cfg.mode {
	case runMode:
		emuMain(cfg.Run)
	case romInfosMode:
		rom, err := nds.Open(cfg.RomInfos.RomPath)
		checkf(err, "failed to read ROM")
		rom.PrintInfos(os.Stdout)
	case versionMode:
		printVersion()
	}
}

func printVersion() {
	version := "(devel)"
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		version = info.Main.Version
	}
	fmt.Println("castor", version)
}
