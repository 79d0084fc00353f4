package emu

import (
	"encoding/binary"
	"fmt"

	"castor/emu/log"
	"castor/hw"
)

// directBoot skips the BIOS and firmware boot sequence: it copies both
// code blobs out of the cartridge, seeds the boot-state block at the
// end of main RAM and the IO registers with the values the real boot
// leaves behind, and lets both cores take interrupts. Everything goes
// through the bus so the regular mappings and mirrors apply.
func (ds *DS) directBoot() error {
	rom := ds.Rom
	c7, c9 := ds.Arm7, ds.Arm9

	if err := checkLoadRegion("arm9", rom.Arm9RamAddr(), rom.Arm9Size(), false); err != nil {
		return err
	}
	if err := checkLoadRegion("arm7", rom.Arm7RamAddr(), rom.Arm7Size(), true); err != nil {
		return err
	}

	log.ModEmu.InfoZ("direct boot").
		String("title", rom.GameTitle()).
		Hex32("entry9", rom.Arm9EntryAddr()).
		Hex32("entry7", rom.Arm7EntryAddr()).
		End()

	// Boot-state block at 0x027FF800. Only the non-zero words need
	// writing; the status words (bad-CRC flags, secure-area disable,
	// RTC status) read zero, which fresh main RAM already is.
	chipID := rom.ChipID()
	c9.Write32(0x027FF800, chipID)
	c9.Write32(0x027FF804, chipID)
	c9.Write16(0x027FF808, rom.HeaderCRC())
	c9.Write16(0x027FF80A, rom.SecureAreaCRC())
	c9.Write16(0x027FF810, 0xFFFF) // boot handler task number
	c9.Write16(0x027FF850, 0x5835) // NDS7 BIOS CRC
	c9.Write32(0x027FF860, rom.Arm7RamAddr())
	c9.Write32(0x027FF868, 0x3FE00) // user settings flash address
	c9.Write32(0x027FF880, 7)       // last message from NDS9 to NDS7
	c9.Write32(0x027FF884, 6)       // NDS7 boot task

	// Partial copy of the block above at 0x027FFC00.
	c9.Write32(0x027FFC00, chipID)
	c9.Write32(0x027FFC04, chipID)
	c9.Write16(0x027FFC08, rom.HeaderCRC())
	c9.Write16(0x027FFC0A, rom.SecureAreaCRC())
	c9.Write16(0x027FFC10, 0x5835)
	c9.Write32(0x027FFC3C, 0x332) // frame counter at boot
	c9.Write16(0x027FFC40, 1)     // boot indicator: cartridge

	us := userSettings()
	for i, b := range us {
		c9.Write8(0x027FFC80+uint32(i), b)
	}
	for i, b := range rom.Data[:0x170] {
		c9.Write8(0x027FFE00+uint32(i), b)
	}

	// Leftover of the NDS7 firmware boot code in ARM7 WRAM.
	c7.Write32(0x0380F980, 0xFBDD37BB)

	c7.Write16(0x04000308, 0x1204) // BIOSPROT, locks on first write
	c7.Write8(0x04000300, 1)       // POSTFLG
	c9.Write8(0x04000300, 1)
	c7.Write16(0x04000504, 0x200)  // SOUNDBIAS
	c9.Write8(0x04000247, 3)       // WRAMCNT: all shared WRAM to the ARM7
	c9.Write16(0x04000304, 0x820F) // POWCNT1
	c9.SetItcm(true, 1<<25)
	c9.SetDtcm(true, 0x03000000, 0x4000)

	for i, b := range rom.Arm7Code() {
		c7.Write8(rom.Arm7RamAddr()+uint32(i), b)
	}
	for i, b := range rom.Arm9Code() {
		c9.Write8(rom.Arm9RamAddr()+uint32(i), b)
	}

	c7.Irqs.SetCpsrIRQEnabled(true)
	c9.Irqs.SetCpsrIRQEnabled(true)
	return nil
}

// checkLoadRegion rejects blobs whose destination cannot be RAM: the
// ARM9 binary goes to main RAM, the ARM7 one to main RAM or WRAM.
func checkLoadRegion(name string, addr, size uint32, allowWram bool) error {
	region := addr >> 24
	if region != 2 && !(allowWram && region == 3) || size > hw.MainRamSize {
		return fmt.Errorf("%s code: implausible load range [%08X:%08X]", name, addr, addr+size)
	}
	return nil
}

// userSettings builds the firmware user-settings mirror games read at
// 0x027FFC80: a default profile, English, touch screen calibrated so
// ADC values map 1:1 onto screen dots.
func userSettings() [0x70]byte {
	var us [0x70]byte
	us[0x00] = 5 // settings version
	us[0x02] = 7 // favorite color
	us[0x03] = 1 // birthday month
	us[0x04] = 1 // birthday day

	nick := "Castor"
	for i, r := range nick {
		binary.LittleEndian.PutUint16(us[0x06+2*i:], uint16(r))
	}
	binary.LittleEndian.PutUint16(us[0x1A:], uint16(len(nick)))

	// Touch calibration points: adc = dot<<4 at both corners.
	binary.LittleEndian.PutUint16(us[0x58:], 0x200) // adc x1
	binary.LittleEndian.PutUint16(us[0x5A:], 0x200) // adc y1
	us[0x5C] = 0x20                                 // screen x1
	us[0x5D] = 0x20                                 // screen y1
	binary.LittleEndian.PutUint16(us[0x5E:], 0xE00) // adc x2
	binary.LittleEndian.PutUint16(us[0x60:], 0xA00) // adc y2
	us[0x62] = 0xE0                                 // screen x2
	us[0x63] = 0xA0                                 // screen y2

	// Language English, backlight at maximum.
	binary.LittleEndian.PutUint16(us[0x64:], 0x0031)
	return us
}
