// Package nds reads roms in the NDS cartridge file format.
package nds

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math/bits"
	"os"
)

// The cartridge header occupies the first 0x170 bytes of the image.
const headerSize = 0x170

type Rom struct {
	header
	Data []byte // Data is the whole image, header included.
}

// Open loads a rom from file.
func Open(path string) (*Rom, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rom := new(Rom)
	if _, err := rom.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("%s: %v", path, err)
	}
	return rom, nil
}

// ReadFrom implements the io.ReaderFrom interface.
func (rom *Rom) ReadFrom(r io.Reader) (int64, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	if err := rom.decode(buf); err != nil {
		return 0, err
	}
	return int64(len(buf)), nil
}

func (rom *Rom) decode(buf []byte) error {
	if len(buf) < headerSize {
		return fmt.Errorf("file too small for a rom header (%d bytes)", len(buf))
	}
	copy(rom.raw[:], buf[:headerSize])
	rom.Data = buf

	if err := checkSection(buf, rom.Arm9RomOffset(), rom.Arm9Size()); err != nil {
		return fmt.Errorf("arm9 code section %v", err)
	}
	if err := checkSection(buf, rom.Arm7RomOffset(), rom.Arm7Size()); err != nil {
		return fmt.Errorf("arm7 code section %v", err)
	}
	return nil
}

func checkSection(buf []byte, off, size uint32) error {
	if end := uint64(off) + uint64(size); end > uint64(len(buf)) {
		return fmt.Errorf("[%#x:%#x) exceeds the %d-byte image", off, end, len(buf))
	}
	return nil
}

// Arm9Code returns the ARM9 boot blob.
func (rom *Rom) Arm9Code() []byte {
	return rom.Data[rom.Arm9RomOffset() : rom.Arm9RomOffset()+rom.Arm9Size()]
}

// Arm7Code returns the ARM7 boot blob.
func (rom *Rom) Arm7Code() []byte {
	return rom.Data[rom.Arm7RomOffset() : rom.Arm7RomOffset()+rom.Arm7Size()]
}

// ChipID derives the id the cartridge chip reports: the manufacturer
// byte, then a size byte covering the smallest power of two the image
// fits in (1 MB units below 256 MB, inverted 256 MB units above).
func (rom *Rom) ChipID() uint32 {
	size := uint64(len(rom.Data))
	if size > 1 {
		size = 1 << bits.Len64(size-1)
	}
	var sizeByte uint32
	switch {
	case size < 1<<20:
		sizeByte = 0
	case size < 1<<28:
		sizeByte = uint32(size>>20) - 1
	default:
		sizeByte = 0x100 - uint32(size>>28)
	}
	return 0xC2 | sizeByte<<8
}

type header struct {
	raw [headerSize]byte
}

func (hdr *header) u16(off int) uint16 { return binary.LittleEndian.Uint16(hdr.raw[off:]) }
func (hdr *header) u32(off int) uint32 { return binary.LittleEndian.Uint32(hdr.raw[off:]) }

// GameTitle returns the title field, trimmed at the first NUL.
func (hdr *header) GameTitle() string {
	title := hdr.raw[0:12]
	if i := bytes.IndexByte(title, 0); i >= 0 {
		title = title[:i]
	}
	return string(title)
}

func (hdr *header) GameCode() string  { return string(hdr.raw[0xC:0x10]) }
func (hdr *header) MakerCode() string { return string(hdr.raw[0x10:0x12]) }

// UnitCode tells which consoles the rom targets: 0 DS, 2 DS+DSi,
// 3 DSi only.
func (hdr *header) UnitCode() uint8 { return hdr.raw[0x12] }

// Capacity returns the cartridge chip capacity in bytes.
func (hdr *header) Capacity() int64 { return 1 << (17 + int64(hdr.raw[0x14])) }

func (hdr *header) Region() uint8  { return hdr.raw[0x1D] }
func (hdr *header) Version() uint8 { return hdr.raw[0x1E] }

// AutoStart reports whether the firmware menu would skip the "press
// button" screen for this cartridge.
func (hdr *header) AutoStart() bool { return hdr.raw[0x1F]&(1<<2) != 0 }

func (hdr *header) Arm9RomOffset() uint32 { return hdr.u32(0x20) }
func (hdr *header) Arm9EntryAddr() uint32 { return hdr.u32(0x24) }
func (hdr *header) Arm9RamAddr() uint32   { return hdr.u32(0x28) }
func (hdr *header) Arm9Size() uint32      { return hdr.u32(0x2C) }

func (hdr *header) Arm7RomOffset() uint32 { return hdr.u32(0x30) }
func (hdr *header) Arm7EntryAddr() uint32 { return hdr.u32(0x34) }
func (hdr *header) Arm7RamAddr() uint32   { return hdr.u32(0x38) }
func (hdr *header) Arm7Size() uint32      { return hdr.u32(0x3C) }

func (hdr *header) IconTitleOffset() uint32 { return hdr.u32(0x68) }
func (hdr *header) SecureAreaCRC() uint16   { return hdr.u16(0x6C) }
func (hdr *header) UsedRomSize() uint32     { return hdr.u32(0x80) }
func (hdr *header) HeaderCRC() uint16       { return hdr.u16(0x15E) }

func (hdr *header) unitName() string {
	switch hdr.UnitCode() {
	case 0:
		return "DS"
	case 2:
		return "DS+DSi"
	case 3:
		return "DSi"
	}
	return fmt.Sprintf("unknown (%d)", hdr.UnitCode())
}

func (hdr *header) regionName() string {
	switch hdr.Region() {
	case 0:
		return "normal"
	case 0x40:
		return "Korea"
	case 0x80:
		return "China"
	}
	return fmt.Sprintf("unknown (%#x)", hdr.Region())
}

// PrintInfos writes a human-readable header summary.
func (rom *Rom) PrintInfos(w io.Writer) {
	fmt.Fprintf(w, "title:        %s\n", rom.GameTitle())
	fmt.Fprintf(w, "game code:    %s\n", rom.GameCode())
	fmt.Fprintf(w, "maker code:   %s\n", rom.MakerCode())
	fmt.Fprintf(w, "unit:         %s\n", rom.unitName())
	fmt.Fprintf(w, "region:       %s\n", rom.regionName())
	fmt.Fprintf(w, "version:      %d\n", rom.Version())
	fmt.Fprintf(w, "capacity:     %d MB (%d MB used)\n",
		rom.Capacity()>>20, (int64(rom.UsedRomSize())+(1<<20)-1)>>20)
	fmt.Fprintf(w, "chip id:      %08X\n", rom.ChipID())
	fmt.Fprintf(w, "header crc:   %04X\n", rom.HeaderCRC())
	fmt.Fprintf(w, "auto start:   %t\n", rom.AutoStart())
	fmt.Fprintf(w, "arm9:         rom %#x..%#x -> ram %08X, entry %08X\n",
		rom.Arm9RomOffset(), rom.Arm9RomOffset()+rom.Arm9Size(), rom.Arm9RamAddr(), rom.Arm9EntryAddr())
	fmt.Fprintf(w, "arm7:         rom %#x..%#x -> ram %08X, entry %08X\n",
		rom.Arm7RomOffset(), rom.Arm7RomOffset()+rom.Arm7Size(), rom.Arm7RamAddr(), rom.Arm7EntryAddr())
}
