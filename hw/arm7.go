package hw

import (
	"bytes"
	"encoding/binary"

	"castor/hw/hwio"
	"castor/hw/snapshot"
)

// Arm7 aggregates the ARM7 side of the machine: its scheduler,
// interrupt controller, timers, DMA controller, fast-path page table
// and the bus carrying the NDS7 IO page. The shared units (video,
// IPC, cartridge slot, power, SPI bus, WRAM/VRAM banking, audio) are
// owned by the machine and wired into the exported fields before
// InitBus.
type Arm7 struct {
	Sched   *Arm7Schedule
	Irqs    *Arm7Irqs
	Timers  *Arm7Timers
	Dma     *DmaController
	Ptrs    *PageTable
	Timings *Arm7Timings
	Bus     *hwio.Table
	Watch   *Watchpoints

	Video  *Video
	Ipc    *IPC
	Slot   *DsSlot
	Power  *Power
	Spi    *Spi
	SWram  *SWram
	Vram   *Vram
	Audio  *Audio
	Tracer *Tracer

	mainRAM []byte
	bios    []byte
	wram    []byte

	// lastDmaWords backs the BIOS-region DMA quirk: a channel whose
	// source sits below 0x02000000 does not fetch, it reuses its last
	// read word. biosLatch is the CPU-side equivalent for protected
	// BIOS reads.
	lastDmaWords [4]uint32
	biosLatch    uint32

	postflg uint8

	dbg Debugger

	io    arm7IO
	dmaIO [4]arm7DmaIO
	tmIO  [4]arm7TimerIO
	sndIO [16]arm7SoundIO
}

// NewArm7 creates the ARM7 core at power-up state. mainRAM is the
// 4 MB buffer shared with the ARM9.
func NewArm7(mainRAM []byte) *Arm7 {
	c := &Arm7{
		Sched:   NewArm7Schedule(),
		Dma:     NewDmaController(),
		Ptrs:    NewPageTable(),
		Timings: NewArm7Timings(),
		Bus:     hwio.NewTable("arm7"),
		mainRAM: mainRAM,
		bios:    make([]byte, 0x4000),
		wram:    make([]byte, Arm7WramSize),
		dbg:     NopDebugger{},
	}
	c.Irqs = NewArm7Irqs(c.Sched)
	c.Timers = NewArm7Timers(c.Sched, c.Irqs)
	c.Watch = NewWatchpoints(c.Ptrs)
	return c
}

func (c *Arm7) Bios() []byte { return c.bios }
func (c *Arm7) Wram() []byte { return c.wram }

func (c *Arm7) SetDebugger(dbg Debugger) {
	if dbg == nil {
		dbg = NopDebugger{}
	}
	c.dbg = dbg
}

// InitBus maps the NDS7 IO page and the fast-path main RAM windows.
// The cross-core unit fields must be wired first. Shared WRAM and the
// ARM7-allocatable VRAM windows are installed by their own units when
// their mapping registers change.
func (c *Arm7) InitBus() {
	c.io.c = c
	hwio.MustInitRegs(&c.io)
	c.Bus.MapBank(0x04000000, &c.io, 0)

	for i := range c.dmaIO {
		c.dmaIO[i] = arm7DmaIO{c: c, idx: i}
		hwio.MustInitRegs(&c.dmaIO[i])
		c.Bus.MapBank(0x040000B0+uint32(i)*0xC, &c.dmaIO[i], 0)
	}
	for i := range c.tmIO {
		c.tmIO[i] = arm7TimerIO{c: c, idx: i}
		hwio.MustInitRegs(&c.tmIO[i])
		c.Bus.MapBank(0x04000100+uint32(i)*4, &c.tmIO[i], 0)
	}
	for i := range c.sndIO {
		c.sndIO[i] = arm7SoundIO{c: c, idx: i}
		hwio.MustInitRegs(&c.sndIO[i])
		c.Bus.MapBank(0x04000400+uint32(i)*0x10, &c.sndIO[i], 0)
	}

	// Main RAM: 4 MB mirrored through the 16 MB region. The two BIOS
	// regions stay off the fast path (ARM7 reads are gated by
	// BIOSPROT).
	c.Ptrs.Map(AccessAll, c.mainRAM, 0x02000000, 0x02FFFFFF)
}

// arm7IO is the register bank for the singleton NDS7 IO ports. All
// state lives in the units; the callbacks only route.
type arm7IO struct {
	c *Arm7

	DISPSTAT hwio.Reg16 `hwio:"offset=0x4,rcb,wcb,pcb=ReadDISPSTAT"`
	VCOUNT   hwio.Reg16 `hwio:"offset=0x6,rcb,pcb=ReadVCOUNT,readonly"`

	RCNT hwio.Reg16 `hwio:"offset=0x134,rcb,wcb,pcb=ReadRCNT"`

	IPCSYNC     hwio.Reg16 `hwio:"offset=0x180,rcb,wcb,pcb=ReadIPCSYNC"`
	IPCFIFOCNT  hwio.Reg16 `hwio:"offset=0x184,rcb,wcb,pcb=ReadIPCFIFOCNT"`
	IPCFIFOSEND hwio.Reg32 `hwio:"offset=0x188,wcb,writeonly"`

	AUXSPICNT  hwio.Reg16 `hwio:"offset=0x1A0,rcb,wcb,pcb=ReadAUXSPICNT"`
	AUXSPIDATA hwio.Reg16 `hwio:"offset=0x1A2,rcb,wcb,pcb=ReadAUXSPIDATA"`
	ROMCTRL    hwio.Reg32 `hwio:"offset=0x1A4,rcb,wcb,pcb=ReadROMCTRL"`
	ROMCMD0    hwio.Reg32 `hwio:"offset=0x1A8,wcb"`
	ROMCMD1    hwio.Reg32 `hwio:"offset=0x1AC,wcb"`

	SPICNT  hwio.Reg16 `hwio:"offset=0x1C0,rcb,wcb,pcb=ReadSPICNT"`
	SPIDATA hwio.Reg16 `hwio:"offset=0x1C2,rcb,wcb,pcb=ReadSPIDATA"`

	EXMEMSTAT hwio.Reg16 `hwio:"offset=0x204,rcb,pcb=ReadEXMEMSTAT,readonly"`
	IME       hwio.Reg32 `hwio:"offset=0x208,rcb,wcb,pcb=ReadIME"`
	IE        hwio.Reg32 `hwio:"offset=0x210,rcb,wcb,pcb=ReadIE"`
	IF        hwio.Reg32 `hwio:"offset=0x214,rcb,wcb,pcb=ReadIF"`

	VRAMSTAT hwio.Reg8 `hwio:"offset=0x240,rcb,pcb=ReadVRAMSTAT,readonly"`
	WRAMSTAT hwio.Reg8 `hwio:"offset=0x241,rcb,pcb=ReadWRAMSTAT,readonly"`

	POSTFLG  hwio.Reg8  `hwio:"offset=0x300,rcb,wcb,pcb=ReadPOSTFLG"`
	HALTCNT  hwio.Reg8  `hwio:"offset=0x301,rcb,wcb,pcb=ReadHALTCNT"`
	POWCNT2  hwio.Reg16 `hwio:"offset=0x304,rcb,wcb,pcb=ReadPOWCNT2"`
	BIOSPROT hwio.Reg16 `hwio:"offset=0x308,rcb,wcb,pcb=ReadBIOSPROT"`

	SOUNDCNT  hwio.Reg16 `hwio:"offset=0x500,rcb,wcb,pcb=ReadSOUNDCNT"`
	SOUNDBIAS hwio.Reg16 `hwio:"offset=0x504,rcb,wcb,pcb=ReadSOUNDBIAS"`

	IPCFIFORECV hwio.Reg32 `hwio:"offset=0x100000,rcb,pcb,readonly"`
	ROMDATA     hwio.Reg32 `hwio:"offset=0x100010,rcb,pcb,readonly"`
}

func (io *arm7IO) ReadDISPSTAT(uint16) uint16 {
	return io.c.Video.ReadDispStat7()
}

func (io *arm7IO) WriteDISPSTAT(_, val uint16) {
	io.c.Video.WriteDispStat7(val)
	io.DISPSTAT.Value = io.c.Video.ReadDispStat7()
}

func (io *arm7IO) ReadVCOUNT(uint16) uint16 {
	return io.c.Video.VCount()
}

func (io *arm7IO) ReadRCNT(uint16) uint16 {
	return io.c.Power.ReadRcnt()
}

func (io *arm7IO) WriteRCNT(_, val uint16) {
	io.c.Power.WriteRcnt(val)
	io.RCNT.Value = io.c.Power.ReadRcnt()
}

func (io *arm7IO) ReadIPCSYNC(uint16) uint16 {
	return io.c.Ipc.ReadSync7()
}

func (io *arm7IO) WriteIPCSYNC(_, val uint16) {
	io.c.Ipc.WriteSync7(val)
	io.IPCSYNC.Value = io.c.Ipc.ReadSync7()
}

func (io *arm7IO) ReadIPCFIFOCNT(uint16) uint16 {
	return io.c.Ipc.ReadFifoCnt7()
}

func (io *arm7IO) WriteIPCFIFOCNT(_, val uint16) {
	io.c.Ipc.WriteFifoCnt7(val)
	// Error flag masked out of the merge base: it acks on writing 1.
	io.IPCFIFOCNT.Value = io.c.Ipc.ReadFifoCnt7() &^ 0x4000
}

func (io *arm7IO) WriteIPCFIFOSEND(_, val uint32) {
	io.c.Ipc.SendFifo7(val)
}

func (io *arm7IO) ReadIPCFIFORECV(uint32) uint32 {
	return io.c.Ipc.RecvFifo7()
}

func (io *arm7IO) PeekIPCFIFORECV(uint32) uint32 {
	return io.c.Ipc.PeekRecv7()
}

func (io *arm7IO) ReadAUXSPICNT(uint16) uint16 {
	return io.c.Slot.ReadAuxSpiCnt(true)
}

func (io *arm7IO) WriteAUXSPICNT(_, val uint16) {
	io.c.Slot.WriteAuxSpiCnt(true, val)
	io.AUXSPICNT.Value = io.c.Slot.ReadAuxSpiCnt(true)
}

func (io *arm7IO) ReadAUXSPIDATA(uint16) uint16 {
	return uint16(io.c.Slot.ReadSpiData(true))
}

func (io *arm7IO) WriteAUXSPIDATA(_, val uint16) {
	io.c.Slot.WriteSpiData(true, uint8(val))
}

func (io *arm7IO) ReadROMCTRL(uint32) uint32 {
	return io.c.Slot.ReadRomCtrl(true)
}

func (io *arm7IO) WriteROMCTRL(_, val uint32) {
	io.c.Slot.WriteRomCtrl(true, val)
	io.ROMCTRL.Value = io.c.Slot.ReadRomCtrl(true)
}

func (io *arm7IO) WriteROMCMD0(_, val uint32) {
	io.c.Slot.WriteCmdWord(true, 0, val)
}

func (io *arm7IO) WriteROMCMD1(_, val uint32) {
	io.c.Slot.WriteCmdWord(true, 1, val)
}

func (io *arm7IO) ReadROMDATA(uint32) uint32 {
	return io.c.Slot.ReadData(true)
}

func (io *arm7IO) PeekROMDATA(uint32) uint32 {
	return io.c.Slot.PeekData(true)
}

func (io *arm7IO) ReadSPICNT(uint16) uint16 {
	return io.c.Spi.ReadCnt()
}

func (io *arm7IO) WriteSPICNT(_, val uint16) {
	io.c.Spi.WriteCnt(val)
	io.SPICNT.Value = io.c.Spi.ReadCnt()
}

func (io *arm7IO) ReadSPIDATA(uint16) uint16 {
	return uint16(io.c.Spi.ReadData())
}

func (io *arm7IO) WriteSPIDATA(_, val uint16) {
	io.c.Spi.WriteData(uint8(val))
}

func (io *arm7IO) ReadEXMEMSTAT(uint16) uint16 {
	return io.c.Power.ReadExmem()
}

func (io *arm7IO) ReadIME(uint32) uint32 {
	if io.c.Irqs.MasterEnable() {
		return 1
	}
	return 0
}

func (io *arm7IO) WriteIME(_, val uint32) {
	io.c.Irqs.SetMasterEnable(val&1 != 0)
	io.IME.Value = val & 1
}

func (io *arm7IO) ReadIE(uint32) uint32 {
	return io.c.Irqs.IE()
}

func (io *arm7IO) WriteIE(_, val uint32) {
	io.c.Irqs.WriteIE(val)
	io.IE.Value = io.c.Irqs.IE()
}

func (io *arm7IO) ReadIF(uint32) uint32 {
	return io.c.Irqs.IRF()
}

func (io *arm7IO) WriteIF(_, val uint32) {
	io.c.Irqs.WriteIRF(val)
	// Keep the raw value empty: narrow writes merge against it, and a
	// half store to one half of an ack register must not re-ack bits
	// pending in the other.
	io.IF.Value = 0
}

func (io *arm7IO) ReadVRAMSTAT(uint8) uint8 {
	return io.c.Vram.Stat()
}

func (io *arm7IO) ReadWRAMSTAT(uint8) uint8 {
	return io.c.SWram.Control()
}

func (io *arm7IO) ReadPOSTFLG(uint8) uint8 {
	return io.c.postflg
}

func (io *arm7IO) WritePOSTFLG(_, val uint8) {
	// Bit 0 is sticky: once the boot code flags itself done it stays
	// done.
	io.c.postflg |= val & 1
	io.POSTFLG.Value = io.c.postflg
}

func (io *arm7IO) ReadHALTCNT(uint8) uint8 {
	return io.c.Power.ReadHaltCnt()
}

func (io *arm7IO) WriteHALTCNT(_, val uint8) {
	io.c.Power.WriteHaltCnt(val)
	io.HALTCNT.Value = io.c.Power.ReadHaltCnt()
}

func (io *arm7IO) ReadPOWCNT2(uint16) uint16 {
	return io.c.Power.ReadPowCnt2()
}

func (io *arm7IO) WritePOWCNT2(_, val uint16) {
	io.c.Power.WritePowCnt2(val)
	io.POWCNT2.Value = io.c.Power.ReadPowCnt2()
}

func (io *arm7IO) ReadBIOSPROT(uint16) uint16 {
	return io.c.Power.BiosProt()
}

func (io *arm7IO) WriteBIOSPROT(_, val uint16) {
	io.c.Power.WriteBiosProt(val)
	io.BIOSPROT.Value = io.c.Power.BiosProt()
}

func (io *arm7IO) ReadSOUNDCNT(uint16) uint16 {
	return io.c.Audio.ReadSoundCnt()
}

func (io *arm7IO) WriteSOUNDCNT(_, val uint16) {
	io.c.Audio.WriteSoundCnt(val)
	io.SOUNDCNT.Value = io.c.Audio.ReadSoundCnt()
}

func (io *arm7IO) ReadSOUNDBIAS(uint16) uint16 {
	return io.c.Audio.ReadBias()
}

func (io *arm7IO) WriteSOUNDBIAS(_, val uint16) {
	io.c.Audio.WriteBias(val)
	io.SOUNDBIAS.Value = io.c.Audio.ReadBias()
}

// arm7DmaIO is one DMA channel's register triple, mapped at
// 0x040000B0 + 12*idx. The addresses are write-only latches; the
// control word reads back whatever the controller holds.
type arm7DmaIO struct {
	c   *Arm7
	idx int

	SAD hwio.Reg32 `hwio:"offset=0x0,wcb,writeonly"`
	DAD hwio.Reg32 `hwio:"offset=0x4,wcb,writeonly"`
	CNT hwio.Reg32 `hwio:"offset=0x8,rcb,wcb,pcb=ReadCNT"`
}

func (io *arm7DmaIO) WriteSAD(_, val uint32) {
	io.c.WriteDmaSrc(io.idx, val)
}

func (io *arm7DmaIO) WriteDAD(_, val uint32) {
	io.c.WriteDmaDst(io.idx, val)
}

func (io *arm7DmaIO) ReadCNT(uint32) uint32 {
	return io.c.Dma.Channel(io.idx).Control()
}

func (io *arm7DmaIO) WriteCNT(_, val uint32) {
	io.c.WriteDmaControl(io.idx, val)
	io.CNT.Value = io.c.Dma.Channel(io.idx).Control()
}

// arm7TimerIO is one timer's reload+control word at 0x04000100 +
// 4*idx. The low half reads the live counter and writes the reload
// latch; a half write to the control byte replays the stored reload,
// which the timer unit treats as a plain latch update.
type arm7TimerIO struct {
	c   *Arm7
	idx int

	CNT hwio.Reg32 `hwio:"offset=0x0,rcb,wcb,pcb=ReadCNT"`
}

func (io *arm7TimerIO) ReadCNT(uint32) uint32 {
	ts := io.c.Timers
	return uint32(ts.ReadCounter(io.idx)) | uint32(ts.ReadControl(io.idx))<<16
}

func (io *arm7TimerIO) WriteCNT(_, val uint32) {
	ts := io.c.Timers
	ts.WriteReload(io.idx, uint16(val))
	ts.WriteControl(io.idx, uint8(val>>16))
	io.CNT.Value = uint32(ts.Reload(io.idx)) | uint32(ts.ReadControl(io.idx))<<16
}

// arm7SoundIO is one audio channel's register block at 0x04000400 +
// 16*idx. Only the control word reads back; the rest are write-only
// per the hardware map.
type arm7SoundIO struct {
	c   *Arm7
	idx int

	CNT hwio.Reg32 `hwio:"offset=0x0,rcb,wcb,pcb=ReadCNT"`
	SAD hwio.Reg32 `hwio:"offset=0x4,wcb,writeonly"`
	TMR hwio.Reg16 `hwio:"offset=0x8,wcb,writeonly"`
	PNT hwio.Reg16 `hwio:"offset=0xA,wcb,writeonly"`
	LEN hwio.Reg32 `hwio:"offset=0xC,wcb,writeonly"`
}

func (io *arm7SoundIO) ReadCNT(uint32) uint32 {
	return io.c.Audio.ReadChannelControl(io.idx)
}

func (io *arm7SoundIO) WriteCNT(_, val uint32) {
	io.c.Audio.WriteChannelControl(io.idx, val)
	io.CNT.Value = io.c.Audio.ReadChannelControl(io.idx)
}

func (io *arm7SoundIO) WriteSAD(_, val uint32) {
	io.c.Audio.WriteChannelSrc(io.idx, val)
}

func (io *arm7SoundIO) WriteTMR(_, val uint16) {
	io.c.Audio.WriteChannelTimer(io.idx, val)
}

func (io *arm7SoundIO) WritePNT(_, val uint16) {
	io.c.Audio.WriteChannelLoopStart(io.idx, val)
}

func (io *arm7SoundIO) WriteLEN(_, val uint32) {
	io.c.Audio.WriteChannelLength(io.idx, val)
}

// State captures everything the NDS7 side owns: schedule, interrupt,
// timer and DMA blocks, private WRAM and the BIOS read latches. The
// shared units reachable from the core are saved by the machine.
func (c *Arm7) State() *snapshot.Arm7 {
	st := &snapshot.Arm7{
		Sched:        c.Sched.State(),
		Wram:         bytes.Clone(c.wram),
		LastDmaWords: c.lastDmaWords,
		BiosLatch:    c.biosLatch,
		Postflg:      c.postflg,
	}
	c.Irqs.saveState(&st.Irqs)
	c.Timers.saveState(&st.Timers)
	c.Dma.saveState(&st.Dma)
	return st
}

// SetState restores the core. DMA control words re-decode under the
// NDS7 channel masks; the shared units must already hold their
// restored state because the register merge bases re-read them last.
func (c *Arm7) SetState(st *snapshot.Arm7) {
	c.Sched.SetState(st.Sched)
	c.Irqs.setState(&st.Irqs)
	c.Timers.setState(&st.Timers)
	c.Dma.setState(&st.Dma, func(i int, control uint32) {
		c.Dma.Channel(i).decode(control, dma7CountMask[i], dma7Timing(i, control))
	})
	copy(c.wram, st.Wram)
	c.lastDmaWords = st.LastDmaWords
	c.biosLatch = st.BiosLatch
	c.postflg = st.Postflg & 1
	c.refreshRegValues()
}

// refreshRegValues rebuilds the raw register words that narrow stores
// merge against, the same way each write callback leaves them: IF
// stays empty so half stores cannot re-ack the other half, and the
// FIFO control drops its write-1-to-ack error bit.
func (c *Arm7) refreshRegValues() {
	io := &c.io
	io.DISPSTAT.Value = c.Video.ReadDispStat7()
	io.RCNT.Value = c.Power.ReadRcnt()
	io.IPCSYNC.Value = c.Ipc.ReadSync7()
	io.IPCFIFOCNT.Value = c.Ipc.ReadFifoCnt7() &^ 0x4000
	io.AUXSPICNT.Value = c.Slot.ReadAuxSpiCnt(true)
	io.AUXSPIDATA.Value = uint16(c.Slot.ReadSpiData(true))
	io.ROMCTRL.Value = c.Slot.ReadRomCtrl(true)
	io.ROMCMD0.Value = binary.LittleEndian.Uint32(c.Slot.cmd[0:4])
	io.ROMCMD1.Value = binary.LittleEndian.Uint32(c.Slot.cmd[4:8])
	io.SPICNT.Value = c.Spi.ReadCnt()
	io.SPIDATA.Value = uint16(c.Spi.ReadData())
	io.IME.Value = 0
	if c.Irqs.MasterEnable() {
		io.IME.Value = 1
	}
	io.IE.Value = c.Irqs.IE()
	io.IF.Value = 0
	io.POSTFLG.Value = c.postflg
	io.HALTCNT.Value = c.Power.ReadHaltCnt()
	io.POWCNT2.Value = c.Power.ReadPowCnt2()
	io.BIOSPROT.Value = c.Power.BiosProt()
	io.SOUNDCNT.Value = c.Audio.ReadSoundCnt()
	io.SOUNDBIAS.Value = c.Audio.ReadBias()

	for i := range c.dmaIO {
		ch := c.Dma.Channel(i)
		c.dmaIO[i].SAD.Value = ch.SrcAddr()
		c.dmaIO[i].DAD.Value = ch.DstAddr()
		c.dmaIO[i].CNT.Value = ch.Control()
	}
	for i := range c.tmIO {
		c.tmIO[i].CNT.Value = uint32(c.Timers.Reload(i)) | uint32(c.Timers.ReadControl(i))<<16
	}
	for i := range c.sndIO {
		ch := c.Audio.Channel(i)
		c.sndIO[i].CNT.Value = ch.control
		c.sndIO[i].SAD.Value = ch.src
		c.sndIO[i].TMR.Value = ch.timer
		c.sndIO[i].PNT.Value = ch.loopPos
		c.sndIO[i].LEN.Value = ch.length
	}
}
