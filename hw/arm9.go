package hw

import (
	"bytes"
	"encoding/binary"

	"castor/emu/log"
	"castor/hw/hwio"
	"castor/hw/snapshot"
)

// Arm9 aggregates the ARM9 side: scheduler (double-rate timestamps),
// interrupt controller, timers, DMA controller, page table, the
// tightly-coupled memories and the NDS9 IO page.
type Arm9 struct {
	Sched   *Arm9Schedule
	Irqs    *Arm9Irqs
	Timers  *Arm9Timers
	Dma     *DmaController
	Ptrs    *PageTable
	Timings *Arm9Timings
	Bus     *hwio.Table
	Watch   *Watchpoints

	Video *Video
	Ipc   *IPC
	Slot  *DsSlot
	Power *Power
	SWram *SWram
	Vram  *Vram
	Div   *Divider
	Sqrt  *SqrtEngine

	Tracer *Tracer

	mainRAM []byte
	bios    []byte
	itcm    []byte
	dtcm    []byte

	// TCM windows are a range compare ahead of regular mapping:
	// addr&mask == value hits. A disabled TCM uses the unsatisfiable
	// pair (0, 1).
	itcmOn              bool
	itcmSize            uint32
	itcmMask, itcmValue uint32
	dtcmOn              bool
	dtcmBase, dtcmSize  uint32
	dtcmMask, dtcmValue uint32

	postflg uint8

	dbg Debugger

	io    arm9IO
	dmaIO [4]arm9DmaIO
	tmIO  [4]arm9TimerIO
}

// NewArm9 creates the ARM9 core at power-up state, TCMs unmapped.
// mainRAM is the 4 MB buffer shared with the ARM7.
func NewArm9(mainRAM []byte) *Arm9 {
	c := &Arm9{
		Sched:   NewArm9Schedule(),
		Dma:     NewDmaController(),
		Ptrs:    NewPageTable(),
		Timings: NewArm9Timings(),
		Bus:     hwio.NewTable("arm9"),
		mainRAM: mainRAM,
		bios:    make([]byte, 0x1000),
		itcm:    make([]byte, 0x8000),
		dtcm:    make([]byte, 0x4000),
		dbg:     NopDebugger{},
	}
	c.Irqs = NewArm9Irqs(c.Sched)
	c.Timers = NewArm9Timers(c.Sched, c.Irqs)
	c.Watch = NewWatchpoints(c.Ptrs)
	c.SetItcm(false, 0)
	c.SetDtcm(false, 0, 0)
	return c
}

func (c *Arm9) Bios() []byte { return c.bios }
func (c *Arm9) Itcm() []byte { return c.itcm }
func (c *Arm9) Dtcm() []byte { return c.dtcm }

func (c *Arm9) SetDebugger(dbg Debugger) {
	if dbg == nil {
		dbg = NopDebugger{}
	}
	c.dbg = dbg
}

// SetItcm moves the instruction TCM window. ITCM always starts at
// address 0; size is the power-of-two span of the region the 32 KB
// memory mirrors through.
func (c *Arm9) SetItcm(on bool, size uint32) {
	c.itcmOn, c.itcmSize = on, size
	c.itcmMask, c.itcmValue = 0, 1
	if on {
		c.itcmMask, c.itcmValue = ^(size - 1), 0
	}
	log.ModBus.DebugZ("itcm window").Bool("on", on).Hex32("size", size).End()
}

// SetDtcm moves the data TCM window (power-of-two size, base aligned
// to it).
func (c *Arm9) SetDtcm(on bool, base, size uint32) {
	c.dtcmOn, c.dtcmBase, c.dtcmSize = on, base, size
	c.dtcmMask, c.dtcmValue = 0, 1
	if on {
		c.dtcmMask = ^(size - 1)
		c.dtcmValue = base & c.dtcmMask
	}
	log.ModBus.DebugZ("dtcm window").
		Bool("on", on).
		Hex32("base", base).
		Hex32("size", size).
		End()
}

// ItcmState and DtcmState report the window configuration, for
// serialization.
func (c *Arm9) ItcmState() (on bool, size uint32) {
	return c.itcmOn, c.itcmSize
}

func (c *Arm9) DtcmState() (on bool, base, size uint32) {
	return c.dtcmOn, c.dtcmBase, c.dtcmSize
}

// InitBus maps the NDS9 IO page and the fast-path main RAM windows.
// Cross-core unit fields must be wired first.
func (c *Arm9) InitBus() {
	c.io.c = c
	hwio.MustInitRegs(&c.io)
	c.Bus.MapBank(0x04000000, &c.io, 0)

	for i := range c.dmaIO {
		c.dmaIO[i] = arm9DmaIO{c: c, idx: i}
		hwio.MustInitRegs(&c.dmaIO[i])
		c.Bus.MapBank(0x040000B0+uint32(i)*0xC, &c.dmaIO[i], 0)
	}
	for i := range c.tmIO {
		c.tmIO[i] = arm9TimerIO{c: c, idx: i}
		hwio.MustInitRegs(&c.tmIO[i])
		c.Bus.MapBank(0x04000100+uint32(i)*4, &c.tmIO[i], 0)
	}

	c.Ptrs.Map(AccessAll, c.mainRAM, 0x02000000, 0x02FFFFFF)
}

// arm9IO is the register bank for the singleton NDS9 IO ports.
type arm9IO struct {
	c *Arm9

	DISPSTAT hwio.Reg16 `hwio:"offset=0x4,rcb,wcb,pcb=ReadDISPSTAT"`
	VCOUNT   hwio.Reg16 `hwio:"offset=0x6,rcb,pcb=ReadVCOUNT,readonly"`

	// DMA source fill words: plain backing memory, no side effects.
	FILL0 hwio.Reg32 `hwio:"offset=0xE0"`
	FILL1 hwio.Reg32 `hwio:"offset=0xE4"`
	FILL2 hwio.Reg32 `hwio:"offset=0xE8"`
	FILL3 hwio.Reg32 `hwio:"offset=0xEC"`

	IPCSYNC     hwio.Reg16 `hwio:"offset=0x180,rcb,wcb,pcb=ReadIPCSYNC"`
	IPCFIFOCNT  hwio.Reg16 `hwio:"offset=0x184,rcb,wcb,pcb=ReadIPCFIFOCNT"`
	IPCFIFOSEND hwio.Reg32 `hwio:"offset=0x188,wcb,writeonly"`

	AUXSPICNT  hwio.Reg16 `hwio:"offset=0x1A0,rcb,wcb,pcb=ReadAUXSPICNT"`
	AUXSPIDATA hwio.Reg16 `hwio:"offset=0x1A2,rcb,wcb,pcb=ReadAUXSPIDATA"`
	ROMCTRL    hwio.Reg32 `hwio:"offset=0x1A4,rcb,wcb,pcb=ReadROMCTRL"`
	ROMCMD0    hwio.Reg32 `hwio:"offset=0x1A8,wcb"`
	ROMCMD1    hwio.Reg32 `hwio:"offset=0x1AC,wcb"`

	EXMEMCNT hwio.Reg16 `hwio:"offset=0x204,rcb,wcb,pcb=ReadEXMEMCNT"`
	IME      hwio.Reg32 `hwio:"offset=0x208,rcb,wcb,pcb=ReadIME"`
	IE       hwio.Reg32 `hwio:"offset=0x210,rcb,wcb,pcb=ReadIE"`
	IF       hwio.Reg32 `hwio:"offset=0x214,rcb,wcb,pcb=ReadIF"`

	VRAMCNTA hwio.Reg8 `hwio:"offset=0x240,wcb,writeonly"`
	VRAMCNTB hwio.Reg8 `hwio:"offset=0x241,wcb,writeonly"`
	VRAMCNTC hwio.Reg8 `hwio:"offset=0x242,wcb,writeonly"`
	VRAMCNTD hwio.Reg8 `hwio:"offset=0x243,wcb,writeonly"`
	VRAMCNTE hwio.Reg8 `hwio:"offset=0x244,wcb,writeonly"`
	VRAMCNTF hwio.Reg8 `hwio:"offset=0x245,wcb,writeonly"`
	VRAMCNTG hwio.Reg8 `hwio:"offset=0x246,wcb,writeonly"`
	WRAMCNT  hwio.Reg8 `hwio:"offset=0x247,rcb,wcb,pcb=ReadWRAMCNT"`
	VRAMCNTH hwio.Reg8 `hwio:"offset=0x248,wcb,writeonly"`
	VRAMCNTI hwio.Reg8 `hwio:"offset=0x249,wcb,writeonly"`

	DIVCNT     hwio.Reg16 `hwio:"offset=0x280,rcb,wcb,pcb=ReadDIVCNT"`
	DIVNUMERLO hwio.Reg32 `hwio:"offset=0x290,rcb,wcb,pcb=ReadDIVNUMERLO"`
	DIVNUMERHI hwio.Reg32 `hwio:"offset=0x294,rcb,wcb,pcb=ReadDIVNUMERHI"`
	DIVDENOMLO hwio.Reg32 `hwio:"offset=0x298,rcb,wcb,pcb=ReadDIVDENOMLO"`
	DIVDENOMHI hwio.Reg32 `hwio:"offset=0x29C,rcb,wcb,pcb=ReadDIVDENOMHI"`
	DIVRESLO   hwio.Reg32 `hwio:"offset=0x2A0,rcb,pcb=ReadDIVRESLO,readonly"`
	DIVRESHI   hwio.Reg32 `hwio:"offset=0x2A4,rcb,pcb=ReadDIVRESHI,readonly"`
	DIVREMLO   hwio.Reg32 `hwio:"offset=0x2A8,rcb,pcb=ReadDIVREMLO,readonly"`
	DIVREMHI   hwio.Reg32 `hwio:"offset=0x2AC,rcb,pcb=ReadDIVREMHI,readonly"`

	SQRTCNT    hwio.Reg16 `hwio:"offset=0x2B0,rcb,wcb,pcb=ReadSQRTCNT"`
	SQRTRES    hwio.Reg32 `hwio:"offset=0x2B4,rcb,pcb=ReadSQRTRES,readonly"`
	SQRTPARAML hwio.Reg32 `hwio:"offset=0x2B8,rcb,wcb,pcb=ReadSQRTPARAML"`
	SQRTPARAMH hwio.Reg32 `hwio:"offset=0x2BC,rcb,wcb,pcb=ReadSQRTPARAMH"`

	POSTFLG hwio.Reg8  `hwio:"offset=0x300,rcb,wcb,pcb=ReadPOSTFLG"`
	POWCNT1 hwio.Reg16 `hwio:"offset=0x304,rcb,wcb,pcb=ReadPOWCNT1"`

	IPCFIFORECV hwio.Reg32 `hwio:"offset=0x100000,rcb,pcb,readonly"`
	ROMDATA     hwio.Reg32 `hwio:"offset=0x100010,rcb,pcb,readonly"`
}

func (io *arm9IO) ReadDISPSTAT(uint16) uint16 {
	return io.c.Video.ReadDispStat9()
}

func (io *arm9IO) WriteDISPSTAT(_, val uint16) {
	io.c.Video.WriteDispStat9(val)
	io.DISPSTAT.Value = io.c.Video.ReadDispStat9()
}

func (io *arm9IO) ReadVCOUNT(uint16) uint16 {
	return io.c.Video.VCount()
}

func (io *arm9IO) ReadIPCSYNC(uint16) uint16 {
	return io.c.Ipc.ReadSync9()
}

func (io *arm9IO) WriteIPCSYNC(_, val uint16) {
	io.c.Ipc.WriteSync9(val)
	io.IPCSYNC.Value = io.c.Ipc.ReadSync9()
}

func (io *arm9IO) ReadIPCFIFOCNT(uint16) uint16 {
	return io.c.Ipc.ReadFifoCnt9()
}

func (io *arm9IO) WriteIPCFIFOCNT(_, val uint16) {
	io.c.Ipc.WriteFifoCnt9(val)
	// Error flag masked out of the merge base: it acks on writing 1.
	io.IPCFIFOCNT.Value = io.c.Ipc.ReadFifoCnt9() &^ 0x4000
}

func (io *arm9IO) WriteIPCFIFOSEND(_, val uint32) {
	io.c.Ipc.SendFifo9(val)
}

func (io *arm9IO) ReadIPCFIFORECV(uint32) uint32 {
	return io.c.Ipc.RecvFifo9()
}

func (io *arm9IO) PeekIPCFIFORECV(uint32) uint32 {
	return io.c.Ipc.PeekRecv9()
}

func (io *arm9IO) ReadAUXSPICNT(uint16) uint16 {
	return io.c.Slot.ReadAuxSpiCnt(false)
}

func (io *arm9IO) WriteAUXSPICNT(_, val uint16) {
	io.c.Slot.WriteAuxSpiCnt(false, val)
	io.AUXSPICNT.Value = io.c.Slot.ReadAuxSpiCnt(false)
}

func (io *arm9IO) ReadAUXSPIDATA(uint16) uint16 {
	return uint16(io.c.Slot.ReadSpiData(false))
}

func (io *arm9IO) WriteAUXSPIDATA(_, val uint16) {
	io.c.Slot.WriteSpiData(false, uint8(val))
}

func (io *arm9IO) ReadROMCTRL(uint32) uint32 {
	return io.c.Slot.ReadRomCtrl(false)
}

func (io *arm9IO) WriteROMCTRL(_, val uint32) {
	io.c.Slot.WriteRomCtrl(false, val)
	io.ROMCTRL.Value = io.c.Slot.ReadRomCtrl(false)
}

func (io *arm9IO) WriteROMCMD0(_, val uint32) {
	io.c.Slot.WriteCmdWord(false, 0, val)
}

func (io *arm9IO) WriteROMCMD1(_, val uint32) {
	io.c.Slot.WriteCmdWord(false, 1, val)
}

func (io *arm9IO) ReadROMDATA(uint32) uint32 {
	return io.c.Slot.ReadData(false)
}

func (io *arm9IO) PeekROMDATA(uint32) uint32 {
	return io.c.Slot.PeekData(false)
}

func (io *arm9IO) ReadEXMEMCNT(uint16) uint16 {
	return io.c.Power.ReadExmem()
}

func (io *arm9IO) WriteEXMEMCNT(_, val uint16) {
	io.c.Power.WriteExmem(val)
	io.EXMEMCNT.Value = io.c.Power.ReadExmem()
}

func (io *arm9IO) ReadIME(uint32) uint32 {
	if io.c.Irqs.MasterEnable() {
		return 1
	}
	return 0
}

func (io *arm9IO) WriteIME(_, val uint32) {
	io.c.Irqs.SetMasterEnable(val&1 != 0)
	io.IME.Value = val & 1
}

func (io *arm9IO) ReadIE(uint32) uint32 {
	return io.c.Irqs.IE()
}

func (io *arm9IO) WriteIE(_, val uint32) {
	io.c.Irqs.WriteIE(val)
	io.IE.Value = io.c.Irqs.IE()
}

func (io *arm9IO) ReadIF(uint32) uint32 {
	return io.c.Irqs.IRF()
}

func (io *arm9IO) WriteIF(_, val uint32) {
	io.c.Irqs.WriteIRF(val)
	// Keep the raw value empty: narrow writes merge against it, and a
	// half store to one half of an ack register must not re-ack bits
	// pending in the other.
	io.IF.Value = 0
}

func (io *arm9IO) WriteVRAMCNTA(_, val uint8) {
	io.c.Vram.WriteBankControl(0, val)
}

func (io *arm9IO) WriteVRAMCNTB(_, val uint8) {
	io.c.Vram.WriteBankControl(1, val)
}

func (io *arm9IO) WriteVRAMCNTC(_, val uint8) {
	io.c.Vram.WriteBankControl(2, val)
}

func (io *arm9IO) WriteVRAMCNTD(_, val uint8) {
	io.c.Vram.WriteBankControl(3, val)
}

func (io *arm9IO) WriteVRAMCNTE(_, val uint8) {
	io.c.Vram.WriteBankControl(4, val)
}

func (io *arm9IO) WriteVRAMCNTF(_, val uint8) {
	io.c.Vram.WriteBankControl(5, val)
}

func (io *arm9IO) WriteVRAMCNTG(_, val uint8) {
	io.c.Vram.WriteBankControl(6, val)
}

func (io *arm9IO) WriteVRAMCNTH(_, val uint8) {
	io.c.Vram.WriteBankControl(7, val)
}

func (io *arm9IO) WriteVRAMCNTI(_, val uint8) {
	io.c.Vram.WriteBankControl(8, val)
}

func (io *arm9IO) ReadWRAMCNT(uint8) uint8 {
	return io.c.SWram.Control()
}

func (io *arm9IO) WriteWRAMCNT(_, val uint8) {
	io.c.SWram.WriteControl(val)
	io.WRAMCNT.Value = io.c.SWram.Control()
}

func (io *arm9IO) ReadDIVCNT(uint16) uint16 {
	return io.c.Div.ReadControl()
}

func (io *arm9IO) WriteDIVCNT(_, val uint16) {
	io.c.Div.WriteControl(val)
	io.DIVCNT.Value = io.c.Div.ReadControl()
}

func (io *arm9IO) ReadDIVNUMERLO(uint32) uint32 {
	return uint32(io.c.Div.Numer())
}

func (io *arm9IO) WriteDIVNUMERLO(_, val uint32) {
	io.c.Div.SetNumerLo(val)
	io.DIVNUMERLO.Value = val
}

func (io *arm9IO) ReadDIVNUMERHI(uint32) uint32 {
	return uint32(io.c.Div.Numer() >> 32)
}

func (io *arm9IO) WriteDIVNUMERHI(_, val uint32) {
	io.c.Div.SetNumerHi(val)
	io.DIVNUMERHI.Value = val
}

func (io *arm9IO) ReadDIVDENOMLO(uint32) uint32 {
	return uint32(io.c.Div.Denom())
}

func (io *arm9IO) WriteDIVDENOMLO(_, val uint32) {
	io.c.Div.SetDenomLo(val)
	io.DIVDENOMLO.Value = val
}

func (io *arm9IO) ReadDIVDENOMHI(uint32) uint32 {
	return uint32(io.c.Div.Denom() >> 32)
}

func (io *arm9IO) WriteDIVDENOMHI(_, val uint32) {
	io.c.Div.SetDenomHi(val)
	io.DIVDENOMHI.Value = val
}

func (io *arm9IO) ReadDIVRESLO(uint32) uint32 {
	return uint32(io.c.Div.Quotient())
}

func (io *arm9IO) ReadDIVRESHI(uint32) uint32 {
	return uint32(io.c.Div.Quotient() >> 32)
}

func (io *arm9IO) ReadDIVREMLO(uint32) uint32 {
	return uint32(io.c.Div.Remainder())
}

func (io *arm9IO) ReadDIVREMHI(uint32) uint32 {
	return uint32(io.c.Div.Remainder() >> 32)
}

func (io *arm9IO) ReadSQRTCNT(uint16) uint16 {
	return io.c.Sqrt.ReadControl()
}

func (io *arm9IO) WriteSQRTCNT(_, val uint16) {
	io.c.Sqrt.WriteControl(val)
	io.SQRTCNT.Value = io.c.Sqrt.ReadControl()
}

func (io *arm9IO) ReadSQRTRES(uint32) uint32 {
	return io.c.Sqrt.Result()
}

func (io *arm9IO) ReadSQRTPARAML(uint32) uint32 {
	return uint32(io.c.Sqrt.Input())
}

func (io *arm9IO) WriteSQRTPARAML(_, val uint32) {
	io.c.Sqrt.SetInputLo(val)
	io.SQRTPARAML.Value = val
}

func (io *arm9IO) ReadSQRTPARAMH(uint32) uint32 {
	return uint32(io.c.Sqrt.Input() >> 32)
}

func (io *arm9IO) WriteSQRTPARAMH(_, val uint32) {
	io.c.Sqrt.SetInputHi(val)
	io.SQRTPARAMH.Value = val
}

func (io *arm9IO) ReadPOSTFLG(uint8) uint8 {
	return io.c.postflg
}

func (io *arm9IO) WritePOSTFLG(_, val uint8) {
	// Bit 0 sticky, bit 1 free.
	io.c.postflg = io.c.postflg&1 | val&3
	io.POSTFLG.Value = io.c.postflg
}

func (io *arm9IO) ReadPOWCNT1(uint16) uint16 {
	return io.c.Power.ReadPowCnt1()
}

func (io *arm9IO) WritePOWCNT1(_, val uint16) {
	io.c.Power.WritePowCnt1(val)
	io.POWCNT1.Value = io.c.Power.ReadPowCnt1()
}

// arm9DmaIO is one ARM9 DMA channel's register triple at 0x040000B0 +
// 12*idx.
type arm9DmaIO struct {
	c   *Arm9
	idx int

	SAD hwio.Reg32 `hwio:"offset=0x0,wcb,writeonly"`
	DAD hwio.Reg32 `hwio:"offset=0x4,wcb,writeonly"`
	CNT hwio.Reg32 `hwio:"offset=0x8,rcb,wcb,pcb=ReadCNT"`
}

func (io *arm9DmaIO) WriteSAD(_, val uint32) {
	io.c.WriteDmaSrc(io.idx, val)
}

func (io *arm9DmaIO) WriteDAD(_, val uint32) {
	io.c.WriteDmaDst(io.idx, val)
}

func (io *arm9DmaIO) ReadCNT(uint32) uint32 {
	return io.c.Dma.Channel(io.idx).Control()
}

func (io *arm9DmaIO) WriteCNT(_, val uint32) {
	io.c.WriteDmaControl(io.idx, val)
	io.CNT.Value = io.c.Dma.Channel(io.idx).Control()
}

// arm9TimerIO is one ARM9 timer's reload+control word at 0x04000100 +
// 4*idx.
type arm9TimerIO struct {
	c   *Arm9
	idx int

	CNT hwio.Reg32 `hwio:"offset=0x0,rcb,wcb,pcb=ReadCNT"`
}

func (io *arm9TimerIO) ReadCNT(uint32) uint32 {
	ts := io.c.Timers
	return uint32(ts.ReadCounter(io.idx)) | uint32(ts.ReadControl(io.idx))<<16
}

func (io *arm9TimerIO) WriteCNT(_, val uint32) {
	ts := io.c.Timers
	ts.WriteReload(io.idx, uint16(val))
	ts.WriteControl(io.idx, uint8(val>>16))
	io.CNT.Value = uint32(ts.Reload(io.idx)) | uint32(ts.ReadControl(io.idx))<<16
}

// State captures everything the NDS9 side owns: schedule, interrupt,
// timer and DMA blocks, the math engines, both TCMs with their window
// geometry and the fill registers.
func (c *Arm9) State() *snapshot.Arm9 {
	itcmOn, itcmSize := c.ItcmState()
	dtcmOn, dtcmBase, dtcmSize := c.DtcmState()
	st := &snapshot.Arm9{
		Sched:    c.Sched.State(),
		Itcm:     bytes.Clone(c.itcm),
		Dtcm:     bytes.Clone(c.dtcm),
		ItcmOn:   itcmOn,
		ItcmSize: itcmSize,
		DtcmOn:   dtcmOn,
		DtcmBase: dtcmBase,
		DtcmSize: dtcmSize,
		Fill: [4]uint32{
			c.io.FILL0.Value, c.io.FILL1.Value,
			c.io.FILL2.Value, c.io.FILL3.Value,
		},
		Postflg: c.postflg,
	}
	c.Irqs.saveState(&st.Irqs)
	c.Timers.saveState(&st.Timers)
	c.Dma.saveState(&st.Dma)
	c.Div.saveState(&st.Div)
	c.Sqrt.saveState(&st.Sqrt)
	return st
}

// SetState restores the core. TCM windows go back through the regular
// remap path so the range compares rebuild; DMA control words
// re-decode under the NDS9 channel masks. The shared units must
// already hold their restored state because the register merge bases
// re-read them last.
func (c *Arm9) SetState(st *snapshot.Arm9) {
	c.Sched.SetState(st.Sched)
	c.Irqs.setState(&st.Irqs)
	c.Timers.setState(&st.Timers)
	c.Dma.setState(&st.Dma, func(i int, control uint32) {
		c.Dma.Channel(i).decode(control, dma9CountMask, dma9Timing(control))
	})
	c.Div.setState(&st.Div)
	c.Sqrt.setState(&st.Sqrt)
	copy(c.itcm, st.Itcm)
	copy(c.dtcm, st.Dtcm)
	c.SetItcm(st.ItcmOn, st.ItcmSize)
	c.SetDtcm(st.DtcmOn, st.DtcmBase, st.DtcmSize)
	c.io.FILL0.Value = st.Fill[0]
	c.io.FILL1.Value = st.Fill[1]
	c.io.FILL2.Value = st.Fill[2]
	c.io.FILL3.Value = st.Fill[3]
	c.postflg = st.Postflg & 3
	c.refreshRegValues()
}

// refreshRegValues rebuilds the raw register words that narrow stores
// merge against, the same way each write callback leaves them.
func (c *Arm9) refreshRegValues() {
	io := &c.io
	io.DISPSTAT.Value = c.Video.ReadDispStat9()
	io.IPCSYNC.Value = c.Ipc.ReadSync9()
	io.IPCFIFOCNT.Value = c.Ipc.ReadFifoCnt9() &^ 0x4000
	io.AUXSPICNT.Value = c.Slot.ReadAuxSpiCnt(false)
	io.AUXSPIDATA.Value = uint16(c.Slot.ReadSpiData(false))
	io.ROMCTRL.Value = c.Slot.ReadRomCtrl(false)
	io.ROMCMD0.Value = binary.LittleEndian.Uint32(c.Slot.cmd[0:4])
	io.ROMCMD1.Value = binary.LittleEndian.Uint32(c.Slot.cmd[4:8])
	io.EXMEMCNT.Value = c.Power.ReadExmem()
	io.IME.Value = 0
	if c.Irqs.MasterEnable() {
		io.IME.Value = 1
	}
	io.IE.Value = c.Irqs.IE()
	io.IF.Value = 0
	io.WRAMCNT.Value = c.SWram.Control()
	io.DIVCNT.Value = c.Div.ReadControl()
	io.DIVNUMERLO.Value = uint32(c.Div.Numer())
	io.DIVNUMERHI.Value = uint32(c.Div.Numer() >> 32)
	io.DIVDENOMLO.Value = uint32(c.Div.Denom())
	io.DIVDENOMHI.Value = uint32(c.Div.Denom() >> 32)
	io.SQRTCNT.Value = c.Sqrt.ReadControl()
	io.SQRTPARAML.Value = uint32(c.Sqrt.Input())
	io.SQRTPARAMH.Value = uint32(c.Sqrt.Input() >> 32)
	io.POSTFLG.Value = c.postflg
	io.POWCNT1.Value = c.Power.ReadPowCnt1()

	for i := range c.dmaIO {
		ch := c.Dma.Channel(i)
		c.dmaIO[i].SAD.Value = ch.SrcAddr()
		c.dmaIO[i].DAD.Value = ch.DstAddr()
		c.dmaIO[i].CNT.Value = ch.Control()
	}
	for i := range c.tmIO {
		c.tmIO[i].CNT.Value = uint32(c.Timers.Reload(i)) | uint32(c.Timers.ReadControl(i))<<16
	}
}
