// Package snapshot defines the serializable machine state. The structs
// hold only architectural state: anything derivable (page tables, DMA
// decode fields, IRQ lines) is rebuilt by the owning unit on restore.
package snapshot

// Version is bumped on every layout change. Decode rejects snapshots
// from any other version.
const Version = 1

type DS struct {
	Version int
	MainRam []byte

	Machine *Schedule
	Arm7    *Arm7
	Arm9    *Arm9

	Video *Video
	Ipc   *IPC
	Slot  *DsSlot
	Power *Power
	Spi   *Spi
	SWram *SWram
	Vram  *Vram
	Audio *Audio
	Mixer *Mixer
}

// Schedule captures one clock domain: both clocks and every event
// slot, armed or not. Slot order is the event enum order of the owning
// domain.
type Schedule struct {
	CurTime    int64
	TargetTime int64
	Slots      []SchedSlot
}

type SchedSlot struct {
	Time    int64
	Pending bool
}

type Arm7 struct {
	Sched  *Schedule
	Irqs   Irqs
	Timers [4]Timer
	Dma    Dma

	Wram         []byte
	LastDmaWords [4]uint32
	BiosLatch    uint32
	Postflg      uint8
}

type Arm9 struct {
	Sched  *Schedule
	Irqs   Irqs
	Timers [4]Timer
	Dma    Dma
	Div    Divider
	Sqrt   Sqrt

	Itcm     []byte
	Dtcm     []byte
	ItcmOn   bool
	ItcmSize uint32
	DtcmOn   bool
	DtcmBase uint32
	DtcmSize uint32

	Fill    [4]uint32
	Postflg uint8
}

// Irqs saves the request machinery; the line and trigger outputs are
// recomputed from it.
type Irqs struct {
	IE      uint32
	IRF     uint32
	Master  bool
	CpsrIRQ bool
	Halted  bool
}

type Timer struct {
	Reload   uint16
	Counter  uint16
	Control  uint8
	LastSync int64
}

// Dma saves each channel's registers and live cursors plus the
// started-channel mask; the bus-owner index and the decoded control
// fields are rebuilt.
type Dma struct {
	Channels [4]DmaChannel
	Running  uint8
}

type DmaChannel struct {
	Control   uint32
	SrcAddr   uint32
	DstAddr   uint32
	CurSrc    uint32
	CurDst    uint32
	Remaining uint32
	NextNseq  bool
}

type Video struct {
	VCount    uint16
	DispStat7 uint16
	DispStat9 uint16
}

type IPC struct {
	Sync7 uint16
	Sync9 uint16
	Cnt7  uint16
	Cnt9  uint16
	To9   IpcFifo
	To7   IpcFifo
}

// IpcFifo saves the raw ring, not the logical queue, so a restored
// machine snapshots back to the same bytes.
type IpcFifo struct {
	Words [16]uint32
	Head  int
	Len   int
	Last  uint32
}

type DsSlot struct {
	Arm7Owner bool
	AuxSpiCnt uint16
	SpiData   uint8
	SpiHold   bool
	RomCtrl   uint32
	Cmd       [8]uint8
	BlockSize uint32
	ReadBytes uint32
	Word      uint32
}

type Power struct {
	PowCnt1  uint16
	PowCnt2  uint16
	Exmem    uint16
	Rcnt     uint16
	BiosProt uint16
	HaltCnt  uint8
}

type Spi struct {
	Control uint16
	DataOut uint8
	Holds   uint8 // chip-select holds, bit n = device n

	PmIndex   uint8
	PmControl uint8
	PmMicAmp  uint8
	PmMicGain uint8

	TscControl uint8
	TscOut     uint16
	TscPos     uint8
	PenX       uint16
	PenY       uint16
}

type SWram struct {
	Control uint8
	Shared  []byte
}

type Vram struct {
	Cnt   [9]uint8
	Banks [9][]byte
}

type Audio struct {
	SoundCnt uint16
	Bias     uint16
	Channels [16]AudioChannel
}

type AudioChannel struct {
	Control uint32
	Src     uint32
	Timer   uint16
	LoopPos uint16
	Length  uint32

	Active  bool
	Cursor  uint32
	Acc     uint32
	Cur     int32
	Lfsr    uint16
	DutyPos uint8
}

// Mixer keeps only the delta-stream anchors; the resampler buffers are
// transient output and start empty after a restore.
type Mixer struct {
	FrameBase int64
	PrevLeft  int32
	PrevRight int32
}

type Divider struct {
	Mode      uint16
	Numer     uint64
	Denom     uint64
	Quotient  uint64
	Remainder uint64
	Busy      bool
	DivZero   bool
}

type Sqrt struct {
	Mode64 bool
	Input  uint64
	Result uint32
	Busy   bool
}
