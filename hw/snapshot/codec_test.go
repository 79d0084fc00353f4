package snapshot

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// fixture returns a state with every field off its zero value, so a
// field the codec forgets shows up in the round-trip diff.
func fixture() *DS {
	st := &DS{
		Version: Version,
		MainRam: []byte{0x11, 0x22, 0x33, 0x44},
		Machine: &Schedule{
			CurTime:    1000,
			TargetTime: 1064,
			Slots: []SchedSlot{
				{Time: 1010, Pending: true},
				{Time: 99, Pending: false},
			},
		},
		Arm7: &Arm7{
			Sched: &Schedule{CurTime: 2000, TargetTime: 2064,
				Slots: []SchedSlot{{Time: 2048, Pending: true}}},
			Irqs:         Irqs{IE: 0x000C0001, IRF: 0x00000001, Master: true, CpsrIRQ: true},
			Wram:         []byte{9, 8, 7},
			LastDmaWords: [4]uint32{0xAABBCCDD, 1, 2, 3},
			BiosLatch:    0xE3A00000,
			Postflg:      1,
		},
		Arm9: &Arm9{
			Sched: &Schedule{CurTime: 4000, TargetTime: 4128,
				Slots: []SchedSlot{{Time: 4100, Pending: true}}},
			Irqs: Irqs{IE: 0x00010000, Master: true, Halted: true},
			Div: Divider{Mode: 1, Numer: 100, Denom: 7,
				Quotient: 14, Remainder: 2, DivZero: true},
			Sqrt:     Sqrt{Mode64: true, Input: 144, Result: 12, Busy: true},
			Itcm:     []byte{1, 2},
			Dtcm:     []byte{3, 4},
			ItcmOn:   true,
			ItcmSize: 0x02000000,
			DtcmOn:   true,
			DtcmBase: 0x03000000,
			DtcmSize: 0x4000,
			Fill:     [4]uint32{0xFEFEFEFE, 0, 0, 0xCAFEBABE},
			Postflg:  3,
		},
		Video: &Video{VCount: 192, DispStat7: 0x0001, DispStat9: 0x0088},
		Ipc: &IPC{
			Sync7: 0x4700, Sync9: 0x0047,
			Cnt7: 0x8101, Cnt9: 0x0101,
			To9: IpcFifo{Words: [16]uint32{0xDEAD, 0xBEEF}, Head: 1, Len: 1, Last: 0xDEAD},
			To7: IpcFifo{Last: 0x1234},
		},
		Slot: &DsSlot{
			Arm7Owner: true,
			AuxSpiCnt: 0x8043,
			SpiData:   0x5A,
			SpiHold:   true,
			RomCtrl:   0x81800000,
			Cmd:       [8]uint8{0xB7, 1, 2, 3, 4, 5, 6, 7},
			BlockSize: 0x200,
			ReadBytes: 4,
			Word:      0xFFFFFFFF,
		},
		Power: &Power{
			PowCnt1: 0x820F, PowCnt2: 1, Exmem: 0x6000,
			Rcnt: 0x8000, BiosProt: 0x1204, HaltCnt: 0x80,
		},
		Spi: &Spi{
			Control: 0xCA83, DataOut: 0x6B, Holds: 0b101,
			PmIndex: 0x80, PmControl: 0x0D, PmMicAmp: 1, PmMicGain: 2,
			TscControl: 0xD0, TscOut: 0x7F80, TscPos: 2,
			PenX: 0x123, PenY: 0xEDC,
		},
		SWram: &SWram{Control: 3, Shared: []byte{0xAA, 0xBB}},
		Vram: &Vram{
			Cnt: [9]uint8{0x80, 0x81, 0x82, 0x8A, 0, 0, 0, 0, 0x80},
			Banks: [9][]byte{
				{1}, {2}, {3}, {4}, {5}, {6}, {7}, {8}, {9},
			},
		},
		Audio: &Audio{
			SoundCnt: 0x807F,
			Bias:     0x200,
			Channels: [16]AudioChannel{
				{Control: 0x8000007F, Src: 0x02000000, Timer: 0xFC00,
					LoopPos: 4, Length: 16, Active: true, Cursor: 12,
					Acc: 3, Cur: -1892, Lfsr: 0x7FFF, DutyPos: 5},
			},
		},
		Mixer: &Mixer{FrameBase: 560190, PrevLeft: -300, PrevRight: 512},
	}
	st.Arm7.Timers[1] = Timer{Reload: 0xFFF0, Counter: 0xFFF4, Control: 0xC0, LastSync: 2000}
	st.Arm7.Dma.Channels[0] = DmaChannel{
		Control: 0x84000004, SrcAddr: 0x02000000, DstAddr: 0x02100000,
		CurSrc: 0x02000008, CurDst: 0x02100008, Remaining: 2, NextNseq: true,
	}
	st.Arm7.Dma.Running = 1
	st.Arm9.Timers[3] = Timer{Reload: 1, Counter: 2, Control: 0x87, LastSync: 4000}
	st.Arm9.Dma.Channels[2] = DmaChannel{Control: 0x38000000 | 21, SrcAddr: 0x040000E0}
	return st
}

func TestCodecRoundTrip(t *testing.T) {
	want := fixture()
	got, err := Decode(Encode(want))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("state changed across encode/decode (-want +got):\n%s", diff)
	}
}

func TestDecodeBadVersion(t *testing.T) {
	st := fixture()
	st.Version = Version + 1
	if _, err := Decode(Encode(st)); err == nil {
		t.Fatal("decoding a newer version did not fail")
	}
}

func TestDecodeMissingSection(t *testing.T) {
	if _, err := Decode([]byte(`{"version":1}`)); err == nil {
		t.Fatal("snapshot with no sections did not fail")
	}
}

func TestDecodeGarbage(t *testing.T) {
	for _, in := range []string{"", "{", `{"version":true}`, "...."} {
		if _, err := Decode([]byte(in)); err == nil {
			t.Errorf("Decode(%q) did not fail", in)
		}
	}
}

func TestEncodeIsJSONObject(t *testing.T) {
	data := string(Encode(fixture()))
	if !strings.HasPrefix(data, `{"version":1,`) {
		t.Fatalf("unexpected prefix: %.40s", data)
	}
}
