package snapshot

import (
	"fmt"

	"github.com/go-faster/jx"
)

// Encode serializes st as a single JSON object, memory blobs as
// base64. The encoder streams into one buffer; nothing here can fail.
func Encode(st *DS) []byte {
	var e jx.Encoder
	st.encode(&e)
	return e.Bytes()
}

// Decode parses a snapshot and validates its version and that every
// section is present.
func Decode(data []byte) (*DS, error) {
	st := new(DS)
	if err := st.decode(jx.DecodeBytes(data)); err != nil {
		return nil, fmt.Errorf("corrupt snapshot: %v", err)
	}
	if st.Version != Version {
		return nil, fmt.Errorf("snapshot version %d, want %d", st.Version, Version)
	}
	if st.MainRam == nil || st.Machine == nil || st.Arm7 == nil || st.Arm9 == nil ||
		st.Video == nil || st.Ipc == nil || st.Slot == nil || st.Power == nil ||
		st.Spi == nil || st.SWram == nil || st.Vram == nil || st.Audio == nil ||
		st.Mixer == nil {
		return nil, fmt.Errorf("snapshot is missing sections")
	}
	return st, nil
}

func encU32s(e *jx.Encoder, vs []uint32) {
	e.ArrStart()
	for _, v := range vs {
		e.UInt32(v)
	}
	e.ArrEnd()
}

func decU32s(d *jx.Decoder, vs []uint32) error {
	i := 0
	return d.Arr(func(d *jx.Decoder) error {
		v, err := d.UInt32()
		if err != nil {
			return err
		}
		if i < len(vs) {
			vs[i] = v
			i++
		}
		return nil
	})
}

func (st *DS) encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("version")
	e.Int(st.Version)
	e.FieldStart("mainram")
	e.Base64(st.MainRam)
	e.FieldStart("machine")
	st.Machine.encode(e)
	e.FieldStart("arm7")
	st.Arm7.encode(e)
	e.FieldStart("arm9")
	st.Arm9.encode(e)
	e.FieldStart("video")
	st.Video.encode(e)
	e.FieldStart("ipc")
	st.Ipc.encode(e)
	e.FieldStart("slot")
	st.Slot.encode(e)
	e.FieldStart("power")
	st.Power.encode(e)
	e.FieldStart("spi")
	st.Spi.encode(e)
	e.FieldStart("swram")
	st.SWram.encode(e)
	e.FieldStart("vram")
	st.Vram.encode(e)
	e.FieldStart("audio")
	st.Audio.encode(e)
	e.FieldStart("mixer")
	st.Mixer.encode(e)
	e.ObjEnd()
}

func (st *DS) decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "version":
			st.Version, err = d.Int()
		case "mainram":
			st.MainRam, err = d.Base64()
		case "machine":
			st.Machine = new(Schedule)
			err = st.Machine.decode(d)
		case "arm7":
			st.Arm7 = new(Arm7)
			err = st.Arm7.decode(d)
		case "arm9":
			st.Arm9 = new(Arm9)
			err = st.Arm9.decode(d)
		case "video":
			st.Video = new(Video)
			err = st.Video.decode(d)
		case "ipc":
			st.Ipc = new(IPC)
			err = st.Ipc.decode(d)
		case "slot":
			st.Slot = new(DsSlot)
			err = st.Slot.decode(d)
		case "power":
			st.Power = new(Power)
			err = st.Power.decode(d)
		case "spi":
			st.Spi = new(Spi)
			err = st.Spi.decode(d)
		case "swram":
			st.SWram = new(SWram)
			err = st.SWram.decode(d)
		case "vram":
			st.Vram = new(Vram)
			err = st.Vram.decode(d)
		case "audio":
			st.Audio = new(Audio)
			err = st.Audio.decode(d)
		case "mixer":
			st.Mixer = new(Mixer)
			err = st.Mixer.decode(d)
		default:
			err = d.Skip()
		}
		return err
	})
}

func (s *Schedule) encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("cur")
	e.Int64(s.CurTime)
	e.FieldStart("target")
	e.Int64(s.TargetTime)
	e.FieldStart("slots")
	e.ArrStart()
	for i := range s.Slots {
		e.ObjStart()
		e.FieldStart("t")
		e.Int64(s.Slots[i].Time)
		e.FieldStart("armed")
		e.Bool(s.Slots[i].Pending)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
}

func (s *Schedule) decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "cur":
			s.CurTime, err = d.Int64()
		case "target":
			s.TargetTime, err = d.Int64()
		case "slots":
			err = d.Arr(func(d *jx.Decoder) error {
				var sl SchedSlot
				if err := sl.decode(d); err != nil {
					return err
				}
				s.Slots = append(s.Slots, sl)
				return nil
			})
		default:
			err = d.Skip()
		}
		return err
	})
}

func (sl *SchedSlot) decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "t":
			sl.Time, err = d.Int64()
		case "armed":
			sl.Pending, err = d.Bool()
		default:
			err = d.Skip()
		}
		return err
	})
}

func (s *Arm7) encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("sched")
	s.Sched.encode(e)
	e.FieldStart("irqs")
	s.Irqs.encode(e)
	e.FieldStart("timers")
	e.ArrStart()
	for i := range s.Timers {
		s.Timers[i].encode(e)
	}
	e.ArrEnd()
	e.FieldStart("dma")
	s.Dma.encode(e)
	e.FieldStart("wram")
	e.Base64(s.Wram)
	e.FieldStart("dmawords")
	encU32s(e, s.LastDmaWords[:])
	e.FieldStart("bioslatch")
	e.UInt32(s.BiosLatch)
	e.FieldStart("postflg")
	e.UInt8(s.Postflg)
	e.ObjEnd()
}

func (s *Arm7) decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "sched":
			s.Sched = new(Schedule)
			err = s.Sched.decode(d)
		case "irqs":
			err = s.Irqs.decode(d)
		case "timers":
			i := 0
			err = d.Arr(func(d *jx.Decoder) error {
				if i >= len(s.Timers) {
					return d.Skip()
				}
				err := s.Timers[i].decode(d)
				i++
				return err
			})
		case "dma":
			err = s.Dma.decode(d)
		case "wram":
			s.Wram, err = d.Base64()
		case "dmawords":
			err = decU32s(d, s.LastDmaWords[:])
		case "bioslatch":
			s.BiosLatch, err = d.UInt32()
		case "postflg":
			s.Postflg, err = d.UInt8()
		default:
			err = d.Skip()
		}
		return err
	})
}

func (s *Arm9) encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("sched")
	s.Sched.encode(e)
	e.FieldStart("irqs")
	s.Irqs.encode(e)
	e.FieldStart("timers")
	e.ArrStart()
	for i := range s.Timers {
		s.Timers[i].encode(e)
	}
	e.ArrEnd()
	e.FieldStart("dma")
	s.Dma.encode(e)
	e.FieldStart("div")
	s.Div.encode(e)
	e.FieldStart("sqrt")
	s.Sqrt.encode(e)
	e.FieldStart("itcm")
	e.Base64(s.Itcm)
	e.FieldStart("dtcm")
	e.Base64(s.Dtcm)
	e.FieldStart("itcmon")
	e.Bool(s.ItcmOn)
	e.FieldStart("itcmsize")
	e.UInt32(s.ItcmSize)
	e.FieldStart("dtcmon")
	e.Bool(s.DtcmOn)
	e.FieldStart("dtcmbase")
	e.UInt32(s.DtcmBase)
	e.FieldStart("dtcmsize")
	e.UInt32(s.DtcmSize)
	e.FieldStart("fill")
	encU32s(e, s.Fill[:])
	e.FieldStart("postflg")
	e.UInt8(s.Postflg)
	e.ObjEnd()
}

func (s *Arm9) decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "sched":
			s.Sched = new(Schedule)
			err = s.Sched.decode(d)
		case "irqs":
			err = s.Irqs.decode(d)
		case "timers":
			i := 0
			err = d.Arr(func(d *jx.Decoder) error {
				if i >= len(s.Timers) {
					return d.Skip()
				}
				err := s.Timers[i].decode(d)
				i++
				return err
			})
		case "dma":
			err = s.Dma.decode(d)
		case "div":
			err = s.Div.decode(d)
		case "sqrt":
			err = s.Sqrt.decode(d)
		case "itcm":
			s.Itcm, err = d.Base64()
		case "dtcm":
			s.Dtcm, err = d.Base64()
		case "itcmon":
			s.ItcmOn, err = d.Bool()
		case "itcmsize":
			s.ItcmSize, err = d.UInt32()
		case "dtcmon":
			s.DtcmOn, err = d.Bool()
		case "dtcmbase":
			s.DtcmBase, err = d.UInt32()
		case "dtcmsize":
			s.DtcmSize, err = d.UInt32()
		case "fill":
			err = decU32s(d, s.Fill[:])
		case "postflg":
			s.Postflg, err = d.UInt8()
		default:
			err = d.Skip()
		}
		return err
	})
}

func (s *Irqs) encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("ie")
	e.UInt32(s.IE)
	e.FieldStart("irf")
	e.UInt32(s.IRF)
	e.FieldStart("master")
	e.Bool(s.Master)
	e.FieldStart("cpsr")
	e.Bool(s.CpsrIRQ)
	e.FieldStart("halted")
	e.Bool(s.Halted)
	e.ObjEnd()
}

func (s *Irqs) decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "ie":
			s.IE, err = d.UInt32()
		case "irf":
			s.IRF, err = d.UInt32()
		case "master":
			s.Master, err = d.Bool()
		case "cpsr":
			s.CpsrIRQ, err = d.Bool()
		case "halted":
			s.Halted, err = d.Bool()
		default:
			err = d.Skip()
		}
		return err
	})
}

func (s *Timer) encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("reload")
	e.UInt16(s.Reload)
	e.FieldStart("counter")
	e.UInt16(s.Counter)
	e.FieldStart("control")
	e.UInt8(s.Control)
	e.FieldStart("sync")
	e.Int64(s.LastSync)
	e.ObjEnd()
}

func (s *Timer) decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "reload":
			s.Reload, err = d.UInt16()
		case "counter":
			s.Counter, err = d.UInt16()
		case "control":
			s.Control, err = d.UInt8()
		case "sync":
			s.LastSync, err = d.Int64()
		default:
			err = d.Skip()
		}
		return err
	})
}

func (s *Dma) encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("channels")
	e.ArrStart()
	for i := range s.Channels {
		s.Channels[i].encode(e)
	}
	e.ArrEnd()
	e.FieldStart("running")
	e.UInt8(s.Running)
	e.ObjEnd()
}

func (s *Dma) decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "channels":
			i := 0
			err = d.Arr(func(d *jx.Decoder) error {
				if i >= len(s.Channels) {
					return d.Skip()
				}
				err := s.Channels[i].decode(d)
				i++
				return err
			})
		case "running":
			s.Running, err = d.UInt8()
		default:
			err = d.Skip()
		}
		return err
	})
}

func (s *DmaChannel) encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("control")
	e.UInt32(s.Control)
	e.FieldStart("src")
	e.UInt32(s.SrcAddr)
	e.FieldStart("dst")
	e.UInt32(s.DstAddr)
	e.FieldStart("cursrc")
	e.UInt32(s.CurSrc)
	e.FieldStart("curdst")
	e.UInt32(s.CurDst)
	e.FieldStart("remaining")
	e.UInt32(s.Remaining)
	e.FieldStart("nseq")
	e.Bool(s.NextNseq)
	e.ObjEnd()
}

func (s *DmaChannel) decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "control":
			s.Control, err = d.UInt32()
		case "src":
			s.SrcAddr, err = d.UInt32()
		case "dst":
			s.DstAddr, err = d.UInt32()
		case "cursrc":
			s.CurSrc, err = d.UInt32()
		case "curdst":
			s.CurDst, err = d.UInt32()
		case "remaining":
			s.Remaining, err = d.UInt32()
		case "nseq":
			s.NextNseq, err = d.Bool()
		default:
			err = d.Skip()
		}
		return err
	})
}

func (s *Video) encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("vcount")
	e.UInt16(s.VCount)
	e.FieldStart("stat7")
	e.UInt16(s.DispStat7)
	e.FieldStart("stat9")
	e.UInt16(s.DispStat9)
	e.ObjEnd()
}

func (s *Video) decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "vcount":
			s.VCount, err = d.UInt16()
		case "stat7":
			s.DispStat7, err = d.UInt16()
		case "stat9":
			s.DispStat9, err = d.UInt16()
		default:
			err = d.Skip()
		}
		return err
	})
}

func (s *IPC) encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("sync7")
	e.UInt16(s.Sync7)
	e.FieldStart("sync9")
	e.UInt16(s.Sync9)
	e.FieldStart("cnt7")
	e.UInt16(s.Cnt7)
	e.FieldStart("cnt9")
	e.UInt16(s.Cnt9)
	e.FieldStart("to9")
	s.To9.encode(e)
	e.FieldStart("to7")
	s.To7.encode(e)
	e.ObjEnd()
}

func (s *IPC) decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "sync7":
			s.Sync7, err = d.UInt16()
		case "sync9":
			s.Sync9, err = d.UInt16()
		case "cnt7":
			s.Cnt7, err = d.UInt16()
		case "cnt9":
			s.Cnt9, err = d.UInt16()
		case "to9":
			err = s.To9.decode(d)
		case "to7":
			err = s.To7.decode(d)
		default:
			err = d.Skip()
		}
		return err
	})
}

func (s *IpcFifo) encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("words")
	encU32s(e, s.Words[:])
	e.FieldStart("head")
	e.Int(s.Head)
	e.FieldStart("len")
	e.Int(s.Len)
	e.FieldStart("last")
	e.UInt32(s.Last)
	e.ObjEnd()
}

func (s *IpcFifo) decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "words":
			err = decU32s(d, s.Words[:])
		case "head":
			s.Head, err = d.Int()
		case "len":
			s.Len, err = d.Int()
		case "last":
			s.Last, err = d.UInt32()
		default:
			err = d.Skip()
		}
		return err
	})
}

func (s *DsSlot) encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("owner7")
	e.Bool(s.Arm7Owner)
	e.FieldStart("auxspicnt")
	e.UInt16(s.AuxSpiCnt)
	e.FieldStart("spidata")
	e.UInt8(s.SpiData)
	e.FieldStart("spihold")
	e.Bool(s.SpiHold)
	e.FieldStart("romctrl")
	e.UInt32(s.RomCtrl)
	e.FieldStart("cmd")
	e.Base64(s.Cmd[:])
	e.FieldStart("blocksize")
	e.UInt32(s.BlockSize)
	e.FieldStart("readbytes")
	e.UInt32(s.ReadBytes)
	e.FieldStart("word")
	e.UInt32(s.Word)
	e.ObjEnd()
}

func (s *DsSlot) decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "owner7":
			s.Arm7Owner, err = d.Bool()
		case "auxspicnt":
			s.AuxSpiCnt, err = d.UInt16()
		case "spidata":
			s.SpiData, err = d.UInt8()
		case "spihold":
			s.SpiHold, err = d.Bool()
		case "romctrl":
			s.RomCtrl, err = d.UInt32()
		case "cmd":
			var b []byte
			if b, err = d.Base64(); err == nil {
				copy(s.Cmd[:], b)
			}
		case "blocksize":
			s.BlockSize, err = d.UInt32()
		case "readbytes":
			s.ReadBytes, err = d.UInt32()
		case "word":
			s.Word, err = d.UInt32()
		default:
			err = d.Skip()
		}
		return err
	})
}

func (s *Power) encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("powcnt1")
	e.UInt16(s.PowCnt1)
	e.FieldStart("powcnt2")
	e.UInt16(s.PowCnt2)
	e.FieldStart("exmem")
	e.UInt16(s.Exmem)
	e.FieldStart("rcnt")
	e.UInt16(s.Rcnt)
	e.FieldStart("biosprot")
	e.UInt16(s.BiosProt)
	e.FieldStart("haltcnt")
	e.UInt8(s.HaltCnt)
	e.ObjEnd()
}

func (s *Power) decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "powcnt1":
			s.PowCnt1, err = d.UInt16()
		case "powcnt2":
			s.PowCnt2, err = d.UInt16()
		case "exmem":
			s.Exmem, err = d.UInt16()
		case "rcnt":
			s.Rcnt, err = d.UInt16()
		case "biosprot":
			s.BiosProt, err = d.UInt16()
		case "haltcnt":
			s.HaltCnt, err = d.UInt8()
		default:
			err = d.Skip()
		}
		return err
	})
}

func (s *Spi) encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("control")
	e.UInt16(s.Control)
	e.FieldStart("dataout")
	e.UInt8(s.DataOut)
	e.FieldStart("holds")
	e.UInt8(s.Holds)
	e.FieldStart("pmindex")
	e.UInt8(s.PmIndex)
	e.FieldStart("pmcontrol")
	e.UInt8(s.PmControl)
	e.FieldStart("pmmicamp")
	e.UInt8(s.PmMicAmp)
	e.FieldStart("pmmicgain")
	e.UInt8(s.PmMicGain)
	e.FieldStart("tsccontrol")
	e.UInt8(s.TscControl)
	e.FieldStart("tscout")
	e.UInt16(s.TscOut)
	e.FieldStart("tscpos")
	e.UInt8(s.TscPos)
	e.FieldStart("penx")
	e.UInt16(s.PenX)
	e.FieldStart("peny")
	e.UInt16(s.PenY)
	e.ObjEnd()
}

func (s *Spi) decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "control":
			s.Control, err = d.UInt16()
		case "dataout":
			s.DataOut, err = d.UInt8()
		case "holds":
			s.Holds, err = d.UInt8()
		case "pmindex":
			s.PmIndex, err = d.UInt8()
		case "pmcontrol":
			s.PmControl, err = d.UInt8()
		case "pmmicamp":
			s.PmMicAmp, err = d.UInt8()
		case "pmmicgain":
			s.PmMicGain, err = d.UInt8()
		case "tsccontrol":
			s.TscControl, err = d.UInt8()
		case "tscout":
			s.TscOut, err = d.UInt16()
		case "tscpos":
			s.TscPos, err = d.UInt8()
		case "penx":
			s.PenX, err = d.UInt16()
		case "peny":
			s.PenY, err = d.UInt16()
		default:
			err = d.Skip()
		}
		return err
	})
}

func (s *SWram) encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("control")
	e.UInt8(s.Control)
	e.FieldStart("shared")
	e.Base64(s.Shared)
	e.ObjEnd()
}

func (s *SWram) decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "control":
			s.Control, err = d.UInt8()
		case "shared":
			s.Shared, err = d.Base64()
		default:
			err = d.Skip()
		}
		return err
	})
}

func (s *Vram) encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("cnt")
	e.Base64(s.Cnt[:])
	e.FieldStart("banks")
	e.ArrStart()
	for i := range s.Banks {
		e.Base64(s.Banks[i])
	}
	e.ArrEnd()
	e.ObjEnd()
}

func (s *Vram) decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "cnt":
			var b []byte
			if b, err = d.Base64(); err == nil {
				copy(s.Cnt[:], b)
			}
		case "banks":
			i := 0
			err = d.Arr(func(d *jx.Decoder) error {
				b, err := d.Base64()
				if err != nil {
					return err
				}
				if i < len(s.Banks) {
					s.Banks[i] = b
					i++
				}
				return nil
			})
		default:
			err = d.Skip()
		}
		return err
	})
}

func (s *Audio) encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("soundcnt")
	e.UInt16(s.SoundCnt)
	e.FieldStart("bias")
	e.UInt16(s.Bias)
	e.FieldStart("channels")
	e.ArrStart()
	for i := range s.Channels {
		s.Channels[i].encode(e)
	}
	e.ArrEnd()
	e.ObjEnd()
}

func (s *Audio) decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "soundcnt":
			s.SoundCnt, err = d.UInt16()
		case "bias":
			s.Bias, err = d.UInt16()
		case "channels":
			i := 0
			err = d.Arr(func(d *jx.Decoder) error {
				if i >= len(s.Channels) {
					return d.Skip()
				}
				err := s.Channels[i].decode(d)
				i++
				return err
			})
		default:
			err = d.Skip()
		}
		return err
	})
}

func (s *AudioChannel) encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("control")
	e.UInt32(s.Control)
	e.FieldStart("src")
	e.UInt32(s.Src)
	e.FieldStart("timer")
	e.UInt16(s.Timer)
	e.FieldStart("looppos")
	e.UInt16(s.LoopPos)
	e.FieldStart("length")
	e.UInt32(s.Length)
	e.FieldStart("active")
	e.Bool(s.Active)
	e.FieldStart("cursor")
	e.UInt32(s.Cursor)
	e.FieldStart("acc")
	e.UInt32(s.Acc)
	e.FieldStart("cur")
	e.Int32(s.Cur)
	e.FieldStart("lfsr")
	e.UInt16(s.Lfsr)
	e.FieldStart("dutypos")
	e.UInt8(s.DutyPos)
	e.ObjEnd()
}

func (s *AudioChannel) decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "control":
			s.Control, err = d.UInt32()
		case "src":
			s.Src, err = d.UInt32()
		case "timer":
			s.Timer, err = d.UInt16()
		case "looppos":
			s.LoopPos, err = d.UInt16()
		case "length":
			s.Length, err = d.UInt32()
		case "active":
			s.Active, err = d.Bool()
		case "cursor":
			s.Cursor, err = d.UInt32()
		case "acc":
			s.Acc, err = d.UInt32()
		case "cur":
			s.Cur, err = d.Int32()
		case "lfsr":
			s.Lfsr, err = d.UInt16()
		case "dutypos":
			s.DutyPos, err = d.UInt8()
		default:
			err = d.Skip()
		}
		return err
	})
}

func (s *Mixer) encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("base")
	e.Int64(s.FrameBase)
	e.FieldStart("left")
	e.Int32(s.PrevLeft)
	e.FieldStart("right")
	e.Int32(s.PrevRight)
	e.ObjEnd()
}

func (s *Mixer) decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "base":
			s.FrameBase, err = d.Int64()
		case "left":
			s.PrevLeft, err = d.Int32()
		case "right":
			s.PrevRight, err = d.Int32()
		default:
			err = d.Skip()
		}
		return err
	})
}

func (s *Divider) encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("mode")
	e.UInt16(s.Mode)
	e.FieldStart("numer")
	e.UInt64(s.Numer)
	e.FieldStart("denom")
	e.UInt64(s.Denom)
	e.FieldStart("quot")
	e.UInt64(s.Quotient)
	e.FieldStart("rem")
	e.UInt64(s.Remainder)
	e.FieldStart("busy")
	e.Bool(s.Busy)
	e.FieldStart("divzero")
	e.Bool(s.DivZero)
	e.ObjEnd()
}

func (s *Divider) decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "mode":
			s.Mode, err = d.UInt16()
		case "numer":
			s.Numer, err = d.UInt64()
		case "denom":
			s.Denom, err = d.UInt64()
		case "quot":
			s.Quotient, err = d.UInt64()
		case "rem":
			s.Remainder, err = d.UInt64()
		case "busy":
			s.Busy, err = d.Bool()
		case "divzero":
			s.DivZero, err = d.Bool()
		default:
			err = d.Skip()
		}
		return err
	})
}

func (s *Sqrt) encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("mode64")
	e.Bool(s.Mode64)
	e.FieldStart("input")
	e.UInt64(s.Input)
	e.FieldStart("result")
	e.UInt32(s.Result)
	e.FieldStart("busy")
	e.Bool(s.Busy)
	e.ObjEnd()
}

func (s *Sqrt) decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "mode64":
			s.Mode64, err = d.Bool()
		case "input":
			s.Input, err = d.UInt64()
		case "result":
			s.Result, err = d.UInt32()
		case "busy":
			s.Busy, err = d.Bool()
		default:
			err = d.Skip()
		}
		return err
	})
}
