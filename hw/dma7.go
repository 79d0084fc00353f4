package hw

import "castor/emu/log"

// Per-channel decode parameters. Channel 3 reaches the whole bus and
// carries the larger unit count; bit 27 of the control word has no
// function on this side.
var (
	dma7CountMask = [4]uint32{0x3FFF, 0x3FFF, 0x3FFF, 0xFFFF}
	dma7SrcMask   = [4]uint32{0x07FFFFFF, 0x0FFFFFFF, 0x0FFFFFFF, 0x0FFFFFFF}
	dma7DstMask   = [4]uint32{0x07FFFFFF, 0x07FFFFFF, 0x07FFFFFF, 0x0FFFFFFF}
)

// dma7Timing decodes the two ARM7 timing bits; the special mode means
// wifi on even channels and the GBA slot on odd ones.
func dma7Timing(i int, control uint32) DmaTiming {
	switch control >> 28 & 3 {
	case 0:
		return DmaImmediate
	case 1:
		return DmaVBlank
	case 2:
		return DmaDsSlot
	}
	if i&1 == 0 {
		return DmaWiFi
	}
	return DmaGbaSlot
}

func (c *Arm7) WriteDmaSrc(i int, v uint32) {
	c.Dma.Channel(i).srcAddr = v & dma7SrcMask[i]
}

func (c *Arm7) WriteDmaDst(i int, v uint32) {
	c.Dma.Channel(i).dstAddr = v & dma7DstMask[i]
}

// WriteDmaControl decodes a CNT store. An enable edge latches the
// cursors; immediate channels start at once and pull the slice target
// back so the transfer runs before anything else.
func (c *Arm7) WriteDmaControl(i int, v uint32) {
	dc := c.Dma
	ch := dc.Channel(i)
	wasEnabled := ch.enabled()

	v &= 0xF7E00000 | dma7CountMask[i]
	ch.decode(v, dma7CountMask[i], dma7Timing(i, v))

	switch {
	case !wasEnabled && ch.enabled():
		ch.latchCursors()
		log.ModDMA.InfoZ("dma enabled").
			String("cpu", "arm7").
			Int("ch", i).
			Hex32("src", ch.curSrc).
			Hex32("dst", ch.curDst).
			Uint64("units", uint64(ch.remaining)).
			Stringer("timing", ch.timing).
			End()
		if ch.timing == DmaImmediate {
			dc.start(i)
			c.Sched.SetTargetTime(c.Sched.CurTime())
		}
	case wasEnabled && !ch.enabled():
		dc.disable(i)
	}
}

// RunDma advances the channel holding the bus (and any that take over
// from it) until target. Completed channels retire and raise their
// IRQ, which never stops the transfer loop itself.
func (c *Arm7) RunDma(target Timestamp) {
	for {
		i := c.Dma.CurChannel()
		if i < 0 || c.Sched.CurTime() >= target {
			return
		}
		if c.runDmaChannel(i, target) {
			if c.Dma.end(i) {
				c.Irqs.RequestDMA(i)
			}
		}
	}
}

func (c *Arm7) runDmaChannel(i int, target Timestamp) (done bool) {
	dc := c.Dma
	ch := dc.Channel(i)

	var seqCost, nseqCost Timestamp
	recompute := func() {
		src := c.Timings.Get(ch.curSrc)
		dst := c.Timings.Get(ch.curDst)
		if ch.is32 {
			seqCost = Timestamp(src.S32) + Timestamp(dst.S32)
			nseqCost = Timestamp(src.N32) + Timestamp(dst.N32)
		} else {
			seqCost = Timestamp(src.S16) + Timestamp(dst.S16)
			nseqCost = Timestamp(src.N16) + Timestamp(dst.N16)
		}
	}
	recompute()

	for ch.remaining > 0 {
		if c.Sched.CurTime() >= target {
			return false
		}

		prevSrc, prevDst := ch.curSrc, ch.curDst
		c.dmaUnit(i, ch)

		cost := seqCost
		if ch.nextNseq {
			cost = nseqCost
			ch.nextNseq = false
		}
		c.Sched.SetCurTime(c.Sched.CurTime() + cost)

		ch.curSrc += uint32(ch.srcIncr)
		ch.curDst += uint32(ch.dstIncr)
		ch.remaining--

		// Crossing into another timing region restarts the burst.
		if ((ch.curSrc^prevSrc)|(ch.curDst^prevDst))>>Arm7TimingShift != 0 {
			recompute()
			ch.nextNseq = true
		}

		// A unit's side effects can start a higher-priority channel
		// or disable this one.
		if dc.CurChannel() != i {
			return false
		}
	}
	return true
}

// dmaUnit moves one unit. A source inside the BIOS region never
// reaches the bus: the channel resupplies the last word it moved.
// 16-bit units replicate across both halves and the store picks the
// lane the destination selects.
func (c *Arm7) dmaUnit(i int, ch *DmaChannel) {
	if ch.is32 {
		var word uint32
		if ch.curSrc>>25 == 0 {
			word = c.lastDmaWords[i]
		} else {
			word = c.DmaRead32(ch.curSrc)
			c.lastDmaWords[i] = word
		}
		c.DmaWrite32(ch.curDst, word)
		return
	}
	var word uint32
	if ch.curSrc>>25 == 0 {
		word = c.lastDmaWords[i]
	} else {
		v := uint32(c.DmaRead16(ch.curSrc))
		word = v | v<<16
		c.lastDmaWords[i] = word
	}
	c.DmaWrite16(ch.curDst, uint16(word>>(8*(ch.curDst&2))))
}
