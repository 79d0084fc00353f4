package hw

import "castor/emu/log"

// ARM9 channels are symmetric: 21-bit unit count, full bus reach, and
// a 3-bit timing field. Every control bit decodes, so CNT stores are
// kept unmasked.
const (
	dma9CountMask = 0x1FFFFF
	dma9AddrMask  = 0x0FFFFFFF
)

func dma9Timing(control uint32) DmaTiming {
	return DmaTiming(control >> 27 & 7)
}

func (c *Arm9) WriteDmaSrc(i int, v uint32) {
	c.Dma.Channel(i).srcAddr = v & dma9AddrMask
}

func (c *Arm9) WriteDmaDst(i int, v uint32) {
	c.Dma.Channel(i).dstAddr = v & dma9AddrMask
}

func (c *Arm9) WriteDmaControl(i int, v uint32) {
	dc := c.Dma
	ch := dc.Channel(i)
	wasEnabled := ch.enabled()

	ch.decode(v, dma9CountMask, dma9Timing(v))

	switch {
	case !wasEnabled && ch.enabled():
		ch.latchCursors()
		log.ModDMA.InfoZ("dma enabled").
			String("cpu", "arm9").
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

// RunDma advances the channel holding the bus (and any successors)
// until target, in ARM9 cycles.
func (c *Arm9) RunDma(target Timestamp9) {
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

func (c *Arm9) runDmaChannel(i int, target Timestamp9) (done bool) {
	dc := c.Dma
	ch := dc.Channel(i)

	var seqCost, nseqCost Timestamp9
	recompute := func() {
		src := c.Timings.Get(ch.curSrc)
		dst := c.Timings.Get(ch.curDst)
		if ch.is32 {
			seqCost = Timestamp9(src.S32) + Timestamp9(dst.S32)
			nseqCost = Timestamp9(src.N32) + Timestamp9(dst.N32)
		} else {
			seqCost = Timestamp9(src.S16) + Timestamp9(dst.S16)
			nseqCost = Timestamp9(src.N16) + Timestamp9(dst.N16)
		}
	}
	recompute()

	for ch.remaining > 0 {
		if c.Sched.CurTime() >= target {
			return false
		}

		prevSrc, prevDst := ch.curSrc, ch.curDst
		if ch.is32 {
			c.DmaWrite32(ch.curDst, c.DmaRead32(ch.curSrc))
		} else {
			c.DmaWrite16(ch.curDst, c.DmaRead16(ch.curSrc))
		}

		cost := seqCost
		if ch.nextNseq {
			cost = nseqCost
			ch.nextNseq = false
		}
		c.Sched.SetCurTime(c.Sched.CurTime() + cost)

		ch.curSrc += uint32(ch.srcIncr)
		ch.curDst += uint32(ch.dstIncr)
		ch.remaining--

		if ((ch.curSrc^prevSrc)|(ch.curDst^prevDst))>>Arm9TimingShift != 0 {
			recompute()
			ch.nextNseq = true
		}

		if dc.CurChannel() != i {
			return false
		}
	}
	return true
}
