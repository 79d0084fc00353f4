package hw

import (
	"castor/emu/log"
	"castor/hw/snapshot"
)

// IPC control bits (IPCFIFOCNT).
const (
	ipcSendEmpty    = 1 << 0
	ipcSendFull     = 1 << 1
	ipcSendEmptyIRQ = 1 << 2
	ipcRecvEmpty    = 1 << 8
	ipcRecvFull     = 1 << 9
	ipcRecvIRQ      = 1 << 10
	ipcError        = 1 << 14
	ipcEnable       = 1 << 15
)

type ipcFifo struct {
	words [16]uint32
	head  int
	n     int
	last  uint32 // last word popped; read back on empty pops
}

func (f *ipcFifo) empty() bool { return f.n == 0 }
func (f *ipcFifo) full() bool  { return f.n == len(f.words) }

func (f *ipcFifo) push(v uint32) {
	f.words[(f.head+f.n)&15] = v
	f.n++
}

func (f *ipcFifo) pop() uint32 {
	v := f.words[f.head]
	f.head = (f.head + 1) & 15
	f.n--
	f.last = v
	return v
}

func (f *ipcFifo) peek() uint32 {
	if f.n == 0 {
		return f.last
	}
	return f.words[f.head]
}

func (f *ipcFifo) clear() {
	f.head, f.n, f.last = 0, 0, 0
}

// IPC is the inter-core mailbox: the IPCSYNC handshake register and a
// pair of 16-word FIFOs, one per direction. All cross-core interrupts
// it raises leave the peer's slice target alone; the peer picks them
// up at its next boundary.
type IPC struct {
	irqs7 *Arm7Irqs
	irqs9 *Arm9Irqs

	sync7, sync9 uint16
	cnt7, cnt9   uint16

	to9 ipcFifo // ARM7 send, ARM9 recv
	to7 ipcFifo // ARM9 send, ARM7 recv
}

func NewIPC(irqs7 *Arm7Irqs, irqs9 *Arm9Irqs) *IPC {
	ipc := &IPC{irqs7: irqs7, irqs9: irqs9}
	ipc.Reset()
	return ipc
}

func (ipc *IPC) Reset() {
	ipc.sync7, ipc.sync9 = 0, 0
	ipc.cnt7 = ipcSendEmpty | ipcRecvEmpty
	ipc.cnt9 = ipcSendEmpty | ipcRecvEmpty
	ipc.to9.clear()
	ipc.to7.clear()
}

func (ipc *IPC) ReadSync7() uint16 { return ipc.sync7 }
func (ipc *IPC) ReadSync9() uint16 { return ipc.sync9 }

// WriteSync7 latches the ARM7 send nibble, mirrors it into the ARM9
// recv nibble, and pulses the ARM9 sync interrupt when bit 13 is
// written with the ARM9 side enabled.
func (ipc *IPC) WriteSync7(v uint16) {
	ipc.sync7 = ipc.sync7&0xF | v&0x4F00
	ipc.sync9 = ipc.sync9&0x4F00 | v>>8&0xF
	if v&1<<13 != 0 && ipc.sync9&1<<14 != 0 {
		log.ModIPC.DebugZ("sync irq").String("to", "arm9").End()
		ipc.irqs9.requestNoStop(IrqIPCSync)
	}
}

func (ipc *IPC) WriteSync9(v uint16) {
	ipc.sync9 = ipc.sync9&0xF | v&0x4F00
	ipc.sync7 = ipc.sync7&0x4F00 | v>>8&0xF
	if v&1<<13 != 0 && ipc.sync7&1<<14 != 0 {
		log.ModIPC.DebugZ("sync irq").String("to", "arm7").End()
		ipc.irqs7.requestNoStop(IrqIPCSync)
	}
}

func (ipc *IPC) ReadFifoCnt7() uint16 { return ipc.cnt7 }
func (ipc *IPC) ReadFifoCnt9() uint16 { return ipc.cnt9 }

func (ipc *IPC) WriteFifoCnt7(v uint16) {
	old := ipc.cnt7
	ipc.cnt7 = (old&0x4303 | v&0x8404) &^ (v & ipcError)
	if v&1<<3 != 0 {
		ipc.to9.clear()
		ipc.updateStatus()
	}
	// Interrupt enables are edge sensitive: flipping one on while its
	// condition already holds requests immediately.
	if old&ipcSendEmptyIRQ == 0 && ipc.cnt7&ipcSendEmptyIRQ != 0 && ipc.to9.empty() {
		ipc.irqs7.Request(IrqIPCSendEmpty)
	}
	if old&ipcRecvIRQ == 0 && ipc.cnt7&ipcRecvIRQ != 0 && !ipc.to7.empty() {
		ipc.irqs7.Request(IrqIPCRecvNotEmpty)
	}
}

func (ipc *IPC) WriteFifoCnt9(v uint16) {
	old := ipc.cnt9
	ipc.cnt9 = (old&0x4303 | v&0x8404) &^ (v & ipcError)
	if v&1<<3 != 0 {
		ipc.to7.clear()
		ipc.updateStatus()
	}
	if old&ipcSendEmptyIRQ == 0 && ipc.cnt9&ipcSendEmptyIRQ != 0 && ipc.to7.empty() {
		ipc.irqs9.Request(IrqIPCSendEmpty)
	}
	if old&ipcRecvIRQ == 0 && ipc.cnt9&ipcRecvIRQ != 0 && !ipc.to9.empty() {
		ipc.irqs9.Request(IrqIPCRecvNotEmpty)
	}
}

// SendFifo7 pushes a word towards the ARM9. Ignored while the ARM7
// side is disabled; a push into a full FIFO only sets the error bit.
func (ipc *IPC) SendFifo7(v uint32) {
	if ipc.cnt7&ipcEnable == 0 {
		return
	}
	if ipc.to9.full() {
		ipc.cnt7 |= ipcError
		return
	}
	wasEmpty := ipc.to9.empty()
	ipc.to9.push(v)
	ipc.updateStatus()
	log.ModIPC.DebugZ("fifo send").String("to", "arm9").Hex32("word", v).End()
	if wasEmpty && ipc.cnt9&ipcRecvIRQ != 0 {
		ipc.irqs9.requestNoStop(IrqIPCRecvNotEmpty)
	}
}

func (ipc *IPC) SendFifo9(v uint32) {
	if ipc.cnt9&ipcEnable == 0 {
		return
	}
	if ipc.to7.full() {
		ipc.cnt9 |= ipcError
		return
	}
	wasEmpty := ipc.to7.empty()
	ipc.to7.push(v)
	ipc.updateStatus()
	log.ModIPC.DebugZ("fifo send").String("to", "arm7").Hex32("word", v).End()
	if wasEmpty && ipc.cnt7&ipcRecvIRQ != 0 {
		ipc.irqs7.requestNoStop(IrqIPCRecvNotEmpty)
	}
}

// RecvFifo7 pops the next word sent by the ARM9. While the ARM7 side
// is disabled it only peeks; popping an empty FIFO sets the error bit
// and repeats the last word.
func (ipc *IPC) RecvFifo7() uint32 {
	if ipc.cnt7&ipcEnable == 0 {
		return ipc.to7.peek()
	}
	if ipc.to7.empty() {
		ipc.cnt7 |= ipcError
		return ipc.to7.last
	}
	v := ipc.to7.pop()
	ipc.updateStatus()
	if ipc.to7.empty() && ipc.cnt9&ipcSendEmptyIRQ != 0 {
		ipc.irqs9.requestNoStop(IrqIPCSendEmpty)
	}
	return v
}

func (ipc *IPC) RecvFifo9() uint32 {
	if ipc.cnt9&ipcEnable == 0 {
		return ipc.to9.peek()
	}
	if ipc.to9.empty() {
		ipc.cnt9 |= ipcError
		return ipc.to9.last
	}
	v := ipc.to9.pop()
	ipc.updateStatus()
	if ipc.to9.empty() && ipc.cnt7&ipcSendEmptyIRQ != 0 {
		ipc.irqs7.requestNoStop(IrqIPCSendEmpty)
	}
	return v
}

// PeekRecv7 and PeekRecv9 read the head word without popping, for
// debugger views of the receive ports.
func (ipc *IPC) PeekRecv7() uint32 { return ipc.to7.peek() }
func (ipc *IPC) PeekRecv9() uint32 { return ipc.to9.peek() }

// updateStatus recomputes the empty/full flags of both control words
// from the live FIFO depths.
func (ipc *IPC) updateStatus() {
	set := func(cnt *uint16, mask uint16, on bool) {
		if on {
			*cnt |= mask
		} else {
			*cnt &^= mask
		}
	}
	set(&ipc.cnt7, ipcSendEmpty, ipc.to9.empty())
	set(&ipc.cnt7, ipcSendFull, ipc.to9.full())
	set(&ipc.cnt7, ipcRecvEmpty, ipc.to7.empty())
	set(&ipc.cnt7, ipcRecvFull, ipc.to7.full())
	set(&ipc.cnt9, ipcSendEmpty, ipc.to7.empty())
	set(&ipc.cnt9, ipcSendFull, ipc.to7.full())
	set(&ipc.cnt9, ipcRecvEmpty, ipc.to9.empty())
	set(&ipc.cnt9, ipcRecvFull, ipc.to9.full())
}

func (f *ipcFifo) saveState(st *snapshot.IpcFifo) {
	st.Words = f.words
	st.Head = f.head
	st.Len = f.n
	st.Last = f.last
}

func (f *ipcFifo) setState(st *snapshot.IpcFifo) {
	f.words = st.Words
	f.head = st.Head & 15
	f.n = min(max(st.Len, 0), len(f.words))
	f.last = st.Last
}

func (ipc *IPC) State() *snapshot.IPC {
	st := &snapshot.IPC{
		Sync7: ipc.sync7,
		Sync9: ipc.sync9,
		Cnt7:  ipc.cnt7,
		Cnt9:  ipc.cnt9,
	}
	ipc.to9.saveState(&st.To9)
	ipc.to7.saveState(&st.To7)
	return st
}

func (ipc *IPC) SetState(st *snapshot.IPC) {
	ipc.sync7, ipc.sync9 = st.Sync7, st.Sync9
	ipc.cnt7, ipc.cnt9 = st.Cnt7, st.Cnt9
	ipc.to9.setState(&st.To9)
	ipc.to7.setState(&st.To7)
}
