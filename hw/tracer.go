package hw

import (
	"fmt"
	"io"
)

// A TraceSink receives every store performed while tracing is on.
type TraceSink interface {
	TraceWrite(arm9 bool, addr uint32, size int, val uint32)
}

// Tracer routes stores to a sink. Starting it tears down the write
// fast path on both cores so no store can bypass the slow-path hook;
// stopping restores whatever windows the mappings still provide.
type Tracer struct {
	ptrs7, ptrs9 *PageTable
	sink         TraceSink
	on           bool
}

func NewTracer(ptrs7, ptrs9 *PageTable) *Tracer {
	return &Tracer{ptrs7: ptrs7, ptrs9: ptrs9}
}

func (t *Tracer) SetSink(sink TraceSink) { t.sink = sink }
func (t *Tracer) Enabled() bool          { return t.on }

func (t *Tracer) Start() {
	if t.on {
		return
	}
	t.on = true
	t.ptrs7.DisableWriteAll(DisableTrace)
	t.ptrs9.DisableWriteAll(DisableTrace)
}

func (t *Tracer) Stop() {
	if !t.on {
		return
	}
	t.on = false
	t.ptrs7.EnableWriteAll(DisableTrace)
	t.ptrs9.EnableWriteAll(DisableTrace)
}

// Write reports one store to the sink, if tracing is on.
func (t *Tracer) Write(arm9 bool, addr uint32, size int, val uint32) {
	if t.on && t.sink != nil {
		t.sink.TraceWrite(arm9, addr, size, val)
	}
}

func hexEncode(dst []byte, v byte) {
	const hextable = "0123456789ABCDEF"
	dst[0] = hextable[v>>4]
	dst[1] = hextable[v&0x0f]
}

// WriteTrace formats one line per store into an io.Writer:
//
//	[9] 02000100 <- 0000ABCD (4)
type WriteTrace struct {
	w io.Writer
}

func NewWriteTrace(w io.Writer) *WriteTrace {
	return &WriteTrace{w: w}
}

func (t *WriteTrace) TraceWrite(arm9 bool, addr uint32, size int, val uint32) {
	var buf [32]byte
	out := buf[:0]

	core := byte('7')
	if arm9 {
		core = '9'
	}
	out = append(out, '[', core, ']', ' ')
	for i := 3; i >= 0; i-- {
		var hx [2]byte
		hexEncode(hx[:], byte(addr>>(8*i)))
		out = append(out, hx[:]...)
	}
	out = append(out, ' ', '<', '-', ' ')
	for i := 3; i >= 0; i-- {
		var hx [2]byte
		hexEncode(hx[:], byte(val>>(8*i)))
		out = append(out, hx[:]...)
	}
	out = fmt.Appendf(out, " (%d)\n", size)
	t.w.Write(out)
}
