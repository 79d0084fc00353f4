package log

// A Contexter contributes ambient fields (current frame, scanline, cycle
// counts) to every emitted log entry.
type Contexter interface {
	AddLogContext(e *EntryZ)
}

var contexts []Contexter

// AddContext registers a log context provider. Not safe for concurrent use;
// register everything during power-up.
func AddContext(c Contexter) {
	contexts = append(contexts, c)
}
