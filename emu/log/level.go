package log

import (
	"io"

	"gopkg.in/Sirupsen/logrus.v0"
)

// Level mirrors the backend's severity ordering: lower is more severe.
type Level uint8

const (
	PanicLevel Level = iota
	FatalLevel
	ErrorLevel
	WarnLevel
	InfoLevel
	DebugLevel
)

func init() {
	// Severity filtering happens per module in Module.Enabled; the backend
	// must let everything through.
	logrus.SetLevel(logrus.DebugLevel)
}

// Disable turns off all logging output, warnings and errors included.
func Disable() {
	modDebugMask = 0
	logrus.SetLevel(logrus.PanicLevel)
}

// SetOutput redirects all logging output.
func SetOutput(w io.Writer) {
	logrus.SetOutput(w)
}
