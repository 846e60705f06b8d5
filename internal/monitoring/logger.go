// Package monitoring holds the diagnostic log sinks shared by the trajectory
// engine and its tools.
package monitoring

import (
	"log"
	"sync/atomic"
)

// Logf receives warnings and recoverable failures. It defaults to log.Printf
// and may be replaced by SetLogger; tests mute it the same way.
var Logf func(format string, v ...interface{}) = log.Printf

var verbose atomic.Bool

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// SetVerbose toggles emission of Debugf messages.
func SetVerbose(on bool) {
	verbose.Store(on)
}

// Verbose reports whether Debugf messages are emitted.
func Verbose() bool {
	return verbose.Load()
}

// Debugf forwards to Logf only when verbose mode is enabled.
func Debugf(format string, v ...interface{}) {
	if !verbose.Load() {
		return
	}
	Logf("[debug] "+format, v...)
}
