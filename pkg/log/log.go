// Package log provides the small structured-logging interface used across
// the emulator core. It deliberately does not pull in a third-party logging
// framework: the core only ever needs three severities and a handful of
// call sites, so a tiny interface keeps the core importable without
// dragging a logging stack into test binaries.
package log

import "fmt"

// Logger is implemented by anything that can record the core's diagnostic
// output. The zero value of Nop satisfies it silently.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type stdLogger struct{}

// New returns a Logger that writes to stdout with a level prefix, in the
// style of a bare development logger.
func New() Logger {
	return stdLogger{}
}

func (stdLogger) Debugf(format string, args ...interface{}) {
	fmt.Printf("[DEBUG]\t"+format+"\n", args...)
}

func (stdLogger) Infof(format string, args ...interface{}) {
	fmt.Printf("[INFO]\t"+format+"\n", args...)
}

func (stdLogger) Errorf(format string, args ...interface{}) {
	fmt.Printf("[ERROR]\t"+format+"\n", args...)
}
