// Package logging is the kernel's boot log wrapper: a small Logger
// type over an io.Writer. Kernel-side diagnostics are plain formatted
// lines on the boot console, so nothing heavier than fmt is involved.
package logging

import (
	"fmt"
	"io"
)

// Logger writes formatted boot/runtime diagnostics to an underlying
// sink, normally console.Console.
type Logger struct {
	w io.Writer
}

// New wraps w as a Logger.
func New(w io.Writer) *Logger {
	return &Logger{w: w}
}

// Printf writes formatted output, unprefixed and with no newline
// appended, for output that should read as a bare console line.
func (l *Logger) Printf(format string, args ...any) {
	fmt.Fprintf(l.w, format, args...)
}

// Infof writes a formatted line prefixed "[info] ", for routine boot
// milestones (console up, page allocator initialized, initrd found).
func (l *Logger) Infof(format string, args ...any) {
	fmt.Fprintf(l.w, "[info] "+format+"\n", args...)
}

// Warnf writes a formatted line prefixed "[warn] ", for recoverable
// anomalies that do not justify a panic (e.g. an unregistered
// interrupt vector).
func (l *Logger) Warnf(format string, args ...any) {
	fmt.Fprintf(l.w, "[warn] "+format+"\n", args...)
}
