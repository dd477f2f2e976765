package mesh

import (
	"fmt"
	"io"
)

// Logger is an optional trace sink. A nil *Logger discards everything, so
// callers pass it around without checks.
type Logger struct {
	io.Writer
}

// NewLogger wraps w, returning nil for a nil writer.
func NewLogger(w io.Writer) *Logger {
	if w == nil {
		return nil
	}
	return &Logger{w}
}

// Enabled reports whether anything is written.
func (l *Logger) Enabled() bool { return l != nil && l.Writer != nil }

func (l *Logger) Println(a ...interface{}) {
	if l.Enabled() {
		fmt.Fprintln(l, a...)
	}
}

func (l *Logger) Printf(format string, a ...interface{}) {
	if l.Enabled() {
		fmt.Fprintf(l, format+"\n", a...)
	}
}
