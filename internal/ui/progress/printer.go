package progress

import (
	"fmt"
	"io"
	"sync"
)

// A Printer prints messages at different log levels. It must be safe to call
// its methods from concurrent goroutines.
type Printer interface {
	// E reports an error, it is always printed.
	E(msg string, args ...interface{})
	// P prints a message unless the output is quiet.
	P(msg string, args ...interface{})
	// V prints a message if the verbosity is at least 2.
	V(msg string, args ...interface{})
	// VV prints a message if the verbosity is at least 3.
	VV(msg string, args ...interface{})
}

// NoopPrinter discards all messages
type NoopPrinter struct{}

var _ Printer = (*NoopPrinter)(nil)

func (*NoopPrinter) E(msg string, args ...interface{}) {}

func (*NoopPrinter) P(msg string, args ...interface{}) {}

func (*NoopPrinter) V(msg string, args ...interface{}) {}

func (*NoopPrinter) VV(msg string, args ...interface{}) {}

// WriterPrinter writes messages to an output and an error writer. Verbosity 0
// prints only errors, 1 is the default.
type WriterPrinter struct {
	m         sync.Mutex
	stdout    io.Writer
	stderr    io.Writer
	verbosity uint
}

var _ Printer = (*WriterPrinter)(nil)

// NewWriterPrinter returns a Printer for the given writers and verbosity.
func NewWriterPrinter(stdout, stderr io.Writer, verbosity uint) *WriterPrinter {
	return &WriterPrinter{
		stdout:    stdout,
		stderr:    stderr,
		verbosity: verbosity,
	}
}

func (p *WriterPrinter) print(w io.Writer, level uint, msg string, args ...interface{}) {
	if p.verbosity < level {
		return
	}

	s := fmt.Sprintf(msg, args...)
	if len(s) == 0 || s[len(s)-1] != '\n' {
		s += "\n"
	}

	p.m.Lock()
	defer p.m.Unlock()
	_, _ = io.WriteString(w, s)
}

func (p *WriterPrinter) E(msg string, args ...interface{}) {
	p.print(p.stderr, 0, msg, args...)
}

func (p *WriterPrinter) P(msg string, args ...interface{}) {
	p.print(p.stdout, 1, msg, args...)
}

func (p *WriterPrinter) V(msg string, args ...interface{}) {
	p.print(p.stdout, 2, msg, args...)
}

func (p *WriterPrinter) VV(msg string, args ...interface{}) {
	p.print(p.stdout, 3, msg, args...)
}
