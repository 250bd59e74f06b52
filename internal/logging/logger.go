// Package logging holds the one logger shape the hub uses everywhere.
//
// hubserver writes through it to stdout and its rotating log file (app.Run
// installs that pair with SetDefaultWriter). The WebAssembly client writes
// through the same code to stdout, which the Go wasm runtime forwards to
// the browser console. Components tag their lines with WithPrefix, e.g.
// "hub: " for the page runtime or "pages: " for the server-rendered pages.
package logging

import (
	"io"
	"log"
	"os"
	"sync"
)

// Logger is what every hub component accepts. Tests pass small recording
// stubs that satisfy it.
type Logger interface {
	Printf(format string, v ...any)
}

// stdBacked is implemented by loggers that can hand out a *log.Logger for
// net/http.Server.ErrorLog.
type stdBacked interface {
	StdLogger() *log.Logger
}

var (
	sinkMu sync.RWMutex
	sink   io.Writer = os.Stdout
)

// SetDefaultWriter changes where New sends entries. nil restores stdout.
func SetDefaultWriter(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	sinkMu.Lock()
	sink = w
	sinkMu.Unlock()
}

func defaultSink() io.Writer {
	sinkMu.RLock()
	defer sinkMu.RUnlock()
	return sink
}

// New returns a timestamped Logger on the current default writer. In the
// browser build that is the console.
func New() Logger {
	return NewWithWriter(defaultSink())
}

// NewWithWriter returns a timestamped Logger on w. Each entry is preceded by
// a blank line so multi-line failure dumps stay readable in the log file.
func NewWithWriter(w io.Writer) Logger {
	if w == nil {
		w = os.Stdout
	}
	return &hubLogger{base: log.New(&spacedWriter{out: w}, "", log.LstdFlags)}
}

// Discard returns a Logger that drops every entry.
func Discard() Logger {
	return NewWithWriter(io.Discard)
}

// AsStdLogger unwraps logger to a *log.Logger, or returns nil when it has
// none (test stubs, nil).
func AsStdLogger(logger Logger) *log.Logger {
	if b, ok := logger.(stdBacked); ok {
		return b.StdLogger()
	}
	return nil
}

type hubLogger struct {
	base *log.Logger
}

func (l *hubLogger) Printf(format string, v ...any) {
	if l == nil || l.base == nil {
		return
	}
	l.base.Printf(format, v...)
}

func (l *hubLogger) StdLogger() *log.Logger {
	if l == nil {
		return nil
	}
	return l.base
}

// spacedWriter serialises entries and writes a newline ahead of each one.
type spacedWriter struct {
	mu  sync.Mutex
	out io.Writer
}

func (s *spacedWriter) Write(p []byte) (int, error) {
	if s == nil || s.out == nil {
		return len(p), nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := io.WriteString(s.out, "\n"); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	if _, err := s.out.Write(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// WithPrefix tags every entry from logger with prefix. A nil logger stays
// nil so callers can keep their own fallback.
func WithPrefix(logger Logger, prefix string) Logger {
	if logger == nil {
		return nil
	}
	return &taggedLogger{tag: prefix, next: logger}
}

type taggedLogger struct {
	tag  string
	next Logger
}

func (t *taggedLogger) Printf(format string, v ...any) {
	t.next.Printf(t.tag+format, v...)
}

func (t *taggedLogger) StdLogger() *log.Logger {
	return AsStdLogger(t.next)
}
