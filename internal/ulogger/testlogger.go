package ulogger

import (
	"fmt"
	"strings"
	"sync"
)

// TestLogger discards everything.
type TestLogger struct{}

func (l TestLogger) LogLevel() string                       { return "DEBUG" }
func (l TestLogger) SetLogLevel(string)                     {}
func (l TestLogger) Debugf(string, ...interface{})          {}
func (l TestLogger) Infof(string, ...interface{})           {}
func (l TestLogger) Warnf(string, ...interface{})           {}
func (l TestLogger) Errorf(string, ...interface{})          {}
func (l TestLogger) Fatalf(string, ...interface{})          {}
func (l TestLogger) New(string, ...Option) Logger           { return l }

// BufferLogger records formatted lines prefixed with their level, for assertions in tests.
type BufferLogger struct {
	mu    *sync.Mutex
	lines *[]string
}

func NewBufferLogger() *BufferLogger {
	return &BufferLogger{
		mu:    &sync.Mutex{},
		lines: &[]string{},
	}
}

func (l *BufferLogger) record(level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	*l.lines = append(*l.lines, level+" "+fmt.Sprintf(format, args...))
}

// Lines returns the recorded lines whose level matches prefix, or all lines when prefix is empty.
func (l *BufferLogger) Lines(prefix string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]string, 0, len(*l.lines))
	for _, line := range *l.lines {
		if prefix == "" || strings.HasPrefix(line, prefix+" ") {
			out = append(out, line)
		}
	}

	return out
}

func (l *BufferLogger) LogLevel() string   { return "DEBUG" }
func (l *BufferLogger) SetLogLevel(string) {}

func (l *BufferLogger) Debugf(format string, args ...interface{}) { l.record("DEBUG", format, args...) }
func (l *BufferLogger) Infof(format string, args ...interface{})  { l.record("INFO", format, args...) }
func (l *BufferLogger) Warnf(format string, args ...interface{})  { l.record("WARN", format, args...) }
func (l *BufferLogger) Errorf(format string, args ...interface{}) { l.record("ERROR", format, args...) }
func (l *BufferLogger) Fatalf(format string, args ...interface{}) { l.record("FATAL", format, args...) }

// New shares the underlying buffer so child loggers record into the same lines.
func (l *BufferLogger) New(string, ...Option) Logger { return l }
