package ulogger

import (
	"io"
	"os"
)

const (
	colorRed = iota + 31
	colorGreen
	colorYellow
	colorBlue

	colorBold  = 1
	colorWhite = 37
)

type Logger interface {
	LogLevel() string
	SetLogLevel(level string)
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
	New(service string, options ...Option) Logger
}

type Options struct {
	logLevel string
	writer   io.Writer
	pretty   bool
}

type Option func(*Options)

func DefaultOptions() *Options {
	return &Options{
		logLevel: "INFO",
		writer:   os.Stdout,
		pretty:   true,
	}
}

func WithLevel(level string) Option {
	return func(o *Options) {
		o.logLevel = level
	}
}

func WithWriter(w io.Writer) Option {
	return func(o *Options) {
		o.writer = w
	}
}

func WithPretty(pretty bool) Option {
	return func(o *Options) {
		o.pretty = pretty
	}
}

func New(service string, options ...Option) Logger {
	return NewZeroLogger(service, options...)
}
