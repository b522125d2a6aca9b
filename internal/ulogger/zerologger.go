package ulogger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

type ZLoggerWrapper struct {
	zerolog.Logger
	service string
	opts    Options
}

func NewZeroLogger(service string, options ...Option) *ZLoggerWrapper {
	if service == "" {
		service = "btminer"
	}

	opts := DefaultOptions()
	for _, o := range options {
		o(opts)
	}

	var z *ZLoggerWrapper
	if opts.pretty {
		z = prettyZeroLogger(opts.writer, service)
	} else {
		z = &ZLoggerWrapper{
			Logger: zerolog.New(opts.writer).With().
				Timestamp().
				Str("service", service).
				Logger(),
			service: service,
		}
	}

	z.opts = *opts
	z.SetLogLevel(opts.logLevel)

	return z
}

func prettyZeroLogger(writer io.Writer, service string) *ZLoggerWrapper {
	noColor := true
	if f, ok := writer.(*os.File); ok {
		noColor = !term.IsTerminal(int(f.Fd()))
	}

	output := zerolog.ConsoleWriter{
		Out:        writer,
		NoColor:    noColor,
		TimeFormat: time.RFC3339,
	}

	output.FormatTimestamp = func(i interface{}) string {
		s, _ := i.(string)
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return s
		}

		return parsed.Format("15:04:05")
	}

	output.FormatLevel = func(i interface{}) string {
		l := strings.ToUpper(fmt.Sprintf("%-6s", i))

		switch i {
		case "debug":
			l = colorize(l, colorBlue, noColor)
		case "info":
			l = colorize(l, colorGreen, noColor)
		case "warn":
			l = colorize(l, colorYellow, noColor)
		case "error", "fatal", "panic":
			l = colorize(l, colorRed, noColor)
		default:
			l = colorize(l, colorWhite, noColor)
		}

		return fmt.Sprintf("| %s|", l)
	}

	output.FormatMessage = func(i interface{}) string {
		return fmt.Sprintf("| %-9s| %s", colorize(service, colorBold, noColor), i)
	}

	return &ZLoggerWrapper{
		Logger:  zerolog.New(output).With().Timestamp().Logger(),
		service: service,
	}
}

func colorize(s string, c int, disabled bool) string {
	if disabled {
		return s
	}

	return fmt.Sprintf("\x1b[%dm%s\x1b[0m", c, s)
}

func (z *ZLoggerWrapper) New(service string, options ...Option) Logger {
	o := []Option{
		WithWriter(z.opts.writer),
		WithLevel(z.LogLevel()),
		WithPretty(z.opts.pretty),
	}

	return NewZeroLogger(service, append(o, options...)...)
}

func (z *ZLoggerWrapper) SetLogLevel(logLevel string) {
	switch strings.ToUpper(logLevel) {
	case "DEBUG":
		z.Logger = z.Logger.Level(zerolog.DebugLevel)
	case "WARN":
		z.Logger = z.Logger.Level(zerolog.WarnLevel)
	case "ERROR":
		z.Logger = z.Logger.Level(zerolog.ErrorLevel)
	case "FATAL":
		z.Logger = z.Logger.Level(zerolog.FatalLevel)
	default:
		z.Logger = z.Logger.Level(zerolog.InfoLevel)
	}
}

func (z *ZLoggerWrapper) LogLevel() string {
	return strings.ToUpper(z.Logger.GetLevel().String())
}

func (z *ZLoggerWrapper) Debugf(format string, args ...interface{}) {
	z.Logger.Debug().Msgf(format, args...)
}

func (z *ZLoggerWrapper) Infof(format string, args ...interface{}) {
	z.Logger.Info().Msgf(format, args...)
}

func (z *ZLoggerWrapper) Warnf(format string, args ...interface{}) {
	z.Logger.Warn().Msgf(format, args...)
}

func (z *ZLoggerWrapper) Errorf(format string, args ...interface{}) {
	z.Logger.Error().Msgf(format, args...)
}

func (z *ZLoggerWrapper) Fatalf(format string, args ...interface{}) {
	z.Logger.Fatal().Msgf(format, args...)
}

// ValidLevel reports whether level is one SetLogLevel understands.
func ValidLevel(level string) bool {
	switch strings.ToUpper(level) {
	case "DEBUG", "INFO", "WARN", "ERROR", "FATAL":
		return true
	default:
		return false
	}
}
