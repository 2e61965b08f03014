package logger

import (
	"io"
	"os"
	"time"

	"codeberg.org/mutker/hwoled/internal/errors"
	"github.com/rs/zerolog"
)

var log = zerolog.Nop()

type LogLevel int8

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

type LogEvent struct {
	*zerolog.Event
}

func (e *LogEvent) Msg(msg string) {
	e.Event.Msg(msg)
}

func (e *LogEvent) Send() {
	e.Event.Send()
}

// Init initializes the logger based on the given configuration
func Init(debug, verbose, isService bool) {
	InitWithWriter(os.Stdout, debug, verbose, isService)
}

// InitWithWriter is Init with an explicit destination
func InitWithWriter(out io.Writer, debug, verbose, isService bool) {
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
	}

	if isService {
		output.TimeFormat = ""
		output.FormatTimestamp = func(_ interface{}) string {
			return ""
		}
	}

	log = zerolog.New(output).With().Timestamp().Logger()

	SetLogLevel(WarnLevel) // Default log level

	if debug {
		SetLogLevel(DebugLevel)
	} else if verbose {
		SetLogLevel(InfoLevel)
	}
}

// SetLogLevel sets the global log level
func SetLogLevel(level LogLevel) {
	zerolog.SetGlobalLevel(zerolog.Level(level))
}

// ParseLevel maps a configured level name to a LogLevel
func ParseLevel(name string) (LogLevel, bool) {
	switch name {
	case "debug":
		return DebugLevel, true
	case "info":
		return InfoLevel, true
	case "warn", "warning":
		return WarnLevel, true
	case "error":
		return ErrorLevel, true
	default:
		return WarnLevel, false
	}
}

// Debug logs a debug message
func Debug() *LogEvent {
	return &LogEvent{log.Debug()}
}

// Info logs an info message
func Info() *LogEvent {
	return &LogEvent{log.Info()}
}

// Warn logs a warning message
func Warn() *LogEvent {
	return &LogEvent{log.Warn()}
}

// Error logs an error message
func Error() *LogEvent {
	return &LogEvent{log.Error()}
}

// ErrorWithCode logs an error message with a specific error code
func ErrorWithCode(err errors.Error) *LogEvent {
	return withCode(log.Error(), err)
}

// Fatal logs a fatal message and exits the program
func Fatal() *LogEvent {
	return &LogEvent{log.Fatal()}
}

// FatalWithCode logs a fatal message with a specific error code and exits the program
func FatalWithCode(err errors.Error) *LogEvent {
	return withCode(log.Fatal(), err)
}

func withCode(e *zerolog.Event, err errors.Error) *LogEvent {
	return &LogEvent{e.
		Str("error_code", string(err.Code())).
		Str("error_message", err.Error()).
		AnErr("error", err.Unwrap())}
}

// Logger is the injectable form of the package-level functions. Components
// receive one tagged with their name through With.
type Logger interface {
	Debug() *LogEvent
	Info() *LogEvent
	Warn() *LogEvent
	Error() *LogEvent
	ErrorWithCode(err errors.Error) *LogEvent
	With(component string) Logger
}

// Default returns a Logger backed by the package-level logger.
func Default() Logger {
	return &componentLogger{}
}

// New wraps an arbitrary zerolog logger, mostly for tests.
func New(zl zerolog.Logger) Logger {
	return &componentLogger{zl: &zl}
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return New(zerolog.Nop())
}

type componentLogger struct {
	zl        *zerolog.Logger
	component string
}

func (l *componentLogger) base() *zerolog.Logger {
	if l.zl != nil {
		return l.zl
	}
	return &log
}

func (l *componentLogger) event(e *zerolog.Event) *LogEvent {
	if l.component != "" {
		e = e.Str("component", l.component)
	}
	return &LogEvent{e}
}

func (l *componentLogger) Debug() *LogEvent { return l.event(l.base().Debug()) }
func (l *componentLogger) Info() *LogEvent  { return l.event(l.base().Info()) }
func (l *componentLogger) Warn() *LogEvent  { return l.event(l.base().Warn()) }
func (l *componentLogger) Error() *LogEvent { return l.event(l.base().Error()) }

func (l *componentLogger) ErrorWithCode(err errors.Error) *LogEvent {
	ev := withCode(l.base().Error(), err)
	return l.event(ev.Event)
}

func (l *componentLogger) With(component string) Logger {
	return &componentLogger{zl: l.zl, component: component}
}
