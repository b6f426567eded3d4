// Package logging is a thin wrapper around log/slog with two output
// modes: plain text for CLI runs, and a channel of structured entries
// for the terminal UI (which owns the screen and cannot share stderr).
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

// LogLevel defines the severity of a log entry.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// SlogLevel maps the level onto the slog scale.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogEntry is one structured entry as delivered to the TUI channel.
type LogEntry struct {
	Timestamp time.Time
	Level     LogLevel
	Subsystem string
	Message   string
	Err       error
}

var (
	defaultLogger *slog.Logger
	tuiChannel    chan LogEntry
	tuiMode       bool
	filterLevel   LogLevel
)

const tuiChannelBufferSize = 2048

// InitForCLI routes log output as slog text lines to out. Call once at
// startup.
func InitForCLI(level LogLevel, out io.Writer) {
	tuiMode = false
	filterLevel = level
	defaultLogger = slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: level.SlogLevel(),
	}))
	slog.SetDefault(defaultLogger)
}

// InitForTUI routes log output into a buffered channel and returns it.
// The TUI drains the channel; entries block only when the buffer fills.
func InitForTUI(level LogLevel) <-chan LogEntry {
	tuiMode = true
	filterLevel = level
	tuiChannel = make(chan LogEntry, tuiChannelBufferSize)
	return tuiChannel
}

// CloseTUIChannel closes the TUI channel on shutdown.
func CloseTUIChannel() {
	if tuiChannel != nil {
		close(tuiChannel)
	}
}

func logInternal(level LogLevel, subsystem string, err error, messageFmt string, args ...any) {
	msg := messageFmt
	if len(args) > 0 {
		msg = fmt.Sprintf(messageFmt, args...)
	}

	if tuiMode {
		if level < filterLevel || tuiChannel == nil {
			return
		}
		tuiChannel <- LogEntry{
			Timestamp: time.Now(),
			Level:     level,
			Subsystem: subsystem,
			Message:   msg,
			Err:       err,
		}
		return
	}

	if defaultLogger == nil {
		fmt.Fprintf(os.Stderr, "[%s] %s: %s\n", level, subsystem, msg)
		return
	}
	attrs := []slog.Attr{slog.String("subsystem", subsystem)}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	defaultLogger.LogAttrs(context.Background(), level.SlogLevel(), msg, attrs...)
}

// Debug logs a debug message.
func Debug(subsystem string, messageFmt string, args ...any) {
	logInternal(LevelDebug, subsystem, nil, messageFmt, args...)
}

// Info logs an informational message.
func Info(subsystem string, messageFmt string, args ...any) {
	logInternal(LevelInfo, subsystem, nil, messageFmt, args...)
}

// Warn logs a warning message.
func Warn(subsystem string, messageFmt string, args ...any) {
	logInternal(LevelWarn, subsystem, nil, messageFmt, args...)
}

// Error logs an error message with its cause.
func Error(subsystem string, err error, messageFmt string, args ...any) {
	logInternal(LevelError, subsystem, err, messageFmt, args...)
}
