// SPDX-License-Identifier: MIT
//
// Package log is the process-wide leveled logger. Messages below the current
// level are dropped before formatting.
package log

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync/atomic"
)

// LogLevel defines the severity of a log message.
type LogLevel uint32

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// String returns the string representation of the LogLevel.
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
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a string (case-insensitive) to a LogLevel.
// Returns LevelInfo and false if the string is not recognized.
func ParseLevel(levelStr string) (LogLevel, bool) {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "DEBUG":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN", "WARNING":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	case "FATAL":
		return LevelFatal, true
	default:
		return LevelInfo, false
	}
}

var (
	currentLevel atomic.Uint32
	logger       atomic.Pointer[stdlog.Logger]
)

func init() {
	SetOutput(os.Stderr)
	SetLevel(LevelInfo)
}

// SetOutput redirects all log output to w.
func SetOutput(w io.Writer) {
	logger.Store(stdlog.New(w, "", stdlog.Ldate|stdlog.Ltime|stdlog.Lmicroseconds))
}

// SetLevel sets the global logging level atomically.
func SetLevel(level LogLevel) {
	currentLevel.Store(uint32(level))
}

// GetLevel gets the current global logging level atomically.
func GetLevel() LogLevel {
	return LogLevel(currentLevel.Load())
}

func enabled(level LogLevel) bool {
	return level >= GetLevel()
}

// output writes a single line tagged with the level. The tag is padded so
// that messages line up regardless of the level name length.
func output(level LogLevel, msg string) {
	logger.Load().Printf("%-7s %s", "["+level.String()+"]", msg)
}

func Debugf(format string, v ...any) {
	if enabled(LevelDebug) {
		output(LevelDebug, fmt.Sprintf(format, v...))
	}
}

func Infof(format string, v ...any) {
	if enabled(LevelInfo) {
		output(LevelInfo, fmt.Sprintf(format, v...))
	}
}

func Warnf(format string, v ...any) {
	if enabled(LevelWarn) {
		output(LevelWarn, fmt.Sprintf(format, v...))
	}
}

func Errorf(format string, v ...any) {
	if enabled(LevelError) {
		output(LevelError, fmt.Sprintf(format, v...))
	}
}

// Fatalf logs regardless of the current level and exits the process.
func Fatalf(format string, v ...any) {
	output(LevelFatal, fmt.Sprintf(format, v...))
	os.Exit(1)
}

func Debug(v ...any) {
	if enabled(LevelDebug) {
		output(LevelDebug, fmt.Sprint(v...))
	}
}

func Info(v ...any) {
	if enabled(LevelInfo) {
		output(LevelInfo, fmt.Sprint(v...))
	}
}

func Warn(v ...any) {
	if enabled(LevelWarn) {
		output(LevelWarn, fmt.Sprint(v...))
	}
}

func Error(v ...any) {
	if enabled(LevelError) {
		output(LevelError, fmt.Sprint(v...))
	}
}

// Fatal logs regardless of the current level and exits the process.
func Fatal(v ...any) {
	output(LevelFatal, fmt.Sprint(v...))
	os.Exit(1)
}
