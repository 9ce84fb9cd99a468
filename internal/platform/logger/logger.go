// Package logger provides structured logging for the observer core.
// Every state transition and narrative call should be traceable through this.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Logger provides leveled logging with an optional component tag.
type Logger struct {
	component   string
	infoLogger  *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
}

// NewLogger creates a logger writing info/warn to stdout and errors to stderr.
func NewLogger() *Logger {
	return newLogger(os.Stdout, os.Stderr, "")
}

// NewLoggerTo sends every level to w. Useful in tests and the CLI.
func NewLoggerTo(w io.Writer) *Logger {
	return newLogger(w, w, "")
}

func newLogger(out, errOut io.Writer, component string) *Logger {
	flags := log.Ldate | log.Ltime | log.Lmicroseconds
	return &Logger{
		component:   component,
		infoLogger:  log.New(out, "[OBSERVER-INFO] ", flags),
		warnLogger:  log.New(out, "[OBSERVER-WARN] ", flags),
		errorLogger: log.New(errOut, "[OBSERVER-ERROR] ", flags),
	}
}

// Named returns a logger that tags every line with component.
func (l *Logger) Named(component string) *Logger {
	return &Logger{
		component:   component,
		infoLogger:  l.infoLogger,
		warnLogger:  l.warnLogger,
		errorLogger: l.errorLogger,
	}
}

func (l *Logger) line(msg string) string {
	if l.component == "" {
		return msg
	}
	return "(" + l.component + ") " + msg
}

// Info logs informational messages.
func (l *Logger) Info(msg string) {
	l.infoLogger.Println(l.line(msg))
}

// Infof logs a formatted informational message.
func (l *Logger) Infof(format string, args ...any) {
	l.Info(fmt.Sprintf(format, args...))
}

// Warn logs warning messages.
func (l *Logger) Warn(msg string) {
	l.warnLogger.Println(l.line(msg))
}

// Warnf logs a formatted warning.
func (l *Logger) Warnf(format string, args ...any) {
	l.Warn(fmt.Sprintf(format, args...))
}

// Error logs error messages.
func (l *Logger) Error(msg string) {
	l.errorLogger.Println(l.line(msg))
}

// Errorf logs a formatted error.
func (l *Logger) Errorf(format string, args ...any) {
	l.Error(fmt.Sprintf(format, args...))
}

// Event logs a domain event for audit.
func (l *Logger) Event(eventType string, actorID string, details string) {
	l.infoLogger.Printf("%s", l.line(fmt.Sprintf("[EVENT:%s] Actor:%s | %s", eventType, actorID, details)))
}
