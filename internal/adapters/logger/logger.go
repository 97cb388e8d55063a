// Package logger implements ports.Logger on log/slog.
package logger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/travetto/travetto-sub016/internal/core/ports"
)

var _ ports.Logger = (*Logger)(nil)

// messager is implemented by zerr errors: the message without the chain.
type messager interface {
	Message() string
}

// metadataCarrier is implemented by zerr errors carrying With metadata.
type metadataCarrier interface {
	Metadata() map[string]any
}

// Logger implements ports.Logger with a pretty or JSON slog handler.
type Logger struct {
	mu       sync.RWMutex
	logger   *slog.Logger
	level    *slog.LevelVar
	jsonMode bool
	output   io.Writer
}

// New creates a Logger writing pretty lines to stderr at info level.
func New() *Logger {
	l := &Logger{level: &slog.LevelVar{}, output: os.Stderr}
	l.rebuild()
	return l
}

// SetOutput redirects the logger. A nil w writes to stderr.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if w == nil {
		w = os.Stderr
	}
	l.output = w
	l.rebuild()
}

// SetJSON switches between JSON and pretty output.
func (l *Logger) SetJSON(enable bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.jsonMode = enable
	l.rebuild()
}

// SetVerbose enables debug records.
func (l *Logger) SetVerbose(enable bool) {
	if enable {
		l.level.Set(slog.LevelDebug)
	} else {
		l.level.Set(slog.LevelInfo)
	}
}

// Slog returns the underlying slog logger.
func (l *Logger) Slog() *slog.Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.logger
}

// rebuild swaps the handler. Callers hold l.mu.
func (l *Logger) rebuild() {
	opts := &slog.HandlerOptions{Level: l.level}
	if l.jsonMode {
		l.logger = slog.New(slog.NewJSONHandler(l.output, opts))
		return
	}
	l.logger = slog.New(NewPrettyHandler(l.output, opts))
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Debug(msg)
}

// Info logs an informational message.
func (l *Logger) Info(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Info(msg)
}

// Warn logs a warning.
func (l *Logger) Warn(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Warn(msg)
}

// Error logs err with its cause chain. Errors joined at the top level are
// reported one after the other.
func (l *Logger) Error(err error) {
	if err == nil {
		return
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.jsonMode {
		l.logger.Error("operation failed", "error", err)
		return
	}

	errs := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok && !isMessager(err) {
		errs = joined.Unwrap()
	}
	blocks := make([]string, 0, len(errs))
	for _, e := range errs {
		blocks = append(blocks, formatErrorEntries(collectErrorEntries(e)))
	}
	l.logger.Error(strings.Join(blocks, "\n"))
}

type errorEntry struct {
	message  string
	metadata map[string]any
}

// collectErrorEntries walks a zerr chain. A non-zerr error ends the chain
// with its full message.
func collectErrorEntries(err error) []errorEntry {
	var entries []errorEntry
	for current := err; current != nil; {
		m, ok := current.(messager)
		if !ok {
			entries = append(entries, errorEntry{message: current.Error()})
			break
		}
		entry := errorEntry{message: m.Message()}
		if mc, ok := current.(metadataCarrier); ok {
			entry.metadata = mc.Metadata()
		}
		entries = append(entries, entry)
		current = errors.Unwrap(current)
	}
	return entries
}

// formatErrorEntries renders:
//
//	Error: first
//	       key: value
//
//	  Caused by:
//	    → second
//	      key: value
func formatErrorEntries(entries []errorEntry) string {
	var lines []string
	for i, entry := range entries {
		head, indent := "Error: ", "       "
		if i > 0 {
			head, indent = "    → ", "      "
			if i == 1 {
				lines = append(lines, "", "  Caused by:")
			}
		}

		msgLines := strings.Split(entry.message, "\n")
		lines = append(lines, head+msgLines[0])
		for _, line := range msgLines[1:] {
			lines = append(lines, indent+line)
		}
		for _, key := range slices.Sorted(maps.Keys(entry.metadata)) {
			lines = append(lines, fmt.Sprintf("%s%s: %v", indent, key, entry.metadata[key]))
		}
	}
	return strings.Join(lines, "\n")
}

func isMessager(err error) bool {
	_, ok := err.(messager)
	return ok
}
