/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package trace is jcvm's logging front-end. It keeps the teacher's call
// shape -- Trace/Error/Warning one-liners sprinkled through the
// interpreter and classloader -- but backs them with a structured
// github.com/rs/zerolog logger instead of a raw fmt.Fprintf to stderr, so
// every call site emits a leveled, timestamped, component-tagged event.
package trace

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Level gates which calls actually reach the sink. It purposely mirrors
// the granularity the teacher's own log package exposes (SEVERE down to
// FINEST) rather than zerolog's default level set.
type Level int

const (
	SEVERE Level = iota
	WARNING
	INFO
	CONFIG
	FINE
	FINER
	FINEST
	TRACE_INST // per-instruction tracing, noisiest level
)

var levelNames = map[Level]string{
	SEVERE: "SEVERE", WARNING: "WARNING", INFO: "INFO", CONFIG: "CONFIG",
	FINE: "FINE", FINER: "FINER", FINEST: "FINEST", TRACE_INST: "TRACE_INST",
}

var (
	mu         sync.RWMutex
	logger     zerolog.Logger
	minLevel   = WARNING
	jsonOutput = false
)

// Init wires the package-global logger. humanReadable selects a
// console writer (for interactive use); when false, events are emitted as
// JSON lines, for log aggregation by an external collector.
func Init(level Level, humanReadable bool) {
	mu.Lock()
	defer mu.Unlock()
	minLevel = level
	jsonOutput = !humanReadable

	var w io.Writer = os.Stderr
	if humanReadable {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"}
	}
	logger = zerolog.New(w).With().Timestamp().Logger()
}

func init() {
	// Sensible default so packages that log before main() calls Init
	// (tests, in particular) don't panic on a zero-value logger.
	Init(WARNING, true)
}

// SetLevel changes the minimum level that reaches the sink, without
// otherwise reconfiguring the writer. Exposed so the launcher (main's
// SetLogLevel) can adjust verbosity after Init has already run.
func SetLevel(level Level) {
	mu.Lock()
	defer mu.Unlock()
	minLevel = level
}

func emit(level Level, msg string) {
	mu.RLock()
	cur := minLevel
	l := logger
	mu.RUnlock()
	if level > cur {
		return
	}
	ev := l.Log().Str("level", levelNames[level])
	ev.Msg(msg)
}

// Trace logs at FINE -- the teacher's default call for "something
// happened, here's what" informational messages.
func Trace(msg string) { emit(FINE, msg) }

// Error logs at SEVERE.
func Error(msg string) { emit(SEVERE, msg) }

// Warning logs at WARNING.
func Warning(msg string) { emit(WARNING, msg) }

// Log is the general entry point used by code that already carries an
// explicit level (mirrors the teacher's log.Log(msg, log.FINE) call
// shape). It returns an error for symmetry with the teacher's signature,
// always nil -- logging is not a failure mode.
func Log(msg string, level Level) error {
	emit(level, msg)
	return nil
}
