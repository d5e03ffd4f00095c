// Package logging provides the process-wide diagnostic toggle and the
// pluggable sink that diagnostic lines are routed to.
//
// Logging is disabled by default. When disabled, [Logf] returns before
// formatting its arguments, so call sites can log freely on hot paths.
package logging

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Prefix is prepended to every diagnostic line.
const Prefix = "[embedview] "

// Sink receives formatted diagnostic lines.
// Implementations must be safe for concurrent use; lines arrive from the
// dispatch thread and from native callback threads.
type Sink interface {
	HandleLog(line string)
}

// SinkFunc adapts a function to the [Sink] interface.
type SinkFunc func(line string)

// HandleLog calls f(line).
func (f SinkFunc) HandleLog(line string) {
	f(line)
}

var (
	enabled atomic.Bool

	sinkMu sync.RWMutex
	sink   Sink

	defaultOnce sync.Once
	defaultSink Sink
)

// SetEnabled turns diagnostic logging on or off for the whole process.
func SetEnabled(on bool) {
	enabled.Store(on)
}

// Enabled reports whether diagnostic logging is on.
func Enabled() bool {
	return enabled.Load()
}

// SetSink registers the sink that receives diagnostic lines.
// Pass nil to restore the default zap-backed sink.
func SetSink(s Sink) {
	sinkMu.Lock()
	sink = s
	sinkMu.Unlock()
}

// currentSink returns the registered sink or the lazily built default.
func currentSink() Sink {
	sinkMu.RLock()
	s := sink
	sinkMu.RUnlock()
	if s != nil {
		return s
	}
	defaultOnce.Do(func() {
		defaultSink = NewZapSink(newStderrLogger())
	})
	return defaultSink
}

// Logf formats a diagnostic line and hands it to the current sink.
// It does nothing when logging is disabled.
func Logf(format string, args ...any) {
	if !enabled.Load() {
		return
	}
	Write(fmt.Sprintf(format, args...))
}

// Write hands an already formatted line to the current sink, regardless of
// the enabled flag. Error reporting uses it so failures are never dropped.
func Write(line string) {
	currentSink().HandleLog(Prefix + line)
}

// zapSink forwards lines to a zap logger at debug level.
type zapSink struct {
	logger *zap.Logger
}

// NewZapSink adapts a zap logger to the [Sink] interface.
// A nil logger yields a sink that discards everything.
func NewZapSink(l *zap.Logger) Sink {
	if l == nil {
		l = zap.NewNop()
	}
	return &zapSink{logger: l}
}

func (s *zapSink) HandleLog(line string) {
	s.logger.Debug(line)
}

func newStderrLogger() *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	cfg.DisableCaller = true
	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}
