// Package telemetry defines the capability interfaces the server consumes so
// deployments can plug in their own logging and metrics backends.
package telemetry

import (
	"log"
	"time"
)

// Logger is the minimal printf-style surface the server needs.
type Logger interface {
	Printf(format string, args ...any)
}

type stdLogger struct {
	inner *log.Logger
}

func (l stdLogger) Printf(format string, args ...any) {
	l.inner.Printf(format, args...)
}

// StandardLogger exposes the wrapped *log.Logger for callers that need one.
func (l stdLogger) StandardLogger() *log.Logger {
	return l.inner
}

// WrapLogger adapts a standard library logger.
func WrapLogger(inner *log.Logger) Logger {
	if inner == nil {
		inner = log.Default()
	}
	return stdLogger{inner: inner}
}

// Metrics receives the loop's operational measurements.
type Metrics interface {
	RecordTick(duration time.Duration)
	RecordBroadcast(bytes, customers int)
}

type nopMetrics struct{}

func (nopMetrics) RecordTick(time.Duration) {}
func (nopMetrics) RecordBroadcast(int, int) {}

// NopMetrics discards all measurements.
func NopMetrics() Metrics {
	return nopMetrics{}
}
