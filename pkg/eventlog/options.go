package eventlog

import (
	"log/slog"
	"time"
)

const (
	defaultCapacity      = 1000
	defaultFlushInterval = 5 * time.Second
	defaultBatchSize     = 100
	defaultMaxFailures   = 5
	defaultFlushTimeout  = 10 * time.Second
)

// LoggerOption configures a Logger.
type LoggerOption func(*Logger)

// WithCapacity bounds the in-memory buffer. Defaults to 1000 entries.
func WithCapacity(capacity int) LoggerOption {
	return func(l *Logger) {
		if capacity > 0 {
			l.capacity = capacity
		}
	}
}

// WithFlushInterval sets the periodic flush interval. Defaults to 5s.
func WithFlushInterval(interval time.Duration) LoggerOption {
	return func(l *Logger) {
		if interval > 0 {
			l.interval = interval
		}
	}
}

// WithBatchSize caps how many entries one flush submits. Defaults to 100.
func WithBatchSize(size int) LoggerOption {
	return func(l *Logger) {
		if size > 0 {
			l.batchSize = size
		}
	}
}

// WithMaxFailures sets the consecutive-failure bound of the circuit
// breaker. Once exceeded the flush timer stops until the next Log call.
// Defaults to 5.
func WithMaxFailures(n int) LoggerOption {
	return func(l *Logger) {
		if n > 0 {
			l.maxFailures = n
		}
	}
}

// WithFlushTimeout bounds a single batch submission. Defaults to 10s.
func WithFlushTimeout(timeout time.Duration) LoggerOption {
	return func(l *Logger) {
		if timeout > 0 {
			l.flushTimeout = timeout
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) LoggerOption {
	return func(l *Logger) {
		if logger != nil {
			l.logger = logger
		}
	}
}
