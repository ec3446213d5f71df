package eventlog

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Sender submits one batch of entries to the backend. A nil error means the
// whole batch was acknowledged.
type Sender interface {
	SendBatch(ctx context.Context, entries []Entry) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, entries []Entry) error

// SendBatch calls f.
func (f SenderFunc) SendBatch(ctx context.Context, entries []Entry) error {
	return f(ctx, entries)
}

// ErrSenderNil indicates a logger was constructed without a sender.
var ErrSenderNil = errors.New("event sender is nil")

// Logger buffers events and flushes them in batches on a periodic timer.
// The zero value is not usable; use NewLogger.
type Logger struct {
	buf    *Buffer
	sender Sender

	capacity     int
	interval     time.Duration
	batchSize    int
	maxFailures  int
	flushTimeout time.Duration
	logger       *slog.Logger

	mu       sync.Mutex
	running  bool
	failures int
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewLogger creates a logger flushing through sender. The flush timer is
// armed lazily on the first Log call.
func NewLogger(sender Sender, opts ...LoggerOption) (*Logger, error) {
	if sender == nil {
		return nil, ErrSenderNil
	}

	l := &Logger{
		sender:       sender,
		capacity:     defaultCapacity,
		interval:     defaultFlushInterval,
		batchSize:    defaultBatchSize,
		maxFailures:  defaultMaxFailures,
		flushTimeout: defaultFlushTimeout,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.buf = NewBuffer(l.capacity)

	return l, nil
}

// Log buffers an event. It never blocks on network I/O and never reports an
// error to the caller: event delivery is best-effort by contract. If no
// flush timer is active, one is armed.
func (l *Logger) Log(e Entry) {
	if l.buf.Append(e) {
		l.logger.Debug("event buffer full, evicted oldest entry")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running {
		l.arm()
	}
}

// Len returns the number of buffered, unflushed events.
func (l *Logger) Len() int {
	return l.buf.Len()
}

// Pending returns a copy of the buffered entries, oldest first.
func (l *Logger) Pending() []Entry {
	return l.buf.Snapshot()
}

// Stop halts the flush timer and clears the buffer deterministically. The
// logger stays usable: the next Log call re-arms the timer. This is the
// shutdown/logout path; buffered events are intentionally dropped so a
// stale timer can never fire against a reset identity.
func (l *Logger) Stop() {
	l.mu.Lock()
	if l.running {
		close(l.stopCh)
		l.running = false
	}
	l.mu.Unlock()

	l.wg.Wait()
	l.buf.Clear()
}

// arm starts the flush loop. Callers must hold l.mu. Arming grants a fresh
// failure budget: the circuit breaker only re-opens after the bound is
// exceeded again.
func (l *Logger) arm() {
	l.running = true
	l.failures = 0
	l.stopCh = make(chan struct{})
	l.wg.Add(1)
	go l.run(l.stopCh)
}

func (l *Logger) run(stop chan struct{}) {
	defer l.wg.Done()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !l.flush() {
				return
			}
		}
	}
}

// flush submits one batch. Returns false when the loop should exit: the
// buffer drained naturally or the circuit breaker tripped.
func (l *Logger) flush() bool {
	batch := l.buf.Peek(l.batchSize)
	if len(batch) == 0 {
		return !l.disarmIfEmpty()
	}

	ctx, cancel := context.WithTimeout(context.Background(), l.flushTimeout)
	err := l.sender.SendBatch(ctx, batch)
	cancel()

	if err != nil {
		// The batch was never removed from the buffer, so a failed
		// submission leaves it at the front in its original order.
		l.mu.Lock()
		l.failures++
		tripped := l.failures > l.maxFailures
		if tripped {
			l.running = false
		}
		failures := l.failures
		l.mu.Unlock()

		l.logger.Warn("event batch flush failed",
			slog.Int("batch_size", len(batch)),
			slog.Int("consecutive_failures", failures),
			slog.Any("error", err))

		if tripped {
			l.logger.Warn("event flush circuit breaker open, timer stopped until next event")
			return false
		}
		return true
	}

	ids := make([]string, len(batch))
	for i, e := range batch {
		ids[i] = e.ID
	}
	l.buf.Remove(ids...)

	l.mu.Lock()
	l.failures = 0
	l.mu.Unlock()

	l.logger.Debug("event batch flushed", slog.Int("batch_size", len(batch)))

	return !l.disarmIfEmpty()
}

// disarmIfEmpty stops the loop when nothing is left to flush. An event
// appended between the emptiness check and the disarm keeps the loop alive,
// so no entry can be stranded without a timer.
func (l *Logger) disarmIfEmpty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.buf.Len() > 0 {
		return false
	}
	l.running = false
	return true
}
