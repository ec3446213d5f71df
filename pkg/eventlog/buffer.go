package eventlog

import "sync"

// Buffer is a bounded FIFO event buffer. When full, the oldest entries are
// evicted first. Safe for concurrent use.
type Buffer struct {
	mu       sync.Mutex
	entries  []Entry
	capacity int
}

// NewBuffer creates a buffer holding at most capacity entries.
// The capacity must be positive, otherwise it panics.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		panic("event buffer capacity must be positive")
	}
	return &Buffer{
		entries:  make([]Entry, 0, capacity),
		capacity: capacity,
	}
}

// Append adds an entry at the back, evicting the oldest entry when the
// buffer is full. Returns true if an entry was evicted.
func (b *Buffer) Append(e Entry) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	evicted := false
	if len(b.entries) >= b.capacity {
		copy(b.entries, b.entries[1:])
		b.entries = b.entries[:len(b.entries)-1]
		evicted = true
	}
	b.entries = append(b.entries, e)
	return evicted
}

// Peek returns a copy of the oldest n entries without removing them. The
// entries stay buffered while a flush is in flight; Remove takes them out
// only once the backend has acknowledged the batch.
func (b *Buffer) Peek(n int) []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n > len(b.entries) {
		n = len(b.entries)
	}
	if n == 0 {
		return nil
	}
	out := make([]Entry, n)
	copy(out, b.entries[:n])
	return out
}

// Remove deletes entries by identity, preserving the order of the rest.
// Returns how many entries were removed. Entries evicted while a batch was
// in flight are simply not found, which is fine: they are already gone.
func (b *Buffer) Remove(ids ...string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(ids) == 0 {
		return 0
	}

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	kept := b.entries[:0]
	removed := 0
	for _, e := range b.entries {
		if _, ok := drop[e.ID]; ok {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	b.entries = kept
	return removed
}

// Len returns the number of buffered entries.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Clear drops all buffered entries.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = b.entries[:0]
}

// Snapshot returns a copy of all buffered entries, oldest first.
func (b *Buffer) Snapshot() []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	return out
}
