// Package eventlog provides the resilient event pipeline that records
// impressions and conversions.
//
// The design goals, in order: never block the caller on network I/O, never
// hold more than a bounded number of unflushed events in memory, and never
// hammer a failing backend indefinitely.
//
// Log appends synchronously to a bounded buffer (oldest entries are evicted
// first under pressure: losing old signal beats unbounded growth). A
// periodic timer drains up to a fixed batch size and submits one batch
// request. Successful submission removes exactly the submitted entries by
// identity, tolerating concurrent appends during the in-flight request; a
// failed submission leaves the batch at the front of the buffer in its
// original order. After a small bound of consecutive failures the timer
// stops entirely rather than retrying forever; it re-arms lazily on the
// next Log call. The timer also stops when the buffer drains naturally, as
// a resource-cleanup measure, and re-arms the same way.
//
// One Logger serves both impression/conversion exposure events and generic
// app events; the only variable is the Sender it flushes through.
package eventlog
