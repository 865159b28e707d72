// Package throttle bounds the instantaneous rate of one ongoing transfer
// using a 1-second accounting window. The window is a rolling reset, not a
// true sliding average: record long enough and it starts over, so a short
// burst right after a reset slips under the cap. That imprecision is the
// accepted trade for never blocking unless measurably ahead of schedule.
package throttle

import "time"

const window = time.Second

// Limiter tracks bytes moved by a single transfer call. It is owned
// exclusively by that call: per file for single-file operations, shared
// across the files of one directory copy, never shared across operations.
type Limiter struct {
	bytesPerSecond uint64
	windowStart    time.Time
	windowBytes    uint64
	totalBytes     uint64
	lastDecile     int
}

// New returns a limiter targeting bps bytes per second. A zero target
// disables throttling entirely; Record keeps counting so rate queries stay
// informative, but Apply never sleeps.
func New(bps uint64) *Limiter {
	return &Limiter{
		bytesPerSecond: bps,
		windowStart:    time.Now(),
	}
}

func (l *Limiter) Enabled() bool {
	return l.bytesPerSecond > 0
}

// Limit returns the target in bytes per second, zero when disabled.
func (l *Limiter) Limit() uint64 {
	return l.bytesPerSecond
}

// Total returns the lifetime byte count recorded by this limiter.
func (l *Limiter) Total() uint64 {
	return l.totalBytes
}

// CurrentRate reports bytes per second since the last window reset. Purely
// informational; works whether or not throttling is enabled.
func (l *Limiter) CurrentRate() float64 {
	elapsed := time.Since(l.windowStart).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(l.windowBytes) / elapsed
}

// Record counts n bytes against the current window and the lifetime total,
// rolling the window over once it has been open for a full second.
func (l *Limiter) Record(n uint64) {
	l.windowBytes += n
	l.totalBytes += n

	if time.Since(l.windowStart) >= window {
		l.windowStart = time.Now()
		l.windowBytes = 0
	}
}

// Apply sleeps just long enough to bring the current window back on
// schedule, then resets the window. No-op when disabled or on schedule.
func (l *Limiter) Apply() {
	if l.bytesPerSecond == 0 {
		return
	}

	ideal := time.Duration(float64(l.windowBytes) / float64(l.bytesPerSecond) * float64(time.Second))
	elapsed := time.Since(l.windowStart)

	if elapsed < ideal {
		time.Sleep(ideal - elapsed)
		l.windowStart = time.Now()
		l.windowBytes = 0
	}
}

// Chunk is the unit transfer primitives call after writing each chunk. It
// records the chunk and applies the cap. For transfers larger than ten
// seconds of data at the target rate it re-applies once per newly crossed
// 10%-of-total boundary, tracked with a decile counter so boundaries are
// never missed or double-fired.
func (l *Limiter) Chunk(n int, total uint64) {
	l.Record(uint64(n))
	l.Apply()

	if l.bytesPerSecond == 0 || total <= l.bytesPerSecond*10 {
		return
	}

	decile := int(float64(l.totalBytes) / float64(total) * 10)
	if decile > l.lastDecile {
		l.lastDecile = decile
		l.Apply()
	}
}
