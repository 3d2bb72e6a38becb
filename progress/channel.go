// Package progress implements the cross-thread progress channel: a
// monotonic shared counter in [0, total] mutated by the downloader and
// polled by the splash UI, plus a one-shot transition notification and a
// single-producer/single-consumer event channel for state messages.
package progress

import "sync/atomic"

// Status mirrors the splash script's ${status} placeholder values.
type Status int

const (
	StatusIdle Status = iota
	StatusDownloading
	StatusStarting
)

func (s Status) String() string {
	switch s {
	case StatusDownloading:
		return "Downloading"
	case StatusStarting:
		return "Starting"
	default:
		return ""
	}
}

// Counter is a monotonic, multi-reader single-writer progress counter in
// [0, total]. committed tracks bytes from fully-finished artifacts;
// inFlight tracks the current artifact's in-progress chunk accumulation.
// Splitting the two matches the fan-in rule in spec §4.4: the UI recomputes
// (committed + in_flight) / total on every poll. The zero value is not
// ready for use; construct with New.
type Counter struct {
	committed int64
	inFlight  int64
	total     int64
	started   atomic.Bool
	onStart   chan struct{}
}

// New creates a Counter bounded by total. total of 0 means "unknown total";
// Fraction then always reports 0 until total is set via SetTotal.
func New(total uint64) *Counter {
	return &Counter{total: int64(total), onStart: make(chan struct{})}
}

// SetTotal sets the denominator once the batch size is known (download
// totals are computed after the descriptor is parsed).
func (c *Counter) SetTotal(total uint64) {
	atomic.StoreInt64(&c.total, int64(total))
}

// Add accumulates delta bytes of in-flight progress for the artifact
// currently being streamed. The first call signals the one-shot start
// notification (see Started).
func (c *Counter) Add(delta uint64) {
	atomic.AddInt64(&c.inFlight, int64(delta))
	if c.started.CompareAndSwap(false, true) {
		close(c.onStart)
	}
}

// CommitArtifact folds the current in-flight accumulation into committed
// and resets in-flight to zero, advancing the counter by the artifact's
// declared size (rather than the raw bytes streamed, which may include a
// short final chunk read past EOF) so the counter stays exactly monotonic
// across a batch.
func (c *Counter) CommitArtifact(size uint64) {
	atomic.StoreInt64(&c.inFlight, 0)
	atomic.AddInt64(&c.committed, int64(size))
}

// Started returns a channel that is closed exactly once, the first time Add
// is called: the uninitialized-to-in-progress transition the UI needs a
// one-shot notification for. Safe to call Started multiple times; every
// caller observes the same close.
func (c *Counter) Started() <-chan struct{} {
	return c.onStart
}

// Fraction returns (committed+in_flight)/total clamped to [0, 1]. Returns 0
// if total is unset (0) or not yet known.
func (c *Counter) Fraction() float64 {
	total := atomic.LoadInt64(&c.total)
	if total <= 0 {
		return 0
	}
	progressed := atomic.LoadInt64(&c.committed) + atomic.LoadInt64(&c.inFlight)
	frac := float64(progressed) / float64(total)
	if frac > 1 {
		return 1
	}
	if frac < 0 {
		return 0
	}
	return frac
}

// Event is a single message carried over the single-producer/single-
// consumer channel from the launcher worker to the splash UI thread.
type Event struct {
	Kind    EventKind
	Status  Status
	Err     error
	Splash  string // splash directory, valid for EventSplashReady
}

type EventKind int

const (
	EventStatusChanged EventKind = iota
	EventSplashReady
	EventDownloadDone
	EventError
)

// Channel is the single-producer/single-consumer event channel. The
// launcher worker is the sole producer; the splash UI's event loop is the
// sole consumer.
type Channel chan Event

// NewChannel creates a buffered Channel large enough that the worker never
// blocks on a slow-to-start UI loop.
func NewChannel() Channel {
	return make(Channel, 16)
}
