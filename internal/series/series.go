// Package series provides bounded, FIFO-evicting time series.
//
// A Record holds the timestamp, speed and altitude series of the tracked
// satellite. The three series always have the same length: every Append adds
// one element to each and, once the capacity is exceeded, evicts the oldest
// element from each. Readers take a Snapshot, which is a copy and never
// observes a partially applied Append.
package series

import (
	"sync"

	"github.com/gammazero/deque"
)

// DefaultCapacity is the number of samples kept per series unless configured otherwise.
const DefaultCapacity = 20

// Config holds series configuration.
type Config struct {
	Capacity int // Max samples per series (default: 20).
}

// Series is an ordered sequence of values bounded to a fixed capacity.
// Pushing past capacity evicts the oldest value. Not safe for concurrent use;
// Record provides the locking.
type Series[T any] struct {
	values   deque.Deque[T]
	capacity int
}

// NewSeries creates an empty series holding at most capacity values.
// A non-positive capacity falls back to DefaultCapacity.
func NewSeries[T any](capacity int) *Series[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Series[T]{capacity: capacity}
}

// Push appends v and reports whether an old value was evicted.
func (s *Series[T]) Push(v T) bool {
	s.values.PushBack(v)
	if s.values.Len() > s.capacity {
		s.values.PopFront()
		return true
	}
	return false
}

// Len returns the number of values currently held.
func (s *Series[T]) Len() int {
	return s.values.Len()
}

// Capacity returns the maximum number of values held.
func (s *Series[T]) Capacity() int {
	return s.capacity
}

// Values returns a copy of the held values, oldest first.
func (s *Series[T]) Values() []T {
	out := make([]T, s.values.Len())
	for i := range out {
		out[i] = s.values.At(i)
	}
	return out
}

// Record is the parallel-series record: one timestamp series and two value
// series evicted in lockstep. Safe for concurrent use.
type Record struct {
	mu       sync.RWMutex
	times    *Series[int64]
	speed    *Series[float64]
	altitude *Series[float64]

	appends   int64
	evictions int64
}

// NewRecord creates an empty record with the configured capacity.
func NewRecord(cfg Config) *Record {
	return &Record{
		times:    NewSeries[int64](cfg.Capacity),
		speed:    NewSeries[float64](cfg.Capacity),
		altitude: NewSeries[float64](cfg.Capacity),
	}
}

// Append adds one sample to each series. timestamp is in epoch milliseconds.
// Values are stored as given; NaN is accepted.
func (r *Record) Append(timestamp int64, speed, altitude float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := r.times.Push(timestamp)
	r.speed.Push(speed)
	r.altitude.Push(altitude)

	r.appends++
	if evicted {
		r.evictions++
	}
}

// Snapshot returns a consistent copy of all three series.
func (r *Record) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return Snapshot{
		Times:    r.times.Values(),
		Speed:    r.speed.Values(),
		Altitude: r.altitude.Values(),
	}
}

// Len returns the current length shared by all three series.
func (r *Record) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.times.Len()
}

// Capacity returns the configured capacity.
func (r *Record) Capacity() int {
	return r.times.Capacity()
}

// Stats returns lifetime append and eviction counts.
func (r *Record) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Stats{
		Length:    r.times.Len(),
		Capacity:  r.times.Capacity(),
		Appends:   r.appends,
		Evictions: r.evictions,
	}
}

// Stats holds record statistics.
type Stats struct {
	Length    int
	Capacity  int
	Appends   int64
	Evictions int64
}
