package buffer

import (
	"sync"
	"sync/atomic"
	"time"
)

// Statistics tracks buffer activity. Counters are updated atomically and may
// be read at any time without touching the buffer's lock.
type Statistics struct {
	pushes     atomic.Int64
	pops       atomic.Int64
	peeks      atomic.Int64
	rejections atomic.Int64 // TryPush on a full buffer
	misses     atomic.Int64 // TryPop on an empty buffer
	timeouts   atomic.Int64
	clears     atomic.Int64
	cleared    atomic.Int64

	mu          sync.RWMutex
	startTime   time.Time
	currentSize int64
	maxSize     int64
}

// NewStatistics creates a new statistics tracker.
func NewStatistics() *Statistics {
	return &Statistics{
		startTime: time.Now(),
	}
}

// Push records an accepted value.
func (s *Statistics) Push() { s.pushes.Add(1) }

// Pop records a removed value.
func (s *Statistics) Pop() { s.pops.Add(1) }

// Peek records a peek.
func (s *Statistics) Peek() { s.peeks.Add(1) }

// Reject records a non-blocking push that found the buffer full.
func (s *Statistics) Reject() { s.rejections.Add(1) }

// Miss records a non-blocking pop that found the buffer empty.
func (s *Statistics) Miss() { s.misses.Add(1) }

// Timeout records a timed push or pop that gave up.
func (s *Statistics) Timeout() { s.timeouts.Add(1) }

// Clear records a Clear call that discarded n values.
func (s *Statistics) Clear(n int64) {
	s.clears.Add(1)
	s.cleared.Add(n)
}

// UpdateSize updates the current size and the high-water mark.
func (s *Statistics) UpdateSize(size int64) {
	s.mu.Lock()
	s.currentSize = size
	if size > s.maxSize {
		s.maxSize = size
	}
	s.mu.Unlock()
}

// Pushes returns the number of accepted values.
func (s *Statistics) Pushes() int64 { return s.pushes.Load() }

// Pops returns the number of removed values.
func (s *Statistics) Pops() int64 { return s.pops.Load() }

// Peeks returns the number of successful peeks.
func (s *Statistics) Peeks() int64 { return s.peeks.Load() }

// Rejections returns the number of TryPush calls refused on a full buffer.
func (s *Statistics) Rejections() int64 { return s.rejections.Load() }

// Misses returns the number of TryPop calls that found nothing.
func (s *Statistics) Misses() int64 { return s.misses.Load() }

// Timeouts returns the number of timed operations that expired.
func (s *Statistics) Timeouts() int64 { return s.timeouts.Load() }

// Clears returns the number of Clear calls.
func (s *Statistics) Clears() int64 { return s.clears.Load() }

// Cleared returns the number of values discarded by Clear.
func (s *Statistics) Cleared() int64 { return s.cleared.Load() }

// CurrentSize returns the size recorded by the last mutation.
func (s *Statistics) CurrentSize() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentSize
}

// MaxSize returns the largest size the buffer has reached.
func (s *Statistics) MaxSize() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxSize
}

// Uptime returns the time since the statistics were created or reset.
func (s *Statistics) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Since(s.startTime)
}

// Throughput returns accepted values per second.
func (s *Statistics) Throughput() float64 {
	elapsed := s.Uptime()
	if elapsed <= 0 {
		return 0.0
	}
	return float64(s.Pushes()) / elapsed.Seconds()
}

// PopThroughput returns removed values per second.
func (s *Statistics) PopThroughput() float64 {
	elapsed := s.Uptime()
	if elapsed <= 0 {
		return 0.0
	}
	return float64(s.Pops()) / elapsed.Seconds()
}

// Utilization returns the current fill ratio (0.0 to 1.0).
func (s *Statistics) Utilization(capacity int64) float64 {
	if capacity == 0 {
		return 0.0
	}
	return float64(s.CurrentSize()) / float64(capacity)
}

// Reset zeroes all counters and restarts the uptime clock. The current size
// is kept since it describes the buffer, not its history.
func (s *Statistics) Reset() {
	s.pushes.Store(0)
	s.pops.Store(0)
	s.peeks.Store(0)
	s.rejections.Store(0)
	s.misses.Store(0)
	s.timeouts.Store(0)
	s.clears.Store(0)
	s.cleared.Store(0)

	s.mu.Lock()
	s.startTime = time.Now()
	s.maxSize = s.currentSize
	s.mu.Unlock()
}

// StatsSummary is a point-in-time copy of Statistics.
type StatsSummary struct {
	Pushes        int64         `json:"pushes"`
	Pops          int64         `json:"pops"`
	Peeks         int64         `json:"peeks"`
	Rejections    int64         `json:"rejections"`
	Misses        int64         `json:"misses"`
	Timeouts      int64         `json:"timeouts"`
	Clears        int64         `json:"clears"`
	Cleared       int64         `json:"cleared"`
	CurrentSize   int64         `json:"current_size"`
	MaxSize       int64         `json:"max_size"`
	Throughput    float64       `json:"throughput"`
	PopThroughput float64       `json:"pop_throughput"`
	Uptime        time.Duration `json:"uptime"`
}

// Summary returns a snapshot of all statistics.
func (s *Statistics) Summary() StatsSummary {
	return StatsSummary{
		Pushes:        s.Pushes(),
		Pops:          s.Pops(),
		Peeks:         s.Peeks(),
		Rejections:    s.Rejections(),
		Misses:        s.Misses(),
		Timeouts:      s.Timeouts(),
		Clears:        s.Clears(),
		Cleared:       s.Cleared(),
		CurrentSize:   s.CurrentSize(),
		MaxSize:       s.MaxSize(),
		Throughput:    s.Throughput(),
		PopThroughput: s.PopThroughput(),
		Uptime:        s.Uptime(),
	}
}
