package stats

import (
	"sort"
	"sync"
	"time"
)

// RequestEntry is one completed HTTP request, kept for the dashboard.
type RequestEntry struct {
	Method   string
	Path     string
	Status   int
	Duration time.Duration
	Time     time.Time
}

// Collector tracks request statistics for the running server with
// thread-safe access.
type Collector struct {
	mu sync.RWMutex

	totalRequests int64
	byClass       map[int]int64 // status class (2, 3, 4, 5) -> count
	byRoute       map[string]int64

	// Ring buffer of recent durations for percentile calculations.
	durations  []time.Duration
	maxSamples int

	recent    []RequestEntry
	maxRecent int

	startTime time.Time
}

// Snapshot is a point-in-time view of the collector.
type Snapshot struct {
	TotalRequests int64
	OK            int64 // 2xx
	Redirects     int64 // 3xx
	ClientErrors  int64 // 4xx
	ServerErrors  int64 // 5xx

	P50 time.Duration
	P90 time.Duration

	Recent []RequestEntry
	Uptime time.Duration
}

// New creates a collector.
func New() *Collector {
	return &Collector{
		byClass:    make(map[int]int64),
		byRoute:    make(map[string]int64),
		durations:  make([]time.Duration, 0, 100),
		maxSamples: 100,
		maxRecent:  10,
		startTime:  time.Now(),
	}
}

// Record records a completed request.
func (c *Collector) Record(method, path string, status int, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.totalRequests++
	c.byClass[status/100]++
	c.byRoute[method+" "+path]++

	if len(c.durations) >= c.maxSamples {
		copy(c.durations, c.durations[1:])
		c.durations = c.durations[:len(c.durations)-1]
	}
	c.durations = append(c.durations, duration)

	entry := RequestEntry{
		Method:   method,
		Path:     path,
		Status:   status,
		Duration: duration,
		Time:     time.Now(),
	}
	c.recent = append([]RequestEntry{entry}, c.recent...)
	if len(c.recent) > c.maxRecent {
		c.recent = c.recent[:c.maxRecent]
	}
}

// Snapshot returns a point-in-time view of all statistics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{
		TotalRequests: c.totalRequests,
		OK:            c.byClass[2],
		Redirects:     c.byClass[3],
		ClientErrors:  c.byClass[4],
		ServerErrors:  c.byClass[5],
		Recent:        append([]RequestEntry(nil), c.recent...),
		Uptime:        time.Since(c.startTime),
	}

	n := len(c.durations)
	if n == 0 {
		return snap
	}

	sorted := make([]time.Duration, n)
	copy(sorted, c.durations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	snap.P50 = sorted[n/2]
	p90 := int(float64(n) * 0.9)
	if p90 >= n {
		p90 = n - 1
	}
	snap.P90 = sorted[p90]

	return snap
}

// Reset clears all statistics.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.totalRequests = 0
	c.byClass = make(map[int]int64)
	c.byRoute = make(map[string]int64)
	c.durations = c.durations[:0]
	c.recent = nil
	c.startTime = time.Now()
}
