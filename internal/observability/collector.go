package observability

import (
	"sync"
	"time"
)

// RequestMetrics holds timing and status information for a single HTTP request.
type RequestMetrics struct {
	Method     string
	URL        string
	StatusCode int
	Duration   time.Duration
	Error      error
}

// RunMetrics aggregates the requests of one harness run.
type RunMetrics struct {
	StartTime      time.Time     `json:"start_time"`
	EndTime        time.Time     `json:"end_time"`
	TotalRequests  int           `json:"total_requests"`
	FailedRequests int           `json:"failed_requests"`
	TotalLatency   time.Duration `json:"total_latency_ns"`
	SlowestURL     string        `json:"slowest_url,omitempty"`
	Slowest        time.Duration `json:"slowest_ns,omitempty"`
}

// Collector accumulates request metrics across a run.
// Safe for concurrent use; keeps counters rather than every request.
type Collector struct {
	mu sync.Mutex

	startTime      time.Time
	totalRequests  int
	failedRequests int
	totalLatency   time.Duration
	slowestURL     string
	slowest        time.Duration
}

// NewCollector creates a new Collector.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// RecordRequest records metrics for an HTTP request. Transport errors count
// as failures; HTTP status codes do not, since several checks expect 404.
func (c *Collector) RecordRequest(m RequestMetrics) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.totalRequests++
	c.totalLatency += m.Duration
	if m.Error != nil {
		c.failedRequests++
	}
	if m.Duration > c.slowest {
		c.slowest = m.Duration
		c.slowestURL = m.Method + " " + ScrubURL(m.URL)
	}
}

// Summary returns aggregated metrics for the run.
func (c *Collector) Summary() RunMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	return RunMetrics{
		StartTime:      c.startTime,
		EndTime:        time.Now(),
		TotalRequests:  c.totalRequests,
		FailedRequests: c.failedRequests,
		TotalLatency:   c.totalLatency,
		SlowestURL:     c.slowestURL,
		Slowest:        c.slowest,
	}
}

// Reset clears all collected metrics and resets the start time.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.startTime = time.Now()
	c.totalRequests = 0
	c.failedRequests = 0
	c.totalLatency = 0
	c.slowestURL = ""
	c.slowest = 0
}
