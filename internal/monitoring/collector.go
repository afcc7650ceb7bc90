// Package monitoring records city fetch outcomes and alerts when the failure
// rate crosses a threshold.
package monitoring

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sink receives fetch outcomes from the view controller.
type Sink interface {
	FetchSucceeded(cityID string, features int, elapsed time.Duration)
	FetchFailed(cityID, url string, err error)
}

// Failure is one recorded fetch failure.
type Failure struct {
	CityID string    `json:"city_id"`
	URL    string    `json:"url"`
	Error  string    `json:"error"`
	At     time.Time `json:"at"`
}

// MetricsSnapshot holds a point-in-time view of fetch health.
type MetricsSnapshot struct {
	FetchTotal     int       `json:"fetch_total"`
	FetchSucceeded int       `json:"fetch_succeeded"`
	FetchFailed    int       `json:"fetch_failed"`
	FailRate       float64   `json:"fail_rate"`
	AvgFeatures    float64   `json:"avg_features"`
	AvgLatencyMS   float64   `json:"avg_latency_ms"`
	RecentFailures []Failure `json:"recent_failures"`
	CollectedAt    time.Time `json:"collected_at"`
}

// Collector is an in-memory Sink. It keeps running totals and the most
// recent failures. The zero value is not usable; call NewCollector.
type Collector struct {
	mu        sync.Mutex
	succeeded int
	failed    int
	features  int
	latency   time.Duration
	recent    []Failure
	next      int
	keep      int

	nowFunc func() time.Time
}

// NewCollector creates a collector retaining up to keep recent failures.
func NewCollector(keep int) *Collector {
	if keep <= 0 {
		keep = 20
	}
	return &Collector{keep: keep, nowFunc: time.Now}
}

// FetchSucceeded implements Sink.
func (c *Collector) FetchSucceeded(cityID string, features int, elapsed time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.succeeded++
	c.features += features
	c.latency += elapsed
}

// FetchFailed implements Sink.
func (c *Collector) FetchFailed(cityID, url string, err error) {
	zap.L().Warn("monitoring: city fetch failed",
		zap.String("city", cityID),
		zap.String("url", url),
		zap.Error(err),
	)

	f := Failure{CityID: cityID, URL: url, At: c.nowFunc().UTC()}
	if err != nil {
		f.Error = err.Error()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.failed++
	if len(c.recent) < c.keep {
		c.recent = append(c.recent, f)
		return
	}
	c.recent[c.next] = f
	c.next = (c.next + 1) % c.keep
}

// Collect returns a snapshot. Recent failures are oldest first.
func (c *Collector) Collect() *MetricsSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := &MetricsSnapshot{
		FetchSucceeded: c.succeeded,
		FetchFailed:    c.failed,
		FetchTotal:     c.succeeded + c.failed,
		CollectedAt:    c.nowFunc().UTC(),
	}
	if snap.FetchTotal > 0 {
		snap.FailRate = float64(c.failed) / float64(snap.FetchTotal)
	}
	if c.succeeded > 0 {
		snap.AvgFeatures = float64(c.features) / float64(c.succeeded)
		snap.AvgLatencyMS = float64(c.latency.Milliseconds()) / float64(c.succeeded)
	}

	snap.RecentFailures = make([]Failure, 0, len(c.recent))
	snap.RecentFailures = append(snap.RecentFailures, c.recent[c.next:]...)
	snap.RecentFailures = append(snap.RecentFailures, c.recent[:c.next]...)
	return snap
}

// Discard is a Sink that drops everything.
var Discard Sink = discard{}

type discard struct{}

func (discard) FetchSucceeded(string, int, time.Duration) {}
func (discard) FetchFailed(string, string, error)         {}
