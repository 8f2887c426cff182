// Package metrics tracks latency quantiles for backend lookups using DDSketch.
package metrics

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/DataDog/sketches-go/ddsketch"
)

// DefaultRelativeAccuracy gives quantile estimates within 1%.
const DefaultRelativeAccuracy = 0.01

// LatencyTracker records durations per operation name.
type LatencyTracker struct {
	mu               sync.Mutex
	sketches         map[string]*ddsketch.DDSketch
	relativeAccuracy float64
}

// NewLatencyTracker creates a tracker with the given relative accuracy
// (e.g., 0.01 = 1% accuracy).
func NewLatencyTracker(relativeAccuracy float64) *LatencyTracker {
	return &LatencyTracker{
		sketches:         make(map[string]*ddsketch.DDSketch),
		relativeAccuracy: relativeAccuracy,
	}
}

// Record records a duration for the given operation.
func (lt *LatencyTracker) Record(operation string, d time.Duration) {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	sketch, ok := lt.sketches[operation]
	if !ok {
		var err error
		sketch, err = ddsketch.LogUnboundedDenseDDSketch(lt.relativeAccuracy)
		if err != nil {
			sketch, _ = ddsketch.NewDefaultDDSketch(DefaultRelativeAccuracy)
		}
		lt.sketches[operation] = sketch
	}

	// Milliseconds; DDSketch rejects negative values
	ms := float64(d.Microseconds()) / 1000.0
	if ms < 0 {
		ms = 0
	}
	_ = sketch.Add(ms)
}

// Stats summarizes one operation. Durations are in milliseconds.
type Stats struct {
	Operation string
	Count     int64
	Min       float64
	P50       float64
	P90       float64
	P99       float64
	Max       float64
}

// GetStats returns statistics for the given operation.
func (lt *LatencyTracker) GetStats(operation string) (Stats, error) {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	return lt.statsLocked(operation)
}

func (lt *LatencyTracker) statsLocked(operation string) (Stats, error) {
	sketch, ok := lt.sketches[operation]
	if !ok {
		return Stats{}, fmt.Errorf("no data for operation: %s", operation)
	}

	count := sketch.GetCount()
	if count == 0 {
		return Stats{Operation: operation}, nil
	}

	lo, _ := sketch.GetMinValue()
	p50, _ := sketch.GetValueAtQuantile(0.50)
	p90, _ := sketch.GetValueAtQuantile(0.90)
	p99, _ := sketch.GetValueAtQuantile(0.99)
	hi, _ := sketch.GetMaxValue()

	return Stats{
		Operation: operation,
		Count:     int64(count),
		Min:       lo,
		P50:       p50,
		P90:       p90,
		P99:       p99,
		Max:       hi,
	}, nil
}

// AllStats returns statistics for every tracked operation, sorted by name.
func (lt *LatencyTracker) AllStats() []Stats {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	ops := make([]string, 0, len(lt.sketches))
	for op := range lt.sketches {
		ops = append(ops, op)
	}
	slices.Sort(ops)

	stats := make([]Stats, 0, len(ops))
	for _, op := range ops {
		if s, err := lt.statsLocked(op); err == nil {
			stats = append(stats, s)
		}
	}
	return stats
}

func (s Stats) String() string {
	if s.Count == 0 {
		return fmt.Sprintf("%s: no data", s.Operation)
	}
	return fmt.Sprintf("%s (n=%d): min=%.1fms p50=%.1fms p90=%.1fms p99=%.1fms max=%.1fms",
		s.Operation, s.Count, s.Min, s.P50, s.P90, s.P99, s.Max)
}
