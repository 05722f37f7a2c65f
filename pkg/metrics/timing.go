// Package metrics records how long the vizsync hot paths take.
//
// One TimingMetric exists per path: dataset loading, partition layout,
// transition frames, selection fan-out, timeline ticks and snapshot
// rendering. Measurements are kept in atomic counters so the real-time
// timeline driver and the render loop can record concurrently.
// Set VIZSYNC_METRICS=0 to turn recording off.
//
//	func layout() {
//	    defer metrics.Timer(metrics.PartitionLayout)()
//	    // ...
//	}
package metrics

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"
)

var enabled atomic.Bool

func init() {
	enabled.Store(os.Getenv("VIZSYNC_METRICS") != "0")
}

// Enabled reports whether measurements are recorded.
func Enabled() bool { return enabled.Load() }

// SetEnabled turns recording on or off.
func SetEnabled(e bool) { enabled.Store(e) }

// TimingMetric accumulates durations for one named operation.
type TimingMetric struct {
	name  string
	count atomic.Int64
	total atomic.Int64
	max   atomic.Int64
	min   atomic.Int64 // 0 until the first measurement
}

func newTimingMetric(name string) *TimingMetric {
	return &TimingMetric{name: name}
}

// Record adds one measurement.
func (m *TimingMetric) Record(d time.Duration) {
	if !Enabled() {
		return
	}
	ns := d.Nanoseconds()
	m.count.Add(1)
	m.total.Add(ns)
	for old := m.max.Load(); ns > old; old = m.max.Load() {
		if m.max.CompareAndSwap(old, ns) {
			break
		}
	}
	for old := m.min.Load(); old == 0 || ns < old; old = m.min.Load() {
		if m.min.CompareAndSwap(old, ns) {
			break
		}
	}
}

// Name returns the metric name.
func (m *TimingMetric) Name() string { return m.name }

// Count returns the number of measurements.
func (m *TimingMetric) Count() int64 { return m.count.Load() }

// Mean returns the average duration, or 0 before the first measurement.
func (m *TimingMetric) Mean() time.Duration {
	n := m.count.Load()
	if n == 0 {
		return 0
	}
	return time.Duration(m.total.Load() / n)
}

// Stats returns a consistent-enough snapshot for reporting.
func (m *TimingMetric) Stats() TimingStats {
	return TimingStats{
		Name:  m.name,
		Count: m.count.Load(),
		Total: time.Duration(m.total.Load()),
		Mean:  m.Mean(),
		Max:   time.Duration(m.max.Load()),
		Min:   time.Duration(m.min.Load()),
	}
}

// Reset clears every measurement.
func (m *TimingMetric) Reset() {
	m.count.Store(0)
	m.total.Store(0)
	m.max.Store(0)
	m.min.Store(0)
}

// TimingStats is a snapshot of one metric.
type TimingStats struct {
	Name  string        `json:"name"`
	Count int64         `json:"count"`
	Total time.Duration `json:"total"`
	Mean  time.Duration `json:"mean"`
	Max   time.Duration `json:"max"`
	Min   time.Duration `json:"min,omitempty"`
}

// Timer starts a measurement and returns the function that ends it.
func Timer(m *TimingMetric) func() {
	if !Enabled() || m == nil {
		return func() {}
	}
	start := time.Now()
	return func() { m.Record(time.Since(start)) }
}

var (
	DatasetLoad       = newTimingMetric("dataset_load")
	PartitionLayout   = newTimingMetric("partition_layout")
	TransitionFrame   = newTimingMetric("transition_frame")
	SelectionDispatch = newTimingMetric("selection_dispatch")
	TimelineTick      = newTimingMetric("timeline_tick")
	SnapshotRender    = newTimingMetric("snapshot_render")
)

// All returns every registered metric in a fixed order.
func All() []*TimingMetric {
	return []*TimingMetric{
		DatasetLoad,
		PartitionLayout,
		TransitionFrame,
		SelectionDispatch,
		TimelineTick,
		SnapshotRender,
	}
}

// ResetAll clears every registered metric.
func ResetAll() {
	for _, m := range All() {
		m.Reset()
	}
}

// Recorded returns stats for the metrics that have at least one measurement.
func Recorded() []TimingStats {
	var out []TimingStats
	for _, m := range All() {
		if m.Count() > 0 {
			out = append(out, m.Stats())
		}
	}
	return out
}

// WriteTable prints Recorded as an aligned table. Nothing is written when no
// metric has been recorded.
func WriteTable(w io.Writer) error {
	stats := Recorded()
	if len(stats) == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, "%-20s %6s %12s %12s %12s\n", "metric", "count", "mean", "max", "total"); err != nil {
		return err
	}
	for _, s := range stats {
		_, err := fmt.Fprintf(w, "%-20s %6d %12s %12s %12s\n",
			s.Name, s.Count, s.Mean.Round(time.Microsecond), s.Max.Round(time.Microsecond), s.Total.Round(time.Microsecond))
		if err != nil {
			return err
		}
	}
	return nil
}
