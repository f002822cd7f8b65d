package observability

import (
	"encoding/json"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/example/turboci-repeated/repeated/domain"
)

// Metrics aggregates trial and verdict statistics across a suite run.
type Metrics struct {
	trialDuration *HistogramVec
	trials        *CounterVec
	verdicts      *CounterVec
	overridden    *Counter
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
func NewMetrics() *Metrics {
	return &Metrics{
		trialDuration: NewHistogramVec(),
		trials:        NewCounterVec(),
		verdicts:      NewCounterVec(),
		overridden:    NewCounter(),
	}
}

func (m *Metrics) TrialDuration() *HistogramVec { return m.trialDuration }
func (m *Metrics) Trials() *CounterVec          { return m.trials }
func (m *Metrics) Verdicts() *CounterVec        { return m.verdicts }

// ObserveRecord records every trial of one test item under its id.
func (m *Metrics) ObserveRecord(testID string, record *domain.TrialRecord) {
	if record == nil {
		return
	}
	h := m.trialDuration.WithLabels(testID)
	for _, t := range record.Trials {
		h.Observe(t.Duration)
		m.trials.WithLabels(t.Outcome.String()).Inc()
	}
}

// ObserveVerdict counts a resolved verdict by outcome.
func (m *Metrics) ObserveVerdict(v domain.Verdict) {
	m.verdicts.WithLabels(v.Outcome.String()).Inc()
	if v.Overridden {
		m.overridden.Inc()
	}
}

// Snapshot returns a snapshot of all metrics for reporting.
func (m *Metrics) Snapshot() *MetricsSnapshot {
	return &MetricsSnapshot{
		TrialDuration: m.trialDuration.Snapshot(),
		Trials:        m.trials.Snapshot(),
		Verdicts:      m.verdicts.Snapshot(),
		Overridden:    m.overridden.Get(),
	}
}

// WriteJSON encodes the current snapshot to w.
func (m *Metrics) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(m.Snapshot())
}

// MetricsSnapshot holds a point-in-time snapshot of all metrics.
type MetricsSnapshot struct {
	TrialDuration map[string]HistogramSnapshot `json:"trial_duration"`
	Trials        map[string]int64             `json:"trials"`
	Verdicts      map[string]int64             `json:"verdicts"`
	Overridden    int64                        `json:"overridden"`
}

// Histogram tracks the distribution of duration measurements.
// Thread-safe for concurrent observations.
type Histogram struct {
	mu     sync.RWMutex
	values []float64 // microseconds
}

// NewHistogram creates a new histogram.
func NewHistogram() *Histogram {
	return &Histogram{}
}

// Observe records a duration measurement.
func (h *Histogram) Observe(d time.Duration) {
	micros := float64(d.Microseconds())
	h.mu.Lock()
	h.values = append(h.values, micros)
	h.mu.Unlock()
}

// Snapshot returns a point-in-time snapshot with percentiles calculated.
func (h *Histogram) Snapshot() HistogramSnapshot {
	h.mu.RLock()
	values := make([]float64, len(h.values))
	copy(values, h.values)
	h.mu.RUnlock()

	return summarize(values)
}

// HistogramSnapshot holds calculated statistics for a histogram.
type HistogramSnapshot struct {
	Count int           `json:"count"`
	Mean  time.Duration `json:"mean"`
	P50   time.Duration `json:"p50"`
	P95   time.Duration `json:"p95"`
	Max   time.Duration `json:"max"`
}

// Summarize computes a snapshot directly from a set of durations, such as
// the ones returned by TrialRecord.Durations.
func Summarize(durations []time.Duration) HistogramSnapshot {
	values := make([]float64, len(durations))
	for i, d := range durations {
		values[i] = float64(d.Microseconds())
	}
	return summarize(values)
}

func summarize(values []float64) HistogramSnapshot {
	if len(values) == 0 {
		return HistogramSnapshot{}
	}
	data := stats.Float64Data(values)

	mean, _ := stats.Mean(data)
	median, _ := stats.Median(data)
	max, _ := stats.Max(data)
	// Percentile rejects ranks below the first element; small samples fall back to max.
	p95, err := stats.Percentile(data, 95)
	if err != nil {
		p95 = max
	}

	return HistogramSnapshot{
		Count: len(values),
		Mean:  micros(mean),
		P50:   micros(median),
		P95:   micros(p95),
		Max:   micros(max),
	}
}

func micros(v float64) time.Duration {
	return time.Duration(v * float64(time.Microsecond))
}

// HistogramVec is a collection of histograms with labels.
type HistogramVec struct {
	mu         sync.RWMutex
	histograms map[string]*Histogram
}

// NewHistogramVec creates a new histogram vector.
func NewHistogramVec() *HistogramVec {
	return &HistogramVec{
		histograms: make(map[string]*Histogram),
	}
}

// WithLabels returns a histogram for the given label string.
func (hv *HistogramVec) WithLabels(labels string) *Histogram {
	hv.mu.RLock()
	h, ok := hv.histograms[labels]
	hv.mu.RUnlock()
	if ok {
		return h
	}

	hv.mu.Lock()
	defer hv.mu.Unlock()
	if h, ok := hv.histograms[labels]; ok {
		return h
	}
	h = NewHistogram()
	hv.histograms[labels] = h
	return h
}

// Snapshot returns snapshots of all histograms.
func (hv *HistogramVec) Snapshot() map[string]HistogramSnapshot {
	hv.mu.RLock()
	defer hv.mu.RUnlock()

	snapshot := make(map[string]HistogramSnapshot, len(hv.histograms))
	for label, h := range hv.histograms {
		snapshot[label] = h.Snapshot()
	}
	return snapshot
}

// Counter is a monotonically increasing counter.
type Counter struct {
	value atomic.Int64
}

func NewCounter() *Counter { return &Counter{} }

func (c *Counter) Inc()            { c.value.Add(1) }
func (c *Counter) Add(delta int64) { c.value.Add(delta) }
func (c *Counter) Get() int64      { return c.value.Load() }

// CounterVec is a collection of counters with labels.
type CounterVec struct {
	mu       sync.RWMutex
	counters map[string]*Counter
}

// NewCounterVec creates a new counter vector.
func NewCounterVec() *CounterVec {
	return &CounterVec{
		counters: make(map[string]*Counter),
	}
}

// WithLabels returns a counter for the given label string.
func (cv *CounterVec) WithLabels(labels string) *Counter {
	cv.mu.RLock()
	c, ok := cv.counters[labels]
	cv.mu.RUnlock()
	if ok {
		return c
	}

	cv.mu.Lock()
	defer cv.mu.Unlock()
	if c, ok := cv.counters[labels]; ok {
		return c
	}
	c = NewCounter()
	cv.counters[labels] = c
	return c
}

// Snapshot returns the current values of all counters.
func (cv *CounterVec) Snapshot() map[string]int64 {
	cv.mu.RLock()
	defer cv.mu.RUnlock()

	snapshot := make(map[string]int64, len(cv.counters))
	for label, c := range cv.counters {
		snapshot[label] = c.Get()
	}
	return snapshot
}
