package core

import (
	"context"
	"encoding/json"
	"expvar"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var expvarRecorderID uint64

// opStats accumulates the per-operation totals behind an ExpvarMetricsRecorder.
type opStats struct {
	totalMS float64
	success int64
	failure int64
}

// ExpvarMetricsRecorder is a MetricsRecorder that exposes its aggregates
// through the expvar handler, for deployments that want in-process metrics
// with no scrape target. Durations accumulate in milliseconds per operation
// alongside success and error counts.
type ExpvarMetricsRecorder struct {
	name string
	mu   sync.Mutex
	ops  map[string]*opStats
}

// ExpvarMetricsSnapshot is the JSON shape served under the recorder's
// expvar name.
type ExpvarMetricsSnapshot struct {
	DurationsMS map[string]float64          `json:"durations_ms_total"`
	Results     map[string]map[string]int64 `json:"results_total"`
	RecordedAt  time.Time                   `json:"recorded_at"`
}

// NewExpvarMetricsRecorder publishes a recorder under name. An empty name
// gets a process-unique one, so tests can construct recorders freely without
// expvar.Publish panicking on a duplicate.
func NewExpvarMetricsRecorder(name string) *ExpvarMetricsRecorder {
	if name == "" {
		name = fmt.Sprintf("roster_service_metrics_%d", atomic.AddUint64(&expvarRecorderID, 1))
	}
	rec := &ExpvarMetricsRecorder{
		name: name,
		ops:  make(map[string]*opStats),
	}
	expvar.Publish(name, expvar.Func(func() any { return rec.Snapshot() }))
	return rec
}

// Name reports the expvar key the recorder publishes under.
func (r *ExpvarMetricsRecorder) Name() string { return r.name }

// Snapshot copies the current aggregates into an exportable form.
func (r *ExpvarMetricsRecorder) Snapshot() ExpvarMetricsSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := ExpvarMetricsSnapshot{
		DurationsMS: make(map[string]float64, len(r.ops)),
		Results:     make(map[string]map[string]int64, len(r.ops)),
		RecordedAt:  time.Now().UTC(),
	}
	for op, stats := range r.ops {
		snap.DurationsMS[op] = stats.totalMS
		snap.Results[op] = map[string]int64{
			"success": stats.success,
			"error":   stats.failure,
		}
	}
	return snap
}

// Observe implements MetricsRecorder. Observations with an empty operation
// name are dropped.
func (r *ExpvarMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := r.ops[operation]
	if stats == nil {
		stats = &opStats{}
		r.ops[operation] = stats
	}
	stats.totalMS += float64(duration) / float64(time.Millisecond)
	if success {
		stats.success++
	} else {
		stats.failure++
	}
}

// PrometheusMetricsRecorder feeds operation latencies and outcomes into a
// prometheus registry under the pokeroster_service_* metric family.
type PrometheusMetricsRecorder struct {
	latency  *prometheus.HistogramVec
	outcomes *prometheus.CounterVec
}

// NewPrometheusMetricsRecorder builds the recorder's collectors and registers
// them with reg, falling back to prometheus.DefaultRegisterer when reg is nil.
// Registering twice against the same registry fails.
func NewPrometheusMetricsRecorder(reg prometheus.Registerer) (*PrometheusMetricsRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pokeroster",
		Subsystem: "service",
		Name:      "operation_duration_seconds",
		Help:      "Duration of roster service operations.",
	}, []string{"operation"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pokeroster",
		Subsystem: "service",
		Name:      "operation_results_total",
		Help:      "Roster service operation outcomes by status.",
	}, []string{"operation", "status"})
	if err := reg.Register(latency); err != nil {
		return nil, err
	}
	if err := reg.Register(outcomes); err != nil {
		return nil, err
	}
	return &PrometheusMetricsRecorder{latency: latency, outcomes: outcomes}, nil
}

// Observe implements MetricsRecorder.
func (r *PrometheusMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	r.latency.WithLabelValues(operation).Observe(duration.Seconds())
	r.outcomes.WithLabelValues(operation, statusLabel(success)).Inc()
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// JSONTraceEntry is one finished span as the tracer records and writes it.
type JSONTraceEntry struct {
	Operation  string    `json:"operation"`
	Status     string    `json:"status"`
	DurationMS float64   `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
}

// JSONTraceTracer writes finished spans as JSON lines and keeps every entry
// in memory so callers can inspect what was traced.
type JSONTraceTracer struct {
	mu      sync.Mutex
	entries []JSONTraceEntry
	enc     *json.Encoder
}

// NewJSONTracer returns a tracer emitting to w. A nil writer keeps the
// in-memory entries but skips serialization.
func NewJSONTracer(w io.Writer) *JSONTraceTracer {
	t := &JSONTraceTracer{}
	if w != nil {
		t.enc = json.NewEncoder(w)
	}
	return t
}

// Entries returns a copy of every span finished so far.
func (t *JSONTraceTracer) Entries() []JSONTraceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]JSONTraceEntry(nil), t.entries...)
}

// Start opens a span. The context passes through untouched.
func (t *JSONTraceTracer) Start(ctx context.Context, operation string) (context.Context, TraceSpan) {
	return ctx, &jsonTraceSpan{
		tracer:    t,
		operation: operation,
		started:   time.Now().UTC(),
	}
}

func (t *JSONTraceTracer) record(entry JSONTraceEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, entry)
	if t.enc != nil {
		_ = t.enc.Encode(entry)
	}
}

type jsonTraceSpan struct {
	tracer    *JSONTraceTracer
	operation string
	started   time.Time
}

func (s *jsonTraceSpan) End(err error) {
	ended := time.Now().UTC()
	entry := JSONTraceEntry{
		Operation:  s.operation,
		Status:     "success",
		DurationMS: float64(ended.Sub(s.started)) / float64(time.Millisecond),
		StartedAt:  s.started,
		EndedAt:    ended,
	}
	if err != nil {
		entry.Status = "error"
		entry.Error = err.Error()
	}
	s.tracer.record(entry)
}
