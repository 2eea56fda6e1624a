package telemetry

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "whisper_bridge"

// Recorder tracks bridge-level telemetry: cumulative counters for the
// shutdown summary and Prometheus collectors for scraping.
type Recorder struct {
	log *slog.Logger

	totalSessions         atomic.Uint64
	activeSessions        atomic.Int64
	totalWindows          atomic.Uint64
	totalCompletedWindows atomic.Uint64
	totalFailures         atomic.Uint64

	sessionsOpened prometheus.Counter
	sessionsActive prometheus.Gauge
	windows        *prometheus.CounterVec
	windowSpan     prometheus.Histogram
	inference      prometheus.Histogram
	sessionLength  prometheus.Histogram
}

// Snapshot captures cumulative metrics recorded so far.
type Snapshot struct {
	TotalSessions         uint64
	ActiveSessions        int64
	TotalWindows          uint64
	TotalCompletedWindows uint64
	TotalFailures         uint64
}

// NewRecorder constructs a Recorder using the provided logger. Collectors are
// registered on reg when it is non-nil.
func NewRecorder(logger *slog.Logger, reg prometheus.Registerer) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Recorder{
		log: logger.With("component", "telemetry.Recorder"),
		sessionsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_opened_total",
			Help:      "Total number of bridge sessions initialised.",
		}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Current number of live bridge sessions.",
		}),
		windows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "windows_total",
			Help:      "Processed windows by outcome (partial, completed, error).",
		}, []string{"outcome"}),
		windowSpan: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "window_span_seconds",
			Help:      "Audio span covered by processed windows.",
			Buckets:   []float64{1, 5, 10, 20, 30, 60},
		}),
		inference: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inference_duration_seconds",
			Help:      "Time spent producing text for a window.",
			Buckets:   prometheus.DefBuckets,
		}),
		sessionLength: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Lifetime of bridge sessions from initialise to release.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 4, 8),
		}),
	}
	if reg != nil {
		reg.MustRegister(r.sessionsOpened, r.sessionsActive, r.windows, r.windowSpan, r.inference, r.sessionLength)
	}
	return r
}

// Snapshot returns an immutable view of the recorder totals.
func (r *Recorder) Snapshot() Snapshot {
	if r == nil {
		return Snapshot{}
	}
	return Snapshot{
		TotalSessions:         r.totalSessions.Load(),
		ActiveSessions:        r.activeSessions.Load(),
		TotalWindows:          r.totalWindows.Load(),
		TotalCompletedWindows: r.totalCompletedWindows.Load(),
		TotalFailures:         r.totalFailures.Load(),
	}
}

// SessionMetrics accumulates statistics for a single bridge session.
type SessionMetrics struct {
	recorder *Recorder
	log      *slog.Logger

	started   time.Time
	windows   int
	completed int
	failures  int
	coveredMs int64
	chars     int
	closed    atomic.Bool
}

// StartSession initialises a SessionMetrics instance bound to the recorder.
func (r *Recorder) StartSession(handle uint64, modelPath, engine string) *SessionMetrics {
	if r == nil {
		return nil
	}

	r.totalSessions.Add(1)
	r.activeSessions.Add(1)
	r.sessionsOpened.Inc()
	r.sessionsActive.Inc()

	return &SessionMetrics{
		recorder: r,
		log: r.log.With(
			"handle", handle,
			"model_path", modelPath,
			"engine", engine,
		),
		started: time.Now(),
	}
}

// RecordWindow updates counters for a processed window.
func (s *SessionMetrics) RecordWindow(startMs, endMs int64, completed bool, chars int, elapsed time.Duration) {
	if s == nil {
		return
	}
	span := max(endMs-startMs, 0)
	s.windows++
	s.coveredMs += span
	s.chars += chars
	outcome := "partial"
	if completed {
		s.completed++
		s.recorder.totalCompletedWindows.Add(1)
		outcome = "completed"
	}
	s.recorder.totalWindows.Add(1)
	s.recorder.windows.WithLabelValues(outcome).Inc()
	s.recorder.windowSpan.Observe(float64(span) / 1000)
	s.recorder.inference.Observe(elapsed.Seconds())

	s.log.Debug("window processed",
		"start_ms", startMs,
		"end_ms", endMs,
		"completed", completed,
		"chars", chars,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// RecordFailure counts a window the engine could not transcribe.
func (s *SessionMetrics) RecordFailure(err error) {
	if s == nil {
		return
	}
	s.failures++
	s.recorder.totalFailures.Add(1)
	s.recorder.windows.WithLabelValues("error").Inc()
	s.log.Warn("window failed", "error", err)
}

// Finish logs a summary and updates active session counters.
func (s *SessionMetrics) Finish(err error) {
	if s == nil {
		return
	}
	if !s.closed.CompareAndSwap(false, true) {
		return
	}

	defer func() {
		s.recorder.activeSessions.Add(-1)
		s.recorder.sessionsActive.Dec()
	}()

	duration := time.Since(s.started)
	s.recorder.sessionLength.Observe(duration.Seconds())
	args := []any{
		"duration_ms", duration.Milliseconds(),
		"windows", s.windows,
		"completed_windows", s.completed,
		"failures", s.failures,
		"covered_ms", s.coveredMs,
		"chars", s.chars,
	}

	if err != nil {
		s.log.Error("session released with error", append(args, "error", err)...)
		return
	}

	s.log.Info("session released", args...)
}
