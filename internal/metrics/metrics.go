package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "isstrack_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "isstrack_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	pollCyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "isstrack_poll_cycles_total",
			Help: "Poll cycles by result and failure kind.",
		},
		[]string{"result", "kind"},
	)

	pollDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "isstrack_poll_duration_seconds",
			Help:    "Poll cycle duration in seconds, fetch through redraw.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8},
		},
	)

	pollOverlapsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "isstrack_poll_overlaps_total",
			Help: "Ticks that fired while a cycle was still in flight, by overlap policy.",
		},
		[]string{"policy"},
	)

	lastSuccessTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "isstrack_poll_last_success_timestamp_seconds",
			Help: "Unix time of the last successful poll cycle.",
		},
	)

	redrawErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "isstrack_redraw_errors_total",
			Help: "Chart redraws that failed.",
		},
	)

	seriesLength = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "isstrack_series_length",
			Help: "Number of samples currently held per series.",
		},
	)

	seriesEvictionsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "isstrack_series_evictions",
			Help: "Samples evicted from the rolling window since start.",
		},
	)

	streamConnectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "isstrack_stream_connections_total",
			Help: "SSE connection events.",
		},
		[]string{"event"},
	)

	streamsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "isstrack_streams_active",
			Help: "Currently open SSE streams.",
		},
	)

	streamMessagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "isstrack_stream_messages_total",
			Help: "SSE data messages sent.",
		},
	)

	streamBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "isstrack_stream_bytes_total",
			Help: "Bytes written to SSE streams.",
		},
	)

	streamErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "isstrack_stream_errors_total",
			Help: "SSE errors by reason.",
		},
		[]string{"reason"},
	)

	tleDatasetAge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "isstrack_tle_dataset_age_seconds",
			Help: "Age of the element set used by the sgp4 source.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpDurationSeconds,
		pollCyclesTotal,
		pollDurationSeconds,
		pollOverlapsTotal,
		lastSuccessTimestamp,
		redrawErrorsTotal,
		seriesLength,
		seriesEvictionsTotal,
		streamConnectionsTotal,
		streamsActive,
		streamMessagesTotal,
		streamBytesTotal,
		streamErrorsTotal,
		tleDatasetAge,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObservePollCycle records one finished cycle. kind is empty on success.
func ObservePollCycle(kind string, d time.Duration) {
	result := "success"
	if kind != "" {
		result = "failure"
	}
	pollCyclesTotal.WithLabelValues(result, kind).Inc()
	pollDurationSeconds.Observe(d.Seconds())
	if kind == "" {
		lastSuccessTimestamp.SetToCurrentTime()
	}
}

// IncPollOverlap counts a tick that found a cycle still in flight.
func IncPollOverlap(policy string) {
	pollOverlapsTotal.WithLabelValues(policy).Inc()
}

// IncRedrawErrors counts a failed chart redraw.
func IncRedrawErrors() {
	redrawErrorsTotal.Inc()
}

// SetSeriesStats publishes the rolling window's length and eviction count.
func SetSeriesStats(length int, evictions int64) {
	seriesLength.Set(float64(length))
	seriesEvictionsTotal.Set(float64(evictions))
}

// SetTLEDatasetAge publishes the element set age in seconds.
func SetTLEDatasetAge(seconds float64) {
	tleDatasetAge.Set(seconds)
}

// IncStreamConnections counts a connect or disconnect.
func IncStreamConnections(event string) {
	streamConnectionsTotal.WithLabelValues(event).Inc()
}

func IncStreamsActive() { streamsActive.Inc() }
func DecStreamsActive() { streamsActive.Dec() }
func IncStreamMessages() { streamMessagesTotal.Inc() }

// AddStreamBytes adds n to the bytes-sent counter.
func AddStreamBytes(n int64) {
	streamBytesTotal.Add(float64(n))
}

// IncStreamErrors counts a stream error by reason.
func IncStreamErrors(reason string) {
	streamErrorsTotal.WithLabelValues(reason).Inc()
}

// knownRoutes are the registered paths; anything else is labelled "other"
// to keep label cardinality bounded.
var knownRoutes = map[string]bool{
	"/":                       true,
	"/healthz":                true,
	"/readyz":                 true,
	"/metrics":                true,
	"/app.js":                 true,
	"/styles.css":             true,
	"/index.html":             true,
	"/charts/speed.svg":       true,
	"/charts/altitude.svg":    true,
	"/api/v1/state":           true,
	"/api/v1/series":          true,
	"/api/v1/clock":           true,
	"/api/v1/calc/distance":   true,
	"/api/v1/calc/power":      true,
	"/api/v1/csv":             true,
	"/api/v1/stream":          true,
	"/api/v1/series/speed":    true,
	"/api/v1/series/altitude": true,
}

func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	if strings.HasPrefix(path, "/api/v1/series/") {
		return "/api/v1/series/{metric}"
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush passes through so SSE works behind the middleware.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack passes through to the underlying writer when supported.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := rw.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("hijack not supported")
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}
