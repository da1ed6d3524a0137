package api

import (
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/star/isstrack/internal/chart"
	"github.com/star/isstrack/internal/display"
	"github.com/star/isstrack/internal/health"
	"github.com/star/isstrack/internal/httputil"
	"github.com/star/isstrack/internal/metrics"
	"github.com/star/isstrack/internal/poller"
	"github.com/star/isstrack/internal/series"
	"github.com/star/isstrack/internal/stream"
)

// Deps are the components the HTTP surface reads from.
type Deps struct {
	Board  *display.Board
	Record *series.Record
	Clock  *display.Clock
	Charts *chart.SVGRenderer
	Poller *poller.Poller
	Stream *stream.Handler
	Static fs.FS
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a configured HTTP server.
func NewServer(addr string, logger *slog.Logger, deps Deps) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz(deps.Poller.Ready))
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET /api/v1/state", stateHandler(deps))
	mux.HandleFunc("GET /api/v1/series", seriesHandler(deps.Record))
	mux.HandleFunc("GET /api/v1/series/{metric}", metricHandler(deps.Record))
	mux.HandleFunc("GET /api/v1/clock", clockHandler(deps.Clock))
	mux.HandleFunc("GET /charts/speed.svg", svgHandler(deps.Charts.Speed))
	mux.HandleFunc("GET /charts/altitude.svg", svgHandler(deps.Charts.Altitude))

	mux.HandleFunc("POST /api/v1/calc/distance", distanceHandler(deps.Board))
	mux.HandleFunc("POST /api/v1/calc/power", powerHandler())
	mux.HandleFunc("POST /api/v1/csv", csvHandler(logger))

	mux.HandleFunc("GET /api/v1/stream", deps.Stream.HandleStream)

	if deps.Static != nil {
		mux.Handle("GET /", http.FileServerFS(deps.Static))
	}

	// Build middleware chain: metrics -> logging -> mux.
	var handler http.Handler = mux
	handler = loggingMiddleware(logger)(handler)
	handler = metrics.Middleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// probePath returns true for health/readiness probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

// Flush passes through so the event stream is not buffered.
func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the connection.
func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			duration := time.Since(start)
			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"component", "api",
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", duration.Milliseconds(),
				"remote_ip", httputil.RemoteIP(r),
			)
		})
	}
}
