// Package stream pushes tracker state to browsers with Server-Sent Events.
// Clients connect via GET /api/v1/stream and receive JSON messages:
//
//	data: {"type":"metadata","source":"api","capacity":20,"interval_ms":5000}\n\n
//	data: {"type":"update","t":1760792709000,"fields":{...},"series":{...}}\n\n
//	data: {"type":"clock","time":"01:05:09 PM"}\n\n
//
// The metadata message is always first, followed by the latest update if one
// exists. An update is broadcast after every successful poll cycle and a
// clock message every second. Keep-alive comments (:\n\n) are sent every
// KeepaliveInterval of silence.
package stream

import (
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/star/isstrack/internal/display"
	"github.com/star/isstrack/internal/httputil"
	"github.com/star/isstrack/internal/metrics"
	"github.com/star/isstrack/internal/poller"
	"github.com/star/isstrack/internal/series"
)

// Config holds streaming configuration.
type Config struct {
	MaxConcurrentPerIP int           // Max concurrent streams per IP (default: 10).
	KeepaliveInterval  time.Duration // Keep-alive ping interval (default: 30s).
	TrustProxy         bool          // Take the client IP from X-Forwarded-For.
}

// State is the tracker state the handler reads on connect.
type State interface {
	Latest() (poller.Update, bool)
	Config() poller.Config
}

// subscriberBuffer bounds queued messages per client; a client that falls
// further behind loses messages.
const subscriberBuffer = 16

// Handler manages SSE streaming connections.
type Handler struct {
	state    State
	source   string
	capacity int
	config   Config
	limiter  *connLimiter
	logger   *slog.Logger

	mu   sync.Mutex
	subs map[chan []byte]struct{}
}

// NewHandler creates a new streaming handler. source and capacity are
// reported in the metadata message.
func NewHandler(state State, source string, capacity int, config Config, logger *slog.Logger) *Handler {
	if config.MaxConcurrentPerIP <= 0 {
		config.MaxConcurrentPerIP = 10
	}
	if config.KeepaliveInterval <= 0 {
		config.KeepaliveInterval = 30 * time.Second
	}
	return &Handler{
		state:    state,
		source:   source,
		capacity: capacity,
		config:   config,
		limiter:  newConnLimiter(config.MaxConcurrentPerIP),
		logger:   logger,
		subs:     make(map[chan []byte]struct{}),
	}
}

// OnUpdate broadcasts a poll update. It has the poller.Listener signature.
func (h *Handler) OnUpdate(u poller.Update) {
	h.broadcast(buildUpdateMessage(u))
}

// OnClock broadcasts the formatted clock.
func (h *Handler) OnClock(s string) {
	h.broadcast(clockMessage{Type: "clock", Time: s})
}

// Subscribers returns the number of connected clients.
func (h *Handler) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Handler) broadcast(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		metrics.IncStreamErrors("marshal_error")
		h.logger.Warn("stream marshal error", "component", "stream", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- data:
		default:
			metrics.IncStreamErrors("slow_client")
		}
	}
}

func (h *Handler) subscribe() chan []byte {
	ch := make(chan []byte, subscriberBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Handler) unsubscribe(ch chan []byte) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
}

// HandleStream serves the SSE state stream.
// GET /api/v1/stream
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	// Rate limiting: enforce concurrent stream limit per IP.
	ip := httputil.ClientIP(r, h.config.TrustProxy)
	release, ok := h.limiter.acquire(ip)
	if !ok {
		metrics.IncStreamErrors("rate_limit")
		h.logger.Warn("stream rate limit exceeded",
			"component", "stream",
			"remote_ip", ip,
			"open_streams", h.limiter.open(ip),
		)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]string{"error": "too many concurrent streams"})
		return
	}

	metrics.IncStreamConnections("connect")
	metrics.IncStreamsActive()

	startTime := time.Now()
	h.logger.Info("stream connected",
		"component", "stream",
		"remote_ip", ip,
		"user_agent", r.Header.Get("User-Agent"),
	)

	defer func() {
		release()
		metrics.IncStreamConnections("disconnect")
		metrics.DecStreamsActive()
		h.logger.Info("stream disconnected",
			"component", "stream",
			"remote_ip", ip,
			"duration_seconds", int(time.Since(startTime).Seconds()),
		)
	}()

	flusher, ok := w.(http.Flusher)
	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "streaming not supported"})
		return
	}

	// Subscribe before the initial messages so no update is missed in between.
	ch := h.subscribe()
	defer h.unsubscribe(ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering.
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// Clear the server's WriteTimeout for this long-lived connection.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("could not clear write deadline", "component", "stream", "error", err)
	}

	c := &client{w: w, rc: rc, ip: ip, logger: h.logger}

	// Jittered retry interval (3-7s) spreads reconnects after a restart.
	if err := c.sendRetry(time.Duration(3000+rand.Intn(4000)) * time.Millisecond); err != nil {
		return
	}

	meta := metadataMessage{
		Type:       "metadata",
		Source:     h.source,
		Capacity:   h.capacity,
		IntervalMs: h.state.Config().Interval.Milliseconds(),
	}
	if err := c.sendJSON(meta); err != nil {
		metrics.IncStreamErrors("send_error")
		h.logger.Warn("stream send error (metadata)", "component", "stream", "remote_ip", ip, "error", err)
		return
	}
	if u, ok := h.state.Latest(); ok {
		if err := c.sendJSON(buildUpdateMessage(u)); err != nil {
			metrics.IncStreamErrors("send_error")
			h.logger.Warn("stream send error (initial update)", "component", "stream", "remote_ip", ip, "error", err)
			return
		}
	}

	keepaliveTicker := time.NewTicker(h.config.KeepaliveInterval)
	defer keepaliveTicker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return

		case data := <-ch:
			if err := c.sendRaw(data); err != nil {
				metrics.IncStreamErrors("send_error")
				h.logger.Warn("stream send error", "component", "stream", "remote_ip", ip, "error", err)
				return
			}
			keepaliveTicker.Reset(h.config.KeepaliveInterval)

		case <-keepaliveTicker.C:
			if err := c.sendKeepalive(); err != nil {
				metrics.IncStreamErrors("send_error")
				h.logger.Warn("stream keepalive error", "component", "stream", "remote_ip", ip, "error", err)
				return
			}
		}
	}
}

func buildUpdateMessage(u poller.Update) updateMessage {
	return updateMessage{
		Type:   "update",
		T:      u.At.UnixMilli(),
		Fields: u.Fields,
		Series: u.Snapshot,
	}
}

// SSE message payload types.

type metadataMessage struct {
	Type       string `json:"type"`
	Source     string `json:"source"`
	Capacity   int    `json:"capacity"`
	IntervalMs int64  `json:"interval_ms"`
}

type updateMessage struct {
	Type   string          `json:"type"`
	T      int64           `json:"t"`
	Fields display.Fields  `json:"fields"`
	Series series.Snapshot `json:"series"`
}

type clockMessage struct {
	Type string `json:"type"`
	Time string `json:"time"`
}
