package stream

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/star/isstrack/internal/metrics"
)

// writeTimeout bounds each frame write to a subscriber.
const writeTimeout = 30 * time.Second

var keepaliveFrame = []byte(":\n\n")

// client writes event-stream frames to one subscriber.
type client struct {
	w      http.ResponseWriter
	rc     *http.ResponseController
	ip     string
	logger *slog.Logger
}

// sendJSON encodes v and sends it as a data frame.
func (c *client) sendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	return c.sendRaw(data)
}

// sendRaw sends already encoded JSON as "data: {json}\n\n".
func (c *client) sendRaw(data []byte) error {
	frame := make([]byte, 0, len(data)+8)
	frame = append(frame, "data: "...)
	frame = append(frame, data...)
	frame = append(frame, "\n\n"...)
	if err := c.write(frame); err != nil {
		return err
	}
	metrics.IncStreamMessages()
	return nil
}

// sendRetry tells the browser how long to wait before reconnecting.
func (c *client) sendRetry(d time.Duration) error {
	return c.write(fmt.Appendf(nil, "retry: %d\n\n", d.Milliseconds()))
}

// sendKeepalive sends an empty comment frame.
func (c *client) sendKeepalive() error {
	return c.write(keepaliveFrame)
}

func (c *client) write(frame []byte) error {
	if err := c.rc.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		c.logger.Debug("could not set write deadline", "component", "stream", "remote_ip", c.ip, "error", err)
	}
	n, err := c.w.Write(frame)
	metrics.AddStreamBytes(int64(n))
	if err != nil {
		return fmt.Errorf("stream write: %w", err)
	}
	return c.rc.Flush()
}
