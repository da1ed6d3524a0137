// Package telemetry fetches the live position and telemetry of the tracked
// satellite from the public location APIs.
//
// Two endpoints are queried per fetch:
//
//	A: coarse position      {"iss_position": {"latitude": "..", "longitude": ".."}, ...}
//	B: detailed telemetry   {"velocity": .., "altitude": .., "visibility": "..", "solar_lat": .., ...}
//
// Both requests run concurrently and are joined; a Reading is returned only
// when both succeed.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultPositionURL  = "http://api.open-notify.org/iss-now.json"
	DefaultTelemetryURL = "https://api.wheretheiss.at/v1/satellites/25544"

	// maxBodyBytes bounds each response body.
	maxBodyBytes = 1 << 20
)

// Client is the HTTP implementation of Source.
type Client struct {
	positionURL  string
	telemetryURL string
	httpClient   *http.Client
	logger       *slog.Logger
}

// NewClient creates a Client for the two endpoints. Empty URLs fall back to the defaults.
func NewClient(positionURL, telemetryURL string, logger *slog.Logger) *Client {
	if positionURL == "" {
		positionURL = DefaultPositionURL
	}
	if telemetryURL == "" {
		telemetryURL = DefaultTelemetryURL
	}
	return &Client{
		positionURL:  positionURL,
		telemetryURL: telemetryURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// Name identifies the source in logs.
func (c *Client) Name() string {
	return "api"
}

// Fetch queries both endpoints and merges the results.
func (c *Client) Fetch(ctx context.Context) (Reading, error) {
	var (
		pos positionResponse
		tel telemetryResponse
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := c.getJSON(gctx, c.positionURL, &pos); err != nil {
			return fmt.Errorf("position: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := c.getJSON(gctx, c.telemetryURL, &tel); err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Reading{}, err
	}

	if pos.Message != "success" {
		return Reading{}, fmt.Errorf("position: %w: message %q", ErrMalformed, pos.Message)
	}
	if pos.ISSPosition.Latitude == "" || pos.ISSPosition.Longitude == "" {
		return Reading{}, fmt.Errorf("position: %w: missing iss_position", ErrMalformed)
	}

	r := Reading{
		Latitude:   pos.ISSPosition.Latitude,
		Longitude:  pos.ISSPosition.Longitude,
		SolarLat:   tel.SolarLat,
		SolarLon:   tel.SolarLon,
		Velocity:   valueOrNaN(tel.Velocity),
		Altitude:   valueOrNaN(tel.Altitude),
		Visibility: tel.Visibility,
		Timestamp:  time.Unix(pos.Timestamp, 0),
	}

	c.logger.Debug("telemetry fetched",
		"component", "telemetry",
		"latitude", r.Latitude,
		"longitude", r.Longitude,
		"velocity", r.Velocity,
		"altitude", r.Altitude,
	)

	return r, nil
}

// getJSON performs a GET and decodes the JSON body into v.
func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: creating request: %w", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status code %d from %s", ErrUnavailable, resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return fmt.Errorf("%w: reading response body: %w", ErrUnavailable, err)
	}
	if len(body) > maxBodyBytes {
		return fmt.Errorf("%w: response from %s exceeds %d byte limit", ErrUnavailable, url, maxBodyBytes)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: decoding %s: %w", ErrMalformed, url, err)
	}
	return nil
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
