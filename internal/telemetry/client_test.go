package telemetry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))

const (
	positionBody  = `{"message": "success", "timestamp": 1596569091, "iss_position": {"latitude": "42.2456", "longitude": "75.6789"}}`
	telemetryBody = `{"name":"iss","id":25544,"latitude":42.2,"longitude":75.6,"altitude":418.25,"velocity":27583.5,"visibility":"daylight","footprint":4500.1,"timestamp":1596569091,"daynum":2459066.1,"solar_lat":16.9,"solar_lon":-12.4,"units":"kilometers"}`
)

func jsonServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientFetchSuccess(t *testing.T) {
	a := jsonServer(t, http.StatusOK, positionBody)
	b := jsonServer(t, http.StatusOK, telemetryBody)

	c := NewClient(a.URL, b.URL, testLogger)
	r, err := c.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "42.2456", r.Latitude)
	assert.Equal(t, "75.6789", r.Longitude)
	assert.Equal(t, 16.9, r.SolarLat)
	assert.Equal(t, -12.4, r.SolarLon)
	assert.Equal(t, 27583.5, r.Velocity)
	assert.Equal(t, 418.25, r.Altitude)
	assert.Equal(t, "daylight", r.Visibility)
	assert.Equal(t, time.Unix(1596569091, 0), r.Timestamp)

	lat, lon, err := r.LatLon()
	require.NoError(t, err)
	assert.InDelta(t, 42.2456, lat, 1e-9)
	assert.InDelta(t, 75.6789, lon, 1e-9)
}

func TestClientSecondEndpointFailure(t *testing.T) {
	a := jsonServer(t, http.StatusOK, positionBody)
	b := jsonServer(t, http.StatusServiceUnavailable, "")

	c := NewClient(a.URL, b.URL, testLogger)
	_, err := c.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.Equal(t, KindUnavailable, Classify(err))
	assert.True(t, Retryable(err))
}

func TestClientMalformedResponses(t *testing.T) {
	tests := []struct {
		name     string
		position string
	}{
		{"invalid json", `{"message": `},
		{"failure message", `{"message": "failure", "iss_position": {"latitude": "1", "longitude": "2"}}`},
		{"missing position", `{"message": "success"}`},
	}

	b := jsonServer(t, http.StatusOK, telemetryBody)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := jsonServer(t, http.StatusOK, tt.position)
			_, err := NewClient(a.URL, b.URL, testLogger).Fetch(context.Background())
			require.Error(t, err)
			assert.Equal(t, KindMalformed, Classify(err))
			assert.False(t, Retryable(err))
		})
	}
}

// TestClientMissingValues verifies absent velocity/altitude pass through as NaN
// rather than failing the fetch.
func TestClientMissingValues(t *testing.T) {
	a := jsonServer(t, http.StatusOK, positionBody)
	b := jsonServer(t, http.StatusOK, `{"visibility":"eclipsed"}`)

	r, err := NewClient(a.URL, b.URL, testLogger).Fetch(context.Background())
	require.NoError(t, err)
	assert.True(t, math.IsNaN(r.Velocity))
	assert.True(t, math.IsNaN(r.Altitude))
	assert.Equal(t, "eclipsed", r.Visibility)
}

func TestClientBodyLimit(t *testing.T) {
	a := jsonServer(t, http.StatusOK, positionBody)
	b := jsonServer(t, http.StatusOK, strings.Repeat(" ", maxBodyBytes+10))

	_, err := NewClient(a.URL, b.URL, testLogger).Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "byte limit")
	assert.Equal(t, KindUnavailable, Classify(err))
}

func TestClientTimeout(t *testing.T) {
	a := jsonServer(t, http.StatusOK, positionBody)
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewClient(a.URL, slow.URL, testLogger).Fetch(ctx)
	require.Error(t, err)
	assert.Equal(t, KindTimeout, Classify(err))
}

func TestClientDefaults(t *testing.T) {
	c := NewClient("", "", testLogger)
	assert.Equal(t, DefaultPositionURL, c.positionURL)
	assert.Equal(t, DefaultTelemetryURL, c.telemetryURL)
	assert.Equal(t, "api", c.Name())
}

func TestReadingLatLonInvalid(t *testing.T) {
	_, _, err := Reading{Latitude: "north", Longitude: "1"}.LatLon()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, "", Classify(nil))
	assert.Equal(t, KindCanceled, Classify(context.Canceled))
	assert.Equal(t, KindUnknown, Classify(errors.New("boom")))
}
