package propagation

import (
	"context"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/star/isstrack/internal/telemetry"
	"github.com/star/isstrack/internal/tle"
)

// Real ISS orbital elements used for testing.
const (
	issLine1 = "1 25544U 98067A   24100.50000000  .00016717  00000-0  10270-3 0  9009"
	issLine2 = "2 25544  51.6400 100.0000 0001000   0.0000   0.0000 15.50000000    01"
	issTLE   = "ISS (ZARYA)\n" + issLine1 + "\n" + issLine2 + "\n"
)

var epochTime = time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func TestPropagateSingle(t *testing.T) {
	model, err := NewModel(issLine1, issLine2, 25544)
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}

	teme, err := model.Propagate(epochTime)
	if err != nil {
		t.Fatalf("Propagate failed: %v", err)
	}

	// ISS orbit radius ~6371 + 420 km.
	mag := math.Sqrt(teme.X*teme.X + teme.Y*teme.Y + teme.Z*teme.Z)
	if mag < 6500 || mag > 7000 {
		t.Errorf("TEME position magnitude = %.1f km, expected ~6791 km", mag)
	}
}

func TestNewModelRejectsBadLines(t *testing.T) {
	badChecksum := issLine1[:68] + "0"
	tests := []struct {
		name         string
		line1, line2 string
	}{
		{"garbage", "invalid line 1", "invalid line 2"},
		{"swapped", issLine2, issLine1},
		{"checksum", badChecksum, issLine2},
	}
	for _, tt := range tests {
		if _, err := NewModel(tt.line1, tt.line2, 25544); err == nil {
			t.Errorf("%s: expected error, got nil", tt.name)
		}
	}
}

func tleServer(t *testing.T, body string, fail *atomic.Bool, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if fail != nil && fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestSource(url string, cfg Config, now func() time.Time) *Source {
	logger := testLogger()
	s := NewSource(tle.NewFetcher(url, logger), tle.NewStore(), cfg, logger)
	s.now = now
	return s
}

// TestSourceFetch verifies the SGP4 reading lands in the ISS envelope.
func TestSourceFetch(t *testing.T) {
	var hits atomic.Int32
	srv := tleServer(t, issTLE, nil, &hits)
	s := newTestSource(srv.URL, Config{}, func() time.Time { return epochTime })

	r, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if r.Velocity < 27000 || r.Velocity > 28500 {
		t.Errorf("velocity = %.1f km/h, want ~27600", r.Velocity)
	}
	if r.Altitude < 350 || r.Altitude > 480 {
		t.Errorf("altitude = %.1f km, want ~420", r.Altitude)
	}
	lat, err := strconv.ParseFloat(r.Latitude, 64)
	if err != nil || math.Abs(lat) > 52 {
		t.Errorf("latitude = %q, want within inclination", r.Latitude)
	}
	if r.Visibility != "daylight" && r.Visibility != "eclipsed" {
		t.Errorf("visibility = %q", r.Visibility)
	}
	if !r.Timestamp.Equal(epochTime) {
		t.Errorf("timestamp = %v, want %v", r.Timestamp, epochTime)
	}

	// Second fetch reuses the cached element set.
	if _, err := s.Fetch(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("TLE source hit %d times, want 1", n)
	}
}

// TestSourceStaleFallback verifies a failed refresh keeps the previous element set.
func TestSourceStaleFallback(t *testing.T) {
	var (
		fail atomic.Bool
		hits atomic.Int32
	)
	srv := tleServer(t, issTLE, &fail, &hits)

	now := epochTime
	s := newTestSource(srv.URL, Config{MaxAge: time.Hour}, func() time.Time { return now })

	if _, err := s.Fetch(context.Background()); err != nil {
		t.Fatal(err)
	}

	fail.Store(true)
	now = epochTime.Add(2 * time.Hour)
	if _, err := s.Fetch(context.Background()); err != nil {
		t.Fatalf("expected stale element set to be used, got %v", err)
	}
	if n := hits.Load(); n != 2 {
		t.Errorf("TLE source hit %d times, want 2", n)
	}
}

func TestSourceErrors(t *testing.T) {
	var (
		fail atomic.Bool
		hits atomic.Int32
	)
	fail.Store(true)
	down := tleServer(t, issTLE, &fail, &hits)

	_, err := newTestSource(down.URL, Config{}, func() time.Time { return epochTime }).Fetch(context.Background())
	if got := telemetry.Classify(err); got != telemetry.KindUnavailable {
		t.Errorf("unavailable source: kind = %q, err = %v", got, err)
	}

	other := tleServer(t, issTLE, nil, &hits)
	_, err = newTestSource(other.URL, Config{NORADID: 1}, func() time.Time { return epochTime }).Fetch(context.Background())
	if got := telemetry.Classify(err); got != telemetry.KindMalformed {
		t.Errorf("missing satellite: kind = %q, err = %v", got, err)
	}
}

func TestSourceName(t *testing.T) {
	if got := newTestSource("", Config{}, time.Now).Name(); got != "sgp4" {
		t.Errorf("Name() = %q", got)
	}
}
