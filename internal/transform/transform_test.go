package transform

import (
	"math"
	"testing"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

func TestJulianDate(t *testing.T) {
	tests := []struct {
		name     string
		time     time.Time
		expected float64
	}{
		{"J2000.0 epoch", time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC), 2451545.0},
		{"Unix epoch", time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC), 2440587.5},
		// Vallado Example 3-15.
		{"Vallado example date", time.Date(2004, 4, 6, 7, 51, 28, 386009000, time.UTC), 2453101.827411875},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := JulianDate(tt.time)
			if diff := math.Abs(got - tt.expected); diff > 1e-6 {
				t.Errorf("JulianDate(%v) = %.10f, want %.10f (diff=%.2e)", tt.time, got, tt.expected, diff)
			}
		})
	}
}

// TestGMST cross-checks against go-satellite's GSTimeFromDate (same IAU-82 model).
func TestGMST(t *testing.T) {
	times := []time.Time{
		time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC),
		time.Date(2004, 4, 6, 7, 51, 28, 0, time.UTC),
		time.Date(2026, 2, 6, 4, 1, 0, 0, time.UTC),
	}

	for _, tm := range times {
		t.Run(tm.Format(time.RFC3339), func(t *testing.T) {
			our := GMST(tm)
			ref := satellite.GSTimeFromDate(tm.Year(), int(tm.Month()), tm.Day(), tm.Hour(), tm.Minute(), tm.Second())
			if diff := math.Abs(our - ref); diff > 1e-8 {
				t.Errorf("GMST = %.12f rad, go-satellite = %.12f rad (diff=%.2e)", our, ref, diff)
			}
		})
	}
}

func TestSubPointWithGMST(t *testing.T) {
	tests := []struct {
		name    string
		pos     PositionTEME
		gmst    float64
		lat     float64
		lon     float64
		altKm   float64
		altTolK float64
	}{
		{"equator prime meridian", PositionTEME{X: 6778}, 0, 0, 0, 6778 - wgs84A, 1e-6},
		{"equator 90E", PositionTEME{Y: 6778}, 0, 0, 90, 6778 - wgs84A, 1e-6},
		{"rotated by GMST", PositionTEME{X: 6778}, math.Pi / 2, 0, -90, 6778 - wgs84A, 1e-6},
		{"north pole", PositionTEME{Z: 6778}, 0, 90, 0, 6778 - wgs84B, 1e-6},
		{"south pole", PositionTEME{Z: -6778}, 0, -90, 0, 6778 - wgs84B, 1e-6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := SubPointWithGMST(tt.pos, tt.gmst)
			if math.Abs(g.LatDeg-tt.lat) > 1e-6 {
				t.Errorf("lat = %.6f, want %.6f", g.LatDeg, tt.lat)
			}
			if math.Abs(g.LonDeg-tt.lon) > 1e-6 {
				t.Errorf("lon = %.6f, want %.6f", g.LonDeg, tt.lon)
			}
			if math.Abs(g.AltKm-tt.altKm) > tt.altTolK {
				t.Errorf("alt = %.6f km, want %.6f km", g.AltKm, tt.altKm)
			}
		})
	}
}

// TestSubPointRoundTrip converts geodetic to Earth-fixed and back.
func TestSubPointRoundTrip(t *testing.T) {
	for _, latDeg := range []float64{-51.6, -23.4, 12.5, 45, 51.6} {
		lat, lon, alt := radians(latDeg), radians(-120.0), 420.0
		n := wgs84A / math.Sqrt(1-wgs84E2*math.Sin(lat)*math.Sin(lat))
		pos := PositionTEME{
			X: (n + alt) * math.Cos(lat) * math.Cos(lon),
			Y: (n + alt) * math.Cos(lat) * math.Sin(lon),
			Z: (n*(1-wgs84E2) + alt) * math.Sin(lat),
		}

		g := SubPointWithGMST(pos, 0)
		if math.Abs(g.LatDeg-latDeg) > 1e-7 || math.Abs(g.LonDeg+120) > 1e-7 || math.Abs(g.AltKm-alt) > 1e-6 {
			t.Errorf("round trip lat=%.1f: got %+v", latDeg, g)
		}
	}
}

func TestSpeedKmH(t *testing.T) {
	got := SpeedKmH(PositionTEME{VX: 3, VY: 4})
	if math.Abs(got-18000) > 1e-9 {
		t.Errorf("SpeedKmH = %f, want 18000", got)
	}
}

func TestNormalizeLon(t *testing.T) {
	tests := map[float64]float64{0: 0, 180: -180, 190: -170, -190: 170, 540: -180, 359: -1}
	for in, want := range tests {
		if got := normalizeLon(in); math.Abs(got-want) > 1e-9 {
			t.Errorf("normalizeLon(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestSubSolarPoint(t *testing.T) {
	tests := []struct {
		name string
		time time.Time
		lat  float64
	}{
		{"june solstice", time.Date(2024, 6, 20, 12, 0, 0, 0, time.UTC), 23.44},
		{"december solstice", time.Date(2024, 12, 21, 12, 0, 0, 0, time.UTC), -23.44},
		{"march equinox", time.Date(2024, 3, 20, 3, 6, 0, 0, time.UTC), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lat, _ := SubSolarPoint(tt.time)
			if math.Abs(lat-tt.lat) > 0.1 {
				t.Errorf("sub-solar lat = %.3f, want %.2f", lat, tt.lat)
			}
		})
	}

	// Near noon UTC the Sun is over the prime meridian, within the equation of time.
	_, lon := SubSolarPoint(time.Date(2024, 6, 20, 12, 0, 0, 0, time.UTC))
	if math.Abs(lon) > 5 {
		t.Errorf("sub-solar lon at 12:00 UTC = %.3f, want within 5° of 0", lon)
	}
}

func TestInShadow(t *testing.T) {
	tm := time.Date(2024, 6, 20, 12, 0, 0, 0, time.UTC)
	s := SunDirection(tm)

	// Unit vector perpendicular to the Sun direction.
	perp := [3]float64{-s[1], s[0], 0}
	norm := math.Hypot(perp[0], perp[1])
	perp[0], perp[1] = perp[0]/norm, perp[1]/norm

	scaled := func(v [3]float64, k float64) PositionTEME {
		return PositionTEME{X: v[0] * k, Y: v[1] * k, Z: v[2] * k}
	}

	if InShadow(scaled(s, 6800), tm) {
		t.Error("sunward satellite should be lit")
	}
	if !InShadow(scaled(s, -6800), tm) {
		t.Error("anti-sunward satellite should be eclipsed")
	}

	beside := scaled(perp, 6800)
	beside.X -= s[0] * 100
	beside.Y -= s[1] * 100
	beside.Z -= s[2] * 100
	if InShadow(beside, tm) {
		t.Error("satellite beside the shadow cylinder should be lit")
	}
}
