// Package transform converts SGP4 output into the quantities shown by the
// tracker: geodetic sub-satellite point, altitude, speed, sub-solar point and
// eclipse state.
//
// TEME is rotated to Earth-fixed with GMST only (no nutation, no polar
// motion), which is accurate to well under a kilometre for display purposes.
package transform

import (
	"math"
	"time"
)

// WGS-84 ellipsoid, kilometres.
const (
	wgs84A  = 6378.137
	wgs84F  = 1.0 / 298.257223563
	wgs84B  = wgs84A * (1 - wgs84F)
	wgs84E2 = wgs84F * (2 - wgs84F)
)

// PositionTEME is a position and velocity in the TEME frame.
type PositionTEME struct {
	X, Y, Z    float64 // km
	VX, VY, VZ float64 // km/s
}

// Geodetic is a point above the WGS-84 ellipsoid.
type Geodetic struct {
	LatDeg float64
	LonDeg float64 // [-180, 180)
	AltKm  float64
}

// SubPoint returns the geodetic point directly below the satellite at time t.
func SubPoint(pos PositionTEME, t time.Time) Geodetic {
	return SubPointWithGMST(pos, GMST(t))
}

// SubPointWithGMST is SubPoint with a precomputed GMST angle (radians).
func SubPointWithGMST(pos PositionTEME, gmst float64) Geodetic {
	cosG, sinG := math.Cos(gmst), math.Sin(gmst)
	x := pos.X*cosG + pos.Y*sinG
	y := -pos.X*sinG + pos.Y*cosG
	z := pos.Z

	lon := math.Atan2(y, x)
	p := math.Hypot(x, y)

	if p < 1e-9 {
		lat := math.Pi / 2
		if z < 0 {
			lat = -lat
		}
		return Geodetic{LatDeg: degrees(lat), LonDeg: normalizeLon(degrees(lon)), AltKm: math.Abs(z) - wgs84B}
	}

	// Fixed-point iteration on latitude; converges to sub-millimetre in a few rounds for LEO.
	lat := math.Atan2(z, p*(1-wgs84E2))
	var alt float64
	for i := 0; i < 6; i++ {
		sinLat := math.Sin(lat)
		n := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)
		alt = p/math.Cos(lat) - n
		lat = math.Atan2(z, p*(1-wgs84E2*n/(n+alt)))
	}

	return Geodetic{LatDeg: degrees(lat), LonDeg: normalizeLon(degrees(lon)), AltKm: alt}
}

// SpeedKmH returns the inertial speed in km/h.
func SpeedKmH(pos PositionTEME) float64 {
	return math.Sqrt(pos.VX*pos.VX+pos.VY*pos.VY+pos.VZ*pos.VZ) * 3600.0
}

func degrees(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// normalizeLon wraps a longitude into [-180, 180).
func normalizeLon(deg float64) float64 {
	deg = math.Mod(deg+180.0, 360.0)
	if deg < 0 {
		deg += 360.0
	}
	return deg - 180.0
}
