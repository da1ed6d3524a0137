package transform

import (
	"math"
	"time"
)

// Low-precision solar ephemeris (Astronomical Almanac), good to ~0.01° over
// 1950-2050.

// SunDirection returns the unit vector from Earth's centre to the Sun in the
// equatorial inertial frame at time t.
func SunDirection(t time.Time) [3]float64 {
	lambda, eps := sunEcliptic(t)
	return [3]float64{
		math.Cos(lambda),
		math.Cos(eps) * math.Sin(lambda),
		math.Sin(eps) * math.Sin(lambda),
	}
}

// SubSolarPoint returns the latitude and longitude (degrees) where the Sun is at zenith.
func SubSolarPoint(t time.Time) (lat, lon float64) {
	lambda, eps := sunEcliptic(t)
	dec := math.Asin(math.Sin(eps) * math.Sin(lambda))
	ra := math.Atan2(math.Cos(eps)*math.Sin(lambda), math.Cos(lambda))
	return degrees(dec), normalizeLon(degrees(ra - GMST(t)))
}

// InShadow reports whether a satellite at pos is inside Earth's shadow,
// modelled as a cylinder of Earth's equatorial radius pointing away from the Sun.
func InShadow(pos PositionTEME, t time.Time) bool {
	sun := SunDirection(t)
	along := pos.X*sun[0] + pos.Y*sun[1] + pos.Z*sun[2]
	if along >= 0 {
		return false
	}
	px := pos.X - along*sun[0]
	py := pos.Y - along*sun[1]
	pz := pos.Z - along*sun[2]
	return math.Sqrt(px*px+py*py+pz*pz) < wgs84A
}

// sunEcliptic returns the Sun's ecliptic longitude and the obliquity, radians.
func sunEcliptic(t time.Time) (lambda, eps float64) {
	n := JulianDate(t) - j2000
	meanLon := 280.460 + 0.9856474*n
	anomaly := radians(math.Mod(357.528+0.9856003*n, 360.0))

	lambda = radians(meanLon + 1.915*math.Sin(anomaly) + 0.020*math.Sin(2*anomaly))
	eps = radians(23.439 - 0.0000004*n)
	return lambda, eps
}
