// Package calc implements the two on-page calculators: a distance metric
// between a typed-in point and the satellite's latest position, and a solar
// panel power estimate. Inputs are raw form strings and are coerced the way a
// browser coerces them; malformed input yields NaN rather than an error.
package calc

import (
	"math"
	"strconv"
	"strings"

	"github.com/star/isstrack/internal/display"
)

// EarthRadiusKm is the mean Earth radius used by Distance.
const EarthRadiusKm = 6371.0

// ParseNumber converts a form value to a number. Surrounding whitespace is
// ignored, an empty string is 0, and anything unparsable is NaN.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if v, ok := parseHex(s); ok {
		return v
	}
	// strconv accepts forms a browser rejects.
	lower := strings.ToLower(s)
	if strings.Contains(lower, "inf") || strings.Contains(lower, "nan") || strings.Contains(s, "_") {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func parseHex(s string) (float64, bool) {
	if len(s) < 3 || s[0] != '0' || (s[1] != 'x' && s[1] != 'X') {
		return 0, false
	}
	v, err := strconv.ParseUint(s[2:], 16, 64)
	if err != nil {
		return math.NaN(), true
	}
	return float64(v), true
}

// Distance reproduces the page's distance formula. Angles are passed to the
// trigonometric functions as given, in degrees, so the result is not a true
// great-circle distance.
func Distance(inLat, inLon, lat, lon float64) float64 {
	a := math.Pow(math.Sin((inLat-lat)/2), 2) +
		math.Cos(lat)*math.Cos(inLat)*math.Pow(math.Sin((inLon-lon)/2), 2)
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(a))
}

// Power estimates solar panel output as area × efficiency × irradiance.
func Power(area, efficiency, irradiance float64) float64 {
	return area * efficiency * irradiance
}

// FormatNumber renders a result the way the page displays it.
func FormatNumber(f float64) string {
	return display.FormatNumber(f)
}

// DistanceFromStrings coerces the form values and computes Distance.
func DistanceFromStrings(inLat, inLon string, lat, lon float64) float64 {
	return Distance(ParseNumber(inLat), ParseNumber(inLon), lat, lon)
}

// PowerFromStrings coerces the form values and computes Power.
func PowerFromStrings(area, efficiency, irradiance string) float64 {
	return Power(ParseNumber(area), ParseNumber(efficiency), ParseNumber(irradiance))
}
