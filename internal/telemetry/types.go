package telemetry

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// Source produces the current position and telemetry of the tracked satellite.
type Source interface {
	Fetch(ctx context.Context) (Reading, error)
	Name() string
}

// Reading is one successful observation of the satellite.
type Reading struct {
	// Latitude and Longitude are kept as reported so they display verbatim.
	Latitude  string
	Longitude string

	SolarLat   float64 // sub-solar latitude, degrees
	SolarLon   float64 // sub-solar longitude, degrees
	Velocity   float64 // km/h
	Altitude   float64 // km
	Visibility string  // "daylight", "eclipsed" or "visible"

	Timestamp time.Time // as reported by the source
}

// LatLon parses the reported latitude and longitude as degrees.
func (r Reading) LatLon() (float64, float64, error) {
	lat, err := strconv.ParseFloat(r.Latitude, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: latitude %q", ErrMalformed, r.Latitude)
	}
	lon, err := strconv.ParseFloat(r.Longitude, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: longitude %q", ErrMalformed, r.Longitude)
	}
	return lat, lon, nil
}

// positionResponse is the Endpoint A payload.
//
//	{"message": "success", "timestamp": 1596569091,
//	 "iss_position": {"latitude": "42.2456", "longitude": "75.6789"}}
type positionResponse struct {
	Message     string `json:"message"`
	Timestamp   int64  `json:"timestamp"`
	ISSPosition struct {
		Latitude  string `json:"latitude"`
		Longitude string `json:"longitude"`
	} `json:"iss_position"`
}

// telemetryResponse is the Endpoint B payload. Fields not used here are ignored.
type telemetryResponse struct {
	Name       string   `json:"name"`
	ID         int      `json:"id"`
	Latitude   float64  `json:"latitude"`
	Longitude  float64  `json:"longitude"`
	Altitude   *float64 `json:"altitude"`
	Velocity   *float64 `json:"velocity"`
	Visibility string   `json:"visibility"`
	SolarLat   float64  `json:"solar_lat"`
	SolarLon   float64  `json:"solar_lon"`
	Timestamp  int64    `json:"timestamp"`
	Units      string   `json:"units"`
}
