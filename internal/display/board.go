// Package display holds the values shown next to the charts: the satellite's
// position, sub-solar point, speed, altitude and visibility, plus the local
// clock. Fields are replaced as a whole, only after a fully successful poll
// cycle, so readers never see a mix of two cycles.
package display

import (
	"math"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/star/isstrack/internal/telemetry"
)

// Fields are the formatted display values.
type Fields struct {
	Latitude   string `json:"lat"`
	Longitude  string `json:"lon"`
	SolarLat   string `json:"s_lat"`
	SolarLon   string `json:"s_lon"`
	Speed      string `json:"speed"`
	Altitude   string `json:"height"`
	Visibility string `json:"daylight"`
}

// Position is the latest known numeric position, used by the distance calculator.
type Position struct {
	Latitude  float64
	Longitude float64
	UpdatedAt time.Time
}

type boardState struct {
	fields   Fields
	position *Position
	updated  time.Time
}

// Board is the shared holder of the latest display state. Safe for concurrent use.
type Board struct {
	state atomic.Pointer[boardState]
}

// NewBoard creates an empty board.
func NewBoard() *Board {
	b := &Board{}
	b.state.Store(&boardState{})
	return b
}

// Update replaces all fields from r. at is the wall-clock time of the update.
func (b *Board) Update(r telemetry.Reading, at time.Time) {
	st := &boardState{
		fields:  FieldsFrom(r),
		updated: at,
	}
	if lat, lon, err := r.LatLon(); err == nil {
		st.position = &Position{Latitude: lat, Longitude: lon, UpdatedAt: at}
	}
	b.state.Store(st)
}

// Fields returns the current fields. All are empty before the first update.
func (b *Board) Fields() Fields {
	return b.state.Load().fields
}

// Position returns the latest numeric position, if any.
func (b *Board) Position() (Position, bool) {
	p := b.state.Load().position
	if p == nil {
		return Position{}, false
	}
	return *p, true
}

// UpdatedAt returns when the board was last updated; zero if never.
func (b *Board) UpdatedAt() time.Time {
	return b.state.Load().updated
}

// FieldsFrom formats a reading for display.
func FieldsFrom(r telemetry.Reading) Fields {
	return Fields{
		Latitude:   r.Latitude,
		Longitude:  r.Longitude,
		SolarLat:   FormatNumber(r.SolarLat),
		SolarLon:   FormatNumber(r.SolarLon),
		Speed:      FormatNumber(r.Velocity) + " km/h",
		Altitude:   FormatNumber(r.Altitude) + " km",
		Visibility: r.Visibility,
	}
}

// FormatNumber renders f as the shortest decimal that round-trips, the way
// a browser prints a number. NaN and infinities print as NaN and Infinity.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}

	abs := math.Abs(f)
	if abs != 0 && (abs >= 1e21 || abs < 1e-6) {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		// Go pads the exponent to two digits; browsers do not.
		return trimExponent(s)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func trimExponent(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] != 'e' {
			continue
		}
		sign := s[i+1]
		digits := s[i+2:]
		for len(digits) > 1 && digits[0] == '0' {
			digits = digits[1:]
		}
		return s[:i+1] + string(sign) + digits
	}
	return s
}
