package propagation

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/star/isstrack/internal/tle"
	"github.com/star/isstrack/internal/transform"
)

// Plausible geocentric radius for any tracked object, km.
const (
	minRadiusKm = 6200.0
	maxRadiusKm = 50000.0
)

// Model is an initialized SGP4 model (github.com/joshuaferrara/go-satellite)
// for one element set.
type Model struct {
	sat     satellite.Satellite
	noradID int
}

// NewModel initializes SGP4 from the two element lines. go-satellite exits
// the process on unparsable input, so the lines are checked here first.
func NewModel(line1, line2 string, noradID int) (*Model, error) {
	line1, line2 = strings.TrimSpace(line1), strings.TrimSpace(line2)
	if err := errors.Join(tle.CheckLine(line1, '1'), tle.CheckLine(line2, '2')); err != nil {
		return nil, fmt.Errorf("invalid TLE for NORAD %d: %w", noradID, err)
	}

	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS84)
	if sat.Error != 0 {
		return nil, fmt.Errorf("sgp4 init failed for NORAD %d: code=%d %s", noradID, sat.Error, sat.ErrorStr)
	}
	return &Model{sat: sat, noradID: noradID}, nil
}

// Propagate returns the TEME state (km, km/s) at t, to the second.
// The library hides SGP4 error codes, so failures show up as non-finite
// or implausible output.
func (m *Model) Propagate(t time.Time) (transform.PositionTEME, error) {
	t = t.UTC()
	pos, vel := satellite.Propagate(m.sat, t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())

	state := transform.PositionTEME{X: pos.X, Y: pos.Y, Z: pos.Z, VX: vel.X, VY: vel.Y, VZ: vel.Z}
	for _, v := range []float64{state.X, state.Y, state.Z, state.VX, state.VY, state.VZ} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return transform.PositionTEME{}, fmt.Errorf("sgp4 propagation failed for NORAD %d: non-finite output", m.noradID)
		}
	}
	if r := math.Sqrt(state.X*state.X + state.Y*state.Y + state.Z*state.Z); r < minRadiusKm || r > maxRadiusKm {
		return transform.PositionTEME{}, fmt.Errorf("sgp4 propagation failed for NORAD %d: radius %.1f km", m.noradID, r)
	}
	return state, nil
}
