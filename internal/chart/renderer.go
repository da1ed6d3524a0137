// Package chart draws the speed and altitude charts from a series snapshot.
// Renderers only read the snapshot they are handed; redrawing the same
// snapshot twice produces the same output.
package chart

import (
	"math"
	"time"

	"github.com/star/isstrack/internal/series"
)

// Renderer redraws both charts from a snapshot.
type Renderer interface {
	Redraw(snap series.Snapshot) error
}

// Range is a fixed y-axis range.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Config configures chart geometry and y-axis bounds.
type Config struct {
	Width    int   `yaml:"width"`
	Height   int   `yaml:"height"`
	Speed    Range `yaml:"speed"`
	Altitude Range `yaml:"altitude"`
}

// DefaultConfig returns the standard chart layout.
func DefaultConfig() Config {
	return Config{
		Width:    800,
		Height:   300,
		Speed:    Range{Min: 27500, Max: 27700},
		Altitude: Range{Min: 410, Max: 425},
	}
}

// points pairs timestamps with values, dropping non-finite values.
func points(times []int64, values []float64) ([]time.Time, []float64) {
	n := min(len(times), len(values))
	xs := make([]time.Time, 0, n)
	ys := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		v := values[i]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		xs = append(xs, time.UnixMilli(times[i]))
		ys = append(ys, v)
	}
	return xs, ys
}
