package chart

import (
	"bytes"
	"fmt"
	"html"
	"sync"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/star/isstrack/internal/series"
)

const (
	speedTitle    = "ISS Orbital Velocity (km/h)"
	altitudeTitle = "ISS Altitude (km)"
)

var lineColor = drawing.Color{R: 75, G: 192, B: 192, A: 255}

// SVGRenderer renders both charts to SVG and keeps the latest output.
type SVGRenderer struct {
	config Config

	mu       sync.RWMutex
	speed    []byte
	altitude []byte
}

// NewSVGRenderer creates a renderer; both charts start as empty placeholders.
func NewSVGRenderer(cfg Config) *SVGRenderer {
	r := &SVGRenderer{config: cfg}
	r.speed = placeholder(speedTitle, cfg.Width, cfg.Height)
	r.altitude = placeholder(altitudeTitle, cfg.Width, cfg.Height)
	return r
}

// Redraw renders both charts from snap. On error the previous charts are kept.
func (r *SVGRenderer) Redraw(snap series.Snapshot) error {
	speed, err := r.render(speedTitle, "Speed (km/h)", r.config.Speed, snap.Times, snap.Speed)
	if err != nil {
		return fmt.Errorf("rendering speed chart: %w", err)
	}
	altitude, err := r.render(altitudeTitle, "Altitude (km)", r.config.Altitude, snap.Times, snap.Altitude)
	if err != nil {
		return fmt.Errorf("rendering altitude chart: %w", err)
	}

	r.mu.Lock()
	r.speed = speed
	r.altitude = altitude
	r.mu.Unlock()
	return nil
}

// Speed returns the latest speed chart SVG.
func (r *SVGRenderer) Speed() []byte {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.speed
}

// Altitude returns the latest altitude chart SVG.
func (r *SVGRenderer) Altitude() []byte {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.altitude
}

func (r *SVGRenderer) render(title, yName string, yRange Range, times []int64, values []float64) ([]byte, error) {
	xs, ys := points(times, values)
	if len(xs) == 0 {
		return placeholder(title, r.config.Width, r.config.Height), nil
	}
	// A zero-width x range cannot be drawn.
	if len(xs) == 1 {
		xs = append(xs, xs[0].Add(time.Second))
		ys = append(ys, ys[0])
	}

	graph := gochart.Chart{
		Title:  title,
		Width:  r.config.Width,
		Height: r.config.Height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		XAxis: gochart.XAxis{
			Name:           "Time",
			ValueFormatter: gochart.TimeValueFormatterWithFormat("3:04:05 PM"),
		},
		YAxis: gochart.YAxis{
			Name:  yName,
			Range: &gochart.ContinuousRange{Min: yRange.Min, Max: yRange.Max},
		},
		Series: []gochart.Series{
			gochart.TimeSeries{
				Name:    title,
				XValues: xs,
				YValues: ys,
				Style: gochart.Style{
					StrokeColor: lineColor,
					StrokeWidth: 2,
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(gochart.SVG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// placeholder is shown until the first sample arrives.
func placeholder(title string, width, height int) []byte {
	return []byte(fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d"><text x="%d" y="%d" text-anchor="middle" font-family="sans-serif" font-size="14">%s: waiting for data</text></svg>`,
		width, height, width/2, height/2, html.EscapeString(title),
	))
}
