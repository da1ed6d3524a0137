package chart

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/star/isstrack/internal/display"
	"github.com/star/isstrack/internal/series"
)

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

var (
	labelStyle = lipgloss.NewStyle().Bold(true).Width(9)
	sparkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	rangeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// TextRenderer draws both charts as terminal sparklines, one line each.
type TextRenderer struct {
	w      io.Writer
	config Config
	width  int
}

// NewTextRenderer creates a renderer writing to w. width is the number of
// sparkline cells; zero uses one cell per sample.
func NewTextRenderer(w io.Writer, cfg Config, width int) *TextRenderer {
	return &TextRenderer{w: w, config: cfg, width: width}
}

// Redraw writes the speed and altitude lines for snap.
func (r *TextRenderer) Redraw(snap series.Snapshot) error {
	var b strings.Builder
	b.WriteString(r.line("speed", r.config.Speed, snap.Speed, " km/h"))
	b.WriteByte('\n')
	b.WriteString(r.line("altitude", r.config.Altitude, snap.Altitude, " km"))
	b.WriteByte('\n')
	_, err := io.WriteString(r.w, b.String())
	return err
}

func (r *TextRenderer) line(label string, rng Range, values []float64, unit string) string {
	latest := "-"
	if n := len(values); n > 0 {
		latest = display.FormatNumber(values[n-1]) + unit
	}
	return fmt.Sprintf("%s %s %s %s  %s",
		labelStyle.Render(label),
		rangeStyle.Render(display.FormatNumber(rng.Min)),
		sparkStyle.Render(Sparkline(values, rng, r.width)),
		rangeStyle.Render(display.FormatNumber(rng.Max)),
		latest,
	)
}

// Sparkline maps values onto block characters scaled to rng, clamped at the
// ends. Non-finite values render as a space. With width > len(values) the
// line is left-padded; with fewer cells only the most recent values are kept.
func Sparkline(values []float64, rng Range, width int) string {
	if width <= 0 {
		width = len(values)
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", width-len(values)))
	span := rng.Max - rng.Min
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			b.WriteByte(' ')
			continue
		}
		idx := len(sparkBlocks) / 2
		if span > 0 {
			norm := math.Max(0, math.Min(1, (v-rng.Min)/span))
			idx = int(norm * float64(len(sparkBlocks)-1))
		}
		b.WriteRune(sparkBlocks[idx])
	}
	return b.String()
}
