package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/star/isstrack/internal/chart"
	"github.com/star/isstrack/internal/display"
	"github.com/star/isstrack/internal/poller"
	"github.com/star/isstrack/internal/series"
)

var (
	watchCount int
	watchWidth int
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll and print speed and altitude sparklines to the terminal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return watch(cmd.Context())
	},
}

func init() {
	watchCmd.Flags().IntVar(&watchCount, "count", 0, "Stop after this many successful cycles (0 runs until interrupted).")
	watchCmd.Flags().IntVar(&watchWidth, "width", 0, "Sparkline width in cells (0 uses the series capacity).")
}

var stampStyle = lipgloss.NewStyle().Faint(true)

func watch(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	source, _ := newSource(cfg, logger)
	record := series.NewRecord(series.Config{Capacity: cfg.Series.Capacity})
	width := watchWidth
	if width <= 0 {
		width = record.Capacity()
	}

	overlap, _ := poller.ParseOverlap(cfg.Poll.Overlap)
	p := poller.New(source, display.NewBoard(), record,
		chart.NewTextRenderer(os.Stdout, cfg.Charts, width),
		poller.Config{Interval: cfg.Poll.Interval, Timeout: cfg.Poll.Timeout, Overlap: overlap},
		logger,
	)

	cycles := 0
	p.Subscribe(func(u poller.Update) {
		f := u.Fields
		fmt.Printf("%s  lat %s  lon %s  sun %s, %s  %s\n\n",
			stampStyle.Render(display.FormatClock(u.At)),
			f.Latitude, f.Longitude, f.SolarLat, f.SolarLon, f.Visibility,
		)
		cycles++
		if watchCount > 0 && cycles >= watchCount {
			cancel()
		}
	})

	p.Run(ctx)
	return nil
}
