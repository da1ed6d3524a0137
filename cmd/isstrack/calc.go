package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/star/isstrack/internal/calc"
)

var (
	distanceLat string
	distanceLon string

	powerArea       string
	powerEfficiency string
	powerIrradiance string
)

var distanceCmd = &cobra.Command{
	Use:   "distance",
	Short: "Fetch the current ISS position and compute the distance metric to a point",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		source, _ := newSource(cfg, logger)

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Poll.Timeout)
		defer cancel()
		r, err := source.Fetch(ctx)
		if err != nil {
			return fmt.Errorf("fetching position: %w", err)
		}
		lat, lon, err := r.LatLon()
		if err != nil {
			return err
		}

		d := calc.DistanceFromStrings(distanceLat, distanceLon, lat, lon)
		fmt.Fprintln(cmd.OutOrStdout(), calc.FormatNumber(d))
		return nil
	},
}

var powerCmd = &cobra.Command{
	Use:   "power",
	Short: "Estimate solar panel output as area × efficiency × irradiance",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		p := calc.PowerFromStrings(powerArea, powerEfficiency, powerIrradiance)
		fmt.Fprintln(cmd.OutOrStdout(), calc.FormatNumber(p))
	},
}

func init() {
	distanceCmd.Flags().StringVar(&distanceLat, "lat", "", "Latitude of your point.")
	distanceCmd.Flags().StringVar(&distanceLon, "lon", "", "Longitude of your point.")

	powerCmd.Flags().StringVar(&powerArea, "area", "", "Panel area.")
	powerCmd.Flags().StringVar(&powerEfficiency, "efficiency", "", "Panel efficiency.")
	powerCmd.Flags().StringVar(&powerIrradiance, "irradiance", "", "Solar irradiance.")
}
