// Package propagation implements a telemetry source that computes the
// satellite's state from its published element set with the SGP4 model,
// instead of asking a live location API.
package propagation

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/star/isstrack/internal/telemetry"
	"github.com/star/isstrack/internal/tle"
	"github.com/star/isstrack/internal/transform"
)

// Config holds SGP4 source configuration.
type Config struct {
	NORADID int           // Catalog number to track (default: 25544).
	MaxAge  time.Duration // Refresh the element set after this long (default: 24h).
}

// builtModel pairs an initialized model with the dataset it was built from.
type builtModel struct {
	model     *Model
	fetchedAt time.Time
}

// Source is the SGP4 implementation of telemetry.Source.
type Source struct {
	fetcher *tle.Fetcher
	store   *tle.Store
	config  Config
	logger  *slog.Logger
	now     func() time.Time

	model atomic.Pointer[builtModel]
}

// NewSource creates an SGP4 source that loads element sets through fetcher.
func NewSource(fetcher *tle.Fetcher, store *tle.Store, config Config, logger *slog.Logger) *Source {
	if config.NORADID == 0 {
		config.NORADID = 25544
	}
	if config.MaxAge <= 0 {
		config.MaxAge = 24 * time.Hour
	}
	return &Source{
		fetcher: fetcher,
		store:   store,
		config:  config,
		logger:  logger,
		now:     time.Now,
	}
}

// Name identifies the source in logs.
func (s *Source) Name() string {
	return "sgp4"
}

// Fetch propagates the element set to the current time.
func (s *Source) Fetch(ctx context.Context) (telemetry.Reading, error) {
	ds, err := s.dataset(ctx)
	if err != nil {
		return telemetry.Reading{}, err
	}

	model, err := s.buildModel(ds)
	if err != nil {
		return telemetry.Reading{}, fmt.Errorf("%w: %w", telemetry.ErrMalformed, err)
	}

	now := s.now().UTC()
	teme, err := model.Propagate(now)
	if err != nil {
		return telemetry.Reading{}, fmt.Errorf("%w: %w", telemetry.ErrMalformed, err)
	}

	return ReadingAt(teme, now), nil
}

// ReadingAt derives the displayed quantities from a TEME state at time t.
func ReadingAt(teme transform.PositionTEME, t time.Time) telemetry.Reading {
	geo := transform.SubPoint(teme, t)
	solarLat, solarLon := transform.SubSolarPoint(t)

	visibility := "daylight"
	if transform.InShadow(teme, t) {
		visibility = "eclipsed"
	}

	return telemetry.Reading{
		Latitude:   strconv.FormatFloat(geo.LatDeg, 'f', 4, 64),
		Longitude:  strconv.FormatFloat(geo.LonDeg, 'f', 4, 64),
		SolarLat:   solarLat,
		SolarLon:   solarLon,
		Velocity:   transform.SpeedKmH(teme),
		Altitude:   geo.AltKm,
		Visibility: visibility,
		Timestamp:  t,
	}
}

// dataset returns the current element set, fetching a new one when missing
// or older than MaxAge. A stale set is kept if the refresh fails.
func (s *Source) dataset(ctx context.Context) (*tle.Dataset, error) {
	now := s.now()
	return s.store.Refresh(now, s.config.MaxAge, func(stale *tle.Dataset) (*tle.Dataset, error) {
		entries, err := s.fetcher.Fetch(ctx)
		if err != nil {
			if stale != nil {
				s.logger.Warn("TLE refresh failed, using stale element set",
					"component", "propagation",
					"age_seconds", int(now.Sub(stale.FetchedAt).Seconds()),
					"error", err,
				)
				return stale, nil
			}
			return nil, fmt.Errorf("%w: %w", telemetry.ErrUnavailable, err)
		}

		entry, ok := tle.Find(entries, s.config.NORADID)
		if !ok {
			if stale != nil {
				return stale, nil
			}
			return nil, fmt.Errorf("%w: NORAD %d not in TLE source", telemetry.ErrMalformed, s.config.NORADID)
		}

		s.logger.Info("TLE element set loaded",
			"component", "propagation",
			"norad_id", entry.NORADID,
			"name", entry.Name,
			"epoch", entry.Epoch.UTC().Format(time.RFC3339),
		)
		return &tle.Dataset{
			Source:    s.fetcher.SourceURL(),
			FetchedAt: now,
			Entry:     entry,
		}, nil
	})
}

// buildModel returns the model for ds, rebuilding it when the dataset changed.
func (s *Source) buildModel(ds *tle.Dataset) (*Model, error) {
	if b := s.model.Load(); b != nil && b.fetchedAt.Equal(ds.FetchedAt) {
		return b.model, nil
	}

	m, err := NewModel(ds.Entry.Line1, ds.Entry.Line2, ds.Entry.NORADID)
	if err != nil {
		return nil, err
	}
	s.model.Store(&builtModel{model: m, fetchedAt: ds.FetchedAt})
	return m, nil
}
