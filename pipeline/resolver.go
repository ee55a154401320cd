// Copyright 2025 The NerMap Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/jcodagnone/nermap/geocode"
	"github.com/jcodagnone/nermap/spatial"
	"github.com/rs/zerolog"
)

// Resolution is a place name the geocoder answered.
type Resolution struct {
	Name        string             `json:"name"`
	DisplayName string             `json:"display_name"`
	Coordinate  spatial.Coordinate `json:"coordinate"`
	Cached      bool               `json:"cached"`
}

// Failure is a place name left out of the map.
type Failure struct {
	Name string            `json:"name"`
	Type geocode.ErrorType `json:"-"`
	Err  error             `json:"-"`
}

// Report is the outcome of a resolver run.
type Report struct {
	Resolved []Resolution
	Failures []Failure
	// Coordinates holds one entry per Resolved item, in the same order.
	Coordinates []spatial.Coordinate
}

// Attempted returns the number of names the geocoder was asked about.
func (r *Report) Attempted() int {
	return len(r.Resolved) + len(r.Failures)
}

// FailuresByType counts failures per kind.
func (r *Report) FailuresByType() map[geocode.ErrorType]int {
	out := make(map[geocode.ErrorType]int)
	for _, f := range r.Failures {
		out[f.Type]++
	}

	return out
}

// Resolver geocodes place names one at a time.
type Resolver struct {
	Geocoder geocode.Geocoder
	// Delay is slept between two consecutive lookups.
	Delay  time.Duration
	Logger zerolog.Logger
	// Metrics may be nil.
	Metrics *Metrics
	// Strict aborts the run on failures that are about the service rather
	// than the query (see geocode.ErrorType.ServiceFailure).
	Strict bool
	// OnProgress is called after every name with the count processed so far.
	OnProgress func(done int, name string)

	sleep func(context.Context, time.Duration) error
}

// NewResolver returns a lenient Resolver with no delay.
func NewResolver(g geocode.Geocoder, logger zerolog.Logger) *Resolver {
	return &Resolver{Geocoder: g, Logger: logger}
}

// Resolve calls the geocoder exactly once per name, in order.
//
// Lookups that fail are logged and recorded in the report; the run goes on.
// In Strict mode a service failure stops the run and the partial report is
// returned together with the error. Context cancellation also stops the run.
func (r *Resolver) Resolve(ctx context.Context, names iter.Seq[string]) (*Report, error) {
	report := &Report{}

	var (
		collector Collector
		done      int
		runErr    error
	)

	sleep := r.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	provider := r.Geocoder.Name()

	for name := range names {
		if done > 0 && r.Delay > 0 {
			if err := sleep(ctx, r.Delay); err != nil {
				runErr = err

				break
			}
		}

		if err := ctx.Err(); err != nil {
			runErr = err

			break
		}

		start := time.Now()
		result, err := r.lookup(ctx, name)
		elapsed := time.Since(start).Seconds()
		done++

		if err != nil {
			kind := geocode.Classify(err)
			report.Failures = append(report.Failures, Failure{Name: name, Type: kind, Err: err})
			r.Metrics.observe(provider, kind.String(), elapsed)

			r.Logger.Warn().
				Str("name", name).
				Str("type", kind.String()).
				Err(err).
				Msg("could not geocode place")

			r.progress(done, name)

			if r.Strict && kind.ServiceFailure() {
				runErr = fmt.Errorf("geocoding %q: %w", name, err)

				break
			}

			continue
		}

		coord := result.Coordinate()
		collector.Add(coord)
		report.Resolved = append(report.Resolved, Resolution{
			Name:        name,
			DisplayName: result.DisplayName,
			Coordinate:  coord,
			Cached:      result.Cached,
		})

		outcome := OutcomeResolved
		if result.Cached {
			outcome = OutcomeCached
		}

		r.Metrics.observe(provider, outcome, elapsed)

		r.Logger.Info().
			Str("name", name).
			Str("display_name", result.DisplayName).
			Float64("lng", coord.Lng).
			Float64("lat", coord.Lat).
			Bool("cached", result.Cached).
			Msg("resolved place")

		r.progress(done, name)
	}

	report.Coordinates = collector.Coordinates()

	return report, runErr
}

// lookup performs the call and rejects answers that cannot be plotted.
func (r *Resolver) lookup(ctx context.Context, name string) (*geocode.Result, error) {
	result, err := r.Geocoder.Geocode(ctx, name)
	if err != nil {
		return nil, err
	}

	if result == nil {
		return nil, &geocode.GeocodingError{
			Type:    geocode.ErrorTypeNotFound,
			Message: fmt.Sprintf("no results for %q", name),
			Err:     geocode.ErrNotFound,
		}
	}

	if err := result.Coordinate().Validate(); err != nil {
		return nil, &geocode.GeocodingError{
			Type:    geocode.ErrorTypeUnknown,
			Message: fmt.Sprintf("unusable answer for %q", name),
			Err:     err,
		}
	}

	return result, nil
}

func (r *Resolver) progress(done int, name string) {
	if r.OnProgress != nil {
		r.OnProgress(done, name)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
