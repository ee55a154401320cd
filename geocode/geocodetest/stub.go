// Copyright 2025 The NerMap Authors
// SPDX-License-Identifier: Apache-2.0

// Package geocodetest provides an in-memory geocoder for tests.
package geocodetest

import (
	"context"
	"fmt"

	"github.com/jcodagnone/nermap/geocode"
)

// Stub answers from fixed tables and records every query.
type Stub struct {
	// Results maps a query to its answer.
	Results map[string]*geocode.Result
	// Errors maps a query to the error returned for it. Unknown queries fail
	// with a not found error.
	Errors map[string]error

	Calls []string
}

// NewStub returns a Stub resolving each name to the given (lat, lng).
func NewStub(latLng map[string][2]float64) *Stub {
	s := &Stub{Results: map[string]*geocode.Result{}, Errors: map[string]error{}}
	for name, ll := range latLng {
		s.Results[name] = &geocode.Result{
			DisplayName: name,
			Latitude:    ll[0],
			Longitude:   ll[1],
			Confidence:  geocode.ConfidenceHigh,
			Provider:    "stub",
		}
	}

	return s
}

// Name implements geocode.Geocoder.
func (s *Stub) Name() string { return "stub" }

// Geocode implements geocode.Geocoder.
func (s *Stub) Geocode(ctx context.Context, query string) (*geocode.Result, error) {
	s.Calls = append(s.Calls, query)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err, ok := s.Errors[query]; ok {
		return nil, err
	}

	if r, ok := s.Results[query]; ok {
		out := *r

		return &out, nil
	}

	return nil, &geocode.GeocodingError{
		Type:    geocode.ErrorTypeNotFound,
		Message: fmt.Sprintf("no results for %q", query),
		Err:     geocode.ErrNotFound,
	}
}
