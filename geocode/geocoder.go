// Copyright 2025 The NerMap Authors
// SPDX-License-Identifier: Apache-2.0

// Package geocode resolves free text place names into coordinates using external services.
package geocode

import (
	"context"

	"github.com/jcodagnone/nermap/spatial"
)

// Confidence levels reported by the providers.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Result is a successful geocoding answer.
type Result struct {
	DisplayName string  `json:"display_name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Confidence  string  `json:"confidence"` // high, medium, low
	Provider    string  `json:"provider"`
	// Cached is set when the answer came from the local cache.
	Cached bool `json:"-"`
}

// Coordinate returns the result in plotting order, longitude first.
func (r *Result) Coordinate() spatial.Coordinate {
	return spatial.FromLatLng(r.Latitude, r.Longitude)
}

// Geocoder interface for different geocoding providers.
//
// Implementations return a *GeocodingError on failure; a query without a match
// is an error of type ErrorTypeNotFound wrapping ErrNotFound.
type Geocoder interface {
	Name() string
	Geocode(ctx context.Context, query string) (*Result, error)
}
