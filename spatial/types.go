// Copyright 2025 The NerMap Authors
//
// SPDX-License-Identifier: Apache-2.0
package spatial

import (
	"errors"
	"fmt"
	"math"

	"github.com/uber/h3-go/v4"
)

const earthRadius = 6371e3 // meters

// ErrOutOfRange is returned when a coordinate falls outside the WGS84 ranges.
var ErrOutOfRange = errors.New("spatial: coordinate out of range")

// Coordinate is a point in plotting order: x is the longitude and y the latitude.
//
// Geocoders usually answer (lat, lng); use FromLatLng to avoid swapping the
// values by hand.
type Coordinate struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// FromLatLng builds a Coordinate from a geocoder shaped (lat, lng) answer.
func FromLatLng(lat, lng float64) Coordinate {
	return Coordinate{Lng: lng, Lat: lat}
}

// Pair returns the coordinate as [lng, lat], the GeoJSON position order.
func (c Coordinate) Pair() [2]float64 {
	return [2]float64{c.Lng, c.Lat}
}

// String returns a WKT representation of the Coordinate.
func (c Coordinate) String() string {
	return fmt.Sprintf("POINT(%f %f)", c.Lng, c.Lat)
}

// Validate checks longitude is within [-180, 180] and latitude within [-90, 90].
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lng) || math.IsNaN(c.Lat) ||
		c.Lng < -180 || c.Lng > 180 || c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: lng=%f lat=%f", ErrOutOfRange, c.Lng, c.Lat)
	}

	return nil
}

// HaversineDistance calculates the distance between two points on Earth in meters.
func (c Coordinate) HaversineDistance(other Coordinate) float64 {
	lat1 := c.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	dLat := (other.Lat - c.Lat) * math.Pi / 180
	dLng := (other.Lng - c.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	x := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * x
}

// Cell returns the H3 cell containing the coordinate at the given resolution.
func (c Coordinate) Cell(res int) (h3.Cell, error) {
	cell, err := h3.LatLngToCell(h3.NewLatLng(c.Lat, c.Lng), res)
	if err != nil {
		return 0, fmt.Errorf("converting to h3 cell at res %d: %w", res, err)
	}

	return cell, nil
}
