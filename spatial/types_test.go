// Copyright 2025 The NerMap Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"errors"
	"math"
	"testing"
)

func TestFromLatLngSwapsOrder(t *testing.T) {
	c := FromLatLng(48.8566, 2.3522)

	if c.Lng != 2.3522 || c.Lat != 48.8566 {
		t.Fatalf("FromLatLng() = %+v, want lng=2.3522 lat=48.8566", c)
	}

	if got := c.Pair(); got != [2]float64{2.3522, 48.8566} {
		t.Errorf("Pair() = %v, want [2.3522 48.8566]", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		c       Coordinate
		wantErr bool
	}{
		{name: "paris", c: Coordinate{Lng: 2.3522, Lat: 48.8566}},
		{name: "antimeridian", c: Coordinate{Lng: -180, Lat: 0}},
		{name: "north pole", c: Coordinate{Lng: 0, Lat: 90}},
		{name: "swapped paris", c: Coordinate{Lng: 48.8566, Lat: 200}, wantErr: true},
		{name: "lng overflow", c: Coordinate{Lng: 180.1, Lat: 0}, wantErr: true},
		{name: "nan", c: Coordinate{Lng: math.NaN(), Lat: 0}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}

			if err != nil && !errors.Is(err, ErrOutOfRange) {
				t.Errorf("Validate() error = %v, want ErrOutOfRange", err)
			}
		})
	}
}

func TestHaversineDistance(t *testing.T) {
	paris := Coordinate{Lng: 2.3522, Lat: 48.8566}
	london := Coordinate{Lng: -0.1276, Lat: 51.5072}

	d := paris.HaversineDistance(london)
	if d < 340e3 || d > 350e3 {
		t.Errorf("HaversineDistance() = %f, want ~344km", d)
	}

	if got := paris.HaversineDistance(paris); got != 0 {
		t.Errorf("HaversineDistance(self) = %f, want 0", got)
	}
}

func TestCell(t *testing.T) {
	paris := Coordinate{Lng: 2.3522, Lat: 48.8566}

	cell, err := paris.Cell(5)
	if err != nil {
		t.Fatalf("Cell() error = %v", err)
	}

	if cell.Resolution() != 5 {
		t.Errorf("Cell().Resolution() = %d, want 5", cell.Resolution())
	}
}
