// Copyright 2025 The NerMap Authors
// SPDX-License-Identifier: Apache-2.0

// Package render hands resolved coordinates to a map.
//
// Drawing the map stays outside this module: renderers emit GeoJSON or a
// Leaflet page and the browser does the rest.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jcodagnone/nermap/spatial"
)

// Marker is a point on the map.
type Marker struct {
	Name        string             `json:"name"`
	DisplayName string             `json:"display_name,omitempty"`
	Coordinate  spatial.Coordinate `json:"coordinate"`
	// Count is the number of places merged into the marker. Zero means one.
	Count int `json:"count,omitempty"`
}

func (m Marker) weight() int {
	if m.Count <= 0 {
		return 1
	}

	return m.Count
}

// MapFeatures are the declarative toggles of the base map.
type MapFeatures struct {
	Coastlines bool   `json:"coastlines" yaml:"coastlines"`
	Borders    bool   `json:"borders" yaml:"borders"`
	Land       bool   `json:"land" yaml:"land"`
	Ocean      bool   `json:"ocean" yaml:"ocean"`
	Resolution string `json:"resolution" yaml:"resolution" validate:"oneof=110m 50m 10m"`
}

// DefaultFeatures draws everything at the coarsest resolution.
func DefaultFeatures() MapFeatures {
	return MapFeatures{
		Coastlines: true,
		Borders:    true,
		Land:       true,
		Ocean:      true,
		Resolution: "110m",
	}
}

// Map is what a Renderer draws.
type Map struct {
	Title    string
	Points   []Marker
	Features MapFeatures
}

// Coordinates returns the markers' coordinates in order.
func (m *Map) Coordinates() []spatial.Coordinate {
	out := make([]spatial.Coordinate, len(m.Points))
	for i, p := range m.Points {
		out[i] = p.Coordinate
	}

	return out
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the features and every marker's coordinate.
func (m *Map) Validate() error {
	if err := validate.Struct(m.Features); err != nil {
		return fmt.Errorf("invalid map features: %w", err)
	}

	for i, p := range m.Points {
		if err := p.Coordinate.Validate(); err != nil {
			return fmt.Errorf("marker %d (%s): %w", i, p.Name, err)
		}
	}

	return nil
}

// Renderer writes a map in some output format.
type Renderer interface {
	Render(w io.Writer, m *Map) error
	ContentType() string
}

// Format names accepted by ForFormat.
const (
	FormatGeoJSON = "geojson"
	FormatHTML    = "html"
)

// ForFormat returns the renderer for a format name.
func ForFormat(format string) (Renderer, error) {
	switch strings.ToLower(format) {
	case FormatGeoJSON, "json":
		return GeoJSON{}, nil
	case FormatHTML, "htm":
		return &HTML{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}
