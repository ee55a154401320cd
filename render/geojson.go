// Copyright 2025 The NerMap Authors
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"encoding/json"
	"fmt"
	"io"
)

// H3Resolution is the resolution of the h3 property attached to each feature.
const H3Resolution = 7

type featureCollection struct {
	Type        string       `json:"type"`
	Title       string       `json:"title,omitempty"`
	MapFeatures *MapFeatures `json:"map_features,omitempty"`
	Features    []feature    `json:"features"`
}

type feature struct {
	Type       string            `json:"type"`
	Geometry   pointGeometry     `json:"geometry"`
	Properties featureProperties `json:"properties"`
}

type pointGeometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

type featureProperties struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
	Count       int    `json:"count"`
	H3          string `json:"h3,omitempty"`
}

func newFeatureCollection(m *Map) (*featureCollection, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	features := m.Features
	fc := &featureCollection{
		Type:        "FeatureCollection",
		Title:       m.Title,
		MapFeatures: &features,
		Features:    make([]feature, 0, len(m.Points)),
	}

	for _, p := range m.Points {
		cell, err := p.Coordinate.Cell(H3Resolution)
		if err != nil {
			return nil, fmt.Errorf("marker %s: %w", p.Name, err)
		}

		fc.Features = append(fc.Features, feature{
			Type: "Feature",
			Geometry: pointGeometry{
				Type:        "Point",
				Coordinates: p.Coordinate.Pair(),
			},
			Properties: featureProperties{
				Name:        p.Name,
				DisplayName: p.DisplayName,
				Count:       p.weight(),
				H3:          cell.String(),
			},
		})
	}

	return fc, nil
}

// GeoJSON writes a FeatureCollection of Point features.
type GeoJSON struct {
	Indent bool
}

// ContentType implements Renderer.
func (GeoJSON) ContentType() string { return "application/geo+json" }

// Render implements Renderer.
func (g GeoJSON) Render(w io.Writer, m *Map) error {
	fc, err := newFeatureCollection(m)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	if g.Indent {
		enc.SetIndent("", "  ")
	}

	if err := enc.Encode(fc); err != nil {
		return fmt.Errorf("encoding geojson: %w", err)
	}

	return nil
}
