// Copyright 2025 The NerMap Authors
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templatesFS embed.FS

var mapTemplate = template.Must(template.ParseFS(templatesFS, "templates/map.html"))

// HTML writes a standalone Leaflet page with the markers inlined.
type HTML struct {
	// GeoJSONURL makes the page fetch the markers instead of inlining them.
	GeoJSONURL string
}

// ContentType implements Renderer.
func (*HTML) ContentType() string { return "text/html; charset=utf-8" }

type htmlData struct {
	Title      string
	Features   MapFeatures
	Collection *featureCollection
	GeoJSONURL string
}

// Render implements Renderer.
func (h *HTML) Render(w io.Writer, m *Map) error {
	fc, err := newFeatureCollection(m)
	if err != nil {
		return err
	}

	title := m.Title
	if title == "" {
		title = "nermap"
	}

	data := htmlData{
		Title:      title,
		Features:   m.Features,
		Collection: fc,
		GeoJSONURL: h.GeoJSONURL,
	}

	if err := mapTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("executing map template: %w", err)
	}

	return nil
}
