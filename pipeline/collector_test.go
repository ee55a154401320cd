// Copyright 2025 The NerMap Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"testing"

	"github.com/jcodagnone/nermap/spatial"
	"github.com/stretchr/testify/assert"
)

func TestCollector(t *testing.T) {
	var c Collector

	c.Add(spatial.Coordinate{Lng: 2.3522, Lat: 48.8566})
	c.Add(spatial.Coordinate{Lng: -56.1645, Lat: -34.9011})
	assert.Equal(t, 2, c.Len())

	got := c.Coordinates()
	assert.Equal(t, []spatial.Coordinate{
		{Lng: 2.3522, Lat: 48.8566},
		{Lng: -56.1645, Lat: -34.9011},
	}, got)

	got[0] = spatial.Coordinate{}
	assert.Equal(t, 2.3522, c.Coordinates()[0].Lng, "handed out slices are copies")
}

func TestCollectorSealed(t *testing.T) {
	var c Collector

	_ = c.Coordinates()

	assert.Panics(t, func() { c.Add(spatial.Coordinate{}) })
}

func TestCollectorEmpty(t *testing.T) {
	var c Collector

	assert.Empty(t, c.Coordinates())
	assert.Equal(t, 0, c.Len())
}
