// Copyright 2025 The NerMap Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"slices"

	"github.com/jcodagnone/nermap/spatial"
)

// Collector accumulates resolved coordinates in resolution order.
//
// Coordinates hands the list over and seals the collector; adding afterwards
// is a programming error and panics.
type Collector struct {
	coords []spatial.Coordinate
	sealed bool
}

// Add appends c.
func (c *Collector) Add(coord spatial.Coordinate) {
	if c.sealed {
		panic("pipeline: Add on a sealed Collector")
	}

	c.coords = append(c.coords, coord)
}

// Len returns the number of coordinates collected so far.
func (c *Collector) Len() int {
	return len(c.coords)
}

// Coordinates seals the collector and returns a copy of the coordinates.
func (c *Collector) Coordinates() []spatial.Coordinate {
	c.sealed = true

	return slices.Clone(c.coords)
}
