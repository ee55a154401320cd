// Copyright 2025 The NerMap Authors
// SPDX-License-Identifier: Apache-2.0

// Package pipeline turns entity records into an ordered list of plottable
// coordinates: filter by tag, geocode each surviving name, collect the hits.
package pipeline

import (
	"context"
	"iter"

	"github.com/jcodagnone/nermap/ner"
)

// Run filters records by the accepted tags and resolves the surviving names.
func Run(ctx context.Context, records iter.Seq[ner.EntityRecord], accepted ner.TagSet, r *Resolver) (*Report, error) {
	return r.Resolve(ctx, ner.Filter(records, accepted))
}
