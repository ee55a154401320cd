// Copyright 2025 The NerMap Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"errors"

	"github.com/jcodagnone/nermap/utils/textutils"
	"github.com/rs/zerolog"
)

// CachedGeocoder answers from a CacheRepository before asking Next.
//
// Only successful answers are stored, so a name that failed once is looked up
// again on the next run.
type CachedGeocoder struct {
	Next   Geocoder
	Repo   CacheRepository
	Logger zerolog.Logger

	Hits   int
	Misses int
}

// NewCachedGeocoder wraps next with repo.
func NewCachedGeocoder(next Geocoder, repo CacheRepository, logger zerolog.Logger) *CachedGeocoder {
	return &CachedGeocoder{Next: next, Repo: repo, Logger: logger}
}

// CacheKey is the normalized form under which a query is stored.
func CacheKey(query string) string {
	return textutils.LowerASCIIFolding(query)
}

// Name implements Geocoder.
func (c *CachedGeocoder) Name() string { return c.Next.Name() }

// Geocode implements Geocoder.
func (c *CachedGeocoder) Geocode(ctx context.Context, query string) (*Result, error) {
	key := CacheKey(query)
	if key == "" {
		return c.Next.Geocode(ctx, query)
	}

	entry, err := c.Repo.Get(ctx, c.Next.Name(), key)

	switch {
	case err == nil:
		c.Hits++

		return entry.Result(), nil
	case !errors.Is(err, ErrCacheMiss):
		c.Logger.Warn().Err(err).Str("query", query).Msg("geocode cache lookup failed")
	}

	c.Misses++

	result, err := c.Next.Geocode(ctx, query)
	if err != nil {
		return nil, err
	}

	if err := c.Repo.Put(ctx, &CacheEntry{
		Provider:    c.Next.Name(),
		Query:       key,
		DisplayName: result.DisplayName,
		Point:       result.Coordinate(),
		Confidence:  result.Confidence,
	}); err != nil {
		c.Logger.Warn().Err(err).Str("query", query).Msg("geocode cache store failed")
	}

	return result, nil
}
