// Copyright 2025 The NerMap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/jcodagnone/nermap/config"
	"github.com/jcodagnone/nermap/geocode"
	"github.com/jcodagnone/nermap/utils/httputils"
)

// openCache opens the duckdb cache and makes sure the schema exists.
func openCache(ctx context.Context, c config.CacheConfig) (*sql.DB, geocode.CacheRepository, error) {
	db, err := sql.Open("duckdb", c.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening cache %s: %w", c.Path, err)
	}

	repo := geocode.NewCacheRepository(db)
	if err := repo.CreateSchema(ctx); err != nil {
		db.Close()

		return nil, nil, fmt.Errorf("creating cache schema: %w", err)
	}

	return db, repo, nil
}

// newGeocoder builds the configured provider, wrapped with the cache when
// enabled. The returned function releases the cache.
func newGeocoder(ctx context.Context, c *config.Config) (geocode.Geocoder, func(), error) {
	var trace io.Writer
	if rootOpts.TraceHTTP {
		trace = os.Stderr
	}

	client := httputils.NewClient(httputils.ClientOptions{
		UserAgent: c.Geocoder.UserAgent,
		Timeout:   c.Geocoder.Timeout,
		Trace:     trace,
	})

	var g geocode.Geocoder

	switch c.Geocoder.Provider {
	case config.ProviderGoogle:
		lookup := &geocode.KeyLookup{
			DisplayName: c.Geocoder.GoogleKeyName,
			ProjectID:   c.Geocoder.GoogleProject,
			Logger:      logger,
		}

		key, err := lookup.ResolveAPIKey(ctx, c.Geocoder.GoogleAPIKey)
		if err != nil {
			return nil, nil, fmt.Errorf("google maps geocoder: %w", err)
		}

		gm := geocode.NewGoogleMaps(key, client)
		gm.Region = c.Geocoder.Region
		g = gm
	default:
		n := geocode.NewNominatim(c.Geocoder.NominatimURL, client)
		n.Language = c.Geocoder.Language
		g = n
	}

	logger.Info().Str("geocoder", g.Name()).Dur("delay", c.Geocoder.CourtesyDelay()).Msg("geocoding provider")

	if !c.Cache.Enabled {
		return g, func() {}, nil
	}

	db, repo, err := openCache(ctx, c.Cache)
	if err != nil {
		return nil, nil, err
	}

	cached := geocode.NewCachedGeocoder(g, repo, logger)

	release := func() {
		logger.Info().Int("hits", cached.Hits).Int("misses", cached.Misses).Msg("geocode cache")

		if err := db.Close(); err != nil {
			logger.Warn().Err(err).Msg("closing cache")
		}
	}

	return cached, release, nil
}
