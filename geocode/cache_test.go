// Copyright 2025 The NerMap Authors
// SPDX-License-Identifier: Apache-2.0

package geocode_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/jcodagnone/nermap/geocode"
	"github.com/jcodagnone/nermap/geocode/geocodetest"
	"github.com/jcodagnone/nermap/spatial"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) geocode.CacheRepository {
	t.Helper()

	db, err := sql.Open("duckdb", "")
	require.NoError(t, err, "opening test database")
	t.Cleanup(func() { db.Close() })

	repo := geocode.NewCacheRepository(db)
	require.NoError(t, repo.CreateSchema(context.Background()))

	return repo
}

func TestCacheRepositoryPutGet(t *testing.T) {
	ctx := context.Background()
	repo := setupTestDB(t)

	_, err := repo.Get(ctx, "stub", "paris")
	assert.True(t, errors.Is(err, geocode.ErrCacheMiss), "Get() error = %v", err)

	entry := &geocode.CacheEntry{
		Provider:    "stub",
		Query:       "paris",
		DisplayName: "Paris, France",
		Point:       spatial.Coordinate{Lng: 2.3522, Lat: 48.8566},
		Confidence:  geocode.ConfidenceHigh,
	}
	require.NoError(t, repo.Put(ctx, entry))

	got, err := repo.Get(ctx, "stub", "paris")
	require.NoError(t, err)
	assert.Equal(t, "Paris, France", got.DisplayName)
	assert.InDelta(t, 2.3522, got.Point.Lng, 1e-9)
	assert.InDelta(t, 48.8566, got.Point.Lat, 1e-9)

	cell, err := entry.Point.Cell(8)
	require.NoError(t, err)
	assert.Equal(t, int64(cell), got.H3[7])

	// replacing keeps a single row
	entry.DisplayName = "Paris"
	require.NoError(t, repo.Put(ctx, entry))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = repo.Get(ctx, "other", "paris")
	assert.True(t, errors.Is(err, geocode.ErrCacheMiss))
}

func TestCacheRepositoryRejectsInvalidPoint(t *testing.T) {
	repo := setupTestDB(t)

	err := repo.Put(context.Background(), &geocode.CacheEntry{
		Provider: "stub",
		Query:    "nowhere",
		Point:    spatial.Coordinate{Lng: 300, Lat: 0},
	})
	assert.True(t, errors.Is(err, spatial.ErrOutOfRange), "Put() error = %v", err)
}

func TestCachedGeocoder(t *testing.T) {
	ctx := context.Background()
	repo := setupTestDB(t)

	stub := geocodetest.NewStub(map[string][2]float64{"São Paulo": {-23.5505, -46.6333}})
	cached := geocode.NewCachedGeocoder(stub, repo, zerolog.Nop())

	first, err := cached.Geocode(ctx, "São Paulo")
	require.NoError(t, err)
	assert.False(t, first.Cached)

	// folded key matches a differently written query
	second, err := cached.Geocode(ctx, "sao  paulo")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.InDelta(t, -46.6333, second.Longitude, 1e-9)

	_, err = cached.Geocode(ctx, "Qwxyzstan123")
	assert.True(t, geocode.IsNotFoundError(err))

	_, err = cached.Geocode(ctx, "Qwxyzstan123")
	assert.True(t, geocode.IsNotFoundError(err))

	assert.Equal(t, []string{"São Paulo", "Qwxyzstan123", "Qwxyzstan123"}, stub.Calls)
	assert.Equal(t, 1, cached.Hits)
	assert.Equal(t, 3, cached.Misses)
	assert.Equal(t, "stub", cached.Name())
}

func TestExportImportJSON(t *testing.T) {
	ctx := context.Background()
	src := setupTestDB(t)

	for _, e := range []*geocode.CacheEntry{
		{Provider: "stub", Query: "rome", DisplayName: "Rome", Point: spatial.Coordinate{Lng: 12.4964, Lat: 41.9028}, Confidence: "high"},
		{Provider: "stub", Query: "lima", DisplayName: "Lima", Point: spatial.Coordinate{Lng: -77.0428, Lat: -12.0464}, Confidence: "medium"},
	} {
		require.NoError(t, src.Put(ctx, e))
	}

	path := filepath.Join(t.TempDir(), "cache.json")

	exported, err := geocode.ExportToJSON(ctx, src, path)
	require.NoError(t, err)
	assert.Equal(t, 2, exported)

	dst := setupTestDB(t)

	imported, err := geocode.ImportFromJSON(ctx, dst, path)
	require.NoError(t, err)
	assert.Equal(t, 2, imported)

	entries, err := dst.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "lima", entries[0].Query)
	assert.Equal(t, "rome", entries[1].Query)
}
