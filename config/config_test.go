// Copyright 2025 The NerMap Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(context.Background(), Options{Lookuper: envconfig.MapLookuper(nil)})
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.True(t, cfg.Strict)
	assert.Equal(t, []string{"LOCATION"}, cfg.Tags)
	assert.Equal(t, NominatimDelay, cfg.Geocoder.CourtesyDelay())
}

func TestLoadLayers(t *testing.T) {
	yamlPath := writeFile(t, "nermap.yaml", `
log_level: debug
tags: [GPE, ORGANIZATION]
geocoder:
  provider: google
  delay: 250ms
map:
  format: geojson
  features:
    coastlines: true
    resolution: 50m
`)
	envPath := writeFile(t, ".env", "GOOGLE_MAPS_API_KEY=from-dotenv\nNERMAP_LOG_LEVEL=warn\n")

	cfg, err := Load(context.Background(), Options{
		Path:    yamlPath,
		EnvFile: envPath,
		Lookuper: envconfig.MapLookuper(map[string]string{
			"NERMAP_LOG_LEVEL": "error",
			"NERMAP_STRICT":    "false",
		}),
	})
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.LogLevel, "environment wins over .env and yaml")
	assert.Equal(t, "from-dotenv", cfg.Geocoder.GoogleAPIKey)
	assert.False(t, cfg.Strict)
	assert.Equal(t, []string{"GPE", "ORGANIZATION"}, cfg.Tags)
	assert.Equal(t, ProviderGoogle, cfg.Geocoder.Provider)
	assert.Equal(t, 250*time.Millisecond, cfg.Geocoder.CourtesyDelay())
	assert.Equal(t, "geojson", cfg.Map.Format)
	assert.Equal(t, "50m", cfg.Map.Features.Resolution)
	assert.True(t, cfg.Map.Features.Borders)
	assert.Equal(t, 10*time.Second, cfg.Geocoder.Timeout, "untouched defaults survive")
}

func TestLoadEnvTags(t *testing.T) {
	cfg, err := Load(context.Background(), Options{
		EnvFile: filepath.Join(t.TempDir(), "missing.env"),
		Lookuper: envconfig.MapLookuper(map[string]string{
			"NERMAP_TAGS":           "GPE,LOCATION",
			"NERMAP_GEOCODER_DELAY": "2s",
		}),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"GPE", "LOCATION"}, cfg.Tags)
	assert.Equal(t, 2*time.Second, cfg.Geocoder.Delay)
}

func TestTagSetFolding(t *testing.T) {
	cfg, err := Load(context.Background(), Options{Lookuper: envconfig.MapLookuper(nil)})
	require.NoError(t, err)

	assert.False(t, cfg.FoldTags)
	assert.True(t, cfg.TagSet().Contains("LOCATION"))
	assert.False(t, cfg.TagSet().Contains("B-LOCATION"))

	cfg, err = Load(context.Background(), Options{
		Lookuper: envconfig.MapLookuper(map[string]string{"NERMAP_FOLD_TAGS": "true"}),
	})
	require.NoError(t, err)

	assert.True(t, cfg.FoldTags)
	assert.True(t, cfg.TagSet().Contains("B-LOCATION"))
	assert.True(t, cfg.TagSet().Contains("location"))
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{name: "unknown provider", env: map[string]string{"NERMAP_GEOCODER": "bing"}},
		{name: "bad level", yaml: "log_level: loud\n"},
		{name: "unknown key", yaml: "colour: red\n"},
		{name: "bad resolution", yaml: "map:\n  features:\n    resolution: 1m\n"},
		{name: "negative delay", env: map[string]string{"NERMAP_GEOCODER_DELAY": "-1s"}},
		{name: "empty tags", yaml: "tags: []\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := Options{Lookuper: envconfig.MapLookuper(tt.env)}
			if tt.yaml != "" {
				opts.Path = writeFile(t, "nermap.yaml", tt.yaml)
			}

			_, err := Load(context.Background(), opts)
			require.Error(t, err)
		})
	}
}

func TestLoadMissingYAML(t *testing.T) {
	_, err := Load(context.Background(), Options{
		Path:     filepath.Join(t.TempDir(), "nope.yaml"),
		Lookuper: envconfig.MapLookuper(nil),
	})
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestCourtesyDelay(t *testing.T) {
	assert.Equal(t, time.Duration(0), GeocoderConfig{Provider: ProviderGoogle}.CourtesyDelay())
	assert.Equal(t, NominatimDelay, GeocoderConfig{Provider: ProviderNominatim}.CourtesyDelay())
	assert.Equal(t, 3*time.Second, GeocoderConfig{Provider: ProviderGoogle, Delay: 3 * time.Second}.CourtesyDelay())
}
