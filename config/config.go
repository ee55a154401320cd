// Copyright 2025 The NerMap Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the nermap settings.
//
// Values are layered, later layers winning: built in defaults, the YAML file,
// the .env file, the process environment. Command line flags are applied on
// top by the cmd package, which then calls Validate again.
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jcodagnone/nermap/ner"
	"github.com/jcodagnone/nermap/render"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// Geocoding providers.
const (
	ProviderNominatim = "nominatim"
	ProviderGoogle    = "google"
)

// NominatimDelay is the pause the public Nominatim usage policy asks for.
const NominatimDelay = time.Second

// Config holds every setting of the nermap commands.
type Config struct {
	LogLevel  string `yaml:"log_level" env:"NERMAP_LOG_LEVEL, overwrite" validate:"oneof=trace debug info warn error"`
	LogFormat string `yaml:"log_format" env:"NERMAP_LOG_FORMAT, overwrite" validate:"oneof=auto console json"`

	// Tags are the entity types kept by the filter.
	Tags []string `yaml:"tags" env:"NERMAP_TAGS, overwrite" validate:"min=1,dive,required"`
	// FoldTags matches Tags ignoring case and IOB prefixes.
	FoldTags bool `yaml:"fold_tags" env:"NERMAP_FOLD_TAGS, overwrite"`
	// Strict aborts a run when the geocoding service itself fails.
	Strict bool `yaml:"strict" env:"NERMAP_STRICT, overwrite"`

	Geocoder GeocoderConfig `yaml:"geocoder"`
	Cache    CacheConfig    `yaml:"cache"`
	Map      MapConfig      `yaml:"map"`
	Server   ServerConfig   `yaml:"server"`
}

// TagSet returns the accepted entity labels.
func (c *Config) TagSet() ner.TagSet {
	if c.FoldTags {
		return ner.NewFoldedTagSet(c.Tags...)
	}

	return ner.NewTagSet(c.Tags...)
}

// GeocoderConfig selects and tunes the geocoding provider.
type GeocoderConfig struct {
	Provider string `yaml:"provider" env:"NERMAP_GEOCODER, overwrite" validate:"oneof=nominatim google"`
	// Delay is slept between lookups. Zero means the provider's default.
	Delay     time.Duration `yaml:"delay" env:"NERMAP_GEOCODER_DELAY, overwrite" validate:"gte=0"`
	Timeout   time.Duration `yaml:"timeout" env:"NERMAP_GEOCODER_TIMEOUT, overwrite" validate:"gt=0"`
	UserAgent string        `yaml:"user_agent" env:"NERMAP_USER_AGENT, overwrite" validate:"required"`
	Language  string        `yaml:"language" env:"NERMAP_GEOCODER_LANGUAGE, overwrite"`

	NominatimURL string `yaml:"nominatim_url" env:"NERMAP_NOMINATIM_URL, overwrite" validate:"omitempty,url"`

	GoogleAPIKey string `yaml:"google_api_key" env:"GOOGLE_MAPS_API_KEY, overwrite"`
	// GoogleKeyName is the display name of the key looked up through
	// Application Default Credentials when GoogleAPIKey is empty.
	GoogleKeyName string `yaml:"google_key_name" env:"NERMAP_GOOGLE_KEY_NAME, overwrite"`
	GoogleProject string `yaml:"google_project" env:"GOOGLE_CLOUD_PROJECT, overwrite"`
	Region        string `yaml:"region" env:"NERMAP_GEOCODER_REGION, overwrite"`
}

// CourtesyDelay returns the pause between lookups for the configured provider.
func (g GeocoderConfig) CourtesyDelay() time.Duration {
	if g.Delay > 0 {
		return g.Delay
	}

	if g.Provider == ProviderNominatim {
		return NominatimDelay
	}

	return 0
}

// CacheConfig controls the duckdb geocode cache.
type CacheConfig struct {
	Enabled bool `yaml:"enabled" env:"NERMAP_CACHE, overwrite"`
	// Path of the duckdb file. Empty keeps the cache in memory.
	Path string `yaml:"path" env:"NERMAP_CACHE_PATH, overwrite"`
}

// MapConfig controls rendering.
type MapConfig struct {
	Title    string             `yaml:"title" env:"NERMAP_MAP_TITLE, overwrite"`
	Format   string             `yaml:"format" env:"NERMAP_MAP_FORMAT, overwrite" validate:"oneof=geojson html"`
	Cluster  float64            `yaml:"cluster_meters" env:"NERMAP_MAP_CLUSTER_METERS, overwrite" validate:"gte=0"`
	Features render.MapFeatures `yaml:"features"`
}

// ServerConfig controls the map server.
type ServerConfig struct {
	Addr string `yaml:"addr" env:"NERMAP_ADDR, overwrite" validate:"required,hostname_port"`
}

// Default returns the built in settings.
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "auto",
		Tags:      []string{"LOCATION"},
		Strict:    true,
		Geocoder: GeocoderConfig{
			Provider:      ProviderNominatim,
			Timeout:       10 * time.Second,
			UserAgent:     "nermap/0.1 (+https://github.com/jcodagnone/nermap)",
			GoogleKeyName: "NerMap Geocoding Key",
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    "nermap-cache.duckdb",
		},
		Map: MapConfig{
			Title:    "nermap",
			Format:   render.FormatHTML,
			Features: render.DefaultFeatures(),
		},
		Server: ServerConfig{
			Addr: render.DefaultAddr,
		},
	}
}

// Options tells Load where to look.
type Options struct {
	// Path of the YAML file. Empty skips the file.
	Path string
	// EnvFile is a dotenv file. A missing file is not an error.
	EnvFile string
	// Lookuper replaces the process environment. Tests only.
	Lookuper envconfig.Lookuper
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load builds the configuration from every layer and validates it.
func Load(ctx context.Context, opts Options) (*Config, error) {
	cfg := Default()

	if opts.Path != "" {
		if err := cfg.loadYAML(opts.Path); err != nil {
			return nil, err
		}
	}

	lookuper := opts.Lookuper
	if lookuper == nil {
		lookuper = envconfig.OsLookuper()
	}

	if opts.EnvFile != "" {
		dotenv, err := godotenv.Read(opts.EnvFile)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading %s: %w", opts.EnvFile, err)
		default:
			// The real environment wins over the file.
			lookuper = envconfig.MultiLookuper(lookuper, envconfig.MapLookuper(dotenv))
		}
	}

	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	return nil
}

// Validate checks every field.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return nil
}
