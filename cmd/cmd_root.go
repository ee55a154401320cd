// Copyright 2025 The NerMap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jcodagnone/nermap/config"
	"github.com/jcodagnone/nermap/utils/logutils"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	ConfigPath string
	EnvFile    string
	LogLevel   string
	LogFormat  string
	Tags       []string
	FoldTags   bool
	Lenient    bool
	Provider   string
	Delay      time.Duration
	NoCache    bool
	CachePath  string
	TraceHTTP  bool
}

var (
	rootOpts rootOptions

	// cfg and logger are ready once PersistentPreRunE returns.
	cfg    *config.Config
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "nermap",
	Short: "plot the places mentioned in NER output on a map",
	Long: `
nermap takes named entity recognition output, keeps the entities whose type
looks like a place, geocodes each of them once and draws the ones that resolved
on a world map.
`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var Version = "dev"

func setup(cmd *cobra.Command, _ []string) error {
	var err error

	cfg, err = config.Load(cmd.Context(), config.Options{
		Path:    rootOpts.ConfigPath,
		EnvFile: rootOpts.EnvFile,
	})
	if err != nil {
		return err
	}

	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}

	pretty := cfg.LogFormat == "console" ||
		(cfg.LogFormat == "auto" && isatty.IsTerminal(os.Stderr.Fd()))

	logger = logutils.Init(logutils.Options{
		Level:  cfg.LogLevel,
		Pretty: pretty,
	}).With().Str("run", uuid.NewString()).Logger()

	logger.Debug().Str("version", Version).Str("command", cmd.CommandPath()).Msg("starting")

	return nil
}

// applyFlags copies the flags the user actually set over the loaded config.
func applyFlags(cmd *cobra.Command, c *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed("log-level") {
		c.LogLevel = strings.ToLower(rootOpts.LogLevel)
	}

	if flags.Changed("log-format") {
		c.LogFormat = rootOpts.LogFormat
	}

	if flags.Changed("tags") {
		c.Tags = rootOpts.Tags
	}

	if flags.Changed("fold-tags") {
		c.FoldTags = rootOpts.FoldTags
	}

	if flags.Changed("lenient") {
		c.Strict = !rootOpts.Lenient
	}

	if flags.Changed("geocoder") {
		c.Geocoder.Provider = rootOpts.Provider
	}

	if flags.Changed("delay") {
		c.Geocoder.Delay = rootOpts.Delay
	}

	if flags.Changed("no-cache") {
		c.Cache.Enabled = !rootOpts.NoCache
	}

	if flags.Changed("cache-path") {
		c.Cache.Path = rootOpts.CachePath
	}

	return c.Validate()
}

func Execute(version string) {
	Version = version
	rootCmd.Version = version

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rootOpts.ConfigPath, "config", "", "YAML configuration file")
	flags.StringVar(&rootOpts.EnvFile, "env-file", ".env", "dotenv file with environment overrides")
	flags.StringVar(&rootOpts.LogLevel, "log-level", "info", "trace, debug, info, warn or error")
	flags.StringVar(&rootOpts.LogFormat, "log-format", "auto", "auto, console or json")
	flags.StringSliceVar(&rootOpts.Tags, "tags", []string{"LOCATION"}, "entity types to keep")
	flags.BoolVar(&rootOpts.FoldTags, "fold-tags", false, "match --tags ignoring case and B-/I- prefixes")
	flags.BoolVar(&rootOpts.Lenient, "lenient", false, "keep going when the geocoding service fails")
	flags.StringVar(&rootOpts.Provider, "geocoder", config.ProviderNominatim, "nominatim or google")
	flags.DurationVar(&rootOpts.Delay, "delay", 0, "pause between lookups, 0 means the provider default")
	flags.BoolVar(&rootOpts.NoCache, "no-cache", false, "do not use the geocode cache")
	flags.StringVar(&rootOpts.CachePath, "cache-path", "", "duckdb file of the geocode cache, empty keeps it in memory")
	flags.BoolVar(&rootOpts.TraceHTTP, "trace-http", false, "dump geocoder HTTP traffic to stderr")
}
