// Copyright 2025 The NerMap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jcodagnone/nermap/pipeline"
	"github.com/jcodagnone/nermap/render"
	"github.com/spf13/cobra"
)

type plotOptions struct {
	Output  string
	Format  string
	Title   string
	Shuffle uint64
	Cluster float64
}

var plotOpts plotOptions

var plotCmd = &cobra.Command{
	Use:   "plot <entities.csv>",
	Short: "Geocode the places in a NER CSV and draw them",
	Long: `Reads a CSV with at least the columns entity and type, keeps the rows whose
type is one of --tags, geocodes every surviving entity once and writes a map
with the places that resolved.

$ nermap plot --tags GPE --output places.html entities.csv
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		applyMapFlags(cmd)

		records, err := loadRecords(args[0], plotOpts.Shuffle)
		if err != nil {
			return err
		}

		report, runErr := resolveRecords(cmd.Context(), records, nil)
		printSummary(cmd.ErrOrStderr(), report)

		if report == nil {
			return runErr
		}

		m, err := buildMap(report, runErr)
		if err != nil {
			return errors.Join(runErr, err)
		}

		if err := writeMap(cmd.OutOrStdout(), plotOpts.Output, cfg.Map.Format, m); err != nil {
			return errors.Join(runErr, err)
		}

		return runErr
	},
}

// buildMap turns what resolved into a map. A run aborted by a service failure
// still yields the places resolved before the abort; runErr is only logged.
func buildMap(report *pipeline.Report, runErr error) (*render.Map, error) {
	if runErr != nil {
		logger.Error().Err(runErr).Int("resolved", len(report.Resolved)).Msg("run aborted, mapping partial results")
	}

	m := &render.Map{
		Title:    cfg.Map.Title,
		Points:   render.Cluster(markers(report), cfg.Map.Cluster),
		Features: cfg.Map.Features,
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return m, nil
}

// applyMapFlags copies the map flags the user set over the config.
func applyMapFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	if flags.Changed("format") {
		cfg.Map.Format = plotOpts.Format
	}

	if flags.Changed("title") {
		cfg.Map.Title = plotOpts.Title
	}

	if flags.Changed("cluster") {
		cfg.Map.Cluster = plotOpts.Cluster
	}
}

func writeMap(stdout io.Writer, path, format string, m *render.Map) error {
	r, err := render.ForFormat(format)
	if err != nil {
		return err
	}

	if path == "" || path == "-" {
		return r.Render(stdout, m)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	if err := r.Render(f, m); err != nil {
		f.Close()

		return fmt.Errorf("rendering %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}

	logger.Info().Str("file", path).Int("markers", len(m.Points)).Msg("map written")

	return nil
}

func init() {
	rootCmd.AddCommand(plotCmd)

	flags := plotCmd.Flags()
	flags.StringVarP(&plotOpts.Output, "output", "o", "-", "output file, - for stdout")
	flags.StringVar(&plotOpts.Format, "format", render.FormatHTML, "geojson or html")
	flags.StringVar(&plotOpts.Title, "title", "nermap", "map title")
	flags.Uint64Var(&plotOpts.Shuffle, "shuffle", 0, "shuffle the records with this seed before filtering, 0 keeps the file order")
	flags.Float64Var(&plotOpts.Cluster, "cluster", 0, "merge markers closer than this many meters")
}
