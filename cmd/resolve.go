// Copyright 2025 The NerMap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/jcodagnone/nermap/geocode"
	"github.com/jcodagnone/nermap/ner"
	"github.com/jcodagnone/nermap/pipeline"
	"github.com/jcodagnone/nermap/render"
	"github.com/jcodagnone/nermap/utils/textutils"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/schollz/progressbar/v3"
)

// loadRecords reads a CSV (or TSV, by extension) of entity records.
func loadRecords(path string, shuffleSeed uint64) ([]ner.EntityRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	opts := ner.CSVOptions{}
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		opts.Comma = '\t'
	}

	records, err := ner.ReadCSV(f, opts)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if shuffleSeed != 0 {
		records = ner.Shuffle(records, shuffleSeed)
	}

	logger.Info().Str("file", path).Int("records", len(records)).Msg("loaded entity records")

	return records, nil
}

// resolveRecords runs the pipeline with the configured geocoder. Metrics are
// registered on reg when it is not nil.
func resolveRecords(ctx context.Context, records []ner.EntityRecord, reg prometheus.Registerer) (*pipeline.Report, error) {
	g, release, err := newGeocoder(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer release()

	accepted := cfg.TagSet()

	total := 0
	for range ner.Filter(slices.Values(records), accepted) {
		total++
	}

	logger.Info().Strs("tags", accepted.Labels()).Int("places", total).Msg("filtered entity records")

	r := pipeline.NewResolver(g, logger)
	r.Delay = cfg.Geocoder.CourtesyDelay()
	r.Strict = cfg.Strict

	if reg != nil {
		r.Metrics = pipeline.NewMetrics(reg)
	}

	if isatty.IsTerminal(os.Stderr.Fd()) && total > 0 {
		bar := progressbar.NewOptions(total,
			progressbar.OptionSetDescription("Geocoding"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		r.OnProgress = func(done int, _ string) {
			_ = bar.Set(done)
		}

		defer func() { _ = bar.Finish() }()
	}

	report, err := pipeline.Run(ctx, slices.Values(records), accepted, r)
	if err != nil {
		return report, fmt.Errorf("resolving places: %w", err)
	}

	return report, nil
}

// markers turns resolved places into map markers.
func markers(report *pipeline.Report) []render.Marker {
	out := make([]render.Marker, 0, len(report.Resolved))
	for _, r := range report.Resolved {
		out = append(out, render.Marker{
			Name:        r.Name,
			DisplayName: r.DisplayName,
			Coordinate:  r.Coordinate,
		})
	}

	return out
}

// printSummary writes a short, colored account of the run.
func printSummary(w io.Writer, report *pipeline.Report) {
	if report == nil {
		return
	}

	ok := color.New(color.FgGreen).SprintFunc()
	warn := color.New(color.FgYellow).SprintFunc()

	fmt.Fprintf(w, "%s %s of %s places resolved\n",
		ok("✓"),
		textutils.FormatInt(int64(len(report.Resolved))),
		textutils.FormatInt(int64(report.Attempted())))

	if len(report.Failures) == 0 {
		return
	}

	byType := report.FailuresByType()
	kinds := make([]geocode.ErrorType, 0, len(byType))

	for k := range byType {
		kinds = append(kinds, k)
	}

	slices.Sort(kinds)

	for _, k := range kinds {
		fmt.Fprintf(w, "%s %s %s\n", warn("!"), textutils.FormatInt(int64(byType[k])), k)
	}
}
