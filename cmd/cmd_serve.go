// Copyright 2025 The NerMap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"

	"github.com/jcodagnone/nermap/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve <entities.csv>",
	Short: "Geocode the places in a NER CSV and serve the map (local only)",
	Long: `Runs the same pipeline as plot and serves the result:

  /             Leaflet map
  /map.geojson  markers as GeoJSON
  /api/markers  markers as JSON
  /metrics      Prometheus metrics of the run

Like plot, a run aborted by a geocoding service failure still serves the
places resolved before the abort, and the command exits with the error once
the server stops.
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		applyMapFlags(cmd)

		if cmd.Flags().Changed("addr") {
			cfg.Server.Addr = serveAddr
		}

		records, err := loadRecords(args[0], plotOpts.Shuffle)
		if err != nil {
			return err
		}

		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		report, runErr := resolveRecords(cmd.Context(), records, reg)
		printSummary(cmd.ErrOrStderr(), report)

		if report == nil {
			return runErr
		}

		m, err := buildMap(report, runErr)
		if err != nil {
			return errors.Join(runErr, err)
		}

		return errors.Join(runErr, render.NewServer(m, reg, logger).Run(cmd.Context(), cfg.Server.Addr))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	flags := serveCmd.Flags()
	flags.StringVar(&serveAddr, "addr", render.DefaultAddr, "listen address")
	flags.StringVar(&plotOpts.Title, "title", "nermap", "map title")
	flags.Uint64Var(&plotOpts.Shuffle, "shuffle", 0, "shuffle the records with this seed before filtering")
	flags.Float64Var(&plotOpts.Cluster, "cluster", 0, "merge markers closer than this many meters")
}
