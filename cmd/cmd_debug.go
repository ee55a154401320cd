// Copyright 2025 The NerMap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jcodagnone/nermap/geocode"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Dev tools",
}

var debugGeocodeCmd = &cobra.Command{
	Use:   "geocode",
	Short: "Geocode one place per line with the configured provider",
	Long: `Reads one place name per line and prints the name followed by the geocoder
answer, or by the classified error when the lookup failed.

$ echo Montevideo | nermap debug geocode --no-cache
Montevideo	{"display_name":"Montevideo, Uruguay","latitude":-34.9,"longitude":-56.16,…}
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		g, release, err := newGeocoder(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer release()

		input := os.Stdin
		if isatty.IsTerminal(input.Fd()) {
			fmt.Fprintln(os.Stderr, "Enter place names to geocode, one per line…")
		}

		out := cmd.OutOrStdout()
		scanner := bufio.NewScanner(input)

		for scanner.Scan() {
			query := strings.TrimSpace(scanner.Text())
			if query == "" {
				continue
			}

			result, err := g.Geocode(cmd.Context(), query)
			if err != nil {
				fmt.Fprintf(out, "%s\t%s\t%q\n", query, geocode.Classify(err), err)

				continue
			}

			s, err := json.Marshal(result)
			if err != nil {
				return fmt.Errorf("marshaling result: %w", err)
			}

			fmt.Fprintf(out, "%s\t\t%s\n", query, s)
		}

		if err := scanner.Err(); err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(debugCmd)
	debugCmd.AddCommand(debugGeocodeCmd)
	debugCmd.AddCommand(debugTreeCmd)
}
