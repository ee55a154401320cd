// Copyright 2025 The NerMap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/jcodagnone/nermap/geocode"
	"github.com/jcodagnone/nermap/utils/textutils"
	"github.com/spf13/cobra"
)

const cacheFile = "geocode_cache.json"

var errNoCachePath = errors.New("the geocode cache lives in memory, set --cache-path or NERMAP_CACHE_PATH")

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the geocode cache",
}

var cacheExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export the geocode cache to a JSON file",
	Long: `Writes every cached lookup to a JSON file (geocode_cache.json by default).
Entries are sorted to minimize diffs when checking the file into version control.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Cache.Path == "" {
			return errNoCachePath
		}

		path := cacheFile
		if len(args) == 1 {
			path = args[0]
		}

		db, repo, err := openCache(cmd.Context(), cfg.Cache)
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := geocode.ExportToJSON(cmd.Context(), repo, path)
		if err != nil {
			return fmt.Errorf("exporting cache: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✅ Exported %s cached lookups to %s\n", textutils.FormatInt(int64(n)), path)

		return nil
	},
}

var cacheImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import cached lookups from a JSON file",
	Long: `Loads a file written by 'cache export'. Entries already in the cache for the
same provider and query are replaced.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Cache.Path == "" {
			return errNoCachePath
		}

		path := cacheFile
		if len(args) == 1 {
			path = args[0]
		}

		db, repo, err := openCache(cmd.Context(), cfg.Cache)
		if err != nil {
			return err
		}
		defer db.Close()

		before, err := repo.Count(cmd.Context())
		if err != nil {
			return fmt.Errorf("counting cache entries: %w", err)
		}

		n, err := geocode.ImportFromJSON(cmd.Context(), repo, path)
		if err != nil {
			return fmt.Errorf("importing cache: %w", err)
		}

		after, err := repo.Count(cmd.Context())
		if err != nil {
			return fmt.Errorf("counting cache entries: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✅ Imported %s lookups from %s (%s new, %s total)\n",
			textutils.FormatInt(int64(n)),
			path,
			textutils.FormatInt(int64(after-before)),
			textutils.FormatInt(int64(after)))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheExportCmd)
	cacheCmd.AddCommand(cacheImportCmd)
}
