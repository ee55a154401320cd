// Copyright 2025 The NerMap Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// SeedData is the JSON format of an exported cache.
type SeedData struct {
	Version     string        `json:"version"`
	LastUpdated time.Time     `json:"last_updated"`
	Entries     []*CacheEntry `json:"entries"`
}

// ExportToJSON writes every cache entry to filepath, sorted to keep diffs small.
func ExportToJSON(ctx context.Context, repo CacheRepository, filepath string) (int, error) {
	entries, err := repo.List(ctx)
	if err != nil {
		return 0, err
	}

	seed := &SeedData{
		Version:     "1.0",
		LastUpdated: time.Now().UTC(),
		Entries:     entries,
	}

	data, err := json.MarshalIndent(seed, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("marshaling JSON: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0o600); err != nil {
		return 0, fmt.Errorf("writing file: %w", err)
	}

	return len(entries), nil
}

// ImportFromJSON loads entries from a file written by ExportToJSON. Existing
// entries for the same provider and query are replaced.
func ImportFromJSON(ctx context.Context, repo CacheRepository, filepath string) (int, error) {
	data, err := os.ReadFile(filepath) // #nosec G304 - filepath is provided by the user
	if err != nil {
		return 0, fmt.Errorf("reading file: %w", err)
	}

	var seed SeedData
	if err := json.Unmarshal(data, &seed); err != nil {
		return 0, fmt.Errorf("parsing JSON: %w", err)
	}

	imported := 0

	for _, entry := range seed.Entries {
		entry.Query = CacheKey(entry.Query)
		if err := repo.Put(ctx, entry); err != nil {
			return imported, fmt.Errorf("importing %q: %w", entry.Query, err)
		}

		imported++
	}

	return imported, nil
}
