// Copyright 2025 The NerMap Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jcodagnone/nermap/spatial"
)

// h3Resolutions are the H3 resolutions stored for every cached point.
const h3Resolutions = 8

// ErrCacheMiss is returned by CacheRepository.Get when nothing is stored.
var ErrCacheMiss = errors.New("cache miss")

// CacheEntry is a stored geocoding answer.
type CacheEntry struct {
	Provider    string             `json:"provider"`
	Query       string             `json:"query"`
	DisplayName string             `json:"display_name"`
	Point       spatial.Coordinate `json:"point"`
	Confidence  string             `json:"confidence"`
	CreatedAt   time.Time          `json:"created_at"`
	// H3 holds the cell at resolutions 1..8, index 0 is resolution 1.
	H3 [h3Resolutions]int64 `json:"-"`
}

func (e *CacheEntry) computeH3() error {
	for res := 1; res <= h3Resolutions; res++ {
		cell, err := e.Point.Cell(res)
		if err != nil {
			return err
		}

		e.H3[res-1] = int64(cell)
	}

	return nil
}

// Result converts the entry back into a geocoding answer.
func (e *CacheEntry) Result() *Result {
	return &Result{
		DisplayName: e.DisplayName,
		Latitude:    e.Point.Lat,
		Longitude:   e.Point.Lng,
		Confidence:  e.Confidence,
		Provider:    e.Provider,
		Cached:      true,
	}
}

// CacheRepository handles persistence of geocoding answers.
type CacheRepository interface {
	// CreateSchema creates the geocode_cache table
	CreateSchema(ctx context.Context) error

	// Get returns the entry for provider and key, or ErrCacheMiss
	Get(ctx context.Context, provider, key string) (*CacheEntry, error)

	// Put inserts or replaces an entry
	Put(ctx context.Context, entry *CacheEntry) error

	// List returns all entries sorted by provider and query
	List(ctx context.Context) ([]*CacheEntry, error)

	// Count returns the number of entries
	Count(ctx context.Context) (int, error)
}

type sqlCacheRepository struct {
	db *sql.DB
}

// NewCacheRepository creates a cache repository on a duckdb connection.
func NewCacheRepository(db *sql.DB) CacheRepository {
	return &sqlCacheRepository{db: db}
}

func (r *sqlCacheRepository) CreateSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS geocode_cache (
			provider VARCHAR NOT NULL,
			query VARCHAR NOT NULL,
			display_name VARCHAR NOT NULL,
			lat DOUBLE NOT NULL,
			lng DOUBLE NOT NULL,
			confidence VARCHAR NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			h3_res1 UBIGINT,
			h3_res2 UBIGINT,
			h3_res3 UBIGINT,
			h3_res4 UBIGINT,
			h3_res5 UBIGINT,
			h3_res6 UBIGINT,
			h3_res7 UBIGINT,
			h3_res8 UBIGINT,
			PRIMARY KEY (provider, query)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating geocode_cache: %w", err)
	}

	return nil
}

const selectEntry = `
	SELECT provider, query, display_name, lat, lng, confidence, created_at,
		h3_res1, h3_res2, h3_res3, h3_res4, h3_res5, h3_res6, h3_res7, h3_res8
	FROM geocode_cache
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*CacheEntry, error) {
	var e CacheEntry

	dest := []any{
		&e.Provider, &e.Query, &e.DisplayName, &e.Point.Lat, &e.Point.Lng, &e.Confidence, &e.CreatedAt,
	}

	cells := make([]sql.NullInt64, h3Resolutions)
	for i := range cells {
		dest = append(dest, &cells[i])
	}

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	for i, c := range cells {
		e.H3[i] = c.Int64
	}

	return &e, nil
}

func (r *sqlCacheRepository) Get(ctx context.Context, provider, key string) (*CacheEntry, error) {
	row := r.db.QueryRowContext(ctx, selectEntry+` WHERE provider = ? AND query = ?`, provider, key)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCacheMiss
	}

	if err != nil {
		return nil, fmt.Errorf("reading cache entry %q: %w", key, err)
	}

	return e, nil
}

func (r *sqlCacheRepository) Put(ctx context.Context, entry *CacheEntry) error {
	if err := entry.Point.Validate(); err != nil {
		return err
	}

	if err := entry.computeH3(); err != nil {
		return err
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO geocode_cache (
			provider, query, display_name, lat, lng, confidence, created_at,
			h3_res1, h3_res2, h3_res3, h3_res4, h3_res5, h3_res6, h3_res7, h3_res8
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.Provider,
		entry.Query,
		entry.DisplayName,
		entry.Point.Lat,
		entry.Point.Lng,
		entry.Confidence,
		entry.CreatedAt,
		entry.H3[0],
		entry.H3[1],
		entry.H3[2],
		entry.H3[3],
		entry.H3[4],
		entry.H3[5],
		entry.H3[6],
		entry.H3[7],
	)
	if err != nil {
		return fmt.Errorf("storing cache entry %q: %w", entry.Query, err)
	}

	return nil
}

func (r *sqlCacheRepository) List(ctx context.Context) ([]*CacheEntry, error) {
	rows, err := r.db.QueryContext(ctx, selectEntry+` ORDER BY provider, query`)
	if err != nil {
		return nil, fmt.Errorf("listing cache entries: %w", err)
	}
	defer rows.Close()

	var entries []*CacheEntry

	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning cache entry: %w", err)
		}

		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func (r *sqlCacheRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM geocode_cache`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cache entries: %w", err)
	}

	return n, nil
}
