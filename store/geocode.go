package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/geocode"
)

// SaveGeocodeCache replaces the cache table with the cache content.
func (d *DB) SaveGeocodeCache(ctx context.Context, cache *geocode.Cache) error {
	if d == nil || d.Pool == nil {
		return eris.New("store: db is nil")
	}
	entries := cache.Snapshot()

	tx, err := d.Pool.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "store: begin save geocode cache")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM geocode_cache`); err != nil {
		return eris.Wrap(err, "store: clear geocode cache")
	}
	stmt, err := tx.PrepareContext(ctx, d.rebind(`
INSERT INTO geocode_cache (cache_key, query, latitude, longitude, found, source, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return eris.Wrap(err, "store: prepare geocode insert")
	}
	defer stmt.Close()

	for key, entry := range entries {
		found := 0
		if entry.Found {
			found = 1
		}
		if _, err := stmt.ExecContext(ctx,
			key, entry.Query, entry.Lat, entry.Lng, found, string(entry.Source),
			entry.UpdatedAt.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return eris.Wrapf(err, "store: insert geocode %q", key)
		}
	}
	return eris.Wrap(tx.Commit(), "store: commit geocode cache")
}

// LoadGeocodeCache replaces the content of cache with the stored entries and
// returns how many were loaded.
func (d *DB) LoadGeocodeCache(ctx context.Context, cache *geocode.Cache) (int, error) {
	if d == nil || d.Pool == nil {
		return 0, eris.New("store: db is nil")
	}
	if cache == nil {
		return 0, eris.New("store: cache is nil")
	}
	rows, err := d.Pool.QueryContext(ctx, `SELECT cache_key, query, latitude, longitude, found, source, updated_at FROM geocode_cache`)
	if err != nil {
		return 0, eris.Wrap(err, "store: query geocode cache")
	}
	defer rows.Close()

	entries := map[string]geocode.CacheEntry{}
	for rows.Next() {
		var (
			key, query, source, updatedAt string
			lat, lng                      float64
			found                         int
		)
		if err := rows.Scan(&key, &query, &lat, &lng, &found, &source, &updatedAt); err != nil {
			return 0, eris.Wrap(err, "store: scan geocode entry")
		}
		at, err := time.Parse(time.RFC3339Nano, updatedAt)
		if err != nil {
			return 0, eris.Wrapf(err, "store: parse updated_at for %q", key)
		}
		entries[key] = geocode.CacheEntry{
			Query:     query,
			Lat:       lat,
			Lng:       lng,
			Found:     found != 0,
			Source:    geocode.Source(source),
			UpdatedAt: at,
		}
	}
	if err := rows.Err(); err != nil {
		return 0, eris.Wrap(err, "store: iterate geocode cache")
	}
	cache.Restore(entries)
	return len(entries), nil
}
