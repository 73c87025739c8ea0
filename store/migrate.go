package store

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
)

// migrations are applied in order; the index+1 is the schema version.
var migrations = []string{
	`
CREATE TABLE IF NOT EXISTS companies (
  id TEXT PRIMARY KEY,
  position INTEGER NOT NULL,
  load_id TEXT NOT NULL,
  name TEXT NOT NULL,
  state TEXT NOT NULL,
  city TEXT NOT NULL,
  company_type TEXT NOT NULL,
  latitude DOUBLE PRECISION NOT NULL DEFAULT 0,
  longitude DOUBLE PRECISION NOT NULL DEFAULT 0,
  payload TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_companies_state ON companies(state);
`,
	`
CREATE TABLE IF NOT EXISTS geocode_cache (
  cache_key TEXT PRIMARY KEY,
  query TEXT NOT NULL DEFAULT '',
  latitude DOUBLE PRECISION NOT NULL,
  longitude DOUBLE PRECISION NOT NULL,
  found INTEGER NOT NULL DEFAULT 0,
  source TEXT NOT NULL DEFAULT '',
  updated_at TEXT NOT NULL
);
`,
}

// Migrate brings the schema to the latest version. It is safe to call on
// every start.
func (d *DB) Migrate(ctx context.Context) error {
	if d == nil || d.Pool == nil {
		return eris.New("store: db is nil")
	}
	if _, err := d.Pool.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return eris.Wrap(err, "store: create schema_version")
	}

	version, err := d.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for i := version; i < len(migrations); i++ {
		tx, err := d.Pool.BeginTx(ctx, nil)
		if err != nil {
			return eris.Wrap(err, "store: begin migration")
		}
		for _, stmt := range splitStatements(migrations[i]) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				_ = tx.Rollback()
				return eris.Wrapf(err, "store: migration %d", i+1)
			}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM schema_version`); err != nil {
			_ = tx.Rollback()
			return eris.Wrap(err, "store: reset schema_version")
		}
		if _, err := tx.ExecContext(ctx, d.rebind(`INSERT INTO schema_version (version) VALUES (?)`), i+1); err != nil {
			_ = tx.Rollback()
			return eris.Wrap(err, "store: record schema_version")
		}
		if err := tx.Commit(); err != nil {
			return eris.Wrapf(err, "store: commit migration %d", i+1)
		}
	}
	return nil
}

func (d *DB) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := d.Pool.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
	if err != nil {
		return 0, eris.Wrap(err, "store: read schema_version")
	}
	return version, nil
}

func splitStatements(script string) []string {
	var out []string
	for _, stmt := range strings.Split(script, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
