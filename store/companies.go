package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/model"
)

// SaveCompanies replaces the stored snapshot with companies in one
// transaction.
func (d *DB) SaveCompanies(ctx context.Context, loadID string, companies []model.Company) error {
	if d == nil || d.Pool == nil {
		return eris.New("store: db is nil")
	}
	tx, err := d.Pool.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "store: begin save companies")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM companies`); err != nil {
		return eris.Wrap(err, "store: clear companies")
	}

	stmt, err := tx.PrepareContext(ctx, d.rebind(`
INSERT INTO companies (id, position, load_id, name, state, city, company_type, latitude, longitude, payload, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return eris.Wrap(err, "store: prepare company insert")
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for i, c := range companies {
		payload, err := json.Marshal(c)
		if err != nil {
			return eris.Wrapf(err, "store: encode company %s", c.ID)
		}
		if _, err := stmt.ExecContext(ctx,
			c.ID, i, loadID, c.Name,
			c.BillingAddress.State, c.BillingAddress.City, string(c.CompanyType),
			c.Latitude, c.Longitude, string(payload), now,
		); err != nil {
			return eris.Wrapf(err, "store: insert company %s", c.ID)
		}
	}
	return eris.Wrap(tx.Commit(), "store: commit companies")
}

// LoadCompanies returns the stored snapshot in its original order.
func (d *DB) LoadCompanies(ctx context.Context) ([]model.Company, error) {
	if d == nil || d.Pool == nil {
		return nil, eris.New("store: db is nil")
	}
	rows, err := d.Pool.QueryContext(ctx, `SELECT payload FROM companies ORDER BY position`)
	if err != nil {
		return nil, eris.Wrap(err, "store: query companies")
	}
	defer rows.Close()

	out := make([]model.Company, 0)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "store: scan company")
		}
		var c model.Company
		if err := json.Unmarshal([]byte(payload), &c); err != nil {
			return nil, eris.Wrap(err, "store: decode company")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "store: iterate companies")
}

// SnapshotLoadID returns the load id of the stored snapshot, or "" when
// empty.
func (d *DB) SnapshotLoadID(ctx context.Context) (string, error) {
	var id string
	err := d.Pool.QueryRowContext(ctx, `SELECT COALESCE(MAX(load_id), '') FROM companies`).Scan(&id)
	if err != nil {
		return "", eris.Wrap(err, "store: read snapshot load id")
	}
	return id, nil
}
