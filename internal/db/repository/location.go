package repository

import (
	"context"
	"database/sql"

	"whereabouts/internal/domain"
)

var _ domain.LocationRepository = (*LocationRepo)(nil)

// LocationRepo implements domain.LocationRepository using SQLite.
// One row per owner, latest wins.
type LocationRepo struct {
	db *sql.DB
}

// NewLocationRepo creates a new LocationRepo.
func NewLocationRepo(db *sql.DB) *LocationRepo {
	return &LocationRepo{db: db}
}

// Upsert stores sample as the owner's latest position. The conditional
// update keeps captured_at_ms monotonically non-decreasing per owner:
// a stale sample leaves the row untouched and is not an error.
func (r *LocationRepo) Upsert(ctx context.Context, sample *domain.LocationSample) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO locations (owner_id, latitude, longitude, captured_at_ms)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(owner_id) DO UPDATE SET
		   latitude       = excluded.latitude,
		   longitude      = excluded.longitude,
		   captured_at_ms = excluded.captured_at_ms
		 WHERE excluded.captured_at_ms >= locations.captured_at_ms`,
		sample.Owner, sample.Latitude, sample.Longitude, sample.CapturedAtMillis)
	if err != nil {
		return domain.ErrStore("upsert location", err)
	}
	return nil
}

// Get returns the owner's stored sample.
func (r *LocationRepo) Get(ctx context.Context, owner string) (*domain.LocationSample, error) {
	s := domain.LocationSample{Owner: owner}
	err := r.db.QueryRowContext(ctx,
		`SELECT latitude, longitude, captured_at_ms FROM locations WHERE owner_id = ?`, owner).
		Scan(&s.Latitude, &s.Longitude, &s.CapturedAtMillis)
	if err != nil {
		return nil, mapDBError("get location", err)
	}
	return &s, nil
}

// List returns every stored sample ordered by owner identifier.
func (r *LocationRepo) List(ctx context.Context) ([]domain.LocationSample, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT owner_id, latitude, longitude, captured_at_ms FROM locations ORDER BY owner_id`)
	if err != nil {
		return nil, domain.ErrStore("list locations", err)
	}
	defer rows.Close() //nolint:errcheck

	var samples []domain.LocationSample
	for rows.Next() {
		var s domain.LocationSample
		if err := rows.Scan(&s.Owner, &s.Latitude, &s.Longitude, &s.CapturedAtMillis); err != nil {
			return nil, domain.ErrStore("scan location", err)
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrStore("list locations", err)
	}
	return samples, nil
}

// Delete removes the owner's sample; absent rows are not an error.
func (r *LocationRepo) Delete(ctx context.Context, owner string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM locations WHERE owner_id = ?`, owner)
	if err != nil {
		return domain.ErrStore("delete location", err)
	}
	return nil
}

// DeleteOlderThan removes samples captured before cutoffMillis.
func (r *LocationRepo) DeleteOlderThan(ctx context.Context, cutoffMillis int64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM locations WHERE captured_at_ms < ?`, cutoffMillis)
	if err != nil {
		return 0, domain.ErrStore("delete stale locations", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, domain.ErrStore("delete stale locations", err)
	}
	return n, nil
}
