package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"whereabouts/internal/domain"
)

var _ domain.ShareGraphRepository = (*ShareGraphRepo)(nil)

// ShareGraphRepo implements domain.ShareGraphRepository using SQLite.
// The grantee set is stored as a JSON array in the shared_with column,
// preserving the shares/{userId} document shape.
type ShareGraphRepo struct {
	db *sql.DB
}

// NewShareGraphRepo creates a new ShareGraphRepo.
func NewShareGraphRepo(db *sql.DB) *ShareGraphRepo {
	return &ShareGraphRepo{db: db}
}

// Get returns the entry for owner, persisting the default entry on first
// sight so subsequent reads are stable.
func (r *ShareGraphRepo) Get(ctx context.Context, owner string) (*domain.ShareGraphEntry, error) {
	entry, err := r.get(ctx, owner)
	if err == nil {
		return entry, nil
	}
	var notFound *domain.NotFoundError
	if !errors.As(err, &notFound) {
		return nil, err
	}

	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO shares (owner_id, shared_with, is_sharing) VALUES (?, '[]', 1)
		 ON CONFLICT(owner_id) DO NOTHING`, owner); err != nil {
		return nil, domain.ErrStore("init share entry", err)
	}
	return r.get(ctx, owner)
}

func (r *ShareGraphRepo) get(ctx context.Context, owner string) (*domain.ShareGraphEntry, error) {
	var (
		granteesJSON string
		isSharing    int64
		lastUpdated  time.Time
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT shared_with, is_sharing, last_updated FROM shares WHERE owner_id = ?`, owner).
		Scan(&granteesJSON, &isSharing, &lastUpdated)
	if err != nil {
		return nil, mapDBError("get share entry", err)
	}

	entry := &domain.ShareGraphEntry{
		Owner:          owner,
		SharingEnabled: isSharing != 0,
		LastUpdated:    lastUpdated,
	}
	if err := json.Unmarshal([]byte(granteesJSON), &entry.Grantees); err != nil {
		return nil, domain.ErrStore("decode grantee set", err)
	}
	if entry.Grantees == nil {
		entry.Grantees = []string{}
	}
	return entry, nil
}

// Put replaces the stored entry for entry.Owner set-at-a-time.
func (r *ShareGraphRepo) Put(ctx context.Context, entry *domain.ShareGraphEntry) error {
	granteesJSON, err := json.Marshal(entry.Grantees)
	if err != nil {
		return domain.ErrStore("encode grantee set", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO shares (owner_id, shared_with, is_sharing, last_updated)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(owner_id) DO UPDATE SET
		   shared_with  = excluded.shared_with,
		   is_sharing   = excluded.is_sharing,
		   last_updated = CURRENT_TIMESTAMP`,
		entry.Owner, string(granteesJSON), boolToInt(entry.SharingEnabled))
	if err != nil {
		return domain.ErrStore("put share entry", err)
	}
	return nil
}

// SetSharingEnabled flips only the sharing flag and the last_updated
// stamp, leaving the grantee set untouched.
func (r *ShareGraphRepo) SetSharingEnabled(ctx context.Context, owner string, enabled bool) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO shares (owner_id, shared_with, is_sharing, last_updated)
		 VALUES (?, '[]', ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(owner_id) DO UPDATE SET
		   is_sharing   = excluded.is_sharing,
		   last_updated = CURRENT_TIMESTAMP`,
		owner, boolToInt(enabled))
	if err != nil {
		return domain.ErrStore("set sharing flag", err)
	}
	return nil
}
