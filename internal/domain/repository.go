package domain

import "context"

// ShareGraphRepository persists per-owner sharing state.
//
// Implementations must apply each write atomically per owner key; no
// cross-key transactions are assumed by callers.
type ShareGraphRepository interface {
	// Get returns the entry for owner. When no entry exists it persists
	// the default (empty grantees, sharing enabled) and returns it, so
	// subsequent reads are stable.
	Get(ctx context.Context, owner string) (*ShareGraphEntry, error)

	// Put replaces the stored entry for entry.Owner: grantee set and
	// sharing flag together, set-at-a-time. LastUpdated is stamped by
	// the store.
	Put(ctx context.Context, entry *ShareGraphEntry) error

	// SetSharingEnabled updates only the sharing flag and the
	// LastUpdated stamp, leaving the grantee set untouched.
	SetSharingEnabled(ctx context.Context, owner string, enabled bool) error
}

// LocationRepository persists the single latest position sample per owner.
type LocationRepository interface {
	// Upsert stores sample as the owner's latest position. Samples
	// older than the stored one are ignored (per-owner capture time is
	// monotonically non-decreasing); the write is atomic per key.
	Upsert(ctx context.Context, sample *LocationSample) error

	// Get returns the owner's stored sample, or a NotFoundError.
	Get(ctx context.Context, owner string) (*LocationSample, error)

	// List returns every stored sample ordered by owner identifier.
	List(ctx context.Context) ([]LocationSample, error)

	// Delete removes the owner's sample. Deleting an absent sample is
	// not an error.
	Delete(ctx context.Context, owner string) error

	// DeleteOlderThan removes samples captured before cutoffMillis and
	// returns how many were removed.
	DeleteOlderThan(ctx context.Context, cutoffMillis int64) (int64, error)
}
