package service

import (
	"context"

	"whereabouts/internal/domain"
)

// SharingService mutates the share graph. All mutations are
// idempotent: granting an existing grantee or revoking an absent one
// succeeds without a write.
type SharingService struct {
	shares    domain.ShareGraphRepository
	locations domain.LocationRepository
	listener  ChangeListener
}

func NewSharingService(shares domain.ShareGraphRepository, locations domain.LocationRepository, listener ChangeListener) *SharingService {
	if listener == nil {
		listener = NopListener{}
	}
	return &SharingService{shares: shares, locations: locations, listener: listener}
}

// Get returns the owner's share entry, creating the default entry on
// first access.
func (s *SharingService) Get(ctx context.Context, owner string) (*domain.ShareGraphEntry, error) {
	if !domain.ValidIdentifier(owner) {
		return nil, domain.ErrValidation("invalid owner identifier %q", owner)
	}
	return s.shares.Get(ctx, owner)
}

// Share grants the grantee visibility of the owner's location.
func (s *SharingService) Share(ctx context.Context, owner, grantee string) error {
	if !domain.ValidIdentifier(owner) {
		return domain.ErrValidation("invalid owner identifier %q", owner)
	}
	if !domain.ValidIdentifier(grantee) {
		return domain.ErrValidation("invalid grantee identifier %q", grantee)
	}
	if owner == grantee {
		return domain.ErrValidation("cannot share a location with yourself")
	}

	// Read-modify-write over a full-replace put: concurrent mutations of
	// the same owner's grantee set are last-write-wins.
	entry, err := s.shares.Get(ctx, owner)
	if err != nil {
		return err
	}
	if !entry.AddGrantee(grantee) {
		return nil
	}
	if err := s.shares.Put(ctx, entry); err != nil {
		return err
	}
	s.listener.ShareGraphChanged(ctx, owner)
	return nil
}

// Unshare revokes the grantee's visibility of the owner's location.
func (s *SharingService) Unshare(ctx context.Context, owner, grantee string) error {
	if !domain.ValidIdentifier(owner) {
		return domain.ErrValidation("invalid owner identifier %q", owner)
	}
	if !domain.ValidIdentifier(grantee) {
		return domain.ErrValidation("invalid grantee identifier %q", grantee)
	}

	entry, err := s.shares.Get(ctx, owner)
	if err != nil {
		return err
	}
	if !entry.RemoveGrantee(grantee) {
		return nil
	}
	if err := s.shares.Put(ctx, entry); err != nil {
		return err
	}
	s.listener.ShareGraphChanged(ctx, owner)
	return nil
}

// SetSharingEnabled flips the owner's sharing flag. Disabling also
// removes the stored location sample so former grantees cannot observe
// the last position. If the removal fails the flag is rolled back to
// the value it held before the call; a failed rollback surfaces as a
// StaleStateError since persisted state then disagrees with what the
// owner asked for.
func (s *SharingService) SetSharingEnabled(ctx context.Context, owner string, enabled bool) error {
	if !domain.ValidIdentifier(owner) {
		return domain.ErrValidation("invalid owner identifier %q", owner)
	}

	entry, err := s.shares.Get(ctx, owner)
	if err != nil {
		return err
	}
	prior := entry.SharingEnabled

	if err := s.shares.SetSharingEnabled(ctx, owner, enabled); err != nil {
		return err
	}

	if !enabled {
		if err := s.locations.Delete(ctx, owner); err != nil {
			if rbErr := s.shares.SetSharingEnabled(ctx, owner, prior); rbErr != nil {
				return domain.ErrStaleState("sharing disabled but location removal and rollback both failed", err)
			}
			return err
		}
	}

	s.listener.ShareGraphChanged(ctx, owner)
	if !enabled {
		s.listener.LocationChanged(ctx, owner)
	}
	return nil
}
