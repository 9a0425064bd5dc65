package service

import (
	"context"

	"whereabouts/internal/domain"
)

// VisibilityService computes which location samples a viewer may see.
//
// A sample belonging to owner O is visible to viewer V when O has
// sharing enabled and either V == O or V is in O's grantee set.
type VisibilityService struct {
	shares    domain.ShareGraphRepository
	locations domain.LocationRepository
}

func NewVisibilityService(shares domain.ShareGraphRepository, locations domain.LocationRepository) *VisibilityService {
	return &VisibilityService{shares: shares, locations: locations}
}

// VisibleTo returns the samples the viewer is authorized to see,
// ordered by owner identifier. A viewer with no grants sees at most
// their own sample.
func (s *VisibilityService) VisibleTo(ctx context.Context, viewer string) ([]domain.LocationSample, error) {
	if !domain.ValidIdentifier(viewer) {
		return nil, domain.ErrValidation("invalid viewer identifier %q", viewer)
	}

	all, err := s.locations.List(ctx)
	if err != nil {
		return nil, err
	}

	visible := []domain.LocationSample{}
	for _, sample := range all {
		entry, err := s.shares.Get(ctx, sample.Owner)
		if err != nil {
			return nil, err
		}
		// The sharing flag is re-checked here even though disabling
		// sharing deletes the sample: a sample surviving a partial
		// toggle must still be withheld.
		if !entry.SharingEnabled {
			continue
		}
		if sample.Owner != viewer && !entry.HasGrantee(viewer) {
			continue
		}
		visible = append(visible, sample)
	}
	return visible, nil
}
