package service

import (
	"context"

	"whereabouts/internal/domain"
)

// IngestService accepts location samples from position sources and
// persists the latest sample per owner.
type IngestService struct {
	shares    domain.ShareGraphRepository
	locations domain.LocationRepository
	listener  ChangeListener
}

func NewIngestService(shares domain.ShareGraphRepository, locations domain.LocationRepository, listener ChangeListener) *IngestService {
	if listener == nil {
		listener = NopListener{}
	}
	return &IngestService{shares: shares, locations: locations, listener: listener}
}

// Ingest validates and stores a sample. Samples for owners who have
// paused sharing are discarded without error, and samples older than
// the stored one are dropped by the repository, so out-of-order
// delivery never moves a position backwards.
func (s *IngestService) Ingest(ctx context.Context, sample *domain.LocationSample) error {
	if err := sample.Validate(); err != nil {
		return err
	}

	entry, err := s.shares.Get(ctx, sample.Owner)
	if err != nil {
		return err
	}
	if !entry.SharingEnabled {
		return nil
	}

	if err := s.locations.Upsert(ctx, sample); err != nil {
		return err
	}
	s.listener.LocationChanged(ctx, sample.Owner)
	return nil
}
