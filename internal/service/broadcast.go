package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"whereabouts/internal/domain"
)

// ErrSharingDisabled is returned by Broadcaster.Start when the owner
// has sharing turned off.
var ErrSharingDisabled = errors.New("sharing is disabled for this owner")

// PositionSource supplies the owner's current position on demand. A
// GPS fix, a test fixture, anything.
type PositionSource interface {
	Current(ctx context.Context) (*domain.LocationSample, error)
}

// Broadcaster runs periodic-upload sessions: each session polls a
// position source at a fixed interval and feeds the samples through
// the ingest pipeline. Multiple sessions can run concurrently for
// different owners.
type Broadcaster struct {
	shares domain.ShareGraphRepository
	ingest *IngestService
	logger *slog.Logger
}

func NewBroadcaster(shares domain.ShareGraphRepository, ingest *IngestService, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{shares: shares, ingest: ingest, logger: logger}
}

// Start begins a broadcast session for the owner. It fails with
// ErrSharingDisabled when the owner's sharing flag is off. The session
// runs until Stop is called or the owner disables sharing.
func (b *Broadcaster) Start(ctx context.Context, owner string, source PositionSource, interval time.Duration) (*BroadcastSession, error) {
	if !domain.ValidIdentifier(owner) {
		return nil, domain.ErrValidation("invalid owner identifier %q", owner)
	}
	if interval <= 0 {
		return nil, domain.ErrValidation("broadcast interval must be positive")
	}

	entry, err := b.shares.Get(ctx, owner)
	if err != nil {
		return nil, err
	}
	if !entry.SharingEnabled {
		return nil, ErrSharingDisabled
	}

	sessionCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	session := &BroadcastSession{
		owner:  owner,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go b.run(sessionCtx, session, source, interval)
	return session, nil
}

func (b *Broadcaster) run(ctx context.Context, session *BroadcastSession, source PositionSource, interval time.Duration) {
	defer close(session.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// First upload happens immediately, not one interval in.
	b.tick(ctx, session.owner, source)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			entry, err := b.shares.Get(ctx, session.owner)
			if err != nil {
				b.logger.Warn("broadcast sharing check failed", "owner", session.owner, "error", err)
				continue
			}
			if !entry.SharingEnabled {
				// Uploading past a toggle-off would resurrect the
				// sample the toggle deleted.
				b.logger.Info("sharing disabled, ending broadcast session", "owner", session.owner)
				return
			}
			b.tick(ctx, session.owner, source)
		}
	}
}

func (b *Broadcaster) tick(ctx context.Context, owner string, source PositionSource) {
	sample, err := source.Current(ctx)
	if err != nil {
		b.logger.Warn("position source failed", "owner", owner, "error", err)
		return
	}
	sample.Owner = owner
	if err := b.ingest.Ingest(ctx, sample); err != nil {
		b.logger.Warn("broadcast upload failed", "owner", owner, "error", err)
	}
}

// BroadcastSession is a handle to one running periodic-upload loop.
type BroadcastSession struct {
	owner  string
	cancel context.CancelFunc
	done   chan struct{}
	stop   sync.Once
}

// Owner returns the owner this session uploads for.
func (s *BroadcastSession) Owner() string { return s.owner }

// Stop ends the session and waits for the upload loop to exit. Safe to
// call more than once.
func (s *BroadcastSession) Stop() {
	s.stop.Do(s.cancel)
	<-s.done
}

// Done is closed when the upload loop has exited, whether via Stop or
// because the owner disabled sharing.
func (s *BroadcastSession) Done() <-chan struct{} { return s.done }
