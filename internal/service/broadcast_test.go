package service

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "whereabouts/internal/db"
	"whereabouts/internal/db/repository"
	"whereabouts/internal/domain"
)

// fixedSource returns the same position on every poll and counts polls.
type fixedSource struct {
	lat, lon float64
	polls    atomic.Int64
	clock    atomic.Int64
}

func (f *fixedSource) Current(ctx context.Context) (*domain.LocationSample, error) {
	f.polls.Add(1)
	return &domain.LocationSample{
		Latitude:         f.lat,
		Longitude:        f.lon,
		CapturedAtMillis: f.clock.Add(1000),
	}, nil
}

func setupBroadcaster(t *testing.T) (*Broadcaster, *SharingService, *repository.LocationRepo) {
	t.Helper()
	db, _ := internaldb.OpenTestSQLite(t)
	shares := repository.NewShareGraphRepo(db)
	locations := repository.NewLocationRepo(db)
	ingest := NewIngestService(shares, locations, nil)
	return NewBroadcaster(shares, ingest, slog.Default()),
		NewSharingService(shares, locations, nil),
		locations
}

func TestBroadcaster_UploadsImmediately(t *testing.T) {
	b, _, locations := setupBroadcaster(t)
	ctx := context.Background()

	source := &fixedSource{lat: 52.52, lon: 13.40}
	session, err := b.Start(ctx, "alice", source, time.Hour)
	require.NoError(t, err)
	defer session.Stop()

	require.Eventually(t, func() bool {
		_, err := locations.Get(ctx, "alice")
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)

	got, err := locations.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Owner)
	assert.InDelta(t, 52.52, got.Latitude, 1e-9)
}

func TestBroadcaster_SharingDisabledRejectsStart(t *testing.T) {
	b, sharing, _ := setupBroadcaster(t)
	ctx := context.Background()

	require.NoError(t, sharing.SetSharingEnabled(ctx, "alice", false))

	_, err := b.Start(ctx, "alice", &fixedSource{lat: 1, lon: 1}, time.Hour)
	require.ErrorIs(t, err, ErrSharingDisabled)
}

func TestBroadcaster_SessionEndsWhenSharingDisabled(t *testing.T) {
	b, sharing, _ := setupBroadcaster(t)
	ctx := context.Background()

	source := &fixedSource{lat: 1, lon: 1}
	session, err := b.Start(ctx, "alice", source, 10*time.Millisecond)
	require.NoError(t, err)

	require.NoError(t, sharing.SetSharingEnabled(ctx, "alice", false))

	select {
	case <-session.Done():
	case <-time.After(5 * time.Second):
		session.Stop()
		t.Fatal("session kept running after sharing was disabled")
	}
}

func TestBroadcaster_StopIsIdempotent(t *testing.T) {
	b, _, _ := setupBroadcaster(t)

	session, err := b.Start(context.Background(), "alice", &fixedSource{lat: 1, lon: 1}, time.Hour)
	require.NoError(t, err)

	session.Stop()
	session.Stop()

	select {
	case <-session.Done():
	default:
		t.Fatal("Done not closed after Stop")
	}
}

func TestBroadcaster_PollsOnInterval(t *testing.T) {
	b, _, _ := setupBroadcaster(t)

	source := &fixedSource{lat: 1, lon: 1}
	session, err := b.Start(context.Background(), "alice", source, 10*time.Millisecond)
	require.NoError(t, err)
	defer session.Stop()

	require.Eventually(t, func() bool {
		return source.polls.Load() >= 3
	}, 5*time.Second, 10*time.Millisecond)
}
