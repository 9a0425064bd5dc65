package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "whereabouts/internal/db"
	"whereabouts/internal/db/repository"
	"whereabouts/internal/domain"
)

func TestRetentionSweeper_Sweep(t *testing.T) {
	db, _ := internaldb.OpenTestSQLite(t)
	locations := repository.NewLocationRepo(db)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, locations.Upsert(ctx, &domain.LocationSample{
		Owner: "stale", Latitude: 1, Longitude: 1,
		CapturedAtMillis: now.Add(-48 * time.Hour).UnixMilli(),
	}))
	require.NoError(t, locations.Upsert(ctx, &domain.LocationSample{
		Owner: "fresh", Latitude: 2, Longitude: 2,
		CapturedAtMillis: now.UnixMilli(),
	}))

	sweeper := NewRetentionSweeper(locations, 24*time.Hour, slog.Default())
	n, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	remaining, err := locations.List(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "fresh", remaining[0].Owner)
}

func TestRetentionSweeper_StartRejectsBadSchedule(t *testing.T) {
	db, _ := internaldb.OpenTestSQLite(t)
	sweeper := NewRetentionSweeper(repository.NewLocationRepo(db), time.Hour, slog.Default())

	err := sweeper.Start("not a schedule")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestRetentionSweeper_StartAndStop(t *testing.T) {
	db, _ := internaldb.OpenTestSQLite(t)
	sweeper := NewRetentionSweeper(repository.NewLocationRepo(db), time.Hour, slog.Default())

	require.NoError(t, sweeper.Start("@hourly"))
	sweeper.Stop()
}
