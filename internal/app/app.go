// Package app provides application-level wiring and dependency
// injection for the whereabouts server.
package app

import (
	"context"
	"database/sql"
	"log/slog"

	"whereabouts/internal/config"
	"whereabouts/internal/db/dynamo"
	"whereabouts/internal/db/repository"
	"whereabouts/internal/domain"
	"whereabouts/internal/service"
)

// Deps holds the external dependencies that main() must provide:
// config, database handles, and the logger. WriteDB/ReadDB are nil
// when the DynamoDB backend is selected.
type Deps struct {
	Cfg     *config.Config
	WriteDB *sql.DB
	ReadDB  *sql.DB
	Logger  *slog.Logger
}

// Services groups the service pointers the API handler needs.
type Services struct {
	Sharing    *service.SharingService
	Ingest     *service.IngestService
	Visibility *service.VisibilityService
	Hub        *service.Hub
	Broadcast  *service.Broadcaster
	Retention  *service.RetentionSweeper
}

// App holds the fully-wired application.
type App struct {
	Services Services
}

// New wires repositories and services from the provided deps.
func New(ctx context.Context, deps Deps) (*App, error) {
	cfg := deps.Cfg

	var shares domain.ShareGraphRepository
	var locationsWrite, locationsRead domain.LocationRepository

	switch cfg.StoreBackend {
	case config.BackendDynamoDB:
		client, err := dynamo.NewClient(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, err
		}
		shares = dynamo.NewShareGraphRepo(client, cfg.SharesTable)
		repo := dynamo.NewLocationRepo(client, cfg.LocationsTable)
		locationsWrite, locationsRead = repo, repo
	default:
		// ShareGraphRepo sits on the write pool: even Get may persist
		// the lazy default entry.
		shares = repository.NewShareGraphRepo(deps.WriteDB)
		locationsWrite = repository.NewLocationRepo(deps.WriteDB)
		locationsRead = repository.NewLocationRepo(deps.ReadDB)
	}

	resolver := service.NewVisibilityService(shares, locationsRead)
	hub := service.NewHub(resolver, deps.Logger.With("component", "hub"))

	sharing := service.NewSharingService(shares, locationsWrite, hub)
	ingest := service.NewIngestService(shares, locationsWrite, hub)
	broadcast := service.NewBroadcaster(shares, ingest, deps.Logger.With("component", "broadcast"))

	var retention *service.RetentionSweeper
	if cfg.RetentionTTL > 0 {
		retention = service.NewRetentionSweeper(locationsWrite, cfg.RetentionTTL, deps.Logger.With("component", "retention"))
	}

	return &App{
		Services: Services{
			Sharing:    sharing,
			Ingest:     ingest,
			Visibility: resolver,
			Hub:        hub,
			Broadcast:  broadcast,
			Retention:  retention,
		},
	}, nil
}
