package service

import (
	"context"

	"github.com/avvvet/game-manager/internal/comm"
	"github.com/avvvet/game-manager/internal/gamesvc/identity"
	"github.com/avvvet/game-manager/internal/gamesvc/models"
	"github.com/avvvet/game-manager/internal/gamesvc/query"
)

// GameCatalog persists game records. Implementations return apperr typed
// errors for NotFound and AlreadyExists.
type GameCatalog interface {
	Create(ctx context.Context, in models.GameCreate) (*models.Game, error)
	GetByID(ctx context.Context, id string) (*models.Game, error)
	List(ctx context.Context, plan query.Plan) ([]*models.Game, error)
	Update(ctx context.Context, id string, patch models.GameUpdate) (*models.Game, error)
	Delete(ctx context.Context, id string) error
}

// AssetRegistry is the remote authority on which user owns which game.
type AssetRegistry interface {
	CreateAsset(ctx context.Context, user identity.DigitalUser, req models.AssetRequest) (*models.AssetRecord, error)
	FindAssets(ctx context.Context, user identity.DigitalUser, q models.OwnershipQuery) ([]models.AssetRecord, error)
	DeleteAsset(ctx context.Context, user identity.DigitalUser, externalID string) error
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, event comm.CatalogEvent) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) PublishEvent(context.Context, comm.CatalogEvent) error { return nil }

// Classification tags the asset records this service creates and scopes the
// ones it looks up.
type Classification struct {
	GroupID    string
	ArtifactID string
	Version    string
	Type       string
}

func (c Classification) artifact() *models.ArtifactInformation {
	return &models.ArtifactInformation{GroupID: c.GroupID, ArtifactID: c.ArtifactID, Version: c.Version}
}
