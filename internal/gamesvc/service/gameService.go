package service

import (
	"context"
	"encoding/json"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/avvvet/game-manager/internal/comm"
	"github.com/avvvet/game-manager/internal/gamesvc/apperr"
	"github.com/avvvet/game-manager/internal/gamesvc/identity"
	"github.com/avvvet/game-manager/internal/gamesvc/models"
	"github.com/avvvet/game-manager/internal/gamesvc/query"
	"github.com/avvvet/game-manager/internal/gamesvc/validation"
)

// GameService runs the catalog use cases. Every game a user can see is backed
// by an OWNER asset record in the registry; the catalog holds the data.
type GameService struct {
	catalog  GameCatalog
	registry AssetRegistry
	events   EventPublisher
	class    Classification
	now      func() time.Time
}

func NewGameService(catalog GameCatalog, registry AssetRegistry, events EventPublisher, class Classification) *GameService {
	if events == nil {
		events = NopPublisher{}
	}
	return &GameService{
		catalog:  catalog,
		registry: registry,
		events:   events,
		class:    class,
		now:      time.Now,
	}
}

// CreateGame stores the game and registers the user as its owner. If the
// registry rejects the asset the stored row is removed again.
func (s *GameService) CreateGame(ctx context.Context, in models.GameCreate, user identity.DigitalUser) (*models.Game, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	logger := log.WithFields(log.Fields{"op": "create", "digital_user": user.ID, "title": in.Title})

	var game *models.Game
	w := &twoStepWrite{logger: logger}
	w.local = func(ctx context.Context) error {
		g, err := s.catalog.Create(ctx, in)
		if err != nil {
			return err
		}
		game = g
		w.logger = w.logger.WithField("game_id", g.ID)
		return nil
	}
	w.remote = func(ctx context.Context) error {
		_, err := s.registry.CreateAsset(ctx, user, s.assetRequest(game.ID))
		return err
	}
	w.compensate = func(ctx context.Context) error {
		return s.catalog.Delete(ctx, game.ID)
	}
	w.orphaned = func(cause, err error) {
		s.publishOrphan(ctx, "create", game.ID, user, cause, err)
	}
	if err := w.run(ctx); err != nil {
		w.logger.WithError(err).WithField("state", w.State()).Info("create game failed")
		return nil, err
	}

	w.logger.Info("game created")
	s.publish(ctx, comm.EventGameCreated, game.ID, user, game)
	return game, nil
}

// FindGame returns the game only when the user owns it. Games the user does
// not own are reported as not found.
func (s *GameService) FindGame(ctx context.Context, id string, user identity.DigitalUser) (*models.Game, error) {
	records, err := s.registry.FindAssets(ctx, user, s.ownership(user, models.OwnershipQuery{ExternalIDs: []string{id}}))
	if err != nil {
		return nil, err
	}
	if !owns(records, id) {
		return nil, apperr.NotFound("Game", id)
	}

	game, err := s.catalog.GetByID(ctx, id)
	if err != nil {
		if apperr.Is(err, apperr.CodeNotFound) {
			log.WithFields(log.Fields{"game_id": id, "digital_user": user.ID}).
				Error("owned game missing from catalog")
			return nil, apperr.Internal("Game "+id+" is owned but missing from the catalog.", err)
		}
		return nil, err
	}
	return game, nil
}

// ListGames returns the user's games matching c. The registry decides which
// ids are candidates; the catalog filters, sorts and pages them.
func (s *GameService) ListGames(ctx context.Context, c models.ListCriteria, user identity.DigitalUser) ([]*models.Game, error) {
	c, err := query.Normalize(c)
	if err != nil {
		return nil, err
	}

	records, err := s.registry.FindAssets(ctx, user, s.ownership(user, models.OwnershipQuery{
		ExternalIDs: c.IDs,
		CreatedAt:   c.CreatedAt,
		From:        c.From,
		To:          c.To,
	}))
	if err != nil {
		return nil, err
	}

	ids := ownedIDs(records, c.IDs)
	if len(ids) == 0 {
		return []*models.Game{}, nil
	}
	c.IDs = ids

	plan, err := query.Translate(c)
	if err != nil {
		return nil, err
	}
	return s.catalog.List(ctx, plan)
}

// UpdateGame applies the non-nil fields of patch to a game the user owns.
func (s *GameService) UpdateGame(ctx context.Context, id string, patch models.GameUpdate, user identity.DigitalUser) (*models.Game, error) {
	if err := validation.Struct(patch); err != nil {
		return nil, err
	}

	current, err := s.FindGame(ctx, id, user)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return current, nil
	}

	game, err := s.catalog.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"op": "update", "game_id": id, "digital_user": user.ID}).Info("game updated")
	s.publish(ctx, comm.EventGameUpdated, id, user, game)
	return game, nil
}

// DeleteGame removes the ownership record first and the game row second.
// Games the user does not own are reported as not found and left untouched.
// A failure of the second step leaves an orphan row; the asset record is not
// recreated.
func (s *GameService) DeleteGame(ctx context.Context, id string, user identity.DigitalUser) error {
	logger := log.WithFields(log.Fields{"op": "delete", "game_id": id, "digital_user": user.ID})

	records, err := s.registry.FindAssets(ctx, user, s.ownership(user, models.OwnershipQuery{ExternalIDs: []string{id}}))
	if err != nil {
		return err
	}
	if !owns(records, id) {
		return apperr.NotFound("Game", id)
	}

	if err := s.registry.DeleteAsset(ctx, user, id); err != nil {
		logger.WithError(err).Info("delete game failed at registry")
		return err
	}

	if err := s.catalog.Delete(ctx, id); err != nil {
		logger.WithError(err).Error("asset removed but catalog delete failed, game row orphaned")
		s.publishOrphan(ctx, "delete", id, user, nil, err)
		return err
	}

	logger.Info("game deleted")
	s.publish(ctx, comm.EventGameDeleted, id, user, nil)
	return nil
}

func (s *GameService) assetRequest(gameID string) models.AssetRequest {
	return models.AssetRequest{
		ExternalID:          gameID,
		Type:                s.class.Type,
		PermissionPolicy:    models.PermissionOwner,
		ArtifactInformation: s.class.artifact(),
	}
}

func (s *GameService) ownership(user identity.DigitalUser, q models.OwnershipQuery) models.OwnershipQuery {
	q.DigitalUserID = user.ID
	q.GroupID = s.class.GroupID
	q.ArtifactID = s.class.ArtifactID
	q.Type = s.class.Type
	return q
}

func owns(records []models.AssetRecord, id string) bool {
	for _, r := range records {
		if r.ExternalID == id {
			return true
		}
	}
	return false
}

// ownedIDs returns the distinct external ids of records, restricted to
// requested when the caller asked for specific ids.
func ownedIDs(records []models.AssetRecord, requested []string) []string {
	var allowed map[string]bool
	if requested != nil {
		allowed = make(map[string]bool, len(requested))
		for _, id := range requested {
			allowed[id] = true
		}
	}

	seen := make(map[string]bool, len(records))
	ids := make([]string, 0, len(records))
	for _, r := range records {
		if r.ExternalID == "" || seen[r.ExternalID] {
			continue
		}
		if allowed != nil && !allowed[r.ExternalID] {
			continue
		}
		seen[r.ExternalID] = true
		ids = append(ids, r.ExternalID)
	}
	return ids
}

func (s *GameService) publish(ctx context.Context, eventType, gameID string, user identity.DigitalUser, payload any) {
	event := comm.CatalogEvent{
		Type:          eventType,
		GameID:        gameID,
		DigitalUserID: user.ID,
		Timestamp:     s.now().UTC(),
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			log.WithError(err).WithField("event", eventType).Error("unable to marshal event payload")
			return
		}
		event.Data = data
	}
	if err := s.events.PublishEvent(ctx, event); err != nil {
		log.WithError(err).WithFields(log.Fields{"event": eventType, "game_id": gameID}).
			Warn("failed to publish catalog event")
	}
}

// publishOrphan reports a game row left without an ownership record. cause is
// the failure that triggered the cleanup, if any.
func (s *GameService) publishOrphan(ctx context.Context, operation, gameID string, user identity.DigitalUser, cause, err error) {
	orphan := comm.Orphan{Operation: operation, Error: err.Error()}
	if cause != nil {
		orphan.Cause = cause.Error()
	}
	s.publish(ctx, comm.EventGameOrphaned, gameID, user, orphan)
}
