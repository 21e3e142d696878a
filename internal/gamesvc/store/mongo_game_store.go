package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/avvvet/game-manager/internal/gamesvc/apperr"
	"github.com/avvvet/game-manager/internal/gamesvc/models"
	"github.com/avvvet/game-manager/internal/gamesvc/query"
)

const GamesCollection = "games"

type gameDocument struct {
	ID          string     `bson:"id"`
	Title       string     `bson:"title"`
	Platform    string     `bson:"platform"`
	Genre       string     `bson:"genre"`
	Developer   string     `bson:"developer"`
	ReleaseDate *time.Time `bson:"release_date,omitempty"`
	CreatedAt   time.Time  `bson:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at"`
}

func (d gameDocument) toGame() *models.Game {
	g := &models.Game{
		ID:        d.ID,
		Title:     d.Title,
		Platform:  d.Platform,
		Genre:     d.Genre,
		Developer: d.Developer,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
	if d.ReleaseDate != nil {
		rd := models.DateOf(*d.ReleaseDate)
		g.ReleaseDate = &rd
	}
	return g
}

func releaseTime(d *models.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Start()
	return &t
}

// MongoGameStore keeps games in a single collection with unique indexes on
// id and title (see db.EnsureGameIndexes).
type MongoGameStore struct {
	coll *mongo.Collection
}

func NewMongoGameStore(db *mongo.Database) *MongoGameStore {
	return &MongoGameStore{coll: db.Collection(GamesCollection)}
}

func (s *MongoGameStore) Create(ctx context.Context, in models.GameCreate) (*models.Game, error) {
	n, err := s.coll.CountDocuments(ctx, bson.D{{Key: "title", Value: in.Title}})
	if err != nil {
		return nil, fmt.Errorf("failed to check game title: %w", err)
	}
	if n > 0 {
		return nil, apperr.AlreadyExists("Game", in.Title)
	}

	// mongo stores milliseconds
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := gameDocument{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Platform:    in.Platform,
		Genre:       in.Genre,
		Developer:   in.Developer,
		ReleaseDate: releaseTime(in.ReleaseDate),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.AlreadyExists("Game", in.Title)
		}
		return nil, fmt.Errorf("failed to create game: %w", err)
	}
	return doc.toGame(), nil
}

func (s *MongoGameStore) GetByID(ctx context.Context, id string) (*models.Game, error) {
	var doc gameDocument
	err := s.coll.FindOne(ctx, bson.D{{Key: "id", Value: id}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("Game", id)
		}
		return nil, fmt.Errorf("failed to get game by ID: %w", err)
	}
	return doc.toGame(), nil
}

func (s *MongoGameStore) List(ctx context.Context, plan query.Plan) ([]*models.Game, error) {
	filter, opts := plan.Mongo()
	// byte-wise ordering to match the other catalogs
	opts.SetCollation(&options.Collation{Locale: "simple"})

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer cursor.Close(ctx)

	games := []*models.Game{}
	for cursor.Next(ctx) {
		var doc gameDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode game: %w", err)
		}
		games = append(games, doc.toGame())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	return games, nil
}

func (s *MongoGameStore) Update(ctx context.Context, id string, patch models.GameUpdate) (*models.Game, error) {
	if patch.Title != nil {
		n, err := s.coll.CountDocuments(ctx, bson.D{
			{Key: "title", Value: *patch.Title},
			{Key: "id", Value: bson.D{{Key: "$ne", Value: id}}},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to check game title: %w", err)
		}
		if n > 0 {
			return nil, apperr.AlreadyExists("Game", *patch.Title)
		}
	}

	set := bson.D{{Key: "updated_at", Value: time.Now().UTC().Truncate(time.Millisecond)}}
	if patch.Title != nil {
		set = append(set, bson.E{Key: "title", Value: *patch.Title})
	}
	if patch.Platform != nil {
		set = append(set, bson.E{Key: "platform", Value: *patch.Platform})
	}
	if patch.Genre != nil {
		set = append(set, bson.E{Key: "genre", Value: *patch.Genre})
	}
	if patch.Developer != nil {
		set = append(set, bson.E{Key: "developer", Value: *patch.Developer})
	}
	if patch.ReleaseDate != nil {
		set = append(set, bson.E{Key: "release_date", Value: patch.ReleaseDate.Start()})
	}

	var doc gameDocument
	err := s.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "id", Value: id}},
		bson.D{{Key: "$set", Value: set}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, apperr.NotFound("Game", id)
		case mongo.IsDuplicateKeyError(err) && patch.Title != nil:
			return nil, apperr.AlreadyExists("Game", *patch.Title)
		}
		return nil, fmt.Errorf("failed to update game: %w", err)
	}
	return doc.toGame(), nil
}

func (s *MongoGameStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.D{{Key: "id", Value: id}})
	if err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("Game", id)
	}
	return nil
}
