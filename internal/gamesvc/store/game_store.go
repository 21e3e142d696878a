package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avvvet/game-manager/internal/gamesvc/apperr"
	"github.com/avvvet/game-manager/internal/gamesvc/models"
	"github.com/avvvet/game-manager/internal/gamesvc/query"
)

const (
	gamesTable  = "games"
	gameColumns = "id, title, platform, genre, developer, release_date, created_at, updated_at"

	uniqueViolation = "23505"
)

type GameStore struct {
	db *pgxpool.Pool
}

func NewGameStore(db *pgxpool.Pool) *GameStore {
	return &GameStore{db: db}
}

func (s *GameStore) Create(ctx context.Context, in models.GameCreate) (*models.Game, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM games WHERE title = $1)`, in.Title).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check game title: %w", err)
	}
	if exists {
		return nil, apperr.AlreadyExists("Game", in.Title)
	}

	stmt := `
		INSERT INTO games (id, title, platform, genre, developer, release_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + gameColumns

	row := s.db.QueryRow(ctx, stmt,
		uuid.NewString(),
		in.Title,
		in.Platform,
		in.Genre,
		in.Developer,
		dateParam(in.ReleaseDate),
	)
	game, err := scanGame(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.AlreadyExists("Game", in.Title)
		}
		return nil, fmt.Errorf("failed to create game: %w", err)
	}
	return game, nil
}

func (s *GameStore) GetByID(ctx context.Context, id string) (*models.Game, error) {
	row := s.db.QueryRow(ctx, `SELECT `+gameColumns+` FROM games WHERE id = $1`, id)
	game, err := scanGame(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Game", id)
		}
		return nil, fmt.Errorf("failed to get game by ID: %w", err)
	}
	return game, nil
}

func (s *GameStore) List(ctx context.Context, plan query.Plan) ([]*models.Game, error) {
	sql, args := plan.SQL(gamesTable, gameColumns)
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	games := []*models.Game{}
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, game)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	return games, nil
}

// Update reads the current row, applies the patch and writes every column
// back in one statement.
func (s *GameStore) Update(ctx context.Context, id string, patch models.GameUpdate) (*models.Game, error) {
	game, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Title != nil && *patch.Title != game.Title {
		var exists bool
		err := s.db.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM games WHERE title = $1 AND id <> $2)`, *patch.Title, id).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("failed to check game title: %w", err)
		}
		if exists {
			return nil, apperr.AlreadyExists("Game", *patch.Title)
		}
	}
	patch.Apply(game)

	stmt := `
		UPDATE games
		SET title = $2, platform = $3, genre = $4, developer = $5, release_date = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + gameColumns

	row := s.db.QueryRow(ctx, stmt,
		id,
		game.Title,
		game.Platform,
		game.Genre,
		game.Developer,
		dateParam(game.ReleaseDate),
	)
	updated, err := scanGame(row)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, apperr.NotFound("Game", id)
		case isUniqueViolation(err):
			return nil, apperr.AlreadyExists("Game", game.Title)
		}
		return nil, fmt.Errorf("failed to update game: %w", err)
	}
	return updated, nil
}

func (s *GameStore) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM games WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Game", id)
	}
	return nil
}

func scanGame(row pgx.Row) (*models.Game, error) {
	var (
		game        models.Game
		releaseDate pgtype.Date
	)
	err := row.Scan(
		&game.ID,
		&game.Title,
		&game.Platform,
		&game.Genre,
		&game.Developer,
		&releaseDate,
		&game.CreatedAt,
		&game.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if releaseDate.Valid {
		d := models.DateOf(releaseDate.Time)
		game.ReleaseDate = &d
	}
	game.CreatedAt = game.CreatedAt.UTC()
	game.UpdatedAt = game.UpdatedAt.UTC()
	return &game, nil
}

func dateParam(d *models.Date) pgtype.Date {
	if d == nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), Valid: true}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
