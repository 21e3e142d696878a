package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/avvvet/game-manager/internal/gamesvc/apperr"
	"github.com/avvvet/game-manager/internal/gamesvc/models"
	"github.com/avvvet/game-manager/internal/gamesvc/query"
)

// MemoryGameStore is a process-local catalog. Returned games are copies.
type MemoryGameStore struct {
	mu    sync.RWMutex
	games map[string]*models.Game
	now   func() time.Time
}

func NewMemoryGameStore() *MemoryGameStore {
	return &MemoryGameStore{
		games: make(map[string]*models.Game),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryGameStore) Create(_ context.Context, in models.GameCreate) (*models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.titleTaken(in.Title, "") {
		return nil, apperr.AlreadyExists("Game", in.Title)
	}

	now := s.now()
	g := &models.Game{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Platform:    in.Platform,
		Genre:       in.Genre,
		Developer:   in.Developer,
		ReleaseDate: copyDate(in.ReleaseDate),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.games[g.ID] = g
	return clone(g), nil
}

func (s *MemoryGameStore) GetByID(_ context.Context, id string) (*models.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.games[id]
	if !ok {
		return nil, apperr.NotFound("Game", id)
	}
	return clone(g), nil
}

func (s *MemoryGameStore) List(_ context.Context, plan query.Plan) ([]*models.Game, error) {
	s.mu.RLock()
	all := make([]*models.Game, 0, len(s.games))
	for _, g := range s.games {
		all = append(all, clone(g))
	}
	s.mu.RUnlock()

	return plan.Apply(all), nil
}

func (s *MemoryGameStore) Update(_ context.Context, id string, patch models.GameUpdate) (*models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games[id]
	if !ok {
		return nil, apperr.NotFound("Game", id)
	}
	if patch.Title != nil && s.titleTaken(*patch.Title, id) {
		return nil, apperr.AlreadyExists("Game", *patch.Title)
	}

	patch.Apply(g)
	g.UpdatedAt = s.now()
	return clone(g), nil
}

func (s *MemoryGameStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.games[id]; !ok {
		return apperr.NotFound("Game", id)
	}
	delete(s.games, id)
	return nil
}

// Len reports how many games are stored.
func (s *MemoryGameStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.games)
}

func (s *MemoryGameStore) titleTaken(title, exceptID string) bool {
	for id, g := range s.games {
		if id != exceptID && g.Title == title {
			return true
		}
	}
	return false
}

func clone(g *models.Game) *models.Game {
	c := *g
	c.ReleaseDate = copyDate(g.ReleaseDate)
	return &c
}

func copyDate(d *models.Date) *models.Date {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}
