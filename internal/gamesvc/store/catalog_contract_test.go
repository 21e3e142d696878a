package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avvvet/game-manager/internal/gamesvc/apperr"
	"github.com/avvvet/game-manager/internal/gamesvc/models"
	"github.com/avvvet/game-manager/internal/gamesvc/query"
)

type catalog interface {
	Create(ctx context.Context, in models.GameCreate) (*models.Game, error)
	GetByID(ctx context.Context, id string) (*models.Game, error)
	List(ctx context.Context, plan query.Plan) ([]*models.Game, error)
	Update(ctx context.Context, id string, patch models.GameUpdate) (*models.Game, error)
	Delete(ctx context.Context, id string) error
}

func strPtr(s string) *string { return &s }

func mustPlan(t *testing.T, c models.ListCriteria) query.Plan {
	t.Helper()
	p, err := query.Translate(c)
	require.NoError(t, err)
	return p
}

func titles(games []*models.Game) []string {
	out := make([]string, len(games))
	for i, g := range games {
		out[i] = g.Title
	}
	return out
}

// runCatalogContract exercises behaviour every catalog backend must share.
// newCatalog must return an empty catalog.
func runCatalogContract(t *testing.T, newCatalog func(t *testing.T) catalog) {
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		c := newCatalog(t)
		rd := models.NewDate(2017, 3, 3)
		created, err := c.Create(ctx, models.GameCreate{
			Title:       "Breath of the Wild",
			Platform:    "Switch",
			Genre:       "Adventure",
			Developer:   "Nintendo",
			ReleaseDate: &rd,
		})
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.False(t, created.CreatedAt.IsZero())

		got, err := c.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Breath of the Wild", got.Title)
		assert.Equal(t, "Nintendo", got.Developer)
		require.NotNil(t, got.ReleaseDate)
		assert.Equal(t, "2017-03-03", got.ReleaseDate.String())
	})

	t.Run("duplicate title", func(t *testing.T) {
		c := newCatalog(t)
		_, err := c.Create(ctx, models.GameCreate{Title: "Tetris", Platform: "GameBoy"})
		require.NoError(t, err)

		_, err = c.Create(ctx, models.GameCreate{Title: "Tetris", Platform: "NES"})
		require.Error(t, err)
		appErr, ok := apperr.From(err)
		require.True(t, ok)
		assert.Equal(t, apperr.CodeAlreadyExists, appErr.Code)
		assert.Equal(t, "Game Tetris already exists.", appErr.Message)
	})

	t.Run("get missing", func(t *testing.T) {
		c := newCatalog(t)
		_, err := c.GetByID(ctx, "8a1b7a4e-0000-4000-8000-000000000000")
		assert.True(t, apperr.Is(err, apperr.CodeNotFound))
	})

	t.Run("update patch", func(t *testing.T) {
		c := newCatalog(t)
		created, err := c.Create(ctx, models.GameCreate{Title: "Doom", Platform: "PC", Genre: "Shooter"})
		require.NoError(t, err)

		updated, err := c.Update(ctx, created.ID, models.GameUpdate{Platform: strPtr("Switch")})
		require.NoError(t, err)
		assert.Equal(t, "Doom", updated.Title)
		assert.Equal(t, "Switch", updated.Platform)
		assert.Equal(t, "Shooter", updated.Genre)
		assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))
	})

	t.Run("update to taken title", func(t *testing.T) {
		c := newCatalog(t)
		_, err := c.Create(ctx, models.GameCreate{Title: "Quake", Platform: "PC"})
		require.NoError(t, err)
		doom, err := c.Create(ctx, models.GameCreate{Title: "Doom", Platform: "PC"})
		require.NoError(t, err)

		_, err = c.Update(ctx, doom.ID, models.GameUpdate{Title: strPtr("Quake")})
		assert.True(t, apperr.Is(err, apperr.CodeAlreadyExists))

		// renaming to its own title is not a conflict
		_, err = c.Update(ctx, doom.ID, models.GameUpdate{Title: strPtr("Doom")})
		assert.NoError(t, err)
	})

	t.Run("update missing", func(t *testing.T) {
		c := newCatalog(t)
		_, err := c.Update(ctx, "8a1b7a4e-0000-4000-8000-000000000000", models.GameUpdate{Platform: strPtr("PC")})
		assert.True(t, apperr.Is(err, apperr.CodeNotFound))
	})

	t.Run("delete", func(t *testing.T) {
		c := newCatalog(t)
		created, err := c.Create(ctx, models.GameCreate{Title: "Celeste", Platform: "PC"})
		require.NoError(t, err)

		require.NoError(t, c.Delete(ctx, created.ID))
		_, err = c.GetByID(ctx, created.ID)
		assert.True(t, apperr.Is(err, apperr.CodeNotFound))
		assert.True(t, apperr.Is(c.Delete(ctx, created.ID), apperr.CodeNotFound))
	})

	t.Run("list filters sorts and pages", func(t *testing.T) {
		c := newCatalog(t)
		ids := map[string]string{}
		for _, in := range []models.GameCreate{
			{Title: "Hades", Platform: "PC", Genre: "Roguelike"},
			{Title: "Celeste", Platform: "Switch", Genre: "Platformer"},
			{Title: "Dead Cells", Platform: "PC", Genre: "Roguelike"},
			{Title: "Braid", Platform: "PC"},
		} {
			g, err := c.Create(ctx, in)
			require.NoError(t, err)
			ids[g.Title] = g.ID
		}

		all, err := c.List(ctx, mustPlan(t, models.ListCriteria{}))
		require.NoError(t, err)
		assert.Equal(t, []string{"Braid", "Celeste", "Dead Cells", "Hades"}, titles(all))

		rogue, err := c.List(ctx, mustPlan(t, models.ListCriteria{
			Genre:              "rogue",
			OrderByList:        []models.OrderBy{models.OrderByTitle},
			OrderDirectionList: []models.OrderDirection{models.OrderDesc},
		}))
		require.NoError(t, err)
		assert.Equal(t, []string{"Hades", "Dead Cells"}, titles(rogue))

		one, two := 1, 2
		page, err := c.List(ctx, mustPlan(t, models.ListCriteria{Offset: &one, Limit: &two}))
		require.NoError(t, err)
		assert.Equal(t, []string{"Celeste", "Dead Cells"}, titles(page))

		owned, err := c.List(ctx, mustPlan(t, models.ListCriteria{IDs: []string{ids["Hades"], ids["Braid"]}}))
		require.NoError(t, err)
		assert.Equal(t, []string{"Braid", "Hades"}, titles(owned))

		// empty genre sorts first ascending
		byGenre, err := c.List(ctx, mustPlan(t, models.ListCriteria{
			OrderByList:        []models.OrderBy{models.OrderByGenre},
			OrderDirectionList: []models.OrderDirection{models.OrderAsc},
		}))
		require.NoError(t, err)
		assert.Equal(t, "Braid", byGenre[0].Title)

		none, err := c.List(ctx, mustPlan(t, models.ListCriteria{IDs: []string{}}))
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("list by creation day", func(t *testing.T) {
		c := newCatalog(t)
		g, err := c.Create(ctx, models.GameCreate{Title: "Outer Wilds", Platform: "PC"})
		require.NoError(t, err)

		day := models.DateOf(g.CreatedAt)
		found, err := c.List(ctx, mustPlan(t, models.ListCriteria{CreatedAt: &day}))
		require.NoError(t, err)
		assert.Equal(t, []string{"Outer Wilds"}, titles(found))

		next := models.DateOf(day.End())
		found, err = c.List(ctx, mustPlan(t, models.ListCriteria{From: &next}))
		require.NoError(t, err)
		assert.Empty(t, found)
	})
}
