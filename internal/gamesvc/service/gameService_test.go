package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/avvvet/game-manager/internal/comm"
	"github.com/avvvet/game-manager/internal/gamesvc/apperr"
	"github.com/avvvet/game-manager/internal/gamesvc/models"
)

func strPtr(s string) *string { return &s }

func TestCreateGame_ThenFind(t *testing.T) {
	f := newFixture()
	f.events.On("PublishEvent", mock.Anything, eventOfType(comm.EventGameCreated)).Return(nil).Once()
	ctx := context.Background()

	rd := models.NewDate(2017, 3, 3)
	created, err := f.svc.CreateGame(ctx, models.GameCreate{
		Title: "Breath of the Wild", Platform: "Switch", Genre: "Adventure", ReleaseDate: &rd,
	}, alice)
	require.NoError(t, err)

	found, err := f.svc.FindGame(ctx, created.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, created, found)

	f.events.AssertExpectations(t)
	require.Len(t, f.registry.records, 1)
	rec := f.registry.records[0]
	assert.Equal(t, created.ID, rec.ExternalID)
	assert.Equal(t, models.PermissionOwner, rec.PermissionPolicy)
	assert.Equal(t, "game", rec.Type)
	assert.Equal(t, &models.ArtifactInformation{
		GroupID: "com.tracktainment", ArtifactID: "game-manager", Version: "0.0.1-SNAPSHOT",
	}, rec.ArtifactInformation)
}

func TestCreateGame_MinimalExample(t *testing.T) {
	f := newFixture().quiet()
	ctx := context.Background()

	created, err := f.svc.CreateGame(ctx, models.GameCreate{Title: "X", Platform: "P"}, alice)
	require.NoError(t, err)
	assert.Equal(t, "X", created.Title)
	assert.Equal(t, "P", created.Platform)
	assert.Empty(t, created.Genre)
	assert.Nil(t, created.ReleaseDate)

	games, err := f.svc.ListGames(ctx, models.ListCriteria{}, alice)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, created.ID, games[0].ID)
}

func TestCreateGame_RegistryFailureCompensates(t *testing.T) {
	f := newFixture()
	f.events.On("PublishEvent", mock.Anything, eventOfType(comm.EventGameCreated)).Return(nil).Once()
	ctx := context.Background()

	regErr := apperr.AuthorizationFailed("registry says no")
	f.registry.createErr = regErr

	_, err := f.svc.CreateGame(ctx, models.GameCreate{Title: "Hades", Platform: "PC"}, alice)
	require.Error(t, err)
	assert.Same(t, regErr, err)
	assert.Equal(t, 0, f.catalog.Len())

	// nothing left behind blocks a retry
	f.registry.createErr = nil
	_, err = f.svc.CreateGame(ctx, models.GameCreate{Title: "Hades", Platform: "PC"}, alice)
	require.NoError(t, err)
	assert.Equal(t, 1, f.catalog.Len())
	f.events.AssertExpectations(t)
}

func TestCreateGame_CompensationFailureReportsOrphan(t *testing.T) {
	f := newFixture()
	var orphan comm.CatalogEvent
	f.events.On("PublishEvent", mock.Anything, eventOfType(comm.EventGameOrphaned)).
		Run(func(args mock.Arguments) { orphan = args.Get(1).(comm.CatalogEvent) }).
		Return(nil).Once()
	ctx := context.Background()

	regErr := errors.New("registry down")
	f.registry.createErr = regErr
	f.catalog.deleteErr = errors.New("catalog down")

	_, err := f.svc.CreateGame(ctx, models.GameCreate{Title: "Hades", Platform: "PC"}, alice)
	assert.Same(t, regErr, err)
	assert.Equal(t, 1, f.catalog.Len())

	f.events.AssertExpectations(t)
	assert.Equal(t, alice.ID, orphan.DigitalUserID)
	assert.NotEmpty(t, orphan.GameID)
	var body comm.Orphan
	require.NoError(t, json.Unmarshal(orphan.Data, &body))
	assert.Equal(t, comm.Orphan{Operation: "create", Cause: "registry down", Error: "catalog down"}, body)
}

func TestCreateGame_DuplicateTitleSkipsRegistry(t *testing.T) {
	f := newFixture().quiet()
	ctx := context.Background()

	_, err := f.svc.CreateGame(ctx, models.GameCreate{Title: "Tetris", Platform: "NES"}, alice)
	require.NoError(t, err)

	_, err = f.svc.CreateGame(ctx, models.GameCreate{Title: "Tetris", Platform: "GameBoy"}, bob)
	appErr, ok := apperr.From(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeAlreadyExists, appErr.Code)
	assert.Equal(t, "Game Tetris already exists.", appErr.Message)
	assert.Equal(t, 1, f.registry.createCalls)
}

func TestCreateGame_InvalidInputTouchesNothing(t *testing.T) {
	f := newFixture()

	_, err := f.svc.CreateGame(context.Background(), models.GameCreate{Title: "X", Platform: "P/4"}, alice)
	assert.True(t, apperr.Is(err, apperr.CodeParameterInvalid))
	assert.Equal(t, 0, f.catalog.createCalls)
	assert.Equal(t, 0, f.registry.createCalls)
	f.events.AssertNotCalled(t, "PublishEvent", mock.Anything, mock.Anything)
}

func TestCreateGame_PublishFailureIsIgnored(t *testing.T) {
	f := newFixture()
	f.events.On("PublishEvent", mock.Anything, mock.Anything).Return(errors.New("nats down"))

	_, err := f.svc.CreateGame(context.Background(), models.GameCreate{Title: "X", Platform: "P"}, alice)
	assert.NoError(t, err)
}

func TestFindGame_UnownedIsNotFound(t *testing.T) {
	f := newFixture().quiet()
	ctx := context.Background()

	created, err := f.svc.CreateGame(ctx, models.GameCreate{Title: "Celeste", Platform: "PC"}, alice)
	require.NoError(t, err)

	_, err = f.svc.FindGame(ctx, created.ID, bob)
	appErr, ok := apperr.From(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeNotFound, appErr.Code)
	assert.Equal(t, "Game "+created.ID+" not found.", appErr.Message)

	assert.Equal(t, bob.ID, f.registry.lastQuery.DigitalUserID)
	assert.Equal(t, []string{created.ID}, f.registry.lastQuery.ExternalIDs)
	assert.Equal(t, "com.tracktainment", f.registry.lastQuery.GroupID)
	assert.Equal(t, "game-manager", f.registry.lastQuery.ArtifactID)
}

func TestFindGame_OwnedButMissingIsInternal(t *testing.T) {
	f := newFixture()
	f.registry.grant(alice, "5d3b1f0e-2222-4a1b-9c3d-abcdefabcdef")

	_, err := f.svc.FindGame(context.Background(), "5d3b1f0e-2222-4a1b-9c3d-abcdefabcdef", alice)
	appErr, ok := apperr.From(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeInternal, appErr.Code)
}

func TestFindGame_RegistryErrorPropagates(t *testing.T) {
	f := newFixture()
	f.registry.findErr = apperr.AuthenticationFailed("expired")

	_, err := f.svc.FindGame(context.Background(), "any", alice)
	assert.True(t, apperr.Is(err, apperr.CodeNotAuthenticated))
}

func seedGames(t *testing.T, f *fixture) map[string]string {
	t.Helper()
	ids := map[string]string{}
	for _, in := range []struct {
		game  models.GameCreate
		owner bool
	}{
		{models.GameCreate{Title: "Hades", Platform: "PC", Genre: "Roguelike"}, true},
		{models.GameCreate{Title: "Celeste", Platform: "Switch", Genre: "Platformer"}, true},
		{models.GameCreate{Title: "Dead Cells", Platform: "PC", Genre: "Roguelike"}, true},
		{models.GameCreate{Title: "Braid", Platform: "PC"}, false},
	} {
		user := alice
		if !in.owner {
			user = bob
		}
		g, err := f.svc.CreateGame(context.Background(), in.game, user)
		require.NoError(t, err)
		ids[g.Title] = g.ID
	}
	return ids
}

func titles(games []*models.Game) []string {
	out := make([]string, len(games))
	for i, g := range games {
		out[i] = g.Title
	}
	return out
}

func TestListGames_OnlyOwnedInOrder(t *testing.T) {
	f := newFixture().quiet()
	seedGames(t, f)

	games, err := f.svc.ListGames(context.Background(), models.ListCriteria{
		OrderByList:        []models.OrderBy{models.OrderByTitle},
		OrderDirectionList: []models.OrderDirection{models.OrderAsc},
	}, alice)
	require.NoError(t, err)
	assert.Equal(t, []string{"Celeste", "Dead Cells", "Hades"}, titles(games))
}

func TestListGames_LocalFiltersAndPaging(t *testing.T) {
	f := newFixture().quiet()
	seedGames(t, f)
	limit := 1

	games, err := f.svc.ListGames(context.Background(), models.ListCriteria{
		Genre:              "rogue",
		Limit:              &limit,
		OrderByList:        []models.OrderBy{models.OrderByTitle},
		OrderDirectionList: []models.OrderDirection{models.OrderDesc},
	}, alice)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hades"}, titles(games))
}

func TestListGames_RequestedIDsAreIntersected(t *testing.T) {
	f := newFixture().quiet()
	ids := seedGames(t, f)

	games, err := f.svc.ListGames(context.Background(), models.ListCriteria{
		IDs: []string{ids["Hades"], ids["Braid"]},
	}, alice)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hades"}, titles(games))
	assert.Equal(t, []string{ids["Hades"], ids["Braid"]}, f.registry.lastQuery.ExternalIDs)
}

func TestListGames_NoOwnershipSkipsCatalog(t *testing.T) {
	f := newFixture().quiet()
	seedGames(t, f)
	stranger := alice
	stranger.ID = "99999999-9999-4999-8999-999999999999"

	games, err := f.svc.ListGames(context.Background(), models.ListCriteria{}, stranger)
	require.NoError(t, err)
	assert.NotNil(t, games)
	assert.Empty(t, games)
	assert.Equal(t, 0, f.catalog.listCalls)
}

func TestListGames_MismatchedOrderTouchesNothing(t *testing.T) {
	f := newFixture()

	_, err := f.svc.ListGames(context.Background(), models.ListCriteria{
		OrderByList:        []models.OrderBy{models.OrderByTitle, models.OrderByGenre},
		OrderDirectionList: []models.OrderDirection{models.OrderAsc},
	}, alice)
	assert.True(t, apperr.Is(err, apperr.CodeParameterInvalid))
	assert.Equal(t, 0, f.registry.findCalls)
	assert.Equal(t, 0, f.catalog.listCalls)
}

func TestListGames_CreatedAtOverridesRange(t *testing.T) {
	f := newFixture().quiet()
	seedGames(t, f)
	ctx := context.Background()

	all, err := f.svc.ListGames(ctx, models.ListCriteria{}, alice)
	require.NoError(t, err)
	require.NotEmpty(t, all)
	day := models.DateOf(all[0].CreatedAt)
	from := models.NewDate(2000, 1, 2)
	to := models.NewDate(2000, 1, 1)

	alone, err := f.svc.ListGames(ctx, models.ListCriteria{CreatedAt: &day}, alice)
	require.NoError(t, err)
	assert.Nil(t, f.registry.lastQuery.From)

	combined, err := f.svc.ListGames(ctx, models.ListCriteria{CreatedAt: &day, From: &from, To: &to}, alice)
	require.NoError(t, err)
	assert.Equal(t, titles(alone), titles(combined))
	assert.Nil(t, f.registry.lastQuery.From)
	assert.Nil(t, f.registry.lastQuery.To)
	assert.Equal(t, &day, f.registry.lastQuery.CreatedAt)
}

func TestListGames_RangeIsValidated(t *testing.T) {
	f := newFixture()
	from := models.NewDate(2024, 2, 1)
	to := models.NewDate(2024, 1, 1)

	_, err := f.svc.ListGames(context.Background(), models.ListCriteria{From: &from, To: &to}, alice)
	assert.True(t, apperr.Is(err, apperr.CodeParameterInvalid))
	assert.Equal(t, 0, f.registry.findCalls)
}

func TestUpdateGame(t *testing.T) {
	f := newFixture()
	f.events.On("PublishEvent", mock.Anything, eventOfType(comm.EventGameCreated)).Return(nil)
	f.events.On("PublishEvent", mock.Anything, eventOfType(comm.EventGameUpdated)).Return(nil).Once()
	ctx := context.Background()

	created, err := f.svc.CreateGame(ctx, models.GameCreate{Title: "Doom", Platform: "PC", Genre: "Shooter"}, alice)
	require.NoError(t, err)

	updated, err := f.svc.UpdateGame(ctx, created.ID, models.GameUpdate{Platform: strPtr("Switch")}, alice)
	require.NoError(t, err)
	assert.Equal(t, "Doom", updated.Title)
	assert.Equal(t, "Switch", updated.Platform)
	assert.Equal(t, "Shooter", updated.Genre)
	assert.Equal(t, 1, f.registry.createCalls)
	assert.Equal(t, 0, f.registry.deleteCalls)
	f.events.AssertExpectations(t)
}

func TestUpdateGame_RequiresOwnership(t *testing.T) {
	f := newFixture().quiet()
	ctx := context.Background()

	created, err := f.svc.CreateGame(ctx, models.GameCreate{Title: "Doom", Platform: "PC"}, alice)
	require.NoError(t, err)

	_, err = f.svc.UpdateGame(ctx, created.ID, models.GameUpdate{Platform: strPtr("Switch")}, bob)
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))

	got, err := f.svc.FindGame(ctx, created.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, "PC", got.Platform)
}

func TestUpdateGame_TitleConflict(t *testing.T) {
	f := newFixture().quiet()
	ctx := context.Background()

	_, err := f.svc.CreateGame(ctx, models.GameCreate{Title: "Quake", Platform: "PC"}, bob)
	require.NoError(t, err)
	doom, err := f.svc.CreateGame(ctx, models.GameCreate{Title: "Doom", Platform: "PC"}, alice)
	require.NoError(t, err)

	_, err = f.svc.UpdateGame(ctx, doom.ID, models.GameUpdate{Title: strPtr("Quake")}, alice)
	assert.True(t, apperr.Is(err, apperr.CodeAlreadyExists))
}

func TestUpdateGame_EmptyPatchReturnsCurrent(t *testing.T) {
	f := newFixture().quiet()
	ctx := context.Background()

	created, err := f.svc.CreateGame(ctx, models.GameCreate{Title: "Doom", Platform: "PC"}, alice)
	require.NoError(t, err)

	got, err := f.svc.UpdateGame(ctx, created.ID, models.GameUpdate{}, alice)
	require.NoError(t, err)
	assert.Equal(t, created, got)
	f.events.AssertNumberOfCalls(t, "PublishEvent", 1)
}

func TestDeleteGame(t *testing.T) {
	f := newFixture()
	f.events.On("PublishEvent", mock.Anything, eventOfType(comm.EventGameCreated)).Return(nil)
	f.events.On("PublishEvent", mock.Anything, eventOfType(comm.EventGameDeleted)).Return(nil).Once()
	ctx := context.Background()

	created, err := f.svc.CreateGame(ctx, models.GameCreate{Title: "Fez", Platform: "PC"}, alice)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteGame(ctx, created.ID, alice))
	assert.Equal(t, 0, f.catalog.Len())
	assert.Empty(t, f.registry.records)

	_, err = f.svc.FindGame(ctx, created.ID, alice)
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
	f.events.AssertExpectations(t)
}

func TestDeleteGame_NotOwnerLeavesGame(t *testing.T) {
	f := newFixture().quiet()
	ctx := context.Background()

	created, err := f.svc.CreateGame(ctx, models.GameCreate{Title: "Fez", Platform: "PC"}, alice)
	require.NoError(t, err)

	// the fake registry's delete succeeds even when nothing matched
	err = f.svc.DeleteGame(ctx, created.ID, bob)
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
	assert.Equal(t, 0, f.registry.deleteCalls)
	assert.Equal(t, 1, f.catalog.Len())

	got, err := f.svc.FindGame(ctx, created.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestDeleteGame_OwnershipLookupFailure(t *testing.T) {
	f := newFixture().quiet()
	ctx := context.Background()

	created, err := f.svc.CreateGame(ctx, models.GameCreate{Title: "Fez", Platform: "PC"}, alice)
	require.NoError(t, err)

	f.registry.findErr = apperr.Internal("registry down", nil)
	err = f.svc.DeleteGame(ctx, created.ID, alice)
	assert.True(t, apperr.Is(err, apperr.CodeInternal))
	assert.Equal(t, 0, f.registry.deleteCalls)
	assert.Equal(t, 1, f.catalog.Len())
}

func TestDeleteGame_RegistryFailureKeepsRow(t *testing.T) {
	f := newFixture().quiet()
	ctx := context.Background()

	created, err := f.svc.CreateGame(ctx, models.GameCreate{Title: "Fez", Platform: "PC"}, alice)
	require.NoError(t, err)

	f.registry.deleteErr = apperr.Internal("registry down", nil)
	err = f.svc.DeleteGame(ctx, created.ID, alice)
	assert.True(t, apperr.Is(err, apperr.CodeInternal))

	f.registry.deleteErr = nil
	got, err := f.svc.FindGame(ctx, created.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestDeleteGame_CatalogFailureReportsOrphan(t *testing.T) {
	f := newFixture()
	f.events.On("PublishEvent", mock.Anything, eventOfType(comm.EventGameCreated)).Return(nil)
	f.events.On("PublishEvent", mock.Anything, eventOfType(comm.EventGameOrphaned)).Return(nil).Once()
	ctx := context.Background()

	created, err := f.svc.CreateGame(ctx, models.GameCreate{Title: "Fez", Platform: "PC"}, alice)
	require.NoError(t, err)

	catalogErr := errors.New("catalog down")
	f.catalog.deleteErr = catalogErr
	err = f.svc.DeleteGame(ctx, created.ID, alice)
	assert.Same(t, catalogErr, err)

	// the ownership record stays deleted
	assert.Empty(t, f.registry.records)
	assert.Equal(t, 1, f.registry.createCalls)
	f.events.AssertExpectations(t)
}
