package service

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/avvvet/game-manager/internal/comm"
	"github.com/avvvet/game-manager/internal/gamesvc/identity"
	"github.com/avvvet/game-manager/internal/gamesvc/models"
	"github.com/avvvet/game-manager/internal/gamesvc/query"
	"github.com/avvvet/game-manager/internal/gamesvc/store"
)

var (
	alice = identity.DigitalUser{ID: "3f1d2c4b-7a8e-4b1c-9d2e-5f6a7b8c9d0e", Credential: "alice-token"}
	bob   = identity.DigitalUser{ID: "0b7d2a55-1111-4c2e-8f00-123456789abc", Credential: "bob-token"}

	testClass = Classification{
		GroupID:    "com.tracktainment",
		ArtifactID: "game-manager",
		Version:    "0.0.1-SNAPSHOT",
		Type:       "game",
	}
)

// fakeRegistry keeps asset records in memory. The *Err fields make the
// matching call fail.
type fakeRegistry struct {
	mu      sync.Mutex
	records []models.AssetRecord
	owners  map[string]string

	createErr error
	findErr   error
	deleteErr error

	createCalls int
	findCalls   int
	deleteCalls int
	lastQuery   models.OwnershipQuery
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{owners: map[string]string{}}
}

func (r *fakeRegistry) CreateAsset(_ context.Context, user identity.DigitalUser, req models.AssetRequest) (*models.AssetRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++
	if r.createErr != nil {
		return nil, r.createErr
	}
	rec := models.AssetRecord{
		ID:                  "asset-" + req.ExternalID,
		ExternalID:          req.ExternalID,
		Type:                req.Type,
		PermissionPolicy:    req.PermissionPolicy,
		ArtifactInformation: req.ArtifactInformation,
	}
	r.records = append(r.records, rec)
	r.owners[req.ExternalID] = user.ID
	return &rec, nil
}

func (r *fakeRegistry) FindAssets(_ context.Context, user identity.DigitalUser, q models.OwnershipQuery) ([]models.AssetRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findCalls++
	r.lastQuery = q
	if r.findErr != nil {
		return nil, r.findErr
	}

	var wanted map[string]bool
	if q.ExternalIDs != nil {
		wanted = map[string]bool{}
		for _, id := range q.ExternalIDs {
			wanted[id] = true
		}
	}
	out := []models.AssetRecord{}
	for _, rec := range r.records {
		if r.owners[rec.ExternalID] != q.DigitalUserID || rec.Type != q.Type {
			continue
		}
		if wanted != nil && !wanted[rec.ExternalID] {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *fakeRegistry) DeleteAsset(_ context.Context, user identity.DigitalUser, externalID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleteCalls++
	if r.deleteErr != nil {
		return r.deleteErr
	}
	for i, rec := range r.records {
		if rec.ExternalID == externalID && r.owners[externalID] == user.ID {
			r.records = append(r.records[:i], r.records[i+1:]...)
			delete(r.owners, externalID)
			return nil
		}
	}
	return nil
}

// grant records an asset for a game that was stored without the service.
func (r *fakeRegistry) grant(user identity.DigitalUser, gameID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, models.AssetRecord{ExternalID: gameID, Type: testClass.Type})
	r.owners[gameID] = user.ID
}

type spyCatalog struct {
	*store.MemoryGameStore
	createCalls int
	listCalls   int
	deleteErr   error
}

func newSpyCatalog() *spyCatalog {
	return &spyCatalog{MemoryGameStore: store.NewMemoryGameStore()}
}

func (c *spyCatalog) Create(ctx context.Context, in models.GameCreate) (*models.Game, error) {
	c.createCalls++
	return c.MemoryGameStore.Create(ctx, in)
}

func (c *spyCatalog) List(ctx context.Context, plan query.Plan) ([]*models.Game, error) {
	c.listCalls++
	return c.MemoryGameStore.List(ctx, plan)
}

func (c *spyCatalog) Delete(ctx context.Context, id string) error {
	if c.deleteErr != nil {
		return c.deleteErr
	}
	return c.MemoryGameStore.Delete(ctx, id)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishEvent(ctx context.Context, event comm.CatalogEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func eventOfType(eventType string) any {
	return mock.MatchedBy(func(e comm.CatalogEvent) bool { return e.Type == eventType })
}

type fixture struct {
	svc      *GameService
	catalog  *spyCatalog
	registry *fakeRegistry
	events   *mockPublisher
}

func newFixture() *fixture {
	f := &fixture{
		catalog:  newSpyCatalog(),
		registry: newFakeRegistry(),
		events:   &mockPublisher{},
	}
	f.svc = NewGameService(f.catalog, f.registry, f.events, testClass)
	return f
}

// quiet accepts any event.
func (f *fixture) quiet() *fixture {
	f.events.On("PublishEvent", mock.Anything, mock.Anything).Return(nil).Maybe()
	return f
}
