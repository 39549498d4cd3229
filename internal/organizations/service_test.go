package organizations

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/richhabits/backend/internal/models"
	"github.com/richhabits/backend/pkg/database"
)

type fakeStore struct {
	mu        sync.Mutex
	orgs      map[uuid.UUID]*models.Organization
	assigns   map[uuid.UUID]*OwnerAssignment
	insertErr error
	updateErr error
	lastList  ListQuery
	listItems []models.Organization
	listTotal int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orgs:    make(map[uuid.UUID]*models.Organization),
		assigns: make(map[uuid.UUID]*OwnerAssignment),
	}
}

func (f *fakeStore) Insert(_ context.Context, org *models.Organization, assign *OwnerAssignment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	org.ID = uuid.New()
	cp := *org
	f.orgs[org.ID] = &cp
	f.assigns[org.ID] = assign
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*models.Organization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	org, ok := f.orgs[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *org
	return &cp, nil
}

func (f *fakeStore) FindByName(_ context.Context, name string) (*models.Organization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, org := range f.orgs {
		if strings.EqualFold(org.Name, name) {
			cp := *org
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakeStore) Update(_ context.Context, id uuid.UUID, fields Fields) (*models.Organization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	org, ok := f.orgs[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	if fields.Name != nil {
		org.Name = *fields.Name
	}
	if fields.State != nil {
		org.State = fields.State
	}
	if fields.Notes != nil {
		org.Notes = fields.Notes
	}
	cp := *org
	return &cp, nil
}

func (f *fakeStore) SetTitleCardURL(_ context.Context, id uuid.UUID, url string) (*models.Organization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	org, ok := f.orgs[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	org.TitleCardURL = &url
	cp := *org
	return &cp, nil
}

func (f *fakeStore) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.orgs[id]; !ok {
		return database.ErrNotFound
	}
	delete(f.orgs, id)
	return nil
}

func (f *fakeStore) List(_ context.Context, q ListQuery) ([]models.Organization, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastList = q
	return f.listItems, f.listTotal, nil
}

type fakeGenerator struct {
	mu    sync.Mutex
	url   string
	err   error
	calls int
}

func (g *fakeGenerator) Generate(_ context.Context, _ *models.Organization) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return g.url, nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *fakeNotifier) Publish(_ uuid.UUID, event string, _ interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

type fakeQueue struct {
	mu       sync.Mutex
	enqueued []uuid.UUID
}

func (q *fakeQueue) EnqueueTitleCard(_ context.Context, orgID uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.enqueued = append(q.enqueued, orgID)
	return nil
}

func newTestService(t *testing.T, store Store, gen TitleCardGenerator, notifier Notifier, queue RetryQueue, actor *uuid.UUID) *Service {
	t.Helper()
	return NewService(store, gen, notifier, queue, nil, actor, zaptest.NewLogger(t))
}

func TestCreateRequiresName(t *testing.T) {
	svc := newTestService(t, newFakeStore(), nil, nil, nil, nil)

	_, err := svc.Create(context.Background(), Payload{}, nil)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")

	_, err = svc.Create(context.Background(), Payload{Name: strPtr("   ")}, nil)
	require.ErrorAs(t, err, &verr)
}

func TestCreateDefaults(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store, nil, nil, nil, nil)

	org, err := svc.Create(context.Background(), Payload{Name: strPtr("Westview High")}, nil)
	require.NoError(t, err)
	assert.False(t, org.IsBusiness)
	assert.JSONEq(t, `{}`, string(org.UniversalDiscounts), "discounts default to an empty object, never null")
	require.NotNil(t, org.Tags)
	assert.Empty(t, org.Tags)
	assert.NotEqual(t, uuid.Nil, org.ID)
}

func TestCreateDuplicateNameCaseInsensitive(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store, nil, nil, nil, nil)

	first, err := svc.Create(context.Background(), Payload{Name: strPtr("Westview High")}, nil)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), Payload{Name: strPtr("WESTVIEW HIGH")}, nil)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, first.ID, conflict.ExistingID)
}

func TestCreateConcurrentDuplicateMapsUniqueViolation(t *testing.T) {
	store := newFakeStore()
	store.insertErr = &database.Error{Kind: database.KindUniqueViolation}
	svc := newTestService(t, store, nil, nil, nil, nil)

	_, err := svc.Create(context.Background(), Payload{Name: strPtr("Westview High")}, nil)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestCreateOwnerAssignment(t *testing.T) {
	store := newFakeStore()
	actor := uuid.New()
	svc := newTestService(t, store, nil, nil, nil, nil)

	org, err := svc.Create(context.Background(), Payload{Name: strPtr("With Actor")}, &actor)
	require.NoError(t, err)
	assign := store.assigns[org.ID]
	require.NotNil(t, assign)
	assert.Equal(t, actor, assign.UserID)
	assert.Equal(t, models.RoleOwner, assign.Role)
}

func TestCreateOwnerAssignmentFallsBackToDefaultActor(t *testing.T) {
	store := newFakeStore()
	fallback := uuid.New()
	svc := newTestService(t, store, nil, nil, nil, &fallback)

	org, err := svc.Create(context.Background(), Payload{Name: strPtr("Default Actor")}, nil)
	require.NoError(t, err)
	assign := store.assigns[org.ID]
	require.NotNil(t, assign)
	assert.Equal(t, fallback, assign.UserID)
}

func TestCreateSucceedsWithoutResolvableActor(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store, nil, nil, nil, nil)

	org, err := svc.Create(context.Background(), Payload{Name: strPtr("No Actor")}, nil)
	require.NoError(t, err)
	assert.Nil(t, store.assigns[org.ID])
}

func TestCreateGeneratesTitleCardWhenBrandComplete(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGenerator{url: "https://cdn.example.com/title-cards/x.png"}
	notifier := &fakeNotifier{}
	svc := newTestService(t, store, gen, notifier, nil, nil)

	org, err := svc.Create(context.Background(), Payload{
		Name:           strPtr("Branded"),
		LogoURL:        strPtr("https://cdn.example.com/logo.png"),
		BrandPrimary:   strPtr("#112233"),
		BrandSecondary: strPtr("#445566"),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, gen.calls)
	require.NotNil(t, org.TitleCardURL)
	assert.Equal(t, gen.url, *org.TitleCardURL)
	assert.Equal(t, []string{EventCreated}, notifier.events)
}

func TestCreateSkipsTitleCardWithoutBrandAssets(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGenerator{url: "https://cdn.example.com/title-cards/x.png"}
	svc := newTestService(t, store, gen, nil, nil, nil)

	org, err := svc.Create(context.Background(), Payload{
		Name:    strPtr("Logo Only"),
		LogoURL: strPtr("https://cdn.example.com/logo.png"),
	}, nil)
	require.NoError(t, err)
	assert.Zero(t, gen.calls)
	assert.Nil(t, org.TitleCardURL)
}

func TestCreateTitleCardFailureIsSwallowedAndDeferred(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGenerator{err: errors.New("render service down")}
	notifier := &fakeNotifier{}
	queue := &fakeQueue{}
	svc := newTestService(t, store, gen, notifier, queue, nil)

	org, err := svc.Create(context.Background(), Payload{
		Name:           strPtr("Flaky Render"),
		LogoURL:        strPtr("https://cdn.example.com/logo.png"),
		BrandPrimary:   strPtr("#112233"),
		BrandSecondary: strPtr("#445566"),
	}, nil)
	require.NoError(t, err, "hook failures never fail a committed create")
	assert.Equal(t, 3, gen.calls, "bounded retries")
	assert.Nil(t, org.TitleCardURL)
	assert.Equal(t, []uuid.UUID{org.ID}, queue.enqueued, "exhausted hook hands off to the worker")
	assert.Equal(t, []string{EventCreated}, notifier.events, "later hooks still run")
}

func TestUpdatePartial(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store, nil, nil, nil, nil)
	org, err := svc.Create(context.Background(), Payload{Name: strPtr("Before"), State: strPtr("GA")}, nil)
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), org.ID, Payload{Notes: strPtr("call back monday")})
	require.NoError(t, err)
	assert.Equal(t, "Before", updated.Name)
	require.NotNil(t, updated.State)
	assert.Equal(t, "GA", *updated.State)
	require.NotNil(t, updated.Notes)
	assert.Equal(t, "call back monday", *updated.Notes)
}

func TestUpdateRejectsBlankName(t *testing.T) {
	svc := newTestService(t, newFakeStore(), nil, nil, nil, nil)

	_, err := svc.Update(context.Background(), uuid.New(), Payload{Name: strPtr("  ")})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestUpdateUniqueViolationWithoutRename(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store, nil, nil, nil, nil)
	org, err := svc.Create(context.Background(), Payload{Name: strPtr("Westview High")}, nil)
	require.NoError(t, err)

	store.updateErr = &database.Error{Kind: database.KindUniqueViolation}
	_, err = svc.Update(context.Background(), org.ID, Payload{Notes: strPtr("VIP")})
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, uuid.Nil, conflict.ExistingID)
}

func TestUpdateNotFound(t *testing.T) {
	svc := newTestService(t, newFakeStore(), nil, nil, nil, nil)

	_, err := svc.Update(context.Background(), uuid.New(), Payload{Notes: strPtr("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteNotFound(t *testing.T) {
	svc := newTestService(t, newFakeStore(), nil, nil, nil, nil)
	assert.ErrorIs(t, svc.Delete(context.Background(), uuid.New()), ErrNotFound)
}

func TestDeletePublishesEvent(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	svc := newTestService(t, store, nil, notifier, nil, nil)
	org, err := svc.Create(context.Background(), Payload{Name: strPtr("Doomed")}, nil)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), org.ID))
	assert.Equal(t, []string{EventCreated, EventDeleted}, notifier.events)
}

func TestListClampsAndPaginates(t *testing.T) {
	store := newFakeStore()
	store.listTotal = 101
	svc := newTestService(t, store, nil, nil, nil, nil)

	res, err := svc.List(context.Background(), ListQuery{Page: 0, PageSize: 500, Sort: "bogus", Order: "sideways"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, MaxPageSize, res.PageSize)
	assert.Equal(t, 2, res.TotalPages)
	assert.Equal(t, "name", store.lastList.Sort)
	assert.Equal(t, "ASC", store.lastList.Order)
}

func TestListNormalizesFilters(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store, nil, nil, nil, nil)

	_, err := svc.List(context.Background(), ListQuery{State: " ga ", Type: "charity", Sort: "createdAt", Order: "desc"})
	require.NoError(t, err)
	assert.Equal(t, "GA", store.lastList.State)
	assert.Empty(t, store.lastList.Type, "unknown type filter ignored")
	assert.Equal(t, "created_at", store.lastList.Sort)
	assert.Equal(t, "DESC", store.lastList.Order)
	assert.Equal(t, DefaultPageSize, store.lastList.PageSize)
}

func TestReplaceTitleCardRequiresBrandAssets(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGenerator{url: "https://cdn.example.com/title-cards/x.png"}
	svc := newTestService(t, store, gen, nil, nil, nil)
	org, err := svc.Create(context.Background(), Payload{Name: strPtr("Plain")}, nil)
	require.NoError(t, err)

	_, err = svc.ReplaceTitleCard(context.Background(), org.ID)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Zero(t, gen.calls)
}

func TestReplaceTitleCardSurfacesGeneratorError(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGenerator{url: "https://cdn.example.com/title-cards/x.png"}
	svc := newTestService(t, store, gen, nil, nil, nil)
	org, err := svc.Create(context.Background(), Payload{
		Name:           strPtr("Rebrand"),
		LogoURL:        strPtr("https://cdn.example.com/logo.png"),
		BrandPrimary:   strPtr("#112233"),
		BrandSecondary: strPtr("#445566"),
	}, nil)
	require.NoError(t, err)

	gen.err = errors.New("render timeout")
	_, err = svc.ReplaceTitleCard(context.Background(), org.ID)
	require.Error(t, err, "explicit regeneration reports failures, unlike the create hook")
}
