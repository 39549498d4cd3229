package organizations

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/richhabits/backend/internal/models"
	"github.com/richhabits/backend/pkg/database"
	"github.com/richhabits/backend/pkg/telemetry"
)

// Organization type filter values.
const (
	TypeBusiness = "business"
	TypeSchool   = "school"
)

// List pagination bounds.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// OwnerAssignment describes the best-effort owner-role insert performed
// inside the create transaction. Err records why the assignment was skipped
// or failed; it never fails the create.
type OwnerAssignment struct {
	UserID uuid.UUID
	Role   string
	Err    error
}

// ListQuery is the organization list filter. All filters are AND-ed.
type ListQuery struct {
	Search   string
	State    string
	Type     string
	Sort     string
	Order    string
	Page     int
	PageSize int
}

// ListResult is one page of organizations.
type ListResult struct {
	Items      []models.Organization `json:"items"`
	Total      int                   `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"pageSize"`
	TotalPages int                   `json:"totalPages"`
}

// Store is the persistence surface the service depends on.
type Store interface {
	Insert(ctx context.Context, org *models.Organization, assign *OwnerAssignment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	FindByName(ctx context.Context, name string) (*models.Organization, error)
	Update(ctx context.Context, id uuid.UUID, f Fields) (*models.Organization, error)
	SetTitleCardURL(ctx context.Context, id uuid.UUID, url string) (*models.Organization, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, q ListQuery) ([]models.Organization, int, error)
}

// TitleCardGenerator produces a brand tile from an organization's logo and
// colors and returns the public URL of the uploaded asset.
type TitleCardGenerator interface {
	Generate(ctx context.Context, org *models.Organization) (string, error)
}

// Notifier publishes entity-change events (WebSocket fan-out).
type Notifier interface {
	Publish(orgID uuid.UUID, event string, payload interface{})
}

// RetryQueue schedules a deferred title-card generation when the in-request
// attempts are exhausted.
type RetryQueue interface {
	EnqueueTitleCard(ctx context.Context, orgID uuid.UUID) error
}

// Service implements the organization lifecycle: validation/normalization,
// duplicate checking, persistence, and at-most-once side effects.
type Service struct {
	store        Store
	titleCards   TitleCardGenerator // nil disables generation
	notifier     Notifier           // nil disables notifications
	retryQueue   RetryQueue         // nil disables deferred retries
	hooks        *HookRunner
	metrics      *telemetry.Metrics // nil disables metrics
	defaultActor *uuid.UUID
	logger       *zap.Logger
}

// NewService creates the organization service. Collaborators may be nil;
// the corresponding side effect is then skipped.
func NewService(store Store, titleCards TitleCardGenerator, notifier Notifier, retryQueue RetryQueue,
	metrics *telemetry.Metrics, defaultActor *uuid.UUID, logger *zap.Logger) *Service {
	onceFailed := func(string) {}
	if metrics != nil {
		onceFailed = metrics.HookFailure
	}
	return &Service{
		store:        store,
		titleCards:   titleCards,
		notifier:     notifier,
		retryQueue:   retryQueue,
		hooks:        NewHookRunner(logger, 3, onceFailed),
		metrics:      metrics,
		defaultActor: defaultActor,
		logger:       logger,
	}
}

// Create validates and persists a new organization. The owner-role assignment
// happens inside the insert transaction (best-effort); title-card generation
// and the change notification run as post-commit hooks.
func (s *Service) Create(ctx context.Context, p Payload, actorID *uuid.UUID) (*models.Organization, error) {
	f := Normalize(p)
	s.logDropped("create", f.Dropped)

	if f.Name == nil {
		return nil, &ValidationError{Fields: map[string]string{"name": "name is required"}}
	}

	if existing, err := s.store.FindByName(ctx, *f.Name); err == nil {
		return nil, &ConflictError{ExistingID: existing.ID}
	} else if !errors.Is(err, database.ErrNotFound) {
		s.countMutation("create", "error")
		return nil, err
	}

	org := &models.Organization{
		Name:               *f.Name,
		State:              f.State,
		Address:            f.Address,
		Phone:              f.Phone,
		Email:              f.Email,
		Notes:              f.Notes,
		LogoURL:            f.LogoURL,
		BrandPrimary:       f.BrandPrimary,
		BrandSecondary:     f.BrandSecondary,
		UniversalDiscounts: f.UniversalDiscounts,
	}
	if f.IsBusiness != nil {
		org.IsBusiness = *f.IsBusiness
	}
	if org.UniversalDiscounts == nil {
		org.UniversalDiscounts = DefaultDiscounts
	}
	if f.Tags != nil {
		org.Tags = f.Tags
	} else {
		org.Tags = []string{}
	}

	assign := s.ownerAssignment(actorID)
	if err := s.store.Insert(ctx, org, assign); err != nil {
		// A concurrent create can slip past the pre-check; the unique index on
		// LOWER(name) turns that into a conflict here.
		if database.IsUniqueViolation(err) {
			if existing, ferr := s.store.FindByName(ctx, org.Name); ferr == nil {
				return nil, &ConflictError{ExistingID: existing.ID}
			}
			return nil, &ConflictError{}
		}
		s.countMutation("create", "error")
		return nil, err
	}
	if assign != nil && assign.Err != nil {
		s.logger.Warn("owner-role assignment skipped",
			zap.String("organization_id", org.ID.String()),
			zap.Error(assign.Err))
	} else if assign == nil {
		s.logger.Warn("owner-role assignment skipped: no acting user resolvable",
			zap.String("organization_id", org.ID.String()))
	}

	s.hooks.RunAll(ctx, s.postCommitHooks(org, EventCreated))
	s.countMutation("create", "ok")
	return org, nil
}

// Get returns the organization or ErrNotFound.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	org, err := s.store.GetByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNotFound
	}
	return org, err
}

// Update applies a partial payload: only keys present change, with the same
// normalization rules as create.
func (s *Service) Update(ctx context.Context, id uuid.UUID, p Payload) (*models.Organization, error) {
	f := Normalize(p)
	s.logDropped("update", f.Dropped)

	if p.Name != nil && f.Name == nil {
		return nil, &ValidationError{Fields: map[string]string{"name": "name must not be empty"}}
	}

	org, err := s.store.Update(ctx, id, f)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrNotFound
		}
		// Rename collided with another organization's name.
		if database.IsUniqueViolation(err) {
			if f.Name != nil {
				if existing, ferr := s.store.FindByName(ctx, *f.Name); ferr == nil {
					return nil, &ConflictError{ExistingID: existing.ID}
				}
			}
			return nil, &ConflictError{}
		}
		s.countMutation("update", "error")
		return nil, err
	}

	s.hooks.RunAll(ctx, []Hook{s.notifyHook(org, EventUpdated)})
	s.countMutation("update", "ok")
	return org, nil
}

// Delete removes the organization; sports and orders cascade at the database.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrNotFound
		}
		s.countMutation("delete", "error")
		return err
	}
	s.hooks.RunAll(ctx, []Hook{s.notifyHook(&models.Organization{ID: id}, EventDeleted)})
	s.countMutation("delete", "ok")
	return nil
}

// List returns a page of organizations. Page and page size are clamped;
// unknown sort columns fall back to name ascending.
func (s *Service) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	switch q.Sort {
	case "name", "created_at":
	case "createdAt":
		q.Sort = "created_at"
	default:
		q.Sort = "name"
	}
	switch strings.ToLower(q.Order) {
	case "asc", "desc":
		q.Order = strings.ToUpper(q.Order)
	default:
		q.Order = "ASC"
	}
	if q.State != "" {
		q.State = strings.ToUpper(strings.TrimSpace(q.State))
	}
	if q.Type != TypeBusiness && q.Type != TypeSchool {
		q.Type = ""
	}

	items, total, err := s.store.List(ctx, q)
	if err != nil {
		return nil, err
	}
	totalPages := (total + q.PageSize - 1) / q.PageSize
	return &ListResult{
		Items:      items,
		Total:      total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: totalPages,
	}, nil
}

// ReplaceTitleCard regenerates the brand asset synchronously. Unlike the
// create-time hook, failures here surface to the caller.
func (s *Service) ReplaceTitleCard(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	org, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !org.HasBrandAssets() {
		return nil, &ValidationError{Fields: map[string]string{
			"logoUrl": "logo and both brand colors are required to generate a title card",
		}}
	}
	if s.titleCards == nil {
		return nil, errors.New("title-card generation is not configured")
	}

	url, err := s.titleCards.Generate(ctx, org)
	if err != nil {
		s.renderOutcome("error")
		return nil, err
	}
	s.renderOutcome("ok")

	updated, err := s.store.SetTitleCardURL(ctx, id, url)
	if err != nil {
		return nil, err
	}
	s.hooks.RunAll(ctx, []Hook{s.notifyHook(updated, EventUpdated)})
	return updated, nil
}

func (s *Service) ownerAssignment(actorID *uuid.UUID) *OwnerAssignment {
	if actorID == nil {
		actorID = s.defaultActor
	}
	if actorID == nil {
		return nil
	}
	return &OwnerAssignment{UserID: *actorID, Role: models.RoleOwner}
}

// postCommitHooks builds the side-effect list for a freshly created
// organization: title-card generation (when eligible) then the change
// notification.
func (s *Service) postCommitHooks(org *models.Organization, event string) []Hook {
	hooks := make([]Hook, 0, 2)
	if s.titleCards != nil && org.HasBrandAssets() && org.TitleCardURL == nil {
		hooks = append(hooks, Hook{
			Name: "title_card",
			Run: func(ctx context.Context) error {
				url, err := s.titleCards.Generate(ctx, org)
				if err != nil {
					s.renderOutcome("error")
					return err
				}
				s.renderOutcome("ok")
				updated, err := s.store.SetTitleCardURL(ctx, org.ID, url)
				if err != nil {
					return err
				}
				*org = *updated
				return nil
			},
			OnExhausted: func(ctx context.Context) {
				s.deferTitleCard(ctx, org.ID)
			},
		})
	}
	hooks = append(hooks, s.notifyHook(org, event))
	return hooks
}

func (s *Service) notifyHook(org *models.Organization, event string) Hook {
	return Hook{
		Name: "notify",
		Run: func(ctx context.Context) error {
			if s.notifier != nil {
				s.notifier.Publish(org.ID, event, org)
			}
			return nil
		},
	}
}

// deferTitleCard hands the organization to the background worker after a
// failed in-request generation attempt. Best-effort.
func (s *Service) deferTitleCard(ctx context.Context, orgID uuid.UUID) {
	if s.retryQueue == nil {
		return
	}
	if err := s.retryQueue.EnqueueTitleCard(ctx, orgID); err != nil {
		s.logger.Warn("enqueue title-card retry failed",
			zap.String("organization_id", orgID.String()),
			zap.Error(err))
	}
}

func (s *Service) logDropped(op string, dropped []string) {
	if len(dropped) > 0 {
		s.logger.Debug("dropped malformed fields",
			zap.String("op", op),
			zap.Strings("fields", dropped))
	}
}

func (s *Service) countMutation(op, outcome string) {
	if s.metrics != nil {
		s.metrics.OrgMutation(op, outcome)
	}
}

func (s *Service) renderOutcome(outcome string) {
	if s.metrics != nil {
		s.metrics.TitleCardRender(outcome)
	}
}

// WebSocket event names for organization changes.
const (
	EventCreated = "organization.created"
	EventUpdated = "organization.updated"
	EventDeleted = "organization.deleted"
)
