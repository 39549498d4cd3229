package sports

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/richhabits/backend/internal/models"
	"github.com/richhabits/backend/pkg/database"
	"github.com/richhabits/backend/pkg/response"
)

// OrgStore resolves parent organizations so sub-resource routes can 404 on a
// missing parent.
type OrgStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
}

// Notifier publishes entity-change events.
type Notifier interface {
	Publish(orgID uuid.UUID, event string, payload interface{})
}

// Store is the sport persistence surface. *Repository implements it.
type Store interface {
	Create(ctx context.Context, s *models.Sport) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Sport, error)
	ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]models.Sport, error)
	Update(ctx context.Context, id uuid.UUID, name, salesperson, contactName, contactEmail, contactPhone *string) (*models.Sport, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Handler handles sport HTTP endpoints scoped to a parent organization.
type Handler struct {
	repo     Store
	orgs     OrgStore
	notifier Notifier // nil disables notifications
}

// NewHandler creates a sports handler.
func NewHandler(repo Store, orgs OrgStore, notifier Notifier) *Handler {
	return &Handler{repo: repo, orgs: orgs, notifier: notifier}
}

// Register mounts the sport routes on the given group.
func (h *Handler) Register(api *gin.RouterGroup) {
	api.GET("/organizations/:id/sports", h.ListByOrganization)
	api.POST("/organizations/:id/sports", h.Create)
	api.PATCH("/organizations/:id/sports/:sportId", h.Update)
	api.DELETE("/organizations/:id/sports/:sportId", h.Delete)
}

// CreateRequest is the body for POST /api/organizations/:id/sports.
type CreateRequest struct {
	Name         string  `json:"name" binding:"required"`
	Salesperson  *string `json:"salesperson"`
	ContactName  *string `json:"contactName"`
	ContactEmail *string `json:"contactEmail"`
	ContactPhone *string `json:"contactPhone"`
}

// UpdateRequest is the partial body for PATCH.
type UpdateRequest struct {
	Name         *string `json:"name"`
	Salesperson  *string `json:"salesperson"`
	ContactName  *string `json:"contactName"`
	ContactEmail *string `json:"contactEmail"`
	ContactPhone *string `json:"contactPhone"`
}

// ListByOrganization handles GET /api/organizations/:id/sports.
func (h *Handler) ListByOrganization(c *gin.Context) {
	orgID, ok := h.parentOrg(c)
	if !ok {
		return
	}
	list, err := h.repo.ListByOrganization(c.Request.Context(), orgID)
	if err != nil {
		response.Internal(c, "failed to list sports")
		return
	}
	response.OK(c, list)
}

// Create handles POST /api/organizations/:id/sports.
func (h *Handler) Create(c *gin.Context) {
	orgID, ok := h.parentOrg(c)
	if !ok {
		return
	}
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "name is required")
		return
	}
	s := &models.Sport{
		OrganizationID: orgID,
		Name:           req.Name,
		Salesperson:    req.Salesperson,
		ContactName:    req.ContactName,
		ContactEmail:   req.ContactEmail,
		ContactPhone:   req.ContactPhone,
	}
	if err := h.repo.Create(c.Request.Context(), s); err != nil {
		response.Internal(c, "failed to create sport")
		return
	}
	h.publish(orgID, "sport.created", s)
	response.Created(c, s)
}

// Update handles PATCH /api/organizations/:id/sports/:sportId.
func (h *Handler) Update(c *gin.Context) {
	orgID, ok := h.parentOrg(c)
	if !ok {
		return
	}
	sportID, ok := h.childSport(c, orgID)
	if !ok {
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	s, err := h.repo.Update(c.Request.Context(), sportID, req.Name, req.Salesperson,
		req.ContactName, req.ContactEmail, req.ContactPhone)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			response.NotFound(c, "sport not found")
			return
		}
		response.Internal(c, "failed to update sport")
		return
	}
	h.publish(orgID, "sport.updated", s)
	response.OK(c, s)
}

// Delete handles DELETE /api/organizations/:id/sports/:sportId.
func (h *Handler) Delete(c *gin.Context) {
	orgID, ok := h.parentOrg(c)
	if !ok {
		return
	}
	sportID, ok := h.childSport(c, orgID)
	if !ok {
		return
	}
	if err := h.repo.Delete(c.Request.Context(), sportID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			response.NotFound(c, "sport not found")
			return
		}
		response.Internal(c, "failed to delete sport")
		return
	}
	h.publish(orgID, "sport.deleted", gin.H{"id": sportID})
	response.NoContent(c)
}

// parentOrg parses the organization id and verifies the organization exists.
func (h *Handler) parentOrg(c *gin.Context) (uuid.UUID, bool) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return uuid.Nil, false
	}
	if _, err := h.orgs.GetByID(c.Request.Context(), orgID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			response.NotFound(c, "organization not found")
			return uuid.Nil, false
		}
		response.Internal(c, "failed to load organization")
		return uuid.Nil, false
	}
	return orgID, true
}

// childSport parses the sport id and verifies it belongs to the organization.
func (h *Handler) childSport(c *gin.Context, orgID uuid.UUID) (uuid.UUID, bool) {
	sportID, err := uuid.Parse(c.Param("sportId"))
	if err != nil {
		response.BadRequest(c, "invalid sport id")
		return uuid.Nil, false
	}
	s, err := h.repo.GetByID(c.Request.Context(), sportID)
	if err != nil || s.OrganizationID != orgID {
		if err != nil && !errors.Is(err, database.ErrNotFound) {
			response.Internal(c, "failed to load sport")
			return uuid.Nil, false
		}
		response.NotFound(c, "sport not found")
		return uuid.Nil, false
	}
	return sportID, true
}

func (h *Handler) publish(orgID uuid.UUID, event string, payload interface{}) {
	if h.notifier != nil {
		h.notifier.Publish(orgID, event, payload)
	}
}

