package organizations

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/richhabits/backend/internal/middleware"
	"github.com/richhabits/backend/pkg/database"
	"github.com/richhabits/backend/pkg/response"
)

// Handler exposes the organization service over HTTP. Route handlers are thin
// adapters; all business rules live in Service.
type Handler struct {
	svc *Service
}

// NewHandler creates an organizations handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the organization routes on the given group.
func (h *Handler) Register(api *gin.RouterGroup) {
	api.GET("/organizations", h.List)
	api.POST("/organizations", h.Create)
	api.GET("/organizations/:id", h.Get)
	api.PATCH("/organizations/:id", h.Update)
	api.DELETE("/organizations/:id", h.Delete)
	api.POST("/organizations/:id/replace-title-card", h.ReplaceTitleCard)
}

// Create handles POST /api/organizations.
func (h *Handler) Create(c *gin.Context) {
	var body Payload
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	org, err := h.svc.Create(c.Request.Context(), body, middleware.ActorID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, org)
}

// Get handles GET /api/organizations/:id.
func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	org, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, org)
}

// List handles GET /api/organizations.
func (h *Handler) List(c *gin.Context) {
	q := ListQuery{
		Search: c.Query("q"),
		State:  c.Query("state"),
		Type:   c.Query("type"),
		Sort:   c.Query("sort"),
		Order:  c.Query("order"),
	}
	q.Page, _ = strconv.Atoi(c.Query("page"))
	q.PageSize, _ = strconv.Atoi(c.Query("pageSize"))

	result, err := h.svc.List(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, result)
}

// Update handles PATCH /api/organizations/:id.
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var body Payload
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	org, err := h.svc.Update(c.Request.Context(), id, body)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, org)
}

// Delete handles DELETE /api/organizations/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	response.NoContent(c)
}

// ReplaceTitleCard handles POST /api/organizations/:id/replace-title-card.
func (h *Handler) ReplaceTitleCard(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	org, err := h.svc.ReplaceTitleCard(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, org)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return uuid.Nil, false
	}
	return id, true
}

// writeError maps service errors onto the response envelope.
func writeError(c *gin.Context, err error) {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		response.ValidationFailed(c, vErr.Fields)
		return
	}
	var cErr *ConflictError
	if errors.As(err, &cErr) {
		existing := ""
		if cErr.ExistingID != uuid.Nil {
			existing = cErr.ExistingID.String()
		}
		response.ConflictExisting(c, "an organization with this name already exists", existing)
		return
	}
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, "organization not found")
		return
	}
	var dbErr *database.Error
	if errors.As(err, &dbErr) {
		response.Internal(c, dbErr.ClientMessage())
		return
	}
	response.Internal(c, "internal error")
}
