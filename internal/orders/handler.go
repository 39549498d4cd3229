package orders

import (
	"context"
	"errors"
	"strings"

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

// Store is the order persistence surface. *Repository implements it.
type Store interface {
	Create(ctx context.Context, o *models.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]models.Order, error)
	Update(ctx context.Context, id uuid.UUID, orderNumber, customerName, status, notes *string,
		totalAmount *float64, items []models.OrderItem) (*models.Order, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Handler handles order HTTP endpoints scoped to a parent organization.
type Handler struct {
	repo     Store
	orgs     OrgStore
	notifier Notifier // nil disables notifications
}

// NewHandler creates an orders handler.
func NewHandler(repo Store, orgs OrgStore, notifier Notifier) *Handler {
	return &Handler{repo: repo, orgs: orgs, notifier: notifier}
}

// Register mounts the order routes on the given group.
func (h *Handler) Register(api *gin.RouterGroup) {
	api.GET("/organizations/:id/orders", h.ListByOrganization)
	api.POST("/organizations/:id/orders", h.Create)
	api.PATCH("/organizations/:id/orders/:orderId", h.Update)
	api.DELETE("/organizations/:id/orders/:orderId", h.Delete)
}

// ItemInput is one line item in a create/update body.
type ItemInput struct {
	ItemName  string  `json:"itemName" binding:"required"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

// CreateRequest is the body for POST /api/organizations/:id/orders.
type CreateRequest struct {
	OrderNumber  string      `json:"orderNumber" binding:"required"`
	CustomerName string      `json:"customerName" binding:"required"`
	Status       string      `json:"status"`
	TotalAmount  *float64    `json:"totalAmount"`
	Notes        *string     `json:"notes"`
	Items        []ItemInput `json:"items"`
}

// UpdateRequest is the partial body for PATCH.
type UpdateRequest struct {
	OrderNumber  *string     `json:"orderNumber"`
	CustomerName *string     `json:"customerName"`
	Status       *string     `json:"status"`
	TotalAmount  *float64    `json:"totalAmount"`
	Notes        *string     `json:"notes"`
	Items        []ItemInput `json:"items"`
}

func toItems(in []ItemInput) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(in))
	for _, it := range in {
		qty := it.Quantity
		if qty <= 0 {
			qty = 1
		}
		items = append(items, models.OrderItem{ItemName: it.ItemName, Quantity: qty, UnitPrice: it.UnitPrice})
	}
	return items
}

// ListByOrganization handles GET /api/organizations/:id/orders.
func (h *Handler) ListByOrganization(c *gin.Context) {
	orgID, ok := h.parentOrg(c)
	if !ok {
		return
	}
	list, err := h.repo.ListByOrganization(c.Request.Context(), orgID)
	if err != nil {
		response.Internal(c, "failed to list orders")
		return
	}
	response.OK(c, list)
}

// Create handles POST /api/organizations/:id/orders. When totalAmount is not
// supplied it is computed as the sum of line-item quantity × unit price.
func (h *Handler) Create(c *gin.Context) {
	orgID, ok := h.parentOrg(c)
	if !ok {
		return
	}
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "orderNumber and customerName are required")
		return
	}

	status := strings.TrimSpace(req.Status)
	if status == "" {
		status = models.OrderStatusPending
	}
	if !models.ValidOrderStatus(status) {
		response.ValidationFailed(c, map[string]string{"status": "unknown order status"})
		return
	}

	o := &models.Order{
		OrganizationID: orgID,
		OrderNumber:    strings.TrimSpace(req.OrderNumber),
		CustomerName:   strings.TrimSpace(req.CustomerName),
		Status:         status,
		Notes:          req.Notes,
		Items:          toItems(req.Items),
	}
	if req.TotalAmount != nil {
		o.TotalAmount = *req.TotalAmount
	} else {
		o.TotalAmount = o.ItemsTotal()
	}

	if err := h.repo.Create(c.Request.Context(), o); err != nil {
		if database.IsUniqueViolation(err) {
			response.Conflict(c, "an order with this number already exists for this organization")
			return
		}
		response.Internal(c, "failed to create order")
		return
	}
	h.publish(orgID, "order.created", o)
	response.Created(c, o)
}

// Update handles PATCH /api/organizations/:id/orders/:orderId.
func (h *Handler) Update(c *gin.Context) {
	orgID, ok := h.parentOrg(c)
	if !ok {
		return
	}
	orderID, ok := h.childOrder(c, orgID)
	if !ok {
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if req.Status != nil && !models.ValidOrderStatus(*req.Status) {
		response.ValidationFailed(c, map[string]string{"status": "unknown order status"})
		return
	}

	var items []models.OrderItem
	totalAmount := req.TotalAmount
	if req.Items != nil {
		items = toItems(req.Items)
		if totalAmount == nil {
			recomputed := (&models.Order{Items: items}).ItemsTotal()
			totalAmount = &recomputed
		}
	}

	o, err := h.repo.Update(c.Request.Context(), orderID, req.OrderNumber, req.CustomerName,
		req.Status, req.Notes, totalAmount, items)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			response.NotFound(c, "order not found")
			return
		}
		if database.IsUniqueViolation(err) {
			response.Conflict(c, "an order with this number already exists for this organization")
			return
		}
		response.Internal(c, "failed to update order")
		return
	}
	h.publish(orgID, "order.updated", o)
	response.OK(c, o)
}

// Delete handles DELETE /api/organizations/:id/orders/:orderId.
func (h *Handler) Delete(c *gin.Context) {
	orgID, ok := h.parentOrg(c)
	if !ok {
		return
	}
	orderID, ok := h.childOrder(c, orgID)
	if !ok {
		return
	}
	if err := h.repo.Delete(c.Request.Context(), orderID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			response.NotFound(c, "order not found")
			return
		}
		response.Internal(c, "failed to delete order")
		return
	}
	h.publish(orgID, "order.deleted", gin.H{"id": orderID})
	response.NoContent(c)
}

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

// childOrder parses the order id and verifies it belongs to the organization.
func (h *Handler) childOrder(c *gin.Context, orgID uuid.UUID) (uuid.UUID, bool) {
	orderID, err := uuid.Parse(c.Param("orderId"))
	if err != nil {
		response.BadRequest(c, "invalid order id")
		return uuid.Nil, false
	}
	o, err := h.repo.GetByID(c.Request.Context(), orderID)
	if err != nil || o.OrganizationID != orgID {
		if err != nil && !errors.Is(err, database.ErrNotFound) {
			response.Internal(c, "failed to load order")
			return uuid.Nil, false
		}
		response.NotFound(c, "order not found")
		return uuid.Nil, false
	}
	return orderID, true
}

func (h *Handler) publish(orgID uuid.UUID, event string, payload interface{}) {
	if h.notifier != nil {
		h.notifier.Publish(orgID, event, payload)
	}
}
