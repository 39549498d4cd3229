package models

import (
	"time"

	"github.com/google/uuid"
)

// Order statuses form a closed set.
const (
	OrderStatusPending      = "pending"
	OrderStatusInProduction = "in_production"
	OrderStatusCompleted    = "completed"
	OrderStatusCancelled    = "cancelled"
)

// ValidOrderStatus reports whether s is one of the known order statuses.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusInProduction, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// Order is a clothing order belonging to exactly one organization.
// OrderNumber is unique per organization.
type Order struct {
	ID             uuid.UUID   `json:"id"`
	OrganizationID uuid.UUID   `json:"organizationId"`
	OrderNumber    string      `json:"orderNumber"`
	CustomerName   string      `json:"customerName"`
	Status         string      `json:"status"`
	TotalAmount    float64     `json:"totalAmount"`
	Notes          *string     `json:"notes"`
	Items          []OrderItem `json:"items"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// OrderItem is one line item of an order.
type OrderItem struct {
	ID        uuid.UUID `json:"id"`
	OrderID   uuid.UUID `json:"orderId"`
	ItemName  string    `json:"itemName"`
	Quantity  int       `json:"quantity"`
	UnitPrice float64   `json:"unitPrice"`
}

// ItemsTotal is the sum of quantity × unit price over all line items.
func (o *Order) ItemsTotal() float64 {
	var total float64
	for _, it := range o.Items {
		total += float64(it.Quantity) * it.UnitPrice
	}
	return total
}
