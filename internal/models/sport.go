package models

import (
	"time"

	"github.com/google/uuid"
)

// Sport is a named program belonging to exactly one organization.
type Sport struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organizationId"`
	Name           string    `json:"name"`
	Salesperson    *string   `json:"salesperson"`
	ContactName    *string   `json:"contactName"`
	ContactEmail   *string   `json:"contactEmail"`
	ContactPhone   *string   `json:"contactPhone"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
