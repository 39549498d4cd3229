package models

import (
	"time"

	"github.com/google/uuid"
)

// RoleOwner grants a user administrative rights over an organization.
const RoleOwner = "owner"

// User is a platform user. Authentication happens upstream; the API only
// references users when assigning organization roles.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	CreatedAt time.Time `json:"createdAt"`
}

// Role is a named role (e.g. "owner") users can hold in an organization.
type Role struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// UserRole associates a user, an organization, and a role.
// Unique per (user, organization).
type UserRole struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"userId"`
	OrganizationID uuid.UUID `json:"organizationId"`
	RoleID         uuid.UUID `json:"roleId"`
	CreatedAt      time.Time `json:"createdAt"`
}
