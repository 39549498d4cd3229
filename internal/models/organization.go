package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Organization represents a customer/business entity.
type Organization struct {
	ID                 uuid.UUID       `json:"id"`
	Name               string          `json:"name"`
	State              *string         `json:"state"`
	Address            *string         `json:"address"`
	Phone              *string         `json:"phone"`
	Email              *string         `json:"email"`
	Notes              *string         `json:"notes"`
	LogoURL            *string         `json:"logoUrl"`
	TitleCardURL       *string         `json:"titleCardUrl"`
	BrandPrimary       *string         `json:"brandPrimary"`
	BrandSecondary     *string         `json:"brandSecondary"`
	IsBusiness         bool            `json:"isBusiness"`
	UniversalDiscounts json.RawMessage `json:"universalDiscounts"`
	Tags               []string        `json:"tags"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// HasBrandAssets reports whether the organization carries everything the
// title-card generator needs: a logo and both brand colors.
func (o *Organization) HasBrandAssets() bool {
	return o.LogoURL != nil && o.BrandPrimary != nil && o.BrandSecondary != nil
}
