package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestItemsTotal(t *testing.T) {
	o := Order{Items: []OrderItem{
		{Quantity: 10, UnitPrice: 24.50},
		{Quantity: 2, UnitPrice: 80.00},
	}}
	assert.InDelta(t, 405.0, o.ItemsTotal(), 0.001)

	assert.Zero(t, (&Order{}).ItemsTotal())
}

func TestValidOrderStatus(t *testing.T) {
	for _, s := range []string{OrderStatusPending, OrderStatusInProduction, OrderStatusCompleted, OrderStatusCancelled} {
		assert.True(t, ValidOrderStatus(s), s)
	}
	assert.False(t, ValidOrderStatus("shipped"))
	assert.False(t, ValidOrderStatus(""))
}

func TestHasBrandAssets(t *testing.T) {
	logo := "https://cdn.example.com/logo.png"
	p, s := "#112233", "#445566"

	assert.True(t, (&Organization{LogoURL: &logo, BrandPrimary: &p, BrandSecondary: &s}).HasBrandAssets())
	assert.False(t, (&Organization{LogoURL: &logo, BrandPrimary: &p}).HasBrandAssets())
	assert.False(t, (&Organization{BrandPrimary: &p, BrandSecondary: &s}).HasBrandAssets())
	assert.False(t, (&Organization{}).HasBrandAssets())
}
