package organizations

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestNormalizeTrimsAndDropsEmpty(t *testing.T) {
	f := Normalize(Payload{
		Name:    strPtr("  Westview High  "),
		Address: strPtr("   "),
		Phone:   strPtr("555-0100"),
	})

	require.NotNil(t, f.Name)
	assert.Equal(t, "Westview High", *f.Name)
	assert.Nil(t, f.Address, "blank strings normalize to absent")
	require.NotNil(t, f.Phone)
	assert.Equal(t, "555-0100", *f.Phone)
	assert.Empty(t, f.Dropped)
}

func TestNormalizeState(t *testing.T) {
	f := Normalize(Payload{State: strPtr("ga")})
	require.NotNil(t, f.State)
	assert.Equal(t, "GA", *f.State)

	f = Normalize(Payload{State: strPtr("California")})
	assert.Nil(t, f.State)
	assert.Contains(t, f.Dropped, "state")

	f = Normalize(Payload{State: strPtr("G4")})
	assert.Nil(t, f.State)
	assert.Contains(t, f.Dropped, "state")
}

func TestNormalizeEmailSilentlyDropped(t *testing.T) {
	f := Normalize(Payload{Email: strPtr("coach@westview.edu")})
	require.NotNil(t, f.Email)
	assert.Equal(t, "coach@westview.edu", *f.Email)

	f = Normalize(Payload{Email: strPtr("not-an-email")})
	assert.Nil(t, f.Email)
	assert.Contains(t, f.Dropped, "email")
}

func TestNormalizeLogoURL(t *testing.T) {
	f := Normalize(Payload{LogoURL: strPtr("https://cdn.example.com/logo.png")})
	require.NotNil(t, f.LogoURL)

	for _, bad := range []string{"ftp://example.com/x", "javascript:alert(1)", "/relative/path", "https://"} {
		f = Normalize(Payload{LogoURL: strPtr(bad)})
		assert.Nil(t, f.LogoURL, "expected %q to be dropped", bad)
		assert.Contains(t, f.Dropped, "logoUrl")
	}
}

func TestNormalizeHexColors(t *testing.T) {
	f := Normalize(Payload{
		BrandPrimary:   strPtr("#1a2B3c"),
		BrandSecondary: strPtr("#fff"),
	})
	require.NotNil(t, f.BrandPrimary)
	require.NotNil(t, f.BrandSecondary)

	f = Normalize(Payload{
		BrandPrimary:   strPtr("1a2b3c"),
		BrandSecondary: strPtr("#12345"),
	})
	assert.Nil(t, f.BrandPrimary)
	assert.Nil(t, f.BrandSecondary)
	assert.ElementsMatch(t, []string{"brandPrimary", "brandSecondary"}, f.Dropped)
}

func TestNormalizeAliasCoalescing(t *testing.T) {
	// snake_case accepted when camelCase is absent
	f := Normalize(Payload{LogoURLSnake: strPtr("https://cdn.example.com/snake.png")})
	require.NotNil(t, f.LogoURL)
	assert.Equal(t, "https://cdn.example.com/snake.png", *f.LogoURL)

	// camelCase wins when both are present
	f = Normalize(Payload{
		BrandPrimary:      strPtr("#111111"),
		BrandPrimarySnake: strPtr("#222222"),
	})
	require.NotNil(t, f.BrandPrimary)
	assert.Equal(t, "#111111", *f.BrandPrimary)

	yes := true
	f = Normalize(Payload{IsBusinessSnake: &yes})
	require.NotNil(t, f.IsBusiness)
	assert.True(t, *f.IsBusiness)
}

func TestNormalizeUniversalDiscounts(t *testing.T) {
	f := Normalize(Payload{})
	assert.Nil(t, f.UniversalDiscounts, "absent stays absent; create fills the default")

	f = Normalize(Payload{UniversalDiscounts: json.RawMessage(`null`)})
	assert.Nil(t, f.UniversalDiscounts, "explicit null treated as absent")

	f = Normalize(Payload{UniversalDiscountsSnake: json.RawMessage(`{"team":0.1}`)})
	assert.JSONEq(t, `{"team":0.1}`, string(f.UniversalDiscounts))
}

func TestNormalizeTags(t *testing.T) {
	f := Normalize(Payload{Tags: []string{" varsity ", "varsity", "", "club"}})
	assert.Equal(t, []string{"varsity", "club"}, f.Tags)

	f = Normalize(Payload{})
	assert.Nil(t, f.Tags)

	f = Normalize(Payload{Tags: []string{}})
	require.NotNil(t, f.Tags)
	assert.Empty(t, f.Tags)
}
