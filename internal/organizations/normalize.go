package organizations

import (
	"encoding/json"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
)

var (
	stateRegex = regexp.MustCompile(`^[A-Za-z]{2}$`)
	hexRegex   = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
)

// Payload is the wire shape for organization create/update bodies. The
// frontend has sent both camelCase and snake_case over time, so both spellings
// are accepted and coalesced (camelCase wins when both are present).
type Payload struct {
	Name  *string `json:"name"`
	State *string `json:"state"`

	Address *string `json:"address"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email"`
	Notes   *string `json:"notes"`

	LogoURL      *string `json:"logoUrl"`
	LogoURLSnake *string `json:"logo_url"`

	BrandPrimary        *string `json:"brandPrimary"`
	BrandPrimarySnake   *string `json:"brand_primary"`
	BrandSecondary      *string `json:"brandSecondary"`
	BrandSecondarySnake *string `json:"brand_secondary"`

	IsBusiness      *bool `json:"isBusiness"`
	IsBusinessSnake *bool `json:"is_business"`

	UniversalDiscounts      json.RawMessage `json:"universalDiscounts"`
	UniversalDiscountsSnake json.RawMessage `json:"universal_discounts"`

	Tags []string `json:"tags"`
}

// Fields is the canonical normalized shape. Pointer fields distinguish
// "present" from "absent" so partial updates only touch provided keys.
type Fields struct {
	Name               *string
	State              *string
	Address            *string
	Phone              *string
	Email              *string
	Notes              *string
	LogoURL            *string
	BrandPrimary       *string
	BrandSecondary     *string
	IsBusiness         *bool
	UniversalDiscounts json.RawMessage
	Tags               []string

	// Dropped lists fields whose values were silently discarded as malformed
	// (invalid state code, email, URL, or color). Logged for visibility.
	Dropped []string
}

// Normalize coalesces aliases, trims strings, converts empty strings to
// absent, and applies the per-field syntax rules. Malformed optional fields
// are dropped rather than rejected.
func Normalize(p Payload) Fields {
	f := Fields{}

	f.Name = clean(p.Name)

	if s := clean(p.State); s != nil {
		if stateRegex.MatchString(*s) {
			up := strings.ToUpper(*s)
			f.State = &up
		} else {
			f.Dropped = append(f.Dropped, "state")
		}
	}

	f.Address = clean(p.Address)
	f.Phone = clean(p.Phone)
	f.Notes = clean(p.Notes)

	if e := clean(p.Email); e != nil {
		if _, err := mail.ParseAddress(*e); err == nil {
			f.Email = e
		} else {
			f.Dropped = append(f.Dropped, "email")
		}
	}

	if u := clean(coalesce(p.LogoURL, p.LogoURLSnake)); u != nil {
		if parsed, err := url.Parse(*u); err == nil && (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != "" {
			f.LogoURL = u
		} else {
			f.Dropped = append(f.Dropped, "logoUrl")
		}
	}

	f.BrandPrimary = normalizeHex(clean(coalesce(p.BrandPrimary, p.BrandPrimarySnake)), "brandPrimary", &f.Dropped)
	f.BrandSecondary = normalizeHex(clean(coalesce(p.BrandSecondary, p.BrandSecondarySnake)), "brandSecondary", &f.Dropped)

	if p.IsBusiness != nil {
		f.IsBusiness = p.IsBusiness
	} else if p.IsBusinessSnake != nil {
		f.IsBusiness = p.IsBusinessSnake
	}

	if ud := coalesceRaw(p.UniversalDiscounts, p.UniversalDiscountsSnake); ud != nil {
		f.UniversalDiscounts = ud
	}

	if p.Tags != nil {
		tags := make([]string, 0, len(p.Tags))
		seen := make(map[string]bool, len(p.Tags))
		for _, t := range p.Tags {
			t = strings.TrimSpace(t)
			if t != "" && !seen[t] {
				seen[t] = true
				tags = append(tags, t)
			}
		}
		f.Tags = tags
	}

	return f
}

// DefaultDiscounts is the universal_discounts value when none is provided:
// always a JSON object, never null.
var DefaultDiscounts = json.RawMessage(`{}`)

func clean(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.TrimSpace(*p)
	if s == "" {
		return nil
	}
	return &s
}

func coalesce(camel, snake *string) *string {
	if camel != nil {
		return camel
	}
	return snake
}

func coalesceRaw(camel, snake json.RawMessage) json.RawMessage {
	if camel != nil && string(camel) != "null" {
		return camel
	}
	if snake != nil && string(snake) != "null" {
		return snake
	}
	return nil
}

func normalizeHex(p *string, field string, dropped *[]string) *string {
	if p == nil {
		return nil
	}
	if hexRegex.MatchString(*p) {
		return p
	}
	*dropped = append(*dropped, field)
	return nil
}
