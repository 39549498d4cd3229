package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/richhabits/backend/internal/auth"
)

// ContextUserID is the key for the acting user's ID in gin context.
const ContextUserID = "user_id"

// Actor resolves the acting user for write endpoints without ever rejecting
// the request: Bearer JWT claims when present and valid, otherwise an
// X-User-ID header. Endpoints that need an actor treat absence as "no actor"
// and degrade accordingly.
func Actor(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := c.GetHeader("Authorization"); header != "" {
			parts := strings.SplitN(header, " ", 2)
			if len(parts) == 2 && parts[0] == "Bearer" {
				if claims, err := jwtService.Validate(parts[1]); err == nil {
					c.Set(ContextUserID, claims.UserID)
					c.Next()
					return
				}
			}
		}
		if raw := c.GetHeader("X-User-ID"); raw != "" {
			if id, err := uuid.Parse(raw); err == nil {
				c.Set(ContextUserID, id)
			}
		}
		c.Next()
	}
}

// ActorID returns the resolved acting user id, or nil when none was resolvable.
func ActorID(c *gin.Context) *uuid.UUID {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return nil
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		return nil
	}
	return &id
}
