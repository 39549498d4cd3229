package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/richhabits/backend/internal/organizations"
)

// Handler reports service liveness plus a database reachability check.
type Handler struct {
	pool *pgxpool.Pool
	orgs *organizations.Repository
}

// NewHandler creates a health check handler.
func NewHandler(pool *pgxpool.Pool, orgs *organizations.Repository) *Handler {
	return &Handler{pool: pool, orgs: orgs}
}

// Check returns {ok, db, orgs}. ok is true only when the database answers;
// orgs carries the organization count when available.
func (h *Handler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	body := gin.H{"ok": true, "db": true}
	if err := h.pool.Ping(ctx); err != nil {
		body["ok"] = false
		body["db"] = false
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	if n, err := h.orgs.Count(ctx); err == nil {
		body["orgs"] = n
	}
	c.JSON(http.StatusOK, body)
}
