package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ContextUserID is the gin context key the auth middleware sets.
const ContextUserID = "user_id"

// Handler contains dependencies shared by all handlers
type Handler struct{}

// NewHandler creates a new handler instance
func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) MetricsHandler(c *gin.Context) {
	promhttp.Handler().ServeHTTP(c.Writer, c.Request)
}

// CurrentUserID extracts the authenticated user from the request context.
// Aborts with 401 when absent.
func CurrentUserID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetString(ContextUserID)
	if raw == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, NewErrorResponse("authentication required"))
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, NewErrorResponse("invalid user identity"))
		return uuid.Nil, false
	}
	return id, true
}
