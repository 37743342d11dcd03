package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListRoutes handles GET /api/routes. Route data is maintained by the
// fleet side; this endpoint only reads it for the app's browsing screens.
func (h *Handler) ListRoutes(c *gin.Context) {
	routes, err := h.store.ListRoutes(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve routes"})
		return
	}
	c.JSON(http.StatusOK, routes)
}
