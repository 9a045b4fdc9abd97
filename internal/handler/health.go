package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// CacheStats reports hit and miss counters of the expiring cache.
func (h *Handler) CacheStats(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.cache-stats")
	defer span.End()

	c.JSON(http.StatusOK, h.market.CacheStats())
}
