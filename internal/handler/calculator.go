package handler

import (
	"net/http"
	"strings"

	"sharada-markets/internal/calculator"
	"sharada-markets/internal/domain"
	"sharada-markets/internal/format"

	"github.com/gin-gonic/gin"
)

func (h *Handler) CalculateFD(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.calculate-fd")
	defer span.End()

	var in calculator.FDInput
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, domain.NewValidationError("", "invalid request body: %v", err))
		return
	}
	if err := in.Validate(); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, calculator.FD(in))
}

func (h *Handler) CalculateSIP(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.calculate-sip")
	defer span.End()

	var in calculator.SIPInput
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, domain.NewValidationError("", "invalid request body: %v", err))
		return
	}
	if err := in.Validate(); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"result":   calculator.SIP(in),
		"schedule": calculator.SIPSchedule(in),
	})
}

// Share builds a WhatsApp share link for a page.
func (h *Handler) Share(c *gin.Context) {
	text := strings.TrimSpace(c.Query("text"))
	link := strings.TrimSpace(c.Query("url"))
	if link == "" || !format.IsValidURL(link) {
		writeError(c, domain.NewValidationError("url", "must be a valid URL"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": format.WhatsAppShareURL(text, link)})
}
