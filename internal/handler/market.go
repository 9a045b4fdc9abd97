package handler

import (
	"strconv"
	"strings"

	"sharada-markets/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

func (h *Handler) GetQuote(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-quote")
	defer span.End()

	symbol := strings.ToUpper(c.Param("symbol"))
	span.SetAttributes(attribute.String("symbol", symbol))

	res, err := h.market.Quote(ctx, symbol)
	if err != nil {
		writeError(c, err)
		return
	}
	writeResult(c, res)
}

func (h *Handler) GetIndexQuotes(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-index-quotes")
	defer span.End()

	writeResult(c, h.market.AllIndexQuotes(ctx))
}

func (h *Handler) GetIndexQuote(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-index-quote")
	defer span.End()

	symbol := strings.ToUpper(c.Param("symbol"))
	span.SetAttributes(attribute.String("symbol", symbol))

	res, err := h.market.IndexQuote(ctx, symbol)
	if err != nil {
		writeError(c, err)
		return
	}
	writeResult(c, res)
}

func (h *Handler) GetGainers(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-gainers")
	defer span.End()

	writeResult(c, h.market.TopGainers(ctx, c.DefaultQuery("exchange", domain.DefaultExchange)))
}

func (h *Handler) GetLosers(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-losers")
	defer span.End()

	writeResult(c, h.market.TopLosers(ctx, c.DefaultQuery("exchange", domain.DefaultExchange)))
}

// GetPutCallRatio fetches at least the full set and applies limit and order
// locally, so the stats always describe every symbol.
func (h *Handler) GetPutCallRatio(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-put-call-ratio")
	defer span.End()

	limit := 0
	if l := c.Query("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 {
			writeError(c, domain.NewValidationError("limit", "must be a positive integer"))
			return
		}
		limit = n
	}
	order := domain.SortOrder(strings.ToLower(c.DefaultQuery("order", string(domain.SortDesc))))
	if order != domain.SortAsc && order != domain.SortDesc {
		writeError(c, domain.NewValidationError("order", "must be asc or desc"))
		return
	}

	res := h.market.PutCallRatio(ctx, max(limit, domain.PCRFullSetLimit))
	res.Value.Entries = res.Value.View(limit, order)
	writeResult(c, res)
}

func (h *Handler) GetFIIDII(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-fii-dii")
	defer span.End()

	writeResult(c, h.market.FIIDII(ctx))
}

func (h *Handler) GetNews(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-news")
	defer span.End()

	limit := 0
	if l := c.Query("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 50 {
			limit = n
		}
	}
	writeResult(c, h.market.MarketNews(ctx, limit))
}
