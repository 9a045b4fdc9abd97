package handler

import (
	"context"
	"strings"
	"time"

	"sharada-markets/internal/domain"
	"sharada-markets/internal/format"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// QueryDateLayout is the date form accepted in from/to query parameters.
const QueryDateLayout = "2006-01-02"

type dealsFunc func(ctx context.Context, from, to time.Time) (domain.Result[[]domain.Deal], error)

func (h *Handler) GetBulkDeals(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-bulk-deals")
	defer span.End()
	h.serveDeals(ctx, c, h.market.BulkDeals)
}

func (h *Handler) GetBlockDeals(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-block-deals")
	defer span.End()
	h.serveDeals(ctx, c, h.market.BlockDeals)
}

func (h *Handler) serveDeals(ctx context.Context, c *gin.Context, fetch dealsFunc) {
	from, err := parseQueryDate("from", c.Query("from"))
	if err != nil {
		writeError(c, err)
		return
	}
	to, err := parseQueryDate("to", c.Query("to"))
	if err != nil {
		writeError(c, err)
		return
	}
	res, err := fetch(ctx, from, to)
	if err != nil {
		writeError(c, err)
		return
	}
	writeResult(c, res)
}

// parseQueryDate reads an IST calendar date. Empty means unset.
func parseQueryDate(field, v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(QueryDateLayout, v, format.Location)
	if err != nil {
		return time.Time{}, domain.NewValidationError(field, "must be a date in YYYY-MM-DD form")
	}
	return t, nil
}

func (h *Handler) GetPastResults(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-past-results")
	defer span.End()

	symbol := strings.ToUpper(c.Param("symbol"))
	span.SetAttributes(attribute.String("symbol", symbol))

	res, err := h.market.PastResults(ctx, symbol)
	if err != nil {
		writeError(c, err)
		return
	}
	writeResult(c, res)
}
