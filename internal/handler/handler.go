package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"sharada-markets/internal/cache"
	"sharada-markets/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/trace"
)

// MarketData is the facade surface served over HTTP.
type MarketData interface {
	Quote(ctx context.Context, symbol string) (domain.Result[domain.Quote], error)
	IndexQuote(ctx context.Context, symbol string) (domain.Result[domain.Quote], error)
	AllIndexQuotes(ctx context.Context) domain.Result[map[string]domain.Quote]
	TopGainers(ctx context.Context, exchange string) domain.Result[[]domain.RankedMover]
	TopLosers(ctx context.Context, exchange string) domain.Result[[]domain.RankedMover]
	PutCallRatio(ctx context.Context, limit int) domain.Result[domain.PCRSet]
	FIIDII(ctx context.Context) domain.Result[domain.FIIDII]
	MarketNews(ctx context.Context, limit int) domain.Result[[]domain.NewsItem]
	BulkDeals(ctx context.Context, from, to time.Time) (domain.Result[[]domain.Deal], error)
	BlockDeals(ctx context.Context, from, to time.Time) (domain.Result[[]domain.Deal], error)
	PastResults(ctx context.Context, symbol string) (domain.Result[domain.PastResults], error)
	CacheStats() cache.Stats
}

// Dashboard exposes the polling hooks.
type Dashboard interface {
	Snapshots() map[string]any
	Refetch(ctx context.Context, name string) (any, error)
	Subscribe(fn func(name string, snapshot any)) (unsubscribe func())
}

type Handler struct {
	tracer    trace.Tracer
	market    MarketData
	dashboard Dashboard
	adminKey  string
	upgrader  websocket.Upgrader
}

// Option configures a Handler.
type Option func(*Handler)

// WithAllowedOrigin restricts stream upgrades to browsers on origin.
// An empty origin keeps the same-host check.
func WithAllowedOrigin(origin string) Option {
	return func(h *Handler) {
		if origin = normalizeOrigin(origin); origin != "" {
			h.upgrader.CheckOrigin = allowOrigin(origin)
		}
	}
}

func New(tracer trace.Tracer, market MarketData, dashboard Dashboard, adminKey string, opts ...Option) *Handler {
	h := &Handler{
		tracer:    tracer,
		market:    market,
		dashboard: dashboard,
		adminKey:  adminKey,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// allowOrigin accepts non-browser clients, which send no Origin header,
// and browsers on the configured origin.
func allowOrigin(origin string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		got := r.Header.Get("Origin")
		return got == "" || normalizeOrigin(got) == origin
	}
}

func normalizeOrigin(origin string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/cache/stats", h.CacheStats)

	api := r.Group("/api")
	api.GET("/dashboard", h.GetDashboard)
	api.GET("/stream", h.Stream)
	api.POST("/refresh/:hook", APIKeyAuth(h.adminKey), h.Refresh)

	api.GET("/quotes/:symbol", h.GetQuote)
	api.GET("/index-quotes", h.GetIndexQuotes)
	api.GET("/index-quotes/:symbol", h.GetIndexQuote)
	api.GET("/movers/gainers", h.GetGainers)
	api.GET("/movers/losers", h.GetLosers)
	api.GET("/pcr", h.GetPutCallRatio)
	api.GET("/fii-dii", h.GetFIIDII)
	api.GET("/news", h.GetNews)
	api.GET("/deals/bulk", h.GetBulkDeals)
	api.GET("/deals/block", h.GetBlockDeals)
	api.GET("/past-results/:symbol", h.GetPastResults)

	api.POST("/calculators/fd", h.CalculateFD)
	api.POST("/calculators/sip", h.CalculateSIP)
	api.GET("/share", h.Share)
}

// resultStatus maps a result kind to the HTTP status it is served with.
// Fallback data is still a successful response.
func resultStatus(k domain.Kind) int {
	switch k {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindError:
		return http.StatusBadGateway
	default:
		return http.StatusOK
	}
}

func writeResult[T any](c *gin.Context, res domain.Result[T]) {
	c.JSON(resultStatus(res.Kind), res)
}

// writeError answers validation failures with 400 and anything else with 500.
func writeError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message, "field": verr.Field})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
