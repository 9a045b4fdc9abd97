// Package mcpserver exposes market data and calculators as MCP tools.
package mcpserver

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"sharada-markets/internal/calculator"
	"sharada-markets/internal/domain"
	"sharada-markets/internal/remote"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	serverName    = "sharada-markets"
	serverVersion = "1.0.0"
)

// Market is the data the tools read.
type Market interface {
	AllIndexQuotes(ctx context.Context) domain.Result[map[string]domain.Quote]
	TopGainers(ctx context.Context, exchange string) domain.Result[[]domain.RankedMover]
	TopLosers(ctx context.Context, exchange string) domain.Result[[]domain.RankedMover]
	PutCallRatio(ctx context.Context, limit int) domain.Result[domain.PCRSet]
	FIIDII(ctx context.Context) domain.Result[domain.FIIDII]
	PastResults(ctx context.Context, symbol string) (domain.Result[domain.PastResults], error)
}

type SIPArgs struct {
	MonthlyInvestment float64 `json:"monthly_investment" jsonschema:"monthly contribution in rupees, 500 to 1000000"`
	AnnualReturn      float64 `json:"annual_return" jsonschema:"expected annual return in percent, 6 to 30"`
	Years             float64 `json:"years" jsonschema:"investment period in years, 1 to 50"`
}

type SIPOutput struct {
	Result   calculator.SIPResult `json:"result"`
	Schedule []calculator.SIPYear `json:"schedule"`
}

type FDArgs struct {
	Principal  float64 `json:"principal" jsonschema:"deposit amount in rupees, 1000 to 10000000"`
	Rate       float64 `json:"rate" jsonschema:"annual interest rate in percent, 3 to 15"`
	Tenure     float64 `json:"tenure" jsonschema:"deposit tenure"`
	TenureType string  `json:"tenure_type,omitempty" jsonschema:"years or months, default years"`
}

type IndexQuotesOutput struct {
	Kind   domain.Kind             `json:"kind"`
	Reason string                  `json:"reason,omitempty"`
	Quotes map[string]domain.Quote `json:"quotes"`
}

type MoversArgs struct {
	Direction string `json:"direction,omitempty" jsonschema:"gainers or losers, default gainers"`
	Limit     int    `json:"limit,omitempty" jsonschema:"maximum entries, default 10"`
}

type MoversOutput struct {
	Kind      domain.Kind          `json:"kind"`
	Reason    string               `json:"reason,omitempty"`
	Direction string               `json:"direction"`
	Movers    []domain.RankedMover `json:"movers"`
}

type PCRArgs struct {
	Limit int    `json:"limit,omitempty" jsonschema:"maximum entries, default 20"`
	Order string `json:"order,omitempty" jsonschema:"asc or desc by ratio, default desc"`
}

type PCROutput struct {
	Kind      domain.Kind       `json:"kind"`
	Reason    string            `json:"reason,omitempty"`
	Stats     domain.PCRStats   `json:"stats"`
	Sentiment domain.Sentiment  `json:"sentiment"`
	Entries   []domain.PCREntry `json:"entries"`
}

type FIIDIIOutput struct {
	Kind   domain.Kind   `json:"kind"`
	Reason string        `json:"reason,omitempty"`
	Flows  domain.FIIDII `json:"flows"`
	FIINet float64       `json:"fii_net"`
	DIINet float64       `json:"dii_net"`
}

type PastResultsArgs struct {
	Symbol string `json:"symbol" jsonschema:"NSE symbol, e.g. TCS"`
}

type PastResultsOutput struct {
	Kind    domain.Kind        `json:"kind"`
	Reason  string             `json:"reason,omitempty"`
	Results domain.PastResults `json:"results"`
}

type tools struct {
	tracer trace.Tracer
	market Market
}

// NewServer registers every tool against market.
func NewServer(tracer trace.Tracer, market Market) *mcp.Server {
	t := &tools{tracer: tracer, market: market}
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)

	mcp.AddTool(server, &mcp.Tool{Name: "calculate_sip", Description: "Future value of a monthly SIP, contributions at the start of each month."}, t.calculateSIP)
	mcp.AddTool(server, &mcp.Tool{Name: "calculate_fd", Description: "Maturity of a fixed deposit compounded quarterly."}, t.calculateFD)
	mcp.AddTool(server, &mcp.Tool{Name: "get_index_quotes", Description: "Latest NIFTY, SENSEX and BANKNIFTY quotes."}, t.indexQuotes)
	mcp.AddTool(server, &mcp.Tool{Name: "get_top_movers", Description: "Top NSE gainers or losers ranked by percent change."}, t.topMovers)
	mcp.AddTool(server, &mcp.Tool{Name: "get_put_call_ratio", Description: "NSE put/call ratios with aggregate stats over every symbol."}, t.putCallRatio)
	mcp.AddTool(server, &mcp.Tool{Name: "get_fii_dii", Description: "Latest FII and DII cash-market activity in crores."}, t.fiidii)
	mcp.AddTool(server, &mcp.Tool{Name: "get_past_results", Description: "Reported quarterly results for an NSE symbol."}, t.pastResults)
	return server
}

func (t *tools) calculateSIP(ctx context.Context, _ *mcp.CallToolRequest, args SIPArgs) (*mcp.CallToolResult, SIPOutput, error) {
	_, span := t.tracer.Start(ctx, "mcp.calculate-sip")
	defer span.End()

	in := calculator.SIPInput{Monthly: args.MonthlyInvestment, AnnualReturnPct: args.AnnualReturn, Years: args.Years}
	if err := in.Validate(); err != nil {
		return nil, SIPOutput{}, err
	}
	return nil, SIPOutput{Result: calculator.SIP(in), Schedule: calculator.SIPSchedule(in)}, nil
}

func (t *tools) calculateFD(ctx context.Context, _ *mcp.CallToolRequest, args FDArgs) (*mcp.CallToolResult, calculator.FDResult, error) {
	_, span := t.tracer.Start(ctx, "mcp.calculate-fd")
	defer span.End()

	in := calculator.FDInput{Principal: args.Principal, RatePct: args.Rate, Tenure: args.Tenure, Unit: calculator.TenureUnit(strings.ToLower(args.TenureType))}
	if err := in.Validate(); err != nil {
		return nil, calculator.FDResult{}, err
	}
	return nil, calculator.FD(in), nil
}

func (t *tools) indexQuotes(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, IndexQuotesOutput, error) {
	ctx, span := t.tracer.Start(ctx, "mcp.get-index-quotes")
	defer span.End()

	res := t.market.AllIndexQuotes(ctx)
	quotes := res.Value
	if quotes == nil {
		quotes = map[string]domain.Quote{}
	}
	return nil, IndexQuotesOutput{Kind: res.Kind, Reason: res.Reason, Quotes: quotes}, nil
}

func (t *tools) topMovers(ctx context.Context, _ *mcp.CallToolRequest, args MoversArgs) (*mcp.CallToolResult, MoversOutput, error) {
	ctx, span := t.tracer.Start(ctx, "mcp.get-top-movers")
	defer span.End()

	dir := strings.ToLower(strings.TrimSpace(args.Direction))
	if dir == "" {
		dir = "gainers"
	}
	span.SetAttributes(attribute.String("direction", dir))

	var res domain.Result[[]domain.RankedMover]
	switch dir {
	case "gainers":
		res = t.market.TopGainers(ctx, domain.DefaultExchange)
	case "losers":
		res = t.market.TopLosers(ctx, domain.DefaultExchange)
	default:
		return nil, MoversOutput{}, domain.NewValidationError("direction", "must be gainers or losers")
	}

	movers := append([]domain.RankedMover{}, res.Value...)
	if limit := clampLimit(args.Limit, 10); limit < len(movers) {
		movers = movers[:limit]
	}
	return nil, MoversOutput{Kind: res.Kind, Reason: res.Reason, Direction: dir, Movers: movers}, nil
}

func (t *tools) putCallRatio(ctx context.Context, _ *mcp.CallToolRequest, args PCRArgs) (*mcp.CallToolResult, PCROutput, error) {
	ctx, span := t.tracer.Start(ctx, "mcp.get-put-call-ratio")
	defer span.End()

	order := domain.SortOrder(strings.ToLower(strings.TrimSpace(args.Order)))
	if order == "" {
		order = domain.SortDesc
	}
	if order != domain.SortAsc && order != domain.SortDesc {
		return nil, PCROutput{}, domain.NewValidationError("order", "must be asc or desc")
	}

	res := t.market.PutCallRatio(ctx, domain.PCRFullSetLimit)
	return nil, PCROutput{
		Kind:      res.Kind,
		Reason:    res.Reason,
		Stats:     res.Value.Stats,
		Sentiment: domain.PCRSentiment(res.Value.Stats.Avg),
		Entries:   append([]domain.PCREntry{}, res.Value.View(clampLimit(args.Limit, 20), order)...),
	}, nil
}

func (t *tools) fiidii(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, FIIDIIOutput, error) {
	ctx, span := t.tracer.Start(ctx, "mcp.get-fii-dii")
	defer span.End()

	res := t.market.FIIDII(ctx)
	return nil, FIIDIIOutput{
		Kind:   res.Kind,
		Reason: res.Reason,
		Flows:  res.Value,
		FIINet: res.Value.FII.Net(),
		DIINet: res.Value.DII.Net(),
	}, nil
}

func (t *tools) pastResults(ctx context.Context, _ *mcp.CallToolRequest, args PastResultsArgs) (*mcp.CallToolResult, PastResultsOutput, error) {
	ctx, span := t.tracer.Start(ctx, "mcp.get-past-results")
	defer span.End()

	res, err := t.market.PastResults(ctx, args.Symbol)
	if err != nil {
		return nil, PastResultsOutput{}, err
	}
	return nil, PastResultsOutput{Kind: res.Kind, Reason: res.Reason, Results: res.Value}, nil
}

func clampLimit(n, def int) int {
	if n <= 0 {
		return def
	}
	if n > 100 {
		return 100
	}
	return n
}

// HTTPHandler serves the server over streamable HTTP behind a bearer token
// and a shared rate limit. An empty token disables the auth check.
func HTTPHandler(server *mcp.Server, token string, limiter *remote.RateLimiter) http.Handler {
	h := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token != "" {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(got)), []byte(token)) != 1 {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		if limiter != nil && !limiter.Allow() {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		h.ServeHTTP(w, r)
	})
}
