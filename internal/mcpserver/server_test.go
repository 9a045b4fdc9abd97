package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"sharada-markets/internal/domain"
	"sharada-markets/internal/remote"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/trace"
)

type stubMarket struct{}

func (stubMarket) AllIndexQuotes(context.Context) domain.Result[map[string]domain.Quote] {
	return domain.OK(map[string]domain.Quote{
		"NIFTY":  {Symbol: "NIFTY", Price: 19500, Status: domain.QuoteOK},
		"SENSEX": {Symbol: "SENSEX", Price: 65000, Status: domain.QuoteOK},
	})
}

func (stubMarket) TopGainers(context.Context, string) domain.Result[[]domain.RankedMover] {
	return domain.OK([]domain.RankedMover{
		{Symbol: "TCS", ChangePercent: 3.1},
		{Symbol: "INFY", ChangePercent: 2.4},
		{Symbol: "WIPRO", ChangePercent: 1.2},
	})
}

func (stubMarket) TopLosers(context.Context, string) domain.Result[[]domain.RankedMover] {
	return domain.Fallback([]domain.RankedMover{{Symbol: "HDFC", ChangePercent: -2}}, "upstream down")
}

func (stubMarket) PutCallRatio(context.Context, int) domain.Result[domain.PCRSet] {
	entries := []domain.PCREntry{{Symbol: "TCS", PCR: 0.6}, {Symbol: "INFY", PCR: 0.9}, {Symbol: "SBIN", PCR: 1.5}}
	return domain.OK(domain.PCRSet{Exchange: "NSE", Entries: entries, Stats: domain.ComputePCRStats(entries)})
}

func (stubMarket) FIIDII(context.Context) domain.Result[domain.FIIDII] {
	return domain.OK(domain.FIIDII{
		FII: domain.InstitutionalFlow{Buy: 1200, Sell: 1500},
		DII: domain.InstitutionalFlow{Buy: 900, Sell: 400},
	})
}

func (stubMarket) PastResults(_ context.Context, symbol string) (domain.Result[domain.PastResults], error) {
	if symbol == "" {
		return domain.Result[domain.PastResults]{}, domain.NewValidationError("symbol", "please enter a stock symbol")
	}
	return domain.OK(domain.PastResults{Symbol: symbol, Quarters: []domain.QuarterResult{{Period: "Q1 FY25", NetSales: 1000}}}), nil
}

func connect(t *testing.T) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	server := NewServer(trace.NewNoopTracerProvider().Tracer("mcp-test"), stubMarket{})
	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	t.Cleanup(func() { _ = ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func callTool[T any](t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) T {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("call %s: %v", name, err)
	}
	if res.IsError {
		t.Fatalf("call %s returned a tool error: %+v", name, res.Content)
	}
	raw, err := json.Marshal(res.StructuredContent)
	if err != nil {
		t.Fatalf("marshal structured content: %v", err)
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode %s output: %v", name, err)
	}
	return out
}

func TestListTools(t *testing.T) {
	t.Parallel()
	cs := connect(t)

	res, err := cs.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	want := []string{"calculate_fd", "calculate_sip", "get_fii_dii", "get_index_quotes", "get_past_results", "get_put_call_ratio", "get_top_movers"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, names)
		}
	}
}

func TestCalculateSIP(t *testing.T) {
	t.Parallel()
	cs := connect(t)

	out := callTool[SIPOutput](t, cs, "calculate_sip", map[string]any{"monthly_investment": 5000, "annual_return": 12, "years": 10})
	if out.Result.TotalInvestment != 600000 {
		t.Fatalf("expected total investment 600000, got %v", out.Result.TotalInvestment)
	}
	if len(out.Schedule) != 10 {
		t.Fatalf("expected 10 schedule rows, got %d", len(out.Schedule))
	}
}

func TestCalculateRejectsOutOfRangeInput(t *testing.T) {
	t.Parallel()
	cs := connect(t)

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "calculate_fd",
		Arguments: map[string]any{"principal": 10, "rate": 7, "tenure": 5},
	})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected a tool error for a principal below the minimum")
	}
}

func TestCalculateFDMonths(t *testing.T) {
	t.Parallel()
	cs := connect(t)

	out := callTool[fdOutput](t, cs, "calculate_fd", map[string]any{"principal": 100000, "rate": 7, "tenure": 12, "tenure_type": "months"})
	if out.Years != 1 || out.MaturityAmount <= 100000 {
		t.Fatalf("unexpected fd result: %+v", out)
	}
}

type fdOutput struct {
	MaturityAmount float64 `json:"maturityAmount"`
	Years          float64 `json:"years"`
}

func TestTopMovers(t *testing.T) {
	t.Parallel()
	cs := connect(t)

	gainers := callTool[MoversOutput](t, cs, "get_top_movers", map[string]any{"limit": 2})
	if gainers.Direction != "gainers" || len(gainers.Movers) != 2 || gainers.Movers[0].Symbol != "TCS" {
		t.Fatalf("unexpected gainers: %+v", gainers)
	}

	losers := callTool[MoversOutput](t, cs, "get_top_movers", map[string]any{"direction": "LOSERS"})
	if losers.Kind != domain.KindFallback || losers.Reason != "upstream down" {
		t.Fatalf("expected fallback losers, got %+v", losers)
	}

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: "get_top_movers", Arguments: map[string]any{"direction": "sideways"}})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected a tool error for an unknown direction")
	}
}

func TestPutCallRatioKeepsFullStats(t *testing.T) {
	t.Parallel()
	cs := connect(t)

	out := callTool[PCROutput](t, cs, "get_put_call_ratio", map[string]any{"limit": 1, "order": "asc"})
	if len(out.Entries) != 1 || out.Entries[0].Symbol != "TCS" {
		t.Fatalf("unexpected entries: %+v", out.Entries)
	}
	if out.Stats.TotalSymbols != 3 || out.Stats.Max != 1.5 {
		t.Fatalf("stats should cover the whole set: %+v", out.Stats)
	}
	if out.Sentiment == "" {
		t.Fatal("expected a sentiment label")
	}
}

func TestFIIDIIAndIndexQuotes(t *testing.T) {
	t.Parallel()
	cs := connect(t)

	flows := callTool[FIIDIIOutput](t, cs, "get_fii_dii", map[string]any{})
	if flows.FIINet != -300 || flows.DIINet != 500 {
		t.Fatalf("unexpected net flows: %+v", flows)
	}

	quotes := callTool[IndexQuotesOutput](t, cs, "get_index_quotes", map[string]any{})
	if len(quotes.Quotes) != 2 || quotes.Quotes["NIFTY"].Price != 19500 {
		t.Fatalf("unexpected quotes: %+v", quotes)
	}
}

func TestPastResults(t *testing.T) {
	t.Parallel()
	cs := connect(t)

	out := callTool[PastResultsOutput](t, cs, "get_past_results", map[string]any{"symbol": "TCS"})
	if out.Results.Symbol != "TCS" || len(out.Results.Quarters) != 1 {
		t.Fatalf("unexpected results: %+v", out)
	}
}

func TestHTTPHandlerAuthAndRateLimit(t *testing.T) {
	t.Parallel()
	server := NewServer(trace.NewNoopTracerProvider().Tracer("mcp-test"), stubMarket{})
	h := HTTPHandler(server, "secret", remote.NewRateLimiter(1, time.Hour))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a wrong token, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized || w.Code == http.StatusTooManyRequests {
		t.Fatalf("expected the request to reach the mcp handler, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 once the limit is spent, got %d", w.Code)
	}
}
