package service

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"sharada-markets/internal/domain"
	"sharada-markets/internal/format"
	"sharada-markets/internal/remote"
)

// DealDateLayout is the DD-MM-YYYY form the exchange data service expects.
const DealDateLayout = "02-01-2006"

// DealLookback is the default window for deal queries.
const DealLookback = 7 * 24 * time.Hour

func (s *MarketService) nsePath(path string) string {
	return s.endpoints.NSE + path
}

// FIIDII returns the latest institutional cash-market flows. There is no
// cache for this category; every call goes upstream.
func (s *MarketService) FIIDII(ctx context.Context) domain.Result[domain.FIIDII] {
	ctx, span := s.tracer.Start(ctx, "market-service.fii-dii")
	defer span.End()

	var raw any
	if err := s.fetcher.GetJSON(ctx, s.nsePath("/fii-dii"), nil, &raw); err != nil {
		log.Printf("fii/dii fetch failed, serving fallback: %v", err)
		return domain.Fallback(fallbackFIIDII(s.now().In(format.Location)), err.Error())
	}

	flows, status, reason, ok := parseFIIDII(raw)
	switch {
	case !ok:
		if reason == "" {
			reason = "no fii/dii data in response"
		}
		log.Printf("fii/dii response unusable, serving fallback: %s", reason)
		return domain.Fallback(fallbackFIIDII(s.now().In(format.Location)), reason)
	case status != "" && !strings.EqualFold(status, "success") && !strings.EqualFold(status, "ok"):
		if reason == "" {
			reason = "upstream status " + status
		}
		return domain.Failed(flows, reason)
	}
	return domain.OK(flows)
}

// parseFIIDII accepts the service envelope {status, data:{fii, dii}} as well
// as the exchange's raw category list, bare or inside the envelope.
func parseFIIDII(raw any) (flows domain.FIIDII, status, reason string, ok bool) {
	switch v := raw.(type) {
	case []any:
		flows, ok = flowsFromList(toRecords(v))
		return flows, "", "", ok
	case map[string]any:
		r := record(v)
		status = r.str("status")
		reason = r.str("error", "message")
		if list, isList := r["data"].([]any); isList {
			flows, ok = flowsFromList(toRecords(list))
			return flows, status, reason, ok
		}
		data := r.sub("data")
		if data == nil {
			data = r
		}
		fii, dii := data.sub("fii", "FII"), data.sub("dii", "DII")
		if fii == nil && dii == nil {
			if list := r.list("raw_data"); len(list) > 0 {
				flows, ok = flowsFromList(list)
				return flows, status, reason, ok
			}
			return flows, status, reason, false
		}
		flows.FII = normalizeFlow(fii)
		flows.DII = normalizeFlow(dii)
		flows.Date = firstNonEmpty(flows.FII.Date, flows.DII.Date, data.str("date"))
		return flows, status, reason, true
	}
	return flows, "", "", false
}

func flowsFromList(items []record) (domain.FIIDII, bool) {
	var flows domain.FIIDII
	found := false
	for _, item := range items {
		category := strings.ToUpper(item.str("category"))
		switch {
		case strings.Contains(category, "FII") || strings.Contains(category, "FPI"):
			flows.FII = normalizeFlow(item)
			found = true
		case strings.Contains(category, "DII"):
			flows.DII = normalizeFlow(item)
			found = true
		}
	}
	flows.Date = firstNonEmpty(flows.FII.Date, flows.DII.Date)
	return flows, found
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// BulkDeals lists bulk deals between from and to inclusive. Zero dates
// default to the last seven days.
func (s *MarketService) BulkDeals(ctx context.Context, from, to time.Time) (domain.Result[[]domain.Deal], error) {
	ctx, span := s.tracer.Start(ctx, "market-service.bulk-deals")
	defer span.End()
	return s.deals(ctx, domain.BulkDeal, from, to)
}

// BlockDeals lists block deals between from and to inclusive.
func (s *MarketService) BlockDeals(ctx context.Context, from, to time.Time) (domain.Result[[]domain.Deal], error) {
	ctx, span := s.tracer.Start(ctx, "market-service.block-deals")
	defer span.End()
	return s.deals(ctx, domain.BlockDeal, from, to)
}

func (s *MarketService) deals(ctx context.Context, kind domain.DealKind, from, to time.Time) (domain.Result[[]domain.Deal], error) {
	now := s.now().In(format.Location)
	if to.IsZero() {
		to = now
	}
	if from.IsZero() {
		from = to.Add(-DealLookback)
	}
	if from.After(to) {
		return domain.Result[[]domain.Deal]{}, domain.NewValidationError("from", "must not be after the end date")
	}

	path := fmt.Sprintf("/%s-deals", kind)
	params := url.Values{
		"from": {from.Format(DealDateLayout)},
		"to":   {to.Format(DealDateLayout)},
	}
	empty := []domain.Deal{}

	var raw any
	if err := s.fetcher.GetJSON(ctx, s.nsePath(path), params, &raw); err != nil {
		log.Printf("%s deals fetch failed: %v", kind, err)
		return domain.Failed(empty, err.Error()), nil
	}

	var items []record
	switch v := raw.(type) {
	case []any:
		items = toRecords(v)
	case map[string]any:
		r := record(v)
		if status := r.str("status"); status != "" && !strings.EqualFold(status, "success") {
			reason := r.str("error", "message")
			if reason == "" {
				reason = fmt.Sprintf("failed to fetch %s deals", kind)
			}
			return domain.Failed(empty, reason), nil
		}
		items = r.list("data")
	}

	deals := make([]domain.Deal, 0, len(items))
	for _, item := range items {
		if d, ok := normalizeDeal(item); ok {
			deals = append(deals, d)
		}
	}
	return domain.OK(deals), nil
}

// PastResults returns the reported quarterly results for a symbol. An
// unknown symbol is a not-found result, kept distinct from a failed fetch.
func (s *MarketService) PastResults(ctx context.Context, symbol string) (domain.Result[domain.PastResults], error) {
	ctx, span := s.tracer.Start(ctx, "market-service.past-results")
	defer span.End()

	sym, err := requireSymbol(symbol)
	if err != nil {
		return domain.Result[domain.PastResults]{}, err
	}
	empty := domain.PastResults{Symbol: sym, Quarters: []domain.QuarterResult{}}
	notFound := fmt.Sprintf("Past results not found for %s", sym)
	failed := fmt.Sprintf("Failed to fetch past results for %s", sym)

	var raw record
	if err := s.fetcher.GetJSON(ctx, s.nsePath("/past-results/"+url.PathEscape(sym)), nil, &raw); err != nil {
		if remote.IsNotFound(err) {
			return domain.NotFound(empty, notFound), nil
		}
		log.Printf("past results fetch for %s failed: %v", sym, err)
		return domain.Failed(empty, failed), nil
	}

	switch status := strings.ToLower(raw.str("status")); status {
	case "", "success", "ok":
	case "not_found", "no_data":
		return domain.NotFound(empty, firstNonEmpty(raw.str("message"), notFound)), nil
	default:
		log.Printf("past results for %s reported status %q", sym, status)
		return domain.Failed(empty, firstNonEmpty(raw.str("message", "reason", "error"), failed)), nil
	}

	rows := raw.list("resCmpData")
	if data := raw.sub("data"); data != nil {
		rows = data.list("resCmpData")
	}
	if len(rows) == 0 {
		return domain.NotFound(empty, notFound), nil
	}

	out := domain.PastResults{Symbol: firstNonEmpty(normalizeSymbol(raw.str("symbol")), sym)}
	for _, row := range rows {
		out.Quarters = append(out.Quarters, normalizeQuarter(row))
	}
	return domain.OK(out), nil
}
