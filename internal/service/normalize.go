package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"sharada-markets/internal/domain"
	"sharada-markets/internal/format"
)

// Field aliases in priority order; the first populated alias wins.
var (
	symbolKeys        = []string{"symbol", "SYMBOL", "tradingSymbol"}
	priceKeys         = []string{"price", "ltp", "c", "lastPrice"}
	changeKeys        = []string{"change", "netChange", "d"}
	changePercentKeys = []string{"changePercent", "percentChange", "pChange", "dp"}
	openKeys          = []string{"open", "o"}
	highKeys          = []string{"high", "h"}
	lowKeys           = []string{"low", "l"}
	closeKeys         = []string{"close", "previousClose", "prevClose", "pc"}
	buyKeys           = []string{"buy", "buyValue"}
	sellKeys          = []string{"sell", "sellValue"}

	dealSymbolKeys = []string{"SYMBOL", "symbol"}
	dealClientKeys = []string{"CLIENT_NAME", "client_name"}
	dealSideKeys   = []string{"BUY_SELL", "buy_sell"}
	dealQtyKeys    = []string{"QTY_TRADED", "qty_traded", "QUANTITY", "quantity"}
	dealPriceKeys  = []string{"TRADE_PRICE", "trade_price", "PRICE", "price"}
	dealDateKeys   = []string{"DATE", "date"}
)

// record is one loosely-typed upstream JSON object.
type record map[string]any

func (r record) str(keys ...string) string {
	for _, k := range keys {
		v, ok := r[k]
		if !ok || v == nil {
			continue
		}
		var s string
		switch t := v.(type) {
		case string:
			s = strings.TrimSpace(t)
		case json.Number:
			s = t.String()
		case float64:
			s = fmt.Sprint(t)
		default:
			continue
		}
		if s != "" {
			return s
		}
	}
	return ""
}

func (r record) num(keys ...string) (float64, bool) {
	for _, k := range keys {
		if n, ok := format.ParseAmount(r[k]); ok {
			return n, true
		}
	}
	return 0, false
}

func (r record) float(keys ...string) float64 {
	n, _ := r.num(keys...)
	return n
}

func (r record) sub(keys ...string) record {
	for _, k := range keys {
		if m, ok := r[k].(map[string]any); ok {
			return record(m)
		}
	}
	return nil
}

func (r record) list(key string) []record {
	raw, ok := r[key].([]any)
	if !ok {
		return nil
	}
	return toRecords(raw)
}

func toRecords(raw []any) []record {
	out := make([]record, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			out = append(out, record(m))
		}
	}
	return out
}

// normalizeQuote maps a quote-like payload onto domain.Quote. Missing change
// fields are derived from the previous close.
func normalizeQuote(r record, fallbackSymbol string) domain.Quote {
	q := domain.Quote{
		Symbol:   r.str(symbolKeys...),
		Exchange: r.str("exchange"),
		Price:    r.float(priceKeys...),
		Open:     r.float(openKeys...),
		High:     r.float(highKeys...),
		Low:      r.float(lowKeys...),
		Status:   domain.QuoteOK,
	}
	if q.Symbol == "" {
		q.Symbol = fallbackSymbol
	}
	prevClose, hasClose := r.num(closeKeys...)
	q.PreviousClose = prevClose

	change, hasChange := r.num(changeKeys...)
	if !hasChange && hasClose && prevClose != 0 {
		change = q.Price - prevClose
	}
	q.Change = change
	if pct, ok := r.num(changePercentKeys...); ok {
		q.ChangePercent = pct
	} else {
		q.ChangePercent = domain.ChangePercentOf(q.Price, q.Change)
	}
	if !hasClose {
		q.PreviousClose = q.Price - q.Change
	}

	if strings.EqualFold(r.str("status"), "error") {
		q.Status = domain.QuoteError
		q.Error = r.str("error", "message")
	}
	if !q.Finite() {
		q.Status = domain.QuoteError
		q.Error = "non-finite value in upstream quote"
	}
	return q
}

func normalizeMover(r record) (domain.RankedMover, bool) {
	m := domain.RankedMover{
		Symbol: r.str(symbolKeys...),
		Price:  r.float(priceKeys...),
		Change: r.float(changeKeys...),
	}
	if pct, ok := r.num(changePercentKeys...); ok {
		m.ChangePercent = pct
	} else {
		m.ChangePercent = domain.ChangePercentOf(m.Price, m.Change)
	}
	return m, m.Symbol != ""
}

func normalizeFlow(r record) domain.InstitutionalFlow {
	if r == nil {
		return domain.InstitutionalFlow{}
	}
	return domain.InstitutionalFlow{
		Buy:      r.float(buyKeys...),
		Sell:     r.float(sellKeys...),
		Date:     r.str("date"),
		Category: r.str("category"),
	}
}

func normalizeDeal(r record) (domain.Deal, bool) {
	d := domain.Deal{
		Symbol:     r.str(dealSymbolKeys...),
		ClientName: r.str(dealClientKeys...),
		Side:       strings.ToUpper(r.str(dealSideKeys...)),
		Quantity:   r.float(dealQtyKeys...),
		Price:      r.float(dealPriceKeys...),
		Date:       r.str(dealDateKeys...),
	}
	return d, d.Symbol != ""
}

var (
	salesKeys  = []string{"re_net_sale", "re_total_inc"}
	profitKeys = []string{"re_net_profit", "re_con_pro_loss"}
	epsKeys    = []string{"re_basic_eps_for_cont_dic_opr", "re_dilut_eps_for_cont_dic_opr", "re_basic_eps"}
	pbtKeys    = []string{"re_pro_loss_bef_tax"}
)

func normalizeQuarter(r record) domain.QuarterResult {
	q := domain.QuarterResult{
		NetSales:        r.float(salesKeys...),
		NetProfit:       r.float(profitKeys...),
		ProfitBeforeTax: r.float(pbtKeys...),
	}
	from, to := r.str("re_from_dt"), r.str("re_to_dt")
	switch {
	case from != "" && to != "":
		q.Period = from + " to " + to
	default:
		q.Period = from + to
	}
	if eps, ok := r.num(epsKeys...); ok {
		q.EPS = &eps
	}
	if q.NetSales != 0 {
		margin := q.NetProfit / q.NetSales * 100
		q.ProfitMargin = &margin
	}
	return q
}
