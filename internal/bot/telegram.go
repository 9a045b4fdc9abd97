// Package bot serves market updates and calculators over Telegram.
package bot

import (
	"context"
	"fmt"
	"errors"
	"log"
	"sort"
	"strings"
	"time"

	"sharada-markets/internal/calculator"
	"sharada-markets/internal/domain"
	"sharada-markets/internal/format"

	tele "gopkg.in/telebot.v3"
)

const sampleDataNote = "Live data unavailable, showing sample data."

// Market is the data the bot reports on.
type Market interface {
	Quote(ctx context.Context, symbol string) (domain.Result[domain.Quote], error)
	AllIndexQuotes(ctx context.Context) domain.Result[map[string]domain.Quote]
	TopGainers(ctx context.Context, exchange string) domain.Result[[]domain.RankedMover]
	TopLosers(ctx context.Context, exchange string) domain.Result[[]domain.RankedMover]
	FIIDII(ctx context.Context) domain.Result[domain.FIIDII]
	PutCallRatio(ctx context.Context, limit int) domain.Result[domain.PCRSet]
	MarketNews(ctx context.Context, limit int) domain.Result[[]domain.NewsItem]
	BulkDeals(ctx context.Context, from, to time.Time) (domain.Result[[]domain.Deal], error)
	BlockDeals(ctx context.Context, from, to time.Time) (domain.Result[[]domain.Deal], error)
}

// Commands renders replies for every bot command. It has no Telegram
// dependency so replies can be produced and checked directly.
type Commands struct {
	market  Market
	now     func() time.Time
	timeout time.Duration
}

func NewCommands(market Market) *Commands {
	return &Commands{market: market, now: time.Now, timeout: 15 * time.Second}
}

// Names lists the registered commands in help order.
func (c *Commands) Names() []string {
	return []string{"/ping", "/quote", "/indices", "/gainers", "/losers", "/fiidii", "/pcr", "/news", "/deals", "/sip", "/fd"}
}

// Reply answers one command. Unknown commands get the help text.
func (c *Commands) Reply(ctx context.Context, command string, args []string) string {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	switch strings.ToLower(strings.TrimPrefix(command, "/")) {
	case "ping":
		return "pong"
	case "quote":
		return c.quote(ctx, args)
	case "indices":
		return c.indices(ctx)
	case "gainers":
		res := c.market.TopGainers(ctx, domain.DefaultExchange)
		return moversReply("Top gainers", res)
	case "losers":
		res := c.market.TopLosers(ctx, domain.DefaultExchange)
		return moversReply("Top losers", res)
	case "fiidii":
		return fiidiiReply(c.market.FIIDII(ctx))
	case "pcr":
		return pcrReply(c.market.PutCallRatio(ctx, domain.PCRFullSetLimit))
	case "news":
		return newsReply(c.market.MarketNews(ctx, 5), c.now())
	case "deals":
		return c.deals(ctx, args)
	case "sip":
		return sipReply(args)
	case "fd":
		return fdReply(args)
	}
	return "Commands: " + strings.Join(c.Names(), " ")
}

func (c *Commands) quote(ctx context.Context, args []string) string {
	if len(args) == 0 {
		return "Usage: /quote RELIANCE"
	}
	res, err := c.market.Quote(ctx, args[0])
	if err != nil {
		return err.Error()
	}
	q := res.Value
	msg := fmt.Sprintf("%s (%s)\nPrice: %s\nChange: %+.2f (%s)",
		q.Symbol, q.Exchange, format.Currency(q.Price), q.Change, format.Percentage(q.ChangePercent, 2))
	return withNote(msg, res.Kind)
}

func (c *Commands) indices(ctx context.Context) string {
	res := c.market.AllIndexQuotes(ctx)
	if res.Kind == domain.KindError {
		return "Could not load index quotes right now."
	}
	var b strings.Builder
	for _, sym := range domain.SupportedIndices {
		q, ok := res.Value[sym]
		if !ok {
			continue
		}
		if q.Status != domain.QuoteOK {
			fmt.Fprintf(&b, "%s: %s\n", sym, format.NotAvailable)
			continue
		}
		fmt.Fprintf(&b, "%s: %s (%s)\n", sym, format.Number(q.Price, format.DefaultNumber), format.Percentage(q.ChangePercent, 2))
	}
	if b.Len() == 0 {
		return "No index quotes available."
	}
	return strings.TrimRight(b.String(), "\n")
}

// deals reports the largest bulk or block deals of the last week.
func (c *Commands) deals(ctx context.Context, args []string) string {
	kind := domain.BulkDeal
	if len(args) > 0 {
		kind = domain.DealKind(strings.ToLower(args[0]))
	}
	var (
		res domain.Result[[]domain.Deal]
		err error
	)
	switch kind {
	case domain.BulkDeal:
		res, err = c.market.BulkDeals(ctx, time.Time{}, time.Time{})
	case domain.BlockDeal:
		res, err = c.market.BlockDeals(ctx, time.Time{}, time.Time{})
	default:
		return "Usage: /deals [bulk|block]"
	}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	if err != nil || res.Kind == domain.KindError {
		return fmt.Sprintf("Could not load %s deals right now.", kind)
	}
	return dealsReply(kind, res)
}

func dealsReply(kind domain.DealKind, res domain.Result[[]domain.Deal]) string {
	if len(res.Value) == 0 {
		return fmt.Sprintf("No %s deals in the last week.", kind)
	}
	deals := append([]domain.Deal(nil), res.Value...)
	sort.SliceStable(deals, func(i, j int) bool { return deals[i].Value() > deals[j].Value() })

	var b strings.Builder
	fmt.Fprintf(&b, "Largest %s deals", kind)
	for i, d := range deals {
		if i == 5 {
			break
		}
		side := "SELL"
		if d.IsBuy() {
			side = "BUY"
		}
		fmt.Fprintf(&b, "\n%d. %s %s %s by %s (%s)", i+1, side, d.Symbol,
			format.Number(d.Value(), format.NumberOptions{Decimals: 2, Compact: true, Prefix: "₹"}), d.ClientName, d.Date)
	}
	return withNote(b.String(), res.Kind)
}

func moversReply(title string, res domain.Result[[]domain.RankedMover]) string {
	if res.Kind == domain.KindError || len(res.Value) == 0 {
		return "No " + strings.ToLower(title) + " available right now."
	}
	var b strings.Builder
	b.WriteString(title)
	for i, m := range res.Value {
		if i == 5 {
			break
		}
		fmt.Fprintf(&b, "\n%d. %s %s (%s)", i+1, m.Symbol, format.Currency(m.Price), format.Percentage(m.ChangePercent, 2))
	}
	return withNote(b.String(), res.Kind)
}

func fiidiiReply(res domain.Result[domain.FIIDII]) string {
	if res.Kind == domain.KindError {
		return "Could not load FII/DII activity right now."
	}
	f := res.Value
	line := func(name string, flow domain.InstitutionalFlow) string {
		bias := "net sellers"
		if flow.Bullish() {
			bias = "net buyers"
		}
		return fmt.Sprintf("%s: buy %s, sell %s, net %s (%s)",
			name, format.Crores(flow.Buy), format.Crores(flow.Sell), format.Crores(flow.Net()), bias)
	}
	msg := fmt.Sprintf("FII/DII activity %s\n%s\n%s", f.Date, line("FII", f.FII), line("DII", f.DII))
	return withNote(msg, res.Kind)
}

func pcrReply(res domain.Result[domain.PCRSet]) string {
	if res.Kind == domain.KindError || len(res.Value.Entries) == 0 {
		return "Put/call ratio data is unavailable right now."
	}
	s := res.Value.Stats
	var b strings.Builder
	fmt.Fprintf(&b, "Put/Call ratio (%d symbols)\nAverage: %.2f (%s)\nRange: %.2f - %.2f\nHighest:",
		s.TotalSymbols, s.Avg, sentimentLabel(domain.PCRSentiment(s.Avg)), s.Min, s.Max)
	for _, e := range res.Value.View(3, domain.SortDesc) {
		fmt.Fprintf(&b, "\n%s %.2f", e.Symbol, e.PCR)
	}
	return b.String()
}

func sentimentLabel(s domain.Sentiment) string {
	return format.TitleCase(strings.ReplaceAll(string(s), "_", " "))
}

func newsReply(res domain.Result[[]domain.NewsItem], now time.Time) string {
	if len(res.Value) == 0 {
		return "No market news right now."
	}
	var b strings.Builder
	for i, n := range res.Value {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "%s\n%s | %s", n.TitleEn, n.Source, format.RelativeTime(n.PublishedAt, now))
		if n.URL != "" {
			b.WriteString("\n" + n.URL)
		}
	}
	return withNote(b.String(), res.Kind)
}

func sipReply(args []string) string {
	const usage = "Usage: /sip MONTHLY RETURN% YEARS, e.g. /sip 5000 12 10"
	nums, ok := parseArgs(args, 3)
	if !ok {
		return usage
	}
	in := calculator.SIPInput{Monthly: nums[0], AnnualReturnPct: nums[1], Years: nums[2]}
	if err := in.Validate(); err != nil {
		return err.Error()
	}
	r := calculator.SIP(in)
	return fmt.Sprintf("SIP of %s/month for %.0f years at %.1f%%\nInvested: %s\nFuture value: %s\nReturns: %s (%s)",
		format.CurrencyDigits(in.Monthly, 0), in.Years, in.AnnualReturnPct,
		format.CurrencyDigits(r.TotalInvestment, 0), format.CurrencyDigits(r.FutureValue, 0),
		format.CurrencyDigits(r.TotalReturns, 0), format.Percentage(r.ReturnPct, 1))
}

func fdReply(args []string) string {
	const usage = "Usage: /fd PRINCIPAL RATE% TENURE [years|months], e.g. /fd 100000 7 5"
	unit := calculator.Years
	if len(args) == 4 {
		unit = calculator.TenureUnit(strings.ToLower(args[3]))
		if unit != calculator.Years && unit != calculator.Months {
			return usage
		}
		args = args[:3]
	}
	nums, ok := parseArgs(args, 3)
	if !ok {
		return usage
	}
	in := calculator.FDInput{Principal: nums[0], RatePct: nums[1], Tenure: nums[2], Unit: unit}
	if err := in.Validate(); err != nil {
		return err.Error()
	}
	r := calculator.FD(in)
	return fmt.Sprintf("FD of %s at %.2f%% for %g %s\nMaturity: %s\nInterest: %s\nEffective rate: %.2f%%",
		format.CurrencyDigits(in.Principal, 0), in.RatePct, in.Tenure, unit,
		format.Currency(r.MaturityAmount), format.Currency(r.Interest), r.EffectiveRate)
}

func parseArgs(args []string, n int) ([]float64, bool) {
	if len(args) != n {
		return nil, false
	}
	out := make([]float64, n)
	for i, a := range args {
		v, ok := format.ParseAmount(a)
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func withNote(msg string, kind domain.Kind) string {
	if kind == domain.KindFallback {
		return msg + "\n\n" + sampleDataNote
	}
	return msg
}

// StartTelegramBot long-polls Telegram until ctx is done. Without a token
// the bot is skipped.
func StartTelegramBot(ctx context.Context, token string, market Market) {
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Printf("failed to create Telegram bot: %v", err)
		return
	}

	cmds := NewCommands(market)
	for _, name := range cmds.Names() {
		name := name
		b.Handle(name, func(c tele.Context) error {
			return c.Send(cmds.Reply(ctx, name, c.Args()))
		})
	}

	log.Println("Telegram bot started")
	go b.Start()
	go func() {
		<-ctx.Done()
		b.Stop()
	}()
}
