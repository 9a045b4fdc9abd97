package tui

import (
	"fmt"
	"strings"

	"sharada-markets/internal/domain"
	"sharada-markets/internal/format"
	"sharada-markets/internal/job"

	"github.com/charmbracelet/lipgloss"
)

func snapshotOf[T any](snaps map[string]any, name string) (job.Snapshot[T], bool) {
	s, ok := snaps[name].(job.Snapshot[T])
	return s, ok
}

func (m *AppModel) View() string {
	var b strings.Builder
	user := m.svc.Username
	if user == "" {
		user = "guest"
	}
	b.WriteString(titleStyle.Render("Sharada Markets") + helpStyle.Render("  "+user) + "\n")

	tabs := make([]string, len(tabNames))
	for i, name := range tabNames {
		if tab(i) == m.active {
			tabs[i] = activeTabStyle.Render(name)
		} else {
			tabs[i] = tabStyle.Render(name)
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...) + "\n\n")

	switch m.active {
	case tabMarket:
		b.WriteString(m.marketView())
	case tabActivity:
		b.WriteString(m.activityView())
	case tabNews:
		b.WriteString(m.newsView())
	case tabSIP:
		b.WriteString(sectionStyle.Render("SIP calculator") + "\n\n" + m.sip.view())
	case tabFD:
		b.WriteString(sectionStyle.Render("Fixed deposit calculator") + "\n\n" + m.fd.view())
	}

	help := "tab/shift+tab switch • r refresh • q quit"
	if m.isCalculator() {
		help = "tab/shift+tab switch • up/down field • enter calculate • ctrl+c quit"
	}
	b.WriteString("\n\n" + helpStyle.Render(help))
	return b.String()
}

// status renders the loading/error/fallback line for a widget.
func status[T any](s job.Snapshot[T], ok bool) string {
	switch {
	case !ok || s.State == job.StateIdle:
		return helpStyle.Render("loading...")
	case s.State == job.StateError:
		return errorStyle.Render("update failed: " + s.Err)
	case s.Kind == domain.KindFallback:
		return noteStyle.Render("live data unavailable, showing sample data")
	case s.Loading:
		return helpStyle.Render("refreshing...")
	}
	return ""
}

func withStatus(b *strings.Builder, line string) {
	if line != "" {
		b.WriteString(line + "\n")
	}
}

func (m *AppModel) marketView() string {
	var b strings.Builder

	b.WriteString(sectionStyle.Render("Indices") + "\n")
	idx, ok := snapshotOf[map[string]domain.Quote](m.snaps, job.WidgetIndices)
	withStatus(&b, status(idx, ok))
	for _, sym := range domain.SupportedIndices {
		q, found := idx.Data[sym]
		if !found {
			continue
		}
		if q.Status != domain.QuoteOK {
			fmt.Fprintf(&b, "%-10s %s\n", sym, format.NotAvailable)
			continue
		}
		fmt.Fprintf(&b, "%-10s %12s  %s\n", sym, format.Number(q.Price, format.DefaultNumber),
			changeStyle(q.Change).Render(fmt.Sprintf("%+.2f (%s)", q.Change, format.Percentage(q.ChangePercent, 2))))
	}

	gainers, gok := snapshotOf[[]domain.RankedMover](m.snaps, job.WidgetGainers)
	losers, lok := snapshotOf[[]domain.RankedMover](m.snaps, job.WidgetLosers)
	left := moversBlock("Top gainers", gainers, gok)
	right := moversBlock("Top losers", losers, lok)
	b.WriteString("\n" + lipgloss.JoinHorizontal(lipgloss.Top, left, "    ", right))
	return b.String()
}

func moversBlock(title string, s job.Snapshot[[]domain.RankedMover], ok bool) string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render(title) + "\n")
	withStatus(&b, status(s, ok))
	for i, mv := range s.Data {
		if i == 5 {
			break
		}
		fmt.Fprintf(&b, "%-12s %10s %s\n", mv.Symbol, format.Currency(mv.Price),
			percentStyle(mv.ChangePercent).Render(format.Percentage(mv.ChangePercent, 2)))
	}
	return b.String()
}

func (m *AppModel) activityView() string {
	var b strings.Builder

	b.WriteString(sectionStyle.Render("Institutional activity") + "\n")
	flows, ok := snapshotOf[domain.FIIDII](m.snaps, job.WidgetFIIDII)
	withStatus(&b, status(flows, ok))
	if ok && flows.State != job.StateIdle {
		if flows.Data.Date != "" {
			b.WriteString(helpStyle.Render(flows.Data.Date) + "\n")
		}
		for _, row := range []struct {
			name string
			flow domain.InstitutionalFlow
		}{{"FII", flows.Data.FII}, {"DII", flows.Data.DII}} {
			net := row.flow.Net()
			fmt.Fprintf(&b, "%-4s buy %-12s sell %-12s net %s\n", row.name,
				format.Crores(row.flow.Buy), format.Crores(row.flow.Sell), changeStyle(net).Render(format.Crores(net)))
		}
	}

	b.WriteString("\n" + sectionStyle.Render("Put/Call ratio") + "\n")
	pcr, pok := snapshotOf[domain.PCRSet](m.snaps, job.WidgetPCR)
	withStatus(&b, status(pcr, pok))
	if pok && len(pcr.Data.Entries) > 0 {
		st := pcr.Data.Stats
		fmt.Fprintf(&b, "avg %.2f  min %.2f  max %.2f  symbols %d  (%s)\n",
			st.Avg, st.Min, st.Max, st.TotalSymbols, strings.ReplaceAll(string(domain.PCRSentiment(st.Avg)), "_", " "))
		for _, e := range pcr.Data.View(5, domain.SortDesc) {
			fmt.Fprintf(&b, "%-12s %.2f\n", e.Symbol, e.PCR)
		}
	}
	return b.String()
}

func (m *AppModel) newsView() string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("Market news") + "\n")
	news, ok := snapshotOf[[]domain.NewsItem](m.snaps, job.WidgetNews)
	withStatus(&b, status(news, ok))

	width := m.width - 4
	if width < 40 {
		width = 80
	}
	now := m.now()
	for i, n := range news.Data {
		if i == 8 {
			break
		}
		fmt.Fprintf(&b, "%s\n", format.Truncate(n.TitleEn, width))
		if n.TitleMr != "" {
			fmt.Fprintf(&b, "%s\n", helpStyle.Render(format.Truncate(n.TitleMr, width)))
		}
		fmt.Fprintf(&b, "%s\n\n", helpStyle.Render(fmt.Sprintf("%s • %s • %s", n.Source, n.Category, format.RelativeTime(n.PublishedAt, now))))
	}
	return strings.TrimRight(b.String(), "\n")
}
