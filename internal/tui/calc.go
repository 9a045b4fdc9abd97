package tui

import (
	"fmt"
	"strings"

	"sharada-markets/internal/calculator"
	"sharada-markets/internal/format"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// calcForm is a column of numeric inputs evaluated on enter.
type calcForm struct {
	labels  []string
	inputs  []textinput.Model
	focus   int
	result  string
	err     string
	compute func(vals []float64) (string, error)
}

func newCalcForm(labels, defaults []string, compute func([]float64) (string, error)) calcForm {
	f := calcForm{labels: labels, compute: compute}
	for i := range labels {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 12
		in.Width = 14
		in.SetValue(defaults[i])
		f.inputs = append(f.inputs, in)
	}
	f.inputs[0].Focus()
	return f
}

func newSIPForm() calcForm {
	return newCalcForm(
		[]string{"Monthly investment (₹)", "Expected return (% p.a.)", "Period (years)"},
		[]string{"5000", "12", "10"},
		func(v []float64) (string, error) {
			in := calculator.SIPInput{Monthly: v[0], AnnualReturnPct: v[1], Years: v[2]}
			if err := in.Validate(); err != nil {
				return "", err
			}
			r := calculator.SIP(in)
			var b strings.Builder
			fmt.Fprintf(&b, "Invested      %s\n", format.CurrencyDigits(r.TotalInvestment, 0))
			fmt.Fprintf(&b, "Future value  %s\n", format.CurrencyDigits(r.FutureValue, 0))
			fmt.Fprintf(&b, "Returns       %s (%s)", format.CurrencyDigits(r.TotalReturns, 0), format.Percentage(r.ReturnPct, 1))
			for _, y := range calculator.SIPSchedule(in) {
				if y.Year%5 == 0 || y.Year == int(in.Years) {
					fmt.Fprintf(&b, "\n  year %2d  %s", y.Year, format.Number(y.Value, format.NumberOptions{Decimals: 2, Compact: true, Prefix: "₹"}))
				}
			}
			return b.String(), nil
		},
	)
}

func newFDForm() calcForm {
	return newCalcForm(
		[]string{"Principal (₹)", "Interest rate (% p.a.)", "Tenure (years)"},
		[]string{"100000", "7", "5"},
		func(v []float64) (string, error) {
			in := calculator.FDInput{Principal: v[0], RatePct: v[1], Tenure: v[2], Unit: calculator.Years}
			if err := in.Validate(); err != nil {
				return "", err
			}
			r := calculator.FD(in)
			return fmt.Sprintf("Maturity      %s\nInterest      %s\nTotal return  %.2f%% over %.0f quarters",
				format.Currency(r.MaturityAmount), format.Currency(r.Interest), r.EffectiveRate, r.Quarters), nil
		},
	)
}

func (f calcForm) update(msg tea.KeyMsg) (calcForm, tea.Cmd) {
	switch msg.String() {
	case "up":
		return f.move(-1), nil
	case "down":
		return f.move(1), nil
	case "enter":
		f.evaluate()
		return f, nil
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

func (f calcForm) move(delta int) calcForm {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + len(f.inputs)) % len(f.inputs)
	f.inputs[f.focus].Focus()
	return f
}

func (f *calcForm) evaluate() {
	vals := make([]float64, len(f.inputs))
	for i, in := range f.inputs {
		v, ok := format.ParseAmount(in.Value())
		if !ok {
			f.result = ""
			f.err = fmt.Sprintf("%s: enter a number", f.labels[i])
			return
		}
		vals[i] = v
	}
	out, err := f.compute(vals)
	if err != nil {
		f.result = ""
		f.err = err.Error()
		return
	}
	f.err = ""
	f.result = out
}

func (f calcForm) view() string {
	var b strings.Builder
	for i, in := range f.inputs {
		cursor := "  "
		if i == f.focus {
			cursor = titleStyle.Render("> ")
		}
		fmt.Fprintf(&b, "%s%-26s %s\n", cursor, f.labels[i], in.View())
	}
	b.WriteString("\n")
	switch {
	case f.err != "":
		b.WriteString(errorStyle.Render(f.err))
	case f.result != "":
		b.WriteString(boxStyle.Render(f.result))
	default:
		b.WriteString(helpStyle.Render("press enter to calculate"))
	}
	return b.String()
}
