package format

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"
)

func TestNumber(t *testing.T) {
	tests := []struct {
		n    float64
		opts NumberOptions
		want string
	}{
		{1234.567, DefaultNumber, "1234.57"},
		{2500, NumberOptions{Decimals: 1, Compact: true}, "2.5K"},
		{250000, NumberOptions{Decimals: 2, Compact: true}, "2.50L"},
		{32_000_000, NumberOptions{Decimals: 1, Compact: true, Prefix: "₹"}, "₹3.2Cr"},
		{-4500, NumberOptions{Decimals: 0, Compact: true}, "-5K"},
		{999, NumberOptions{Decimals: 0, Compact: true, Suffix: " units"}, "999 units"},
		{math.NaN(), DefaultNumber, NotAvailable},
	}
	for _, tt := range tests {
		if got := Number(tt.n, tt.opts); got != tt.want {
			t.Fatalf("Number(%v): expected %q, got %q", tt.n, tt.want, got)
		}
	}
}

func TestCurrencyIndianGrouping(t *testing.T) {
	tests := map[float64]string{
		0:          "₹0.00",
		999.5:      "₹999.50",
		1000:       "₹1,000.00",
		123456.78:  "₹1,23,456.78",
		10_000_000: "₹1,00,00,000.00",
		-2500:      "-₹2,500.00",
	}
	for in, want := range tests {
		if got := Currency(in); got != want {
			t.Fatalf("Currency(%v): expected %q, got %q", in, want, got)
		}
	}
	if got := CurrencyDigits(107185.9, 0); got != "₹1,07,186" {
		t.Fatalf("unexpected whole-rupee format: %s", got)
	}
	if Currency(math.Inf(1)) != NotAvailable {
		t.Fatal("infinite amount should render N/A")
	}
}

func TestCrores(t *testing.T) {
	if got := Crores(2500); got != "₹2.50K Cr" {
		t.Fatalf("unexpected: %s", got)
	}
	if got := Crores(812.456); got != "₹812.46 Cr" {
		t.Fatalf("unexpected: %s", got)
	}
}

func TestPercentage(t *testing.T) {
	if got := Percentage(1.234, 2); got != "+1.23%" {
		t.Fatalf("unexpected: %s", got)
	}
	if got := Percentage(-2.86, 2); got != "-2.86%" {
		t.Fatalf("unexpected: %s", got)
	}
	if got := Percentage(0, 1); got != "+0.0%" {
		t.Fatalf("unexpected: %s", got)
	}
}

func TestDateAndTime(t *testing.T) {
	ts := time.Date(2024, 1, 15, 5, 0, 0, 0, time.UTC) // 10:30 IST
	if got := Date(ts, DateOptions{}); got != "15 Jan 2024" {
		t.Fatalf("unexpected short date: %s", got)
	}
	if got := Date(ts, DateOptions{Long: true}); got != "15 January 2024" {
		t.Fatalf("unexpected long date: %s", got)
	}
	if got := Date(ts, DateOptions{IncludeTime: true}); got != "15 Jan 2024, 10:30 am" {
		t.Fatalf("unexpected date with time: %s", got)
	}
	if got := Time(ts.Add(5 * time.Hour)); got != "03:30 pm" {
		t.Fatalf("unexpected time: %s", got)
	}
	if Date(time.Time{}, DateOptions{}) != NotAvailable || Time(time.Time{}) != NotAvailable {
		t.Fatal("zero time should render N/A")
	}
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{30 * time.Second, "Just now"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
		{2 * 24 * time.Hour, "2d ago"},
		{40 * 24 * time.Hour, "21 Jan 2024"},
	}
	for _, tt := range tests {
		if got := RelativeTime(now.Add(-tt.ago), now); got != tt.want {
			t.Fatalf("%v ago: expected %q, got %q", tt.ago, tt.want, got)
		}
	}
}

func TestTextHelpers(t *testing.T) {
	if got := Truncate("Nifty 50 crosses 19,500", 9); got != "Nifty 50..." {
		t.Fatalf("unexpected truncate: %q", got)
	}
	if got := Truncate("short", 10); got != "short" {
		t.Fatalf("short text should be untouched: %q", got)
	}
	if got := Truncate("बँकिंग शेअर्स", 3); !strings.HasSuffix(got, "...") {
		t.Fatalf("multibyte truncate failed: %q", got)
	}
	if got := CapitalizeFirst("mUTUAL funds"); got != "Mutual funds" {
		t.Fatalf("unexpected capitalize: %q", got)
	}
	if got := TitleCase("demat ACCOUNT opening"); got != "Demat Account Opening" {
		t.Fatalf("unexpected title case: %q", got)
	}
}

func TestValidators(t *testing.T) {
	if !IsValidEmail("user@example.com") || IsValidEmail("user@example") || IsValidEmail("a b@c.d") {
		t.Fatal("email validation mismatch")
	}
	if !IsValidPhone("98765 43210") || !IsValidPhone("+91-9876543210"[3:]) || IsValidPhone("5876543210") || IsValidPhone("98765") {
		t.Fatal("phone validation mismatch")
	}
	if !IsValidURL("https://sharada.example/market-news") || !IsValidURL("mailto:desk@example.com") || IsValidURL("not a url") {
		t.Fatal("url validation mismatch")
	}
}

func TestColors(t *testing.T) {
	if ColorForChange(1) != ColorGreen || ColorForChange(-1) != ColorRed || ColorForChange(0) != ColorGray {
		t.Fatal("change color mismatch")
	}
	if ColorForPercentage(6) != ColorGreen || ColorForPercentage(3) != ColorDarkGreen ||
		ColorForPercentage(1) != ColorGolden || ColorForPercentage(-3) != ColorOrange || ColorForPercentage(-6) != ColorRed {
		t.Fatal("percentage color mismatch")
	}
}

func TestWhatsAppShareURL(t *testing.T) {
	got := WhatsAppShareURL("Nifty up 1%", "https://example.com/a?b=c")
	want := "https://api.whatsapp.com/send?text=Nifty+up+1%25+https%3A%2F%2Fexample.com%2Fa%3Fb%3Dc"
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   any
		want float64
		ok   bool
	}{
		{"1,23,456.78", 123456.78, true},
		{"₹ 2,500", 2500, true},
		{" -1,200.5 ", -1200.5, true},
		{42.5, 42.5, true},
		{7, 7, true},
		{json.Number("19,350"), 19350, true},
		{"", 0, false},
		{"-", 0, false},
		{"abc", 0, false},
		{nil, 0, false},
		{true, 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseAmount(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("ParseAmount(%#v): expected (%v,%v), got (%v,%v)", tt.in, tt.want, tt.ok, got, ok)
		}
	}
}
