// Package format renders numbers, money, dates and text for display and
// validates simple user input.
package format

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const NotAvailable = "N/A"

// Location is the zone dates and times are rendered in.
var Location = time.FixedZone("IST", 5*60*60+30*60)

type NumberOptions struct {
	Decimals int
	Prefix   string
	Suffix   string
	Compact  bool
}

var DefaultNumber = NumberOptions{Decimals: 2}

var compactUnits = []struct {
	size float64
	unit string
}{
	{1e7, "Cr"},
	{1e5, "L"},
	{1e3, "K"},
}

// Number formats n with fixed decimals. Compact mode scales values of at
// least a thousand into K, L (lakh) or Cr (crore) units.
func Number(n float64, opts NumberOptions) string {
	if !finite(n) {
		return NotAvailable
	}
	if opts.Compact && math.Abs(n) >= 1000 {
		for _, u := range compactUnits {
			if math.Abs(n) >= u.size {
				return opts.Prefix + fixed(n/u.size, opts.Decimals) + u.unit + opts.Suffix
			}
		}
	}
	return opts.Prefix + fixed(n, opts.Decimals) + opts.Suffix
}

// Currency formats an INR amount with two decimals and Indian digit grouping,
// e.g. ₹1,23,456.78.
func Currency(amount float64) string {
	return CurrencyDigits(amount, 2)
}

// CurrencyDigits is Currency with a caller-chosen number of decimals.
func CurrencyDigits(amount float64, digits int) string {
	if !finite(amount) {
		return NotAvailable
	}
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	s := fixed(amount, digits)
	intPart, frac, hasFrac := strings.Cut(s, ".")
	out := sign + "₹" + groupIndian(intPart)
	if hasFrac {
		out += "." + frac
	}
	return out
}

// Crores renders an amount already denominated in crores, switching to
// thousands of crores from 1,000 upward.
func Crores(n float64) string {
	if !finite(n) {
		return NotAvailable
	}
	if math.Abs(n) >= 1000 {
		return fmt.Sprintf("₹%sK Cr", fixed(n/1000, 2))
	}
	return fmt.Sprintf("₹%s Cr", fixed(n, 2))
}

// Percentage renders v with an explicit sign for non-negative values.
func Percentage(v float64, decimals int) string {
	if !finite(v) {
		return NotAvailable
	}
	sign := ""
	if v >= 0 {
		sign = "+"
	}
	return sign + fixed(v, decimals) + "%"
}

type DateOptions struct {
	Long        bool
	IncludeTime bool
}

// Date renders t as "15 Jan 2024" (or "15 January 2024" when Long), with an
// optional ", 10:30 am" suffix.
func Date(t time.Time, opts DateOptions) string {
	if t.IsZero() {
		return NotAvailable
	}
	layout := "2 Jan 2006"
	if opts.Long {
		layout = "2 January 2006"
	}
	if opts.IncludeTime {
		layout += ", 03:04 pm"
	}
	return t.In(Location).Format(layout)
}

func Time(t time.Time) string {
	if t.IsZero() {
		return NotAvailable
	}
	return t.In(Location).Format("03:04 pm")
}

// RelativeTime describes how long before now t happened. Anything older than
// thirty days falls back to a short date.
func RelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return NotAvailable
	}
	secs := int64(now.Sub(t) / time.Second)
	switch {
	case secs < 60:
		return "Just now"
	case secs < 3600:
		return fmt.Sprintf("%dm ago", secs/60)
	case secs < 86400:
		return fmt.Sprintf("%dh ago", secs/3600)
	case secs < 2592000:
		return fmt.Sprintf("%dd ago", secs/86400)
	}
	return Date(t, DateOptions{})
}

func Truncate(text string, maxLength int) string {
	if utf8.RuneCountInString(text) <= maxLength {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:maxLength])) + "..."
}

func CapitalizeFirst(text string) string {
	if text == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(text)
	return strings.ToUpper(string(r)) + strings.ToLower(text[size:])
}

var titleCaser = cases.Title(language.English)

func TitleCase(text string) string {
	return titleCaser.String(strings.ToLower(text))
}

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[6-9]\d{9}$`)
	nonDigit     = regexp.MustCompile(`\D`)
)

func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// IsValidPhone accepts ten-digit Indian mobile numbers, ignoring separators.
func IsValidPhone(phone string) bool {
	return phonePattern.MatchString(nonDigit.ReplaceAllString(phone, ""))
}

func IsValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return false
	}
	return u.Host != "" || u.Opaque != ""
}

const (
	ColorGreen     = "#22c55e"
	ColorDarkGreen = "#16a34a"
	ColorGolden    = "#f59e0b"
	ColorOrange    = "#f97316"
	ColorRed       = "#ef4444"
	ColorGray      = "#6b7280"
)

func ColorForChange(change float64) string {
	switch {
	case change > 0:
		return ColorGreen
	case change < 0:
		return ColorRed
	}
	return ColorGray
}

func ColorForPercentage(pct float64) string {
	switch {
	case pct > 5:
		return ColorGreen
	case pct > 2:
		return ColorDarkGreen
	case pct > -2:
		return ColorGolden
	case pct > -5:
		return ColorOrange
	}
	return ColorRed
}

const (
	whatsAppSendURL     = "https://api.whatsapp.com/send"
	DefaultShareMessage = "Check out this market update from Sharada Financial Services:"
)

// WhatsAppShareURL builds a click-to-share link carrying text and link.
func WhatsAppShareURL(text, link string) string {
	msg := strings.TrimSpace(text + " " + link)
	return whatsAppSendURL + "?" + url.Values{"text": {msg}}.Encode()
}

func fixed(n float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	return decimal.NewFromFloat(n).StringFixed(int32(decimals))
}

func finite(n float64) bool {
	return !math.IsNaN(n) && !math.IsInf(n, 0)
}

// groupIndian inserts separators after the last three digits and then every
// two digits: 1234567 -> 12,34,567.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	if head != "" {
		parts = append([]string{head}, parts...)
	}
	return strings.Join(parts, ",") + "," + tail
}
