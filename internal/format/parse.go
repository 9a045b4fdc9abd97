package format

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

var amountReplacer = strings.NewReplacer(",", "", "₹", "", " ", "", " ", "")

// ParseAmount converts upstream numeric values to float64. Strings may carry
// thousands separators or a rupee sign ("1,23,456.78", "₹ 2,500"). The
// second result is false for nil, empty or unparseable input.
func ParseAmount(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		return ParseAmount(n.String())
	case string:
		s := amountReplacer.Replace(strings.TrimSpace(n))
		if s == "" || s == "-" {
			return 0, false
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return 0, false
		}
		return d.InexactFloat64(), true
	}
	return 0, false
}
