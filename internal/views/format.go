package views

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// FormatMoney renders whole dollars with thousands separators: "$84,500".
func FormatMoney(v decimal.Decimal) string {
	return "$" + humanize.Comma(v.Round(0).IntPart())
}

// FormatCount renders an integer with thousands separators: "12,847".
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}

// FormatCompact renders counts of a thousand or more as "3.2K".
func FormatCompact(n int) string {
	if n < 1000 {
		return strconv.Itoa(n)
	}
	s := strconv.FormatFloat(float64(n)/1000, 'f', 1, 64)
	return strings.TrimSuffix(s, ".0") + "K"
}

// FormatChange renders a signed percentage: "+3.2%", "-1.5%", "0.0%".
func FormatChange(pct float64) string {
	if pct > 0 {
		return fmt.Sprintf("+%.1f%%", pct)
	}
	return fmt.Sprintf("%.1f%%", pct)
}

// FormatPercent renders a fraction as a whole percentage: 0.35 -> "35%".
func FormatPercent(fraction float64) string {
	return fmt.Sprintf("%.0f%%", fraction*100)
}

// Title capitalizes an enumeration value for display: "available" -> "Available".
func Title(s string) string {
	return titleCaser.String(s)
}
