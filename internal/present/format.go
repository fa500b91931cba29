package present

import (
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// CurrencySymbol prefixes every formatted ringgit amount.
const CurrencySymbol = "RM"

// amount renders |v| rounded to two decimals with thousands separators.
func amount(v decimal.Decimal) string {
	f, _ := v.Abs().Round(2).Float64()
	return humanize.FormatFloat("#,###.##", f)
}

// FormatCurrency renders v as "RM 3,912.00" (negative: "-RM 12.00").
func FormatCurrency(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
	}
	return sign + CurrencySymbol + " " + amount(d)
}

// FormatChange renders a price change as "+12.00" or "-12.00".
// Zero counts as positive.
func FormatChange(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	if d.IsNegative() {
		return "-" + amount(d)
	}
	return "+" + amount(d)
}

// FormatPercent renders a percentage as "+0.31%" or "-0.31%".
func FormatPercent(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	if d.IsNegative() {
		return d.StringFixed(2) + "%"
	}
	return "+" + d.StringFixed(2) + "%"
}
