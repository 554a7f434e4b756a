package core

import "strconv"

// FormatAmount renders v with exactly two decimal places, no grouping.
//
// Examples:
//
//	FormatAmount(5)      -> "5.00"
//	FormatAmount(120.5)  -> "120.50"
//	FormatAmount(-3.5)   -> "-3.50"
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// FormatDollars prefixes FormatAmount with a dollar sign. The sign of a
// negative value follows the symbol: -3.5 -> "$-3.50".
func FormatDollars(v float64) string {
	return "$" + FormatAmount(v)
}
