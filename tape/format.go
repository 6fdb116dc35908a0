package tape

import (
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
)

// FormatAmount abbreviates a dollar amount for the console line:
// millions and thousands are floored to one decimal with a trailing
// ".0" dropped, smaller amounts are comma grouped with two decimals.
func FormatAmount(amount float64) string {
	switch {
	case amount >= 1e6:
		return formatScaled(amount/1e6) + " million"
	case amount >= 1e3:
		return formatScaled(amount/1e3) + "K"
	default:
		return humanize.FormatFloat("#,###.##", amount)
	}
}

func formatScaled(v float64) string {
	floored := math.Floor(v*10) / 10
	return strconv.FormatFloat(floored, 'f', -1, 64)
}
