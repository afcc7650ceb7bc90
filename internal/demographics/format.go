package demographics

import (
	"math"
	"strconv"
)

// FormatNumber renders a statistic in its shortest exact decimal form:
// integers without a fraction, other values with as many digits as needed.
func FormatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatPercent renders a share in [0,1] as a percentage with one decimal.
func FormatPercent(v float64) string {
	return strconv.FormatFloat(v*100, 'f', 1, 64) + "%"
}
