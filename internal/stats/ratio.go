package stats

import (
	"math"
	"strconv"
)

// Ratio is a percentage that may not be computable.
type Ratio struct {
	Value float64
	Valid bool
}

// Percent returns num/den*100, or an invalid Ratio when den is zero or
// either operand is not finite.
func Percent(num, den float64) Ratio {
	if den == 0 || !finite(den) || !finite(num) {
		return Ratio{}
	}
	return Ratio{Value: num / den * 100, Valid: true}
}

// Below reports whether the ratio is computable and under threshold.
func (r Ratio) Below(threshold float64) bool {
	return r.Valid && r.Value < threshold
}

func (r Ratio) String() string {
	if !r.Valid {
		return "n/a"
	}
	return strconv.FormatFloat(r.Value, 'f', 2, 64)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
