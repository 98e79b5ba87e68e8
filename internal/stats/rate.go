package stats

import "math"

// Rate returns numerator/denominator as a percentage rounded to one decimal,
// or 0 when the denominator is not positive.
func Rate(numerator, denominator int) float64 {
	if denominator <= 0 {
		return 0
	}
	return round1(float64(numerator) / float64(denominator) * 100)
}

// round1 rounds half away from zero to one decimal place.
func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
