// Package core holds the dashboard domain model, its validation rules and the
// error taxonomy shared by storage, services and transport.
package core

import "math"

// Round rounds x half away from zero to the given number of decimals.
func Round(x float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(x*p) / p
}

// Percent returns part/whole*100, or 0 when whole is not positive. The result
// is never NaN or Inf.
func Percent(part, whole float64) float64 {
	if whole <= 0 || math.IsNaN(part) || math.IsInf(part, 0) {
		return 0
	}
	return part / whole * 100
}
