// Package nmath provides guarded numeric helpers shared by the motion
// planning formulas. The planner never traps floating point faults; every
// division and square root goes through one of these helpers instead of an
// ad hoc guard at the call site.
package nmath

import "math"

// SafeDiv returns num/den, or fallback when den is zero.
func SafeDiv(num, den, fallback float64) float64 {
	if den == 0.0 {
		return fallback
	}
	return num / den
}

// ClampNonneg floors small negative residues from floating point
// subtraction at zero.
func ClampNonneg(v float64) float64 {
	if v < 0.0 {
		return 0.0
	}
	return v
}

// Clamp limits v to the range [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampUnit limits a trig argument to [-1, 1].
func ClampUnit(v float64) float64 {
	return Clamp(v, -1.0, 1.0)
}

// SafeSqrt returns the square root of v, treating negative residues as zero.
func SafeSqrt(v float64) float64 {
	if v <= 0.0 {
		return 0.0
	}
	return math.Sqrt(v)
}

// Min3 returns the smallest of three values.
func Min3(a, b, c float64) float64 {
	return math.Min(a, math.Min(b, c))
}
