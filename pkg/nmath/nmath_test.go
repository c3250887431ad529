package nmath

import (
	"math"
	"testing"
)

func TestSafeDiv(t *testing.T) {
	if v := SafeDiv(10.0, 2.0, -1.0); v != 5.0 {
		t.Errorf("SafeDiv(10,2) should be 5, got %f", v)
	}
	if v := SafeDiv(10.0, 0.0, -1.0); v != -1.0 {
		t.Errorf("SafeDiv by zero should return fallback, got %f", v)
	}
}

func TestClamp(t *testing.T) {
	if v := Clamp(5.0, 0.0, 10.0); v != 5.0 {
		t.Errorf("in-range value should pass through, got %f", v)
	}
	if v := Clamp(-5.0, 0.0, 10.0); v != 0.0 {
		t.Errorf("low value should clamp to 0, got %f", v)
	}
	if v := Clamp(15.0, 0.0, 10.0); v != 10.0 {
		t.Errorf("high value should clamp to 10, got %f", v)
	}
	if v := ClampNonneg(-3.0); v != 0.0 {
		t.Errorf("ClampNonneg(-3) should be 0, got %f", v)
	}
	if v := ClampUnit(1.5); v != 1.0 {
		t.Errorf("ClampUnit(1.5) should be 1, got %f", v)
	}
}

func TestSafeSqrt(t *testing.T) {
	if v := SafeSqrt(4.0); v != 2.0 {
		t.Errorf("SafeSqrt(4) should be 2, got %f", v)
	}
	// Tiny negatives from float rounding must not produce NaN.
	if v := SafeSqrt(-1e-15); v != 0.0 || math.IsNaN(v) {
		t.Errorf("SafeSqrt of small negative should be 0, got %f", v)
	}
}

func TestMin3(t *testing.T) {
	if v := Min3(3.0, 1.0, 2.0); v != 1.0 {
		t.Errorf("Min3 should pick 1, got %f", v)
	}
}
