package planner

import (
	"math"

	"github.com/wight554/velplan/pkg/nmath"
)

// Profile is the resolved velocity-vs-distance shape of a move: an
// acceleration ramp, a constant-speed cruise and a deceleration ramp.
type Profile struct {
	Distance float64
	Accel    float64

	EntryV  float64
	CruiseV float64
	ExitV   float64

	AccelD  float64
	CruiseD float64
	DecelD  float64

	AccelT  float64
	CruiseT float64
	DecelT  float64
}

// TotalTime returns the duration of the move in seconds.
func (p Profile) TotalTime() float64 {
	return p.AccelT + p.CruiseT + p.DecelT
}

// ResolveTrapezoid converts resolved junction speeds into phase distances
// and times. minCruiseRatio reserves that fraction of the distance for the
// cruise phase by shrinking the peak speed; 0 disables the clamp. Inputs
// that cannot form a consistent trapezoid are normalized to the nearest
// valid shape rather than rejected.
func ResolveTrapezoid(distance, accel, startV2, cruiseV2, endV2, minCruiseRatio float64) Profile {
	if distance <= 0.0 {
		// Zero-distance moves are zero-time no-ops.
		return Profile{}
	}
	startV2 = math.Min(startV2, cruiseV2)
	endV2 = math.Min(endV2, cruiseV2)

	// Peak speed of a pure triangular profile over this distance. The cruise
	// speed can never exceed it, and a cruise that collapsed to zero on a
	// nonzero distance is recomputed as the shared peak of the two ramps.
	trianglePeakV2 := accel*distance + 0.5*(startV2+endV2)
	if cruiseV2 > trianglePeakV2 || cruiseV2 <= 0.0 {
		cruiseV2 = nmath.ClampNonneg(trianglePeakV2)
	}

	if minCruiseRatio > 0.0 {
		// Keep accelD+decelD within (1-ratio) of the distance:
		// (2c2 - s2 - e2) / (2a) <= (1-r)*d  =>  c2 <= a(1-r)d + (s2+e2)/2.
		bound := accel*(1.0-minCruiseRatio)*distance + 0.5*(startV2+endV2)
		if cruiseV2 > bound {
			cruiseV2 = bound
		}
	}
	// Junction speeds forced from outside may exceed the clamped cruise;
	// never let the cruise dip below either end.
	cruiseV2 = math.Max(cruiseV2, math.Max(startV2, endV2))

	halfInvAccel := nmath.SafeDiv(0.5, accel, 0.0)
	accelD := nmath.Clamp((cruiseV2-startV2)*halfInvAccel, 0.0, distance)
	decelD := nmath.Clamp((cruiseV2-endV2)*halfInvAccel, 0.0, distance)
	cruiseD := nmath.ClampNonneg(distance - accelD - decelD)

	entryV := nmath.SafeSqrt(startV2)
	cruiseV := nmath.SafeSqrt(cruiseV2)
	exitV := nmath.SafeSqrt(endV2)

	return Profile{
		Distance: distance,
		Accel:    accel,
		EntryV:   entryV,
		CruiseV:  cruiseV,
		ExitV:    exitV,
		AccelD:   accelD,
		CruiseD:  cruiseD,
		DecelD:   decelD,
		AccelT:   nmath.SafeDiv(accelD, (entryV+cruiseV)*0.5, 0.0),
		CruiseT:  nmath.SafeDiv(cruiseD, cruiseV, 0.0),
		DecelT:   nmath.SafeDiv(decelD, (exitV+cruiseV)*0.5, 0.0),
	}
}
