package planner

import "math"

// calcJunction computes the maximum transition speed between mv and its
// direct predecessor from their geometry and the extrusion rate change,
// using the "approximated centripetal velocity" model. It runs exactly once
// per move, at append time; chained propagation across older moves happens
// in the lookahead passes instead.
//
// Junctions with a non-kinematic neighbor are not linked: the move keeps its
// dead-stop entry and plans as an independent 0-to-0 segment.
func (mv *Move) calcJunction(prev *Move, instantCornerV float64) {
	if prev == nil {
		return
	}
	if mv.Kind != KindKinematic || prev.Kind != KindKinematic {
		return
	}

	// The extruder caps the junction by how fast its rate may change.
	extruderV2 := extruderJunction(prev, mv, instantCornerV)

	cosTheta := -(mv.Direction[AxisX]*prev.Direction[AxisX] +
		mv.Direction[AxisY]*prev.Direction[AxisY] +
		mv.Direction[AxisZ]*prev.Direction[AxisZ])
	if cosTheta > 0.999999 {
		// Direction flip: the junction keeps its dead-stop default.
		return
	}
	cosTheta = math.Max(cosTheta, -0.999999)
	sinThetaD2 := math.Sqrt(0.5 * (1.0 - cosTheta))
	rJD := sinThetaD2 / (1.0 - sinThetaD2)

	// Approximated circle must contact moves no further away than mid-move.
	tanThetaD2 := sinThetaD2 / math.Sqrt(0.5*(1.0+cosTheta))
	moveCentripetalV2 := 0.5 * mv.Distance * tanThetaD2 * mv.Accel
	prevCentripetalV2 := 0.5 * prev.Distance * tanThetaD2 * prev.Accel

	maxStartV2 := extruderV2
	for _, v2 := range [...]float64{
		rJD * mv.junctionDeviation * mv.Accel,
		rJD * prev.junctionDeviation * prev.Accel,
		moveCentripetalV2,
		prevCentripetalV2,
		mv.MaxCruiseV2,
		prev.MaxCruiseV2,
		prev.MaxStartV2 + prev.DeltaV2,
	} {
		if v2 < maxStartV2 {
			maxStartV2 = v2
		}
	}
	mv.MaxStartV2 = maxStartV2
	mv.MaxSmoothedV2 = math.Min(maxStartV2, prev.MaxSmoothedV2+prev.SmoothedDeltaV2)
}

// extruderJunction bounds the junction speed by the extrusion rate change
// between two moves. Equal rates leave the junction unconstrained.
func extruderJunction(prev, mv *Move, instantCornerV float64) float64 {
	diffR := mv.Direction[AxisE] - prev.Direction[AxisE]
	if diffR != 0.0 {
		v := instantCornerV / math.Abs(diffR)
		return v * v
	}
	return mv.MaxCruiseV2
}
