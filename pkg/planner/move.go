// Package planner reproduces a firmware motion planner's kinematics offline.
// It turns a sequence of classified moves into trapezoidal speed profiles
// using the same junction-velocity and lookahead rules the firmware applies,
// so a host application can predict per-move timing and per-position speed
// without driving real hardware.
package planner

import (
	"math"

	"github.com/wight554/velplan/pkg/nmath"
)

// Common suffixes follow the firmware convention: D is a distance (mm),
// V a velocity (mm/s), V2 a velocity squared (mm^2/s^2), T a time (s) and
// R a ratio of the total move distance.

// Axis indices into a move's direction vector.
const (
	AxisX = iota
	AxisY
	AxisZ
	AxisE

	// NumAxes covers the three spatial axes plus the extrusion axis.
	NumAxes
)

// unboundedAccel disables acceleration coupling for moves whose distance has
// no spatial component.
const unboundedAccel = 99999999.9

// minKinematicDistance is the spatial displacement below which a move is
// classified as extrude-only.
const minKinematicDistance = 0.000000001

// MoveKind classifies a move for junction purposes.
type MoveKind int

const (
	// KindKinematic is a move with spatial displacement.
	KindKinematic MoveKind = iota

	// KindExtrudeOnly is a pure extrusion (retract/unretract or prime) with
	// no spatial displacement.
	KindExtrudeOnly
)

func (k MoveKind) String() string {
	switch k {
	case KindKinematic:
		return "kinematic"
	case KindExtrudeOnly:
		return "extrude-only"
	default:
		return "unknown"
	}
}

type moveState int

const (
	statePending moveState = iota
	stateResolved
)

// Move is one planned displacement. Limiters tighten its ceilings in place
// before it enters the pending window; the lookahead passes then fill the
// junction fields and finally the resolved profile. Once resolved a move is
// never mutated again.
type Move struct {
	Kind MoveKind

	// Distance is the total move distance in mm (extrusion length for
	// extrude-only moves).
	Distance float64

	// Direction is the unit rate vector over x, y, z and e. For extrude-only
	// moves the spatial components are zero and the e component is +/-1.
	Direction [NumAxes]float64

	// Accel is the per-move acceleration ceiling.
	Accel float64

	// RequestedSpeed is the feedrate the producer asked for, before limiting.
	RequestedSpeed float64

	// MinMoveTime is the duration of the move at its cruise ceiling.
	MinMoveTime float64

	// Speed-squared bookkeeping maintained by the limiters and the junction
	// calculator.
	MaxCruiseV2     float64
	DeltaV2         float64
	SmoothedDeltaV2 float64
	MaxStartV2      float64
	MaxSmoothedV2   float64

	// Profile holds the resolved trapezoid once the planner finalizes the
	// move.
	Profile Profile

	// Constraint parameters snapshotted at append time. Limit updates made
	// after a move is queued never apply to it retroactively.
	junctionDeviation float64
	minCruiseRatio    float64

	state moveState
}

// Resolved reports whether the planner has finalized this move.
func (mv *Move) Resolved() bool {
	return mv.state == stateResolved
}

// LimitSpeed tightens the move's cruise and acceleration ceilings. Each call
// only narrows bounds, so multiple limiters may be applied in any order.
func (mv *Move) LimitSpeed(speed, accel float64) {
	speed2 := speed * speed
	if speed2 < mv.MaxCruiseV2 {
		mv.MaxCruiseV2 = speed2
		mv.MinMoveTime = nmath.SafeDiv(mv.Distance, speed, 0.0)
	}
	if accel < mv.Accel {
		mv.Accel = accel
	}
	mv.DeltaV2 = 2.0 * mv.Distance * mv.Accel
	if mv.DeltaV2 < mv.SmoothedDeltaV2 {
		mv.SmoothedDeltaV2 = mv.DeltaV2
	}
}

// AxisLimit bounds velocity and acceleration for displacement along a single
// axis. A limit only takes effect when both bounds are configured.
type AxisLimit struct {
	Axis        int
	MaxVelocity float64
	MaxAccel    float64
}

// ApplyAxisLimit narrows a kinematic move's ceilings so its projection onto
// the limited axis stays within the axis bounds. A move with no displacement
// on the axis is unaffected.
func ApplyAxisLimit(mv *Move, lim AxisLimit) {
	if mv.Kind != KindKinematic {
		return
	}
	if lim.MaxVelocity <= 0.0 || lim.MaxAccel <= 0.0 {
		return
	}
	if lim.Axis < 0 || lim.Axis >= NumAxes {
		return
	}
	component := mv.Direction[lim.Axis]
	if component == 0.0 {
		return
	}
	ratio := 1.0 / math.Abs(component)
	mv.LimitSpeed(lim.MaxVelocity*ratio, lim.MaxAccel*ratio)
}

// ApplyExtrudeOnlyLimit caps an extrude-only move by the extruder's own
// velocity and acceleration bounds. Kinematic moves are unaffected; their
// extrusion is rate-coupled to the spatial displacement instead.
func ApplyExtrudeOnlyLimit(mv *Move, maxVelocity, maxAccel float64) {
	if mv.Kind != KindExtrudeOnly {
		return
	}
	if maxVelocity <= 0.0 || maxAccel <= 0.0 {
		return
	}
	rate := mv.Direction[AxisE]
	if rate == 0.0 {
		return
	}
	invRate := 1.0 / math.Abs(rate)
	mv.LimitSpeed(maxVelocity*invRate, maxAccel*invRate)
}

// MoveChecker narrows a move's ceilings before it is queued. The kinematics
// providers implement this to apply their per-axis limits.
type MoveChecker interface {
	CheckMove(mv *Move) error
}
