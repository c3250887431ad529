// Package kinematics narrows move speed ceilings for different printer
// geometries. Each provider implements planner.MoveChecker and scales the
// configured per-axis bounds by the move's direction so that no axis (or
// stepper, for coupled geometries) exceeds its limit.
package kinematics

import (
	"math"

	"github.com/wight554/velplan/pkg/errors"
	"github.com/wight554/velplan/pkg/planner"
)

// AxisBounds holds the velocity and acceleration ceilings for one axis or
// stepper. Zero fields leave the session ceilings in place.
type AxisBounds struct {
	MaxVelocity float64
	MaxAccel    float64
}

// Config holds the geometry-independent kinematic limits.
type Config struct {
	// Z bounds apply to any move with a Z component, scaled by the Z
	// direction ratio. Vertical moves are the slowest a printer makes.
	Z AxisBounds
}

// limitByRatio caps a move so the projection onto one axis stays within
// bounds. ratio is distance over the axis component magnitude.
func limitByRatio(mv *planner.Move, b AxisBounds, ratio float64) {
	maxV := b.MaxVelocity * ratio
	maxA := b.MaxAccel * ratio
	if b.MaxVelocity == 0.0 {
		maxV = mv.RequestedSpeed
	}
	if b.MaxAccel == 0.0 {
		maxA = mv.Accel
	}
	mv.LimitSpeed(maxV, maxA)
}

// checkZ applies the Z bounds shared by all geometries.
func checkZ(mv *planner.Move, z AxisBounds) {
	if mv.Kind != planner.KindKinematic {
		return
	}
	dz := mv.Direction[planner.AxisZ]
	if dz == 0.0 {
		return
	}
	limitByRatio(mv, z, 1.0/math.Abs(dz))
}

// New returns the provider for a geometry name.
func New(geometry string, cfg Config) (planner.MoveChecker, error) {
	switch geometry {
	case "cartesian", "":
		return NewCartesian(cfg), nil
	case "corexy":
		return NewCoreXY(cfg), nil
	default:
		return nil, errors.Newf(errors.ErrConfigValidation,
			"unknown kinematics %q", geometry)
	}
}
