// CoreXY geometry: two motors drive X and Y through a crossed belt.
package kinematics

import (
	"math"

	"github.com/wight554/velplan/pkg/planner"
)

// CoreXY limits moves for crossed-belt printers. The two motors move at
// rates proportional to x+y and x-y, so a pure diagonal costs a single
// motor the full toolhead speed while the 45 degree diagonal in the other
// direction costs nothing.
type CoreXY struct {
	cfg     Config
	stepper AxisBounds
}

// NewCoreXY creates a corexy provider. cfg.Z bounds vertical moves; the
// stepper bounds default to unbounded and can be set with SetStepperBounds.
func NewCoreXY(cfg Config) *CoreXY {
	return &CoreXY{cfg: cfg}
}

// SetStepperBounds caps the per-motor belt rates.
func (c *CoreXY) SetStepperBounds(b AxisBounds) {
	c.stepper = b
}

func (c *CoreXY) Name() string { return "corexy" }

// CheckMove applies the Z limits and, when stepper bounds are configured,
// caps the move so neither belt motor exceeds them.
func (c *CoreXY) CheckMove(mv *planner.Move) error {
	checkZ(mv, c.cfg.Z)
	if mv.Kind != planner.KindKinematic {
		return nil
	}
	if c.stepper.MaxVelocity == 0.0 && c.stepper.MaxAccel == 0.0 {
		return nil
	}
	dx := mv.Direction[planner.AxisX]
	dy := mv.Direction[planner.AxisY]
	rate := math.Max(math.Abs(dx+dy), math.Abs(dx-dy))
	if rate == 0.0 {
		return nil
	}
	limitByRatio(mv, c.stepper, 1.0/rate)
	return nil
}
