// Cartesian geometry: each motor drives one axis directly.
package kinematics

import "github.com/wight554/velplan/pkg/planner"

// Cartesian limits moves for printers whose steppers map one to one onto
// the X, Y and Z axes. Only the Z bounds narrow anything; X and Y are
// covered by the session ceilings.
type Cartesian struct {
	cfg Config
}

// NewCartesian creates a cartesian provider.
func NewCartesian(cfg Config) *Cartesian {
	return &Cartesian{cfg: cfg}
}

func (c *Cartesian) Name() string { return "cartesian" }

// CheckMove applies the Z speed limits when the move has a Z component.
func (c *Cartesian) CheckMove(mv *planner.Move) error {
	checkZ(mv, c.cfg.Z)
	return nil
}
