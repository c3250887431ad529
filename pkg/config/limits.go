package config

import (
	"github.com/wight554/velplan/pkg/kinematics"
	"github.com/wight554/velplan/pkg/planner"
)

// Geometries lists the kinematics the estimator understands.
var Geometries = []string{"cartesian", "corexy"}

// Limits is the planner configuration read from a printer limits file plus
// the geometry provider built from it.
type Limits struct {
	Planner  planner.Config
	Geometry string
}

var (
	zero = 0.0
	one  = 1.0
)

// LoadLimits reads a limits file and builds the planner configuration.
// The [printer] section is required; [extruder] and [planner] are optional.
func LoadLimits(path string) (*Limits, []string, error) {
	c, err := Load(path)
	if err != nil {
		return nil, nil, err
	}
	return c.Limits()
}

// Limits extracts the planner configuration from the parsed sections and
// returns it together with the unused-option warnings.
func (c *Config) Limits() (*Limits, []string, error) {
	printer, err := c.GetSection("printer")
	if err != nil {
		return nil, nil, err
	}
	lim := &Limits{}

	lim.Geometry, err = printer.GetChoice("kinematics", Geometries, "cartesian")
	if err != nil {
		return nil, nil, err
	}
	cfg := &lim.Planner
	if cfg.MaxVelocity, err = printer.GetFloatWithBounds("max_velocity",
		FloatBounds{Above: &zero}); err != nil {
		return nil, nil, err
	}
	if cfg.MaxAccel, err = printer.GetFloatWithBounds("max_accel",
		FloatBounds{Above: &zero}); err != nil {
		return nil, nil, err
	}
	if cfg.SquareCornerVelocity, err = printer.GetFloatWithBounds(
		"square_corner_velocity", FloatBounds{MinVal: &zero}, 5.0); err != nil {
		return nil, nil, err
	}
	if printer.HasOption("minimum_cruise_ratio") {
		if cfg.MinCruiseRatio, err = printer.GetFloatWithBounds(
			"minimum_cruise_ratio", FloatBounds{Above: &zero, MaxVal: &one}); err != nil {
			return nil, nil, err
		}
	} else if printer.HasOption("max_accel_to_decel") {
		if cfg.MaxAccelToDecel, err = printer.GetFloatWithBounds(
			"max_accel_to_decel", FloatBounds{Above: &zero}); err != nil {
			return nil, nil, err
		}
	}

	var zBounds kinematics.AxisBounds
	if zBounds.MaxVelocity, err = printer.GetFloat("max_z_velocity", 0.0); err != nil {
		return nil, nil, err
	}
	if zBounds.MaxAccel, err = printer.GetFloat("max_z_accel", 0.0); err != nil {
		return nil, nil, err
	}
	checker, err := kinematics.New(lim.Geometry, kinematics.Config{Z: zBounds})
	if err != nil {
		return nil, nil, err
	}
	cfg.Checkers = append(cfg.Checkers, checker)

	if extruder := c.GetSectionOptional("extruder"); extruder != nil {
		if cfg.InstantCornerVelocity, err = extruder.GetFloatWithBounds(
			"instantaneous_corner_velocity", FloatBounds{MinVal: &zero}, 1.0); err != nil {
			return nil, nil, err
		}
		if cfg.ExtrudeOnlyVelocity, err = extruder.GetFloat(
			"max_extrude_only_velocity", 0.0); err != nil {
			return nil, nil, err
		}
		if cfg.ExtrudeOnlyAccel, err = extruder.GetFloat(
			"max_extrude_only_accel", 0.0); err != nil {
			return nil, nil, err
		}
	}

	if tuning := c.GetSectionOptional("planner"); tuning != nil {
		if cfg.FlushTime, err = tuning.GetFloatWithBounds("flush_time",
			FloatBounds{Above: &zero}, planner.DefaultFlushTime); err != nil {
			return nil, nil, err
		}
		if cfg.MaxPlanIterations, err = tuning.GetInt("max_plan_iterations",
			planner.DefaultMaxPlanIterations); err != nil {
			return nil, nil, err
		}
		if cfg.ConvergenceTol, err = tuning.GetFloat("convergence_tolerance",
			planner.DefaultConvergenceTol); err != nil {
			return nil, nil, err
		}
	}

	return lim, c.UnusedOptions(), nil
}
