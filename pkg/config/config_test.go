package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleLimits = `
# Printer limits
[printer]
kinematics: cartesian
max_velocity: 300
max_accel: 3000
square_corner_velocity: 5.0
max_z_velocity: 12
max_z_accel: 200

[extruder]
instantaneous_corner_velocity: 1.0
max_extrude_only_velocity: 25
max_extrude_only_accel: 1500
`

func TestLoadString(t *testing.T) {
	c, err := LoadString(sampleLimits)
	if err != nil {
		t.Fatalf("LoadString failed: %v", err)
	}
	if !c.HasSection("printer") || !c.HasSection("extruder") {
		t.Fatalf("missing sections, got %v", c.SectionNames())
	}
	printer, err := c.GetSection("printer")
	if err != nil {
		t.Fatalf("GetSection: %v", err)
	}
	v, err := printer.GetFloat("max_velocity")
	if err != nil || v != 300.0 {
		t.Errorf("max_velocity should be 300, got %f (%v)", v, err)
	}
	if _, err := printer.Get("missing"); err == nil {
		t.Error("missing option should error")
	}
	if v, _ := printer.GetFloat("missing", 7.5); v != 7.5 {
		t.Errorf("fallback should apply, got %f", v)
	}
}

func TestSaveConfigLines(t *testing.T) {
	c, err := LoadString("#*# [printer]\n#*# max_velocity: 120\n#*# max_accel: 900\n")
	if err != nil {
		t.Fatalf("LoadString failed: %v", err)
	}
	printer, err := c.GetSection("printer")
	if err != nil {
		t.Fatalf("save-config section should parse: %v", err)
	}
	if v, _ := printer.GetFloat("max_velocity"); v != 120.0 {
		t.Errorf("save-config value should be 120, got %f", v)
	}
}

func TestInclude(t *testing.T) {
	dir := t.TempDir()
	extra := filepath.Join(dir, "extra.cfg")
	if err := os.WriteFile(extra, []byte("[extruder]\nmax_extrude_only_velocity: 30\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	main := filepath.Join(dir, "printer.cfg")
	body := "[include extra.cfg]\n[printer]\nmax_velocity: 200\nmax_accel: 2000\n"
	if err := os.WriteFile(main, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(main)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !c.HasSection("extruder") {
		t.Error("included section missing")
	}
}

func TestLimits(t *testing.T) {
	c, err := LoadString(sampleLimits)
	if err != nil {
		t.Fatalf("LoadString failed: %v", err)
	}
	lim, unused, err := c.Limits()
	if err != nil {
		t.Fatalf("Limits failed: %v", err)
	}
	if lim.Geometry != "cartesian" {
		t.Errorf("geometry should be cartesian, got %s", lim.Geometry)
	}
	cfg := lim.Planner
	if cfg.MaxVelocity != 300.0 || cfg.MaxAccel != 3000.0 {
		t.Errorf("ceilings wrong: %f / %f", cfg.MaxVelocity, cfg.MaxAccel)
	}
	if cfg.SquareCornerVelocity != 5.0 {
		t.Errorf("square_corner_velocity should be 5, got %f", cfg.SquareCornerVelocity)
	}
	if cfg.ExtrudeOnlyVelocity != 25.0 || cfg.ExtrudeOnlyAccel != 1500.0 {
		t.Errorf("extrude-only bounds wrong: %f / %f",
			cfg.ExtrudeOnlyVelocity, cfg.ExtrudeOnlyAccel)
	}
	if len(cfg.Checkers) != 1 {
		t.Errorf("expected one kinematics checker, got %d", len(cfg.Checkers))
	}
	if len(unused) != 0 {
		t.Errorf("all options should be consumed, unused: %v", unused)
	}
}

func TestLimitsUnusedOptions(t *testing.T) {
	c, err := LoadString("[printer]\nmax_velocity: 100\nmax_accel: 1000\nbogus_option: 7\n")
	if err != nil {
		t.Fatalf("LoadString failed: %v", err)
	}
	_, unused, err := c.Limits()
	if err != nil {
		t.Fatalf("Limits failed: %v", err)
	}
	if len(unused) != 1 || unused[0] != "printer.bogus_option" {
		t.Errorf("bogus option should be reported, got %v", unused)
	}
}

func TestLimitsValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing printer", "[extruder]\n"},
		{"zero accel", "[printer]\nmax_velocity: 100\nmax_accel: 0\n"},
		{"bad kinematics", "[printer]\nkinematics: delta\nmax_velocity: 100\nmax_accel: 1000\n"},
		{"ratio out of range", "[printer]\nmax_velocity: 100\nmax_accel: 1000\nminimum_cruise_ratio: 1.5\n"},
	}
	for _, tc := range cases {
		c, err := LoadString(tc.body)
		if err != nil {
			t.Fatalf("%s: parse failed: %v", tc.name, err)
		}
		if _, _, err := c.Limits(); err == nil {
			t.Errorf("%s: Limits should fail", tc.name)
		}
	}
}
