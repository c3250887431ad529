package planner

import (
	"math"
	"testing"
)

func testConfig() Config {
	return Config{
		MaxVelocity:          50.0,
		MaxAccel:             100.0,
		SquareCornerVelocity: 5.0,
		MinCruiseRatio:       0.5,
	}
}

func mustSession(t *testing.T, cfg Config) *Session {
	t.Helper()
	s, err := NewSession(cfg)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	return s
}

func pushXY(t *testing.T, s *Session, dx, dy, speed float64) MoveHandle {
	t.Helper()
	h, err := s.PushDisplacement([NumAxes]float64{dx, dy, 0.0, 0.0}, speed, 0.0)
	if err != nil {
		t.Fatalf("PushDisplacement failed: %v", err)
	}
	return h
}

func TestJunctionRightAngle(t *testing.T) {
	// With square_corner_velocity 5 and max_accel 100 the junction deviation
	// is 25*(sqrt(2)-1)/100 and a 90 degree corner resolves to exactly the
	// square corner velocity.
	s := mustSession(t, testConfig())
	h0 := pushXY(t, s, 10.0, 0.0, 50.0)
	h1 := pushXY(t, s, 0.0, 10.0, 50.0)
	s.Flush()

	p0, err := s.MoveTiming(h0)
	if err != nil {
		t.Fatalf("MoveTiming(h0): %v", err)
	}
	p1, err := s.MoveTiming(h1)
	if err != nil {
		t.Fatalf("MoveTiming(h1): %v", err)
	}
	if !approxEq(p0.ExitV, 5.0, 1e-6) {
		t.Errorf("corner exit speed should be 5.0, got %f", p0.ExitV)
	}
	if !approxEq(p1.EntryV, 5.0, 1e-6) {
		t.Errorf("corner entry speed should be 5.0, got %f", p1.EntryV)
	}
	if !approxEq(p0.ExitV, p1.EntryV, 1e-9) {
		t.Errorf("junction speeds disagree: %f vs %f", p0.ExitV, p1.EntryV)
	}
}

func TestJunctionColinear(t *testing.T) {
	// Two colinear moves must plan like one move of the combined length:
	// the junction imposes no cornering slowdown.
	cfg := testConfig()
	cfg.MinCruiseRatio = 0.0
	cfg.MaxAccelToDecel = 100.0

	split := mustSession(t, cfg)
	h0 := pushXY(t, split, 10.0, 0.0, 50.0)
	h1 := pushXY(t, split, 10.0, 0.0, 50.0)
	split.Flush()

	joined := mustSession(t, cfg)
	hj := pushXY(t, joined, 20.0, 0.0, 50.0)
	joined.Flush()

	p0, _ := split.MoveTiming(h0)
	p1, _ := split.MoveTiming(h1)
	pj, _ := joined.MoveTiming(hj)
	if !approxEq(p0.ExitV, p1.EntryV, 1e-9) {
		t.Errorf("junction speeds disagree: %f vs %f", p0.ExitV, p1.EntryV)
	}
	splitTime := p0.TotalTime() + p1.TotalTime()
	if !approxEq(splitTime, pj.TotalTime(), 1e-6) {
		t.Errorf("split path takes %f, joined move takes %f", splitTime, pj.TotalTime())
	}
}

func TestJunctionReversal(t *testing.T) {
	// A direction flip forces a full stop at the junction.
	s := mustSession(t, testConfig())
	h0 := pushXY(t, s, 10.0, 0.0, 50.0)
	h1 := pushXY(t, s, -10.0, 0.0, 50.0)
	s.Flush()

	p0, _ := s.MoveTiming(h0)
	p1, _ := s.MoveTiming(h1)
	if p0.ExitV != 0.0 {
		t.Errorf("reversal should stop, exit speed %f", p0.ExitV)
	}
	if p1.EntryV != 0.0 {
		t.Errorf("reversal should restart from rest, entry speed %f", p1.EntryV)
	}
}

func TestJunctionExtruderRateChange(t *testing.T) {
	// A large extrusion rate step binds the junction through the
	// instantaneous corner velocity.
	cfg := testConfig()
	cfg.InstantCornerVelocity = 1.0
	s := mustSession(t, cfg)

	h0, err := s.PushDisplacement([NumAxes]float64{10.0, 0.0, 0.0, 0.5}, 50.0, 0.0)
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	h1, err := s.PushDisplacement([NumAxes]float64{10.0, 0.0, 0.0, -0.5}, 50.0, 0.0)
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	s.Flush()

	p0, _ := s.MoveTiming(h0)
	p1, _ := s.MoveTiming(h1)
	// diffR is ~0.1, so the cap is (1.0/0.1)^2 = 100 mm2/s2.
	wantV := math.Sqrt(100.0)
	if p0.ExitV > wantV+1e-6 {
		t.Errorf("extruder junction should cap exit at %f, got %f", wantV, p0.ExitV)
	}
	if p1.EntryV > wantV+1e-6 {
		t.Errorf("extruder junction should cap entry at %f, got %f", wantV, p1.EntryV)
	}
}

func TestJunctionNotLinkedAcrossExtrudeOnly(t *testing.T) {
	// An extrude-only move between two travel moves breaks the junction
	// chain: the second travel move starts from rest.
	cfg := testConfig()
	cfg.ExtrudeOnlyVelocity = 25.0
	cfg.ExtrudeOnlyAccel = 1500.0
	s := mustSession(t, cfg)

	pushXY(t, s, 10.0, 0.0, 50.0)
	_, err := s.PushDisplacement([NumAxes]float64{0.0, 0.0, 0.0, 2.0}, 50.0, 0.0)
	if err != nil {
		t.Fatalf("push retract: %v", err)
	}
	h2 := pushXY(t, s, 10.0, 0.0, 50.0)
	s.Flush()

	p2, _ := s.MoveTiming(h2)
	if p2.EntryV != 0.0 {
		t.Errorf("travel after extrude-only should start from rest, got %f", p2.EntryV)
	}
}
