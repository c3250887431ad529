package planner

import "testing"

func TestSpeedAt(t *testing.T) {
	p := ResolveTrapezoid(100.0, 100.0, 0.0, 2500.0, 0.0, 0.0)

	if v := p.SpeedAt(0.0); v != 0.0 {
		t.Errorf("speed at start should be 0, got %f", v)
	}
	if v := p.SpeedAt(12.5); !approxEq(v, 50.0, 1e-9) {
		t.Errorf("speed at end of accel should be 50, got %f", v)
	}
	if v := p.SpeedAt(50.0); !approxEq(v, 50.0, 1e-9) {
		t.Errorf("cruise speed should be 50, got %f", v)
	}
	if v := p.SpeedAt(100.0); !approxEq(v, 0.0, 1e-9) {
		t.Errorf("speed at end should be 0, got %f", v)
	}
	// v^2 = 2*a*x on the accel ramp.
	if v := p.SpeedAt(2.0); !approxEq(v*v, 400.0, 1e-9) {
		t.Errorf("speed at 2mm should be 20, got %f", v)
	}
	// Out-of-range distances clamp to the move.
	if v := p.SpeedAt(-5.0); v != p.SpeedAt(0.0) {
		t.Errorf("negative distance should clamp to start, got %f", v)
	}
	if v := p.SpeedAt(500.0); v != p.SpeedAt(100.0) {
		t.Errorf("overlong distance should clamp to end, got %f", v)
	}
}

func TestSpeedAtMonotoneWithinPhases(t *testing.T) {
	p := ResolveTrapezoid(40.0, 3000.0, 100.0, 10000.0, 225.0, 0.5)
	step := p.Distance / 400.0
	for x := 0.0; x < p.AccelD-step; x += step {
		if p.SpeedAt(x+step) < p.SpeedAt(x)-1e-9 {
			t.Fatalf("accel phase not monotone at %f", x)
		}
	}
	for x := p.Distance - p.DecelD; x < p.Distance-step; x += step {
		if p.SpeedAt(x+step) > p.SpeedAt(x)+1e-9 {
			t.Fatalf("decel phase not monotone at %f", x)
		}
	}
}

func TestSampleChunks(t *testing.T) {
	p := ResolveTrapezoid(100.0, 100.0, 0.0, 2500.0, 0.0, 0.0)
	chunks := p.SampleChunks(10.0)
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	if chunks[0].StartD != 0.0 {
		t.Errorf("first chunk should start at 0, got %f", chunks[0].StartD)
	}
	last := chunks[len(chunks)-1]
	if !approxEq(last.EndD, 100.0, 1e-9) {
		t.Errorf("last chunk should end at 100, got %f", last.EndD)
	}
	for i, c := range chunks {
		if c.EndD-c.StartD > 10.0+1e-9 {
			t.Errorf("chunk %d longer than max: %f", i, c.EndD-c.StartD)
		}
		if i > 0 && !approxEq(chunks[i-1].EndD, c.StartD, 1e-9) {
			t.Errorf("chunk %d not contiguous", i)
		}
		if !approxEq(c.StartV, p.SpeedAt(c.StartD), 1e-9) {
			t.Errorf("chunk %d start speed mismatch", i)
		}
		if !approxEq(c.EndV, p.SpeedAt(c.EndD), 1e-9) {
			t.Errorf("chunk %d end speed mismatch", i)
		}
	}
}

func TestSampleChunksZeroDistance(t *testing.T) {
	var p Profile
	if chunks := p.SampleChunks(1.0); chunks != nil {
		t.Errorf("zero-distance move should sample to nothing, got %v", chunks)
	}
}
