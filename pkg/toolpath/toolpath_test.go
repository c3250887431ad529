package toolpath

import (
	"math"
	"strings"
	"testing"

	"github.com/wight554/velplan/pkg/planner"
)

func testConfig() planner.Config {
	return planner.Config{
		MaxVelocity:          50.0,
		MaxAccel:             100.0,
		SquareCornerVelocity: 5.0,
		MinCruiseRatio:       0.5,
	}
}

func TestLoad(t *testing.T) {
	data := `[
		{"dx": 10, "speed": 50},
		{"dy": 10, "speed": 50, "accel": 500},
		{"de": -2, "speed": 40}
	]`
	cmds, err := Load(strings.NewReader(data))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cmds) != 3 {
		t.Fatalf("expected 3 commands, got %d", len(cmds))
	}
	if cmds[1].Accel != 500.0 {
		t.Errorf("accel override should parse, got %f", cmds[1].Accel)
	}
	if cmds[2].DE != -2.0 {
		t.Errorf("retract delta should parse, got %f", cmds[2].DE)
	}

	if _, err := Load(strings.NewReader("not json")); err == nil {
		t.Error("invalid input should fail")
	}
}

func TestEstimate(t *testing.T) {
	cmds := []Command{
		{DX: 100.0, Speed: 50.0},
	}
	rpt, err := Estimate(testConfig(), cmds)
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	if len(rpt.Moves) != 1 {
		t.Fatalf("expected 1 move, got %d", len(rpt.Moves))
	}
	if math.Abs(rpt.TotalTime-2.5) > 1e-9 {
		t.Errorf("100mm at 50/100 should take 2.5s, got %f", rpt.TotalTime)
	}
	if math.Abs(rpt.TotalDistance-100.0) > 1e-9 {
		t.Errorf("total distance should be 100, got %f", rpt.TotalDistance)
	}
	if rpt.Moves[0].Kind != "kinematic" {
		t.Errorf("kind should be kinematic, got %s", rpt.Moves[0].Kind)
	}
}

func TestEstimateSampling(t *testing.T) {
	rpt, err := Estimate(testConfig(), []Command{{DX: 100.0, Speed: 50.0}})
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	chunks, err := rpt.SampleMove(0, 10.0)
	if err != nil {
		t.Fatalf("SampleMove failed: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	v, err := rpt.SpeedAt(0, 50.0)
	if err != nil {
		t.Fatalf("SpeedAt failed: %v", err)
	}
	if math.Abs(v-50.0) > 1e-9 {
		t.Errorf("mid-move speed should be 50, got %f", v)
	}
	if _, err := rpt.SampleMove(5, 10.0); err == nil {
		t.Error("out-of-range move index should fail")
	}
}
