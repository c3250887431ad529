package metrics

import (
	"strings"
	"testing"
)

func TestCounter(t *testing.T) {
	c := NewCounter("test_counter_total", "A test counter")
	c.Inc(nil)
	c.Add(Labels{"kind": "kinematic"}, 2)
	c.Inc(Labels{"kind": "kinematic"})

	if v := c.Get(nil); v != 1 {
		t.Errorf("unlabeled count should be 1, got %d", v)
	}
	if v := c.Get(Labels{"kind": "kinematic"}); v != 3 {
		t.Errorf("labeled count should be 3, got %d", v)
	}

	var sb strings.Builder
	c.Write(&sb)
	out := sb.String()
	if !strings.Contains(out, "# TYPE test_counter_total counter") {
		t.Errorf("missing TYPE line: %q", out)
	}
	if !strings.Contains(out, `test_counter_total{kind="kinematic"} 3`) {
		t.Errorf("missing labeled sample: %q", out)
	}
}

func TestGauge(t *testing.T) {
	g := NewGauge("test_gauge", "A test gauge")
	g.Set(nil, 4.0)
	g.Add(nil, -1.5)
	if v := g.Get(nil); v != 2.5 {
		t.Errorf("gauge should be 2.5, got %f", v)
	}
}

func TestHistogram(t *testing.T) {
	h := NewHistogram("test_hist", "A test histogram", LinearBuckets(1, 1, 4))
	for _, v := range []float64{0.5, 1.5, 2.5, 10.0} {
		h.Observe(nil, v)
	}
	if c := h.Count(nil); c != 4 {
		t.Errorf("count should be 4, got %d", c)
	}
	if s := h.Sum(nil); s != 14.5 {
		t.Errorf("sum should be 14.5, got %f", s)
	}

	var sb strings.Builder
	h.Write(&sb)
	out := sb.String()
	if !strings.Contains(out, `test_hist_bucket{le="2"} 2`) {
		t.Errorf("cumulative bucket wrong: %q", out)
	}
	if !strings.Contains(out, `test_hist_bucket{le="+Inf"} 4`) {
		t.Errorf("inf bucket wrong: %q", out)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	c := NewCounter("reg_counter_total", "counter")
	if err := r.Register(c); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register(c); err == nil {
		t.Error("duplicate registration should fail")
	}
	c.Inc(nil)
	if !strings.Contains(r.Gather(), "reg_counter_total 1") {
		t.Errorf("Gather missing sample: %q", r.Gather())
	}
}

func TestDefaultRegistryHasPlannerMetrics(t *testing.T) {
	out := Gather()
	for _, name := range []string{
		"velplan_moves_planned_total",
		"velplan_moves_finalized_total",
		"velplan_lookahead_flushes_total",
		"velplan_plan_iterations",
		"velplan_pending_window_moves",
	} {
		if !strings.Contains(out, name) {
			t.Errorf("default registry missing %s", name)
		}
	}
}
