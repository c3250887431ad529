package planner

import (
	"math"

	"github.com/wight554/velplan/pkg/log"
	"github.com/wight554/velplan/pkg/metrics"
	"github.com/wight554/velplan/pkg/nmath"
	"github.com/wight554/velplan/pkg/pool"
)

// planState is the per-move outcome of one backward/forward pass: the
// entry, cruise and exit speed-squared values feeding the trapezoid
// resolver.
type planState struct {
	startV2  float64
	cruiseV2 float64
	endV2    float64
	resolved bool
}

// delayedEntry defers a move whose cruise speed depends on a peak found
// later in the backward walk. Entries resolve most-recent-first once the
// binding peak is known.
type delayedEntry struct {
	idx     int
	startV2 float64
	endV2   float64
}

// flush runs the two-pass lookahead over the pending window and finalizes
// the resolvable prefix. When lazy, only moves whose speeds can no longer
// be changed by future appends are finalized; otherwise the window is
// assumed to end in a full stop and everything resolves.
func (s *Session) flush(lazy bool) {
	s.junctionFlush = s.cfg.FlushTime
	n := len(s.pending)
	if n == 0 {
		return
	}

	ceil := pool.GetFloat64(n)
	defer pool.PutFloat64(ceil)
	for i, idx := range s.pending {
		ceil[i] = s.arena[idx].MaxCruiseV2
	}
	plans := make([]planState, n)
	delayed := make([]delayedEntry, 0, n)

	flushCount := 0
	iterations := 0
	for {
		iterations++
		flushCount = s.runPasses(lazy, ceil, plans, delayed[:0])
		if flushCount <= 0 {
			metrics.LookaheadFlushes.Inc(metrics.Labels{"resolved": "none"})
			return
		}
		if iterations >= s.cfg.MaxPlanIterations {
			break
		}
		if !s.clampCruiseCeilings(ceil, plans, flushCount) {
			break
		}
	}

	for i := 0; i < flushCount; i++ {
		idx := s.pending[i]
		mv := &s.arena[idx]
		p := plans[i]
		mv.Profile = ResolveTrapezoid(mv.Distance, mv.Accel,
			p.startV2, p.cruiseV2, p.endV2, mv.minCruiseRatio)
		mv.state = stateResolved
		s.finalized = append(s.finalized, MoveHandle(idx))
	}
	s.pending = append(s.pending[:0], s.pending[flushCount:]...)

	trigger := "final"
	if lazy {
		trigger = "window"
	}
	metrics.MovesFinalized.Add(nil, uint64(flushCount))
	metrics.LookaheadFlushes.Inc(metrics.Labels{"resolved": trigger})
	metrics.PlanIterations.Observe(nil, float64(iterations))
	metrics.PendingWindow.Set(nil, float64(len(s.pending)))
	if s.logger != nil {
		s.logger.DebugFields("lookahead flush", log.Fields{
			"finalized":  flushCount,
			"pending":    len(s.pending),
			"iterations": iterations,
			"lazy":       lazy,
		})
	}
}

// runPasses performs one backward walk over the pending window with the
// delayed-resolution queue and records the resulting speed plan for each
// move in the resolvable prefix. It returns the number of moves safe to
// finalize, or 0 when nothing can be flushed yet.
func (s *Session) runPasses(lazy bool, ceil []float64, plans []planState, delayed []delayedEntry) int {
	n := len(s.pending)
	updateFlushCount := lazy
	flushCount := n
	for i := range plans {
		plans[i] = planState{}
	}

	// Backward pass: propagate stopping requirements from the window end
	// toward the front, tracking both the true and the smoothed
	// (cruise-reserving) speed chains.
	nextEndV2 := 0.0
	nextSmoothedV2 := 0.0
	peakCruiseV2 := 0.0
	for i := n - 1; i >= 0; i-- {
		mv := &s.arena[s.pending[i]]
		reachableStartV2 := nextEndV2 + mv.DeltaV2
		startV2 := math.Min(mv.MaxStartV2, reachableStartV2)
		reachableSmoothedV2 := nextSmoothedV2 + mv.SmoothedDeltaV2
		smoothedV2 := math.Min(mv.MaxSmoothedV2, reachableSmoothedV2)
		if smoothedV2 < reachableSmoothedV2 {
			// The junction cap binds here, so this move is a local speed
			// peak: everything delayed behind it can now be resolved.
			if smoothedV2+mv.SmoothedDeltaV2 > nextSmoothedV2 || len(delayed) > 0 {
				if updateFlushCount && peakCruiseV2 != 0.0 {
					// A second peak: junctions ahead of it can no longer
					// change, so the lazy flush may stop here.
					flushCount = i
					updateFlushCount = false
				}
				peakCruiseV2 = math.Min(ceil[i], (smoothedV2+reachableSmoothedV2)*0.5)
				if len(delayed) > 0 {
					if !updateFlushCount && i < flushCount {
						mcV2 := peakCruiseV2
						for j := len(delayed) - 1; j >= 0; j-- {
							d := delayed[j]
							mcV2 = math.Min(mcV2, d.startV2)
							plans[d.idx] = planState{
								startV2:  math.Min(d.startV2, mcV2),
								cruiseV2: mcV2,
								endV2:    math.Min(d.endV2, mcV2),
								resolved: true,
							}
						}
					}
					delayed = delayed[:0]
				}
			}
			if !updateFlushCount && i < flushCount {
				cruiseV2 := math.Min((startV2+reachableStartV2)*0.5,
					math.Min(ceil[i], peakCruiseV2))
				plans[i] = planState{
					startV2:  math.Min(startV2, cruiseV2),
					cruiseV2: cruiseV2,
					endV2:    math.Min(nextEndV2, cruiseV2),
					resolved: true,
				}
			}
		} else {
			// The move can fully accelerate through its junction; its
			// cruise speed depends on a peak further toward the front.
			delayed = append(delayed, delayedEntry{i, startV2, nextEndV2})
		}
		nextEndV2 = startV2
		nextSmoothedV2 = smoothedV2
	}
	if updateFlushCount || flushCount <= 0 {
		return 0
	}
	// Moves delayed past the front of the window sit on a pure
	// deceleration ramp left over from an earlier lazy flush.
	mcV2 := math.Inf(1)
	for j := len(delayed) - 1; j >= 0; j-- {
		d := delayed[j]
		if d.idx >= flushCount {
			continue
		}
		mcV2 = math.Min(mcV2, d.startV2)
		cruiseV2 := math.Min(mcV2, ceil[d.idx])
		plans[d.idx] = planState{
			startV2:  math.Min(d.startV2, cruiseV2),
			cruiseV2: cruiseV2,
			endV2:    math.Min(d.endV2, cruiseV2),
			resolved: true,
		}
	}
	return flushCount
}

// clampCruiseCeilings applies the minimum-cruise-ratio bound to the planned
// cruise speeds and tightens the per-move ceilings for the next iteration.
// It reports whether any ceiling moved by more than the convergence
// tolerance.
func (s *Session) clampCruiseCeilings(ceil []float64, plans []planState, flushCount int) bool {
	changed := false
	for i := 0; i < flushCount; i++ {
		mv := &s.arena[s.pending[i]]
		r := mv.minCruiseRatio
		if r <= 0.0 || !plans[i].resolved {
			continue
		}
		p := plans[i]
		bound := mv.Accel*(1.0-r)*mv.Distance + 0.5*(p.startV2+p.endV2)
		bound = math.Max(bound, math.Max(p.startV2, p.endV2))
		if p.cruiseV2 > bound && ceil[i] > bound {
			delta := nmath.SafeSqrt(p.cruiseV2) - nmath.SafeSqrt(bound)
			if delta > s.cfg.ConvergenceTol {
				changed = true
			}
			ceil[i] = bound
		}
	}
	return changed
}
