package planner

import (
	"math"

	"github.com/wight554/velplan/pkg/nmath"
)

// SpeedAt returns the instantaneous achievable speed at distance x along the
// move. The result is monotone within each phase and continuous at the phase
// boundaries up to floating tolerance.
func (p Profile) SpeedAt(x float64) float64 {
	if p.Distance <= 0.0 {
		return 0.0
	}
	x = nmath.Clamp(x, 0.0, p.Distance)
	if x <= p.AccelD {
		return math.Sqrt(p.EntryV*p.EntryV + 2.0*p.Accel*x)
	}
	if x >= p.Distance-p.DecelD {
		return math.Sqrt(nmath.ClampNonneg(p.ExitV*p.ExitV + 2.0*p.Accel*(p.Distance-x)))
	}
	return p.CruiseV
}

// ProfileChunk is one bounded-length slice of a move with its speeds at both
// ends, for preview rendering.
type ProfileChunk struct {
	StartD float64 `json:"start_d"`
	EndD   float64 `json:"end_d"`
	StartV float64 `json:"start_v"`
	EndV   float64 `json:"end_v"`
}

// SampleChunks subdivides the move into chunks no longer than maxChunk,
// aligned to the phase boundaries so every chunk has a single velocity
// trend. It does not alter the underlying plan.
func (p Profile) SampleChunks(maxChunk float64) []ProfileChunk {
	if p.Distance <= 0.0 {
		return nil
	}
	if maxChunk <= 0.0 {
		maxChunk = p.Distance
	}
	bounds := [4]float64{0.0, p.AccelD, p.Distance - p.DecelD, p.Distance}
	chunks := make([]ProfileChunk, 0, 8)
	for phase := 0; phase < 3; phase++ {
		lo, hi := bounds[phase], bounds[phase+1]
		if hi-lo <= 0.0 {
			continue
		}
		n := int(math.Ceil((hi - lo) / maxChunk))
		if n < 1 {
			n = 1
		}
		step := (hi - lo) / float64(n)
		for i := 0; i < n; i++ {
			start := lo + float64(i)*step
			end := start + step
			if i == n-1 {
				end = hi
			}
			chunks = append(chunks, ProfileChunk{
				StartD: start,
				EndD:   end,
				StartV: p.SpeedAt(start),
				EndV:   p.SpeedAt(end),
			})
		}
	}
	return chunks
}
