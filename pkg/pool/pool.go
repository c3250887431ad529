// Object pools for reducing GC pressure in the planning hot path.
//
// A flush allocates scratch arrays sized to the pending window (cruise
// ceilings, per-move junction state). Long toolpaths flush thousands of
// times, so the scratch memory is recycled here instead of reallocated.
package pool

import "sync"

var float64Pool = sync.Pool{
	New: func() any {
		s := make([]float64, 0, 64)
		return &s
	},
}

// GetFloat64 returns a zeroed float64 slice of length n.
func GetFloat64(n int) []float64 {
	sp := float64Pool.Get().(*[]float64)
	s := *sp
	if cap(s) < n {
		s = make([]float64, n)
	} else {
		s = s[:n]
		for i := range s {
			s[i] = 0.0
		}
	}
	return s
}

// PutFloat64 returns a slice obtained from GetFloat64 to the pool.
func PutFloat64(s []float64) {
	if s == nil {
		return
	}
	s = s[:0]
	float64Pool.Put(&s)
}

var intPool = sync.Pool{
	New: func() any {
		s := make([]int, 0, 64)
		return &s
	},
}

// GetInt returns a zeroed int slice of length n.
func GetInt(n int) []int {
	sp := intPool.Get().(*[]int)
	s := *sp
	if cap(s) < n {
		s = make([]int, n)
	} else {
		s = s[:n]
		for i := range s {
			s[i] = 0
		}
	}
	return s
}

// PutInt returns a slice obtained from GetInt to the pool.
func PutInt(s []int) {
	if s == nil {
		return
	}
	s = s[:0]
	intPool.Put(&s)
}
