package features

import (
	"math"
	"sort"
)

type summary struct {
	total  float64
	min    float64
	max    float64
	mean   float64
	median float64
}

// summarize returns false for an empty series so the caller leaves the features unset.
func summarize(values []float64) (summary, bool) {
	if len(values) == 0 {
		return summary{}, false
	}

	s := summary{min: math.Inf(1), max: math.Inf(-1)}
	for _, v := range values {
		s.total += v
		s.min = math.Min(s.min, v)
		s.max = math.Max(s.max, v)
	}
	s.mean = s.total / float64(len(values))

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		s.median = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		s.median = sorted[mid]
	}
	return s, true
}

func (b builder) setStats(prefix string, values []float64) {
	s, ok := summarize(values)
	if !ok {
		return
	}
	b.set(prefix+"_total", s.total)
	b.set(prefix+"_min", s.min)
	b.set(prefix+"_max", s.max)
	b.set(prefix+"_mean", s.mean)
	b.set(prefix+"_median", s.median)
}

// intervals returns the gaps between consecutive heights after sorting.
func intervals(heights []int64) []float64 {
	if len(heights) < 2 {
		return nil
	}
	sorted := append([]int64(nil), heights...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	out := make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		out = append(out, float64(sorted[i]-sorted[i-1]))
	}
	return out
}

func minHeight(heights []int64) int64 {
	m := heights[0]
	for _, h := range heights[1:] {
		if h < m {
			m = h
		}
	}
	return m
}

func maxHeight(heights []int64) int64 {
	m := heights[0]
	for _, h := range heights[1:] {
		if h > m {
			m = h
		}
	}
	return m
}
