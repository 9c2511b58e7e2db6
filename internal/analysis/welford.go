package analysis

import (
	"math"
	"sort"
)

// runningStats accumulates mean and variance in one pass (Welford).
type runningStats struct {
	count int
	mean  float64
	m2    float64
	min   float64
	max   float64
}

func (s *runningStats) update(x float64) {
	if s.count == 0 || x < s.min {
		s.min = x
	}
	if s.count == 0 || x > s.max {
		s.max = x
	}
	s.count++
	delta := x - s.mean
	s.mean += delta / float64(s.count)
	delta2 := x - s.mean
	s.m2 += delta * delta2
}

// stdDev returns the sample standard deviation, or 0 below two observations.
func (s *runningStats) stdDev() float64 {
	if s.count < 2 {
		return 0
	}
	return math.Sqrt(s.m2 / float64(s.count-1))
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// round keeps x unchanged when scaling it would overflow.
func round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	scaled := x * p
	if math.IsInf(scaled, 0) || math.IsNaN(scaled) {
		return x
	}
	return math.Round(scaled) / p
}
