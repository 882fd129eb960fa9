// Package statistics summarises samples of simulation results.
package statistics

import (
	"math"
	"slices"
)

// Sample accumulates values and reports their distribution
type Sample struct {
	N      int
	Sum    float64
	SumSq  float64   // sum of squares for variance
	Values []float64 // kept for median and percentiles
}

// Add records one value
func (s *Sample) Add(v float64) {
	s.N++
	s.Sum += v
	s.SumSq += v * v
	s.Values = append(s.Values, v)
}

// Mean returns the arithmetic mean
func (s *Sample) Mean() float64 {
	if s.N == 0 {
		return 0
	}
	return s.Sum / float64(s.N)
}

// Variance returns the sample variance
func (s *Sample) Variance() float64 {
	if s.N < 2 {
		return 0
	}
	mean := s.Mean()
	return (s.SumSq - float64(s.N)*mean*mean) / float64(s.N-1)
}

// StdDev returns the sample standard deviation
func (s *Sample) StdDev() float64 {
	return math.Sqrt(max(s.Variance(), 0))
}

// StdError returns the standard error of the mean
func (s *Sample) StdError() float64 {
	if s.N == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.N))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean
func (s *Sample) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

// Median returns the middle value
func (s *Sample) Median() float64 {
	return s.Percentile(0.5)
}

// Percentile returns the value at p (0.0 to 1.0), interpolating between
// neighbouring values
func (s *Sample) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := slices.Clone(s.Values)
	slices.Sort(sorted)

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
