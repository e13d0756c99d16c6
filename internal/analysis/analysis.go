package analysis

import (
	"errors"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrNoValues is returned when a reduction is requested over empty input.
// The underlying reductions would silently produce NaN otherwise.
var ErrNoValues = errors.New("at least one value is required")

// Stats holds the descriptive reductions over a flat series.
// Std is the population standard deviation (divisor n, not n-1).
type Stats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
	Count  int     `json:"count"`
}

// GroupStats holds the per-category reductions of a grouped analysis.
type GroupStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
	Count  int     `json:"count"`
	Sum    float64 `json:"sum"`
}

// Observation is a single value carrying a category label.
type Observation struct {
	Category string
	Value    float64
}

// Describe computes mean, median, population standard deviation and count
// over values. Fails with ErrNoValues on empty input.
func Describe(values []float64) (Stats, error) {
	if len(values) == 0 {
		return Stats{}, ErrNoValues
	}

	return Stats{
		Mean:   stat.Mean(values, nil),
		Median: median(values),
		Std:    stat.PopStdDev(values, nil),
		Count:  len(values),
	}, nil
}

// DescribeGrouped computes Describe plus the sum independently for each
// distinct category found in obs. Fails with ErrNoValues on empty input.
func DescribeGrouped(obs []Observation) (map[string]GroupStats, error) {
	if len(obs) == 0 {
		return nil, ErrNoValues
	}

	grouped := make(map[string][]float64)
	for _, o := range obs {
		grouped[o.Category] = append(grouped[o.Category], o.Value)
	}

	results := make(map[string]GroupStats, len(grouped))
	for category, values := range grouped {
		results[category] = GroupStats{
			Mean:   stat.Mean(values, nil),
			Median: median(values),
			Std:    stat.PopStdDev(values, nil),
			Count:  len(values),
			Sum:    floats.Sum(values),
		}
	}

	return results, nil
}

// median returns the midpoint of the two central values for even-length
// input. gonum's empirical quantile does not interpolate, so this is done
// by hand.
func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}
