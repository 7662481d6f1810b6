package vectordb

import (
	"fmt"
	"sort"
)

// Metric is the distance function configured on a collection.
type Metric string

const (
	MetricCosine     Metric = "cosine"
	MetricEuclidean  Metric = "euclidean"
	MetricDotProduct Metric = "dot_product"
)

// Validate rejects unknown metrics.
func (m Metric) Validate() error {
	switch m {
	case MetricCosine, MetricEuclidean, MetricDotProduct:
		return nil
	}
	return &ValidationError{Field: "metric", Reason: fmt.Sprintf("unsupported metric %q (want cosine, euclidean or dot_product)", string(m))}
}

// Score converts a raw store distance into a similarity score where higher
// means more similar. The transform is strictly decreasing in distance.
//
//	cosine:      1 - d
//	euclidean:   1 / (1 + d)
//	dot_product: -d  (the store reports the negated inner product)
func (m Metric) Score(distance float64) float64 {
	switch m {
	case MetricEuclidean:
		return 1 / (1 + distance)
	case MetricDotProduct:
		return -distance
	default:
		return 1 - distance
	}
}

// Candidate is an unranked match together with the distance reported by the store.
type Candidate struct {
	Match    QueryMatch
	Distance float64
}

// ValidateTopK rejects non-positive limits.
func ValidateTopK(topK int) error {
	if topK <= 0 {
		return &ValidationError{Field: "topK", Reason: fmt.Sprintf("topK must be a positive integer, got %d", topK)}
	}
	return nil
}

// ResolveTopK applies DefaultTopK to a nil limit and validates the result.
func ResolveTopK(topK *int) (int, error) {
	if topK == nil {
		return DefaultTopK, nil
	}
	if err := ValidateTopK(*topK); err != nil {
		return 0, err
	}
	return *topK, nil
}

// Rank orders candidates by ascending distance, keeps at most topK of them
// and attaches the metric's score. Equal distances keep the store's order.
func Rank(metric Metric, candidates []Candidate, topK int) ([]QueryMatch, error) {
	if err := ValidateTopK(topK); err != nil {
		return nil, err
	}

	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Distance < sorted[j].Distance
	})

	if len(sorted) > topK {
		sorted = sorted[:topK]
	}

	matches := make([]QueryMatch, len(sorted))
	for i, c := range sorted {
		m := c.Match
		m.Score = metric.Score(c.Distance)
		matches[i] = m
	}
	return matches, nil
}
