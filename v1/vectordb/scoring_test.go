package vectordb

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricScore(t *testing.T) {
	tests := []struct {
		name     string
		metric   Metric
		distance float64
		want     float64
	}{
		{"cosine identical", MetricCosine, 0, 1},
		{"cosine orthogonal", MetricCosine, 1, 0},
		{"cosine opposite", MetricCosine, 2, -1},
		{"euclidean identical", MetricEuclidean, 0, 1},
		{"euclidean one", MetricEuclidean, 1, 0.5},
		{"dot product negated", MetricDotProduct, -3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.metric.Score(tt.distance), 1e-12)
		})
	}
}

func TestMetricScoreDecreasing(t *testing.T) {
	for _, m := range []Metric{MetricCosine, MetricEuclidean, MetricDotProduct} {
		prev := m.Score(0)
		for _, d := range []float64{0.1, 0.5, 1, 1.5, 2, 10} {
			s := m.Score(d)
			assert.Less(t, s, prev, "metric %s at distance %v", m, d)
			prev = s
		}
	}
}

func TestMetricValidate(t *testing.T) {
	assert.NoError(t, MetricCosine.Validate())
	assert.NoError(t, MetricEuclidean.Validate())
	assert.NoError(t, MetricDotProduct.Validate())

	err := Metric("manhattan").Validate()
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestRank(t *testing.T) {
	candidates := []Candidate{
		{Match: QueryMatch{ID: "c"}, Distance: 0.7},
		{Match: QueryMatch{ID: "a"}, Distance: 0.1},
		{Match: QueryMatch{ID: "tie-1"}, Distance: 0.4},
		{Match: QueryMatch{ID: "tie-2"}, Distance: 0.4},
		{Match: QueryMatch{ID: "b"}, Distance: 0.2},
	}

	t.Run("orders by distance and keeps ties stable", func(t *testing.T) {
		got, err := Rank(MetricCosine, candidates, 10)
		require.NoError(t, err)

		ids := make([]string, len(got))
		for i, m := range got {
			ids[i] = m.ID
		}
		assert.Equal(t, []string{"a", "b", "tie-1", "tie-2", "c"}, ids)
		assert.InDelta(t, 0.9, got[0].Score, 1e-12)
	})

	t.Run("truncates to topK", func(t *testing.T) {
		got, err := Rank(MetricCosine, candidates, 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "a", got[0].ID)
		assert.Equal(t, "b", got[1].ID)
	})

	t.Run("does not reorder the input", func(t *testing.T) {
		_, err := Rank(MetricCosine, candidates, 3)
		require.NoError(t, err)
		assert.Equal(t, "c", candidates[0].Match.ID)
	})

	t.Run("rejects non-positive topK", func(t *testing.T) {
		for _, k := range []int{0, -1} {
			_, err := Rank(MetricCosine, candidates, k)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "topK=%d", k)
			assert.Equal(t, "topK", verr.Field)
		}
	})
}

func TestResolveTopK(t *testing.T) {
	k, err := ResolveTopK(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultTopK, k)

	k, err = ResolveTopK(TopK(3))
	require.NoError(t, err)
	assert.Equal(t, 3, k)

	_, err = ResolveTopK(TopK(0))
	assert.True(t, IsValidation(err))
}
