package embeddings_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/ragchunk/embeddings"
)

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"dimension mismatch", []float32{1, 0}, []float32{1, 0, 0}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
		{"empty", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, embeddings.CosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestNormalize(t *testing.T) {
	v := []float32{3, 4}
	n := embeddings.Normalize(v)

	assert.InDelta(t, 1.0, norm(n), 1e-6)
	assert.InDelta(t, 0.6, float64(n[0]), 1e-6)
	assert.Equal(t, []float32{3, 4}, v, "input must not be modified")

	zero := embeddings.Normalize([]float32{0, 0, 0})
	assert.Equal(t, []float32{0, 0, 0}, zero)
}

func TestBlend(t *testing.T) {
	a := []float32{2, 0}
	b := []float32{0, 5}

	blended := embeddings.Blend(a, b, 0.7)
	require.Len(t, blended, 2)
	assert.InDelta(t, 1.0, norm(blended), 1e-6, "blend output is unit-normalized")

	// The dominant weight keeps the result closer to a than to b.
	simA := embeddings.CosineSimilarity(blended, a)
	simB := embeddings.CosineSimilarity(blended, b)
	assert.Greater(t, simA, simB)

	// Weight 1 reduces to a alone; weight 0 to b alone.
	assert.InDelta(t, 1.0, embeddings.CosineSimilarity(embeddings.Blend(a, b, 1), a), 1e-6)
	assert.InDelta(t, 1.0, embeddings.CosineSimilarity(embeddings.Blend(a, b, 0), b), 1e-6)
}

func TestBlend_MagnitudeInvariant(t *testing.T) {
	a := []float32{1, 1, 0}
	big := []float32{100, 100, 0}
	b := []float32{0, 0, 1}

	// Operands are normalized before mixing, so input magnitude is
	// irrelevant.
	assert.InDeltaSlice(t, embeddings.Blend(a, b, 0.7), embeddings.Blend(big, b, 0.7), 1e-6)
}

func TestMean(t *testing.T) {
	mean := embeddings.Mean([][]float32{{1, 2}, {3, 4}})
	assert.Equal(t, []float32{2, 3}, mean)
	assert.Nil(t, embeddings.Mean(nil))
}
