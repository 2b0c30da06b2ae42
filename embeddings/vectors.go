package embeddings

import "math"

// CosineSimilarity returns the cosine of the angle between a and b, or 0 when
// either vector has zero norm or the dimensions differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Normalize returns a new L2-normalized copy of v. A zero vector is returned
// as a zero-valued copy rather than producing NaNs.
func Normalize(v []float32) []float32 {
	out := make([]float32, len(v))

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return out
	}

	scale := 1 / math.Sqrt(norm)
	for i, x := range v {
		out[i] = float32(float64(x) * scale)
	}
	return out
}

// Blend combines two vectors as normalize(w*normalize(a) + (1-w)*normalize(b)).
// Both operands are normalized before blending so the weight governs angular
// contribution, not magnitude.
func Blend(a, b []float32, weight float64) []float32 {
	na := Normalize(a)
	nb := Normalize(b)

	mixed := make([]float32, len(na))
	for i := range mixed {
		mixed[i] = float32(weight*float64(na[i]) + (1-weight)*float64(nb[i]))
	}
	return Normalize(mixed)
}

// Mean returns the element-wise mean of the given vectors. All vectors must
// share the dimensionality of the first; nil is returned for empty input.
func Mean(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return nil
	}

	mean := make([]float32, len(vectors[0]))
	for _, v := range vectors {
		for i := range mean {
			mean[i] += v[i]
		}
	}

	n := float32(len(vectors))
	for i := range mean {
		mean[i] /= n
	}
	return mean
}
