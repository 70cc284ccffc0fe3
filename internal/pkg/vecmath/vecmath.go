package vecmath

import (
	"fmt"
	"math"
)

// CosineSimilarity returns the cosine of the angle between a and b.
// Mismatched lengths and zero-norm vectors score 0 instead of erroring,
// so stored embeddings from an older model version degrade to non-matches.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
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

// Mean returns the element-wise average of the given vectors.
func Mean(vectors [][]float32) ([]float32, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("mean of empty vector set")
	}
	dim := len(vectors[0])
	sum := make([]float64, dim)
	for _, vector := range vectors {
		for i := 0; i < dim && i < len(vector); i++ {
			sum[i] += float64(vector[i])
		}
	}
	out := make([]float32, dim)
	for i := range sum {
		out[i] = float32(sum[i] / float64(len(vectors)))
	}
	return out, nil
}

// IsZero reports whether every component of v is zero. Ingestion writes an
// all-zero placeholder for chunks whose embedding has not been computed yet.
func IsZero(v []float32) bool {
	for _, value := range v {
		if value != 0 {
			return false
		}
	}
	return true
}
