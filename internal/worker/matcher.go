package worker

import (
	"fmt"
	"math"
)

// CosineSimilarity returns the cosine of the angle between two
// vectors, in [-1, 1]. Zero-magnitude vectors compare as 0. Vectors of
// different lengths cannot be compared.
func CosineSimilarity(a, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("embedding length mismatch: %d vs %d", len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB))), nil
}
