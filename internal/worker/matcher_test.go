package worker

import (
	"math"
	"testing"
)

func almostEqual(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-6
}

func TestCosineSimilarityIdentical(t *testing.T) {
	sim, err := CosineSimilarity([]float32{1, 2, 3}, []float32{1, 2, 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(sim, 1.0) {
		t.Fatalf("expected 1.0, got %v", sim)
	}
}

func TestCosineSimilarityOrthogonal(t *testing.T) {
	sim, err := CosineSimilarity([]float32{1, 0}, []float32{0, 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(sim, 0.0) {
		t.Fatalf("expected 0.0, got %v", sim)
	}
}

func TestCosineSimilarityOpposite(t *testing.T) {
	sim, err := CosineSimilarity([]float32{1, 0}, []float32{-1, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(sim, -1.0) {
		t.Fatalf("expected -1.0, got %v", sim)
	}
}

func TestCosineSimilarityPartial(t *testing.T) {
	// 45 degrees between the vectors.
	sim, err := CosineSimilarity([]float32{1, 1}, []float32{1, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(float64(sim)-0.707) > 0.01 {
		t.Fatalf("expected ~0.707, got %v", sim)
	}
}

func TestCosineSimilarityZeroVector(t *testing.T) {
	sim, err := CosineSimilarity([]float32{0, 0, 0}, []float32{1, 2, 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sim != 0 {
		t.Fatalf("expected 0 for zero vector, got %v", sim)
	}
}

func TestCosineSimilarityLengthMismatch(t *testing.T) {
	if _, err := CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}); err == nil {
		t.Fatal("expected error for mismatched lengths")
	}
}
