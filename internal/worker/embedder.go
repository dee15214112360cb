// Package worker implements the face authentication worker: an
// embedder turns an image into a feature vector, and the embeddings
// database answers nearest-neighbor lookups over cosine similarity
// against the enrolled reference set.
package worker

import "math"

// EmbeddingDim is the length of every produced and enrolled vector.
const EmbeddingDim = 512

// Embedder produces a feature vector from raw image bytes. It is the
// seam where a real inference backend plugs in; the shipped
// implementation is ContentEmbedder.
type Embedder interface {
	Embed(image []byte) ([]float32, error)
}

// ContentEmbedder derives a deterministic unit-length vector from the
// image content: the bytes are split into EmbeddingDim chunks and each
// chunk's byte sum maps to one component. Similar inputs give similar
// vectors, identical inputs give identical ones, which is what the
// matching pipeline needs for development and testing. Not a face
// model.
type ContentEmbedder struct{}

func (ContentEmbedder) Embed(image []byte) ([]float32, error) {
	embedding := make([]float32, EmbeddingDim)

	chunkSize := len(image) / EmbeddingDim
	if chunkSize < 1 {
		chunkSize = 1
	}

	for i := 0; i < EmbeddingDim; i++ {
		start := i * chunkSize
		if start >= len(image) {
			break
		}
		end := start + chunkSize
		if i == EmbeddingDim-1 || end > len(image) {
			end = len(image)
		}

		var sum uint32
		for _, b := range image[start:end] {
			sum += uint32(b)
		}
		embedding[i] = float32(sum%2000)/1000.0 - 1.0
	}

	normalize(embedding)
	return embedding, nil
}

func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	magnitude := math.Sqrt(sum)
	if magnitude == 0 {
		return
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / magnitude)
	}
}
