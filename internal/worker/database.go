package worker

import (
	"encoding/json"
	"fmt"
	"os"
)

// UserEmbedding is one enrolled user's reference vector.
type UserEmbedding struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Embedding []float32 `json:"embedding"`
}

// EmbeddingsData is the on-disk format of the reference set, mounted
// into the worker from a Secret.
type EmbeddingsData struct {
	Embeddings []UserEmbedding `json:"embeddings"`
}

// Database answers nearest-neighbor queries over the enrolled
// reference set. Read-only after construction, safe for concurrent
// use.
type Database struct {
	embeddings []UserEmbedding
}

// NewDatabase wraps an already-loaded reference set.
func NewDatabase(embeddings []UserEmbedding) *Database {
	return &Database{embeddings: embeddings}
}

// LoadDatabase reads the reference set from a JSON file.
func LoadDatabase(path string) (*Database, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read embeddings file: %w", err)
	}

	var data EmbeddingsData
	if err := json.Unmarshal(contents, &data); err != nil {
		return nil, fmt.Errorf("failed to parse embeddings file: %w", err)
	}

	return &Database{embeddings: data.Embeddings}, nil
}

// Count returns the number of enrolled users.
func (d *Database) Count() int {
	return len(d.embeddings)
}

// FindMatch returns the enrolled user whose embedding is most similar
// to input, provided the similarity reaches threshold. Entries whose
// vectors cannot be compared with the input are skipped.
func (d *Database) FindMatch(input []float32, threshold float32) (userID string, confidence float32, ok bool) {
	for _, user := range d.embeddings {
		similarity, err := CosineSimilarity(input, user.Embedding)
		if err != nil || similarity < threshold {
			continue
		}
		if !ok || similarity > confidence {
			userID = user.UserID
			confidence = similarity
			ok = true
		}
	}
	return userID, confidence, ok
}

// UserName resolves an enrolled user's display name.
func (d *Database) UserName(userID string) (string, bool) {
	for _, user := range d.embeddings {
		if user.UserID == userID {
			return user.Name, true
		}
	}
	return "", false
}
