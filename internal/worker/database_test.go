package worker

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embeddings.json")
	data := `{"embeddings":[{"user_id":"user1","name":"Test User","embedding":[0.1,0.2,0.3]}]}`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	db, err := LoadDatabase(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if db.Count() != 1 {
		t.Fatalf("expected 1 user, got %d", db.Count())
	}
}

func TestLoadDatabaseMissingFile(t *testing.T) {
	if _, err := LoadDatabase("/nonexistent/embeddings.json"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadDatabaseInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embeddings.json")
	if err := os.WriteFile(path, []byte("not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadDatabase(path); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestFindMatchAboveThreshold(t *testing.T) {
	db := NewDatabase([]UserEmbedding{
		{UserID: "user1", Name: "User 1", Embedding: []float32{1, 0, 0}},
		{UserID: "user2", Name: "User 2", Embedding: []float32{0, 1, 0}},
	})

	userID, confidence, ok := db.FindMatch([]float32{0.9, 0.1, 0}, 0.8)
	if !ok {
		t.Fatal("expected a match")
	}
	if userID != "user1" {
		t.Fatalf("expected user1, got %s", userID)
	}
	if confidence <= 0.8 {
		t.Fatalf("expected confidence above threshold, got %v", confidence)
	}
}

func TestFindMatchBelowThreshold(t *testing.T) {
	db := NewDatabase([]UserEmbedding{
		{UserID: "user1", Name: "User 1", Embedding: []float32{1, 0, 0}},
	})

	if _, _, ok := db.FindMatch([]float32{0, 1, 0}, 0.8); ok {
		t.Fatal("expected no match below threshold")
	}
}

func TestFindMatchPicksBestCandidate(t *testing.T) {
	db := NewDatabase([]UserEmbedding{
		{UserID: "user1", Name: "User 1", Embedding: []float32{1, 0, 0}},
		{UserID: "user2", Name: "User 2", Embedding: []float32{0.9, 0.1, 0}},
	})

	userID, _, ok := db.FindMatch([]float32{1, 0, 0}, 0.5)
	if !ok || userID != "user1" {
		t.Fatalf("expected best match user1, got %s (ok=%v)", userID, ok)
	}
}

func TestFindMatchSkipsMismatchedDimensions(t *testing.T) {
	db := NewDatabase([]UserEmbedding{
		{UserID: "short", Name: "Short", Embedding: []float32{1, 0}},
		{UserID: "full", Name: "Full", Embedding: []float32{1, 0, 0}},
	})

	userID, _, ok := db.FindMatch([]float32{1, 0, 0}, 0.5)
	if !ok || userID != "full" {
		t.Fatalf("expected full, got %s (ok=%v)", userID, ok)
	}
}

func TestFindMatchEmptyDatabase(t *testing.T) {
	db := NewDatabase(nil)
	if _, _, ok := db.FindMatch([]float32{1, 0, 0}, 0.5); ok {
		t.Fatal("expected no match in empty database")
	}
	if db.Count() != 0 {
		t.Fatalf("expected count 0, got %d", db.Count())
	}
}

func TestUserName(t *testing.T) {
	db := NewDatabase([]UserEmbedding{
		{UserID: "user1", Name: "Jamie", Embedding: []float32{1}},
	})

	name, ok := db.UserName("user1")
	if !ok || name != "Jamie" {
		t.Fatalf("expected Jamie, got %s (ok=%v)", name, ok)
	}
	if _, ok := db.UserName("missing"); ok {
		t.Fatal("expected no name for unknown user")
	}
}
