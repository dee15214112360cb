package worker

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-logr/logr"

	"github.com/facegate/facegate/internal/api"
)

func newTestService(embeddings []UserEmbedding) *Service {
	return &Service{
		DB:             NewDatabase(embeddings),
		Embedder:       ContentEmbedder{},
		MatchThreshold: 0.7,
		Log:            logr.Discard(),
	}
}

func postAuthenticate(t *testing.T, svc *Service, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/authenticate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	svc.Router().ServeHTTP(rec, req)
	return rec
}

func TestAuthenticateMatchesEnrolledImage(t *testing.T) {
	image := []byte("a known enrolled image")
	reference, err := ContentEmbedder{}.Embed(image)
	if err != nil {
		t.Fatal(err)
	}

	svc := newTestService([]UserEmbedding{
		{UserID: "user1", Name: "Test User", Embedding: reference},
	})

	body, _ := json.Marshal(api.AuthRequest{
		ImageBase64: base64.StdEncoding.EncodeToString(image),
	})
	rec := postAuthenticate(t, svc, body)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp api.AuthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Matched || resp.UserID != "user1" || resp.UserName != "Test User" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Confidence < 0.99 {
		t.Fatalf("expected near-perfect confidence, got %v", resp.Confidence)
	}
}

func TestAuthenticateNoMatch(t *testing.T) {
	svc := newTestService([]UserEmbedding{
		{UserID: "user1", Name: "Test User", Embedding: make([]float32, EmbeddingDim)},
	})

	body, _ := json.Marshal(api.AuthRequest{
		ImageBase64: base64.StdEncoding.EncodeToString([]byte("a stranger")),
	})
	rec := postAuthenticate(t, svc, body)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp api.AuthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Matched || resp.UserID != "" {
		t.Fatalf("expected no match, got %+v", resp)
	}
}

func TestAuthenticateInvalidBase64(t *testing.T) {
	svc := newTestService(nil)

	body, _ := json.Marshal(api.AuthRequest{ImageBase64: "%%% not base64 %%%"})
	rec := postAuthenticate(t, svc, body)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuthenticateInvalidJSON(t *testing.T) {
	svc := newTestService(nil)

	rec := postAuthenticate(t, svc, []byte("not json"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHealthAndReady(t *testing.T) {
	svc := newTestService([]UserEmbedding{
		{UserID: "user1", Name: "Test User", Embedding: []float32{1}},
	})

	rec := httptest.NewRecorder()
	svc.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	svc.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("ready: expected 200, got %d", rec.Code)
	}

	var ready struct {
		Status   string `json:"status"`
		Enrolled int    `json:"enrolled"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &ready); err != nil {
		t.Fatal(err)
	}
	if ready.Status != "ready" || ready.Enrolled != 1 {
		t.Fatalf("unexpected ready body: %+v", ready)
	}
}
