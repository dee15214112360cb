package worker

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-logr/logr"

	"github.com/facegate/facegate/internal/api"
)

// Service serves the worker's HTTP endpoints.
type Service struct {
	DB             *Database
	Embedder       Embedder
	MatchThreshold float32
	Log            logr.Logger
}

// Router builds the worker's route table.
func (s *Service) Router() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /authenticate", s.handleAuthenticate)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	return mux
}

func (s *Service) handleAuthenticate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req api.AuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	image, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid base64 image: %v", err))
		return
	}

	embedding, err := s.Embedder.Embed(image)
	if err != nil {
		s.Log.Error(err, "embedding failed")
		writeError(w, http.StatusInternalServerError, "failed to generate embedding")
		return
	}

	var resp api.AuthResponse
	if userID, confidence, ok := s.DB.FindMatch(embedding, s.MatchThreshold); ok {
		name, _ := s.DB.UserName(userID)
		resp.Matched = true
		resp.UserID = userID
		resp.UserName = name
		resp.Confidence = confidence
	}
	resp.DurationMS = time.Since(start).Milliseconds()

	s.Log.V(1).Info("authenticate served", "matched", resp.Matched, "durationMS", resp.DurationMS)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleReady backs the Kubernetes readiness probe; the pod only
// reports ready once the embeddings database is loaded.
func (s *Service) handleReady(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ready",
		"enrolled": s.DB.Count(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, api.ErrorResponse{Error: message})
}
