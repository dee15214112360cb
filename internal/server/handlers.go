// Package server implements the gateway's HTTP surface: it leases a
// worker pod from the pool, forwards the client's authenticate request
// to it, returns the pod, and relays the worker's answer.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/facegate/facegate/internal/api"
	"github.com/facegate/facegate/internal/pool"
)

// Gateway holds the collaborators of the request path.
type Gateway struct {
	Pool    *pool.Coordinator
	Workers *WorkerClient
}

// Router builds the gateway's route table with middleware applied.
// The registry backs GET /metrics; pass the registry the pool metrics
// are registered with.
func (g *Gateway) Router(registry *prometheus.Registry, rps float64, burst int) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /authenticate", g.handleAuthenticate)
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	var h http.Handler = mux
	h = RateLimit(rps, burst)(h)
	h = RequestID(h)
	return h
}

// handleAuthenticate is the proxy path: acquire a worker pod, forward
// one request, release, answer. The release is deferred so the pod
// returns to the pool on every exit, including worker failures; a
// failed release is logged and never fails the client's request.
func (g *Gateway) handleAuthenticate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx).WithName("gateway")
	start := time.Now()

	var authReq api.AuthRequest
	if err := json.NewDecoder(r.Body).Decode(&authReq); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	acquired, err := g.Pool.Acquire(ctx)
	if err != nil {
		if errors.Is(err, pool.ErrNoneAvailable) {
			writeError(w, http.StatusServiceUnavailable, "no available worker pods")
			return
		}
		logger.Error(err, "acquire failed")
		writeError(w, http.StatusInternalServerError, "failed to acquire worker pod")
		return
	}
	defer func() {
		// The request context may already be canceled by a client
		// disconnect; the release still has to reach the directory.
		if err := g.Pool.Release(context.WithoutCancel(ctx), acquired); err != nil {
			// The pod stays busy until relabeled externally; the
			// client's request already has its answer.
			logger.Error(err, "failed to release worker pod", "pod", acquired.Name)
		}
	}()

	host, err := pool.PodEndpoint(acquired)
	if err != nil {
		logger.Error(err, "acquired pod unusable", "pod", acquired.Name)
		writeError(w, http.StatusInternalServerError, "worker pod has no address")
		return
	}

	logger.Info("forwarding request to worker", "pod", acquired.Name, "host", host)

	authResp, err := g.Workers.Authenticate(ctx, host, authReq)
	if err != nil {
		logger.Error(err, "worker request failed", "pod", acquired.Name)
		writeError(w, http.StatusBadGateway, fmt.Sprintf("worker request failed: %v", err))
		return
	}

	// Report the total time including acquisition and proxying, not
	// just the worker's inference time.
	authResp.DurationMS = time.Since(start).Milliseconds()
	writeJSON(w, http.StatusOK, authResp)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "facegate-gateway",
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
