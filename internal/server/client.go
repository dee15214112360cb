package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/facegate/facegate/internal/api"
)

// WorkerClient forwards authenticate requests to worker pods. One
// client with a pooled transport is shared across all requests; the
// timeout bounds the whole forwarded call, independent of the pool
// protocol.
type WorkerClient struct {
	httpClient *http.Client
	port       int
}

// NewWorkerClient builds a client talking to workers on the given port.
func NewWorkerClient(port int, timeout time.Duration) *WorkerClient {
	transport := &http.Transport{
		MaxIdleConns:    10,
		MaxConnsPerHost: 10,
		IdleConnTimeout: 90 * time.Second,
	}
	return &WorkerClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		port: port,
	}
}

// Authenticate posts one authenticate request to the worker at host
// and decodes its answer. A non-2xx status is returned as an error
// carrying the worker's response body.
func (c *WorkerClient) Authenticate(ctx context.Context, host string, authReq api.AuthRequest) (*api.AuthResponse, error) {
	body, err := json.Marshal(authReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("http://%s/authenticate", net.JoinHostPort(host, strconv.Itoa(c.port)))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("worker request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("worker returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var authResp api.AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		return nil, fmt.Errorf("invalid worker response: %w", err)
	}
	return &authResp, nil
}
