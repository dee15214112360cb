// Package api holds the wire types shared between the gateway and the
// worker pods. Both speak the same JSON authenticate contract, so the
// gateway can forward a request body untouched and relay the worker's
// answer back to the client.
package api

// AuthRequest is the body of POST /authenticate.
type AuthRequest struct {
	ImageBase64 string `json:"image_base64"`
}

// AuthResponse is the result of a face authentication attempt.
//
// DurationMS is stamped by whichever service answers last: the worker
// reports its inference time, and the gateway overwrites it with the
// total time including pool acquisition and proxying.
type AuthResponse struct {
	Matched    bool    `json:"matched"`
	UserID     string  `json:"user_id,omitempty"`
	UserName   string  `json:"user_name,omitempty"`
	Confidence float32 `json:"confidence"`
	DurationMS int64   `json:"duration_ms,omitempty"`
}

// ErrorResponse is the body returned on any non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
}
