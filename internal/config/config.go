// Package config loads process configuration from the environment.
// Variable names match the deployment manifests: the gateway reads
// PORT, WORKER_NAMESPACE and WORKER_SELECTOR; the worker reads PORT,
// EMBEDDINGS_PATH, MODEL_PATH and MATCH_THRESHOLD.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Server configures the gateway process.
type Server struct {
	Port            int
	WorkerNamespace string
	WorkerSelector  string
	WorkerPort      int
	RequestTimeout  time.Duration
	Kubeconfig      string
	RateRPS         float64
	RateBurst       int
}

// Worker configures the worker process.
type Worker struct {
	Port           int
	EmbeddingsPath string
	ModelPath      string
	MatchThreshold float64
}

// ServerFromEnv builds the gateway configuration from environment
// variables, falling back to defaults.
func ServerFromEnv() (*Server, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("port", 8080)
	v.SetDefault("worker_namespace", "facegate-workers")
	v.SetDefault("worker_selector", "app=facegate-worker,status=ready")
	v.SetDefault("worker_port", 8080)
	v.SetDefault("request_timeout", "30s")
	v.SetDefault("kubeconfig", "")
	v.SetDefault("rate_rps", 0.0)
	v.SetDefault("rate_burst", 0)

	cfg := &Server{
		Port:            v.GetInt("port"),
		WorkerNamespace: v.GetString("worker_namespace"),
		WorkerSelector:  v.GetString("worker_selector"),
		WorkerPort:      v.GetInt("worker_port"),
		RequestTimeout:  v.GetDuration("request_timeout"),
		Kubeconfig:      v.GetString("kubeconfig"),
		RateRPS:         v.GetFloat64("rate_rps"),
		RateBurst:       v.GetInt("rate_burst"),
	}

	if err := validatePort(cfg.Port); err != nil {
		return nil, err
	}
	if err := validatePort(cfg.WorkerPort); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("invalid REQUEST_TIMEOUT: %s", cfg.RequestTimeout)
	}
	return cfg, nil
}

// WorkerFromEnv builds the worker configuration from environment
// variables, falling back to defaults.
func WorkerFromEnv() (*Worker, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("port", 8080)
	v.SetDefault("embeddings_path", "/etc/embeddings/data.json")
	v.SetDefault("model_path", "/models/face_recognition.onnx")
	v.SetDefault("match_threshold", 0.7)

	cfg := &Worker{
		Port:           v.GetInt("port"),
		EmbeddingsPath: v.GetString("embeddings_path"),
		ModelPath:      v.GetString("model_path"),
		MatchThreshold: v.GetFloat64("match_threshold"),
	}

	if err := validatePort(cfg.Port); err != nil {
		return nil, err
	}
	if cfg.MatchThreshold <= 0 || cfg.MatchThreshold > 1 {
		return nil, fmt.Errorf("invalid MATCH_THRESHOLD: %v", cfg.MatchThreshold)
	}
	return cfg, nil
}

func validatePort(port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid port: %d", port)
	}
	return nil
}
