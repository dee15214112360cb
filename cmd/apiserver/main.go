package main

import (
	"context"
	"errors"
	goflag "flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	// Import all Kubernetes client auth plugins (e.g. Azure, GCP, OIDC, etc.)
	// so the gateway can authenticate against managed clusters.
	_ "k8s.io/client-go/plugin/pkg/client/auth"

	"github.com/facegate/facegate/internal/config"
	"github.com/facegate/facegate/internal/directory"
	"github.com/facegate/facegate/internal/metrics"
	"github.com/facegate/facegate/internal/pool"
	"github.com/facegate/facegate/internal/server"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := zap.Options{Development: false}

	cmd := &cobra.Command{
		Use:          "facegate-apiserver",
		Short:        "Face authentication gateway backed by a leased worker pod pool",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(&opts)
		},
	}

	zapFlags := goflag.NewFlagSet("zap", goflag.ContinueOnError)
	opts.BindFlags(zapFlags)
	cmd.Flags().AddGoFlagSet(zapFlags)
	return cmd
}

func run(opts *zap.Options) error {
	ctrl.SetLogger(zap.New(zap.UseFlagOptions(opts)))
	setupLog := ctrl.Log.WithName("setup")

	cfg, err := config.ServerFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	setupLog.Info("gateway starting",
		"port", cfg.Port,
		"workerNamespace", cfg.WorkerNamespace,
		"workerSelector", cfg.WorkerSelector)

	dir, err := directory.NewKubeDirectory(cfg.Kubeconfig)
	if err != nil {
		return fmt.Errorf("failed to connect to kubernetes: %w", err)
	}
	setupLog.Info("connected to kubernetes")

	registry := prometheus.NewRegistry()
	gateway := &server.Gateway{
		Pool: &pool.Coordinator{
			Directory:     dir,
			Namespace:     cfg.WorkerNamespace,
			ReadySelector: cfg.WorkerSelector,
			Metrics:       metrics.NewPool(registry),
		},
		Workers: server.NewWorkerClient(cfg.WorkerPort, cfg.RequestTimeout),
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           gateway.Router(registry, cfg.RateRPS, cfg.RateBurst),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// The proxy path holds the response open for the whole
		// forwarded call, so the write timeout must outlast it.
		WriteTimeout: cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:  90 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		setupLog.Info("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	setupLog.Info("gateway listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	setupLog.Info("gateway stopped")
	return nil
}
