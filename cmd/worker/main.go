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

	"github.com/spf13/cobra"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/facegate/facegate/internal/config"
	"github.com/facegate/facegate/internal/worker"
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
		Use:          "facegate-worker",
		Short:        "Face authentication worker serving one request at a time",
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

	cfg, err := config.WorkerFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	setupLog.Info("worker starting",
		"port", cfg.Port,
		"embeddingsPath", cfg.EmbeddingsPath,
		"matchThreshold", cfg.MatchThreshold)

	db, err := worker.LoadDatabase(cfg.EmbeddingsPath)
	if err != nil {
		return fmt.Errorf("failed to load embeddings database: %w", err)
	}
	setupLog.Info("embeddings database loaded", "enrolled", db.Count())

	// The model file named by MODEL_PATH is the seam for a real
	// inference backend; this build embeds with the deterministic
	// content embedder regardless.
	setupLog.Info("using content embedder", "modelPath", cfg.ModelPath)

	svc := &worker.Service{
		DB:             db,
		Embedder:       worker.ContentEmbedder{},
		MatchThreshold: float32(cfg.MatchThreshold),
		Log:            ctrl.Log.WithName("worker"),
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           svc.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
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

	setupLog.Info("worker listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	setupLog.Info("worker stopped")
	return nil
}
