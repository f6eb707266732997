package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"asset-tracker-backend/internal/api"
	"asset-tracker-backend/internal/audit"
	"asset-tracker-backend/internal/importer"
	"asset-tracker-backend/internal/inventory"
	"asset-tracker-backend/internal/parse"
)

// flushingSubmitter clears the response cache after imports that bypass the HTTP layer.
type flushingSubmitter struct {
	next  importer.Submitter
	cache *cache.Cache
}

func (f flushingSubmitter) Submit(ctx context.Context, rows []parse.Row) (int, error) {
	n, err := f.next.Submit(ctx, rows)
	if err == nil {
		f.cache.Flush()
	}
	return n, err
}

func newServeCmd(open func(*cobra.Command) (*app, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the inbox watcher",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			return serve(cmd.Context(), a)
		},
	}
}

func serve(ctx context.Context, a *app) error {
	cfg := a.cfg
	logger := a.logger

	// Import runs use the background context, not the signal. It is cancelled
	// only after the queue has drained its in-flight runs.
	bgCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue := importer.NewQueue(cfg.Importer.Workers, importer.NewPipeline(a.store, logger), logger)
	queue.Start(bgCtx)
	defer queue.Stop()

	ttl := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	responseCache := cache.New(ttl, 2*ttl)

	watcher := importer.NewWatcher(&cfg.Importer, flushingSubmitter{next: queue, cache: responseCache}, logger)
	go watcher.Run(ctx)

	svc := inventory.NewService(a.store, audit.NewRecorder(), logger)
	handler := api.NewHandler(svc, queue, cfg.Server.MaxUploadMB<<20, logger)

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(bgCtx, handler, &cfg.Server, responseCache, logger)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server starting", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server ListenAndServe: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server Shutdown: %w", err)
	}
	logger.Info("Server gracefully stopped")
	return nil
}
