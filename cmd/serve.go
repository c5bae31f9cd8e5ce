package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/workshoplabs/inspekt/internal/attachments"
	"github.com/workshoplabs/inspekt/internal/capture"
	"github.com/workshoplabs/inspekt/internal/compose"
	"github.com/workshoplabs/inspekt/internal/config"
	"github.com/workshoplabs/inspekt/internal/handlers"
	"github.com/workshoplabs/inspekt/internal/inline"
	"github.com/workshoplabs/inspekt/internal/recognize"
	"github.com/workshoplabs/inspekt/internal/storage"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the scan and report API server",
		Long: `Starts the Inspekt API on the configured address.

The API accepts photographed documents for normalization, drives plate and
vehicle recognition, manages per-request attachment archives and composes
inspection report PDFs.`,
		Example: `  # Start server on the configured address (default :8080)
  inspekt serve

  # Start server on a custom address
  inspekt serve --addr :3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Address = addr
			}

			handler, err := buildHandler(cfg)
			if err != nil {
				return err
			}

			// Set up routes
			mux := http.NewServeMux()
			mux.HandleFunc("/api/scan", handler.HandleScan)
			mux.HandleFunc("/api/scan/recognize", handler.HandleRecognize)
			mux.HandleFunc("/api/requests/", handler.HandleRequests)
			mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte("OK")); err != nil {
					slog.Error("Unable to write healthcheck", "err", err)
				}
			})

			server := &http.Server{
				Addr:    cfg.Address,
				Handler: mux,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Inspekt API available", "addr", cfg.Address)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Address to listen on (overrides INSPEKT_ADDRESS)")

	return cmd
}

// buildHandler assembles the handler's collaborators from configuration.
// Without an S3 endpoint the archive falls back to in-process storage, and
// without a Gemini key recognition stays unconfigured.
func buildHandler(cfg *config.Config) (*handlers.Handler, error) {
	var store attachments.ObjectStore
	if cfg.Storage.Endpoint != "" {
		s3, err := storage.New(cfg.Storage)
		if err != nil {
			return nil, err
		}
		if err := s3.EnsureBucket(context.Background()); err != nil {
			return nil, err
		}
		store = s3
	} else {
		slog.Warn("No object storage configured, attachments are kept in memory")
		store = storage.NewMemory()
	}

	var recognizer recognize.Client
	if cfg.GeminiAPIKey != "" {
		recognizer, _ = recognize.NewGemini(cfg.GeminiAPIKey, cfg.GeminiModel)
	} else {
		slog.Warn("GEMINI_API_KEY not set, recognition endpoints disabled")
	}

	fetcher := inline.NewFetcher(cfg.ProxyA, cfg.ProxyB)
	compositor := compose.New(fetcher)

	opts := capture.RenderOptions{
		OutputWidth: cfg.OutputWidth,
		Quality:     cfg.JPEGQuality,
	}
	return handlers.New(store, recognizer, compositor, opts), nil
}
