package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagarc03/fragments/auth"
	"github.com/sagarc03/fragments/config"
	fraghttp "github.com/sagarc03/fragments/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the fragments HTTP server.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 8080, "HTTP server port (env: FRAGMENTS_SERVER_PORT)")
	serveCmd.Flags().String("api-url", "", "public base URL used in Location headers (env: FRAGMENTS_SERVER_API_URL)")
	serveCmd.Flags().String("auth-strategy", "", "authentication strategy: basic, bearer, sigv4 (env: FRAGMENTS_AUTH_STRATEGY)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	manager, closeStores, err := openManager(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	resolver, err := auth.New(cfg.Auth)
	if err != nil {
		return fmt.Errorf("configure auth: %w", err)
	}
	slog.Info("authentication configured", "strategy", cfg.Auth.Strategy)

	handler := fraghttp.NewHandler(&fraghttp.HandlerConfig{
		APIURL:      cfg.Server.APIURL,
		MaxBodySize: cfg.Server.MaxBodySize,
		Version:     version,
		Resolver:    resolver,
		CORS:        cfg.CORS,
	}, manager)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "err", err)
		return fmt.Errorf("shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
