package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/gmailweb/internal/config"
	"github.com/teemow/gmailweb/internal/google"
	"github.com/teemow/gmailweb/internal/logging"
	"github.com/teemow/gmailweb/internal/server"
	"github.com/teemow/gmailweb/internal/session"
)

func newServeCmd() *cobra.Command {
	var (
		addr               string
		baseURL            string
		environment        string
		debugMode          bool
		googleClientID     string
		googleClientSecret string
		sessionTTL         time.Duration
		metricsEnabled     bool
		metricsAddr        string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web application",
		Long: `Start the Gmail OAuth demo web application.

The app serves the OAuth authorization-code flow (/auth, /oauth2callback),
an authenticated dashboard, and a small JSON API for sending a test email,
fetching a single message and refreshing tokens.

OAuth Configuration:
  --google-client-id and --google-client-secret flags
  OR GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET env vars
  The redirect URL registered in the Google Cloud console must be
  <base-url>/oauth2callback.

Base URL:
  --base-url https://your-domain.com OR GMAILWEB_BASE_URL env var
  Auto-detected for localhost (development only).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			// Flags override environment values when explicitly set
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			if cmd.Flags().Changed("base-url") {
				cfg.BaseURL = baseURL
			}
			if cmd.Flags().Changed("env") {
				cfg.Environment = environment
			}
			if cmd.Flags().Changed("debug") {
				cfg.Debug = debugMode
			}
			if cmd.Flags().Changed("google-client-id") {
				cfg.GoogleClientID = googleClientID
			}
			if cmd.Flags().Changed("google-client-secret") {
				cfg.GoogleClientSecret = googleClientSecret
			}
			if cmd.Flags().Changed("session-ttl") {
				cfg.SessionTTL = sessionTTL
			}
			if cmd.Flags().Changed("metrics-enabled") {
				cfg.MetricsEnabled = metricsEnabled
			}
			if cmd.Flags().Changed("metrics-addr") {
				cfg.MetricsAddr = metricsAddr
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			return runServe(cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "HTTP server address. Can also use GMAILWEB_ADDR env var.")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Public base URL for OAuth redirects. Required for deployed instances. Can also use GMAILWEB_BASE_URL env var. Example: https://gmailweb.example.com")
	cmd.Flags().StringVar(&environment, "env", config.EnvDevelopment, "Runtime environment: development or production. Can also use GMAILWEB_ENV env var.")
	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&googleClientID, "google-client-id", "", "Google OAuth Client ID. Can also use GOOGLE_CLIENT_ID env var.")
	cmd.Flags().StringVar(&googleClientSecret, "google-client-secret", "", "Google OAuth Client Secret. Can also use GOOGLE_CLIENT_SECRET env var.")
	cmd.Flags().DurationVar(&sessionTTL, "session-ttl", 24*time.Hour, "Idle timeout for server-side session records. Can also use GMAILWEB_SESSION_TTL env var.")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9090", "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

func runServe(cfg config.Config) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := logging.New(os.Stderr, cfg.Environment, cfg.Debug)

	var metrics *server.Metrics
	var metricsServer *server.MetricsServer
	if cfg.MetricsEnabled {
		metrics = server.NewMetrics()
		metricsServer = server.NewMetricsServer(cfg.MetricsAddr, metrics)

		// Use ready channel to confirm metrics server started successfully
		metricsReady := make(chan struct{})
		metricsErr := make(chan error, 1)
		go func() {
			if err := metricsServer.StartWithReadySignal(metricsReady); err != nil && err != http.ErrServerClosed {
				metricsErr <- err
			}
			close(metricsErr)
		}()

		// Wait for metrics server to be ready or fail
		select {
		case <-metricsReady:
			logger.Info("metrics server started", "addr", metricsServer.Addr())
		case err := <-metricsErr:
			return fmt.Errorf("metrics server failed to start: %w", err)
		case <-time.After(5 * time.Second):
			return fmt.Errorf("metrics server startup timed out")
		}
	}
	defer func() {
		if metricsServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Error("error during metrics server shutdown", logging.Err(err))
			}
		}
	}()

	store := session.NewMemoryStoreWithLogger(cfg.SessionTTL, logger)
	defer store.Stop()

	auth := google.NewAuthenticator(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.RedirectURL())

	srv := server.New(cfg, logger, store, auth, metrics)

	logger.Info("gmailweb starting",
		"version", version,
		"base_url", cfg.ResolvedBaseURL(),
		"environment", cfg.Environment)

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := srv.Start(shutdownCtx); err != nil {
			serverDone <- err
		}
	}()

	select {
	case <-shutdownCtx.Done():
		logger.Info("shutdown signal received, stopping web server")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("error shutting down web server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("web server stopped with error: %w", err)
		}
	}

	logger.Info("web server gracefully stopped")
	return nil
}
