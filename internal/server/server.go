package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/cors"
	"golang.org/x/oauth2"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"

	"github.com/teemow/gmailweb/internal/config"
	"github.com/teemow/gmailweb/internal/gmail"
	"github.com/teemow/gmailweb/internal/session"
)

// Authenticator is the slice of the OAuth provider the handlers need.
// Satisfied by google.Authenticator; faked in tests.
type Authenticator interface {
	Config() *oauth2.Config
	ConsentURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	FetchProfile(ctx context.Context, tok *oauth2.Token) (*session.Profile, error)
	Refresh(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, error)
}

// MailClient is the slice of the Gmail client the handlers need.
type MailClient interface {
	CurrentToken() (*oauth2.Token, error)
	ListMessages(maxResults int64) ([]*gmailapi.Message, error)
	ListLabels() ([]*gmailapi.Label, error)
	GetMessage(messageID, format string) (*gmailapi.Message, error)
	SendEmail(msg *gmail.EmailMessage) (messageID, threadID string, err error)
}

// mailClientFactory creates a MailClient for a token set. Swapped out in
// tests so no handler test touches the network.
type mailClientFactory func(ctx context.Context, conf *oauth2.Config, tok *oauth2.Token) (MailClient, error)

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	cfg           config.Config
	logger        *slog.Logger
	store         session.Store
	auth          Authenticator
	metrics       *Metrics
	health        *HealthChecker
	newMailClient mailClientFactory
	rateLimiter   *ipRateLimiter
	httpServer    *http.Server
}

// New creates a Server wired to the given session store and authenticator.
func New(cfg config.Config, logger *slog.Logger, store session.Store, auth Authenticator, metrics *Metrics) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		auth:    auth,
		metrics: metrics,
		health:  NewHealthChecker(cfg.Environment),
		newMailClient: func(ctx context.Context, conf *oauth2.Config, tok *oauth2.Token) (MailClient, error) {
			return gmail.NewClient(ctx, conf, tok)
		},
		rateLimiter: newIPRateLimiter(cfg.RateLimitRate, cfg.RateLimitBurst),
	}
	return s
}

// Handler builds the full HTTP handler: routes plus the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /auth", s.handleAuth)
	mux.HandleFunc("GET /oauth2callback", s.handleCallback)
	mux.HandleFunc("GET /dashboard", s.handleDashboard)
	mux.HandleFunc("GET /logout", s.handleLogout)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /send-test-email", s.handleSendTestEmail)
	mux.HandleFunc("POST /refresh-tokens", s.handleRefreshTokens)

	// JSON API routes get CORS handling for browser clients on other origins
	api := http.NewServeMux()
	api.HandleFunc("GET /api/emails/{id}", s.handleGetEmail)
	c := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})
	mux.Handle("/api/", c.Handler(api))

	s.health.RegisterHealthEndpoints(mux)

	var handler http.Handler = mux
	handler = s.rateLimitMiddleware(handler)
	handler = s.requestLogMiddleware(handler)
	handler = s.recoveryMiddleware(handler)
	return handler
}

// Start runs the web server until the context is cancelled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.health.SetReady(true)
	s.logger.Info("starting web server", "addr", s.cfg.Addr, "environment", s.cfg.Environment)

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-serverDone:
		return err
	}
}

// Shutdown gracefully shuts down the web server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)
	s.rateLimiter.Stop()
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// upstreamErrorMessage extracts the provider's own error text for responses
// that surface upstream failures verbatim.
func upstreamErrorMessage(err error) string {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
