package server

import (
	"net/http"
	"time"

	"github.com/teemow/gmailweb/internal/logging"
	"github.com/teemow/gmailweb/internal/session"
)

// handleHome reports the authentication status of the current session.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	data := homeData{}
	if rec, err := s.sessionFromRequest(r); err == nil && rec.Authenticated() {
		data.Authenticated = true
		data.Email = rec.Profile.Email
	}
	s.renderTemplate(w, http.StatusOK, "home.html", data)
}

// handleAuth starts the authorization-code flow: a fresh session record
// holding only the CSRF state, a session cookie, and a redirect to the
// provider's consent page.
func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	rec := &session.Record{
		ID:    session.NewID(),
		State: session.NewState(),
	}

	if err := s.store.Set(r.Context(), rec); err != nil {
		s.logger.Error("failed to create session", logging.Operation("auth"), logging.Err(err))
		s.renderError(w, http.StatusInternalServerError, "Authentication unavailable",
			"Could not start the sign-in flow. Please try again.")
		return
	}

	s.setSessionCookie(w, rec.ID)
	s.metrics.AuthFlowStarted()

	s.logger.Info("authorization flow started",
		logging.Operation("auth"),
		logging.SessionHash(rec.ID))

	http.Redirect(w, r, s.auth.ConsentURL(rec.State), http.StatusFound)
}

// handleCallback consumes the provider redirect: it validates the CSRF
// state against the session record, exchanges the code for a token set,
// fetches the user profile and completes the session.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logging.WithOperation(s.logger, "oauth_callback")

	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		s.renderError(w, http.StatusBadRequest, "Invalid callback",
			"Missing code or state parameter.")
		return
	}

	rec, err := s.sessionFromRequest(r)
	if err != nil {
		log.Warn("callback without a known session", logging.Err(err))
		s.renderError(w, http.StatusBadRequest, "Invalid session",
			"Your session could not be found. Please start over.")
		return
	}

	// State must match before anything touches the network. A mismatch is
	// treated as a forged callback.
	if !rec.ConsumeState(state) {
		log.Warn("state mismatch, possible CSRF attempt", logging.SessionHash(rec.ID))
		s.metrics.AuthFlowFailed("csrf_mismatch")
		s.renderError(w, http.StatusBadRequest, "Invalid state",
			"The authorization response did not match this session. Please start over.")
		return
	}
	// The state is single-use: persist its consumption so a replayed
	// code+state pair is rejected.
	if err := s.store.Set(ctx, rec); err != nil {
		log.Error("failed to persist session", logging.Err(err))
	}

	tok, err := s.auth.Exchange(ctx, code)
	if err != nil {
		log.Error("token exchange failed", logging.SessionHash(rec.ID), logging.Err(err))
		s.metrics.AuthFlowFailed("exchange")
		s.renderError(w, http.StatusBadGateway, "Authentication failed",
			"Could not complete the sign-in with Google. Please try again.")
		return
	}

	profile, err := s.auth.FetchProfile(ctx, tok)
	if err != nil {
		log.Error("profile fetch failed", logging.SessionHash(rec.ID), logging.Err(err))
		s.metrics.AuthFlowFailed("profile")
		s.renderError(w, http.StatusBadGateway, "Authentication failed",
			"Could not load your Google profile. Please try again.")
		return
	}

	rec.Token = tok
	rec.Profile = profile
	if err := s.store.Set(ctx, rec); err != nil {
		log.Error("failed to persist authenticated session", logging.Err(err))
		s.renderError(w, http.StatusInternalServerError, "Authentication failed",
			"Could not store your session. Please try again.")
		return
	}

	s.metrics.AuthFlowCompleted()
	log.Info("authorization flow completed",
		logging.SessionHash(rec.ID),
		logging.UserHash(profile.Email),
		logging.Domain(profile.Email))

	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// handleDashboard renders the authenticated view: profile, recent
// messages and labels, composed from three independent Gmail calls.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rec, err := s.sessionFromRequest(r)
	if err != nil || !rec.Authenticated() {
		http.Redirect(w, r, "/auth", http.StatusFound)
		return
	}

	client, err := s.newMailClient(ctx, s.auth.Config(), rec.Token)
	if err != nil {
		s.logger.Error("failed to create Gmail client", logging.Operation("dashboard"), logging.Err(err))
		s.renderError(w, http.StatusBadGateway, "Failed to load dashboard",
			"Could not load your mailbox data. Please try again.")
		return
	}

	messages, err := client.ListMessages(10)
	if err != nil {
		s.logger.Error("failed to list messages", logging.Operation("dashboard"), logging.Err(err))
		s.renderError(w, http.StatusBadGateway, "Failed to load dashboard",
			"Could not load your mailbox data. Please try again.")
		return
	}

	labels, err := client.ListLabels()
	if err != nil {
		s.logger.Error("failed to list labels", logging.Operation("dashboard"), logging.Err(err))
		s.renderError(w, http.StatusBadGateway, "Failed to load dashboard",
			"Could not load your mailbox data. Please try again.")
		return
	}

	s.persistCurrentToken(r, rec, client)

	s.renderTemplate(w, http.StatusOK, "dashboard.html", dashboardData{
		Profile:  rec.Profile,
		Messages: messages,
		Labels:   labels,
	})
}

// handleLogout destroys the session record and expires the cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(s.cfg.SessionCookie); err == nil {
		if err := s.store.Delete(r.Context(), cookie.Value); err != nil {
			s.logger.Error("failed to delete session", logging.Operation("logout"), logging.Err(err))
		}
	}
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusFound)
}

// handleHealth is the application-level health endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"environment": s.cfg.Environment,
	})
}

// persistCurrentToken writes a silently refreshed token back to the session
// store so the stored token set always reflects the token actually used.
func (s *Server) persistCurrentToken(r *http.Request, rec *session.Record, client MailClient) {
	tok, err := client.CurrentToken()
	if err != nil || tok == nil {
		return
	}
	if rec.Token != nil && tok.AccessToken == rec.Token.AccessToken {
		return
	}
	if tok.RefreshToken == "" && rec.Token != nil {
		tok.RefreshToken = rec.Token.RefreshToken
	}
	rec.Token = tok
	if err := s.store.Set(r.Context(), rec); err != nil {
		s.logger.Error("failed to persist refreshed token", logging.Err(err))
		return
	}
	s.logger.Debug("persisted refreshed token",
		logging.SessionHash(rec.ID),
		"access_token", logging.SanitizeToken(tok.AccessToken))
}
