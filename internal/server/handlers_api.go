package server

import (
	"encoding/json"
	"net/http"

	"github.com/teemow/gmailweb/internal/gmail"
	"github.com/teemow/gmailweb/internal/logging"
	"github.com/teemow/gmailweb/internal/session"
)

// sendEmailRequest is the JSON body of POST /send-test-email.
type sendEmailRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// authenticatedSession resolves the request to an authenticated session
// record, or writes the 401 response and returns nil.
func (s *Server) authenticatedSession(w http.ResponseWriter, r *http.Request) *session.Record {
	rec, err := s.sessionFromRequest(r)
	if err != nil || !rec.Authenticated() {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"error": "Not authenticated. Visit /auth to sign in.",
		})
		return nil
	}
	return rec
}

// handleSendTestEmail sends a plain-text email as the authenticated user.
// The sender identity always comes from the stored profile, never from the
// request body.
func (s *Server) handleSendTestEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logging.WithOperation(s.logger, "send_test_email")

	rec := s.authenticatedSession(w, r)
	if rec == nil {
		return
	}

	var req sendEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "invalid JSON body",
		})
		return
	}
	if req.To == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "recipient address is required",
		})
		return
	}

	client, err := s.newMailClient(ctx, s.auth.Config(), rec.Token)
	if err != nil {
		log.Error("failed to create Gmail client", logging.Err(err))
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"success": false,
			"error":   upstreamErrorMessage(err),
		})
		return
	}

	msg := &gmail.EmailMessage{
		FromName:    rec.Profile.Name,
		FromAddress: rec.Profile.Email,
		To:          req.To,
		Subject:     req.Subject,
		Body:        req.Body,
	}
	msg.ApplyDefaults()

	messageID, threadID, err := client.SendEmail(msg)
	if err != nil {
		log.Error("send failed", logging.UserHash(rec.Profile.Email), logging.Err(err))
		s.metrics.MailOperation("send", logging.StatusError)
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"success": false,
			"error":   upstreamErrorMessage(err),
		})
		return
	}

	s.persistCurrentToken(r, rec, client)
	s.metrics.MailOperation("send", logging.StatusSuccess)
	log.Info("test email sent", logging.UserHash(rec.Profile.Email), logging.Status(logging.StatusSuccess))

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "Test email sent successfully",
		"messageId": messageID,
		"threadId":  threadID,
	})
}

// handleGetEmail fetches a single message. In full mode the response is the
// raw provider object augmented with the decoded text and HTML bodies; in
// metadata mode the raw object is returned unmodified.
func (s *Server) handleGetEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logging.WithOperation(s.logger, "get_email")

	rec := s.authenticatedSession(w, r)
	if rec == nil {
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = gmail.FormatFull
	}
	if format != gmail.FormatFull && format != gmail.FormatMetadata {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": "format must be \"full\" or \"metadata\"",
		})
		return
	}

	client, err := s.newMailClient(ctx, s.auth.Config(), rec.Token)
	if err != nil {
		log.Error("failed to create Gmail client", logging.Err(err))
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": upstreamErrorMessage(err)})
		return
	}

	msg, err := client.GetMessage(r.PathValue("id"), format)
	if err != nil {
		log.Error("message fetch failed", logging.Err(err))
		s.metrics.MailOperation("get", logging.StatusError)
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": upstreamErrorMessage(err)})
		return
	}

	s.persistCurrentToken(r, rec, client)
	s.metrics.MailOperation("get", logging.StatusSuccess)

	if format == gmail.FormatMetadata {
		writeJSON(w, http.StatusOK, msg)
		return
	}

	// Augment the raw provider object with the decoded bodies without
	// disturbing its shape.
	raw, err := msg.MarshalJSON()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to encode message"})
		return
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to encode message"})
		return
	}

	bodies := gmail.ExtractBodies(msg)
	obj["decodedBodyText"] = bodies.Text
	obj["decodedBodyHtml"] = bodies.HTML

	writeJSON(w, http.StatusOK, obj)
}

// handleRefreshTokens mints a new access token from the stored refresh
// token and merges it into the session record.
func (s *Server) handleRefreshTokens(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logging.WithOperation(s.logger, "refresh_tokens")

	rec := s.authenticatedSession(w, r)
	if rec == nil {
		return
	}

	if rec.Token.RefreshToken == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"error": "No refresh token available. Re-authenticate via /auth.",
		})
		return
	}

	fresh, err := s.auth.Refresh(ctx, rec.Token)
	if err != nil {
		log.Error("token refresh failed", logging.SessionHash(rec.ID), logging.Err(err))
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"success": false,
			"error":   upstreamErrorMessage(err),
		})
		return
	}

	rec.Token = fresh
	if err := s.store.Set(ctx, rec); err != nil {
		log.Error("failed to persist refreshed token", logging.Err(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "failed to store refreshed tokens",
		})
		return
	}

	log.Info("tokens refreshed",
		logging.SessionHash(rec.ID),
		"access_token", logging.SanitizeToken(fresh.AccessToken))

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Tokens refreshed successfully",
	})
}

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
