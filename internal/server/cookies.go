package server

import (
	"net/http"

	"github.com/teemow/gmailweb/internal/session"
)

// setSessionCookie binds the browser to a session record. The cookie is
// short-lived, HttpOnly and SameSite-Lax; Secure is added in production
// where the app sits behind HTTPS.
func (s *Server) setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.SessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.cfg.CookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.cfg.IsProduction(),
	})
}

// clearSessionCookie expires the session cookie immediately.
func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.cfg.IsProduction(),
	})
}

// sessionFromRequest resolves the request's cookie to a session record.
func (s *Server) sessionFromRequest(r *http.Request) (*session.Record, error) {
	cookie, err := r.Cookie(s.cfg.SessionCookie)
	if err != nil {
		return nil, session.ErrNotFound
	}
	return s.store.Get(r.Context(), cookie.Value)
}
