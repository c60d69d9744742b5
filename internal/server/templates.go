package server

import (
	"embed"
	"html/template"
	"net/http"

	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/teemow/gmailweb/internal/session"
)

//go:embed templates/*
var templateFiles embed.FS

var templates = template.Must(template.ParseFS(templateFiles, "templates/*.html"))

type homeData struct {
	Authenticated bool
	Email         string
}

type dashboardData struct {
	Profile  *session.Profile
	Messages []*gmailapi.Message
	Labels   []*gmailapi.Label
}

type errorData struct {
	Title  string
	Detail string
}

// renderTemplate renders one of the embedded HTML templates.
func (s *Server) renderTemplate(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("template execution failed", "template", name, "error", err.Error())
	}
}

// renderError renders the error page with a title and a short detail line.
func (s *Server) renderError(w http.ResponseWriter, status int, title, detail string) {
	s.renderTemplate(w, status, "error.html", errorData{Title: title, Detail: detail})
}
