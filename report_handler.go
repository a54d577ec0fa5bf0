package main

import (
	"embed"
	"html/template"
	"log"
	"net/http"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type pageData struct {
	InputURL       string
	Error          string
	Result         *AnalysisResult
	APIKey         string
	TimeoutSeconds int
}

func (s *Server) renderPage(w http.ResponseWriter, status int, data pageData) {
	data.TimeoutSeconds = int(s.navigationTimeout.Seconds())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTmpl.ExecuteTemplate(w, "index", data); err != nil {
		log.Printf("[http] render page: %v", err)
	}
}

// handleIndex serves the form page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, http.StatusOK, pageData{APIKey: r.URL.Query().Get("api_key")})
}

// handleReport analyzes the page named by the u query parameter and renders the result.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	raw := strings.TrimSpace(query.Get("u"))
	data := pageData{InputURL: raw, APIKey: query.Get("api_key")}

	if s.apiKey != "" && data.APIKey != s.apiKey {
		data.Error = "Invalid API key"
		s.renderPage(w, http.StatusUnauthorized, data)
		return
	}
	if raw == "" {
		data.Error = "Please provide a URL"
		s.renderPage(w, http.StatusBadRequest, data)
		return
	}

	pageURL, err := prepareURL(raw)
	if err != nil {
		data.Error = "Invalid URL"
		s.renderPage(w, http.StatusBadRequest, data)
		return
	}

	result, err := s.runAnalysis(r.Context(), "", pageURL)
	if err != nil {
		var status int
		status, data.Error = statusForError(err)
		s.renderPage(w, status, data)
		return
	}
	data.Result = result
	s.renderPage(w, http.StatusOK, data)
}
