package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"
)

// maxRequestBodyBytes bounds the JSON body accepted by the analyze endpoints.
const maxRequestBodyBytes = 1 << 20

// Server holds the collaborators shared by the HTTP handlers.
type Server struct {
	analyzer *Analyzer
	store    *Store // nil when history is disabled
	bus      EventBus
	apiKey   string
	workers  int

	navigationTimeout time.Duration
}

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error string `json:"error"`
}

// AnalyzeRequest structure
type AnalyzeRequest struct {
	URL string `json:"url"`
}

func (r *AnalyzeRequest) Validate() error {
	if r.URL == "" {
		return errors.New("missing or invalid 'url' in request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[http] encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// statusForError maps run failures onto HTTP status codes and client-facing messages.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidURL):
		return http.StatusBadRequest, "Invalid URL"
	case errors.Is(err, ErrLaunch):
		return http.StatusInternalServerError, "Failed to launch headless browser"
	case errors.Is(err, ErrNavigation):
		return http.StatusInternalServerError, "Failed to load page: " + err.Error()
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, err.Error()
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// authorized checks the api_key query parameter when an API key is configured.
func (s *Server) authorized(w http.ResponseWriter, r *http.Request) bool {
	if s.apiKey == "" {
		return true
	}
	if r.URL.Query().Get("api_key") != s.apiKey {
		writeError(w, http.StatusUnauthorized, "Invalid API key")
		return false
	}
	return true
}

// prepareURL normalizes and validates a user-supplied URL.
func prepareURL(raw string) (string, error) {
	normalized := normalizeURL(raw)
	if err := validateURL(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}

// runAnalysis analyzes one prepared URL and records the outcome in history and on the bus.
func (s *Server) runAnalysis(ctx context.Context, taskID, pageURL string) (*AnalysisResult, error) {
	result, err := s.analyzer.Analyze(ctx, pageURL)
	if err != nil {
		s.publish(PubSubMessage{
			TaskID:  taskID,
			Event:   EventAnalysisError,
			Message: map[string]any{"url": pageURL, "error": err.Error()},
		})
		return nil, err
	}

	var recordID string
	if s.store != nil {
		rec, err := s.store.SaveResult(*result)
		if err != nil {
			log.Printf("[store] save url=%s err=%v", pageURL, err)
		} else {
			recordID = rec.ID
		}
	}

	s.publish(PubSubMessage{
		TaskID: taskID,
		Event:  EventAnalysis,
		Message: map[string]any{
			"id":     recordID,
			"result": result,
		},
	})
	return result, nil
}

func (s *Server) publish(msg PubSubMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.bus.Publish(ctx, msg); err != nil {
		log.Printf("[pubsub] task=%s event=%s err=%v", msg.TaskID, msg.Event, err)
	}
}

// handleAnalyze analyzes a single page
// @Summary Analyze a page
// @Description Load the page in headless Chrome and estimate its environmental impact
// @Tags analyze
// @Accept json
// @Produce json
// @Param request body AnalyzeRequest true "Page to analyze"
// @Param api_key query string false "API key"
// @Success 200 {object} AnalysisResult
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /analyze [post]
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	pageURL, err := prepareURL(req.URL)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid URL")
		return
	}

	result, err := s.runAnalysis(r.Context(), "", pageURL)
	if err != nil {
		status, msg := statusForError(err)
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleListAnalyses lists stored analyses
// @Summary List analyses
// @Description List stored analysis results, newest first, optionally for one site
// @Tags analyses
// @Produce json
// @Param site query string false "Registrable domain, e.g. example.com"
// @Param limit query int false "Maximum number of records"
// @Param api_key query string false "API key"
// @Success 200 {array} AnalysisRecord
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /analyses [get]
func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}
	if s.store == nil {
		writeJSON(w, http.StatusOK, []AnalysisRecord{})
		return
	}

	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))
	records, err := s.store.ListResults(query.Get("site"), limit)
	if err != nil {
		log.Printf("[store] list err=%v", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch analyses")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// handleGetAnalysis fetches one stored analysis
// @Summary Get analysis
// @Description Retrieve a stored analysis result by id
// @Tags analyses
// @Produce json
// @Param id path string true "Analysis ID"
// @Param api_key query string false "API key"
// @Success 200 {object} AnalysisRecord
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /analyses/{id} [get]
func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}
	if s.store == nil {
		writeError(w, http.StatusNotFound, ErrNotFound.Error())
		return
	}

	rec, err := s.store.GetResult(r.PathValue("id"))
	if err != nil {
		status, msg := statusForError(err)
		if status == http.StatusInternalServerError {
			log.Printf("[store] get id=%s err=%v", r.PathValue("id"), err)
		}
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleHealth reports liveness
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
