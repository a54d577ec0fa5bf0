package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
)

// BatchRequest asks for several independent analyses.
type BatchRequest struct {
	URLs   []string `json:"urls"`
	TaskID string   `json:"taskId,omitempty"`
}

func (r *BatchRequest) Validate() error {
	if len(r.URLs) == 0 {
		return errors.New("no target urls provided")
	}
	return nil
}

// BatchItem is the outcome for one URL of a batch.
type BatchItem struct {
	URL    string          `json:"url"`
	Result *AnalysisResult `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

type BatchResponse struct {
	TaskID  string      `json:"taskId"`
	Results []BatchItem `json:"results"`
}

// handleBatch analyzes several pages on the worker pool
// @Summary Analyze several pages
// @Description Each URL is analyzed as an independent run. A Pub/Sub "cancel" event for the task id stops outstanding runs.
// @Tags analyze
// @Accept json
// @Produce json
// @Param request body BatchRequest true "Pages to analyze"
// @Param api_key query string false "API key"
// @Success 200 {object} BatchResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /analyze/batch [post]
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	taskID := req.TaskID
	if taskID == "" {
		taskID = uuid.New().String()
	}

	writeJSON(w, http.StatusOK, BatchResponse{
		TaskID:  taskID,
		Results: s.runBatch(r.Context(), taskID, req.URLs),
	})
}

// runBatch returns one item per input URL, in input order. Invalid URLs are reported
// without being queued, and duplicates share one run.
func (s *Server) runBatch(ctx context.Context, taskID string, rawURLs []string) []BatchItem {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	unsubscribe, err := s.bus.Subscribe(taskID, func(data PubSubMessage) {
		if data.Event == EventCancel {
			cancel()
		}
	})
	if err == nil {
		defer unsubscribe()
	}

	pool := NewWorkerPool[*AnalysisResult](s.workers)
	pool.Start(ctx, func(ctx context.Context, pageURL string) (*AnalysisResult, error) {
		return s.runAnalysis(ctx, taskID, pageURL)
	})

	items := make([]BatchItem, len(rawURLs))
	prepared := make([]string, len(rawURLs))
	for i, raw := range rawURLs {
		items[i].URL = raw
		pageURL, err := prepareURL(raw)
		if err != nil {
			items[i].Error = "Invalid URL"
			continue
		}
		prepared[i] = pageURL
		items[i].URL = pageURL
		pool.AddTask(pageURL)
	}

	pool.Stop()
	results := pool.GetResultsMap()

	for i, pageURL := range prepared {
		if pageURL == "" {
			continue
		}
		res, ok := results[pageURL]
		switch {
		case !ok:
			items[i].Error = "Internal server error"
		case res.Error != nil:
			if errors.Is(res.Error, context.Canceled) || ctx.Err() != nil {
				items[i].Error = "Analysis cancelled"
				continue
			}
			_, items[i].Error = statusForError(res.Error)
		default:
			items[i].Result = res.Result
		}
	}
	return items
}
