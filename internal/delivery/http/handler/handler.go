package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/user/blog-analyzer/internal/delivery/http/request"
	"github.com/user/blog-analyzer/internal/delivery/http/response"
	"github.com/user/blog-analyzer/internal/repository"
	"github.com/user/blog-analyzer/internal/usecase"
)

type Handler struct {
	pipeline    *usecase.Pipeline
	checkpoints *usecase.CheckpointManager
	blobs       repository.BlobRepository
	maxPosts    int
}

func NewHandler(pipeline *usecase.Pipeline, checkpoints *usecase.CheckpointManager, blobs repository.BlobRepository, maxPosts int) *Handler {
	return &Handler{
		pipeline:    pipeline,
		checkpoints: checkpoints,
		blobs:       blobs,
		maxPosts:    maxPosts,
	}
}

// HandleStartRun runs a full analysis of the submitted blog URL. The run
// executes synchronously; clients should expect the request to take as
// long as the scrape and analysis do.
func (h *Handler) HandleStartRun(w http.ResponseWriter, r *http.Request) {
	var req request.StartRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	parsed, err := url.ParseRequestURI(req.URL)
	if err != nil || parsed.Host == "" {
		h.writeJSONError(w, "Invalid URL format", http.StatusBadRequest)
		return
	}

	maxPosts := req.MaxPosts
	if maxPosts <= 0 {
		maxPosts = h.maxPosts
	}

	result, err := h.pipeline.Run(r.Context(), req.URL, maxPosts)
	if err != nil {
		slog.Error("Analysis run failed", "url", req.URL, "error", err)
		h.writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, runResponse(result))
}

// HandleResumeRun continues an interrupted run from its checkpoint.
func (h *Handler) HandleResumeRun(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("id")
	if runID == "" {
		h.writeJSONError(w, "Run id is required", http.StatusBadRequest)
		return
	}

	result, err := h.pipeline.Resume(r.Context(), runID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.writeJSONError(w, "No checkpoint found for run "+runID, http.StatusNotFound)
			return
		}
		slog.Error("Resume failed", "run_id", runID, "error", err)
		h.writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, runResponse(result))
}

// HandleListRuns returns the interrupted runs available for resumption,
// newest first.
func (h *Handler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.checkpoints.ListIncomplete(r.Context())
	if err != nil {
		slog.Error("Failed to list incomplete runs", "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	resp := response.RunListResponse{Runs: make([]response.RunSummaryResponse, 0, len(summaries))}
	for _, s := range summaries {
		resp.Runs = append(resp.Runs, response.RunSummaryResponse{
			RunID:          s.RunID,
			URL:            s.SourceURL,
			StartedAt:      s.CreatedAt,
			CompletedCount: s.CompletedCount,
			TotalCount:     s.TotalCount,
		})
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// HandleGetDocument serves a previously rendered knowledge-base document
// as markdown.
func (h *Handler) HandleGetDocument(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		h.writeJSONError(w, "Document key is required", http.StatusBadRequest)
		return
	}

	doc, err := h.blobs.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.writeJSONError(w, "Document not found", http.StatusNotFound)
			return
		}
		slog.Error("Failed to load document", "key", key, "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	if _, err := w.Write([]byte(doc)); err != nil {
		slog.Error("Failed to write document response", "key", key, "error", err)
	}
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func runResponse(result *usecase.RunResult) response.RunResponse {
	return response.RunResponse{
		Status:      "success",
		RunID:       result.RunID,
		URL:         result.SourceURL,
		PostCount:   len(result.Records),
		DocumentKey: result.DocumentKey,
		Warnings:    result.Warnings,
		Records:     result.Records,
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
