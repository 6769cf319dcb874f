package response

import (
	"time"

	"github.com/user/blog-analyzer/internal/entity"
)

type RunResponse struct {
	Status      string                  `json:"status"`
	RunID       string                  `json:"run_id"`
	URL         string                  `json:"url"`
	PostCount   int                     `json:"post_count"`
	DocumentKey string                  `json:"document_key,omitempty"`
	Warnings    []string                `json:"warnings,omitempty"`
	Records     []entity.AnalysisRecord `json:"results"`
}

// RunSummaryResponse is a DTO for an incomplete run, mirroring
// entity.CheckpointSummary
type RunSummaryResponse struct {
	RunID          string    `json:"run_id"`
	URL            string    `json:"url"`
	StartedAt      time.Time `json:"started_at"`
	CompletedCount int       `json:"completed_count"`
	TotalCount     int       `json:"total_count"`
}

type RunListResponse struct {
	Runs []RunSummaryResponse `json:"runs"`
}
