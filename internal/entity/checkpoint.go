package entity

import "time"

const (
	CheckpointInProgress = "in_progress"
	CheckpointCompleted  = "completed"
)

// Checkpoint is a persisted full-state snapshot of an analysis run.
// Snapshots are idempotent overwrites keyed by RunID, not deltas.
// Invariants: CompletedCount covers a contiguous prefix of ScrapedPosts,
// CompletedResults holds the successful records within that prefix in
// input order, and len(CompletedResults) <= CompletedCount <= TotalCount.
type Checkpoint struct {
	RunID     string    `json:"run_id"`
	SourceURL string    `json:"url"`
	CreatedAt time.Time `json:"timestamp"`
	// ScrapedPosts carries the already-scraped article texts so a resumed
	// run skips both re-crawling and re-scraping.
	ScrapedPosts     []ScrapedPost    `json:"scraped_links"`
	CompletedResults []AnalysisRecord `json:"processed_results"`
	CompletedCount   int              `json:"last_index"`
	TotalCount       int              `json:"total_posts"`
	Status           string           `json:"status"`
	CompletedAt      *time.Time       `json:"completed_at,omitempty"`
}

// CheckpointSummary is the list view of an in-progress run.
type CheckpointSummary struct {
	RunID          string    `json:"run_id"`
	SourceURL      string    `json:"url"`
	CreatedAt      time.Time `json:"timestamp"`
	CompletedCount int       `json:"processed_count"`
	TotalCount     int       `json:"total_count"`
}
