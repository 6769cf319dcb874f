package repository

import (
	"context"

	"github.com/user/blog-analyzer/internal/entity"
)

// PostAnalyzer defines the contract for the per-post LLM analysis call.
// Implementations may perform multiple sub-calls (categorize/summarize plus
// deep-insight extraction) and merge their fields into a single record.
// A malformed model response is not an error: implementations substitute
// entity.DefaultAnalysisRecord instead. Errors are reserved for transport
// and API failures, which the orchestrator's retry policy classifies.
type PostAnalyzer interface {
	Analyze(ctx context.Context, content, url, title string) (entity.AnalysisRecord, error)
}

// ClusterLabeler generates a human-readable label for a group of posts.
// clusterID is the zero-based cluster index; implementations use it for the
// placeholder label when the model response cannot be parsed.
type ClusterLabeler interface {
	LabelCluster(ctx context.Context, clusterID int, posts []entity.AnalysisRecord) (entity.ClusterMetadata, error)
}
