package repository

import (
	"context"

	"github.com/user/blog-analyzer/internal/entity"
)

// ReportRepository persists per-post analysis records for later querying.
type ReportRepository interface {
	// Save stores the record for a URL. If the URL already exists, it is updated.
	Save(ctx context.Context, record *entity.AnalysisRecord) error
	// FindByURL retrieves the record for a specific URL.
	FindByURL(ctx context.Context, url string) (*entity.AnalysisRecord, error)
}
