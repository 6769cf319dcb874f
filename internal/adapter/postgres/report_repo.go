package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/blog-analyzer/internal/entity"
	"github.com/user/blog-analyzer/internal/repository"
)

// ReportRepoImpl implements repository.ReportRepository on PostgreSQL.
// Insight lists are stored as one JSONB column to keep the schema stable
// as prompt fields evolve.
type ReportRepoImpl struct {
	db *pgxpool.Pool
}

func NewReportRepo(db *pgxpool.Pool) *ReportRepoImpl {
	return &ReportRepoImpl{db: db}
}

type insightColumns struct {
	CentralTakeaways     []string `json:"central_takeaways"`
	ContrarianTakeaways  []string `json:"contrarian_takeaways"`
	UnstatedAssumptions  []string `json:"unstated_assumptions"`
	PotentialExperiments []string `json:"potential_experiments"`
	IndustryApplications []string `json:"industry_applications"`
}

// Save stores or updates the analysis record for a URL.
func (r *ReportRepoImpl) Save(ctx context.Context, record *entity.AnalysisRecord) error {
	insightsJSON, err := json.Marshal(insightColumns{
		CentralTakeaways:     record.CentralTakeaways,
		ContrarianTakeaways:  record.ContrarianTakeaways,
		UnstatedAssumptions:  record.UnstatedAssumptions,
		PotentialExperiments: record.PotentialExperiments,
		IndustryApplications: record.IndustryApplications,
	})
	if err != nil {
		return fmt.Errorf("encoding insights for %s: %w", record.URL, err)
	}

	query := `
		INSERT INTO analysis_reports (url, title, category, summary, main_points, examples, insights, analyzed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (url) DO UPDATE SET
			title = EXCLUDED.title,
			category = EXCLUDED.category,
			summary = EXCLUDED.summary,
			main_points = EXCLUDED.main_points,
			examples = EXCLUDED.examples,
			insights = EXCLUDED.insights,
			analyzed_at = EXCLUDED.analyzed_at;
	`

	_, err = r.db.Exec(ctx, query,
		record.URL,
		record.Title,
		record.Category,
		record.Summary,
		record.MainPoints,
		record.Examples,
		insightsJSON,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("saving report for %s: %w", record.URL, err)
	}
	return nil
}

// FindByURL retrieves the analysis record for a specific URL.
func (r *ReportRepoImpl) FindByURL(ctx context.Context, url string) (*entity.AnalysisRecord, error) {
	query := `
		SELECT url, title, category, summary, main_points, examples, insights
		FROM analysis_reports
		WHERE url = $1;
	`
	row := r.db.QueryRow(ctx, query, url)

	var record entity.AnalysisRecord
	var insightsJSON []byte

	err := row.Scan(
		&record.URL,
		&record.Title,
		&record.Category,
		&record.Summary,
		&record.MainPoints,
		&record.Examples,
		&insightsJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("querying report for %s: %w", url, err)
	}

	var insights insightColumns
	if err := json.Unmarshal(insightsJSON, &insights); err != nil {
		return nil, fmt.Errorf("decoding insights for %s: %w", url, err)
	}
	record.CentralTakeaways = insights.CentralTakeaways
	record.ContrarianTakeaways = insights.ContrarianTakeaways
	record.UnstatedAssumptions = insights.UnstatedAssumptions
	record.PotentialExperiments = insights.PotentialExperiments
	record.IndustryApplications = insights.IndustryApplications

	return &record, nil
}
