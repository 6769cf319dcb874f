package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/user/blog-analyzer/internal/entity"
	"github.com/user/blog-analyzer/internal/render"
	"github.com/user/blog-analyzer/internal/repository"
)

// minPostContentLen is the minimum article text length for a post to be
// worth analyzing. Shorter pages are skipped with a warning.
const minPostContentLen = 100

type linkExtractor interface {
	ExtractLinks(ctx context.Context, seedURL string, followPagination bool, maxPages int) ([]entity.CandidateLink, error)
}

type postScraper interface {
	ScrapePost(ctx context.Context, url string, minContentLen int) (string, bool, error)
}

type recordGrouper interface {
	Cluster(ctx context.Context, records []entity.AnalysisRecord) (*entity.ClusterResult, error)
}

// PipelineParams wires the pipeline's collaborators. Grouper, Labeler and
// Reports are optional; a nil Grouper disables topic clustering and a nil
// Reports skips relational persistence.
type PipelineParams struct {
	Links       linkExtractor
	Posts       postScraper
	Batch       *BatchOrchestrator
	Checkpoints *CheckpointManager
	Grouper     recordGrouper
	Labeler     repository.ClusterLabeler
	Blobs       repository.BlobRepository
	Reports     repository.ReportRepository

	FollowPagination     bool
	MaxPages             int
	CheckpointMaxAgeDays int
}

// Pipeline runs the full analysis flow for a blog listing URL: link
// extraction, content scraping, batched analysis with checkpointing,
// optional clustering, document rendering and persistence.
type Pipeline struct {
	links       linkExtractor
	posts       postScraper
	batch       *BatchOrchestrator
	checkpoints *CheckpointManager
	grouper     recordGrouper
	labeler     repository.ClusterLabeler
	blobs       repository.BlobRepository
	reports     repository.ReportRepository

	followPagination     bool
	maxPages             int
	checkpointMaxAgeDays int

	now func() time.Time
}

func NewPipeline(p PipelineParams) *Pipeline {
	return &Pipeline{
		links:                p.Links,
		posts:                p.Posts,
		batch:                p.Batch,
		checkpoints:          p.Checkpoints,
		grouper:              p.Grouper,
		labeler:              p.Labeler,
		blobs:                p.Blobs,
		reports:              p.Reports,
		followPagination:     p.FollowPagination,
		maxPages:             p.MaxPages,
		checkpointMaxAgeDays: p.CheckpointMaxAgeDays,
		now:                  time.Now,
	}
}

// RunResult is the outcome of a completed (or resumed) analysis run.
type RunResult struct {
	RunID       string                  `json:"run_id"`
	SourceURL   string                  `json:"url"`
	Records     []entity.AnalysisRecord `json:"results"`
	Document    string                  `json:"document,omitempty"`
	DocumentKey string                  `json:"document_key,omitempty"`
	Warnings    []string                `json:"warnings,omitempty"`
}

// Run executes a fresh analysis of the blog listing at seedURL, analyzing
// at most maxPosts articles. A checkpoint is written before analysis
// starts and after every tenth completed post, so an interrupted run can
// be resumed with Resume.
func (p *Pipeline) Run(ctx context.Context, seedURL string, maxPosts int) (*RunResult, error) {
	slog.Info("starting analysis run", "url", seedURL, "max_posts", maxPosts)

	links, err := p.links.ExtractLinks(ctx, seedURL, p.followPagination, p.maxPages)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, fmt.Errorf("no article links found at %s", seedURL)
	}
	if maxPosts > 0 && len(links) > maxPosts {
		links = links[:maxPosts]
	}

	posts, warnings := p.scrapeAll(ctx, links)
	if len(posts) == 0 {
		return nil, fmt.Errorf("no posts with usable content found at %s", seedURL)
	}

	runID := p.checkpoints.Create(ctx, "", seedURL, posts, nil, 0, len(posts))
	slog.Info("scraping complete, starting analysis",
		"run_id", runID, "posts", len(posts), "skipped", len(links)-len(posts))

	records := p.batch.ProcessBatch(ctx, posts, func(prog Progress) {
		if p.checkpoints.ShouldCheckpoint(prog.Done - 1) {
			p.checkpoints.Create(ctx, runID, seedURL, posts, prog.PrefixRecords, prog.PrefixLen, prog.Total)
		}
	})

	return p.finalize(ctx, runID, seedURL, records, warnings)
}

// Resume continues an interrupted run from its last checkpoint. Posts
// already analyzed are not re-analyzed; their saved records are merged
// with the new ones in original order.
func (p *Pipeline) Resume(ctx context.Context, runID string) (*RunResult, error) {
	cp, err := p.checkpoints.Load(ctx, runID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("no checkpoint found for run %s: %w", runID, err)
		}
		return nil, err
	}
	if cp.Status == entity.CheckpointCompleted {
		return nil, fmt.Errorf("run %s is already completed", runID)
	}

	start := cp.CompletedCount
	if start > len(cp.ScrapedPosts) {
		start = len(cp.ScrapedPosts)
	}
	remaining := cp.ScrapedPosts[start:]
	slog.Info("resuming analysis run",
		"run_id", runID, "url", cp.SourceURL,
		"completed", start, "remaining", len(remaining))

	prior := cp.CompletedResults
	records := p.batch.ProcessBatch(ctx, remaining, func(prog Progress) {
		if p.checkpoints.ShouldCheckpoint(start + prog.Done - 1) {
			merged := mergeRecords(prior, prog.PrefixRecords)
			p.checkpoints.Create(ctx, runID, cp.SourceURL, cp.ScrapedPosts, merged, start+prog.PrefixLen, cp.TotalCount)
		}
	})

	return p.finalize(ctx, runID, cp.SourceURL, mergeRecords(prior, records), nil)
}

func mergeRecords(prior, fresh []entity.AnalysisRecord) []entity.AnalysisRecord {
	merged := make([]entity.AnalysisRecord, 0, len(prior)+len(fresh))
	merged = append(merged, prior...)
	merged = append(merged, fresh...)
	return merged
}

func (p *Pipeline) scrapeAll(ctx context.Context, links []entity.CandidateLink) ([]entity.ScrapedPost, []string) {
	var posts []entity.ScrapedPost
	var warnings []string
	for _, link := range links {
		content, ok, err := p.posts.ScrapePost(ctx, link.URL, minPostContentLen)
		if err != nil {
			slog.Warn("failed to scrape post", "url", link.URL, "error", err)
			warnings = append(warnings, fmt.Sprintf("failed to scrape %s: %v", link.URL, err))
			continue
		}
		if !ok {
			slog.Warn("skipping post with insufficient content", "url", link.URL)
			warnings = append(warnings, fmt.Sprintf("insufficient content at %s", link.URL))
			continue
		}
		posts = append(posts, entity.ScrapedPost{
			URL:     link.URL,
			Title:   link.Title,
			Content: content,
		})
	}
	return posts, warnings
}

// finalize turns analysis records into the rendered knowledge base,
// persists everything, and closes out the run's checkpoint. Persistence
// failures downgrade to warnings so completed analysis work is never
// discarded.
func (p *Pipeline) finalize(ctx context.Context, runID, sourceURL string, records []entity.AnalysisRecord, warnings []string) (*RunResult, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("run %s produced no analysis results", runID)
	}

	clusters, meta := p.clusterRecords(ctx, records)

	now := p.now()
	doc := render.Document(sourceURL, records, clusters, meta, now)
	key := render.Filename(sourceURL, len(records), now)

	if err := p.blobs.Put(ctx, key, doc); err != nil {
		slog.Error("failed to persist knowledge base document", "key", key, "error", err)
		warnings = append(warnings, fmt.Sprintf("failed to persist document %s: %v", key, err))
		key = ""
	}

	if p.reports != nil {
		for i := range records {
			if err := p.reports.Save(ctx, &records[i]); err != nil {
				slog.Warn("failed to save analysis report", "url", records[i].URL, "error", err)
			}
		}
	}

	p.checkpoints.MarkComplete(ctx, runID)
	p.checkpoints.CleanupOld(ctx, p.checkpointMaxAgeDays)

	slog.Info("analysis run complete",
		"run_id", runID, "url", sourceURL,
		"records", len(records), "document_key", key)

	return &RunResult{
		RunID:       runID,
		SourceURL:   sourceURL,
		Records:     records,
		Document:    doc,
		DocumentKey: key,
		Warnings:    warnings,
	}, nil
}

// clusterRecords groups records by semantic cluster when clustering is
// enabled and possible. Any clustering failure, including missing
// embedding credentials, falls back to category grouping in the rendered
// document rather than failing the run.
func (p *Pipeline) clusterRecords(ctx context.Context, records []entity.AnalysisRecord) (*entity.ClusterResult, map[int]entity.ClusterMetadata) {
	if p.grouper == nil || len(records) < 2 {
		return nil, nil
	}

	clusters, err := p.grouper.Cluster(ctx, records)
	if err != nil {
		if errors.Is(err, repository.ErrMissingCredential) {
			slog.Warn("embedding credentials missing, grouping by category instead")
		} else {
			slog.Warn("clustering failed, grouping by category instead", "error", err)
		}
		return nil, nil
	}

	meta := make(map[int]entity.ClusterMetadata, len(clusters.Clusters))
	for id, posts := range clusters.Clusters {
		meta[id] = p.labelCluster(ctx, id, posts)
	}
	return clusters, meta
}

func (p *Pipeline) labelCluster(ctx context.Context, id int, posts []entity.AnalysisRecord) entity.ClusterMetadata {
	fallback := entity.ClusterMetadata{
		Label:     fmt.Sprintf("Topic %d", id+1),
		PostCount: len(posts),
	}
	if p.labeler == nil {
		return fallback
	}
	m, err := p.labeler.LabelCluster(ctx, id, posts)
	if err != nil {
		slog.Warn("failed to label cluster", "cluster", id, "error", err)
		return fallback
	}
	m.PostCount = len(posts)
	return m
}
