package usecase

import (
	"context"
	"log/slog"
	"sync"

	"github.com/user/blog-analyzer/internal/entity"
	"github.com/user/blog-analyzer/internal/repository"
	"github.com/user/blog-analyzer/pkg/metrics"
)

// defaultAnalysisWorkers is deliberately small to respect upstream API
// rate limits.
const defaultAnalysisWorkers = 2

// Progress describes the state of a batch after one task completes.
// Done counts finished tasks in completion order, which with multiple
// workers is not input order. PrefixLen is the length of the longest run
// of finished tasks at the front of the input, and PrefixRecords holds
// the successful records within that prefix, in input order. Checkpoints
// must be cut from the prefix fields only: a record past the prefix has
// an unfinished post before it, and persisting it alongside a completed
// count would make a later resume skip that post.
type Progress struct {
	Done          int
	Total         int
	PrefixLen     int
	PrefixRecords []entity.AnalysisRecord
}

// ProgressFunc is invoked after every task completion (success or swallowed
// failure). It runs on a single goroutine, so checkpoint writes triggered
// from it are never concurrent.
type ProgressFunc func(p Progress)

// BatchOrchestrator drives the per-post analyzer over many posts with a
// fixed-size worker pool, preserving input order in the output regardless
// of completion order.
type BatchOrchestrator struct {
	analyzer repository.PostAnalyzer
	retry    RetryPolicy
	workers  int
}

func NewBatchOrchestrator(analyzer repository.PostAnalyzer, retry RetryPolicy, workers int) *BatchOrchestrator {
	if workers < 1 {
		workers = defaultAnalysisWorkers
	}
	return &BatchOrchestrator{
		analyzer: analyzer,
		retry:    retry,
		workers:  workers,
	}
}

type job struct {
	index int
	post  entity.ScrapedPost
}

type taskResult struct {
	index  int
	record entity.AnalysisRecord
	err    error
}

// ProcessBatch analyzes posts and returns their records in input order.
// Transient analyzer failures are retried per the policy; a task whose
// retries are exhausted is logged and its slot omitted from the result,
// without aborting sibling tasks. The returned list may therefore be
// shorter than the input.
func (b *BatchOrchestrator) ProcessBatch(ctx context.Context, posts []entity.ScrapedPost, onProgress ProgressFunc) []entity.AnalysisRecord {
	total := len(posts)
	if total == 0 {
		return nil
	}

	jobs := make(chan job)
	results := make(chan taskResult)

	var wg sync.WaitGroup
	for i := 0; i < b.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results <- b.runTask(ctx, j)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, post := range posts {
			select {
			case jobs <- job{index: i, post: post}:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	// Reassembly: slots are keyed by submission index so caller receives
	// post #k's record at position k even when execution completes out of
	// order.
	slots := make([]*entity.AnalysisRecord, total)
	finished := make([]bool, total)
	done := 0
	prefixLen := 0
	for res := range results {
		done++
		finished[res.index] = true
		if res.err != nil {
			slog.Error("post analysis failed, omitting from results",
				"url", posts[res.index].URL, "error", res.err)
			metrics.AnalysesTotal.WithLabelValues("failure").Inc()
		} else {
			record := res.record
			slots[res.index] = &record
			metrics.AnalysesTotal.WithLabelValues("success").Inc()
		}
		for prefixLen < total && finished[prefixLen] {
			prefixLen++
		}
		if onProgress != nil {
			onProgress(Progress{
				Done:          done,
				Total:         total,
				PrefixLen:     prefixLen,
				PrefixRecords: snapshot(slots[:prefixLen]),
			})
		}
	}

	return snapshot(slots)
}

func (b *BatchOrchestrator) runTask(ctx context.Context, j job) taskResult {
	var record entity.AnalysisRecord
	err := b.retry.Do(ctx, func() error {
		var analyzeErr error
		record, analyzeErr = b.analyzer.Analyze(ctx, j.post.Content, j.post.URL, j.post.Title)
		return analyzeErr
	})
	return taskResult{index: j.index, record: record, err: err}
}

func snapshot(slots []*entity.AnalysisRecord) []entity.AnalysisRecord {
	out := make([]entity.AnalysisRecord, 0, len(slots))
	for _, r := range slots {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}
