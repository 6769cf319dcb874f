package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/user/blog-analyzer/internal/entity"
	"github.com/user/blog-analyzer/internal/repository"
	"github.com/user/blog-analyzer/pkg/metrics"
)

const (
	checkpointPrefix = "checkpoint_"
	checkpointSuffix = ".json"

	// checkpointInterval is how many completed posts elapse between
	// snapshot writes.
	checkpointInterval = 10
)

// CheckpointManager persists full-state run snapshots in the blob store so
// an interrupted batch can resume. Writes are idempotent overwrites keyed
// by run id; storage failures are logged and never abort analysis.
type CheckpointManager struct {
	blobs repository.BlobRepository

	// now and newRunID are swappable in tests.
	now      func() time.Time
	newRunID func() string
}

func NewCheckpointManager(blobs repository.BlobRepository) *CheckpointManager {
	return &CheckpointManager{
		blobs:    blobs,
		now:      time.Now,
		newRunID: shortRunID,
	}
}

// shortRunID returns the first 8 hex characters of a fresh uuid, enough to
// keep concurrent runs apart while staying readable in filenames.
func shortRunID() string {
	return uuid.NewString()[:8]
}

func checkpointKey(runID string) string {
	return checkpointPrefix + runID + checkpointSuffix
}

// Create writes a full snapshot, generating a run id when none is given.
// The run id is returned even when the write fails so the caller can keep
// accumulating results in memory and try again at the next interval.
func (m *CheckpointManager) Create(ctx context.Context, runID, sourceURL string, posts []entity.ScrapedPost, results []entity.AnalysisRecord, completedCount, totalCount int) string {
	if runID == "" {
		runID = m.newRunID()
	}

	cp := entity.Checkpoint{
		RunID:            runID,
		SourceURL:        sourceURL,
		CreatedAt:        m.now(),
		ScrapedPosts:     posts,
		CompletedResults: results,
		CompletedCount:   completedCount,
		TotalCount:       totalCount,
		Status:           entity.CheckpointInProgress,
	}

	if err := m.write(ctx, cp); err != nil {
		slog.Error("failed to save checkpoint", "run_id", runID, "error", err)
		metrics.CheckpointWrites.WithLabelValues("failure").Inc()
		return runID
	}
	metrics.CheckpointWrites.WithLabelValues("success").Inc()
	return runID
}

func (m *CheckpointManager) write(ctx context.Context, cp entity.Checkpoint) error {
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding checkpoint %s: %w", cp.RunID, err)
	}
	return m.blobs.Put(ctx, checkpointKey(cp.RunID), string(data))
}

// Load retrieves a checkpoint by run id. A missing checkpoint surfaces as
// repository.ErrNotFound, a normal condition for the caller.
func (m *CheckpointManager) Load(ctx context.Context, runID string) (*entity.Checkpoint, error) {
	raw, err := m.blobs.Get(ctx, checkpointKey(runID))
	if err != nil {
		return nil, err
	}
	var cp entity.Checkpoint
	if err := json.Unmarshal([]byte(raw), &cp); err != nil {
		return nil, fmt.Errorf("decoding checkpoint %s: %w", runID, err)
	}
	return &cp, nil
}

// ListIncomplete returns summaries of in-progress runs, newest first.
// Unreadable snapshots are logged and skipped.
func (m *CheckpointManager) ListIncomplete(ctx context.Context) ([]entity.CheckpointSummary, error) {
	keys, err := m.blobs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing checkpoints: %w", err)
	}

	var incomplete []entity.CheckpointSummary
	for _, key := range keys {
		if !strings.HasPrefix(key, checkpointPrefix) {
			continue
		}
		cp, err := m.loadByKey(ctx, key)
		if err != nil {
			slog.Warn("skipping unreadable checkpoint", "key", key, "error", err)
			continue
		}
		if cp.Status != entity.CheckpointInProgress {
			continue
		}
		incomplete = append(incomplete, entity.CheckpointSummary{
			RunID:          cp.RunID,
			SourceURL:      cp.SourceURL,
			CreatedAt:      cp.CreatedAt,
			CompletedCount: cp.CompletedCount,
			TotalCount:     cp.TotalCount,
		})
	}

	sort.Slice(incomplete, func(i, j int) bool {
		return incomplete[i].CreatedAt.After(incomplete[j].CreatedAt)
	})
	return incomplete, nil
}

func (m *CheckpointManager) loadByKey(ctx context.Context, key string) (*entity.Checkpoint, error) {
	raw, err := m.blobs.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var cp entity.Checkpoint
	if err := json.Unmarshal([]byte(raw), &cp); err != nil {
		return nil, fmt.Errorf("decoding checkpoint %s: %w", key, err)
	}
	return &cp, nil
}

// MarkComplete flips the run's status and records the completion time.
// A failed store write is logged and tolerated.
func (m *CheckpointManager) MarkComplete(ctx context.Context, runID string) {
	cp, err := m.Load(ctx, runID)
	if err != nil {
		slog.Warn("failed to load checkpoint for completion", "run_id", runID, "error", err)
		return
	}

	completedAt := m.now()
	cp.Status = entity.CheckpointCompleted
	cp.CompletedAt = &completedAt

	if err := m.write(ctx, *cp); err != nil {
		slog.Warn("failed to mark checkpoint complete", "run_id", runID, "error", err)
	}
}

// ShouldCheckpoint reports whether a snapshot is due after the completion
// at zero-based index completedIndex: true at indices 9, 19, 29, ...
func (m *CheckpointManager) ShouldCheckpoint(completedIndex int) bool {
	return (completedIndex+1)%checkpointInterval == 0
}

// Delete removes a checkpoint.
func (m *CheckpointManager) Delete(ctx context.Context, runID string) error {
	return m.blobs.Delete(ctx, checkpointKey(runID))
}

// CleanupOld deletes completed checkpoints whose completion time is older
// than maxAgeDays. Individual failures are logged and do not abort the
// sweep.
func (m *CheckpointManager) CleanupOld(ctx context.Context, maxAgeDays int) {
	keys, err := m.blobs.List(ctx)
	if err != nil {
		slog.Warn("failed to list checkpoints for cleanup", "error", err)
		return
	}

	cutoff := m.now().AddDate(0, 0, -maxAgeDays)
	for _, key := range keys {
		if !strings.HasPrefix(key, checkpointPrefix) {
			continue
		}
		cp, err := m.loadByKey(ctx, key)
		if err != nil {
			slog.Warn("skipping unreadable checkpoint during cleanup", "key", key, "error", err)
			continue
		}
		if cp.Status != entity.CheckpointCompleted {
			continue
		}
		completedAt := cp.CreatedAt
		if cp.CompletedAt != nil {
			completedAt = *cp.CompletedAt
		}
		if completedAt.After(cutoff) {
			continue
		}
		if err := m.blobs.Delete(ctx, key); err != nil {
			slog.Warn("failed to delete old checkpoint", "key", key, "error", err)
			continue
		}
		slog.Info("cleaned up old checkpoint", "key", key)
	}
}
