package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/blog-analyzer/internal/entity"
)

// fakeAnalyzer returns a canned record per URL, with optional per-URL
// failures and delays to force out-of-order completion.
type fakeAnalyzer struct {
	mu     sync.Mutex
	calls  map[string]int
	fail   map[string]error
	delays map[string]time.Duration
}

func newFakeAnalyzer() *fakeAnalyzer {
	return &fakeAnalyzer{
		calls:  make(map[string]int),
		fail:   make(map[string]error),
		delays: make(map[string]time.Duration),
	}
}

func (f *fakeAnalyzer) Analyze(_ context.Context, _, url, title string) (entity.AnalysisRecord, error) {
	f.mu.Lock()
	f.calls[url]++
	delay := f.delays[url]
	err := f.fail[url]
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return entity.AnalysisRecord{}, err
	}
	record := entity.DefaultAnalysisRecord(url, title)
	record.Summary = "summary of " + title
	return record, nil
}

func makePosts(n int) []entity.ScrapedPost {
	posts := make([]entity.ScrapedPost, n)
	for i := range posts {
		posts[i] = entity.ScrapedPost{
			URL:     fmt.Sprintf("https://example.com/blog/post-%02d", i),
			Title:   fmt.Sprintf("Post %02d", i),
			Content: "content",
		}
	}
	return posts
}

func noRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 1}
}

func TestProcessBatchPreservesInputOrder(t *testing.T) {
	analyzer := newFakeAnalyzer()
	posts := makePosts(5)
	// Slow down the first post so it finishes last.
	analyzer.delays[posts[0].URL] = 50 * time.Millisecond

	b := NewBatchOrchestrator(analyzer, noRetry(), 2)
	records := b.ProcessBatch(context.Background(), posts, nil)

	require.Len(t, records, 5)
	for i, r := range records {
		assert.Equal(t, posts[i].URL, r.URL)
	}
}

func TestProcessBatchOmitsFailedTasks(t *testing.T) {
	analyzer := newFakeAnalyzer()
	posts := makePosts(4)
	analyzer.fail[posts[1].URL] = errors.New("invalid api key")

	b := NewBatchOrchestrator(analyzer, noRetry(), 2)
	records := b.ProcessBatch(context.Background(), posts, nil)

	require.Len(t, records, 3)
	assert.Equal(t, posts[0].URL, records[0].URL)
	assert.Equal(t, posts[2].URL, records[1].URL)
	assert.Equal(t, posts[3].URL, records[2].URL)
}

func TestProcessBatchReportsProgress(t *testing.T) {
	analyzer := newFakeAnalyzer()
	posts := makePosts(3)

	var dones []int
	var last Progress
	b := NewBatchOrchestrator(analyzer, noRetry(), 1)
	b.ProcessBatch(context.Background(), posts, func(p Progress) {
		dones = append(dones, p.Done)
		assert.Equal(t, 3, p.Total)
		last = p
	})

	assert.Equal(t, []int{1, 2, 3}, dones)
	assert.Equal(t, 3, last.PrefixLen)
	require.Len(t, last.PrefixRecords, 3)
	assert.Equal(t, posts[0].URL, last.PrefixRecords[0].URL)
}

func TestProcessBatchProgressPrefixIsContiguous(t *testing.T) {
	analyzer := newFakeAnalyzer()
	posts := makePosts(6)
	// Hold post 1 so one worker races ahead through posts 2..5 while
	// post 1 is still in flight.
	analyzer.delays[posts[1].URL] = 200 * time.Millisecond

	var progress []Progress
	b := NewBatchOrchestrator(analyzer, noRetry(), 2)
	records := b.ProcessBatch(context.Background(), posts, func(p Progress) {
		progress = append(progress, p)
	})

	require.Len(t, records, 6)
	require.Len(t, progress, 6)
	for _, p := range progress {
		// The prefix never reaches past a post that has not finished,
		// and its records come from the prefix alone, in input order.
		assert.LessOrEqual(t, p.PrefixLen, p.Done)
		assert.LessOrEqual(t, len(p.PrefixRecords), p.PrefixLen)
		for i, r := range p.PrefixRecords {
			assert.Equal(t, posts[i].URL, r.URL)
		}
	}
	// While post 1 is in flight, completions of later posts must not
	// extend the prefix past post 0.
	fifth := progress[4]
	assert.Equal(t, 5, fifth.Done)
	assert.Equal(t, 1, fifth.PrefixLen)
	require.Len(t, fifth.PrefixRecords, 1)
	assert.Equal(t, posts[0].URL, fifth.PrefixRecords[0].URL)
	// Once every task finishes the prefix covers the whole batch.
	final := progress[5]
	assert.Equal(t, 6, final.PrefixLen)
	assert.Len(t, final.PrefixRecords, 6)
}

func TestProcessBatchPrefixCountsFailedTasks(t *testing.T) {
	analyzer := newFakeAnalyzer()
	posts := makePosts(3)
	analyzer.fail[posts[0].URL] = errors.New("invalid api key")

	var last Progress
	b := NewBatchOrchestrator(analyzer, noRetry(), 1)
	b.ProcessBatch(context.Background(), posts, func(p Progress) {
		last = p
	})

	// A permanently failed post still advances the prefix; only its
	// record is missing.
	assert.Equal(t, 3, last.PrefixLen)
	require.Len(t, last.PrefixRecords, 2)
	assert.Equal(t, posts[1].URL, last.PrefixRecords[0].URL)
}

func TestProcessBatchEmptyInput(t *testing.T) {
	b := NewBatchOrchestrator(newFakeAnalyzer(), noRetry(), 2)
	assert.Nil(t, b.ProcessBatch(context.Background(), nil, nil))
}

func TestProcessBatchRetriesRateLimits(t *testing.T) {
	analyzer := newFakeAnalyzer()
	posts := makePosts(1)

	// Fail with a rate-limit signature until the third attempt.
	var mu sync.Mutex
	attempts := 0
	flaky := analyzerFunc(func(ctx context.Context, content, url, title string) (entity.AnalysisRecord, error) {
		mu.Lock()
		attempts++
		n := attempts
		mu.Unlock()
		if n < 3 {
			return entity.AnalysisRecord{}, errors.New("status 429")
		}
		return analyzer.Analyze(ctx, content, url, title)
	})

	retry := DefaultRetryPolicy()
	retry.sleep = func(context.Context, time.Duration) {}

	b := NewBatchOrchestrator(flaky, retry, 1)
	records := b.ProcessBatch(context.Background(), posts, nil)

	require.Len(t, records, 1)
	assert.Equal(t, 3, attempts)
}

type analyzerFunc func(ctx context.Context, content, url, title string) (entity.AnalysisRecord, error)

func (f analyzerFunc) Analyze(ctx context.Context, content, url, title string) (entity.AnalysisRecord, error) {
	return f(ctx, content, url, title)
}
