package cluster

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/blog-analyzer/internal/entity"
	"github.com/user/blog-analyzer/internal/repository"
)

type fakeEmbedder struct {
	vectors [][]float64
	err     error
	texts   []string
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	f.texts = texts
	if f.err != nil {
		return nil, f.err
	}
	return f.vectors, nil
}

func records(titles ...string) []entity.AnalysisRecord {
	out := make([]entity.AnalysisRecord, len(titles))
	for i, title := range titles {
		out[i] = entity.AnalysisRecord{
			Title:      title,
			Summary:    "About " + title,
			MainPoints: []string{"point one", "point two"},
		}
	}
	return out
}

func TestGrouperClustersRecords(t *testing.T) {
	embedder := &fakeEmbedder{vectors: [][]float64{
		{0, 0}, {0.1, 0}, {10, 10}, {10.1, 10},
	}}
	g := NewGrouper(embedder)

	result, err := g.Cluster(context.Background(), records("a", "b", "c", "d"))
	require.NoError(t, err)

	assert.Equal(t, 2, result.NClusters)
	assert.Equal(t, result.Assignments[0], result.Assignments[1])
	assert.Equal(t, result.Assignments[2], result.Assignments[3])
	assert.NotEqual(t, result.Assignments[0], result.Assignments[2])

	// Records land in the cluster their vector was assigned to.
	byTitle := make(map[string]int)
	for id, members := range result.Clusters {
		for _, m := range members {
			byTitle[m.Title] = id
		}
	}
	assert.Equal(t, byTitle["a"], byTitle["b"])
	assert.NotEqual(t, byTitle["a"], byTitle["c"])
}

func TestGrouperPassesEmbedderErrorsThrough(t *testing.T) {
	wrapped := errors.New("OPENAI_API_KEY is not set")
	g := NewGrouper(&fakeEmbedder{err: wrapped})

	_, err := g.Cluster(context.Background(), records("a", "b"))
	assert.ErrorIs(t, err, wrapped)
}

func TestGrouperSingleRecord(t *testing.T) {
	g := NewGrouper(&fakeEmbedder{vectors: [][]float64{{1, 2}}})

	result, err := g.Cluster(context.Background(), records("only"))
	require.NoError(t, err)
	assert.Equal(t, 1, result.NClusters)
	assert.Equal(t, []int{0}, result.Assignments)
}

func TestGrouperRejectsVectorCountMismatch(t *testing.T) {
	g := NewGrouper(&fakeEmbedder{vectors: [][]float64{{1, 2}}})

	_, err := g.Cluster(context.Background(), records("a", "b"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 vectors for 2 records")
}

func TestGrouperEmbedsCombinedText(t *testing.T) {
	embedder := &fakeEmbedder{vectors: [][]float64{{1, 2}}}
	g := NewGrouper(embedder)

	_, err := g.Cluster(context.Background(), records("The Title"))
	require.NoError(t, err)
	require.Len(t, embedder.texts, 1)
	assert.Contains(t, embedder.texts[0], "The Title")
	assert.Contains(t, embedder.texts[0], "About The Title")
	assert.Contains(t, embedder.texts[0], "Key points: point one point two")
}

func mustNotBeUsed(t *testing.T) repository.Embedder {
	t.Helper()
	return &fakeEmbedder{err: errors.New("embedder must not be called")}
}

func TestGrouperEmptyInput(t *testing.T) {
	g := NewGrouper(mustNotBeUsed(t))

	result, err := g.Cluster(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Clusters)
}
