// Package cluster groups analyzed posts by semantic-embedding similarity.
package cluster

import (
	"context"
	"fmt"
	"strings"

	"github.com/user/blog-analyzer/internal/entity"
	"github.com/user/blog-analyzer/internal/repository"
)

// Grouper embeds post summaries and partitions them with k-means. It is
// stateless between calls.
type Grouper struct {
	embedder repository.Embedder
}

func NewGrouper(embedder repository.Embedder) *Grouper {
	return &Grouper{embedder: embedder}
}

// Cluster assigns every record to a topic cluster. The cluster count is
// chosen automatically by silhouette score unless there are too few posts
// to split. Errors from the embedder pass through unchanged so a missing
// credential stays distinguishable from a transport failure.
func (g *Grouper) Cluster(ctx context.Context, records []entity.AnalysisRecord) (*entity.ClusterResult, error) {
	if len(records) == 0 {
		return &entity.ClusterResult{Clusters: map[int][]entity.AnalysisRecord{}}, nil
	}

	texts := prepareTexts(records)
	vectors, err := g.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(records) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d records", len(vectors), len(records))
	}

	if len(records) == 1 {
		return &entity.ClusterResult{
			Clusters:    map[int][]entity.AnalysisRecord{0: records},
			Assignments: []int{0},
			Centers:     vectors,
			NClusters:   1,
		}, nil
	}

	k := optimalClusterCount(vectors)
	assignments, centers := kmeans(vectors, k)

	clusters := make(map[int][]entity.AnalysisRecord)
	for i, c := range assignments {
		clusters[c] = append(clusters[c], records[i])
	}

	return &entity.ClusterResult{
		Clusters:    clusters,
		Assignments: assignments,
		Centers:     centers,
		NClusters:   len(clusters),
	}, nil
}

// prepareTexts combines title, summary, and main points into one text per
// record for semantic comparison.
func prepareTexts(records []entity.AnalysisRecord) []string {
	texts := make([]string, len(records))
	for i, r := range records {
		parts := []string{r.Title}
		if r.Summary != "" {
			parts = append(parts, r.Summary)
		}
		if len(r.MainPoints) > 0 {
			parts = append(parts, "Key points: "+strings.Join(r.MainPoints, " "))
		}
		texts[i] = strings.Join(parts, "\n\n")
	}
	return texts
}
