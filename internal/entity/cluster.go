package entity

// ClusterResult groups analysis records by semantic-embedding cluster.
type ClusterResult struct {
	// Clusters maps cluster id to the records assigned to it.
	Clusters map[int][]AnalysisRecord `json:"clusters"`
	// Assignments holds the cluster id for each input record, in input order.
	Assignments []int `json:"assignments"`
	// Centers holds the k-means cluster centroids.
	Centers [][]float64 `json:"cluster_centers"`
	// NClusters is the number of clusters discovered.
	NClusters int `json:"n_clusters"`
}

// ClusterMetadata is the generated label for one topic cluster.
type ClusterMetadata struct {
	Label     string   `json:"label"`
	Summary   string   `json:"summary"`
	Themes    []string `json:"themes"`
	PostCount int      `json:"post_count"`
}
