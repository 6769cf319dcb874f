package cluster

import (
	"math"
	"math/rand"
)

const (
	minClusters   = 2
	maxClusters   = 10
	maxIterations = 100

	// Fixed seed keeps cluster assignments reproducible across runs on
	// identical embeddings.
	randSeed = 42
)

// kmeans partitions vectors into k clusters with Lloyd's algorithm and
// returns the assignment of each vector plus the final centroids.
func kmeans(vectors [][]float64, k int) ([]int, [][]float64) {
	n := len(vectors)
	if n == 0 {
		return nil, nil
	}
	if k > n {
		k = n
	}
	if k < 1 {
		k = 1
	}

	rng := rand.New(rand.NewSource(randSeed))
	centers := initialCenters(vectors, k, rng)
	assignments := make([]int, n)

	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i, v := range vectors {
			best := nearestCenter(v, centers)
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}
		centers = recomputeCenters(vectors, assignments, k, centers)
	}

	return assignments, centers
}

// initialCenters uses k-means++ seeding: each next center is sampled with
// probability proportional to squared distance from the nearest chosen one.
func initialCenters(vectors [][]float64, k int, rng *rand.Rand) [][]float64 {
	centers := make([][]float64, 0, k)
	centers = append(centers, vectors[rng.Intn(len(vectors))])

	for len(centers) < k {
		dists := make([]float64, len(vectors))
		total := 0.0
		for i, v := range vectors {
			d := math.Inf(1)
			for _, c := range centers {
				if dd := squaredDistance(v, c); dd < d {
					d = dd
				}
			}
			dists[i] = d
			total += d
		}
		if total == 0 {
			// All remaining points coincide with a center.
			centers = append(centers, vectors[rng.Intn(len(vectors))])
			continue
		}
		target := rng.Float64() * total
		acc := 0.0
		picked := len(vectors) - 1
		for i, d := range dists {
			acc += d
			if acc >= target {
				picked = i
				break
			}
		}
		centers = append(centers, vectors[picked])
	}
	return centers
}

func nearestCenter(v []float64, centers [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for i, c := range centers {
		if d := squaredDistance(v, c); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func recomputeCenters(vectors [][]float64, assignments []int, k int, prev [][]float64) [][]float64 {
	dim := len(vectors[0])
	sums := make([][]float64, k)
	counts := make([]int, k)
	for i := range sums {
		sums[i] = make([]float64, dim)
	}
	for i, v := range vectors {
		c := assignments[i]
		counts[c]++
		for d, x := range v {
			sums[c][d] += x
		}
	}

	centers := make([][]float64, k)
	for c := 0; c < k; c++ {
		if counts[c] == 0 {
			// Empty cluster keeps its previous center.
			centers[c] = prev[c]
			continue
		}
		center := make([]float64, dim)
		for d := range center {
			center[d] = sums[c][d] / float64(counts[c])
		}
		centers[c] = center
	}
	return centers
}

func squaredDistance(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// optimalClusterCount picks k in [minClusters, maxClusters] by the best
// mean silhouette score.
func optimalClusterCount(vectors [][]float64) int {
	n := len(vectors)
	if n < minClusters {
		if n < 2 {
			return n
		}
		return 2
	}

	upper := maxClusters
	if upper > n-1 {
		upper = n - 1
	}
	if upper < minClusters {
		return minClusters
	}

	bestK, bestScore := minClusters, -1.0
	for k := minClusters; k <= upper; k++ {
		assignments, _ := kmeans(vectors, k)
		if distinctCount(assignments) < 2 {
			continue
		}
		if score := silhouetteScore(vectors, assignments, k); score > bestScore {
			bestScore = score
			bestK = k
		}
	}
	return bestK
}

func distinctCount(assignments []int) int {
	seen := make(map[int]struct{}, len(assignments))
	for _, a := range assignments {
		seen[a] = struct{}{}
	}
	return len(seen)
}

// silhouetteScore is the mean silhouette coefficient over all points:
// (b-a)/max(a,b) where a is mean intra-cluster distance and b is the mean
// distance to the nearest other cluster.
func silhouetteScore(vectors [][]float64, assignments []int, k int) float64 {
	n := len(vectors)
	total := 0.0
	counted := 0

	for i := 0; i < n; i++ {
		intraSum, intraCount := 0.0, 0
		interMeans := make([]float64, k)
		interCounts := make([]int, k)

		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			d := math.Sqrt(squaredDistance(vectors[i], vectors[j]))
			if assignments[j] == assignments[i] {
				intraSum += d
				intraCount++
			} else {
				interMeans[assignments[j]] += d
				interCounts[assignments[j]]++
			}
		}
		if intraCount == 0 {
			continue
		}

		a := intraSum / float64(intraCount)
		b := math.Inf(1)
		for c := 0; c < k; c++ {
			if interCounts[c] == 0 {
				continue
			}
			if mean := interMeans[c] / float64(interCounts[c]); mean < b {
				b = mean
			}
		}
		if math.IsInf(b, 1) {
			continue
		}

		if m := math.Max(a, b); m > 0 {
			total += (b - a) / m
			counted++
		}
	}

	if counted == 0 {
		return -1
	}
	return total / float64(counted)
}
