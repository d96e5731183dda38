package cluster

import (
	"math"
	"math/rand"
)

const (
	// Fixed seed so repeated clustering runs over an unchanged population
	// assign identical labels, keeping board generation idempotent.
	kmeansSeed    = 42
	maxIterations = 100
)

// kmeans partitions points into k groups with Lloyd's algorithm and a
// seeded k-means++-style initialization. Returns a cluster label per point.
func kmeans(points [][]float64, k int) []int {
	n := len(points)
	if n == 0 {
		return nil
	}
	if k > n {
		k = n
	}
	if k < 1 {
		k = 1
	}

	rng := rand.New(rand.NewSource(kmeansSeed))
	centroids := seedCentroids(points, k, rng)
	labels := make([]int, n)

	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i, p := range points {
			best := nearestCentroid(p, centroids)
			if best != labels[i] {
				labels[i] = best
				changed = true
			}
		}

		// Recompute centroids; reseed any that lost all members to the
		// point farthest from its current centroid.
		counts := make([]int, k)
		sums := make([][]float64, k)
		for c := range sums {
			sums[c] = make([]float64, len(points[0]))
		}
		for i, p := range points {
			counts[labels[i]]++
			for d, v := range p {
				sums[labels[i]][d] += v
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				far := points[farthestPoint(points, labels, centroids)]
				centroids[c] = append([]float64(nil), far...)
				changed = true
				continue
			}
			for d := range sums[c] {
				centroids[c][d] = sums[c][d] / float64(counts[c])
			}
		}

		if !changed && iter > 0 {
			break
		}
	}

	return labels
}

// seedCentroids picks k initial centroids: the first uniformly, each
// subsequent one weighted by squared distance to the nearest chosen
// centroid (the k-means++ scheme).
func seedCentroids(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	first := points[rng.Intn(len(points))]
	centroids = append(centroids, append([]float64(nil), first...))

	for len(centroids) < k {
		weights := make([]float64, len(points))
		total := 0.0
		for i, p := range points {
			d := math.MaxFloat64
			for _, c := range centroids {
				if dist := squaredDistance(p, c); dist < d {
					d = dist
				}
			}
			weights[i] = d
			total += d
		}

		if total == 0 {
			// All remaining points coincide with a centroid; duplicate one.
			centroids = append(centroids, append([]float64(nil), points[0]...))
			continue
		}

		target := rng.Float64() * total
		cum := 0.0
		chosen := len(points) - 1
		for i, w := range weights {
			cum += w
			if cum >= target {
				chosen = i
				break
			}
		}
		centroids = append(centroids, append([]float64(nil), points[chosen]...))
	}

	return centroids
}

func nearestCentroid(p []float64, centroids [][]float64) int {
	best := 0
	bestDist := math.MaxFloat64
	for c, centroid := range centroids {
		if d := squaredDistance(p, centroid); d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}

// farthestPoint returns the index of the point with the greatest distance
// to its assigned centroid, used to reseed empty clusters.
func farthestPoint(points [][]float64, labels []int, centroids [][]float64) int {
	farthest := 0
	maxDist := -1.0
	for i, p := range points {
		if d := squaredDistance(p, centroids[labels[i]]); d > maxDist {
			maxDist = d
			farthest = i
		}
	}
	return farthest
}

func squaredDistance(a, b []float64) float64 {
	var d float64
	for i := range a {
		diff := a[i] - b[i]
		d += diff * diff
	}
	return d
}
