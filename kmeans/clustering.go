package kmeans

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// Clustering is the result of fitting a Model: per-point assignments,
// the final centroids, and per-cluster membership bitmaps.
type Clustering struct {
	Assignments []int
	Centroids   [][]float64
	Inertia     float64
	Iterations  int
	Converged   bool

	members []*roaring.Bitmap
}

func newClustering(assign []int, centroids [][]float64, inertia float64, iterations int, converged bool) *Clustering {
	members := make([]*roaring.Bitmap, len(centroids))
	for k := range members {
		members[k] = roaring.New()
	}
	for i, k := range assign {
		members[k].Add(uint32(i))
	}

	return &Clustering{
		Assignments: assign,
		Centroids:   centroids,
		Inertia:     inertia,
		Iterations:  iterations,
		Converged:   converged,
		members:     members,
	}
}

// NumClusters returns the number of clusters.
func (c *Clustering) NumClusters() int {
	return len(c.Centroids)
}

// Members returns the bitmap of row indices assigned to cluster k.
// The returned bitmap is shared; callers must not mutate it.
func (c *Clustering) Members(k int) *roaring.Bitmap {
	return c.members[k]
}

// Sizes returns the number of points assigned to each cluster.
func (c *Clustering) Sizes() []int {
	sizes := make([]int, len(c.members))
	for k, bm := range c.members {
		sizes[k] = int(bm.GetCardinality())
	}
	return sizes
}
