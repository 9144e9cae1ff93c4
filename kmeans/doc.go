// Package kmeans implements Lloyd's algorithm with k-means++ seeding.
//
// A Model partitions points into K clusters by alternating a parallel
// nearest-centroid assignment step with a centroid recomputation step
// until assignments stabilize, centroids stop moving, or the iteration
// budget is exhausted. The fitted Inertia is the sum of distances from
// each point to its assigned centroid under the configured metric (the
// SSE when the metric is squared Euclidean).
package kmeans
