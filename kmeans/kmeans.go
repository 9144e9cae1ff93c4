package kmeans

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/clusterkit/clusterkit/distance"
)

var (
	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrEmptyInput is returned when the input matrix has no rows.
	ErrEmptyInput = errors.New("input data cannot be empty")

	// ErrNotFitted is returned when Predict is called before Fit.
	ErrNotFitted = errors.New("model has not been fitted")

	// ErrNonFinite is returned when the input matrix contains NaN or
	// infinite values, which would poison every distance computation.
	ErrNonFinite = errors.New("input contains non-finite values")
)

// ErrTooFewPoints indicates fewer data points than requested clusters.
type ErrTooFewPoints struct {
	Points int
	K      int
}

func (e *ErrTooFewPoints) Error() string {
	return fmt.Sprintf("too few points: %d points for k=%d", e.Points, e.K)
}

// ErrDimensionMismatch indicates a row/centroid dimensionality mismatch.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

const (
	// DefaultMaxIterations bounds the Lloyd loop.
	DefaultMaxIterations = 100

	// DefaultTolerance is the squared centroid shift below which the
	// model is considered converged.
	DefaultTolerance = 1e-6
)

// Model is an unsupervised learning model that partitions data points
// into K clusters. The configuration fields may be adjusted before Fit;
// the remaining fields hold fitted state.
type Model struct {
	K             int
	MaxIterations int
	Tolerance     float64
	Metric        distance.Metric
	Seed          int64
	Workers       int

	// Fitted state, populated by Fit.
	Centroids  [][]float64
	Inertia    float64
	Iterations int
	Converged  bool
}

// New creates a Model with k clusters and default configuration.
func New(k int) *Model {
	return &Model{
		K:             k,
		MaxIterations: DefaultMaxIterations,
		Tolerance:     DefaultTolerance,
		Metric:        distance.MetricSquaredEuclidean,
		Seed:          1,
		Workers:       runtime.GOMAXPROCS(0),
	}
}

// Fit trains the model on X using Lloyd's algorithm and returns the
// resulting clustering. Cancellation is checked between iterations.
func (m *Model) Fit(ctx context.Context, X [][]float64) (*Clustering, error) {
	if m.K <= 0 {
		return nil, ErrInvalidK
	}
	if len(X) == 0 {
		return nil, ErrEmptyInput
	}

	n, dim := len(X), len(X[0])
	for i, row := range X {
		if len(row) != dim {
			return nil, &ErrDimensionMismatch{Expected: dim, Actual: len(row)}
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: row %d, column %d", ErrNonFinite, i, j)
			}
		}
	}
	if n < m.K {
		return nil, &ErrTooFewPoints{Points: n, K: m.K}
	}

	distFn, err := distance.Provider(m.Metric)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(m.Seed))
	m.Centroids = m.seedCentroids(X, rng, distFn)

	assign := make([]int, n)
	for i := range assign {
		assign[i] = -1
	}
	pointDist := make([]float64, n)

	m.Iterations = 0
	m.Converged = false

	for iter := 0; iter < m.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		changed, inertia, err := m.assignStep(ctx, X, assign, pointDist, distFn)
		if err != nil {
			return nil, err
		}
		m.Inertia = inertia
		m.Iterations = iter + 1

		if changed == 0 {
			m.Converged = true
			break
		}

		shift := m.updateStep(X, assign, pointDist, distFn)
		if shift <= m.Tolerance {
			// Centroids moved after the last assignment pass, so
			// refresh assignments and inertia against the final ones.
			if _, final, err := m.assignStep(ctx, X, assign, pointDist, distFn); err != nil {
				return nil, err
			} else {
				m.Inertia = final
			}
			m.Converged = true
			break
		}
	}

	if !m.Converged {
		// Stopped on the iteration budget right after an update step.
		if _, final, err := m.assignStep(ctx, X, assign, pointDist, distFn); err != nil {
			return nil, err
		} else {
			m.Inertia = final
		}
	}

	return newClustering(assign, m.Centroids, m.Inertia, m.Iterations, m.Converged), nil
}

// Predict assigns each row of X to its nearest fitted centroid.
func (m *Model) Predict(ctx context.Context, X [][]float64) ([]int, error) {
	if len(m.Centroids) == 0 {
		return nil, ErrNotFitted
	}
	if len(X) == 0 {
		return nil, ErrEmptyInput
	}

	dim := len(m.Centroids[0])
	for i, row := range X {
		if len(row) != dim {
			return nil, &ErrDimensionMismatch{Expected: dim, Actual: len(row)}
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: row %d, column %d", ErrNonFinite, i, j)
			}
		}
	}

	distFn, err := distance.Provider(m.Metric)
	if err != nil {
		return nil, err
	}

	assign := make([]int, len(X))
	g, ctx := errgroup.WithContext(ctx)
	chunks(len(X), m.workers())(func(start, end int) bool {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				assign[i], _ = nearest(X[i], m.Centroids, distFn)
			}
			return nil
		})
		return true
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return assign, nil
}

func (m *Model) workers() int {
	if m.Workers > 0 {
		return m.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// assignStep assigns every point to its nearest centroid, recording the
// per-point distance. It returns the number of changed assignments and
// the total inertia against the current centroids.
func (m *Model) assignStep(ctx context.Context, X [][]float64, assign []int, pointDist []float64, distFn distance.Func) (int, float64, error) {
	workers := m.workers()
	changedPer := make([]int, workers)
	inertiaPer := make([]float64, workers)

	g, ctx := errgroup.WithContext(ctx)
	w := 0
	chunks(len(X), workers)(func(start, end int) bool {
		slot := w
		w++
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var changed int
			var inertia float64
			for i := start; i < end; i++ {
				best, d := nearest(X[i], m.Centroids, distFn)
				if assign[i] != best {
					assign[i] = best
					changed++
				}
				pointDist[i] = d
				inertia += d
			}
			changedPer[slot] = changed
			inertiaPer[slot] = inertia
			return nil
		})
		return true
	})
	if err := g.Wait(); err != nil {
		return 0, 0, err
	}

	var changed int
	var inertia float64
	for i := 0; i < workers; i++ {
		changed += changedPer[i]
		inertia += inertiaPer[i]
	}
	return changed, inertia, nil
}

// updateStep recomputes each centroid as the mean of its assigned
// points and returns the maximum squared centroid shift. Empty clusters
// are reseeded with the point farthest from its current centroid.
func (m *Model) updateStep(X [][]float64, assign []int, pointDist []float64, distFn distance.Func) float64 {
	dim := len(X[0])
	sums := make([][]float64, m.K)
	counts := make([]int, m.K)
	for k := 0; k < m.K; k++ {
		sums[k] = make([]float64, dim)
	}

	for i, row := range X {
		k := assign[i]
		counts[k]++
		for j, v := range row {
			sums[k][j] += v
		}
	}

	var maxShift float64
	for k := 0; k < m.K; k++ {
		var next []float64
		if counts[k] > 0 {
			next = sums[k]
			inv := 1.0 / float64(counts[k])
			for j := range next {
				next[j] *= inv
			}
		} else {
			// Reseed an empty cluster with the point that fits its
			// current cluster worst. Consume the chosen point so a
			// second empty cluster picks a different one.
			idx := farthest(pointDist)
			pointDist[idx] = -1
			next = append([]float64(nil), X[idx]...)
		}

		shift := distance.SquaredEuclidean(m.Centroids[k], next)
		if shift > maxShift {
			maxShift = shift
		}
		copy(m.Centroids[k], next)
	}

	return maxShift
}

// seedCentroids implements k-means++ seeding: the first centroid is a
// uniformly random point, each following one is sampled with
// probability proportional to its distance to the nearest chosen
// centroid.
func (m *Model) seedCentroids(X [][]float64, rng *rand.Rand, distFn distance.Func) [][]float64 {
	n, dim := len(X), len(X[0])
	centroids := make([][]float64, 0, m.K)

	first := make([]float64, dim)
	copy(first, X[rng.Intn(n)])
	centroids = append(centroids, first)

	minDist := make([]float64, n)
	for i := range minDist {
		minDist[i] = math.MaxFloat64
	}

	for len(centroids) < m.K {
		last := centroids[len(centroids)-1]
		var total float64
		for i, row := range X {
			if d := distFn(row, last); d < minDist[i] {
				minDist[i] = d
			}
			total += minDist[i]
		}

		idx := 0
		if total > 0 {
			r := rng.Float64() * total
			var cumulative float64
			for i, d := range minDist {
				cumulative += d
				if cumulative >= r {
					idx = i
					break
				}
			}
		} else {
			// All points coincide with a centroid already.
			idx = rng.Intn(n)
		}

		c := make([]float64, dim)
		copy(c, X[idx])
		centroids = append(centroids, c)
	}

	return centroids
}

// nearest returns the index of the closest centroid and its distance.
func nearest(row []float64, centroids [][]float64, distFn distance.Func) (int, float64) {
	best, bestDist := -1, math.MaxFloat64
	for k, c := range centroids {
		if d := distFn(row, c); d < bestDist {
			bestDist = d
			best = k
		}
	}
	return best, bestDist
}

func farthest(pointDist []float64) int {
	best, bestDist := 0, -1.0
	for i, d := range pointDist {
		if d > bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

// chunks yields [start, end) ranges splitting n items across workers.
func chunks(n, workers int) func(yield func(int, int) bool) {
	per := (n + workers - 1) / workers
	return func(yield func(int, int) bool) {
		for start := 0; start < n; start += per {
			end := start + per
			if end > n {
				end = n
			}
			if !yield(start, end) {
				return
			}
		}
	}
}
