// Package elbow selects the number of clusters with the elbow method:
// it fits models across a range of K, collects the clustering error
// (SSE) per K, and locates the point of diminishing returns.
package elbow

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/clusterkit/clusterkit/distance"
	"github.com/clusterkit/clusterkit/kmeans"
	"github.com/clusterkit/clusterkit/resource"
)

var (
	// ErrInvalidRange is returned when the K range is malformed.
	ErrInvalidRange = errors.New("invalid k range")
)

const (
	// DefaultKMin and DefaultKMax cover the usual pedagogical sweep.
	DefaultKMin = 1
	DefaultKMax = 10

	// DefaultRestarts is the number of seeded fits kept per K.
	DefaultRestarts = 3

	// maxRepairRestarts bounds the extra fits spent restoring SSE
	// monotonicity before a violation is recorded.
	maxRepairRestarts = 5
)

// Options configures a sweep.
type Options struct {
	// KMin and KMax bound the inclusive sweep range. Zero values take
	// the defaults. KMax is clamped to the number of points.
	KMin int
	KMax int

	// Restarts is the number of independently seeded fits per K;
	// the lowest-SSE fit wins. Zero takes DefaultRestarts.
	Restarts int

	// MaxIterations, Tolerance, Metric and Seed configure each
	// underlying model. Zero values take the kmeans defaults.
	MaxIterations int
	Tolerance     float64
	Metric        distance.Metric
	Seed          int64

	// Resources bounds concurrent fits. If nil, one goroutine per K
	// runs unbounded.
	Resources *resource.Controller
}

// Point is one sweep measurement.
type Point struct {
	K   int
	SSE float64
}

// Result holds the ordered SSE curve of a sweep.
type Result struct {
	Points []Point

	// Violations lists the Ks whose best SSE still exceeded the best
	// SSE at K-1 after repair restarts. A non-empty list usually means
	// Restarts is too low for the dataset.
	Violations []int

	// KMaxClamped is set when the requested KMax exceeded the number of
	// points and was lowered to it.
	KMaxClamped bool
}

// Sweep fits a model for every K in [KMin, KMax] and returns the SSE
// curve. Fits for distinct Ks run concurrently, bounded by the
// resource controller.
func Sweep(ctx context.Context, X [][]float64, opts Options) (*Result, error) {
	kMin, kMax := opts.KMin, opts.KMax
	if kMin == 0 {
		kMin = DefaultKMin
	}
	if kMax == 0 {
		kMax = DefaultKMax
	}
	if kMin < 1 || kMax < kMin {
		return nil, fmt.Errorf("%w: [%d, %d]", ErrInvalidRange, kMin, kMax)
	}
	if len(X) == 0 {
		return nil, kmeans.ErrEmptyInput
	}
	clamped := false
	if kMax > len(X) {
		kMax = len(X)
		clamped = true
	}
	if kMin > kMax {
		return nil, fmt.Errorf("%w: [%d, %d] after clamping to %d points", ErrInvalidRange, kMin, kMax, len(X))
	}

	restarts := opts.Restarts
	if restarts <= 0 {
		restarts = DefaultRestarts
	}
	seed := opts.Seed
	if seed == 0 {
		seed = 1
	}

	best := make(map[int]float64, kMax-kMin+1)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for k := kMin; k <= kMax; k++ {
		k := k
		g.Go(func() error {
			if err := opts.Resources.AcquireWorker(gctx); err != nil {
				return err
			}
			defer opts.Resources.ReleaseWorker()

			sse, err := bestOf(gctx, X, k, restarts, seed, opts)
			if err != nil {
				return err
			}

			mu.Lock()
			best[k] = sse
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// More clusters can only lower the optimal SSE; a rise means the
	// fit for that K landed in a poor local optimum. Spend a few more
	// seeds before reporting the violation.
	var violations []int
	for k := kMin + 1; k <= kMax; k++ {
		if best[k] <= best[k-1] {
			continue
		}
		sse, err := bestOf(ctx, X, k, maxRepairRestarts, seed+int64(restarts), opts)
		if err != nil {
			return nil, err
		}
		if sse < best[k] {
			best[k] = sse
		}
		if best[k] > best[k-1] {
			violations = append(violations, k)
		}
	}

	points := make([]Point, 0, kMax-kMin+1)
	for k := kMin; k <= kMax; k++ {
		points = append(points, Point{K: k, SSE: best[k]})
	}

	return &Result{Points: points, Violations: violations, KMaxClamped: clamped}, nil
}

// bestOf runs restarts independently seeded fits for k and returns the
// lowest inertia.
func bestOf(ctx context.Context, X [][]float64, k, restarts int, seed int64, opts Options) (float64, error) {
	best := math.MaxFloat64
	for r := 0; r < restarts; r++ {
		m := kmeans.New(k)
		if opts.MaxIterations > 0 {
			m.MaxIterations = opts.MaxIterations
		}
		if opts.Tolerance > 0 {
			m.Tolerance = opts.Tolerance
		}
		m.Metric = opts.Metric
		m.Seed = seed + int64(k)*1009 + int64(r)

		c, err := m.Fit(ctx, X)
		if err != nil {
			return 0, err
		}
		if c.Inertia < best {
			best = c.Inertia
		}
	}
	return best, nil
}

// Monotonic reports whether the SSE curve is non-increasing in K.
func (r *Result) Monotonic() bool {
	return len(r.Violations) == 0
}

// SSE returns the SSE for the given K, or NaN if K was not swept.
func (r *Result) SSE(k int) float64 {
	for _, p := range r.Points {
		if p.K == k {
			return p.SSE
		}
	}
	return math.NaN()
}

// Knee returns the K at the elbow of the SSE curve: the point with the
// maximum perpendicular distance to the chord between the first and
// last sweep points, computed on axis-normalized coordinates.
func (r *Result) Knee() int {
	pts := r.Points
	if len(pts) == 0 {
		return 0
	}
	if len(pts) < 3 {
		return pts[0].K
	}

	first, last := pts[0], pts[len(pts)-1]
	dk := float64(last.K - first.K)
	dsse := first.SSE - last.SSE
	if dk == 0 || dsse == 0 {
		return first.K
	}

	// Normalize both axes to [0,1] so the knee is scale-invariant.
	bestK, bestDist := first.K, -1.0
	for _, p := range pts[1 : len(pts)-1] {
		x := float64(p.K-first.K) / dk
		y := (first.SSE - p.SSE) / dsse
		// Distance from (x, y) to the chord y = x, scaled by 1/sqrt(2).
		d := math.Abs(y-x) / math.Sqrt2
		if d > bestDist {
			bestDist = d
			bestK = p.K
		}
	}
	return bestK
}
