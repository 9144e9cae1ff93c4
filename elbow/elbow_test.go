package elbow

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clusterkit/clusterkit/kmeans"
	"github.com/clusterkit/clusterkit/resource"
)

// blobs generates perPlanted points around each of the given centers.
func blobs(centers [][]float64, perCenter int, spread float64, seed int64) [][]float64 {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, 0, len(centers)*perCenter)
	for _, c := range centers {
		for i := 0; i < perCenter; i++ {
			row := make([]float64, len(c))
			for j, v := range c {
				row[j] = v + rng.NormFloat64()*spread
			}
			X = append(X, row)
		}
	}
	return X
}

func fourBlobs() [][]float64 {
	return blobs([][]float64{
		{0, 0}, {20, 0}, {0, 20}, {20, 20},
	}, 50, 1.0, 7)
}

func TestSweepMonotonicSSE(t *testing.T) {
	ctx := context.Background()

	res, err := Sweep(ctx, fourBlobs(), Options{KMin: 1, KMax: 8})
	require.NoError(t, err)
	require.Len(t, res.Points, 8)

	assert.True(t, res.Monotonic(), "violations at %v", res.Violations)
	for i := 1; i < len(res.Points); i++ {
		assert.LessOrEqual(t, res.Points[i].SSE, res.Points[i-1].SSE+1e-9,
			"SSE rose between k=%d and k=%d", res.Points[i-1].K, res.Points[i].K)
	}
}

func TestSweepKneeFindsPlantedK(t *testing.T) {
	ctx := context.Background()

	res, err := Sweep(ctx, fourBlobs(), Options{KMin: 1, KMax: 10, Restarts: 5})
	require.NoError(t, err)

	assert.Equal(t, 4, res.Knee())
}

func TestSweepWithResourceController(t *testing.T) {
	ctx := context.Background()
	ctrl := resource.NewController(resource.Config{MaxWorkers: 2})

	res, err := Sweep(ctx, fourBlobs(), Options{KMin: 2, KMax: 6, Resources: ctrl})
	require.NoError(t, err)
	assert.Len(t, res.Points, 5)
	assert.Equal(t, 2, res.Points[0].K)
	assert.Equal(t, 6, res.Points[len(res.Points)-1].K)
}

func TestSweepClampsKMax(t *testing.T) {
	ctx := context.Background()
	X := [][]float64{{0, 0}, {1, 1}, {10, 10}}

	res, err := Sweep(ctx, X, Options{KMin: 1, KMax: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Points[len(res.Points)-1].K)
	assert.True(t, res.KMaxClamped)

	res, err = Sweep(ctx, X, Options{KMin: 1, KMax: 3})
	require.NoError(t, err)
	assert.False(t, res.KMaxClamped)
}

func TestSweepErrors(t *testing.T) {
	ctx := context.Background()

	_, err := Sweep(ctx, fourBlobs(), Options{KMin: 5, KMax: 2})
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = Sweep(ctx, fourBlobs(), Options{KMin: -1, KMax: 4})
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = Sweep(ctx, nil, Options{})
	assert.ErrorIs(t, err, kmeans.ErrEmptyInput)

	// KMin beyond the point count cannot be satisfied after clamping.
	_, err = Sweep(ctx, [][]float64{{0}, {1}}, Options{KMin: 5, KMax: 9})
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestSweepCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Sweep(ctx, fourBlobs(), Options{KMin: 1, KMax: 6})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResultSSE(t *testing.T) {
	res := &Result{Points: []Point{{K: 1, SSE: 100}, {K: 2, SSE: 40}}}
	assert.Equal(t, 100.0, res.SSE(1))
	assert.Equal(t, 40.0, res.SSE(2))
	assert.True(t, math.IsNaN(res.SSE(3)))
}

func TestKneeEdgeCases(t *testing.T) {
	assert.Equal(t, 0, (&Result{}).Knee())
	assert.Equal(t, 3, (&Result{Points: []Point{{K: 3, SSE: 10}}}).Knee())
	assert.Equal(t, 1, (&Result{Points: []Point{{K: 1, SSE: 10}, {K: 2, SSE: 5}}}).Knee())

	// Flat curve has no elbow; the smallest K wins.
	flat := &Result{Points: []Point{{K: 1, SSE: 5}, {K: 2, SSE: 5}, {K: 3, SSE: 5}}}
	assert.Equal(t, 1, flat.Knee())
}

func TestKneeSyntheticCurve(t *testing.T) {
	// Steep drop until k=3, flat afterwards.
	res := &Result{Points: []Point{
		{K: 1, SSE: 1000},
		{K: 2, SSE: 400},
		{K: 3, SSE: 80},
		{K: 4, SSE: 70},
		{K: 5, SSE: 62},
		{K: 6, SSE: 58},
	}}
	assert.Equal(t, 3, res.Knee())
}
