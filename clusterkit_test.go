package clusterkit

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clusterkit/clusterkit/codec"
	"github.com/clusterkit/clusterkit/dataset"
	"github.com/clusterkit/clusterkit/dataset/source"
)

// writeCustomersCSV writes a small mall-customers style CSV with two
// well separated spending segments.
func writeCustomersCSV(t *testing.T) string {
	t.Helper()

	var b strings.Builder
	b.WriteString("CustomerID,Genre,Age,Annual Income (k$),Spending Score (1-100)\n")
	id := 1
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&b, "%d,Male,%d,%d,%d\n", id, 20+i%5, 15+i%4, 75+i%10)
		id++
	}
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&b, "%d,Female,%d,%d,%d\n", id, 45+i%5, 80+i%4, 10+i%10)
		id++
	}

	path := filepath.Join(t.TempDir(), "customers.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
	return path
}

func newSegmenter(t *testing.T, optFns ...Option) *Segmenter {
	t.Helper()

	seg, err := New(dataset.SegmentationColumns, optFns...)
	require.NoError(t, err)
	return seg
}

func TestNewValidation(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}

func TestLoadCustomers(t *testing.T) {
	seg := newSegmenter(t)
	path := writeCustomersCSV(t)

	customers, frame, err := seg.LoadCustomers(context.Background(), source.NewLocal(path))
	require.NoError(t, err)
	assert.Len(t, customers, 40)
	assert.Equal(t, 40, frame.Len())
	assert.Equal(t, "Male", customers[0].Gender)
}

func TestLoadCustomersNotFound(t *testing.T) {
	seg := newSegmenter(t)

	_, _, err := seg.LoadCustomers(context.Background(), source.NewLocal(filepath.Join(t.TempDir(), "missing.csv")))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFitAndPredict(t *testing.T) {
	seg := newSegmenter(t, WithSeed(7))
	path := writeCustomersCSV(t)

	_, frame, err := seg.LoadCustomers(context.Background(), source.NewLocal(path))
	require.NoError(t, err)

	c, err := seg.Fit(context.Background(), frame, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, c.NumClusters())
	assert.Len(t, c.Assignments, 40)

	// The two written segments are far apart, so each must land in its
	// own cluster.
	assert.Equal(t, c.Assignments[0], c.Assignments[10])
	assert.Equal(t, c.Assignments[20], c.Assignments[30])
	assert.NotEqual(t, c.Assignments[0], c.Assignments[20])

	pred, err := seg.Predict(context.Background(), frame)
	require.NoError(t, err)
	assert.Equal(t, c.Assignments, pred)
}

func TestFitErrors(t *testing.T) {
	seg := newSegmenter(t)
	path := writeCustomersCSV(t)

	_, frame, err := seg.LoadCustomers(context.Background(), source.NewLocal(path))
	require.NoError(t, err)

	_, err = seg.Fit(context.Background(), frame, 0)
	assert.ErrorIs(t, err, ErrInvalidK)

	_, err = seg.Fit(context.Background(), frame, frame.Len()+1)
	var tf *ErrTooFewPoints
	require.ErrorAs(t, err, &tf)
	assert.Equal(t, frame.Len(), tf.Points)
}

func TestFitMissingNumericCell(t *testing.T) {
	// An empty numeric cell decodes to NaN and must fail the fit
	// instead of poisoning the distance computations.
	csv := "CustomerID,Genre,Age,Annual Income (k$),Spending Score (1-100)\n" +
		"1,Male,19,15,39\n" +
		"2,Male,,15,81\n" +
		"3,Female,20,16,6\n" +
		"4,Female,23,16,77\n"
	path := filepath.Join(t.TempDir(), "customers.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o600))

	seg := newSegmenter(t)
	_, frame, err := seg.LoadCustomers(context.Background(), source.NewLocal(path))
	require.NoError(t, err)

	_, err = seg.Fit(context.Background(), frame, 2)
	assert.ErrorIs(t, err, ErrNonFinite)
}

func TestPredictNotFitted(t *testing.T) {
	seg := newSegmenter(t)
	path := writeCustomersCSV(t)

	_, frame, err := seg.LoadCustomers(context.Background(), source.NewLocal(path))
	require.NoError(t, err)

	_, err = seg.Predict(context.Background(), frame)
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestSweepK(t *testing.T) {
	seg := newSegmenter(t, WithKRange(1, 6), WithSeed(7))
	path := writeCustomersCSV(t)

	_, frame, err := seg.LoadCustomers(context.Background(), source.NewLocal(path))
	require.NoError(t, err)

	res, err := seg.SweepK(context.Background(), frame)
	require.NoError(t, err)
	require.Len(t, res.Points, 6)
	assert.True(t, res.Monotonic())
	assert.GreaterOrEqual(t, res.Knee(), 1)
	assert.LessOrEqual(t, res.Knee(), 6)
}

func TestSaveLoadModel(t *testing.T) {
	seg := newSegmenter(t, WithSeed(7), WithCompression(codec.CompressionZstd))
	path := writeCustomersCSV(t)

	_, frame, err := seg.LoadCustomers(context.Background(), source.NewLocal(path))
	require.NoError(t, err)

	c, err := seg.Fit(context.Background(), frame, 2)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, seg.SaveModel(context.Background(), &buf))

	restored := newSegmenter(t)
	require.NoError(t, restored.LoadModel(context.Background(), &buf))
	require.NotNil(t, restored.Model())

	pred, err := restored.Predict(context.Background(), frame)
	require.NoError(t, err)
	assert.Equal(t, c.Assignments, pred)
}

func TestSaveModelNotFitted(t *testing.T) {
	seg := newSegmenter(t)

	var buf bytes.Buffer
	assert.ErrorIs(t, seg.SaveModel(context.Background(), &buf), ErrNotFitted)
}

func TestMetricsCollection(t *testing.T) {
	mc := &BasicMetricsCollector{}
	seg := newSegmenter(t, WithMetricsCollector(mc), WithSeed(7))
	path := writeCustomersCSV(t)

	_, frame, err := seg.LoadCustomers(context.Background(), source.NewLocal(path))
	require.NoError(t, err)

	_, err = seg.Fit(context.Background(), frame, 2)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, seg.SaveModel(context.Background(), &buf))

	stats := mc.GetStats()
	assert.Equal(t, int64(1), stats.LoadCount)
	assert.Equal(t, int64(40), stats.LoadRows)
	assert.Equal(t, int64(1), stats.FitCount)
	assert.Equal(t, int64(0), stats.FitErrors)
	assert.Equal(t, int64(1), stats.SnapshotCount)
}

func TestTranslateError(t *testing.T) {
	assert.NoError(t, translateError(nil))

	err := translateError(fmt.Errorf("wrapped: %w", source.ErrNotFound))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, source.ErrNotFound)
}
