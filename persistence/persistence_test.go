package persistence

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clusterkit/clusterkit/codec"
	"github.com/clusterkit/clusterkit/dataset"
	"github.com/clusterkit/clusterkit/kmeans"
	"github.com/clusterkit/clusterkit/preprocess"
)

func fittedModel(t *testing.T) (*kmeans.Model, *preprocess.Pipeline) {
	t.Helper()
	ctx := context.Background()

	f, err := dataset.New(
		dataset.NumericColumn("x", []float64{0, 1, 10, 11}),
		dataset.NumericColumn("y", []float64{0, 1, 10, 11}),
	)
	require.NoError(t, err)

	p, err := preprocess.NewPipeline([]string{"x", "y"}, preprocess.EncodeLabel, preprocess.ScaleStandard)
	require.NoError(t, err)
	X, err := p.FitTransform(f)
	require.NoError(t, err)

	m := kmeans.New(2)
	_, err = m.Fit(ctx, X)
	require.NoError(t, err)

	return m, p
}

func TestSaveLoadRoundTrip(t *testing.T) {
	m, p := fittedModel(t)

	for _, compression := range []codec.Compression{
		codec.CompressionNone, codec.CompressionZstd, codec.CompressionLZ4,
	} {
		t.Run(string(compression), func(t *testing.T) {
			var buf bytes.Buffer
			err := Save(&buf, FromModel(m, p), func(o *Options) {
				o.Compression = compression
			})
			require.NoError(t, err)

			snap, err := Load(&buf)
			require.NoError(t, err)

			restored, err := snap.ToModel()
			require.NoError(t, err)

			assert.Equal(t, m.K, restored.K)
			assert.Equal(t, m.Metric, restored.Metric)
			assert.Equal(t, m.Iterations, restored.Iterations)
			assert.Equal(t, m.Converged, restored.Converged)
			require.Len(t, restored.Centroids, len(m.Centroids))
			for k := range m.Centroids {
				for j := range m.Centroids[k] {
					assert.InDelta(t, m.Centroids[k][j], restored.Centroids[k][j], 1e-12)
				}
			}
			assert.InDelta(t, m.Inertia, restored.Inertia, 1e-12)

			require.NotNil(t, snap.Pipeline)
			assert.Equal(t, p.Columns, snap.Pipeline.Columns)
			assert.True(t, snap.Pipeline.Fitted)
		})
	}
}

func TestLoadedModelPredicts(t *testing.T) {
	ctx := context.Background()
	m, p := fittedModel(t)

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, FromModel(m, p)))

	snap, err := Load(&buf)
	require.NoError(t, err)
	restored, err := snap.ToModel()
	require.NoError(t, err)

	want, err := m.Predict(ctx, [][]float64{{-1, -1}, {1, 1}})
	require.NoError(t, err)
	got, err := restored.Predict(ctx, [][]float64{{-1, -1}, {1, 1}})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadBadMagic(t *testing.T) {
	_, err := Load(bytes.NewReader([]byte("definitely not a snapshot")))
	assert.ErrorIs(t, err, ErrBadMagic)

	_, err = Load(bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrBadMagic)
}

func TestLoadChecksumMismatch(t *testing.T) {
	m, _ := fittedModel(t)

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, FromModel(m, nil)))

	data := buf.Bytes()
	data[len(data)-1] ^= 0xff

	_, err := Load(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrChecksum)
}

func TestLoadFutureVersion(t *testing.T) {
	m, _ := fittedModel(t)

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, FromModel(m, nil)))

	data := buf.Bytes()
	// Version lives right after the 8-byte magic (little endian).
	data[8] = 0xff
	data[9] = 0xff

	_, err := Load(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestLoadTruncated(t *testing.T) {
	m, _ := fittedModel(t)

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, FromModel(m, nil)))

	_, err := Load(bytes.NewReader(buf.Bytes()[:buf.Len()/2]))
	assert.Error(t, err)
}

func TestToModelUnknownMetric(t *testing.T) {
	snap := &Snapshot{Model: ModelState{K: 2, Metric: "Minkowski"}}
	_, err := snap.ToModel()
	assert.Error(t, err)
}
