package clusterkit

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/clusterkit/clusterkit/dataset"
	"github.com/clusterkit/clusterkit/dataset/source"
	"github.com/clusterkit/clusterkit/elbow"
	"github.com/clusterkit/clusterkit/kmeans"
	"github.com/clusterkit/clusterkit/persistence"
	"github.com/clusterkit/clusterkit/preprocess"
)

// Segmenter ties the pieces of a segmentation workflow together: it
// loads a tabular dataset, preprocesses the feature columns, fits a
// k-means model (or sweeps a K range for the elbow), and persists the
// fitted model with its pipeline.
//
// A Segmenter is safe for concurrent use.
type Segmenter struct {
	opts options

	mu       sync.RWMutex
	pipeline *preprocess.Pipeline
	model    *kmeans.Model
}

// New creates a Segmenter that clusters on the given feature columns.
func New(featureColumns []string, optFns ...Option) (*Segmenter, error) {
	opts := applyOptions(optFns)

	pipeline, err := preprocess.NewPipeline(featureColumns, opts.encoding, opts.scaling)
	if err != nil {
		return nil, translateError(err)
	}

	return &Segmenter{
		opts:     opts,
		pipeline: pipeline,
	}, nil
}

// LoadFrame fetches a CSV dataset from src and decodes it into a frame.
func (s *Segmenter) LoadFrame(ctx context.Context, src source.Source) (*dataset.Frame, error) {
	start := time.Now()

	frame, err := s.loadFrame(ctx, src)

	rows := 0
	if frame != nil {
		rows = frame.Len()
	}
	s.opts.metricsCollector.RecordLoad(rows, time.Since(start), err)
	s.opts.logger.LogLoad(ctx, src.Name(), rows, err)

	return frame, err
}

func (s *Segmenter) loadFrame(ctx context.Context, src source.Source) (*dataset.Frame, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, translateError(fmt.Errorf("open %s: %w", src.Name(), err))
	}
	defer rc.Close()

	frame, err := dataset.ReadCSV(rc)
	if err != nil {
		return nil, translateError(fmt.Errorf("decode %s: %w", src.Name(), err))
	}
	return frame, nil
}

// LoadCustomers fetches the mall-customers CSV from src and returns the
// typed records along with a frame carrying canonical column names.
func (s *Segmenter) LoadCustomers(ctx context.Context, src source.Source) ([]dataset.Customer, *dataset.Frame, error) {
	start := time.Now()

	customers, frame, err := dataset.LoadCustomers(ctx, src)
	err = translateError(err)

	s.opts.metricsCollector.RecordLoad(len(customers), time.Since(start), err)
	s.opts.logger.LogLoad(ctx, src.Name(), len(customers), err)

	return customers, frame, err
}

// Fit preprocesses the frame's feature columns and fits a k-means model
// with k clusters. The fitted pipeline statistics are reused by later
// Predict and Transform calls.
func (s *Segmenter) Fit(ctx context.Context, frame *dataset.Frame, k int) (*kmeans.Clustering, error) {
	start := time.Now()

	c, err := s.fit(ctx, frame, k)
	s.opts.metricsCollector.RecordFit(k, time.Since(start), err)
	if err != nil {
		s.opts.logger.LogFit(ctx, k, 0, 0, err)
		return nil, err
	}
	s.opts.logger.LogFit(ctx, k, c.Iterations, c.Inertia, nil)
	return c, nil
}

func (s *Segmenter) fit(ctx context.Context, frame *dataset.Frame, k int) (*kmeans.Clustering, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	X, err := s.pipeline.FitTransform(frame)
	if err != nil {
		return nil, translateError(err)
	}

	m := s.newModel(k)
	c, err := m.Fit(ctx, X)
	if err != nil {
		return nil, translateError(err)
	}

	s.model = m
	return c, nil
}

// Predict assigns each row of frame to its nearest fitted centroid. The
// frame goes through the already-fitted pipeline; its statistics are
// not refitted.
func (s *Segmenter) Predict(ctx context.Context, frame *dataset.Frame) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.model == nil {
		return nil, ErrNotFitted
	}

	X, err := s.pipeline.Transform(frame)
	if err != nil {
		return nil, translateError(err)
	}

	assignments, err := s.model.Predict(ctx, X)
	if err != nil {
		return nil, translateError(err)
	}
	return assignments, nil
}

// Transform preprocesses frame with the fitted pipeline and returns the
// numeric feature matrix. Useful for plotting fitted clusters.
func (s *Segmenter) Transform(frame *dataset.Frame) ([][]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	X, err := s.pipeline.Transform(frame)
	if err != nil {
		return nil, translateError(err)
	}
	return X, nil
}

// SweepK fits models across the configured K range and returns the SSE
// curve for elbow inspection. The pipeline is fitted on frame; the
// Segmenter's model is left untouched.
func (s *Segmenter) SweepK(ctx context.Context, frame *dataset.Frame) (*elbow.Result, error) {
	start := time.Now()

	res, err := s.sweepK(ctx, frame)

	if res != nil && res.KMaxClamped {
		s.opts.logger.WarnContext(ctx, "k range clamped to dataset size",
			"k_max", s.opts.kMax,
			"rows", frame.Len(),
		)
	}
	s.opts.metricsCollector.RecordSweep(s.opts.kMin, s.opts.kMax, time.Since(start), err)
	knee := 0
	if res != nil {
		knee = res.Knee()
	}
	s.opts.logger.LogSweep(ctx, s.opts.kMin, s.opts.kMax, knee, time.Since(start), err)

	return res, err
}

func (s *Segmenter) sweepK(ctx context.Context, frame *dataset.Frame) (*elbow.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	X, err := s.pipeline.FitTransform(frame)
	if err != nil {
		return nil, translateError(err)
	}

	res, err := elbow.Sweep(ctx, X, elbow.Options{
		KMin:          s.opts.kMin,
		KMax:          s.opts.kMax,
		Restarts:      s.opts.restarts,
		MaxIterations: s.opts.maxIterations,
		Tolerance:     s.opts.tolerance,
		Metric:        s.opts.metric,
		Seed:          s.opts.seed,
		Resources:     s.opts.resources,
	})
	if err != nil {
		return nil, translateError(err)
	}
	return res, nil
}

// Model returns the fitted model, or nil if Fit has not succeeded yet.
func (s *Segmenter) Model() *kmeans.Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// SaveModel writes the fitted model and pipeline to w using the
// configured codec and compression.
func (s *Segmenter) SaveModel(ctx context.Context, w io.Writer) error {
	start := time.Now()
	err := s.saveModel(w)
	s.opts.metricsCollector.RecordSnapshot(time.Since(start), err)
	s.opts.logger.LogSnapshot(ctx, "save", err)
	return err
}

func (s *Segmenter) saveModel(w io.Writer) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.model == nil {
		return ErrNotFitted
	}

	snap := persistence.FromModel(s.model, s.pipeline)
	err := persistence.Save(w, snap, func(o *persistence.Options) {
		o.Codec = s.opts.codec
		o.Compression = s.opts.compression
	})
	return translateError(err)
}

// LoadModel restores a fitted model and pipeline from r, replacing any
// current state.
func (s *Segmenter) LoadModel(ctx context.Context, r io.Reader) error {
	start := time.Now()
	err := s.loadModel(r)
	s.opts.metricsCollector.RecordSnapshot(time.Since(start), err)
	s.opts.logger.LogSnapshot(ctx, "load", err)
	return err
}

func (s *Segmenter) loadModel(r io.Reader) error {
	snap, err := persistence.Load(r)
	if err != nil {
		return translateError(err)
	}

	m, err := snap.ToModel()
	if err != nil {
		return translateError(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = m
	if snap.Pipeline != nil {
		s.pipeline = snap.Pipeline
	}
	return nil
}

func (s *Segmenter) newModel(k int) *kmeans.Model {
	m := kmeans.New(k)
	m.Metric = s.opts.metric
	m.Seed = s.opts.seed
	if s.opts.maxIterations > 0 {
		m.MaxIterations = s.opts.maxIterations
	}
	if s.opts.tolerance > 0 {
		m.Tolerance = s.opts.tolerance
	}
	if s.opts.resources != nil {
		m.Workers = int(s.opts.resources.MaxWorkers())
	}
	return m
}
