package clusterkit

import (
	"log/slog"

	"github.com/clusterkit/clusterkit/codec"
	"github.com/clusterkit/clusterkit/distance"
	"github.com/clusterkit/clusterkit/preprocess"
	"github.com/clusterkit/clusterkit/resource"
)

type options struct {
	codec            codec.Codec
	compression      codec.Compression
	metricsCollector MetricsCollector
	logger           *Logger
	resources        *resource.Controller

	metric        distance.Metric
	maxIterations int
	tolerance     float64
	seed          int64
	restarts      int
	kMin          int
	kMax          int

	encoding preprocess.Encoding
	scaling  preprocess.Scaling
}

// Option configures Segmenter behavior.
type Option func(*options)

// WithCodec configures the codec used for model snapshots.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCompression configures snapshot payload compression.
func WithCompression(c codec.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithResources configures shared worker and IO limits for sweeps and
// remote dataset downloads.
func WithResources(ctrl *resource.Controller) Option {
	return func(o *options) {
		o.resources = ctrl
	}
}

// WithMetric configures the distance metric used for clustering.
func WithMetric(m distance.Metric) Option {
	return func(o *options) {
		o.metric = m
	}
}

// WithMaxIterations bounds the Lloyd loop per fit.
func WithMaxIterations(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxIterations = n
		}
	}
}

// WithTolerance sets the squared centroid shift below which a fit is
// considered converged.
func WithTolerance(tol float64) Option {
	return func(o *options) {
		if tol > 0 {
			o.tolerance = tol
		}
	}
}

// WithSeed makes fits deterministic for a given dataset.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithRestarts sets the number of independently seeded fits kept per K
// during a sweep.
func WithRestarts(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.restarts = n
		}
	}
}

// WithKRange bounds the inclusive sweep range for SweepK.
func WithKRange(kMin, kMax int) Option {
	return func(o *options) {
		o.kMin = kMin
		o.kMax = kMax
	}
}

// WithEncoding configures the categorical encoding strategy.
func WithEncoding(e preprocess.Encoding) Option {
	return func(o *options) {
		o.encoding = e
	}
}

// WithScaling configures the feature scaling strategy.
func WithScaling(s preprocess.Scaling) Option {
	return func(o *options) {
		o.scaling = s
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            codec.Default,
		compression:      codec.CompressionNone,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		metric:           distance.MetricSquaredEuclidean,
		seed:             1,
		kMin:             1,
		kMax:             10,
		encoding:         preprocess.EncodeOneHot,
		scaling:          preprocess.ScaleStandard,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
