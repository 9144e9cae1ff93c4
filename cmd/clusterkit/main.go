// Command clusterkit runs the customer segmentation workflow from the
// command line: sweep a K range for the elbow, fit a model, or predict
// cluster assignments with a saved model.
//
// Datasets are addressed by URL-style flags: a plain path, http(s)://,
// s3://bucket/key, or minio://bucket/key. Object-store credentials come
// from the environment (the AWS credential chain for S3, MINIO_* for
// MinIO).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/caarlos0/env/v11"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/clusterkit/clusterkit"
	"github.com/clusterkit/clusterkit/dataset"
	"github.com/clusterkit/clusterkit/dataset/source"
	minisrc "github.com/clusterkit/clusterkit/dataset/source/minio"
	s3src "github.com/clusterkit/clusterkit/dataset/source/s3"
	"github.com/clusterkit/clusterkit/report"
	"github.com/clusterkit/clusterkit/resource"
)

type envConfig struct {
	LogLevel string `env:"CLUSTERKIT_LOG_LEVEL" envDefault:"info"`

	MinioEndpoint  string `env:"MINIO_ENDPOINT"`
	MinioAccessKey string `env:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `env:"MINIO_SECRET_KEY"`
	MinioUseSSL    bool   `env:"MINIO_USE_SSL" envDefault:"true"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "clusterkit:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var cfg envConfig
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}

	if len(os.Args) < 2 {
		usage()
		return errors.New("missing subcommand")
	}

	switch os.Args[1] {
	case "elbow":
		return runElbow(ctx, cfg, os.Args[2:])
	case "fit":
		return runFit(ctx, cfg, os.Args[2:])
	case "predict":
		return runPredict(ctx, cfg, os.Args[2:])
	default:
		usage()
		return fmt.Errorf("unknown subcommand %q", os.Args[1])
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: clusterkit <subcommand> [flags]

subcommands:
  elbow    sweep a K range and render the SSE curve
  fit      fit a model and save a snapshot
  predict  assign rows to clusters with a saved model`)
}

func runElbow(ctx context.Context, cfg envConfig, args []string) error {
	fs := flag.NewFlagSet("elbow", flag.ExitOnError)
	input := fs.String("input", "", "dataset location (path, http(s)://, s3://, minio://)")
	kMin := fs.Int("kmin", 1, "lowest K to sweep")
	kMax := fs.Int("kmax", 10, "highest K to sweep")
	restarts := fs.Int("restarts", 3, "seeded fits per K")
	seed := fs.Int64("seed", 1, "random seed")
	workers := fs.Int("workers", 0, "max concurrent fits (0 = unbounded)")
	out := fs.String("out", "elbow.png", "output chart path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opts := []clusterkit.Option{
		clusterkit.WithKRange(*kMin, *kMax),
		clusterkit.WithRestarts(*restarts),
		clusterkit.WithSeed(*seed),
	}
	if *workers > 0 {
		opts = append(opts, clusterkit.WithResources(resource.NewController(resource.Config{MaxWorkers: int64(*workers)})))
	}
	seg, err := newSegmenter(cfg, opts...)
	if err != nil {
		return err
	}

	frame, err := loadFrame(ctx, cfg, seg, *input)
	if err != nil {
		return err
	}

	res, err := seg.SweepK(ctx, frame)
	if err != nil {
		return err
	}

	for _, p := range res.Points {
		fmt.Printf("k=%d\tsse=%.4f\n", p.K, p.SSE)
	}
	fmt.Printf("knee=%d\n", res.Knee())

	if err := report.ElbowChart(res, *out); err != nil {
		return fmt.Errorf("render %s: %w", *out, err)
	}
	fmt.Fprintln(os.Stderr, "wrote", *out)
	return nil
}

func runFit(ctx context.Context, cfg envConfig, args []string) error {
	fs := flag.NewFlagSet("fit", flag.ExitOnError)
	input := fs.String("input", "", "dataset location (path, http(s)://, s3://, minio://)")
	k := fs.Int("k", 5, "number of clusters")
	seed := fs.Int64("seed", 1, "random seed")
	model := fs.String("model", "model.ckpt", "model snapshot output path")
	plot := fs.String("plot", "", "optional cluster scatter chart path (first two features)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	seg, err := newSegmenter(cfg, clusterkit.WithSeed(*seed))
	if err != nil {
		return err
	}

	frame, err := loadFrame(ctx, cfg, seg, *input)
	if err != nil {
		return err
	}

	c, err := seg.Fit(ctx, frame, *k)
	if err != nil {
		return err
	}
	fmt.Printf("k=%d\titerations=%d\tconverged=%v\tsse=%.4f\n", *k, c.Iterations, c.Converged, c.Inertia)
	for cluster, size := range c.Sizes() {
		fmt.Printf("cluster %d: %d rows\n", cluster, size)
	}

	f, err := os.Create(*model)
	if err != nil {
		return err
	}
	if err := seg.SaveModel(ctx, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "wrote", *model)

	if *plot != "" {
		X, err := seg.Transform(frame)
		if err != nil {
			return err
		}
		if err := report.ScatterChart(X, c.Assignments, c.Centroids, *plot); err != nil {
			return fmt.Errorf("render %s: %w", *plot, err)
		}
		fmt.Fprintln(os.Stderr, "wrote", *plot)
	}
	return nil
}

func runPredict(ctx context.Context, cfg envConfig, args []string) error {
	fs := flag.NewFlagSet("predict", flag.ExitOnError)
	input := fs.String("input", "", "dataset location (path, http(s)://, s3://, minio://)")
	model := fs.String("model", "model.ckpt", "model snapshot path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	seg, err := newSegmenter(cfg)
	if err != nil {
		return err
	}

	f, err := os.Open(*model)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := seg.LoadModel(ctx, f); err != nil {
		return err
	}

	frame, err := loadFrame(ctx, cfg, seg, *input)
	if err != nil {
		return err
	}

	assignments, err := seg.Predict(ctx, frame)
	if err != nil {
		return err
	}

	fmt.Println("row,cluster")
	for i, a := range assignments {
		fmt.Printf("%d,%d\n", i, a)
	}
	return nil
}

func newSegmenter(cfg envConfig, optFns ...clusterkit.Option) (*clusterkit.Segmenter, error) {
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	optFns = append(optFns, clusterkit.WithLogLevel(level))
	return clusterkit.New(dataset.SegmentationColumns, optFns...)
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

func loadFrame(ctx context.Context, cfg envConfig, seg *clusterkit.Segmenter, input string) (*dataset.Frame, error) {
	if input == "" {
		return nil, errors.New("-input is required")
	}
	src, err := resolveSource(ctx, cfg, input)
	if err != nil {
		return nil, err
	}
	_, frame, err := seg.LoadCustomers(ctx, src)
	return frame, err
}

func resolveSource(ctx context.Context, cfg envConfig, input string) (source.Source, error) {
	switch {
	case strings.HasPrefix(input, "http://"), strings.HasPrefix(input, "https://"):
		return source.NewHTTP(input), nil

	case strings.HasPrefix(input, "s3://"):
		bucket, key, err := splitObjectURL(input, "s3://")
		if err != nil {
			return nil, err
		}
		return s3src.NewFromDefaultConfig(ctx, bucket, key)

	case strings.HasPrefix(input, "minio://"):
		bucket, key, err := splitObjectURL(input, "minio://")
		if err != nil {
			return nil, err
		}
		if cfg.MinioEndpoint == "" {
			return nil, errors.New("MINIO_ENDPOINT is required for minio:// inputs")
		}
		client, err := miniogo.New(cfg.MinioEndpoint, &miniogo.Options{
			Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
			Secure: cfg.MinioUseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("minio client: %w", err)
		}
		return minisrc.New(client, bucket, key), nil

	default:
		return source.NewLocal(input), nil
	}
}

func splitObjectURL(input, scheme string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(input, scheme)
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("malformed object url %q, want %sbucket/key", input, scheme)
	}
	return bucket, key, nil
}
