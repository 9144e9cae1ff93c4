package clusterkit

import (
	"errors"
	"fmt"

	"github.com/clusterkit/clusterkit/dataset"
	"github.com/clusterkit/clusterkit/dataset/source"
	"github.com/clusterkit/clusterkit/kmeans"
)

var (
	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrEmptyDataset is returned when a frame or matrix has no rows.
	ErrEmptyDataset = errors.New("dataset is empty")

	// ErrNotFitted is returned when an operation needs a fitted model.
	ErrNotFitted = errors.New("model has not been fitted")

	// ErrNotFound is returned when a dataset does not exist at its source.
	ErrNotFound = errors.New("not found")

	// ErrNonFinite is returned when feature values are NaN or infinite,
	// typically from empty numeric cells in the source CSV.
	ErrNonFinite = errors.New("non-finite feature values")
)

// ErrDimensionMismatch indicates a feature-count mismatch between the
// input data and the fitted model.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// ErrTooFewPoints indicates fewer data points than requested clusters.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrTooFewPoints struct {
	Points int
	K      int
	cause  error
}

func (e *ErrTooFewPoints) Error() string {
	return fmt.Sprintf("too few points: %d points for k=%d", e.Points, e.K)
}

func (e *ErrTooFewPoints) Unwrap() error { return e.cause }

// translateError unifies errors from the underlying packages onto the
// package-level sentinels and types.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, source.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if errors.Is(err, kmeans.ErrInvalidK) {
		return fmt.Errorf("%w: %w", ErrInvalidK, err)
	}
	if errors.Is(err, kmeans.ErrEmptyInput) || errors.Is(err, dataset.ErrEmptyFrame) {
		return fmt.Errorf("%w: %w", ErrEmptyDataset, err)
	}
	if errors.Is(err, kmeans.ErrNotFitted) {
		return fmt.Errorf("%w: %w", ErrNotFitted, err)
	}
	if errors.Is(err, kmeans.ErrNonFinite) {
		return fmt.Errorf("%w: %w", ErrNonFinite, err)
	}

	var dm *kmeans.ErrDimensionMismatch
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}
	var tf *kmeans.ErrTooFewPoints
	if errors.As(err, &tf) {
		return &ErrTooFewPoints{Points: tf.Points, K: tf.K, cause: err}
	}

	return err
}
