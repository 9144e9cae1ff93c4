package preprocess

import (
	"fmt"
	"math"
	"sort"
)

// Scaling names a feature scaling strategy. The value is stored in
// persisted pipelines, so the strings are stable.
type Scaling string

const (
	ScaleNone     Scaling = "none"
	ScaleStandard Scaling = "standard"
	ScaleMinMax   Scaling = "min-max"
	ScaleRobust   Scaling = "robust"
)

// StandardScaler standardizes each column to zero mean and unit
// variance. Zero-variance columns transform to zeros.
type StandardScaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// Fit learns per-column mean and standard deviation.
func (s *StandardScaler) Fit(X [][]float64) {
	rows, cols := len(X), len(X[0])
	s.Mean = make([]float64, cols)
	s.Std = make([]float64, cols)

	for j := 0; j < cols; j++ {
		for i := 0; i < rows; i++ {
			s.Mean[j] += X[i][j]
		}
		s.Mean[j] /= float64(rows)

		var v float64
		for i := 0; i < rows; i++ {
			d := X[i][j] - s.Mean[j]
			v += d * d
		}
		s.Std[j] = math.Sqrt(v / float64(rows))
	}
}

// Transform standardizes X with the fitted statistics.
func (s *StandardScaler) Transform(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		o := make([]float64, len(row))
		for j, v := range row {
			if s.Std[j] != 0 {
				o[j] = (v - s.Mean[j]) / s.Std[j]
			}
		}
		out[i] = o
	}
	return out
}

// MinMaxScaler scales each column to [0, 1]. Constant columns
// transform to zeros.
type MinMaxScaler struct {
	Min []float64 `json:"min"`
	Max []float64 `json:"max"`
}

// Fit learns per-column minima and maxima.
func (s *MinMaxScaler) Fit(X [][]float64) {
	cols := len(X[0])
	s.Min = make([]float64, cols)
	s.Max = make([]float64, cols)
	for j := 0; j < cols; j++ {
		s.Min[j], s.Max[j] = X[0][j], X[0][j]
	}
	for _, row := range X {
		for j, v := range row {
			if v < s.Min[j] {
				s.Min[j] = v
			}
			if v > s.Max[j] {
				s.Max[j] = v
			}
		}
	}
}

// Transform rescales X with the fitted ranges.
func (s *MinMaxScaler) Transform(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		o := make([]float64, len(row))
		for j, v := range row {
			if span := s.Max[j] - s.Min[j]; span != 0 {
				o[j] = (v - s.Min[j]) / span
			}
		}
		out[i] = o
	}
	return out
}

// RobustScaler centers on the median and scales by the interquartile
// range, which tolerates outliers better than StandardScaler.
// Zero-IQR columns transform to zeros.
type RobustScaler struct {
	Median []float64 `json:"median"`
	IQR    []float64 `json:"iqr"`
}

// Fit learns per-column median and IQR.
func (s *RobustScaler) Fit(X [][]float64) {
	rows, cols := len(X), len(X[0])
	s.Median = make([]float64, cols)
	s.IQR = make([]float64, cols)

	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		for i := 0; i < rows; i++ {
			col[i] = X[i][j]
		}
		sort.Float64s(col)
		s.Median[j] = percentileSorted(col, 50)
		s.IQR[j] = percentileSorted(col, 75) - percentileSorted(col, 25)
	}
}

// Transform rescales X with the fitted statistics.
func (s *RobustScaler) Transform(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		o := make([]float64, len(row))
		for j, v := range row {
			if s.IQR[j] != 0 {
				o[j] = (v - s.Median[j]) / s.IQR[j]
			}
		}
		out[i] = o
	}
	return out
}

// percentileSorted returns the p-th percentile of sorted values using
// linear interpolation between ranks.
func percentileSorted(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func validScaling(s Scaling) error {
	switch s {
	case ScaleNone, ScaleStandard, ScaleMinMax, ScaleRobust:
		return nil
	default:
		return fmt.Errorf("unsupported scaling: %q", s)
	}
}
