package preprocess

import "fmt"

// Encoding names a categorical encoding strategy. The value is stored
// in persisted pipelines, so the strings are stable.
type Encoding string

const (
	EncodeOneHot    Encoding = "one-hot"
	EncodeLabel     Encoding = "label"
	EncodeFrequency Encoding = "frequency"
)

// OneHotEncoder maps each category to an indicator column. Categories
// are ordered by first appearance during Fit; unseen categories
// transform to all-zero rows.
type OneHotEncoder struct {
	Categories []string `json:"categories"`
}

// Fit learns the category set.
func (e *OneHotEncoder) Fit(values []string) {
	seen := make(map[string]struct{}, len(e.Categories))
	e.Categories = e.Categories[:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		e.Categories = append(e.Categories, v)
	}
}

// Width returns the number of output columns.
func (e *OneHotEncoder) Width() int { return len(e.Categories) }

// Transform expands values into indicator rows.
func (e *OneHotEncoder) Transform(values []string) [][]float64 {
	index := make(map[string]int, len(e.Categories))
	for i, c := range e.Categories {
		index[c] = i
	}
	out := make([][]float64, len(values))
	for i, v := range values {
		row := make([]float64, len(e.Categories))
		if j, ok := index[v]; ok {
			row[j] = 1
		}
		out[i] = row
	}
	return out
}

// LabelEncoder maps each category to its first-appearance index.
// Unseen categories transform to -1.
type LabelEncoder struct {
	Categories []string `json:"categories"`
}

// Fit learns the category set.
func (e *LabelEncoder) Fit(values []string) {
	seen := make(map[string]struct{}, len(e.Categories))
	e.Categories = e.Categories[:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		e.Categories = append(e.Categories, v)
	}
}

// Width returns the number of output columns (always 1).
func (e *LabelEncoder) Width() int { return 1 }

// Transform maps values to their label indices.
func (e *LabelEncoder) Transform(values []string) [][]float64 {
	index := make(map[string]int, len(e.Categories))
	for i, c := range e.Categories {
		index[c] = i
	}
	out := make([][]float64, len(values))
	for i, v := range values {
		label := -1.0
		if j, ok := index[v]; ok {
			label = float64(j)
		}
		out[i] = []float64{label}
	}
	return out
}

// FrequencyEncoder maps each category to its relative frequency in the
// fitted data. Unseen categories transform to 0.
type FrequencyEncoder struct {
	Frequencies map[string]float64 `json:"frequencies"`
}

// Fit learns the category frequencies.
func (e *FrequencyEncoder) Fit(values []string) {
	e.Frequencies = make(map[string]float64, 8)
	for _, v := range values {
		e.Frequencies[v]++
	}
	n := float64(len(values))
	for v := range e.Frequencies {
		e.Frequencies[v] /= n
	}
}

// Width returns the number of output columns (always 1).
func (e *FrequencyEncoder) Width() int { return 1 }

// Transform maps values to their fitted frequencies.
func (e *FrequencyEncoder) Transform(values []string) [][]float64 {
	out := make([][]float64, len(values))
	for i, v := range values {
		out[i] = []float64{e.Frequencies[v]}
	}
	return out
}

func validEncoding(e Encoding) error {
	switch e {
	case EncodeOneHot, EncodeLabel, EncodeFrequency:
		return nil
	default:
		return fmt.Errorf("unsupported encoding: %q", e)
	}
}
