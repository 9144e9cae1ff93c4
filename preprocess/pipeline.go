// Package preprocess turns tabular frames into the numeric matrices
// clustering operates on: categorical encoding followed by feature
// scaling, with fitted statistics that are reused (never refitted) on
// later transforms and that serialize alongside a saved model.
package preprocess

import (
	"errors"
	"fmt"

	"github.com/clusterkit/clusterkit/dataset"
)

// ErrNotFitted is returned when Transform is called before Fit.
var ErrNotFitted = errors.New("pipeline has not been fitted")

// Pipeline converts selected frame columns into a numeric matrix.
// Categorical columns go through the configured encoding; the
// assembled matrix goes through the configured scaling. All fitted
// state is exported so a pipeline round-trips through JSON.
type Pipeline struct {
	Columns  []string `json:"columns"`
	Encoding Encoding `json:"encoding"`
	Scaling  Scaling  `json:"scaling"`

	// Fitted encoders, keyed by column name. Only the map matching
	// Encoding is populated.
	OneHot    map[string]*OneHotEncoder    `json:"one_hot,omitempty"`
	Labels    map[string]*LabelEncoder     `json:"labels,omitempty"`
	Frequency map[string]*FrequencyEncoder `json:"frequency,omitempty"`

	// Fitted scaler. Only the field matching Scaling is populated.
	Standard *StandardScaler `json:"standard,omitempty"`
	MinMax   *MinMaxScaler   `json:"min_max,omitempty"`
	Robust   *RobustScaler   `json:"robust,omitempty"`

	Fitted bool `json:"fitted"`
}

// NewPipeline creates a pipeline over the given feature columns.
func NewPipeline(columns []string, encoding Encoding, scaling Scaling) (*Pipeline, error) {
	if len(columns) == 0 {
		return nil, errors.New("pipeline needs at least one column")
	}
	if err := validEncoding(encoding); err != nil {
		return nil, err
	}
	if err := validScaling(scaling); err != nil {
		return nil, err
	}
	return &Pipeline{Columns: columns, Encoding: encoding, Scaling: scaling}, nil
}

// Fit learns encoder categories and scaler statistics from f.
func (p *Pipeline) Fit(f *dataset.Frame) error {
	if f.Len() == 0 {
		return dataset.ErrEmptyFrame
	}

	p.OneHot = nil
	p.Labels = nil
	p.Frequency = nil

	for _, name := range p.Columns {
		col, err := f.Column(name)
		if err != nil {
			return err
		}
		if col.Kind != dataset.KindCategorical {
			continue
		}
		values, err := f.Categorical(name)
		if err != nil {
			return err
		}
		switch p.Encoding {
		case EncodeOneHot:
			if p.OneHot == nil {
				p.OneHot = make(map[string]*OneHotEncoder)
			}
			e := &OneHotEncoder{}
			e.Fit(values)
			p.OneHot[name] = e
		case EncodeLabel:
			if p.Labels == nil {
				p.Labels = make(map[string]*LabelEncoder)
			}
			e := &LabelEncoder{}
			e.Fit(values)
			p.Labels[name] = e
		case EncodeFrequency:
			if p.Frequency == nil {
				p.Frequency = make(map[string]*FrequencyEncoder)
			}
			e := &FrequencyEncoder{}
			e.Fit(values)
			p.Frequency[name] = e
		}
	}

	p.Fitted = true

	X, err := p.assemble(f)
	if err != nil {
		p.Fitted = false
		return err
	}

	p.Standard = nil
	p.MinMax = nil
	p.Robust = nil
	switch p.Scaling {
	case ScaleStandard:
		p.Standard = &StandardScaler{}
		p.Standard.Fit(X)
	case ScaleMinMax:
		p.MinMax = &MinMaxScaler{}
		p.MinMax.Fit(X)
	case ScaleRobust:
		p.Robust = &RobustScaler{}
		p.Robust.Fit(X)
	}

	return nil
}

// Transform applies the fitted encoders and scaler to f.
func (p *Pipeline) Transform(f *dataset.Frame) ([][]float64, error) {
	if !p.Fitted {
		return nil, ErrNotFitted
	}
	if f.Len() == 0 {
		return nil, dataset.ErrEmptyFrame
	}

	X, err := p.assemble(f)
	if err != nil {
		return nil, err
	}

	switch p.Scaling {
	case ScaleStandard:
		return p.Standard.Transform(X), nil
	case ScaleMinMax:
		return p.MinMax.Transform(X), nil
	case ScaleRobust:
		return p.Robust.Transform(X), nil
	default:
		return X, nil
	}
}

// FitTransform fits the pipeline and transforms f in one step.
func (p *Pipeline) FitTransform(f *dataset.Frame) ([][]float64, error) {
	if err := p.Fit(f); err != nil {
		return nil, err
	}
	return p.Transform(f)
}

// assemble expands the configured columns into an unscaled matrix.
func (p *Pipeline) assemble(f *dataset.Frame) ([][]float64, error) {
	n := f.Len()
	X := make([][]float64, n)
	for i := range X {
		X[i] = []float64{}
	}

	for _, name := range p.Columns {
		col, err := f.Column(name)
		if err != nil {
			return nil, err
		}

		if col.Kind == dataset.KindNumeric {
			values, err := f.Numeric(name)
			if err != nil {
				return nil, err
			}
			for i := range X {
				X[i] = append(X[i], values[i])
			}
			continue
		}

		values, err := f.Categorical(name)
		if err != nil {
			return nil, err
		}
		expanded, err := p.encode(name, values)
		if err != nil {
			return nil, err
		}
		for i := range X {
			X[i] = append(X[i], expanded[i]...)
		}
	}

	return X, nil
}

func (p *Pipeline) encode(name string, values []string) ([][]float64, error) {
	switch p.Encoding {
	case EncodeOneHot:
		if e, ok := p.OneHot[name]; ok {
			return e.Transform(values), nil
		}
	case EncodeLabel:
		if e, ok := p.Labels[name]; ok {
			return e.Transform(values), nil
		}
	case EncodeFrequency:
		if e, ok := p.Frequency[name]; ok {
			return e.Transform(values), nil
		}
	}
	return nil, fmt.Errorf("no fitted encoder for column %q", name)
}
