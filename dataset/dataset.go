// Package dataset provides column-oriented tabular frames for
// clustering workflows: CSV decoding with column kind inference and
// the customer schema used throughout the examples.
package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyFrame is returned when a frame has no rows.
	ErrEmptyFrame = errors.New("frame has no rows")

	// ErrColumnNotFound is returned when a named column does not exist.
	ErrColumnNotFound = errors.New("column not found")

	// ErrColumnKind is returned when a column is accessed with the
	// wrong kind.
	ErrColumnKind = errors.New("column kind mismatch")
)

// Kind classifies a column.
type Kind int

const (
	KindNumeric Kind = iota
	KindCategorical
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "Numeric"
	case KindCategorical:
		return "Categorical"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// Column is a single named column of a frame.
type Column struct {
	Name string
	Kind Kind

	nums []float64
	cats []string
}

// NumericColumn creates a numeric column.
func NumericColumn(name string, values []float64) Column {
	return Column{Name: name, Kind: KindNumeric, nums: values}
}

// CategoricalColumn creates a categorical column.
func CategoricalColumn(name string, values []string) Column {
	return Column{Name: name, Kind: KindCategorical, cats: values}
}

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	if c.Kind == KindNumeric {
		return len(c.nums)
	}
	return len(c.cats)
}

// Frame is column-ordered tabular data.
type Frame struct {
	cols   []Column
	byName map[string]int
}

// New creates a frame from columns. All columns must share the same
// length and have distinct names.
func New(cols ...Column) (*Frame, error) {
	f := &Frame{byName: make(map[string]int, len(cols))}
	for _, col := range cols {
		if _, ok := f.byName[col.Name]; ok {
			return nil, fmt.Errorf("duplicate column %q", col.Name)
		}
		if len(f.cols) > 0 && col.Len() != f.cols[0].Len() {
			return nil, fmt.Errorf("column %q has %d rows, want %d", col.Name, col.Len(), f.cols[0].Len())
		}
		f.byName[col.Name] = len(f.cols)
		f.cols = append(f.cols, col)
	}
	return f, nil
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	if len(f.cols) == 0 {
		return 0
	}
	return f.cols[0].Len()
}

// Names returns the column names in order.
func (f *Frame) Names() []string {
	names := make([]string, len(f.cols))
	for i, c := range f.cols {
		names[i] = c.Name
	}
	return names
}

// Column returns the named column.
func (f *Frame) Column(name string) (*Column, error) {
	i, ok := f.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	return &f.cols[i], nil
}

// Numeric returns the values of a numeric column.
func (f *Frame) Numeric(name string) ([]float64, error) {
	c, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	if c.Kind != KindNumeric {
		return nil, fmt.Errorf("%w: %q is %v", ErrColumnKind, name, c.Kind)
	}
	return c.nums, nil
}

// Categorical returns the values of a categorical column.
func (f *Frame) Categorical(name string) ([]string, error) {
	c, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	if c.Kind != KindCategorical {
		return nil, fmt.Errorf("%w: %q is %v", ErrColumnKind, name, c.Kind)
	}
	return c.cats, nil
}

// Select returns a frame restricted to the named columns, in order.
func (f *Frame) Select(names ...string) (*Frame, error) {
	cols := make([]Column, 0, len(names))
	for _, name := range names {
		c, err := f.Column(name)
		if err != nil {
			return nil, err
		}
		cols = append(cols, *c)
	}
	return New(cols...)
}

// Matrix returns the named numeric columns as row-major data, one row
// per frame row. With no names it takes every numeric column in order.
func (f *Frame) Matrix(names ...string) ([][]float64, error) {
	if len(names) == 0 {
		for _, c := range f.cols {
			if c.Kind == KindNumeric {
				names = append(names, c.Name)
			}
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no numeric columns", ErrColumnNotFound)
	}

	cols := make([][]float64, len(names))
	for j, name := range names {
		vals, err := f.Numeric(name)
		if err != nil {
			return nil, err
		}
		cols[j] = vals
	}

	n := f.Len()
	X := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, len(cols))
		for j := range cols {
			row[j] = cols[j][i]
		}
		X[i] = row
	}
	return X, nil
}
