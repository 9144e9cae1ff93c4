package dataset

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFrame(t *testing.T) {
	f, err := New(
		NumericColumn("a", []float64{1, 2}),
		CategoricalColumn("b", []string{"x", "y"}),
	)
	require.NoError(t, err)
	assert.Equal(t, 2, f.Len())
	assert.Equal(t, []string{"a", "b"}, f.Names())
}

func TestNewFrameDuplicateColumn(t *testing.T) {
	_, err := New(
		NumericColumn("a", []float64{1}),
		NumericColumn("a", []float64{2}),
	)
	assert.Error(t, err)
}

func TestNewFrameRaggedColumns(t *testing.T) {
	_, err := New(
		NumericColumn("a", []float64{1, 2}),
		NumericColumn("b", []float64{1}),
	)
	assert.Error(t, err)
}

func TestFrameAccessors(t *testing.T) {
	f, err := New(
		NumericColumn("age", []float64{30, 40}),
		CategoricalColumn("gender", []string{"Male", "Female"}),
	)
	require.NoError(t, err)

	age, err := f.Numeric("age")
	require.NoError(t, err)
	assert.Equal(t, []float64{30, 40}, age)

	gender, err := f.Categorical("gender")
	require.NoError(t, err)
	assert.Equal(t, []string{"Male", "Female"}, gender)

	_, err = f.Numeric("gender")
	assert.ErrorIs(t, err, ErrColumnKind)

	_, err = f.Categorical("age")
	assert.ErrorIs(t, err, ErrColumnKind)

	_, err = f.Numeric("missing")
	assert.ErrorIs(t, err, ErrColumnNotFound)
}

func TestFrameSelect(t *testing.T) {
	f, err := New(
		NumericColumn("a", []float64{1}),
		NumericColumn("b", []float64{2}),
		NumericColumn("c", []float64{3}),
	)
	require.NoError(t, err)

	sub, err := f.Select("c", "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, sub.Names())

	_, err = f.Select("nope")
	assert.ErrorIs(t, err, ErrColumnNotFound)
}

func TestFrameMatrix(t *testing.T) {
	f, err := New(
		NumericColumn("x", []float64{1, 2}),
		CategoricalColumn("label", []string{"a", "b"}),
		NumericColumn("y", []float64{3, 4}),
	)
	require.NoError(t, err)

	X, err := f.Matrix()
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 3}, {2, 4}}, X)

	X, err = f.Matrix("y")
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{3}, {4}}, X)

	_, err = f.Matrix("label")
	assert.ErrorIs(t, err, ErrColumnKind)
}

const customersCSV = `CustomerID,Genre,Age,Annual Income (k$),Spending Score (1-100)
1,Male,19,15,39
2,Male,21,15,81
3,Female,20,16,6
4,Female,23,16,77
`

func TestReadCSV(t *testing.T) {
	f, err := ReadCSV(strings.NewReader(customersCSV))
	require.NoError(t, err)
	assert.Equal(t, 4, f.Len())

	age, err := f.Numeric("Age")
	require.NoError(t, err)
	assert.Equal(t, []float64{19, 21, 20, 23}, age)

	genre, err := f.Categorical("Genre")
	require.NoError(t, err)
	assert.Equal(t, []string{"Male", "Male", "Female", "Female"}, genre)
}

func TestReadCSVNoHeader(t *testing.T) {
	f, err := ReadCSV(strings.NewReader("1,x\n2,y\n"), func(o *ReadOptions) {
		o.NoHeader = true
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"col0", "col1"}, f.Names())
	assert.Equal(t, 2, f.Len())
}

func TestReadCSVEmptyCells(t *testing.T) {
	f, err := ReadCSV(strings.NewReader("a,b\n1,x\n,y\n"))
	require.NoError(t, err)

	a, err := f.Numeric("a")
	require.NoError(t, err)
	assert.Equal(t, 1.0, a[0])
	assert.True(t, math.IsNaN(a[1]))
}

func TestReadCSVMalformedRow(t *testing.T) {
	raw := "a,b\n1,2\n3\n4,5\n"

	_, err := ReadCSV(strings.NewReader(raw))
	assert.ErrorIs(t, err, ErrMalformedRow)

	f, err := ReadCSV(strings.NewReader(raw), func(o *ReadOptions) {
		o.SkipMalformed = true
	})
	require.NoError(t, err)
	assert.Equal(t, 2, f.Len())
}

func TestReadCSVEmptyInput(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyFrame)

	_, err = ReadCSV(strings.NewReader("a,b\n"))
	assert.ErrorIs(t, err, ErrEmptyFrame)
}

func TestReadCSVDuplicateHeader(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("a,a\n1,2\n"))
	assert.Error(t, err)
}

func TestReadCSVCustomComma(t *testing.T) {
	f, err := ReadCSV(strings.NewReader("a;b\n1;2\n"), func(o *ReadOptions) {
		o.Comma = ';'
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, f.Names())
}
