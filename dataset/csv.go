package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ErrMalformedRow is returned for rows whose cell count does not match
// the header when malformed rows are not skipped.
var ErrMalformedRow = errors.New("malformed row")

// ReadOptions configures CSV decoding.
type ReadOptions struct {
	// Comma is the field delimiter. Defaults to ','.
	Comma rune

	// NoHeader treats the first row as data; columns are then named
	// col0, col1, ...
	NoHeader bool

	// SkipMalformed drops rows with a mismatched cell count instead of
	// failing the whole read.
	SkipMalformed bool
}

// ReadCSV decodes CSV into a frame, inferring column kinds: a column is
// numeric when every non-empty cell parses as a float, categorical
// otherwise. Empty cells become NaN in numeric columns and the empty
// string in categorical ones.
func ReadCSV(r io.Reader, optFns ...func(*ReadOptions)) (*Frame, error) {
	opts := ReadOptions{Comma: ','}
	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}

	cr := csv.NewReader(r)
	cr.Comma = opts.Comma
	cr.FieldsPerRecord = -1 // validated below so rows can be skipped

	var header []string
	var rows [][]string
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line++

		if header == nil {
			if opts.NoHeader {
				header = make([]string, len(rec))
				for i := range rec {
					header[i] = "col" + strconv.Itoa(i)
				}
			} else {
				header = make([]string, len(rec))
				for i, h := range rec {
					header[i] = strings.TrimSpace(h)
				}
				continue
			}
		}

		if len(rec) != len(header) {
			if opts.SkipMalformed {
				continue
			}
			return nil, fmt.Errorf("%w: line %d has %d cells, want %d", ErrMalformedRow, line, len(rec), len(header))
		}

		row := make([]string, len(rec))
		copy(row, rec)
		rows = append(rows, row)
	}

	if header == nil {
		return nil, ErrEmptyFrame
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFrame
	}

	cols := make([]Column, len(header))
	for j, name := range header {
		cells := make([]string, len(rows))
		for i, row := range rows {
			cells[i] = strings.TrimSpace(row[j])
		}
		cols[j] = inferColumn(name, cells)
	}

	return New(cols...)
}

// inferColumn types a column as numeric when every non-empty cell
// parses as a float.
func inferColumn(name string, cells []string) Column {
	numeric := true
	for _, cell := range cells {
		if cell == "" {
			continue
		}
		if _, err := strconv.ParseFloat(cell, 64); err != nil {
			numeric = false
			break
		}
	}

	if !numeric {
		return CategoricalColumn(name, cells)
	}

	nums := make([]float64, len(cells))
	for i, cell := range cells {
		if cell == "" {
			nums[i] = math.NaN()
			continue
		}
		nums[i], _ = strconv.ParseFloat(cell, 64)
	}
	return NumericColumn(name, nums)
}
