// Package matrix provides square-matrix helpers on top of gonum's mat package.
package matrix

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrEmpty is returned when importing a matrix with no rows.
	ErrEmpty = errors.New("matrix: empty")

	// ErrRagged is returned when importing rows of unequal length.
	ErrRagged = errors.New("matrix: ragged rows")
)

// NewSquare allocates a zero-filled size x size matrix.
func NewSquare(size int) *mat.Dense {
	return mat.NewDense(size, size, nil)
}

// IsSquare reports whether m has as many rows as columns.
func IsSquare(m mat.Matrix) bool {
	r, c := m.Dims()
	return r == c
}

// Size returns the side length of m and whether m is square.
func Size(m mat.Matrix) (int, bool) {
	r, c := m.Dims()
	return r, r == c
}

// FromRows builds a dense matrix from row slices.
// Rows must all have the same length as the first row.
func FromRows(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmpty
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrRagged, i, len(row), cols)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), cols, data), nil
}

// ToRows copies m into freshly allocated row slices.
func ToRows(m mat.Matrix) [][]float64 {
	r, c := m.Dims()
	rows := make([][]float64, r)
	for i := range rows {
		rows[i] = make([]float64, c)
		for j := range rows[i] {
			rows[i][j] = m.At(i, j)
		}
	}
	return rows
}

// Center returns a writable view of the size x size block of m that starts
// at (offset, offset). Writes through the view land in m.
func Center(m *mat.Dense, offset, size int) *mat.Dense {
	return m.Slice(offset, offset+size, offset, offset+size).(*mat.Dense)
}

// Data returns the backing slice of a dense matrix allocated by NewSquare
// or mat.NewDense. It panics for views whose stride differs from their width.
func Data(m *mat.Dense) []float64 {
	raw := m.RawMatrix()
	if raw.Stride != raw.Cols {
		panic("matrix: non-contiguous view")
	}
	return raw.Data[:raw.Rows*raw.Cols]
}
