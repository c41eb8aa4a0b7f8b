// Package data holds the dense feature matrix consumed by the binner and the booster.
package data

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/tarstars/forust/pkg/errors"
)

// Matrix is a read-only, row-major view over a flat buffer of rows*cols values.
// The buffer is shared with the caller and never written.
type Matrix struct {
	data       []float64
	rows, cols int
	dense      *mat.Dense // nil when the matrix is empty
}

// NewMatrix wraps data as a rows x cols matrix without copying it.
func NewMatrix(data []float64, rows, cols int) (*Matrix, error) {
	if rows < 0 || cols < 0 {
		return nil, errors.InvalidInputf("negative matrix dimensions %dx%d", rows, cols)
	}
	if len(data) != rows*cols {
		return nil, errors.InvalidInputf("buffer holds %d values, a %dx%d matrix needs %d", len(data), rows, cols, rows*cols)
	}
	m := &Matrix{data: data, rows: rows, cols: cols}
	if rows > 0 && cols > 0 {
		m.dense = mat.NewDense(rows, cols, data)
	}
	return m, nil
}

// NewMatrixFromDense views a gonum matrix. A dense matrix with padded
// rows is compacted into a fresh buffer.
func NewMatrixFromDense(d *mat.Dense) *Matrix {
	raw := d.RawMatrix()
	if raw.Stride == raw.Cols {
		return &Matrix{data: raw.Data[:raw.Rows*raw.Cols], rows: raw.Rows, cols: raw.Cols, dense: d}
	}
	compact := mat.DenseCopyOf(d)
	return NewMatrixFromDense(compact)
}

// FromRows builds a matrix from a slice of equally long rows, copying the values.
func FromRows(rows [][]float64) (*Matrix, error) {
	if len(rows) == 0 {
		return NewMatrix(nil, 0, 0)
	}
	cols := len(rows[0])
	flat := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, errors.InvalidInputf("row %d has %d values, expected %d", i, len(row), cols)
		}
		flat = append(flat, row...)
	}
	return NewMatrix(flat, len(rows), cols)
}

// Rows returns the number of samples.
func (m *Matrix) Rows() int { return m.rows }

// Cols returns the number of features.
func (m *Matrix) Cols() int { return m.cols }

// Dims returns rows and columns, in the gonum convention.
func (m *Matrix) Dims() (int, int) { return m.rows, m.cols }

// At returns the value of feature j for sample i.
func (m *Matrix) At(i, j int) float64 {
	return m.data[i*m.cols+j]
}

// Row returns the values of sample i. The slice aliases the matrix buffer.
func (m *Matrix) Row(i int) []float64 {
	return m.data[i*m.cols : (i+1)*m.cols : (i+1)*m.cols]
}

// Col returns a strided view over feature j. A matrix without rows yields
// an empty vector.
func (m *Matrix) Col(j int) mat.Vector {
	if j < 0 || j >= m.cols {
		panic(mat.ErrColAccess)
	}
	if m.dense == nil {
		return &mat.VecDense{}
	}
	return m.dense.ColView(j)
}

// CopyCol copies feature j into dst, allocating when dst is too short.
func (m *Matrix) CopyCol(j int, dst []float64) []float64 {
	if cap(dst) < m.rows {
		dst = make([]float64, m.rows)
	}
	dst = dst[:m.rows]
	for i := 0; i < m.rows; i++ {
		dst[i] = m.data[i*m.cols+j]
	}
	return dst
}

// Data returns the underlying row-major buffer.
func (m *Matrix) Data() []float64 { return m.data }

// Dense returns the gonum view of the matrix, nil when it is empty.
func (m *Matrix) Dense() *mat.Dense { return m.dense }

// CheckFinite returns a NonFiniteError of the given kind for the first NaN or Inf value.
func (m *Matrix) CheckFinite(kind error, op string) error {
	for i, v := range m.data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.NewNonFiniteError(kind, op, i, v)
		}
	}
	return nil
}

// String renders the matrix one row per line.
func (m *Matrix) String() string {
	if m.dense == nil {
		return fmt.Sprintf("Matrix(%dx%d)[]", m.rows, m.cols)
	}
	return fmt.Sprintf("Matrix(%dx%d)\n%v", m.rows, m.cols, mat.Formatted(m.dense, mat.Squeeze()))
}
