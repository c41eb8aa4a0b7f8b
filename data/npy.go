package data

import (
	"io"
	"os"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"

	"github.com/tarstars/forust/pkg/errors"
)

// ReadNpy reads a one or two dimensional float64 npy array. One dimensional
// arrays become a single column.
func ReadNpy(r io.Reader) (*Matrix, error) {
	npy, err := npyio.NewReader(r)
	if err != nil {
		return nil, errors.Wrapf(err, "read npy header")
	}

	shape := npy.Header.Descr.Shape
	switch len(shape) {
	case 1:
		var values []float64
		if err := npy.Read(&values); err != nil {
			return nil, errors.Wrapf(err, "read npy vector")
		}
		return NewMatrix(values, len(values), 1)
	case 2:
		if shape[0] == 0 || shape[1] == 0 {
			return NewMatrix(nil, shape[0], shape[1])
		}
		denseMat := &mat.Dense{}
		if err := npy.Read(denseMat); err != nil {
			return nil, errors.Wrapf(err, "read npy matrix")
		}
		return NewMatrixFromDense(denseMat), nil
	default:
		return nil, errors.InvalidInputf("npy array has %d dimensions, expected 1 or 2", len(shape))
	}
}

// ReadNpyFile opens fileName and reads it with ReadNpy.
func ReadNpyFile(fileName string) (m *Matrix, err error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", fileName)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return ReadNpy(f)
}

// ReadNpyVector reads a target or weight array. Two dimensional arrays are
// accepted when one of the axes has length one.
func ReadNpyVector(r io.Reader) ([]float64, error) {
	m, err := ReadNpy(r)
	if err != nil {
		return nil, err
	}
	if m.Cols() != 1 && m.Rows() != 1 {
		return nil, errors.InvalidInputf("npy array of shape %dx%d is not a vector", m.Rows(), m.Cols())
	}
	return m.Data(), nil
}

// WriteNpy writes m as a two dimensional float64 npy array.
func WriteNpy(w io.Writer, m *Matrix) error {
	if m.Dense() == nil {
		return errors.InvalidInputf("cannot write an empty %dx%d matrix", m.Rows(), m.Cols())
	}
	return npyio.Write(w, m.Dense())
}

// WriteNpyVector writes values, e.g. predictions, as a one dimensional npy array.
func WriteNpyVector(w io.Writer, values []float64) error {
	return npyio.Write(w, values)
}
