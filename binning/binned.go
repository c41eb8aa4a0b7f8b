package binning

// BinnedMatrix holds one bin code per sample and feature. Codes are stored
// feature-major, so the codes of one feature are contiguous.
type BinnedMatrix struct {
	rows, cols int
	codes      []uint16
}

func newBinnedMatrix(rows, cols int) *BinnedMatrix {
	return &BinnedMatrix{rows: rows, cols: cols, codes: make([]uint16, rows*cols)}
}

// Rows returns the number of samples.
func (b *BinnedMatrix) Rows() int { return b.rows }

// Cols returns the number of features.
func (b *BinnedMatrix) Cols() int { return b.cols }

// At returns the code of feature f for sample row.
func (b *BinnedMatrix) At(row, f int) uint16 {
	return b.codes[f*b.rows+row]
}

// Column returns the codes of feature f. The slice aliases the matrix storage.
func (b *BinnedMatrix) Column(f int) []uint16 {
	return b.codes[f*b.rows : (f+1)*b.rows : (f+1)*b.rows]
}

// Codes returns the feature-major code buffer.
func (b *BinnedMatrix) Codes() []uint16 { return b.codes }

// RowMajor returns a copy of the codes laid out like the raw input matrix.
func (b *BinnedMatrix) RowMajor() []uint16 {
	out := make([]uint16, len(b.codes))
	for f := 0; f < b.cols; f++ {
		col := b.Column(f)
		for r, c := range col {
			out[r*b.cols+f] = c
		}
	}
	return out
}
