// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package sparse implements an immutable sparse matrix
// in compressed row format.
//
// A Matrix keeps its structural entries:
// an entry that is explicitly stored
// is part of the matrix structure
// even if its value is zero.
// The structure is used to map parameters
// to the entries of a correlation factor,
// so it should never be lost by an arithmetic operation.
//
// Matrix implements the gonum mat.Matrix interface.
package sparse

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// ErrShape is returned when the dimensions
// of a matrix are invalid for an operation.
var ErrShape = errors.New("sparse: invalid shape")

// A Triplet is a single structural entry
// of a matrix.
type Triplet struct {
	Row, Col int
	Value    float64
}

// Matrix is a sparse matrix in compressed row format.
type Matrix struct {
	r, c int

	// row pointers, len(ptr) == r+1
	ptr []int
	col []int
	val []float64
}

// New returns a new r×c matrix
// with the structural entries given as triplets.
// The order of the triplets is not relevant.
// It returns an error if an entry is out of range,
// has a NaN value,
// or if the same cell is defined twice.
func New(r, c int, ts []Triplet) (*Matrix, error) {
	if r < 0 || c < 0 {
		return nil, fmt.Errorf("%w: %d×%d", ErrShape, r, c)
	}
	ts = slices.Clone(ts)
	for _, t := range ts {
		if t.Row < 0 || t.Row >= r || t.Col < 0 || t.Col >= c {
			return nil, fmt.Errorf("%w: entry [%d, %d] outside %d×%d", ErrShape, t.Row, t.Col, r, c)
		}
		if math.IsNaN(t.Value) {
			return nil, fmt.Errorf("sparse: entry [%d, %d]: NaN value", t.Row, t.Col)
		}
	}
	slices.SortFunc(ts, func(a, b Triplet) int {
		if c := cmp.Compare(a.Row, b.Row); c != 0 {
			return c
		}
		return cmp.Compare(a.Col, b.Col)
	})

	m := &Matrix{
		r:   r,
		c:   c,
		ptr: make([]int, r+1),
		col: make([]int, len(ts)),
		val: make([]float64, len(ts)),
	}
	for i, t := range ts {
		if i > 0 && ts[i-1].Row == t.Row && ts[i-1].Col == t.Col {
			return nil, fmt.Errorf("sparse: entry [%d, %d] defined twice", t.Row, t.Col)
		}
		m.ptr[t.Row+1]++
		m.col[i] = t.Col
		m.val[i] = t.Value
	}
	for i := 0; i < r; i++ {
		m.ptr[i+1] += m.ptr[i]
	}
	return m, nil
}

// Identity returns an n×n identity matrix.
func Identity(n int) *Matrix {
	m := &Matrix{
		r:   n,
		c:   n,
		ptr: make([]int, n+1),
		col: make([]int, n),
		val: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		m.ptr[i+1] = i + 1
		m.col[i] = i
		m.val[i] = 1
	}
	return m
}

// Dims returns the dimensions of the matrix.
func (m *Matrix) Dims() (r, c int) {
	return m.r, m.c
}

// At returns the value of the element at row i and column j.
// It panics if the indices are out of range.
func (m *Matrix) At(i, j int) float64 {
	if i < 0 || i >= m.r {
		panic(mat.ErrRowAccess)
	}
	if j < 0 || j >= m.c {
		panic(mat.ErrColAccess)
	}
	cols := m.col[m.ptr[i]:m.ptr[i+1]]
	if k, ok := slices.BinarySearch(cols, j); ok {
		return m.val[m.ptr[i]+k]
	}
	return 0
}

// T returns the transpose of the matrix.
// It implements the mat.Matrix interface.
func (m *Matrix) T() mat.Matrix {
	return m.Transpose()
}

// Has returns true if the cell at row i and column j
// is a structural entry of the matrix.
func (m *Matrix) Has(i, j int) bool {
	if i < 0 || i >= m.r {
		return false
	}
	_, ok := slices.BinarySearch(m.col[m.ptr[i]:m.ptr[i+1]], j)
	return ok
}

// NNZ returns the number of structural entries.
func (m *Matrix) NNZ() int {
	return len(m.val)
}

// RowNNZ returns the number of structural entries
// of row i.
func (m *Matrix) RowNNZ(i int) int {
	return m.ptr[i+1] - m.ptr[i]
}

// DoRowNonZero calls fn for each structural entry
// of row i,
// in column order.
func (m *Matrix) DoRowNonZero(i int, fn func(j int, v float64)) {
	for k := m.ptr[i]; k < m.ptr[i+1]; k++ {
		fn(m.col[k], m.val[k])
	}
}

// DoNonZero calls fn for each structural entry
// of the matrix,
// in row major order.
func (m *Matrix) DoNonZero(fn func(i, j int, v float64)) {
	for i := 0; i < m.r; i++ {
		for k := m.ptr[i]; k < m.ptr[i+1]; k++ {
			fn(i, m.col[k], m.val[k])
		}
	}
}

// Triplets returns the structural entries
// in row major order.
func (m *Matrix) Triplets() []Triplet {
	ts := make([]Triplet, 0, len(m.val))
	m.DoNonZero(func(i, j int, v float64) {
		ts = append(ts, Triplet{Row: i, Col: j, Value: v})
	})
	return ts
}

// Values returns a copy of the values of the structural entries
// in row major order.
func (m *Matrix) Values() []float64 {
	return slices.Clone(m.val)
}

// SetValues returns a new matrix
// with the structure of m
// and the indicated values
// (in row major order).
func (m *Matrix) SetValues(v []float64) (*Matrix, error) {
	if len(v) != len(m.val) {
		return nil, fmt.Errorf("%w: got %d values, want %d", ErrShape, len(v), len(m.val))
	}
	return &Matrix{
		r:   m.r,
		c:   m.c,
		ptr: m.ptr,
		col: m.col,
		val: slices.Clone(v),
	}, nil
}

// Transpose returns the transpose of the matrix
// as a new compressed row matrix.
func (m *Matrix) Transpose() *Matrix {
	t := &Matrix{
		r:   m.c,
		c:   m.r,
		ptr: make([]int, m.c+1),
		col: make([]int, len(m.col)),
		val: make([]float64, len(m.val)),
	}
	for _, j := range m.col {
		t.ptr[j+1]++
	}
	for j := 0; j < m.c; j++ {
		t.ptr[j+1] += t.ptr[j]
	}

	next := slices.Clone(t.ptr[:m.c])
	m.DoNonZero(func(i, j int, v float64) {
		k := next[j]
		t.col[k] = i
		t.val[k] = v
		next[j]++
	})
	return t
}

// Block returns the sub-matrix
// defined by the rows [r0, r1)
// and the columns [c0, c1),
// keeping the structural entries.
func (m *Matrix) Block(r0, r1, c0, c1 int) (*Matrix, error) {
	if r0 < 0 || r1 < r0 || r1 > m.r || c0 < 0 || c1 < c0 || c1 > m.c {
		return nil, fmt.Errorf("%w: block [%d:%d, %d:%d] of %d×%d", ErrShape, r0, r1, c0, c1, m.r, m.c)
	}
	b := &Matrix{
		r:   r1 - r0,
		c:   c1 - c0,
		ptr: make([]int, r1-r0+1),
	}
	for i := r0; i < r1; i++ {
		m.DoRowNonZero(i, func(j int, v float64) {
			if j < c0 || j >= c1 {
				return
			}
			b.col = append(b.col, j-c0)
			b.val = append(b.val, v)
		})
		b.ptr[i-r0+1] = len(b.col)
	}
	return b, nil
}

// RBind returns the row concatenation
// of the indicated matrices.
// All matrices must have the same number of columns.
func RBind(ms ...*Matrix) (*Matrix, error) {
	if len(ms) == 0 {
		return nil, fmt.Errorf("%w: nothing to bind", ErrShape)
	}
	c := ms[0].c
	var r, nnz int
	for i, m := range ms {
		if m.c != c {
			return nil, fmt.Errorf("%w: matrix %d: got %d columns, want %d", ErrShape, i, m.c, c)
		}
		r += m.r
		nnz += len(m.val)
	}

	b := &Matrix{
		r:   r,
		c:   c,
		ptr: make([]int, 1, r+1),
		col: make([]int, 0, nnz),
		val: make([]float64, 0, nnz),
	}
	for _, m := range ms {
		off := len(b.col)
		for _, p := range m.ptr[1:] {
			b.ptr = append(b.ptr, p+off)
		}
		b.col = append(b.col, m.col...)
		b.val = append(b.val, m.val...)
	}
	return b, nil
}

// BlockDiag returns a block diagonal matrix
// with the indicated matrices as blocks.
func BlockDiag(ms ...*Matrix) *Matrix {
	var r, c, nnz int
	for _, m := range ms {
		r += m.r
		c += m.c
		nnz += len(m.val)
	}

	b := &Matrix{
		r:   r,
		c:   c,
		ptr: make([]int, 1, r+1),
		col: make([]int, 0, nnz),
		val: make([]float64, 0, nnz),
	}
	var cOff int
	for _, m := range ms {
		off := len(b.col)
		for _, p := range m.ptr[1:] {
			b.ptr = append(b.ptr, p+off)
		}
		for _, j := range m.col {
			b.col = append(b.col, j+cOff)
		}
		b.val = append(b.val, m.val...)
		cOff += m.c
	}
	return b
}

// IsLowerTriangular returns true
// if the matrix is square
// and no structural entry is above the diagonal.
func (m *Matrix) IsLowerTriangular() bool {
	if m.r != m.c {
		return false
	}
	for i := 0; i < m.r; i++ {
		if m.ptr[i+1] > m.ptr[i] && m.col[m.ptr[i+1]-1] > i {
			return false
		}
	}
	return true
}

// Equal returns true if both matrices have the same dimensions,
// the same structure,
// and the same values.
func Equal(a, b *Matrix) bool {
	if a.r != b.r || a.c != b.c {
		return false
	}
	return slices.Equal(a.ptr, b.ptr) && slices.Equal(a.col, b.col) && slices.Equal(a.val, b.val)
}
