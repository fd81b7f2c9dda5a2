// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package sparse_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/js-arias/phyglmm/sparse"
	"gonum.org/v1/gonum/mat"
)

func newMatrix(t testing.TB) *sparse.Matrix {
	t.Helper()

	m, err := sparse.New(3, 4, []sparse.Triplet{
		{Row: 2, Col: 3, Value: 6},
		{Row: 0, Col: 0, Value: 1},
		{Row: 1, Col: 2, Value: 0},
		{Row: 0, Col: 1, Value: 2},
		{Row: 2, Col: 0, Value: 5},
	})
	if err != nil {
		t.Fatalf("unable to build matrix: %v", err)
	}
	return m
}

func TestNew(t *testing.T) {
	m := newMatrix(t)

	want := mat.NewDense(3, 4, []float64{
		1, 2, 0, 0,
		0, 0, 0, 0,
		5, 0, 0, 6,
	})
	if !mat.Equal(m, want) {
		t.Errorf("matrix: got %v, want %v", mat.Formatted(m), mat.Formatted(want))
	}

	if nnz := m.NNZ(); nnz != 5 {
		t.Errorf("nnz: got %d, want %d", nnz, 5)
	}
	if !m.Has(1, 2) {
		t.Errorf("has [1, 2]: structural zero not kept")
	}
	if m.Has(1, 1) {
		t.Errorf("has [1, 1]: got true, want false")
	}

	want3 := []int{0, 3}
	var got []int
	m.DoRowNonZero(2, func(j int, v float64) {
		got = append(got, j)
	})
	if !reflect.DeepEqual(got, want3) {
		t.Errorf("row 2: got %v, want %v", got, want3)
	}
}

func TestNewErrors(t *testing.T) {
	tests := map[string][]sparse.Triplet{
		"out of range": {{Row: 3, Col: 0, Value: 1}},
		"negative":     {{Row: 0, Col: -1, Value: 1}},
		"duplicated":   {{Row: 1, Col: 1, Value: 1}, {Row: 1, Col: 1, Value: 2}},
	}
	for name, ts := range tests {
		if _, err := sparse.New(3, 3, ts); err == nil {
			t.Errorf("%s: expecting error", name)
		}
	}

	_, err := sparse.New(3, 3, []sparse.Triplet{{Row: 5, Col: 5, Value: 1}})
	if !errors.Is(err, sparse.ErrShape) {
		t.Errorf("out of range: got error %v, want %v", err, sparse.ErrShape)
	}
}

func TestTranspose(t *testing.T) {
	m := newMatrix(t)
	tr := m.Transpose()

	if r, c := tr.Dims(); r != 4 || c != 3 {
		t.Fatalf("dims: got %d×%d, want 4×3", r, c)
	}
	if !mat.Equal(tr, mat.DenseCopyOf(m).T()) {
		t.Errorf("transpose: got %v, want %v", mat.Formatted(tr), mat.Formatted(m.T()))
	}
	if !sparse.Equal(tr.Transpose(), m) {
		t.Errorf("double transpose: structure changed")
	}
}

func TestRBind(t *testing.T) {
	m := newMatrix(t)
	id := sparse.Identity(4)

	b, err := sparse.RBind(m, id)
	if err != nil {
		t.Fatalf("rbind: %v", err)
	}
	want := mat.NewDense(7, 4, []float64{
		1, 2, 0, 0,
		0, 0, 0, 0,
		5, 0, 0, 6,
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})
	if !mat.Equal(b, want) {
		t.Errorf("rbind: got %v, want %v", mat.Formatted(b), mat.Formatted(want))
	}
	if b.NNZ() != m.NNZ()+id.NNZ() {
		t.Errorf("rbind nnz: got %d, want %d", b.NNZ(), m.NNZ()+id.NNZ())
	}

	if _, err := sparse.RBind(m, sparse.Identity(3)); !errors.Is(err, sparse.ErrShape) {
		t.Errorf("rbind: got error %v, want %v", err, sparse.ErrShape)
	}
}

func TestBlockDiag(t *testing.T) {
	low, err := sparse.New(2, 2, []sparse.Triplet{
		{Row: 0, Col: 0, Value: 1},
		{Row: 1, Col: 0, Value: 0},
		{Row: 1, Col: 1, Value: 1},
	})
	if err != nil {
		t.Fatalf("unable to build matrix: %v", err)
	}
	b := sparse.BlockDiag(sparse.Identity(1), low, sparse.Identity(2))

	want := mat.NewDense(5, 5, []float64{
		1, 0, 0, 0, 0,
		0, 1, 0, 0, 0,
		0, 0, 1, 0, 0,
		0, 0, 0, 1, 0,
		0, 0, 0, 0, 1,
	})
	if !mat.Equal(b, want) {
		t.Errorf("block diagonal: got %v, want %v", mat.Formatted(b), mat.Formatted(want))
	}
	if b.NNZ() != 6 {
		t.Errorf("block diagonal nnz: got %d, want %d", b.NNZ(), 6)
	}
	if !b.IsLowerTriangular() {
		t.Errorf("block diagonal: expecting lower triangular")
	}

	blk, err := b.Block(1, 3, 1, 3)
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	if !sparse.Equal(blk, low) {
		t.Errorf("block: got %v, want %v", mat.Formatted(blk), mat.Formatted(low))
	}
}

func TestSetValues(t *testing.T) {
	m := newMatrix(t)
	v := []float64{10, 20, 30, 40, 50}

	n, err := m.SetValues(v)
	if err != nil {
		t.Fatalf("set values: %v", err)
	}
	if got := n.Values(); !reflect.DeepEqual(got, v) {
		t.Errorf("values: got %v, want %v", got, v)
	}
	if n.At(1, 2) != 30 {
		t.Errorf("value at [1, 2]: got %.6f, want %.6f", n.At(1, 2), 30.0)
	}

	// original is unchanged
	if got := m.Values(); !reflect.DeepEqual(got, []float64{1, 2, 0, 5, 6}) {
		t.Errorf("original values: got %v", got)
	}

	if _, err := m.SetValues(v[:2]); err == nil {
		t.Errorf("set values: expecting error")
	}
}
