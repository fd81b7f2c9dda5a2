// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package zmat implements the phylogenetic design matrix (Z)
// of a phylogenetic mixed model.
//
// In a Z matrix each row is a terminal of the tree
// (or an observation of a terminal),
// and each column is an edge of the tree.
// An entry is defined
// if the edge is in the path from the terminal to the root,
// and its value is the weighted length of the edge.
// If the edges are independent random effects
// with a single variance
// and the weights are the square root of the edge lengths,
// the product Z Zᵀ is the covariance
// expected under a Brownian motion model.
package zmat

import (
	"fmt"
	"math"
	"slices"

	"github.com/js-arias/phyglmm/phylo"
	"github.com/js-arias/phyglmm/sparse"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// A Weight is a function that transforms
// an edge length
// into the value of the Z matrix.
//
// It is the only model parameter of the builder.
// A model with a decay parameter
// (e.g., Ornstein-Uhlenbeck)
// would require a different builder.
type Weight func(length float64) float64

// Length uses the edge length as weight.
func Length(length float64) float64 {
	return length
}

// Sqrt uses the square root of the edge length as weight,
// so Z Zᵀ is the shared path length
// between the terminals.
func Sqrt(length float64) float64 {
	return math.Sqrt(length)
}

// Matrix is a phylogenetic design matrix.
type Matrix struct {
	name   string
	tips   int
	labels []string
	m      *sparse.Matrix

	// labeled is true if the row labels
	// are the tip labels of the tree.
	labeled bool
}

// Build returns the Z matrix of a tree,
// with a row for each tip
// (in tip order)
// and a column for each edge
// (in edge order).
// If w is nil,
// the edge length will be used.
func Build(t *phylo.Tree, w Weight) *Matrix {
	if w == nil {
		w = Length
	}

	var ts []sparse.Triplet
	for tip := 1; tip <= t.Tips(); tip++ {
		ts = rootPath(ts, t, w, tip)
	}
	return newMatrix(t, ts)
}

// RootPath appends the entries of the row of a tip
// by walking from the tip to the root.
func rootPath(ts []sparse.Triplet, t *phylo.Tree, w Weight, tip int) []sparse.Triplet {
	for n := tip; n != t.Root(); {
		e := t.ParentEdge(n)
		ts = append(ts, sparse.Triplet{
			Row:   tip - 1,
			Col:   e,
			Value: w(t.Length(e)),
		})
		n = t.Edge(e).Parent
	}
	return ts
}

func newMatrix(t *phylo.Tree, ts []sparse.Triplet) *Matrix {
	m, err := sparse.New(t.Tips(), t.Edges(), ts)
	if err != nil {
		// a valid tree has a single path
		// from each tip to the root.
		panic(fmt.Sprintf("zmat: tree %q: %v", t.Name(), err))
	}
	labeled := true
	for tip := 1; tip <= t.Tips(); tip++ {
		if t.Label(tip) == "" {
			labeled = false
			break
		}
	}
	return &Matrix{
		name:    t.Name(),
		tips:    t.Tips(),
		labels:  t.TipLabels(),
		m:       m,
		labeled: labeled,
	}
}

// Dims returns the dimensions of the matrix.
func (z *Matrix) Dims() (r, c int) {
	return z.m.Dims()
}

// At returns the value at row i and column j.
func (z *Matrix) At(i, j int) float64 {
	return z.m.At(i, j)
}

// T returns the transpose of the matrix.
func (z *Matrix) T() mat.Matrix {
	return z.m.Transpose()
}

// Edges returns the number of edges
// (columns)
// of the matrix.
func (z *Matrix) Edges() int {
	_, c := z.m.Dims()
	return c
}

// Label returns the label of a row.
func (z *Matrix) Label(row int) string {
	return z.labels[row]
}

// Labeled returns true if the rows
// are labeled with the names of the tips.
// If false,
// the labels are the tip IDs
// and rows should be matched by position.
func (z *Matrix) Labeled() bool {
	return z.labeled
}

// Labels returns the labels of the rows.
func (z *Matrix) Labels() []string {
	return slices.Clone(z.labels)
}

// Name returns the name of the tree
// used to build the matrix.
func (z *Matrix) Name() string {
	return z.name
}

// PathLengths returns the sum of the values of each row.
// If the matrix was build using edge lengths as weights,
// it is the length of the path from the tip to the root.
func (z *Matrix) PathLengths() []float64 {
	r, _ := z.m.Dims()
	pl := make([]float64, r)
	row := make([]float64, 0, 16)
	for i := range pl {
		row = row[:0]
		z.m.DoRowNonZero(i, func(_ int, v float64) {
			row = append(row, v)
		})
		pl[i] = floats.Sum(row)
	}
	return pl
}

// Rows returns the number of rows of the matrix.
func (z *Matrix) Rows() int {
	r, _ := z.m.Dims()
	return r
}

// Sparse returns the underlying sparse matrix.
func (z *Matrix) Sparse() *sparse.Matrix {
	return z.m
}

// Tips returns the number of tips
// of the tree used to build the matrix.
func (z *Matrix) Tips() int {
	return z.tips
}

// Equal returns true if both matrices are identical.
// Labels are compared only on labeled matrices.
func Equal(a, b *Matrix) bool {
	if a.name != b.name || a.tips != b.tips || a.labeled != b.labeled {
		return false
	}
	// without tip names the labels are only positions
	if a.labeled && !slices.Equal(a.labels, b.labels) {
		return false
	}
	return sparse.Equal(a.m, b.m)
}

// Expand returns a new matrix
// with a row for each observation.
// Group is the tip label of each observation
// (the tip ID if the matrix is not labeled).
// It returns an error if an observation
// is not found in the rows of the source matrix.
func Expand(z *Matrix, group []string) (*Matrix, error) {
	rows := make(map[string]int, len(z.labels))
	for i, l := range z.labels {
		rows[l] = i
	}

	var ts []sparse.Triplet
	for i, g := range group {
		r, ok := rows[g]
		if !ok {
			return nil, fmt.Errorf("zmat: tree %q: observation %d: tip %q not found", z.name, i+1, g)
		}
		z.m.DoRowNonZero(r, func(j int, v float64) {
			ts = append(ts, sparse.Triplet{Row: i, Col: j, Value: v})
		})
	}

	m, err := sparse.New(len(group), z.Edges(), ts)
	if err != nil {
		return nil, fmt.Errorf("zmat: tree %q: %v", z.name, err)
	}
	return &Matrix{
		name:   z.name,
		tips:   z.tips,
		labels:  slices.Clone(group),
		m:       m,
		labeled: z.labeled,
	}, nil
}
