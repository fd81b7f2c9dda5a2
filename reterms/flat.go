// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package reterms

import (
	"fmt"
	"slices"

	"github.com/js-arias/phyglmm/sparse"
)

// Flat is the representation of a structure
// as a set of parallel global arrays,
// as produced by a formula parser
// or consumed by a mixed model solver.
type Flat struct {
	// Names of the terms
	Names []string

	// Effect names of each term
	Cnms [][]string

	// Levels of the grouping factor of each term
	Levels [][]string

	// Grouping factor of each term
	Flist [][]string

	// Transposed design matrix
	Zt *sparse.Matrix

	// Cumulative offsets of the effects of each term,
	// starting at 0
	Gp []int

	// Block diagonal correlation factor
	Lambda *sparse.Matrix

	// Global parameter index
	// of each structural entry of Lambda
	Lind []int

	// Values and lower bounds
	// of the correlation parameters
	Theta []float64
	Lower []float64
}

// Flat returns the structure as a set of global arrays.
func (s *Structure) Flat() Flat {
	f := Flat{
		Names:  s.Names(),
		Cnms:   make([][]string, 0, len(s.terms)),
		Levels: make([][]string, 0, len(s.terms)),
		Flist:  make([][]string, 0, len(s.terms)),
		Zt:     s.zt,
		Gp:     s.Gp(),
		Lambda: s.lambda,
		Lind:   s.Lind(),
		Theta:  s.Theta(),
		Lower:  s.Lower(),
	}
	for _, t := range s.terms {
		f.Cnms = append(f.Cnms, slices.Clone(t.Cols))
		f.Levels = append(f.Levels, slices.Clone(t.Levels))
		f.Flist = append(f.Flist, slices.Clone(t.Group))
	}
	return f
}

// FromFlat creates a new structure
// from a set of global arrays.
//
// The design matrix and the correlation factor
// are split into term blocks
// using the cumulative offsets.
// The parameter index map is split
// using the number of structural entries
// of each correlation block.
// The parameters of each term
// must be a contiguous range of the global parameters,
// and terms should be in parameter order.
func FromFlat(f Flat) (*Structure, error) {
	n := len(f.Names)
	if n == 0 {
		return nil, fmt.Errorf("%w: no terms defined", ErrMismatch)
	}
	if len(f.Cnms) != n || len(f.Levels) != n || len(f.Flist) != n {
		return nil, fmt.Errorf("%w: got %d terms, but %d effect names, %d levels, %d factors", ErrMismatch, n, len(f.Cnms), len(f.Levels), len(f.Flist))
	}
	if len(f.Gp) != n+1 {
		return nil, fmt.Errorf("%w: offsets: got %d values, want %d", ErrMismatch, len(f.Gp), n+1)
	}
	if f.Zt == nil || f.Lambda == nil {
		return nil, fmt.Errorf("%w: undefined matrices", ErrMismatch)
	}
	if len(f.Lower) != len(f.Theta) {
		return nil, fmt.Errorf("%w: parameters: got %d values, %d lower bounds", ErrMismatch, len(f.Theta), len(f.Lower))
	}

	rows, nobs := f.Zt.Dims()
	if f.Gp[0] != 0 || f.Gp[n] != rows {
		return nil, fmt.Errorf("%w: offsets: got [%d, %d], want [0, %d]", ErrMismatch, f.Gp[0], f.Gp[n], rows)
	}
	if r, c := f.Lambda.Dims(); r != rows || c != rows {
		return nil, fmt.Errorf("%w: correlation factor: got %d×%d, want %d×%d", ErrMismatch, r, c, rows, rows)
	}
	if len(f.Lind) != f.Lambda.NNZ() {
		return nil, fmt.Errorf("%w: parameter map: got %d entries, want %d", ErrMismatch, len(f.Lind), f.Lambda.NNZ())
	}

	terms := make([]Term, 0, n)
	var nnz, param int
	for i, name := range f.Names {
		start, end := f.Gp[i], f.Gp[i+1]
		if end < start {
			return nil, fmt.Errorf("%w: term %q: decreasing offsets", ErrMismatch, name)
		}
		design, err := f.Zt.Block(start, end, 0, nobs)
		if err != nil {
			return nil, fmt.Errorf("%w: term %q: %v", ErrMismatch, name, err)
		}
		lambda, err := f.Lambda.Block(start, end, start, end)
		if err != nil {
			return nil, fmt.Errorf("%w: term %q: %v", ErrMismatch, name, err)
		}
		if nnz+lambda.NNZ() > len(f.Lind) {
			return nil, fmt.Errorf("%w: term %q: parameter map too short", ErrMismatch, name)
		}
		seg := f.Lind[nnz : nnz+lambda.NNZ()]
		nnz += lambda.NNZ()

		// local parameters
		if len(seg) == 0 {
			return nil, fmt.Errorf("%w: term %q: without parameters", ErrMismatch, name)
		}
		first, last := slices.Min(seg), slices.Max(seg)
		if first != param || last >= len(f.Theta) {
			return nil, fmt.Errorf("%w: term %q: parameters [%d, %d] are not owned by the term", ErrMismatch, name, first, last)
		}
		lind := make([]int, len(seg))
		for k, p := range seg {
			lind[k] = p - param
		}

		terms = append(terms, Term{
			Name:   name,
			Cols:   slices.Clone(f.Cnms[i]),
			Levels: slices.Clone(f.Levels[i]),
			Group:  slices.Clone(f.Flist[i]),
			Design: design,
			Lambda: lambda,
			Lind:   lind,
			Theta:  slices.Clone(f.Theta[param : last+1]),
			Lower:  slices.Clone(f.Lower[param : last+1]),
		})
		param = last + 1
	}
	// entries outside of the diagonal blocks
	if nnz != f.Lambda.NNZ() {
		return nil, fmt.Errorf("%w: correlation factor: %d entries outside term blocks", ErrMismatch, f.Lambda.NNZ()-nnz)
	}
	if param != len(f.Theta) {
		return nil, fmt.Errorf("%w: parameters: got %d, used %d", ErrMismatch, len(f.Theta), param)
	}

	return assemble(terms)
}
