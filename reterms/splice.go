// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package reterms

import (
	"fmt"
	"slices"

	"github.com/js-arias/phyglmm/sparse"
	"github.com/js-arias/phyglmm/zmat"
)

// EdgePrefix is the default prefix
// for the levels of a spliced term.
const EdgePrefix = "edge_"

// A Splicer replaces the placeholder of a phylogenetic term
// with the edges of a phylogenetic design matrix.
type Splicer struct {
	// Prefix for the level names of the edges.
	// If empty,
	// EdgePrefix will be used.
	Prefix string
}

// Splice replaces a term of a structure
// using the default splicer.
func Splice(s *Structure, id ID, z *zmat.Matrix) (*Structure, error) {
	return Splicer{}.Splice(s, id, z)
}

// SpliceByName replaces the term with the indicated name
// using the default splicer.
func SpliceByName(s *Structure, name string, z *zmat.Matrix) (*Structure, error) {
	id, err := s.Lookup(name)
	if err != nil {
		return nil, err
	}
	return Splice(s, id, z)
}

// Splice returns a new structure
// in which the indicated term
// is replaced by the edges of a Z matrix.
//
// The term must be a scalar placeholder
// (a single effect for each tip of the tree,
// and a single correlation parameter).
// In the new term each edge is an effect
// with its own level,
// the design block is the transpose of Z,
// the correlation block is an identity matrix,
// and all its entries are mapped
// to the parameter of the placeholder.
// The branch lengths in Z carry the phylogenetic correlation,
// so the edges are independent effects with the same variance.
//
// Z must have a row for each observation.
// If Z rows are labeled with tip names,
// they must match the grouping factor of the placeholder.
// Otherwise rows are matched by position.
//
// The source structure is never modified.
// If an error is found,
// no structure is returned.
func (sp Splicer) Splice(s *Structure, id ID, z *zmat.Matrix) (*Structure, error) {
	if id < 0 || int(id) >= len(s.terms) {
		return nil, fmt.Errorf("%w: ID %d", ErrUnknownTerm, id)
	}
	old := s.terms[id]

	if !old.IsScalar() {
		return nil, fmt.Errorf("%w: term %q: placeholder must be a scalar term, got %d effects per level and %d parameters", ErrMismatch, old.Name, len(old.Cols), old.Params())
	}
	if z.Rows() != s.nobs {
		return nil, fmt.Errorf("%w: term %q: observations: got %d rows in Z matrix %q, want %d", ErrMismatch, old.Name, z.Rows(), z.Name(), s.nobs)
	}
	if old.Effects() != z.Tips() {
		return nil, fmt.Errorf("%w: term %q: placeholder effects: got %d, want %d tips of tree %q", ErrMismatch, old.Name, old.Effects(), z.Tips(), z.Name())
	}
	if z.Labeled() && len(old.Group) == s.nobs {
		for i, g := range old.Group {
			if l := z.Label(i); l != g {
				return nil, fmt.Errorf("%w: term %q: observation %d: got tip %q, want %q", ErrMismatch, old.Name, i+1, l, g)
			}
		}
	}

	prefix := sp.Prefix
	if prefix == "" {
		prefix = EdgePrefix
	}
	edges := z.Edges()
	levels := make([]string, edges)
	for i := range levels {
		levels[i] = fmt.Sprintf("%s%d", prefix, i+1)
	}

	nt := Term{
		Name:   old.Name,
		Cols:   slices.Clone(old.Cols),
		Levels: levels,
		Group:  slices.Clone(levels),
		Design: z.Sparse().Transpose(),
		Lambda: sparse.Identity(edges),
		Lind:   make([]int, edges),
		Theta:  slices.Clone(old.Theta),
		Lower:  slices.Clone(old.Lower),
	}

	terms := make([]Term, 0, len(s.terms))
	for i, t := range s.terms {
		if ID(i) == id {
			terms = append(terms, nt)
			continue
		}
		terms = append(terms, t.clone())
	}

	ns, err := assemble(terms)
	if err != nil {
		return nil, fmt.Errorf("term %q: %w", old.Name, err)
	}
	if ns.nobs != s.nobs {
		return nil, fmt.Errorf("%w: term %q: observations: got %d, want %d", ErrMismatch, old.Name, ns.nobs, s.nobs)
	}
	return ns, nil
}
