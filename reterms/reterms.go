// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package reterms implements the random effects structure
// of a mixed model.
//
// A structure is an ordered set of named terms.
// Each term has a design block
// (rows are the effects of the term,
// columns are the observations),
// a grouping factor,
// a lower triangular block of the correlation factor,
// and a set of correlation parameters
// mapped to the entries of that block.
// The global matrices used by a mixed model solver
// (the transposed design matrix Zt,
// the block diagonal correlation factor Lambda,
// the cumulative effect offsets Gp,
// and the parameter index map Lind)
// are derived from the terms
// and always kept consistent.
//
// A Structure is immutable:
// operations that modify a structure,
// such as Splice or Update,
// return a new value.
package reterms

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/js-arias/phyglmm/sparse"
)

// Errors returned by operations on a structure.
var (
	// ErrUnknownTerm is returned when a term
	// is not in the structure.
	ErrUnknownTerm = errors.New("unknown term")

	// ErrMismatch is returned when the dimensions
	// of the components of a structure,
	// or of a matrix used to modify a structure,
	// are not consistent.
	ErrMismatch = errors.New("structural mismatch")
)

// An ID is the position of a term in a structure.
type ID int

// A Term is a named random effects term.
type Term struct {
	// Name of the term.
	Name string

	// Cols are the names of the effects
	// defined for each level of the grouping factor,
	// for example "(Intercept)".
	Cols []string

	// Levels of the grouping factor,
	// in the order used by the effects.
	Levels []string

	// Group is the grouping factor.
	// It has a label for each observation
	// or, for a term with synthetic levels,
	// a label for each level.
	Group []string

	// Design is the transposed design block:
	// a row for each effect
	// and a column for each observation.
	Design *sparse.Matrix

	// Lambda is the lower triangular block
	// of the correlation factor
	// (effects × effects).
	// Its values are always set from Theta.
	Lambda *sparse.Matrix

	// Lind is the index in Theta
	// of each structural entry of Lambda,
	// in row major order.
	Lind []int

	// Theta are the values of the correlation parameters
	// owned by the term.
	Theta []float64

	// Lower are the lower bounds
	// of the correlation parameters.
	Lower []float64
}

// Effects returns the number of effects of the term.
func (t Term) Effects() int {
	if t.Design == nil {
		return 0
	}
	r, _ := t.Design.Dims()
	return r
}

// Params returns the number of correlation parameters
// owned by the term.
func (t Term) Params() int {
	return len(t.Theta)
}

// IsScalar returns true if the term
// has a single effect per level,
// a diagonal correlation block,
// and a single correlation parameter.
func (t Term) IsScalar() bool {
	if len(t.Cols) != 1 || len(t.Theta) != 1 {
		return false
	}
	if t.Lambda == nil || t.Lambda.NNZ() != t.Effects() {
		return false
	}
	for i := 0; i < t.Effects(); i++ {
		if !t.Lambda.Has(i, i) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the term.
// Sparse matrices are immutable
// so they are shared.
func (t Term) clone() Term {
	return Term{
		Name:   t.Name,
		Cols:   slices.Clone(t.Cols),
		Levels: slices.Clone(t.Levels),
		Group:  slices.Clone(t.Group),
		Design: t.Design,
		Lambda: t.Lambda,
		Lind:   slices.Clone(t.Lind),
		Theta:  slices.Clone(t.Theta),
		Lower:  slices.Clone(t.Lower),
	}
}

// Structure is a random effects structure.
type Structure struct {
	terms []Term
	index map[string]ID
	nobs  int

	// derived
	zt     *sparse.Matrix
	lambda *sparse.Matrix
	gp     []int
	lind   []int
	theta  []float64
	lower  []float64
}

// New creates a new structure
// from a list of terms,
// in the indicated order.
// All terms must have the same number of observations.
func New(terms ...Term) (*Structure, error) {
	cp := make([]Term, 0, len(terms))
	for _, t := range terms {
		cp = append(cp, t.clone())
	}
	return assemble(cp)
}

// Assemble validates the terms
// and builds the derived matrices.
// It takes ownership of the terms.
func assemble(terms []Term) (*Structure, error) {
	if len(terms) == 0 {
		return nil, fmt.Errorf("%w: no terms defined", ErrMismatch)
	}
	if terms[0].Design == nil {
		return nil, fmt.Errorf("%w: term %q: undefined design", ErrMismatch, terms[0].Name)
	}
	_, nobs := terms[0].Design.Dims()

	s := &Structure{
		terms: terms,
		index: make(map[string]ID, len(terms)),
		nobs:  nobs,
		gp:    make([]int, 1, len(terms)+1),
	}

	designs := make([]*sparse.Matrix, 0, len(terms))
	blocks := make([]*sparse.Matrix, 0, len(terms))
	for i := range terms {
		t := &terms[i]
		if err := validate(*t, nobs); err != nil {
			return nil, err
		}
		if _, dup := s.index[t.Name]; dup {
			return nil, fmt.Errorf("%w: term %q: defined twice", ErrMismatch, t.Name)
		}
		s.index[t.Name] = ID(i)

		// lambda values are derived from theta
		v := make([]float64, len(t.Lind))
		for k, p := range t.Lind {
			v[k] = t.Theta[p]
		}
		lambda, err := t.Lambda.SetValues(v)
		if err != nil {
			return nil, fmt.Errorf("%w: term %q: %v", ErrMismatch, t.Name, err)
		}
		t.Lambda = lambda

		off := len(s.theta)
		for _, p := range t.Lind {
			s.lind = append(s.lind, p+off)
		}
		s.theta = append(s.theta, t.Theta...)
		s.lower = append(s.lower, t.Lower...)
		s.gp = append(s.gp, s.gp[len(s.gp)-1]+t.Effects())

		designs = append(designs, t.Design)
		blocks = append(blocks, t.Lambda)
	}

	zt, err := sparse.RBind(designs...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMismatch, err)
	}
	s.zt = zt
	s.lambda = sparse.BlockDiag(blocks...)

	if err := s.check(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks that a term is consistent
// with the number of observations.
func validate(t Term, nobs int) error {
	if t.Name == "" {
		return fmt.Errorf("%w: term without name", ErrMismatch)
	}
	if t.Design == nil || t.Lambda == nil {
		return fmt.Errorf("%w: term %q: undefined matrices", ErrMismatch, t.Name)
	}
	effects, obs := t.Design.Dims()
	if obs != nobs {
		return fmt.Errorf("%w: term %q: observations: got %d, want %d", ErrMismatch, t.Name, obs, nobs)
	}
	if r, c := t.Lambda.Dims(); r != effects || c != effects {
		return fmt.Errorf("%w: term %q: correlation block: got %d×%d, want %d×%d", ErrMismatch, t.Name, r, c, effects, effects)
	}
	if !t.Lambda.IsLowerTriangular() {
		return fmt.Errorf("%w: term %q: correlation block is not lower triangular", ErrMismatch, t.Name)
	}
	if len(t.Cols) == 0 {
		return fmt.Errorf("%w: term %q: undefined effect names", ErrMismatch, t.Name)
	}
	if len(t.Levels)*len(t.Cols) != effects {
		return fmt.Errorf("%w: term %q: effects: got %d, want %d (%d levels × %d)", ErrMismatch, t.Name, effects, len(t.Levels)*len(t.Cols), len(t.Levels), len(t.Cols))
	}

	levels := make(map[string]bool, len(t.Levels))
	for _, l := range t.Levels {
		if levels[l] {
			return fmt.Errorf("%w: term %q: level %q defined twice", ErrMismatch, t.Name, l)
		}
		levels[l] = true
	}
	if len(t.Group) != nobs && !slices.Equal(t.Group, t.Levels) {
		return fmt.Errorf("%w: term %q: grouping factor: got %d labels, want %d", ErrMismatch, t.Name, len(t.Group), nobs)
	}
	for _, g := range t.Group {
		if !levels[g] {
			return fmt.Errorf("%w: term %q: grouping factor: undefined level %q", ErrMismatch, t.Name, g)
		}
	}

	if len(t.Lind) != t.Lambda.NNZ() {
		return fmt.Errorf("%w: term %q: parameter map: got %d entries, want %d", ErrMismatch, t.Name, len(t.Lind), t.Lambda.NNZ())
	}
	if len(t.Theta) == 0 || len(t.Lower) != len(t.Theta) {
		return fmt.Errorf("%w: term %q: parameters: got %d values, %d lower bounds", ErrMismatch, t.Name, len(t.Theta), len(t.Lower))
	}
	used := make([]bool, len(t.Theta))
	for _, p := range t.Lind {
		if p < 0 || p >= len(t.Theta) {
			return fmt.Errorf("%w: term %q: parameter map: invalid index %d", ErrMismatch, t.Name, p)
		}
		used[p] = true
	}
	for i, u := range used {
		if !u {
			return fmt.Errorf("%w: term %q: parameter %d not used", ErrMismatch, t.Name, i)
		}
		if math.IsNaN(t.Theta[i]) || t.Theta[i] < t.Lower[i] {
			return fmt.Errorf("%w: term %q: parameter %d: value %v below bound %v", ErrMismatch, t.Name, i, t.Theta[i], t.Lower[i])
		}
	}
	return nil
}

// Check verifies the invariants of the derived matrices.
func (s *Structure) check() error {
	rows, cols := s.zt.Dims()
	if cols != s.nobs {
		return fmt.Errorf("%w: design: got %d observations, want %d", ErrMismatch, cols, s.nobs)
	}

	var effects int
	for _, t := range s.terms {
		effects += t.Effects()
	}
	if effects != rows {
		return fmt.Errorf("%w: design: got %d rows, want %d", ErrMismatch, rows, effects)
	}

	if s.gp[0] != 0 || s.gp[len(s.gp)-1] != rows {
		return fmt.Errorf("%w: offsets: got [%d, %d], want [0, %d]", ErrMismatch, s.gp[0], s.gp[len(s.gp)-1], rows)
	}
	for i := 1; i < len(s.gp); i++ {
		if s.gp[i] < s.gp[i-1] {
			return fmt.Errorf("%w: offsets: decreasing at term %d", ErrMismatch, i-1)
		}
	}

	if r, c := s.lambda.Dims(); r != rows || c != rows {
		return fmt.Errorf("%w: correlation factor: got %d×%d, want %d×%d", ErrMismatch, r, c, rows, rows)
	}
	if len(s.lind) != s.lambda.NNZ() {
		return fmt.Errorf("%w: parameter map: got %d entries, want %d", ErrMismatch, len(s.lind), s.lambda.NNZ())
	}
	return nil
}

// Gp returns the cumulative offsets of the effects of each term
// in the rows of the design matrix.
// The first value is always 0,
// and the last is the number of effects.
func (s *Structure) Gp() []int {
	return slices.Clone(s.gp)
}

// Lambda returns the block diagonal correlation factor.
func (s *Structure) Lambda() *sparse.Matrix {
	return s.lambda
}

// Lind returns the index of the global correlation parameter
// of each structural entry of the correlation factor.
func (s *Structure) Lind() []int {
	return slices.Clone(s.lind)
}

// Lookup returns the ID of a term with a given name.
func (s *Structure) Lookup(name string) (ID, error) {
	id, ok := s.index[name]
	if !ok {
		return -1, fmt.Errorf("%w: %q", ErrUnknownTerm, name)
	}
	return id, nil
}

// Lower returns the lower bounds
// of the global correlation parameters.
func (s *Structure) Lower() []float64 {
	return slices.Clone(s.lower)
}

// Names returns the names of the terms,
// in term order.
func (s *Structure) Names() []string {
	names := make([]string, 0, len(s.terms))
	for _, t := range s.terms {
		names = append(names, t.Name)
	}
	return names
}

// NumObs returns the number of observations.
func (s *Structure) NumObs() int {
	return s.nobs
}

// Len returns the number of terms.
func (s *Structure) Len() int {
	return len(s.terms)
}

// Term returns a copy of a term.
func (s *Structure) Term(id ID) (Term, error) {
	if id < 0 || int(id) >= len(s.terms) {
		return Term{}, fmt.Errorf("%w: ID %d", ErrUnknownTerm, id)
	}
	return s.terms[id].clone(), nil
}

// Theta returns the values
// of the global correlation parameters.
func (s *Structure) Theta() []float64 {
	return slices.Clone(s.theta)
}

// Update returns a new structure
// with new values for the correlation parameters,
// and the correlation factor updated
// so each entry has the value of its parameter.
func (s *Structure) Update(theta []float64) (*Structure, error) {
	if len(theta) != len(s.theta) {
		return nil, fmt.Errorf("%w: parameters: got %d, want %d", ErrMismatch, len(theta), len(s.theta))
	}

	terms := make([]Term, 0, len(s.terms))
	var off int
	for _, t := range s.terms {
		nt := t.clone()
		copy(nt.Theta, theta[off:off+len(nt.Theta)])
		off += len(nt.Theta)
		terms = append(terms, nt)
	}
	return assemble(terms)
}

// Zt returns the transposed design matrix:
// the row concatenation of the design blocks
// of each term.
func (s *Structure) Zt() *sparse.Matrix {
	return s.zt
}
