// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package reterms

import (
	"fmt"
	"math"
	"slices"

	"github.com/js-arias/phyglmm/sparse"
)

// Intercept is the name of the effect
// of a random intercept.
const Intercept = "(Intercept)"

// NewIntercept returns a scalar random intercept term,
// (1 | group) in formula notation,
// with an effect for each level of the grouping factor.
// Levels are sorted alphabetically.
//
// This is the form of the placeholder
// used for a phylogenetic term
// before it is spliced.
func NewIntercept(name string, group []string) (Term, error) {
	if len(group) == 0 {
		return Term{}, fmt.Errorf("%w: term %q: empty grouping factor", ErrMismatch, name)
	}
	levels, pos := factor(group)

	ts := make([]sparse.Triplet, 0, len(group))
	for i, g := range group {
		ts = append(ts, sparse.Triplet{Row: pos[g], Col: i, Value: 1})
	}
	design, err := sparse.New(len(levels), len(group), ts)
	if err != nil {
		return Term{}, fmt.Errorf("term %q: %v", name, err)
	}

	return Term{
		Name:   name,
		Cols:   []string{Intercept},
		Levels: levels,
		Group:  slices.Clone(group),
		Design: design,
		Lambda: sparse.Identity(len(levels)),
		Lind:   make([]int, len(levels)),
		Theta:  []float64{1},
		Lower:  []float64{0},
	}, nil
}

// NewSlope returns a correlated random intercept and slope term,
// (1 + x | group) in formula notation.
// Each level of the grouping factor has two effects
// (the intercept and the slope of the covariate)
// with a lower triangular 2×2 correlation block
// defined by three parameters.
func NewSlope(name, covariate string, group []string, x []float64) (Term, error) {
	if len(group) == 0 {
		return Term{}, fmt.Errorf("%w: term %q: empty grouping factor", ErrMismatch, name)
	}
	if len(x) != len(group) {
		return Term{}, fmt.Errorf("%w: term %q: covariate %q: got %d values, want %d", ErrMismatch, name, covariate, len(x), len(group))
	}
	levels, pos := factor(group)

	ts := make([]sparse.Triplet, 0, 2*len(group))
	for i, g := range group {
		r := 2 * pos[g]
		ts = append(ts, sparse.Triplet{Row: r, Col: i, Value: 1})
		ts = append(ts, sparse.Triplet{Row: r + 1, Col: i, Value: x[i]})
	}
	design, err := sparse.New(2*len(levels), len(group), ts)
	if err != nil {
		return Term{}, fmt.Errorf("term %q: %v", name, err)
	}

	lt := make([]sparse.Triplet, 0, 3*len(levels))
	lind := make([]int, 0, 3*len(levels))
	for k := range levels {
		r := 2 * k
		lt = append(lt,
			sparse.Triplet{Row: r, Col: r},
			sparse.Triplet{Row: r + 1, Col: r},
			sparse.Triplet{Row: r + 1, Col: r + 1},
		)
		lind = append(lind, 0, 1, 2)
	}
	lambda, err := sparse.New(2*len(levels), 2*len(levels), lt)
	if err != nil {
		return Term{}, fmt.Errorf("term %q: %v", name, err)
	}

	return Term{
		Name:   name,
		Cols:   []string{Intercept, covariate},
		Levels: levels,
		Group:  slices.Clone(group),
		Design: design,
		Lambda: lambda,
		Lind:   lind,
		Theta:  []float64{1, 0, 1},
		Lower:  []float64{0, math.Inf(-1), 0},
	}, nil
}

// Factor returns the sorted levels of a grouping factor
// and the position of each level.
func factor(group []string) ([]string, map[string]int) {
	levels := slices.Clone(group)
	slices.Sort(levels)
	levels = slices.Compact(levels)

	pos := make(map[string]int, len(levels))
	for i, l := range levels {
		pos[l] = i
	}
	return levels, pos
}
