// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package phylo

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/js-arias/timetree"
)

// MillionYears is the default scale of branch lengths
// for time calibrated trees.
const MillionYears = 1_000_000

// FromTimeTree returns a tree from a time calibrated tree.
//
// Tips are numbered in the alphabetical order of its taxon names,
// and internal nodes follow the node order of the source tree.
// The length of each edge is the age difference
// between the parent and the child,
// divided by scale
// (if scale is zero, million years are used).
func FromTimeTree(t *timetree.Tree, scale float64) (*Tree, error) {
	if scale <= 0 {
		scale = MillionYears
	}

	var terms, inner []int
	for _, n := range t.Nodes() {
		if t.IsTerm(n) {
			terms = append(terms, n)
			continue
		}
		inner = append(inner, n)
	}
	slices.SortStableFunc(terms, func(a, b int) int {
		return cmp.Compare(t.Taxon(a), t.Taxon(b))
	})

	ids := make(map[int]int, len(terms)+len(inner))
	labels := make(map[int]string, len(terms))
	for i, n := range terms {
		ids[n] = i + 1
		labels[i+1] = t.Taxon(n)
	}
	for i, n := range inner {
		ids[n] = len(terms) + i + 1
		if tx := t.Taxon(n); tx != "" {
			labels[len(terms)+i+1] = tx
		}
	}

	edges := make([]Edge, 0, len(ids)-1)
	for _, n := range t.Nodes() {
		if t.IsRoot(n) {
			continue
		}
		p := t.Parent(n)
		edges = append(edges, Edge{
			Parent: ids[p],
			Child:  ids[n],
			Length: float64(t.Age(p)-t.Age(n)) / scale,
		})
	}

	nt, err := New(len(terms), edges, labels)
	if err != nil {
		return nil, fmt.Errorf("tree %q: %w", t.Name(), err)
	}
	return nt.SetName(t.Name()), nil
}
