// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package phylo implements an immutable rooted phylogenetic tree
// defined by a list of edges.
//
// Nodes are identified by integers from 1 to N.
// Terminals (tips) use the IDs 1 to T,
// and internal nodes use the IDs T+1 to N.
// Each edge joins a parent with a child
// and has a non-negative length.
package phylo

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
)

// ErrMalformed is returned when an edge list
// does not define a single rooted tree.
var ErrMalformed = errors.New("malformed tree")

// An Edge is a branch of the tree.
type Edge struct {
	Parent int
	Child  int
	Length float64
}

// A Tree is a rooted phylogenetic tree.
type Tree struct {
	name  string
	tips  int
	nodes int
	root  int

	edges []Edge

	// edge index whose child is the node,
	// -1 for the root
	// (index 0 is unused).
	up []int

	labels map[int]string
}

// New creates a new tree with the indicated number of tips
// from a list of edges.
// Labels is an optional map of node IDs to labels.
//
// It returns an error wrapping ErrMalformed
// if the edges do not define a rooted tree:
// no root or more than one root,
// a node with more than one parent,
// a cycle,
// or tips that are not the terminals 1 to T.
func New(tips int, edges []Edge, labels map[int]string) (*Tree, error) {
	if tips < 1 {
		return nil, fmt.Errorf("%w: invalid number of tips: %d", ErrMalformed, tips)
	}

	var n int
	for i, e := range edges {
		if e.Parent < 1 || e.Child < 1 {
			return nil, fmt.Errorf("%w: edge %d: invalid node ID [%d -> %d]", ErrMalformed, i, e.Parent, e.Child)
		}
		if e.Length < 0 || math.IsNaN(e.Length) || math.IsInf(e.Length, 0) {
			return nil, fmt.Errorf("%w: edge %d: invalid length %v", ErrMalformed, i, e.Length)
		}
		n = max(n, e.Parent, e.Child)
	}

	up := make([]int, n+1)
	for i := range up {
		up[i] = -1
	}
	isParent := make([]bool, n+1)
	for i, e := range edges {
		if up[e.Child] >= 0 {
			return nil, fmt.Errorf("%w: node %d: has multiple parents (edges %d and %d)", ErrMalformed, e.Child, up[e.Child], i)
		}
		up[e.Child] = i
		isParent[e.Parent] = true
	}

	var roots []int
	for id := 1; id <= n; id++ {
		if isParent[id] && up[id] < 0 {
			roots = append(roots, id)
		}
	}
	if len(roots) == 0 {
		return nil, fmt.Errorf("%w: root not found", ErrMalformed)
	}
	if len(roots) > 1 {
		return nil, fmt.Errorf("%w: multiple roots: %v", ErrMalformed, roots)
	}
	root := roots[0]

	if tips > n {
		return nil, fmt.Errorf("%w: %d tips defined but only %d nodes", ErrMalformed, tips, n)
	}
	for id := 1; id <= n; id++ {
		if id != root && up[id] < 0 {
			return nil, fmt.Errorf("%w: node %d: not in tree", ErrMalformed, id)
		}
		isTip := id <= tips
		if isTip && isParent[id] {
			return nil, fmt.Errorf("%w: tip %d: has descendants", ErrMalformed, id)
		}
		if !isTip && !isParent[id] {
			return nil, fmt.Errorf("%w: node %d: terminal node outside tip range 1-%d", ErrMalformed, id, tips)
		}
	}

	// every node must reach the root
	// in at most n steps
	for id := 1; id <= n; id++ {
		c := id
		for steps := 0; c != root; steps++ {
			if steps >= n {
				return nil, fmt.Errorf("%w: node %d: cycle detected", ErrMalformed, id)
			}
			c = edges[up[c]].Parent
		}
	}

	t := &Tree{
		tips:   tips,
		nodes:  n,
		root:   root,
		edges:  slices.Clone(edges),
		up:     up,
		labels: make(map[int]string, len(labels)),
	}
	for id, l := range labels {
		if id < 1 || id > n {
			continue
		}
		t.labels[id] = l
	}
	return t, nil
}

// Depth returns the number of edges
// between a node and the root.
func (t *Tree) Depth(node int) int {
	var d int
	for e := t.up[node]; e >= 0; e = t.up[t.edges[e].Parent] {
		d++
	}
	return d
}

// Edge returns the edge with the indicated index.
func (t *Tree) Edge(i int) Edge {
	return t.edges[i]
}

// Edges returns the number of edges of the tree.
func (t *Tree) Edges() int {
	return len(t.edges)
}

// IsTip returns true if the node is a terminal.
func (t *Tree) IsTip(node int) bool {
	return node >= 1 && node <= t.tips
}

// Label returns the label of a node.
func (t *Tree) Label(node int) string {
	return t.labels[node]
}

// Labels returns a copy of the node labels.
func (t *Tree) Labels() map[int]string {
	return maps.Clone(t.labels)
}

// Length returns the length of the edge
// with the indicated index.
func (t *Tree) Length(i int) float64 {
	return t.edges[i].Length
}

// Name returns the name of the tree.
func (t *Tree) Name() string {
	return t.name
}

// Nodes returns the number of nodes in the tree.
func (t *Tree) Nodes() int {
	return t.nodes
}

// Parent returns the parent of a node.
// It returns -1 for the root.
func (t *Tree) Parent(node int) int {
	e := t.up[node]
	if e < 0 {
		return -1
	}
	return t.edges[e].Parent
}

// ParentEdge returns the index of the edge
// that has the node as its child.
// It returns -1 for the root.
func (t *Tree) ParentEdge(node int) int {
	return t.up[node]
}

// PathLength returns the sum of the edge lengths
// between a node and the root.
func (t *Tree) PathLength(node int) float64 {
	var l float64
	for e := t.up[node]; e >= 0; e = t.up[t.edges[e].Parent] {
		l += t.edges[e].Length
	}
	return l
}

// Root returns the ID of the root node.
func (t *Tree) Root() int {
	return t.root
}

// SetName returns a copy of the tree
// with a new name.
func (t *Tree) SetName(name string) *Tree {
	nt := *t
	nt.name = name
	return &nt
}

// TipLabels returns the labels of the tips,
// in tip order.
// Tips without a label are named by its ID.
func (t *Tree) TipLabels() []string {
	ls := make([]string, t.tips)
	for i := range ls {
		l := t.labels[i+1]
		if l == "" {
			l = fmt.Sprintf("%d", i+1)
		}
		ls[i] = l
	}
	return ls
}

// Tips returns the number of tips in the tree.
func (t *Tree) Tips() int {
	return t.tips
}
