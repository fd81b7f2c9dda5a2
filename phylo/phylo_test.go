// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package phylo_test

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/js-arias/phyglmm/phylo"
	"github.com/js-arias/timetree"
)

// newTree returns a four tip tree:
// ((t1, t2), (t3, t4)).
func newTree(t testing.TB) *phylo.Tree {
	t.Helper()

	edges := []phylo.Edge{
		{Parent: 5, Child: 6, Length: 1},
		{Parent: 6, Child: 1, Length: 2},
		{Parent: 6, Child: 2, Length: 3},
		{Parent: 5, Child: 7, Length: 4},
		{Parent: 7, Child: 3, Length: 5},
		{Parent: 7, Child: 4, Length: 6},
	}
	labels := map[int]string{
		1: "t1",
		2: "t2",
		3: "t3",
		4: "t4",
	}
	tree, err := phylo.New(4, edges, labels)
	if err != nil {
		t.Fatalf("unable to build tree: %v", err)
	}
	return tree
}

func TestTree(t *testing.T) {
	tree := newTree(t)

	if r := tree.Root(); r != 5 {
		t.Errorf("root: got %d, want %d", r, 5)
	}
	if n := tree.Nodes(); n != 7 {
		t.Errorf("nodes: got %d, want %d", n, 7)
	}
	if e := tree.Edges(); e != 6 {
		t.Errorf("edges: got %d, want %d", e, 6)
	}
	if p := tree.Parent(5); p != -1 {
		t.Errorf("parent of root: got %d, want %d", p, -1)
	}

	parents := map[int]int{1: 6, 2: 6, 3: 7, 4: 7, 6: 5, 7: 5}
	for n, p := range parents {
		if g := tree.Parent(n); g != p {
			t.Errorf("parent of %d: got %d, want %d", n, g, p)
		}
		e := tree.ParentEdge(n)
		if c := tree.Edge(e).Child; c != n {
			t.Errorf("parent edge of %d: got edge with child %d", n, c)
		}
	}

	paths := []float64{3, 4, 9, 10}
	for i, w := range paths {
		tip := i + 1
		if d := tree.Depth(tip); d != 2 {
			t.Errorf("depth of %d: got %d, want %d", tip, d, 2)
		}
		if g := tree.PathLength(tip); math.Abs(g-w) > 1e-12 {
			t.Errorf("path length of %d: got %.6f, want %.6f", tip, g, w)
		}
	}

	labels := []string{"t1", "t2", "t3", "t4"}
	if g := tree.TipLabels(); !reflect.DeepEqual(g, labels) {
		t.Errorf("tip labels: got %v, want %v", g, labels)
	}
}

func TestMalformed(t *testing.T) {
	tests := map[string]struct {
		tips  int
		edges []phylo.Edge
	}{
		"no edges": {
			tips: 1,
		},
		"two roots": {
			tips: 2,
			edges: []phylo.Edge{
				{Parent: 3, Child: 1, Length: 1},
				{Parent: 4, Child: 2, Length: 1},
			},
		},
		"multiple parents": {
			tips: 2,
			edges: []phylo.Edge{
				{Parent: 3, Child: 1, Length: 1},
				{Parent: 3, Child: 2, Length: 1},
				{Parent: 4, Child: 3, Length: 1},
				{Parent: 5, Child: 3, Length: 1},
			},
		},
		"cycle": {
			tips: 2,
			edges: []phylo.Edge{
				{Parent: 3, Child: 1, Length: 1},
				{Parent: 3, Child: 2, Length: 1},
				{Parent: 4, Child: 5, Length: 1},
				{Parent: 5, Child: 4, Length: 1},
			},
		},
		"negative length": {
			tips: 2,
			edges: []phylo.Edge{
				{Parent: 3, Child: 1, Length: -1},
				{Parent: 3, Child: 2, Length: 1},
			},
		},
		"tip as parent": {
			tips: 2,
			edges: []phylo.Edge{
				{Parent: 1, Child: 2, Length: 1},
				{Parent: 1, Child: 3, Length: 1},
			},
		},
		"missing node": {
			tips: 2,
			edges: []phylo.Edge{
				{Parent: 4, Child: 1, Length: 1},
				{Parent: 4, Child: 2, Length: 1},
			},
		},
	}

	for name, test := range tests {
		tree, err := phylo.New(test.tips, test.edges, nil)
		if !errors.Is(err, phylo.ErrMalformed) {
			t.Errorf("%s: got error %v, want %v", name, err, phylo.ErrMalformed)
		}
		if tree != nil {
			t.Errorf("%s: partial tree returned", name)
		}
	}
}

const dinoTree = `# time calibrated phylogenetic tree
tree	node	parent	age	taxon
dinosaurs	0	-1	235000000	
dinosaurs	1	0	230000000	Eoraptor lunensis
dinosaurs	2	0	170000000	
dinosaurs	3	2	145000000	Ceratosaurus nasicornis
dinosaurs	4	2	71000000	Carnotaurus sastrei
`

func TestFromTimeTree(t *testing.T) {
	c, err := timetree.ReadTSV(strings.NewReader(dinoTree))
	if err != nil {
		t.Fatalf("unable to read tree: %v", err)
	}
	tree, err := phylo.FromTimeTree(c.Tree("dinosaurs"), 0)
	if err != nil {
		t.Fatalf("unable to convert tree: %v", err)
	}

	if n := tree.Name(); n != "dinosaurs" {
		t.Errorf("name: got %q, want %q", n, "dinosaurs")
	}
	if tips := tree.Tips(); tips != 3 {
		t.Errorf("tips: got %d, want %d", tips, 3)
	}
	if e := tree.Edges(); e != 4 {
		t.Errorf("edges: got %d, want %d", e, 4)
	}
	if r := tree.Root(); r != 4 {
		t.Errorf("root: got %d, want %d", r, 4)
	}

	labels := []string{"Carnotaurus sastrei", "Ceratosaurus nasicornis", "Eoraptor lunensis"}
	if g := tree.TipLabels(); !reflect.DeepEqual(g, labels) {
		t.Errorf("tip labels: got %v, want %v", g, labels)
	}

	paths := []float64{164, 90, 5}
	depths := []int{2, 2, 1}
	for i := range paths {
		tip := i + 1
		if g := tree.PathLength(tip); math.Abs(g-paths[i]) > 1e-9 {
			t.Errorf("path length of %q: got %.6f, want %.6f", labels[i], g, paths[i])
		}
		if g := tree.Depth(tip); g != depths[i] {
			t.Errorf("depth of %q: got %d, want %d", labels[i], g, depths[i])
		}
	}
}
