// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package reterms_test

import (
	"bytes"
	"errors"
	"math"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/js-arias/phyglmm/phylo"
	"github.com/js-arias/phyglmm/reterms"
	"github.com/js-arias/phyglmm/sparse"
	"github.com/js-arias/phyglmm/zmat"
	"gonum.org/v1/gonum/mat"
)

// newTree returns the four tip tree
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
	labels := map[int]string{1: "t1", 2: "t2", 3: "t3", 4: "t4"}
	tree, err := phylo.New(4, edges, labels)
	if err != nil {
		t.Fatalf("unable to build tree: %v", err)
	}
	return tree
}

// newStructure returns a structure with three terms:
// (1 | site), (1 | phylo), and (1 + x | site).
func newStructure(t testing.TB, species []string) *reterms.Structure {
	t.Helper()

	site := make([]string, len(species))
	x := make([]float64, len(species))
	for i := range species {
		site[i] = "a"
		if i%2 == 1 {
			site[i] = "b"
		}
		x[i] = float64(i) / 2
	}

	siteTerm, err := reterms.NewIntercept("site", site)
	if err != nil {
		t.Fatalf("site term: %v", err)
	}
	phyloTerm, err := reterms.NewIntercept("phylo", species)
	if err != nil {
		t.Fatalf("phylo term: %v", err)
	}
	slopeTerm, err := reterms.NewSlope("slope", "x", site, x)
	if err != nil {
		t.Fatalf("slope term: %v", err)
	}

	s, err := reterms.New(siteTerm, phyloTerm, slopeTerm)
	if err != nil {
		t.Fatalf("unable to build structure: %v", err)
	}
	return s
}

func TestNew(t *testing.T) {
	s := newStructure(t, []string{"t1", "t2", "t3", "t4"})

	if n := s.NumObs(); n != 4 {
		t.Errorf("observations: got %d, want %d", n, 4)
	}
	if g := s.Names(); !reflect.DeepEqual(g, []string{"site", "phylo", "slope"}) {
		t.Errorf("names: got %v", g)
	}

	gp := []int{0, 2, 6, 10}
	if g := s.Gp(); !reflect.DeepEqual(g, gp) {
		t.Errorf("gp: got %v, want %v", g, gp)
	}
	lind := []int{0, 0, 1, 1, 1, 1, 2, 3, 4, 2, 3, 4}
	if g := s.Lind(); !reflect.DeepEqual(g, lind) {
		t.Errorf("lind: got %v, want %v", g, lind)
	}
	theta := []float64{1, 1, 1, 0, 1}
	if g := s.Theta(); !reflect.DeepEqual(g, theta) {
		t.Errorf("theta: got %v, want %v", g, theta)
	}
	if !math.IsInf(s.Lower()[3], -1) {
		t.Errorf("lower bound of correlation: got %v, want -Inf", s.Lower()[3])
	}

	testInvariants(t, "new", s)

	id, err := s.Lookup("phylo")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if id != 1 {
		t.Errorf("lookup: got %d, want %d", id, 1)
	}
	if _, err := s.Lookup("genus"); !errors.Is(err, reterms.ErrUnknownTerm) {
		t.Errorf("lookup: got error %v, want %v", err, reterms.ErrUnknownTerm)
	}
}

func TestSplice(t *testing.T) {
	species := []string{"t1", "t2", "t3", "t4"}
	s := newStructure(t, species)
	before := s.Flat()

	tree := newTree(t)
	z := zmat.Build(tree, nil)

	ns, err := reterms.SpliceByName(s, "phylo", z)
	if err != nil {
		t.Fatalf("splice: %v", err)
	}
	testInvariants(t, "splice", ns)
	testFlat(t, "source after splice", s.Flat(), before)

	if ns.NumObs() != s.NumObs() {
		t.Errorf("observations: got %d, want %d", ns.NumObs(), s.NumObs())
	}

	gp := []int{0, 2, 8, 12}
	if g := ns.Gp(); !reflect.DeepEqual(g, gp) {
		t.Errorf("gp: got %v, want %v", g, gp)
	}
	oldGp, newGp := s.Gp(), ns.Gp()
	if d := newGp[len(newGp)-1] - oldGp[len(oldGp)-1]; d != z.Edges()-len(species) {
		t.Errorf("effects: got %d new effects, want %d", d, z.Edges()-len(species))
	}

	lind := []int{0, 0, 1, 1, 1, 1, 1, 1, 2, 3, 4, 2, 3, 4}
	if g := ns.Lind(); !reflect.DeepEqual(g, lind) {
		t.Errorf("lind: got %v, want %v", g, lind)
	}
	if g := ns.Theta(); !reflect.DeepEqual(g, s.Theta()) {
		t.Errorf("theta: got %v, want %v", g, s.Theta())
	}

	term, err := ns.Term(1)
	if err != nil {
		t.Fatalf("term: %v", err)
	}
	if term.Effects() != z.Edges() {
		t.Errorf("phylo effects: got %d, want %d", term.Effects(), z.Edges())
	}
	levels := []string{"edge_1", "edge_2", "edge_3", "edge_4", "edge_5", "edge_6"}
	if !reflect.DeepEqual(term.Levels, levels) {
		t.Errorf("phylo levels: got %v, want %v", term.Levels, levels)
	}
	if !reflect.DeepEqual(term.Group, levels) {
		t.Errorf("phylo factor: got %v, want %v", term.Group, levels)
	}
	if !mat.Equal(term.Design, z.T()) {
		t.Errorf("phylo design: got\n%v\nwant\n%v", mat.Formatted(term.Design), mat.Formatted(z.T()))
	}
	if !mat.Equal(term.Lambda, mat.NewDiagDense(6, []float64{1, 1, 1, 1, 1, 1})) {
		t.Errorf("phylo correlation block: got\n%v", mat.Formatted(term.Lambda))
	}

	// rows of the other terms are kept
	site, _ := s.Zt().Block(0, 2, 0, 4)
	nsite, _ := ns.Zt().Block(0, 2, 0, 4)
	if !sparse.Equal(site, nsite) {
		t.Errorf("site design changed")
	}
	slope, _ := s.Zt().Block(6, 10, 0, 4)
	nslope, _ := ns.Zt().Block(8, 12, 0, 4)
	if !sparse.Equal(slope, nslope) {
		t.Errorf("slope design changed")
	}
	sl, _ := s.Lambda().Block(6, 10, 6, 10)
	nsl, _ := ns.Lambda().Block(8, 12, 8, 12)
	if !sparse.Equal(sl, nsl) {
		t.Errorf("slope correlation block changed")
	}
}

func TestSpliceRepeatedObservations(t *testing.T) {
	species := []string{"t3", "t1", "t1", "t2", "t4", "t4"}
	s := newStructure(t, species)

	z := zmat.Build(newTree(t), nil)
	ez, err := zmat.Expand(z, species)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}

	ns, err := reterms.Splice(s, 1, ez)
	if err != nil {
		t.Fatalf("splice: %v", err)
	}
	testInvariants(t, "splice repeated", ns)
	if ns.NumObs() != len(species) {
		t.Errorf("observations: got %d, want %d", ns.NumObs(), len(species))
	}

	// the design of the observations of the same tip
	// are equal
	term, _ := ns.Term(1)
	for e := 0; e < z.Edges(); e++ {
		if term.Design.At(e, 1) != term.Design.At(e, 2) {
			t.Errorf("edge %d: observations of tip %q are different", e, "t1")
		}
		if term.Design.At(e, 0) != z.At(2, e) {
			t.Errorf("edge %d: got %.6f, want %.6f", e, term.Design.At(e, 0), z.At(2, e))
		}
	}
}

func TestSpliceErrors(t *testing.T) {
	species := []string{"t1", "t2", "t3", "t4"}
	s := newStructure(t, species)
	before := s.Flat()

	var buf bytes.Buffer
	if err := s.TSV(&buf); err != nil {
		t.Fatalf("unable to write TSV data: %v", err)
	}
	tsv := dropComments(buf.String())

	z := zmat.Build(newTree(t), nil)
	bigZ, err := zmat.Expand(z, []string{"t1", "t2", "t3", "t4", "t4"})
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	wrongOrder, err := zmat.Expand(z, []string{"t2", "t1", "t3", "t4"})
	if err != nil {
		t.Fatalf("expand: %v", err)
	}

	tests := map[string]struct {
		id   reterms.ID
		z    *zmat.Matrix
		want error
	}{
		"observations": {1, bigZ, reterms.ErrMismatch},
		"labels":       {1, wrongOrder, reterms.ErrMismatch},
		"not scalar":   {2, z, reterms.ErrMismatch},
		"tips":         {0, z, reterms.ErrMismatch},
		"unknown":      {3, z, reterms.ErrUnknownTerm},
	}
	for name, test := range tests {
		ns, err := reterms.Splice(s, test.id, test.z)
		if !errors.Is(err, test.want) {
			t.Errorf("%s: got error %v, want %v", name, err, test.want)
		}
		if ns != nil {
			t.Errorf("%s: structure returned on error", name)
		}
	}

	if _, err := reterms.SpliceByName(s, "genus", z); !errors.Is(err, reterms.ErrUnknownTerm) {
		t.Errorf("by name: got error %v, want %v", err, reterms.ErrUnknownTerm)
	}

	testFlat(t, "after errors", s.Flat(), before)
	buf.Reset()
	if err := s.TSV(&buf); err != nil {
		t.Fatalf("unable to write TSV data: %v", err)
	}
	if got := dropComments(buf.String()); got != tsv {
		t.Errorf("after errors: structure file changed")
	}
}

func TestFlat(t *testing.T) {
	s := newStructure(t, []string{"t1", "t2", "t3", "t4"})
	s, err := reterms.SpliceByName(s, "phylo", zmat.Build(newTree(t), nil))
	if err != nil {
		t.Fatalf("splice: %v", err)
	}

	f := s.Flat()
	ns, err := reterms.FromFlat(f)
	if err != nil {
		t.Fatalf("from flat: %v", err)
	}
	testFlat(t, "from flat", ns.Flat(), f)

	bad := s.Flat()
	bad.Gp = []int{0, 3, 8, 12}
	if _, err := reterms.FromFlat(bad); !errors.Is(err, reterms.ErrMismatch) {
		t.Errorf("bad offsets: got error %v, want %v", err, reterms.ErrMismatch)
	}

	bad = s.Flat()
	bad.Lind = bad.Lind[1:]
	if _, err := reterms.FromFlat(bad); !errors.Is(err, reterms.ErrMismatch) {
		t.Errorf("short parameter map: got error %v, want %v", err, reterms.ErrMismatch)
	}

	bad = s.Flat()
	bad.Lind = append([]int{}, bad.Lind...)
	bad.Lind[0] = 1
	if _, err := reterms.FromFlat(bad); !errors.Is(err, reterms.ErrMismatch) {
		t.Errorf("shared parameter: got error %v, want %v", err, reterms.ErrMismatch)
	}
}

func TestUpdate(t *testing.T) {
	s := newStructure(t, []string{"t1", "t2", "t3", "t4"})
	theta := []float64{0.5, 2, 1.5, -0.25, 0.75}

	ns, err := s.Update(theta)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if g := ns.Theta(); !reflect.DeepEqual(g, theta) {
		t.Errorf("theta: got %v, want %v", g, theta)
	}
	lind := ns.Lind()
	for i, v := range ns.Lambda().Values() {
		if w := theta[lind[i]]; v != w {
			t.Errorf("lambda entry %d: got %.6f, want %.6f", i, v, w)
		}
	}

	// source is unchanged
	for _, v := range s.Lambda().Values() {
		if v != 1 && v != 0 {
			t.Errorf("source lambda: unexpected value %.6f", v)
		}
	}

	if _, err := s.Update(theta[1:]); !errors.Is(err, reterms.ErrMismatch) {
		t.Errorf("short theta: got error %v, want %v", err, reterms.ErrMismatch)
	}
	if _, err := s.Update([]float64{-1, 1, 1, 0, 1}); !errors.Is(err, reterms.ErrMismatch) {
		t.Errorf("theta below bound: got error %v, want %v", err, reterms.ErrMismatch)
	}
}

func TestTSV(t *testing.T) {
	s := newStructure(t, []string{"t3", "t1", "t1", "t2", "t4", "t4"})
	z, err := zmat.Expand(zmat.Build(newTree(t), nil), []string{"t3", "t1", "t1", "t2", "t4", "t4"})
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	s, err = reterms.Splicer{Prefix: "branch."}.Splice(s, 1, z)
	if err != nil {
		t.Fatalf("splice: %v", err)
	}

	var w bytes.Buffer
	if err := s.TSV(&w); err != nil {
		t.Fatalf("unable to write TSV data: %v", err)
	}

	ns, err := reterms.ReadTSV(strings.NewReader(w.String()))
	if err != nil {
		t.Fatalf("unable to read TSV data: %v", err)
	}
	testFlat(t, "tsv", ns.Flat(), s.Flat())

	if lv := ns.Flat().Levels[1][0]; lv != "branch.1" {
		t.Errorf("tsv: phylo level: got %q, want %q", lv, "branch.1")
	}
}

func testInvariants(t testing.TB, name string, s *reterms.Structure) {
	t.Helper()

	rows, cols := s.Zt().Dims()
	if cols != s.NumObs() {
		t.Errorf("%s: design: got %d observations, want %d", name, cols, s.NumObs())
	}

	gp := s.Gp()
	var effects int
	for id := 0; id < s.Len(); id++ {
		term, err := s.Term(reterms.ID(id))
		if err != nil {
			t.Fatalf("%s: term %d: %v", name, id, err)
		}
		effects += term.Effects()
		if gp[id+1]-gp[id] != term.Effects() {
			t.Errorf("%s: term %q: offsets: got %d effects, want %d", name, term.Name, gp[id+1]-gp[id], term.Effects())
		}

		blk, err := s.Lambda().Block(gp[id], gp[id+1], gp[id], gp[id+1])
		if err != nil {
			t.Fatalf("%s: term %q: %v", name, term.Name, err)
		}
		if !sparse.Equal(blk, term.Lambda) {
			t.Errorf("%s: term %q: correlation block differs", name, term.Name)
		}
	}
	if effects != rows {
		t.Errorf("%s: effects: got %d, want %d", name, effects, rows)
	}
	if gp[0] != 0 || gp[len(gp)-1] != rows {
		t.Errorf("%s: offsets: got %v, want last value %d", name, gp, rows)
	}
	for i := 1; i < len(gp); i++ {
		if gp[i] < gp[i-1] {
			t.Errorf("%s: offsets: decreasing values %v", name, gp)
		}
	}
	if len(s.Lind()) != s.Lambda().NNZ() {
		t.Errorf("%s: parameter map: got %d entries, want %d", name, len(s.Lind()), s.Lambda().NNZ())
	}
}

func testFlat(t testing.TB, name string, got, want reterms.Flat) {
	t.Helper()

	if !reflect.DeepEqual(got.Names, want.Names) {
		t.Errorf("%s: names: got %v, want %v", name, got.Names, want.Names)
	}
	if !reflect.DeepEqual(got.Cnms, want.Cnms) {
		t.Errorf("%s: cnms: got %v, want %v", name, got.Cnms, want.Cnms)
	}
	if !reflect.DeepEqual(got.Levels, want.Levels) {
		t.Errorf("%s: levels: got %v, want %v", name, got.Levels, want.Levels)
	}
	if !reflect.DeepEqual(got.Flist, want.Flist) {
		t.Errorf("%s: flist: got %v, want %v", name, got.Flist, want.Flist)
	}
	if !sparse.Equal(got.Zt, want.Zt) {
		t.Errorf("%s: zt: got\n%v\nwant\n%v", name, mat.Formatted(got.Zt), mat.Formatted(want.Zt))
	}
	if !reflect.DeepEqual(got.Gp, want.Gp) {
		t.Errorf("%s: gp: got %v, want %v", name, got.Gp, want.Gp)
	}
	if !sparse.Equal(got.Lambda, want.Lambda) {
		t.Errorf("%s: lambda: got\n%v\nwant\n%v", name, mat.Formatted(got.Lambda), mat.Formatted(want.Lambda))
	}
	if !reflect.DeepEqual(got.Lind, want.Lind) {
		t.Errorf("%s: lind: got %v, want %v", name, got.Lind, want.Lind)
	}
	if !reflect.DeepEqual(got.Theta, want.Theta) {
		t.Errorf("%s: theta: got %v, want %v", name, got.Theta, want.Theta)
	}
	if !reflect.DeepEqual(got.Lower, want.Lower) {
		t.Errorf("%s: lower: got %v, want %v", name, got.Lower, want.Lower)
	}
}

func dropComments(s string) string {
	var lines []string
	for _, ln := range strings.Split(s, "\n") {
		if strings.HasPrefix(ln, "#") {
			continue
		}
		lines = append(lines, ln)
	}
	return strings.Join(lines, "\n")
}

func TestSpliceUnlabeledTree(t *testing.T) {
	edges := []phylo.Edge{
		{Parent: 5, Child: 6, Length: 1},
		{Parent: 6, Child: 1, Length: 2},
		{Parent: 6, Child: 2, Length: 3},
		{Parent: 5, Child: 7, Length: 4},
		{Parent: 7, Child: 3, Length: 5},
		{Parent: 7, Child: 4, Length: 6},
	}
	tree, err := phylo.New(4, edges, nil)
	if err != nil {
		t.Fatalf("unable to build tree: %v", err)
	}
	z := zmat.Build(tree, nil)

	s := newStructure(t, []string{"sp1", "sp2", "sp3", "sp4"})
	ns, err := reterms.SpliceByName(s, "phylo", z)
	if err != nil {
		t.Fatalf("splice: %v", err)
	}
	testInvariants(t, "unlabeled", ns)

	term, err := ns.Term(1)
	if err != nil {
		t.Fatalf("term: %v", err)
	}
	if !mat.Equal(term.Design, z.T()) {
		t.Errorf("unlabeled: design: got\n%v\nwant\n%v", mat.Formatted(term.Design), mat.Formatted(z.T()))
	}

	// tip names are checked when the tree has them
	labeled := zmat.Build(newTree(t), nil)
	if _, err := reterms.SpliceByName(s, "phylo", labeled); !errors.Is(err, reterms.ErrMismatch) {
		t.Errorf("labeled: got error %v, want %v", err, reterms.ErrMismatch)
	}
}

// termRows returns the rows of a single effect term
// with two observations.
func termRows(name string, pos int, effects string) string {
	rows := []string{
		"term\t" + name + "\t" + strconv.Itoa(pos) + "\t2\t" + effects + "\t" + name,
		"cnms\t" + name + "\t0\t\t\t(Intercept)",
		"level\t" + name + "\t0\t\t\tx",
		"flist\t" + name + "\t0\t\t\tx",
		"flist\t" + name + "\t1\t\t\tx",
		"theta\t" + name + "\t0\t\t1\t",
		"lower\t" + name + "\t0\t\t0\t",
		"zt\t" + name + "\t0\t0\t1\t",
		"zt\t" + name + "\t0\t1\t1\t",
		"lambda\t" + name + "\t0\t0\t1\t",
		"lind\t" + name + "\t0\t0\t\t",
	}
	return strings.Join(rows, "\n") + "\n"
}

func TestReadTSVErrors(t *testing.T) {
	head := "section\tterm\trow\tcol\tvalue\tlabel\n"

	s, err := reterms.ReadTSV(strings.NewReader(head + termRows("a", 0, "1") + termRows("b", 1, "1")))
	if err != nil {
		t.Fatalf("valid data: %v", err)
	}
	if g := s.Names(); !reflect.DeepEqual(g, []string{"a", "b"}) {
		t.Errorf("valid data: got terms %v", g)
	}

	tests := map[string]string{
		"fractional effects":  termRows("a", 0, "1.5"),
		"duplicated position": termRows("a", 0, "1") + termRows("b", 0, "1"),
		"unknown section":     "beta\ta\t0\t\t\t\n",
		"undefined term":      "theta\ta\t0\t\t1\t\n",
	}
	for name, data := range tests {
		if _, err := reterms.ReadTSV(strings.NewReader(head + data)); err == nil {
			t.Errorf("%s: expecting error", name)
		}
	}
}
