// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package splice implements a command to splice
// the phylogenetic design matrix of a tree
// into a random effects structure.
package splice

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/js-arias/command"
	"github.com/js-arias/phyglmm/obs"
	"github.com/js-arias/phyglmm/phylo"
	"github.com/js-arias/phyglmm/project"
	"github.com/js-arias/phyglmm/reterms"
	"github.com/js-arias/phyglmm/zmat"
	"github.com/js-arias/phyglmm/zparam"
)

var Command = &command.Command{
	Usage: `splice [--tree <tree-name>]
	[--groups <column>[,<column>...]] [--slope <covariate>:<column>]
	[-o|--output <file>]
	<project-file>`,
	Short: "splice a Z matrix into a random effects structure",
	Long: `
Command splice reads a random effects structure and the Z matrix of a tree
from a PhyGLMM project, and replaces the phylogenetic term of the structure by
a term with an effect for each edge of the tree.

The argument of the command is the name of the project file.

The phylogenetic term of the structure must be a random intercept over the
terminals of the tree, (1 | taxon) in formula notation. Its name is defined in
the project parameters (see 'phyglmm help param'). In the new term, the design
block is the transpose of the Z matrix (with a row for each observation), the
correlation block is an identity matrix, and all its entries are mapped to the
single parameter of the original term. All other terms are kept unchanged.

If the project has a random effects structure file (dataset "reterms"), that
structure will be used. Otherwise, a structure will be built from the
observations of the project, with the phylogenetic term as a random intercept
over the taxa. Additional random intercept terms can be defined with the flag
--groups, with a comma-separated list of columns of the observation table. A
correlated random intercept and slope term can be defined with the flag
--slope, with the name of a numeric column (the covariate) and the column of
the grouping factor, separated by a colon.

If the project has a Z matrix file (dataset "zmatrix"), that matrix will be
used. Otherwise the Z matrix will be built from the trees of the project. If
the project has a single tree, that tree will be used. Otherwise, use the flag
--tree to indicate the tree.

By default, the spliced structure will be written in the file 'spliced.tab'.
Use the flag -o, or --output, to define a different output file. If the
output file is "-", the structure will be written in the standard output.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var treeName string
var groups string
var slope string
var output string

func setFlags(c *command.Command) {
	c.Flags().StringVar(&treeName, "tree", "", "")
	c.Flags().StringVar(&groups, "groups", "", "")
	c.Flags().StringVar(&slope, "slope", "", "")
	c.Flags().StringVar(&output, "output", "spliced.tab", "")
	c.Flags().StringVar(&output, "o", "spliced.tab", "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}

	p, err := project.Read(args[0])
	if err != nil {
		return err
	}
	zp, err := p.Params()
	if err != nil {
		return err
	}

	s, err := readStructure(p, zp)
	if err != nil {
		return err
	}
	id, err := s.Lookup(zp.Term())
	if err != nil {
		return err
	}
	term, err := s.Term(id)
	if err != nil {
		return err
	}

	z, err := readZMatrix(p, zp)
	if err != nil {
		return err
	}
	if z.Labeled() && len(term.Group) == s.NumObs() {
		z, err = zmat.Expand(z, term.Group)
		if err != nil {
			return err
		}
	}

	ns, err := zp.Splicer().Splice(s, id, z)
	if err != nil {
		return err
	}

	if output == "-" {
		return ns.TSV(c.Stdout())
	}
	if err := writeStructure(output, ns); err != nil {
		return err
	}
	printSummary(c.Stdout(), s, ns, zp.Term())
	return nil
}

func readStructure(p *project.Project, zp *zparam.ZP) (*reterms.Structure, error) {
	if p.Path(project.Structure) != "" {
		return p.Structure()
	}

	d, err := p.Observations()
	if err != nil {
		return nil, err
	}
	return buildStructure(d, zp.Term())
}

func buildStructure(d *obs.Data, phyloTerm string) (*reterms.Structure, error) {
	pt, err := reterms.NewIntercept(phyloTerm, d.Taxa())
	if err != nil {
		return nil, err
	}
	terms := []reterms.Term{pt}

	if groups != "" {
		for _, g := range strings.Split(groups, ",") {
			g = strings.ToLower(strings.TrimSpace(g))
			if g == "" {
				continue
			}
			vs, err := d.Column(g)
			if err != nil {
				return nil, err
			}
			t, err := reterms.NewIntercept(g, vs)
			if err != nil {
				return nil, err
			}
			terms = append(terms, t)
		}
	}

	if slope != "" {
		cv, g, ok := strings.Cut(slope, ":")
		if !ok {
			return nil, fmt.Errorf("invalid slope value %q: expecting <covariate>:<column>", slope)
		}
		cv = strings.ToLower(strings.TrimSpace(cv))
		g = strings.ToLower(strings.TrimSpace(g))
		x, err := d.Numeric(cv)
		if err != nil {
			return nil, err
		}
		vs, err := d.Column(g)
		if err != nil {
			return nil, err
		}
		t, err := reterms.NewSlope(cv+"|"+g, cv, vs, x)
		if err != nil {
			return nil, err
		}
		terms = append(terms, t)
	}

	return reterms.New(terms...)
}

func readZMatrix(p *project.Project, zp *zparam.ZP) (*zmat.Matrix, error) {
	if p.Path(project.ZMatrix) != "" {
		z, err := p.ZMatrix()
		if err != nil {
			return nil, err
		}
		if treeName != "" && z.Name() != treeName {
			return nil, fmt.Errorf("project %q: design matrix: got tree %q, want %q", p.Name(), z.Name(), treeName)
		}
		return z, nil
	}

	tc, err := p.Trees()
	if err != nil {
		return nil, err
	}
	tn := treeName
	if tn == "" {
		ls := tc.Names()
		if len(ls) != 1 {
			return nil, fmt.Errorf("project %q has %d trees, expecting flag --tree", p.Name(), len(ls))
		}
		tn = ls[0]
	}
	t := tc.Tree(tn)
	if t == nil {
		return nil, fmt.Errorf("tree %q not found in project %q", tn, p.Name())
	}
	pt, err := phylo.FromTimeTree(t, zp.Scale())
	if err != nil {
		return nil, err
	}
	return zmat.BuildParallel(pt, zp.WeightFunc(), zp.CPU()), nil
}

func writeStructure(name string, s *reterms.Structure) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		e := f.Close()
		if e != nil && err == nil {
			err = e
		}
	}()

	if err := s.TSV(f); err != nil {
		return fmt.Errorf("while writing %q: %v", name, err)
	}
	return nil
}

func printSummary(w io.Writer, old, s *reterms.Structure, phyloTerm string) {
	fmt.Fprintf(w, "# observations: %d\n", s.NumObs())
	oldGp := old.Gp()
	gp := s.Gp()
	for i, n := range s.Names() {
		mark := ""
		if n == phyloTerm {
			mark = " (spliced)"
		}
		fmt.Fprintf(w, "# term %q: effects: %d -> %d%s\n", n, oldGp[i+1]-oldGp[i], gp[i+1]-gp[i], mark)
	}
	fmt.Fprintf(w, "# parameters: %d\n", len(s.Theta()))
}
