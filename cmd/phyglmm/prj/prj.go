// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package prj implements a command to print
// the basic information of a project.
package prj

import (
	"fmt"
	"io"
	"math"

	"github.com/js-arias/command"
	"github.com/js-arias/phyglmm/phylo"
	"github.com/js-arias/phyglmm/project"
)

var Command = &command.Command{
	Usage: "prj <project-file>",
	Short: "print information about a project",
	Long: `
Command prj reads a PhyGLMM project and prints the information of the
different project elements into the standard output.

The argument of the command is the name of the project file.
	`,
	Run: run,
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}

	p, err := project.Read(args[0])
	if err != nil {
		return err
	}

	if err := printParams(c.Stdout(), p); err != nil {
		return err
	}
	if p.Path(project.Trees) != "" {
		if err := printTrees(c.Stdout(), p); err != nil {
			return err
		}
	}
	if p.Path(project.Observations) != "" {
		if err := printObservations(c.Stdout(), p); err != nil {
			return err
		}
	}
	if p.Path(project.ZMatrix) != "" {
		if err := printZMatrix(c.Stdout(), p); err != nil {
			return err
		}
	}
	if p.Path(project.Structure) != "" {
		if err := printStructure(c.Stdout(), p); err != nil {
			return err
		}
	}
	return nil
}

func printParams(w io.Writer, p *project.Project) error {
	zp, err := p.Params()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Parameters:\n")
	if name := p.Path(project.Params); name != "" {
		fmt.Fprintf(w, "\tfile: %s\n", name)
	}
	fmt.Fprintf(w, "\tterm: %s\n", zp.Term())
	fmt.Fprintf(w, "\tweight: %s\n", zp.Weight())
	fmt.Fprintf(w, "\n")
	return nil
}

func printTrees(w io.Writer, p *project.Project) error {
	c, err := p.Trees()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Trees:\n")
	fmt.Fprintf(w, "\tfile: %s\n", p.Path(project.Trees))

	terms := make(map[string]bool)
	min := math.MaxFloat64
	var max float64
	for _, tn := range c.Names() {
		t := c.Tree(tn)
		if t == nil {
			continue
		}
		ra := float64(t.Age(t.Root())) / phylo.MillionYears
		if ra > max {
			max = ra
		}

		for _, tax := range t.Terms() {
			terms[tax] = true
			id, ok := t.TaxNode(tax)
			if !ok {
				continue
			}
			ta := float64(t.Age(id)) / phylo.MillionYears
			if ta < min {
				min = ta
			}
		}
	}
	fmt.Fprintf(w, "\ttrees: %d\n", len(c.Names()))
	fmt.Fprintf(w, "\tterminals: %d\n", len(terms))
	fmt.Fprintf(w, "\tage range: %.3f-%.3f Ma\n", min, max)
	fmt.Fprintf(w, "\n")
	return nil
}

func printObservations(w io.Writer, p *project.Project) error {
	d, err := p.Observations()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Observations:\n")
	fmt.Fprintf(w, "\tfile: %s\n", p.Path(project.Observations))
	fmt.Fprintf(w, "\tobservations: %d\n", d.Len())
	fmt.Fprintf(w, "\ttaxa: %d\n", len(d.TaxonList()))
	fmt.Fprintf(w, "\tcolumns: %v\n", d.Columns())
	fmt.Fprintf(w, "\n")
	return nil
}

func printZMatrix(w io.Writer, p *project.Project) error {
	z, err := p.ZMatrix()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Z matrix:\n")
	fmt.Fprintf(w, "\tfile: %s\n", p.Path(project.ZMatrix))
	fmt.Fprintf(w, "\ttree: %s\n", z.Name())
	fmt.Fprintf(w, "\trows: %d\n", z.Rows())
	fmt.Fprintf(w, "\tedges: %d\n", z.Edges())
	fmt.Fprintf(w, "\tentries: %d\n", z.Sparse().NNZ())
	fmt.Fprintf(w, "\n")
	return nil
}

func printStructure(w io.Writer, p *project.Project) error {
	s, err := p.Structure()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Random effects structure:\n")
	fmt.Fprintf(w, "\tfile: %s\n", p.Path(project.Structure))
	fmt.Fprintf(w, "\tobservations: %d\n", s.NumObs())
	gp := s.Gp()
	for i, n := range s.Names() {
		fmt.Fprintf(w, "\tterm %s: effects: %d\n", n, gp[i+1]-gp[i])
	}
	fmt.Fprintf(w, "\tparameters: %d\n", len(s.Theta()))
	fmt.Fprintf(w, "\n")
	return nil
}
