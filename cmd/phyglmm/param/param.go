// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package param implements a command to manage
// the parameters used to build
// and splice a phylogenetic design matrix.
package param

import (
	"fmt"
	"io"

	"github.com/js-arias/command"
	"github.com/js-arias/phyglmm/project"
	"github.com/js-arias/phyglmm/zparam"
)

var Command = &command.Command{
	Usage: `param [--add <param-file>] [--file <file-name>]
	[--term <name>] [--weight <value>] [--prefix <value>]
	[--scale <value>] [--cpu <value>]
	<project-file>`,
	Short: "manage Z matrix parameters",
	Long: `
Command param manages the parameters used to build the phylogenetic design
matrix (Z matrix) of a PhyGLMM project, and to splice it into a random effects
structure.

The argument of the command is the name of the project file.

By default, the command will print the currently defined parameters.

If the flag --add is defined, it will use the indicated file for the
parameters.

By default, any change on the parameters will be stored in the current
parameters file. If the project does not have a parameters file, a new one
will be created with the name 'params.tab'. Use the flag --file to define a
new parameters file.

To set the name of the phylogenetic term of the random effects structure use
the flag --term. The default name is "phylo".

To set the function applied to the branch lengths in the Z matrix use the flag
--weight. Valid values are:

	- length: the branch length (the default).
	- sqrt: the square root of the branch length, so the product Z Z' is
	  the phylogenetic covariance of a Brownian motion model.

To set the prefix used for the names of the levels of a spliced term use the
flag --prefix. The default is "edge_", so the levels will be "edge_1",
"edge_2", and so on.

Branch lengths of time calibrated trees are given in million years. To use a
different scale use the flag --scale, with the number of years of a branch
length unit.

By default, all available processors will be used to build a Z matrix. Use
the flag --cpu to set a different number of processors.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var addFile string
var paramFile string
var termName string
var weight string
var prefix string
var scale float64
var cpu int

func setFlags(c *command.Command) {
	c.Flags().StringVar(&addFile, "add", "", "")
	c.Flags().StringVar(&paramFile, "file", "", "")
	c.Flags().StringVar(&termName, "term", "", "")
	c.Flags().StringVar(&weight, "weight", "", "")
	c.Flags().StringVar(&prefix, "prefix", "", "")
	c.Flags().Float64Var(&scale, "scale", 0, "")
	c.Flags().IntVar(&cpu, "cpu", -1, "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}

	p, err := project.Read(args[0])
	if err != nil {
		return err
	}

	if addFile != "" {
		if _, err := zparam.Read(addFile); err != nil {
			return err
		}
		p.Add(project.Params, addFile)
		if err := p.Write(); err != nil {
			return err
		}
		return nil
	}

	zp, err := p.Params()
	if err != nil {
		return err
	}
	if zp.Name() == "" {
		zp.SetName("params.tab")
	}
	if paramFile != "" {
		zp.SetName(paramFile)
	}

	ed := false
	if termName != "" {
		if err := zp.SetTerm(termName); err != nil {
			return err
		}
		ed = true
	}
	if weight != "" {
		if err := zp.SetWeight(weight); err != nil {
			return err
		}
		ed = true
	}
	if prefix != "" {
		if err := zp.SetEdgePrefix(prefix); err != nil {
			return err
		}
		ed = true
	}
	if scale != 0 {
		if err := zp.SetScale(scale); err != nil {
			return err
		}
		ed = true
	}
	if cpu >= 0 {
		if err := zp.SetCPU(cpu); err != nil {
			return err
		}
		ed = true
	}

	if p.Path(project.Params) != zp.Name() && (ed || paramFile != "") {
		if err := zp.Write(); err != nil {
			return err
		}
		p.Add(project.Params, zp.Name())
		if err := p.Write(); err != nil {
			return err
		}
		return nil
	}
	if ed {
		if err := zp.Write(); err != nil {
			return err
		}
		return nil
	}

	printParams(c.Stdout(), p, zp)
	return nil
}

func printParams(w io.Writer, p *project.Project, zp *zparam.ZP) {
	name := p.Path(project.Params)
	if name == "" {
		name = "(default values)"
	}
	fmt.Fprintf(w, "file:        %s\n", name)
	fmt.Fprintf(w, "term:        %s\n", zp.Term())
	fmt.Fprintf(w, "weight:      %s\n", zp.Weight())
	fmt.Fprintf(w, "edge prefix: %s\n", zp.EdgePrefix())
	fmt.Fprintf(w, "scale:       %.0f years\n", zp.Scale())
	if c := zp.CPU(); c > 0 {
		fmt.Fprintf(w, "cpu:         %d\n", c)
	}
}
