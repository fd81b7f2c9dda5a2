// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package list implements a command to print
// the list of trees in a PhyGLMM project.
package list

import (
	"fmt"

	"github.com/js-arias/command"
	"github.com/js-arias/phyglmm/phylo"
	"github.com/js-arias/phyglmm/project"
)

var Command = &command.Command{
	Usage: "list [-v|--verbose] <project-file>",
	Short: "print a list of the trees in a project",
	Long: `
Command list reads the trees from a PhyGLMM project and prints the tree names
in the standard output.

The argument of the command is the name of the project file.

If the flag --verbose, or -v, is set, the number of tips, the number of
edges, and the age of the root (in million years) of each tree will be
printed.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var verbose bool

func setFlags(c *command.Command) {
	c.Flags().BoolVar(&verbose, "verbose", false, "")
	c.Flags().BoolVar(&verbose, "v", false, "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}

	p, err := project.Read(args[0])
	if err != nil {
		return err
	}

	tc, err := p.Trees()
	if err != nil {
		return err
	}

	ls := tc.Names()
	for _, tn := range ls {
		if !verbose {
			fmt.Fprintf(c.Stdout(), "%s\n", tn)
			continue
		}
		t := tc.Tree(tn)
		pt, err := phylo.FromTimeTree(t, phylo.MillionYears)
		if err != nil {
			return err
		}
		age := float64(t.Age(t.Root())) / phylo.MillionYears
		fmt.Fprintf(c.Stdout(), "%s\ttips: %d\tedges: %d\troot: %.3f Ma\n", tn, pt.Tips(), pt.Edges(), age)
	}
	return nil
}
