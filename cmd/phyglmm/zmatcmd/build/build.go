// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package build implements a command to build
// the phylogenetic design matrix of a tree
// in a PhyGLMM project.
package build

import (
	"fmt"
	"os"

	"github.com/js-arias/command"
	"github.com/js-arias/phyglmm/phylo"
	"github.com/js-arias/phyglmm/project"
	"github.com/js-arias/phyglmm/zmat"
)

var Command = &command.Command{
	Usage: `build [--tree <tree-name>] [--cpu <number>]
	[-f|--file <file-name>]
	<project-file>`,
	Short: "build the Z matrix of a tree",
	Long: `
Command build reads a tree from a PhyGLMM project and builds its phylogenetic
design matrix (Z matrix). The Z matrix has a row for each terminal of the tree
and a column for each edge. Each row is the path from the terminal to the
root, with the weighted length of each edge in the path, so that Z Z' is the
phylogenetic covariance of the terminals.

The argument of the command is the name of the project file.

If the project has a single tree, that tree will be used. Otherwise, use the
flag --tree to indicate the tree.

The weight function and the scale of the branch lengths are taken from the
parameters of the project (see 'phyglmm help param').

The paths of the terminals are walked in parallel. By default the number of
processors defined in the project parameters are used. Use the flag --cpu to
set a different number of processors.

By default the Z matrix will be stored in the Z matrix file currently defined
for the project. If the project does not have a Z matrix file, a new one will
be created with the name 'zmatrix.tab'. A different file name can be defined
with the flag --file or -f.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var treeName string
var outFile string
var numCPU int

func setFlags(c *command.Command) {
	c.Flags().StringVar(&treeName, "tree", "", "")
	c.Flags().StringVar(&outFile, "file", "", "")
	c.Flags().StringVar(&outFile, "f", "", "")
	c.Flags().IntVar(&numCPU, "cpu", 0, "")
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

	tc, err := p.Trees()
	if err != nil {
		return err
	}
	if treeName == "" {
		ls := tc.Names()
		if len(ls) != 1 {
			return c.UsageError(fmt.Sprintf("project %q has %d trees, expecting flag --tree", args[0], len(ls)))
		}
		treeName = ls[0]
	}
	t := tc.Tree(treeName)
	if t == nil {
		return fmt.Errorf("tree %q not found in project %q", treeName, args[0])
	}

	pt, err := phylo.FromTimeTree(t, zp.Scale())
	if err != nil {
		return err
	}

	cpu := zp.CPU()
	if numCPU > 0 {
		cpu = numCPU
	}
	z := zmat.BuildParallel(pt, zp.WeightFunc(), cpu)

	if outFile == "" {
		outFile = p.Path(project.ZMatrix)
		if outFile == "" {
			outFile = "zmatrix.tab"
		}
	}
	if err := writeZMatrix(outFile, z); err != nil {
		return err
	}

	p.Add(project.ZMatrix, outFile)
	if err := p.Write(); err != nil {
		return err
	}

	fmt.Fprintf(c.Stdout(), "# tree %q: tips: %d, edges: %d, entries: %d\n", z.Name(), z.Tips(), z.Edges(), z.Sparse().NNZ())
	return nil
}

func writeZMatrix(name string, z *zmat.Matrix) (err error) {
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

	if err := z.TSV(f); err != nil {
		return fmt.Errorf("while writing %q: %v", name, err)
	}
	return nil
}
