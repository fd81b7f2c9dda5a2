// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package add implements a command to add trees
// to a PhyGLMM project.
package add

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/js-arias/command"
	"github.com/js-arias/phyglmm/phylo"
	"github.com/js-arias/phyglmm/project"
	"github.com/js-arias/timetree"
)

var Command = &command.Command{
	Usage: `add [-f|--file <tree-file>]
	[--newick <name>] [--age <value>]
	<project-file> [<tree-file>...]`,
	Short: "add phylogenetic trees to a PhyGLMM project",
	Long: `
Command add reads one or more time calibrated trees, and adds them to a
PhyGLMM project, so they can be used to build a phylogenetic design matrix
(the Z matrix).

The first argument of the command is the name of the project file. If no
project file exists, a new project will be created.

One or more tree files can be given as arguments. If no file is given the
trees will be read from the standard input.

By default, the input is expected to be in the form of tab-delimited tree
files. To import newick trees (i.e., trees in parenthetical format), use the
flag --newick with a name to be defined for the trees found in the input
files. It is expected that branch lengths were given in million years. By
default, the age of the root will be calculated from the largest branch length
between any terminal and the root. To set a different root age, use the
flag --age, with a value in million years.

Before a tree is added, it is converted into the edge list used by the Z
matrix builder. A tree is rejected if:

	- it has no root, or more than one root;
	- a node has more than one parent, or the tree has cycles;
	- a branch length is negative or is not a finite number;
	- two terminals share the same taxon name.

So each terminal of an accepted tree has a single path to the root, and its
row in the Z matrix can be matched with the observations of the taxon. For
each added tree, the number of terminals and edges (i.e., the rows and columns
of its Z matrix) will be printed in the standard output.

By default the trees will be stored in the tree file currently defined for the
project. If the project does not have a tree file, a new one will be created
with the name 'trees.tab'. A different tree file name can be defined using the
flag --file, or -f. If this flag is used, and there is tree file already
defined, then a new file with that name will be created, and used as the tree
file for the project (previously defined trees will be kept).
	`,
	SetFlags: setFlags,
	Run:      run,
}

var treeFile string
var newickName string
var rootAge float64

func setFlags(c *command.Command) {
	c.Flags().StringVar(&treeFile, "file", "", "")
	c.Flags().StringVar(&treeFile, "f", "", "")
	c.Flags().StringVar(&newickName, "newick", "", "")
	c.Flags().Float64Var(&rootAge, "age", 0, "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}
	pFile := args[0]
	p, err := openProject(pFile)
	if err != nil {
		return err
	}

	tc := timetree.NewCollection()
	if p.Path(project.Trees) != "" {
		tc, err = p.Trees()
		if err != nil {
			return fmt.Errorf("on project %q: %v", pFile, err)
		}
	}

	files := args[1:]
	if len(files) == 0 {
		files = []string{"-"}
	}
	for i, fn := range files {
		nc, err := readTrees(c.Stdin(), fn, i)
		if err != nil {
			return err
		}
		if fn == "-" {
			fn = "stdin"
		}

		for _, tn := range nc.Names() {
			t := nc.Tree(tn)
			pt, err := checkTree(t)
			if err != nil {
				return fmt.Errorf("when adding trees from %q: %v", fn, err)
			}
			if err := tc.Add(t); err != nil {
				return fmt.Errorf("when adding trees from %q: %v", fn, err)
			}
			fmt.Fprintf(c.Stdout(), "tree %q: %d terminals, %d edges\n", tn, pt.Tips(), pt.Edges())
		}
	}

	if treeFile == "" {
		treeFile = p.Path(project.Trees)
		if treeFile == "" {
			treeFile = "trees.tab"
		}
	}

	if err := writeTrees(tc); err != nil {
		return err
	}
	p.Add(project.Trees, treeFile)
	return p.Write()
}

// CheckTree returns the edge list of a tree
// that can be used by the Z matrix builder.
func checkTree(t *timetree.Tree) (*phylo.Tree, error) {
	pt, err := phylo.FromTimeTree(t, phylo.MillionYears)
	if err != nil {
		return nil, err
	}

	taxa := make(map[string]bool, pt.Tips())
	for _, l := range pt.TipLabels() {
		if taxa[l] {
			return nil, fmt.Errorf("tree %q: %w: taxon %q: repeated terminal", t.Name(), phylo.ErrMalformed, l)
		}
		taxa[l] = true
	}
	return pt, nil
}

func openProject(name string) (*project.Project, error) {
	p, err := project.Read(name)
	if errors.Is(err, os.ErrNotExist) {
		p := project.New()
		p.SetName(name)
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to open project %q: %v", name, err)
	}
	return p, nil
}

// ReadTrees reads the trees of the i-th input file.
// A file named "-" is the standard input.
func readTrees(r io.Reader, name string, i int) (*timetree.Collection, error) {
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	} else {
		name = "stdin"
	}

	var c *timetree.Collection
	var err error
	if newickName != "" {
		tn := newickName
		if i > 0 {
			tn = fmt.Sprintf("%s.%d", newickName, i)
		}
		c, err = timetree.Newick(r, tn, int64(rootAge*phylo.MillionYears))
	} else {
		c, err = timetree.ReadTSV(r)
	}
	if err != nil {
		return nil, fmt.Errorf("while reading file %q: %v", name, err)
	}
	return c, nil
}

func writeTrees(tc *timetree.Collection) (err error) {
	f, err := os.Create(treeFile)
	if err != nil {
		return err
	}
	defer func() {
		e := f.Close()
		if e != nil && err == nil {
			err = e
		}
	}()

	if err := tc.TSV(f); err != nil {
		return fmt.Errorf("while writing to %q: %v", treeFile, err)
	}
	return nil
}
