// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package main

import "github.com/js-arias/command"

func init() {
	app.Add(obsFilesGuide)
	app.Add(projectsGuide)
	app.Add(structureFilesGuide)
	app.Add(treeFilesGuide)
	app.Add(zmatrixFilesGuide)
}

var projectsGuide = &command.Command{
	Usage: "projects",
	Short: "about project files",
	Long: `
PhyGLMM requires several files to build the phylogenetic random effects of a
mixed model. To reduce the burden of keeping track of many files, a single
project file is used to hold the reference of all files required in the
analysis. This guide explains the structure of the file, but most of the time,
the best and most secure way to edit or view this file is by using phyglmm
commands.

A project file is a tab-delimited file with the following fields:

	- dataset  for the kind of file
	- path     for the path of the file

Here is an example file:

	# phyglmm project files
	dataset	path
	observations	obs.tab
	params	params.tab
	reterms	structure.tab
	trees	trees.tab
	zmatrix	zmatrix.tab

The valid file types are:

- Observations. Defined by the dataset keyword "observations". This file
  contains the observed taxon of each observation of the model, as well as
  other columns used for grouping factors or covariates. The recommended way
  to add observations is by using the command 'phyglmm obs add'.
- Parameters. Defined by the dataset keyword "params". This file contains the
  parameters used to build and splice the phylogenetic design matrix. The
  recommended way to edit the parameters is by using the command
  'phyglmm param'.
- Random effects structure. Defined by the dataset keyword "reterms". This
  file contains the random effects structure of a mixed model, as produced by
  a formula parser, with a placeholder for the phylogenetic term.
- Time-calibrated trees. Defined by the dataset keyword "trees". This file
  contains one or more trees in the form of a tab-delimited file. The
  recommended way to add a tree file is by using the command
  'phyglmm tree add'.
- Phylogenetic design matrix. Defined by the dataset keyword "zmatrix". This
  file contains the Z matrix of a tree. The recommended way to build it is
  with the command 'phyglmm zmat build'.
	`,
}

var obsFilesGuide = &command.Command{
	Usage: "obs-files",
	Short: "about observation files",
	Long: `
In PhyGLMM, each observation of a mixed model is made on a taxon of the tree.
Observations are stored in a tab-delimited file with a row for each
observation. The order of the rows is the order of the observations in the
model.

An observation file must have the following column:

	- taxon  the taxonomic name of the observed taxon.

Any other column is kept as an additional column of the observations, for
example a grouping factor of a random intercept, or a numeric covariate of a
random slope. Column names are case insensitive.

Here is an example file:

	taxon	site	mass
	Acer campbellii	north	1.5
	Acer campbellii	south	2.1
	Acer erythranthum	south	0.7
	Acer platanoides	north	3.2

In a PhyGLMM project, the file that contains the observations is indicated
with the "observations" keyword.
	`,
}

var structureFilesGuide = &command.Command{
	Usage: "structure-files",
	Short: "about random effects structure files",
	Long: `
A random effects structure is an ordered set of named terms. Each term has a
transposed design block (a row for each effect and a column for each
observation), a grouping factor, a lower triangular block of the correlation
factor, and a set of correlation parameters mapped to the entries of that
block.

A random effects structure file is a tab-delimited file with the following
columns:

	- section  the kind of component of the term.
	- term     the name of the term.
	- row      a row index (starting at 0).
	- col      a column index (starting at 0).
	- value    a numeric value.
	- label    a text value.

The valid sections are:

	- term    the definition of the term: row is the position of the term
	          in the structure, col the number of observations, value the
	          number of effects, and label the name of the term.
	- cnms    the names of the effects of each level: row is the index and
	          label the name.
	- level   the levels of the grouping factor: row is the index and label
	          the level.
	- flist   the grouping factor: row is the observation (or the level of a
	          spliced term) and label the level.
	- theta   a correlation parameter: row is the index and value the value.
	- lower   the lower bound of a correlation parameter.
	- zt      an entry of the design block: row is the effect, col the
	          observation, and value the value.
	- lambda  a structural entry of the correlation block.
	- lind    the parameter of a structural entry of the correlation block:
	          row is the entry (in row major order) and col the parameter.

Here is an example file of a random intercept over two species:

	# random effects structure
	section	term	row	col	value	label
	term	species	0	3	2	species
	cnms	species	0			(Intercept)
	level	species	0			Acer campbellii
	level	species	1			Acer platanoides
	flist	species	0			Acer campbellii
	flist	species	1			Acer platanoides
	flist	species	2			Acer platanoides
	theta	species	0		1
	lower	species	0		0
	zt	species	0	0	1
	zt	species	1	1	1
	zt	species	1	2	1
	lambda	species	0	0	1
	lambda	species	1	1	1
	lind	species	0	0
	lind	species	1	0

In a PhyGLMM project, the file that contains the random effects structure is
indicated with the "reterms" keyword.
	`,
}

var treeFilesGuide = &command.Command{
	Usage: "tree-files",
	Short: "about tree files",
	Long: `
In PhyGLMM, phylogenetic trees must be time-calibrated and stored in a
tab-delimited file. The advantage of using a tab-delimited file is that it
would be easier to manipulate trees than in traditional newick files; for
example, it would be easier for commands in PhyGLMM, as well as for
third-party applications, to understand the node IDs.

The recommended way to interact with time-calibrated trees in a PhyGLMM
project is by using the commands in "phyglmm tree".

A tree file is a tab-delimited file with the following columns:

	-tree    for the name of the tree.
	-node    for the ID of the node.
	-parent  for of ID of the parent node (-1 is used for the root).
	-age     the age of the node (in years).
	-taxon   the taxonomic name of the node.

Here is an example file:

	# time calibrated phylogenetic tree
	tree	node	parent	age	taxon
	dinosaurs	0	-1	235000000
	dinosaurs	1	0	230000000	Eoraptor lunensis
	dinosaurs	2	0	170000000
	dinosaurs	3	2	145000000	Ceratosaurus nasicornis
	dinosaurs	4	2	71000000	Carnotaurus sastrei

In a PhyGLMM project, the file that contains the trees is indicated with the
"trees" keyword.
	`,
}

var zmatrixFilesGuide = &command.Command{
	Usage: "zmatrix-files",
	Short: "about Z matrix files",
	Long: `
The phylogenetic design matrix (Z matrix) of a tree has a row for each
terminal and a column for each edge. Each entry is the weighted length of the
edge if the edge is in the path from the terminal to the root, and zero
otherwise. Terminals are sorted by name, and edges follow the node order of
the tree.

A Z matrix file is a tab-delimited file with the following columns:

	- tree   the name of the tree.
	- row    the row index (starting at 0).
	- label  the label of the row (a terminal name).
	- tips   the number of terminals of the tree.
	- edges  the number of edges of the tree.
	- edge   the edge index (starting at 0).
	- value  the value of the entry.

Only the entries of the edges in the path of each terminal are stored. Here
is an example file, using branch lengths in million years:

	# phylogenetic design matrix
	tree	row	label	tips	edges	edge	value
	dinosaurs	0	Carnotaurus sastrei	3	4	1	65
	dinosaurs	0	Carnotaurus sastrei	3	4	3	99
	dinosaurs	1	Ceratosaurus nasicornis	3	4	1	65
	dinosaurs	1	Ceratosaurus nasicornis	3	4	2	25
	dinosaurs	2	Eoraptor lunensis	3	4	0	5

In a PhyGLMM project, the file that contains the Z matrix is indicated with
the "zmatrix" keyword.
	`,
}
