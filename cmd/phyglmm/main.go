// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// PhyGLMM is a tool to build the phylogenetic random effects
// of a generalized linear mixed model.
package main

import (
	"github.com/js-arias/command"
	"github.com/js-arias/phyglmm/cmd/phyglmm/obscmd"
	"github.com/js-arias/phyglmm/cmd/phyglmm/param"
	"github.com/js-arias/phyglmm/cmd/phyglmm/prj"
	"github.com/js-arias/phyglmm/cmd/phyglmm/splice"
	"github.com/js-arias/phyglmm/cmd/phyglmm/tree"
	"github.com/js-arias/phyglmm/cmd/phyglmm/zmatcmd"
)

var app = &command.Command{
	Usage: "phyglmm <command> [<argument>...]",
	Short: "a tool for phylogenetic mixed model random effects",
}

func init() {
	app.Add(obscmd.Command)
	app.Add(param.Command)
	app.Add(prj.Command)
	app.Add(splice.Command)
	app.Add(tree.Command)
	app.Add(zmatcmd.Command)
}

func main() {
	app.Main()
}
