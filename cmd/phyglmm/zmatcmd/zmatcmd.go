// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package zmatcmd is a metapackage for commands
// that dealt with phylogenetic design matrices.
package zmatcmd

import (
	"github.com/js-arias/command"
	"github.com/js-arias/phyglmm/cmd/phyglmm/zmatcmd/build"
	"github.com/js-arias/phyglmm/cmd/phyglmm/zmatcmd/draw"
	"github.com/js-arias/phyglmm/cmd/phyglmm/zmatcmd/plot"
)

var Command = &command.Command{
	Usage: "zmat <command> [<argument>...]",
	Short: "commands for phylogenetic design matrices",
}

func init() {
	Command.Add(build.Command)
	Command.Add(draw.Command)
	Command.Add(plot.Command)
}
