// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package obscmd is a metapackage for commands
// that dealt with observation tables.
package obscmd

import (
	"github.com/js-arias/command"
	"github.com/js-arias/phyglmm/cmd/phyglmm/obscmd/add"
)

var Command = &command.Command{
	Usage: "obs <command> [<argument>...]",
	Short: "commands for observation tables",
}

func init() {
	Command.Add(add.Command)
}
