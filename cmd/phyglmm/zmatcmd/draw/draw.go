// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package draw implements a command to draw
// the Z matrix of a PhyGLMM project
// as a PNG image.
package draw

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/js-arias/command"
	"github.com/js-arias/phyglmm/heatmap"
	"github.com/js-arias/phyglmm/project"
)

var Command = &command.Command{
	Usage: `draw [--cell <value>] [--gradient <name>]
	[-o|--output <file>]
	<project-file>`,
	Short: "draw the Z matrix as an image",
	Long: `
Command draw reads the Z matrix of a PhyGLMM project and draws it as a heat map
in a PNG image. Each row of the image is a terminal, and each column an edge of
the tree. Cells of edges not in the path of the terminal are white, and the
other cells are colored using the value of the entry, scaled by the maximum
value of the matrix.

The argument of the command is the name of the project file.

By default each cell is drawn as a square of 4 pixels. Use the flag --cell to
set a different size.

By default the iridescent color scheme of Paul Tol is used. Use the flag
--gradient to define a different scheme. Valid values are:

	- gray: a gray scale.
	- incandescent: the incandescent scheme of Paul Tol.
	- iridescent: the iridescent scheme of Paul Tol.
	- rainbow: the rainbow scheme of Paul Tol, from purple to red.

By default the name of the tree used to build the matrix will be used as the
name of the output file, with the suffix '-zmatrix.png'. Use the flag -o, or
--output, to define a different name.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var cellSize int
var gradient string
var output string

func setFlags(c *command.Command) {
	c.Flags().IntVar(&cellSize, "cell", 4, "")
	c.Flags().StringVar(&gradient, "gradient", "iridescent", "")
	c.Flags().StringVar(&output, "output", "", "")
	c.Flags().StringVar(&output, "o", "", "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}

	g := heatmap.Get(gradient)
	if g == nil {
		return c.UsageError(fmt.Sprintf("unknown gradient %q", gradient))
	}

	p, err := project.Read(args[0])
	if err != nil {
		return err
	}
	z, err := p.ZMatrix()
	if err != nil {
		return err
	}

	img := heatmap.New(z.Sparse(), cellSize)
	img.Gradient = g

	if output == "" {
		output = z.Name() + "-zmatrix.png"
	}
	if err := writeImage(output, img); err != nil {
		return err
	}
	fmt.Fprintf(c.Stdout(), "# max value: %.6f\n", img.Max())
	return nil
}

func writeImage(name string, img image.Image) (err error) {
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

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("when encoding image file %q: %v", name, err)
	}
	return nil
}
