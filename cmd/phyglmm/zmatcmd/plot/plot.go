// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package plot implements a command to plot
// the root path length of the terminals
// against the number of edges in the path.
package plot

import (
	"fmt"
	"image/color"

	"github.com/js-arias/command"
	"github.com/js-arias/phyglmm/project"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var Command = &command.Command{
	Usage: `plot [-o|--output <file>] <project-file>`,
	Short: "plot root path lengths of the Z matrix",
	Long: `
Command plot reads the Z matrix of a PhyGLMM project and plots, for each
terminal, the sum of the values of its row (the length of the path to the root
if the matrix uses branch lengths as weights) against the number of edges in
the path (the depth of the terminal). For each depth, a box with the 95%
interval of the values is drawn, as well as a line with the median.

The argument of the command is the name of the project file.

The mean and standard deviation of the path lengths are printed in the
standard output. In a time calibrated tree with all terminals at the present,
the standard deviation should be zero.

By default the name of the tree used to build the matrix will be used as the
name of the output file, with the suffix '-paths.png'. Use the flag -o, or
--output, to define a different name.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var output string

func setFlags(c *command.Command) {
	c.Flags().StringVar(&output, "output", "", "")
	c.Flags().StringVar(&output, "o", "", "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}

	p, err := project.Read(args[0])
	if err != nil {
		return err
	}
	z, err := p.ZMatrix()
	if err != nil {
		return err
	}

	pl := z.PathLengths()
	dp := &depthPlot{
		lengths: make(map[int][]float64),
		style:   plotter.DefaultLineStyle,
	}
	for i, v := range pl {
		d := z.Sparse().RowNNZ(i)
		dp.lengths[d] = append(dp.lengths[d], v)
	}

	mean, sd := stat.MeanStdDev(pl, nil)
	fmt.Fprintf(c.Stdout(), "# tree %q: terminals: %d\n", z.Name(), len(pl))
	fmt.Fprintf(c.Stdout(), "# path length: mean: %.6f, sd: %.6f\n", mean, sd)

	if output == "" {
		output = z.Name() + "-paths.png"
	}
	if err := dp.save(output); err != nil {
		return fmt.Errorf("while writing %q: %v", output, err)
	}
	return nil
}

// A depthPlot is a plot of the path lengths
// at each depth.
type depthPlot struct {
	lengths map[int][]float64
	style   draw.LineStyle
}

func (dp *depthPlot) depths() []int {
	ds := make([]int, 0, len(dp.lengths))
	for d := range dp.lengths {
		ds = append(ds, d)
	}
	slices.Sort(ds)
	return ds
}

func (dp *depthPlot) quantile(d int, q float64) float64 {
	vs := slices.Clone(dp.lengths[d])
	slices.Sort(vs)
	return stat.Quantile(q, stat.Empirical, vs, nil)
}

// DataRange implements the plot.DataRanger interface.
func (dp *depthPlot) DataRange() (xMin, xMax, yMin, yMax float64) {
	ds := dp.depths()
	for _, d := range ds {
		for _, v := range dp.lengths[d] {
			if v > yMax {
				yMax = v
			}
		}
	}
	return float64(ds[0]) - 0.5, float64(ds[len(ds)-1]) + 0.5, 0, yMax
}

// Plot implements the plot.Plotter interface.
func (dp *depthPlot) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)

	ds := dp.depths()
	for _, d := range ds {
		x0 := trX(float64(d) - 0.3)
		x1 := trX(float64(d) + 0.3)
		lo := trY(dp.quantile(d, 0.025))
		hi := trY(dp.quantile(d, 0.975))

		pts := []vg.Point{
			{X: x0, Y: hi},
			{X: x1, Y: hi},
			{X: x1, Y: lo},
			{X: x0, Y: lo},
			{X: x0, Y: hi},
		}
		c.FillPolygon(color.RGBA{127, 188, 165, 255}, pts)
	}

	c.SetLineStyle(dp.style)
	for _, d := range ds {
		y := trY(dp.quantile(d, 0.5))
		var p vg.Path
		p.Move(vg.Point{X: trX(float64(d) - 0.3), Y: y})
		p.Line(vg.Point{X: trX(float64(d) + 0.3), Y: y})
		c.Stroke(p)
	}
}

func (dp *depthPlot) save(name string) error {
	p := plot.New()
	p.X.Label.Text = "edges in path"
	p.Y.Label.Text = "path length"

	p.Add(dp)
	return p.Save(6*vg.Inch, 4*vg.Inch, name)
}
