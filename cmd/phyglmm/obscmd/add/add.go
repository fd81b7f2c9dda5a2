// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package add implements a command to add observations
// to a PhyGLMM project.
package add

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/js-arias/command"
	"github.com/js-arias/phyglmm/obs"
	"github.com/js-arias/phyglmm/project"
)

var Command = &command.Command{
	Usage: `add [-f|--file <obs-file>] [--filter]
	<project-file> [<obs-file>...]`,
	Short: "add observations to a PhyGLMM project",
	Long: `
Command add reads one or more tab-delimited files with observations, and adds
the observations to a PhyGLMM project.

The first argument of the command is the name of the project file. If no
project file exists, a new project will be created.

One or more observation files can be given as arguments. If no file is given
the observations will be read from the standard input. All files, as well as
any observation already defined in the project, must have the same columns.
New observations are added after the observations already defined, in input
order.

By default, all observations will be added. If the flag --filter is defined
and there are trees in the project, then it will add only the observations for
the taxon names present in the trees.

By default the observations will be stored in the observation file currently
defined for the project. If the project does not have an observation file, a
new one will be created with the name 'obs.tab'. A different file name can be
defined with the flag --file or -f. If this flag is used, and there is an
observation file already defined, then the new file will be created, and used
as the observation file (previously defined observations will be kept).
	`,
	SetFlags: setFlags,
	Run:      run,
}

var outFile string
var filterFlag bool

func setFlags(c *command.Command) {
	c.Flags().StringVar(&outFile, "file", "", "")
	c.Flags().StringVar(&outFile, "f", "", "")
	c.Flags().BoolVar(&filterFlag, "filter", false, "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}
	p, err := openProject(args[0])
	if err != nil {
		return err
	}

	d, err := addObsData(c.Stdin(), p, args[1:])
	if err != nil {
		return err
	}

	of := p.Path(project.Observations)
	if of == "" {
		of = "obs.tab"
	}
	if outFile != "" {
		of = outFile
	}
	if err := writeObsData(of, d); err != nil {
		return err
	}

	p.Add(project.Observations, of)
	if err := p.Write(); err != nil {
		return err
	}
	fmt.Fprintf(c.Stdout(), "# observations: %d\n", d.Len())
	return nil
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

func addObsData(r io.Reader, p *project.Project, files []string) (*obs.Data, error) {
	var d *obs.Data
	if p.Path(project.Observations) != "" {
		var err error
		d, err = p.Observations()
		if err != nil {
			return nil, err
		}
	}

	var filter map[string]bool
	if filterFlag && p.Path(project.Trees) != "" {
		var err error
		filter, err = makeFilter(p)
		if err != nil {
			return nil, err
		}
	}

	if len(files) == 0 {
		files = append(files, "-")
	}
	for _, f := range files {
		od, err := readObsData(r, f)
		if err != nil {
			return nil, err
		}
		if d == nil {
			d, err = obs.New(od.Columns()...)
			if err != nil {
				return nil, err
			}
		}
		if !slices.Equal(d.Columns(), od.Columns()) {
			return nil, fmt.Errorf("on file %q: got columns %v, want %v", f, od.Columns(), d.Columns())
		}

		cols := make([][]string, 0, len(od.Columns()))
		for _, cn := range od.Columns() {
			vs, _ := od.Column(cn)
			cols = append(cols, vs)
		}
		for i, tx := range od.Taxa() {
			if filter != nil && !filter[tx] {
				continue
			}
			row := make([]string, 0, len(cols))
			for _, vs := range cols {
				row = append(row, vs[i])
			}
			if err := d.Add(tx, row...); err != nil {
				return nil, fmt.Errorf("on file %q: %v", f, err)
			}
		}
	}
	return d, nil
}

func readObsData(r io.Reader, name string) (*obs.Data, error) {
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

	d, err := obs.ReadTSV(r)
	if err != nil {
		return nil, fmt.Errorf("when reading %q: %v", name, err)
	}
	return d, nil
}

func writeObsData(name string, d *obs.Data) (err error) {
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

	if err := d.TSV(f); err != nil {
		return fmt.Errorf("while writing %q: %v", name, err)
	}
	return nil
}

func makeFilter(p *project.Project) (map[string]bool, error) {
	c, err := p.Trees()
	if err != nil {
		return nil, err
	}

	terms := make(map[string]bool)
	for _, tn := range c.Names() {
		t := c.Tree(tn)
		if t == nil {
			continue
		}
		for _, tax := range t.Terms() {
			terms[tax] = true
		}
	}

	return terms, nil
}
